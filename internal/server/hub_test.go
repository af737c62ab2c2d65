package server

import (
	"log/slog"
	"testing"
	"time"

	"github.com/Tyrowin/roomchat/internal/chat"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestHubShutdownStopsRun(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	hub := NewHub(chat.NewState(log), log)

	stopped := make(chan struct{})
	go func() {
		hub.Run()
		close(stopped)
	}()

	require.NoError(t, hub.Shutdown(2*time.Second))
	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("hub did not stop after shutdown")
	}
}

func TestHubRemoveReleasesChatState(t *testing.T) {
	r := require.New(t)
	client := newDetachedClient(t, 4)
	hub := client.hub

	hub.mutex.Lock()
	hub.clients[client] = struct{}{}
	hub.mutex.Unlock()
	r.NoError(hub.State().Join(client, "lobby", "alice"))

	hub.remove(client)
	hub.remove(client)

	r.Zero(hub.ClientCount())
	r.Empty(hub.State().Rooms())
	_, held := hub.State().Lookup("alice")
	r.False(held)
	r.ErrorIs(client.Deliver(chat.Event{Name: chat.EventWelcome}), chat.ErrPeerClosed)
}

func TestHubLeaveAfterShutdown(t *testing.T) {
	r := require.New(t)
	client := newDetachedClient(t, 4)
	hub := client.hub
	go hub.Run()

	r.NoError(hub.State().Join(client, "lobby", "alice"))
	r.NoError(hub.Shutdown(time.Second))

	done := make(chan struct{})
	go func() {
		hub.leave(client)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("leave blocked after shutdown")
	}
	r.Empty(hub.State().Members("lobby"))
}
