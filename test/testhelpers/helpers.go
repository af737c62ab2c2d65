// Package testhelpers provides shared utilities for the integration tests:
// spinning up a fully wired server, dialing WebSocket clients and speaking
// the chat frame protocol.
package testhelpers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Tyrowin/roomchat/internal/chat"
	"github.com/Tyrowin/roomchat/internal/server"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// TestOrigin is the Origin header sent by ConnectWebSocket. It is part of the
// default allow-list.
const TestOrigin = "http://localhost:5173"

// TestServer is a running chat server backed by httptest.
type TestServer struct {
	*httptest.Server
	Chat *server.Server
}

// WebSocketURL returns the ws:// URL of the chat endpoint.
func (ts *TestServer) WebSocketURL() string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

// StartServer builds a chat server from cfg, starts its hub and serves it over
// httptest. The hub and listener are shut down when the test ends. Pass nil
// for the default configuration.
func StartServer(t *testing.T, cfg *server.Config, opts ...chat.Option) *TestServer {
	t.Helper()

	if cfg == nil {
		cfg = server.NewConfig()
	}
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	srv := server.New(*cfg, chat.NewState(log, opts...), log)
	srv.Start()

	ts := &TestServer{Server: httptest.NewServer(srv.Routes()), Chat: srv}
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Hub().Shutdown(5 * time.Second)
	})
	return ts
}

// MakeRequest executes an HTTP request with a 5-second timeout.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequest(method, url, http.NoBody)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

// ConnectWebSocket dials url with TestOrigin as the Origin header.
func ConnectWebSocket(url string) (*websocket.Conn, error) {
	return ConnectWebSocketWithOrigin(url, TestOrigin)
}

// ConnectWebSocketWithOrigin dials url with the given Origin header. An empty
// origin omits the header.
func ConnectWebSocketWithOrigin(url, origin string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// MustConnect dials url and closes the connection when the test ends.
func MustConnect(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, err := ConnectWebSocket(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// SendFrame writes one protocol frame. A zero id sends the frame without a
// correlation id.
func SendFrame(conn *websocket.Conn, event string, id uint64, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	frame := server.Frame{Event: event, Data: raw}
	if id != 0 {
		frame.ID = &id
	}
	return conn.WriteJSON(frame)
}

// ReadFrame reads the next frame, waiting at most timeout.
func ReadFrame(conn *websocket.Conn, timeout time.Duration) (server.Frame, error) {
	var frame server.Frame
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return frame, err
	}
	err := conn.ReadJSON(&frame)
	return frame, err
}

// ReadUntil reads frames until one carries event, discarding the others.
func ReadUntil(t *testing.T, conn *websocket.Conn, event string) server.Frame {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		frame, err := ReadFrame(conn, time.Until(deadline))
		require.NoError(t, err, "waiting for %q", event)
		if frame.Event == event {
			return frame
		}
	}
	t.Fatalf("no %q frame before deadline", event)
	return server.Frame{}
}

// Decode unmarshals a frame's data into out.
func Decode(t *testing.T, frame server.Frame, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(frame.Data, out), "frame %q", frame.Event)
}

// JoinRoom sends a join frame and returns the matching ack. The welcome frame
// is queued ahead of a successful ack and is checked on the way.
func JoinRoom(t *testing.T, conn *websocket.Conn, id uint64, room, username string) server.Ack {
	t.Helper()

	require.NoError(t, SendFrame(conn, server.EventJoin, id, server.JoinRequest{Room: room, Username: username}))

	var (
		ack     server.Ack
		welcome *chat.Welcome
	)
	for {
		frame, err := ReadFrame(conn, 3*time.Second)
		require.NoError(t, err, "waiting for join ack")

		if frame.Event == string(chat.EventWelcome) {
			welcome = new(chat.Welcome)
			Decode(t, frame, welcome)
			continue
		}
		if frame.Event == server.EventAck && frame.ID != nil && *frame.ID == id {
			Decode(t, frame, &ack)
			break
		}
	}

	if ack.Success {
		require.NotNil(t, welcome, "successful join without welcome")
		require.Equal(t, fmt.Sprintf("Welcome to room %s", strings.TrimSpace(room)), welcome.Text)
	}
	return ack
}

// SendChat sends a message frame without a correlation id.
func SendChat(conn *websocket.Conn, room, text string) error {
	return SendFrame(conn, server.EventMessage, 0, server.MessageRequest{Room: room, Message: text})
}

// ExpectChat reads until a receive-message frame and returns its payload.
func ExpectChat(t *testing.T, conn *websocket.Conn) chat.ChatMessage {
	t.Helper()

	var msg chat.ChatMessage
	Decode(t, ReadUntil(t, conn, string(chat.EventReceiveMessage)), &msg)
	return msg
}

// ExpectSilence fails the test if conn receives a receive-message frame
// within timeout. The read deadline expiring leaves conn unusable for further
// reads, so call it last.
func ExpectSilence(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		frame, err := ReadFrame(conn, time.Until(deadline))
		if err != nil {
			return
		}
		if frame.Event == string(chat.EventReceiveMessage) {
			t.Fatalf("unexpected chat message: %s", frame.Data)
		}
	}
}

// CloseWebSocket sends a normal close frame and closes the connection.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}

// Eventually polls cond every 10ms until it holds or 3 seconds pass.
func Eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 3*time.Second, 10*time.Millisecond, msg)
}
