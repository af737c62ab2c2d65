// Package integration exercises the chat server end to end over real HTTP
// and WebSocket connections.
package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/Tyrowin/roomchat/internal/chat"
	"github.com/Tyrowin/roomchat/test/testhelpers"
	"github.com/stretchr/testify/require"
)

// TestHealthEndpointIntegration checks the health endpoint of a fully wired server.
func TestHealthEndpointIntegration(t *testing.T) {
	r := require.New(t)
	ts := testhelpers.StartServer(t, nil)

	resp := testhelpers.MakeRequest(t, http.MethodGet, ts.URL+"/")
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	r.NoError(err)
	r.Equal(http.StatusOK, resp.StatusCode)
	r.Equal("text/plain", resp.Header.Get("Content-Type"))
	r.Equal("Server is running", string(body))
}

// TestRoomsEndpointReflectsMembership checks that /rooms follows joins and
// disconnects.
func TestRoomsEndpointReflectsMembership(t *testing.T) {
	r := require.New(t)
	ts := testhelpers.StartServer(t, nil)

	alice := testhelpers.MustConnect(t, ts.WebSocketURL())
	bob := testhelpers.MustConnect(t, ts.WebSocketURL())
	r.True(testhelpers.JoinRoom(t, alice, 1, "lobby", "alice").Success)
	r.True(testhelpers.JoinRoom(t, bob, 1, "games", "bob").Success)

	rooms := fetchRooms(t, ts.URL)
	r.Equal([]chat.RoomInfo{
		{Name: "games", Members: []string{"bob"}},
		{Name: "lobby", Members: []string{"alice"}},
	}, rooms)

	r.NoError(testhelpers.CloseWebSocket(bob))
	testhelpers.Eventually(t, func() bool {
		return len(ts.Chat.Hub().State().Rooms()) == 1
	}, "games should be pruned after bob disconnects")
	r.Equal([]chat.RoomInfo{{Name: "lobby", Members: []string{"alice"}}}, fetchRooms(t, ts.URL))
}

// TestTestPageServed checks that the browser test page is served as HTML.
func TestTestPageServed(t *testing.T) {
	r := require.New(t)
	ts := testhelpers.StartServer(t, nil)

	resp := testhelpers.MakeRequest(t, http.MethodGet, ts.URL+"/test")
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	r.NoError(err)
	r.Equal(http.StatusOK, resp.StatusCode)
	r.Equal("text/html", resp.Header.Get("Content-Type"))
	r.Contains(string(body), "receive-message")
}

func fetchRooms(t *testing.T, baseURL string) []chat.RoomInfo {
	t.Helper()

	resp := testhelpers.MakeRequest(t, http.MethodGet, baseURL+"/rooms")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rooms []chat.RoomInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rooms))
	return rooms
}
