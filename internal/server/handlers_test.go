package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Tyrowin/roomchat/internal/chat"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	return New(*NewConfig(), chat.NewState(log), log)
}

type stubPeer struct{ id chat.ConnID }

func (p stubPeer) ID() chat.ConnID { return p.id }
func (p stubPeer) Deliver(chat.Event) error { return nil }

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		t.Run(method, func(t *testing.T) {
			rr := httptest.NewRecorder()
			s.HealthHandler(rr, httptest.NewRequest(method, "/", nil))

			require.Equal(t, http.StatusOK, rr.Code)
			require.Equal(t, "text/plain", rr.Header().Get("Content-Type"))
			require.Equal(t, "Server is running", rr.Body.String())
		})
	}
}

func TestRoomsHandler(t *testing.T) {
	r := require.New(t)
	s := newTestServer(t)

	rr := httptest.NewRecorder()
	s.RoomsHandler(rr, httptest.NewRequest(http.MethodGet, "/rooms", nil))
	r.Equal(http.StatusOK, rr.Code)
	r.JSONEq(`[]`, rr.Body.String())

	state := s.Hub().State()
	r.NoError(state.Join(stubPeer{id: "c1"}, "lobby", "alice"))
	r.NoError(state.Join(stubPeer{id: "c2"}, "lobby", "bob"))

	rr = httptest.NewRecorder()
	s.RoomsHandler(rr, httptest.NewRequest(http.MethodGet, "/rooms", nil))
	r.Equal("application/json", rr.Header().Get("Content-Type"))
	r.JSONEq(`[{"room":"lobby","members":["alice","bob"]}]`, rr.Body.String())

	rr = httptest.NewRecorder()
	s.RoomsHandler(rr, httptest.NewRequest(http.MethodDelete, "/rooms", nil))
	r.Equal(http.StatusMethodNotAllowed, rr.Code)
}

func TestWebSocketHandlerMethodValidation(t *testing.T) {
	s := newTestServer(t)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		t.Run(method, func(t *testing.T) {
			rr := httptest.NewRecorder()
			s.WebSocketHandler(rr, httptest.NewRequest(method, "/ws", nil))

			require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
			require.Equal(t, http.MethodGet, rr.Header().Get("Allow"))
			require.Equal(t, "Method not allowed. WebSocket endpoint only accepts GET requests.", strings.TrimSpace(rr.Body.String()))
		})
	}
}

func TestWebSocketHandlerRejectsPlainGET(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	s.WebSocketHandler(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Zero(t, s.Hub().ClientCount())
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t)
	mux := s.Routes()

	tests := []struct {
		path        string
		contentType string
	}{
		{path: "/", contentType: "text/plain"},
		{path: "/rooms", contentType: "application/json"},
		{path: "/test", contentType: "text/html"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, http.StatusOK, rr.Code)
			require.Equal(t, tt.contentType, rr.Header().Get("Content-Type"))
		})
	}
}
