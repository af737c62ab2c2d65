package server

import (
	"log/slog"

	"github.com/Tyrowin/roomchat/internal/chat"
	"github.com/gorilla/websocket"
)

// Server wires configuration, the connection hub and the chat state into
// HTTP handlers.
type Server struct {
	config   Config
	hub      *Hub
	origins  *originPolicy
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// New creates a Server around state. Call Start before serving requests.
func New(cfg Config, state *chat.State, log *slog.Logger) *Server {
	cfg = sanitizeConfig(cfg)
	s := &Server{
		config:  cfg,
		hub:     NewHub(state, log),
		origins: newOriginPolicy(cfg.AllowedOrigins, log),
		log:     log,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.origins.checkOrigin,
	}
	return s
}

// Start runs the hub loop in its own goroutine.
func (s *Server) Start() {
	go s.hub.Run()
	s.log.Info("Hub started and ready to manage WebSocket connections")
}

// Hub returns the server's connection hub, used for shutdown coordination.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Config returns the sanitized configuration in use.
func (s *Server) Config() Config {
	return s.config
}
