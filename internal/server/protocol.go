package server

import (
	"encoding/json"
	"errors"

	"github.com/Tyrowin/roomchat/internal/chat"
)

// Inbound and control event names. Outbound chat events use chat.EventName.
const (
	EventJoin    = "join"
	EventMessage = "message"
	EventAck     = "ack"
	EventError   = "error"
)

// Error codes carried by error frames.
const (
	CodeInvalidFrame     = "INVALID_FRAME"
	CodeUnsupportedEvent = "UNSUPPORTED_EVENT"
	CodeNameTaken        = "NAME_TAKEN"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeNotInRoom        = "NOT_IN_ROOM"
	CodeRateLimited      = "RATE_LIMITED"
	CodeInternal         = "INTERNAL"
)

// Frame is the envelope of every WebSocket text message in both directions.
// ID correlates a request with its ack and is echoed unchanged.
type Frame struct {
	Event string          `json:"event"`
	ID    *uint64         `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinRequest is the payload of an inbound join event.
type JoinRequest struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

// MessageRequest is the payload of an inbound message event. Username is
// informational only; the sender is identified by its connection.
type MessageRequest struct {
	Message  string `json:"message"`
	Room     string `json:"room"`
	Username string `json:"username"`
}

// Ack answers a request frame.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorPayload describes a rejected frame.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func encodeFrame(event string, id *uint64, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, ID: id, Data: data})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, chat.ErrNameTaken):
		return CodeNameTaken
	case errors.Is(err, chat.ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, chat.ErrNotInRoom):
		return CodeNotInRoom
	default:
		return CodeInternal
	}
}

// failureMessage is the human readable text shown by clients for err.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, chat.ErrNameTaken):
		return "Username is already taken"
	case errors.Is(err, chat.ErrTooLong):
		return "Username or room name is too long."
	case errors.Is(err, chat.ErrInvalidInput):
		return "Username and room name are required."
	case errors.Is(err, chat.ErrNotInRoom):
		return "Join the room before sending messages."
	default:
		return "Internal server error"
	}
}
