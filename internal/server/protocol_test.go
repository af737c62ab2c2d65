package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/Tyrowin/roomchat/internal/chat"
	"github.com/stretchr/testify/require"
)

func TestEncodeFrame(t *testing.T) {
	r := require.New(t)

	id := uint64(42)
	raw, err := encodeFrame(EventAck, &id, Ack{Success: true})
	r.NoError(err)
	r.JSONEq(`{"event":"ack","id":42,"data":{"success":true}}`, string(raw))

	raw, err = encodeFrame(string(chat.EventReceiveMessage), nil, chat.ChatMessage{Message: "hi", Username: "alice"})
	r.NoError(err)
	r.JSONEq(`{"event":"receive-message","data":{"message":"hi","username":"alice"}}`, string(raw))

	_, err = encodeFrame(EventAck, nil, func() {})
	r.Error(err)
}

func TestFrameDecodeKeepsRawData(t *testing.T) {
	var frame Frame
	require.NoError(t, json.Unmarshal([]byte(`{"event":"join","data":{"room":"lobby","username":"alice"}}`), &frame))
	require.Nil(t, frame.ID)

	var req JoinRequest
	require.NoError(t, json.Unmarshal(frame.Data, &req))
	require.Equal(t, JoinRequest{Room: "lobby", Username: "alice"}, req)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    string
		message string
	}{
		{name: "name taken", err: chat.ErrNameTaken, code: CodeNameTaken, message: "Username is already taken"},
		{name: "missing field", err: fmt.Errorf("%w: username required", chat.ErrInvalidInput), code: CodeInvalidInput, message: "Username and room name are required."},
		{name: "too long", err: fmt.Errorf("%w: room max", chat.ErrTooLong), code: CodeInvalidInput, message: "Username or room name is too long."},
		{name: "not in room", err: fmt.Errorf("send to %q: %w", "lobby", chat.ErrNotInRoom), code: CodeNotInRoom, message: "Join the room before sending messages."},
		{name: "max in free text", err: fmt.Errorf("%w: maximum effort", chat.ErrInvalidInput), code: CodeInvalidInput, message: "Username and room name are required."},
		{name: "unknown", err: errors.New("boom"), code: CodeInternal, message: "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.code, errorCode(tt.err))
			require.Equal(t, tt.message, failureMessage(tt.err))
		})
	}
}
