package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrNameTaken is returned when a username is already held by another live connection.
	ErrNameTaken = errors.New("username is already taken")
	// ErrInvalidInput is returned when a username or room name is empty after trimming or too long.
	ErrInvalidInput = errors.New("invalid input")
	// ErrTooLong is returned when a username or room name exceeds its maximum length.
	// It matches ErrInvalidInput under errors.Is.
	ErrTooLong = fmt.Errorf("%w: too long", ErrInvalidInput)
	// ErrNotInRoom is returned when a connection sends to a room it is not a member of.
	ErrNotInRoom = errors.New("connection is not a member of the room")
	// ErrPeerClosed is returned by a Peer whose channel has been torn down.
	ErrPeerClosed = errors.New("peer closed")
	// ErrPeerBacklogged is returned by a Peer whose outbound queue is full.
	ErrPeerBacklogged = errors.New("peer send queue full")
)
