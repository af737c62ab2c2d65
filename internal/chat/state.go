package chat

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = validator.New()

type joinRequest struct {
	Username string `validate:"required,max=32"`
	Room     string `validate:"required,max=64"`
}

// TextFilter rewrites message text before it is broadcast.
type TextFilter func(text string) string

// Option configures a State.
type Option func(*State)

// WithTextFilter installs a filter applied to every broadcast message body.
func WithTextFilter(filter TextFilter) Option {
	return func(s *State) {
		s.filter = filter
	}
}

// State owns the username registry and room membership of one chat server.
//
// Lock order is State.mu then Registry.mu. Join and Disconnect change the
// registry while holding the write lock so that a name and its membership
// appear and disappear together.
type State struct {
	mu       sync.RWMutex
	rooms    map[string]map[ConnID]Peer
	memberOf map[ConnID]string
	registry *Registry
	filter   TextFilter
	log      *slog.Logger
}

// Delivery reports the outcome of one broadcast.
type Delivery struct {
	Recipients int
	Failed     []ConnID
}

// RoomInfo describes a non-empty room.
type RoomInfo struct {
	Name    string   `json:"room"`
	Members []string `json:"members"`
}

func NewState(log *slog.Logger, opts ...Option) *State {
	s := &State{
		rooms:    make(map[string]map[ConnID]Peer),
		memberOf: make(map[ConnID]string),
		registry: NewRegistry(),
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup returns the connection currently holding name.
func (s *State) Lookup(name string) (ConnID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Lookup(name)
}

// UserCount returns the number of registered usernames.
func (s *State) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Len()
}

// Join registers name for the peer and places it in room.
//
// A peer that is already in a room moves to the new one. On success a welcome
// event is delivered to the joining peer only.
func (s *State) Join(peer Peer, room, name string) error {
	req := joinRequest{
		Username: strings.TrimSpace(name),
		Room:     strings.TrimSpace(room),
	}
	if err := validate.Struct(req); err != nil {
		return validationError(err)
	}

	conn := peer.ID()

	s.mu.Lock()
	if err := s.registry.Register(req.Username, conn); err != nil {
		s.mu.Unlock()
		return err
	}
	previous, moved := s.memberOf[conn]
	if moved && previous != req.Room {
		s.removeMemberLocked(conn, previous)
	}
	members, ok := s.rooms[req.Room]
	if !ok {
		members = make(map[ConnID]Peer)
		s.rooms[req.Room] = members
	}
	members[conn] = peer
	s.memberOf[conn] = req.Room

	// Queued before unlocking so no broadcast can reach the joiner ahead of it.
	welcome := Event{Name: EventWelcome, Payload: Welcome{Text: fmt.Sprintf("Welcome to room %s", req.Room)}}
	welcomeErr := peer.Deliver(welcome)
	s.mu.Unlock()

	if moved && previous != req.Room {
		s.log.Info("User moved room", "conn", conn, "username", req.Username, "from", previous, "to", req.Room)
	} else {
		s.log.Info("User joined room", "conn", conn, "username", req.Username, "room", req.Room)
	}
	if welcomeErr != nil {
		s.log.Warn("Failed to deliver welcome", "conn", conn, "room", req.Room, "error", welcomeErr)
	}
	return nil
}

// Send broadcasts text from conn to every member of room, sender included.
//
// The member set is snapshotted under the read lock and delivery happens after
// it is released. A failing recipient is reported in Delivery.Failed and does
// not stop delivery to the others.
func (s *State) Send(conn ConnID, room, text string) (Delivery, error) {
	room = strings.TrimSpace(room)

	s.mu.RLock()
	current, joined := s.memberOf[conn]
	if !joined || current != room {
		s.mu.RUnlock()
		s.log.Debug("Dropping message from non-member", "conn", conn, "room", room)
		return Delivery{}, fmt.Errorf("send to %q: %w", room, ErrNotInRoom)
	}
	name, ok := s.registry.ResolveName(conn)
	if !ok {
		s.mu.RUnlock()
		return Delivery{}, fmt.Errorf("send to %q: %w", room, ErrNotInRoom)
	}
	recipients := lo.Values(s.rooms[room])
	s.mu.RUnlock()

	if s.filter != nil {
		text = s.filter(text)
	}

	evt := Event{Name: EventReceiveMessage, Payload: ChatMessage{Message: text, Username: name}}
	delivery := Delivery{Recipients: len(recipients)}
	for _, peer := range recipients {
		if err := peer.Deliver(evt); err != nil {
			delivery.Failed = append(delivery.Failed, peer.ID())
			s.log.Warn("Failed to deliver message", "conn", peer.ID(), "room", room, "error", err)
		}
	}

	s.log.Debug("Message broadcast", "username", name, "room", room,
		"recipients", delivery.Recipients, "failed", len(delivery.Failed))
	return delivery, nil
}

// Leave removes conn from its room, pruning the room when it becomes empty.
func (s *State) Leave(conn ConnID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leaveLocked(conn)
}

// Disconnect tears down everything held by conn: room membership and username.
// It is safe to call any number of times.
func (s *State) Disconnect(conn ConnID) {
	s.mu.Lock()
	room, left := s.leaveLocked(conn)
	name, released := s.registry.Unregister(conn)
	s.mu.Unlock()

	if left || released {
		s.log.Info("User disconnected", "conn", conn, "username", name, "room", room)
	}
}

// Members returns the sorted usernames currently in room.
func (s *State) Members(room string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.membersLocked(room)
}

// Rooms lists every non-empty room, sorted by name.
func (s *State) Rooms() []RoomInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := lo.Keys(s.rooms)
	sort.Strings(names)
	return lo.Map(names, func(name string, _ int) RoomInfo {
		return RoomInfo{Name: name, Members: s.membersLocked(name)}
	})
}

// RoomOf returns the room conn is currently in.
func (s *State) RoomOf(conn ConnID) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.memberOf[conn]
	return room, ok
}

func (s *State) leaveLocked(conn ConnID) (string, bool) {
	room, ok := s.memberOf[conn]
	if !ok {
		return "", false
	}
	s.removeMemberLocked(conn, room)
	return room, true
}

func (s *State) removeMemberLocked(conn ConnID, room string) {
	delete(s.memberOf, conn)
	members, ok := s.rooms[room]
	if !ok {
		return
	}
	delete(members, conn)
	if len(members) == 0 {
		delete(s.rooms, room)
	}
}

func (s *State) membersLocked(room string) []string {
	names := lo.FilterMap(lo.Keys(s.rooms[room]), func(conn ConnID, _ int) (string, bool) {
		return s.registry.ResolveName(conn)
	})
	sort.Strings(names)
	return names
}

// validationError wraps a failed join validation in ErrTooLong when any
// field broke its max length and in ErrInvalidInput otherwise.
func validationError(err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	sentinel := ErrInvalidInput
	if lo.ContainsBy(fieldErrors, func(fe validator.FieldError) bool { return fe.Tag() == "max" }) {
		sentinel = ErrTooLong
	}
	return fmt.Errorf("%w: %s", sentinel, strings.Join(lo.Map(fieldErrors, func(fe validator.FieldError, _ int) string {
		return strings.ToLower(fe.Field()) + " " + fe.Tag()
	}), ", "))
}
