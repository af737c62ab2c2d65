//go:generate go run go.uber.org/mock/mockgen -source=peer.go -destination=mocks/mock_peer.go -package=mocks
package chat

// ConnID identifies one duplex channel to one remote client.
type ConnID string

// EventName is the wire name of an outbound event.
type EventName string

const (
	EventWelcome        EventName = "welcome"
	EventReceiveMessage EventName = "receive-message"
)

// Event is one outbound notification addressed to a single peer.
type Event struct {
	Name    EventName
	Payload any
}

// Welcome is sent once to a connection right after it joins a room.
type Welcome struct {
	Text string `json:"text"`
}

// ChatMessage is the envelope fanned out to every member of a room.
type ChatMessage struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

// Peer is the core's view of a connection.
//
// Deliver must not block on network I/O: implementations queue the event and
// report ErrPeerClosed or ErrPeerBacklogged when the queue cannot take it.
type Peer interface {
	ID() ConnID
	Deliver(evt Event) error
}
