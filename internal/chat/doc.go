// Package chat implements the session registry and room broadcast core of
// the chat relay.
//
// The package knows nothing about the wire: connections are reached through
// the Peer interface, which transports implement with a non-blocking queue.
// State is the injectable object that owns both the username registry and the
// room membership map; create one per server (or per test) with NewState.
package chat
