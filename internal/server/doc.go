// Package server exposes the chat core over WebSockets.
//
// Each connection gets a Client with a read pump that decodes JSON frames
// and a write pump that drains a bounded send queue. The Hub tracks live
// clients and reports disconnects to the chat.State passed to New. HTTP
// routes, origin checks, rate limiting and configuration live alongside.
package server
