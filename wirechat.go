// Package wirechat is the client-side session engine for the wirechat
// realtime service. It exchanges credentials for a session token over
// HTTP, opens a single message-multiplexing websocket parameterized by
// that token, and layers an asynchronous request/response abstraction
// on top of it: outbound requests are tagged with correlation
// identifiers and matched to exactly one inbound reply, while
// server-initiated frames (heartbeats, pushes) are routed to their own
// sinks.
//
// A Client is one logical connection. Once its channel closes, the
// Client is spent; build a new one to reconnect.
package wirechat
