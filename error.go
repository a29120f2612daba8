package wirechat

import (
	"errors"
	"fmt"
)

var (
	// ErrClientClosed is used when operating on a client whose channel
	// has already reached the terminal Closed state.
	ErrClientClosed = errors.New("client closed")

	// ErrNotConnected is used when sending before the channel is open.
	ErrNotConnected = errors.New("not connected")

	// ErrAlreadyConnected is used when Connect is called on an open or
	// connecting client.
	ErrAlreadyConnected = errors.New("already connected")

	// ErrDisconnected resolves every request still pending when the
	// channel closes.
	ErrDisconnected = errors.New("connection closed while request was pending")

	// ErrRequestTimeout resolves a pending request whose deadline
	// elapsed before a reply arrived.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrDuplicateCorrelation is used when inserting a pending request
	// under a correlation identifier that is already in flight.
	ErrDuplicateCorrelation = errors.New("correlation identifier already in flight")
)

// ReplyError is the structured error carried by an Error-kind envelope
// or a non-success auth response.
type ReplyError struct {
	Code   int    `msgpack:"code" json:"code"`
	Reason string `msgpack:"reason" json:"reason"`
}

var _ error = &ReplyError{}

func (e *ReplyError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("server error %d: %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("server error: %s", e.Reason)
}
