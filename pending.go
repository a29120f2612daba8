package wirechat

import (
	"sync"
	"time"

	"github.com/wirechat/wirechat/envelope"
)

// Call represents one in-flight request on the realtime channel.
// Exactly one of Reply or Err is set before Done fires, and Done fires
// exactly once: completion is gated by removal from the pending table,
// so a reply, a write failure, a deadline sweep and a disconnect drain
// can never resolve the same call twice.
type Call struct {
	// Kind is the payload kind of the outbound request.
	Kind envelope.Kind

	// CorrelationID tags the request and is echoed on its reply.
	CorrelationID string

	// Reply holds the decoded reply payload on success: the true
	// sentinel for an empty acknowledgement, *User for a Self reply,
	// []*User for a Users reply.
	Reply interface{}

	// Err holds the failure, if any.
	Err error

	// Done receives the call itself when it completes.
	Done chan *Call

	deadline time.Time
}

func (call *Call) complete() {
	select {
	case call.Done <- call:
	default:
		// Done is unbuffered or full; the caller abandoned the call.
		Log.Debugf("discarding completion of call %s, done channel is full", call.CorrelationID)
	}
}

func (call *Call) fail(err error) {
	call.Err = err
	call.complete()
}

// pendingTable maps correlation identifiers to in-flight calls.
// Insert and resolve are single atomic steps so concurrent sends and
// the inbound dispatch path never observe a half-updated table.
type pendingTable struct {
	mu    sync.Mutex
	calls map[string]*Call
}

func newPendingTable() *pendingTable {
	return &pendingTable{calls: make(map[string]*Call)}
}

// insert registers call under its correlation identifier.
// Returns ErrDuplicateCorrelation if the identifier is already in
// flight.
func (t *pendingTable) insert(call *Call) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.calls[call.CorrelationID]; exists {
		return ErrDuplicateCorrelation
	}
	t.calls[call.CorrelationID] = call
	return nil
}

// resolve atomically looks up and removes the call registered under
// cid. The second return value reports whether an entry existed.
func (t *pendingTable) resolve(cid string) (*Call, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	call, ok := t.calls[cid]
	if ok {
		delete(t.calls, cid)
	}
	return call, ok
}

// clearAll removes every pending call and returns them so the caller
// can fail each one.
func (t *pendingTable) clearAll() []*Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	calls := make([]*Call, 0, len(t.calls))
	for _, call := range t.calls {
		calls = append(calls, call)
	}
	t.calls = make(map[string]*Call)
	return calls
}

// expire removes and returns every call whose deadline is at or before
// now. Calls without a deadline are never expired.
func (t *pendingTable) expire(now time.Time) []*Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	var expired []*Call
	for cid, call := range t.calls {
		if !call.deadline.IsZero() && !call.deadline.After(now) {
			delete(t.calls, cid)
			expired = append(expired, call)
		}
	}
	return expired
}

// size returns the number of in-flight calls.
func (t *pendingTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}
