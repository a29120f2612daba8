package wirechat

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"reflect"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cast"

	"github.com/wirechat/wirechat/envelope"
)

const realtimePath = "/realtime"

// Connection states. Closed is terminal: a Client carries exactly one
// channel lifecycle and is never reconnected in place.
const (
	stateAbsent int32 = iota
	stateConnecting
	stateOpen
	stateClosed
)

const sweepInterval = 250 * time.Millisecond

// PushHandler handles one unsolicited inbound envelope. Handlers run
// on the channel's read path, so inbound frames stay strictly ordered;
// a handler must not block.
type PushHandler func(env *envelope.Envelope)

// Client drives one logical connection to the realtime channel. It
// owns the channel handle, the pending-request table and the
// server-time estimate for the lifetime of that connection.
type Client struct {
	// Codec encodes envelopes and payloads. Defaults to MsgpackCodec.
	Codec Codec

	// Channel is the duplex transport. Left nil, Connect builds a
	// websocket channel from the configuration.
	Channel Channel

	// OnDisconnect is an event hook, invoked once when the channel
	// reaches Closed, whether the closure was local or peer-initiated.
	OnDisconnect func()

	// OnPush is the catch-all sink for unsolicited envelopes that have
	// no registered push handler.
	OnPush func(env *envelope.Envelope)

	cfg     Config
	state   int32
	pending *pendingTable
	clock   *serverClock
	closed  chan struct{}

	mu           sync.RWMutex
	pushHandlers map[envelope.Kind]PushHandler
}

// NewClient creates a Client according to cfg.
func NewClient(cfg Config) *Client {
	return &Client{
		Codec:        &MsgpackCodec{},
		cfg:          cfg,
		pending:      newPendingTable(),
		clock:        &serverClock{},
		closed:       make(chan struct{}),
		pushHandlers: make(map[envelope.Kind]PushHandler),
	}
}

// Connect opens the realtime channel using the session token as a
// query credential and blocks until the channel is open or the
// connect timeout elapses. The session is borrowed, never retained.
func (c *Client) Connect(sess *Session) error {
	if !atomic.CompareAndSwapInt32(&c.state, stateAbsent, stateConnecting) {
		if atomic.LoadInt32(&c.state) == stateClosed {
			return ErrClientClosed
		}
		return ErrAlreadyConnected
	}
	if c.Channel == nil {
		c.Channel = newWSChannel(c.cfg.ConnectTimeout, c.cfg.IOTimeout)
	}
	c.Channel.OnMessage(c.dispatch)
	c.Channel.OnClose(c.handleClose)
	if err := c.Channel.Open(c.channelURL(sess)); err != nil {
		// The channel never opened; the client may try again. The CAS
		// leaves a concurrent transition to Closed untouched.
		atomic.CompareAndSwapInt32(&c.state, stateConnecting, stateAbsent)
		return fmt.Errorf("open channel: %w", err)
	}
	if !atomic.CompareAndSwapInt32(&c.state, stateConnecting, stateOpen) {
		// The peer closed the channel before the open completed;
		// handleClose already won the transition and Closed is terminal.
		return ErrClientClosed
	}
	if c.cfg.RequestTimeout > 0 {
		go c.sweepLoop()
	}
	if c.cfg.Trace {
		c.printPushHandlers()
	}
	return nil
}

// ConnectAsync connects without blocking the caller and reports the
// outcome through callback, which may be nil.
func (c *Client) ConnectAsync(sess *Session, callback func(err error)) {
	go func() {
		err := c.Connect(sess)
		if callback != nil {
			callback(err)
		}
	}()
}

// Disconnect sends a logout envelope, requests a normal-status close
// and blocks until the closure completes, which includes draining the
// pending table and firing OnDisconnect. The logout is written
// synchronously: once a close frame is out, the connection refuses
// data writes, so the logout must reach the wire first.
func (c *Client) Disconnect() error {
	if atomic.LoadInt32(&c.state) != stateOpen {
		return ErrNotConnected
	}
	if data, err := c.Codec.Encode(envelope.New(envelope.Logout, nil)); err == nil {
		if err := c.Channel.SendSync(data); err != nil {
			Log.Debugf("send logout err: %s", err)
		}
	}
	if err := c.Channel.Close(); err != nil {
		return err
	}
	<-c.closed
	return nil
}

// Closed returns a channel that is closed once the connection reaches
// its terminal state.
func (c *Client) Closed() <-chan struct{} {
	return c.closed
}

// IsOpen reports whether the channel is currently open.
func (c *Client) IsOpen() bool {
	return atomic.LoadInt32(&c.state) == stateOpen
}

// ServerTime returns the server-time estimate in epoch milliseconds,
// derived from heartbeats. Before the first heartbeat it falls back to
// the local wall clock.
func (c *Client) ServerTime() int64 {
	return c.clock.Now()
}

// HandlePush registers handler for unsolicited envelopes of the given
// kind.
func (c *Client) HandlePush(kind envelope.Kind, handler PushHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pushHandlers[kind] = handler
}

// Go sends a request of the given kind asynchronously. The payload v
// is encoded with the client's codec; a nil v sends an empty body. The
// returned Call completes on its Done channel with either a decoded
// reply or an error, exactly once. If done is nil a buffered channel
// is allocated; a caller-supplied done must be buffered.
func (c *Client) Go(kind envelope.Kind, v interface{}, done chan *Call) *Call {
	call := &Call{Kind: kind, Done: done}
	if call.Done == nil {
		call.Done = make(chan *Call, 1)
	} else if cap(call.Done) == 0 {
		panic("wirechat: done channel is unbuffered")
	}
	if atomic.LoadInt32(&c.state) != stateOpen {
		call.fail(ErrNotConnected)
		return call
	}

	call.CorrelationID = uuid.NewString()
	if c.cfg.RequestTimeout > 0 {
		call.deadline = time.Now().Add(c.cfg.RequestTimeout)
	}

	var body []byte
	if v != nil {
		encoded, err := c.Codec.Encode(v)
		if err != nil {
			call.fail(fmt.Errorf("encode request payload: %w", err))
			return call
		}
		body = encoded
	}

	if err := c.pending.insert(call); err != nil {
		call.fail(err)
		return call
	}
	data, err := c.Codec.Encode(envelope.NewReply(call.CorrelationID, kind, body))
	if err != nil {
		c.failPending(call.CorrelationID, fmt.Errorf("encode request envelope: %w", err))
		return call
	}
	if err := c.Channel.Send(data); err != nil {
		// The peer never saw the request, so no reply will arrive;
		// fail the call instead of leaving the caller hanging.
		c.failPending(call.CorrelationID, err)
	}
	return call
}

// Call sends a request of the given kind and blocks until it resolves.
func (c *Client) Call(kind envelope.Kind, v interface{}) (interface{}, error) {
	call := <-c.Go(kind, v, make(chan *Call, 1)).Done
	return call.Reply, call.Err
}

// failPending resolves the pending entry for cid with err. The resolve
// step keeps this race-free against the dispatch and drain paths: only
// the path that wins the removal completes the call.
func (c *Client) failPending(cid string, err error) {
	if call, ok := c.pending.resolve(cid); ok {
		call.fail(err)
	}
}

// dispatch classifies one inbound frame and routes it. It runs on the
// channel's read path, so frames are processed strictly in order.
func (c *Client) dispatch(data []byte) {
	var env envelope.Envelope
	if err := c.Codec.Decode(data, &env); err != nil {
		// Fatal to this frame only, never to the channel.
		Log.Errorf("decode inbound envelope err: %s", err)
		return
	}

	// Heartbeats never carry a correlation identifier and never touch
	// the pending table.
	if env.Kind == envelope.Heartbeat {
		c.observeHeartbeat(&env)
		return
	}

	if !env.IsReply() {
		c.handlePush(&env)
		return
	}

	call, ok := c.pending.resolve(env.CorrelationID)
	if !ok {
		// Stale, duplicate or expired reply; recoverable.
		Log.Tracef("no pending request for correlation id %s, dropping %s envelope", env.CorrelationID, env.Kind)
		return
	}
	c.resolveCall(call, &env)
}

func (c *Client) resolveCall(call *Call, env *envelope.Envelope) {
	switch env.Kind {
	case envelope.None:
		// Empty acknowledgement.
		call.Reply = true
		call.complete()
	case envelope.Error:
		var replyErr ReplyError
		if err := c.Codec.Decode(env.Body, &replyErr); err != nil {
			call.fail(fmt.Errorf("decode error payload: %w", err))
			return
		}
		call.fail(&replyErr)
	case envelope.Self:
		var user User
		if err := c.Codec.Decode(env.Body, &user); err != nil {
			call.fail(fmt.Errorf("decode self payload: %w", err))
			return
		}
		call.Reply = &user
		call.complete()
	case envelope.Users:
		var users []*User
		if err := c.Codec.Decode(env.Body, &users); err != nil {
			call.fail(fmt.Errorf("decode users payload: %w", err))
			return
		}
		call.Reply = users
		call.complete()
	default:
		Log.Tracef("unrecognized payload kind %d for correlation id %s", env.Kind, call.CorrelationID)
		call.fail(fmt.Errorf("unrecognized payload kind %d", env.Kind))
	}
}

// observeHeartbeat feeds the carried timestamp to the clock guard.
// Servers of different builds encode the timestamp as int64, uint64 or
// float, hence the cast.
func (c *Client) observeHeartbeat(env *envelope.Envelope) {
	var raw interface{}
	if err := c.Codec.Decode(env.Body, &raw); err != nil {
		Log.Errorf("decode heartbeat payload err: %s", err)
		return
	}
	timestamp, err := cast.ToInt64E(raw)
	if err != nil {
		Log.Errorf("heartbeat timestamp %v is not numeric: %s", raw, err)
		return
	}
	c.clock.Observe(timestamp)
}

func (c *Client) handlePush(env *envelope.Envelope) {
	c.mu.RLock()
	handler := c.pushHandlers[env.Kind]
	c.mu.RUnlock()
	if handler != nil {
		handler(env)
		return
	}
	if c.OnPush != nil {
		c.OnPush(env)
		return
	}
	Log.Tracef("no handler for %s push, dropping", env.Kind)
}

// handleClose drains the pending table, failing every entry with a
// disconnect error, marks the client terminally closed and notifies
// the owner.
func (c *Client) handleClose(err error) {
	if err != nil {
		Log.Errorf("channel closed: %s", err)
	}
	atomic.StoreInt32(&c.state, stateClosed)
	for _, call := range c.pending.clearAll() {
		call.fail(ErrDisconnected)
	}
	close(c.closed)
	if c.OnDisconnect != nil {
		c.OnDisconnect()
	}
}

// sweepLoop fails pending requests whose deadline elapsed without a
// reply.
func (c *Client) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.closed:
			return
		case now := <-ticker.C:
			for _, call := range c.pending.expire(now) {
				Log.Tracef("request %s exceeded its deadline", call.CorrelationID)
				call.fail(ErrRequestTimeout)
			}
		}
	}
}

func (c *Client) channelURL(sess *Session) string {
	scheme := "ws"
	if c.cfg.TLS {
		scheme = "wss"
	}
	query := url.Values{}
	query.Set("key", c.cfg.ServerKey)
	query.Set("token", sess.Token)
	query.Set("lang", c.cfg.Locale)
	u := url.URL{
		Scheme:   scheme,
		Host:     net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port)),
		Path:     realtimePath,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// printPushHandlers prints the registered push handlers to console.
func (c *Client) printPushHandlers() {
	fmt.Printf("\n[WIRECHAT PUSH TABLE]:\n")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Payload Kind", "Push Handler"})
	table.SetAutoFormatHeaders(false)
	c.mu.RLock()
	for kind, handler := range c.pushHandlers {
		handlerName := runtime.FuncForPC(reflect.ValueOf(handler).Pointer()).Name()
		table.Append([]string{kind.String(), handlerName})
	}
	c.mu.RUnlock()
	table.Render()
	fmt.Printf("[WIRECHAT] Connected to: %s:%d\n\n", c.cfg.Host, c.cfg.Port)
}
