package wirechat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

//go:generate mockgen -destination mock/channel_mock.go -package mock . Channel

// Channel is the abstract duplex transport under one connection.
// OnMessage and OnClose must be bound before Open. Inbound frames are
// delivered to the OnMessage handler one at a time, in the order
// received; the handler runs on the channel's read path and must not
// block indefinitely.
type Channel interface {
	// Open dials the endpoint and starts the I/O pumps.
	Open(rawURL string) error

	// Send queues one outbound frame. Send never blocks on the wire;
	// it returns an error if the channel is closed.
	Send(data []byte) error

	// SendSync writes one outbound frame on the caller's path,
	// bypassing the send queue, and returns once the frame has been
	// handed to the connection. Used where delivery must precede a
	// subsequent Close.
	SendSync(data []byte) error

	// Close performs a graceful close: a normal-status close frame is
	// written before the connection is torn down. The bound OnClose
	// handler fires exactly once, whether the closure is local or
	// initiated by the peer.
	Close() error

	// OnMessage binds the inbound frame handler.
	OnMessage(fn func(data []byte))

	// OnClose binds the closure handler. A nil error means a normal
	// closure.
	OnClose(fn func(err error))
}

var _ Channel = &wsChannel{}

const sendQueueSize = 256

// wsChannel implements Channel over a websocket connection.
type wsChannel struct {
	connectTimeout time.Duration
	ioTimeout      time.Duration

	conn      *websocket.Conn
	sendCh    chan []byte
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
	writeMu   sync.Mutex // serializes data writes between writePump and SendSync

	onMessage func(data []byte)
	onClose   func(err error)
}

func newWSChannel(connectTimeout, ioTimeout time.Duration) *wsChannel {
	return &wsChannel{
		connectTimeout: connectTimeout,
		ioTimeout:      ioTimeout,
		sendCh:         make(chan []byte, sendQueueSize),
		done:           make(chan struct{}),
	}
}

// OnMessage implements the Channel OnMessage method.
func (ch *wsChannel) OnMessage(fn func(data []byte)) {
	ch.onMessage = fn
}

// OnClose implements the Channel OnClose method.
func (ch *wsChannel) OnClose(fn func(err error)) {
	ch.onClose = fn
}

// Open implements the Channel Open method.
func (ch *wsChannel) Open(rawURL string) error {
	dialer := websocket.Dialer{HandshakeTimeout: ch.connectTimeout}
	conn, resp, err := dialer.Dial(rawURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return err
	}
	ch.conn = conn
	go ch.writePump()
	go ch.readPump()
	return nil
}

// Send implements the Channel Send method.
func (ch *wsChannel) Send(data []byte) error {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	if ch.closed {
		return ErrNotConnected
	}
	select {
	case ch.sendCh <- data:
		return nil
	case <-ch.done:
		return ErrNotConnected
	}
}

// SendSync implements the Channel SendSync method.
func (ch *wsChannel) SendSync(data []byte) error {
	ch.mu.RLock()
	closed := ch.closed
	ch.mu.RUnlock()
	if closed {
		return ErrNotConnected
	}
	if err := ch.write(data); err != nil {
		ch.teardown(err)
		return err
	}
	return nil
}

// Close implements the Channel Close method.
func (ch *wsChannel) Close() error {
	ch.mu.RLock()
	closed := ch.closed
	ch.mu.RUnlock()
	if closed {
		return nil
	}
	if ch.conn == nil {
		ch.teardown(nil)
		return nil
	}
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	deadline := time.Now().Add(time.Second)
	_ = ch.conn.WriteControl(websocket.CloseMessage, message, deadline)
	ch.teardown(nil)
	return nil
}

// readPump reads inbound frames and hands them to the onMessage
// handler one at a time. The loop breaks on any read error, which
// includes the peer closing the connection.
func (ch *wsChannel) readPump() {
	for {
		if ch.ioTimeout > 0 {
			_ = ch.conn.SetReadDeadline(time.Now().Add(ch.ioTimeout))
		}
		_, data, err := ch.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				err = nil
			}
			ch.teardown(err)
			return
		}
		if ch.onMessage != nil {
			ch.onMessage(data)
		}
	}
}

// writePump pumps queued frames to the connection.
func (ch *wsChannel) writePump() {
	for {
		select {
		case data := <-ch.sendCh:
			if err := ch.write(data); err != nil {
				Log.Errorf("channel write err: %s", err)
				ch.teardown(err)
				return
			}
		case <-ch.done:
			return
		}
	}
}

// write performs one data write. Gorilla connections support only one
// concurrent writer, so the pump and SendSync share a lock.
func (ch *wsChannel) write(data []byte) error {
	ch.writeMu.Lock()
	defer ch.writeMu.Unlock()
	if ch.ioTimeout > 0 {
		_ = ch.conn.SetWriteDeadline(time.Now().Add(ch.ioTimeout))
	}
	return ch.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (ch *wsChannel) teardown(err error) {
	ch.closeOnce.Do(func() {
		ch.mu.Lock()
		ch.closed = true
		ch.mu.Unlock()
		close(ch.done)
		if ch.conn != nil {
			_ = ch.conn.Close()
		}
		if ch.onClose != nil {
			ch.onClose(err)
		}
	})
}
