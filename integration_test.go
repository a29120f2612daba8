package wirechat

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wirechat/wirechat/envelope"
)

const testHeartbeatTS = int64(1712345678901)

// newRealtimeServer speaks the wire protocol end to end: it pushes one
// heartbeat after the handshake, answers Users requests with a canned
// result set and signals every Logout envelope it reads off the wire.
func newRealtimeServer(t *testing.T) (*httptest.Server, <-chan struct{}) {
	t.Helper()
	codec := &MsgpackCodec{}
	logouts := make(chan struct{}, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, realtimePath, r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("token"))
		assert.Equal(t, "server-key", r.URL.Query().Get("key"))

		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		body, _ := codec.Encode(testHeartbeatTS)
		frame, _ := codec.Encode(envelope.New(envelope.Heartbeat, body))
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			return
		}

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var env envelope.Envelope
			if err := codec.Decode(data, &env); err != nil {
				continue
			}
			if env.Kind == envelope.Logout {
				logouts <- struct{}{}
				continue
			}
			if !env.IsReply() {
				continue
			}
			switch env.Kind {
			case envelope.Users:
				users, _ := codec.Encode([]*User{{ID: "u1", Name: "alice", Online: true}, {ID: "u2", Name: "bob"}})
				reply, _ := codec.Encode(envelope.NewReply(env.CorrelationID, envelope.Users, users))
				_ = conn.WriteMessage(websocket.BinaryMessage, reply)
			default:
				reply, _ := codec.Encode(envelope.NewReply(env.CorrelationID, envelope.None, nil))
				_ = conn.WriteMessage(websocket.BinaryMessage, reply)
			}
		}
	}))
	return srv, logouts
}

func TestClient_EndToEnd(t *testing.T) {
	srv, logouts := newRealtimeServer(t)
	defer srv.Close()

	client := NewClient(configForServer(t, srv))
	require.NoError(t, client.Connect(&Session{Token: "tok", CreatedAt: time.Now().UnixMilli()}))

	reply, err := client.Call(envelope.Users, nil)
	require.NoError(t, err)
	users, ok := reply.([]*User)
	require.True(t, ok)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Name)

	// the handshake heartbeat precedes the reply on the ordered stream
	assert.Equal(t, testHeartbeatTS, client.ServerTime())

	require.NoError(t, client.Disconnect())
	select {
	case <-logouts:
	case <-time.After(2 * time.Second):
		t.Fatal("logout envelope never reached the wire")
	}
	select {
	case <-client.Closed():
	case <-time.After(2 * time.Second):
		t.Fatal("client never reached the closed state")
	}
	assert.ErrorIs(t, client.Connect(&Session{Token: "tok"}), ErrClientClosed)
}

func TestClient_LogoutDeliveredOnDisconnect(t *testing.T) {
	srv, logouts := newRealtimeServer(t)
	defer srv.Close()
	cfg := configForServer(t, srv)

	// a fresh client per cycle, Closed being terminal
	const cycles = 5
	for i := 0; i < cycles; i++ {
		client := NewClient(cfg)
		require.NoError(t, client.Connect(&Session{Token: "tok"}))
		require.NoError(t, client.Disconnect())
	}

	for i := 0; i < cycles; i++ {
		select {
		case <-logouts:
		case <-time.After(2 * time.Second):
			t.Fatalf("logout %d of %d never reached the wire", i+1, cycles)
		}
	}
}
