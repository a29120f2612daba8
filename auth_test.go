package wirechat

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configForServer(t *testing.T, srv *httptest.Server) Config {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return NewConfigBuilder().
		Host(u.Hostname()).
		Port(port).
		ServerKey("server-key").
		Build()
}

func TestAuthenticator_Login(t *testing.T) {
	codec := &MsgpackCodec{}

	t.Run("round trip yields a session with the issued token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, loginPath, r.URL.Path)
			assert.Equal(t, contentTypeMsgpack, r.Header.Get("Content-Type"))
			assert.Equal(t, contentTypeMsgpack, r.Header.Get("Accept"))
			assert.Contains(t, r.Header.Get("Authorization"), "Basic ")
			assert.Equal(t, "en", r.Header.Get("Accept-Language"))

			body, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			var req loginRequest
			assert.NoError(t, codec.Decode(body, &req))
			assert.Equal(t, "alice", req.Username)
			assert.Equal(t, "secret", req.Password)
			assert.NotEmpty(t, req.Tag)

			data, err := codec.Encode(&loginResponse{Token: "abc123"})
			assert.NoError(t, err)
			w.Header().Set("Content-Type", contentTypeMsgpack)
			_, _ = w.Write(data)
		}))
		defer srv.Close()

		auth := NewAuthenticator(configForServer(t, srv))
		sess, err := auth.Login(context.Background(), Credentials{Username: "alice", Password: "secret"})
		require.NoError(t, err)
		assert.Equal(t, "abc123", sess.Token)
		assert.Greater(t, sess.CreatedAt, int64(0))
	})

	t.Run("non-success status with structured body yields the carried reason", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := codec.Encode(&ReplyError{Code: 401, Reason: "invalid credentials"})
			assert.NoError(t, err)
			w.Header().Set("Content-Type", contentTypeMsgpack)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write(data)
		}))
		defer srv.Close()

		auth := NewAuthenticator(configForServer(t, srv))
		_, err := auth.Login(context.Background(), Credentials{Username: "alice", Password: "wrong"})
		require.Error(t, err)

		var replyErr *ReplyError
		require.True(t, errors.As(err, &replyErr))
		assert.Equal(t, "invalid credentials", replyErr.Reason)
		assert.Equal(t, 401, replyErr.Code)
	})

	t.Run("non-success status with malformed body yields a status error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("not msgpack at all"))
		}))
		defer srv.Close()

		auth := NewAuthenticator(configForServer(t, srv))
		_, err := auth.Login(context.Background(), Credentials{})
		require.Error(t, err)
		var replyErr *ReplyError
		assert.False(t, errors.As(err, &replyErr))
		assert.Contains(t, err.Error(), "500")
	})

	t.Run("transport fault surfaces as a plain error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		cfg := configForServer(t, srv)
		srv.Close() // nothing listens anymore

		auth := NewAuthenticator(cfg)
		_, err := auth.Login(context.Background(), Credentials{})
		require.Error(t, err)
		var replyErr *ReplyError
		assert.False(t, errors.As(err, &replyErr))
	})

	t.Run("success status without a token is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := codec.Encode(&loginResponse{})
			assert.NoError(t, err)
			_, _ = w.Write(data)
		}))
		defer srv.Close()

		auth := NewAuthenticator(configForServer(t, srv))
		_, err := auth.Login(context.Background(), Credentials{})
		assert.Error(t, err)
	})
}
