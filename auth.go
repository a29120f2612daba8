package wirechat

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	contentTypeMsgpack = "application/x-msgpack"
	loginPath          = "/auth/login"
)

// Authenticator exchanges credentials for a Session over HTTP.
// The exchange is fully independent of the realtime channel and may
// run concurrently with it.
type Authenticator struct {
	cfg    Config
	codec  Codec
	client *http.Client
}

// NewAuthenticator creates an Authenticator for cfg. The connect
// timeout bounds dialing and TLS handshaking; the I/O timeout bounds
// waiting for the response, independently.
func NewAuthenticator(cfg Config) *Authenticator {
	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.IOTimeout,
	}
	return &Authenticator{
		cfg:    cfg,
		codec:  &MsgpackCodec{},
		client: &http.Client{Transport: transport},
	}
}

type loginRequest struct {
	Tag      string `msgpack:"tag" json:"tag"`
	Username string `msgpack:"username" json:"username"`
	Password string `msgpack:"password" json:"password"`
}

type loginResponse struct {
	Token string      `msgpack:"token" json:"token"`
	Error *ReplyError `msgpack:"error,omitempty" json:"error,omitempty"`
}

// Login performs the auth exchange and returns a Session stamped with
// the local time. A non-success status carrying a well-formed error
// body yields a *ReplyError; transport faults yield a plain error.
// Login never panics across the request boundary.
func (a *Authenticator) Login(ctx context.Context, creds Credentials) (*Session, error) {
	// The tag correlates server-side auth logs with this call. It is
	// unrelated to the channel-layer correlation identifiers.
	tag := uuid.NewString()
	body, err := a.codec.Encode(&loginRequest{
		Tag:      tag,
		Username: creds.Username,
		Password: creds.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("encode login payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.loginURL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypeMsgpack)
	req.Header.Set("Accept", contentTypeMsgpack)
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(a.cfg.ServerKey)))
	req.Header.Set("Accept-Language", a.cfg.Locale)

	Log.Debugf("login request %s for user %s", tag, creds.Username)
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login transport fault: %w", err)
	}
	defer resp.Body.Close() // nolint

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read login response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var replyErr ReplyError
		if err := a.codec.Decode(data, &replyErr); err == nil && replyErr.Reason != "" {
			return nil, &replyErr
		}
		return nil, fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var loginResp loginResponse
	if err := a.codec.Decode(data, &loginResp); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	if loginResp.Error != nil {
		return nil, loginResp.Error
	}
	if loginResp.Token == "" {
		return nil, errors.New("login response carries no token")
	}
	Log.Debugf("login request %s succeeded", tag)
	return &Session{Token: loginResp.Token, CreatedAt: time.Now().UnixMilli()}, nil
}

func (a *Authenticator) loginURL() string {
	scheme := "http"
	if a.cfg.TLS {
		scheme = "https"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(a.cfg.Host, strconv.Itoa(a.cfg.Port)),
		Path:   loginPath,
	}
	return u.String()
}
