package wirechat

// Session is the token-bearing credential obtained from Login and used
// to open the realtime channel. Sessions are immutable; the client
// borrows one to parameterize channel construction and never mutates
// or retains ownership of it.
type Session struct {
	// Token is the opaque session token.
	Token string

	// CreatedAt is the local creation time in epoch milliseconds.
	CreatedAt int64
}

// Credentials is the payload exchanged for a Session.
type Credentials struct {
	Username string `msgpack:"username" json:"username"`
	Password string `msgpack:"password" json:"password"`
}

// User is the profile carried by Self-kind and Users-kind payloads.
type User struct {
	ID     string `msgpack:"id" json:"id"`
	Name   string `msgpack:"name" json:"name"`
	Avatar string `msgpack:"avatar,omitempty" json:"avatar,omitempty"`
	Online bool   `msgpack:"online" json:"online"`
}
