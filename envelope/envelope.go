package envelope

// Kind discriminates the payload carried by an Envelope.
type Kind uint32

// Payload kinds understood by the realtime channel.
const (
	None Kind = iota
	Error
	Heartbeat
	Logout
	Self
	Users
)

var kindNames = map[Kind]string{
	None:      "none",
	Error:     "error",
	Heartbeat: "heartbeat",
	Logout:    "logout",
	Self:      "self",
	Users:     "users",
}

// String returns a readable name of k, or "unknown" for an
// unrecognized kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Envelope is the outer wire structure wrapping every message
// exchanged over the realtime channel.
// Body holds the codec-encoded payload for the given Kind;
// replies echo the CorrelationID of their originating request,
// server-initiated frames carry none.
type Envelope struct {
	CorrelationID string `msgpack:"cid,omitempty" json:"cid,omitempty"`
	Kind          Kind   `msgpack:"kind" json:"kind"`
	Body          []byte `msgpack:"body,omitempty" json:"body,omitempty"`
}

// New creates an Envelope without a correlation identifier.
func New(kind Kind, body []byte) *Envelope {
	return &Envelope{Kind: kind, Body: body}
}

// NewReply creates an Envelope tagged with a correlation identifier.
func NewReply(cid string, kind Kind, body []byte) *Envelope {
	return &Envelope{CorrelationID: cid, Kind: kind, Body: body}
}

// IsReply reports whether e carries a correlation identifier.
func (e *Envelope) IsReply() bool {
	return e.CorrelationID != ""
}
