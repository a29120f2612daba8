package wirechat

import (
	"github.com/vmihailenco/msgpack/v5"
)

var _ Codec = &MsgpackCodec{}

// MsgpackCodec implements the Codec interface.
// MsgpackCodec is the default wire codec: the auth endpoint and the
// realtime channel both speak msgpack.
type MsgpackCodec struct{}

// Encode implements the Codec Encode method.
func (m *MsgpackCodec) Encode(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Decode implements the Codec Decode method.
func (m *MsgpackCodec) Decode(data []byte, v interface{}) error {
	return msgpack.Unmarshal(data, v)
}
