package wirechat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJsonCodec_Decode(t *testing.T) {
	c := &JsonCodec{}
	data := []byte(`{"id": "u1"}`)
	var v struct {
		Id string `json:"id"`
	}
	assert.NoError(t, c.Decode(data, &v))
	assert.Equal(t, "u1", v.Id)
}

func TestJsonCodec_Encode(t *testing.T) {
	c := &JsonCodec{}
	v := struct {
		Id string `json:"id"`
	}{Id: "u1"}
	b, err := c.Encode(v)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"id": "u1"}`, string(b))
}

func TestMsgpackCodec(t *testing.T) {
	c := &MsgpackCodec{}
	user := &User{ID: "u1", Name: "alice", Online: true}

	b, err := c.Encode(user)
	assert.NoError(t, err)

	var decoded User
	assert.NoError(t, c.Decode(b, &decoded))
	assert.Equal(t, *user, decoded)
}

func TestProtobufCodec_RejectsNonProto(t *testing.T) {
	c := &ProtobufCodec{}
	_, err := c.Encode("not a proto message")
	assert.Error(t, err)
	assert.Error(t, c.Decode([]byte("x"), "not a proto message"))
}
