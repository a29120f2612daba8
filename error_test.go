package wirechat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplyError_Error(t *testing.T) {
	withCode := &ReplyError{Code: 403, Reason: "banned"}
	assert.Equal(t, "server error 403: banned", withCode.Error())

	withoutCode := &ReplyError{Reason: "invalid credentials"}
	assert.Equal(t, "server error: invalid credentials", withoutCode.Error())
}
