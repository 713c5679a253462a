package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailedResponse(t *testing.T) {
	unreachable := errors.New("bridge unreachable")

	resp := SetCharacteristicResponse{ActorResponseMixIn: Failed(unreachable)}
	assert.True(t, resp.HasResponseError())
	assert.ErrorIs(t, resp.GetResponseError(), unreachable)

	resp = SetCharacteristicResponse{ActorResponseMixIn: Failed(nil)}
	assert.False(t, resp.HasResponseError())
	assert.NoError(t, resp.GetResponseError())
}
