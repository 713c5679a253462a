package registry

import (
	"testing"

	"github.com/advanliempt/homebridge-hue/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

type decodeResult struct {
	button int
	action domain.ButtonAction
	ok     bool
}

func decode(d Decoder, value, previous int, repeat bool) decodeResult {
	button, action, ok := d.Decode(value, previous, repeat)
	return decodeResult{button, action, ok}
}

func TestStandardDecoder(t *testing.T) {
	assert := assert.New(t)

	assert.False(decode(DECODER_STANDARD, 1000, -1, false).ok)
	assert.Equal(decodeResult{1, domain.SINGLE_PRESS, true}, decode(DECODER_STANDARD, 1002, 1000, false))
	assert.Equal(decodeResult{2, domain.LONG_PRESS, true}, decode(DECODER_STANDARD, 2001, 2000, false))
	// hold already reported
	assert.False(decode(DECODER_STANDARD, 2003, 2001, false).ok)
	assert.False(decode(DECODER_STANDARD, 2001, 2001, false).ok)
	// a hold on another button is new
	assert.Equal(decodeResult{3, domain.LONG_PRESS, true}, decode(DECODER_STANDARD, 3001, 2001, false))
	// dimmer repeat turns holds on 2 and 3 into single presses
	assert.Equal(decodeResult{2, domain.SINGLE_PRESS, true}, decode(DECODER_STANDARD, 2001, 2001, true))
	assert.Equal(decodeResult{4, domain.LONG_PRESS, true}, decode(DECODER_STANDARD, 4001, 4000, true))
	assert.Equal(decodeResult{1, domain.DOUBLE_PRESS, true}, decode(DECODER_STANDARD, 1004, 1002, false))
	assert.Equal(decodeResult{1, domain.LONG_PRESS, true}, decode(DECODER_STANDARD, 1005, 1002, false))
	assert.Equal(decodeResult{1, domain.LONG_PRESS, true}, decode(DECODER_STANDARD, 1006, 1002, false))
	assert.False(decode(DECODER_STANDARD, 1009, 1002, false).ok)
}

func TestDimmerSequence(t *testing.T) {
	assert := assert.New(t)

	// press, hold, hold, long release on button 2 gives one long press
	var actions []domain.ButtonAction
	previous := -1
	for _, v := range []int{2000, 2001, 2001, 2003} {
		if _, action, ok := DECODER_STANDARD.Decode(v, previous, false); ok {
			actions = append(actions, action)
		}
		previous = v
	}
	assert.Equal([]domain.ButtonAction{domain.LONG_PRESS}, actions)
}

func TestVariantDecoders(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(decodeResult{1, domain.SINGLE_PRESS, true}, decode(DECODER_TAP, 34, -1, false))
	assert.Equal(decodeResult{4, domain.SINGLE_PRESS, true}, decode(DECODER_TAP, 18, -1, false))
	assert.False(decode(DECODER_TAP, 99, -1, false).ok)

	assert.Equal(decodeResult{1, domain.SINGLE_PRESS, true}, decode(DECODER_VIBRATION, 1007, -1, false))
	assert.Equal(decodeResult{1, domain.DOUBLE_PRESS, true}, decode(DECODER_VIBRATION, 1008, -1, false))
	assert.Equal(decodeResult{1, domain.LONG_PRESS, true}, decode(DECODER_VIBRATION, 1009, -1, false))
	assert.False(decode(DECODER_VIBRATION, 1002, -1, false).ok)

	assert.Equal(decodeResult{7, domain.LONG_PRESS, true}, decode(DECODER_CUBE_SIDE, 7000, -1, false))
	assert.Equal(decodeResult{3, domain.DOUBLE_PRESS, true}, decode(DECODER_CUBE_SIDE, 3003, -1, false))
	assert.Equal(decodeResult{2, domain.DOUBLE_PRESS, true}, decode(DECODER_CUBE_SIDE, 2008, -1, false))
	assert.Equal(decodeResult{1, domain.SINGLE_PRESS, true}, decode(DECODER_CUBE_SIDE, 1006, -1, false))

	assert.Equal(decodeResult{8, domain.SINGLE_PRESS, true}, decode(DECODER_CUBE_TURN, 2000, -1, false))
	assert.Equal(decodeResult{9, domain.DOUBLE_PRESS, true}, decode(DECODER_CUBE_TURN, -6000, -1, false))
	assert.Equal(decodeResult{8, domain.LONG_PRESS, true}, decode(DECODER_CUBE_TURN, 9000, -1, false))

	assert.False(decode(DECODER_NONE, 1002, -1, false).ok)
}

func TestButtonModeActions(t *testing.T) {
	assert.Equal(t, []domain.ButtonAction{domain.SINGLE_PRESS, domain.LONG_PRESS}, SINGLE_LONG.Actions())
	assert.Equal(t, []domain.ButtonAction{domain.DOUBLE_PRESS, domain.LONG_PRESS}, DOUBLE_LONG.Actions())
}
