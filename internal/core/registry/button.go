package registry

import (
	"math"

	"github.com/advanliempt/homebridge-hue/internal/core/domain"
)

// ButtonMode is the set of actions a button can emit.
type ButtonMode int

const (
	SINGLE ButtonMode = iota
	SINGLE_DOUBLE
	SINGLE_LONG
	SINGLE_DOUBLE_LONG
	DOUBLE_LONG
)

func (m ButtonMode) Actions() []domain.ButtonAction {
	switch m {
	case SINGLE:
		return []domain.ButtonAction{domain.SINGLE_PRESS}
	case SINGLE_DOUBLE:
		return []domain.ButtonAction{domain.SINGLE_PRESS, domain.DOUBLE_PRESS}
	case SINGLE_LONG:
		return []domain.ButtonAction{domain.SINGLE_PRESS, domain.LONG_PRESS}
	case SINGLE_DOUBLE_LONG:
		return []domain.ButtonAction{domain.SINGLE_PRESS, domain.DOUBLE_PRESS, domain.LONG_PRESS}
	case DOUBLE_LONG:
		return []domain.ButtonAction{domain.DOUBLE_PRESS, domain.LONG_PRESS}
	}
	return nil
}

type Button struct {
	Index int
	Name  string
	Mode  ButtonMode
}

// raw buttonevent codes: button*1000 + event
const (
	EVENT_PRESS = iota
	EVENT_HOLD
	EVENT_SHORT_RELEASE
	EVENT_LONG_RELEASE
	EVENT_DOUBLE_PRESS
	EVENT_TRIPLE_PRESS
	EVENT_QUADRUPLE_PRESS
	EVENT_SHAKE
	EVENT_DROP
	EVENT_TILT
)

type Decoder int

const (
	DECODER_NONE Decoder = iota
	DECODER_STANDARD
	DECODER_TAP
	DECODER_VIBRATION
	DECODER_CUBE_SIDE
	DECODER_CUBE_TURN
)

var tapButtons = map[int]int{34: 1, 16: 2, 17: 3, 18: 4}

// Decode maps a raw buttonevent to a button index and action. previous is the
// last raw buttonevent seen for the sensor, or -1 when there is none.
func (d Decoder) Decode(value, previous int, repeat bool) (int, domain.ButtonAction, bool) {
	switch d {
	case DECODER_STANDARD:
		button := floorDiv(value, 1000)
		action, ok := standardAction(value, previous, repeat)
		return button, action, ok
	case DECODER_TAP:
		button, ok := tapButtons[value]
		return button, domain.SINGLE_PRESS, ok
	case DECODER_VIBRATION:
		button := floorDiv(value, 1000)
		switch value % 1000 {
		case EVENT_SHAKE:
			return button, domain.SINGLE_PRESS, true
		case EVENT_DROP:
			return button, domain.DOUBLE_PRESS, true
		case EVENT_TILT:
			return button, domain.LONG_PRESS, true
		}
		return button, 0, false
	case DECODER_CUBE_SIDE:
		button := floorDiv(value, 1000)
		event := value % 1000
		switch {
		case event == 0:
			return button, domain.LONG_PRESS, true
		case event == button || event == 8:
			return button, domain.DOUBLE_PRESS, true
		}
		return button, domain.SINGLE_PRESS, true
	case DECODER_CUBE_TURN:
		button := 9
		if value > 0 {
			button = 8
		}
		angle := math.Abs(float64(value))
		switch {
		case angle < 4500:
			return button, domain.SINGLE_PRESS, true
		case angle < 9000:
			return button, domain.DOUBLE_PRESS, true
		}
		return button, domain.LONG_PRESS, true
	}
	return 0, 0, false
}

// Polling loses some press/hold/release events, so only one action is issued
// per series.
func standardAction(value, previous int, repeat bool) (domain.ButtonAction, bool) {
	button := floorDiv(value, 1000)
	switch value % 1000 {
	case EVENT_SHORT_RELEASE:
		return domain.SINGLE_PRESS, true
	case EVENT_HOLD, EVENT_LONG_RELEASE:
		if repeat && (button == 2 || button == 3) {
			return domain.SINGLE_PRESS, true
		}
		if previous >= 0 && button == floorDiv(previous, 1000) && previous%1000 == EVENT_HOLD {
			return 0, false
		}
		return domain.LONG_PRESS, true
	case EVENT_TRIPLE_PRESS, EVENT_QUADRUPLE_PRESS:
		return domain.LONG_PRESS, true
	case EVENT_DOUBLE_PRESS, EVENT_SHAKE, EVENT_DROP:
		return domain.DOUBLE_PRESS, true
	}
	return 0, false
}

func floorDiv(a, b int) int {
	return int(math.Floor(float64(a) / float64(b)))
}
