package domain

import "fmt"

// SensorUpdateEventMixIn carries the entity id of an update, the
// <accessory>_<service>_<characteristic> id used in topics and discovery.
type SensorUpdateEventMixIn struct {
	Id string
}

// SensorUpdateEvent is a characteristic value change published on the event
// stream by an accessory.
type SensorUpdateEvent interface {
	SensorUpdateEvent() string
	SensorId() string
}

func (e SensorUpdateEventMixIn) SensorUpdateEvent() string {
	return fmt.Sprintf("%T", e)
}

func (e SensorUpdateEventMixIn) SensorId() string {
	return e.Id
}

// FloatSensorUpdateEvent is a read-only measurement, like a temperature or a
// battery level.
type FloatSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value    float64
	Decimals uint
}

// BinarySensorUpdateEvent is a read-only flag: motion, contact, fault.
type BinarySensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value bool
}

// SwitchSensorUpdateEvent is a settable flag, like the enabled switch.
type SwitchSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value bool
}

// TextSensorUpdateEvent carries strings such as lastupdated or the resource
// path.
type TextSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value string
}

// BridgeStateUpdateEvent tells whether the last poll reached the bridge.
type BridgeStateUpdateEvent struct {
	SensorUpdateEventMixIn
	Value bool
}

// InputNumberSensorUpdateEvent is a settable number: duration, offset,
// sensitivity, heat setpoint.
type InputNumberSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value    float64
	Decimals uint
}

// ButtonPressEvent is a stateless button press, published once per press.
type ButtonPressEvent struct {
	SensorUpdateEventMixIn
	Action ButtonAction
}

// ensure interface compliance
var _ SensorUpdateEvent = (*FloatSensorUpdateEvent)(nil)
var _ SensorUpdateEvent = (*ButtonPressEvent)(nil)
