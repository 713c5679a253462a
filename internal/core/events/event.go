package events

import (
	"fmt"

	. "github.com/advanliempt/homebridge-hue/internal/core/domain"
)

// CharacteristicUpdateEvent converts a characteristic value to the event the
// presentation publishes. Buttons have no state and yield nil.
func CharacteristicUpdateEvent(spec CharacteristicSpec, value any) SensorUpdateEvent {
	info := spec.Ref.Characteristic.Info()
	mixIn := SensorUpdateEventMixIn{Id: spec.Ref.EntityId()}
	switch info.Kind {
	case KIND_BINARY:
		if spec.Settable {
			return SwitchSensorUpdateEvent{SensorUpdateEventMixIn: mixIn, Value: Truthy(value)}
		}
		return BinarySensorUpdateEvent{SensorUpdateEventMixIn: mixIn, Value: Truthy(value)}
	case KIND_NUMBER:
		n, ok := Number(value)
		if !ok {
			return nil
		}
		if spec.Settable {
			return InputNumberSensorUpdateEvent{SensorUpdateEventMixIn: mixIn, Value: n, Decimals: info.Decimals}
		}
		return FloatSensorUpdateEvent{SensorUpdateEventMixIn: mixIn, Value: n, Decimals: info.Decimals}
	case KIND_TEXT:
		if value == nil {
			return TextSensorUpdateEvent{SensorUpdateEventMixIn: mixIn}
		}
		return TextSensorUpdateEvent{SensorUpdateEventMixIn: mixIn, Value: fmt.Sprintf("%v", value)}
	case KIND_EVENT:
		action, ok := value.(ButtonAction)
		if !ok {
			return nil
		}
		return ButtonPressEvent{SensorUpdateEventMixIn: mixIn, Action: action}
	}
	return nil
}
