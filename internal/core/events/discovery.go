package events

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"slices"

	. "github.com/advanliempt/homebridge-hue/internal/core/domain"

	"github.com/carlmjohnson/versioninfo"
)

// Discovery is the set of entities announced for a group of accessories.
type Discovery struct {
	Sensors      []GenericSensor
	Switches     []GenericSwitch
	InputNumbers []GenericInputNumber
	Buttons      []GenericButton
	Events       []GenericEvent
}

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("hue_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "homebridge-hue",
		Model:        "Hue sensors bridge",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("Hue sensors %s", md5HashShort(baseTopic)),
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {
	return []GenericSensor{{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	}}
}

func AccessoryDevice(info AccessoryInfo, bridgeDevice Device) Device {
	return Device{
		Id:           fmt.Sprintf("hue_%s", info.Id),
		Name:         info.Name,
		Manufacturer: info.Manufacturer,
		Model:        info.Model,
		Version:      info.Version,
		ViaDevice:    bridgeDevice.Id,
	}
}

// AccessoryDiscovery maps every characteristic of an accessory to an entity.
// The full device description is carried only by the first entity.
func AccessoryDiscovery(info AccessoryInfo, bridgeDevice Device) Discovery {
	var d Discovery
	device := AccessoryDevice(info, bridgeDevice)
	for i, spec := range info.Characteristics {
		dev := device
		if i > 0 {
			dev = IdDevice(device)
		}
		d.add(dev, spec)
	}
	return d
}

func (d *Discovery) Append(other Discovery) {
	d.Sensors = append(d.Sensors, other.Sensors...)
	d.Switches = append(d.Switches, other.Switches...)
	d.InputNumbers = append(d.InputNumbers, other.InputNumbers...)
	d.Buttons = append(d.Buttons, other.Buttons...)
	d.Events = append(d.Events, other.Events...)
}

func (d *Discovery) add(dev Device, spec CharacteristicSpec) {
	info := spec.Ref.Characteristic.Info()
	id := spec.Ref.EntityId()
	name := spec.DisplayName()
	switch info.Kind {
	case KIND_BINARY:
		if spec.Settable {
			d.Switches = append(d.Switches, GenericSwitch{
				Device:         dev,
				Id:             id,
				Name:           name,
				UniqueId:       uniqueId(dev.Id, id),
				EntityCategory: info.EntityCategory,
			})
			return
		}
		d.Sensors = append(d.Sensors, GenericSensor{
			Device:         dev,
			Id:             id,
			SensorType:     SENSOR_TYPE_BINARY,
			Name:           name,
			UniqueId:       uniqueId(dev.Id, id),
			DeviceClass:    info.DeviceClass,
			EntityCategory: info.EntityCategory,
		})
	case KIND_NUMBER:
		if spec.Settable {
			d.InputNumbers = append(d.InputNumbers, inputNumber(dev, id, name, spec, info))
			return
		}
		d.Sensors = append(d.Sensors, GenericSensor{
			Device:            dev,
			Id:                id,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              name,
			UniqueId:          uniqueId(dev.Id, id),
			UnitOfMeasurement: spec.Unit,
			StateClass:        info.StateClass,
			DeviceClass:       info.DeviceClass,
			EntityCategory:    info.EntityCategory,
		})
	case KIND_TEXT:
		sensor := GenericSensor{
			Device:         dev,
			Id:             id,
			SensorType:     SENSOR_TYPE_SENSOR,
			Name:           name,
			UniqueId:       uniqueId(dev.Id, id),
			EntityCategory: info.EntityCategory,
		}
		if spec.Ref.Characteristic == CHAR_RESOURCE || spec.Ref.Characteristic == CHAR_LAST_UPDATED {
			sensor.EnabledByDefault = optionalBool(false)
		}
		d.Sensors = append(d.Sensors, sensor)
	case KIND_EVENT:
		var types []string
		for _, v := range spec.Props.ValidValues {
			types = append(types, ButtonAction(v).String())
		}
		d.Events = append(d.Events, GenericEvent{
			Device:     dev,
			Id:         id,
			Name:       name,
			UniqueId:   uniqueId(dev.Id, id),
			EventTypes: types,
		})
	case KIND_BUTTON:
		d.Buttons = append(d.Buttons, GenericButton{
			Device:         dev,
			Id:             id,
			Name:           name,
			UniqueId:       uniqueId(dev.Id, id),
			DeviceClass:    info.DeviceClass,
			EntityCategory: info.EntityCategory,
		})
	}
}

func inputNumber(dev Device, id, name string, spec CharacteristicSpec, info CharacteristicInfo) GenericInputNumber {
	n := GenericInputNumber{
		Device:            dev,
		Id:                id,
		Name:              name,
		UniqueId:          uniqueId(dev.Id, id),
		UnitOfMeasurement: spec.Unit,
		EntityCategory:    info.EntityCategory,
		Min:               spec.Props.Min,
		Max:               spec.Props.Max,
		Step:              spec.Props.Step,
		Mode:              INPUT_NUMBER_MODE_BOX,
	}
	if len(spec.Props.ValidValues) > 0 {
		n.Min = slices.Min(spec.Props.ValidValues)
		n.Max = slices.Max(spec.Props.ValidValues)
	} else if !spec.Props.Bounded {
		n.Min, n.Max = -65535, 65535
	}
	if n.Step <= 0 {
		n.Step = 1
	} else if n.Step != 1 {
		n.Mode = INPUT_NUMBER_MODE_SLIDER
	}
	return n
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}

func optionalBool(value bool) *bool {
	return &value
}
