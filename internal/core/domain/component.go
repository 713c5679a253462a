package domain

type Device struct {
	Id           string
	Name         string
	Version      string
	Model        string
	Manufacturer string
	ViaDevice    string
}

type GenericSensor struct {
	Device            Device
	Id                string
	SensorType        string
	Name              string
	UniqueId          string
	UnitOfMeasurement string
	StateClass        string // measurement, total_increasing
	DeviceClass       string // temperature, illuminance, motion, ...
	EntityCategory    string // diagnostic, config, nil
	EnabledByDefault  *bool
	Icon              string
}

type GenericSwitch struct {
	Device         Device
	Id             string
	Name           string
	UniqueId       string
	Icon           string
	EntityCategory string
}

type GenericInputNumber struct {
	Device            Device
	Id                string
	Name              string
	UniqueId          string
	Icon              string
	UnitOfMeasurement string
	EntityCategory    string
	Max               float64
	Min               float64
	Step              float64
	Mode              string
	InitialValue      float64
}

// GenericButton is a command-only entity (identify, reset).
type GenericButton struct {
	Device         Device
	Id             string
	Name           string
	UniqueId       string
	DeviceClass    string
	EntityCategory string
}

// GenericEvent is a stateless programmable switch.
type GenericEvent struct {
	Device     Device
	Id         string
	Name       string
	UniqueId   string
	EventTypes []string
}

const (
	SENSOR_ID_BRIDGE_STATE   = "bridge"
	SENSOR_TYPE_SENSOR       = "sensor"
	SENSOR_TYPE_BINARY       = "binary_sensor"
	INPUT_NUMBER_MODE_BOX    = "box"
	INPUT_NUMBER_MODE_SLIDER = "slider"
)
