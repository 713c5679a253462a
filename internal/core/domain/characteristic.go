package domain

type CharacteristicType string

const (
	CHAR_MOTION_DETECTED               CharacteristicType = "motion"
	CHAR_CURRENT_TEMPERATURE           CharacteristicType = "temperature"
	CHAR_CURRENT_AMBIENT_LIGHT_LEVEL   CharacteristicType = "light_level"
	CHAR_CONTACT_SENSOR_STATE          CharacteristicType = "contact"
	CHAR_CURRENT_RELATIVE_HUMIDITY     CharacteristicType = "humidity"
	CHAR_AIR_PRESSURE                  CharacteristicType = "air_pressure"
	CHAR_ALARM                         CharacteristicType = "alarm"
	CHAR_CARBON_MONOXIDE_DETECTED      CharacteristicType = "carbon_monoxide"
	CHAR_SMOKE_DETECTED                CharacteristicType = "smoke"
	CHAR_LEAK_DETECTED                 CharacteristicType = "leak"
	CHAR_TOTAL_CONSUMPTION             CharacteristicType = "total_consumption"
	CHAR_CURRENT_CONSUMPTION           CharacteristicType = "current_consumption"
	CHAR_ON                            CharacteristicType = "on"
	CHAR_STATUS                        CharacteristicType = "status"
	CHAR_PROGRAMMABLE_SWITCH_EVENT     CharacteristicType = "button"
	CHAR_ELECTRIC_CURRENT              CharacteristicType = "electric_current"
	CHAR_VOLTAGE                       CharacteristicType = "voltage"
	CHAR_DARK                          CharacteristicType = "dark"
	CHAR_DAYLIGHT                      CharacteristicType = "daylight"
	CHAR_STATUS_TAMPERED               CharacteristicType = "tampered"
	CHAR_LAST_UPDATED                  CharacteristicType = "last_updated"
	CHAR_LAST_EVENT                    CharacteristicType = "last_event"
	CHAR_PERIOD                        CharacteristicType = "period"
	CHAR_CURRENT_HEATING_COOLING_STATE CharacteristicType = "heating_state"
	CHAR_TARGET_HEATING_COOLING_STATE  CharacteristicType = "target_heating_state"
	CHAR_TARGET_TEMPERATURE            CharacteristicType = "target_temperature"
	CHAR_DURATION                      CharacteristicType = "duration"
	CHAR_SENSITIVITY                   CharacteristicType = "sensitivity"
	CHAR_OFFSET                        CharacteristicType = "offset"
	CHAR_STATUS_FAULT                  CharacteristicType = "fault"
	CHAR_STATUS_ACTIVE                 CharacteristicType = "active"
	CHAR_ENABLED                       CharacteristicType = "enabled"
	CHAR_RESOURCE                      CharacteristicType = "resource"
	CHAR_BATTERY_LEVEL                 CharacteristicType = "battery"
	CHAR_STATUS_LOW_BATTERY            CharacteristicType = "low_battery"
	CHAR_TIMES_OPENED                  CharacteristicType = "times_opened"
	CHAR_LAST_ACTIVATION               CharacteristicType = "last_activation"
	CHAR_RESET_TOTAL                   CharacteristicType = "reset_total"
	CHAR_IDENTIFY                      CharacteristicType = "identify"
)

// heating/cooling state values
const (
	HEATING_COOLING_OFF  = 0
	HEATING_COOLING_HEAT = 1
)

// low battery values
const (
	BATTERY_LEVEL_NORMAL = 0
	BATTERY_LEVEL_LOW    = 1
)

type CharacteristicKind int

const (
	KIND_NUMBER CharacteristicKind = iota
	KIND_BINARY
	KIND_TEXT
	KIND_EVENT
	KIND_BUTTON
)

type CharacteristicInfo struct {
	Kind           CharacteristicKind
	Name           string
	Decimals       uint
	DeviceClass    string
	StateClass     string
	EntityCategory string
}

var characteristicInfo = map[CharacteristicType]CharacteristicInfo{
	CHAR_MOTION_DETECTED:               {Kind: KIND_BINARY, Name: "Motion", DeviceClass: DEVICE_CLASS_MOTION},
	CHAR_CURRENT_TEMPERATURE:           {Kind: KIND_NUMBER, Name: "Temperature", Decimals: 1, DeviceClass: DEVICE_CLASS_TEMPERATURE, StateClass: STATE_CLASS_MEASUREMENT},
	CHAR_CURRENT_AMBIENT_LIGHT_LEVEL:   {Kind: KIND_NUMBER, Name: "Light level", Decimals: 4, DeviceClass: DEVICE_CLASS_ILLUMINANCE, StateClass: STATE_CLASS_MEASUREMENT},
	CHAR_CONTACT_SENSOR_STATE:          {Kind: KIND_BINARY, Name: "Contact", DeviceClass: DEVICE_CLASS_DOOR},
	CHAR_CURRENT_RELATIVE_HUMIDITY:     {Kind: KIND_NUMBER, Name: "Humidity", DeviceClass: DEVICE_CLASS_HUMIDITY, StateClass: STATE_CLASS_MEASUREMENT},
	CHAR_AIR_PRESSURE:                  {Kind: KIND_NUMBER, Name: "Air pressure", DeviceClass: DEVICE_CLASS_PRESSURE, StateClass: STATE_CLASS_MEASUREMENT},
	CHAR_ALARM:                         {Kind: KIND_BINARY, Name: "Alarm", DeviceClass: DEVICE_CLASS_SAFETY},
	CHAR_CARBON_MONOXIDE_DETECTED:      {Kind: KIND_BINARY, Name: "CO", DeviceClass: DEVICE_CLASS_CARBON_MONOXIDE},
	CHAR_SMOKE_DETECTED:                {Kind: KIND_BINARY, Name: "Smoke", DeviceClass: DEVICE_CLASS_SMOKE},
	CHAR_LEAK_DETECTED:                 {Kind: KIND_BINARY, Name: "Leak", DeviceClass: DEVICE_CLASS_MOISTURE},
	CHAR_TOTAL_CONSUMPTION:             {Kind: KIND_NUMBER, Name: "Total consumption", Decimals: 3, DeviceClass: DEVICE_CLASS_ENERGY, StateClass: STATE_CLASS_TOTAL_INCREASING},
	CHAR_CURRENT_CONSUMPTION:           {Kind: KIND_NUMBER, Name: "Current consumption", Decimals: 1, DeviceClass: DEVICE_CLASS_POWER, StateClass: STATE_CLASS_MEASUREMENT},
	CHAR_ON:                            {Kind: KIND_BINARY, Name: "Flag"},
	CHAR_STATUS:                        {Kind: KIND_NUMBER, Name: "Status"},
	CHAR_PROGRAMMABLE_SWITCH_EVENT:     {Kind: KIND_EVENT, Name: "Button"},
	CHAR_ELECTRIC_CURRENT:              {Kind: KIND_NUMBER, Name: "Current", Decimals: 3, DeviceClass: DEVICE_CLASS_CURRENT, StateClass: STATE_CLASS_MEASUREMENT},
	CHAR_VOLTAGE:                       {Kind: KIND_NUMBER, Name: "Voltage", Decimals: 1, DeviceClass: DEVICE_CLASS_VOLTAGE, StateClass: STATE_CLASS_MEASUREMENT},
	CHAR_DARK:                          {Kind: KIND_BINARY, Name: "Dark"},
	CHAR_DAYLIGHT:                      {Kind: KIND_BINARY, Name: "Daylight", DeviceClass: DEVICE_CLASS_LIGHT},
	CHAR_STATUS_TAMPERED:               {Kind: KIND_BINARY, Name: "Tampered", DeviceClass: DEVICE_CLASS_TAMPER, EntityCategory: ENTITY_CLASS_DIAGNOSTIC},
	CHAR_LAST_UPDATED:                  {Kind: KIND_TEXT, Name: "Last updated", EntityCategory: ENTITY_CLASS_DIAGNOSTIC},
	CHAR_LAST_EVENT:                    {Kind: KIND_TEXT, Name: "Last event"},
	CHAR_PERIOD:                        {Kind: KIND_TEXT, Name: "Period"},
	CHAR_CURRENT_HEATING_COOLING_STATE: {Kind: KIND_BINARY, Name: "Heating", DeviceClass: DEVICE_CLASS_HEAT},
	CHAR_TARGET_HEATING_COOLING_STATE:  {Kind: KIND_BINARY, Name: "Scheduler"},
	CHAR_TARGET_TEMPERATURE:            {Kind: KIND_NUMBER, Name: "Target temperature", Decimals: 1, DeviceClass: DEVICE_CLASS_TEMPERATURE},
	CHAR_DURATION:                      {Kind: KIND_NUMBER, Name: "Duration", DeviceClass: DEVICE_CLASS_DURATION, EntityCategory: ENTITY_CLASS_CONFIG},
	CHAR_SENSITIVITY:                   {Kind: KIND_NUMBER, Name: "Sensitivity", EntityCategory: ENTITY_CLASS_CONFIG},
	CHAR_OFFSET:                        {Kind: KIND_NUMBER, Name: "Offset", Decimals: 1, EntityCategory: ENTITY_CLASS_CONFIG},
	CHAR_STATUS_FAULT:                  {Kind: KIND_BINARY, Name: "Fault", DeviceClass: DEVICE_CLASS_PROBLEM, EntityCategory: ENTITY_CLASS_DIAGNOSTIC},
	CHAR_STATUS_ACTIVE:                 {Kind: KIND_BINARY, Name: "Active", EntityCategory: ENTITY_CLASS_DIAGNOSTIC},
	CHAR_ENABLED:                       {Kind: KIND_BINARY, Name: "Enabled", EntityCategory: ENTITY_CLASS_CONFIG},
	CHAR_RESOURCE:                      {Kind: KIND_TEXT, Name: "Resource", EntityCategory: ENTITY_CLASS_DIAGNOSTIC},
	CHAR_BATTERY_LEVEL:                 {Kind: KIND_NUMBER, Name: "Battery", DeviceClass: DEVICE_CLASS_BATTERY, StateClass: STATE_CLASS_MEASUREMENT, EntityCategory: ENTITY_CLASS_DIAGNOSTIC},
	CHAR_STATUS_LOW_BATTERY:            {Kind: KIND_BINARY, Name: "Low battery", DeviceClass: DEVICE_CLASS_BATTERY, EntityCategory: ENTITY_CLASS_DIAGNOSTIC},
	CHAR_TIMES_OPENED:                  {Kind: KIND_NUMBER, Name: "Times opened", StateClass: STATE_CLASS_TOTAL_INCREASING},
	CHAR_LAST_ACTIVATION:               {Kind: KIND_NUMBER, Name: "Last activation", DeviceClass: DEVICE_CLASS_DURATION},
	CHAR_RESET_TOTAL:                   {Kind: KIND_BUTTON, Name: "Reset total", EntityCategory: ENTITY_CLASS_CONFIG},
	CHAR_IDENTIFY:                      {Kind: KIND_BUTTON, Name: "Identify", DeviceClass: DEVICE_CLASS_IDENTIFY, EntityCategory: ENTITY_CLASS_CONFIG},
}

func (c CharacteristicType) Info() CharacteristicInfo {
	if info, ok := characteristicInfo[c]; ok {
		return info
	}
	return CharacteristicInfo{Kind: KIND_NUMBER, Name: string(c)}
}

// CharacteristicRef addresses one external value: accessory, service within the
// accessory, and the characteristic within the service.
type CharacteristicRef struct {
	Accessory      string
	Service        string
	Characteristic CharacteristicType
}

// EntityId is the flat id used for MQTT topics and discovery.
func (r CharacteristicRef) EntityId() string {
	return SanitizeId(r.Accessory + "_" + r.Service + "_" + string(r.Characteristic))
}

// Props overrides the value range of a characteristic.
type Props struct {
	Min         float64
	Max         float64
	Step        float64
	Bounded     bool
	ReadOnly    bool
	ValidValues []float64
}

type CharacteristicSpec struct {
	Ref         CharacteristicRef
	ServiceName string
	Unit        string
	Props       Props
	Settable    bool
}

func (s CharacteristicSpec) DisplayName() string {
	return s.ServiceName + " " + s.Ref.Characteristic.Info().Name
}

type ButtonAction int

const (
	SINGLE_PRESS ButtonAction = 0
	DOUBLE_PRESS ButtonAction = 1
	LONG_PRESS   ButtonAction = 2
)

func (a ButtonAction) String() string {
	switch a {
	case SINGLE_PRESS:
		return "single"
	case DOUBLE_PRESS:
		return "double"
	case LONG_PRESS:
		return "long"
	}
	return "unknown"
}

const (
	STATE_CLASS_MEASUREMENT       = "measurement"
	STATE_CLASS_TOTAL_INCREASING  = "total_increasing"
	DEVICE_CLASS_BATTERY          = "battery"
	DEVICE_CLASS_CARBON_MONOXIDE  = "carbon_monoxide"
	DEVICE_CLASS_CONNECTIVITY     = "connectivity"
	DEVICE_CLASS_CURRENT          = "current"
	DEVICE_CLASS_DOOR             = "door"
	DEVICE_CLASS_DURATION         = "duration"
	DEVICE_CLASS_ENERGY           = "energy"
	DEVICE_CLASS_HEAT             = "heat"
	DEVICE_CLASS_HUMIDITY         = "humidity"
	DEVICE_CLASS_IDENTIFY         = "identify"
	DEVICE_CLASS_ILLUMINANCE      = "illuminance"
	DEVICE_CLASS_LIGHT            = "light"
	DEVICE_CLASS_MOISTURE         = "moisture"
	DEVICE_CLASS_MOTION           = "motion"
	DEVICE_CLASS_POWER            = "power"
	DEVICE_CLASS_PRESSURE         = "pressure"
	DEVICE_CLASS_PROBLEM          = "problem"
	DEVICE_CLASS_SAFETY           = "safety"
	DEVICE_CLASS_SMOKE            = "smoke"
	DEVICE_CLASS_TAMPER           = "tamper"
	DEVICE_CLASS_TEMPERATURE      = "temperature"
	DEVICE_CLASS_VOLTAGE          = "voltage"
	ENTITY_CLASS_DIAGNOSTIC       = "diagnostic"
	ENTITY_CLASS_CONFIG           = "config"
)
