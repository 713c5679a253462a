package registry

type Family int

const (
	FAMILY_UNKNOWN Family = iota
	FAMILY_PRESENCE
	FAMILY_TEMPERATURE
	FAMILY_LIGHT_LEVEL
	FAMILY_OPEN_CLOSE
	FAMILY_HUMIDITY
	FAMILY_PRESSURE
	FAMILY_ALARM
	FAMILY_CARBON_MONOXIDE
	FAMILY_FIRE
	FAMILY_WATER
	FAMILY_CONSUMPTION
	FAMILY_POWER
	FAMILY_THERMOSTAT
	FAMILY_DAYLIGHT
	FAMILY_GENERIC_FLAG
	FAMILY_GENERIC_STATUS
	FAMILY_SWITCH
	FAMILY_TAP
)

var familyNames = map[Family]string{
	FAMILY_UNKNOWN:         "unknown",
	FAMILY_PRESENCE:        "presence",
	FAMILY_TEMPERATURE:     "temperature",
	FAMILY_LIGHT_LEVEL:     "lightlevel",
	FAMILY_OPEN_CLOSE:      "openclose",
	FAMILY_HUMIDITY:        "humidity",
	FAMILY_PRESSURE:        "pressure",
	FAMILY_ALARM:           "alarm",
	FAMILY_CARBON_MONOXIDE: "carbonmonoxide",
	FAMILY_FIRE:            "fire",
	FAMILY_WATER:           "water",
	FAMILY_CONSUMPTION:     "consumption",
	FAMILY_POWER:           "power",
	FAMILY_THERMOSTAT:      "thermostat",
	FAMILY_DAYLIGHT:        "daylight",
	FAMILY_GENERIC_FLAG:    "genericflag",
	FAMILY_GENERIC_STATUS:  "genericstatus",
	FAMILY_SWITCH:          "switch",
	FAMILY_TAP:             "tap",
}

func (f Family) String() string {
	return familyNames[f]
}

// bridge sensor type => family. Types missing here are unsupported.
var sensorTypes = map[string]Family{
	"ZGPSwitch":          FAMILY_TAP,
	"ZLLSwitch":          FAMILY_SWITCH,
	"ZHASwitch":          FAMILY_SWITCH,
	"ZLLPresence":        FAMILY_PRESENCE,
	"ZHAPresence":        FAMILY_PRESENCE,
	"CLIPPresence":       FAMILY_PRESENCE,
	"Geofence":           FAMILY_PRESENCE,
	"ZLLTemperature":     FAMILY_TEMPERATURE,
	"ZHATemperature":     FAMILY_TEMPERATURE,
	"CLIPTemperature":    FAMILY_TEMPERATURE,
	"ZLLLightLevel":      FAMILY_LIGHT_LEVEL,
	"ZHALightLevel":      FAMILY_LIGHT_LEVEL,
	"CLIPLightLevel":     FAMILY_LIGHT_LEVEL,
	"ZHAOpenClose":       FAMILY_OPEN_CLOSE,
	"CLIPOpenClose":      FAMILY_OPEN_CLOSE,
	"ZHAHumidity":        FAMILY_HUMIDITY,
	"CLIPHumidity":       FAMILY_HUMIDITY,
	"ZHAPressure":        FAMILY_PRESSURE,
	"CLIPPressure":       FAMILY_PRESSURE,
	"ZHAAlarm":           FAMILY_ALARM,
	"CLIPAlarm":          FAMILY_ALARM,
	"ZHACarbonMonoxide":  FAMILY_CARBON_MONOXIDE,
	"CLIPCarbonMonoxide": FAMILY_CARBON_MONOXIDE,
	"ZHAFire":            FAMILY_FIRE,
	"CLIPFire":           FAMILY_FIRE,
	"ZHAWater":           FAMILY_WATER,
	"CLIPWater":          FAMILY_WATER,
	"ZHAConsumption":     FAMILY_CONSUMPTION,
	"CLIPConsumption":    FAMILY_CONSUMPTION,
	"ZHAPower":           FAMILY_POWER,
	"CLIPPower":          FAMILY_POWER,
	"ZHAThermostat":      FAMILY_THERMOSTAT,
	"CLIPThermostat":     FAMILY_THERMOSTAT,
	"Daylight":           FAMILY_DAYLIGHT,
	"CLIPGenericFlag":    FAMILY_GENERIC_FLAG,
	"CLIPGenericStatus":  FAMILY_GENERIC_STATUS,
}

func FamilyOf(sensorType string) Family {
	return sensorTypes[sensorType]
}
