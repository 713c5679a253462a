package registry

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/advanliempt/homebridge-hue/internal/core/domain"
)

type variant struct {
	manufacturer string
	models       []string
	modelPrefix  string
	endpoint     string
	apply        func(d *Descriptor, k Key, o Options)
}

// score is -1 when the variant does not match, higher is more specific.
func (v variant) score(k Key) int {
	if v.manufacturer != k.Manufacturer {
		return -1
	}
	score := 0
	switch {
	case v.modelPrefix != "":
		if !strings.HasPrefix(k.Model, v.modelPrefix) {
			return -1
		}
		score = 1
	default:
		if !slices.Contains(v.models, k.Model) {
			return -1
		}
		score = 2
	}
	if v.endpoint != "" {
		if v.endpoint != k.Endpoint {
			return -1
		}
		score += 2
	}
	return score
}

func bestVariant(variants []variant, k Key) *variant {
	var best *variant
	bestScore := -1
	for i := range variants {
		if s := variants[i].score(k); s > bestScore {
			best = &variants[i]
			bestScore = s
		}
	}
	return best
}

type familyEntry struct {
	base func(k Key, o Options) Descriptor
	// an unknown vendor/model gives an inert descriptor
	strict bool
	// vendor checks normally apply to zigbee sensors only
	checkAll bool
	variants []variant
}

func (e familyEntry) checked(k Key) bool {
	if e.checkAll {
		return true
	}
	return k.zigbee() && len(e.variants) > 0
}

func models(manufacturer string, ms ...string) variant {
	return variant{manufacturer: manufacturer, models: ms}
}

func (v variant) with(apply func(d *Descriptor, k Key, o Options)) variant {
	v.apply = apply
	return v
}

func (v variant) at(endpoint string) variant {
	v.endpoint = endpoint
	return v
}

func flag(key, name string, c domain.CharacteristicType, h domain.HistoryCategory) func(Key, Options) Descriptor {
	return func(Key, Options) Descriptor {
		return Descriptor{
			Key:            key,
			Name:           name,
			Characteristic: c,
			Value:          TRANSFORM_BOOL,
			History:        h,
		}
	}
}

func measurement(key, name, unit string, c domain.CharacteristicType, t Transform, h domain.HistoryCategory) func(Key, Options) Descriptor {
	return func(Key, Options) Descriptor {
		return Descriptor{
			Key:            key,
			Name:           name,
			Unit:           unit,
			Characteristic: c,
			Value:          t,
			History:        h,
		}
	}
}

func buttonBase(decoder Decoder) func(Key, Options) Descriptor {
	return func(Key, Options) Descriptor {
		return Descriptor{
			Key:     "buttonevent",
			Name:    "button",
			Decoder: decoder,
		}
	}
}

func layout(buttons ...Button) func(d *Descriptor, k Key, o Options) {
	return func(d *Descriptor, _ Key, _ Options) {
		d.Buttons = slices.Clone(buttons)
	}
}

func decoded(decoder Decoder, buttons ...Button) func(d *Descriptor, k Key, o Options) {
	return func(d *Descriptor, _ Key, _ Options) {
		d.Decoder = decoder
		d.Buttons = slices.Clone(buttons)
	}
}

func inert(d *Descriptor, _ Key, _ Options) {
	d.Inert = true
}

func b(index int, name string, mode ButtonMode) Button {
	return Button{Index: index, Name: name, Mode: mode}
}

var families = map[Family]familyEntry{
	FAMILY_TAP: {
		base:   buttonBase(DECODER_TAP),
		strict: true,
		variants: []variant{
			models("Philips", "ZGPSWITCH").with(layout(
				b(1, "1", SINGLE), b(2, "2", SINGLE), b(3, "3", SINGLE), b(4, "4", SINGLE))),
		},
	},
	FAMILY_SWITCH: {
		base:   buttonBase(DECODER_STANDARD),
		strict: true,
		variants: []variant{
			models("Philips", "RWL021", "RWL020").with(hueDimmer),
			models("IKEA of Sweden", "TRADFRI remote control").with(layout(
				b(1, "On/Off", SINGLE), b(2, "Dim Up", SINGLE_LONG), b(3, "Dim Down", SINGLE_LONG),
				b(4, "Previous", SINGLE_LONG), b(5, "Next", SINGLE_LONG))),
			models("IKEA of Sweden", "TRADFRI wireless dimmer").with(layout(
				b(1, "On", SINGLE), b(2, "Dim Up", SINGLE), b(3, "Dim Down", SINGLE), b(4, "Off", SINGLE))),
			models("innr", "RC 110").with(innrLight),
			models("innr", "RC 110").at("01").with(layout(
				b(1, "On/Off", SINGLE), b(2, "Dim Up", SINGLE_LONG), b(3, "Dim Down", SINGLE_LONG),
				b(4, "1", SINGLE), b(5, "2", SINGLE), b(6, "3", SINGLE),
				b(7, "4", SINGLE), b(8, "5", SINGLE), b(9, "6", SINGLE))),
			models("ubisys", "S1 (5501)").with(layout(b(1, "1", SINGLE_LONG))),
			models("ubisys", "S1-R (5601)", "S2 (5502)", "S2-R (5602)", "D1 (5503)", "D1-R (5603)").with(layout(
				b(1, "1", SINGLE_LONG), b(2, "2", SINGLE_LONG))),
			models("ubisys", "C4 (5504)", "C4-R (5604)").with(layout(
				b(1, "1", SINGLE_LONG), b(2, "2", SINGLE_LONG), b(3, "3", SINGLE_LONG), b(4, "4", SINGLE_LONG))),
			models("dresden elektronik", "Scene Switch").with(layout(
				b(1, "On", SINGLE_LONG), b(2, "Off", SINGLE_LONG),
				b(3, "Scene 1", SINGLE), b(4, "Scene 2", SINGLE), b(5, "Scene 3", SINGLE), b(6, "Scene 4", SINGLE))),
			models("LUMI", "lumi.sensor_switch", "lumi.sensor_86sw1").with(layout(b(1, "Button", SINGLE_DOUBLE))),
			models("LUMI", "lumi.sensor_switch.aq2", "lumi.sensor_switch.aq3").with(layout(b(1, "Button", SINGLE_DOUBLE_LONG))),
			models("LUMI", "lumi.sensor_86sw2", "lumi.ctrl_ln2.aq1").with(layout(
				b(1, "Left", SINGLE_DOUBLE), b(2, "Right", SINGLE_DOUBLE), b(3, "Both", SINGLE_DOUBLE))),
			models("LUMI", "lumi.remote.b1acn01", "lumi.remote.b186acn01").with(layout(b(1, "Left", SINGLE_DOUBLE_LONG))),
			models("LUMI", "lumi.remote.b286acn01").with(layout(
				b(1, "Left", SINGLE_DOUBLE_LONG), b(2, "Right", SINGLE_DOUBLE_LONG), b(3, "Both", SINGLE_DOUBLE_LONG))),
			models("LUMI", "lumi.vibration.aq1").with(decoded(DECODER_VIBRATION, b(1, "Button", SINGLE_DOUBLE_LONG))),
			{manufacturer: "LUMI", modelPrefix: "lumi.sensor_cube", apply: inert},
			{manufacturer: "LUMI", modelPrefix: "lumi.sensor_cube", endpoint: "02", apply: decoded(DECODER_CUBE_SIDE,
				b(1, "Side 1", SINGLE_DOUBLE_LONG), b(2, "Side 2", SINGLE_DOUBLE_LONG), b(3, "Side 3", SINGLE_DOUBLE_LONG),
				b(4, "Side 4", SINGLE_DOUBLE_LONG), b(5, "Side 5", SINGLE_DOUBLE_LONG), b(6, "Side 6", SINGLE_DOUBLE_LONG),
				b(7, "Cube", DOUBLE_LONG))},
			{manufacturer: "LUMI", modelPrefix: "lumi.sensor_cube", endpoint: "03", apply: decoded(DECODER_CUBE_TURN,
				b(8, "Right", SINGLE_DOUBLE_LONG), b(9, "Left", SINGLE_DOUBLE_LONG))},
			models("Insta", "WS_3f_G_1").with(layout(instaButtons[:6]...)),
			models("Insta", "HS_4f_GJ_1", "WS_4f_J_1").with(layout(instaButtons...)),
			models("Busch-Jaeger", "RM01", "RB01"),
			models("Busch-Jaeger", "RM01", "RB01").at("0a").with(layout(b(1, "Button 1", SINGLE_LONG), b(2, "Button 2", SINGLE_LONG))),
			models("Busch-Jaeger", "RM01", "RB01").at("0b").with(layout(b(3, "Button 3", SINGLE_LONG), b(4, "Button 4", SINGLE_LONG))),
			models("Busch-Jaeger", "RM01", "RB01").at("0c").with(layout(b(5, "Button 5", SINGLE_LONG), b(6, "Button 6", SINGLE_LONG))),
			models("Busch-Jaeger", "RM01", "RB01").at("0d").with(layout(b(7, "Button 7", SINGLE_LONG), b(8, "Button 8", SINGLE_LONG))),
			models("icasa", "ICZB-KPD12").with(layout(icasaButtons[:2]...)),
			models("icasa", "ICZB-KPD14S").with(layout(icasaButtons[:4]...)),
			models("icasa", "ICZB-KPD18S").with(layout(icasaButtons...)),
		},
	},
	FAMILY_PRESENCE: {
		base: func(k Key, _ Options) Descriptor {
			return Descriptor{
				Key:                 "presence",
				Name:                "motion",
				Characteristic:      domain.CHAR_MOTION_DETECTED,
				Value:               TRANSFORM_BOOL,
				History:             domain.HISTORY_MOTION,
				DurationKey:         "duration",
				LocalDuration:       k.Type == "ZLLPresence",
				ReadonlySensitivity: true,
			}
		},
		variants: []variant{
			models("Philips", "SML001").with(func(d *Descriptor, _ Key, _ Options) {
				d.DurationKey = "delay"
				d.ReadonlySensitivity = false
			}),
			models("IKEA of Sweden", "TRADFRI motion sensor").with(func(d *Descriptor, _ Key, _ Options) {
				d.StateDefaults = map[string]any{"dark": false}
			}),
			models("LUMI", "lumi.sensor_motion", "lumi.sensor_motion.aq2"),
			models("Heiman", "PIR_TPV11"),
			models("SmartThings", "tagv4"),
		},
	},
	FAMILY_TEMPERATURE: {
		base: func(k Key, o Options) Descriptor {
			d := measurement("temperature", "temperature", "°C", domain.CHAR_CURRENT_TEMPERATURE, TRANSFORM_TEMPERATURE, domain.HISTORY_WEATHER)(k, o)
			d.Props = &domain.Props{Min: -40, Max: 100, Bounded: true}
			return d
		},
		variants: []variant{
			models("Philips", "SML001"),
			models("LUMI", "lumi.weather", "lumi.sensor_ht"),
			models("Heiman", "TH-H_V15", "TH-T_V15"),
		},
	},
	FAMILY_LIGHT_LEVEL: {
		base: measurement("lightlevel", "light level", " lux", domain.CHAR_CURRENT_AMBIENT_LIGHT_LEVEL, TRANSFORM_LIGHT_LEVEL, domain.HISTORY_NONE),
		variants: []variant{
			models("Philips", "SML001"),
			models("LUMI", "lumi.sensor_motion.aq2"),
		},
	},
	FAMILY_OPEN_CLOSE: {
		base: flag("open", "contact", domain.CHAR_CONTACT_SENSOR_STATE, domain.HISTORY_DOOR),
		variants: []variant{
			models("LUMI", "lumi.sensor_magnet.aq2", "lumi.sensor_magnet"),
			models("Heiman", "DOOR_TPV13"),
		},
	},
	FAMILY_HUMIDITY: {
		base: measurement("humidity", "humidity", "%", domain.CHAR_CURRENT_RELATIVE_HUMIDITY, TRANSFORM_HUMIDITY, domain.HISTORY_WEATHER),
		variants: []variant{
			models("LUMI", "lumi.weather", "lumi.sensor_ht"),
			models("Heiman", "TH-H_V15", "TH-T_V15"),
		},
	},
	FAMILY_PRESSURE: {
		base: measurement("pressure", "pressure", " hPa", domain.CHAR_AIR_PRESSURE, TRANSFORM_PRESSURE, domain.HISTORY_WEATHER),
		variants: []variant{
			models("LUMI", "lumi.weather"),
		},
	},
	FAMILY_ALARM: {
		base: flag("alarm", "alarm", domain.CHAR_ALARM, domain.HISTORY_NONE),
		variants: []variant{
			models("Heiman", "WarningDevice"),
		},
	},
	FAMILY_CARBON_MONOXIDE: {
		base: flag("carbonmonoxide", "CO", domain.CHAR_CARBON_MONOXIDE_DETECTED, domain.HISTORY_NONE),
		variants: []variant{
			models("Heiman", "CO_V16"),
		},
	},
	FAMILY_FIRE: {
		base: flag("fire", "smoke", domain.CHAR_SMOKE_DETECTED, domain.HISTORY_NONE),
		variants: []variant{
			models("Heiman", "SMOK_V16", "GAS_V15"),
		},
	},
	FAMILY_WATER: {
		base: flag("water", "leak", domain.CHAR_LEAK_DETECTED, domain.HISTORY_NONE),
		variants: []variant{
			models("LUMI", "lumi.sensor_wleak.aq1"),
			models("Heiman", "WATER_TPV11"),
		},
	},
	FAMILY_CONSUMPTION: {
		base: measurement("consumption", "total consumption", " kWh", domain.CHAR_TOTAL_CONSUMPTION, TRANSFORM_KILO, domain.HISTORY_ENERGY),
	},
	FAMILY_POWER: {
		base: measurement("power", "current consumption", " W", domain.CHAR_CURRENT_CONSUMPTION, TRANSFORM_IDENTITY, domain.HISTORY_ENERGY),
	},
	FAMILY_THERMOSTAT: {
		base: measurement("temperature", "temperature", "°C", domain.CHAR_CURRENT_TEMPERATURE, TRANSFORM_TEMPERATURE, domain.HISTORY_THERMO),
	},
	FAMILY_DAYLIGHT: {
		base:     measurement("lightlevel", "light level", " lux", domain.CHAR_CURRENT_AMBIENT_LIGHT_LEVEL, TRANSFORM_LIGHT_LEVEL, domain.HISTORY_NONE),
		strict:   true,
		checkAll: true,
		variants: []variant{
			models("Philips", "PHDL00"),
		},
	},
	FAMILY_GENERIC_FLAG: {
		base: func(Key, Options) Descriptor {
			return Descriptor{
				Key:            "flag",
				Name:           "on",
				Characteristic: domain.CHAR_ON,
				Value:          TRANSFORM_BOOL,
				Settable:       true,
				Encode:         ENCODING_BOOL,
			}
		},
		variants: []variant{
			models("homebridge-hue", "CLIPGenericFlag").with(func(d *Descriptor, k Key, _ Options) {
				if k.SwVersion == "0" {
					d.Props = &domain.Props{ReadOnly: true}
				}
			}),
		},
	},
	FAMILY_GENERIC_STATUS: {
		base: func(Key, Options) Descriptor {
			return Descriptor{
				Key:            "status",
				Name:           "status",
				Characteristic: domain.CHAR_STATUS,
				Value:          TRANSFORM_STATUS,
				Settable:       true,
				Encode:         ENCODING_IDENTITY,
			}
		},
		variants: []variant{
			models("homebridge-hue", "CLIPGenericStatus").with(func(d *Descriptor, k Key, _ Options) {
				d.Props = GenericStatusProps(k.SwVersion)
			}),
		},
	},
}

var instaButtons = []Button{
	b(1, "Off", SINGLE_DOUBLE_LONG), b(2, "On", SINGLE_DOUBLE_LONG),
	b(3, "Scene 1", SINGLE), b(4, "Scene 2", SINGLE), b(5, "Scene 3", SINGLE), b(6, "Scene 4", SINGLE),
	b(7, "Scene 5", SINGLE), b(8, "Scene 6", SINGLE),
}

var icasaButtons = []Button{
	b(1, "Off", SINGLE_LONG), b(2, "On", SINGLE_LONG),
	b(3, "S1", SINGLE), b(4, "S2", SINGLE),
	b(5, "S3", SINGLE), b(6, "S4", SINGLE), b(7, "S5", SINGLE), b(8, "S6", SINGLE),
}

func hueDimmer(d *Descriptor, _ Key, o Options) {
	dim := SINGLE_LONG
	if o.DimmerRepeat {
		d.Repeat = true
		dim = SINGLE
	}
	d.Buttons = []Button{
		b(1, "On", SINGLE_LONG), b(2, "Dim Up", dim), b(3, "Dim Down", dim), b(4, "Off", SINGLE_LONG),
	}
}

// innr RC 110 lists one switch resource per light, on endpoints 03 and up.
func innrLight(d *Descriptor, k Key, _ Options) {
	light := domain.ToInt(k.Endpoint, 0, 255) - 2
	button := 7 + light*3
	d.Buttons = []Button{
		b(button, fmt.Sprintf("On/Off %d", light), SINGLE),
		b(button+1, fmt.Sprintf("Dim Up %d", light), SINGLE_LONG),
		b(button+2, fmt.Sprintf("Dim Down %d", light), SINGLE_LONG),
	}
}

// GenericStatusProps derives the status range from a "min,max,step" software
// version. It returns nil when the version gives no usable range.
func GenericStatusProps(swversion string) *domain.Props {
	parts := strings.Split(swversion, ",")
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	lo, minOk := parseInt(parts[0])
	hi, maxOk := parseInt(parts[1])
	step, _ := parseInt(parts[2])
	if !minOk || !maxOk {
		return nil
	}
	switch {
	case lo == 0 && hi == 0:
		return &domain.Props{ReadOnly: true}
	case lo < -127 || hi > 127 || lo >= hi:
		return nil
	case lo == 0 && hi == 1:
		return &domain.Props{Min: 0, Max: 1, Step: 1, Bounded: true}
	case hi-lo == 1, step != 1:
		return &domain.Props{Min: float64(lo), Max: float64(hi), Bounded: true}
	}
	return &domain.Props{Min: float64(lo), Max: float64(hi), Step: 1, Bounded: true}
}

// parseInt reads the leading integer of s, ignoring trailing garbage.
func parseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for i, r := range s {
		if i == 0 && (r == '-' || r == '+') {
			continue
		}
		if r < '0' || r > '9' {
			break
		}
		end = i + 1
	}
	n, err := strconv.Atoi(s[:end])
	return n, err == nil
}
