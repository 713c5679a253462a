package registry

import (
	"testing"

	"github.com/advanliempt/homebridge-hue/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveIsPure(t *testing.T) {
	require := require.New(t)

	k := Key{Type: "ZLLSwitch", Manufacturer: "Philips", Model: "RWL021", Endpoint: "02"}
	a, err := Resolve(k, Options{})
	require.NoError(err)
	b, err := Resolve(k, Options{})
	require.NoError(err)
	require.Equal(a, b)

	// mutating one result must not leak into the next
	a.Buttons[0].Name = "changed"
	c, _ := Resolve(k, Options{})
	require.Equal("On", c.Buttons[0].Name)
}

func TestResolveUnsupported(t *testing.T) {
	_, err := Resolve(Key{Type: "CLIPSwitch"}, Options{})
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = Resolve(Key{Type: "ZHAVibration"}, Options{})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestResolveMotion(t *testing.T) {
	assert := assert.New(t)

	d, err := Resolve(Key{Type: "ZLLPresence", Manufacturer: "Philips", Model: "SML001"}, Options{})
	assert.NoError(err)
	assert.Equal(FAMILY_PRESENCE, d.Family)
	assert.Equal("presence", d.Key)
	assert.Equal("delay", d.DurationKey)
	assert.False(d.ReadonlySensitivity)
	assert.True(d.LocalDuration)
	assert.Equal(domain.HISTORY_MOTION, d.History)
	assert.True(d.Known)

	d, _ = Resolve(Key{Type: "ZHAPresence", Manufacturer: "IKEA of Sweden", Model: "TRADFRI motion sensor"}, Options{})
	assert.Equal(map[string]any{"dark": false}, d.StateDefaults)
	assert.Equal("duration", d.DurationKey)
	assert.True(d.ReadonlySensitivity)
	assert.False(d.LocalDuration)

	// unknown vendor keeps the family default
	d, _ = Resolve(Key{Type: "ZHAPresence", Manufacturer: "Acme", Model: "X"}, Options{})
	assert.False(d.Known)
	assert.False(d.Inert)
	assert.True(d.HasValue())

	// CLIP sensors are never vendor checked
	d, _ = Resolve(Key{Type: "CLIPPresence", Manufacturer: "Acme", Model: "X"}, Options{})
	assert.True(d.Known)
}

func TestResolveUnknownButtonIsInert(t *testing.T) {
	assert := assert.New(t)

	d, err := Resolve(Key{Type: "ZHASwitch", Manufacturer: "Acme", Model: "Remote"}, Options{})
	assert.NoError(err)
	assert.True(d.Inert)
	assert.False(d.Known)
	assert.False(d.HasValue())

	d, _ = Resolve(Key{Type: "Daylight", Manufacturer: "Acme", Model: "X"}, Options{})
	assert.True(d.Inert)
	assert.False(d.Known)

	d, _ = Resolve(Key{Type: "Daylight", Manufacturer: "Philips", Model: "PHDL00"}, Options{})
	assert.False(d.Inert)
	assert.Equal("lightlevel", d.Key)
}

func TestDimmerRepeat(t *testing.T) {
	assert := assert.New(t)
	k := Key{Type: "ZLLSwitch", Manufacturer: "Philips", Model: "RWL020"}

	d, _ := Resolve(k, Options{})
	assert.False(d.Repeat)
	assert.Len(d.Buttons, 4)
	assert.Equal(SINGLE_LONG, d.Buttons[1].Mode)

	d, _ = Resolve(k, Options{DimmerRepeat: true})
	assert.True(d.Repeat)
	assert.Equal(SINGLE, d.Buttons[1].Mode)
	assert.Equal(SINGLE, d.Buttons[2].Mode)
	assert.Equal(SINGLE_LONG, d.Buttons[3].Mode)
}

func TestEndpointLayouts(t *testing.T) {
	assert := assert.New(t)

	d, _ := Resolve(Key{Type: "ZHASwitch", Manufacturer: "innr", Model: "RC 110", Endpoint: "01"}, Options{})
	assert.Len(d.Buttons, 9)

	d, _ = Resolve(Key{Type: "ZHASwitch", Manufacturer: "innr", Model: "RC 110", Endpoint: "04"}, Options{})
	assert.Equal([]Button{
		{Index: 13, Name: "On/Off 2", Mode: SINGLE},
		{Index: 14, Name: "Dim Up 2", Mode: SINGLE_LONG},
		{Index: 15, Name: "Dim Down 2", Mode: SINGLE_LONG},
	}, d.Buttons)

	d, _ = Resolve(Key{Type: "ZHASwitch", Manufacturer: "LUMI", Model: "lumi.sensor_cube.aqgl01", Endpoint: "02"}, Options{})
	assert.Equal(DECODER_CUBE_SIDE, d.Decoder)
	assert.Len(d.Buttons, 7)
	assert.Equal(DOUBLE_LONG, d.Buttons[6].Mode)

	d, _ = Resolve(Key{Type: "ZHASwitch", Manufacturer: "LUMI", Model: "lumi.sensor_cube", Endpoint: "03"}, Options{})
	assert.Equal(DECODER_CUBE_TURN, d.Decoder)
	_, ok := d.Button(8)
	assert.True(ok)

	d, _ = Resolve(Key{Type: "ZHASwitch", Manufacturer: "LUMI", Model: "lumi.sensor_cube", Endpoint: "01"}, Options{})
	assert.True(d.Known)
	assert.True(d.Inert)

	d, _ = Resolve(Key{Type: "ZHASwitch", Manufacturer: "Busch-Jaeger", Model: "RB01", Endpoint: "0c"}, Options{})
	assert.Equal([]int{5, 6}, []int{d.Buttons[0].Index, d.Buttons[1].Index})

	d, _ = Resolve(Key{Type: "ZHASwitch", Manufacturer: "Busch-Jaeger", Model: "RB01", Endpoint: "12"}, Options{})
	assert.True(d.Known)
	assert.False(d.Inert)
	assert.Empty(d.Buttons)

	d, _ = Resolve(Key{Type: "ZHASwitch", Manufacturer: "Insta", Model: "WS_3f_G_1"}, Options{})
	assert.Len(d.Buttons, 6)
	d, _ = Resolve(Key{Type: "ZHASwitch", Manufacturer: "icasa", Model: "ICZB-KPD14S"}, Options{})
	assert.Len(d.Buttons, 4)
}

func TestGenericSensors(t *testing.T) {
	assert := assert.New(t)

	d, _ := Resolve(Key{Type: "CLIPGenericFlag", Manufacturer: "homebridge-hue", Model: "CLIPGenericFlag", SwVersion: "0"}, Options{})
	assert.True(d.Settable)
	assert.True(d.Props.ReadOnly)

	d, _ = Resolve(Key{Type: "CLIPGenericFlag", Manufacturer: "homebridge-hue", Model: "CLIPGenericFlag", SwVersion: "1"}, Options{})
	assert.Nil(d.Props)

	d, _ = Resolve(Key{Type: "CLIPGenericStatus", Manufacturer: "homebridge-hue", Model: "CLIPGenericStatus", SwVersion: "0,5,1"}, Options{})
	assert.Equal(&domain.Props{Min: 0, Max: 5, Step: 1, Bounded: true}, d.Props)
}

func TestGenericStatusProps(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(&domain.Props{ReadOnly: true}, GenericStatusProps("0,0,0"))
	assert.Equal(&domain.Props{Min: 0, Max: 1, Step: 1, Bounded: true}, GenericStatusProps("0,1,0"))
	assert.Equal(&domain.Props{Min: 3, Max: 4, Bounded: true}, GenericStatusProps("3,4,1"))
	assert.Equal(&domain.Props{Min: -10, Max: 10, Bounded: true}, GenericStatusProps("-10,10,2"))
	assert.Equal(&domain.Props{Min: -10, Max: 10, Step: 1, Bounded: true}, GenericStatusProps("-10,10,1"))
	assert.Nil(GenericStatusProps("0,200,1"))
	assert.Nil(GenericStatusProps("5,5,1"))
	assert.Nil(GenericStatusProps("x,y"))
}

func TestTransforms(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0.0001, TRANSFORM_LIGHT_LEVEL.Apply(0))
	assert.Equal(1.0, TRANSFORM_LIGHT_LEVEL.Apply(1))
	assert.Equal(100000.0, TRANSFORM_LIGHT_LEVEL.Apply(65535))
	assert.Equal(10.0, TRANSFORM_LIGHT_LEVEL.Apply(10001))

	assert.Equal(21.5, TRANSFORM_TEMPERATURE.Apply(2150))
	assert.Equal(21.6, TRANSFORM_TEMPERATURE.Apply(2156))
	assert.Equal(0.0, TRANSFORM_TEMPERATURE.Apply(nil))
	assert.Equal(45.0, TRANSFORM_HUMIDITY.Apply(4512))
	assert.Equal(1013.0, TRANSFORM_PRESSURE.Apply(1012.6))
	assert.Equal(1.234, TRANSFORM_KILO.Apply(1234))
	assert.Equal(127.0, TRANSFORM_STATUS.Apply(200))
	assert.Equal(-127.0, TRANSFORM_STATUS.Apply(-300))
	assert.Equal(1.0, TRANSFORM_BOOL.Apply(true))
	assert.Equal(0.0, TRANSFORM_BOOL.Apply(false))

	assert.Equal(true, ENCODING_BOOL.Apply(1))
	assert.Equal(false, ENCODING_BOOL.Apply(0))
	assert.Equal(42.0, ENCODING_IDENTITY.Apply(42))
}

func TestDaylightTables(t *testing.T) {
	assert := assert.New(t)

	event, period, ok := Daylight(140)
	assert.True(ok)
	assert.Equal("Sunrise", event.Name)
	assert.Equal(DaylightPeriod{LightLevel: 15000, Daylight: true, Dark: false}, period)

	event, period, ok = Daylight(220)
	assert.True(ok)
	assert.Equal("Astronomical Twilight", event.Period)
	assert.True(period.Dark)

	_, _, ok = Daylight(145)
	assert.False(ok)
	assert.Len(daylightEvents, 14)
	assert.Len(daylightPeriods, 8)
}
