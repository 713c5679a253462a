package service

import (
	"testing"
	"time"

	"github.com/advanliempt/homebridge-hue/internal/core/domain"
	"github.com/advanliempt/homebridge-hue/internal/core/registry"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	motionMac  = "00:17:88:01:02:00:af:1c"
	plugMac    = "00:15:8d:00:01:02:03:04"
	switchMac  = "00:17:88:01:08:0b:1a:2c"
	weatherMac = "00:15:8d:00:02:5c:7e:11"
)

func hueMotion() domain.SensorObject {
	return domain.SensorObject{
		Id:           "5",
		Name:         "Hallway sensor",
		Type:         "ZLLPresence",
		Manufacturer: "Philips",
		Model:        "SML001",
		UniqueId:     motionMac + "-02-0406",
		SwVersion:    "6.1.1.27575",
		State:        map[string]any{"presence": false, "lastupdated": "2024-03-01T11:59:00"},
		Config: map[string]any{
			"on": true, "reachable": true, "battery": 100.0, "alert": "none",
			"sensitivity": 2.0, "sensitivitymax": 2.0,
		},
	}
}

func weatherTemperature() domain.SensorObject {
	return domain.SensorObject{
		Id:           "12",
		Name:         "Bedroom temperature",
		Type:         "ZHATemperature",
		Manufacturer: "LUMI",
		Model:        "lumi.weather",
		UniqueId:     weatherMac + "-01-0402",
		State:        map[string]any{"temperature": 2150.0, "lastupdated": "2024-03-01T11:58:12"},
		Config:       map[string]any{"on": true, "reachable": true, "battery": 90.0, "offset": 0.0},
	}
}

func hueDimmerSwitch() domain.SensorObject {
	return domain.SensorObject{
		Id:           "3",
		Name:         "Dimmer",
		Type:         "ZLLSwitch",
		Manufacturer: "Philips",
		Model:        "RWL021",
		UniqueId:     switchMac + "-02-fc00",
		State:        map[string]any{"buttonevent": 1002.0, "lastupdated": "2024-03-01T11:00:00"},
		Config:       map[string]any{"on": true, "reachable": true, "battery": 20.0},
	}
}

func TestNewAccessoryExposesSensor(t *testing.T) {
	h := newHarness(t)
	a := h.accessory(defaultOptions(), hueMotion())

	require.Len(t, a.Sensors(), 1)
	s := a.Sensors()[0]
	assert.Equal(t, "00_17_88_01_02_00_af_1c", a.Id)
	assert.Equal(t, "Hallway sensor", a.Name)
	assert.Equal(t, registry.FAMILY_PRESENCE, s.Descriptor().Family)

	assert.Equal(t, 0.0, h.value(s, domain.CHAR_MOTION_DETECTED))
	assert.Equal(t, 1.0, h.value(s, domain.CHAR_ENABLED))
	assert.Equal(t, 1.0, h.value(s, domain.CHAR_STATUS_ACTIVE))
	assert.Equal(t, 0.0, h.value(s, domain.CHAR_STATUS_FAULT))
	assert.Equal(t, 0.0, h.value(s, domain.CHAR_SENSITIVITY))
	assert.Equal(t, 5.0, h.value(s, domain.CHAR_DURATION))
	assert.Equal(t, "Fri Mar 01 2024 11:59:00", h.value(s, domain.CHAR_LAST_UPDATED))
	assert.Equal(t, 100.0, h.pres.values[a.batteryRef(domain.CHAR_BATTERY_LEVEL)])
	assert.Equal(t, 0.0, h.pres.values[a.batteryRef(domain.CHAR_STATUS_LOW_BATTERY)])

	// the device duration is emulated, the sensitivity is writable on SML001
	assert.Contains(t, h.pres.handlers, s.ref(domain.CHAR_DURATION))
	assert.Contains(t, h.pres.handlers, s.ref(domain.CHAR_SENSITIVITY))
	assert.Contains(t, h.pres.handlers, s.ref(domain.CHAR_IDENTIFY))
	assert.NotContains(t, h.pres.handlers, s.ref(domain.CHAR_MOTION_DETECTED))
	assert.NotContains(t, h.pres.specs, s.ref(domain.CHAR_RESOURCE))
}

func TestHeartbeatIsIdempotent(t *testing.T) {
	h := newHarness(t)
	obj := hueMotion()
	a := h.accessory(defaultOptions(), obj)
	before := len(h.pres.updates)

	a.Heartbeat(1, []domain.SensorObject{obj})
	a.Heartbeat(2, []domain.SensorObject{obj})
	h.sched.flush()

	assert.Len(t, h.pres.updates, before)
}

func TestMotionHold(t *testing.T) {
	h := newHarness(t)
	obj := hueMotion()
	a := h.accessory(defaultOptions(), obj)
	s := a.Sensors()[0]

	require.NoError(t, h.pres.set(s.ref(domain.CHAR_DURATION), 10.0))
	assert.Equal(t, 10.0, h.value(s, domain.CHAR_DURATION))
	h.bridge.AssertNotCalled(t, "Request", mock.Anything, mock.Anything, mock.Anything)

	a.Event(domain.BridgeEvent{Id: obj.Id, State: map[string]any{"presence": true}})
	assert.Equal(t, 1.0, h.value(s, domain.CHAR_MOTION_DETECTED))

	a.Event(domain.BridgeEvent{Id: obj.Id, State: map[string]any{"presence": false}})
	assert.Equal(t, 1.0, h.value(s, domain.CHAR_MOTION_DETECTED))
	assert.Equal(t, 1, h.sched.pending())

	h.sched.advance(5 * time.Second)
	assert.Equal(t, 1.0, h.value(s, domain.CHAR_MOTION_DETECTED))

	h.sched.advance(5 * time.Second)
	assert.Equal(t, 0.0, h.value(s, domain.CHAR_MOTION_DETECTED))
	assert.Equal(t, 0, h.sched.pending())
}

func TestDurationSetterLocal(t *testing.T) {
	h := newHarness(t)
	obj := hueMotion()
	a := h.accessory(defaultOptions(), obj)
	s := a.Sensors()[0]

	// off-step requests snap to the next supported duration
	require.NoError(t, h.pres.set(s.ref(domain.CHAR_DURATION), 7.0))
	assert.Equal(t, 10.0, h.value(s, domain.CHAR_DURATION))
	assert.Equal(t, 10.0, s.holdSeconds)

	require.NoError(t, h.pres.set(s.ref(domain.CHAR_DURATION), 5.0))
	assert.Equal(t, 5.0, h.value(s, domain.CHAR_DURATION))
	assert.Equal(t, 0.0, s.holdSeconds)
	h.bridge.AssertNotCalled(t, "Request", mock.Anything, mock.Anything, mock.Anything)
}

func TestDurationSetterWritesDelay(t *testing.T) {
	h := newHarness(t)
	obj := domain.SensorObject{
		Id:           "21",
		Name:         "Stairs sensor",
		Type:         "ZHAPresence",
		Manufacturer: "Philips",
		Model:        "SML001",
		UniqueId:     motionMac + "-02-0406",
		State:        map[string]any{"presence": false, "lastupdated": "2024-03-01T11:59:00"},
		Config:       map[string]any{"on": true, "reachable": true, "delay": 0.0},
	}
	a := h.accessory(defaultOptions(), obj)
	s := a.Sensors()[0]
	assert.Equal(t, 5.0, h.value(s, domain.CHAR_DURATION))

	h.bridge.On("Request", "put", "/sensors/21/config", map[string]any{"delay": 30.0}).Return(nil).Once()
	require.NoError(t, h.pres.set(s.ref(domain.CHAR_DURATION), 25.0))
	assert.Equal(t, 30.0, h.value(s, domain.CHAR_DURATION))
	assert.Equal(t, 30.0, s.obj.Config["delay"])

	h.bridge.On("Request", "put", "/sensors/21/config", map[string]any{"delay": 0.0}).Return(nil).Once()
	require.NoError(t, h.pres.set(s.ref(domain.CHAR_DURATION), 5.0))
	assert.Equal(t, 5.0, h.value(s, domain.CHAR_DURATION))
	assert.Equal(t, 0.0, s.obj.Config["delay"])

	// the published duration again does not write
	require.NoError(t, h.pres.set(s.ref(domain.CHAR_DURATION), 4.0))
	h.bridge.AssertExpectations(t)
	h.bridge.AssertNumberOfCalls(t, "Request", 2)
}

func TestMotionHoldCancelledByNewMotion(t *testing.T) {
	h := newHarness(t)
	obj := hueMotion()
	a := h.accessory(defaultOptions(), obj)
	s := a.Sensors()[0]
	require.NoError(t, h.pres.set(s.ref(domain.CHAR_DURATION), 10.0))

	a.Event(domain.BridgeEvent{Id: obj.Id, State: map[string]any{"presence": true}})
	a.Event(domain.BridgeEvent{Id: obj.Id, State: map[string]any{"presence": false}})
	h.sched.advance(5 * time.Second)
	a.Event(domain.BridgeEvent{Id: obj.Id, State: map[string]any{"presence": true}})
	h.sched.advance(10 * time.Second)

	assert.Equal(t, []any{0.0, 1.0}, h.pres.updatesOf(s.ref(domain.CHAR_MOTION_DETECTED)))
	assert.Equal(t, 0, h.sched.pending())
}

func TestMotionWithoutHold(t *testing.T) {
	h := newHarness(t)
	obj := hueMotion()
	a := h.accessory(defaultOptions(), obj)
	s := a.Sensors()[0]

	a.Event(domain.BridgeEvent{Id: obj.Id, State: map[string]any{"presence": true}})
	a.Event(domain.BridgeEvent{Id: obj.Id, State: map[string]any{"presence": false}})

	assert.Equal(t, 0.0, h.value(s, domain.CHAR_MOTION_DETECTED))
	assert.Equal(t, 0, h.sched.pending())
}

func TestOffsetRoundTrip(t *testing.T) {
	h := newHarness(t)
	obj := weatherTemperature()
	a := h.accessory(defaultOptions(), obj)
	s := a.Sensors()[0]
	assert.Equal(t, 21.5, h.value(s, domain.CHAR_CURRENT_TEMPERATURE))

	h.bridge.On("Request", "put", "/sensors/12/config", map[string]any{"offset": 120.0}).Return(nil).Once()
	require.NoError(t, h.pres.set(s.ref(domain.CHAR_OFFSET), 1.2))
	h.bridge.AssertExpectations(t)
	assert.Equal(t, 120.0, s.obj.Config["offset"])

	obj.Config["offset"] = 120.0
	a.Heartbeat(1, []domain.SensorObject{obj})
	assert.Equal(t, []any{0.0, 1.2}, h.pres.updatesOf(s.ref(domain.CHAR_OFFSET)))

	// setting the published value again does not write
	require.NoError(t, h.pres.set(s.ref(domain.CHAR_OFFSET), 1.2))
	h.bridge.AssertNumberOfCalls(t, "Request", 1)
}

func TestSetterFailureKeepsMirror(t *testing.T) {
	h := newHarness(t)
	obj := weatherTemperature()
	a := h.accessory(defaultOptions(), obj)
	s := a.Sensors()[0]

	h.bridge.On("Request", "put", "/sensors/12/config", map[string]any{"offset": 200.0}).
		Return(errors.New("bridge unreachable")).Once()
	err := h.pres.set(s.ref(domain.CHAR_OFFSET), 2.0)
	require.Error(t, err)

	assert.Equal(t, 2.0, h.value(s, domain.CHAR_OFFSET))
	assert.Equal(t, 0.0, s.obj.Config["offset"])

	// the next poll publishes the bridge value again
	a.Heartbeat(1, []domain.SensorObject{obj})
	assert.Equal(t, 0.0, h.value(s, domain.CHAR_OFFSET))
}

func TestSetEnabledPublishesActive(t *testing.T) {
	h := newHarness(t)
	a := h.accessory(defaultOptions(), weatherTemperature())
	s := a.Sensors()[0]

	h.bridge.On("Request", "put", "/sensors/12/config", map[string]any{"on": false}).Return(nil).Once()
	require.NoError(t, h.pres.set(s.ref(domain.CHAR_ENABLED), false))

	assert.Equal(t, 0.0, h.value(s, domain.CHAR_ENABLED))
	assert.Equal(t, 0.0, h.value(s, domain.CHAR_STATUS_ACTIVE))
	assert.Equal(t, false, s.obj.Config["on"])
}

func TestSensitivity(t *testing.T) {
	h := newHarness(t)
	obj := hueMotion()
	a := h.accessory(defaultOptions(), obj)
	s := a.Sensors()[0]

	h.bridge.On("Request", "put", "/sensors/5/config", map[string]any{"sensitivity": 1}).Return(nil).Once()
	require.NoError(t, h.pres.set(s.ref(domain.CHAR_SENSITIVITY), 4.0))
	assert.Equal(t, 4.0, h.value(s, domain.CHAR_SENSITIVITY))

	assert.ErrorIs(t, h.pres.set(s.ref(domain.CHAR_SENSITIVITY), 3.0), ErrInvalidValue)
	h.bridge.AssertNumberOfCalls(t, "Request", 1)

	obj.Config["sensitivity"] = 0.0
	a.Heartbeat(1, []domain.SensorObject{obj})
	assert.Equal(t, 7.0, h.value(s, domain.CHAR_SENSITIVITY))
}

func TestIdentify(t *testing.T) {
	h := newHarness(t)
	a := h.accessory(defaultOptions(), hueMotion())
	s := a.Sensors()[0]

	h.bridge.On("Request", "put", "/sensors/5/config", map[string]any{"alert": "select"}).Return(nil).Once()
	require.NoError(t, h.pres.set(s.ref(domain.CHAR_IDENTIFY), true))
	h.bridge.AssertExpectations(t)
}

func TestButtonEvents(t *testing.T) {
	h := newHarness(t)
	obj := hueDimmerSwitch()
	a := h.accessory(defaultOptions(), obj)
	s := a.Sensors()[0]

	heartbeat := func(event float64, lastupdated string) {
		obj.State = map[string]any{"buttonevent": event, "lastupdated": lastupdated}
		a.Heartbeat(1, []domain.SensorObject{obj})
	}

	// unchanged lastupdated: no new event
	heartbeat(1002, "2024-03-01T11:00:00")
	assert.Empty(t, h.pres.updatesOf(s.buttonRef(1)))

	heartbeat(1002, "2024-03-01T11:00:05")
	assert.Equal(t, []any{domain.SINGLE_PRESS}, h.pres.updatesOf(s.buttonRef(1)))

	heartbeat(2001, "2024-03-01T11:00:10")
	heartbeat(2001, "2024-03-01T11:00:11")
	heartbeat(2003, "2024-03-01T11:00:12")
	assert.Equal(t, []any{domain.LONG_PRESS}, h.pres.updatesOf(s.buttonRef(2)))

	// pushed events always carry a new press
	a.Event(domain.BridgeEvent{Id: obj.Id, State: map[string]any{"buttonevent": 4002.0, "lastupdated": "2024-03-01T11:00:12"}})
	assert.Equal(t, []any{domain.SINGLE_PRESS}, h.pres.updatesOf(s.buttonRef(4)))

	// the dimmer has no fifth button
	a.Event(domain.BridgeEvent{Id: obj.Id, State: map[string]any{"buttonevent": 5002.0}})
	assert.Empty(t, h.pres.updatesOf(s.buttonRef(5)))
}

func TestDimmerRepeat(t *testing.T) {
	h := newHarness(t)
	obj := hueDimmerSwitch()
	opts := defaultOptions()
	opts.Registry.DimmerRepeat = true
	a := h.accessory(opts, obj)
	s := a.Sensors()[0]

	a.Event(domain.BridgeEvent{Id: obj.Id, State: map[string]any{"buttonevent": 2001.0}})
	a.Event(domain.BridgeEvent{Id: obj.Id, State: map[string]any{"buttonevent": 2001.0}})
	assert.Equal(t, []any{domain.SINGLE_PRESS, domain.SINGLE_PRESS}, h.pres.updatesOf(s.buttonRef(2)))
}

func TestLowBattery(t *testing.T) {
	h := newHarness(t)
	obj := hueDimmerSwitch()
	a := h.accessory(defaultOptions(), obj)

	assert.Equal(t, 20.0, h.pres.values[a.batteryRef(domain.CHAR_BATTERY_LEVEL)])
	assert.Equal(t, 1.0, h.pres.values[a.batteryRef(domain.CHAR_STATUS_LOW_BATTERY)])

	obj.Config["battery"] = "80"
	a.Heartbeat(1, []domain.SensorObject{obj})
	assert.Equal(t, 80.0, h.pres.values[a.batteryRef(domain.CHAR_BATTERY_LEVEL)])
	assert.Equal(t, 0.0, h.pres.values[a.batteryRef(domain.CHAR_STATUS_LOW_BATTERY)])
}

func TestDaylightStatus(t *testing.T) {
	h := newHarness(t)
	obj := domain.SensorObject{
		Id:           "1",
		Name:         "Daylight",
		Type:         "Daylight",
		Manufacturer: "Philips",
		Model:        "PHDL00",
		State:        map[string]any{"daylight": true, "dark": false, "status": 170.0, "lastupdated": "2024-03-01T11:00:00"},
		Config:       map[string]any{"on": true, "configured": true, "sunriseoffset": 30.0, "sunsetoffset": -30.0},
	}
	a := h.accessory(defaultOptions(), obj)
	s := a.Sensors()[0]

	assert.Equal(t, "Solar Noon", h.value(s, domain.CHAR_LAST_EVENT))
	assert.Equal(t, "Day", h.value(s, domain.CHAR_PERIOD))
	assert.Equal(t, 170.0, h.value(s, domain.CHAR_STATUS))
	assert.Equal(t, 0.0, h.value(s, domain.CHAR_STATUS_FAULT))
	assert.Equal(t, 1.0, h.value(s, domain.CHAR_DAYLIGHT))

	a.Event(domain.BridgeEvent{Id: obj.Id, State: map[string]any{"status": 200.0, "daylight": false, "dark": false}})
	event, period, ok := registry.Daylight(200)
	require.True(t, ok)
	assert.Equal(t, event.Name, h.value(s, domain.CHAR_LAST_EVENT))
	assert.Equal(t, event.Period, h.value(s, domain.CHAR_PERIOD))
	assert.Equal(t, registry.LightLevel(float64(period.LightLevel)), h.value(s, domain.CHAR_CURRENT_AMBIENT_LIGHT_LEVEL))

	// unknown codes keep the derived values
	a.Event(domain.BridgeEvent{Id: obj.Id, State: map[string]any{"status": 175.0}})
	assert.Equal(t, event.Name, h.value(s, domain.CHAR_LAST_EVENT))
}

func TestHueDaylightWithoutStatus(t *testing.T) {
	h := newHarness(t)
	obj := domain.SensorObject{
		Id:           "1",
		Name:         "Daylight",
		Type:         "Daylight",
		Manufacturer: "Philips",
		Model:        "PHDL00",
		State:        map[string]any{"daylight": false, "lastupdated": "2024-03-01T11:00:00"},
		Config:       map[string]any{"on": true, "configured": false},
	}
	a := h.accessory(defaultOptions(), obj)
	s := a.Sensors()[0]

	assert.Equal(t, 1.0, h.value(s, domain.CHAR_DARK))
	assert.Equal(t, 1.0, h.value(s, domain.CHAR_STATUS_FAULT))
	assert.NotContains(t, h.pres.specs, s.ref(domain.CHAR_PERIOD))

	obj.State["daylight"] = true
	a.Heartbeat(1, []domain.SensorObject{obj})
	assert.Equal(t, 0.0, h.value(s, domain.CHAR_DARK))
	assert.Equal(t, registry.LightLevel(65535), h.value(s, domain.CHAR_CURRENT_AMBIENT_LIGHT_LEVEL))
}

func TestUnknownSwitchIsInert(t *testing.T) {
	h := newHarness(t)
	obj := hueDimmerSwitch()
	obj.Manufacturer = "ACME"
	obj.Model = "clicker"
	a := h.accessory(defaultOptions(), obj)

	require.Len(t, a.Sensors(), 1)
	assert.True(t, a.Sensors()[0].Descriptor().Inert)
	assert.Empty(t, h.pres.specs)

	a.Event(domain.BridgeEvent{Id: obj.Id, State: map[string]any{"buttonevent": 1002.0}})
	assert.Empty(t, h.pres.updates)
}

func TestUnsupportedSensorIsSkipped(t *testing.T) {
	h := newHarness(t)
	obj := domain.SensorObject{
		Id:     "40",
		Name:   "Virtual switch",
		Type:   "CLIPSwitch",
		State:  map[string]any{"buttonevent": 1002.0},
		Config: map[string]any{"on": true},
	}
	a := h.accessory(defaultOptions(), obj)

	assert.Empty(t, a.Sensors())
	assert.Empty(t, h.pres.specs)
}

func TestExposeResource(t *testing.T) {
	h := newHarness(t)
	opts := defaultOptions()
	opts.ExposeResource = true
	a := h.accessory(opts, weatherTemperature())

	assert.Equal(t, "/sensors/12", h.value(a.Sensors()[0], domain.CHAR_RESOURCE))
}

func TestGroupSensors(t *testing.T) {
	temperature := weatherTemperature()
	humidity := domain.SensorObject{
		Id:           "13",
		Type:         "ZHAHumidity",
		Manufacturer: "LUMI",
		Model:        "lumi.weather",
		UniqueId:     weatherMac + "-01-0405",
	}
	clip := domain.SensorObject{Id: "50", Type: "CLIPGenericFlag", Manufacturer: "Philips", Model: "GenericFlag", UniqueId: "flag50"}

	groups := GroupSensors([]domain.SensorObject{temperature, clip, humidity})
	require.Len(t, groups, 2)
	assert.Equal(t, "00_15_8d_00_02_5c_7e_11", groups[0].Id)
	assert.Len(t, groups[0].Sensors, 2)
	assert.Equal(t, "sensor50", groups[1].Id)
}

func TestFormatLastupdated(t *testing.T) {
	h := newHarness(t)
	berlin := time.FixedZone("CET", 3600)
	h.sched.now = h.sched.now.In(berlin)
	a := h.accessory(defaultOptions(), weatherTemperature())
	s := a.Sensors()[0]

	assert.Equal(t, "Fri Mar 01 2024 12:58:12", h.value(s, domain.CHAR_LAST_UPDATED))
	assert.Equal(t, "n/a", s.formatLastupdated("none"))
	assert.Equal(t, "n/a", s.formatLastupdated(nil))
}
