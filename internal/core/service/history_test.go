package service

import (
	"testing"
	"time"

	"github.com/advanliempt/homebridge-hue/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smartPlug() (domain.SensorObject, domain.SensorObject) {
	power := domain.SensorObject{
		Id:           "7",
		Name:         "Plug power",
		Type:         "ZHAPower",
		Manufacturer: "innr",
		Model:        "SP 120",
		UniqueId:     plugMac + "-01-0b04",
		State:        map[string]any{"power": 100.0, "current": 430.0, "voltage": 230.0, "lastupdated": "2024-03-01T11:00:00"},
		Config:       map[string]any{"on": true, "reachable": true},
	}
	consumption := domain.SensorObject{
		Id:           "8",
		Name:         "Plug consumption",
		Type:         "ZHAConsumption",
		Manufacturer: "innr",
		Model:        "SP 120",
		UniqueId:     plugMac + "-01-0702",
		State:        map[string]any{"consumption": 5000.0, "lastupdated": "2024-03-01T11:00:00"},
		Config:       map[string]any{"on": true, "reachable": true},
	}
	return power, consumption
}

func TestEnergyIntegration(t *testing.T) {
	h := newHarness(t)
	power, consumption := smartPlug()
	a := h.accessory(defaultOptions(), power, consumption)
	require.Len(t, a.Sensors(), 2)
	p := a.Sensors()[0]
	c := a.Sensors()[1]

	assert.Equal(t, 100.0, h.value(p, domain.CHAR_CURRENT_CONSUMPTION))
	assert.Equal(t, 0.43, h.value(p, domain.CHAR_ELECTRIC_CURRENT))
	assert.Equal(t, 230.0, h.value(p, domain.CHAR_VOLTAGE))
	assert.Equal(t, 5.0, h.value(c, domain.CHAR_TOTAL_CONSUMPTION))
	// the power sensor owns the history, so the consumption sensor computes nothing
	assert.NotContains(t, h.pres.specs, c.ref(domain.CHAR_CURRENT_CONSUMPTION))
	assert.Empty(t, h.history.entries)

	h.sched.advance(600 * time.Second)
	a.Event(domain.BridgeEvent{Id: power.Id, State: map[string]any{"power": 200.0}})
	a.HistoryTick()
	h.sched.flush()

	// 100 W for 600 s
	assert.InDelta(t, 0.017, h.value(p, domain.CHAR_TOTAL_CONSUMPTION), 1e-9)
	require.Len(t, h.history.entries, 1)
	entry := h.history.entries[0]
	assert.Equal(t, a.Id, entry.Accessory)
	assert.Equal(t, domain.HISTORY_ENERGY, entry.Category)
	assert.Equal(t, 100.0, entry.Fields["power"])
	assert.Equal(t, h.sched.now, entry.Time)

	h.sched.advance(300 * time.Second)
	a.HistoryTick()
	h.sched.flush()
	// 200 W for 300 s
	assert.InDelta(t, 0.034, h.value(p, domain.CHAR_TOTAL_CONSUMPTION), 1e-9)
	require.Len(t, h.history.entries, 2)
	assert.Equal(t, 100.0, h.history.entries[1].Fields["power"])

	require.NoError(t, h.pres.set(p.ref(domain.CHAR_RESET_TOTAL), true))
	assert.Equal(t, 0.0, h.value(p, domain.CHAR_TOTAL_CONSUMPTION))
}

func TestConsumptionOwner(t *testing.T) {
	h := newHarness(t)
	_, consumption := smartPlug()
	a := h.accessory(defaultOptions(), consumption)
	c := a.Sensors()[0]
	require.Contains(t, h.pres.specs, c.ref(domain.CHAR_CURRENT_CONSUMPTION))

	h.sched.advance(600 * time.Second)
	a.HistoryTick()
	h.sched.flush()
	// no baseline yet
	assert.Empty(t, h.history.entries)
	assert.Nil(t, h.value(c, domain.CHAR_CURRENT_CONSUMPTION))

	consumption.State["consumption"] = 5010.0
	a.Heartbeat(1, []domain.SensorObject{consumption})
	h.sched.advance(600 * time.Second)
	a.HistoryTick()
	h.sched.flush()

	require.Len(t, h.history.entries, 1)
	assert.Equal(t, 60.0, h.history.entries[0].Fields["power"])
	assert.Equal(t, 60.0, h.value(c, domain.CHAR_CURRENT_CONSUMPTION))
}

func TestDoorHistory(t *testing.T) {
	h := newHarness(t)
	obj := domain.SensorObject{
		Id:           "20",
		Name:         "Front door",
		Type:         "ZHAOpenClose",
		Manufacturer: "LUMI",
		Model:        "lumi.sensor_magnet.aq2",
		UniqueId:     "00:15:8d:00:01:aa:bb:cc-01-0006",
		State:        map[string]any{"open": false, "lastupdated": "2024-03-01T11:00:00"},
		Config:       map[string]any{"on": true, "reachable": true, "battery": 95.0},
	}
	a := h.accessory(defaultOptions(), obj)
	s := a.Sensors()[0]
	assert.Equal(t, 0.0, h.value(s, domain.CHAR_TIMES_OPENED))

	h.sched.advance(90 * time.Second)
	a.Event(domain.BridgeEvent{Id: obj.Id, State: map[string]any{"open": true}})
	h.sched.flush()
	assert.Equal(t, 1.0, h.value(s, domain.CHAR_TIMES_OPENED))
	assert.Equal(t, 90.0, h.value(s, domain.CHAR_LAST_ACTIVATION))
	require.Len(t, h.history.entries, 1)
	assert.Equal(t, 1.0, h.history.entries[0].Fields["status"])

	a.Event(domain.BridgeEvent{Id: obj.Id, State: map[string]any{"open": false}})
	a.Event(domain.BridgeEvent{Id: obj.Id, State: map[string]any{"open": true}})
	h.sched.flush()
	assert.Equal(t, 2.0, h.value(s, domain.CHAR_TIMES_OPENED))
	// both changes happened in one pass
	require.Len(t, h.history.entries, 2)

	require.NoError(t, h.pres.set(s.ref(domain.CHAR_RESET_TOTAL), true))
	assert.Equal(t, 0.0, h.value(s, domain.CHAR_TIMES_OPENED))
}

func TestWeatherHistory(t *testing.T) {
	h := newHarness(t)
	temperature := weatherTemperature()
	humidity := domain.SensorObject{
		Id:           "13",
		Name:         "Bedroom humidity",
		Type:         "ZHAHumidity",
		Manufacturer: "LUMI",
		Model:        "lumi.weather",
		UniqueId:     weatherMac + "-01-0405",
		State:        map[string]any{"humidity": 4550.0, "lastupdated": "2024-03-01T11:58:12"},
		Config:       map[string]any{"on": true, "reachable": true},
	}
	a := h.accessory(defaultOptions(), temperature, humidity)

	// changes only stage the entry
	a.Event(domain.BridgeEvent{Id: humidity.Id, State: map[string]any{"humidity": 4700.0}})
	h.sched.flush()
	assert.Empty(t, h.history.entries)

	a.HistoryTick()
	h.sched.flush()
	require.Len(t, h.history.entries, 1)
	fields := h.history.entries[0].Fields
	assert.Equal(t, 21.5, fields["temp"])
	assert.Equal(t, 47.0, fields["humidity"])
	assert.Equal(t, 0.0, fields["pressure"])
}

func TestThermoHistory(t *testing.T) {
	h := newHarness(t)
	obj := domain.SensorObject{
		Id:           "30",
		Name:         "Radiator",
		Type:         "ZHAThermostat",
		Manufacturer: "Eurotronic",
		Model:        "SPZB0001",
		UniqueId:     "00:15:8d:00:03:21:44:8a-01-0201",
		State:        map[string]any{"temperature": 1900.0, "on": false, "lastupdated": "2024-03-01T11:00:00"},
		Config:       map[string]any{"on": true, "reachable": true, "heatsetpoint": 2100.0, "scheduleron": false, "offset": 0.0},
	}
	a := h.accessory(defaultOptions(), obj)
	s := a.Sensors()[0]
	assert.Equal(t, 21.0, h.value(s, domain.CHAR_TARGET_TEMPERATURE))
	assert.Equal(t, 0.0, h.value(s, domain.CHAR_CURRENT_HEATING_COOLING_STATE))

	h.bridge.On("Request", "put", "/sensors/30/config", map[string]any{"heatsetpoint": 2250.0}).Return(nil).Once()
	require.NoError(t, h.pres.set(s.ref(domain.CHAR_TARGET_TEMPERATURE), 22.5))

	h.bridge.On("Request", "put", "/sensors/30/config", map[string]any{"scheduleron": true}).Return(nil).Once()
	require.NoError(t, h.pres.set(s.ref(domain.CHAR_TARGET_HEATING_COOLING_STATE), 1.0))
	h.bridge.AssertExpectations(t)

	a.HistoryTick()
	h.sched.flush()
	require.Len(t, h.history.entries, 1)
	assert.Equal(t, 19.0, h.history.entries[0].Fields["currentTemp"])
	assert.Equal(t, 22.5, h.history.entries[0].Fields["setTemp"])
}
