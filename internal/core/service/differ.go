package service

import (
	"fmt"
	"maps"
	"time"

	"github.com/advanliempt/homebridge-hue/internal/core/domain"
	"github.com/advanliempt/homebridge-hue/internal/core/registry"
	"go.uber.org/zap"
)

const lastupdatedLayout = "2006-01-02T15:04:05"

// Heartbeat diffs a full snapshot delivered by a poll.
func (s *Sensor) Heartbeat(beat int, obj domain.SensorObject) {
	if s.desc.Inert {
		return
	}
	state := maps.Clone(obj.State)
	config := maps.Clone(obj.Config)
	if state == nil {
		state = map[string]any{}
	}
	if config == nil {
		config = map[string]any{}
	}
	if state["daylight"] != nil && state["lightlevel"] == nil && state["status"] == nil {
		state["lightlevel"] = daylightLevel(state["daylight"])
		state["dark"] = !domain.Truthy(state["daylight"])
	}
	s.CheckState(state, false)
	if config["configured"] != nil && config["reachable"] == nil {
		config["reachable"] = config["configured"]
	}
	s.CheckConfig(config)
}

// CheckState diffs the state attributes present in state. isEvent is set for
// pushed changes, which always carry a new button event.
func (s *Sensor) CheckState(state map[string]any, isEvent bool) {
	if s.desc.Inert {
		return
	}
	lastupdated := s.obj.State["lastupdated"]
	for _, key := range sortedKeys(state) {
		value := state[key]
		switch key {
		case "buttonevent":
			s.checkButtonevent(value, lastupdated, state["lastupdated"], isEvent)
		case "current":
			s.checkCurrent(value)
		case "dark":
			s.checkDark(value)
		case "daylight":
			s.checkDaylight(value)
		case "lastupdated":
			s.checkLastupdated(value)
		case "lowbattery", "lux":
		case "on":
			s.checkStateOn(value)
		case "tampered":
			s.checkTampered(value)
		case "voltage":
			s.checkVoltage(value)
		default:
			switch {
			case key == s.desc.Key:
				s.checkValue(value)
			case key == "status":
				s.checkStatus(value)
			case key == "power":
			default:
				s.logger.Debug("sensor@state: ignore unknown attribute state." + key)
			}
		}
	}
}

func (s *Sensor) checkValue(value any) {
	if !s.desc.HasValue() {
		return
	}
	key := s.desc.Key
	s.cache(s.obj.State, "state", key, value)
	hkValue := s.desc.Value.Apply(s.obj.State[key])

	if s.hold != nil {
		if hkValue != 0 {
			s.hold.cancel()
			s.hold = nil
			s.logger.Debug("sensor@state: cancel hold of "+s.desc.Name, zap.Float64("value", hkValue))
		}
		return
	}
	old, seen := s.hk[key]
	if seen && domain.SameValue(old, hkValue) {
		return
	}
	if s.localDuration && s.holdSeconds > 0 && hkValue == 0 {
		s.logger.Debug("sensor@state: keep "+s.desc.Name, zap.Any("value", old), zap.Float64("seconds", s.holdSeconds))
		seconds := s.holdSeconds
		t := &holdTimer{}
		t.cancel = s.acc.deps.Scheduler.After(s.holdDuration(), func() {
			if s.hold != t {
				return
			}
			s.hold = nil
			s.logger.Info("sensor@state: set "+s.desc.Name, zap.String("from", fmt.Sprintf("%v%s", old, s.desc.Unit)),
				zap.String("to", fmt.Sprintf("%v%s", hkValue, s.desc.Unit)), zap.Float64("after", seconds))
			s.hk[key] = hkValue
			s.update(s.desc.Characteristic, hkValue)
			s.addEntry(true)
		})
		s.hold = t
		return
	}
	s.publish(key, s.desc.Characteristic, hkValue, s.desc.Unit)
	s.addEntry(true)
}

func (s *Sensor) checkButtonevent(value, cachedLastupdated, lastupdated any, isEvent bool) {
	if !isEvent && domain.SameValue(cachedLastupdated, lastupdated) {
		return
	}
	s.logger.Debug("sensor@state: buttonevent", zap.Any("value", value), zap.Any("lastupdated", lastupdated))
	previous := -1
	if p, ok := domain.Number(s.obj.State["buttonevent"]); ok {
		previous = int(p)
	}
	s.obj.State["buttonevent"] = value
	v, ok := domain.Number(value)
	if !ok {
		return
	}
	index, action, ok := s.desc.Decoder.Decode(int(v), previous, s.desc.Repeat)
	if !ok {
		return
	}
	b, ok := s.desc.Button(index)
	if !ok {
		return
	}
	s.logger.Info("sensor@state: button "+b.Name, zap.Stringer("action", action))
	s.acc.deps.Presentation.Update(s.buttonRef(index), action)
}

func (s *Sensor) checkCurrent(current any) {
	s.cache(s.obj.State, "state", "current", current)
	v, ok := domain.Number(s.obj.State["current"])
	if !ok {
		return
	}
	s.publish("current", domain.CHAR_ELECTRIC_CURRENT, v/1000, " A")
}

func (s *Sensor) checkVoltage(voltage any) {
	s.cache(s.obj.State, "state", "voltage", voltage)
	v, ok := domain.Number(s.obj.State["voltage"])
	if !ok {
		return
	}
	s.publish("voltage", domain.CHAR_VOLTAGE, v, " V")
}

func (s *Sensor) checkDark(dark any) {
	s.cache(s.obj.State, "state", "dark", dark)
	s.publish("dark", domain.CHAR_DARK, registry.TRANSFORM_BOOL.Apply(s.obj.State["dark"]), "")
}

func (s *Sensor) checkDaylight(daylight any) {
	s.cache(s.obj.State, "state", "daylight", daylight)
	s.publish("daylight", domain.CHAR_DAYLIGHT, registry.TRANSFORM_BOOL.Apply(s.obj.State["daylight"]), "")
}

func (s *Sensor) checkTampered(tampered any) {
	s.cache(s.obj.State, "state", "tampered", tampered)
	s.publish("tampered", domain.CHAR_STATUS_TAMPERED, registry.TRANSFORM_BOOL.Apply(s.obj.State["tampered"]), "")
}

func (s *Sensor) checkStateOn(on any) {
	s.cache(s.obj.State, "state", "on", on)
	state := float64(domain.HEATING_COOLING_OFF)
	if domain.Truthy(s.obj.State["on"]) {
		state = domain.HEATING_COOLING_HEAT
	}
	s.publish("currentHeatingCoolingState", domain.CHAR_CURRENT_HEATING_COOLING_STATE, state, "")
}

func (s *Sensor) checkLastupdated(lastupdated any) {
	if old, seen := s.obj.State["lastupdated"]; !seen || !domain.SameValue(old, lastupdated) {
		s.obj.State["lastupdated"] = lastupdated
	}
	s.publish("lastupdated", domain.CHAR_LAST_UPDATED, s.formatLastupdated(s.obj.State["lastupdated"]), "")
}

// formatLastupdated renders the bridge's UTC timestamp in local time.
func (s *Sensor) formatLastupdated(v any) string {
	raw, ok := v.(string)
	if !ok || raw == "" || raw == "none" {
		return "n/a"
	}
	t, err := time.ParseInLocation(lastupdatedLayout, raw, time.UTC)
	if err != nil {
		return "n/a"
	}
	return t.In(s.acc.deps.now().Location()).Format("Mon Jan 02 2006 15:04:05")
}

func (s *Sensor) checkStatus(status any) {
	s.cache(s.obj.State, "state", "status", status)
	v, ok := domain.Number(s.obj.State["status"])
	if !ok {
		return
	}
	s.publish("status", domain.CHAR_STATUS, v, "")
	event, period, ok := registry.Daylight(int(v))
	if !ok {
		s.logger.Warn("sensor@state: unknown daylight status", zap.Any("status", status))
		return
	}
	s.checkValue(float64(period.LightLevel))
	s.publish("event", domain.CHAR_LAST_EVENT, event.Name, "")
	s.publish("period", domain.CHAR_PERIOD, event.Period, "")
}
