package service

import (
	"slices"

	"github.com/advanliempt/homebridge-hue/internal/core/domain"
	"github.com/advanliempt/homebridge-hue/internal/core/registry"
	"go.uber.org/zap"
)

// bridge sensitivity <=> external sensitivity
var (
	sensitivityFromBridge = map[int]float64{0: 7, 1: 4, 2: 0}
	sensitivityToBridge   = map[int]int{0: 2, 4: 1, 7: 0}
)

// CheckConfig diffs the config attributes present in config.
func (s *Sensor) CheckConfig(config map[string]any) {
	if s.desc.Inert {
		return
	}
	for _, key := range sortedKeys(config) {
		value := config[key]
		switch key {
		case "battery":
			s.acc.checkBattery(value)
		case "delay":
			if s.desc.DurationKey == "delay" {
				s.checkDuration(value)
			}
		case "duration":
			if s.desc.DurationKey == "duration" {
				s.checkDuration(value)
			}
		case "heatsetpoint":
			s.checkHeatSetPoint(value)
		case "offset":
			s.checkOffset(value)
		case "on":
			s.checkOn(value)
		case "reachable":
			s.checkReachable(value)
		case "scheduleron":
			s.checkSchedulerOn(value)
		case "sensitivity":
			s.checkSensitivity(value)
		case "alert", "configured", "group", "ledindication", "mode", "pending", "scheduler",
			"sensitivitymax", "sunriseoffset", "sunsetoffset", "temperature", "tholddark",
			"tholdoffset", "usertest":
		default:
			s.logger.Debug("sensor@config: ignore unknown attribute config." + key)
		}
	}
}

func (s *Sensor) checkDuration(duration any) {
	if s.desc.Family != registry.FAMILY_PRESENCE {
		return
	}
	key := s.desc.DurationKey
	s.cache(s.obj.Config, "config", key, duration)
	s.publish("duration", domain.CHAR_DURATION, bucketDuration(s.obj.Config[key]), " s")
}

// bucketDuration picks the first supported duration not below raw.
func bucketDuration(raw any) float64 {
	v, ok := domain.Number(raw)
	last := durationValues[len(durationValues)-1]
	if !ok {
		return last
	}
	for _, d := range durationValues {
		if v <= d {
			return d
		}
	}
	return last
}

func (s *Sensor) checkHeatSetPoint(heatsetpoint any) {
	s.cache(s.obj.Config, "config", "heatsetpoint", heatsetpoint)
	v, _ := domain.Number(s.obj.Config["heatsetpoint"])
	s.publish("targetTemperature", domain.CHAR_TARGET_TEMPERATURE, domain.Round(v/10)/10, "°C")
}

func (s *Sensor) checkOffset(offset any) {
	s.cache(s.obj.Config, "config", "offset", offset)
	v := float64(domain.ToInt(s.obj.Config["offset"], -500, 500))
	s.publish("offset", domain.CHAR_OFFSET, domain.Round(v/10)/10, "°C")
}

func (s *Sensor) checkOn(on any) {
	s.cache(s.obj.Config, "config", "on", on)
	enabled := 1.0
	if b, ok := s.obj.Config["on"].(bool); ok && !b {
		enabled = 0
	}
	if s.publish("enabled", domain.CHAR_ENABLED, enabled, "") {
		s.update(domain.CHAR_STATUS_ACTIVE, enabled)
	}
}

func (s *Sensor) checkReachable(reachable any) {
	s.cache(s.obj.Config, "config", "reachable", reachable)
	fault := 0.0
	if b, ok := s.obj.Config["reachable"].(bool); ok && !b {
		fault = 1
	}
	s.publish("fault", domain.CHAR_STATUS_FAULT, fault, "")
}

func (s *Sensor) checkSchedulerOn(scheduleron any) {
	s.cache(s.obj.Config, "config", "scheduleron", scheduleron)
	state := float64(domain.HEATING_COOLING_OFF)
	if domain.Truthy(s.obj.Config["scheduleron"]) {
		state = domain.HEATING_COOLING_HEAT
	}
	s.publish("targetHeatingCoolingState", domain.CHAR_TARGET_HEATING_COOLING_STATE, state, "")
}

func (s *Sensor) checkSensitivity(sensitivity any) {
	if s.obj.Config["sensitivity"] == nil || s.obj.Type == "ZHASwitch" {
		return
	}
	s.cache(s.obj.Config, "config", "sensitivity", sensitivity)
	raw, ok := domain.Number(sensitivity)
	if !ok {
		return
	}
	v, ok := sensitivityFromBridge[int(raw)]
	if !ok {
		return
	}
	s.publish("sensitivity", domain.CHAR_SENSITIVITY, v, "")
}

// setters

// set runs the common setter contract: nothing to do when value is already
// published, otherwise update the mirror, write one attribute and keep the
// written raw value in the snapshot once the bridge accepted it. The mirror is
// not rolled back when the write fails.
func (s *Sensor) set(mirror string, c domain.CharacteristicType, value float64, section, key string, raw any, done func(error), onSuccess func()) {
	if old, ok := s.hk[mirror]; ok && domain.SameValue(old, value) {
		done(nil)
		return
	}
	s.logger.Info("sensor@set: "+mirror+" changed", zap.Any("from", s.hk[mirror]), zap.Float64("to", value))
	s.hk[mirror] = value
	s.update(c, value)
	s.write(section, key, raw, func(err error) {
		if err == nil && onSuccess != nil {
			onSuccess()
		}
		done(err)
	})
}

func (s *Sensor) write(section, key string, raw any, done func(error)) {
	path := s.obj.Resource() + "/" + section
	s.acc.deps.Bridge.Request("put", path, map[string]any{key: raw}, func(err error) {
		if err != nil {
			s.logger.Error("sensor@set: bridge write failed", zap.String("path", path), zap.String("key", key), zap.Error(err))
			done(err)
			return
		}
		if section == "state" {
			s.obj.State[key] = raw
		} else {
			s.obj.Config[key] = raw
		}
		done(nil)
	})
}

func (s *Sensor) setValue(value any, done func(error)) {
	v, ok := domain.Number(value)
	if !ok {
		done(invalidValue(value))
		return
	}
	s.set(s.desc.Key, s.desc.Characteristic, v, "state", s.desc.Key, s.desc.Encode.Apply(v), done, nil)
}

func (s *Sensor) setDuration(value any, done func(error)) {
	v, ok := domain.Number(value)
	if !ok {
		done(invalidValue(value))
		return
	}
	v = bucketDuration(v)
	if old, ok := s.hk["duration"]; ok && domain.SameValue(old, v) {
		done(nil)
		return
	}
	s.logger.Info("sensor@set: duration changed", zap.Any("from", s.hk["duration"]), zap.Float64("to", v))
	s.hk["duration"] = v
	s.update(domain.CHAR_DURATION, v)
	raw := v
	if v == 5 {
		raw = 0
	}
	if s.localDuration {
		s.holdSeconds = raw
		done(nil)
		return
	}
	s.write("config", s.desc.DurationKey, raw, done)
}

func (s *Sensor) setEnabled(value any, done func(error)) {
	enabled := 0.0
	if domain.Truthy(value) {
		enabled = 1
	}
	on := enabled == 1
	s.set("enabled", domain.CHAR_ENABLED, enabled, "config", "on", on, done, func() {
		s.update(domain.CHAR_STATUS_ACTIVE, enabled)
	})
}

func (s *Sensor) setOffset(value any, done func(error)) {
	v, ok := domain.Number(value)
	if !ok {
		done(invalidValue(value))
		return
	}
	s.set("offset", domain.CHAR_OFFSET, v, "config", "offset", domain.Round(v*100), done, nil)
}

func (s *Sensor) setTargetHeatingCoolingState(value any, done func(error)) {
	v, ok := domain.Number(value)
	if !ok {
		done(invalidValue(value))
		return
	}
	s.set("targetHeatingCoolingState", domain.CHAR_TARGET_HEATING_COOLING_STATE, v, "config", "scheduleron",
		v != domain.HEATING_COOLING_OFF, done, nil)
}

func (s *Sensor) setTargetTemperature(value any, done func(error)) {
	v, ok := domain.Number(value)
	if !ok {
		done(invalidValue(value))
		return
	}
	s.set("targetTemperature", domain.CHAR_TARGET_TEMPERATURE, v, "config", "heatsetpoint", domain.Round(v*100), done, nil)
}

func (s *Sensor) setSensitivity(value any, done func(error)) {
	v, ok := domain.Number(value)
	if !ok {
		done(invalidValue(value))
		return
	}
	raw, ok := sensitivityToBridge[int(v)]
	if !ok {
		done(invalidValue(value))
		return
	}
	s.set("sensitivity", domain.CHAR_SENSITIVITY, v, "config", "sensitivity", raw, done, nil)
}

// Identify makes the device blink, when it supports alerts.
func (s *Sensor) Identify(done func(error)) {
	if _, ok := s.obj.Config["alert"]; !ok {
		done(nil)
		return
	}
	s.logger.Info("sensor@set: identify")
	s.acc.deps.Bridge.Request("put", s.obj.Resource()+"/config", map[string]any{"alert": "select"}, func(err error) {
		if err != nil {
			s.logger.Error("sensor@set: identify failed", zap.Error(err))
		}
		done(err)
	})
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
