package service

import (
	"fmt"
	"maps"
	"time"

	"github.com/advanliempt/homebridge-hue/internal/core/domain"
	"github.com/advanliempt/homebridge-hue/internal/core/port"
	"github.com/advanliempt/homebridge-hue/internal/core/registry"
	"go.uber.org/zap"
)

// discrete durations in seconds a motion sensor accepts
var durationValues = []float64{5, 10, 20, 30, 60, 120, 300, 600, 1200, 1800, 3600, 7200, 10800, 18000, 36000, 43200, 86400}

// Sensor keeps the last seen bridge snapshot of one sensor and the values
// last published for it.
type Sensor struct {
	acc     *Accessory
	obj     domain.SensorObject
	desc    registry.Descriptor
	service string
	logger  *zap.Logger

	hk      map[string]any
	exposed map[domain.CharacteristicType]domain.CharacteristicSpec

	// hold emulation for sensors whose duration lives in the engine
	localDuration bool
	holdSeconds   float64
	hold          *holdTimer

	history bool
}

type holdTimer struct {
	cancel func()
}

func newSensor(acc *Accessory, obj domain.SensorObject, desc registry.Descriptor) *Sensor {
	s := &Sensor{
		acc:     acc,
		obj:     obj.Clone(),
		desc:    desc,
		service: fmt.Sprintf("%s%s", desc.Family, obj.Id),
		hk:      map[string]any{},
		exposed: map[domain.CharacteristicType]domain.CharacteristicSpec{},
		logger:  acc.logger.With(zap.String("sensor", obj.Name), zap.String("resource", obj.Resource())),
	}
	if desc.Inert {
		if !desc.Known {
			s.logger.Warn("sensor@init: ignoring unknown sensor", zap.String("type", obj.Type),
				zap.String("manufacturer", obj.Manufacturer), zap.String("model", obj.Model))
		}
		return s
	}
	if !desc.Known {
		s.logger.Warn("sensor@init: unknown sensor", zap.String("type", obj.Type),
			zap.String("manufacturer", obj.Manufacturer), zap.String("model", obj.Model))
	}
	for k, v := range desc.StateDefaults {
		s.obj.State[k] = v
	}
	if desc.Family == registry.FAMILY_DAYLIGHT {
		if !domain.Truthy(s.obj.Config["configured"]) {
			s.logger.Warn("sensor@init: daylight sensor not configured")
		}
		if s.obj.State["status"] == nil {
			// Hue bridge daylight sensors only report the daylight flag
			s.obj.State["lightlevel"] = daylightLevel(s.obj.State["daylight"])
			s.obj.State["dark"] = !domain.Truthy(s.obj.State["daylight"])
		}
		s.obj.Config["reachable"] = s.obj.Config["configured"]
	}
	s.init()
	return s
}

func (s *Sensor) init() {
	state, config := s.obj.State, s.obj.Config

	for _, b := range s.desc.Buttons {
		s.exposeButton(b)
	}

	if s.desc.HasValue() {
		var handler port.SetHandler
		if s.desc.Settable && (s.desc.Props == nil || !s.desc.Props.ReadOnly) {
			handler = s.setValue
		}
		props := domain.Props{}
		if s.desc.Props != nil {
			props = *s.desc.Props
		}
		s.expose(s.desc.Characteristic, s.desc.Unit, props, handler)
		s.acc.claimHistory(s)
		s.checkValue(state[s.desc.Key])
	}

	s.expose(domain.CHAR_LAST_UPDATED, "", domain.Props{ReadOnly: true}, nil)
	s.checkLastupdated(state["lastupdated"])
	if _, ok := state["dark"]; ok {
		s.expose(domain.CHAR_DARK, "", domain.Props{ReadOnly: true}, nil)
		s.checkDark(state["dark"])
	}
	if _, ok := state["daylight"]; ok {
		s.expose(domain.CHAR_DAYLIGHT, "", domain.Props{ReadOnly: true}, nil)
		s.checkDaylight(state["daylight"])
	}
	if _, ok := state["tampered"]; ok {
		s.expose(domain.CHAR_STATUS_TAMPERED, "", domain.Props{ReadOnly: true}, nil)
		s.checkTampered(state["tampered"])
	}
	if _, ok := state["current"]; ok {
		s.expose(domain.CHAR_ELECTRIC_CURRENT, " A", domain.Props{ReadOnly: true}, nil)
		s.checkCurrent(state["current"])
	}
	if _, ok := state["voltage"]; ok {
		s.expose(domain.CHAR_VOLTAGE, " V", domain.Props{ReadOnly: true}, nil)
		s.checkVoltage(state["voltage"])
	}
	if _, ok := state["on"]; ok {
		s.expose(domain.CHAR_CURRENT_HEATING_COOLING_STATE, "", domain.Props{ReadOnly: true}, nil)
		s.checkStateOn(state["on"])
	}
	_, hasDaylight := state["daylight"]
	if _, ok := state["status"]; ok && hasDaylight {
		s.expose(domain.CHAR_STATUS, "", domain.Props{Min: 100, Max: 230, Bounded: true, ReadOnly: true}, nil)
		s.expose(domain.CHAR_LAST_EVENT, "", domain.Props{ReadOnly: true}, nil)
		s.expose(domain.CHAR_PERIOD, "", domain.Props{ReadOnly: true}, nil)
		s.checkStatus(state["status"])
	}

	if _, ok := config[s.desc.DurationKey]; ok && s.desc.DurationKey != "" {
		s.expose(domain.CHAR_DURATION, " s", domain.Props{ValidValues: durationValues}, s.setDuration)
		s.checkDuration(config[s.desc.DurationKey])
	}
	if s.desc.LocalDuration {
		// 5 s is the device default, which means no hold
		s.localDuration = true
		s.expose(domain.CHAR_DURATION, " s", domain.Props{ValidValues: durationValues}, s.setDuration)
		s.hk["duration"] = 5.0
		s.update(domain.CHAR_DURATION, 5.0)
	}
	if _, ok := config["sensitivity"]; ok && s.obj.Type != "ZHASwitch" {
		var handler port.SetHandler
		props := domain.Props{Min: 0, Max: 7, Bounded: true, ValidValues: []float64{0, 4, 7}, ReadOnly: true}
		if !s.desc.ReadonlySensitivity {
			handler = s.setSensitivity
			props.ReadOnly = false
		}
		s.expose(domain.CHAR_SENSITIVITY, "", props, handler)
		s.checkSensitivity(config["sensitivity"])
	}
	if _, ok := config["offset"]; ok {
		s.expose(domain.CHAR_OFFSET, "°C", domain.Props{Min: -5, Max: 5, Step: 0.1, Bounded: true}, s.setOffset)
		s.checkOffset(config["offset"])
	}
	if _, ok := config["heatsetpoint"]; ok {
		s.expose(domain.CHAR_TARGET_TEMPERATURE, "°C", domain.Props{Min: 10, Max: 38, Step: 0.1, Bounded: true}, s.setTargetTemperature)
		s.checkHeatSetPoint(config["heatsetpoint"])
	}
	if _, ok := config["scheduleron"]; ok {
		s.expose(domain.CHAR_TARGET_HEATING_COOLING_STATE, "", domain.Props{Min: 0, Max: domain.HEATING_COOLING_HEAT, Bounded: true}, s.setTargetHeatingCoolingState)
		s.checkSchedulerOn(config["scheduleron"])
	}
	s.expose(domain.CHAR_STATUS_FAULT, "", domain.Props{ReadOnly: true}, nil)
	s.checkReachable(config["reachable"])
	s.expose(domain.CHAR_STATUS_ACTIVE, "", domain.Props{ReadOnly: true}, nil)
	s.expose(domain.CHAR_ENABLED, "", domain.Props{}, s.setEnabled)
	s.checkOn(config["on"])
	if _, ok := config["alert"]; ok {
		s.expose(domain.CHAR_IDENTIFY, "", domain.Props{}, func(_ any, done func(error)) { s.Identify(done) })
	}
	if s.acc.opts.ExposeResource {
		s.expose(domain.CHAR_RESOURCE, "", domain.Props{ReadOnly: true}, nil)
		s.update(domain.CHAR_RESOURCE, s.obj.Resource())
	}
}

func (s *Sensor) ref(c domain.CharacteristicType) domain.CharacteristicRef {
	return domain.CharacteristicRef{Accessory: s.acc.Id, Service: s.service, Characteristic: c}
}

func (s *Sensor) buttonRef(index int) domain.CharacteristicRef {
	return domain.CharacteristicRef{
		Accessory:      s.acc.Id,
		Service:        fmt.Sprintf("button%d", index),
		Characteristic: domain.CHAR_PROGRAMMABLE_SWITCH_EVENT,
	}
}

func (s *Sensor) expose(c domain.CharacteristicType, unit string, props domain.Props, handler port.SetHandler) {
	if _, ok := s.exposed[c]; ok {
		return
	}
	spec := domain.CharacteristicSpec{
		Ref:         s.ref(c),
		ServiceName: s.obj.Name,
		Unit:        unit,
		Props:       props,
		Settable:    handler != nil,
	}
	s.exposed[c] = spec
	s.acc.expose(spec)
	if handler != nil {
		s.acc.deps.Presentation.OnSet(spec.Ref, handler)
	}
}

func (s *Sensor) exposeButton(b registry.Button) {
	valid := make([]float64, 0, 3)
	for _, a := range b.Mode.Actions() {
		valid = append(valid, float64(a))
	}
	spec := domain.CharacteristicSpec{
		Ref:         s.buttonRef(b.Index),
		ServiceName: s.obj.Name + " " + b.Name,
		Props:       domain.Props{ReadOnly: true, ValidValues: valid},
	}
	s.acc.expose(spec)
}

// update publishes a value, but only for characteristics the sensor exposes.
func (s *Sensor) update(c domain.CharacteristicType, value any) {
	if _, ok := s.exposed[c]; !ok {
		return
	}
	s.acc.deps.Presentation.Update(s.ref(c), value)
}

// publish stores value in the mirror and updates the characteristic when it
// differs from the previously published value.
func (s *Sensor) publish(mirror string, c domain.CharacteristicType, value any, unit string) bool {
	old, seen := s.hk[mirror]
	if seen && domain.SameValue(old, value) {
		return false
	}
	if seen {
		s.logger.Info("sensor@state: set "+mirror, zap.String("from", fmt.Sprintf("%v%s", old, unit)),
			zap.String("to", fmt.Sprintf("%v%s", value, unit)))
	}
	s.hk[mirror] = value
	s.update(c, value)
	return true
}

// cache refreshes the raw last-seen value of key in section.
func (s *Sensor) cache(section map[string]any, name, key string, value any) {
	old, seen := section[key]
	if seen && domain.SameValue(old, value) {
		return
	}
	s.logger.Debug("sensor@state: "+name+"."+key+" changed", zap.Any("from", old), zap.Any("to", value))
	section[key] = value
}

func (s *Sensor) Id() string {
	return s.obj.Id
}

func (s *Sensor) Descriptor() registry.Descriptor {
	return s.desc
}

func (s *Sensor) Info() domain.AccessorySensorInfo {
	return domain.AccessorySensorInfo{
		Id:     s.obj.Id,
		Name:   s.obj.Name,
		Type:   s.obj.Type,
		Family: s.desc.Family.String(),
		Known:  s.desc.Known,
		Mirror: maps.Clone(s.hk),
	}
}

// Close cancels a pending hold.
func (s *Sensor) Close() {
	if s.hold != nil {
		s.hold.cancel()
		s.hold = nil
	}
}

func (s *Sensor) holdDuration() time.Duration {
	return time.Duration(s.holdSeconds * float64(time.Second))
}

func daylightLevel(daylight any) float64 {
	if domain.Truthy(daylight) {
		return 65535
	}
	return 0
}
