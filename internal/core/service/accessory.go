package service

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/advanliempt/homebridge-hue/internal/core/domain"
	"github.com/advanliempt/homebridge-hue/internal/core/registry"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const batteryService = "battery"

// Accessory is the group of bridge sensors belonging to one physical device.
type Accessory struct {
	Id           string
	Name         string
	Manufacturer string
	Model        string
	Version      string

	opts   Options
	deps   Deps
	logger *zap.Logger

	sensors []*Sensor
	byId    map[string]*Sensor
	specs   []domain.CharacteristicSpec

	history  *historyContext
	hasPower bool

	battery       bool
	batteryMirror map[string]float64
}

// Group is the set of sensor snapshots forming one accessory.
type Group struct {
	Id      string
	Sensors []domain.SensorObject
}

// GroupSensors splits bridge sensors into accessories, ordered by accessory id.
func GroupSensors(objs []domain.SensorObject) []Group {
	byId := map[string]*Group{}
	var groups []*Group
	for _, obj := range objs {
		id := obj.AccessoryId()
		g, ok := byId[id]
		if !ok {
			g = &Group{Id: id}
			byId[id] = g
			groups = append(groups, g)
		}
		g.Sensors = append(g.Sensors, obj)
	}
	slices.SortFunc(groups, func(a, b *Group) int { return cmp.Compare(a.Id, b.Id) })
	res := make([]Group, 0, len(groups))
	for _, g := range groups {
		res = append(res, *g)
	}
	return res
}

func sortById(objs []domain.SensorObject) []domain.SensorObject {
	sorted := slices.Clone(objs)
	slices.SortStableFunc(sorted, func(a, b domain.SensorObject) int {
		ai, aerr := strconv.Atoi(a.Id)
		bi, berr := strconv.Atoi(b.Id)
		if aerr == nil && berr == nil {
			return cmp.Compare(ai, bi)
		}
		return cmp.Compare(a.Id, b.Id)
	})
	return sorted
}

// NewAccessory builds the sensors of one accessory and exposes their
// characteristics. Sensors of an unsupported type are skipped.
func NewAccessory(id string, objs []domain.SensorObject, opts Options, deps Deps) *Accessory {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	a := &Accessory{
		Id:            id,
		opts:          opts,
		deps:          deps,
		logger:        deps.Logger.With(zap.String("accessory", id)),
		byId:          map[string]*Sensor{},
		batteryMirror: map[string]float64{},
	}
	objs = sortById(objs)
	for _, obj := range objs {
		if obj.Type == "ZHAPower" || obj.Type == "CLIPPower" {
			a.hasPower = true
		}
	}
	if len(objs) > 0 {
		first := objs[0]
		a.Name = first.Name
		a.Manufacturer = first.Manufacturer
		a.Model = first.Model
		a.Version = first.SwVersion
		if first.MultiCLIP() {
			a.Model = "MultiCLIP"
		}
	}

	var batteryRaw any
	for _, obj := range objs {
		desc, err := registry.Resolve(registry.Key{
			Type:         obj.Type,
			Manufacturer: obj.Manufacturer,
			Model:        obj.Model,
			Endpoint:     obj.Endpoint(),
			SwVersion:    obj.SwVersion,
		}, opts.Registry)
		if errors.Is(err, registry.ErrUnsupported) {
			a.logger.Warn("accessory@init: ignoring unsupported sensor", zap.String("sensor", obj.Name),
				zap.String("resource", obj.Resource()), zap.Error(err))
			continue
		} else if err != nil {
			a.logger.Error("accessory@init: cannot resolve sensor", zap.String("sensor", obj.Name), zap.Error(err))
			continue
		}
		s := newSensor(a, obj, desc)
		a.sensors = append(a.sensors, s)
		a.byId[obj.Id] = s
		if raw, ok := obj.Config["battery"]; ok && !desc.Inert && !a.battery {
			a.battery = true
			batteryRaw = raw
		}
	}
	if a.battery {
		a.expose(domain.CharacteristicSpec{
			Ref:         a.batteryRef(domain.CHAR_BATTERY_LEVEL),
			ServiceName: a.Name,
			Unit:        "%",
			Props:       domain.Props{Min: 0, Max: 100, Bounded: true, ReadOnly: true},
		})
		a.expose(domain.CharacteristicSpec{
			Ref:         a.batteryRef(domain.CHAR_STATUS_LOW_BATTERY),
			ServiceName: a.Name,
			Props:       domain.Props{ReadOnly: true},
		})
		a.checkBattery(batteryRaw)
	}
	return a
}

func (a *Accessory) expose(spec domain.CharacteristicSpec) {
	a.specs = append(a.specs, spec)
	a.deps.Presentation.Expose(spec)
}

func (a *Accessory) batteryRef(c domain.CharacteristicType) domain.CharacteristicRef {
	return domain.CharacteristicRef{Accessory: a.Id, Service: batteryService, Characteristic: c}
}

func (a *Accessory) checkBattery(raw any) {
	if !a.battery {
		return
	}
	level := float64(domain.ToInt(raw, 0, 100))
	low := float64(domain.BATTERY_LEVEL_NORMAL)
	if level <= float64(a.opts.LowBattery) {
		low = domain.BATTERY_LEVEL_LOW
	}
	if old, ok := a.batteryMirror["battery"]; !ok || old != level {
		if ok {
			a.logger.Info("accessory@state: set battery", zap.Float64("from", old), zap.Float64("to", level))
		}
		a.batteryMirror["battery"] = level
		a.deps.Presentation.Update(a.batteryRef(domain.CHAR_BATTERY_LEVEL), level)
	}
	if old, ok := a.batteryMirror["lowBattery"]; !ok || old != low {
		a.batteryMirror["lowBattery"] = low
		a.deps.Presentation.Update(a.batteryRef(domain.CHAR_STATUS_LOW_BATTERY), low)
	}
}

// Heartbeat diffs the snapshots of a poll against the accessory's sensors.
// Snapshots of sensors the accessory does not track are ignored.
func (a *Accessory) Heartbeat(beat int, objs []domain.SensorObject) {
	for _, obj := range objs {
		if s, ok := a.byId[obj.Id]; ok {
			s.Heartbeat(beat, obj)
		}
	}
}

// Event applies a change pushed by the bridge.
func (a *Accessory) Event(ev domain.BridgeEvent) {
	s, ok := a.byId[ev.Id]
	if !ok {
		return
	}
	if ev.State != nil {
		s.CheckState(ev.State, true)
	}
	if ev.Config != nil {
		s.CheckConfig(ev.Config)
	}
}

// HistoryTick adds a periodic entry for every history bearing sensor.
func (a *Accessory) HistoryTick() {
	for _, s := range a.sensors {
		if s.history {
			s.addEntry(false)
		}
	}
}

func (a *Accessory) Sensor(id string) (*Sensor, bool) {
	s, ok := a.byId[id]
	return s, ok
}

func (a *Accessory) Sensors() []*Sensor {
	return a.sensors
}

func (a *Accessory) Info() domain.AccessoryInfo {
	info := domain.AccessoryInfo{
		Id:              a.Id,
		Name:            a.Name,
		Manufacturer:    a.Manufacturer,
		Model:           a.Model,
		Version:         a.Version,
		Characteristics: slices.Clone(a.specs),
	}
	for _, s := range a.sensors {
		info.Sensors = append(info.Sensors, s.Info())
	}
	return info
}

// Close cancels every pending hold.
func (a *Accessory) Close() {
	for _, s := range a.sensors {
		s.Close()
	}
}
