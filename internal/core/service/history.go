package service

import (
	"maps"
	"time"

	"github.com/advanliempt/homebridge-hue/internal/core/domain"
	"go.uber.org/zap"
)

type historyPhase int

const (
	HISTORY_INITIALISING historyPhase = iota
	HISTORY_STEADY
)

// historyContext aggregates the history entry of one accessory. The first
// sensor claiming it decides the category and owns the entry.
type historyContext struct {
	category    domain.HistoryCategory
	ownerKey    string
	initialTime time.Time
	phase       historyPhase
	time        time.Time
	entry       map[string]float64

	pending  bool
	snapshot map[string]float64

	// energy
	power       float64
	powerTime   time.Time
	consumption float64
	total       float64
	baseline    *float64
}

func newHistoryContext(category domain.HistoryCategory, ownerKey string, now time.Time) *historyContext {
	return &historyContext{
		category:    category,
		ownerKey:    ownerKey,
		initialTime: now,
		phase:       HISTORY_INITIALISING,
		entry:       map[string]float64{},
	}
}

func (a *Accessory) claimHistory(s *Sensor) {
	category := s.desc.History
	if category == domain.HISTORY_NONE {
		return
	}
	if a.history == nil {
		a.history = newHistoryContext(category, s.desc.Key, a.deps.now())
	} else if a.history.category != category {
		return
	}
	s.history = true
	h := a.history

	switch category {
	case domain.HISTORY_DOOR:
		s.hk["timesOpened"] = 0.0
		s.expose(domain.CHAR_TIMES_OPENED, "", domain.Props{ReadOnly: true}, nil)
		s.update(domain.CHAR_TIMES_OPENED, 0.0)
		s.expose(domain.CHAR_RESET_TOTAL, "", domain.Props{}, func(_ any, done func(error)) {
			s.hk["timesOpened"] = 0.0
			s.update(domain.CHAR_TIMES_OPENED, 0.0)
			done(nil)
		})
		fallthrough
	case domain.HISTORY_MOTION:
		s.expose(domain.CHAR_LAST_ACTIVATION, " s", domain.Props{ReadOnly: true}, nil)
		h.entry["status"] = 0
	case domain.HISTORY_ENERGY:
		switch {
		case h.ownerKey == "power" && s.desc.Key == "power":
			h.consumption = 0
			h.total = 0
			s.expose(domain.CHAR_TOTAL_CONSUMPTION, " kWh", domain.Props{ReadOnly: true}, nil)
			s.expose(domain.CHAR_RESET_TOTAL, "", domain.Props{}, func(_ any, done func(error)) {
				h.total = 0
				s.update(domain.CHAR_TOTAL_CONSUMPTION, 0.0)
				done(nil)
			})
		case h.ownerKey == "consumption" && s.desc.Key == "consumption" && !a.hasPower:
			s.expose(domain.CHAR_CURRENT_CONSUMPTION, " W", domain.Props{ReadOnly: true}, nil)
		}
		h.entry["power"] = 0
	case domain.HISTORY_THERMO:
		h.entry["currentTemp"] = 0
		h.entry["setTemp"] = 0
		h.entry["valvePosition"] = 0
	case domain.HISTORY_WEATHER:
		h.entry["temp"] = 0
		h.entry["humidity"] = 0
		h.entry["pressure"] = 0
	}
}

// addEntry folds the sensor's current value into the accessory's history
// entry. changed is set when the value itself changed, and cleared for the
// periodic tick, which is what commits most categories.
func (s *Sensor) addEntry(changed bool) {
	if !s.history {
		return
	}
	h := s.acc.history
	now := s.acc.deps.now()
	initialising := h.phase == HISTORY_INITIALISING
	h.phase = HISTORY_STEADY
	h.time = now
	value, _ := domain.Number(s.hk[s.desc.Key])

	var snapshot map[string]float64
	switch h.category {
	case domain.HISTORY_DOOR:
		if changed {
			times, _ := domain.Number(s.hk["timesOpened"])
			s.hk["timesOpened"] = times + value
			s.update(domain.CHAR_TIMES_OPENED, times+value)
		}
		fallthrough
	case domain.HISTORY_MOTION:
		if changed {
			activation := float64(int64(now.Sub(h.initialTime).Seconds()))
			s.hk["lastActivation"] = activation
			s.update(domain.CHAR_LAST_ACTIVATION, activation)
		}
		h.entry["status"] = value
	case domain.HISTORY_ENERGY:
		if h.ownerKey == "power" && s.desc.Key == "power" {
			if !initialising {
				delta := h.power * now.Sub(h.powerTime).Seconds()
				h.consumption += domain.Round(delta / 600)
				h.total += domain.Round(delta / 3600)
			}
			h.power = value
			h.powerTime = now
		}
		if changed || s.desc.Key != h.ownerKey {
			return
		}
		if h.ownerKey == "power" {
			h.entry["power"] = h.consumption
			h.consumption = 0
			s.logger.Info("sensor@history: set total consumption", zap.Float64("kWh", h.total/1000))
			s.update(domain.CHAR_TOTAL_CONSUMPTION, h.total/1000)
		} else {
			raw, _ := domain.Number(s.obj.State["consumption"])
			baseline := h.baseline
			h.baseline = &raw
			if baseline == nil {
				return
			}
			h.entry["power"] = (raw - *baseline) * 6
			if !s.acc.hasPower {
				s.logger.Info("sensor@history: set current consumption", zap.Float64("W", h.entry["power"]))
				s.update(domain.CHAR_CURRENT_CONSUMPTION, h.entry["power"])
			}
		}
	case domain.HISTORY_THERMO:
		h.entry["currentTemp"], _ = domain.Number(s.hk["temperature"])
		h.entry["setTemp"], _ = domain.Number(s.hk["targetTemperature"])
		snapshot = maps.Clone(h.entry)
		if changed {
			return
		}
	case domain.HISTORY_WEATHER:
		key := s.desc.Key
		if key == "temperature" {
			key = "temp"
		}
		h.entry[key] = value
		if changed || s.desc.Key != h.ownerKey {
			return
		}
	default:
		return
	}
	if initialising {
		return
	}
	s.acc.commitHistory(snapshot)
}

// commitHistory records the entry once the current pass is over, so updates
// from the same pass end up in one record. snapshot, when set, is recorded
// instead of the entry as it is at that time.
func (a *Accessory) commitHistory(snapshot map[string]float64) {
	h := a.history
	if snapshot != nil {
		h.snapshot = snapshot
	}
	if h.pending {
		return
	}
	h.pending = true
	a.deps.Scheduler.Defer(func() {
		h.pending = false
		fields := h.entry
		if h.snapshot != nil {
			fields = h.snapshot
			h.snapshot = nil
		}
		entry := domain.HistoryEntry{
			Accessory: a.Id,
			Category:  h.category,
			Time:      h.time,
			Fields:    maps.Clone(fields),
		}
		a.logger.Debug("accessory@history: add entry", zap.Any("fields", entry.Fields))
		if a.deps.History != nil {
			a.deps.History.Record(entry)
		}
	})
}
