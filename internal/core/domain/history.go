package domain

import (
	"maps"
	"time"
)

type HistoryCategory string

const (
	HISTORY_NONE    HistoryCategory = ""
	HISTORY_DOOR    HistoryCategory = "door"
	HISTORY_MOTION  HistoryCategory = "motion"
	HISTORY_ENERGY  HistoryCategory = "energy"
	HISTORY_THERMO  HistoryCategory = "thermo"
	HISTORY_WEATHER HistoryCategory = "weather"
)

// HistoryEntry is one committed history record of an accessory.
type HistoryEntry struct {
	Accessory string
	Category  HistoryCategory
	Time      time.Time
	Fields    map[string]float64
}

func (e HistoryEntry) Clone() HistoryEntry {
	c := e
	c.Fields = maps.Clone(e.Fields)
	return c
}
