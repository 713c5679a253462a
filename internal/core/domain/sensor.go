package domain

import (
	"fmt"
	"maps"
	"strings"
)

// SensorObject is the raw snapshot of one bridge sensor, as delivered by the
// bridge on every poll or event.
type SensorObject struct {
	Id           string         `json:"id"`
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	Manufacturer string         `json:"manufacturername"`
	Model        string         `json:"modelid"`
	UniqueId     string         `json:"uniqueid"`
	SwVersion    string         `json:"swversion"`
	State        map[string]any `json:"state"`
	Config       map[string]any `json:"config"`
}

func (s SensorObject) Resource() string {
	return fmt.Sprintf("/sensors/%s", s.Id)
}

// Zigbee reports whether the sensor is a Zigbee device rather than a bridge
// internal (CLIP) sensor.
func (s SensorObject) Zigbee() bool {
	return strings.HasPrefix(s.Type, "Z")
}

// Endpoint returns the Zigbee endpoint from the unique id
// (00:17:88:01:02:00:af:1c-02-0406 => 02).
func (s SensorObject) Endpoint() string {
	parts := strings.Split(s.UniqueId, "-")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// MultiCLIP reports whether this is one of several CLIP sensors created
// together, sharing the unique id prefix.
func (s SensorObject) MultiCLIP() bool {
	return !s.Zigbee() && s.Manufacturer == "homebridge-hue" && s.Model == s.Type &&
		s.Endpoint() == s.Id
}

// AccessoryId groups sensors into accessories: Zigbee sensors by device
// address, multi CLIP sensors by unique id prefix, anything else stands alone.
func (s SensorObject) AccessoryId() string {
	if s.Zigbee() || s.MultiCLIP() {
		prefix := strings.Split(s.UniqueId, "-")[0]
		if prefix != "" {
			return SanitizeId(prefix)
		}
	}
	return fmt.Sprintf("sensor%s", s.Id)
}

// Clone copies the snapshot so the engine can keep a private last-seen copy.
func (s SensorObject) Clone() SensorObject {
	c := s
	c.State = maps.Clone(s.State)
	c.Config = maps.Clone(s.Config)
	if c.State == nil {
		c.State = map[string]any{}
	}
	if c.Config == nil {
		c.Config = map[string]any{}
	}
	return c
}

// SanitizeId lowercases id and replaces anything outside [a-z0-9_] with '_'.
func SanitizeId(id string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(id) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
