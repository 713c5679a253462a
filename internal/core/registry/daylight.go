package registry

// DaylightEvent is one entry of the bridge's daylight status table.
type DaylightEvent struct {
	Name   string
	Period string
}

type DaylightPeriod struct {
	LightLevel int
	Daylight   bool
	Dark       bool
}

var daylightEvents = map[int]DaylightEvent{
	100: {"Solar Midnight", "Night"},
	110: {"Astronomical Dawn", "Astronomical Twilight"},
	120: {"Nautical Dawn", "Nautical Twilight"},
	130: {"Dawn", "Twilight"},
	140: {"Sunrise", "Sunrise"},
	150: {"End Sunrise", "Golden Hour"},
	160: {"End Golden Hour", "Day"},
	170: {"Solar Noon", "Day"},
	180: {"Start Golden Hour", "Golden Hour"},
	190: {"Start Sunset", "Sunset"},
	200: {"Sunset", "Twilight"},
	210: {"Dusk", "Nautical Twilight"},
	220: {"Nautical Dusk", "Astronomical Twilight"},
	230: {"Astronomical Dusk", "Night"},
}

var daylightPeriods = map[string]DaylightPeriod{
	"Night":                 {0, false, true},
	"Astronomical Twilight": {100, false, true},
	"Nautical Twilight":     {1000, false, true},
	"Twilight":              {10000, false, false},
	"Sunrise":               {15000, true, false},
	"Sunset":                {20000, true, false},
	"Golden Hour":           {40000, true, false},
	"Day":                   {65535, true, false},
}

// Daylight looks up a daylight status code. ok is false for codes outside the
// table.
func Daylight(status int) (DaylightEvent, DaylightPeriod, bool) {
	event, ok := daylightEvents[status]
	if !ok {
		return DaylightEvent{}, DaylightPeriod{}, false
	}
	return event, daylightPeriods[event.Period], true
}
