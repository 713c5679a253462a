package registry

import (
	"github.com/advanliempt/homebridge-hue/internal/core/domain"
	"github.com/pkg/errors"
)

var ErrUnsupported = errors.New("unsupported sensor type")

// Key identifies a bridge sensor for descriptor lookup.
type Key struct {
	Type         string
	Manufacturer string
	Model        string
	Endpoint     string
	SwVersion    string
}

func (k Key) zigbee() bool {
	return len(k.Type) > 0 && k.Type[0] == 'Z'
}

type Options struct {
	DimmerRepeat bool
}

// Descriptor tells the engine how to expose one bridge sensor.
type Descriptor struct {
	Family Family
	// primary state key and its display name
	Key            string
	Name           string
	Characteristic domain.CharacteristicType
	Unit           string
	Value          Transform
	// nil keeps the characteristic defaults
	Props    *domain.Props
	Settable bool
	Encode   Encoding
	History  domain.HistoryCategory

	DurationKey         string
	LocalDuration       bool
	ReadonlySensitivity bool

	Buttons []Button
	Decoder Decoder
	Repeat  bool

	// applied to the initial bridge state before the first diff
	StateDefaults map[string]any

	// Known is false when the vendor/model is not in the table.
	Known bool
	// Inert sensors are tracked but expose nothing.
	Inert bool
}

// HasValue reports whether the descriptor exposes a primary characteristic.
func (d Descriptor) HasValue() bool {
	return !d.Inert && d.Characteristic != ""
}

func (d Descriptor) Button(index int) (Button, bool) {
	for _, b := range d.Buttons {
		if b.Index == index {
			return b, true
		}
	}
	return Button{}, false
}

// Resolve returns the descriptor for a sensor. It is pure: the same key and
// options always give the same descriptor.
func Resolve(k Key, o Options) (Descriptor, error) {
	family := FamilyOf(k.Type)
	entry, ok := families[family]
	if !ok {
		return Descriptor{}, errors.Wrapf(ErrUnsupported, "type %q", k.Type)
	}
	d := entry.base(k, o)
	d.Family = family
	d.Known = true

	if !entry.checked(k) {
		if v := bestVariant(entry.variants, k); v != nil && v.apply != nil {
			v.apply(&d, k, o)
		}
		return d, nil
	}
	v := bestVariant(entry.variants, k)
	if v == nil {
		d.Known = false
		if entry.strict {
			return Descriptor{Family: family, Inert: true}, nil
		}
		return d, nil
	}
	if v.apply != nil {
		v.apply(&d, k, o)
	}
	return d, nil
}
