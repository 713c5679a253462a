package registry

import (
	"math"

	"github.com/advanliempt/homebridge-hue/internal/core/domain"
)

// Transform converts a raw bridge value into the external value.
type Transform int

const (
	TRANSFORM_NONE Transform = iota
	TRANSFORM_BOOL
	TRANSFORM_TEMPERATURE
	TRANSFORM_LIGHT_LEVEL
	TRANSFORM_HUMIDITY
	TRANSFORM_PRESSURE
	TRANSFORM_KILO
	TRANSFORM_IDENTITY
	TRANSFORM_STATUS
)

func (t Transform) Apply(raw any) float64 {
	switch t {
	case TRANSFORM_BOOL:
		if domain.Truthy(raw) {
			return 1
		}
		return 0
	case TRANSFORM_TEMPERATURE:
		if !domain.Truthy(raw) {
			return 0
		}
		v, _ := domain.Number(raw)
		return domain.Round(v/10) / 10
	case TRANSFORM_LIGHT_LEVEL:
		v, _ := domain.Number(raw)
		return LightLevel(v)
	case TRANSFORM_HUMIDITY:
		if !domain.Truthy(raw) {
			return 0
		}
		v, _ := domain.Number(raw)
		return domain.Round(v / 100)
	case TRANSFORM_PRESSURE:
		if !domain.Truthy(raw) {
			return 0
		}
		v, _ := domain.Number(raw)
		return domain.Round(v)
	case TRANSFORM_KILO:
		v, _ := domain.Number(raw)
		return v / 1000
	case TRANSFORM_IDENTITY:
		v, _ := domain.Number(raw)
		return v
	case TRANSFORM_STATUS:
		v, _ := domain.Number(raw)
		return math.Max(-127, math.Min(127, v))
	}
	return 0
}

// LightLevel converts the bridge's 10000*log10(lux)+1 encoding to lux, with 4
// decimals and clamped to [0.0001, 100000].
func LightLevel(v float64) float64 {
	l := 0.0001
	if v != 0 {
		l = math.Pow(10, (v-1)/10000)
	}
	l = domain.Round(l*10000) / 10000
	if l > 100000 {
		return 100000
	}
	if l < 0.0001 {
		return 0.0001
	}
	return l
}

// Encoding converts an external value back into the raw bridge value.
type Encoding int

const (
	ENCODING_NONE Encoding = iota
	ENCODING_BOOL
	ENCODING_IDENTITY
)

func (e Encoding) Apply(value float64) any {
	switch e {
	case ENCODING_BOOL:
		return value != 0
	case ENCODING_IDENTITY:
		return value
	}
	return nil
}
