package domain

import (
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Number converts a raw bridge value into a float64. JSON numbers decode as
// float64, booleans count as 0 or 1.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Truthy reports whether a raw value counts as set: true, a non-zero number or
// a non-empty string.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	n, ok := Number(v)
	return ok && n != 0 && !math.IsNaN(n)
}

// Round rounds half up, so Round(-0.5) == 0 and Round(0.5) == 1.
func Round(x float64) float64 {
	return math.Floor(x + 0.5)
}

// ToInt truncates v to an integer and clamps it to [min, max]. Values that do
// not parse fall back to min.
func ToInt(v any, min, max int) int {
	var n float64
	switch t := v.(type) {
	case string:
		n = parseLeadingInt(t)
	case nil, bool:
		return min
	default:
		f, ok := Number(v)
		if !ok {
			return min
		}
		n = f
	}
	if math.IsNaN(n) || n < float64(min) {
		return min
	}
	if n > float64(max) {
		return max
	}
	return int(math.Trunc(n))
}

func parseLeadingInt(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	for i, r := range s {
		if (r == '-' || r == '+') && i == 0 {
			end = i + 1
			continue
		}
		if r < '0' || r > '9' {
			break
		}
		end = i + 1
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return math.NaN()
	}
	return float64(n)
}

// SameValue compares two raw values. Numbers compare by value regardless of
// their Go type.
func SameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	_, aBool := a.(bool)
	_, bBool := b.(bool)
	_, aStr := a.(string)
	_, bStr := b.(string)
	if !aBool && !bBool && !aStr && !bStr {
		an, aok := Number(a)
		bn, bok := Number(b)
		if aok && bok {
			return an == bn
		}
	}
	return reflect.DeepEqual(a, b)
}
