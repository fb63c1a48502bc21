package evaluator

import (
	"strconv"
	"strings"
)

// toIntegerValue converts v to Integer per FHIRPath's toInteger() rules:
// Integer passes through, Decimal truncates only when whole-valued... in
// practice FHIRPath requires an exact whole value; a fractional Decimal
// fails to convert. Strings parse as base-10 integers; Booleans convert to
// 1/0.
func toIntegerValue(v interface{}) (interface{}, bool) {
	switch x := v.(type) {
	case Integer:
		return x, true
	case Decimal:
		if float64(x) == float64(int64(x)) {
			return Integer(int64(x)), true
		}
		return nil, false
	case String:
		i, err := strconv.ParseInt(strings.TrimSpace(string(x)), 10, 64)
		if err != nil {
			return nil, false
		}
		return Integer(i), true
	case Boolean:
		if x {
			return Integer(1), true
		}
		return Integer(0), true
	default:
		return nil, false
	}
}

// toDecimalValue converts v to Decimal.
func toDecimalValue(v interface{}) (interface{}, bool) {
	switch x := v.(type) {
	case Decimal:
		return x, true
	case Integer:
		return Decimal(x), true
	case String:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
		if err != nil {
			return nil, false
		}
		return Decimal(f), true
	case Boolean:
		if x {
			return Decimal(1), true
		}
		return Decimal(0), true
	default:
		return nil, false
	}
}

// toBooleanValue converts v to Boolean. String-to-boolean accepts
// case-insensitive t/true/yes/y/1 and f/false/no/n/0; anything else fails
// to convert (spec.md §4.6).
func toBooleanValue(v interface{}) (interface{}, bool) {
	switch x := v.(type) {
	case Boolean:
		return x, true
	case Integer:
		if x == 0 {
			return Boolean(false), true
		}
		if x == 1 {
			return Boolean(true), true
		}
		return nil, false
	case String:
		switch strings.ToLower(strings.TrimSpace(string(x))) {
		case "t", "true", "yes", "y", "1":
			return Boolean(true), true
		case "f", "false", "no", "n", "0":
			return Boolean(false), true
		default:
			return nil, false
		}
	default:
		return nil, false
	}
}
