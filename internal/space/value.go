// Package space implements the tuning parameter space: typed dimensions
// (integer, real, enum) and the ordered collection of them a session tunes
// over.
package space

import (
	"fmt"
	"strconv"
)

// Kind tags the underlying representation of a Value.
type Kind int

const (
	KindInt Kind = iota
	KindReal
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindReal:
		return "real"
	case KindEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// Value is a tagged union over {int64, real64, string}. Exactly one of Int,
// Real, or Enum is meaningful, selected by Kind.
type Value struct {
	Kind Kind
	Int  int64
	Real float64
	Enum string
}

// IntValue builds an integer-tagged Value.
func IntValue(i int64) Value { return Value{Kind: KindInt, Int: i} }

// RealValue builds a real-tagged Value.
func RealValue(r float64) Value { return Value{Kind: KindReal, Real: r} }

// EnumValue builds a string-tagged Value.
func EnumValue(s string) Value { return Value{Kind: KindEnum, Enum: s} }

// Equal reports whether two values of the same kind carry the same payload.
// Values of differing kinds are never equal.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindInt:
		return v.Int == o.Int
	case KindReal:
		return v.Real == o.Real
	case KindEnum:
		return v.Enum == o.Enum
	default:
		return false
	}
}

// Numeric returns the value's coordinate on the real line: the integer or
// real payload directly, and 0 for an enum value, which carries no index of
// its own (its position comes from Dimension.Index). It is used by simplex
// strategies, which treat every dimension as a continuous coordinate.
func (v Value) Numeric() float64 {
	switch v.Kind {
	case KindInt:
		return float64(v.Int)
	case KindReal:
		return v.Real
	default:
		return 0
	}
}

// String renders a value in the format point_parse/point_format round-trip
// through: decimal for int, shortest round-trippable decimal for real,
// bareword for enum.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindReal:
		return strconv.FormatFloat(v.Real, 'g', -1, 64)
	case KindEnum:
		return v.Enum
	default:
		return ""
	}
}

// HexReal renders a real value in Go's canonical hex float form, the
// loss-free counterpart to the decimal rendering used by log consumers that
// want an exact round trip.
func (v Value) HexReal() (string, error) {
	if v.Kind != KindReal {
		return "", fmt.Errorf("space: HexReal called on non-real value (kind %s)", v.Kind)
	}
	return strconv.FormatFloat(v.Real, 'x', -1, 64), nil
}
