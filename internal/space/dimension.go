package space

import (
	"fmt"
	"math"

	"github.com/activeharmony/harmony-core/pkg/utils"
)

// DimKind distinguishes the three dimension shapes a space can declare.
type DimKind int

const (
	DimInteger DimKind = iota
	DimReal
	DimEnum
)

func (k DimKind) String() string {
	switch k {
	case DimInteger:
		return "integer"
	case DimReal:
		return "real"
	case DimEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// Dimension is one named axis of a parameter space: a closed integer
// interval with a step, a closed real interval, or an ordered enumeration of
// strings.
type Dimension struct {
	Name string
	Kind DimKind

	// Integer
	IMin, IMax, Step int64

	// Real
	RMin, RMax float64

	// Enum, ordered; index <-> position
	Values []string
}

// NewIntegerDimension builds a finite integer dimension [min,max] with the
// given positive step.
func NewIntegerDimension(name string, min, max, step int64) (*Dimension, error) {
	if name == "" {
		return nil, fmt.Errorf("space: dimension name must not be empty")
	}
	if min > max {
		return nil, fmt.Errorf("space: dimension %s: min %d exceeds max %d", name, min, max)
	}
	if step <= 0 {
		return nil, fmt.Errorf("space: dimension %s: step must be positive, got %d", name, step)
	}
	return &Dimension{Name: name, Kind: DimInteger, IMin: min, IMax: max, Step: step}, nil
}

// NewRealDimension builds an infinite, non-indexable real dimension [min,max].
func NewRealDimension(name string, min, max float64) (*Dimension, error) {
	if name == "" {
		return nil, fmt.Errorf("space: dimension name must not be empty")
	}
	if min > max {
		return nil, fmt.Errorf("space: dimension %s: min %g exceeds max %g", name, min, max)
	}
	return &Dimension{Name: name, Kind: DimReal, RMin: min, RMax: max}, nil
}

// NewEnumDimension builds a finite enumeration over an ordered, non-empty
// list of strings.
func NewEnumDimension(name string, values []string) (*Dimension, error) {
	if name == "" {
		return nil, fmt.Errorf("space: dimension name must not be empty")
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("space: dimension %s: enum must have at least one value", name)
	}
	cp := make([]string, len(values))
	copy(cp, values)
	return &Dimension{Name: name, Kind: DimEnum, Values: cp}, nil
}

// Finite reports whether the dimension supports Index/Limit/ValueAt.
func (d *Dimension) Finite() bool {
	return d.Kind == DimInteger || d.Kind == DimEnum
}

// Limit returns the number of distinct legal values a finite dimension can
// take. It errors for real dimensions, which are not indexable.
func (d *Dimension) Limit() (int64, error) {
	switch d.Kind {
	case DimInteger:
		return (d.IMax-d.IMin)/d.Step + 1, nil
	case DimEnum:
		return int64(len(d.Values)), nil
	default:
		return 0, fmt.Errorf("space: dimension %s: real dimensions have no index limit", d.Name)
	}
}

// Index maps a legal value to its grid position. It errors for real
// dimensions and for values that do not already sit on the grid.
func (d *Dimension) Index(v Value) (int64, error) {
	switch d.Kind {
	case DimInteger:
		if v.Kind != KindInt {
			return 0, fmt.Errorf("space: dimension %s: expected int value, got %s", d.Name, v.Kind)
		}
		if v.Int < d.IMin || v.Int > d.IMax || (v.Int-d.IMin)%d.Step != 0 {
			return 0, fmt.Errorf("space: dimension %s: value %d is not on the grid", d.Name, v.Int)
		}
		return (v.Int - d.IMin) / d.Step, nil
	case DimEnum:
		if v.Kind != KindEnum {
			return 0, fmt.Errorf("space: dimension %s: expected enum value, got %s", d.Name, v.Kind)
		}
		for i, s := range d.Values {
			if s == v.Enum {
				return int64(i), nil
			}
		}
		return 0, fmt.Errorf("space: dimension %s: value %q is not a member of the enum", d.Name, v.Enum)
	default:
		return 0, fmt.Errorf("space: dimension %s: real dimensions are not indexable", d.Name)
	}
}

// ValueAt maps a grid position back to its value.
func (d *Dimension) ValueAt(i int64) (Value, error) {
	switch d.Kind {
	case DimInteger:
		limit, _ := d.Limit()
		if i < 0 || i >= limit {
			return Value{}, fmt.Errorf("space: dimension %s: index %d out of range [0,%d)", d.Name, i, limit)
		}
		return IntValue(d.IMin + i*d.Step), nil
	case DimEnum:
		if i < 0 || i >= int64(len(d.Values)) {
			return Value{}, fmt.Errorf("space: dimension %s: index %d out of range [0,%d)", d.Name, i, len(d.Values))
		}
		return EnumValue(d.Values[i]), nil
	default:
		return Value{}, fmt.Errorf("space: dimension %s: real dimensions are not indexable", d.Name)
	}
}

// Random draws a uniformly random legal value: for integer/enum dimensions,
// uniform over the index range; for real dimensions, uniform over [min,max].
func (d *Dimension) Random(rng *utils.RandSource) Value {
	switch d.Kind {
	case DimInteger:
		limit, _ := d.Limit()
		i := int64(rng.Intn(int(limit)))
		v, _ := d.ValueAt(i)
		return v
	case DimEnum:
		i := rng.Intn(len(d.Values))
		v, _ := d.ValueAt(int64(i))
		return v
	default:
		return RealValue(rng.UniformFloat64(d.RMin, d.RMax))
	}
}

// Align snaps an arbitrary value to the dimension's nearest legal value:
// integer values round to the nearest step (ties round up) and clamp to
// the first and last grid points, real values clamp to range, and enum
// values must already be an exact member or Align fails.
func (d *Dimension) Align(v Value) (Value, error) {
	switch d.Kind {
	case DimInteger:
		var x float64
		switch v.Kind {
		case KindInt:
			x = float64(v.Int)
		case KindReal:
			x = v.Real
		default:
			return Value{}, fmt.Errorf("space: dimension %s: cannot align %s value onto integer dimension", d.Name, v.Kind)
		}
		if x <= float64(d.IMin) {
			return IntValue(d.IMin), nil
		}
		last := d.IMin + ((d.IMax-d.IMin)/d.Step)*d.Step
		if x >= float64(last) {
			return IntValue(last), nil
		}
		steps := math.Round((x - float64(d.IMin)) / float64(d.Step))
		aligned := d.IMin + int64(steps)*d.Step
		if aligned > last {
			aligned = last
		}
		return IntValue(aligned), nil
	case DimReal:
		var x float64
		switch v.Kind {
		case KindInt:
			x = float64(v.Int)
		case KindReal:
			x = v.Real
		default:
			return Value{}, fmt.Errorf("space: dimension %s: cannot align %s value onto real dimension", d.Name, v.Kind)
		}
		return RealValue(utils.ClampFloat64(x, d.RMin, d.RMax)), nil
	case DimEnum:
		if v.Kind != KindEnum {
			return Value{}, fmt.Errorf("space: dimension %s: cannot align %s value onto enum dimension", d.Name, v.Kind)
		}
		for _, s := range d.Values {
			if s == v.Enum {
				return v, nil
			}
		}
		return Value{}, fmt.Errorf("space: dimension %s: %q is not a member of the enum", d.Name, v.Enum)
	default:
		return Value{}, fmt.Errorf("space: dimension %s: unknown kind", d.Name)
	}
}

// AlignNumeric aligns a bare coordinate (as used by the continuous-space
// simplex strategies) onto this dimension's grid, producing a Value of the
// appropriate kind. Enum dimensions treat the coordinate as a fractional
// index, rounded to the nearest legal position.
func (d *Dimension) AlignNumeric(x float64) (Value, error) {
	switch d.Kind {
	case DimInteger:
		return d.Align(RealValue(x))
	case DimReal:
		return d.Align(RealValue(x))
	case DimEnum:
		n := int64(len(d.Values))
		i := int64(math.Round(x))
		if i < 0 {
			i = 0
		}
		if i >= n {
			i = n - 1
		}
		return d.ValueAt(i)
	default:
		return Value{}, fmt.Errorf("space: dimension %s: unknown kind", d.Name)
	}
}

// NextAbove returns the next representable value above v along this
// dimension: the next grid point for integer/enum dimensions, or the next
// representable float64 (math.Nextafter toward +Inf) for real dimensions.
// The bool result is false if v is already at or past the dimension's
// maximum (the odometer should wrap instead of advancing).
func (d *Dimension) NextAbove(v Value) (Value, bool) {
	switch d.Kind {
	case DimInteger:
		if v.Int+d.Step > d.IMax {
			return IntValue(d.IMin), false
		}
		return IntValue(v.Int + d.Step), true
	case DimEnum:
		idx, err := d.Index(v)
		if err != nil || idx >= int64(len(d.Values))-1 {
			return EnumValue(d.Values[0]), false
		}
		nv, _ := d.ValueAt(idx + 1)
		return nv, true
	case DimReal:
		if v.Real >= d.RMax {
			return RealValue(d.RMin), false
		}
		return RealValue(math.Nextafter(v.Real, math.Inf(1))), true
	default:
		return v, false
	}
}

// Min returns the dimension's zero-index value.
func (d *Dimension) Min() Value {
	switch d.Kind {
	case DimInteger:
		return IntValue(d.IMin)
	case DimReal:
		return RealValue(d.RMin)
	case DimEnum:
		return EnumValue(d.Values[0])
	default:
		return Value{}
	}
}

// Span returns the numeric range of the dimension: max-min for integer and
// real dimensions, or len(values)-1 for enum dimensions treated as an index
// range. Used by strategies that need a scale for step sizes or tolerances.
func (d *Dimension) Span() float64 {
	switch d.Kind {
	case DimInteger:
		return float64(d.IMax - d.IMin)
	case DimReal:
		return d.RMax - d.RMin
	case DimEnum:
		return float64(len(d.Values) - 1)
	default:
		return 0
	}
}
