package space

import "testing"

func TestIntegerDimensionIndexValueAt(t *testing.T) {
	d, err := NewIntegerDimension("i", 0, 10, 2)
	if err != nil {
		t.Fatalf("NewIntegerDimension: %v", err)
	}
	limit, err := d.Limit()
	if err != nil || limit != 6 {
		t.Fatalf("Limit() = %d, %v, want 6, nil", limit, err)
	}
	for i := int64(0); i < limit; i++ {
		v, err := d.ValueAt(i)
		if err != nil {
			t.Fatalf("ValueAt(%d): %v", i, err)
		}
		idx, err := d.Index(v)
		if err != nil || idx != i {
			t.Fatalf("Index(ValueAt(%d)) = %d, %v, want %d, nil", i, idx, err, i)
		}
	}
}

func TestIntegerDimensionInvalid(t *testing.T) {
	if _, err := NewIntegerDimension("i", 5, 0, 1); err == nil {
		t.Fatalf("expected error for min > max")
	}
	if _, err := NewIntegerDimension("i", 0, 5, 0); err == nil {
		t.Fatalf("expected error for non-positive step")
	}
}

func TestIntegerDimensionAlign(t *testing.T) {
	d, _ := NewIntegerDimension("i", 0, 10, 3)
	cases := []struct {
		in   float64
		want int64
	}{
		{-5, 0}, {1, 0}, {2, 3}, {100, 9}, {7, 6},
	}
	for _, c := range cases {
		av, err := d.Align(RealValue(c.in))
		if err != nil {
			t.Fatalf("Align(%g): %v", c.in, err)
		}
		if av.Int != c.want {
			t.Fatalf("Align(%g) = %d, want %d", c.in, av.Int, c.want)
		}
	}
}

func TestIntegerDimensionAlignIdempotent(t *testing.T) {
	d, _ := NewIntegerDimension("i", 0, 10, 3)
	for x := -2.0; x <= 14; x += 0.7 {
		once, err := d.Align(RealValue(x))
		if err != nil {
			t.Fatalf("Align(%g): %v", x, err)
		}
		twice, err := d.Align(once)
		if err != nil {
			t.Fatalf("Align(Align(%g)): %v", x, err)
		}
		if !once.Equal(twice) {
			t.Fatalf("Align not idempotent at %g: once=%v twice=%v", x, once, twice)
		}
	}
}

func TestRealDimensionAlignClamps(t *testing.T) {
	d, _ := NewRealDimension("x", -5, 5)
	v, err := d.Align(RealValue(100))
	if err != nil || v.Real != 5 {
		t.Fatalf("Align(100) = %v, %v, want 5, nil", v, err)
	}
	v, err = d.Align(RealValue(-100))
	if err != nil || v.Real != -5 {
		t.Fatalf("Align(-100) = %v, %v, want -5, nil", v, err)
	}
}

func TestEnumDimensionIndexValueAt(t *testing.T) {
	d, err := NewEnumDimension("mode", []string{"fast", "medium", "slow"})
	if err != nil {
		t.Fatalf("NewEnumDimension: %v", err)
	}
	idx, err := d.Index(EnumValue("medium"))
	if err != nil || idx != 1 {
		t.Fatalf("Index(medium) = %d, %v, want 1, nil", idx, err)
	}
	if _, err := d.Index(EnumValue("bogus")); err == nil {
		t.Fatalf("expected error for unknown enum value")
	}
}

func TestEnumDimensionAlignRequiresExactMatch(t *testing.T) {
	d, _ := NewEnumDimension("mode", []string{"fast", "slow"})
	if _, err := d.Align(EnumValue("medium")); err == nil {
		t.Fatalf("expected Align to fail for a non-member enum value")
	}
}

func TestRealDimensionNextAboveWraps(t *testing.T) {
	d, _ := NewRealDimension("x", 0, 1)
	v, ok := d.NextAbove(RealValue(1))
	if ok {
		t.Fatalf("NextAbove at max should report no forward progress")
	}
	if v.Real != 0 {
		t.Fatalf("NextAbove at max should wrap to min, got %g", v.Real)
	}

	v, ok = d.NextAbove(RealValue(0.5))
	if !ok {
		t.Fatalf("NextAbove below max should report forward progress")
	}
	if v.Real <= 0.5 {
		t.Fatalf("NextAbove(0.5) = %g, want > 0.5", v.Real)
	}
}

func TestIntegerDimensionNextAboveOdometer(t *testing.T) {
	d, _ := NewIntegerDimension("i", 0, 4, 2)
	v, ok := d.NextAbove(IntValue(2))
	if !ok || v.Int != 4 {
		t.Fatalf("NextAbove(2) = %v, %v, want 4, true", v, ok)
	}
	v, ok = d.NextAbove(IntValue(4))
	if ok || v.Int != 0 {
		t.Fatalf("NextAbove(4) (at max) = %v, %v, want 0, false", v, ok)
	}
}
