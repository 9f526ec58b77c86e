package config

import "testing"

func TestStoreSetGet(t *testing.T) {
	s := New()
	s.Set("STRATEGY", "pro")
	if got := s.Get("STRATEGY"); got != "pro" {
		t.Fatalf("Get(STRATEGY) = %q, want %q", got, "pro")
	}
	if got := s.Get("MISSING"); got != "" {
		t.Fatalf("Get(MISSING) = %q, want empty", got)
	}
}

func TestStoreRegisterDefault(t *testing.T) {
	s := New()
	if err := s.Register(Info{Key: "CONVERGE_FV", Default: "1e-4", Help: "fval tolerance"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got := s.Get("CONVERGE_FV"); got != "1e-4" {
		t.Fatalf("Get(CONVERGE_FV) = %q, want default %q", got, "1e-4")
	}
	s.Set("CONVERGE_FV", "1e-6")
	if got := s.Get("CONVERGE_FV"); got != "1e-6" {
		t.Fatalf("Get(CONVERGE_FV) after Set = %q, want %q", got, "1e-6")
	}
}

func TestStoreRegisterConflict(t *testing.T) {
	s := New()
	if err := s.Register(Info{Key: "K", Default: "1"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := s.Register(Info{Key: "K", Default: "2"}); err == nil {
		t.Fatalf("expected conflicting re-registration to error")
	}
}

func TestStoreInsertionOrder(t *testing.T) {
	s := New()
	s.Set("B", "2")
	s.Set("A", "1")
	s.Set("B", "3")
	keys := s.Keys()
	if len(keys) != 2 || keys[0] != "B" || keys[1] != "A" {
		t.Fatalf("Keys() = %v, want [B A] (insertion order, Set on existing key does not move it)", keys)
	}
}

func TestStoreBool(t *testing.T) {
	cases := map[string]bool{
		"1": true, "true": true, "YES": true, "on": true,
		"0": false, "false": false, "NO": false, "off": false,
	}
	for raw, want := range cases {
		s := New()
		s.Set("K", raw)
		got, err := s.Bool("K")
		if err != nil {
			t.Fatalf("Bool(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("Bool(%q) = %v, want %v", raw, got, want)
		}
	}

	s := New()
	s.Set("K", "maybe")
	if _, err := s.Bool("K"); err == nil {
		t.Fatalf("expected error for unrecognized boolean %q", "maybe")
	}
}

func TestStoreIntReal(t *testing.T) {
	s := New()
	s.Set("N", "42")
	s.Set("X", "3.5")
	n, err := s.Int("N")
	if err != nil || n != 42 {
		t.Fatalf("Int(N) = %d, %v, want 42, nil", n, err)
	}
	x, err := s.Real("X")
	if err != nil || x != 3.5 {
		t.Fatalf("Real(X) = %g, %v, want 3.5, nil", x, err)
	}
	if got := s.IntOr("MISSING", 7); got != 7 {
		t.Fatalf("IntOr(MISSING, 7) = %d, want 7", got)
	}
}

func TestStoreArray(t *testing.T) {
	s := New()
	s.Set("COMMA", "a, b, c")
	s.Set("SPACE", "a b  c")
	for _, key := range []string{"COMMA", "SPACE"} {
		if n := s.ArrayLen(key); n != 3 {
			t.Fatalf("ArrayLen(%s) = %d, want 3", key, n)
		}
		item, err := s.ArrayItem(key, 1)
		if err != nil || item != "b" {
			t.Fatalf("ArrayItem(%s, 1) = %q, %v, want %q, nil", key, item, err, "b")
		}
	}
	if _, err := s.ArrayItem("COMMA", 5); err == nil {
		t.Fatalf("expected out-of-range ArrayItem to error")
	}
}

func TestStoreSerializeRoundTrip(t *testing.T) {
	s := New()
	s.Set("STRATEGY", "pro")
	s.Set("RANDOM_SEED", "42")

	reparsed, err := ParseFile([]byte(s.Serialize()))
	if err != nil {
		t.Fatalf("ParseFile(Serialize()): %v", err)
	}
	if reparsed.Get("STRATEGY") != "pro" || reparsed.Get("RANDOM_SEED") != "42" {
		t.Fatalf("round trip mismatch: %+v", reparsed.Keys())
	}
}
