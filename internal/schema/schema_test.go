package schema

import "testing"

// TestCoerceBool verifies the accepted boolean surface forms
func TestCoerceBool(t *testing.T) {
	spec, _ := FieldByName("use_tp")

	truthy := []string{"true", "1", "on", "yes", "enable", "enabled"}
	for _, raw := range truthy {
		v, err := Coerce(raw, spec)
		if err != nil || !v.Flag {
			t.Errorf("Coerce(%q) = %+v, %v; want true", raw, v, err)
		}
	}
	falsy := []string{"false", "0", "off", "no", "disable", "disabled"}
	for _, raw := range falsy {
		v, err := Coerce(raw, spec)
		if err != nil || v.Flag {
			t.Errorf("Coerce(%q) = %+v, %v; want false", raw, v, err)
		}
	}
	if _, err := Coerce("maybe", spec); err == nil {
		t.Error("Coerce(maybe) should fail for a bool field")
	}
}

// TestCoerceNumberAndEnum verifies the other two kinds
func TestCoerceNumberAndEnum(t *testing.T) {
	grid, _ := FieldByName("grid")
	v, err := Coerce("600", grid)
	if err != nil || v.Number != 600 {
		t.Errorf("Coerce(600) = %+v, %v", v, err)
	}
	if _, err := Coerce("abc", grid); err == nil {
		t.Error("Coerce(abc) should fail for a numeric field")
	}

	method, _ := FieldByName("trail_method")
	if _, err := Coerce("classic", method); err != nil {
		t.Errorf("Coerce(classic) failed: %v", err)
	}
	if _, err := Coerce("bogus", method); err == nil {
		t.Error("Coerce(bogus) should fail for an enum field")
	}
}

// TestClamp verifies bound clamping on numeric fields
func TestClamp(t *testing.T) {
	mult, _ := FieldByName("multiplier")
	if got := Clamp(NumberValue(9), mult); got.Number != mult.Max {
		t.Errorf("Clamp(9) = %g, want %g", got.Number, mult.Max)
	}
	if got := Clamp(NumberValue(0.5), mult); got.Number != mult.Min {
		t.Errorf("Clamp(0.5) = %g, want %g", got.Number, mult.Min)
	}
	if got := Clamp(NumberValue(2), mult); got.Number != 2 {
		t.Errorf("Clamp(2) = %g, want 2", got.Number)
	}
}

// TestFieldByAliasOrdering verifies that longer aliases win over their
// prefixes.
func TestFieldByAliasOrdering(t *testing.T) {
	tests := []struct {
		surface string
		want    string
	}{
		{"trail step cycle", "trail_step_cycle"},
		{"trail step", "trail_step"},
		{"trail", "trail_value"},
		{"tp", "take_profit"},
		{"sl", "stop_loss"},
		{"lot", "initial_lot"},
		{"grid", "grid"},
	}
	for _, tt := range tests {
		spec, ok := FieldByAlias(tt.surface)
		if !ok || spec.Name != tt.want {
			t.Errorf("FieldByAlias(%q) = %v, want %s", tt.surface, spec, tt.want)
		}
	}
}

// TestBoolFieldFor verifies toggle target resolution
func TestBoolFieldFor(t *testing.T) {
	tests := []struct {
		surface string
		want    string
	}{
		{"tp", "use_tp"},
		{"take profit", "use_tp"},
		{"sl", "use_sl"},
		{"profit trail", "profit_trail_enabled"},
		{"hedge", "hedge_enabled"},
		{"enabled", "enabled"},
	}
	for _, tt := range tests {
		spec, ok := BoolFieldFor(tt.surface)
		if !ok || spec.Name != tt.want {
			t.Errorf("BoolFieldFor(%q) = %v, want %s", tt.surface, spec, tt.want)
		}
	}

	if _, ok := BoolFieldFor("multiplier"); ok {
		t.Error("multiplier has no boolean companion and should not resolve")
	}
}

// TestValueEqual verifies cross-kind comparison
func TestValueEqual(t *testing.T) {
	if !NumberValue(5).Equal(NumberValue(5)) {
		t.Error("equal numbers should compare equal")
	}
	if NumberValue(5).Equal(BoolValue(true)) {
		t.Error("different kinds should never compare equal")
	}
	if !EnumValue("classic").Equal(EnumValue("classic")) {
		t.Error("equal enums should compare equal")
	}
}
