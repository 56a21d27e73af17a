package tree

import (
	"testing"

	"gridfx-config-bot/internal/schema"
)

// TestDefaultStructure verifies the default tree's shape and validity
func TestDefaultStructure(t *testing.T) {
	tr := Default(15)

	if len(tr.Engines) != len(schema.EngineIDs) {
		t.Fatalf("engines = %d, want %d", len(tr.Engines), len(schema.EngineIDs))
	}
	for _, e := range tr.Engines {
		if len(e.Groups) != 15 {
			t.Errorf("engine %s has %d groups, want 15", e.ID, len(e.Groups))
		}
		for _, g := range e.Groups {
			if len(g.Logics) != len(schema.LogicNames) {
				t.Errorf("engine %s group %d has %d logics, want %d",
					e.ID, g.Number, len(g.Logics), len(schema.LogicNames))
			}
		}
	}
	if err := tr.Validate(); err != nil {
		t.Errorf("default tree should validate: %v", err)
	}

	fieldsPerLogic := len(tr.Engines[0].Groups[0].Logics[0].Fields)
	want := len(schema.EngineIDs) * 15 * len(schema.LogicNames) * fieldsPerLogic
	if got := tr.LeafCount(); got != want {
		t.Errorf("LeafCount = %d, want %d", got, want)
	}
}

// TestDefaultTiers verifies the tiered default values
func TestDefaultTiers(t *testing.T) {
	tr := Default(15)
	eng := tr.Engine("A")

	lotOf := func(group int) float64 {
		return eng.Group(group).Logic(schema.LogicPower).Fields["initial_lot"].Number
	}
	if lotOf(3) != 0.02 {
		t.Errorf("group 3 initial_lot = %g, want 0.02", lotOf(3))
	}
	if lotOf(7) != 0.03 {
		t.Errorf("group 7 initial_lot = %g, want 0.03", lotOf(7))
	}
	if lotOf(12) != 0.05 {
		t.Errorf("group 12 initial_lot = %g, want 0.05", lotOf(12))
	}

	logic := eng.Group(5).Logic(schema.LogicPower)
	if got := logic.Fields["multiplier"].Number; got != 1.30 {
		t.Errorf("group 5 multiplier = %g, want 1.30", got)
	}
	if got := logic.Fields["take_profit"].Number; got != 100 {
		t.Errorf("group 5 take_profit = %g, want 100", got)
	}
	if got := logic.Fields["stop_loss"].Number; got != 55 {
		t.Errorf("group 5 stop_loss = %g, want 55", got)
	}
}

// TestDefaultStartLevel verifies that only POWER starts at level zero
func TestDefaultStartLevel(t *testing.T) {
	tr := Default(5)
	g := tr.Engine("B").Group(4)

	if got := g.Logic(schema.LogicPower).Fields["start_level"].Number; got != 0 {
		t.Errorf("POWER start_level = %g, want 0", got)
	}
	if got := g.Logic(schema.LogicRepower).Fields["start_level"].Number; got != 4 {
		t.Errorf("REPOWER start_level = %g, want 4", got)
	}
}

// TestCloneIndependence verifies that mutating a clone leaves the original
// untouched.
func TestCloneIndependence(t *testing.T) {
	original := Default(3)
	clone := original.Clone()

	clone.Engine("A").Group(1).Logic(schema.LogicPower).Fields["grid"] = schema.NumberValue(9999)

	got := original.Engine("A").Group(1).Logic(schema.LogicPower).Fields["grid"].Number
	if got == 9999 {
		t.Error("clone mutation leaked into the original tree")
	}
}

// TestFilterIntersection verifies AND semantics across filter dimensions
func TestFilterIntersection(t *testing.T) {
	tr := Default(10)

	count := func(f Filter) int {
		n := 0
		ForEachMatch(tr, f, func(*Engine, *Group, *Logic) { n++ })
		return n
	}

	all := len(schema.EngineIDs) * 10 * len(schema.LogicNames)
	if got := count(Filter{}); got != all {
		t.Errorf("empty filter matched %d, want %d", got, all)
	}
	if got := count(Filter{Engines: []string{"A"}}); got != 10*len(schema.LogicNames) {
		t.Errorf("engine filter matched %d", got)
	}
	if got := count(Filter{Engines: []string{"A"}, Groups: []int{1, 2}, Logics: []string{schema.LogicPower}}); got != 2 {
		t.Errorf("full filter matched %d, want 2", got)
	}
	if got := count(Filter{Groups: []int{99}}); got != 0 {
		t.Errorf("missing group matched %d, want 0", got)
	}
}

// TestValidateRejectsBadStructure verifies the structural checks
func TestValidateRejectsBadStructure(t *testing.T) {
	tr := Default(2)
	tr.Engines[0].ID = "Z"
	if err := tr.Validate(); err == nil {
		t.Error("unknown engine id should fail validation")
	}

	tr = Default(2)
	tr.Engines[0].Groups[0].Number = 0
	if err := tr.Validate(); err == nil {
		t.Error("group number 0 should fail validation")
	}

	tr = Default(2)
	delete(tr.Engines[0].Groups[0].Logics[0].Fields, "grid")
	if err := tr.Validate(); err == nil {
		t.Error("non-uniform field schema should fail validation")
	}
}
