package planner

import (
	"math"
	"testing"

	"gridfx-config-bot/internal/command"
	"gridfx-config-bot/internal/schema"
	"gridfx-config-bot/internal/tree"
)

func numberPreviewTarget() command.Target {
	return command.Target{
		Engines: []string{"A"},
		Groups:  []int{1, 2, 3, 4, 5, 6, 7, 8},
		Logics:  []string{schema.LogicPower},
	}
}

// TestSetPlanPreviewCount verifies one preview per matched leaf
func TestSetPlanPreviewCount(t *testing.T) {
	p := New(nil)
	snapshot := tree.Default(15)

	plan, err := p.Set(snapshot, numberPreviewTarget(), "grid", "600")
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if len(plan.Preview) != 8 {
		t.Fatalf("previews = %d, want 8", len(plan.Preview))
	}
	for _, cp := range plan.Preview {
		if cp.NewValue.Number != 600 {
			t.Errorf("new value = %g, want 600", cp.NewValue.Number)
		}
		if cp.Engine != "A" || cp.Logic != schema.LogicPower {
			t.Errorf("preview targeted %s/%s, want A/POWER", cp.Engine, cp.Logic)
		}
	}
	if plan.Status != StatusPending {
		t.Errorf("status = %s, want pending", plan.Status)
	}
}

// TestSetPlanLeavesSnapshotUntouched verifies planning never mutates
func TestSetPlanLeavesSnapshotUntouched(t *testing.T) {
	p := New(nil)
	snapshot := tree.Default(5)

	if _, err := p.Set(snapshot, command.Target{}, "grid", "600"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got := snapshot.Engine("A").Group(1).Logic(schema.LogicPower).Fields["grid"].Number
	if got == 600 {
		t.Error("planning mutated the snapshot")
	}
}

// TestSetClampWarning verifies out-of-bounds values clamp with a warning
func TestSetClampWarning(t *testing.T) {
	p := New(nil)
	plan, err := p.Set(tree.Default(5), command.Target{Groups: []int{1}}, "multiplier", "9")
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if len(plan.Validation.Warnings) == 0 {
		t.Error("expected a clamp warning")
	}
	for _, cp := range plan.Preview {
		if cp.NewValue.Number != 5.0 {
			t.Errorf("clamped value = %g, want 5.0", cp.NewValue.Number)
		}
	}
}

// TestSetUnknownField verifies planning fails on unknown fields
func TestSetUnknownField(t *testing.T) {
	p := New(nil)
	if _, err := p.Set(tree.Default(5), command.Target{}, "bogus", "1"); err == nil {
		t.Error("unknown field should fail")
	}
}

// TestSemanticPercent verifies relative percent operations
func TestSemanticPercent(t *testing.T) {
	p := New(nil)
	snapshot := tree.Default(5)
	before := snapshot.Engine("A").Group(1).Logic(schema.LogicPower).Fields["grid"].Number

	plan, err := p.Semantic(snapshot, command.Target{
		Engines: []string{"A"}, Groups: []int{1}, Logics: []string{schema.LogicPower},
	}, &command.Semantic{
		Description: "increase grid by 10%",
		Operations:  []command.SemanticOp{{Field: "grid", Op: "increase", Operand: 10, IsPercent: true}},
	})
	if err != nil {
		t.Fatalf("Semantic failed: %v", err)
	}
	if len(plan.Preview) != 1 {
		t.Fatalf("previews = %d, want 1", len(plan.Preview))
	}
	want := before * 1.10
	if got := plan.Preview[0].NewValue.Number; math.Abs(got-want) > 1e-9 {
		t.Errorf("new value = %g, want %g", got, want)
	}
}

// TestSemanticSkipsNonNumeric verifies bool leaves are skipped for relative ops
func TestSemanticSkipsNonNumeric(t *testing.T) {
	p := New(nil)
	plan, err := p.Semantic(tree.Default(5), command.Target{Groups: []int{1}}, &command.Semantic{
		Description: "increase use_tp by 10",
		Operations:  []command.SemanticOp{{Field: "use_tp", Op: "increase", Operand: 10}},
	})
	if err != nil {
		t.Fatalf("Semantic failed: %v", err)
	}
	if len(plan.Preview) != 0 {
		t.Errorf("previews = %d, want 0 (bool field)", len(plan.Preview))
	}
}

// TestProgressionRequiresTwoGroups verifies the explicit minimum
func TestProgressionRequiresTwoGroups(t *testing.T) {
	p := New(nil)
	_, err := p.Progression(tree.Default(5), command.Target{Groups: []int{1}}, "grid",
		command.Params{Progression: command.ProgressionLinear, StartValue: 100})
	if err == nil {
		t.Error("progression with one group should fail")
	}
}

// TestProgressionFibonacci verifies the value sequence per group
func TestProgressionFibonacci(t *testing.T) {
	values, err := progressionValues(command.Params{
		Progression: command.ProgressionFibonacci, StartValue: 100,
	}, 5)
	if err != nil {
		t.Fatalf("progressionValues failed: %v", err)
	}
	want := []float64{100, 100, 200, 300, 500}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("values[%d] = %g, want %g", i, values[i], want[i])
		}
	}
}

// TestProgressionLinearWithEnd verifies even interpolation onto the end value
func TestProgressionLinearWithEnd(t *testing.T) {
	values, err := progressionValues(command.Params{
		Progression: command.ProgressionLinear,
		StartValue:  100, EndValue: 800, HasEnd: true,
	}, 8)
	if err != nil {
		t.Fatalf("progressionValues failed: %v", err)
	}
	if values[0] != 100 || values[7] != 800 {
		t.Errorf("endpoints = %g..%g, want 100..800", values[0], values[7])
	}
	if values[1] != 200 {
		t.Errorf("values[1] = %g, want 200", values[1])
	}
}

// TestProgressionCustomNeedsFactor verifies the custom kind's requirement
func TestProgressionCustomNeedsFactor(t *testing.T) {
	if _, err := progressionValues(command.Params{
		Progression: command.ProgressionCustom, StartValue: 100,
	}, 3); err == nil {
		t.Error("custom progression without factor should fail")
	}
}

// TestPreviewDeltaNaNSafe verifies percent delta is omitted at current zero
func TestPreviewDeltaNaNSafe(t *testing.T) {
	cp := preview("A", 1, schema.LogicPower, "trigger_pips",
		schema.NumberValue(0), schema.NumberValue(10))
	if cp.Delta == nil || *cp.Delta != 10 {
		t.Errorf("delta = %v, want 10", cp.Delta)
	}
	if cp.DeltaPercent != nil {
		t.Errorf("delta percent = %v, want nil for zero base", *cp.DeltaPercent)
	}
}

// TestInverseSwapsValues verifies undo plan synthesis
func TestInverseSwapsValues(t *testing.T) {
	p := New(nil)
	plan, err := p.Set(tree.Default(5), command.Target{Groups: []int{1}, Logics: []string{schema.LogicPower}}, "grid", "600")
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	inv := Inverse(plan)
	if len(inv.Preview) != len(plan.Preview) {
		t.Fatalf("inverse previews = %d, want %d", len(inv.Preview), len(plan.Preview))
	}
	for i, cp := range inv.Preview {
		if !cp.CurrentValue.Equal(plan.Preview[i].NewValue) || !cp.NewValue.Equal(plan.Preview[i].CurrentValue) {
			t.Errorf("inverse preview %d did not swap values: %+v", i, cp)
		}
	}
}

// TestRiskGrowsWithScope verifies that wider changes score higher
func TestRiskGrowsWithScope(t *testing.T) {
	p := New(nil)
	snapshot := tree.Default(15)

	small, _ := p.Set(snapshot, command.Target{Groups: []int{1}, Logics: []string{schema.LogicPower}}, "trigger_pips", "5")
	large, _ := p.Set(snapshot, command.Target{}, "stop_loss", "1")

	if small.Risk.Score >= large.Risk.Score {
		t.Errorf("risk scores: small=%g large=%g, want small < large", small.Risk.Score, large.Risk.Score)
	}
	if len(large.Risk.Reasons) == 0 {
		t.Error("large plan should carry risk reasons")
	}
}
