package command

import (
	"reflect"
	"testing"
)

// TestParseSetWithTrailingValue verifies that "group 1 to 600" reads as a
// value assignment on group 1, not as the range 1-600.
func TestParseSetWithTrailingValue(t *testing.T) {
	cmd := Parse("set grid group 1 to 600")

	if cmd.Type != CommandSet {
		t.Fatalf("type = %s, want set", cmd.Type)
	}
	if cmd.Field != "grid" {
		t.Errorf("field = %q, want grid", cmd.Field)
	}
	if !reflect.DeepEqual(cmd.Target.Groups, []int{1}) {
		t.Errorf("groups = %v, want [1]", cmd.Target.Groups)
	}
	if !cmd.Params.HasValue || cmd.Params.Value != "600" {
		t.Errorf("value = %q (has=%v), want 600", cmd.Params.Value, cmd.Params.HasValue)
	}
}

// TestParseGroupRange verifies range expansion for both "-" and "to" forms
func TestParseGroupRange(t *testing.T) {
	tests := []struct {
		input string
		want  []int
	}{
		{"set grid to 500 for groups 1-5", []int{1, 2, 3, 4, 5}},
		{"set grid to 500 for groups 2 to 4", []int{2, 3, 4}},
		{"set grid to 500 for groups 3 - 5", []int{3, 4, 5}},
		{"set grid to 500 for group 7", []int{7}},
	}
	for _, tt := range tests {
		cmd := Parse(tt.input)
		if !reflect.DeepEqual(cmd.Target.Groups, tt.want) {
			t.Errorf("Parse(%q).Groups = %v, want %v", tt.input, cmd.Target.Groups, tt.want)
		}
		if cmd.Params.Value != "500" {
			t.Errorf("Parse(%q).Value = %q, want 500", tt.input, cmd.Params.Value)
		}
	}
}

// TestParseGroupDedup verifies that overlapping mentions are merged ascending
func TestParseGroupDedup(t *testing.T) {
	cmd := Parse("set grid to 500 for group 3 and groups 1-3")
	if !reflect.DeepEqual(cmd.Target.Groups, []int{1, 2, 3}) {
		t.Errorf("groups = %v, want [1 2 3]", cmd.Target.Groups)
	}
}

// TestParseGroupAboveCeiling verifies that out-of-range group numbers are
// dropped rather than kept or treated as values.
func TestParseGroupAboveCeiling(t *testing.T) {
	cmd := Parse("set grid to 500 for group 99")
	if len(cmd.Target.Groups) != 0 {
		t.Errorf("groups = %v, want empty", cmd.Target.Groups)
	}
	if cmd.Params.Value != "500" {
		t.Errorf("value = %q, want 500", cmd.Params.Value)
	}
}

// TestParseRepowerNotPower verifies longest-first logic matching
func TestParseRepowerNotPower(t *testing.T) {
	cmd := Parse("set grid to 100 for repower group 2")
	if !reflect.DeepEqual(cmd.Target.Logics, []string{"REPOWER"}) {
		t.Errorf("logics = %v, want [REPOWER]", cmd.Target.Logics)
	}

	cmd = Parse("set grid to 100 for power and repower group 2")
	if !reflect.DeepEqual(cmd.Target.Logics, []string{"POWER", "REPOWER"}) {
		t.Errorf("logics = %v, want [POWER REPOWER]", cmd.Target.Logics)
	}
}

// TestParseEngines verifies engine letters, including "and" lists
func TestParseEngines(t *testing.T) {
	cmd := Parse("set grid to 100 for engine a and b group 1")
	if !reflect.DeepEqual(cmd.Target.Engines, []string{"A", "B"}) {
		t.Errorf("engines = %v, want [A B]", cmd.Target.Engines)
	}
}

// TestParseFieldAliases verifies alias resolution, most specific first
func TestParseFieldAliases(t *testing.T) {
	tests := []struct {
		input string
		field string
	}{
		{"set tp to 100 for group 1", "take_profit"},
		{"set stop loss to 40 for group 1", "stop_loss"},
		{"set trail step cycle to 3 for group 1", "trail_step_cycle"},
		{"set trail step to 12 for group 1", "trail_step"},
		{"set trail to 8 for group 1", "trail_value"},
		{"set lot size to 0.05 for group 1", "initial_lot"},
	}
	for _, tt := range tests {
		cmd := Parse(tt.input)
		if cmd.Field != tt.field {
			t.Errorf("Parse(%q).Field = %q, want %q", tt.input, cmd.Field, tt.field)
		}
	}
}

// TestParseToggle verifies enable/disable commands, both on value fields
// with a boolean companion and on bare logics.
func TestParseToggle(t *testing.T) {
	cmd := Parse("disable tp for group 2")
	if cmd.Type != CommandSet || cmd.Field != "use_tp" {
		t.Errorf("field = %q (type %s), want use_tp/set", cmd.Field, cmd.Type)
	}
	if cmd.Params.Value != "false" {
		t.Errorf("value = %q, want false", cmd.Params.Value)
	}

	cmd = Parse("enable scalper group 3")
	if cmd.Field != "enabled" || cmd.Params.Value != "true" {
		t.Errorf("logic toggle: field=%q value=%q, want enabled/true", cmd.Field, cmd.Params.Value)
	}
	if !reflect.DeepEqual(cmd.Target.Logics, []string{"SCALPER"}) {
		t.Errorf("logics = %v, want [SCALPER]", cmd.Target.Logics)
	}
}

// TestParseQueryComparison verifies comparison operators in queries
func TestParseQueryComparison(t *testing.T) {
	cmd := Parse("show groups with grid > 500")
	if cmd.Type != CommandQuery || cmd.Field != "grid" {
		t.Fatalf("type=%s field=%q, want query/grid", cmd.Type, cmd.Field)
	}
	if cmd.Params.Operator != ">" || cmd.Params.CompareValue != 500 {
		t.Errorf("comparison = %s %g, want > 500", cmd.Params.Operator, cmd.Params.CompareValue)
	}

	cmd = Parse("show groups with grid above 300")
	if cmd.Params.Operator != ">" || cmd.Params.CompareValue != 300 {
		t.Errorf("word comparison = %s %g, want > 300", cmd.Params.Operator, cmd.Params.CompareValue)
	}
}

// TestParseProgression verifies kind detection and boundary extraction
func TestParseProgression(t *testing.T) {
	cmd := Parse("create fibonacci progression for grid from 100 to 800 for groups 1-8")
	if cmd.Type != CommandProgression {
		t.Fatalf("type = %s, want progression", cmd.Type)
	}
	if cmd.Params.Progression != ProgressionFibonacci {
		t.Errorf("kind = %s, want fibonacci", cmd.Params.Progression)
	}
	if cmd.Params.StartValue != 100 || cmd.Params.EndValue != 800 || !cmd.Params.HasEnd {
		t.Errorf("bounds = %g..%g (hasEnd=%v), want 100..800", cmd.Params.StartValue, cmd.Params.EndValue, cmd.Params.HasEnd)
	}
	if cmd.Field != "grid" {
		t.Errorf("field = %q, want grid", cmd.Field)
	}
	if len(cmd.Target.Groups) != 8 {
		t.Errorf("groups = %v, want 8 groups", cmd.Target.Groups)
	}
}

// TestParseCopy verifies source/target split
func TestParseCopy(t *testing.T) {
	cmd := Parse("copy group 1 to groups 2-5")
	if cmd.Type != CommandCopy {
		t.Fatalf("type = %s, want copy", cmd.Type)
	}
	if cmd.Params.SourceGroup != 1 {
		t.Errorf("source = %d, want 1", cmd.Params.SourceGroup)
	}
	if !reflect.DeepEqual(cmd.Target.Groups, []int{2, 3, 4, 5}) {
		t.Errorf("targets = %v, want [2 3 4 5]", cmd.Target.Groups)
	}
}

// TestParseCopySourceIsPositional verifies the source is the group named
// before "to", not the smallest number mentioned
func TestParseCopySourceIsPositional(t *testing.T) {
	cmd := Parse("copy group 5 to groups 1-3")
	if cmd.Params.SourceGroup != 5 {
		t.Errorf("source = %d, want 5", cmd.Params.SourceGroup)
	}
	if !reflect.DeepEqual(cmd.Target.Groups, []int{1, 2, 3}) {
		t.Errorf("targets = %v, want [1 2 3]", cmd.Target.Groups)
	}

	// A compact "to N" folds the target into the source expression.
	cmd = Parse("copy group 4 to 2")
	if cmd.Params.SourceGroup != 4 {
		t.Errorf("compact source = %d, want 4", cmd.Params.SourceGroup)
	}
	if !reflect.DeepEqual(cmd.Target.Groups, []int{2}) {
		t.Errorf("compact targets = %v, want [2]", cmd.Target.Groups)
	}
}

// TestParseCopyKeepsSelfMention verifies a target range overlapping the
// source is not deduplicated away, so the self-copy guard can see it
func TestParseCopyKeepsSelfMention(t *testing.T) {
	cmd := Parse("copy group 1 to groups 1-2")
	if cmd.Params.SourceGroup != 1 {
		t.Errorf("source = %d, want 1", cmd.Params.SourceGroup)
	}
	if !reflect.DeepEqual(cmd.Target.Groups, []int{1, 2}) {
		t.Errorf("targets = %v, want [1 2]", cmd.Target.Groups)
	}
}

// TestParseSemanticRelative verifies relative operations with percent
func TestParseSemanticRelative(t *testing.T) {
	cmd := Parse("increase grid by 10% for groups 1-5")
	if cmd.Type != CommandSemantic {
		t.Fatalf("type = %s, want semantic", cmd.Type)
	}
	if cmd.Semantic == nil || len(cmd.Semantic.Operations) != 1 {
		t.Fatalf("operations = %+v, want exactly one", cmd.Semantic)
	}
	op := cmd.Semantic.Operations[0]
	if op.Field != "grid" || op.Op != "increase" || op.Operand != 10 || !op.IsPercent {
		t.Errorf("op = %+v, want increase grid by 10%%", op)
	}
}

// TestParseSemanticPreset verifies mood-word presets
func TestParseSemanticPreset(t *testing.T) {
	cmd := Parse("make groups 1-3 aggressive")
	if cmd.Type != CommandSemantic {
		t.Fatalf("type = %s, want semantic", cmd.Type)
	}
	if cmd.Semantic == nil || len(cmd.Semantic.Operations) != 3 {
		t.Fatalf("preset should expand to 3 operations, got %+v", cmd.Semantic)
	}
}

// TestParseFormula verifies arithmetic formula commands
func TestParseFormula(t *testing.T) {
	cmd := Parse("formula grid = current * 1.1 for groups 1-5")
	if cmd.Type != CommandFormula {
		t.Fatalf("type = %s, want formula", cmd.Type)
	}
	if cmd.Semantic == nil || len(cmd.Semantic.Operations) != 1 {
		t.Fatalf("operations = %+v, want exactly one", cmd.Semantic)
	}
	op := cmd.Semantic.Operations[0]
	if op.Op != "multiply" || op.Operand != 1.1 {
		t.Errorf("op = %+v, want multiply by 1.1", op)
	}
}

// TestParseFallback verifies that verbless field/value shapes become sets
func TestParseFallback(t *testing.T) {
	cmd := Parse("grid 600 group 1")
	if cmd.Type != CommandSet {
		t.Fatalf("type = %s, want set", cmd.Type)
	}
	if cmd.Params.Value != "600" {
		t.Errorf("value = %q, want 600", cmd.Params.Value)
	}
	if !reflect.DeepEqual(cmd.Target.Groups, []int{1}) {
		t.Errorf("groups = %v, want [1]", cmd.Target.Groups)
	}
}

// TestParseFullTargeting exercises all three target dimensions at once
func TestParseFullTargeting(t *testing.T) {
	cmd := Parse("set grid to 600 for groups 1-8 power engine a")
	if cmd.Type != CommandSet || cmd.Field != "grid" || cmd.Params.Value != "600" {
		t.Fatalf("parsed %+v, want set grid=600", cmd)
	}
	if len(cmd.Target.Groups) != 8 {
		t.Errorf("groups = %v, want 1-8", cmd.Target.Groups)
	}
	if !reflect.DeepEqual(cmd.Target.Logics, []string{"POWER"}) {
		t.Errorf("logics = %v, want [POWER]", cmd.Target.Logics)
	}
	if !reflect.DeepEqual(cmd.Target.Engines, []string{"A"}) {
		t.Errorf("engines = %v, want [A]", cmd.Target.Engines)
	}
}
