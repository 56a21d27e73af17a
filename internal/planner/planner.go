package planner

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"gridfx-config-bot/internal/command"
	"gridfx-config-bot/internal/schema"
	"gridfx-config-bot/internal/tree"
)

// Planner builds transaction plans from a tree snapshot. It holds no
// mutable state of its own beyond the injected compatibility collaborator.
type Planner struct {
	compat CompatibilityChecker
}

// New creates a planner. A nil checker disables platform checks.
func New(compat CompatibilityChecker) *Planner {
	if compat == nil {
		compat = NoopCompatibility{}
	}
	return &Planner{compat: compat}
}

func filterOf(t command.Target) tree.Filter {
	return tree.Filter{Engines: t.Engines, Groups: t.Groups, Logics: t.Logics}
}

// Set plans a direct assignment of one field across every matched leaf.
// The raw value is coerced to the field's declared kind and clamped to its
// bounds. Zero matches yield a valid empty plan (a no-op, not an error).
func (p *Planner) Set(snapshot *tree.Tree, target command.Target, field, rawValue string) (*TransactionPlan, error) {
	spec, ok := schema.FieldByName(field)
	if !ok {
		return nil, fmt.Errorf("unknown field %q", field)
	}
	value, err := schema.Coerce(rawValue, spec)
	if err != nil {
		return nil, err
	}

	plan := p.newPlan("set", fmt.Sprintf("set %s = %s", field, value.String()))
	clamped := schema.Clamp(value, spec)
	if !clamped.Equal(value) {
		plan.Validation.Warnings = append(plan.Validation.Warnings,
			fmt.Sprintf("%s clamped to declared bounds [%g, %g]", field, spec.Min, spec.Max))
	}

	tree.ForEachMatch(snapshot, filterOf(target), func(e *tree.Engine, g *tree.Group, l *tree.Logic) {
		current, exists := l.Fields[field]
		if !exists {
			return
		}
		plan.Preview = append(plan.Preview, preview(e.ID, g.Number, l.Name, field, current, clamped))
	})

	p.finish(plan)
	return plan, nil
}

// Semantic plans relative operations (increase/decrease/multiply/divide,
// absolute or percent) across matched leaves. Non-numeric leaves are
// skipped for every op other than set.
func (p *Planner) Semantic(snapshot *tree.Tree, target command.Target, sem *command.Semantic) (*TransactionPlan, error) {
	if sem == nil || len(sem.Operations) == 0 {
		return nil, fmt.Errorf("semantic command carries no operations")
	}

	plan := p.newPlan("semantic", sem.Description)
	for _, op := range sem.Operations {
		spec, ok := schema.FieldByName(op.Field)
		if !ok {
			plan.Validation.Errors = append(plan.Validation.Errors,
				fmt.Sprintf("unknown field %q", op.Field))
			continue
		}
		tree.ForEachMatch(snapshot, filterOf(target), func(e *tree.Engine, g *tree.Group, l *tree.Logic) {
			current, exists := l.Fields[op.Field]
			if !exists {
				return
			}
			if op.Op != "set" && !current.IsNumeric() {
				return
			}
			next, err := applyOp(current, op)
			if err != nil {
				return
			}
			next = schema.Clamp(next, spec)
			if next.Equal(current) {
				return
			}
			plan.Preview = append(plan.Preview, preview(e.ID, g.Number, l.Name, op.Field, current, next))
		})
	}

	p.finish(plan)
	return plan, nil
}

func applyOp(current schema.Value, op command.SemanticOp) (schema.Value, error) {
	if op.Op == "set" {
		return schema.NumberValue(op.Operand), nil
	}
	base := current.Number
	operand := op.Operand
	switch op.Op {
	case "increase":
		if op.IsPercent {
			return schema.NumberValue(base * (1 + operand/100)), nil
		}
		return schema.NumberValue(base + operand), nil
	case "decrease":
		if op.IsPercent {
			return schema.NumberValue(base * (1 - operand/100)), nil
		}
		return schema.NumberValue(base - operand), nil
	case "multiply":
		return schema.NumberValue(base * operand), nil
	case "divide":
		if operand == 0 {
			return schema.Value{}, fmt.Errorf("division by zero")
		}
		return schema.NumberValue(base / operand), nil
	}
	return schema.Value{}, fmt.Errorf("unknown semantic op %q", op.Op)
}

// Progression plans one value per target group following the requested
// progression. At least two groups are required; fewer is an explicit
// error, never a silently empty plan.
func (p *Planner) Progression(snapshot *tree.Tree, target command.Target, field string, params command.Params) (*TransactionPlan, error) {
	if len(target.Groups) < 2 {
		return nil, fmt.Errorf("progression requires at least 2 target groups, got %d", len(target.Groups))
	}
	spec, ok := schema.FieldByName(field)
	if !ok {
		return nil, fmt.Errorf("unknown field %q", field)
	}
	if spec.Kind != schema.KindNumber {
		return nil, fmt.Errorf("progression requires a numeric field, %s is %s", field, spec.Kind)
	}

	values, err := progressionValues(params, len(target.Groups))
	if err != nil {
		return nil, err
	}

	plan := p.newPlan("progression",
		fmt.Sprintf("%s progression of %s across %d groups", params.Progression, field, len(target.Groups)))

	valueByGroup := make(map[int]schema.Value, len(target.Groups))
	for i, g := range target.Groups {
		valueByGroup[g] = schema.Clamp(schema.NumberValue(values[i]), spec)
	}

	tree.ForEachMatch(snapshot, filterOf(target), func(e *tree.Engine, g *tree.Group, l *tree.Logic) {
		current, exists := l.Fields[field]
		if !exists {
			return
		}
		plan.Preview = append(plan.Preview, preview(e.ID, g.Number, l.Name, field, current, valueByGroup[g.Number]))
	})

	p.finish(plan)
	return plan, nil
}

// progressionValues computes one value per group position. When an end
// value is present the sequence is scaled so the last position lands on it.
func progressionValues(params command.Params, count int) ([]float64, error) {
	start := params.StartValue
	values := make([]float64, count)

	switch params.Progression {
	case command.ProgressionFibonacci:
		a, b := 1.0, 1.0
		for i := 0; i < count; i++ {
			values[i] = start * a
			a, b = b, a+b
		}
	case command.ProgressionExponential:
		factor := params.Factor
		if factor <= 0 {
			factor = 2
		}
		for i := 0; i < count; i++ {
			values[i] = start * math.Pow(factor, float64(i))
		}
	case command.ProgressionCustom:
		if params.Factor == 0 {
			return nil, fmt.Errorf("custom progression requires a factor")
		}
		for i := 0; i < count; i++ {
			values[i] = start + params.Factor*float64(i)
		}
	default: // linear
		step := params.Factor
		if params.HasEnd {
			step = (params.EndValue - start) / float64(count-1)
		}
		for i := 0; i < count; i++ {
			values[i] = start + step*float64(i)
		}
		return values, nil
	}

	// Non-linear kinds with an explicit end are rescaled onto [start, end].
	if params.HasEnd && values[count-1] != values[0] {
		span := params.EndValue - start
		scale := span / (values[count-1] - values[0])
		for i := range values {
			values[i] = start + (values[i]-values[0])*scale
		}
	}
	return values, nil
}

func (p *Planner) newPlan(planType, description string) *TransactionPlan {
	return &TransactionPlan{
		ID:          uuid.New().String(),
		Type:        planType,
		Validation:  Validation{IsValid: true},
		CreatedAt:   time.Now(),
		Status:      StatusPending,
		Description: description,
	}
}

// finish computes risk, runs the compatibility collaborator and settles the
// validation verdict.
func (p *Planner) finish(plan *TransactionPlan) {
	plan.Risk = assessRisk(plan.Preview)
	plan.Validation.PlatformCompatibility = p.compat.Check(plan.Preview)
	for _, finding := range plan.Validation.PlatformCompatibility {
		plan.Validation.Warnings = append(plan.Validation.Warnings, finding)
	}
	plan.Validation.IsValid = len(plan.Validation.Errors) == 0
}

// preview builds an immutable ChangePreview with NaN-safe deltas.
func preview(engine string, group int, logic, field string, current, next schema.Value) ChangePreview {
	cp := ChangePreview{
		Engine:       engine,
		Group:        group,
		Logic:        logic,
		Field:        field,
		CurrentValue: current,
		NewValue:     next,
	}
	if current.IsNumeric() && next.IsNumeric() {
		delta := next.Number - current.Number
		cp.Delta = &delta
		if current.Number != 0 {
			pct := delta / math.Abs(current.Number) * 100
			cp.DeltaPercent = &pct
		}
	}
	return cp
}
