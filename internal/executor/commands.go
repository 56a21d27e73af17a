package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gridfx-config-bot/internal/command"
	"gridfx-config-bot/internal/planner"
	"gridfx-config-bot/internal/schema"
	"gridfx-config-bot/internal/tree"
)

func filterOf(t command.Target) tree.Filter {
	return tree.Filter{Engines: t.Engines, Groups: t.Groups, Logics: t.Logics}
}

// executeQuery reads matching leaf values, optionally filtered by a
// comparison operator ("show groups with grid > 500").
func (e *Engine) executeQuery(parsed command.ParsedCommand) Result {
	if parsed.Field == "" {
		count := 0
		tree.ForEachMatch(e.tree, filterOf(parsed.Target), func(_ *tree.Engine, _ *tree.Group, _ *tree.Logic) {
			count++
		})
		return Result{Success: true, Message: fmt.Sprintf("%d matching logic(s); name a field to see values, e.g. 'show grid group 1'", count)}
	}

	var rows []QueryRow
	tree.ForEachMatch(e.tree, filterOf(parsed.Target), func(eng *tree.Engine, g *tree.Group, l *tree.Logic) {
		value, ok := l.Fields[parsed.Field]
		if !ok {
			return
		}
		if parsed.Params.Operator != "" {
			if !value.IsNumeric() || !compare(value.Number, parsed.Params.Operator, parsed.Params.CompareValue) {
				return
			}
		}
		rows = append(rows, QueryRow{
			Engine: eng.ID, Group: g.Number, Logic: l.Name,
			Field: parsed.Field, Value: value.String(),
		})
	})

	message := fmt.Sprintf("%d result(s) for %s", len(rows), parsed.Field)
	if parsed.Params.Operator != "" {
		message = fmt.Sprintf("%d result(s) for %s %s %g", len(rows), parsed.Field,
			parsed.Params.Operator, parsed.Params.CompareValue)
	}
	return Result{Success: true, Message: message, QueryResult: rows}
}

func compare(value float64, op string, against float64) bool {
	switch op {
	case ">":
		return value > against
	case "<":
		return value < against
	case ">=":
		return value >= against
	case "<=":
		return value <= against
	case "=":
		return value == against
	}
	return false
}

// executeCopy clones the source group's field values onto the target
// groups. Copy bypasses planning: it mutates a cloned tree immediately and
// records the realized changes as one applied plan so it stays undoable.
func (e *Engine) executeCopy(ctx context.Context, parsed command.ParsedCommand) Result {
	source := parsed.Params.SourceGroup
	if source == 0 {
		return fail("copy needs a source group; example: copy group 1 to groups 2-5")
	}
	if len(parsed.Target.Groups) == 0 {
		return fail("copy needs at least one target group; example: copy group 1 to groups 2-5")
	}
	for _, g := range parsed.Target.Groups {
		if g == source {
			return fail(fmt.Sprintf("cannot copy group %d onto itself", source))
		}
	}

	next := e.tree.Clone()
	var previews []planner.ChangePreview

	filter := tree.Filter{Engines: parsed.Target.Engines, Groups: parsed.Target.Groups, Logics: parsed.Target.Logics}
	tree.ForEachMatchMutable(next, filter, func(eng *tree.Engine, g *tree.Group, l *tree.Logic) {
		srcGroup := eng.Group(source)
		if srcGroup == nil {
			return
		}
		srcLogic := srcGroup.Logic(l.Name)
		if srcLogic == nil {
			return
		}
		for field, srcValue := range srcLogic.Fields {
			current, ok := l.Fields[field]
			if !ok || current.Equal(srcValue) {
				continue
			}
			previews = append(previews, planner.ChangePreview{
				Engine: eng.ID, Group: g.Number, Logic: l.Name, Field: field,
				CurrentValue: current, NewValue: srcValue,
			})
			l.Fields[field] = srcValue
		}
	})

	if len(previews) == 0 {
		return Result{Success: true, Message: fmt.Sprintf("target groups already match group %d; nothing to change", source)}
	}

	plan := e.directPlan("copy", fmt.Sprintf("copy group %d onto %d group(s)", source, len(parsed.Target.Groups)), previews)
	e.tree = next
	e.pushHistory(plan)
	e.redo = nil
	e.notifyApply(ctx, plan)

	return Result{Success: true, Message: fmt.Sprintf("copied group %d: %d leaf change(s)", source, len(previews)), Changes: previews}
}

// executeCompare reports field-level differences between two groups
func (e *Engine) executeCompare(parsed command.ParsedCommand) Result {
	if len(parsed.Target.Groups) != 2 {
		return fail("compare needs exactly two groups; example: compare group 1 and group 5")
	}
	a, b := parsed.Target.Groups[0], parsed.Target.Groups[1]

	var rows []QueryRow
	filter := tree.Filter{Engines: parsed.Target.Engines, Groups: []int{a}, Logics: parsed.Target.Logics}
	tree.ForEachMatch(e.tree, filter, func(eng *tree.Engine, _ *tree.Group, l *tree.Logic) {
		other := eng.Group(b)
		if other == nil {
			return
		}
		otherLogic := other.Logic(l.Name)
		if otherLogic == nil {
			return
		}
		for _, spec := range schema.Fields() {
			va, okA := l.Fields[spec.Name]
			vb, okB := otherLogic.Fields[spec.Name]
			if !okA || !okB || va.Equal(vb) {
				continue
			}
			rows = append(rows, QueryRow{
				Engine: eng.ID, Group: a, Logic: l.Name, Field: spec.Name,
				Value: fmt.Sprintf("group %d: %s, group %d: %s", a, va.String(), b, vb.String()),
			})
		}
	})

	if len(rows) == 0 {
		return Result{Success: true, Message: fmt.Sprintf("groups %d and %d are identical on the compared slice", a, b)}
	}
	return Result{
		Success:     true,
		Message:     fmt.Sprintf("%d differing field(s) between group %d and group %d", len(rows), a, b),
		QueryResult: rows,
	}
}

// executeReset restores matched leaves to the documented default values.
// Like copy, reset bypasses planning and records the realized changes as
// one applied plan.
func (e *Engine) executeReset(ctx context.Context, parsed command.ParsedCommand) Result {
	defaults := tree.Default(e.opts.DefaultGroups)
	next := e.tree.Clone()
	var previews []planner.ChangePreview

	tree.ForEachMatchMutable(next, filterOf(parsed.Target), func(eng *tree.Engine, g *tree.Group, l *tree.Logic) {
		defEngine := defaults.Engine(eng.ID)
		if defEngine == nil {
			return
		}
		defGroup := defEngine.Group(g.Number)
		if defGroup == nil {
			return
		}
		defLogic := defGroup.Logic(l.Name)
		if defLogic == nil {
			return
		}
		for field, defValue := range defLogic.Fields {
			current, ok := l.Fields[field]
			if !ok || current.Equal(defValue) {
				continue
			}
			previews = append(previews, planner.ChangePreview{
				Engine: eng.ID, Group: g.Number, Logic: l.Name, Field: field,
				CurrentValue: current, NewValue: defValue,
			})
			l.Fields[field] = defValue
		}
	})

	if len(previews) == 0 {
		return Result{Success: true, Message: "already at defaults; nothing to change"}
	}

	plan := e.directPlan("reset", command.Describe(parsed), previews)
	e.tree = next
	e.pushHistory(plan)
	e.redo = nil
	e.notifyApply(ctx, plan)

	return Result{Success: true, Message: fmt.Sprintf("reset %d leaf change(s) to defaults", len(previews)), Changes: previews}
}

// directPlan wraps immediately-applied mutations (copy, reset) in an
// applied plan object so they share history, undo and notification paths.
func (e *Engine) directPlan(planType, description string, previews []planner.ChangePreview) *planner.TransactionPlan {
	now := time.Now()
	return &planner.TransactionPlan{
		ID:          uuid.New().String(),
		Type:        planType,
		Preview:     previews,
		Validation:  planner.Validation{IsValid: true},
		Risk:        planner.Risk{Level: planner.RiskMedium, Score: 40, Reasons: []string{"direct mutation (" + planType + ")"}},
		CreatedAt:   now,
		AppliedAt:   &now,
		Status:      planner.StatusApplied,
		Description: strings.TrimSpace(description),
	}
}
