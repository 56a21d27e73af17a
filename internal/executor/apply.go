package executor

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"gridfx-config-bot/internal/planner"
	"gridfx-config-bot/internal/tree"
)

// approve applies the pending plan, either fully or restricted to a
// user-selected subset of 1-based positions ("2,5,7", "1-3", "remaining").
func (e *Engine) approve(ctx context.Context, selection string) Result {
	if e.pending == nil {
		return fail("no pending plan to approve")
	}
	indices, invalid := parseSelection(selection, len(e.pending.Preview))
	if len(invalid) > 0 {
		return fail(fmt.Sprintf("invalid selection token(s) %s; valid positions are 1-%d",
			strings.Join(invalid, ", "), len(e.pending.Preview)))
	}
	return e.applySelection(ctx, indices)
}

// parseSelection expands "2,5,7" / "1-3" / "remaining" into zero-based
// indices. Unknown or out-of-range tokens are returned verbatim so the
// caller can enumerate them; any invalid token aborts the whole selection.
func parseSelection(selection string, size int) (indices []int, invalid []string) {
	selection = strings.TrimSpace(strings.ToLower(selection))
	if selection == "" || selection == "all" || selection == "remaining" || selection == "rest" {
		return allIndices(size), nil
	}

	seen := make(map[int]bool)
	for _, token := range strings.Split(selection, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if lo, hi, ok := parseRangeToken(token); ok {
			if lo < 1 || hi > size || lo > hi {
				invalid = append(invalid, token)
				continue
			}
			for n := lo; n <= hi; n++ {
				seen[n-1] = true
			}
			continue
		}
		n, err := strconv.Atoi(token)
		if err != nil || n < 1 || n > size {
			invalid = append(invalid, token)
			continue
		}
		seen[n-1] = true
	}
	if len(invalid) > 0 {
		return nil, invalid
	}
	for idx := range seen {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices, nil
}

func parseRangeToken(token string) (lo, hi int, ok bool) {
	parts := strings.SplitN(token, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lo, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	hi, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lo, hi, true
}

// applySelection commits the selected subset of the pending plan as one
// atomic unit and one history entry. Unselected items survive as a fresh
// pending plan; the former plan object is discarded.
func (e *Engine) applySelection(ctx context.Context, indices []int) Result {
	pending := e.pending
	if len(indices) == 0 {
		return fail("selection matches no plan items")
	}

	selected := make([]planner.ChangePreview, 0, len(indices))
	picked := make(map[int]bool, len(indices))
	for _, idx := range indices {
		selected = append(selected, pending.Preview[idx])
		picked[idx] = true
	}

	applied := pending
	if len(selected) < len(pending.Preview) {
		var remainder []planner.ChangePreview
		for i, cp := range pending.Preview {
			if !picked[i] {
				remainder = append(remainder, cp)
			}
		}
		applied = &planner.TransactionPlan{
			ID:          uuid.New().String(),
			Type:        pending.Type,
			Preview:     selected,
			Validation:  pending.Validation,
			Risk:        pending.Risk,
			CreatedAt:   pending.CreatedAt,
			Status:      planner.StatusPending,
			Description: fmt.Sprintf("%s (%d of %d items)", pending.Description, len(selected), len(pending.Preview)),
		}
		e.pending = &planner.TransactionPlan{
			ID:          uuid.New().String(),
			Type:        pending.Type,
			Preview:     remainder,
			Validation:  pending.Validation,
			Risk:        pending.Risk,
			CreatedAt:   pending.CreatedAt,
			Status:      planner.StatusPending,
			Description: fmt.Sprintf("%s (remaining %d items)", pending.Description, len(remainder)),
		}
	} else {
		e.pending = nil
	}

	e.applyForward(ctx, applied)
	e.redo = nil // a fresh apply invalidates the redo stack

	message := fmt.Sprintf("applied %d change(s)", len(selected))
	if e.pending != nil {
		message += fmt.Sprintf("; %d item(s) still pending", len(e.pending.Preview))
	}
	return Result{Success: true, Message: message, Changes: selected, PendingPlan: e.pending}
}

// reject discards the pending plan without mutation and pings the external
// selection hook so review UIs can reset.
func (e *Engine) reject() Result {
	if e.pending == nil {
		return fail("no pending plan to cancel")
	}
	e.pending.Status = planner.StatusRejected
	e.pending = nil
	if e.collab.ClearSelection != nil {
		e.safeHook("clear_selection", func() error {
			e.collab.ClearSelection()
			return nil
		})
	}
	return Result{Success: true, Message: "pending plan discarded"}
}

// applyForward mutates a clone of the current tree per the plan's previews,
// swaps it in, marks the plan applied, records it on the bounded history
// and fires the collaborator notifications.
func (e *Engine) applyForward(ctx context.Context, plan *planner.TransactionPlan) {
	next := e.tree.Clone()
	for _, cp := range plan.Preview {
		setLeaf(next, cp)
	}
	e.tree = next

	now := time.Now()
	plan.Status = planner.StatusApplied
	plan.AppliedAt = &now
	e.pushHistory(plan)

	e.notifyApply(ctx, plan)
}

// applyInverse applies a synthesized inverse plan against the current tree
// without recording it on history (history stores forward plans only).
func (e *Engine) applyInverse(ctx context.Context, inverse *planner.TransactionPlan) {
	next := e.tree.Clone()
	for _, cp := range inverse.Preview {
		setLeaf(next, cp)
	}
	e.tree = next
	e.notifyApply(ctx, inverse)
}

// setLeaf writes one preview's new value into the tree. Leaves that no
// longer exist (structural drift since planning) are skipped.
func setLeaf(t *tree.Tree, cp planner.ChangePreview) {
	eng := t.Engine(cp.Engine)
	if eng == nil {
		return
	}
	grp := eng.Group(cp.Group)
	if grp == nil {
		return
	}
	logic := grp.Logic(cp.Logic)
	if logic == nil {
		return
	}
	if _, ok := logic.Fields[cp.Field]; !ok {
		return
	}
	logic.Fields[cp.Field] = cp.NewValue
}

// pushHistory appends an applied plan, evicting the oldest entry when the
// shared capacity bound is exceeded.
func (e *Engine) pushHistory(plan *planner.TransactionPlan) {
	e.history = append(e.history, plan)
	if e.opts.HistoryLimit > 0 && len(e.history) > e.opts.HistoryLimit {
		e.history = e.history[len(e.history)-e.opts.HistoryLimit:]
	}
}

func (e *Engine) pushRedo(plan *planner.TransactionPlan) {
	e.redo = append(e.redo, plan)
	if e.opts.HistoryLimit > 0 && len(e.redo) > e.opts.HistoryLimit {
		e.redo = e.redo[len(e.redo)-e.opts.HistoryLimit:]
	}
}

// undo pops up to n applied plans, applies their inverses against the
// current tree (later unrelated edits are preserved) and pushes the
// original forward plans onto the redo stack.
func (e *Engine) undo(ctx context.Context, n int) Result {
	if len(e.history) == 0 {
		return fail("nothing to undo")
	}
	var combined []planner.ChangePreview
	undone := 0
	for i := 0; i < n && len(e.history) > 0; i++ {
		plan := e.history[len(e.history)-1]
		e.history = e.history[:len(e.history)-1]

		inverse := planner.Inverse(plan)
		e.applyInverse(ctx, inverse)
		e.pushRedo(plan)
		combined = append(combined, inverse.Preview...)
		undone++
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("undid %d plan(s), %d leaf change(s) reverted", undone, len(combined)),
		Changes: combined,
	}
}

// redoN pops up to n undone plans and re-applies them verbatim, pushing
// them back onto history in their forward form.
func (e *Engine) redoN(ctx context.Context, n int) Result {
	if len(e.redo) == 0 {
		return fail("nothing to redo")
	}
	var combined []planner.ChangePreview
	redone := 0
	for i := 0; i < n && len(e.redo) > 0; i++ {
		plan := e.redo[len(e.redo)-1]
		e.redo = e.redo[:len(e.redo)-1]

		e.applyForward(ctx, plan)
		combined = append(combined, plan.Preview...)
		redone++
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("redid %d plan(s), %d leaf change(s) re-applied", redone, len(combined)),
		Changes: combined,
	}
}

// historyListing formats the most recent n applied plans, newest first
func (e *Engine) historyListing(n int) Result {
	if len(e.history) == 0 {
		return Result{Success: true, Message: "history is empty"}
	}
	var b strings.Builder
	shown := 0
	for i := len(e.history) - 1; i >= 0 && shown < n; i-- {
		plan := e.history[i]
		when := ""
		if plan.AppliedAt != nil {
			when = plan.AppliedAt.Format("15:04:05")
		}
		fmt.Fprintf(&b, "%d. [%s] %s: %d change(s), risk %s\n",
			shown+1, when, plan.Description, len(plan.Preview), plan.Risk.Level)
		shown++
	}
	return Result{Success: true, Message: strings.TrimRight(b.String(), "\n")}
}

// notifyApply fans a successful apply out to the collaborators. Failures
// here are logged and swallowed: the primary mutation already succeeded and
// must not be rolled back because a collaborator misbehaved.
func (e *Engine) notifyApply(ctx context.Context, plan *planner.TransactionPlan) {
	current := e.tree

	if e.collab.Store != nil {
		e.safeHook("config_store", func() error {
			return e.collab.Store.OnChange(ctx, current)
		})
	}
	if e.collab.Snapshots != nil {
		e.safeHook("snapshot_recorder", func() error {
			return e.collab.Snapshots.CreateSnapshot(ctx, current, plan.Description, e.opts.User, []string{plan.Type})
		})
	}
	if e.collab.Ledger != nil {
		e.safeHook("change_ledger", func() error {
			for _, cp := range plan.Preview {
				op := LedgerOperation{
					Type:        plan.Type,
					Target:      fmt.Sprintf("%s/%d/%s/%s", cp.Engine, cp.Group, cp.Logic, cp.Field),
					Before:      cp.CurrentValue.String(),
					After:       cp.NewValue.String(),
					Description: plan.Description,
					Timestamp:   time.Now(),
				}
				if err := e.collab.Ledger.AddOperation(ctx, op); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if e.collab.Learning != nil {
		e.safeHook("learning_recorder", func() error {
			return e.collab.Learning.RecordAction(ctx, e.opts.User, plan.Type, plan.Preview,
				map[string]string{"plan_id": plan.ID, "description": plan.Description})
		})
	}
}

// safeHook runs a side notification, containing both errors and panics
func (e *Engine) safeHook(name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Str("hook", name).Interface("panic", r).Msg("side notification panicked")
		}
	}()
	if err := fn(); err != nil {
		e.log.Error().Str("hook", name).Err(err).Msg("side notification failed")
	}
}
