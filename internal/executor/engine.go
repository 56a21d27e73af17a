// Package executor owns the live configuration snapshot, the pending
// transaction plan and the bounded undo/redo history. It routes parsed
// commands, enforces rate and size guards, applies plans (fully or
// partially) and notifies the external collaborators after every
// successful mutation.
package executor

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gridfx-config-bot/internal/command"
	"gridfx-config-bot/internal/planner"
	"gridfx-config-bot/internal/tree"
)

// Options configures the engine's resource discipline
type Options struct {
	HistoryLimit  int           // max entries kept on each of history/redo
	RateLimit     int           // executions per rolling window, 0 disables
	RateWindow    time.Duration
	MaxLeaves     int           // structural size guard on the tree
	DefaultGroups int           // groups per engine in the default tree
	AutoApprove   bool          // apply plans without explicit approval
	User          string        // author recorded on snapshots and actions
}

// DefaultOptions returns the stock resource policy
func DefaultOptions() Options {
	return Options{
		HistoryLimit:  50,
		RateLimit:     30,
		RateWindow:    time.Minute,
		MaxLeaves:     200000,
		DefaultGroups: 15,
		User:          "operator",
	}
}

// QueryRow is one leaf in a query result
type QueryRow struct {
	Engine string `json:"engine"`
	Group  int    `json:"group"`
	Logic  string `json:"logic"`
	Field  string `json:"field"`
	Value  string `json:"value"`
}

// Result is the structured outcome of one executed command. Errors never
// escape as panics or raw errors across this boundary.
type Result struct {
	Success     bool                     `json:"success"`
	Message     string                   `json:"message"`
	Changes     []planner.ChangePreview  `json:"changes,omitempty"`
	PendingPlan *planner.TransactionPlan `json:"pending_plan,omitempty"`
	QueryResult []QueryRow               `json:"query_result,omitempty"`
}

// Engine is the single-writer execution engine. All operations are
// serialized behind one mutex; plan creation reads the immutable current
// snapshot and apply swaps in a fresh clone, so concurrent readers never
// observe a half-mutated tree.
type Engine struct {
	mu      sync.Mutex
	opts    Options
	planner *planner.Planner
	limiter *RateLimiter
	collab  Collaborators
	log     zerolog.Logger

	tree    *tree.Tree
	pending *planner.TransactionPlan
	history []*planner.TransactionPlan
	redo    []*planner.TransactionPlan
}

// New creates an engine with the given collaborators. Nil collaborator
// members are allowed and skipped at notification time.
func New(opts Options, collab Collaborators, log zerolog.Logger) *Engine {
	return &Engine{
		opts:    opts,
		planner: planner.New(collab.Compatibility),
		limiter: NewRateLimiter(opts.RateLimit, opts.RateWindow),
		collab:  collab,
		log:     log.With().Str("component", "executor").Logger(),
	}
}

// Tree returns the current snapshot (read-only by convention)
func (e *Engine) Tree() *tree.Tree {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tree
}

// PendingPlan returns the plan awaiting approval, nil if none
func (e *Engine) PendingPlan() *planner.TransactionPlan {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

// History returns the applied plans, newest first
func (e *Engine) History() []*planner.TransactionPlan {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*planner.TransactionPlan, 0, len(e.history))
	for i := len(e.history) - 1; i >= 0; i-- {
		out = append(out, e.history[i])
	}
	return out
}

// Execute runs one text command end to end. Meta commands (approve,
// reject, undo, redo, history, help, greetings) are intercepted before the
// parser's command-type switch.
func (e *Engine) Execute(ctx context.Context, text string) Result {
	normalized := strings.TrimSpace(strings.ToLower(text))
	if normalized == "" {
		return fail("empty command")
	}

	// Small talk and help never touch tree or plan state.
	if normalized == "help" || normalized == "?" || command.IsGreeting(text) {
		return Result{Success: true, Message: helpText}
	}

	if !e.limiter.Allow() {
		return fail(fmt.Sprintf("rate limit exceeded: at most %d commands per %s", e.opts.RateLimit, e.opts.RateWindow))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.tree != nil && e.opts.MaxLeaves > 0 && e.tree.LeafCount() > e.opts.MaxLeaves {
		return fail(fmt.Sprintf("configuration tree has %d leaves, above the safe bound of %d; refusing to execute (possible corruption)",
			e.tree.LeafCount(), e.opts.MaxLeaves))
	}
	e.ensureTree(ctx)

	fields := strings.Fields(normalized)
	switch fields[0] {
	case "apply", "approve", "confirm":
		return e.approve(ctx, strings.Join(fields[1:], " "))
	case "cancel", "reject":
		return e.reject()
	case "undo":
		return e.undo(ctx, countArg(fields, 1))
	case "redo":
		return e.redoN(ctx, countArg(fields, 1))
	case "history":
		return e.historyListing(countArg(fields, 10))
	}

	parsed := command.Parse(text)
	switch parsed.Type {
	case command.CommandSet:
		return e.executeSet(ctx, parsed)
	case command.CommandSemantic, command.CommandFormula:
		return e.executeSemantic(ctx, parsed)
	case command.CommandProgression:
		return e.executeProgression(ctx, parsed)
	case command.CommandQuery:
		return e.executeQuery(parsed)
	case command.CommandCopy:
		return e.executeCopy(ctx, parsed)
	case command.CommandCompare:
		return e.executeCompare(parsed)
	case command.CommandReset:
		return e.executeReset(ctx, parsed)
	}
	return fail(fmt.Sprintf("could not understand %q; type 'help' for the command reference", text))
}

// ensureTree lazily materializes the working snapshot: the config store's
// current tree when available, otherwise the documented default tree.
func (e *Engine) ensureTree(ctx context.Context) {
	if e.tree != nil {
		return
	}
	if e.collab.Store != nil {
		if t, err := e.collab.Store.GetCurrent(ctx); err == nil && t != nil {
			e.tree = t
			return
		} else if err != nil {
			e.log.Warn().Err(err).Msg("config store unavailable, falling back to default tree")
		}
	}
	e.tree = tree.Default(e.opts.DefaultGroups)
}

func (e *Engine) executeSet(ctx context.Context, parsed command.ParsedCommand) Result {
	if parsed.Field == "" {
		return fail("set command needs a field; example: set grid to 600 for group 1")
	}
	if !parsed.Params.HasValue {
		return fail(fmt.Sprintf("set command needs a value for %s; example: set %s to 600", parsed.Field, parsed.Field))
	}
	plan, err := e.planner.Set(e.tree, parsed.Target, parsed.Field, parsed.Params.Value)
	if err != nil {
		return fail(err.Error())
	}
	plan.Description = command.Describe(parsed)
	return e.stageOrApply(ctx, plan)
}

func (e *Engine) executeSemantic(ctx context.Context, parsed command.ParsedCommand) Result {
	if parsed.Semantic == nil || len(parsed.Semantic.Operations) == 0 {
		return fail("could not extract an operation; example: increase grid by 10% for groups 1-5")
	}
	plan, err := e.planner.Semantic(e.tree, parsed.Target, parsed.Semantic)
	if err != nil {
		return fail(err.Error())
	}
	return e.stageOrApply(ctx, plan)
}

func (e *Engine) executeProgression(ctx context.Context, parsed command.ParsedCommand) Result {
	if parsed.Field == "" {
		return fail("progression needs a field; example: create fibonacci progression for grid from 100 to 800 for groups 1-8")
	}
	plan, err := e.planner.Progression(e.tree, parsed.Target, parsed.Field, parsed.Params)
	if err != nil {
		return fail(err.Error())
	}
	return e.stageOrApply(ctx, plan)
}

// stageOrApply parks the plan as pending for review, or applies it
// immediately in auto-approve mode. Empty plans are no-op successes.
func (e *Engine) stageOrApply(ctx context.Context, plan *planner.TransactionPlan) Result {
	if len(plan.Preview) == 0 {
		return Result{Success: true, Message: "no matching targets; nothing to change", PendingPlan: plan}
	}
	if e.opts.AutoApprove {
		e.pending = plan
		return e.applySelection(ctx, allIndices(len(plan.Preview)))
	}
	e.pending = plan
	return Result{
		Success: true,
		Message: fmt.Sprintf("plan ready: %d change(s), risk %s; 'apply' to commit, 'apply 1-3,7' for a subset, 'cancel' to discard",
			len(plan.Preview), plan.Risk.Level),
		PendingPlan: plan,
	}
}

func countArg(fields []string, fallback int) int {
	if len(fields) < 2 {
		return fallback
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func fail(message string) Result {
	return Result{Success: false, Message: message}
}

const helpText = `Commands:
  set <field> to <value> [for <logic>] [group N | groups N-M] [engine A]
  enable|disable <field|logic> [targets]
  increase|decrease <field> by <n|n%> [targets]
  create <fibonacci|linear|exponential> progression for <field> from X to Y for groups N-M
  copy group N to groups A-B
  compare group N and group M
  reset <all | targets>
  show <field> [targets] [> value]
  apply [1-3,7 | remaining]   approve the pending plan (or a subset)
  cancel                      discard the pending plan
  undo [n] / redo [n]         step the applied-plan history
  history [n]                 list recent applied plans`
