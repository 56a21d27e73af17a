package executor

import (
	"context"
	"time"

	"gridfx-config-bot/internal/planner"
	"gridfx-config-bot/internal/tree"
)

// ConfigStore owns persistence of the current tree. The engine pushes every
// successful mutation through OnChange and loads the starting snapshot from
// GetCurrent; it never persists anything itself.
type ConfigStore interface {
	GetCurrent(ctx context.Context) (*tree.Tree, error)
	OnChange(ctx context.Context, t *tree.Tree) error
}

// SnapshotRecorder is the version-control collaborator, called once per
// successful apply. Fire-and-forget: failures are logged, never fatal.
type SnapshotRecorder interface {
	CreateSnapshot(ctx context.Context, t *tree.Tree, message, author string, tags []string) error
}

// LedgerOperation is one leaf change record for the external change ledger
// (the undo/redo UI, distinct from the engine's own history stacks).
type LedgerOperation struct {
	Type        string    `json:"type"`
	Target      string    `json:"target"` // engine/group/logic/field path
	Before      string    `json:"before"`
	After       string    `json:"after"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// ChangeLedger records individual leaf changes for external review UIs
type ChangeLedger interface {
	AddOperation(ctx context.Context, op LedgerOperation) error
}

// LearningRecorder feeds the external memory/recommendation system
type LearningRecorder interface {
	RecordAction(ctx context.Context, user, actionType string, changes []planner.ChangePreview, actionContext map[string]string) error
}

// SelectionHook lets external selection UIs reset when a pending plan is
// rejected.
type SelectionHook func()

// Collaborators bundles the constructor-injected external interfaces. Any
// nil member is skipped; there is no ambient global state.
type Collaborators struct {
	Store          ConfigStore
	Snapshots      SnapshotRecorder
	Ledger         ChangeLedger
	Learning       LearningRecorder
	ClearSelection SelectionHook
	Compatibility  planner.CompatibilityChecker
}
