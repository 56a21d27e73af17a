// Package store provides the collaborator implementations around the
// execution engine: a Redis-backed config store with in-memory fallback,
// PostgreSQL recorders for snapshots, the change ledger and learning
// actions, and in-memory variants for the CLI and tests.
package store

import (
	"context"
	"sync"
	"time"

	"gridfx-config-bot/internal/executor"
	"gridfx-config-bot/internal/planner"
	"gridfx-config-bot/internal/tree"
)

// MemoryStore is an in-process config store, used by the REPL and tests
type MemoryStore struct {
	mu      sync.RWMutex
	current *tree.Tree
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// GetCurrent returns the held tree, nil if none was stored yet
func (m *MemoryStore) GetCurrent(ctx context.Context) (*tree.Tree, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, nil
}

// OnChange replaces the held tree
func (m *MemoryStore) OnChange(ctx context.Context, t *tree.Tree) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = t
	return nil
}

// MemorySnapshot is one recorded snapshot entry
type MemorySnapshot struct {
	Message   string
	Author    string
	Tags      []string
	Leaves    int
	CreatedAt time.Time
}

// MemoryRecorder keeps snapshots, ledger operations and learning actions
// in bounded in-memory rings. It satisfies the SnapshotRecorder,
// ChangeLedger and LearningRecorder interfaces.
type MemoryRecorder struct {
	mu        sync.Mutex
	limit     int
	Snapshots []MemorySnapshot
	Ledger    []executor.LedgerOperation
	Actions   []string
}

// NewMemoryRecorder creates a recorder keeping at most limit entries per ring
func NewMemoryRecorder(limit int) *MemoryRecorder {
	if limit <= 0 {
		limit = 100
	}
	return &MemoryRecorder{limit: limit}
}

// CreateSnapshot records a snapshot marker
func (m *MemoryRecorder) CreateSnapshot(ctx context.Context, t *tree.Tree, message, author string, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Snapshots = append(m.Snapshots, MemorySnapshot{
		Message: message, Author: author, Tags: tags,
		Leaves: t.LeafCount(), CreatedAt: time.Now(),
	})
	if len(m.Snapshots) > m.limit {
		m.Snapshots = m.Snapshots[len(m.Snapshots)-m.limit:]
	}
	return nil
}

// AddOperation records one ledger operation
func (m *MemoryRecorder) AddOperation(ctx context.Context, op executor.LedgerOperation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Ledger = append(m.Ledger, op)
	if len(m.Ledger) > m.limit {
		m.Ledger = m.Ledger[len(m.Ledger)-m.limit:]
	}
	return nil
}

// RecordAction records a learning action marker
func (m *MemoryRecorder) RecordAction(ctx context.Context, user, actionType string, changes []planner.ChangePreview, actionContext map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Actions = append(m.Actions, user+":"+actionType)
	if len(m.Actions) > m.limit {
		m.Actions = m.Actions[len(m.Actions)-m.limit:]
	}
	return nil
}
