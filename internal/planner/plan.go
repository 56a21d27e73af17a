// Package planner computes previewable transaction plans against a
// configuration snapshot. Planning is pure: the tree is read, never
// written, and history/pending state is the executor's business.
package planner

import (
	"time"

	"gridfx-config-bot/internal/schema"
)

// PlanStatus is the plan lifecycle state
type PlanStatus string

const (
	StatusPending  PlanStatus = "pending"
	StatusApplied  PlanStatus = "applied"
	StatusRejected PlanStatus = "rejected"
)

// RiskLevel buckets the heuristic risk score
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// ChangePreview is one proposed leaf mutation. Immutable once created;
// DeltaPercent is nil when the current value is zero or non-numeric.
type ChangePreview struct {
	Engine       string       `json:"engine"`
	Group        int          `json:"group"`
	Logic        string       `json:"logic"`
	Field        string       `json:"field"`
	CurrentValue schema.Value `json:"current_value"`
	NewValue     schema.Value `json:"new_value"`
	Delta        *float64     `json:"delta,omitempty"`
	DeltaPercent *float64     `json:"delta_percent,omitempty"`
}

// Validation aggregates structural and platform checks for a plan
type Validation struct {
	IsValid               bool     `json:"is_valid"`
	Errors                []string `json:"errors,omitempty"`
	Warnings              []string `json:"warnings,omitempty"`
	PlatformCompatibility []string `json:"platform_compatibility,omitempty"`
}

// Risk is the heuristic risk assessment of a plan
type Risk struct {
	Level   RiskLevel `json:"level"`
	Score   float64   `json:"score"`
	Reasons []string  `json:"reasons,omitempty"`
}

// TransactionPlan is a reviewable, not-yet-committed batch of leaf
// mutations. Created pending; the executor transitions it to applied (then
// immutable) or rejected (terminal). Partial application replaces it with a
// fresh pending plan covering the unconsumed remainder.
type TransactionPlan struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Preview     []ChangePreview `json:"preview"`
	Validation  Validation      `json:"validation"`
	Risk        Risk            `json:"risk"`
	CreatedAt   time.Time       `json:"created_at"`
	AppliedAt   *time.Time      `json:"applied_at,omitempty"`
	Status      PlanStatus      `json:"status"`
	Description string          `json:"description"`
}

// CompatibilityChecker is the external platform-compatibility collaborator.
// Its findings are merged into the plan's validation block.
type CompatibilityChecker interface {
	Check(previews []ChangePreview) []string
}

// NoopCompatibility satisfies CompatibilityChecker with no findings
type NoopCompatibility struct{}

// Check always reports full compatibility
func (NoopCompatibility) Check([]ChangePreview) []string { return nil }

// Inverse builds the undo plan for an applied plan: current and new values
// are swapped in every preview and deltas are cleared.
func Inverse(plan *TransactionPlan) *TransactionPlan {
	inv := &TransactionPlan{
		ID:          plan.ID + ":inverse",
		Type:        plan.Type,
		Preview:     make([]ChangePreview, 0, len(plan.Preview)),
		Validation:  Validation{IsValid: true},
		Risk:        plan.Risk,
		CreatedAt:   time.Now(),
		Status:      StatusPending,
		Description: "undo: " + plan.Description,
	}
	for _, cp := range plan.Preview {
		inv.Preview = append(inv.Preview, ChangePreview{
			Engine:       cp.Engine,
			Group:        cp.Group,
			Logic:        cp.Logic,
			Field:        cp.Field,
			CurrentValue: cp.NewValue,
			NewValue:     cp.CurrentValue,
		})
	}
	return inv
}
