// Package review makes large transaction plans reviewable: it groups a
// plan's change list by a chosen dimension, supports search and risk
// filtering over the groups, and tracks per-leaf approve/reject state in an
// overlay that never mutates the plan itself.
package review

import (
	"fmt"
	"sort"
	"strings"

	"gridfx-config-bot/internal/planner"
	"gridfx-config-bot/internal/schema"
)

// Dimension selects how previews are partitioned for review
type Dimension string

const (
	ByGroup  Dimension = "group"
	ByLogic  Dimension = "logic"
	ByField  Dimension = "field"
	ByEngine Dimension = "engine"
)

// VariousSentinel is reported when members of an aggregated group disagree
// on a value.
const VariousSentinel = "various"

// AggregatedGroup is one review bucket. Indices reference positions in the
// original preview list, so selection can be resolved back to leaves.
type AggregatedGroup struct {
	Dimension    Dimension         `json:"dimension"`
	Key          string            `json:"key"`
	Indices      []int             `json:"indices"`
	Count        int               `json:"count"`
	CurrentValue string            `json:"current_value"`
	NewValue     string            `json:"new_value"`
	Delta        *float64          `json:"delta,omitempty"`
	DeltaPercent *float64          `json:"delta_percent,omitempty"`
	Risk         planner.RiskLevel `json:"risk"`
}

// Aggregate partitions previews by the requested dimension. Buckets report
// a uniform current/new value when every member agrees, otherwise the
// "various" sentinel. The representative risk of a bucket is the risk of
// its worst member field.
func Aggregate(previews []planner.ChangePreview, dim Dimension) []AggregatedGroup {
	buckets := make(map[string][]int)
	for i, cp := range previews {
		key := bucketKey(cp, dim)
		buckets[key] = append(buckets[key], i)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]AggregatedGroup, 0, len(keys))
	for _, key := range keys {
		indices := buckets[key]
		group := AggregatedGroup{
			Dimension: dim,
			Key:       key,
			Indices:   indices,
			Count:     len(indices),
			Risk:      representativeRisk(previews, indices),
		}

		first := previews[indices[0]]
		uniformCurrent, uniformNew := true, true
		for _, idx := range indices[1:] {
			if !previews[idx].CurrentValue.Equal(first.CurrentValue) {
				uniformCurrent = false
			}
			if !previews[idx].NewValue.Equal(first.NewValue) {
				uniformNew = false
			}
		}
		if uniformCurrent {
			group.CurrentValue = first.CurrentValue.String()
		} else {
			group.CurrentValue = VariousSentinel
		}
		if uniformNew {
			group.NewValue = first.NewValue.String()
		} else {
			group.NewValue = VariousSentinel
		}
		if uniformCurrent && uniformNew && first.Delta != nil {
			d := *first.Delta
			group.Delta = &d
			if first.DeltaPercent != nil {
				p := *first.DeltaPercent
				group.DeltaPercent = &p
			}
		}
		out = append(out, group)
	}
	return out
}

func bucketKey(cp planner.ChangePreview, dim Dimension) string {
	switch dim {
	case ByGroup:
		return fmt.Sprintf("group %d", cp.Group)
	case ByLogic:
		return cp.Logic
	case ByField:
		return cp.Field
	case ByEngine:
		return "engine " + cp.Engine
	}
	return cp.Field
}

// representativeRisk reports the worst field criticality within a bucket,
// mapped to a risk level.
func representativeRisk(previews []planner.ChangePreview, indices []int) planner.RiskLevel {
	worst := planner.RiskLow
	for _, idx := range indices {
		spec, ok := schema.FieldByName(previews[idx].Field)
		if !ok {
			continue
		}
		var level planner.RiskLevel
		switch spec.Criticality {
		case schema.CriticalityCritical:
			level = planner.RiskCritical
		case schema.CriticalityHigh:
			level = planner.RiskHigh
		case schema.CriticalityMedium:
			level = planner.RiskMedium
		default:
			level = planner.RiskLow
		}
		if riskRank(level) > riskRank(worst) {
			worst = level
		}
	}
	return worst
}

func riskRank(level planner.RiskLevel) int {
	switch level {
	case planner.RiskCritical:
		return 3
	case planner.RiskHigh:
		return 2
	case planner.RiskMedium:
		return 1
	}
	return 0
}

// Search filters aggregated groups by a case-insensitive substring match on
// the bucket key.
func Search(groups []AggregatedGroup, query string) []AggregatedGroup {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return groups
	}
	var out []AggregatedGroup
	for _, g := range groups {
		if strings.Contains(strings.ToLower(g.Key), query) {
			out = append(out, g)
		}
	}
	return out
}

// FilterByRisk keeps only groups at or above the given risk level
func FilterByRisk(groups []AggregatedGroup, minimum planner.RiskLevel) []AggregatedGroup {
	var out []AggregatedGroup
	for _, g := range groups {
		if riskRank(g.Risk) >= riskRank(minimum) {
			out = append(out, g)
		}
	}
	return out
}

// DrillDown exposes the raw previews underlying one aggregated group, in
// original plan order.
func DrillDown(previews []planner.ChangePreview, group AggregatedGroup) []planner.ChangePreview {
	out := make([]planner.ChangePreview, 0, len(group.Indices))
	for _, idx := range group.Indices {
		if idx >= 0 && idx < len(previews) {
			out = append(out, previews[idx])
		}
	}
	return out
}
