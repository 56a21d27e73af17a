package planner

import (
	"fmt"
	"math"

	"gridfx-config-bot/internal/schema"
)

// Risk scoring weights. Score is magnitude + blast radius + criticality,
// bucketed into levels at the thresholds below.
const (
	riskThresholdMedium   = 25.0
	riskThresholdHigh     = 55.0
	riskThresholdCritical = 80.0
)

var criticalityScore = map[schema.Criticality]float64{
	schema.CriticalityLow:      2,
	schema.CriticalityMedium:   8,
	schema.CriticalityHigh:     18,
	schema.CriticalityCritical: 30,
}

// assessRisk scores a change set from the magnitude of individual changes,
// the number of affected leaves and the criticality class of the touched
// fields.
func assessRisk(previews []ChangePreview) Risk {
	if len(previews) == 0 {
		return Risk{Level: RiskLow, Score: 0}
	}

	var magnitude, criticality float64
	touchedCritical := make(map[string]bool)
	for _, cp := range previews {
		if cp.DeltaPercent != nil {
			magnitude += math.Min(math.Abs(*cp.DeltaPercent), 200)
		} else if cp.Delta != nil {
			magnitude += math.Min(math.Abs(*cp.Delta), 200)
		} else if !cp.CurrentValue.Equal(cp.NewValue) {
			magnitude += 50 // non-numeric flips count as significant
		}
		if spec, ok := schema.FieldByName(cp.Field); ok {
			criticality = math.Max(criticality, criticalityScore[spec.Criticality])
			if spec.Criticality == schema.CriticalityCritical || spec.Criticality == schema.CriticalityHigh {
				touchedCritical[cp.Field] = true
			}
		}
	}
	avgMagnitude := magnitude / float64(len(previews))

	// Blast radius saturates: a 1000-leaf plan is not 100x riskier than a
	// 10-leaf one, but it is materially harder to review.
	radius := math.Min(float64(len(previews))/10, 30)

	score := math.Min(avgMagnitude/4+radius+criticality, 100)

	risk := Risk{Score: math.Round(score*10) / 10}
	switch {
	case score >= riskThresholdCritical:
		risk.Level = RiskCritical
	case score >= riskThresholdHigh:
		risk.Level = RiskHigh
	case score >= riskThresholdMedium:
		risk.Level = RiskMedium
	default:
		risk.Level = RiskLow
	}

	if avgMagnitude/4 >= 20 {
		risk.Reasons = append(risk.Reasons, fmt.Sprintf("large average change magnitude (%.0f%%)", avgMagnitude))
	}
	if len(previews) >= 100 {
		risk.Reasons = append(risk.Reasons, fmt.Sprintf("%d leaves affected", len(previews)))
	}
	for field := range touchedCritical {
		risk.Reasons = append(risk.Reasons, "touches safety-related field "+field)
	}
	return risk
}
