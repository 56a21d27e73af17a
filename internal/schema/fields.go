package schema

import "strings"

// Criticality classifies how dangerous it is to change a field blindly.
// Risk scoring weighs critical fields the highest.
type Criticality string

const (
	CriticalityLow      Criticality = "low"
	CriticalityMedium   Criticality = "medium"
	CriticalityHigh     Criticality = "high"
	CriticalityCritical Criticality = "critical"
)

// FieldSpec describes one leaf parameter of a logic
type FieldSpec struct {
	Name        string      // canonical name, case-sensitive
	Kind        FieldKind
	Min         float64     // numeric bounds, inclusive
	Max         float64
	Enum        []string    // allowed values for KindEnum
	Criticality Criticality
	Aliases     []string    // surface forms, matched case-insensitively
}

// MaxGroups is the hard ceiling for group numbers across the whole system.
// The parser drops group tokens above it during extraction and the executor
// validates targets against the same constant, so the two layers can never
// disagree about the valid range.
const MaxGroups = 50

// fieldRegistry lists every addressable field, ordered so that more
// specific aliases are registered before their prefixes (trail_step_cycle
// before trail_step before trail_value). FieldByAlias depends on this
// ordering when several aliases share a prefix.
var fieldRegistry = []FieldSpec{
	{
		Name: "trail_step_cycle", Kind: KindNumber, Min: 1, Max: 7,
		Criticality: CriticalityLow,
		Aliases:     []string{"trail_step_cycle", "trail step cycle", "trailstepcycle", "step cycle"},
	},
	{
		Name: "trail_step_balance", Kind: KindNumber, Min: 0, Max: 100,
		Criticality: CriticalityLow,
		Aliases:     []string{"trail_step_balance", "trail step balance", "step balance"},
	},
	{
		Name: "trail_step", Kind: KindNumber, Min: 0, Max: 1000,
		Criticality: CriticalityMedium,
		Aliases:     []string{"trail_step", "trail step", "trailstep"},
	},
	{
		Name: "trail_start", Kind: KindNumber, Min: 0, Max: 1000,
		Criticality: CriticalityMedium,
		Aliases:     []string{"trail_start", "trail start", "trailstart"},
	},
	{
		Name: "trail_value", Kind: KindNumber, Min: 0, Max: 1000,
		Criticality: CriticalityMedium,
		Aliases:     []string{"trail_value", "trail value", "trailvalue", "trail"},
	},
	{
		Name: "trail_method", Kind: KindEnum,
		Enum:        []string{"classic", "stepped", "peak_lock", "hybrid"},
		Criticality: CriticalityLow,
		Aliases:     []string{"trail_method", "trail method", "trailmethod"},
	},
	{
		Name: "break_even_activation", Kind: KindNumber, Min: 0, Max: 10000,
		Criticality: CriticalityMedium,
		Aliases:     []string{"break_even_activation", "breakeven activation", "break even activation", "breakeven", "break even"},
	},
	{
		Name: "break_even_lock", Kind: KindNumber, Min: 0, Max: 10000,
		Criticality: CriticalityMedium,
		Aliases:     []string{"break_even_lock", "breakeven lock", "break even lock"},
	},
	{
		Name: "profit_trail_peak_drop", Kind: KindNumber, Min: 0, Max: 100,
		Criticality: CriticalityMedium,
		Aliases:     []string{"profit_trail_peak_drop", "peak drop", "profit trail peak drop"},
	},
	{
		Name: "profit_trail_lock", Kind: KindNumber, Min: 0, Max: 100,
		Criticality: CriticalityMedium,
		Aliases:     []string{"profit_trail_lock", "profit trail lock", "profit lock"},
	},
	{
		Name: "initial_lot", Kind: KindNumber, Min: 0.01, Max: 100,
		Criticality: CriticalityCritical,
		Aliases:     []string{"initial_lot", "initial lot", "initiallot", "lot size", "lotsize", "lot"},
	},
	{
		Name: "last_lot", Kind: KindNumber, Min: 0.01, Max: 500,
		Criticality: CriticalityCritical,
		Aliases:     []string{"last_lot", "last lot", "lastlot", "max lot", "maxlot"},
	},
	{
		Name: "multiplier", Kind: KindNumber, Min: 1.0, Max: 5.0,
		Criticality: CriticalityCritical,
		Aliases:     []string{"multiplier", "mult", "martingale"},
	},
	{
		Name: "grid_behavior", Kind: KindEnum,
		Enum:        []string{"fixed", "dynamic", "adaptive"},
		Criticality: CriticalityMedium,
		Aliases:     []string{"grid_behavior", "grid behavior", "gridbehavior"},
	},
	{
		Name: "grid", Kind: KindNumber, Min: 1, Max: 10000,
		Criticality: CriticalityHigh,
		Aliases:     []string{"grid_size", "grid size", "gridsize", "grid spacing", "grid"},
	},
	{
		Name: "take_profit", Kind: KindNumber, Min: 0, Max: 100000,
		Criticality: CriticalityHigh,
		Aliases:     []string{"take_profit", "take profit", "takeprofit", "tp"},
	},
	{
		Name: "stop_loss", Kind: KindNumber, Min: 0, Max: 100000,
		Criticality: CriticalityCritical,
		Aliases:     []string{"stop_loss", "stop loss", "stoploss", "sl"},
	},
	{
		Name: "trigger_pips", Kind: KindNumber, Min: 0, Max: 1000,
		Criticality: CriticalityLow,
		Aliases:     []string{"trigger_pips", "trigger pips"},
	},
	{
		Name: "trigger_bars", Kind: KindNumber, Min: 0, Max: 100,
		Criticality: CriticalityLow,
		Aliases:     []string{"trigger_bars", "trigger bars"},
	},
	{
		Name: "trigger_minutes", Kind: KindNumber, Min: 0, Max: 1440,
		Criticality: CriticalityLow,
		Aliases:     []string{"trigger_minutes", "trigger minutes"},
	},
	{
		Name: "start_level", Kind: KindNumber, Min: 0, Max: 50,
		Criticality: CriticalityMedium,
		Aliases:     []string{"start_level", "start level", "startlevel"},
	},
	{
		Name: "enabled", Kind: KindBool,
		Criticality: CriticalityHigh,
		Aliases:     []string{"enabled"},
	},
	{
		Name: "use_tp", Kind: KindBool,
		Criticality: CriticalityMedium,
		Aliases:     []string{"use_tp", "use tp"},
	},
	{
		Name: "use_sl", Kind: KindBool,
		Criticality: CriticalityHigh,
		Aliases:     []string{"use_sl", "use sl"},
	},
	{
		Name: "profit_trail_enabled", Kind: KindBool,
		Criticality: CriticalityMedium,
		Aliases:     []string{"profit_trail_enabled", "profit trail"},
	},
	{
		Name: "reverse_enabled", Kind: KindBool,
		Criticality: CriticalityMedium,
		Aliases:     []string{"reverse_enabled", "reverse"},
	},
	{
		Name: "hedge_enabled", Kind: KindBool,
		Criticality: CriticalityMedium,
		Aliases:     []string{"hedge_enabled", "hedge"},
	},
}

var fieldByName map[string]*FieldSpec

func init() {
	fieldByName = make(map[string]*FieldSpec, len(fieldRegistry))
	for i := range fieldRegistry {
		fieldByName[fieldRegistry[i].Name] = &fieldRegistry[i]
	}
}

// Fields returns the full registry in declaration order
func Fields() []FieldSpec {
	return fieldRegistry
}

// FieldByName looks up a field by its canonical name
func FieldByName(name string) (*FieldSpec, bool) {
	spec, ok := fieldByName[name]
	return spec, ok
}

// FieldByAlias resolves a surface form to its canonical field. Matching is
// case-insensitive and honors registry order, so "trail step cycle" resolves
// before the shorter "trail step" or "trail" could swallow it.
func FieldByAlias(surface string) (*FieldSpec, bool) {
	lower := strings.ToLower(strings.TrimSpace(surface))
	for i := range fieldRegistry {
		for _, alias := range fieldRegistry[i].Aliases {
			if alias == lower {
				return &fieldRegistry[i], true
			}
		}
	}
	return nil, false
}

// BoolFieldFor maps a toggle target ("profit trail", "tp") to the boolean
// field toggled by enable/disable commands. Falls back to the bare field when
// it is already boolean.
func BoolFieldFor(surface string) (*FieldSpec, bool) {
	spec, ok := FieldByAlias(surface)
	if !ok {
		return nil, false
	}
	if spec.Kind == KindBool {
		return spec, true
	}
	if companion, ok := toggleCompanion[spec.Name]; ok {
		if toggled, found := FieldByName(companion); found {
			return toggled, true
		}
	}
	if toggled, found := FieldByName(spec.Name + "_enabled"); found {
		return toggled, true
	}
	return nil, false
}

// toggleCompanion maps value fields to the boolean that switches them
var toggleCompanion = map[string]string{
	"take_profit": "use_tp",
	"stop_loss":   "use_sl",
}
