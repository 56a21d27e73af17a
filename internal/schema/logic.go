package schema

import "strings"

// Canonical logic names. A group carries one instance of each.
const (
	LogicPower   = "POWER"
	LogicRepower = "REPOWER"
	LogicScalper = "SCALPER"
	LogicStopper = "STOPPER"
	LogicSTO     = "STO"
	LogicSCA     = "SCA"
	LogicRPO     = "RPO"
)

// LogicNames is the closed logic set in canonical order
var LogicNames = []string{
	LogicPower, LogicRepower, LogicScalper, LogicStopper,
	LogicSTO, LogicSCA, LogicRPO,
}

// EngineIDs is the fixed engine set
var EngineIDs = []string{"A", "B", "C"}

// logicAliases maps surface forms to canonical logic names, ordered longest
// first so "repower" can never be classified as a mention of POWER. The
// parser must iterate in slice order and anchor matches at word boundaries.
var logicAliases = []struct {
	Surface   string
	Canonical string
}{
	{"repower", LogicRepower},
	{"scalper", LogicScalper},
	{"stopper", LogicStopper},
	{"scalp", LogicScalper},
	{"power", LogicPower},
	{"rpo", LogicRPO},
	{"sca", LogicSCA},
	{"sto", LogicSTO},
}

// LogicAliases returns the alias table in matching order (longest first)
func LogicAliases() []struct {
	Surface   string
	Canonical string
} {
	return logicAliases
}

// IsLogicName reports whether name is a canonical logic name
func IsLogicName(name string) bool {
	for _, n := range LogicNames {
		if n == name {
			return true
		}
	}
	return false
}

// IsEngineID reports whether id is a known engine (case-insensitive)
func IsEngineID(id string) bool {
	upper := strings.ToUpper(id)
	for _, e := range EngineIDs {
		if e == upper {
			return true
		}
	}
	return false
}
