// Package command turns free-form operator text into structured, fully
// disambiguated commands against the strategy configuration tree. Parsing
// never fails: anything unrecognized comes back as CommandUnknown with the
// original text preserved for diagnostics.
package command

// Type classifies a parsed command
type Type string

const (
	CommandQuery       Type = "query"
	CommandSet         Type = "set"
	CommandSemantic    Type = "semantic"
	CommandProgression Type = "progression"
	CommandCopy        Type = "copy"
	CommandCompare     Type = "compare"
	CommandReset       Type = "reset"
	CommandFormula     Type = "formula"
	CommandUnknown     Type = "unknown"
)

// Target selects a slice of the tree. Empty dimensions mean "unfiltered",
// not "nothing". Groups are ascending and deduplicated.
type Target struct {
	Engines []string `json:"engines,omitempty"`
	Groups  []int    `json:"groups,omitempty"`
	Logics  []string `json:"logics,omitempty"`
}

// ProgressionKind selects how progression values are generated per group
type ProgressionKind string

const (
	ProgressionFibonacci   ProgressionKind = "fibonacci"
	ProgressionLinear      ProgressionKind = "linear"
	ProgressionExponential ProgressionKind = "exponential"
	ProgressionCustom      ProgressionKind = "custom"
)

// SemanticOp is one relative operation extracted from a semantic command
type SemanticOp struct {
	Field     string  `json:"field"`
	Op        string  `json:"op"` // increase, decrease, multiply, divide, set
	Operand   float64 `json:"operand"`
	IsPercent bool    `json:"is_percent"`
}

// Params carries the operation payload of a parsed command
type Params struct {
	Value        string          `json:"value,omitempty"` // raw token, coerced by the planner
	HasValue     bool            `json:"has_value,omitempty"`
	Operator     string          `json:"operator,omitempty"` // query comparison: > < >= <= =
	CompareValue float64         `json:"compare_value,omitempty"`
	StartValue   float64         `json:"start_value,omitempty"`
	EndValue     float64         `json:"end_value,omitempty"`
	HasEnd       bool            `json:"has_end,omitempty"`
	Progression  ProgressionKind `json:"progression,omitempty"`
	Factor       float64         `json:"factor,omitempty"`
	SourceGroup  int             `json:"source_group,omitempty"`
}

// Semantic groups the relative operations of a semantic command
type Semantic struct {
	Operations  []SemanticOp `json:"operations"`
	Description string       `json:"description"`
}

// ParsedCommand is the parser's output: a disambiguated target plus the
// operation to perform on it.
type ParsedCommand struct {
	Raw      string    `json:"raw"`
	Type     Type      `json:"type"`
	Target   Target    `json:"target"`
	Field    string    `json:"field,omitempty"`
	Params   Params    `json:"params"`
	Semantic *Semantic `json:"semantic,omitempty"`
}
