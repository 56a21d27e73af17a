// Package schema defines the closed field registry for grid strategy
// parameters: every addressable leaf field, its kind, bounds, criticality
// and the surface aliases the command parser is allowed to match. All
// field access in the rest of the codebase goes through this registry so
// there is no stringly-typed access to unknown fields.
package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldKind is the declared type of a leaf value
type FieldKind string

const (
	KindNumber FieldKind = "number"
	KindBool   FieldKind = "bool"
	KindEnum   FieldKind = "enum"
)

// Value is a tagged leaf value. Exactly one of Number/Flag/Text is
// meaningful, selected by Kind.
type Value struct {
	Kind   FieldKind `json:"kind"`
	Number float64   `json:"number,omitempty"`
	Flag   bool      `json:"flag,omitempty"`
	Text   string    `json:"text,omitempty"`
}

// NumberValue builds a numeric value
func NumberValue(n float64) Value {
	return Value{Kind: KindNumber, Number: n}
}

// BoolValue builds a boolean value
func BoolValue(b bool) Value {
	return Value{Kind: KindBool, Flag: b}
}

// EnumValue builds an enumerated string value
func EnumValue(s string) Value {
	return Value{Kind: KindEnum, Text: s}
}

// Equal reports whether two values are identical in kind and content
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Number == other.Number
	case KindBool:
		return v.Flag == other.Flag
	default:
		return v.Text == other.Text
	}
}

// IsNumeric reports whether the value carries a number
func (v Value) IsNumeric() bool {
	return v.Kind == KindNumber
}

func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindBool:
		if v.Flag {
			return "true"
		}
		return "false"
	default:
		return v.Text
	}
}

// Coerce converts a raw parsed token into a value of the target kind.
// Numbers accept numeric strings, bools accept true/false/1/0/on/off,
// enums accept any member of the allowed set (case-insensitive).
func Coerce(raw string, spec *FieldSpec) (Value, error) {
	switch spec.Kind {
	case KindNumber:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Value{}, fmt.Errorf("field %s expects a number, got %q", spec.Name, raw)
		}
		return NumberValue(n), nil
	case KindBool:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "true", "1", "on", "yes", "enable", "enabled":
			return BoolValue(true), nil
		case "false", "0", "off", "no", "disable", "disabled":
			return BoolValue(false), nil
		}
		return Value{}, fmt.Errorf("field %s expects a boolean, got %q", spec.Name, raw)
	case KindEnum:
		lower := strings.ToLower(strings.TrimSpace(raw))
		for _, allowed := range spec.Enum {
			if strings.ToLower(allowed) == lower {
				return EnumValue(allowed), nil
			}
		}
		return Value{}, fmt.Errorf("field %s expects one of %v, got %q", spec.Name, spec.Enum, raw)
	}
	return Value{}, fmt.Errorf("field %s has unknown kind %q", spec.Name, spec.Kind)
}

// Clamp limits a numeric value to the field's declared bounds. Non-numeric
// values pass through unchanged.
func Clamp(v Value, spec *FieldSpec) Value {
	if v.Kind != KindNumber || spec.Kind != KindNumber {
		return v
	}
	if v.Number < spec.Min {
		return NumberValue(spec.Min)
	}
	if v.Number > spec.Max {
		return NumberValue(spec.Max)
	}
	return v
}
