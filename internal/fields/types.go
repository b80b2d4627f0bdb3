// Package fields indexes the field definitions of a workbook.
//
// A field is identified by its bracketed key ([Sales]) and presented by its
// display name (caption, or the key without brackets). The index is built
// once per workbook and is read-only afterwards.
package fields

import (
	"fmt"
	"strings"

	"github.com/twbdoc/twbdoc/internal/workbook"
)

// Key is the workbook's internal bracketed identifier for a field.
type Key string

// ParametersKey is the reserved key of the parameters namespace itself.
const ParametersKey Key = "[" + workbook.ParametersDatasource + "]"

// IsBracketed reports whether the key uses the bracketed reference syntax.
func (k Key) IsBracketed() bool {
	return strings.HasPrefix(string(k), "[")
}

// Stripped returns the key without its enclosing brackets.
func (k Key) Stripped() string {
	s := string(k)
	if len(s) >= 2 && strings.HasPrefix(s, "[") {
		return s[1 : len(s)-1]
	}
	return s
}

// Type classifies a field.
type Type int

// Field types, in resolution priority order.
const (
	RawVariable Type = iota
	CalculatedField
	Parameter
)

// UnknownTypeName is the display label for fields with no definition.
const UnknownTypeName = "Unknown"

// String returns the user-facing label of the type.
func (t Type) String() string {
	switch t {
	case CalculatedField:
		return "Calculated Field"
	case Parameter:
		return "Parameter"
	default:
		return "Raw Variable"
	}
}

// MarshalText renders the type by its label.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a type label written by MarshalText.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseType parses a type label.
func ParseType(label string) (Type, error) {
	for _, typ := range []Type{RawVariable, CalculatedField, Parameter} {
		if typ.String() == label {
			return typ, nil
		}
	}
	return RawVariable, fmt.Errorf("unknown field type %q", label)
}

// Definition is one indexed field.
type Definition struct {
	Key         Key    `json:"key" yaml:"key"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	Type        Type   `json:"field_type" yaml:"field_type"`
}

// Classify resolves the type of a column. Parameter wins over calculated,
// which wins over raw.
func Classify(col workbook.Column, inParameters bool) Type {
	switch {
	case inParameters || col.HasParamDomain:
		return Parameter
	case col.Calculation != nil:
		return CalculatedField
	default:
		return RawVariable
	}
}

// DisplayName returns the caption when present, else the stripped key.
func DisplayName(key Key, caption string) string {
	if caption != "" {
		return caption
	}
	return key.Stripped()
}
