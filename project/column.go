package project

import (
	"fmt"
	"strings"
)

// ColumnKind is the type of a technical table column.
type ColumnKind string

const (
	KindText       ColumnKind = "text"
	KindNumber     ColumnKind = "number"
	KindSelect     ColumnKind = "select"
	KindCalculated ColumnKind = "calculated"
)

// Valid reports whether k is one of the known column kinds.
func (k ColumnKind) Valid() bool {
	switch k {
	case KindText, KindNumber, KindSelect, KindCalculated:
		return true
	}
	return false
}

// Numeric reports whether values of this kind are summed in column totals.
func (k ColumnKind) Numeric() bool {
	return k == KindNumber || k == KindCalculated
}

// ColumnDefinition describes one column of a technical table.
type ColumnDefinition struct {
	Key     string     `json:"key"`
	Label   string     `json:"label"`
	Unit    string     `json:"unit,omitempty"`
	Kind    ColumnKind `json:"type"`
	Options []string   `json:"options,omitempty"`
	Formula string     `json:"formula,omitempty"`
}

// reservedKeys cannot be used as column keys since they share the row
// object with the column values in the snapshot document.
var reservedKeys = map[string]bool{"id": true}

// Header returns the label with its unit, e.g. "Volume (m³)".
func (c ColumnDefinition) Header() string {
	if c.Unit == "" {
		return c.Label
	}
	return c.Label + " (" + c.Unit + ")"
}

// OptionIndex returns the index of label in the select options, or -1.
func (c ColumnDefinition) OptionIndex(label string) int {
	for i, o := range c.Options {
		if o == label {
			return i
		}
	}
	return -1
}

// Zero returns the default value of a freshly added row for this column.
func (c ColumnDefinition) Zero() Value {
	switch c.Kind {
	case KindText:
		return TextValue("")
	case KindSelect:
		return SelectValue(0)
	case KindCalculated:
		return CalculatedValue(0)
	}
	return NumberValue(0)
}

// CheckColumns verifies the structural rules of a column list: unique,
// non-reserved keys, known kinds, distinct options for select columns and formulas
// for calculated columns. Formula dependencies are checked by the table
// engine.
func CheckColumns(columns []ColumnDefinition) error {
	seen := make(map[string]bool, len(columns))
	for i, c := range columns {
		key := strings.TrimSpace(c.Key)
		if key == "" {
			return fmt.Errorf("column %d: empty key: %w", i, ErrInvalidColumn)
		}
		if key != c.Key {
			return fmt.Errorf("column %q: key has surrounding spaces: %w", c.Key, ErrInvalidColumn)
		}
		if reservedKeys[key] {
			return fmt.Errorf("column %q: key is reserved: %w", key, ErrInvalidColumn)
		}
		if seen[key] {
			return fmt.Errorf("column %q: duplicate key: %w", key, ErrInvalidColumn)
		}
		seen[key] = true
		if !c.Kind.Valid() {
			return fmt.Errorf("column %q: unknown type %q: %w", key, c.Kind, ErrInvalidColumn)
		}
		if c.Kind == KindSelect {
			if len(c.Options) == 0 {
				return fmt.Errorf("column %q: select column without options: %w", key, ErrInvalidColumn)
			}
			options := make(map[string]bool, len(c.Options))
			for _, o := range c.Options {
				if options[o] {
					return fmt.Errorf("column %q: duplicate option %q: %w", key, o, ErrInvalidColumn)
				}
				options[o] = true
			}
		}
		if c.Kind == KindCalculated && strings.TrimSpace(c.Formula) == "" {
			return fmt.Errorf("column %q: calculated column without formula: %w", key, ErrInvalidColumn)
		}
	}
	return nil
}
