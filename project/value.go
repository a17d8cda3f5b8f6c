package project

import (
	"fmt"
	"strconv"
)

// Value is a single cell of a technical table row. Kind tells which of the
// other fields is meaningful: Text for text columns, Number for number and
// calculated columns, Option (an index into the column options) for select
// columns.
type Value struct {
	Kind   ColumnKind
	Text   string
	Number float64
	Option int
}

func TextValue(s string) Value { return Value{Kind: KindText, Text: s} }

func NumberValue(f float64) Value { return Value{Kind: KindNumber, Number: f} }

func SelectValue(option int) Value { return Value{Kind: KindSelect, Option: option} }

func CalculatedValue(f float64) Value { return Value{Kind: KindCalculated, Number: f} }

// Numeric returns the numeric content of number and calculated values.
func (v Value) Numeric() (float64, bool) {
	if v.Kind.Numeric() {
		return v.Number, true
	}
	return 0, false
}

// Display renders the value as shown in tables and spreadsheets.
func (v Value) Display(col ColumnDefinition) string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindSelect:
		if v.Option >= 0 && v.Option < len(col.Options) {
			return col.Options[v.Option]
		}
		return ""
	}
	return strconv.FormatFloat(v.Number, 'f', -1, 64)
}

// jsonValue is the snapshot representation of v.
func (v Value) jsonValue(col ColumnDefinition) any {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindSelect:
		return v.Display(col)
	}
	return v.Number
}

// valueFromJSON converts a decoded snapshot scalar into a Value of the
// column's kind. A nil raw value yields the column's zero value.
func valueFromJSON(col ColumnDefinition, raw any) (Value, error) {
	if raw == nil {
		return col.Zero(), nil
	}
	switch col.Kind {
	case KindText:
		switch x := raw.(type) {
		case string:
			return TextValue(x), nil
		case float64:
			return TextValue(strconv.FormatFloat(x, 'f', -1, 64)), nil
		case bool:
			return TextValue(strconv.FormatBool(x)), nil
		}
	case KindNumber, KindCalculated:
		var f float64
		switch x := raw.(type) {
		case float64:
			f = x
		case bool:
			if x {
				f = 1
			}
		case string:
			if x != "" {
				parsed, err := strconv.ParseFloat(x, 64)
				if err != nil {
					return Value{}, fmt.Errorf("column %q: %q is not a number: %w", col.Key, x, ErrInvalidValue)
				}
				f = parsed
			}
		default:
			return Value{}, fmt.Errorf("column %q: unexpected %T: %w", col.Key, raw, ErrInvalidValue)
		}
		if col.Kind == KindCalculated {
			return CalculatedValue(f), nil
		}
		return NumberValue(f), nil
	case KindSelect:
		switch x := raw.(type) {
		case string:
			if x == "" {
				return SelectValue(0), nil
			}
			if idx := col.OptionIndex(x); idx >= 0 {
				return SelectValue(idx), nil
			}
			return Value{}, fmt.Errorf("column %q: %q is not an option: %w", col.Key, x, ErrInvalidValue)
		}
	}
	return Value{}, fmt.Errorf("column %q: unexpected %T for %s column: %w", col.Key, raw, col.Kind, ErrInvalidValue)
}
