package takeoff

import (
	"errors"
	"fmt"

	"estimation/formula"
	"estimation/project"
)

// ErrFormulaDependency is returned when a calculated column refers to a
// column it cannot be derived from.
var ErrFormulaDependency = errors.New("invalid formula dependency")

// ValidateColumns checks a column list for structural errors and checks
// that every formula parses and only refers to number columns or to
// calculated columns defined before it.
func ValidateColumns(columns []project.ColumnDefinition) error {
	if err := project.CheckColumns(columns); err != nil {
		return err
	}
	available := make(map[string]bool, len(columns))
	kinds := make(map[string]project.ColumnKind, len(columns))
	for _, c := range columns {
		kinds[c.Key] = c.Kind
		if c.Kind == project.KindNumber {
			available[c.Key] = true
		}
	}
	for _, c := range columns {
		if c.Kind != project.KindCalculated {
			continue
		}
		names, err := formula.Identifiers(c.Formula)
		if err != nil {
			return fmt.Errorf("column %q: %w", c.Key, err)
		}
		for _, name := range names {
			if available[name] {
				continue
			}
			kind, defined := kinds[name]
			switch {
			case !defined:
				return fmt.Errorf("column %q: %q is not a column: %w", c.Key, name, ErrFormulaDependency)
			case name == c.Key:
				return fmt.Errorf("column %q: formula refers to itself: %w", c.Key, ErrFormulaDependency)
			case kind == project.KindCalculated:
				return fmt.Errorf("column %q: %q is computed later: %w", c.Key, name, ErrFormulaDependency)
			default:
				return fmt.Errorf("column %q: %q is a %s column: %w", c.Key, name, kind, ErrFormulaDependency)
			}
		}
		available[c.Key] = true
	}
	return nil
}

// AddColumn appends a column, fills it in every existing row and re-derives
// the table.
func (e *Engine) AddColumn(t *project.TableDefinition, col project.ColumnDefinition) error {
	columns := append(append([]project.ColumnDefinition(nil), t.Columns...), col)
	if err := ValidateColumns(columns); err != nil {
		return fmt.Errorf("table %q: %w", t.ID, err)
	}
	t.Columns = columns
	for _, row := range t.Rows {
		row.Values[col.Key] = col.Zero()
	}
	e.RecalculateAll(t)
	return nil
}

// RemoveColumn drops a column and its values. It fails when a remaining
// formula still refers to it.
func (e *Engine) RemoveColumn(t *project.TableDefinition, key string) error {
	columns := make([]project.ColumnDefinition, 0, len(t.Columns))
	found := false
	for _, c := range t.Columns {
		if c.Key == key {
			found = true
			continue
		}
		columns = append(columns, c)
	}
	if !found {
		return &project.InvalidColumnError{Table: t.ID, Column: key, Reason: "column is not defined"}
	}
	if err := ValidateColumns(columns); err != nil {
		return fmt.Errorf("table %q: %w", t.ID, err)
	}
	t.Columns = columns
	for _, row := range t.Rows {
		delete(row.Values, key)
	}
	e.RecalculateAll(t)
	return nil
}

// SetFormula replaces the formula of a calculated column and re-derives the
// table.
func (e *Engine) SetFormula(t *project.TableDefinition, key, src string) error {
	columns := append([]project.ColumnDefinition(nil), t.Columns...)
	idx := -1
	for i, c := range columns {
		if c.Key == key {
			idx = i
		}
	}
	if idx < 0 {
		return &project.InvalidColumnError{Table: t.ID, Column: key, Reason: "column is not defined"}
	}
	if columns[idx].Kind != project.KindCalculated {
		return &project.InvalidColumnError{Table: t.ID, Column: key, Reason: "only calculated columns have a formula"}
	}
	columns[idx].Formula = src
	if err := ValidateColumns(columns); err != nil {
		return fmt.Errorf("table %q: %w", t.ID, err)
	}
	t.Columns = columns
	e.RecalculateAll(t)
	return nil
}
