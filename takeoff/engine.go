// Package takeoff edits the rows of technical quantity tables and keeps the
// calculated columns of every row in sync with the values they derive from.
package takeoff

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/spf13/cast"

	"estimation/formula"
	"estimation/project"
)

// Engine applies row edits to technical tables. Formula failures while
// deriving calculated columns are logged and produce 0.
type Engine struct {
	eval *formula.Evaluator
}

// NewEngine returns an Engine that logs formula failures to logger.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{eval: formula.NewEvaluator(logger)}
}

// AddRow appends a row initialised with the zero value of every column and
// derives its calculated columns.
func (e *Engine) AddRow(t *project.TableDefinition) *project.Row {
	row := &project.Row{
		ID:     project.NewID(),
		Values: make(map[string]project.Value, len(t.Columns)),
	}
	for _, c := range t.Columns {
		row.Values[c.Key] = c.Zero()
	}
	e.recalculateRow(t, row)
	t.Rows = append(t.Rows, row)
	return row
}

// UpdateCell stores value in the given column of a row, converting it to the
// column kind, then re-derives the row's calculated columns.
func (e *Engine) UpdateCell(t *project.TableDefinition, rowID, key string, value any) error {
	col, ok := t.Column(key)
	if !ok {
		return &project.InvalidColumnError{Table: t.ID, Column: key, Reason: "column is not defined"}
	}
	if col.Kind == project.KindCalculated {
		return &project.InvalidColumnError{Table: t.ID, Column: key, Reason: "calculated columns cannot be edited"}
	}
	idx := t.RowIndex(rowID)
	if idx < 0 {
		return fmt.Errorf("table %q row %q: %w", t.ID, rowID, project.ErrRowNotFound)
	}

	v, err := Coerce(col, value)
	if err != nil {
		return fmt.Errorf("table %q row %q: %w", t.ID, rowID, err)
	}
	row := t.Rows[idx]
	row.Values[key] = v
	e.recalculateRow(t, row)
	return nil
}

// DeleteRow removes the row with the given id.
func (e *Engine) DeleteRow(t *project.TableDefinition, rowID string) error {
	idx := t.RowIndex(rowID)
	if idx < 0 {
		return fmt.Errorf("table %q row %q: %w", t.ID, rowID, project.ErrRowNotFound)
	}
	t.Rows = append(t.Rows[:idx], t.Rows[idx+1:]...)
	return nil
}

// RecalculateAll re-derives the calculated columns of every row. Missing
// values are filled with the column zero value first.
func (e *Engine) RecalculateAll(t *project.TableDefinition) {
	for _, row := range t.Rows {
		if row.Values == nil {
			row.Values = make(map[string]project.Value, len(t.Columns))
		}
		for _, c := range t.Columns {
			if v, ok := row.Values[c.Key]; !ok || v.Kind != c.Kind {
				row.Values[c.Key] = c.Zero()
			}
		}
		e.recalculateRow(t, row)
	}
}

// recalculateRow evaluates calculated columns in definition order. Each
// formula sees the number columns and the calculated columns already derived.
func (e *Engine) recalculateRow(t *project.TableDefinition, row *project.Row) {
	bindings := make(map[string]float64, len(t.Columns))
	for _, c := range t.Columns {
		if c.Kind == project.KindNumber {
			bindings[c.Key] = row.Values[c.Key].Number
		}
	}
	for _, c := range t.Columns {
		if c.Kind != project.KindCalculated {
			continue
		}
		v := e.eval.EvalOrZero(c.Formula, bindings, row.ID)
		row.Values[c.Key] = project.CalculatedValue(v)
		bindings[c.Key] = v
	}
}

// ColumnTotals returns the sum of every number and calculated column.
func ColumnTotals(t *project.TableDefinition) map[string]float64 {
	totals := make(map[string]float64)
	for _, c := range t.Columns {
		if !c.Kind.Numeric() {
			continue
		}
		var sum float64
		for _, row := range t.Rows {
			sum += row.Values[c.Key].Number
		}
		totals[c.Key] = sum
	}
	return totals
}

// Coerce converts an edited value to the kind of col. Select columns accept
// an option label or an option index. Number columns accept numeric strings,
// with either a decimal point or a decimal comma.
func Coerce(col project.ColumnDefinition, value any) (project.Value, error) {
	if v, ok := value.(project.Value); ok {
		if v.Kind != col.Kind {
			return project.Value{}, fmt.Errorf("column %q: %s value for %s column: %w", col.Key, v.Kind, col.Kind, project.ErrInvalidValue)
		}
		value = v.Display(col)
		if col.Kind == project.KindNumber {
			value = v.Number
		}
	}

	switch col.Kind {
	case project.KindText:
		s, err := cast.ToStringE(value)
		if err != nil {
			return project.Value{}, fmt.Errorf("column %q: %v: %w", col.Key, err, project.ErrInvalidValue)
		}
		return project.TextValue(s), nil

	case project.KindNumber:
		if s, ok := value.(string); ok {
			value = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
		}
		f, err := cast.ToFloat64E(value)
		if err != nil {
			return project.Value{}, fmt.Errorf("column %q: %v: %w", col.Key, err, project.ErrInvalidValue)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return project.Value{}, fmt.Errorf("column %q: non-finite number: %w", col.Key, project.ErrInvalidValue)
		}
		return project.NumberValue(f), nil

	case project.KindSelect:
		if s, ok := value.(string); ok {
			if idx := col.OptionIndex(s); idx >= 0 {
				return project.SelectValue(idx), nil
			}
			return project.Value{}, fmt.Errorf("column %q: %q is not an option: %w", col.Key, s, project.ErrInvalidValue)
		}
		idx, err := cast.ToIntE(value)
		if err != nil || idx < 0 || idx >= len(col.Options) {
			return project.Value{}, fmt.Errorf("column %q: %v is not an option: %w", col.Key, value, project.ErrInvalidValue)
		}
		return project.SelectValue(idx), nil
	}
	return project.Value{}, fmt.Errorf("column %q: %s columns are derived: %w", col.Key, col.Kind, project.ErrInvalidValue)
}
