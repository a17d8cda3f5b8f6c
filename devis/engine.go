package devis

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"

	"estimation/project"
)

// Editable devis row fields.
const (
	FieldDesignation  = "designation"
	FieldUnite        = "unite"
	FieldQuantite     = "quantite"
	FieldPrixUnitaire = "prixUnitaire"
	FieldPrixTotal    = "prixTotal"
)

// Engine edits devis sections. Every mutation leaves TotalSection equal to
// the sum of the row extended prices.
type Engine struct {
	decimals int32
}

// NewEngine returns an Engine rounding extended prices to decimals places.
// A negative value selects DefaultDecimals.
func NewEngine(decimals int) *Engine {
	if decimals < 0 {
		decimals = DefaultDecimals
	}
	return &Engine{decimals: int32(decimals)}
}

// NewSection returns an empty section.
func NewSection(category, title string) *project.DevisSection {
	return &project.DevisSection{
		ID:       project.NewID(),
		Category: category,
		Title:    title,
		Rows:     []*project.DevisRow{},
	}
}

// AddRow appends a zero-valued row.
func (e *Engine) AddRow(s *project.DevisSection) *project.DevisRow {
	row := &project.DevisRow{ID: project.NewID()}
	s.Rows = append(s.Rows, row)
	s.TotalSection = SectionTotal(s.Rows)
	return row
}

// UpdateRow sets one field of a row. Changing the quantity or the unit price
// re-derives the row extended price and the section total.
func (e *Engine) UpdateRow(s *project.DevisSection, rowID, field string, value any) error {
	if field == FieldPrixTotal {
		return &project.InvalidColumnError{Table: s.ID, Column: field, Reason: "extended price is derived"}
	}
	switch field {
	case FieldDesignation, FieldUnite, FieldQuantite, FieldPrixUnitaire:
	default:
		return &project.InvalidColumnError{Table: s.ID, Column: field, Reason: "column is not defined"}
	}

	idx := s.RowIndex(rowID)
	if idx < 0 {
		return fmt.Errorf("section %q row %q: %w", s.ID, rowID, project.ErrRowNotFound)
	}
	row := s.Rows[idx]

	switch field {
	case FieldDesignation, FieldUnite:
		text, err := cast.ToStringE(value)
		if err != nil {
			return fmt.Errorf("section %q row %q: %s: %v: %w", s.ID, rowID, field, err, project.ErrInvalidValue)
		}
		if field == FieldDesignation {
			row.Designation = text
		} else {
			row.Unite = text
		}
		return nil
	}

	amount, err := ParseAmount(value)
	if err != nil {
		return fmt.Errorf("section %q row %q: %s: %w", s.ID, rowID, field, err)
	}
	if field == FieldQuantite {
		row.Quantite = amount
	} else {
		row.PrixUnitaire = amount
	}
	row.PrixTotal = ExtendedPrice(row.Quantite, row.PrixUnitaire, e.decimals)
	s.TotalSection = SectionTotal(s.Rows)
	return nil
}

// DeleteRow removes a row and recomputes the section total.
func (e *Engine) DeleteRow(s *project.DevisSection, rowID string) error {
	idx := s.RowIndex(rowID)
	if idx < 0 {
		return fmt.Errorf("section %q row %q: %w", s.ID, rowID, project.ErrRowNotFound)
	}
	s.Rows = append(s.Rows[:idx], s.Rows[idx+1:]...)
	s.TotalSection = SectionTotal(s.Rows)
	return nil
}

// Recompute re-derives every extended price and the section total.
func (e *Engine) Recompute(s *project.DevisSection) {
	for _, row := range s.Rows {
		row.PrixTotal = ExtendedPrice(row.Quantite, row.PrixUnitaire, e.decimals)
	}
	s.TotalSection = SectionTotal(s.Rows)
}

// ParseAmount converts an edited quantity or price. Strings may use a
// decimal comma and space or non-breaking space digit grouping.
func ParseAmount(value any) (float64, error) {
	if s, ok := value.(string); ok {
		s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", ",", ".").Replace(strings.TrimSpace(s))
		value = s
	}
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, fmt.Errorf("%v: %w", err, project.ErrInvalidValue)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite amount: %w", project.ErrInvalidValue)
	}
	return f, nil
}
