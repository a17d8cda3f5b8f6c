package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// requiredKeys must be present at the top level of a snapshot document.
var requiredKeys = []string{"id", "info", "tables", "devisSections"}

type tableJSON struct {
	ID       string             `json:"id"`
	Title    string             `json:"title"`
	Category string             `json:"category"`
	Columns  []ColumnDefinition `json:"columns"`
	Rows     []map[string]any   `json:"rows"`
}

// MarshalJSON writes rows as flat objects: {"id": ..., "<column key>": value}.
func (t *TableDefinition) MarshalJSON() ([]byte, error) {
	out := tableJSON{
		ID:       t.ID,
		Title:    t.Title,
		Category: t.Category,
		Columns:  t.Columns,
	}
	if t.Rows != nil {
		out.Rows = make([]map[string]any, len(t.Rows))
		for i, r := range t.Rows {
			obj := make(map[string]any, len(t.Columns)+1)
			obj["id"] = r.ID
			for _, c := range t.Columns {
				v, ok := r.Values[c.Key]
				if !ok {
					v = c.Zero()
				}
				obj[c.Key] = v.jsonValue(c)
			}
			out.Rows[i] = obj
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a table and converts every row against the column
// definitions, so each row ends up with exactly one value per column.
func (t *TableDefinition) UnmarshalJSON(data []byte) error {
	var in tableJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.ID == "" {
		return errors.New("table without id")
	}
	if err := CheckColumns(in.Columns); err != nil {
		return fmt.Errorf("table %q: %w", in.ID, err)
	}

	decoded := TableDefinition{
		ID:       in.ID,
		Title:    in.Title,
		Category: in.Category,
		Columns:  in.Columns,
	}
	if in.Rows != nil {
		decoded.Rows = make([]*Row, 0, len(in.Rows))
		seen := make(map[string]bool, len(in.Rows))
		for i, obj := range in.Rows {
			id, _ := obj["id"].(string)
			if id == "" {
				return fmt.Errorf("table %q: row %d without id", in.ID, i)
			}
			if seen[id] {
				return fmt.Errorf("table %q: duplicate row id %q", in.ID, id)
			}
			seen[id] = true
			row := &Row{ID: id, Values: make(map[string]Value, len(in.Columns))}
			for _, c := range in.Columns {
				v, err := valueFromJSON(c, obj[c.Key])
				if err != nil {
					return fmt.Errorf("table %q row %q: %w", in.ID, id, err)
				}
				row.Values[c.Key] = v
			}
			decoded.Rows = append(decoded.Rows, row)
		}
	}
	*t = decoded
	return nil
}

type projectAlias Project

// UnmarshalJSON rejects documents missing one of the top-level keys.
func (p *Project) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	for _, key := range requiredKeys {
		if _, ok := probe[key]; !ok {
			return fmt.Errorf("missing %q", key)
		}
	}
	var a projectAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = Project(a)
	return nil
}

// Validate checks the invariants that decoding alone does not enforce:
// identifiers present and unique, finite amounts, no nil entries.
func (p *Project) Validate() error {
	if p.ID == "" {
		return errors.New("project without id")
	}
	tableIDs := make(map[string]bool, len(p.Tables))
	for i, t := range p.Tables {
		if t == nil {
			return fmt.Errorf("table %d is null", i)
		}
		if tableIDs[t.ID] {
			return fmt.Errorf("duplicate table id %q", t.ID)
		}
		tableIDs[t.ID] = true
		for _, r := range t.Rows {
			for _, c := range t.Columns {
				v, ok := r.Values[c.Key]
				if !ok {
					return fmt.Errorf("table %q row %q: missing value for %q", t.ID, r.ID, c.Key)
				}
				if n, ok := v.Numeric(); ok && !finite(n) {
					return fmt.Errorf("table %q row %q: non-finite %q", t.ID, r.ID, c.Key)
				}
			}
		}
	}
	sectionIDs := make(map[string]bool, len(p.DevisSections))
	for i, s := range p.DevisSections {
		if s == nil {
			return fmt.Errorf("devis section %d is null", i)
		}
		if s.ID == "" {
			return fmt.Errorf("devis section %d without id", i)
		}
		if sectionIDs[s.ID] {
			return fmt.Errorf("duplicate devis section id %q", s.ID)
		}
		sectionIDs[s.ID] = true
		rowIDs := make(map[string]bool, len(s.Rows))
		for j, r := range s.Rows {
			if r == nil {
				return fmt.Errorf("devis section %q: row %d is null", s.ID, j)
			}
			if r.ID == "" {
				return fmt.Errorf("devis section %q: row %d without id", s.ID, j)
			}
			if rowIDs[r.ID] {
				return fmt.Errorf("devis section %q: duplicate row id %q", s.ID, r.ID)
			}
			rowIDs[r.ID] = true
			if !finite(r.Quantite) || !finite(r.PrixUnitaire) || !finite(r.PrixTotal) {
				return fmt.Errorf("devis section %q row %q: non-finite amount", s.ID, r.ID)
			}
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
