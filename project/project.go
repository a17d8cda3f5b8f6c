// Package project holds the estimation data model: the project aggregate,
// its technical quantity tables, its devis sections and the derived summary.
package project

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Info is the descriptive record of a project.
type Info struct {
	Nom         string `json:"nom"`
	Client      string `json:"client"`
	Lieu        string `json:"lieu"`
	DateDebut   string `json:"dateDebut"`
	DateFin     string `json:"dateFin"`
	Reference   string `json:"reference"`
	Description string `json:"description"`
}

// Row is one line of a technical table. Values holds exactly one entry per
// column of the owning table.
type Row struct {
	ID     string
	Values map[string]Value
}

// TableDefinition is a technical quantity table scoped to a category.
type TableDefinition struct {
	ID       string
	Title    string
	Category string
	Columns  []ColumnDefinition
	Rows     []*Row
}

// DevisRow is a priced line item. PrixTotal is derived from Quantite and
// PrixUnitaire by the devis engine.
type DevisRow struct {
	ID           string  `json:"id"`
	Designation  string  `json:"designation"`
	Unite        string  `json:"unite"`
	Quantite     float64 `json:"quantite"`
	PrixUnitaire float64 `json:"prixUnitaire"`
	PrixTotal    float64 `json:"prixTotal"`
}

// DevisSection is a cost chapter. TotalSection caches the sum of the row
// PrixTotal values.
type DevisSection struct {
	ID           string      `json:"id"`
	Category     string      `json:"category"`
	Title        string      `json:"title"`
	Rows         []*DevisRow `json:"rows"`
	TotalSection float64     `json:"totalSection"`
}

// Summary is the project-wide recapitulation. It is recomputed from the
// tables and devis sections, never edited.
type Summary struct {
	SurfaceTotale             float64 `json:"surfaceTotale"`
	VolumeBetonTotal          float64 `json:"volumeBetonTotal"`
	QuantiteAcierEstimee      float64 `json:"quantiteAcierEstimee"`
	NombreElementsStructurels int     `json:"nombreElementsStructurels"`
	CoutTotalProjet           float64 `json:"coutTotalProjet"`
	NombreLignesDevis         int     `json:"nombreLignesDevis"`
}

// Project is the root aggregate persisted as one snapshot.
type Project struct {
	ID            string             `json:"id"`
	Info          Info               `json:"info"`
	Tables        []*TableDefinition `json:"tables"`
	DevisSections []*DevisSection    `json:"devisSections"`
	Summary       Summary            `json:"summary"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// NewID returns a fresh identifier for projects, tables, sections and rows.
func NewID() string {
	return uuid.NewString()
}

// New returns an empty project created now.
func New(info Info) *Project {
	now := time.Now().UTC()
	return &Project{
		ID:            NewID(),
		Info:          info,
		Tables:        []*TableDefinition{},
		DevisSections: []*DevisSection{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Table returns the table with the given id.
func (p *Project) Table(id string) (*TableDefinition, error) {
	for _, t := range p.Tables {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, fmt.Errorf("table %q: %w", id, ErrTableNotFound)
}

// Section returns the devis section with the given id.
func (p *Project) Section(id string) (*DevisSection, error) {
	for _, s := range p.DevisSections {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("section %q: %w", id, ErrSectionNotFound)
}

// Column returns the column definition with the given key.
func (t *TableDefinition) Column(key string) (ColumnDefinition, bool) {
	for _, c := range t.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return ColumnDefinition{}, false
}

// RowIndex returns the position of the row with the given id, or -1.
func (t *TableDefinition) RowIndex(id string) int {
	for i, r := range t.Rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// RowIndex returns the position of the devis row with the given id, or -1.
func (s *DevisSection) RowIndex(id string) int {
	for i, r := range s.Rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of p.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	c := *p
	if p.Tables != nil {
		c.Tables = make([]*TableDefinition, len(p.Tables))
		for i, t := range p.Tables {
			c.Tables[i] = t.Clone()
		}
	}
	if p.DevisSections != nil {
		c.DevisSections = make([]*DevisSection, len(p.DevisSections))
		for i, s := range p.DevisSections {
			c.DevisSections[i] = s.Clone()
		}
	}
	return &c
}

// Clone returns a deep copy of t.
func (t *TableDefinition) Clone() *TableDefinition {
	c := *t
	if t.Columns != nil {
		c.Columns = make([]ColumnDefinition, len(t.Columns))
		for i, col := range t.Columns {
			if col.Options != nil {
				col.Options = append([]string(nil), col.Options...)
			}
			c.Columns[i] = col
		}
	}
	if t.Rows != nil {
		c.Rows = make([]*Row, len(t.Rows))
		for i, r := range t.Rows {
			values := make(map[string]Value, len(r.Values))
			for k, v := range r.Values {
				values[k] = v
			}
			c.Rows[i] = &Row{ID: r.ID, Values: values}
		}
	}
	return &c
}

// Clone returns a deep copy of s.
func (s *DevisSection) Clone() *DevisSection {
	c := *s
	if s.Rows != nil {
		c.Rows = make([]*DevisRow, len(s.Rows))
		for i, r := range s.Rows {
			row := *r
			c.Rows[i] = &row
		}
	}
	return &c
}
