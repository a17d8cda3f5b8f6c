package takeoff

import (
	"errors"
	"math"
	"testing"

	"estimation/formula"
	"estimation/project"
)

func num(key string) project.ColumnDefinition {
	return project.ColumnDefinition{Key: key, Label: key, Kind: project.KindNumber}
}

func calc(key, src string) project.ColumnDefinition {
	return project.ColumnDefinition{Key: key, Label: key, Kind: project.KindCalculated, Formula: src}
}

func TestValidateColumns(t *testing.T) {
	text := project.ColumnDefinition{Key: "nom", Label: "Nom", Kind: project.KindText}

	tests := []struct {
		name    string
		columns []project.ColumnDefinition
		wantErr error
	}{
		{"numbers only", []project.ColumnDefinition{num("a"), num("b")}, nil},
		{"earlier calculated", []project.ColumnDefinition{num("a"), calc("b", "a*2"), calc("c", "b+a")}, nil},
		{"later number", []project.ColumnDefinition{calc("b", "a*2"), num("a")}, nil},
		{"later calculated", []project.ColumnDefinition{num("a"), calc("b", "c*2"), calc("c", "a")}, ErrFormulaDependency},
		{"self reference", []project.ColumnDefinition{num("a"), calc("b", "b+a")}, ErrFormulaDependency},
		{"cycle", []project.ColumnDefinition{calc("b", "c"), calc("c", "b")}, ErrFormulaDependency},
		{"text reference", []project.ColumnDefinition{text, calc("b", "nom*2")}, ErrFormulaDependency},
		{"undefined reference", []project.ColumnDefinition{num("a"), calc("b", "a*z")}, ErrFormulaDependency},
		{"syntax error", []project.ColumnDefinition{num("a"), calc("b", "a*(2")}, formula.ErrFormula},
		{"structural error", []project.ColumnDefinition{num("a"), num("a")}, project.ErrInvalidColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateColumns(tt.columns)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateColumns() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateColumns() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddColumn(t *testing.T) {
	e := newTestEngine()
	tbl := slabTable()
	row := e.AddRow(tbl)
	_ = e.UpdateCell(tbl, row.ID, "epaisseur", 20)
	_ = e.UpdateCell(tbl, row.ID, "surface", 50)

	if err := e.AddColumn(tbl, calc("acier", "volume*120")); err != nil {
		t.Fatalf("AddColumn() error = %v", err)
	}
	if got := row.Values["acier"].Number; math.Abs(got-1200) > 1e-9 {
		t.Errorf("acier = %v, want 1200", got)
	}

	before := len(tbl.Columns)
	if err := e.AddColumn(tbl, calc("x", "inconnu*2")); !errors.Is(err, ErrFormulaDependency) {
		t.Errorf("AddColumn(bad) error = %v, want ErrFormulaDependency", err)
	}
	if len(tbl.Columns) != before {
		t.Error("rejected column was added")
	}
	if _, ok := row.Values["x"]; ok {
		t.Error("rejected column filled in rows")
	}
}

func TestRemoveColumn(t *testing.T) {
	e := newTestEngine()
	tbl := slabTable()
	e.AddRow(tbl)

	if err := e.RemoveColumn(tbl, "surface"); !errors.Is(err, ErrFormulaDependency) {
		t.Errorf("RemoveColumn(surface) error = %v, want ErrFormulaDependency", err)
	}
	if err := e.RemoveColumn(tbl, "designation"); err != nil {
		t.Fatalf("RemoveColumn(designation) error = %v", err)
	}
	if _, ok := tbl.Rows[0].Values["designation"]; ok {
		t.Error("value of removed column kept")
	}
	if err := e.RemoveColumn(tbl, "designation"); !errors.Is(err, project.ErrInvalidColumn) {
		t.Errorf("RemoveColumn(missing) error = %v, want ErrInvalidColumn", err)
	}
}

func TestSetFormula(t *testing.T) {
	e := newTestEngine()
	tbl := slabTable()
	row := e.AddRow(tbl)
	_ = e.UpdateCell(tbl, row.ID, "epaisseur", 10)
	_ = e.UpdateCell(tbl, row.ID, "surface", 120)

	if err := e.SetFormula(tbl, "volume", "epaisseur*surface/1000"); err != nil {
		t.Fatalf("SetFormula() error = %v", err)
	}
	if got := row.Values["volume"].Number; math.Abs(got-1.2) > 1e-9 {
		t.Errorf("volume = %v, want 1.2", got)
	}
	if got := row.Values["poids"].Number; math.Abs(got-3) > 1e-9 {
		t.Errorf("poids = %v, want 3", got)
	}

	if err := e.SetFormula(tbl, "volume", "poids*2"); !errors.Is(err, ErrFormulaDependency) {
		t.Errorf("SetFormula(later column) error = %v, want ErrFormulaDependency", err)
	}
	if col, _ := tbl.Column("volume"); col.Formula != "epaisseur*surface/1000" {
		t.Errorf("rejected formula stored: %q", col.Formula)
	}
	if err := e.SetFormula(tbl, "surface", "1"); !errors.Is(err, project.ErrInvalidColumn) {
		t.Errorf("SetFormula(number column) error = %v, want ErrInvalidColumn", err)
	}
}

func TestTemplates(t *testing.T) {
	for _, category := range []string{"terrassement", "fondations", "superstructure", "maconnerie", "toiture"} {
		tables := Templates(category)
		if len(tables) == 0 {
			t.Errorf("Templates(%q) is empty", category)
		}
		for _, tbl := range tables {
			if err := ValidateColumns(tbl.Columns); err != nil {
				t.Errorf("template %q: %v", tbl.Title, err)
			}
			if tbl.Category != category || tbl.ID == "" || tbl.Rows == nil {
				t.Errorf("template %q not initialised: %+v", tbl.Title, tbl)
			}
		}
	}

	a, b := Templates("superstructure"), Templates("superstructure")
	a[2].Columns[1].Options[0] = "modifié"
	if b[2].Columns[1].Options[0] == "modifié" {
		t.Error("templates share option slices")
	}
	if Templates("inconnue") != nil {
		t.Error("unknown category has templates")
	}
}
