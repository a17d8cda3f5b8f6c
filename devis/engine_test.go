package devis

import (
	"errors"
	"testing"

	"estimation/project"
)

func TestExtendedPrice(t *testing.T) {
	tests := []struct {
		name         string
		quantite     float64
		prixUnitaire float64
		decimals     int32
		expect       float64
	}{
		{"basic multiplication", 2, 1000, 2, 2000},
		{"decimal values", 2.5, 100.50, 2, 251.25},
		{"binary fraction", 0.1, 3, 2, 0.3},
		{"half rounds up", 1.005, 1, 2, 1.01},
		{"half rounds away from zero", -1.005, 1, 2, -1.01},
		{"carries", 3, 33.333, 2, 100},
		{"whole currency", 2.5, 3, 0, 8},
		{"zero qty", 0, 100, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtendedPrice(tt.quantite, tt.prixUnitaire, tt.decimals)
			if got != tt.expect {
				t.Errorf("ExtendedPrice(%v, %v, %d) = %v, want %v",
					tt.quantite, tt.prixUnitaire, tt.decimals, got, tt.expect)
			}
		})
	}
}

func TestUpdateRow_SectionTotal(t *testing.T) {
	e := NewEngine(DefaultDecimals)
	s := NewSection("fondations", "Béton armé")

	first := e.AddRow(s)
	if err := e.UpdateRow(s, first.ID, FieldQuantite, 2); err != nil {
		t.Fatalf("UpdateRow(quantite) error = %v", err)
	}
	if err := e.UpdateRow(s, first.ID, FieldPrixUnitaire, "1000"); err != nil {
		t.Fatalf("UpdateRow(prixUnitaire) error = %v", err)
	}
	if first.PrixTotal != 2000 {
		t.Errorf("PrixTotal = %v, want 2000", first.PrixTotal)
	}

	second := e.AddRow(s)
	_ = e.UpdateRow(s, second.ID, FieldQuantite, 1.0)
	_ = e.UpdateRow(s, second.ID, FieldPrixUnitaire, "500,00")
	if s.TotalSection != 2500 {
		t.Errorf("TotalSection = %v, want 2500", s.TotalSection)
	}

	if err := e.UpdateRow(s, second.ID, FieldDesignation, "Coffrage bois"); err != nil {
		t.Fatalf("UpdateRow(designation) error = %v", err)
	}
	if err := e.UpdateRow(s, second.ID, FieldUnite, "m²"); err != nil {
		t.Fatalf("UpdateRow(unite) error = %v", err)
	}
	if second.Designation != "Coffrage bois" || second.Unite != "m²" {
		t.Errorf("text fields not updated: %+v", second)
	}
	if s.TotalSection != 2500 {
		t.Errorf("TotalSection after text edit = %v, want 2500", s.TotalSection)
	}
}

func TestUpdateRow_TotalAlwaysMatchesRows(t *testing.T) {
	e := NewEngine(DefaultDecimals)
	s := NewSection("superstructure", "Élévation")
	values := [][2]any{{3.2, 85000}, {"12,5", 1250.75}, {0.333, "19 990"}, {7, 0.1}}

	for _, v := range values {
		row := e.AddRow(s)
		for _, edit := range []struct {
			field string
			value any
		}{{FieldQuantite, v[0]}, {FieldPrixUnitaire, v[1]}} {
			if err := e.UpdateRow(s, row.ID, edit.field, edit.value); err != nil {
				t.Fatalf("UpdateRow(%s, %v) error = %v", edit.field, edit.value, err)
			}
			assertConsistent(t, e, s)
		}
	}
	if err := e.DeleteRow(s, s.Rows[1].ID); err != nil {
		t.Fatalf("DeleteRow() error = %v", err)
	}
	assertConsistent(t, e, s)
}

func assertConsistent(t *testing.T, e *Engine, s *project.DevisSection) {
	t.Helper()
	var sum float64
	for _, r := range s.Rows {
		if want := ExtendedPrice(r.Quantite, r.PrixUnitaire, e.decimals); r.PrixTotal != want {
			t.Errorf("row %s: PrixTotal = %v, want %v", r.ID, r.PrixTotal, want)
		}
		sum += r.PrixTotal
	}
	if s.TotalSection != sum {
		t.Errorf("TotalSection = %v, want %v", s.TotalSection, sum)
	}
}

func TestDeleteRow_AllRowsYieldsZero(t *testing.T) {
	e := NewEngine(DefaultDecimals)
	s := NewSection("fondations", "Béton")
	for i := 0; i < 4; i++ {
		row := e.AddRow(s)
		_ = e.UpdateRow(s, row.ID, FieldQuantite, 0.7)
		_ = e.UpdateRow(s, row.ID, FieldPrixUnitaire, 1234.57)
	}

	for len(s.Rows) > 0 {
		if err := e.DeleteRow(s, s.Rows[0].ID); err != nil {
			t.Fatalf("DeleteRow() error = %v", err)
		}
	}
	if s.TotalSection != 0 {
		t.Errorf("TotalSection = %v, want exactly 0", s.TotalSection)
	}
}

func TestUpdateRow_Errors(t *testing.T) {
	e := NewEngine(DefaultDecimals)
	s := NewSection("fondations", "Béton")
	row := e.AddRow(s)

	tests := []struct {
		name    string
		rowID   string
		field   string
		value   any
		wantErr error
	}{
		{"derived field", row.ID, FieldPrixTotal, 10, project.ErrInvalidColumn},
		{"unknown field", row.ID, "remise", 10, project.ErrInvalidColumn},
		{"missing row", "nope", FieldQuantite, 10, project.ErrRowNotFound},
		{"not a number", row.ID, FieldQuantite, "dix", project.ErrInvalidValue},
		{"unsupported type", row.ID, FieldPrixUnitaire, []int{1}, project.ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.UpdateRow(s, tt.rowID, tt.field, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("UpdateRow() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecompute(t *testing.T) {
	e := NewEngine(DefaultDecimals)
	s := &project.DevisSection{
		ID: "s",
		Rows: []*project.DevisRow{
			{ID: "a", Quantite: 2, PrixUnitaire: 1000, PrixTotal: 1},
			{ID: "b", Quantite: 1, PrixUnitaire: 500, PrixTotal: 7},
		},
		TotalSection: 42,
	}

	e.Recompute(s)
	if s.Rows[0].PrixTotal != 2000 || s.Rows[1].PrixTotal != 500 {
		t.Errorf("rows not re-derived: %+v %+v", s.Rows[0], s.Rows[1])
	}
	if s.TotalSection != 2500 {
		t.Errorf("TotalSection = %v, want 2500", s.TotalSection)
	}
}

func TestTemplates(t *testing.T) {
	sections := Templates("fondations")
	if len(sections) == 0 {
		t.Fatal("no template for fondations")
	}
	for _, s := range sections {
		if s.Category != "fondations" || s.ID == "" || len(s.Rows) == 0 {
			t.Errorf("unexpected template section %+v", s)
		}
		if s.TotalSection != 0 {
			t.Errorf("template total = %v, want 0", s.TotalSection)
		}
	}
	if again := Templates("fondations"); again[0].ID == sections[0].ID {
		t.Error("templates share ids")
	}
	if got := Templates("inconnue"); got != nil {
		t.Errorf("Templates(inconnue) = %v, want nil", got)
	}
}
