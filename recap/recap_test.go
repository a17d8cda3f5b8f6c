package recap

import (
	"math"
	"testing"

	"estimation/project"
	"estimation/takeoff"
)

func volumeTable(id, category string, volumes ...float64) *project.TableDefinition {
	t := &project.TableDefinition{
		ID:       id,
		Category: category,
		Columns: []project.ColumnDefinition{
			{Key: "designation", Label: "Désignation", Kind: project.KindText},
			{Key: "volume", Label: "Volume", Unit: "m³", Kind: project.KindCalculated, Formula: "1"},
		},
	}
	for i, v := range volumes {
		t.Rows = append(t.Rows, &project.Row{ID: id + string(rune('a'+i)), Values: map[string]project.Value{
			"designation": project.TextValue(""),
			"volume":      project.CalculatedValue(v),
		}})
	}
	return t
}

func section(id, category string, totals ...float64) *project.DevisSection {
	s := &project.DevisSection{ID: id, Category: category}
	for i, v := range totals {
		s.Rows = append(s.Rows, &project.DevisRow{ID: id + string(rune('a'+i)), Quantite: 1, PrixUnitaire: v, PrixTotal: v})
		s.TotalSection += v
	}
	return s
}

func TestCompute_TwoVolumeTables(t *testing.T) {
	p := &project.Project{
		Tables: []*project.TableDefinition{
			volumeTable("dalles", "superstructure", 12.0),
			volumeTable("semelles", "fondations", 3.54),
		},
	}

	s := Compute(p, DefaultConfig())
	if math.Abs(s.VolumeBetonTotal-15.54) > 1e-9 {
		t.Errorf("VolumeBetonTotal = %v, want 15.54", s.VolumeBetonTotal)
	}
	if math.Abs(s.QuantiteAcierEstimee-1864.8) > 1e-6 {
		t.Errorf("QuantiteAcierEstimee = %v, want 1864.8", s.QuantiteAcierEstimee)
	}
	if s.NombreElementsStructurels != 2 {
		t.Errorf("NombreElementsStructurels = %d, want 2", s.NombreElementsStructurels)
	}
}

func TestCompute_ExcavationIsNotConcrete(t *testing.T) {
	fouilles := takeoff.Templates("terrassement")[0]
	engine := takeoff.NewEngine(nil)
	row := engine.AddRow(fouilles)
	for key, v := range map[string]float64{"longueur": 10, "largeur": 5, "profondeur": 2} {
		if err := engine.UpdateCell(fouilles, row.ID, key, v); err != nil {
			t.Fatalf("UpdateCell(%s) error = %v", key, err)
		}
	}
	if got := takeoff.ColumnTotals(fouilles)["deblai"]; got != 100 {
		t.Fatalf("deblai = %v, want 100", got)
	}

	s := Compute(&project.Project{Tables: []*project.TableDefinition{fouilles}}, DefaultConfig())
	if s.VolumeBetonTotal != 0 || s.QuantiteAcierEstimee != 0 {
		t.Errorf("VolumeBetonTotal = %v, QuantiteAcierEstimee = %v, want 0 for excavation", s.VolumeBetonTotal, s.QuantiteAcierEstimee)
	}
	if s.NombreElementsStructurels != 1 {
		t.Errorf("NombreElementsStructurels = %d, want 1", s.NombreElementsStructurels)
	}
}

func TestCompute_SteelRatioFromConfig(t *testing.T) {
	p := &project.Project{Tables: []*project.TableDefinition{volumeTable("t", "fondations", 10)}}

	s := Compute(p, Config{SteelRatio: 80})
	if s.QuantiteAcierEstimee != 800 {
		t.Errorf("QuantiteAcierEstimee = %v, want 800", s.QuantiteAcierEstimee)
	}
}

func TestCompute_DevisTotals(t *testing.T) {
	p := &project.Project{
		DevisSections: []*project.DevisSection{
			section("s1", "fondations", 2000, 500),
			section("s2", "superstructure", 0.1, 0.2, 1250.75),
			section("s3", "toiture"),
		},
	}

	s := Compute(p, DefaultConfig())
	var want float64
	for _, sec := range p.DevisSections {
		for _, r := range sec.Rows {
			want += r.PrixTotal
		}
	}
	if s.CoutTotalProjet != want {
		t.Errorf("CoutTotalProjet = %v, want %v", s.CoutTotalProjet, want)
	}
	if s.NombreLignesDevis != 5 {
		t.Errorf("NombreLignesDevis = %d, want 5", s.NombreLignesDevis)
	}
}

func TestCompute_EmptyProject(t *testing.T) {
	if s := Compute(&project.Project{}, DefaultConfig()); s != (project.Summary{}) {
		t.Errorf("Compute(empty) = %+v, want zero summary", s)
	}
}

func TestColumnDetection(t *testing.T) {
	tests := []struct {
		name    string
		columns []project.ColumnDefinition
		surface string
		volume  string
	}{
		{
			"exact keys",
			[]project.ColumnDefinition{
				{Key: "surface_brute", Kind: project.KindNumber},
				{Key: "surface", Kind: project.KindNumber},
				{Key: "volume", Kind: project.KindCalculated, Formula: "1"},
			},
			"surface", "volume",
		},
		{
			"prefixed keys",
			[]project.ColumnDefinition{
				{Key: "surface_m2", Kind: project.KindCalculated, Formula: "1"},
				{Key: "volume_beton", Kind: project.KindNumber},
			},
			"surface_m2", "volume_beton",
		},
		{
			"volume by label",
			[]project.ColumnDefinition{
				{Key: "v", Label: "Volume béton", Kind: project.KindCalculated, Formula: "1"},
			},
			"", "v",
		},
		{
			"text columns ignored",
			[]project.ColumnDefinition{
				{Key: "surface", Kind: project.KindText},
				{Key: "volume", Label: "Volume", Kind: project.KindText},
			},
			"", "",
		},
		{
			"label only counts for calculated columns",
			[]project.ColumnDefinition{
				{Key: "v", Label: "Volume", Kind: project.KindNumber},
			},
			"", "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := &project.TableDefinition{Columns: tt.columns}
			if got := SurfaceColumn(tbl); got != tt.surface {
				t.Errorf("SurfaceColumn() = %q, want %q", got, tt.surface)
			}
			if got := VolumeColumn(tbl); got != tt.volume {
				t.Errorf("VolumeColumn() = %q, want %q", got, tt.volume)
			}
		})
	}
}

func TestComputeRatios(t *testing.T) {
	tests := []struct {
		name    string
		summary project.Summary
		expect  Ratios
	}{
		{
			"all denominators set",
			project.Summary{SurfaceTotale: 100, VolumeBetonTotal: 10, QuantiteAcierEstimee: 1200, CoutTotalProjet: 50000},
			Ratios{CostPerSurface: 500, SteelToConcrete: 120, CostPerVolume: 5000},
		},
		{
			"zero denominators",
			project.Summary{CoutTotalProjet: 50000},
			Ratios{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeRatios(tt.summary); got != tt.expect {
				t.Errorf("ComputeRatios(%+v) = %+v, want %+v", tt.summary, got, tt.expect)
			}
		})
	}
}

func TestByCategory(t *testing.T) {
	p := &project.Project{
		Tables: []*project.TableDefinition{
			volumeTable("poteaux", "superstructure", 1, 2),
			volumeTable("semelles", "fondations", 4),
			volumeTable("abri", "annexes", 0.5),
		},
		DevisSections: []*project.DevisSection{
			section("s1", "fondations", 100, 50),
			section("s2", "superstructure", 10),
		},
	}

	got := ByCategory(p, DefaultConfig())
	want := []CategoryTotals{
		{Category: "fondations", Label: "Fondations", Volume: 4, Cout: 150, Elements: 1, Lignes: 2},
		{Category: "superstructure", Label: "Superstructure", Volume: 3, Cout: 10, Elements: 2, Lignes: 1},
		{Category: "annexes", Label: "annexes", Volume: 0.5, Elements: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("ByCategory() = %+v, want %d entries", got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ByCategory()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}
