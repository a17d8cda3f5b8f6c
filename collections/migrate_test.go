package collections_test

import (
	"testing"

	"estimation/collections"
	"estimation/devis"
	"estimation/interchange"
	"estimation/project"
	"estimation/store"
	"estimation/testhelpers"
)

func staleProject(t *testing.T) *project.Project {
	t.Helper()

	p := project.New(project.Info{Nom: "Ancien format"})
	engine := devis.NewEngine(devis.DefaultDecimals)
	s := devis.NewSection("Maçonnerie", "Murs")
	row := engine.AddRow(s)
	if err := engine.UpdateRow(s, row.ID, devis.FieldQuantite, 10); err != nil {
		t.Fatal(err)
	}
	if err := engine.UpdateRow(s, row.ID, devis.FieldPrixUnitaire, 9500); err != nil {
		t.Fatal(err)
	}
	s.TotalSection = 0
	p.DevisSections = append(p.DevisSections, s)
	return p
}

func TestMigrateSnapshots_RederivesStaleSnapshot(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.PutTestSnapshot(t, app, "ancien", staleProject(t))

	if err := collections.MigrateSnapshots(app, interchange.DefaultConfig()); err != nil {
		t.Fatalf("MigrateSnapshots() error: %v", err)
	}

	p := testhelpers.GetTestSnapshot(t, app, "ancien")
	s := p.DevisSections[0]
	if s.Category != "maconnerie" {
		t.Errorf("section category = %q, want %q", s.Category, "maconnerie")
	}
	if s.TotalSection != 95000 {
		t.Errorf("TotalSection = %v, want 95000", s.TotalSection)
	}
	if p.Summary.CoutTotalProjet != 95000 {
		t.Errorf("CoutTotalProjet = %v, want 95000", p.Summary.CoutTotalProjet)
	}
	if p.Summary.NombreLignesDevis != 1 {
		t.Errorf("NombreLignesDevis = %d, want 1", p.Summary.NombreLignesDevis)
	}
}

func TestMigrateSnapshots_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.PutTestSnapshot(t, app, "ancien", staleProject(t))

	if err := collections.MigrateSnapshots(app, interchange.DefaultConfig()); err != nil {
		t.Fatalf("first MigrateSnapshots() error: %v", err)
	}

	broker := store.NewBroker()
	store.NewRecords(app).BindHooks(broker, nil)
	writes := 0
	cancel := broker.Subscribe("ancien", func(store.Change) { writes++ })
	defer cancel()

	if err := collections.MigrateSnapshots(app, interchange.DefaultConfig()); err != nil {
		t.Fatalf("second MigrateSnapshots() error: %v", err)
	}
	if writes != 0 {
		t.Errorf("expected no write for an up-to-date snapshot, got %d", writes)
	}
}

func TestMigrateSnapshots_SkipsUnreadable(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.PutTestDocument(t, app, "casse", []byte(`{"id": ""}`))
	testhelpers.PutTestSnapshot(t, app, "ancien", staleProject(t))

	if err := collections.MigrateSnapshots(app, interchange.DefaultConfig()); err != nil {
		t.Fatalf("MigrateSnapshots() error: %v", err)
	}

	if got := testhelpers.GetTestSnapshot(t, app, "ancien").Summary.CoutTotalProjet; got != 95000 {
		t.Errorf("readable snapshot not migrated: CoutTotalProjet = %v", got)
	}
	records, _ := app.FindRecordsByFilter(store.CollectionName, "key = 'casse'", "", 1, 0)
	if len(records) != 1 {
		t.Fatalf("unreadable snapshot should be kept, got %d records", len(records))
	}
}

func TestMigrateSnapshots_NoSnapshots(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	if err := collections.MigrateSnapshots(app, interchange.DefaultConfig()); err != nil {
		t.Fatalf("MigrateSnapshots() error: %v", err)
	}
}

func TestNormalizeCategories(t *testing.T) {
	categories := project.DefaultCategories()
	tests := []struct {
		in, want string
	}{
		{"maconnerie", "maconnerie"},
		{"Maçonnerie", "maconnerie"},
		{"  second œuvre ", "second-oeuvre"},
		{"FONDATIONS", "fondations"},
		{"piscine", "piscine"},
	}
	for _, tt := range tests {
		p := project.New(project.Info{})
		p.Tables = append(p.Tables, &project.TableDefinition{ID: "t", Category: tt.in})
		p.DevisSections = append(p.DevisSections, devis.NewSection(tt.in, "Section"))

		replaced := collections.NormalizeCategories(p, categories)
		if p.Tables[0].Category != tt.want || p.DevisSections[0].Category != tt.want {
			t.Errorf("NormalizeCategories(%q) = %q / %q, want %q",
				tt.in, p.Tables[0].Category, p.DevisSections[0].Category, tt.want)
		}
		wantReplaced := 0
		if tt.in != tt.want {
			wantReplaced = 2
		}
		if replaced != wantReplaced {
			t.Errorf("NormalizeCategories(%q) replaced %d, want %d", tt.in, replaced, wantReplaced)
		}
	}
}
