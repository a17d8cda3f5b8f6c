package collections

import (
	"context"
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"

	"estimation/devis"
	"estimation/interchange"
	"estimation/project"
	"estimation/recap"
	"estimation/store"
	"estimation/takeoff"
)

// DemoKey is the snapshot key of the seeded estimation.
const DemoKey = "demo"

// ── Definition structs ───────────────────────────────────────────────────

type tableDef struct {
	category string
	title    string
	rows     []map[string]any
}

type lineDef struct {
	designation  string
	unite        string
	quantite     float64
	prixUnitaire float64
}

type sectionDef struct {
	category string
	title    string
	lines    []lineDef
}

var demoInfo = project.Info{
	Nom:         "Villa R+1 Keur Massar",
	Client:      "Famille Sow",
	Lieu:        "Keur Massar, Dakar",
	DateDebut:   "2025-03-03",
	DateFin:     "2025-12-19",
	Reference:   "EST-2025-014",
	Description: "Villa R+1 de 4 chambres, dalle pleine, toiture terrasse.",
}

var demoTables = []tableDef{
	{
		category: "fondations",
		title:    "Semelles",
		rows: []map[string]any{
			{"designation": "S1 poteaux d'angle", "type": "Isolée", "nombre": 4, "longueur": 1.2, "largeur": 1.2, "hauteur": 0.4},
			{"designation": "S2 poteaux courants", "type": "Isolée", "nombre": 8, "longueur": 1, "largeur": 1, "hauteur": 0.35},
			{"designation": "SF murs porteurs", "type": "Filante", "nombre": 1, "longueur": 42, "largeur": 0.5, "hauteur": 0.3},
		},
	},
	{
		category: "fondations",
		title:    "Longrines",
		rows: []map[string]any{
			{"designation": "Longrines 20x40", "nombre": 1, "longueur": 64, "largeur": 0.2, "hauteur": 0.4},
		},
	},
	{
		category: "superstructure",
		title:    "Poteaux",
		rows: []map[string]any{
			{"designation": "Poteaux RDC 20x20", "nombre": 12, "largeur": 0.2, "profondeur": 0.2, "hauteur": 3},
			{"designation": "Poteaux étage 20x20", "nombre": 12, "largeur": 0.2, "profondeur": 0.2, "hauteur": 3},
		},
	},
	{
		category: "superstructure",
		title:    "Dalles",
		rows: []map[string]any{
			{"designation": "Dalle haute RDC", "type": "Pleine", "epaisseur": 15, "surface": 120},
			{"designation": "Dalle terrasse", "type": "Pleine", "epaisseur": 15, "surface": 118},
		},
	},
	{
		category: "maconnerie",
		title:    "Murs",
		rows: []map[string]any{
			{"designation": "Murs extérieurs RDC", "bloc": "Agglo 20", "longueur": 44, "hauteur": 3},
			{"designation": "Cloisons RDC", "bloc": "Agglo 15", "longueur": 36, "hauteur": 3},
		},
	},
}

var demoSections = []sectionDef{
	{
		category: "terrassement",
		title:    "Terrassements généraux",
		lines: []lineDef{
			{"Décapage de terre végétale", "m²", 180, 600},
			{"Fouilles en rigole", "m³", 38, 3500},
			{"Remblai compacté", "m³", 25, 4000},
		},
	},
	{
		category: "fondations",
		title:    "Béton armé en fondations",
		lines: []lineDef{
			{"Béton de propreté dosé à 150 kg/m³", "m³", 3.5, 55000},
			{"Béton dosé à 350 kg/m³ pour semelles", "m³", 13.6, 85000},
			{"Béton dosé à 350 kg/m³ pour longrines", "m³", 5.12, 85000},
			{"Acier HA", "kg", 2250, 650},
		},
	},
	{
		category: "superstructure",
		title:    "Béton armé en élévation",
		lines: []lineDef{
			{"Béton pour poteaux", "m³", 2.88, 90000},
			{"Dalle pleine", "m³", 35.7, 90000},
			{"Acier HA", "kg", 4630, 650},
			{"Coffrage", "m²", 260, 4500},
		},
	},
	{
		category: "maconnerie",
		title:    "Maçonnerie",
		lines: []lineDef{
			{"Maçonnerie en agglos de 20", "m²", 132, 9500},
			{"Maçonnerie en agglos de 15", "m²", 108, 8000},
			{"Enduit intérieur et extérieur", "m²", 480, 2500},
		},
	},
}

// DemoProject builds the seeded estimation through the table and devis
// engines, so every derived value is consistent.
func DemoProject(cfg recap.Config) (*project.Project, error) {
	p := project.New(demoInfo)
	tables := takeoff.NewEngine(nil)
	for _, td := range demoTables {
		t, err := templateTable(td.category, td.title)
		if err != nil {
			return nil, err
		}
		for _, values := range td.rows {
			row := tables.AddRow(t)
			for key, v := range values {
				if err := tables.UpdateCell(t, row.ID, key, v); err != nil {
					return nil, fmt.Errorf("seed table %q: %w", td.title, err)
				}
			}
		}
		p.Tables = append(p.Tables, t)
	}

	engine := devis.NewEngine(devis.DefaultDecimals)
	for _, sd := range demoSections {
		s := devis.NewSection(sd.category, sd.title)
		for _, l := range sd.lines {
			row := engine.AddRow(s)
			edits := []struct {
				field string
				value any
			}{
				{devis.FieldDesignation, l.designation},
				{devis.FieldUnite, l.unite},
				{devis.FieldQuantite, l.quantite},
				{devis.FieldPrixUnitaire, l.prixUnitaire},
			}
			for _, e := range edits {
				if err := engine.UpdateRow(s, row.ID, e.field, e.value); err != nil {
					return nil, fmt.Errorf("seed section %q: %w", sd.title, err)
				}
			}
		}
		p.DevisSections = append(p.DevisSections, s)
	}

	recap.Apply(p, cfg)
	return p, nil
}

func templateTable(category, title string) (*project.TableDefinition, error) {
	for _, t := range takeoff.Templates(category) {
		if t.Title == title {
			return t, nil
		}
	}
	return nil, fmt.Errorf("seed: no %q template in %q", title, category)
}

// Seed stores a demonstration estimation under DemoKey. It is safe to call
// on every startup because it returns early if any snapshot already exists.
func Seed(app *pocketbase.PocketBase, cfg recap.Config) error {
	// ── idempotency: skip if snapshots already exist ─────────────────
	existing, err := app.FindAllRecords(store.CollectionName)
	if err != nil {
		return fmt.Errorf("seed: could not query snapshots: %w", err)
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	log.Println("seed: project_snapshots collection is empty – inserting demo estimation …")

	p, err := DemoProject(cfg)
	if err != nil {
		return err
	}
	data, err := interchange.ExportJSON(p)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if err := store.NewRecords(app).Put(context.Background(), DemoKey, data); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	log.Printf("seed: demo estimation %q stored under %q (%d tables, %d devis sections)\n",
		p.Info.Nom, DemoKey, len(p.Tables), len(p.DevisSections))
	return nil
}
