package takeoff

import "estimation/project"

type tableTemplate struct {
	title   string
	columns []project.ColumnDefinition
}

var (
	colDesignation = project.ColumnDefinition{Key: "designation", Label: "Désignation", Kind: project.KindText}
	colNombre      = project.ColumnDefinition{Key: "nombre", Label: "Nombre", Unit: "u", Kind: project.KindNumber}
	colLongueur    = project.ColumnDefinition{Key: "longueur", Label: "Longueur", Unit: "m", Kind: project.KindNumber}
	colLargeur     = project.ColumnDefinition{Key: "largeur", Label: "Largeur", Unit: "m", Kind: project.KindNumber}
	colHauteur     = project.ColumnDefinition{Key: "hauteur", Label: "Hauteur", Unit: "m", Kind: project.KindNumber}
)

func calculated(key, label, unit, src string) project.ColumnDefinition {
	return project.ColumnDefinition{Key: key, Label: label, Unit: unit, Kind: project.KindCalculated, Formula: src}
}

var templates = map[string][]tableTemplate{
	"terrassement": {
		{title: "Fouilles", columns: []project.ColumnDefinition{
			colDesignation, colLongueur, colLargeur,
			{Key: "profondeur", Label: "Profondeur", Unit: "m", Kind: project.KindNumber},
			calculated("deblai", "Déblai", "m³", "longueur*largeur*profondeur"),
		}},
	},
	"fondations": {
		{title: "Semelles", columns: []project.ColumnDefinition{
			colDesignation,
			{Key: "type", Label: "Type", Kind: project.KindSelect, Options: []string{"Isolée", "Filante"}},
			colNombre, colLongueur, colLargeur, colHauteur,
			calculated("surface", "Surface", "m²", "longueur*largeur*nombre"),
			calculated("volume", "Volume", "m³", "surface*hauteur"),
		}},
		{title: "Longrines", columns: []project.ColumnDefinition{
			colDesignation, colNombre, colLongueur, colLargeur, colHauteur,
			calculated("volume", "Volume", "m³", "longueur*largeur*hauteur*nombre"),
		}},
	},
	"superstructure": {
		{title: "Poteaux", columns: []project.ColumnDefinition{
			colDesignation, colNombre, colLargeur,
			{Key: "profondeur", Label: "Profondeur", Unit: "m", Kind: project.KindNumber},
			colHauteur,
			calculated("volume", "Volume", "m³", "largeur*profondeur*hauteur*nombre"),
		}},
		{title: "Poutres", columns: []project.ColumnDefinition{
			colDesignation, colNombre, colLongueur, colLargeur, colHauteur,
			calculated("volume", "Volume", "m³", "longueur*largeur*hauteur*nombre"),
		}},
		{title: "Dalles", columns: []project.ColumnDefinition{
			colDesignation,
			{Key: "type", Label: "Type", Kind: project.KindSelect, Options: []string{"Pleine", "Corps creux"}},
			{Key: "epaisseur", Label: "Épaisseur", Unit: "cm", Kind: project.KindNumber},
			{Key: "surface", Label: "Surface", Unit: "m²", Kind: project.KindNumber},
			calculated("volume", "Volume", "m³", "(epaisseur/100)*surface"),
		}},
	},
	"maconnerie": {
		{title: "Murs", columns: []project.ColumnDefinition{
			colDesignation,
			{Key: "bloc", Label: "Bloc", Kind: project.KindSelect, Options: []string{"Agglo 15", "Agglo 20", "Brique"}},
			colLongueur, colHauteur,
			calculated("surface", "Surface", "m²", "longueur*hauteur"),
			calculated("blocs", "Nombre de blocs", "u", "surface*12.5"),
		}},
	},
	"toiture": {
		{title: "Couverture", columns: []project.ColumnDefinition{
			colDesignation,
			{Key: "materiau", Label: "Matériau", Kind: project.KindSelect, Options: []string{"Bac alu", "Tuiles", "Dalle étanchée"}},
			{Key: "surface", Label: "Surface", Unit: "m²", Kind: project.KindNumber},
		}},
	},
}

// Templates returns fresh, empty tables suggested for a category. Unknown
// categories get no template.
func Templates(category string) []*project.TableDefinition {
	var out []*project.TableDefinition
	for _, tpl := range templates[category] {
		columns := make([]project.ColumnDefinition, len(tpl.columns))
		for i, c := range tpl.columns {
			if c.Options != nil {
				c.Options = append([]string(nil), c.Options...)
			}
			columns[i] = c
		}
		out = append(out, &project.TableDefinition{
			ID:       project.NewID(),
			Title:    tpl.title,
			Category: category,
			Columns:  columns,
			Rows:     []*project.Row{},
		})
	}
	return out
}
