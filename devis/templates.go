package devis

import "estimation/project"

type sectionTemplate struct {
	title string
	lines [][2]string // designation, unite
}

var templates = map[string][]sectionTemplate{
	"terrassement": {
		{title: "Terrassements généraux", lines: [][2]string{
			{"Décapage de terre végétale", "m²"},
			{"Fouilles en rigole", "m³"},
			{"Remblai compacté", "m³"},
			{"Évacuation des déblais", "m³"},
		}},
	},
	"fondations": {
		{title: "Béton armé en fondations", lines: [][2]string{
			{"Béton de propreté dosé à 150 kg/m³", "m³"},
			{"Béton dosé à 350 kg/m³ pour semelles", "m³"},
			{"Béton dosé à 350 kg/m³ pour longrines", "m³"},
			{"Acier HA", "kg"},
			{"Coffrage", "m²"},
		}},
	},
	"superstructure": {
		{title: "Béton armé en élévation", lines: [][2]string{
			{"Béton pour poteaux", "m³"},
			{"Béton pour poutres", "m³"},
			{"Dalle pleine", "m³"},
			{"Acier HA", "kg"},
			{"Coffrage", "m²"},
		}},
	},
	"maconnerie": {
		{title: "Maçonnerie", lines: [][2]string{
			{"Maçonnerie en agglos de 15", "m²"},
			{"Maçonnerie en agglos de 20", "m²"},
			{"Enduit intérieur et extérieur", "m²"},
		}},
	},
	"toiture": {
		{title: "Couverture et étanchéité", lines: [][2]string{
			{"Charpente", "ff"},
			{"Couverture", "m²"},
			{"Étanchéité multicouche", "m²"},
		}},
	},
	"second-oeuvre": {
		{title: "Second œuvre", lines: [][2]string{
			{"Menuiseries", "ens"},
			{"Plomberie sanitaire", "ens"},
			{"Électricité", "ens"},
			{"Peinture", "m²"},
		}},
	},
}

// Templates returns fresh sections pre-filled with the usual line items of a
// category, with zero quantities and prices.
func Templates(category string) []*project.DevisSection {
	var out []*project.DevisSection
	for _, tpl := range templates[category] {
		s := NewSection(category, tpl.title)
		for _, l := range tpl.lines {
			s.Rows = append(s.Rows, &project.DevisRow{
				ID:          project.NewID(),
				Designation: l[0],
				Unite:       l[1],
			})
		}
		out = append(out, s)
	}
	return out
}
