package interchange

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"estimation/project"
)

const (
	sheetInfo  = "Informations"
	sheetRecap = "Récapitulatif"
	sheetDevis = "Devis"

	labelTotalSection = "TOTAL SECTION"
	labelTotalGeneral = "TOTAL GÉNÉRAL"
)

var devisHeaders = []any{"Désignation", "Unité", "Quantité", "Prix unitaire", "Prix total"}

// infoFields maps the rows of the Informations sheet to project info.
var infoFields = []struct {
	label string
	field func(*project.Info) *string
}{
	{"Nom du projet", func(i *project.Info) *string { return &i.Nom }},
	{"Client", func(i *project.Info) *string { return &i.Client }},
	{"Lieu", func(i *project.Info) *string { return &i.Lieu }},
	{"Date de début", func(i *project.Info) *string { return &i.DateDebut }},
	{"Date de fin", func(i *project.Info) *string { return &i.DateFin }},
	{"Référence", func(i *project.Info) *string { return &i.Reference }},
	{"Description", func(i *project.Info) *string { return &i.Description }},
}

// categorySheet groups the tables exported to one sheet.
type categorySheet struct {
	Name     string
	Category string
	Tables   []*project.TableDefinition
}

// categorySheets assigns a sheet to every table category, in order of first
// appearance. Export and import derive the same names from the same tables.
func categorySheets(tables []*project.TableDefinition, categories []project.Category) []*categorySheet {
	names := newSheetNames(sheetInfo, sheetRecap, sheetDevis)
	index := make(map[string]*categorySheet)
	var out []*categorySheet
	for _, t := range tables {
		cs, ok := index[t.Category]
		if !ok {
			cs = &categorySheet{
				Name:     names.next(project.CategoryLabel(categories, t.Category)),
				Category: t.Category,
			}
			index[t.Category] = cs
			out = append(out, cs)
		}
		cs.Tables = append(cs.Tables, t)
	}
	return out
}

// sectionHeader is the single-cell row opening a section on the Devis sheet.
func sectionHeader(s *project.DevisSection, categories []project.Category) string {
	label := strings.ToUpper(project.CategoryLabel(categories, s.Category))
	title := strings.ToUpper(s.Title)
	if title == "" {
		return "[" + label + "]"
	}
	return "[" + label + "] " + title
}

func tableTitle(t *project.TableDefinition) string {
	if strings.TrimSpace(t.Title) == "" {
		return "Tableau"
	}
	return t.Title
}

// sanitizeCell prevents formula injection by prefixing dangerous leading
// characters with a single quote.
func sanitizeCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// unsanitizeCell reverses sanitizeCell.
func unsanitizeCell(s string) string {
	if len(s) >= 2 && s[0] == '\'' {
		switch s[1] {
		case '=', '+', '-', '@', '\t', '\r', '|':
			return s[1:]
		}
	}
	return s
}

// thinBorders returns thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}
