package interchange

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"estimation/project"
	"estimation/recap"
)

type rowKind int

const (
	rowPlain rowKind = iota
	rowTitle
	rowHeader
	rowSection
	rowTotal
)

type styles struct {
	title, header, section, text, number, integer, totalText, totalNumber int
}

func newStyles(f *excelize.File, decimals int) (*styles, error) {
	numFmt := "#,##0"
	if decimals > 0 {
		numFmt += "." + strings.Repeat("0", decimals)
	}
	st := &styles{}
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&st.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}},
		{&st.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Border:    thinBorders(),
		}},
		{&st.section, &excelize.Style{
			Font: &excelize.Font{Bold: true, Size: 11},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		}},
		{&st.text, &excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders()}},
		{&st.number, &excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders(), CustomNumFmt: &numFmt}},
		{&st.integer, &excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders(), NumFmt: 1}},
		{&st.totalText, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 11}, Alignment: &excelize.Alignment{Horizontal: "right"}}},
		{&st.totalNumber, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 11}, CustomNumFmt: &numFmt}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return nil, fmt.Errorf("create style: %w", err)
		}
		*d.dst = id
	}
	return st, nil
}

func (st *styles) pick(kind rowKind, v any) int {
	_, isNumber := v.(float64)
	_, isInt := v.(int)
	switch kind {
	case rowTitle:
		return st.title
	case rowHeader:
		return st.header
	case rowSection:
		return st.section
	case rowTotal:
		if isNumber {
			return st.totalNumber
		}
		return st.totalText
	}
	switch {
	case isNumber:
		return st.number
	case isInt:
		return st.integer
	}
	return st.text
}

// sheetWriter appends rows to a sheet and keeps the first error.
type sheetWriter struct {
	f     *excelize.File
	st    *styles
	sheet string
	row   int
	err   error
}

// line writes values on the next row. Nil values leave the cell empty.
func (w *sheetWriter) line(kind rowKind, values ...any) {
	if w.err != nil {
		return
	}
	w.row++
	for i, v := range values {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, w.row)
		if err != nil {
			w.err = err
			return
		}
		if s, ok := v.(string); ok {
			v = sanitizeCell(s)
		}
		if err := w.f.SetCellValue(w.sheet, cell, v); err != nil {
			w.err = fmt.Errorf("write %s!%s: %w", w.sheet, cell, err)
			return
		}
		if err := w.f.SetCellStyle(w.sheet, cell, cell, w.st.pick(kind, v)); err != nil {
			w.err = fmt.Errorf("style %s!%s: %w", w.sheet, cell, err)
			return
		}
	}
}

func (w *sheetWriter) blank() { w.row++ }

func (w *sheetWriter) widths(widths ...float64) {
	for i, width := range widths {
		if w.err != nil {
			return
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			w.err = err
			return
		}
		w.err = w.f.SetColWidth(w.sheet, col, col, width)
	}
}

// ExportXLSX writes p as a workbook: project information, recapitulation,
// the consolidated devis, then one sheet per table category.
func ExportXLSX(p *project.Project, cfg Config) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f, cfg.Decimals)
	if err != nil {
		return nil, err
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheetInfo); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	newWriter := func(sheet string) (*sheetWriter, error) {
		if sheet != sheetInfo {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, fmt.Errorf("create sheet %q: %w", sheet, err)
			}
		}
		return &sheetWriter{f: f, st: st, sheet: sheet}, nil
	}

	type sheetStep struct {
		sheet string
		write func(*sheetWriter)
	}
	steps := []sheetStep{
		{sheetInfo, func(w *sheetWriter) { writeInfo(w, p) }},
		{sheetRecap, func(w *sheetWriter) { writeRecap(w, p, cfg) }},
		{sheetDevis, func(w *sheetWriter) { writeDevis(w, p, cfg) }},
	}
	for _, cs := range categorySheets(p.Tables, cfg.Recap.Categories) {
		steps = append(steps, sheetStep{cs.Name, func(w *sheetWriter) { writeTables(w, cs.Tables) }})
	}

	for _, step := range steps {
		w, err := newWriter(step.sheet)
		if err != nil {
			return nil, err
		}
		step.write(w)
		if w.err != nil {
			return nil, fmt.Errorf("export sheet %q: %w", step.sheet, w.err)
		}
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func writeInfo(w *sheetWriter, p *project.Project) {
	w.widths(24, 60)
	title := p.Info.Nom
	if title == "" {
		title = "Projet"
	}
	w.line(rowTitle, title)
	w.blank()
	w.line(rowHeader, "Champ", "Valeur")
	for _, fld := range infoFields {
		w.line(rowPlain, fld.label, *fld.field(&p.Info))
	}
	w.line(rowPlain, "Créé le", p.CreatedAt.Format(time.RFC3339))
	w.line(rowPlain, "Modifié le", p.UpdatedAt.Format(time.RFC3339))
}

func writeRecap(w *sheetWriter, p *project.Project, cfg Config) {
	w.widths(34, 18, 18, 18, 12, 16)
	s := p.Summary
	r := recap.ComputeRatios(s)

	w.line(rowTitle, "Récapitulatif du projet")
	w.blank()
	w.line(rowHeader, "Indicateur", "Valeur", "Unité")
	w.line(rowPlain, "Surface totale", s.SurfaceTotale, "m²")
	w.line(rowPlain, "Volume de béton total", s.VolumeBetonTotal, "m³")
	w.line(rowPlain, "Quantité d'acier estimée", s.QuantiteAcierEstimee, "kg")
	w.line(rowPlain, "Nombre d'éléments structurels", s.NombreElementsStructurels, "u")
	w.line(rowPlain, "Coût total du projet", s.CoutTotalProjet, cfg.CurrencySymbol)
	w.line(rowPlain, "Nombre de lignes de devis", s.NombreLignesDevis, "u")
	w.blank()
	w.line(rowHeader, "Ratio", "Valeur", "Unité")
	w.line(rowPlain, "Coût par m²", r.CostPerSurface, cfg.CurrencySymbol+"/m²")
	w.line(rowPlain, "Ratio acier / béton", r.SteelToConcrete, "kg/m³")
	w.line(rowPlain, "Coût par m³ de béton", r.CostPerVolume, cfg.CurrencySymbol+"/m³")

	byCat := recap.ByCategory(p, cfg.Recap)
	if len(byCat) == 0 {
		return
	}
	w.blank()
	w.line(rowHeader, "Catégorie", "Surface (m²)", "Volume (m³)", "Coût", "Éléments", "Lignes de devis")
	for _, c := range byCat {
		w.line(rowPlain, c.Label, c.Surface, c.Volume, c.Cout, c.Elements, c.Lignes)
	}
}

func writeDevis(w *sheetWriter, p *project.Project, cfg Config) {
	w.widths(48, 10, 12, 16, 18)
	w.line(rowTitle, "Devis estimatif")
	w.blank()

	var grand float64
	for _, s := range p.DevisSections {
		w.line(rowSection, sectionHeader(s, cfg.Recap.Categories))
		w.line(rowHeader, devisHeaders...)
		for _, r := range s.Rows {
			w.line(rowPlain, r.Designation, r.Unite, r.Quantite, r.PrixUnitaire, r.PrixTotal)
		}
		w.line(rowTotal, labelTotalSection, nil, nil, nil, s.TotalSection)
		w.blank()
		grand += s.TotalSection
	}
	w.line(rowTotal, labelTotalGeneral, nil, nil, nil, grand)
}

func writeTables(w *sheetWriter, tables []*project.TableDefinition) {
	maxCols := 0
	for _, t := range tables {
		maxCols = max(maxCols, len(t.Columns))
	}
	widths := make([]float64, maxCols)
	for i := range widths {
		widths[i] = 16
	}
	if maxCols > 0 {
		widths[0] = 32
	}
	w.widths(widths...)

	for i, t := range tables {
		if i > 0 {
			w.blank()
		}
		w.line(rowTitle, tableTitle(t))
		headers := make([]any, len(t.Columns))
		for j, c := range t.Columns {
			headers[j] = c.Header()
		}
		w.line(rowHeader, headers...)
		for _, r := range t.Rows {
			cells := make([]any, len(t.Columns))
			for j, c := range t.Columns {
				v := r.Values[c.Key]
				if n, ok := v.Numeric(); ok {
					cells[j] = n
				} else {
					cells[j] = v.Display(c)
				}
			}
			w.line(rowPlain, cells...)
		}
	}
}
