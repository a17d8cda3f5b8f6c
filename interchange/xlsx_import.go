package interchange

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"

	"estimation/devis"
	"estimation/project"
	"estimation/recap"
	"estimation/takeoff"
)

// ImportReport summarizes what ImportXLSX read from a workbook.
type ImportReport struct {
	Sections    int
	DevisRows   int
	Tables      int
	TableRows   int
	SkippedRows int
	// SkippedTables lists the sheet or "sheet/title" blocks that matched no
	// table of the base project.
	SkippedTables []string
	Warnings      []string
}

func (r *ImportReport) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ImportXLSX reads a workbook laid out like ExportXLSX into a copy of base.
// The Devis sheet replaces the devis sections, the Informations sheet the
// project info, and category sheets the rows of the base tables they match.
// Extended prices and calculated columns are re-derived. base is not
// modified.
func ImportXLSX(data []byte, base *project.Project, cfg Config) (*project.Project, ImportReport, error) {
	var report ImportReport

	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, report, &ImportParseError{Format: "xlsx", Err: err}
	}
	defer f.Close()

	if !hasSheet(f, sheetDevis) {
		return nil, report, &ImportParseError{Format: "xlsx", Err: errors.New("missing sheet " + sheetDevis)}
	}
	devisRows, err := f.GetRows(sheetDevis)
	if err != nil {
		return nil, report, &ImportParseError{Format: "xlsx", Err: fmt.Errorf("read sheet %s: %w", sheetDevis, err)}
	}

	if base == nil {
		base = project.New(project.Info{})
	}
	p := base.Clone()
	p.DevisSections = parseDevis(devisRows, base.DevisSections, cfg, &report)

	if hasSheet(f, sheetInfo) {
		rows, err := f.GetRows(sheetInfo)
		if err != nil {
			return nil, report, &ImportParseError{Format: "xlsx", Err: fmt.Errorf("read sheet %s: %w", sheetInfo, err)}
		}
		parseInfo(rows, &p.Info)
	}

	if err := importTables(f, p, cfg, &report); err != nil {
		return nil, report, &ImportParseError{Format: "xlsx", Err: err}
	}

	recap.Apply(p, cfg.Recap)
	return p, report, nil
}

func hasSheet(f *excelize.File, name string) bool {
	idx, err := f.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// cells returns the trimmed, unsanitized cells of a row.
func cells(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = unsanitizeCell(strings.TrimSpace(c))
	}
	return out
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// single returns the only non-empty cell of a row when it sits in column A.
func single(row []string) (string, bool) {
	if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
		return "", false
	}
	for _, c := range row[1:] {
		if strings.TrimSpace(c) != "" {
			return "", false
		}
	}
	return row[0], true
}

// isSectionHeader reports whether s is an all-uppercase section title. A
// bracketed header without letters belongs to a section with neither
// category nor title.
func isSectionHeader(s string) bool {
	if isTotalLabel(s) {
		return false
	}
	letters := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	if letters {
		return true
	}
	return strings.HasPrefix(s, "[") && strings.Contains(s, "]")
}

func isTotalLabel(s string) bool {
	return s == labelTotalSection || s == labelTotalGeneral
}

// splitSectionHeader splits "[LABEL] TITLE" into its parts.
func splitSectionHeader(s string) (label, title string) {
	if strings.HasPrefix(s, "[") {
		if end := strings.Index(s, "]"); end > 0 {
			return strings.TrimSpace(s[1:end]), strings.TrimSpace(s[end+1:])
		}
	}
	return "", s
}

// resolveCategory maps an uppercase category label back to a category key.
func resolveCategory(label string, categories []project.Category) string {
	for _, c := range categories {
		if strings.ToUpper(c.Label) == label || strings.ToUpper(c.Key) == label {
			return c.Key
		}
	}
	return strings.ToLower(label)
}

// devisLine parses a 5-column priced row.
func devisLine(row []string) (*project.DevisRow, bool) {
	if len(row) < 5 {
		return nil, false
	}
	for _, c := range row[5:] {
		if c != "" {
			return nil, false
		}
	}
	var amounts [3]float64
	for i, c := range row[2:5] {
		if c == "" {
			return nil, false
		}
		v, err := devis.ParseAmount(c)
		if err != nil {
			return nil, false
		}
		amounts[i] = v
	}
	return &project.DevisRow{
		ID:           project.NewID(),
		Designation:  row[0],
		Unite:        row[1],
		Quantite:     amounts[0],
		PrixUnitaire: amounts[1],
	}, true
}

func parseDevis(rows [][]string, base []*project.DevisSection, cfg Config, report *ImportReport) []*project.DevisSection {
	known := make(map[string][]*project.DevisSection)
	for _, s := range base {
		h := sectionHeader(s, cfg.Recap.Categories)
		known[h] = append(known[h], s)
	}

	engine := devis.NewEngine(cfg.Decimals)
	sections := []*project.DevisSection{}
	var current *project.DevisSection
	for _, raw := range rows {
		if isBlank(raw) {
			continue
		}
		row := cells(raw)
		if text, ok := single(row); ok && isSectionHeader(text) {
			current = openSection(text, known, cfg.Recap.Categories)
			sections = append(sections, current)
			continue
		}
		if current == nil {
			continue
		}
		if row[0] == devisHeaders[0] || isTotalLabel(row[0]) {
			continue
		}
		line, ok := devisLine(row)
		if !ok {
			report.SkippedRows++
			continue
		}
		current.Rows = append(current.Rows, line)
	}

	for _, s := range sections {
		engine.Recompute(s)
		report.DevisRows += len(s.Rows)
	}
	report.Sections = len(sections)
	return sections
}

// openSection starts a section for a header row, reusing the identity of
// the first unused base section exported under the same header.
func openSection(header string, known map[string][]*project.DevisSection, categories []project.Category) *project.DevisSection {
	if queue := known[header]; len(queue) > 0 {
		known[header] = queue[1:]
		s := devis.NewSection(queue[0].Category, queue[0].Title)
		s.ID = queue[0].ID
		return s
	}
	label, title := splitSectionHeader(header)
	return devis.NewSection(resolveCategory(label, categories), title)
}

func parseInfo(rows [][]string, info *project.Info) {
	for _, raw := range rows {
		row := cells(raw)
		if len(row) == 0 {
			continue
		}
		for _, fld := range infoFields {
			if row[0] != fld.label {
				continue
			}
			value := ""
			if len(row) > 1 {
				value = row[1]
			}
			*fld.field(info) = value
		}
	}
}

// tableBlock is one table as laid out on a category sheet.
type tableBlock struct {
	title   string
	headers []string
	rows    [][]string
}

// tableBlocks splits a category sheet into title, header and data rows.
// Blocks are separated by blank rows.
func tableBlocks(rows [][]string) []tableBlock {
	var blocks []tableBlock
	for i := 0; i < len(rows); {
		if isBlank(rows[i]) {
			i++
			continue
		}
		b := tableBlock{title: cells(rows[i])[0]}
		i++
		if i < len(rows) && !isBlank(rows[i]) {
			b.headers = cells(rows[i])
			i++
			for ; i < len(rows) && !isBlank(rows[i]); i++ {
				b.rows = append(b.rows, cells(rows[i]))
			}
		}
		blocks = append(blocks, b)
	}
	return blocks
}

func importTables(f *excelize.File, p *project.Project, cfg Config, report *ImportReport) error {
	engine := takeoff.NewEngine(cfg.Logger)
	expected := categorySheets(p.Tables, cfg.Recap.Categories)
	matched := map[string]bool{sheetInfo: true, sheetRecap: true, sheetDevis: true}

	for _, cs := range expected {
		matched[cs.Name] = true
		if !hasSheet(f, cs.Name) {
			report.warnf("sheet %q not found, tables kept unchanged", cs.Name)
			continue
		}
		rows, err := f.GetRows(cs.Name)
		if err != nil {
			return fmt.Errorf("read sheet %s: %w", cs.Name, err)
		}

		used := make(map[*project.TableDefinition]bool)
		for _, b := range tableBlocks(rows) {
			t := findTable(cs.Tables, b.title, used)
			if t == nil {
				report.SkippedTables = append(report.SkippedTables, cs.Name+"/"+b.title)
				continue
			}
			used[t] = true
			importBlock(engine, t, b, report)
			report.Tables++
			report.TableRows += len(t.Rows)
		}
		for _, t := range cs.Tables {
			if !used[t] {
				report.warnf("table %q not found on sheet %q, kept unchanged", tableTitle(t), cs.Name)
			}
		}
	}

	for _, name := range f.GetSheetList() {
		if !matched[name] {
			report.SkippedTables = append(report.SkippedTables, name)
		}
	}
	return nil
}

func findTable(tables []*project.TableDefinition, title string, used map[*project.TableDefinition]bool) *project.TableDefinition {
	for _, t := range tables {
		if !used[t] && tableTitle(t) == title {
			return t
		}
	}
	return nil
}

// importBlock replaces the rows of t with the data rows of b.
func importBlock(engine *takeoff.Engine, t *project.TableDefinition, b tableBlock, report *ImportReport) {
	mapping := make([]int, len(b.headers))
	for i, h := range b.headers {
		mapping[i] = -1
		if h == "" {
			continue
		}
		for j, c := range t.Columns {
			if strings.EqualFold(h, c.Header()) || strings.EqualFold(h, c.Label) || strings.EqualFold(h, c.Key) {
				mapping[i] = j
				break
			}
		}
		if mapping[i] < 0 {
			report.warnf("table %q: column %q ignored", tableTitle(t), h)
		}
	}

	t.Rows = make([]*project.Row, 0, len(b.rows))
	for _, data := range b.rows {
		row := &project.Row{
			ID:     project.NewID(),
			Values: make(map[string]project.Value, len(t.Columns)),
		}
		for _, c := range t.Columns {
			row.Values[c.Key] = c.Zero()
		}
		for i, cell := range data {
			if i >= len(mapping) || mapping[i] < 0 || cell == "" {
				continue
			}
			col := t.Columns[mapping[i]]
			if col.Kind == project.KindCalculated {
				continue
			}
			v, err := takeoff.Coerce(col, cell)
			if err != nil {
				report.warnf("table %q: %v", tableTitle(t), err)
				continue
			}
			row.Values[col.Key] = v
		}
		t.Rows = append(t.Rows, row)
	}
	engine.RecalculateAll(t)
}
