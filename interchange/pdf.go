package interchange

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"estimation/project"
)

var (
	pdfGrey      = &props.Color{Red: 80, Green: 80, Blue: 80}
	pdfHeaderBg  = &props.Color{Red: 33, Green: 37, Blue: 41}
	pdfSectionBg = &props.Color{Red: 217, Green: 225, Blue: 242}
	pdfTotalBg   = &props.Color{Red: 240, Green: 240, Blue: 240}
)

// ExportDevisPDF renders the devis of p as a portrait A4 document: project
// header, one block per section with its total, and the grand total.
func ExportDevisPDF(p *project.Project, cfg Config) ([]byte, error) {
	mcfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} / {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(mcfg)
	addDevisHeader(m, p)
	for _, s := range p.DevisSections {
		addDevisSection(m, s, cfg)
	}
	addDevisTotal(m, p, cfg)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func addDevisHeader(m core.Maroto, p *project.Project) {
	title := "Devis estimatif"
	if p.Info.Nom != "" {
		title += " - " + p.Info.Nom
	}
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(text.New(title, props.Text{Size: 15, Style: fontstyle.Bold, Align: align.Center})),
		),
	)

	small := props.Text{Size: 9, Color: pdfGrey}
	right := small
	right.Align = align.Right
	m.AddRows(
		row.New(6).Add(
			col.New(6).Add(text.New("Client : "+p.Info.Client, small)),
			col.New(6).Add(text.New("Référence : "+p.Info.Reference, right)),
		),
		row.New(6).Add(
			col.New(6).Add(text.New("Lieu : "+p.Info.Lieu, small)),
			col.New(6).Add(text.New("Date : "+p.UpdatedAt.Format("02/01/2006"), right)),
		),
		row.New(4),
	)
}

func addDevisSection(m core.Maroto, s *project.DevisSection, cfg Config) {
	m.AddRows(
		row.New(8).Add(
			col.New(12).Add(
				text.New(sectionHeader(s, cfg.Recap.Categories), props.Text{Size: 9, Style: fontstyle.Bold, Top: 1.5}),
			).WithStyle(&props.Cell{BackgroundColor: pdfSectionBg}),
		),
	)

	head := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Center, Color: &props.Color{Red: 255, Green: 255, Blue: 255}, Top: 1.5}
	headLeft := head
	headLeft.Align = align.Left
	headCell := &props.Cell{BackgroundColor: pdfHeaderBg}
	m.AddRows(
		row.New(7).Add(
			col.New(5).Add(text.New("Désignation", headLeft)).WithStyle(headCell),
			col.New(1).Add(text.New("Unité", head)).WithStyle(headCell),
			col.New(2).Add(text.New("Quantité", head)).WithStyle(headCell),
			col.New(2).Add(text.New("Prix unitaire", head)).WithStyle(headCell),
			col.New(2).Add(text.New("Prix total", head)).WithStyle(headCell),
		),
	)

	body := props.Text{Size: 8, Top: 1}
	bodyCenter := body
	bodyCenter.Align = align.Center
	bodyRight := body
	bodyRight.Align = align.Right
	for _, r := range s.Rows {
		m.AddRows(
			row.New(6).Add(
				col.New(5).Add(text.New(r.Designation, body)),
				col.New(1).Add(text.New(r.Unite, bodyCenter)),
				col.New(2).Add(text.New(FormatQuantity(r.Quantite), bodyRight)),
				col.New(2).Add(text.New(FormatAmount(r.PrixUnitaire, cfg.CurrencySymbol, cfg.Decimals), bodyRight)),
				col.New(2).Add(text.New(FormatAmount(r.PrixTotal, cfg.CurrencySymbol, cfg.Decimals), bodyRight)),
			),
		)
	}

	addTotalRow(m, labelTotalSection, FormatAmount(s.TotalSection, cfg.CurrencySymbol, cfg.Decimals), 8)
	m.AddRows(row.New(4))
}

func addDevisTotal(m core.Maroto, p *project.Project, cfg Config) {
	var grand float64
	for _, s := range p.DevisSections {
		grand += s.TotalSection
	}
	addTotalRow(m, labelTotalGeneral, FormatAmount(grand, cfg.CurrencySymbol, cfg.Decimals), 10)
}

func addTotalRow(m core.Maroto, label, amount string, size float64) {
	style := props.Text{Size: size, Style: fontstyle.Bold, Align: align.Right, Top: 1.5}
	cell := &props.Cell{BackgroundColor: pdfTotalBg}
	m.AddRows(
		row.New(8).Add(
			col.New(8).Add(text.New(label, style)).WithStyle(cell),
			col.New(4).Add(text.New(amount, style)).WithStyle(cell),
		),
	)
}
