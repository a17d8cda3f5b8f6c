package handlers

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/a-h/templ"

	"estimation/interchange"
	"estimation/project"
	"estimation/recap"
)

// EstimationItem is one line of the estimation list.
type EstimationItem struct {
	Key      string
	Nom      string
	Client   string
	Cout     string
	Readable bool
}

// SectionView is one devis section of the recap page.
type SectionView struct {
	Label string
	Title string
	Lignes int
	Total string
}

// CategoryView is one category line of the recap page.
type CategoryView struct {
	Label    string
	Surface  string
	Volume   string
	Elements int
	Cout     string
}

// RecapView is everything the recap page shows.
type RecapView struct {
	Key        string
	Info       project.Info
	Surface    string
	Volume     string
	Acier      string
	Elements   int
	Lignes     int
	Cout       string
	CoutM2     string
	AcierM3    string
	CoutM3     string
	Categories []CategoryView
	Sections   []SectionView
}

func newRecapView(key string, p *project.Project, cfg interchange.Config) RecapView {
	amount := func(f float64) string { return interchange.FormatAmount(f, cfg.CurrencySymbol, cfg.Decimals) }
	s := p.Summary
	r := recap.ComputeRatios(s)
	v := RecapView{
		Key:      key,
		Info:     p.Info,
		Surface:  interchange.FormatQuantity(s.SurfaceTotale) + " m²",
		Volume:   interchange.FormatQuantity(s.VolumeBetonTotal) + " m³",
		Acier:    interchange.FormatQuantity(s.QuantiteAcierEstimee) + " kg",
		Elements: s.NombreElementsStructurels,
		Lignes:   s.NombreLignesDevis,
		Cout:     amount(s.CoutTotalProjet),
		CoutM2:   amount(r.CostPerSurface) + "/m²",
		AcierM3:  interchange.FormatQuantity(r.SteelToConcrete) + " kg/m³",
		CoutM3:   amount(r.CostPerVolume) + "/m³",
	}
	for _, c := range recap.ByCategory(p, cfg.Recap) {
		v.Categories = append(v.Categories, CategoryView{
			Label:    c.Label,
			Surface:  interchange.FormatQuantity(c.Surface),
			Volume:   interchange.FormatQuantity(c.Volume),
			Elements: c.Elements,
			Cout:     amount(c.Cout),
		})
	}
	for _, sec := range p.DevisSections {
		v.Sections = append(v.Sections, SectionView{
			Label:  project.CategoryLabel(cfg.Recap.Categories, sec.Category),
			Title:  sec.Title,
			Lignes: len(sec.Rows),
			Total:  amount(sec.TotalSection),
		})
	}
	return v
}

// html writes markup, keeping the first write error.
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(format string, args ...any) {
	if h.err != nil {
		return
	}
	_, h.err = fmt.Fprintf(h.w, format, args...)
}

func esc(s string) string { return templ.EscapeString(s) }

func page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<!DOCTYPE html><html lang="fr"><head><meta charset="utf-8"><title>%s</title>`, esc(title))
		h.raw(`<script src="https://unpkg.com/htmx.org@2.0.4"></script></head><body><main id="main-content">`)
		if h.err != nil {
			return h.err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		h.raw(`</main></body></html>`)
		return h.err
	})
}

// EstimationListPage renders the list of stored estimations.
func EstimationListPage(items []EstimationItem) templ.Component {
	return page("Estimations", EstimationListContent(items))
}

// EstimationListContent renders the estimation list without the page shell.
func EstimationListContent(items []EstimationItem) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<h1>Estimations</h1>`)
		if len(items) == 0 {
			h.raw(`<p class="empty">Aucune estimation enregistrée.</p>`)
			return h.err
		}
		h.raw(`<table class="estimations"><thead><tr><th>Projet</th><th>Client</th><th>Coût total</th></tr></thead><tbody>`)
		for _, it := range items {
			href := "/estimations/" + url.PathEscape(it.Key) + "/recap"
			if !it.Readable {
				h.raw(`<tr class="unreadable"><td>%s</td><td colspan="2">Instantané illisible</td></tr>`, esc(it.Key))
				continue
			}
			name := it.Nom
			if name == "" {
				name = it.Key
			}
			h.raw(`<tr><td><a href="%s">%s</a></td><td>%s</td><td class="amount">%s</td></tr>`,
				esc(href), esc(name), esc(it.Client), esc(it.Cout))
		}
		h.raw(`</tbody></table>`)
		return h.err
	})
}

// RecapPage renders the recapitulation of one estimation.
func RecapPage(v RecapView) templ.Component {
	title := v.Info.Nom
	if title == "" {
		title = v.Key
	}
	return page("Récapitulatif - "+title, RecapContent(v))
}

// RecapContent renders the recapitulation without the page shell, for HTMX
// swaps.
func RecapContent(v RecapView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		base := "/estimations/" + url.PathEscape(v.Key)

		h.raw(`<section id="recap">`)
		h.raw(`<h1>%s</h1>`, esc(v.Info.Nom))
		h.raw(`<dl class="info"><dt>Client</dt><dd>%s</dd><dt>Lieu</dt><dd>%s</dd><dt>Référence</dt><dd>%s</dd></dl>`,
			esc(v.Info.Client), esc(v.Info.Lieu), esc(v.Info.Reference))

		h.raw(`<table class="summary"><tbody>`)
		for _, kv := range [][2]string{
			{"Surface totale", v.Surface},
			{"Volume de béton", v.Volume},
			{"Acier estimé", v.Acier},
			{"Éléments structurels", fmt.Sprint(v.Elements)},
			{"Lignes de devis", fmt.Sprint(v.Lignes)},
			{"Coût total", v.Cout},
			{"Coût au m²", v.CoutM2},
			{"Ratio acier", v.AcierM3},
			{"Coût au m³", v.CoutM3},
		} {
			h.raw(`<tr><th>%s</th><td class="amount">%s</td></tr>`, esc(kv[0]), esc(kv[1]))
		}
		h.raw(`</tbody></table>`)

		if len(v.Categories) > 0 {
			h.raw(`<h2>Par catégorie</h2><table class="categories"><thead><tr><th>Catégorie</th><th>Surface</th><th>Volume</th><th>Éléments</th><th>Coût</th></tr></thead><tbody>`)
			for _, c := range v.Categories {
				h.raw(`<tr><td>%s</td><td class="amount">%s</td><td class="amount">%s</td><td class="amount">%d</td><td class="amount">%s</td></tr>`,
					esc(c.Label), esc(c.Surface), esc(c.Volume), c.Elements, esc(c.Cout))
			}
			h.raw(`</tbody></table>`)
		}

		if len(v.Sections) > 0 {
			h.raw(`<h2>Devis</h2><table class="sections"><thead><tr><th>Section</th><th>Lignes</th><th>Total</th></tr></thead><tbody>`)
			for _, s := range v.Sections {
				h.raw(`<tr><td>%s - %s</td><td class="amount">%d</td><td class="amount">%s</td></tr>`,
					esc(s.Label), esc(s.Title), s.Lignes, esc(s.Total))
			}
			h.raw(`</tbody></table>`)
		}

		h.raw(`<nav class="exports">`)
		for _, f := range []string{"json", "xlsx", "pdf"} {
			h.raw(`<a href="%s/export/%s" download>%s</a> `, esc(base), f, f)
		}
		h.raw(`</nav>`)
		h.raw(`<form hx-post="%s/import" hx-target="#recap" hx-swap="outerHTML" hx-encoding="multipart/form-data">`, esc(base))
		h.raw(`<input type="file" name="file" accept=".json,.xlsx"><button type="submit">Importer</button></form>`)
		h.raw(`</section>`)
		return h.err
	})
}
