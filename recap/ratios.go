package recap

import "estimation/project"

// Ratios are derived from a summary on demand and never stored.
type Ratios struct {
	CostPerSurface  float64 // coût / m²
	SteelToConcrete float64 // kg / m³
	CostPerVolume   float64 // coût / m³
}

// ComputeRatios divides the summary totals. A zero denominator yields 0.
func ComputeRatios(s project.Summary) Ratios {
	return Ratios{
		CostPerSurface:  ratio(s.CoutTotalProjet, s.SurfaceTotale),
		SteelToConcrete: ratio(s.QuantiteAcierEstimee, s.VolumeBetonTotal),
		CostPerVolume:   ratio(s.CoutTotalProjet, s.VolumeBetonTotal),
	}
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// CategoryTotals is the share of one category in the project totals.
type CategoryTotals struct {
	Category string
	Label    string
	Surface  float64
	Volume   float64
	Cout     float64
	Elements int
	Lignes   int
}

// ByCategory groups surfaces, volumes and costs per category. Configured
// categories come first in configuration order, then any other category in
// order of first appearance. Categories with neither tables nor sections are
// omitted.
func ByCategory(p *project.Project, cfg Config) []CategoryTotals {
	index := make(map[string]int)
	var out []CategoryTotals
	entry := func(key string) *CategoryTotals {
		if i, ok := index[key]; ok {
			return &out[i]
		}
		index[key] = len(out)
		out = append(out, CategoryTotals{Category: key, Label: project.CategoryLabel(cfg.Categories, key)})
		return &out[len(out)-1]
	}

	used := make(map[string]bool)
	for _, t := range p.Tables {
		used[t.Category] = true
	}
	for _, s := range p.DevisSections {
		used[s.Category] = true
	}
	for _, c := range cfg.Categories {
		if used[c.Key] {
			entry(c.Key)
		}
	}

	for _, t := range p.Tables {
		e := entry(t.Category)
		e.Surface += columnSum(t, SurfaceColumn(t))
		e.Volume += columnSum(t, VolumeColumn(t))
		e.Elements += len(t.Rows)
	}
	for _, s := range p.DevisSections {
		e := entry(s.Category)
		for _, r := range s.Rows {
			e.Cout += r.PrixTotal
		}
		e.Lignes += len(s.Rows)
	}
	return out
}
