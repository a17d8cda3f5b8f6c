// Package recap derives the project summary from technical tables and devis
// sections. Every function is a full recomputation over the project.
package recap

import (
	"strings"

	"estimation/devis"
	"estimation/project"
)

// DefaultSteelRatio is the steel mass estimated per cubic metre of concrete,
// in kg/m³.
const DefaultSteelRatio = 120.0

// Config carries the constants of the recapitulation.
type Config struct {
	SteelRatio float64
	Categories []project.Category
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		SteelRatio: DefaultSteelRatio,
		Categories: project.DefaultCategories(),
	}
}

// Compute returns the summary of p.
func Compute(p *project.Project, cfg Config) project.Summary {
	var s project.Summary
	for _, t := range p.Tables {
		s.SurfaceTotale += columnSum(t, SurfaceColumn(t))
		s.VolumeBetonTotal += columnSum(t, VolumeColumn(t))
		s.NombreElementsStructurels += len(t.Rows)
	}
	s.QuantiteAcierEstimee = s.VolumeBetonTotal * cfg.SteelRatio
	for _, sec := range p.DevisSections {
		s.NombreLignesDevis += len(sec.Rows)
	}
	s.CoutTotalProjet = devis.ProjectTotal(p.DevisSections)
	return s
}

// Apply recomputes and stores the summary of p.
func Apply(p *project.Project, cfg Config) {
	p.Summary = Compute(p, cfg)
}

// SurfaceColumn returns the key of the column holding the surface of each
// row: "surface", else the first numeric column whose key starts with
// "surface". It returns "" when the table has none.
func SurfaceColumn(t *project.TableDefinition) string {
	return numericColumn(t, "surface", "")
}

// VolumeColumn returns the key of the column holding the concrete volume of
// each row: "volume", else the first numeric column whose key starts with
// "volume", else the first calculated column labelled as a volume.
func VolumeColumn(t *project.TableDefinition) string {
	return numericColumn(t, "volume", "volume")
}

func numericColumn(t *project.TableDefinition, name, label string) string {
	for _, c := range t.Columns {
		if c.Key == name && c.Kind.Numeric() {
			return c.Key
		}
	}
	for _, c := range t.Columns {
		if c.Kind.Numeric() && strings.HasPrefix(c.Key, name) {
			return c.Key
		}
	}
	if label == "" {
		return ""
	}
	for _, c := range t.Columns {
		if c.Kind == project.KindCalculated && strings.Contains(strings.ToLower(c.Label), label) {
			return c.Key
		}
	}
	return ""
}

func columnSum(t *project.TableDefinition, key string) float64 {
	if key == "" {
		return 0
	}
	var sum float64
	for _, r := range t.Rows {
		sum += r.Values[key].Number
	}
	return sum
}
