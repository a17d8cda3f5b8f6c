package collections

import (
	"strings"

	"estimation/project"
)

// NormalizeCategories rewrites table and devis section categories that hold
// a category label ("Maçonnerie") instead of its key ("maconnerie"). Older
// snapshots and hand-edited documents carry labels. Matching ignores case
// and surrounding spaces; unknown values are kept. It returns the number of
// categories replaced.
func NormalizeCategories(p *project.Project, categories []project.Category) int {
	byLabel := make(map[string]string, len(categories))
	keys := make(map[string]bool, len(categories))
	for _, c := range categories {
		keys[c.Key] = true
		byLabel[strings.ToLower(strings.TrimSpace(c.Label))] = c.Key
	}

	resolve := func(category string) (string, bool) {
		if keys[category] {
			return category, false
		}
		key, ok := byLabel[strings.ToLower(strings.TrimSpace(category))]
		return key, ok
	}

	replaced := 0
	for _, t := range p.Tables {
		if key, ok := resolve(t.Category); ok {
			t.Category = key
			replaced++
		}
	}
	for _, s := range p.DevisSections {
		if key, ok := resolve(s.Category); ok {
			s.Category = key
			replaced++
		}
	}
	return replaced
}
