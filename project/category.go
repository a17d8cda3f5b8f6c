package project

// Category is a construction chapter shared by technical tables and devis
// sections.
type Category struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
}

// DefaultCategories is the category table used when none is configured.
func DefaultCategories() []Category {
	return []Category{
		{Key: "terrassement", Label: "Terrassement"},
		{Key: "fondations", Label: "Fondations"},
		{Key: "superstructure", Label: "Superstructure"},
		{Key: "maconnerie", Label: "Maçonnerie"},
		{Key: "toiture", Label: "Toiture"},
		{Key: "second-oeuvre", Label: "Second œuvre"},
	}
}

// CategoryLabel returns the label of key, or key itself when unknown.
func CategoryLabel(categories []Category, key string) string {
	for _, c := range categories {
		if c.Key == key {
			return c.Label
		}
	}
	return key
}
