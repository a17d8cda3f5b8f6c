// Package interchange converts projects to and from external formats: the
// JSON snapshot document, the xlsx workbook and the devis PDF.
package interchange

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"estimation/devis"
	"estimation/project"
	"estimation/recap"
	"estimation/takeoff"
)

// Config carries the presentation settings of exported documents.
type Config struct {
	Recap          recap.Config
	CurrencySymbol string
	Decimals       int
	// Logger receives formula failures while re-deriving imported tables.
	Logger *slog.Logger
}

// DefaultConfig returns euros with cents and the default recapitulation.
func DefaultConfig() Config {
	return Config{
		Recap:          recap.DefaultConfig(),
		CurrencySymbol: "€",
		Decimals:       devis.DefaultDecimals,
	}
}

// ImportParseError is returned when an imported document cannot be turned
// into a project.
type ImportParseError struct {
	Format string
	Err    error
}

func (e *ImportParseError) Error() string {
	return fmt.Sprintf("import %s: %v", e.Format, e.Err)
}

func (e *ImportParseError) Unwrap() error { return e.Err }

// ExportJSON serializes p as a snapshot document.
func ExportJSON(p *project.Project) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export json: %w", err)
	}
	return data, nil
}

// ImportJSON decodes a snapshot document. The document is taken verbatim:
// derived values are not recomputed, so ImportJSON(ExportJSON(p)) equals p.
// Documents from outside the store go through Rederive before use.
func ImportJSON(data []byte) (*project.Project, error) {
	var p project.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, &ImportParseError{Format: "json", Err: err}
	}
	if err := p.Validate(); err != nil {
		return nil, &ImportParseError{Format: "json", Err: err}
	}
	for _, t := range p.Tables {
		if err := takeoff.ValidateColumns(t.Columns); err != nil {
			return nil, &ImportParseError{Format: "json", Err: fmt.Errorf("table %q: %w", t.ID, err)}
		}
	}
	return &p, nil
}

// Rederive recomputes every value derived from user input: calculated
// cells, line prices, section totals and the summary. For a project produced
// by the engines it changes nothing.
func Rederive(p *project.Project, cfg Config) {
	tables := takeoff.NewEngine(cfg.Logger)
	for _, t := range p.Tables {
		tables.RecalculateAll(t)
	}
	sections := devis.NewEngine(cfg.Decimals)
	for _, s := range p.DevisSections {
		sections.Recompute(s)
	}
	recap.Apply(p, cfg.Recap)
}
