// Package devis edits priced line items and keeps row and section totals
// consistent with quantities and unit prices.
package devis

import (
	"github.com/shopspring/decimal"

	"estimation/project"
)

// DefaultDecimals is the minor-unit precision of amounts (cents).
const DefaultDecimals = 2

// ExtendedPrice returns quantite × prixUnitaire rounded half away from zero
// to the given number of decimals. The product is computed in decimal.
func ExtendedPrice(quantite, prixUnitaire float64, decimals int32) float64 {
	return decimal.NewFromFloat(quantite).
		Mul(decimal.NewFromFloat(prixUnitaire)).
		Round(decimals).
		InexactFloat64()
}

// SectionTotal is the in-order sum of the row extended prices.
func SectionTotal(rows []*project.DevisRow) float64 {
	var sum float64
	for _, r := range rows {
		sum += r.PrixTotal
	}
	return sum
}

// ProjectTotal is the in-order sum of every row of every section.
func ProjectTotal(sections []*project.DevisSection) float64 {
	var sum float64
	for _, s := range sections {
		for _, r := range s.Rows {
			sum += r.PrixTotal
		}
	}
	return sum
}
