package interchange

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount formats an amount in French notation: space-grouped
// thousands, a decimal comma and the currency symbol after the number,
// e.g. "1 234,56 €". An empty symbol formats the bare number.
func FormatAmount(amount float64, symbol string, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	raw := decimal.NewFromFloat(amount).StringFixed(int32(decimals))

	negative := strings.HasPrefix(raw, "-")
	raw = strings.TrimPrefix(raw, "-")

	intPart, decPart, _ := strings.Cut(raw, ".")
	result := groupThousands(intPart)
	if decPart != "" {
		result += "," + decPart
	}
	if negative && strings.Trim(raw, "0.") != "" {
		result = "-" + result
	}
	if symbol != "" {
		result += " " + symbol
	}
	return result
}

// FormatQuantity formats a quantity like FormatAmount without a symbol,
// dropping the decimals of whole numbers.
func FormatQuantity(qty float64) string {
	if decimal.NewFromFloat(qty).IsInteger() {
		return FormatAmount(qty, "", 0)
	}
	return FormatAmount(qty, "", 2)
}

// groupThousands inserts a space every three digits from the right.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
