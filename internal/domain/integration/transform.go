package integration

import "github.com/shopspring/decimal"

// vatRate is the fixed VAT rate applied to the tax-exclusive ERP price.
var vatRate = decimal.NewFromFloat(1.21)

// defaultColor is used when a record carries no color attribute.
const defaultColor = "N/A"

// Transform builds the canonical Payload from a raw record.
//
// Callers must run Validate first; behavior on a record that fails
// validation is unspecified.
//
// The resulting price is VAT-inclusive and rounded to 2 decimal places.
// Stock is the sum of all numeric warehouse quantities; non-numeric
// quantities are skipped silently.
func Transform(raw RawRecord) Payload {
	priceExcl, _ := asNumber(raw["price_vat_excl"])
	price := decimal.NewFromFloat(priceExcl).Mul(vatRate).Round(2)

	totalStock := 0
	if stocks, ok := raw["stocks"].(map[string]any); ok {
		for _, qty := range stocks {
			if n, ok := asNumber(qty); ok {
				totalStock += int(n)
			}
		}
	}

	color := defaultColor
	if attrs, ok := raw["attributes"].(map[string]any); ok {
		if c, ok := attrs["color"].(string); ok {
			color = c
		}
	}

	title, _ := raw["title"].(string)

	return Payload{
		SKU:   raw.SKU(),
		Title: title,
		Price: price,
		Stock: totalStock,
		Color: color,
	}
}

// Deduplicate collapses repeated record identifiers. When the same SKU
// appears more than once, the last occurrence wins but the record keeps the
// position of its first occurrence in the output sequence.
func Deduplicate(records []RawRecord) []RawRecord {
	positions := make(map[string]int, len(records))
	out := make([]RawRecord, 0, len(records))

	for _, r := range records {
		sku := r.SKU()
		if i, seen := positions[sku]; seen {
			out[i] = r
			continue
		}
		positions[sku] = len(out)
		out = append(out, r)
	}

	return out
}
