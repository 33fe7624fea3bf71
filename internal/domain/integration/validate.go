package integration

import (
	"fmt"
	"strconv"
)

// Validate checks a raw ERP record against the rules a record must satisfy
// before it can be transformed. It returns (false, reason) on the first
// failing rule, in this order:
//
//  1. missing or empty identifier
//  2. absent/null price
//  3. non-numeric price
//  4. negative price
//  5. absent, empty or non-mapping stocks
//
// Validate is pure and never mutates the record.
func Validate(raw RawRecord) (bool, string) {
	sku := raw.SKU()
	if sku == "" {
		return false, "missing SKU"
	}

	price, present := raw["price_vat_excl"]
	if !present || price == nil {
		return false, fmt.Sprintf("%s: null price", sku)
	}
	num, ok := asNumber(price)
	if !ok {
		return false, fmt.Sprintf("%s: non-numeric price", sku)
	}
	if num < 0 {
		return false, fmt.Sprintf("%s: negative price (%s)", sku, strconv.FormatFloat(num, 'f', -1, 64))
	}

	stocks, ok := raw["stocks"].(map[string]any)
	if !ok || len(stocks) == 0 {
		return false, fmt.Sprintf("%s: missing or invalid stocks", sku)
	}

	return true, ""
}
