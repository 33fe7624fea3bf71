package integration

import "encoding/json"

// RawRecord is a single product record as delivered by an ERP source.
// Its schema is externally controlled and only partially validated, so it is
// kept as a loosely-typed string-keyed map rather than a struct.
// A record is a read-only view for the duration of a run.
type RawRecord map[string]any

// SKU returns the record identifier, or "" when it is absent, null or not a
// string.
func (r RawRecord) SKU() string {
	sku, _ := r["id"].(string)
	return sku
}

// asNumber coerces the numeric value shapes that JSON and CSV decoding
// produce. Returns false for anything that is not a number.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
