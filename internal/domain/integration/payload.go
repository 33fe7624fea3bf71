package integration

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

// Payload is the canonical product representation sent to the e-shop API.
// It is the only shape the dispatcher and the fingerprint ever see.
// Treat a Payload as immutable once built.
type Payload struct {
	SKU   string
	Title string
	Price decimal.Decimal
	Stock int
	Color string
}

// Fingerprint is the lowercase hex SHA-256 digest of a payload's canonical
// serialization. Equal payload content always yields an equal fingerprint;
// any field change yields a different one.
type Fingerprint string

// MarshalJSON emits the canonical serialization: keys in fixed sorted order
// and the price as a plain number with exactly two decimal places. The wire
// body and the fingerprint input are the same bytes.
func (p Payload) MarshalJSON() ([]byte, error) {
	return p.canonical(), nil
}

// canonical builds the canonical JSON encoding of the payload.
func (p Payload) canonical() []byte {
	var b bytes.Buffer
	b.WriteByte('{')
	b.WriteString(`"color":`)
	b.Write(encodeJSONString(p.Color))
	b.WriteString(`,"price":`)
	b.WriteString(p.Price.StringFixed(2))
	b.WriteString(`,"sku":`)
	b.Write(encodeJSONString(p.SKU))
	b.WriteString(`,"stock":`)
	b.WriteString(strconv.Itoa(p.Stock))
	b.WriteString(`,"title":`)
	b.Write(encodeJSONString(p.Title))
	b.WriteByte('}')
	return b.Bytes()
}

// ComputeFingerprint fingerprints a payload for change detection. The digest
// is stable across process runs and independent of how the payload was
// assembled.
func ComputeFingerprint(p Payload) Fingerprint {
	sum := sha256.Sum256(p.canonical())
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// encodeJSONString encodes a single string value. json.Marshal on a plain
// string cannot fail.
func encodeJSONString(s string) []byte {
	data, _ := json.Marshal(s)
	return data
}
