package source

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/symmy/integrator/internal/domain/integration"
)

// csv column headers expected in an ERP export.
const (
	columnID         = "id"
	columnTitle      = "title"
	columnPrice      = "price_vat_excl"
	columnStocks     = "stocks"
	columnAttributes = "attributes"
)

// CSVFileSource loads raw product records from a CSV export. The stocks and
// attributes columns carry JSON objects; scalar columns are plain values.
type CSVFileSource struct {
	path      string
	delimiter rune
}

// NewCSVFileSource creates a CSV file source with comma-delimited fields.
func NewCSVFileSource(path string) *CSVFileSource {
	return &CSVFileSource{path: path, delimiter: ','}
}

// Load reads the whole file into raw records. A missing file or an
// unreadable header aborts the run; malformed cell values are left for
// validation to reject per record.
func (s *CSVFileSource) Load(ctx context.Context) ([]integration.RawRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", integration.ErrSourceUnavailable, s.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(stripBOM(f))
	reader.Comma = s.delimiter
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: missing header: %v", integration.ErrSourceInvalidData, s.path, err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}

	var records []integration.RawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", integration.ErrSourceInvalidData, s.path, err)
		}
		records = append(records, rowToRecord(columns, row))
	}
	return records, nil
}

// rowToRecord converts one CSV row into the same record shape the JSON
// source produces, so validation and transformation treat both alike.
func rowToRecord(columns map[string]int, row []string) integration.RawRecord {
	cell := func(name string) (string, bool) {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return "", false
		}
		return row[i], true
	}

	record := make(integration.RawRecord, 5)

	if id, ok := cell(columnID); ok {
		record["id"] = id
	}
	if title, ok := cell(columnTitle); ok {
		record["title"] = title
	}

	if raw, ok := cell(columnPrice); ok {
		if raw == "" {
			record["price_vat_excl"] = nil
		} else if n, err := strconv.ParseFloat(raw, 64); err == nil {
			record["price_vat_excl"] = n
		} else {
			// Keep the junk value; validation reports it as non-numeric.
			record["price_vat_excl"] = raw
		}
	}

	if raw, ok := cell(columnStocks); ok && raw != "" {
		var stocks map[string]any
		if err := json.Unmarshal([]byte(raw), &stocks); err == nil {
			record["stocks"] = stocks
		} else {
			record["stocks"] = raw
		}
	}

	if raw, ok := cell(columnAttributes); ok && raw != "" {
		var attrs map[string]any
		if err := json.Unmarshal([]byte(raw), &attrs); err == nil {
			record["attributes"] = attrs
		}
	}

	return record
}

// stripBOM discards a leading UTF-8 byte order mark if present.
func stripBOM(r io.Reader) io.Reader {
	buf := bufio.NewReader(r)
	if head, err := buf.Peek(3); err == nil &&
		len(head) == 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = buf.Discard(3)
	}
	return buf
}

var _ integration.Source = (*CSVFileSource)(nil)
