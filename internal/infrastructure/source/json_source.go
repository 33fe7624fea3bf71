// Package source provides the file-based ERP source implementations.
// Sources are selected at startup via configuration; all of them satisfy
// the integration.Source contract.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/symmy/integrator/internal/domain/integration"
)

// JSONFileSource loads raw product records from a JSON file containing an
// array of objects.
type JSONFileSource struct {
	path string
}

// NewJSONFileSource creates a JSON file source for the given path.
func NewJSONFileSource(path string) *JSONFileSource {
	return &JSONFileSource{path: path}
}

// Load reads and decodes the whole file. I/O failures and malformed JSON
// both abort the run.
func (s *JSONFileSource) Load(ctx context.Context) ([]integration.RawRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", integration.ErrSourceUnavailable, s.path, err)
	}

	var records []integration.RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", integration.ErrSourceInvalidData, s.path, err)
	}
	return records, nil
}

var _ integration.Source = (*JSONFileSource)(nil)
