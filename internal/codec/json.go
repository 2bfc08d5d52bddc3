package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"vlanislands/internal/domain"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse imports a topology document from JSON
func (c *JSONCodec) Parse(r io.Reader) (*domain.Document, error) {
	var wd wireDocument
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&wd); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.MalformedInput("empty JSON document")
		}
		return nil, fmt.Errorf("%w: failed to parse JSON: %w", domain.ErrMalformedInput, err)
	}

	return wd.toDomain(), nil
}

// Export exports a topology document to JSON
func (c *JSONCodec) Export(doc *domain.Document, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(fromDomain(doc)); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
