package codec

import (
	"errors"
	"fmt"
	"io"

	"vlanislands/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Parse imports a topology document from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Document, error) {
	var wd wireDocument
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&wd); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.MalformedInput("empty YAML document")
		}
		return nil, fmt.Errorf("%w: failed to parse YAML: %w", domain.ErrMalformedInput, err)
	}

	return wd.toDomain(), nil
}

// Export exports a topology document to YAML
func (c *YAMLCodec) Export(doc *domain.Document, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	wd := fromDomain(doc)
	if err := encoder.Encode(&wd); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
