package codec

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"vlanislands/internal/domain"
)

// ErrUnknownFormat is returned for an unsupported format name
var ErrUnknownFormat = errors.New("unknown format")

// Importer interface for importing topology documents from various formats
type Importer interface {
	Parse(r io.Reader) (*domain.Document, error)
	Format() string
}

// Exporter interface for exporting topology documents to various formats
type Exporter interface {
	Export(doc *domain.Document, w io.Writer) error
	Format() string
}

// Codec both imports and exports a format
type Codec interface {
	Importer
	Exporter
}

// Formats lists the supported format names
func Formats() []string {
	return []string{"json", "yaml", "ansible"}
}

// ForFormat returns the codec for a format name
func ForFormat(format string) (Codec, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	case "ansible", "ansible-inventory":
		return NewAnsibleCodec(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// FormatFromPath infers a format name from a file extension, empty if unknown
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	}
	return ""
}
