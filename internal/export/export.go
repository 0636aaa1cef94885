package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/roman-kulish/spectra-cube/internal/spectrum"
)

// Metadata describes where a result comes from.
type Metadata struct {
	RunID  string `msgpack:"runID"`
	Source string `msgpack:"source"`
	Beam   int    `msgpack:"beam"`
	Config any    `msgpack:"config,omitempty"`
}

// NewMetadata returns Metadata with a freshly generated run identifier.
func NewMetadata(source string, beam int, config any) Metadata {
	return Metadata{
		RunID:  uuid.NewString(),
		Source: source,
		Beam:   beam,
		Config: config,
	}
}

type Exporter interface {
	Export(context.Context, Metadata, *spectrum.Result) error
}

// Format identifies an export target type.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatArchive Format = "archive"
	FormatSqlite  Format = "sqlite"
)

// ParseFormat resolves a format name, case-insensitively.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatCSV, FormatArchive, FormatSqlite:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", name)
	}
}
