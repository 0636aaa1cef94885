//go:build !unix

package block

import (
	"fmt"
	"io"
	"os"
)

// mapFile falls back to reading the whole file on platforms without mmap.
func mapFile(f *os.File, size int64) ([]byte, func([]byte) error, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(io.NewSectionReader(f, 0, size), data); err != nil {
		return nil, nil, fmt.Errorf("reading file: %w", err)
	}
	return data, func([]byte) error { return nil }, nil
}
