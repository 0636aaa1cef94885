package export

import (
	"context"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/roman-kulish/spectra-cube/internal/spectrum"
)

const archiveVersion = 1

// Archive is the content of a result archive: a zstd compressed msgpack document.
type Archive struct {
	Version  int              `msgpack:"version"`
	Metadata Metadata         `msgpack:"metadata"`
	Result   *spectrum.Result `msgpack:"result"`
}

// ArchiveWriter writes results as compressed archives.
type ArchiveWriter struct {
	w     io.Writer
	level zstd.EncoderLevel
}

func NewArchiveWriter(w io.Writer) *ArchiveWriter {
	return &ArchiveWriter{w: w, level: zstd.SpeedDefault}
}

// WithLevel sets the zstd compression level.
func (a *ArchiveWriter) WithLevel(level zstd.EncoderLevel) *ArchiveWriter {
	a.level = level
	return a
}

func (a *ArchiveWriter) Export(ctx context.Context, meta Metadata, r *spectrum.Result) (err error) {
	if err = ctx.Err(); err != nil {
		return err
	}

	enc, err := zstd.NewWriter(a.w, zstd.WithEncoderLevel(a.level))
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	defer func() {
		if cErr := enc.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing zstd encoder: %w", cErr)
		}
	}()

	doc := Archive{
		Version:  archiveVersion,
		Metadata: meta,
		Result:   r,
	}
	if err = msgpack.NewEncoder(enc).Encode(&doc); err != nil {
		return fmt.Errorf("encoding archive: %w", err)
	}
	return nil
}

// ReadArchive decodes an archive written by ArchiveWriter.
func ReadArchive(r io.Reader) (*Archive, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	var doc Archive
	if err = msgpack.NewDecoder(dec).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding archive: %w", err)
	}
	if doc.Version != archiveVersion {
		return nil, fmt.Errorf("unsupported archive version %d", doc.Version)
	}
	return &doc, nil
}
