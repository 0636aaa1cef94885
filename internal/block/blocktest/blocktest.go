// Package blocktest writes small synthetic block files for tests.
package blocktest

import (
	"bufio"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/roman-kulish/spectra-cube/internal/block"
)

// File describes a synthetic block file. Zero values are replaced by small
// defaults so tests only set what they care about.
type File struct {
	Channels     int32   // FFT length
	Spectra      int32   // spectra per block
	Integrations int32   // integrated FFTs per spectrum
	Timestamp    uint64  // unix seconds of block 0
	Subbands     []int32 // subband index of each record, in file order
	Beams        []int32 // beam of each record, defaults to 0
	Blocks       int

	Corrupt   []int // blocks written with a negative subband count
	LostStart []int // blocks written with a zero first sample index
	Trailing  int   // garbage bytes appended after the last block
}

func (f File) withDefaults() File {
	if f.Channels == 0 {
		f.Channels = 4
	}
	if f.Spectra == 0 {
		f.Spectra = 3
	}
	if f.Integrations == 0 {
		f.Integrations = 1
	}
	if f.Timestamp == 0 {
		f.Timestamp = 1_700_000_000
	}
	if len(f.Subbands) == 0 {
		f.Subbands = []int32{100, 101}
	}
	if len(f.Beams) == 0 {
		f.Beams = make([]int32, len(f.Subbands))
	}
	if f.Blocks == 0 {
		f.Blocks = 1
	}
	return f
}

// Value returns the deterministic sample written at spectrum t, channel c of
// record rec in block b. Auto powers encode the block and record positions,
// the cross power encodes the spectrum and channel.
func Value(b, rec, t, c int) (xx, yy, re, im float32) {
	return float32(b + 1), float32(rec + 1), float32(c), float32(t)
}

// SamplesPerBlock returns the stride in receiver samples between two blocks.
func (f File) SamplesPerBlock() uint64 {
	f = f.withDefaults()
	return uint64(f.Spectra) * uint64(f.Channels) * uint64(f.Integrations)
}

// Header returns the header written for block b.
func (f File) Header(b int) block.Header {
	f = f.withDefaults()
	stride := f.SamplesPerBlock()
	h := block.Header{
		Idx:            uint64(b) * stride,
		Timestamp:      f.Timestamp,
		BlockSeqNumber: uint64(b) * stride,
		FFTLen:         f.Channels,
		NFFT2Int:       f.Integrations,
		NFFTE:          f.Spectra,
		NbChan:         int32(len(f.Subbands)),
	}
	if slices.Contains(f.LostStart, b) {
		h.Idx = 0
	}
	if slices.Contains(f.Corrupt, b) {
		h.NbChan = -h.NbChan
	}
	return h
}

// Write writes the file into a fresh temporary directory and returns its path.
func Write(tb testing.TB, f File) string {
	tb.Helper()
	f = f.withDefaults()

	path := filepath.Join(tb.TempDir(), "observation.spectra")
	out, err := os.Create(path)
	if err != nil {
		tb.Fatalf("creating block file: %v", err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	values := int(f.Spectra) * int(f.Channels) * 2
	for b := range f.Blocks {
		records := make([]block.Subband, len(f.Subbands))
		for rec := range records {
			fft0 := make([]float32, values)
			fft1 := make([]float32, values)
			for t := range int(f.Spectra) {
				for c := range int(f.Channels) {
					i := (t*int(f.Channels) + c) * 2
					fft0[i], fft0[i+1], fft1[i], fft1[i+1] = Value(b, rec, t, c)
				}
			}
			records[rec] = block.Subband{
				Lane:    int32(rec % 4),
				Beam:    f.Beams[rec],
				Channel: f.Subbands[rec],
				FFT0:    fft0,
				FFT1:    fft1,
			}
		}
		if err = block.WriteBlock(w, f.Header(b), records); err != nil {
			tb.Fatalf("writing block %d: %v", b, err)
		}
	}
	if f.Trailing > 0 {
		if _, err = w.Write(make([]byte, f.Trailing)); err != nil {
			tb.Fatalf("writing trailing bytes: %v", err)
		}
	}
	if err = w.Flush(); err != nil {
		tb.Fatalf("flushing block file: %v", err)
	}
	return path
}
