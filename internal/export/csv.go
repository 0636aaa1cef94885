package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/roman-kulish/spectra-cube/internal/spectrum"
)

var csvHeader = []string{
	"RunID",
	"Beam",
	"UnixSeconds",
	"FrequencyHz",
	"Polarization",
	"Value",
}

// CSV writes one line per sample. Invalid samples have an empty value.
type CSV struct {
	w io.Writer
}

func NewCSV(w io.Writer) *CSV {
	return &CSV{w: w}
}

func (c *CSV) Export(ctx context.Context, meta Metadata, r *spectrum.Result) error {
	w := csv.NewWriter(c.w)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	times, freqs, pols := r.Shape()
	if r.Empty() {
		times = 0
	}

	beam := strconv.Itoa(meta.Beam)
	record := make([]string, len(csvHeader))
	for t := range times {
		if err := ctx.Err(); err != nil {
			return err
		}

		ts := strconv.FormatFloat(r.Time[t], 'f', 6, 64)
		for f := range freqs {
			freq := strconv.FormatFloat(r.Frequency[f], 'f', 3, 64)
			for p := range pols {
				record[0] = meta.RunID
				record[1] = beam
				record[2] = ts
				record[3] = freq
				record[4] = r.Polarizations[p]
				record[5] = ""
				if v := float64(r.At(t, f, p)); !math.IsNaN(v) {
					record[5] = strconv.FormatFloat(v, 'g', -1, 32)
				}
				if err := w.Write(record); err != nil {
					return fmt.Errorf("writing CSV line: %w", err)
				}
			}
		}

		w.Flush()
		if err := w.Error(); err != nil {
			return fmt.Errorf("flushing CSV: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}
