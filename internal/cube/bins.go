package cube

import "math"

// Binning describes how an axis of N samples is averaged: Bins bins of Per
// samples each, with Leftover trailing samples dropped.
type Binning struct {
	Bins     int
	Per      int
	Leftover int
}

// NewBinning splits n samples into bins of about width samples. The number of
// bins is n/width, at least one; the samples that do not fill the last bin are
// reported as leftover and the bins are widened to cover the rest.
func NewBinning(n, width int) Binning {
	width = max(width, 1)
	bins := max(n/width, 1)
	leftover := n % bins
	return Binning{
		Bins:     bins,
		Per:      (n - leftover) / bins,
		Leftover: leftover,
	}
}

// Used returns the number of samples that fall inside a bin.
func (b Binning) Used() int {
	return b.Bins * b.Per
}

// RebinAxis averages axis values with the binning of NewBinning(len(axis), width).
func RebinAxis(axis []float64, width int) ([]float64, int) {
	b := NewBinning(len(axis), width)
	out := make([]float64, b.Bins)
	for i := range out {
		out[i] = nanMean(axis[i*b.Per : (i+1)*b.Per])
	}
	return out, b.Leftover
}

func nanMean(values []float64) float64 {
	var (
		sum float64
		n   int
	)
	for _, v := range values {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
