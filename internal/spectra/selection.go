package spectra

import (
	"math"

	"github.com/roman-kulish/spectra-cube/internal/block"
	"github.com/roman-kulish/spectra-cube/internal/cube"
)

type selection struct {
	times    cube.Span // time indices of the cube
	freqs    cube.Span // frequency indices of the cube
	timeAxis []float64 // unix seconds
	freqAxis []float64 // Hz
}

// nearest returns the index of the first value minimising |ceil(v - target)|,
// which favours the value at or right after target.
func nearest(values []float64, target float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, v := range values {
		if d := math.Abs(math.Ceil(v - target)); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// selectWindow resolves the configured time and frequency window into cube
// indices. It reports false when the window holds no sample.
func (r *Reader) selectWindow(c *Configuration) (selection, bool) {
	var sel selection

	r.logger.Info("computing the time selection")
	starts := r.assembly.Starts
	if len(starts) == 0 {
		return sel, false
	}

	layout := r.assembly.Layout
	spb := layout.SamplesPerBlock
	last := len(starts)*spb - 1
	index := func(t float64) int {
		b := nearest(starts, t)
		in := int(math.RoundToEven((t - starts[b]) / layout.TimeStep))
		return min(max(b*spb+in, 0), last)
	}

	tmin, tmax := index(c.timeRange[0]), index(c.timeRange[1])
	if tmin >= tmax {
		return sel, false
	}
	sel.times = cube.Span{Start: tmin, Stop: tmax + 1}
	sel.timeAxis = make([]float64, 0, tmax-tmin+1)
	for i := tmin; i <= tmax; i++ {
		sel.timeAxis = append(sel.timeAxis, starts[i/spb]+float64(i%spb)*layout.TimeStep)
	}

	r.logger.Info("computing the frequency selection")
	rng, ok := r.beams.Lookup(c.beam)
	if !ok {
		return sel, false
	}
	channels := layout.Channels
	first := rng.Start / channels
	subbands := r.assembly.Subbands[first : rng.Stop/channels+1]
	startHz := make([]float64, len(subbands))
	for i, sb := range subbands {
		startHz[i] = float64(sb) * block.SubbandWidth
	}

	smin := nearest(startHz, c.frequencyRange[0])
	smax := nearest(startHz, c.frequencyRange[1])
	if smin > smax {
		return sel, false
	}
	sel.freqs = cube.Span{Start: (first + smin) * channels, Stop: (first + smax + 1) * channels}
	sel.freqAxis = make([]float64, 0, (smax-smin+1)*channels)
	for _, hz := range startHz[smin : smax+1] {
		for ch := range channels {
			sel.freqAxis = append(sel.freqAxis, hz+float64(ch)*layout.FrequencyStep)
		}
	}
	return sel, true
}
