package app

import "math"

const (
	// For 20 samples:
	// - 5% percentile  = 1 sample
	// - 95% percentile = 19th sample
	minimumSampleCount = 20
)

// PowerBounds represents the intensity range mapped onto the color scale
type PowerBounds struct {
	Min  float64 // 5th percentile, less a margin
	Max  float64 // 95th percentile, plus a margin
	Mean float64
}

// PowerHistogram maintains a histogram of intensities in fixed width bins
type PowerHistogram struct {
	binWidth   float64
	minRange   float64 // Narrowest range returned by PercentileBounds
	bins       map[int]uint32
	totalCount uint64
	minBin     int
	maxBin     int
	sum        float64
}

// NewPowerHistogram creates a histogram of binWidth wide bins. Percentile
// bounds narrower than minRange are widened around their center.
func NewPowerHistogram(binWidth, minRange float64) *PowerHistogram {
	return &PowerHistogram{
		binWidth: binWidth,
		minRange: minRange,
		bins:     make(map[int]uint32),
		minBin:   math.MaxInt32,
		maxBin:   math.MinInt32,
	}
}

func (h *PowerHistogram) binIndex(v float64) int {
	return int(math.Floor(v / h.binWidth))
}

// Update adds an intensity to the histogram. NaN and infinite values are ignored.
func (h *PowerHistogram) Update(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}

	bin := h.binIndex(v)
	if h.bins[bin] == math.MaxUint32 {
		h.scaleDown()
	}

	h.bins[bin]++
	h.totalCount++
	h.sum += v

	h.minBin = min(h.minBin, bin)
	h.maxBin = max(h.maxBin, bin)
}

// scaleDown halves all bin counts
func (h *PowerHistogram) scaleDown() {
	h.minBin = math.MaxInt32
	h.maxBin = math.MinInt32

	for bin := range h.bins {
		h.bins[bin] /= 2
		if h.bins[bin] == 0 {
			delete(h.bins, bin)
			continue
		}
		h.minBin = min(h.minBin, bin)
		h.maxBin = max(h.maxBin, bin)
	}
	h.sum /= 2
	h.totalCount /= 2
}

// Count returns the number of values in the histogram.
func (h *PowerHistogram) Count() uint64 {
	return h.totalCount
}

// PercentileBounds returns the bounds between the 5th and the 95th percentile
// with a 10% margin. It reports false when there are too few samples.
func (h *PowerHistogram) PercentileBounds() (PowerBounds, bool) {
	if h.totalCount < minimumSampleCount {
		return PowerBounds{}, false
	}

	target := h.totalCount * 5 / 100

	var count uint64
	low, high := h.minBin, h.maxBin
	for bin := h.minBin; bin <= h.maxBin; bin++ {
		count += uint64(h.bins[bin])
		if count >= target {
			low = bin
			break
		}
	}

	count = 0
	for bin := h.maxBin; bin >= h.minBin; bin-- {
		count += uint64(h.bins[bin])
		if count >= target {
			high = bin
			break
		}
	}

	lo := float64(low) * h.binWidth
	hi := float64(high+1) * h.binWidth
	if hi-lo < h.minRange {
		center := (hi + lo) / 2
		lo, hi = center-h.minRange/2, center+h.minRange/2
	}

	margin := (hi - lo) / 10
	return PowerBounds{
		Min:  lo - margin,
		Max:  hi + margin,
		Mean: h.sum / float64(h.totalCount),
	}, true
}

// SmoothBounds tracks the histogram bounds as values arrive, exponentially
// smoothed so that a burst of outliers does not dominate the color scale.
type SmoothBounds struct {
	hist    *PowerHistogram
	alpha   float64 // Smoothing factor (0-1)
	current PowerBounds
	primed  bool
}

// NewSmoothBounds creates a new bounds smoother
func NewSmoothBounds(hist *PowerHistogram, alpha float64) *SmoothBounds {
	return &SmoothBounds{hist: hist, alpha: alpha}
}

// Update adds an intensity and returns the smoothed bounds
func (s *SmoothBounds) Update(v float64) PowerBounds {
	s.hist.Update(v)

	b, ok := s.hist.PercentileBounds()
	if !ok {
		return s.current
	}
	if !s.primed {
		s.current, s.primed = b, true
		return s.current
	}

	s.current.Min = s.current.Min*(1-s.alpha) + b.Min*s.alpha
	s.current.Max = s.current.Max*(1-s.alpha) + b.Max*s.alpha
	s.current.Mean = b.Mean
	return s.current
}

// Current returns the smoothed bounds and whether enough values were seen.
func (s *SmoothBounds) Current() (PowerBounds, bool) {
	return s.current, s.primed
}
