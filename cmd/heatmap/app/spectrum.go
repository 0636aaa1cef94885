package app

import (
	"math"
	"time"

	"github.com/roman-kulish/spectra-cube/internal/spectrum"
)

// Scale is the intensity scale of the heatmap.
type Scale string

const (
	ScaleDB     Scale = "db"
	ScaleLinear Scale = "linear"
)

// SpectrumData accumulates the spectra of one polarization product as rows
// of the heatmap, oldest first.
type SpectrumData struct {
	Width, Height                int
	FrequencyMin, FrequencyMax   float64
	TimestampStart, TimestampEnd time.Time
	Polarization                 string
	Scale                        Scale
	BoundsTracker                *SmoothBounds
	Rows                         [][]*float64

	valueMin, valueMax float64
}

func NewSpectrumData(polarization string, scale Scale) *SpectrumData {
	return &SpectrumData{
		FrequencyMin:  math.MaxFloat64,
		FrequencyMax:  -math.MaxFloat64,
		Polarization:  polarization,
		Scale:         scale,
		BoundsTracker: NewSmoothBounds(NewPowerHistogram(0.1, 1), 0.3),
		valueMin:      math.Inf(1),
		valueMax:      math.Inf(-1),
	}
}

// Update appends a spectrum as the next row.
func (s *SpectrumData) Update(sp *spectrum.Spectrum) {
	s.Width = max(s.Width, len(sp.Samples))
	s.Height++

	s.FrequencyMin = min(s.FrequencyMin, sp.FrequencyStart)
	s.FrequencyMax = max(s.FrequencyMax, sp.FrequencyEnd)

	if s.TimestampStart.IsZero() || s.TimestampStart.After(sp.Timestamp) {
		s.TimestampStart = sp.Timestamp
	}
	if s.TimestampEnd.IsZero() || s.TimestampEnd.Before(sp.Timestamp) {
		s.TimestampEnd = sp.Timestamp
	}

	row := make([]*float64, len(sp.Samples))
	for i, sample := range sp.Samples {
		if sample.Value == nil {
			continue
		}
		v, ok := s.scaled(*sample.Value)
		if !ok {
			continue
		}
		row[i] = &v

		s.valueMin = min(s.valueMin, v)
		s.valueMax = max(s.valueMax, v)
		if s.Scale == ScaleDB {
			s.BoundsTracker.Update(v)
		}
	}
	s.Rows = append(s.Rows, row)
}

func (s *SpectrumData) scaled(v float64) (float64, bool) {
	if s.Scale == ScaleLinear {
		return v, !math.IsNaN(v)
	}
	if v <= 0 || math.IsNaN(v) {
		return 0, false
	}
	return 10 * math.Log10(v), true
}

// Bounds returns the intensity range of the color scale. Decibel heatmaps use
// the smoothed percentile bounds; linear ones, and small decibel ones, span
// every value.
func (s *SpectrumData) Bounds() PowerBounds {
	if s.Scale == ScaleDB {
		if b, ok := s.BoundsTracker.Current(); ok {
			return b
		}
	}
	if s.valueMin > s.valueMax {
		return PowerBounds{}
	}
	return PowerBounds{
		Min:  s.valueMin,
		Max:  s.valueMax,
		Mean: (s.valueMin + s.valueMax) / 2,
	}
}
