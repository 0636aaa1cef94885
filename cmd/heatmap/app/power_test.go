package app

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPowerHistogram_PercentileBounds(t *testing.T) {
	h := NewPowerHistogram(1, 0)
	for i := range 10 {
		h.Update(float64(i))
	}
	_, ok := h.PercentileBounds()
	assert.False(t, ok, "too few samples")

	h = NewPowerHistogram(1, 0)
	for i := range 100 {
		h.Update(float64(i))
	}
	h.Update(math.NaN())
	h.Update(math.Inf(1))
	assert.EqualValues(t, 100, h.Count())

	b, ok := h.PercentileBounds()
	require.True(t, ok)
	// 5th percentile bin is 4, 95th is 95, widened by 10%
	assert.InDelta(t, 4-9.2, b.Min, 1e-9)
	assert.InDelta(t, 96+9.2, b.Max, 1e-9)
	assert.InDelta(t, 49.5, b.Mean, 1e-9)
}

func TestPowerHistogram_MinRange(t *testing.T) {
	h := NewPowerHistogram(0.1, 1)
	for range 50 {
		h.Update(20.05)
	}

	b, ok := h.PercentileBounds()
	require.True(t, ok)
	assert.InDelta(t, 1.2, b.Max-b.Min, 1e-9)
	assert.InDelta(t, 20.05, (b.Max+b.Min)/2, 1e-9)
}

func TestSmoothBounds(t *testing.T) {
	s := NewSmoothBounds(NewPowerHistogram(1, 0), 0.5)

	_, ok := s.Current()
	assert.False(t, ok)

	for i := range 20 {
		s.Update(float64(i))
	}
	first, ok := s.Current()
	require.True(t, ok)

	for range 1000 {
		s.Update(1000)
	}
	last, _ := s.Current()
	assert.Greater(t, last.Max, first.Max)
}
