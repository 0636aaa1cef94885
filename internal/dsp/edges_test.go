package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/spectra-cube/internal/cube"
)

func countInvalid(s *cube.Slab, t int) []int {
	var cols []int
	for f := range s.Freqs {
		if math.IsNaN(float64(s.At(t, f).XX())) {
			cols = append(cols, f)
		}
	}
	return cols
}

func newSlab(freqStart, times, freqs int) *cube.Slab {
	s := &cube.Slab{FreqStart: freqStart, Times: times, Freqs: freqs, Data: make([]cube.Matrix, times*freqs)}
	for i := range s.Data {
		s.Data[i] = cube.Coherency(1, 1, 0, 0)
	}
	return s
}

func TestEdgeChannels(t *testing.T) {
	const channels = 8
	for _, subbands := range []int{1, 3, 5} {
		stage, err := EdgeChannels(channels, 2, 2)
		require.NoError(t, err)

		s := newSlab(0, 2, subbands*channels)
		stage(s)

		invalid := countInvalid(s, 1)
		assert.Len(t, invalid, subbands*4, "%d subbands", subbands)
		for _, f := range invalid {
			c := f % channels
			assert.True(t, c < 2 || c >= channels-2, "channel %d", c)
		}
	}
}

func TestEdgeChannels_Asymmetric(t *testing.T) {
	stage, err := EdgeChannels(4, 1, 0)
	require.NoError(t, err)

	s := newSlab(4, 1, 8)
	stage(s)
	assert.Equal(t, []int{0, 4}, countInvalid(s, 0))

	m := s.At(0, 0)
	for _, v := range m {
		assert.True(t, math.IsNaN(float64(real(v))))
		assert.True(t, math.IsNaN(float64(imag(v))))
	}
}

func TestEdgeChannels_Noop(t *testing.T) {
	stage, err := EdgeChannels(4, 0, 0)
	require.NoError(t, err)
	assert.Nil(t, stage)
}

func TestEdgeChannels_Invalid(t *testing.T) {
	_, err := EdgeChannels(4, -1, 0)
	assert.Error(t, err)

	_, err = EdgeChannels(4, 3, 2)
	assert.Error(t, err)
}
