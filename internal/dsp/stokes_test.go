package dsp

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/spectra-cube/internal/cube"
)

func TestParseProducts(t *testing.T) {
	ps, err := ParseProducts()
	require.NoError(t, err)
	assert.Equal(t, []Product{StokesI}, ps)

	ps, err = ParseProducts("i", " v ", "q/i", "xx")
	require.NoError(t, err)
	assert.Equal(t, []Product{StokesI, StokesV, FractionQ, PolXX}, ps)

	_, err = ParseProducts("I", "W")
	var upe *UnknownProductError
	require.True(t, errors.As(err, &upe))
	assert.Equal(t, "W", upe.Name)
}

func TestReducer(t *testing.T) {
	ps := []Product{StokesI, StokesQ, StokesU, StokesV, Linear, PolXX, PolYY, FractionQ, FractionU, FractionV}
	m := cube.Coherency(5, 3, 1.5, -0.5)

	dst := make([]float32, len(ps))
	Reducer(ps)(&m, dst)

	want := []float32{8, 2, 3, -1, float32(math.Sqrt(13)), 5, 3, 0.25, 0.375, -0.125}
	assert.InDeltaSlice(t, want, dst, 1e-6)
}

func TestReducer_PropagatesNaN(t *testing.T) {
	nan := float32(math.NaN())
	m := cube.Coherency(nan, nan, nan, nan)

	dst := make([]float32, 1)
	Reducer([]Product{StokesI})(&m, dst)
	assert.True(t, math.IsNaN(float64(dst[0])))
}
