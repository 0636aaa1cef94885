package cube

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rampSource writes chunk*100+t as XX and the absolute frequency as YY.
type rampSource struct{}

func (rampSource) Fill(chunk int, times, freqs Span, dst []Matrix) {
	i := 0
	for t := times.Start; t < times.Stop; t++ {
		for f := freqs.Start; f < freqs.Stop; f++ {
			dst[i] = Coherency(float32(chunk*100+t), float32(f), 0, 0)
			i++
		}
	}
}

func autoPowers(m *Matrix, dst []float32) {
	dst[0] = m.XX()
	dst[1] = m.YY()
}

func newRamp(chunks, times, freqs int) *Cube {
	chunkTimes := make([]int, chunks)
	for i := range chunkTimes {
		chunkTimes[i] = times
	}
	return New(rampSource{}, chunkTimes, freqs)
}

func TestCoherency(t *testing.T) {
	m := Coherency(4, 9, 1, -2)
	assert.Equal(t, float32(4), m.XX())
	assert.Equal(t, float32(9), m.YY())
	assert.Equal(t, complex64(complex(1, -2)), m.XY())
	assert.Equal(t, complex64(complex(1, 2)), m[2], "YX* is the conjugate of XY*")
}

func TestCube_Select(t *testing.T) {
	c := newRamp(3, 3, 8)

	sel := c.Select(Span{2, 7}, Span{2, 6})
	times, freqs := sel.Shape()
	assert.Equal(t, 5, times)
	assert.Equal(t, 4, freqs)
	assert.Equal(t, 3, sel.Chunks())

	d, err := sel.Reduce(2, autoPowers).Compute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float32(2), d.At(0, 0, 0))   // chunk 0, t 2
	assert.Equal(t, float32(100), d.At(1, 0, 0)) // chunk 1, t 0
	assert.Equal(t, float32(200), d.At(4, 3, 0)) // chunk 2, t 0
	assert.Equal(t, float32(5), d.At(4, 3, 1))   // absolute frequency 5

	// Selections compose relative to the view.
	inner := sel.Select(Span{1, 2}, Span{1, 2})
	d, err = inner.Reduce(2, autoPowers).Compute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float32{100, 3}, d.Data)
}

func TestCube_SelectOutside(t *testing.T) {
	c := newRamp(2, 3, 4).Select(Span{10, 12}, Span{0, 4})
	times, _ := c.Shape()
	assert.Zero(t, times)
	assert.Zero(t, c.Chunks())
}

func TestCube_MapKeepsParentUntouched(t *testing.T) {
	c := newRamp(1, 2, 2)
	doubled := c.Map(func(s *Slab) {
		for i := range s.Data {
			s.Data[i].Scale(2)
		}
	})

	d, err := c.Reduce(2, autoPowers).Compute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float32(1), d.At(1, 0, 0))

	d, err = doubled.Reduce(2, autoPowers).Compute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float32(2), d.At(1, 0, 0))
}

func TestReduced_RebinByOneIsIdentity(t *testing.T) {
	r := newRamp(3, 4, 5).Reduce(2, autoPowers)

	want, err := r.Compute(context.Background())
	require.NoError(t, err)

	got, err := r.RebinTime(1).RebinFrequency(1).Compute(context.Background(), WithWorkers(2))
	require.NoError(t, err)

	assert.Equal(t, want.Times, got.Times)
	assert.Equal(t, want.Freqs, got.Freqs)
	assert.InDeltaSlice(t, want.Data, got.Data, 1e-6)
	assert.Zero(t, got.TimeLeftover)
	assert.Zero(t, got.FrequencyLeftover)
}

func TestReduced_RebinTimeAcrossChunks(t *testing.T) {
	d, err := newRamp(3, 3, 1).Reduce(2, autoPowers).RebinTime(2).Compute(context.Background())
	require.NoError(t, err)

	// Rows are 0 1 2 | 100 101 102 | 200 201 202; the last one is left over.
	require.Equal(t, 4, d.Times)
	assert.Equal(t, 1, d.TimeLeftover)
	assert.Equal(t, []float32{0.5, 51, 101.5, 200.5}, []float32{
		d.At(0, 0, 0), d.At(1, 0, 0), d.At(2, 0, 0), d.At(3, 0, 0),
	})
}

func TestReduced_RebinExcludesNaN(t *testing.T) {
	c := newRamp(1, 4, 4).Map(func(s *Slab) {
		nan := float32(math.NaN())
		*s.At(0, 0) = Coherency(nan, nan, nan, nan)
	})

	d, err := c.Reduce(2, autoPowers).RebinTime(2).RebinFrequency(2).Compute(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, d.Times)
	require.Equal(t, 2, d.Freqs)
	// Time first: XX is 1 at frequency 0 (row 0 is NaN) and 0.5 at frequency 1,
	// then both are averaged.
	assert.InDelta(t, 0.75, d.At(0, 0, 0), 1e-6)
	assert.InDelta(t, 0.5, d.At(0, 0, 1), 1e-6)
	assert.InDelta(t, 2.5, d.At(1, 1, 0), 1e-6)
}

func TestReduced_RebinAllNaN(t *testing.T) {
	c := newRamp(1, 2, 1).Map(func(s *Slab) {
		for i := range s.Data {
			s.Data[i][0] = complex(float32(math.NaN()), 0)
		}
	})
	d, err := c.Reduce(2, autoPowers).RebinTime(2).Compute(context.Background())
	require.NoError(t, err)
	assert.True(t, math.IsNaN(float64(d.At(0, 0, 0))))
}

func TestReduced_Progress(t *testing.T) {
	var calls []int
	_, err := newRamp(4, 2, 2).Reduce(2, autoPowers).Compute(context.Background(),
		WithProgress(func(done, total int) {
			assert.Equal(t, 4, total)
			calls = append(calls, done)
		}))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, calls)
}

func TestReduced_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newRamp(4, 2, 2).Reduce(2, autoPowers).Compute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewBinning(t *testing.T) {
	tests := []struct {
		n, width int
		want     Binning
	}{
		{10, 1, Binning{Bins: 10, Per: 1}},
		{10, 3, Binning{Bins: 3, Per: 3, Leftover: 1}},
		{10, 4, Binning{Bins: 2, Per: 5}},
		{2, 5, Binning{Bins: 1, Per: 2}},
		{7, 0, Binning{Bins: 7, Per: 1}},
	}
	for _, tt := range tests {
		got := NewBinning(tt.n, tt.width)
		assert.Equal(t, tt.want, got, "n=%d width=%d", tt.n, tt.width)
		assert.Equal(t, tt.n-got.Bins*(tt.n/got.Bins), got.Leftover)
	}
}

func TestRebinAxis(t *testing.T) {
	axis, leftover := RebinAxis([]float64{0, 1, 2, 3, 4}, 2)
	assert.Equal(t, []float64{0.5, 2.5}, axis)
	assert.Equal(t, 1, leftover)
}
