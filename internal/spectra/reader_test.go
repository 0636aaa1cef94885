package spectra

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/spectra-cube/internal/block"
	"github.com/roman-kulish/spectra-cube/internal/block/blocktest"
	"github.com/roman-kulish/spectra-cube/internal/telemetry"
)

// twoBeams has beam 0 on subbands 100-101 and beam 1 on subbands 102-103,
// recorded out of order, with a corrupt middle block.
var twoBeams = blocktest.File{
	Channels: 4,
	Spectra:  3,
	Subbands: []int32{102, 100, 101, 103},
	Beams:    []int32{1, 0, 0, 1},
	Blocks:   3,
	Corrupt:  []int{1},
}

func openFile(t *testing.T, f blocktest.File, options ...func(*Reader)) *Reader {
	t.Helper()
	r, err := Open(blocktest.Write(t, f), options...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestOpen_CorruptMiddleBlock(t *testing.T) {
	r := openFile(t, twoBeams)

	q := r.Quality()
	assert.Equal(t, 3, q.Blocks)
	assert.Equal(t, 1, q.BadBlocks)
	assert.Equal(t, 2, q.Good())
	assert.Equal(t, []int{0, 1}, r.Beams())

	res, err := r.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	times, freqs, pols := res.Shape()
	assert.Equal(t, 2*3, times)
	assert.Equal(t, 2*4, freqs)
	assert.Equal(t, 1, pols)
	assert.Len(t, res.Data, times*freqs*pols)

	// The time axis jumps over the corrupt block.
	h0, h2 := twoBeams.Header(0), twoBeams.Header(2)
	assert.InDelta(t, h0.StartTime(), res.Time[0], 1e-9)
	assert.InDelta(t, h2.StartTime(), res.Time[3], 1e-9)
}

func TestOpen_TooShort(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.spectra"))
	require.Error(t, err)
	assert.False(t, block.IsFormatError(err))

	f := blocktest.File{}
	h := f.Header(0)
	path := blocktest.Write(t, blocktest.File{})
	require.NoError(t, os.Truncate(path, int64(len(h.MarshalBinary(nil))-1)))

	_, err = Open(path)
	assert.True(t, block.IsFormatError(err), "got %v", err)
}

func TestOpen_DisjointBeam(t *testing.T) {
	_, err := Open(blocktest.Write(t, blocktest.File{
		Subbands: []int32{100, 101, 102},
		Beams:    []int32{0, 1, 0},
	}))
	assert.True(t, block.IsFormatError(err), "got %v", err)
}

func TestReader_Ranges(t *testing.T) {
	r := openFile(t, twoBeams)
	layout := r.Layout()

	start, stop := r.TimeRange()
	h0, h2 := twoBeams.Header(0), twoBeams.Header(2)
	assert.Equal(t, unixTime(h0.StartTime()), start)
	assert.Equal(t, unixTime(h2.StartTime()+3*layout.TimeStep), stop)

	fmin, fmax, ok := r.FrequencyRange(1)
	require.True(t, ok)
	assert.Equal(t, 102*block.SubbandWidth, fmin)
	assert.Equal(t, 104*block.SubbandWidth, fmax)

	_, _, ok = r.FrequencyRange(5)
	assert.False(t, ok)

	c := r.Configuration()
	assert.Equal(t, 0, c.Beam())
	assert.True(t, c.CorrectBandpass())
	fmin, fmax = c.FrequencyRange()
	assert.Equal(t, 100*block.SubbandWidth, fmin)
	assert.Equal(t, 104*block.SubbandWidth, fmax)
}

func TestGet_BeamReadInFull(t *testing.T) {
	r := openFile(t, twoBeams)
	layout := r.Layout()

	id := BeamID(1)
	require.NoError(t, r.Configure(Options{Beam: &id}))

	res, err := r.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Frequency, 2*layout.Channels)
	assert.Equal(t, 102*block.SubbandWidth, res.Frequency[0])
	assert.Equal(t, 103*block.SubbandWidth, res.Frequency[layout.Channels])

	id = 0
	require.NoError(t, r.Configure(Options{Beam: &id}))
	res, err = r.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Frequency, 2*layout.Channels)
	assert.Equal(t, 100*block.SubbandWidth, res.Frequency[0])
}

func TestConfiguration_InvalidBeam(t *testing.T) {
	r := openFile(t, twoBeams)

	err := r.Configuration().SetBeam(7)
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Equal(t, 0, r.Configuration().Beam())

	id := BeamID(7)
	edges := EdgeChannels{Lower: 1, Upper: 1}
	err = r.Configure(Options{EdgeChannels: &edges, Beam: &id})
	assert.True(t, IsConfigurationError(err))
	lower, upper := r.Configuration().EdgeChannels()
	assert.Zero(t, lower+upper, "configuration is unchanged on error")
}

func TestConfiguration_Setters(t *testing.T) {
	r := openFile(t, twoBeams)
	c := r.Configuration()
	now := time.Now()

	assert.True(t, IsConfigurationError(c.SetTimeRange(now, now)))
	assert.True(t, IsConfigurationError(c.SetTimeRange(now, now.Add(-time.Second))))
	assert.True(t, IsConfigurationError(c.SetFrequencyRange(2, 1)))
	assert.True(t, IsConfigurationError(c.SetFrequencyRange(math.NaN(), 1)))
	assert.True(t, IsConfigurationError(c.SetEdgeChannels(-1, 0)))
	assert.True(t, IsConfigurationError(c.SetEdgeChannels(3, 2)))
	assert.True(t, IsConfigurationError(c.SetRebinDT(-time.Second)))
	assert.True(t, IsConfigurationError(c.SetRebinDT(time.Nanosecond)))
	assert.True(t, IsConfigurationError(c.SetRebinDF(1)))

	require.NoError(t, c.SetRebinDT(time.Second))
	assert.Equal(t, time.Second, c.RebinDT())
	require.NoError(t, c.SetRebinDT(0))
	assert.Zero(t, c.RebinDT())

	require.NoError(t, c.SetRebinDF(3*r.Layout().FrequencyStep))
	assert.Equal(t, 3*r.Layout().FrequencyStep, c.RebinDF())

	require.NoError(t, c.SetEdgeChannels(1, 3))
	lower, upper := c.EdgeChannels()
	assert.Equal(t, []int{1, 3}, []int{lower, upper})
}

func TestGet_OutsideObservation(t *testing.T) {
	r := openFile(t, twoBeams)

	_, stop := r.TimeRange()
	require.NoError(t, r.Configuration().SetTimeRange(stop.Add(time.Hour), stop.Add(2*time.Hour)))

	res, err := r.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Empty())
	require.Len(t, res.Warnings, 1)
	assert.True(t, errors.Is(res.Warnings[0], ErrEmptySelection))

	start, _ := r.TimeRange()
	require.NoError(t, r.Configuration().SetTimeRange(start.Add(-2*time.Hour), start.Add(-time.Hour)))
	res, err = r.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestGet_FrequencyAxisRoundTrip(t *testing.T) {
	r := openFile(t, twoBeams)
	layout := r.Layout()

	id := BeamID(1)
	require.NoError(t, r.Configure(Options{Beam: &id}))
	fmin, fmax, _ := r.FrequencyRange(1)
	require.NoError(t, r.Configuration().SetFrequencyRange(fmin, fmax))

	res, err := r.Get(context.Background())
	require.NoError(t, err)

	var want []float64
	for _, sb := range []int{102, 103} {
		for c := range layout.Channels {
			want = append(want, float64(sb)*block.SubbandWidth+float64(c)*layout.FrequencyStep)
		}
	}
	assert.InDeltaSlice(t, want, res.Frequency, layout.FrequencyStep)
}

func TestGet_SubbandSelection(t *testing.T) {
	r := openFile(t, twoBeams)
	require.NoError(t, r.Configuration().SetFrequencyRange(101*block.SubbandWidth, 101.5*block.SubbandWidth))

	res, err := r.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Frequency, 4)
	assert.Equal(t, 101*block.SubbandWidth, res.Frequency[0])
}

func TestGet_Products(t *testing.T) {
	r := openFile(t, twoBeams)
	r.Configuration().SetCorrectBandpass(false)

	res, err := r.Get(context.Background(), "I", "v", "XX")
	require.NoError(t, err)
	assert.Equal(t, []string{"I", "V", "XX"}, res.Polarizations)

	// Subband 100 is record 1, so YY is 2; block 2 has XX 3; V is twice the spectrum index.
	assert.Equal(t, float32(3+2), res.At(4, 0, 0))
	assert.Equal(t, float32(2*1), res.At(4, 0, 1))
	assert.Equal(t, float32(3), res.At(4, 0, 2))

	_, err = r.Get(context.Background(), "W")
	assert.True(t, IsConfigurationError(err))
}

func TestGet_RebinByOne(t *testing.T) {
	r := openFile(t, twoBeams)
	layout := r.Layout()

	want, err := r.Get(context.Background(), "I", "Q")
	require.NoError(t, err)

	dt := time.Duration(math.Round(layout.TimeStep * 1e9))
	require.NoError(t, r.Configuration().SetRebinDT(dt))
	require.NoError(t, r.Configuration().SetRebinDF(layout.FrequencyStep))

	got, err := r.Get(context.Background(), "I", "Q")
	require.NoError(t, err)

	assert.Zero(t, got.TimeLeftover)
	assert.Zero(t, got.FrequencyLeftover)
	assert.InDeltaSlice(t, want.Time, got.Time, 1e-9)
	assert.InDeltaSlice(t, want.Frequency, got.Frequency, 1e-6)
	assert.InDeltaSlice(t, want.Data, got.Data, 1e-6)
}

func TestGet_RebinLeftover(t *testing.T) {
	f := blocktest.File{Channels: 4, Spectra: 3, Subbands: []int32{100, 101}, Blocks: 3}
	r := openFile(t, f)
	layout := r.Layout()
	r.Configuration().SetCorrectBandpass(false)

	dt := time.Duration(math.Round(2 * layout.TimeStep * 1e9))
	require.NoError(t, r.Configuration().SetRebinDT(dt))
	require.NoError(t, r.Configuration().SetRebinDF(3*layout.FrequencyStep))

	res, err := r.Get(context.Background())
	require.NoError(t, err)

	// 9 spectra in bins of 2 leave one over; 8 channels in bins of 3 make 2 bins of 4.
	times, freqs, _ := res.Shape()
	assert.Equal(t, 4, times)
	assert.Equal(t, 1, res.TimeLeftover)
	assert.Equal(t, 2, freqs)
	assert.Zero(t, res.FrequencyLeftover)
	assert.Len(t, res.Data, 4*2)

	// Bin 1 holds spectrum 2 of block 0 and spectrum 0 of block 1.
	assert.InDelta(t, (1+1+2+1)/2.0, res.At(1, 0, 0), 1e-6)
	assert.InDelta(t, res.Time[1], (res.Time[0]+res.Time[2])/2, 1e-5)
}

func TestGet_EdgeChannels(t *testing.T) {
	r := openFile(t, twoBeams)
	require.NoError(t, r.Configuration().SetEdgeChannels(1, 1))

	res, err := r.Get(context.Background())
	require.NoError(t, err)

	channels := r.Layout().Channels
	_, freqs, _ := res.Shape()
	for sb := 0; sb < freqs/channels; sb++ {
		var invalid int
		for c := range channels {
			if math.IsNaN(float64(res.At(0, sb*channels+c, 0))) {
				invalid++
			}
		}
		assert.Equal(t, 2, invalid, "subband %d", sb)
	}
}

type countingRecorder struct {
	telemetry.Nop

	mu       sync.Mutex
	chunks   int
	outcomes []telemetry.Outcome
}

func (c *countingRecorder) ChunkProcessed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chunks++
}

func (c *countingRecorder) QueryCompleted(o telemetry.Outcome, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, o)
}

func TestGet_ProgressAndRecorder(t *testing.T) {
	rec := &countingRecorder{}
	var last, total int
	r := openFile(t, twoBeams,
		WithRecorder(rec),
		WithWorkers(1),
		WithProgress(func(done, n int) { last, total = done, n }))

	_, err := r.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, last)
	assert.Equal(t, 2, total)
	assert.Equal(t, 2, rec.chunks)

	_, err = r.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, []telemetry.Outcome{telemetry.OutcomeOK}, rec.outcomes, "parse errors fail before the query starts")
}

func TestGet_Cancelled(t *testing.T) {
	r := openFile(t, twoBeams)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Get(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGet_AfterClose(t *testing.T) {
	r := openFile(t, twoBeams)
	require.NoError(t, r.Close())

	res, err := r.Get(context.Background())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, block.ErrClosed)
}
