package cube

import (
	"context"
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ReduceFunc converts one coherency matrix into len(dst) values.
type ReduceFunc func(m *Matrix, dst []float32)

// Reduced is a lazy (time, frequency, depth) view of real values, optionally
// averaged along time and frequency.
type Reduced struct {
	cube  *Cube
	depth int
	fn    ReduceFunc

	timeWidth int // samples per time bin, 0 disables
	freqWidth int // samples per frequency bin, 0 disables
}

// Reduce maps every matrix of the cube to depth values using fn.
func (c *Cube) Reduce(depth int, fn ReduceFunc) *Reduced {
	return &Reduced{cube: c, depth: depth, fn: fn}
}

// RebinTime averages width consecutive time samples. See NewBinning.
func (r *Reduced) RebinTime(width int) *Reduced {
	out := *r
	out.timeWidth = max(width, 1)
	return &out
}

// RebinFrequency averages width consecutive frequency samples. Frequency
// averaging runs after time averaging.
func (r *Reduced) RebinFrequency(width int) *Reduced {
	out := *r
	out.freqWidth = max(width, 1)
	return &out
}

// Dense is a materialized (time, frequency, depth) array.
type Dense struct {
	Times int
	Freqs int
	Depth int
	Data  []float32

	TimeLeftover      int // trailing time samples dropped by averaging
	FrequencyLeftover int // trailing frequency samples dropped by averaging
}

// At returns the value at time t, frequency f and depth d.
func (d *Dense) At(t, f, p int) float32 {
	return d.Data[(t*d.Freqs+f)*d.Depth+p]
}

type computeOptions struct {
	workers  int
	progress func(done, total int)
}

// ComputeOption configures Compute.
type ComputeOption func(*computeOptions)

// WithWorkers limits the number of chunks evaluated concurrently.
func WithWorkers(n int) ComputeOption {
	return func(o *computeOptions) {
		o.workers = max(n, 1)
	}
}

// WithProgress registers fn to be called after every evaluated chunk. Calls
// are serialized.
func WithProgress(fn func(done, total int)) ComputeOption {
	return func(o *computeOptions) {
		o.progress = fn
	}
}

// Compute evaluates the view. Chunks are processed concurrently; the result
// does not depend on the order in which they complete.
func (r *Reduced) Compute(ctx context.Context, opts ...ComputeOption) (*Dense, error) {
	o := computeOptions{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}

	times, freqs := r.cube.Shape()
	tb := Binning{Bins: times, Per: 1}
	if r.timeWidth > 0 {
		tb = NewBinning(times, r.timeWidth)
	}

	rowSize := freqs * r.depth
	offsets := make([]int, r.cube.Chunks())
	var off int
	for i, ch := range r.cube.chunks {
		offsets[i] = off
		off += ch.times.Len()
	}

	var (
		data     []float32
		partials []*partial
	)
	if r.timeWidth > 0 {
		partials = make([]*partial, len(offsets))
	} else {
		data = make([]float32, times*rowSize)
	}

	var (
		mu   sync.Mutex
		done int
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i := range offsets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			slab := r.cube.load(i)
			values := make([]float32, slab.Times*rowSize)
			if partials == nil {
				values = data[offsets[i]*rowSize : (offsets[i]+slab.Times)*rowSize]
			}
			for j := range slab.Data {
				r.fn(&slab.Data[j], values[j*r.depth:(j+1)*r.depth])
			}
			if partials != nil {
				partials[i] = accumulate(values, offsets[i], slab.Times, rowSize, tb)
			}

			if o.progress != nil {
				mu.Lock()
				done++
				o.progress(done, len(offsets))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := &Dense{Times: times, Freqs: freqs, Depth: r.depth, Data: data}
	if partials != nil {
		d.Times = tb.Bins
		d.Data = merge(partials, tb.Bins, rowSize)
		d.TimeLeftover = tb.Leftover
	}
	if r.freqWidth > 0 {
		rebinFrequency(d, r.freqWidth)
	}
	return d, nil
}

// partial holds the NaN-excluding sums of the time bins touched by one chunk.
type partial struct {
	first  int // first bin
	sums   []float64
	counts []int32
}

func accumulate(values []float32, off, rows, rowSize int, tb Binning) *partial {
	used := tb.Used()
	if off >= used || rows == 0 {
		return nil
	}
	last := min(off+rows, used) - 1

	p := &partial{first: off / tb.Per}
	n := (last/tb.Per - p.first + 1) * rowSize
	p.sums = make([]float64, n)
	p.counts = make([]int32, n)

	for row := off; row <= last; row++ {
		src := values[(row-off)*rowSize : (row-off+1)*rowSize]
		dst := (row/tb.Per - p.first) * rowSize
		for k, v := range src {
			if math.IsNaN(float64(v)) {
				continue
			}
			p.sums[dst+k] += float64(v)
			p.counts[dst+k]++
		}
	}
	return p
}

// merge adds partial sums in chunk order.
func merge(partials []*partial, bins, rowSize int) []float32 {
	sums := make([]float64, bins*rowSize)
	counts := make([]int32, bins*rowSize)
	for _, p := range partials {
		if p == nil {
			continue
		}
		base := p.first * rowSize
		for k := range p.sums {
			sums[base+k] += p.sums[k]
			counts[base+k] += p.counts[k]
		}
	}

	out := make([]float32, len(sums))
	for k := range out {
		if counts[k] == 0 {
			out[k] = float32(math.NaN())
			continue
		}
		out[k] = float32(sums[k] / float64(counts[k]))
	}
	return out
}

func rebinFrequency(d *Dense, width int) {
	fb := NewBinning(d.Freqs, width)
	out := make([]float32, d.Times*fb.Bins*d.Depth)

	for t := range d.Times {
		for b := range fb.Bins {
			for p := range d.Depth {
				var (
					sum float64
					n   int
				)
				for f := b * fb.Per; f < (b+1)*fb.Per; f++ {
					v := d.At(t, f, p)
					if math.IsNaN(float64(v)) {
						continue
					}
					sum += float64(v)
					n++
				}
				v := float32(math.NaN())
				if n > 0 {
					v = float32(sum / float64(n))
				}
				out[(t*fb.Bins+b)*d.Depth+p] = v
			}
		}
	}

	d.Freqs = fb.Bins
	d.Data = out
	d.FrequencyLeftover = fb.Leftover
}
