// Package cube assembles block files into a lazy (time, frequency, 2, 2) cube
// of coherency matrices and evaluates it chunk by chunk, one chunk per block.
package cube

// Span is a half-open range of indices.
type Span struct {
	Start int
	Stop  int
}

// Len returns the number of indices in the span, never negative.
func (s Span) Len() int {
	return max(s.Stop-s.Start, 0)
}

func (s Span) intersect(o Span) Span {
	r := Span{Start: max(s.Start, o.Start), Stop: min(s.Stop, o.Stop)}
	if r.Stop < r.Start {
		r.Stop = r.Start
	}
	return r
}

// Source loads chunk data on demand. Fill writes the matrices of the given
// chunk-local time span and absolute frequency span into dst, row-major by
// time.
type Source interface {
	Fill(chunk int, times, freqs Span, dst []Matrix)
}

// Slab is one materialized chunk handed to the stages of a cube.
type Slab struct {
	FreqStart int // absolute frequency index of the first column
	Times     int
	Freqs     int
	Data      []Matrix
}

// At returns the matrix at row t, column f.
func (s *Slab) At(t, f int) *Matrix {
	return &s.Data[t*s.Freqs+f]
}

// Stage transforms a slab in place.
type Stage func(*Slab)

type chunk struct {
	src   int  // chunk index in the source
	times Span // chunk-local rows in view
}

// Cube is an immutable lazy view. Select and Map return new views sharing the
// same source; nothing is read until the cube is reduced and computed.
type Cube struct {
	src    Source
	chunks []chunk
	freqs  Span
	stages []Stage
}

// New creates a cube over src. chunkTimes holds the number of time samples in
// each source chunk, frequencies the size of the frequency axis.
func New(src Source, chunkTimes []int, frequencies int) *Cube {
	chunks := make([]chunk, len(chunkTimes))
	for i, n := range chunkTimes {
		chunks[i] = chunk{src: i, times: Span{0, n}}
	}
	return &Cube{
		src:    src,
		chunks: chunks,
		freqs:  Span{0, frequencies},
	}
}

// Shape returns the length of the time and frequency axes.
func (c *Cube) Shape() (times, freqs int) {
	for _, ch := range c.chunks {
		times += ch.times.Len()
	}
	return times, c.freqs.Len()
}

// Chunks returns the number of chunks in the view.
func (c *Cube) Chunks() int {
	return len(c.chunks)
}

// Select narrows the view to the given time and frequency spans, both relative
// to the current view. Spans are clipped to the view bounds.
func (c *Cube) Select(times, freqs Span) *Cube {
	out := &Cube{
		src:    c.src,
		stages: c.stages,
		freqs: Span{
			Start: c.freqs.Start + freqs.Start,
			Stop:  c.freqs.Start + freqs.Stop,
		}.intersect(c.freqs),
	}

	var off int
	for _, ch := range c.chunks {
		n := ch.times.Len()
		local := Span{times.Start - off, times.Stop - off}.intersect(Span{0, n})
		off += n
		if local.Len() == 0 {
			continue
		}
		out.chunks = append(out.chunks, chunk{
			src:   ch.src,
			times: Span{ch.times.Start + local.Start, ch.times.Start + local.Stop},
		})
	}
	return out
}

// Map returns a view that applies stage to every chunk after the stages
// already registered.
func (c *Cube) Map(stage Stage) *Cube {
	out := *c
	out.stages = append(c.stages[:len(c.stages):len(c.stages)], stage)
	return &out
}

// load materializes chunk i of the view and runs the stages over it.
func (c *Cube) load(i int) *Slab {
	ch := c.chunks[i]
	s := &Slab{
		FreqStart: c.freqs.Start,
		Times:     ch.times.Len(),
		Freqs:     c.freqs.Len(),
	}
	s.Data = make([]Matrix, s.Times*s.Freqs)
	c.src.Fill(ch.src, ch.times, c.freqs, s.Data)

	for _, stage := range c.stages {
		stage(s)
	}
	return s
}
