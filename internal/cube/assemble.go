package cube

import (
	"cmp"
	"slices"

	"github.com/roman-kulish/spectra-cube/internal/block"
)

// Assembly is the cube built over the valid blocks of a file together with
// the per-file axes needed to index it.
type Assembly struct {
	Cube   *Cube
	Layout block.Layout

	Starts   []float64 // unix start time of every chunk, in file order
	Subbands []int     // subband index at each subband position, ascending
	Beams    []int     // beam id at each frequency index
}

// Assemble builds the cube over the blocks of s not flagged in bad. Subbands
// are ordered by ascending subband index as recorded in the first block, and
// the same order is applied to every block.
func Assemble(s *block.Store, bad []bool) *Assembly {
	layout := s.Layout()

	order := make([]int, layout.Subbands)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(s.Record(0, a).Channel(), s.Record(0, b).Channel())
	})

	subbands := make([]int, layout.Subbands)
	beams := make([]int, layout.Frequencies())
	for pos, rec := range order {
		r := s.Record(0, rec)
		subbands[pos] = int(r.Channel())
		for c := range layout.Channels {
			beams[pos*layout.Channels+c] = int(r.Beam())
		}
	}

	blocks := block.GoodIndices(bad)
	starts := make([]float64, len(blocks))
	chunkTimes := make([]int, len(blocks))
	for i, b := range blocks {
		h := s.Header(b)
		starts[i] = h.StartTime()
		chunkTimes[i] = layout.SamplesPerBlock
	}

	src := &blockSource{store: s, blocks: blocks, order: order, channels: layout.Channels}
	return &Assembly{
		Cube:     New(src, chunkTimes, layout.Frequencies()),
		Layout:   layout,
		Starts:   starts,
		Subbands: subbands,
		Beams:    beams,
	}
}

type blockSource struct {
	store    *block.Store
	blocks   []int // valid block for every chunk
	order    []int // record index at each subband position
	channels int
}

func (b *blockSource) Fill(chunk int, times, freqs Span, dst []Matrix) {
	blk := b.blocks[chunk]
	width := freqs.Len()

	for f := freqs.Start; f < freqs.Stop; {
		pos := f / b.channels
		c0 := f % b.channels
		c1 := min(b.channels, c0+freqs.Stop-f)
		col := f - freqs.Start

		rec := b.store.Record(blk, b.order[pos])
		for t := times.Start; t < times.Stop; t++ {
			row := dst[(t-times.Start)*width+col:]
			for c := c0; c < c1; c++ {
				xx, yy := rec.FFT0(t, c)
				re, im := rec.FFT1(t, c)
				row[c-c0] = Coherency(xx, yy, re, im)
			}
		}
		f += c1 - c0
	}
}
