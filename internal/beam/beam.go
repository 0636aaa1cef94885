// Package beam maps beam identifiers to the frequency range they occupy.
package beam

import (
	"fmt"
	"slices"
)

// Range is an inclusive range of frequency indices.
type Range struct {
	Start int
	Stop  int
}

// Len returns the number of frequency indices in the range.
func (r Range) Len() int {
	return r.Stop - r.Start + 1
}

// Index maps each beam to its frequency range.
type Index map[int]Range

// Build groups contiguous runs of identical beam ids found along the
// frequency axis. Every beam must occupy exactly one run.
func Build(ids []int) (Index, error) {
	idx := make(Index)
	for start := 0; start < len(ids); {
		id := ids[start]
		stop := start
		for stop+1 < len(ids) && ids[stop+1] == id {
			stop++
		}

		if prev, ok := idx[id]; ok {
			return nil, &DisjointError{Beam: id, First: prev, Second: Range{start, stop}}
		}
		idx[id] = Range{Start: start, Stop: stop}
		start = stop + 1
	}
	return idx, nil
}

// Beams returns the beam ids in ascending order.
func (idx Index) Beams() []int {
	beams := make([]int, 0, len(idx))
	for id := range idx {
		beams = append(beams, id)
	}
	slices.Sort(beams)
	return beams
}

// Lookup returns the range of beam id.
func (idx Index) Lookup(id int) (Range, bool) {
	r, ok := idx[id]
	return r, ok
}

// DisjointError is returned when a beam occupies more than one frequency run.
type DisjointError struct {
	Beam   int
	First  Range
	Second Range
}

func (e *DisjointError) Error() string {
	return fmt.Sprintf("beam %d occupies disjoint frequency ranges [%d, %d] and [%d, %d]",
		e.Beam, e.First.Start, e.First.Stop, e.Second.Start, e.Second.Stop)
}
