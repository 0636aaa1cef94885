package block

// BadBlocks flags the blocks whose data cannot be used. A block is bad when
// its first sample index is 0 anywhere but at the very first block, since the
// time ramp cannot be reconstructed, or when the receiver reported lost
// packets through a negative subband count.
func BadBlocks(headers []Header) (mask []bool, bad int) {
	mask = make([]bool, len(headers))
	for i, h := range headers {
		lostStart := h.Idx == 0 && i != 0
		if lostStart || h.Corrupt() {
			mask[i] = true
			bad++
		}
	}
	return mask, bad
}

// GoodIndices returns the positions of the blocks not flagged in mask, in order.
func GoodIndices(mask []bool) []int {
	indices := make([]int, 0, len(mask))
	for i, bad := range mask {
		if !bad {
			indices = append(indices, i)
		}
	}
	return indices
}
