package beam

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	idx, err := Build([]int{0, 0, 0, 0, 3, 3, 1, 1, 1})
	require.NoError(t, err)

	assert.Equal(t, Index{
		0: {0, 3},
		3: {4, 5},
		1: {6, 8},
	}, idx)
	assert.Equal(t, []int{0, 1, 3}, idx.Beams())

	r, ok := idx.Lookup(3)
	require.True(t, ok)
	assert.Equal(t, 2, r.Len())

	_, ok = idx.Lookup(2)
	assert.False(t, ok)
}

func TestBuild_SingleBeam(t *testing.T) {
	idx, err := Build([]int{5, 5, 5})
	require.NoError(t, err)
	assert.Equal(t, Index{5: {0, 2}}, idx)
}

func TestBuild_Empty(t *testing.T) {
	idx, err := Build(nil)
	require.NoError(t, err)
	assert.Empty(t, idx)
}

func TestBuild_Disjoint(t *testing.T) {
	_, err := Build([]int{0, 0, 1, 1, 0})

	var de *DisjointError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 0, de.Beam)
	assert.Equal(t, Range{0, 1}, de.First)
	assert.Equal(t, Range{4, 4}, de.Second)
}
