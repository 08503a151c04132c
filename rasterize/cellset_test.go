package rasterize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meridian-air/oirindex/morton"
)

func TestCellSet_AddHas(t *testing.T) {
	t.Parallel()
	cs := make(CellSet)
	a := morton.Code{1, 0, 0, 0}
	b := morton.Code{2, 0, 0, 0}

	assert.False(t, cs.Has(a))
	cs.Add(a)
	assert.True(t, cs.Has(a))
	assert.False(t, cs.Has(b))
}

func TestCellSet_SliceIsSortedAndDeterministic(t *testing.T) {
	t.Parallel()
	cs := make(CellSet)
	codes := []morton.Code{
		{5, 0, 0, 0},
		{1, 0, 0, 1},
		{9, 9, 0, 0},
		{1, 0, 0, 0},
	}
	for _, c := range codes {
		cs.Add(c)
	}

	first := cs.Slice()
	second := cs.Slice()
	assert.Equal(t, first, second, "Slice must be deterministic across calls")

	for i := 1; i < len(first); i++ {
		assert.True(t, codeLess(first[i-1], first[i]) || first[i-1] == first[i])
	}
}

func TestCellSet_SliceEmpty(t *testing.T) {
	t.Parallel()
	cs := make(CellSet)
	assert.Empty(t, cs.Slice())
}
