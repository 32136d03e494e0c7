package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildHistogram(t *testing.T) {
	vals := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	h := BuildHistogram("v", vals, 10)
	assert.Equal(t, "v", h.Column)
	assert.InDelta(t, 1.0, h.Width, eps)
	assert.Equal(t, []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 2}, h.Counts)
	assert.InDelta(t, 0.0, h.BinEdges[0], eps)
	assert.InDelta(t, 9.0, h.BinEdges[9], eps)
	assert.Equal(t, len(vals), h.Total())
}

func TestBuildHistogram_Constant(t *testing.T) {
	h := BuildHistogram("c", []float64{5, 5, 5}, 10)
	assert.Zero(t, h.Width)
	assert.Equal(t, 3, h.Counts[0])
	assert.Equal(t, 3, h.Total())
	for _, e := range h.BinEdges {
		assert.Equal(t, 5.0, e)
	}
}

func TestBuildHistogram_SumMatchesInput(t *testing.T) {
	vals := []float64{-3.2, 0.1, 7, 7, 2.5, 19.99, -3.2, 11}
	for _, bins := range []int{1, 3, 10, 25} {
		h := BuildHistogram("x", vals, bins)
		assert.Len(t, h.Counts, bins)
		assert.Equal(t, len(vals), h.Total())
	}
}

func TestBuildHistogram_Empty(t *testing.T) {
	h := BuildHistogram("e", nil, 10)
	assert.Zero(t, h.Total())
	assert.Len(t, h.Counts, 10)
}
