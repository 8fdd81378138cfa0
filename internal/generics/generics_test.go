package generics

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortedKeys(t *testing.T) {
	m := map[string]int{"sarsa": 1, "esarsa": 5, "qlearning": 3}
	// Since the builtin map iterator in Go is deliberately non-deterministic, we
	// run it a bunch of times to show it is stably sorted.
	want := []string{"esarsa", "qlearning", "sarsa"}
	for range 100 {
		got := slices.Collect(SortedKeys(m))
		if !slices.Equal(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestSliceMap(t *testing.T) {
	got := SliceMap([]int{1, 2, 3}, func(e int) float64 { return float64(e) / 2 })
	assert.Equal(t, []float64{0.5, 1, 1.5}, got)
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean([]float64(nil)))
	assert.InDelta(t, 2.0, Mean([]int{1, 2, 3}), 1e-9)
	assert.InDelta(t, -0.25, Mean([]float64{0.5, -1}), 1e-9)
}

func TestSet(t *testing.T) {
	// Sets are created empty.
	s := MakeSet[int](10)
	assert.Len(t, s, 0)

	// Check inserting and recovery.
	s.Insert(3, 7)
	assert.Len(t, s, 2)
	assert.True(t, s.Has(3))
	assert.True(t, s.Has(7))
	assert.False(t, s.Has(5))

	s2 := SetWith(5, 7)
	assert.Len(t, s2, 2)
	assert.True(t, s2.Has(5))
	assert.True(t, s2.Has(7))

	s3 := s.Sub(s2)
	assert.Len(t, s3, 1)
	assert.True(t, s3.Has(3))

	assert.True(t, s3.IsSubsetOf(s))
	assert.False(t, s.IsSubsetOf(s2))
	assert.True(t, MakeSet[int]().IsSubsetOf(s2))
}
