package dropper

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBernoulliEdges(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	never := New(0, rng)
	always := New(1, rng)
	for i := 0; i < 100; i++ {
		require.False(t, never.Drop())
		require.True(t, always.Drop())
	}
}

func TestBernoulliRate(t *testing.T) {
	b := New(0.3, rand.New(rand.NewSource(7)))
	hits := 0
	const n = 20000
	for i := 0; i < n; i++ {
		if b.Drop() {
			hits++
		}
	}
	require.InDelta(t, 0.3, float64(hits)/n, 0.02)
}

func TestIDSEvents(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	require.Equal(t, Transmit, NewIDS(0, 0, rng).Next())
	require.Equal(t, Insert, NewIDS(1, 0, rng).Next())
	require.Equal(t, Delete, NewIDS(0, 1, rng).Next())

	counts := map[Event]int{}
	d := NewIDS(0.1, 0.2, rng)
	const n = 20000
	for i := 0; i < n; i++ {
		counts[d.Next()]++
	}
	require.InDelta(t, 0.1, float64(counts[Insert])/n, 0.015)
	// deletion only fires when no insertion happened
	require.InDelta(t, 0.9*0.2, float64(counts[Delete])/n, 0.015)
	require.Equal(t, "insert", Insert.String())
}
