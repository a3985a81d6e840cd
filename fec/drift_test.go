package fec

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionRowsAreDistributions(t *testing.T) {
	for D := 0; D <= 4; D++ {
		m, err := BuildTransitionMatrix(D, 0.1, 0.2)
		require.NoError(t, err)
		require.Equal(t, 2*D+1, m.Size())
		for d := -D; d <= D; d++ {
			sum := 0.0
			for _, p := range m.Row(d) {
				require.GreaterOrEqual(t, p, 0.0)
				sum += p
			}
			require.InDelta(t, 1.0, sum, 1e-12, "D=%d row %d", D, d)
		}
	}
}

func TestTransitionBoundaries(t *testing.T) {
	const pi, pd = 0.1, 0.2
	m, err := BuildTransitionMatrix(2, pi, pd)
	require.NoError(t, err)

	assert.InDelta(t, 1-pi, m.Prob(-2, -2), 1e-12)
	assert.InDelta(t, pi, m.Prob(-2, -1), 1e-12)
	assert.InDelta(t, 1-pd, m.Prob(2, 2), 1e-12)
	assert.InDelta(t, pd, m.Prob(2, 1), 1e-12)
	assert.InDelta(t, 1-pi-pd, m.Prob(0, 0), 1e-12)
	assert.InDelta(t, pd, m.Prob(0, -1), 1e-12)
	assert.InDelta(t, pi, m.Prob(0, 1), 1e-12)
	assert.Zero(t, m.Prob(0, 2))
	assert.Zero(t, m.Prob(3, 0))
}

func TestTransitionSingleState(t *testing.T) {
	m, err := BuildTransitionMatrix(0, 0.3, 0.3)
	require.NoError(t, err)
	require.Equal(t, 1, m.Size())
	require.Equal(t, 1.0, m.Prob(0, 0))
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		require.Equal(t, 0, m.Step(rng, 0))
	}
}

func TestTransitionInvalid(t *testing.T) {
	cases := []struct {
		D      int
		pi, pd float64
	}{
		{-1, 0.1, 0.1},
		{2, 0.6, 0.5},
		{2, -0.1, 0.1},
		{2, 0.1, 1.5},
		{2, math.NaN(), 0},
	}
	for _, c := range cases {
		_, err := BuildTransitionMatrix(c.D, c.pi, c.pd)
		require.ErrorIs(t, err, ErrInvalidConfig, "%+v", c)
	}
}

func TestSampleTrace(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	trace, err := SampleTrace(rng, 3, 0.2, 0.2, 500)
	require.NoError(t, err)
	require.Len(t, trace, 500)
	prev := 0
	for _, d := range trace {
		require.LessOrEqual(t, d, 3)
		require.GreaterOrEqual(t, d, -3)
		require.LessOrEqual(t, abs(d-prev), 1)
		prev = d
	}

	// certain insertions saturate at the boundary
	trace, err = SampleTrace(rng, 2, 1, 0, 4)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 2, 2}, trace)

	_, err = SampleTrace(rng, 2, 0.1, 0.1, -1)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestPropagateExpectedDrift(t *testing.T) {
	m, err := BuildTransitionMatrix(2, 0.3, 0.1)
	require.NoError(t, err)
	b := m.Propagate(m.PointBelief(0))
	require.InDelta(t, 0.2, m.ExpectedDrift(b), 1e-12)

	sum := 0.0
	for _, w := range b {
		sum += w
	}
	require.InDelta(t, 1.0, sum, 1e-12)

	// symmetric rates keep the mean at zero
	s, err := BuildTransitionMatrix(3, 0.1, 0.1)
	require.NoError(t, err)
	belief := s.PointBelief(0)
	for i := 0; i < 50; i++ {
		belief = s.Propagate(belief)
	}
	require.InDelta(t, 0.0, s.ExpectedDrift(belief), 1e-9)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
