package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func randomBits(rng *rand.Rand, n int) []uint8 {
	out := make([]uint8, n)
	for i := range out {
		out[i] = uint8(rng.Intn(2))
	}
	return out
}

func TestNoiselessChannelIsIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	ch, err := NewIDSChannel(Scenario{}, rng)
	require.NoError(t, err)
	x := randomBits(rng, 64)
	y, d := ch.Transmit(x)
	require.Equal(t, x, y)
	require.Equal(t, make([]int, 64), d)
}

func TestSubstitutionOnly(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	ch, err := NewIDSChannel(Scenario{PSubst: 1}, rng)
	require.NoError(t, err)
	x := randomBits(rng, 32)
	y, _ := ch.Transmit(x)
	require.Len(t, y, len(x))
	for i := range x {
		require.Equal(t, 1-x[i], y[i])
	}
}

func TestDeletionOnly(t *testing.T) {
	ch, err := NewIDSChannel(Scenario{PDelete: 1}, rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	y, d := ch.Transmit([]uint8{1, 0, 1})
	require.Empty(t, y)
	require.Equal(t, []int{-1, -2, -3}, d)
}

func TestDriftMatchesLength(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	ch, err := NewIDSChannel(Scenario{PInsert: 0.05, PDelete: 0.05, PSubst: 0.01}, rng)
	require.NoError(t, err)
	for trial := 0; trial < 50; trial++ {
		x := randomBits(rng, 128)
		y, d := ch.Transmit(x)
		require.Len(t, d, len(x))
		require.Equal(t, len(x)+d[len(d)-1], len(y))
	}
}

func TestDNAAlphabetSubstitution(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	ch, err := NewIDSChannel(Scenario{PSubst: 1, Alphabet: 4}, rng)
	require.NoError(t, err)
	x := []uint8{0, 1, 2, 3, 0, 1, 2, 3}
	y, _ := ch.Transmit(x)
	for i := range x {
		require.NotEqual(t, x[i], y[i])
		require.Less(t, y[i], uint8(4))
	}
}

func TestScenarioValidate(t *testing.T) {
	require.Error(t, Scenario{PInsert: 1}.Validate())
	require.Error(t, Scenario{PDelete: -0.1}.Validate())
	require.Error(t, Scenario{Alphabet: 1}.Validate())
	require.NoError(t, Scenario{PInsert: 0.1, PDelete: 0.1, PSubst: 0.1, Alphabet: 4}.Validate())
}
