package fec

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelLLR(t *testing.T) {
	y := []uint8{0, 1, 0}
	want := math.Log(0.9 / 0.1)

	assert.InDelta(t, want, ChannelLLR(y, 0, 0, 0.1), 1e-12)
	assert.InDelta(t, -want, ChannelLLR(y, 0, 1, 0.1), 1e-12)
	assert.InDelta(t, -want, ChannelLLR(y, 1, 0, 0.1), 1e-12)

	// reading outside the received sequence carries no evidence
	assert.Zero(t, ChannelLLR(y, -1, 0, 0.1))
	assert.Zero(t, ChannelLLR(y, 1, 2, 0.1))
	assert.Zero(t, ChannelLLR(nil, 0, 0, 0.1))

	assert.Equal(t, MaxChannelLLR, ChannelLLR(y, 0, 0, 0))
	assert.Equal(t, -MaxChannelLLR, ChannelLLR(y, 0, 0, 1))
	assert.Zero(t, ChannelLLR(y, 0, 0, 0.5))
}

func TestNodeUpdates(t *testing.T) {
	assert.Equal(t, 2.0, fMinSum(3, 2))
	assert.Equal(t, -2.0, fMinSum(-3, 2))
	assert.Equal(t, 1.5, fMinSum(-3, -1.5))
	assert.Equal(t, 5.0, gUpdate(3, 2, 0))
	assert.Equal(t, -1.0, gUpdate(3, 2, 1))

	assert.InDelta(t, -math.Ln2, logSigmoid(0), 1e-15)
	assert.InDelta(t, -1000.0, logSigmoid(-1000), 1e-9)
	assert.InDelta(t, 0.0, logSigmoid(1000), 1e-12)
	assert.False(t, math.IsInf(logSigmoid(-1e6), 0))
}

// naiveLLR evaluates the decision LLR of u_i from the leaf LLRs and the
// earlier decisions by direct recursion.
func naiveLLR(leaves []float64, u []uint8, i int) float64 {
	N := len(leaves)
	if N == 1 {
		return leaves[0]
	}
	half := N / 2
	next := make([]float64, half)
	if i < half {
		for j := range next {
			next[j] = fMinSum(leaves[j], leaves[j+half])
		}
		return naiveLLR(next, u, i)
	}
	left := append([]uint8(nil), u[:half]...)
	polarTransform(left)
	for j := range next {
		next[j] = gUpdate(leaves[j], leaves[j+half], left[j])
	}
	return naiveLLR(next, u[half:], i-half)
}

func naiveLeaves(y []uint8, d, N int, mag float64) []float64 {
	out := make([]float64, N)
	for j := range out {
		out[j] = leafLLR(y, d, j, mag)
	}
	return out
}

func TestLLRTreeMatchesRecursion(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const n = 5
	N := 1 << n
	mag := substitutionLLR(0.1)
	for trial := 0; trial < 20; trial++ {
		y := randomBits(rng, N+rng.Intn(5)-2)
		u := randomBits(rng, N)
		tree := newLLRTree(n)
		for i := 0; i < N; i++ {
			// drift wanders on some trials so the cache has to rebuild
			d := 0
			if trial%2 == 1 {
				d = rng.Intn(3) - 1
			}
			got := tree.llrAt(i, y, d, mag)
			want := naiveLLR(naiveLeaves(y, d, N, mag), u, i)
			require.InDelta(t, want, got, 1e-9, "trial %d position %d", trial, i)
			tree.commit(i, u[i])
		}
	}
}

func TestLLRTreeCloneIsIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	const n = 4
	N := 1 << n
	mag := substitutionLLR(0.05)
	y := randomBits(rng, N)
	u := randomBits(rng, N)
	v := append([]uint8(nil), u...)
	v[N/2] ^= 1

	a := newLLRTree(n)
	for i := 0; i < N/2; i++ {
		a.llrAt(i, y, 0, mag)
		a.commit(i, u[i])
	}
	b := a.clone()
	for i := N / 2; i < N; i++ {
		la := a.llrAt(i, y, 0, mag)
		lb := b.llrAt(i, y, 0, mag)
		require.InDelta(t, naiveLLR(naiveLeaves(y, 0, N, mag), u, i), la, 1e-9)
		require.InDelta(t, naiveLLR(naiveLeaves(y, 0, N, mag), v, i), lb, 1e-9)
		a.commit(i, u[i])
		b.commit(i, v[i])
	}
}

func TestLLRTreeShortObservation(t *testing.T) {
	const n = 3
	tree := newLLRTree(n)
	mag := substitutionLLR(0.01)
	// with drift 2 only codeword position 0 maps into the three received
	// symbols
	tree.llrAt(0, []uint8{1, 0, 1}, 2, mag)
	leaves := tree.alpha[n]
	require.Equal(t, -mag, leaves[0])
	for j := 1; j < 1<<n; j++ {
		require.Zero(t, leaves[j])
	}
}
