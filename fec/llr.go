package fec

import (
	"math"
	"math/bits"
)

// MaxChannelLLR bounds the magnitude of a single channel LLR so that a
// noiseless channel (ps = 0) still yields finite path metrics.
const MaxChannelLLR = 20.0

// substitutionLLR is |log((1-ps)/ps)| with the MaxChannelLLR clamp applied.
func substitutionLLR(ps float64) float64 {
	llr := math.Log(1-ps) - math.Log(ps)
	if math.IsNaN(llr) {
		return 0
	}
	return math.Max(-MaxChannelLLR, math.Min(MaxChannelLLR, llr))
}

// ChannelLLR is the channel evidence for codeword position j under drift d:
// log(P(y[j+d] | 0) / P(y[j+d] | 1)) for the substitution model with
// probability ps. When j+d falls outside y the synchronization is lost and
// the evidence is neutral (0).
func ChannelLLR(y []uint8, d, j int, ps float64) float64 {
	return leafLLR(y, d, j, substitutionLLR(ps))
}

func leafLLR(y []uint8, d, j int, mag float64) float64 {
	k := j + d
	if k < 0 || k >= len(y) {
		return 0
	}
	if y[k] != 0 {
		return -mag
	}
	return mag
}

// fMinSum is the min-sum check-node update sign(a)·sign(b)·min(|a|,|b|).
func fMinSum(a, b float64) float64 {
	m := math.Min(math.Abs(a), math.Abs(b))
	if (a < 0) != (b < 0) {
		return -m
	}
	return m
}

// gUpdate is the variable-node update b + (1-2u)·a.
func gUpdate(a, b float64, u uint8) float64 {
	if u != 0 {
		return b - a
	}
	return b + a
}

// logSigmoid returns log(1/(1+e^-x)) without overflow.
func logSigmoid(x float64) float64 {
	if x >= 0 {
		return -math.Log1p(math.Exp(-x))
	}
	return x - math.Log1p(math.Exp(x))
}

// llrTree is the successive-cancellation state of one candidate path for a
// code x = u·F^{⊗n}. alpha[λ] holds the LLRs of the active node at layer λ
// (2^λ entries, alpha[n] is the channel layer) and betaL[λ] the re-encoded
// bits of the last decided left node at layer λ.
//
// Moving from position i-1 to i only the layers at or below the lowest set
// bit of i are stale, so over a whole decode every layer is recomputed
// N/2^λ times at 2^λ cost: O(N log N) per path.
type llrTree struct {
	n         int
	alpha     [][]float64
	betaL     [][]uint8
	scratch   []uint8
	leafDrift int
	pos       int // position alpha[0] was computed for, -1 if none
}

func newLLRTree(n int) *llrTree {
	t := &llrTree{
		n:       n,
		alpha:   make([][]float64, n+1),
		betaL:   make([][]uint8, n+1),
		scratch: make([]uint8, 1<<n),
		pos:     -1,
	}
	for l := 0; l <= n; l++ {
		t.alpha[l] = make([]float64, 1<<l)
		t.betaL[l] = make([]uint8, 1<<l)
	}
	return t
}

func (t *llrTree) clone() *llrTree {
	c := &llrTree{
		n:         t.n,
		alpha:     make([][]float64, len(t.alpha)),
		betaL:     make([][]uint8, len(t.betaL)),
		scratch:   make([]uint8, len(t.scratch)),
		leafDrift: t.leafDrift,
		pos:       t.pos,
	}
	for l := range t.alpha {
		c.alpha[l] = append([]float64(nil), t.alpha[l]...)
		c.betaL[l] = append([]uint8(nil), t.betaL[l]...)
	}
	return c
}

// fillLeaves rebuilds the channel layer for drift d.
func (t *llrTree) fillLeaves(y []uint8, d int, mag float64) {
	leaves := t.alpha[t.n]
	for j := range leaves {
		leaves[j] = leafLLR(y, d, j, mag)
	}
	t.leafDrift = d
}

// llrAt returns the decision LLR of position i when the channel is read
// with drift d. Positions must be committed in order; any other access
// pattern, or a drift change, falls back to a full refresh of the active
// branch.
func (t *llrTree) llrAt(i int, y []uint8, d int, mag float64) float64 {
	top := t.n - 1
	switch {
	case t.pos < 0 || d != t.leafDrift:
		t.fillLeaves(y, d, mag)
	case i == t.pos+1:
		top = bits.TrailingZeros(uint(i))
	}
	for l := top; l >= 0; l-- {
		t.computeLayer(l, (i>>l)&1 == 1)
	}
	t.pos = i
	return t.alpha[0][0]
}

func (t *llrTree) computeLayer(l int, right bool) {
	parent := t.alpha[l+1]
	dst := t.alpha[l]
	s := len(dst)
	if right {
		partial := t.betaL[l]
		for j := 0; j < s; j++ {
			dst[j] = gUpdate(parent[j], parent[j+s], partial[j])
		}
		return
	}
	for j := 0; j < s; j++ {
		dst[j] = fMinSum(parent[j], parent[j+s])
	}
}

// commit records the decision u_i and folds it into the partial sums of
// every node it completes.
func (t *llrTree) commit(i int, bit uint8) {
	sum := t.scratch
	sum[0] = bit & 1
	for l := 0; l < t.n; l++ {
		s := 1 << l
		if (i>>l)&1 == 0 {
			copy(t.betaL[l], sum[:s])
			return
		}
		// right child completed: parent = (left ^ right, right)
		copy(sum[s:2*s], sum[:s])
		left := t.betaL[l]
		for j := 0; j < s; j++ {
			sum[j] = left[j] ^ sum[s+j]
		}
	}
}
