package fec

import (
	"github.com/bits-and-blooms/bitset"
)

// FrozenSet marks the frozen positions of a length-N polar code. Frozen bits
// are fixed to zero. It is immutable once built.
type FrozenSet struct {
	n      int
	frozen *bitset.BitSet
	info   []int
}

// NewFrozenSet builds a frozen set from explicit frozen positions.
func NewFrozenSet(N int, positions []int) (*FrozenSet, error) {
	if _, ok := log2(N); !ok {
		return nil, configErr("N", "%d is not a power of two", N)
	}
	b := bitset.New(uint(N))
	for _, p := range positions {
		if p < 0 || p >= N {
			return nil, configErr("frozen positions", "position %d out of range [0,%d)", p, N)
		}
		if b.Test(uint(p)) {
			return nil, configErr("frozen positions", "position %d listed twice", p)
		}
		b.Set(uint(p))
	}
	if int(b.Count()) == N {
		return nil, configErr("frozen positions", "all %d positions frozen, K would be 0", N)
	}
	info := make([]int, 0, N-int(b.Count()))
	for i := 0; i < N; i++ {
		if !b.Test(uint(i)) {
			info = append(info, i)
		}
	}
	return &FrozenSet{n: N, frozen: b, info: info}, nil
}

// FrozenComplement builds the frozen set whose information positions are info.
func FrozenComplement(N int, info []int) (*FrozenSet, error) {
	if _, ok := log2(N); !ok {
		return nil, configErr("N", "%d is not a power of two", N)
	}
	inInfo := bitset.New(uint(N))
	for _, p := range info {
		if p < 0 || p >= N {
			return nil, configErr("information positions", "position %d out of range [0,%d)", p, N)
		}
		inInfo.Set(uint(p))
	}
	return NewFrozenSet(N, frozenFromMask(N, inInfo))
}

func frozenFromMask(N int, inInfo *bitset.BitSet) []int {
	out := make([]int, 0, N-int(inInfo.Count()))
	for i := 0; i < N; i++ {
		if !inInfo.Test(uint(i)) {
			out = append(out, i)
		}
	}
	return out
}

// N is the code length.
func (f *FrozenSet) N() int { return f.n }

// K is the number of information positions.
func (f *FrozenSet) K() int { return len(f.info) }

// IsFrozen reports whether position i is frozen.
func (f *FrozenSet) IsFrozen(i int) bool { return f.frozen.Test(uint(i)) }

// InfoPositions returns the information positions in ascending order.
// Callers must not modify the returned slice.
func (f *FrozenSet) InfoPositions() []int { return f.info }

// FrozenPositions returns the frozen positions in ascending order.
func (f *FrozenSet) FrozenPositions() []int {
	out := make([]int, 0, int(f.frozen.Count()))
	for i, ok := f.frozen.NextSet(0); ok; i, ok = f.frozen.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}
