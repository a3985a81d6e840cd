package fec

import (
	"errors"
	"math"
	"math/bits"
	"sort"
)

// log2 returns n with N = 2^n, or ok=false when N is not a power of two.
func log2(N int) (int, bool) {
	if N <= 0 || N&(N-1) != 0 {
		return 0, false
	}
	return bits.TrailingZeros(uint(N)), true
}

// polarTransform applies x = u·F^{⊗n} in place (F = [[1,0],[1,1]]).
// The transform is an involution, so it also maps a codeword back to u.
func polarTransform(x []uint8) {
	N := len(x)
	for halfBlock := 1; halfBlock < N; halfBlock <<= 1 {
		blockSize := halfBlock << 1
		for blockStart := 0; blockStart < N; blockStart += blockSize {
			for j := 0; j < halfBlock; j++ {
				idx1 := blockStart + j
				x[idx1] ^= x[idx1+halfBlock]
			}
		}
	}
}

// EncodePolar places the K information bits on the non-frozen positions in
// ascending order, zeroes the frozen positions and returns u·F^{⊗n} mod 2.
func EncodePolar(info []uint8, frozen *FrozenSet) ([]uint8, error) {
	if frozen == nil {
		return nil, errors.New("frozen set is required")
	}
	if len(info) != frozen.K() {
		return nil, errors.New("information length does not match the code dimension")
	}
	u := make([]uint8, frozen.N())
	for i, pos := range frozen.InfoPositions() {
		u[pos] = info[i] & 1
	}
	polarTransform(u)
	return u, nil
}

// ExtractInfo maps a codeword back to u and returns its information bits.
func ExtractInfo(codeword []uint8, frozen *FrozenSet) ([]uint8, error) {
	if frozen == nil || len(codeword) != frozen.N() {
		return nil, errors.New("codeword length does not match the frozen set")
	}
	u := normalizeBits(codeword)
	polarTransform(u)
	info := make([]uint8, 0, frozen.K())
	for _, pos := range frozen.InfoPositions() {
		info = append(info, u[pos])
	}
	return info, nil
}

// GeneratorMatrix returns F^{⊗n} as a dense 0/1 matrix.
func GeneratorMatrix(n int) [][]uint8 {
	G := [][]uint8{{1}}
	for t := 0; t < n; t++ {
		a := len(G)
		NG := make([][]uint8, 2*a)
		for i := range NG {
			NG[i] = make([]uint8, 2*a)
		}
		for i := 0; i < a; i++ {
			for j := 0; j < a; j++ {
				NG[i][j] = G[i][j]
				NG[a+i][j] = G[i][j]
				NG[a+i][a+j] = G[i][j]
				// top-right stays zero
			}
		}
		G = NG
	}
	return G
}

// InfoSetBEC picks the K most reliable positions of a length-N code for a
// binary erasure channel with erasure probability eps, ascending. It is a
// cheap heuristic, not an optimized construction for IDS channels.
func InfoSetBEC(N, K int, eps float64) ([]int, error) {
	if _, ok := log2(N); !ok {
		return nil, configErr("N", "%d is not a power of two", N)
	}
	if K < 1 || K > N {
		return nil, configErr("K", "%d not in [1,%d]", K, N)
	}
	if math.IsNaN(eps) || eps < 0 || eps > 1 {
		return nil, configErr("erasure probability", "%v not in [0,1]", eps)
	}
	z := bhattacharyyaBEC(N, eps)
	idx := make([]int, N)
	for i := range idx {
		idx[i] = i
	}
	// smaller Z is more reliable; ties prefer the higher index
	sort.SliceStable(idx, func(a, b int) bool {
		if z[idx[a]] != z[idx[b]] {
			return z[idx[a]] < z[idx[b]]
		}
		return idx[a] > idx[b]
	})
	A := append([]int(nil), idx[:K]...)
	sort.Ints(A)
	return A, nil
}

func bhattacharyyaBEC(N int, eps float64) []float64 {
	// expand breadth-first: each channel z splits into (2z - z^2, z^2)
	level := []float64{eps}
	for len(level) < N {
		next := make([]float64, 0, len(level)*2)
		for _, z := range level {
			next = append(next, 2*z-z*z, z*z)
		}
		level = next
	}
	return level
}
