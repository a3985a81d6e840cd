package fec_test

import (
	"math/rand"
	"testing"

	"github.com/observe-l/idspolar/fec"
)

func becConfig(t *testing.T, N, K, L int, poly fec.Polynomial, pi, pd, ps float64) fec.Config {
	t.Helper()
	info, err := fec.InfoSetBEC(N, K, 0.5)
	if err != nil {
		t.Fatalf("info set: %v", err)
	}
	fs, err := fec.FrozenComplement(N, info)
	if err != nil {
		t.Fatalf("frozen set: %v", err)
	}
	return fec.Config{
		N:          N,
		K:          K,
		L:          L,
		MaxDrift:   3,
		PInsert:    pi,
		PDelete:    pd,
		PSubst:     ps,
		Frozen:     fs.FrozenPositions(),
		Polynomial: poly,
	}
}

func randomMessage(rng *rand.Rand, n int) []uint8 {
	out := make([]uint8, n)
	for i := range out {
		out[i] = uint8(rng.Intn(2))
	}
	return out
}

func equalBits(a, b []uint8) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
