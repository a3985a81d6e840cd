// Package dna maps between nucleotide strings and bit sequences. Each base
// carries two bits: A=00, T=01, C=10, G=11.
package dna

import (
	"fmt"
	"math/rand"
	"strings"
)

// Bases in symbol order; the index of a base is its two-bit value.
const Bases = "ATCG"

func baseValue(b byte) (uint8, bool) {
	switch b {
	case 'A', 'a':
		return 0, true
	case 'T', 't':
		return 1, true
	case 'C', 'c':
		return 2, true
	case 'G', 'g':
		return 3, true
	}
	return 0, false
}

// Random returns n uniformly drawn bases.
func Random(rng *rand.Rand, n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteByte(Bases[rng.Intn(4)])
	}
	return sb.String()
}

// Validate reports the first character that is not a base.
func Validate(seq string) error {
	for i := 0; i < len(seq); i++ {
		if _, ok := baseValue(seq[i]); !ok {
			return fmt.Errorf("dna: invalid base %q at %d", seq[i], i)
		}
	}
	return nil
}

// ToSymbols returns the base values 0..3.
func ToSymbols(seq string) ([]uint8, error) {
	out := make([]uint8, len(seq))
	for i := 0; i < len(seq); i++ {
		v, ok := baseValue(seq[i])
		if !ok {
			return nil, fmt.Errorf("dna: invalid base %q at %d", seq[i], i)
		}
		out[i] = v
	}
	return out, nil
}

// FromSymbols is the inverse of ToSymbols. Values above 3 are rejected.
func FromSymbols(sym []uint8) (string, error) {
	b := make([]byte, len(sym))
	for i, v := range sym {
		if v > 3 {
			return "", fmt.Errorf("dna: symbol %d at %d out of range", v, i)
		}
		b[i] = Bases[v]
	}
	return string(b), nil
}

// ToBits expands every base into its two bits, high bit first.
func ToBits(seq string) ([]uint8, error) {
	sym, err := ToSymbols(seq)
	if err != nil {
		return nil, err
	}
	out := make([]uint8, 0, 2*len(sym))
	for _, v := range sym {
		out = append(out, v>>1, v&1)
	}
	return out, nil
}

// FromBits packs bit pairs back into bases. len(bits) must be even.
func FromBits(bits []uint8) (string, error) {
	if len(bits)%2 != 0 {
		return "", fmt.Errorf("dna: odd bit count %d", len(bits))
	}
	b := make([]byte, len(bits)/2)
	for i := range b {
		b[i] = Bases[(bits[2*i]&1)<<1|bits[2*i+1]&1]
	}
	return string(b), nil
}

// SplitParity returns the even-indexed and odd-indexed bits. For a base
// sequence these are the high and low bits of every base.
func SplitParity(bits []uint8) (even, odd []uint8) {
	even = make([]uint8, 0, (len(bits)+1)/2)
	odd = make([]uint8, 0, len(bits)/2)
	for i, b := range bits {
		if i%2 == 0 {
			even = append(even, b)
		} else {
			odd = append(odd, b)
		}
	}
	return even, odd
}

// Interleave is the inverse of SplitParity.
func Interleave(even, odd []uint8) ([]uint8, error) {
	if len(even) != len(odd) && len(even) != len(odd)+1 {
		return nil, fmt.Errorf("dna: stream lengths %d and %d do not interleave", len(even), len(odd))
	}
	out := make([]uint8, 0, len(even)+len(odd))
	for i := range even {
		out = append(out, even[i])
		if i < len(odd) {
			out = append(out, odd[i])
		}
	}
	return out, nil
}
