package fec

import "errors"

// BytesToBits unpacks bytes into bits, LSB-first within a byte (the same order
// the encoder has always used for byte payloads).
func BytesToBits(data []byte) []uint8 {
	out := make([]uint8, len(data)*8)
	for i, byteVal := range data {
		for j := 0; j < 8; j++ {
			out[i*8+j] = (byteVal >> j) & 1
		}
	}
	return out
}

// BitsToBytes packs bits LSB-first. len(bits) must be a multiple of 8.
func BitsToBytes(bits []uint8) ([]byte, error) {
	if len(bits)%8 != 0 {
		return nil, errors.New("bit count must be a multiple of 8")
	}
	out := make([]byte, len(bits)/8)
	for i := range out {
		var packedByte byte
		for j := 0; j < 8; j++ {
			if bits[i*8+j] != 0 {
				packedByte |= 1 << j
			}
		}
		out[i] = packedByte
	}
	return out, nil
}

// Uint16ToBits returns the 16 bits of v, LSB first.
func Uint16ToBits(v uint16) []uint8 {
	out := make([]uint8, 16)
	for i := 0; i < 16; i++ {
		out[i] = uint8(v>>i) & 1
	}
	return out
}

// BitsToUint16 is the inverse of Uint16ToBits; only the first 16 bits are read.
func BitsToUint16(bits []uint8) uint16 {
	var v uint16
	for i := 0; i < 16 && i < len(bits); i++ {
		if bits[i] != 0 {
			v |= 1 << i
		}
	}
	return v
}

// ParseBits reads a string of '0'/'1' characters.
func ParseBits(s string) ([]uint8, error) {
	out := make([]uint8, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
		case '1':
			out[i] = 1
		default:
			return nil, errors.New("bit string must contain only 0 and 1")
		}
	}
	return out, nil
}

// FormatBits renders bits as a '0'/'1' string.
func FormatBits(bits []uint8) string {
	b := make([]byte, len(bits))
	for i, v := range bits {
		if v != 0 {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
	}
	return string(b)
}

func normalizeBits(in []uint8) []uint8 {
	out := make([]uint8, len(in))
	for i, v := range in {
		if v != 0 {
			out[i] = 1
		}
	}
	return out
}
