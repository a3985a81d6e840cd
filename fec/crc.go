package fec

// Polynomial is a GF(2) generator polynomial, most significant coefficient
// first ("1011" is x^3 + x + 1). A parsed Polynomial never has leading zeros.
type Polynomial []uint8

// CRC8 is x^8 + x^7 + x^6 + x^4 + x^2 + 1.
var CRC8 = Polynomial{1, 1, 1, 0, 1, 0, 1, 0, 1}

// CRC16 is the CCITT polynomial x^16 + x^12 + x^5 + 1.
var CRC16 = Polynomial{1, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// ParsePolynomial parses a '0'/'1' coefficient string. Leading zeros are dropped.
func ParsePolynomial(s string) (Polynomial, error) {
	bits, err := ParseBits(s)
	if err != nil {
		return nil, configErr("polynomial", "%v", err)
	}
	p := trimPolynomial(bits)
	if len(p) == 0 {
		return nil, configErr("polynomial", "%q has no nonzero coefficient", s)
	}
	return p, nil
}

func trimPolynomial(bits []uint8) Polynomial {
	for i, b := range bits {
		if b != 0 {
			return Polynomial(normalizeBits(bits[i:]))
		}
	}
	return nil
}

// Degree is the checksum width r. An empty polynomial has degree 0.
func (p Polynomial) Degree() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

func (p Polynomial) String() string { return FormatBits(p) }

// Remainder divides bits·x^r by poly and returns the r-bit remainder.
func Remainder(bits []uint8, poly Polynomial) ([]uint8, error) {
	p, err := checkPolynomial(bits, poly)
	if err != nil {
		return nil, err
	}
	return divide(bits, p, make([]uint8, p.Degree())), nil
}

// Verify reports whether expected is the remainder of bits. It runs the same
// division with expected in place of the zero padding and checks for an
// all-zero tail.
func Verify(bits []uint8, poly Polynomial, expected []uint8) (bool, error) {
	p, err := checkPolynomial(bits, poly)
	if err != nil {
		return false, err
	}
	if len(expected) != p.Degree() {
		return false, configErr("checksum", "expected %d remainder bits, got %d", p.Degree(), len(expected))
	}
	for _, b := range divide(bits, p, normalizeBits(expected)) {
		if b != 0 {
			return false, nil
		}
	}
	return true, nil
}

// AttachChecksum returns msg followed by its remainder under poly.
func AttachChecksum(msg []uint8, poly Polynomial) ([]uint8, error) {
	rem, err := Remainder(msg, poly)
	if err != nil {
		return nil, err
	}
	out := make([]uint8, 0, len(msg)+len(rem))
	out = append(out, normalizeBits(msg)...)
	return append(out, rem...), nil
}

func checkPolynomial(bits []uint8, poly Polynomial) (Polynomial, error) {
	p := trimPolynomial(poly)
	if len(p) == 0 {
		return nil, configErr("polynomial", "empty generator")
	}
	if p.Degree() >= len(bits) {
		return nil, configErr("polynomial", "degree %d must be below message length %d", p.Degree(), len(bits))
	}
	return p, nil
}

// divide performs the long division on data‖tail and returns the final tail.
func divide(data []uint8, p Polynomial, tail []uint8) []uint8 {
	n := len(data)
	buf := make([]uint8, n+len(tail))
	copy(buf, normalizeBits(data))
	copy(buf[n:], tail)
	for shift := 0; shift < n; shift++ {
		if buf[shift] == 0 {
			continue
		}
		for i, c := range p {
			buf[shift+i] ^= c
		}
	}
	return buf[n:]
}
