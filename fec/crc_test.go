package fec

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustBits(t *testing.T, s string) []uint8 {
	t.Helper()
	b, err := ParseBits(s)
	require.NoError(t, err)
	return b
}

func TestRemainderScenario(t *testing.T) {
	poly, err := ParsePolynomial("1011")
	require.NoError(t, err)
	require.Equal(t, 3, poly.Degree())

	rem, err := Remainder(mustBits(t, "1010"), poly)
	require.NoError(t, err)
	require.Equal(t, "011", FormatBits(rem))

	ok, err := Verify(mustBits(t, "1010"), poly, mustBits(t, "011"))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Verify(mustBits(t, "1010"), poly, mustBits(t, "010"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAttachChecksum(t *testing.T) {
	poly := Polynomial{1, 0, 1, 1}
	info, err := AttachChecksum(mustBits(t, "1010"), poly)
	require.NoError(t, err)
	require.Equal(t, "1010011", FormatBits(info))

	zero, err := AttachChecksum(mustBits(t, "0000"), poly)
	require.NoError(t, err)
	require.Equal(t, "0000000", FormatBits(zero))
}

func TestCRC8DetectsSingleBitErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	msg := make([]uint8, 48)
	for i := range msg {
		msg[i] = uint8(rng.Intn(2))
	}
	info, err := AttachChecksum(msg, CRC8)
	require.NoError(t, err)
	require.Len(t, info, 56)

	for flip := range info {
		bad := append([]uint8(nil), info...)
		bad[flip] ^= 1
		ok, err := Verify(bad[:48], CRC8, bad[48:])
		require.NoError(t, err)
		require.False(t, ok, "flip at %d went undetected", flip)
	}
}

func TestParsePolynomial(t *testing.T) {
	p, err := ParsePolynomial("0011")
	require.NoError(t, err)
	require.Equal(t, Polynomial{1, 1}, p)
	require.Equal(t, "11", p.String())

	for _, in := range []string{"", "0000", "10x1"} {
		_, err := ParsePolynomial(in)
		require.Error(t, err, in)
		require.True(t, errors.Is(err, ErrInvalidConfig), in)
	}
}

func TestChecksumConfigErrors(t *testing.T) {
	_, err := Remainder(mustBits(t, "101"), Polynomial{1, 0, 1, 1})
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Remainder(mustBits(t, "101"), nil)
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Verify(mustBits(t, "1010"), Polynomial{1, 0, 1, 1}, mustBits(t, "01"))
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "checksum", cerr.Field)
}
