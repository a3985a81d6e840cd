package fec

import (
	"errors"
	"fmt"
	"hash/crc32"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Channel corrupts a codeword the way a storage or transmission medium
// would. It returns the received symbols and the true drift after every
// codeword position.
type Channel interface {
	Transmit(codeword []uint8) (obs []uint8, drift []int)
}

// strandIDBits is the width of the symbol id carried at the head of every
// strand message.
const strandIDBits = 16

// ArchiveParams describes how a payload is spread over polar-coded strands.
// Every strand message is a 16-bit RaptorQ symbol id followed by SymbolSize
// bytes, so Code must have MessageLen() == 16 + 8*SymbolSize.
type ArchiveParams struct {
	Code       Config
	SymbolSize int
	// Repair is the number of RaptorQ repair symbols on top of the source
	// symbols.
	Repair int
}

// Manifest is what a reader needs besides the strands to rebuild a payload.
type Manifest struct {
	DataSize      int
	SymbolSize    int
	SourceSymbols int
	Strands       int
	// Checksum is the CRC-32 (IEEE) of the payload.
	Checksum uint32
}

// ArchiveStats summarizes one Archive.Decode call.
type ArchiveStats struct {
	Strands int
	// Misaligned strands were skipped because their length is out of the
	// decoder's drift range.
	Misaligned int
	Verified   int
	Duplicate  int
	Used       int
	Recovered  bool
}

// Archive encodes payloads into strands and decodes them back.
type Archive struct {
	params ArchiveParams
	dec    *Decoder
	logger *slog.Logger
}

// NewArchive validates p and builds the strand decoder. opts are passed to
// NewDecoder.
func NewArchive(p ArchiveParams, opts ...Option) (*Archive, error) {
	if p.SymbolSize <= 0 {
		return nil, configErr("symbol size", "must be > 0, got %d", p.SymbolSize)
	}
	if p.Repair < 0 {
		return nil, configErr("repair symbols", "must be >= 0, got %d", p.Repair)
	}
	dec, err := NewDecoder(p.Code, opts...)
	if err != nil {
		return nil, err
	}
	if want := strandIDBits + 8*p.SymbolSize; dec.MessageLen() != want {
		return nil, configErr("symbol size", "strand carries %d message bits, %d-byte symbols need %d",
			dec.MessageLen(), p.SymbolSize, want)
	}
	return &Archive{params: p, dec: dec, logger: dec.logger}, nil
}

// Decoder returns the per-strand decoder.
func (a *Archive) Decoder() *Decoder { return a.dec }

// Encode splits payload into RaptorQ symbols and encodes each one into a
// strand codeword of N bits.
func (a *Archive) Encode(payload []byte) ([][]uint8, Manifest, error) {
	syms, err := RaptorQEncodeObject(payload, a.params.SymbolSize, a.params.Repair)
	if err != nil {
		return nil, Manifest{}, fmt.Errorf("archive: %w", err)
	}
	if len(syms) > 1<<strandIDBits {
		return nil, Manifest{}, fmt.Errorf("archive: %d symbols do not fit a %d-bit id", len(syms), strandIDBits)
	}
	strands := make([][]uint8, len(syms))
	for i, s := range syms {
		msg := make([]uint8, 0, a.dec.MessageLen())
		msg = append(msg, Uint16ToBits(uint16(s.ID))...)
		msg = append(msg, BytesToBits(s.Data[:a.params.SymbolSize])...)
		cw, err := a.dec.EncodeMessage(msg)
		if err != nil {
			return nil, Manifest{}, fmt.Errorf("archive: strand %d: %w", i, err)
		}
		strands[i] = cw
	}
	m := Manifest{
		DataSize:      len(payload),
		SymbolSize:    a.params.SymbolSize,
		SourceSymbols: len(syms) - a.params.Repair,
		Strands:       len(strands),
		Checksum:      crc32.ChecksumIEEE(payload),
	}
	return strands, m, nil
}

// Decode runs the list decoder on every received strand, keeps those whose
// checksum verifies and hands their symbols to the RaptorQ decoder.
// Strands may arrive in any order; unverified strands count as erasures.
func (a *Archive) Decode(received [][]uint8, m Manifest) ([]byte, ArchiveStats, error) {
	if m.SymbolSize != a.params.SymbolSize {
		return nil, ArchiveStats{}, fmt.Errorf("archive: manifest symbol size %d, decoder uses %d", m.SymbolSize, a.params.SymbolSize)
	}
	stats := ArchiveStats{Strands: len(received)}
	results := make([]Result, len(received))
	aligned := make([]bool, len(received))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, obs := range received {
		if !a.alignable(len(obs)) {
			stats.Misaligned++
			continue
		}
		aligned[i] = true
		i, obs := i, obs
		g.Go(func() error {
			results[i] = a.dec.Decode(obs)
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[uint32]struct{}, len(received))
	syms := make([]Symbol, 0, len(received))
	for i, r := range results {
		if !aligned[i] || !r.Verified {
			continue
		}
		stats.Verified++
		id := uint32(BitsToUint16(r.Message[:strandIDBits]))
		if m.Strands > 0 && int(id) >= m.Strands {
			continue
		}
		if _, dup := seen[id]; dup {
			stats.Duplicate++
			continue
		}
		seen[id] = struct{}{}
		data, err := BitsToBytes(r.Message[strandIDBits:])
		if err != nil {
			return nil, stats, fmt.Errorf("archive: %w", err)
		}
		syms = append(syms, Symbol{ID: id, Data: data})
	}
	stats.Used = len(syms)
	payload, ok := RaptorQDecodeObject(syms, m.DataSize, m.SymbolSize)
	if !ok {
		a.logger.Info("archive not recovered",
			"strands", stats.Strands,
			"verified", stats.Verified,
			"used", stats.Used,
		)
		return nil, stats, ErrNotRecovered
	}
	if crc32.ChecksumIEEE(payload) != m.Checksum {
		return nil, stats, ErrChecksumMismatch
	}
	stats.Recovered = true
	return payload, stats, nil
}

// alignable reports whether a strand of n received symbols can end inside
// the tracked drift range.
func (a *Archive) alignable(n int) bool {
	diff := n - a.params.Code.N
	return diff >= -a.params.Code.MaxDrift && diff <= a.params.Code.MaxDrift
}

var (
	// ErrNotRecovered is returned when too few strands verified to rebuild
	// the payload.
	ErrNotRecovered = errors.New("archive: not enough verified strands")
	// ErrChecksumMismatch is returned when the rebuilt payload does not
	// match the manifest checksum.
	ErrChecksumMismatch = errors.New("archive: payload checksum mismatch")
)

// TransmitAll passes every strand through ch.
func TransmitAll(ch Channel, strands [][]uint8) [][]uint8 {
	out := make([][]uint8, len(strands))
	for i, s := range strands {
		out[i], _ = ch.Transmit(s)
	}
	return out
}
