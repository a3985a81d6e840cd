package fecwire

import (
	"encoding/binary"
	"errors"

	"github.com/observe-l/idspolar/fec"
)

// Version is the current manifest layout.
const Version uint8 = 1

// Manifest is the fixed header stored next to a set of strands. It records
// the code and the RaptorQ layout a reader needs to rebuild the payload.
type Manifest struct {
	Version    uint8
	DriftMode  uint8
	PolyDegree uint8
	Flags      uint8  // reserved
	N          uint16 // code length
	K          uint16 // information bits per strand
	L          uint16 // list size used when writing
	SymbolSize uint16 // RaptorQ symbol length in bytes
	DataSize   uint32 // payload bytes
	Strands    uint32
	Source     uint32 // RaptorQ source symbols
	Checksum   uint32 // CRC-32 (IEEE) of the payload
}

const ManifestLen = 1 + 1 + 1 + 1 + 2 + 2 + 2 + 2 + 4 + 4 + 4 + 4

var (
	ErrShortManifest = errors.New("fecwire: manifest too short")
	ErrVersion       = errors.New("fecwire: unsupported manifest version")
	ErrOverflow      = errors.New("fecwire: value does not fit the manifest")
)

// FromArchive fills a manifest from a code configuration and the archive
// layout returned by the encoder.
func FromArchive(cfg fec.Config, m fec.Manifest) (Manifest, error) {
	if cfg.N > 0xffff || cfg.K > 0xffff || cfg.L > 0xffff || m.SymbolSize > 0xffff || cfg.Polynomial.Degree() > 0xff {
		return Manifest{}, ErrOverflow
	}
	if m.DataSize < 0 || int64(m.DataSize) > 0xffffffff {
		return Manifest{}, ErrOverflow
	}
	return Manifest{
		Version:    Version,
		DriftMode:  uint8(cfg.DriftMode),
		PolyDegree: uint8(cfg.Polynomial.Degree()),
		N:          uint16(cfg.N),
		K:          uint16(cfg.K),
		L:          uint16(cfg.L),
		SymbolSize: uint16(m.SymbolSize),
		DataSize:   uint32(m.DataSize),
		Strands:    uint32(m.Strands),
		Source:     uint32(m.SourceSymbols),
		Checksum:   m.Checksum,
	}, nil
}

// Archive returns the archive layout part of the manifest.
func (h *Manifest) Archive() fec.Manifest {
	return fec.Manifest{
		DataSize:      int(h.DataSize),
		SymbolSize:    int(h.SymbolSize),
		SourceSymbols: int(h.Source),
		Strands:       int(h.Strands),
		Checksum:      h.Checksum,
	}
}

// MarshalBinary writes the manifest into b, allocating when b is too short.
func (h *Manifest) MarshalBinary(b []byte) []byte {
	if len(b) < ManifestLen {
		b = make([]byte, ManifestLen)
	}
	b[0] = h.Version
	b[1] = h.DriftMode
	b[2] = h.PolyDegree
	b[3] = h.Flags
	binary.LittleEndian.PutUint16(b[4:6], h.N)
	binary.LittleEndian.PutUint16(b[6:8], h.K)
	binary.LittleEndian.PutUint16(b[8:10], h.L)
	binary.LittleEndian.PutUint16(b[10:12], h.SymbolSize)
	binary.LittleEndian.PutUint32(b[12:16], h.DataSize)
	binary.LittleEndian.PutUint32(b[16:20], h.Strands)
	binary.LittleEndian.PutUint32(b[20:24], h.Source)
	binary.LittleEndian.PutUint32(b[24:28], h.Checksum)
	return b[:ManifestLen]
}

func (h *Manifest) UnmarshalBinary(b []byte) error {
	if len(b) < ManifestLen {
		return ErrShortManifest
	}
	if b[0] != Version {
		return ErrVersion
	}
	h.Version = b[0]
	h.DriftMode = b[1]
	h.PolyDegree = b[2]
	h.Flags = b[3]
	h.N = binary.LittleEndian.Uint16(b[4:6])
	h.K = binary.LittleEndian.Uint16(b[6:8])
	h.L = binary.LittleEndian.Uint16(b[8:10])
	h.SymbolSize = binary.LittleEndian.Uint16(b[10:12])
	h.DataSize = binary.LittleEndian.Uint32(b[12:16])
	h.Strands = binary.LittleEndian.Uint32(b[16:20])
	h.Source = binary.LittleEndian.Uint32(b[20:24])
	h.Checksum = binary.LittleEndian.Uint32(b[24:28])
	return nil
}
