package fec

import (
	"errors"

	rqq "github.com/xssnick/raptorq"
)

// RaptorQEncoder wraps a systematic RaptorQ encoder for one archive object.
// Symbols 0..SourceSymbols()-1 are the source symbols, ids above are repair.
type RaptorQEncoder struct {
	SymbolSize int
	r          *rqq.RaptorQ
	e          *rqq.Encoder
}

type RaptorQDecoder struct {
	SymbolSize int
	r          *rqq.RaptorQ
	d          *rqq.Decoder
}

// NewRaptorQEncoder creates an encoder over data with the given symbol size
// in bytes. The last symbol is padded internally by the library.
func NewRaptorQEncoder(data []byte, symbolSize int) (*RaptorQEncoder, error) {
	if symbolSize <= 0 {
		return nil, errors.New("bad symbol size")
	}
	if len(data) == 0 {
		return nil, errors.New("empty payload")
	}
	rq := rqq.NewRaptorQ(uint32(symbolSize))
	enc, err := rq.CreateEncoder(data)
	if err != nil {
		return nil, err
	}
	return &RaptorQEncoder{SymbolSize: symbolSize, r: rq, e: enc}, nil
}

// GenSymbol returns the symbol bytes for a given symbol id, padded to
// SymbolSize.
func (e *RaptorQEncoder) GenSymbol(id uint32) []byte {
	sym := e.e.GenSymbol(id)
	if len(sym) < e.SymbolSize {
		sym = append(sym, make([]byte, e.SymbolSize-len(sym))...)
	}
	return sym
}

// SourceSymbols returns the number of source symbols reported by the library.
func (e *RaptorQEncoder) SourceSymbols() int { return int(e.e.BaseSymbolsNum()) }

// NewRaptorQDecoder creates a decoder for an object of dataSize bytes.
func NewRaptorQDecoder(dataSize, symbolSize int) (*RaptorQDecoder, error) {
	if dataSize <= 0 || symbolSize <= 0 {
		return nil, errors.New("bad data size or symbol size")
	}
	rq := rqq.NewRaptorQ(uint32(symbolSize))
	dec, err := rq.CreateDecoder(uint32(dataSize))
	if err != nil {
		return nil, err
	}
	return &RaptorQDecoder{SymbolSize: symbolSize, r: rq, d: dec}, nil
}

// Required is the number of distinct symbols after which decoding is
// normally possible.
func (d *RaptorQDecoder) Required() int { return int(d.d.FastSymbolsNumRequired()) }

// AddSymbol feeds a symbol with its id. Returns whether decoding can be attempted.
func (d *RaptorQDecoder) AddSymbol(id uint32, data []byte) (bool, error) {
	return d.d.AddSymbol(id, data)
}

// Decode attempts to reconstruct the object. On success the bytes are
// trimmed by the library to the original size.
func (d *RaptorQDecoder) Decode() (bool, []byte, error) {
	return d.d.Decode()
}

// Symbol is one RaptorQ symbol with its id.
type Symbol struct {
	ID   uint32
	Data []byte
}

// RaptorQEncodeObject generates source+repair symbols for data. The number
// of source symbols is decided by the library from len(data) and symbolSize.
func RaptorQEncodeObject(data []byte, symbolSize, repair int) ([]Symbol, error) {
	if repair < 0 {
		return nil, errors.New("bad repair count")
	}
	enc, err := NewRaptorQEncoder(data, symbolSize)
	if err != nil {
		return nil, err
	}
	total := enc.SourceSymbols() + repair
	out := make([]Symbol, total)
	for i := 0; i < total; i++ {
		out[i] = Symbol{ID: uint32(i), Data: enc.GenSymbol(uint32(i))}
	}
	return out, nil
}

// RaptorQDecodeObject rebuilds an object of dataSize bytes from any subset of
// its symbols. Returns ok=false if decoding fails.
func RaptorQDecodeObject(recv []Symbol, dataSize, symbolSize int) ([]byte, bool) {
	dec, err := NewRaptorQDecoder(dataSize, symbolSize)
	if err != nil {
		return nil, false
	}
	for _, s := range recv {
		// a rejected symbol is an erasure
		_, _ = dec.AddSymbol(s.ID, s.Data)
	}
	ok, data, err := dec.Decode()
	if err != nil || !ok {
		return nil, false
	}
	return data, true
}
