package fec

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"
)

// DriftMode selects how a path's drift estimate advances on an
// informational position.
type DriftMode int

const (
	// DriftExpectation propagates a per-path offset belief through the
	// transition matrix and uses its rounded mean. Deterministic.
	DriftExpectation DriftMode = iota
	// DriftSampled draws one transition per extension from a PRNG seeded
	// with Config.Seed at the start of every decode call.
	DriftSampled
)

func (m DriftMode) String() string {
	switch m {
	case DriftExpectation:
		return "expectation"
	case DriftSampled:
		return "sampled"
	default:
		return fmt.Sprintf("DriftMode(%d)", int(m))
	}
}

// ParseDriftMode accepts "expectation" or "sampled".
func ParseDriftMode(s string) (DriftMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "expectation":
		return DriftExpectation, nil
	case "sampled":
		return DriftSampled, nil
	}
	return 0, configErr("drift mode", "unknown mode %q", s)
}

// Config is the immutable decoder configuration.
type Config struct {
	N, K, L int
	// MaxDrift bounds the tracked offset to [-MaxDrift, MaxDrift].
	MaxDrift int
	PInsert  float64
	PDelete  float64
	PSubst   float64
	// Frozen lists the N-K frozen positions.
	Frozen []int
	// Polynomial, when set, protects the information bits: the last
	// Degree() information bits are the checksum of the ones before them.
	Polynomial Polynomial
	DriftMode  DriftMode
	Seed       int64
}

// Decoder is a drift-tracking successive-cancellation list decoder. It is
// safe for concurrent use; every Decode call works on its own path list.
type Decoder struct {
	cfg      Config
	n        int
	frozen   *FrozenSet
	poly     Polynomial
	drift    *TransitionMatrix
	leafMag  float64
	workers  int
	logger   *slog.Logger
	observer DecodeObserver
	stats    *decodeCounters
}

// Option customizes a Decoder.
type Option func(*Decoder)

// WithLogger sets the logger used for per-decode diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(d *Decoder) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithObserver registers an observer notified after every decode.
func WithObserver(o DecodeObserver) Option {
	return func(d *Decoder) { d.observer = o }
}

// WithWorkers sets how many goroutines evaluate the paths of one position.
// Values below 2 evaluate inline.
func WithWorkers(n int) Option {
	return func(d *Decoder) { d.workers = max(1, n) }
}

// NewDecoder validates cfg and builds a decoder.
func NewDecoder(cfg Config, opts ...Option) (*Decoder, error) {
	n, ok := log2(cfg.N)
	if !ok {
		return nil, configErr("N", "%d is not a power of two", cfg.N)
	}
	if cfg.K < 1 || cfg.K > cfg.N {
		return nil, configErr("K", "%d not in [1,%d]", cfg.K, cfg.N)
	}
	if cfg.L < 1 {
		return nil, configErr("L", "list size must be >= 1, got %d", cfg.L)
	}
	if math.IsNaN(cfg.PSubst) || cfg.PSubst < 0 || cfg.PSubst > 1 {
		return nil, configErr("substitution probability", "%v not in [0,1]", cfg.PSubst)
	}
	if cfg.DriftMode != DriftExpectation && cfg.DriftMode != DriftSampled {
		return nil, configErr("drift mode", "unknown mode %d", int(cfg.DriftMode))
	}
	tm, err := BuildTransitionMatrix(cfg.MaxDrift, cfg.PInsert, cfg.PDelete)
	if err != nil {
		return nil, err
	}
	if len(cfg.Frozen) != cfg.N-cfg.K {
		return nil, configErr("frozen positions", "got %d, want N-K = %d", len(cfg.Frozen), cfg.N-cfg.K)
	}
	frozen, err := NewFrozenSet(cfg.N, cfg.Frozen)
	if err != nil {
		return nil, err
	}
	var poly Polynomial
	if len(cfg.Polynomial) > 0 {
		poly = trimPolynomial(cfg.Polynomial)
		if len(poly) == 0 {
			return nil, configErr("polynomial", "no nonzero coefficient")
		}
		if poly.Degree() >= cfg.K {
			return nil, configErr("polynomial", "degree %d must be below K = %d", poly.Degree(), cfg.K)
		}
	}
	cfg.Frozen = append([]int(nil), cfg.Frozen...)
	cfg.Polynomial = poly
	d := &Decoder{
		cfg:     cfg,
		n:       n,
		frozen:  frozen,
		poly:    poly,
		drift:   tm,
		leafMag: substitutionLLR(cfg.PSubst),
		workers: 1,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		stats:   &decodeCounters{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Config returns a copy of the decoder configuration.
func (d *Decoder) Config() Config {
	c := d.cfg
	c.Frozen = append([]int(nil), d.cfg.Frozen...)
	c.Polynomial = append(Polynomial(nil), d.poly...)
	return c
}

// FrozenSet returns the frozen set of the code.
func (d *Decoder) FrozenSet() *FrozenSet { return d.frozen }

// MessageLen is the number of payload bits per codeword, K minus the
// checksum width.
func (d *Decoder) MessageLen() int { return d.cfg.K - d.poly.Degree() }

// EncodeMessage attaches the checksum (when configured) to msg and polar
// encodes the resulting K information bits.
func (d *Decoder) EncodeMessage(msg []uint8) ([]uint8, error) {
	if len(msg) != d.MessageLen() {
		return nil, fmt.Errorf("message has %d bits, want %d", len(msg), d.MessageLen())
	}
	return EncodePolar(d.attach(msg), d.frozen)
}

// attach returns msg followed by its remainder. Unlike AttachChecksum it
// accepts messages shorter than the polynomial degree; NewDecoder already
// bounds the degree by K.
func (d *Decoder) attach(msg []uint8) []uint8 {
	info := normalizeBits(msg)
	if len(d.poly) == 0 {
		return info
	}
	return append(info, divide(info, d.poly, make([]uint8, d.poly.Degree()))...)
}

// Result is the outcome of one decode call.
type Result struct {
	// Bits are the K decoded information bits.
	Bits []uint8
	// Message is Bits without the trailing checksum.
	Message []uint8
	// Verified is set when the returned survivor passed the checksum. An
	// unverified result is the best-metric guess.
	Verified bool
	Metric   float64
	// Survivors is the size of the final list; Valid how many of them
	// passed the checksum.
	Survivors int
	Valid     int
	// Drift is the drift trajectory of the returned path, one entry per
	// codeword position.
	Drift []int
}

type decodeStage int

const (
	stageAwaitingLLR decodeStage = iota
	stageFrozenStep
	stageInfoStep
	stageDone
)

// decodeState is the per-call context; nothing in it outlives Decode.
type decodeState struct {
	stage decodeStage
	i     int
	pm    *pathManager
}

func (st *decodeState) advance(d *Decoder) {
	switch st.stage {
	case stageAwaitingLLR:
		if st.i == d.cfg.N {
			st.stage = stageDone
			return
		}
		st.pm.evaluate(st.i)
		if d.frozen.IsFrozen(st.i) {
			st.stage = stageFrozenStep
		} else {
			st.stage = stageInfoStep
		}
	case stageFrozenStep:
		st.pm.freeze(st.i)
		st.i++
		st.stage = stageAwaitingLLR
	case stageInfoStep:
		st.pm.extend(st.i)
		st.i++
		st.stage = stageAwaitingLLR
	}
}

// run decodes all N positions and returns the final state.
func (d *Decoder) run(obs []uint8) *decodeState {
	st := &decodeState{stage: stageAwaitingLLR, pm: newPathManager(d, normalizeBits(obs))}
	for st.stage != stageDone {
		st.advance(d)
	}
	return st
}

// Decode recovers the K information bits from a received sequence of any
// length. Non-zero observation symbols are read as 1. It never fails: when
// no survivor passes the checksum the best-metric survivor is returned with
// Verified unset.
func (d *Decoder) Decode(observations []uint8) Result {
	start := time.Now()
	st := d.run(observations)
	paths := st.pm.paths
	idx, valid := d.selectSurvivor(paths)
	best := paths[idx]
	info := d.infoBits(best)
	res := Result{
		Bits:      info,
		Message:   info[:d.MessageLen()],
		Verified:  valid > 0,
		Metric:    best.metric,
		Survivors: len(paths),
		Valid:     valid,
		Drift:     append([]int(nil), best.drift...),
	}
	elapsed := time.Since(start)
	d.stats.record(elapsed, res.Verified)
	if !res.Verified {
		d.logger.Debug("decode unverified",
			"n", d.cfg.N,
			"k", d.cfg.K,
			"list", d.cfg.L,
			"observations", len(observations),
			"metric", res.Metric,
		)
	}
	if d.observer != nil {
		d.observer.ObserveDecode(DecodeEvent{
			N:            d.cfg.N,
			K:            d.cfg.K,
			L:            d.cfg.L,
			Observations: len(observations),
			Duration:     elapsed,
			Verified:     res.Verified,
			Survivors:    res.Survivors,
			Valid:        valid,
		})
	}
	return res
}

func (d *Decoder) infoBits(p *path) []uint8 {
	out := make([]uint8, 0, d.cfg.K)
	for _, pos := range d.frozen.InfoPositions() {
		out = append(out, p.bits[pos])
	}
	return out
}

// passesChecksum reports whether the information bits of p carry a valid
// checksum. Without a polynomial nothing is verified.
func (d *Decoder) passesChecksum(p *path) bool {
	if len(d.poly) == 0 {
		return false
	}
	info := d.infoBits(p)
	split := d.MessageLen()
	for _, b := range divide(info[:split], d.poly, info[split:]) {
		if b != 0 {
			return false
		}
	}
	return true
}

// selectSurvivor picks the returned path: the best-metric survivor among
// those passing the checksum, otherwise the best-metric survivor overall.
// Metric ties go to the lower index. valid counts checksum-passing paths.
func (d *Decoder) selectSurvivor(paths []*path) (idx, valid int) {
	bestValid, bestAny := -1, 0
	for k, p := range paths {
		if p.metric > paths[bestAny].metric {
			bestAny = k
		}
		if !d.passesChecksum(p) {
			continue
		}
		valid++
		if bestValid < 0 || p.metric > paths[bestValid].metric {
			bestValid = k
		}
	}
	if bestValid >= 0 {
		return bestValid, valid
	}
	return bestAny, 0
}
