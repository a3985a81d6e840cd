package fec

import (
	"sync/atomic"
	"time"
)

// DecodeEvent describes one finished decode call.
type DecodeEvent struct {
	N, K, L      int
	Observations int
	Duration     time.Duration
	Verified     bool
	Survivors    int
	Valid        int
}

// DecodeObserver receives an event after every decode. Implementations
// must be safe for concurrent use.
type DecodeObserver interface {
	ObserveDecode(DecodeEvent)
}

// --- Decode metrics (verified vs unverified) ---
// A "verified" decode returned a survivor that passed the checksum.
// An "unverified" decode fell back to the best-metric survivor.
type decodeCounters struct {
	verified     atomic.Int64
	unverified   atomic.Int64
	verifiedNs   atomic.Int64
	unverifiedNs atomic.Int64
}

func (c *decodeCounters) record(d time.Duration, verified bool) {
	if verified {
		c.verified.Add(1)
		c.verifiedNs.Add(int64(d))
		return
	}
	c.unverified.Add(1)
	c.unverifiedNs.Add(int64(d))
}

// DecodeStats is a snapshot of a decoder's accumulated metrics.
type DecodeStats struct {
	Decodes         int64
	Verified        int64
	Unverified      int64
	VerifiedTotal   time.Duration
	UnverifiedTotal time.Duration
	AvgPerDecode    time.Duration
}

// Stats returns a snapshot of the decode metrics.
func (d *Decoder) Stats() DecodeStats {
	c := d.stats
	s := DecodeStats{
		Verified:        c.verified.Load(),
		Unverified:      c.unverified.Load(),
		VerifiedTotal:   time.Duration(c.verifiedNs.Load()),
		UnverifiedTotal: time.Duration(c.unverifiedNs.Load()),
	}
	s.Decodes = s.Verified + s.Unverified
	if s.Decodes > 0 {
		s.AvgPerDecode = (s.VerifiedTotal + s.UnverifiedTotal) / time.Duration(s.Decodes)
	}
	return s
}

// ResetStats clears the accumulated decode metrics.
func (d *Decoder) ResetStats() {
	c := d.stats
	c.verified.Store(0)
	c.unverified.Store(0)
	c.verifiedNs.Store(0)
	c.unverifiedNs.Store(0)
}
