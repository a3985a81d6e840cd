package fec_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/observe-l/idspolar/fec"
	"github.com/observe-l/idspolar/internal/dna"
	"github.com/observe-l/idspolar/internal/sim"
)

func newArchive(t *testing.T, ps float64) *fec.Archive {
	t.Helper()
	a, err := fec.NewArchive(fec.ArchiveParams{
		Code:       becConfig(t, 128, 56, 8, fec.CRC8, 0, 0, ps),
		SymbolSize: 4,
		Repair:     12,
	}, fec.WithWorkers(2))
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	return a
}

func TestArchiveOverSubstitutionChannel(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	payload := make([]byte, 120)
	rng.Read(payload)

	a := newArchive(t, 0.005)
	strands, m, err := a.Encode(payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	ch, err := sim.NewIDSChannel(sim.Scenario{PSubst: 0.005}, rng)
	if err != nil {
		t.Fatalf("channel: %v", err)
	}
	received := fec.TransmitAll(ch, strands)
	rng.Shuffle(len(received), func(i, j int) { received[i], received[j] = received[j], received[i] })

	got, stats, err := a.Decode(received, m)
	if err != nil {
		t.Fatalf("decode: %v (stats %+v)", err, stats)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch")
	}
	t.Logf("strands=%d verified=%d used=%d", stats.Strands, stats.Verified, stats.Used)
}

func TestArchiveOverBaseChannel(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	payload := make([]byte, 80)
	rng.Read(payload)

	a := newArchive(t, 0.005)
	strands, m, err := a.Encode(payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	ch, err := sim.NewIDSChannel(sim.Scenario{PSubst: 0.003, Alphabet: 4}, rng)
	if err != nil {
		t.Fatalf("channel: %v", err)
	}
	received := make([][]uint8, len(strands))
	for i, s := range strands {
		seq, err := dna.FromBits(s)
		if err != nil {
			t.Fatalf("strand %d to bases: %v", i, err)
		}
		if err := dna.Validate(seq); err != nil {
			t.Fatalf("strand %d: %v", i, err)
		}
		sym, err := dna.ToSymbols(seq)
		if err != nil {
			t.Fatalf("strand %d symbols: %v", i, err)
		}
		rx, _ := ch.Transmit(sym)
		back, err := dna.FromSymbols(rx)
		if err != nil {
			t.Fatalf("strand %d from symbols: %v", i, err)
		}
		if received[i], err = dna.ToBits(back); err != nil {
			t.Fatalf("strand %d to bits: %v", i, err)
		}
	}

	got, stats, err := a.Decode(received, m)
	if err != nil {
		t.Fatalf("decode: %v (stats %+v)", err, stats)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestArchiveSurvivesStrandLoss(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	payload := make([]byte, 64)
	rng.Read(payload)

	a := newArchive(t, 0.01)
	strands, m, err := a.Encode(payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// drop fewer strands than there are repair symbols
	drop := 6
	perm := rng.Perm(len(strands))
	kept := make([][]uint8, 0, len(strands)-drop)
	for _, i := range perm[drop:] {
		kept = append(kept, strands[i])
	}
	got, stats, err := a.Decode(kept, m)
	if err != nil {
		t.Fatalf("decode: %v (stats %+v)", err, stats)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch")
	}
	if stats.Verified != len(kept) {
		t.Fatalf("verified %d of %d clean strands", stats.Verified, len(kept))
	}
}
