package dropper

import (
	"math/rand"
)

// Bernoulli implements a simple u<p event decision.
type Bernoulli struct {
	p   float64
	rng *rand.Rand
}

func New(p float64, rng *rand.Rand) *Bernoulli { return &Bernoulli{p: p, rng: rng} }

// P is the event probability.
func (b *Bernoulli) P() float64 { return b.p }

func (b *Bernoulli) Drop() bool {
	if b.p <= 0 {
		return false
	}
	if b.p >= 1 {
		return true
	}
	return b.rng.Float64() < b.p
}

// Event is the outcome of one symbol slot of an insertion/deletion channel.
type Event int

const (
	Transmit Event = iota
	Insert
	Delete
)

func (e Event) String() string {
	switch e {
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	default:
		return "transmit"
	}
}

// IDS draws insertion, deletion or plain transmission for one slot. The
// insertion trial runs first; the deletion trial only when no insertion
// happened.
type IDS struct {
	ins *Bernoulli
	del *Bernoulli
}

// NewIDS shares rng between both trials.
func NewIDS(pi, pd float64, rng *rand.Rand) *IDS {
	return &IDS{ins: New(pi, rng), del: New(pd, rng)}
}

func (d *IDS) Next() Event {
	if d.ins.Drop() {
		return Insert
	}
	if d.del.Drop() {
		return Delete
	}
	return Transmit
}
