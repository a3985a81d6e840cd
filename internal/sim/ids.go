package sim

import (
	"fmt"
	"math/rand"

	"github.com/observe-l/idspolar/internal/dropper"
)

// Scenario holds the per-symbol error rates of an insertion, deletion and
// substitution channel.
type Scenario struct {
	PInsert float64 `yaml:"p_insert" json:"p_insert"`
	PDelete float64 `yaml:"p_delete" json:"p_delete"`
	PSubst  float64 `yaml:"p_subst" json:"p_subst"`
	// Alphabet is the number of distinct symbols, 2 for bits and 4 for DNA
	// bases. Zero means 2.
	Alphabet int `yaml:"alphabet" json:"alphabet"`
}

func (s Scenario) alphabet() int {
	if s.Alphabet == 0 {
		return 2
	}
	return s.Alphabet
}

// Validate checks the rates. PInsert must stay below 1 since every insertion
// re-examines the current symbol.
func (s Scenario) Validate() error {
	for _, p := range []struct {
		name string
		v    float64
	}{{"p_insert", s.PInsert}, {"p_delete", s.PDelete}, {"p_subst", s.PSubst}} {
		if !(p.v >= 0 && p.v <= 1) {
			return fmt.Errorf("sim: %s = %v not in [0,1]", p.name, p.v)
		}
	}
	if s.PInsert >= 1 {
		return fmt.Errorf("sim: p_insert must be below 1")
	}
	if s.alphabet() < 2 || s.alphabet() > 256 {
		return fmt.Errorf("sim: alphabet size %d not in [2,256]", s.Alphabet)
	}
	return nil
}

// IDSChannel corrupts symbol sequences. It is not safe for concurrent use;
// give every goroutine its own channel and rng.
type IDSChannel struct {
	sc     Scenario
	rng    *rand.Rand
	events *dropper.IDS
	subst  *dropper.Bernoulli
}

func NewIDSChannel(sc Scenario, rng *rand.Rand) (*IDSChannel, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &IDSChannel{
		sc:     sc,
		rng:    rng,
		events: dropper.NewIDS(sc.PInsert, sc.PDelete, rng),
		subst:  dropper.New(sc.PSubst, rng),
	}, nil
}

// Transmit sends x through the channel. drift[i] is the number of
// insertions minus deletions once input symbol i has been handled, so a
// receiver finds x[i+1] at y[i+1+drift[i]] unless it was deleted.
func (c *IDSChannel) Transmit(x []uint8) (y []uint8, drift []int) {
	q := c.sc.alphabet()
	y = make([]uint8, 0, len(x)+len(x)/8+1)
	drift = make([]int, len(x))
	cur := 0
	for i := 0; i < len(x); {
		switch c.events.Next() {
		case dropper.Insert:
			y = append(y, uint8(c.rng.Intn(q)))
			cur++
			continue
		case dropper.Delete:
			cur--
		default:
			sym := x[i]
			if c.subst.Drop() {
				sym = c.substitute(sym, q)
			}
			y = append(y, sym)
		}
		drift[i] = cur
		i++
	}
	return y, drift
}

// substitute returns a symbol different from s, uniformly.
func (c *IDSChannel) substitute(s uint8, q int) uint8 {
	r := uint8(c.rng.Intn(q - 1))
	if r >= s {
		r++
	}
	return r
}
