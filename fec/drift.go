package fec

import (
	"math"
	"math/rand"
)

// TransitionMatrix is the bounded random-walk law of the synchronization
// offset. Row and column index o+D stands for offset o in [-D, D].
// It is immutable after construction.
type TransitionMatrix struct {
	D      int
	PIns   float64
	PDel   float64
	states [][]float64
}

// BuildTransitionMatrix builds the (2D+1)x(2D+1) drift transition matrix.
// Interior offsets move down with probability pd, up with pi and stay
// otherwise. Boundary rows keep the mass that would leave [-D, D] on the
// diagonal.
func BuildTransitionMatrix(D int, pi, pd float64) (*TransitionMatrix, error) {
	if D < 0 {
		return nil, configErr("max drift", "must be >= 0, got %d", D)
	}
	if err := checkProbabilities(pi, pd); err != nil {
		return nil, err
	}
	size := 2*D + 1
	P := make([][]float64, size)
	for i := range P {
		P[i] = make([]float64, size)
	}
	if D == 0 {
		P[0][0] = 1
		return &TransitionMatrix{D: D, PIns: pi, PDel: pd, states: P}, nil
	}
	for d := -D; d <= D; d++ {
		row := P[d+D]
		if d > -D {
			row[d-1+D] = pd
		}
		if d < D {
			row[d+1+D] = pi
		}
		switch d {
		case -D:
			row[d+D] = 1 - pi
		case D:
			row[d+D] = 1 - pd
		default:
			row[d+D] = 1 - pi - pd
		}
	}
	return &TransitionMatrix{D: D, PIns: pi, PDel: pd, states: P}, nil
}

func checkProbabilities(pi, pd float64) error {
	if math.IsNaN(pi) || pi < 0 || pi > 1 {
		return configErr("insertion probability", "%v not in [0,1]", pi)
	}
	if math.IsNaN(pd) || pd < 0 || pd > 1 {
		return configErr("deletion probability", "%v not in [0,1]", pd)
	}
	if pi+pd > 1 {
		return configErr("drift probabilities", "pi+pd = %v exceeds 1", pi+pd)
	}
	return nil
}

// Size is the number of drift states, 2D+1.
func (m *TransitionMatrix) Size() int { return len(m.states) }

// Prob returns P(next = to | current = from). Offsets outside [-D, D] have
// probability zero.
func (m *TransitionMatrix) Prob(from, to int) float64 {
	if from < -m.D || from > m.D || to < -m.D || to > m.D {
		return 0
	}
	return m.states[from+m.D][to+m.D]
}

// Row returns a copy of the distribution of the next offset given d.
func (m *TransitionMatrix) Row(d int) []float64 {
	d = m.clamp(d)
	return append([]float64(nil), m.states[d+m.D]...)
}

// Step draws the offset following d.
func (m *TransitionMatrix) Step(rng *rand.Rand, d int) int {
	d = m.clamp(d)
	row := m.states[d+m.D]
	u := rng.Float64()
	acc := 0.0
	for j, p := range row {
		acc += p
		if u < acc {
			return j - m.D
		}
	}
	// rounding left u above the accumulated mass; fall back to the last
	// reachable state
	for j := len(row) - 1; j >= 0; j-- {
		if row[j] > 0 {
			return j - m.D
		}
	}
	return d
}

// PointBelief is the belief vector concentrated on offset d.
func (m *TransitionMatrix) PointBelief(d int) []float64 {
	b := make([]float64, m.Size())
	b[m.clamp(d)+m.D] = 1
	return b
}

// Propagate returns belief·P, the offset distribution one step later.
func (m *TransitionMatrix) Propagate(belief []float64) []float64 {
	out := make([]float64, m.Size())
	for i, w := range belief {
		if w == 0 {
			continue
		}
		for j, p := range m.states[i] {
			out[j] += w * p
		}
	}
	return out
}

// ExpectedDrift is the mean offset of belief.
func (m *TransitionMatrix) ExpectedDrift(belief []float64) float64 {
	var mean, total float64
	for i, w := range belief {
		mean += w * float64(i-m.D)
		total += w
	}
	if total == 0 {
		return 0
	}
	return mean / total
}

func (m *TransitionMatrix) clamp(d int) int {
	if d < -m.D {
		return -m.D
	}
	if d > m.D {
		return m.D
	}
	return d
}

// SampleTrace draws a drift trajectory of the given length starting from
// offset 0. Entry i is the offset after the i-th transition.
func SampleTrace(rng *rand.Rand, D int, pi, pd float64, length int) ([]int, error) {
	if length < 0 {
		return nil, configErr("trace length", "must be >= 0, got %d", length)
	}
	m, err := BuildTransitionMatrix(D, pi, pd)
	if err != nil {
		return nil, err
	}
	trace := make([]int, length)
	d := 0
	for i := range trace {
		d = m.Step(rng, d)
		trace[i] = d
	}
	return trace, nil
}
