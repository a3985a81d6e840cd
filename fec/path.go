package fec

import (
	"cmp"
	"math"
	"math/rand"
	"slices"

	"golang.org/x/sync/errgroup"
)

// path is one candidate decoding. It owns every buffer it points to.
type path struct {
	bits   []uint8
	metric float64 // log-likelihood, 0 for the empty path
	drift  []int   // one entry per decided position
	belief []float64
	tree   *llrTree
}

func newRootPath(N, n int, belief []float64) *path {
	return &path{
		bits:   make([]uint8, N),
		drift:  make([]int, 0, N),
		belief: belief,
		tree:   newLLRTree(n),
	}
}

func (p *path) clone() *path {
	drift := make([]int, len(p.drift), cap(p.drift))
	copy(drift, p.drift)
	return &path{
		bits:   append([]uint8(nil), p.bits...),
		metric: p.metric,
		drift:  drift,
		belief: append([]float64(nil), p.belief...),
		tree:   p.tree.clone(),
	}
}

// driftBefore is the offset the channel is read with at position i.
func (p *path) driftBefore(i int) int {
	if i == 0 || len(p.drift) == 0 {
		return 0
	}
	return p.drift[i-1]
}

// candidate is one child of a split: parent index and bit.
type candidate struct {
	parent int
	bit    uint8
	metric float64
}

// pathManager owns the candidate list of a single decode call.
type pathManager struct {
	dec   *Decoder
	obs   []uint8
	paths []*path
	llrs  []float64
	rng   *rand.Rand // DriftSampled only
	cands []candidate
}

func newPathManager(dec *Decoder, obs []uint8) *pathManager {
	pm := &pathManager{
		dec:   dec,
		obs:   obs,
		paths: []*path{newRootPath(dec.cfg.N, dec.n, dec.drift.PointBelief(0))},
		llrs:  make([]float64, 0, dec.cfg.L),
		cands: make([]candidate, 0, 2*dec.cfg.L),
	}
	if dec.cfg.DriftMode == DriftSampled {
		pm.rng = rand.New(rand.NewSource(dec.cfg.Seed))
	}
	return pm
}

// evaluate computes the decision LLR of position i for every path. Paths
// are independent, so they are spread over the configured workers.
func (pm *pathManager) evaluate(i int) {
	pm.llrs = pm.llrs[:len(pm.paths)]
	mag := pm.dec.leafMag
	if pm.dec.workers <= 1 || len(pm.paths) == 1 {
		for k, p := range pm.paths {
			pm.llrs[k] = p.tree.llrAt(i, pm.obs, p.driftBefore(i), mag)
		}
		return
	}
	var g errgroup.Group
	g.SetLimit(pm.dec.workers)
	for k, p := range pm.paths {
		k, p := k, p
		g.Go(func() error {
			pm.llrs[k] = p.tree.llrAt(i, pm.obs, p.driftBefore(i), mag)
			return nil
		})
	}
	_ = g.Wait()
}

// freeze applies a frozen position: bit 0 everywhere, the metric pays the
// likelihood of the forced zero and the drift is carried over unchanged.
func (pm *pathManager) freeze(i int) {
	for k, p := range pm.paths {
		p.bits[i] = 0
		p.metric += logSigmoid(pm.llrs[k])
		p.tree.commit(i, 0)
		p.drift = append(p.drift, p.driftBefore(i))
	}
}

// extend splits every path on an informational position and keeps the L
// most likely children.
func (pm *pathManager) extend(i int) {
	pm.cands = pm.cands[:0]
	for k, p := range pm.paths {
		llr := pm.llrs[k]
		pm.cands = append(pm.cands,
			candidate{parent: k, bit: 0, metric: p.metric + logSigmoid(llr)},
			candidate{parent: k, bit: 1, metric: p.metric + logSigmoid(-llr)},
		)
	}
	slices.SortStableFunc(pm.cands, compareCandidates)
	keep := min(pm.dec.cfg.L, len(pm.cands))
	retained := pm.cands[:keep]

	// a parent kept twice is copied once; its last surviving child takes
	// over the original buffers
	uses := make([]int, len(pm.paths))
	for _, c := range retained {
		uses[c.parent]++
	}
	next := make([]*path, 0, keep)
	for _, c := range retained {
		parent := pm.paths[c.parent]
		child := parent
		if uses[c.parent] > 1 {
			child = parent.clone()
		}
		uses[c.parent]--
		child.bits[i] = c.bit
		child.metric = c.metric
		child.tree.commit(i, c.bit)
		child.drift = append(child.drift, pm.nextDrift(child, i))
		next = append(next, child)
	}
	pm.paths = next
}

func compareCandidates(a, b candidate) int {
	if c := cmp.Compare(b.metric, a.metric); c != 0 {
		return c
	}
	if c := cmp.Compare(a.parent, b.parent); c != 0 {
		return c
	}
	return cmp.Compare(a.bit, b.bit)
}

// nextDrift advances the drift estimate of an extended path.
func (pm *pathManager) nextDrift(p *path, i int) int {
	m := pm.dec.drift
	prev := p.driftBefore(i)
	if pm.rng != nil {
		return m.Step(pm.rng, prev)
	}
	p.belief = m.Propagate(p.belief)
	d := int(math.Round(m.ExpectedDrift(p.belief)))
	return max(-m.D, min(m.D, d))
}
