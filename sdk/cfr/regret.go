package cfr

import "sync"

// epsilon below this, a normalizing sum is treated as zero and the uniform
// fallback is used instead of dividing by it (spec §4.1, §7).
const probEpsilon = 1e-9

// Minimizer accumulates regret and average-policy weight for a single
// information set. R and S are protected by two independent mutexes: the
// regret lock guards ObserveUtility/NextPolicy/Regret accessors, the policy
// lock guards IncrementAvgPolicy/AveragePolicy accessors. Splitting them
// keeps the common "read current policy" path from serializing against
// average-policy bookkeeping, matching the per-infoset locking discipline in
// spec §4.1 and §5 — contention is distributed across every infoset in the
// table, not concentrated behind one lock.
type Minimizer struct {
	regretMu sync.Mutex
	policyMu sync.Mutex

	dim    int
	player int // owning player, -1 until first visited
	r      []float64 // cumulative regret R[a]
	s      []float64 // cumulative average-policy weight S[a]
}

// SetDim declares the legal-action count for this infoset. It is idempotent;
// a later call with a different d is an invariant violation (spec §3: "d is
// fixed at first visit; subsequent visits must observe the same d").
func (m *Minimizer) SetDim(d int) error {
	m.regretMu.Lock()
	defer m.regretMu.Unlock()
	if m.dim == 0 {
		m.dim = d
		m.r = make([]float64, d)
		m.policyMu.Lock()
		m.s = make([]float64, d)
		m.policyMu.Unlock()
		return nil
	}
	if m.dim != d {
		return invariantf("SetDim", "infoset dimension changed from %d to %d", m.dim, d)
	}
	return nil
}

// Dim returns the discovered action count, or 0 if never visited.
func (m *Minimizer) Dim() int {
	m.regretMu.Lock()
	defer m.regretMu.Unlock()
	return m.dim
}

// SetPlayer records which player owns this infoset, discovered the same way
// as SetDim: fixed at first visit, an invariant violation if a later visit
// disagrees. Lets checkpointing split average-policy rows per player
// without needing a fully materialized game tree (spec §6.2 `_p<k>.npy`).
func (m *Minimizer) SetPlayer(p int) error {
	m.regretMu.Lock()
	defer m.regretMu.Unlock()
	if m.player == -1 {
		m.player = p
		return nil
	}
	if m.player != p {
		return invariantf("SetPlayer", "infoset owner changed from player %d to %d", m.player, p)
	}
	return nil
}

// Player returns the owning player discovered via SetPlayer, or -1 if never
// visited.
func (m *Minimizer) Player() int {
	m.regretMu.Lock()
	defer m.regretMu.Unlock()
	return m.player
}

// ObserveUtility atomically applies R[i] += u[i] - <lastPolicy, u> for i < d.
func (m *Minimizer) ObserveUtility(u, lastPolicy []float64) {
	m.regretMu.Lock()
	defer m.regretMu.Unlock()
	var avg float64
	for i := 0; i < m.dim; i++ {
		avg += lastPolicy[i] * u[i]
	}
	for i := 0; i < m.dim; i++ {
		m.r[i] += u[i] - avg
	}
}

// NextPolicy writes the regret-matching policy into out[:d]: proportional to
// positive regret, or uniform-1/d when the positive-regret mass is <= 1e-9.
func (m *Minimizer) NextPolicy(out []float64) {
	m.regretMu.Lock()
	defer m.regretMu.Unlock()
	var sum float64
	for i := 0; i < m.dim; i++ {
		if m.r[i] > 0 {
			out[i] = m.r[i]
			sum += m.r[i]
		} else {
			out[i] = 0
		}
	}
	if sum <= probEpsilon {
		uniform := 1.0 / float64(m.dim)
		for i := 0; i < m.dim; i++ {
			out[i] = uniform
		}
		return
	}
	for i := 0; i < m.dim; i++ {
		out[i] /= sum
	}
}

// IncrementAvgPolicy adds delta to the cumulative average-policy weight for
// action a (an index into the infoset's action list, not a raw action id).
func (m *Minimizer) IncrementAvgPolicy(a int, delta float64) {
	m.policyMu.Lock()
	defer m.policyMu.Unlock()
	m.s[a] += delta
}

// AveragePolicy returns the normalized average strategy: S[a] / Σ S, or
// uniform-over-legal if nothing has been accumulated yet.
func (m *Minimizer) AveragePolicy() []float64 {
	m.policyMu.Lock()
	defer m.policyMu.Unlock()
	out := make([]float64, m.dim)
	var sum float64
	for _, v := range m.s {
		sum += v
	}
	if sum <= probEpsilon {
		uniform := 1.0 / float64(m.dim)
		for i := range out {
			out[i] = uniform
		}
		return out
	}
	for i, v := range m.s {
		out[i] = v / sum
	}
	return out
}

// RawAveragePolicy returns a copy of the unnormalized S vector, for
// checkpointing.
func (m *Minimizer) RawAveragePolicy() []float64 {
	m.policyMu.Lock()
	defer m.policyMu.Unlock()
	return append([]float64(nil), m.s...)
}

// SetAveragePolicy restores S from a checkpoint. len(vals) becomes the
// minimizer's dimension if it has not yet been set via SetDim.
func (m *Minimizer) SetAveragePolicy(vals []float64) {
	m.policyMu.Lock()
	m.s = append([]float64(nil), vals...)
	m.policyMu.Unlock()
	m.regretMu.Lock()
	if m.dim == 0 {
		m.dim = len(vals)
	}
	m.regretMu.Unlock()
}

// Regret returns a copy of the cumulative regret vector R, for checkpointing.
func (m *Minimizer) Regret() []float64 {
	m.regretMu.Lock()
	defer m.regretMu.Unlock()
	return append([]float64(nil), m.r...)
}

// SetRegret restores R from a checkpoint.
func (m *Minimizer) SetRegret(vals []float64) {
	m.regretMu.Lock()
	defer m.regretMu.Unlock()
	m.r = append([]float64(nil), vals...)
	if m.dim == 0 {
		m.dim = len(vals)
	}
}
