package cfr

import "math/rand/v2"

// SamplingMode selects which MCCFR episode driver Engine.Iteration runs.
type SamplingMode uint8

const (
	// OutcomeSampling samples a single action at every node (mover,
	// opponent, and chance) and corrects for it by importance weighting.
	OutcomeSampling SamplingMode = iota
	// ExternalSampling samples only at the traversing player's own nodes;
	// opponent and chance nodes are enumerated in full, weighted by their
	// probabilities. Lower variance per iteration, more work per visit.
	ExternalSampling
)

func (m SamplingMode) String() string {
	if m == ExternalSampling {
		return "external-sampling"
	}
	return "outcome-sampling"
}

// exploration is the epsilon-greedy mixing weight applied to the mover's own
// sampling distribution, fixed per the original estimator.
const exploration = 0.6

// Engine owns the shared regret-minimizer table and runs MCCFR episodes
// against a Game. One Engine is shared across every worker goroutine; the
// only mutable shared state it touches is the Table, which is safe for
// concurrent use.
type Engine struct {
	game  Game
	table *Table
	mode  SamplingMode
}

// NewEngine constructs an engine over game using the given sampling mode.
func NewEngine(game Game, mode SamplingMode) *Engine {
	return &Engine{game: game, table: NewTable(), mode: mode}
}

// Table exposes the live regret-minimizer table, e.g. for checkpointing.
func (e *Engine) Table() *Table { return e.table }

// worker carries the per-goroutine scratch state an episode needs: its own
// RNG (spec §5 "parallel RNG" — no shared RNG across threads). Each episode
// call allocates its own action/probability slices rather than sharing a
// buffer across recursion depth — recursive calls for child nodes are live
// simultaneously with the parent's slices on the call stack, so a shared
// buffer would be overwritten by the child before the parent finishes using
// it.
type worker struct {
	rng *rand.Rand
}

func newWorker(rng *rand.Rand) *worker {
	return &worker{rng: rng}
}

// Iteration runs one MCCFR episode per player from the game's root, using
// rng for every sampling decision in this call (per spec §4.2 "One
// iteration: for each player p, run one episode...").
func (e *Engine) Iteration(rng *rand.Rand) {
	w := newWorker(rng)
	for _, p := range e.game.Players() {
		e.episode(w, e.game.Root(), p, 1, 1, 1)
	}
}

// episode recurses from st towards a terminal, dispatching by node kind and
// by whether the acting player is the traversing player. It returns the
// (possibly importance-weighted, possibly exactly-enumerated) utility to
// player from st.
func (e *Engine) episode(w *worker, st State, player int, reachMe, reachOther, reachSample float64) float64 {
	switch st.Kind() {
	case Terminal:
		return st.Utility(player)

	case Chance:
		if e.mode == OutcomeSampling {
			probs := st.ActionProbs()
			idx := sampleIndex(probs, w.rng)
			p := probs[idx]
			child := st.Step(idx)
			return e.episode(w, child, player, reachMe, reachOther*p, reachSample*p)
		}
		// External sampling: chance is a non-mover node, enumerate in full.
		probs := st.ActionProbs()
		var value float64
		for i, p := range probs {
			if p <= 0 {
				continue
			}
			child := st.Step(i)
			value += p * e.episode(w, child, player, reachMe, reachOther*p, reachSample)
		}
		return value
	}

	curPlayer := st.CurrentPlayer()
	key := st.InfoSet()
	numActions := st.NumActions()
	actions := st.Actions()

	m := e.table.Get(key)
	if err := m.SetDim(numActions); err != nil {
		panic(err)
	}
	if err := m.SetPlayer(curPlayer); err != nil {
		panic(err)
	}
	policy := make([]float64, numActions)
	m.NextPolicy(policy)

	if curPlayer != player {
		return e.episodeNonMover(w, st, player, curPlayer, key, policy, actions, reachMe, reachOther, reachSample)
	}
	return e.episodeMover(w, st, player, key, m, policy, actions, reachMe, reachOther, reachSample)
}

// episodeNonMover handles a decision node belonging to a player other than
// the one we're traversing for. Outcome-sampling draws one action; external
// sampling enumerates every legal action weighted by its policy probability.
func (e *Engine) episodeNonMover(w *worker, st State, player, curPlayer int, key InfoSetKey, policy []float64, actions []int, reachMe, reachOther, reachSample float64) float64 {
	if e.mode == OutcomeSampling {
		idx := sampleIndex(policy, w.rng)
		p := policy[idx]
		child := st.Step(idx)
		return e.episode(w, child, player, reachMe, reachOther*p, reachSample*p)
	}
	var value float64
	for i, p := range policy {
		if p <= 0 {
			continue
		}
		child := st.Step(i)
		value += p * e.episode(w, child, player, reachMe, reachOther*p, reachSample)
	}
	return value
}

// episodeMover handles a decision node belonging to the traversing player.
// Both sampling modes behave identically here: build the epsilon-mixed
// sampling distribution, draw one action, recurse, then use the single
// sampled child value to update every action's counterfactual utility via
// the corrected baseline estimator (Open Question 1) before committing the
// regret and average-policy updates.
func (e *Engine) episodeMover(w *worker, st State, player int, key InfoSetKey, m *Minimizer, policy []float64, actions []int, reachMe, reachOther, reachSample float64) float64 {
	numActions := len(actions)
	samplePolicy := make([]float64, numActions)
	for i := range samplePolicy {
		samplePolicy[i] = exploration/float64(numActions) + (1-exploration)*policy[i]
	}

	actionIdx := sampleIndex(samplePolicy, w.rng)
	sigma := samplePolicy[actionIdx]
	child := st.Step(actionIdx)

	newReachMe := reachMe * policy[actionIdx]
	newReachSample := reachSample * sigma

	childValue := e.episode(w, child, player, newReachMe, reachOther, newReachSample)

	const baseline = 0.0
	utility := make([]float64, numActions)
	var value float64
	for i := 0; i < numActions; i++ {
		var cv float64
		if i == actionIdx {
			cv = baseline + (childValue-baseline)/sigma
		} else {
			cv = baseline
		}
		utility[i] = cv * reachOther / reachSample
		value += cv * policy[i]
	}
	m.ObserveUtility(utility, policy)

	for i := 0; i < numActions; i++ {
		increment := reachMe * policy[i] / reachSample
		m.IncrementAvgPolicy(i, increment)
	}

	return value
}

// sampleIndex draws an index from probs proportional to its weight, falling
// back to uniform when the total mass is below the probability-underflow
// threshold (spec §7 numeric near-zeros).
func sampleIndex(probs []float64, rng *rand.Rand) int {
	var sum float64
	for _, p := range probs {
		sum += p
	}
	if sum <= probEpsilon {
		return rng.IntN(len(probs))
	}
	r := rng.Float64() * sum
	var cumulative float64
	for i, p := range probs {
		cumulative += p
		if r < cumulative {
			return i
		}
	}
	return len(probs) - 1
}
