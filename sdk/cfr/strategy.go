package cfr

import "math/rand/v2"

// Strategy is a materialized, read-only policy: a probability row per
// visited infoset. It is what the training loop periodically extracts from
// the live Table (via Game.GetStrategy) for checkpointing, evaluation, and
// play, per spec §4.4.
type Strategy struct {
	rows map[InfoSetKey][]float64
}

// NewStrategy wraps an already-normalized set of per-infoset rows. Callers
// (typically Game.GetStrategy implementations) are responsible for the
// uniform-over-legal fallback on unvisited infosets.
func NewStrategy(rows map[InfoSetKey][]float64) *Strategy {
	return &Strategy{rows: rows}
}

// At returns the probability row for key, or nil if key was never visited.
func (s *Strategy) At(key InfoSetKey) []float64 {
	return s.rows[key]
}

// Clone returns a deep copy, safe to mutate independently of s — used by
// BestResponse, which overwrites only the best-responding player's rows and
// must not disturb the strategy it was computed against.
func (s *Strategy) Clone() *Strategy {
	rows := make(map[InfoSetKey][]float64, len(s.rows))
	for k, v := range s.rows {
		rows[k] = append([]float64(nil), v...)
	}
	return &Strategy{rows: rows}
}

// SetRow overwrites (or inserts) the row at key.
func (s *Strategy) SetRow(key InfoSetKey, row []float64) {
	s.rows[key] = row
}

// rowOrUniform returns s's row at key, or a freshly allocated uniform row
// over n actions if key was never visited — the "uninitialized" row is
// all-zero, never legal to read directly (spec §4.4 invariant).
func rowOrUniform(s *Strategy, key InfoSetKey, n int) []float64 {
	if s != nil {
		if row := s.At(key); row != nil {
			return row
		}
	}
	row := make([]float64, n)
	u := 1.0 / float64(n)
	for i := range row {
		row[i] = u
	}
	return row
}

// SampleAction draws an action index (into State.Actions()) from the
// strategy's row at key using rng. If key is unvisited it samples uniformly
// over n actions.
func (s *Strategy) SampleAction(key InfoSetKey, n int, rng *rand.Rand) int {
	row, ok := s.rows[key]
	if !ok || len(row) == 0 {
		return rng.IntN(n)
	}
	x := rng.Float64()
	var cum float64
	for i, p := range row {
		cum += p
		if x < cum {
			return i
		}
	}
	return len(row) - 1
}

// Evaluate plays out nGames full episodes of game with this strategy
// controlling every player and returns the mean utility per player,
// estimated by plain Monte-Carlo rollout (spec §4.4 evaluate).
func (s *Strategy) Evaluate(g Game, nGames int, rng *rand.Rand) []float64 {
	totals := make([]float64, g.NumPlayers())
	for i := 0; i < nGames; i++ {
		u := s.rollout(g.Root(), rng)
		for p := range totals {
			totals[p] += u[p]
		}
	}
	for p := range totals {
		totals[p] /= float64(nGames)
	}
	return totals
}

// EvaluateAgainstUniform is Evaluate but with every player other than
// `player` replaced by a uniform-random policy, estimating the value of
// `player`'s strategy against an unopinionated opponent (spec §4.4
// evaluate_against_uniform).
func (s *Strategy) EvaluateAgainstUniform(g Game, player, nGames int, rng *rand.Rand) float64 {
	var total float64
	for i := 0; i < nGames; i++ {
		u := s.rolloutMixed(g.Root(), player, rng)
		total += u[player]
	}
	return total / float64(nGames)
}

func (s *Strategy) rollout(st State, rng *rand.Rand) []float64 {
	for {
		switch st.Kind() {
		case Terminal:
			u := make([]float64, 2)
			u[0] = st.Utility(0)
			u[1] = st.Utility(1)
			return u
		case Chance:
			st = st.Step(sampleChance(st, rng))
		default:
			key := st.InfoSet()
			st = st.Step(s.SampleAction(key, st.NumActions(), rng))
		}
	}
}

func (s *Strategy) rolloutMixed(st State, player int, rng *rand.Rand) []float64 {
	for {
		switch st.Kind() {
		case Terminal:
			u := make([]float64, 2)
			u[0] = st.Utility(0)
			u[1] = st.Utility(1)
			return u
		case Chance:
			st = st.Step(sampleChance(st, rng))
		default:
			if st.CurrentPlayer() == player {
				st = st.Step(s.SampleAction(st.InfoSet(), st.NumActions(), rng))
			} else {
				st = st.Step(rng.IntN(st.NumActions()))
			}
		}
	}
}

func sampleChance(st State, rng *rand.Rand) int {
	probs := st.ActionProbs()
	x := rng.Float64()
	var cum float64
	for i, p := range probs {
		cum += p
		if x < cum {
			return i
		}
	}
	return len(probs) - 1
}
