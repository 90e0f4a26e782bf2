package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/cfrsolve/internal/randutil"
	"github.com/lox/cfrsolve/sdk/cfr"
)

func TestLeducLoadsAndWalks(t *testing.T) {
	g, err := LoadLeduc()
	require.NoError(t, err)
	assert.Equal(t, 2, g.NumPlayers())
	assert.GreaterOrEqual(t, g.ActionMax(), numCards)

	root := g.Root()
	require.Equal(t, cfr.Chance, root.Kind())
	require.Len(t, root.Actions(), numCards)

	// Walk one full hand down the "always bet/call" line and confirm it
	// terminates with a zero-sum payoff.
	s := root
	for s.Kind() != cfr.Terminal {
		switch s.Kind() {
		case cfr.Chance:
			s = s.Step(0)
		case cfr.Decision:
			// Every Leduc decision has two actions: x/b when opening,
			// f/c when facing a bet. Taking the second one bets when
			// opening and calls when facing a bet, so no one folds.
			acts := s.Actions()
			if len(acts) == 2 {
				s = s.Step(1)
			} else {
				s = s.Step(0)
			}
		}
	}
	u0 := s.Utility(0)
	u1 := s.Utility(1)
	assert.InDelta(t, 0, u0+u1, 1e-9)
}

// TestLeducTreeplexAgreesWithFullTree checks the spec's "Treeplex vs
// full-tree agreement" scenario on Leduc: EvalFast's treeplex compaction
// must agree with the full-tree Nash gap for a non-uniform strategy.
func TestLeducTreeplexAgreesWithFullTree(t *testing.T) {
	g, err := LoadLeduc()
	require.NoError(t, err)

	eng := cfr.NewEngine(g, cfr.OutcomeSampling)
	rng := randutil.New(11)

	const iterations = 2_000
	for i := 0; i < iterations; i++ {
		eng.Iteration(rng)
	}

	rows := make(map[cfr.InfoSetKey][]float64)
	eng.Table().Range(func(k cfr.InfoSetKey, m *cfr.Minimizer) {
		rows[k] = m.RawAveragePolicy()
	})
	strategy := g.GetStrategy(rows)

	tree := cfr.BuildTree(g)
	gapTree := cfr.NashGap(tree, strategy, 0, 1)
	gapFast := cfr.EvalFast(g, strategy, 0, 1)
	assert.InDelta(t, gapTree, gapFast, 1e-9)
}

func TestLeducActionOrderInvariant(t *testing.T) {
	g, err := LoadLeduc()
	require.NoError(t, err)

	seen := make(map[cfr.InfoSetKey][]int)
	var walk func(s cfr.State, depth int)
	walk = func(s cfr.State, depth int) {
		if depth > 6 {
			return
		}
		switch s.Kind() {
		case cfr.Terminal:
			return
		case cfr.Chance:
			for i := range s.ActionProbs() {
				walk(s.Step(i), depth+1)
			}
		case cfr.Decision:
			key := s.InfoSet()
			acts := s.Actions()
			if prev, ok := seen[key]; ok {
				assert.Equal(t, prev, acts, "infoset %s action order mismatch", key)
			} else {
				seen[key] = acts
			}
			for i := range acts {
				walk(s.Step(i), depth+1)
			}
		}
	}
	walk(g.Root(), 0)
	assert.NotEmpty(t, seen)
}
