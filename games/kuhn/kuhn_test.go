package kuhn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/cfrsolve/internal/randutil"
	"github.com/lox/cfrsolve/sdk/cfr"
)

func TestActionOrderInvariantAcrossDeals(t *testing.T) {
	// Every deal that reaches the p0-initial-decision infoset for a given
	// card must expose the same action order ("" history, card 0).
	var actionsByDeal [][]int
	for _, deal := range deals {
		st := State{p0Card: deal[0], p1Card: deal[1], history: ""}
		if st.p0Card != 0 {
			continue
		}
		actionsByDeal = append(actionsByDeal, st.Actions())
	}
	require.NotEmpty(t, actionsByDeal)
	for _, a := range actionsByDeal[1:] {
		assert.Equal(t, actionsByDeal[0], a)
	}
}

func TestNashGapConvergesNearZero(t *testing.T) {
	g := New()
	eng := cfr.NewEngine(g, cfr.OutcomeSampling)
	rng := randutil.New(7)

	const iterations = 100_000
	for i := 0; i < iterations; i++ {
		eng.Iteration(rng)
	}

	rows := make(map[cfr.InfoSetKey][]float64)
	eng.Table().Range(func(k cfr.InfoSetKey, m *cfr.Minimizer) {
		rows[k] = m.RawAveragePolicy()
	})
	strategy := g.GetStrategy(rows)

	tree := cfr.BuildTree(g)
	gap := cfr.NashGap(tree, strategy, 0, 1)
	assert.InDelta(t, 0, gap, 0.01)

	// Kuhn poker's known game value: player 0's expected utility under
	// equilibrium play is -1/18.
	u0 := tree.EvalFor(strategy, 0)
	assert.InDelta(t, -1.0/18.0, u0, 0.01)
}

// TestTreeplexAgreesWithFullTree checks the spec's "Treeplex vs full-tree
// agreement" scenario: the treeplex-compacted evaluator must agree with the
// full-history-tree evaluator's Nash gap for any strategy, not just one near
// equilibrium.
func TestTreeplexAgreesWithFullTree(t *testing.T) {
	g := New()
	eng := cfr.NewEngine(g, cfr.OutcomeSampling)
	rng := randutil.New(3)

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
