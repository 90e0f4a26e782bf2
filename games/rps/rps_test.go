package rps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/cfrsolve/internal/randutil"
	"github.com/lox/cfrsolve/sdk/cfr"
)

func TestActionOrderInvariant(t *testing.T) {
	g := New()
	root := g.Root()
	require.Equal(t, cfr.Decision, root.Kind())

	p2 := root.Step(Rock)
	assert.Equal(t, cfr.InfoSetKey("0"), root.InfoSet())
	assert.Equal(t, cfr.InfoSetKey("1"), p2.InfoSet())

	// Every P2 history (regardless of P1's move) must expose identical
	// action order, since they all share infoset "1".
	for _, m := range []int{Rock, Paper, Scissors} {
		h := root.Step(m)
		assert.Equal(t, []int{Rock, Paper, Scissors}, h.Actions())
	}
}

func TestConvergesToUniform(t *testing.T) {
	g := New()
	eng := cfr.NewEngine(g, cfr.OutcomeSampling)
	rng := randutil.New(1)

	const iterations = 10_000
	for i := 0; i < iterations; i++ {
		eng.Iteration(rng)
	}

	rows := make(map[cfr.InfoSetKey][]float64)
	eng.Table().Range(func(k cfr.InfoSetKey, m *cfr.Minimizer) {
		rows[k] = m.RawAveragePolicy()
	})
	strategy := g.GetStrategy(rows)

	for _, key := range []cfr.InfoSetKey{"0", "1"} {
		row := strategy.At(key)
		require.Len(t, row, 3)
		for _, p := range row {
			assert.InDelta(t, 1.0/3.0, p, 0.02)
		}
	}

	tree := cfr.BuildTree(g)
	gap := cfr.NashGap(tree, strategy, 0, 1)
	assert.InDelta(t, 0, gap, 0.02)
}

// TestBestResponseCorrectness checks the spec's named RPS best-response
// scenario: against a pure-strategy opponent (P1 always rock, P2 always
// scissors) the best response is the one move that beats it.
func TestBestResponseCorrectness(t *testing.T) {
	g := New()
	sigma := cfr.NewStrategy(map[cfr.InfoSetKey][]float64{
		"0": {1, 0, 0}, // player 0 always plays Rock
		"1": {0, 0, 1}, // player 1 always plays Scissors
	})

	tree := cfr.BuildTree(g)

	br0 := tree.BestResponse(sigma, 0)
	assert.Equal(t, []float64{1, 0, 0}, br0.At("0")) // Rock beats Scissors

	br1 := tree.BestResponse(sigma, 1)
	assert.Equal(t, []float64{0, 1, 0}, br1.At("1")) // Paper beats Rock
}
