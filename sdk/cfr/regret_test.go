package cfr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/cfrsolve/sdk/cfr"
)

// TestNextPolicyIsAProbabilityDistribution checks property 1: regret
// matching's output is always a valid probability distribution, both before
// any regret has accumulated (uniform fallback) and after.
func TestNextPolicyIsAProbabilityDistribution(t *testing.T) {
	table := cfr.NewTable()
	m := table.Get("infoset")
	require.NoError(t, m.SetDim(3))
	require.NoError(t, m.SetPlayer(0))

	check := func() {
		out := make([]float64, 3)
		m.NextPolicy(out)
		var sum float64
		for _, p := range out {
			assert.GreaterOrEqual(t, p, 0.0)
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}

	check() // no regret observed yet: uniform fallback

	m.ObserveUtility([]float64{3, -1, 0.5}, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3})
	check()

	m.ObserveUtility([]float64{-2, 4, -1}, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3})
	check()
}

// TestObserveUtilityPreservesCounterfactualIdentity checks property 2: the
// regret increment for action i is u[i] - <lastPolicy, u>, so its
// expectation under lastPolicy is exactly zero.
func TestObserveUtilityPreservesCounterfactualIdentity(t *testing.T) {
	table := cfr.NewTable()
	m := table.Get("infoset")
	require.NoError(t, m.SetDim(3))
	require.NoError(t, m.SetPlayer(0))

	lastPolicy := []float64{0.2, 0.5, 0.3}
	u := []float64{1, -2, 0.5}

	before := m.Regret()
	m.ObserveUtility(u, lastPolicy)
	after := m.Regret()

	var avg float64
	for i := range u {
		avg += lastPolicy[i] * u[i]
	}

	var dotWithPolicy float64
	for i := range u {
		delta := after[i] - before[i]
		assert.InDelta(t, u[i]-avg, delta, 1e-9)
		dotWithPolicy += lastPolicy[i] * delta
	}
	assert.InDelta(t, 0, dotWithPolicy, 1e-9)
}
