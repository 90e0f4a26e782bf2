package cfr_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/cfrsolve/sdk/cfr"
)

func TestCheckpointRoundTrip(t *testing.T) {
	const actionMax = 3
	table := cfr.NewTable()

	m0 := table.Get("A")
	require.NoError(t, m0.SetDim(actionMax))
	require.NoError(t, m0.SetPlayer(0))
	m0.ObserveUtility([]float64{1, -1, 0}, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3})
	m0.IncrementAvgPolicy(0, 0.5)
	m0.IncrementAvgPolicy(1, 0.5)

	m1 := table.Get("B")
	require.NoError(t, m1.SetDim(actionMax))
	require.NoError(t, m1.SetPlayer(1))
	m1.IncrementAvgPolicy(2, 1.0)

	cfg := cfr.DefaultEngineConfig()
	prefix := filepath.Join(t.TempDir(), "ckpt")
	require.NoError(t, cfr.SaveCheckpoint(prefix, table, []int{0, 1}, cfg, 42, actionMax))

	restored, meta, err := cfr.LoadCheckpoint(prefix, []int{0, 1}, actionMax)
	require.NoError(t, err)
	assert.Equal(t, int64(42), meta.Iteration)
	assert.ElementsMatch(t, []string{"A", "B"}, meta.Keys)

	rm0 := restored.Get("A")
	assert.Equal(t, m0.Regret(), rm0.Regret())
	assert.Equal(t, m0.RawAveragePolicy(), rm0.RawAveragePolicy())
	assert.Equal(t, 0, rm0.Player())

	rm1 := restored.Get("B")
	assert.Equal(t, m1.RawAveragePolicy(), rm1.RawAveragePolicy())
	assert.Equal(t, 1, rm1.Player())
}
