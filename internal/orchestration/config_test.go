package orchestration_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/cfrsolve/internal/orchestration"
)

func TestLoadDriverConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := orchestration.LoadDriverConfig(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	assert.Equal(t, orchestration.DefaultDriverConfig(), *cfg)
}

func TestLoadDriverConfigOverridesOnlySetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
game = "leduc"
workers = 4
total_iterations = 250000
`), 0o644))

	cfg, err := orchestration.LoadDriverConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "leduc", cfg.Game)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, uint64(250000), cfg.TotalIterations)
	// Unset fields keep the defaults.
	assert.Equal(t, orchestration.DefaultDriverConfig().CheckpointEvery, cfg.CheckpointEvery)
	assert.Equal(t, orchestration.DefaultDriverConfig().Sampling, cfg.Sampling)
}

func TestValidateRejectsUnknownGame(t *testing.T) {
	cfg := orchestration.DefaultDriverConfig()
	cfg.Game = "checkers"
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresDescriptorPath(t *testing.T) {
	cfg := orchestration.DefaultDriverConfig()
	cfg.Game = "descriptor"
	cfg.DescriptorPath = ""
	assert.Error(t, cfg.Validate())

	cfg.DescriptorPath = "game.descriptor"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadCounts(t *testing.T) {
	cfg := orchestration.DefaultDriverConfig()
	cfg.Workers = 0
	assert.Error(t, cfg.Validate())

	cfg = orchestration.DefaultDriverConfig()
	cfg.TotalIterations = 0
	assert.Error(t, cfg.Validate())

	cfg = orchestration.DefaultDriverConfig()
	cfg.Sampling = "monte-carlo"
	assert.Error(t, cfg.Validate())
}
