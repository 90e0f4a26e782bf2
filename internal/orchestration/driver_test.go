package orchestration_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/cfrsolve/internal/orchestration"
	"github.com/lox/cfrsolve/sdk/cfr"
)

// A Mock clock never fires on its own; Run must still terminate once the
// worker pool exhausts TotalIterations, without waiting on a tick — this is
// exactly the scenario the fix documented on Driver.Run exists for.
func TestDriverRunsToCompletionAndCheckpoints(t *testing.T) {
	clock := quartz.NewMock(t)
	prefix := filepath.Join(t.TempDir(), "ckpt")

	cfg := orchestration.DriverConfig{
		Game:            "rps",
		Workers:         2,
		TotalIterations: 500,
		CheckpointEvery: 500,
		CheckpointPath:  prefix,
		EvaluateEvery:   500,
		Sampling:        "outcome",
		Seed:            7,
	}
	require.NoError(t, cfg.Validate())

	game, err := orchestration.BuildGame(cfg)
	require.NoError(t, err)

	driver := orchestration.NewDriver(cfg, game, zerolog.Nop(), clock)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, driver.Run(ctx))
	assert.GreaterOrEqual(t, driver.Iterations(), uint64(500))

	// Run's final tick() writes a checkpoint unconditionally on the way out,
	// regardless of whether the periodic ticker ever fired.
	_, meta, err := cfr.LoadCheckpoint(prefix, game.Players(), game.ActionMax())
	require.NoError(t, err)
	assert.NotEmpty(t, meta.Keys)
}

func TestDriverSnapshotReflectsProgress(t *testing.T) {
	clock := quartz.NewMock(t)
	cfg := orchestration.DriverConfig{
		Game:            "kuhn",
		Workers:         1,
		TotalIterations: 200,
		CheckpointEvery: 200,
		EvaluateEvery:   200,
		Sampling:        "outcome",
	}
	require.NoError(t, cfg.Validate())

	game, err := orchestration.BuildGame(cfg)
	require.NoError(t, err)

	driver := orchestration.NewDriver(cfg, game, zerolog.Nop(), clock)

	before := driver.Snapshot()
	assert.Equal(t, "kuhn", before.Game)
	assert.False(t, before.GapKnown)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, driver.Run(ctx))

	after := driver.Snapshot()
	assert.GreaterOrEqual(t, after.Iteration, uint64(200))
	assert.True(t, after.GapKnown)
}

func TestBuildGameRejectsUnknownGame(t *testing.T) {
	_, err := orchestration.BuildGame(orchestration.DriverConfig{Game: "nonsense"})
	assert.Error(t, err)
}
