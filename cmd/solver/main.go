package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lox/cfrsolve/internal/dashboard"
	"github.com/lox/cfrsolve/internal/orchestration"
	"github.com/lox/cfrsolve/sdk/cfr"
)

var cli struct {
	Debug bool `help:"enable debug logging"`

	Train TrainCmd `cmd:"" help:"run MCCFR training and write checkpoints"`
	Eval  EvalCmd  `cmd:"" help:"report the Nash gap of a checkpoint"`
}

// TrainCmd overrides DriverConfig fields from the command line; Config, if
// given, is loaded first and these flags are applied on top of it (mirrors
// the teacher's TrainCmd: load-then-override, never the other way round).
type TrainCmd struct {
	Config          string `help:"HCL config file (defaults applied if omitted)"`
	Game            string `help:"game to train (rps|kuhn|leduc|ptt|descriptor)"`
	DescriptorPath  string `help:"descriptor file path, required when game=descriptor"`
	Workers         int    `help:"number of concurrent MCCFR workers"`
	Iterations      uint64 `help:"total iterations across all workers"`
	CheckpointPath  string `help:"prefix for checkpoint files"`
	CheckpointEvery uint64 `help:"iterations between checkpoints"`
	EvaluateEvery   uint64 `help:"iterations between Nash-gap estimates"`
	Sampling        string `help:"sampling mode (outcome|external)"`
	Seed            int64  `help:"random seed"`
	Dashboard       bool   `help:"show a live TUI dashboard instead of log lines"`
}

type EvalCmd struct {
	Game           string `help:"game the checkpoint was trained on (rps|kuhn|leduc|ptt|descriptor)" required:""`
	DescriptorPath string `help:"descriptor file path, required when game=descriptor"`
	CheckpointPath string `help:"prefix of the checkpoint to load" required:""`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("solver"),
		kong.Description("MCCFR equilibrium solver"),
		kong.UsageOnError(),
	)

	setupLogger(cli.Debug)

	switch ctx.Command() {
	case "train":
		if err := cli.Train.Run(); err != nil {
			log.Fatal().Err(err).Msg("training failed")
		}
	case "eval":
		if err := cli.Eval.Run(); err != nil {
			log.Fatal().Err(err).Msg("evaluation failed")
		}
	default:
		log.Fatal().Msgf("unknown command: %s", ctx.Command())
	}
}

func setupLogger(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
}

func (cmd *TrainCmd) Run() error {
	var cfg orchestration.DriverConfig
	if cmd.Config != "" {
		loaded, err := orchestration.LoadDriverConfig(cmd.Config)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = *loaded
	} else {
		cfg = orchestration.DefaultDriverConfig()
	}

	if cmd.Game != "" {
		cfg.Game = cmd.Game
	}
	if cmd.DescriptorPath != "" {
		cfg.DescriptorPath = cmd.DescriptorPath
	}
	if cmd.Workers > 0 {
		cfg.Workers = cmd.Workers
	}
	if cmd.Iterations > 0 {
		cfg.TotalIterations = cmd.Iterations
	}
	if cmd.CheckpointPath != "" {
		cfg.CheckpointPath = cmd.CheckpointPath
	}
	if cmd.CheckpointEvery > 0 {
		cfg.CheckpointEvery = cmd.CheckpointEvery
	}
	if cmd.EvaluateEvery > 0 {
		cfg.EvaluateEvery = cmd.EvaluateEvery
	}
	if cmd.Sampling != "" {
		cfg.Sampling = cmd.Sampling
	}
	if cmd.Seed != 0 {
		cfg.Seed = cmd.Seed
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	game, err := orchestration.BuildGame(cfg)
	if err != nil {
		return fmt.Errorf("build game: %w", err)
	}

	logger := log.Logger
	if cmd.Dashboard {
		logger = zerolog.Nop()
	}
	driver := orchestration.NewDriver(cfg, game, logger)

	if cmd.Dashboard {
		return cmd.runWithDashboard(driver)
	}

	log.Info().
		Str("game", cfg.Game).
		Int("workers", cfg.Workers).
		Uint64("iterations", cfg.TotalIterations).
		Str("sampling", cfg.Sampling).
		Msg("starting training run")

	if err := orchestration.RunUntilSignal(driver); err != nil {
		return err
	}

	log.Info().Uint64("iterations", driver.Iterations()).Msg("training completed")
	return nil
}

// runWithDashboard runs the driver in the background and blocks on a
// bubbletea program polling its Snapshot. In this mode the driver is built
// with a no-op logger, so its progress logs never interleave with the TUI's
// own screen writes. Quitting the dashboard
// (q/ctrl+c) cancels the driver's context and waits for it to exit.
func (cmd *TrainCmd) runWithDashboard(driver *orchestration.Driver) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- driver.Run(ctx) }()

	program := tea.NewProgram(dashboard.NewModel(driver.Snapshot))
	if _, err := program.Run(); err != nil {
		cancel()
		<-done
		return fmt.Errorf("dashboard: %w", err)
	}

	cancel()
	return <-done
}

func (cmd *EvalCmd) Run() error {
	cfg := orchestration.DriverConfig{Game: cmd.Game, DescriptorPath: cmd.DescriptorPath}
	game, err := orchestration.BuildGame(cfg)
	if err != nil {
		return fmt.Errorf("build game: %w", err)
	}

	players := game.Players()
	if len(players) != 2 {
		return fmt.Errorf("eval: Nash-gap is only defined for two-player games, %q has %d players", cmd.Game, len(players))
	}

	table, meta, err := cfr.LoadCheckpoint(cmd.CheckpointPath, players, game.ActionMax())
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}

	rows := make(map[cfr.InfoSetKey][]float64)
	table.Range(func(k cfr.InfoSetKey, m *cfr.Minimizer) {
		rows[k] = m.AveragePolicy()
	})
	strategy := game.GetStrategy(rows)

	gap := cfr.EvalFast(game, strategy, players[0], players[1])

	log.Info().
		Int64("iteration", meta.Iteration).
		Int("infosets", len(meta.Keys)).
		Float64("nash_gap", gap).
		Msg("evaluation complete")
	return nil
}
