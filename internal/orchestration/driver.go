package orchestration

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lox/cfrsolve/games/descriptor"
	"github.com/lox/cfrsolve/games/kuhn"
	"github.com/lox/cfrsolve/games/ptt"
	"github.com/lox/cfrsolve/games/rps"
	"github.com/lox/cfrsolve/internal/dashboard"
	"github.com/lox/cfrsolve/internal/randutil"
	"github.com/lox/cfrsolve/sdk/cfr"
)

// BuildGame resolves a DriverConfig's game selector to a concrete
// cfr.TwoPlayerZeroSum instance.
func BuildGame(cfg DriverConfig) (cfr.TwoPlayerZeroSum, error) {
	switch cfg.Game {
	case "rps":
		return rps.New(), nil
	case "kuhn":
		return kuhn.New(), nil
	case "leduc":
		return descriptor.LoadLeduc()
	case "descriptor":
		data, err := os.ReadFile(cfg.DescriptorPath)
		if err != nil {
			return nil, fmt.Errorf("orchestration: reading descriptor file %s: %w", cfg.DescriptorPath, err)
		}
		return descriptor.Load(string(data))
	case "ptt":
		return ptt.New(), nil
	default:
		return nil, fmt.Errorf("orchestration: unknown game %q", cfg.Game)
	}
}

// tickInterval is how often the checkpoint/log/evaluate ticker fires. A
// fixed wall-clock cadence (rather than one tied to iteration count) keeps
// it decoupled from how many workers are running.
const tickInterval = 10 * time.Second

// Driver runs an MCCFR training loop: cfg.Workers goroutines each calling
// cfr.Engine.Iteration concurrently (via an errgroup.Group, teacher's
// internal/evaluator.errgroup pattern), and one clock-driven ticker
// goroutine that logs progress, estimates exploitability, and writes a
// checkpoint (spec §5 ADDED).
type Driver struct {
	cfg    DriverConfig
	game   cfr.TwoPlayerZeroSum
	engine *cfr.Engine
	clock  quartz.Clock
	log    zerolog.Logger

	iterations atomic.Uint64
	lastGap    atomic.Value // float64, only ever set once a gap has been estimated
	lastGapIt  atomic.Uint64
}

// NewDriver constructs a Driver. clock defaults to quartz.NewReal(); tests
// pass a quartz.Mock instead, mirroring the teacher's
// startTestServer(t, ..., clock ...quartz.Clock) injection pattern.
func NewDriver(cfg DriverConfig, game cfr.TwoPlayerZeroSum, logger zerolog.Logger, clock ...quartz.Clock) *Driver {
	c := quartz.NewReal()
	if len(clock) > 0 {
		c = clock[0]
	}
	mode := cfr.OutcomeSampling
	if cfg.Sampling == "external" {
		mode = cfr.ExternalSampling
	}
	return &Driver{
		cfg:    cfg,
		game:   game,
		engine: cfr.NewEngine(game, mode),
		clock:  c,
		log:    logger,
	}
}

// Engine exposes the underlying engine, e.g. for a dashboard to read
// Table().Size() live.
func (d *Driver) Engine() *cfr.Engine { return d.engine }

// Iterations returns the number of completed iterations so far.
func (d *Driver) Iterations() uint64 { return d.iterations.Load() }

// Snapshot reports the driver's current progress for display, e.g. by
// internal/dashboard. The Nash gap is cheap to read here because it's only
// recomputed once per ticker interval, in tick(); Snapshot never runs
// EvalFast itself.
func (d *Driver) Snapshot() dashboard.Snapshot {
	snap := dashboard.Snapshot{
		Game:      d.cfg.Game,
		Iteration: d.iterations.Load(),
		Total:     d.cfg.TotalIterations,
		Infosets:  d.engine.Table().Size(),
	}
	if gap, ok := d.lastGap.Load().(float64); ok {
		snap.Gap = gap
		snap.GapKnown = true
		snap.GapAsOf = d.lastGapIt.Load()
	}
	return snap
}

// Run launches the worker pool and the ticker goroutine, and blocks until
// cfg.TotalIterations have completed or ctx is cancelled.
//
// The ticker runs in its own goroutine outside the workers' errgroup:
// errgroup only cancels its context when a goroutine returns an error, so
// if workers merely run out of iterations to do (the common, non-error
// exit), nothing would ever unblock a ticker parked on
// <-d.clock.After(tickInterval) — Run cancels runCtx itself once the
// worker pool finishes, which is what lets the ticker goroutine return.
func (d *Driver) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers, wctx := errgroup.WithContext(runCtx)
	for w := 0; w < d.cfg.Workers; w++ {
		workerSeed := d.cfg.Seed + int64(w)
		workers.Go(func() error {
			rng := randutil.New(workerSeed)
			for {
				if d.iterations.Load() >= d.cfg.TotalIterations {
					return nil
				}
				select {
				case <-wctx.Done():
					return nil
				default:
				}
				d.engine.Iteration(rng)
				d.iterations.Add(1)
			}
		})
	}

	tickerDone := make(chan struct{})
	go func() {
		d.tickerLoop(runCtx)
		close(tickerDone)
	}()

	err := workers.Wait()
	cancel()
	<-tickerDone

	// A final checkpoint/log on the way out, so the last few iterations
	// before hitting the total aren't lost if they fell between ticks.
	d.tick()
	return err
}

// tickerLoop fires d.tick every tickInterval (via the injected clock, so
// tests can advance it deterministically) until ctx is done, or until a
// tick finds the iteration total reached. It never cancels the worker pool;
// Run cancels ctx once the workers finish, and this loop just notices
// ctx.Done and exits without firing again mid-shutdown.
func (d *Driver) tickerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.clock.After(tickInterval):
			d.tick()
			if d.iterations.Load() >= d.cfg.TotalIterations {
				return
			}
		}
	}
}

func (d *Driver) tick() {
	n := d.iterations.Load()
	d.log.Info().Uint64("iteration", n).Int("infosets", d.engine.Table().Size()).Msg("progress")

	if d.cfg.EvaluateEvery > 0 {
		rows := make(map[cfr.InfoSetKey][]float64)
		d.engine.Table().Range(func(k cfr.InfoSetKey, m *cfr.Minimizer) {
			rows[k] = m.AveragePolicy()
		})
		strategy := strategyFromRows(d.game, rows)
		players := d.game.Players()
		if len(players) == 2 {
			gap := cfr.EvalFast(d.game, strategy, players[0], players[1])
			d.lastGap.Store(gap)
			d.lastGapIt.Store(n)
			d.log.Info().Float64("nash_gap", gap).Msg("exploitability estimate")
		}
	}

	if d.cfg.CheckpointPath != "" {
		players := d.game.Players()
		cfg := cfr.EngineConfig{
			Mode:            modeFromString(d.cfg.Sampling),
			TotalIterations: d.cfg.TotalIterations,
			Workers:         d.cfg.Workers,
			CheckpointEvery: d.cfg.CheckpointEvery,
			EvaluateEvery:   d.cfg.EvaluateEvery,
		}
		if err := cfr.SaveCheckpoint(d.cfg.CheckpointPath, d.engine.Table(), players, cfg, int64(n), d.game.ActionMax()); err != nil {
			d.log.Error().Err(err).Msg("checkpoint failed")
		} else {
			d.log.Info().Str("path", d.cfg.CheckpointPath).Msg("checkpoint written")
		}
	}
}

func strategyFromRows(game cfr.Game, rows map[cfr.InfoSetKey][]float64) *cfr.Strategy {
	return game.GetStrategy(rows)
}

func modeFromString(s string) cfr.SamplingMode {
	if s == "external" {
		return cfr.ExternalSampling
	}
	return cfr.OutcomeSampling
}

// RunUntilSignal runs the driver and cancels it on SIGINT, per spec §5
// "SIGINT-based shutdown".
func RunUntilSignal(d *Driver) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return d.Run(ctx)
}
