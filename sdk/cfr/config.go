package cfr

import "fmt"

// EngineConfig bundles a run's sampling mode and cadence knobs. It is
// constructed programmatically (the orchestration driver fills it from its
// HCL-driven DriverConfig) and is recorded in each checkpoint's sidecar;
// NewEngine itself takes only a SamplingMode. This mirrors the teacher's
// split between a programmatic AbstractionConfig and an externally-loaded
// server config.
type EngineConfig struct {
	Mode             SamplingMode
	TotalIterations  uint64
	Workers          int
	CheckpointEvery  uint64
	EvaluateEvery    uint64
}

// DefaultEngineConfig mirrors the teacher's DefaultTrainingConfig: sane
// defaults for a local run, overridable field by field.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Mode:            OutcomeSampling,
		TotalIterations: 1_000_000,
		Workers:         1,
		CheckpointEvery: 100_000,
		EvaluateEvery:   100_000,
	}
}

// Validate checks the configuration is internally consistent, per the
// teacher's TrainingConfig.Validate pattern.
func (c EngineConfig) Validate() error {
	if c.TotalIterations == 0 {
		return fmt.Errorf("cfr: TotalIterations must be > 0")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("cfr: Workers must be > 0, got %d", c.Workers)
	}
	if c.CheckpointEvery == 0 {
		return fmt.Errorf("cfr: CheckpointEvery must be > 0")
	}
	return nil
}
