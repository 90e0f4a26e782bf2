// Package orchestration drives an MCCFR run: a worker pool that calls
// cfr.Engine.Iteration concurrently, a ticker that periodically checkpoints
// and logs an exploitability estimate, and graceful SIGINT shutdown.
package orchestration

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// DriverConfig is the HCL-decoded shape of a run, generalizing the
// teacher's ServerConfig (server block + nested table/bot blocks) to this
// engine's single top-level block (spec §5 ADDED "orchestration package").
type DriverConfig struct {
	Game            string `hcl:"game"`                        // "rps" | "kuhn" | "leduc" | "ptt" | "descriptor"
	DescriptorPath  string `hcl:"descriptor_path,optional"`     // required when Game == "descriptor"
	Workers         int    `hcl:"workers,optional"`
	TotalIterations uint64 `hcl:"total_iterations,optional"`
	CheckpointEvery uint64 `hcl:"checkpoint_every,optional"`
	CheckpointPath  string `hcl:"checkpoint_path,optional"`
	EvaluateEvery   uint64 `hcl:"evaluate_every,optional"`
	Sampling        string `hcl:"sampling,optional"` // "outcome" | "external"
	Seed            int64  `hcl:"seed,optional"`
}

// DefaultDriverConfig mirrors the teacher's DefaultServerConfig: sane
// defaults for a local run, overridable field by field or by HCL file.
func DefaultDriverConfig() DriverConfig {
	return DriverConfig{
		Game:            "kuhn",
		Workers:         1,
		TotalIterations: 1_000_000,
		CheckpointEvery: 100_000,
		CheckpointPath:  "checkpoint",
		EvaluateEvery:   100_000,
		Sampling:        "outcome",
	}
}

// LoadDriverConfig loads a DriverConfig from an HCL file, falling back to
// defaults when the file doesn't exist (teacher's LoadServerConfig
// behavior), then fills in any zero-valued fields the file left unset.
func LoadDriverConfig(path string) (*DriverConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultDriverConfig()
		return &cfg, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("orchestration: parsing %s: %s", path, diags.Error())
	}

	cfg := DefaultDriverConfig()
	// Decode into a zero config first so we only overwrite fields the file
	// actually set, then merge with defaults below.
	var fromFile DriverConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &fromFile); diags.HasErrors() {
		return nil, fmt.Errorf("orchestration: decoding %s: %s", path, diags.Error())
	}

	if fromFile.Game != "" {
		cfg.Game = fromFile.Game
	}
	if fromFile.DescriptorPath != "" {
		cfg.DescriptorPath = fromFile.DescriptorPath
	}
	if fromFile.Workers > 0 {
		cfg.Workers = fromFile.Workers
	}
	if fromFile.TotalIterations > 0 {
		cfg.TotalIterations = fromFile.TotalIterations
	}
	if fromFile.CheckpointEvery > 0 {
		cfg.CheckpointEvery = fromFile.CheckpointEvery
	}
	if fromFile.CheckpointPath != "" {
		cfg.CheckpointPath = fromFile.CheckpointPath
	}
	if fromFile.EvaluateEvery > 0 {
		cfg.EvaluateEvery = fromFile.EvaluateEvery
	}
	if fromFile.Sampling != "" {
		cfg.Sampling = fromFile.Sampling
	}
	if fromFile.Seed != 0 {
		cfg.Seed = fromFile.Seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration is internally consistent, per the
// teacher's ServerConfig.Validate pattern.
func (c DriverConfig) Validate() error {
	switch c.Game {
	case "rps", "kuhn", "leduc", "ptt", "descriptor":
	default:
		return fmt.Errorf("orchestration: unknown game %q", c.Game)
	}
	if c.Game == "descriptor" && c.DescriptorPath == "" {
		return fmt.Errorf("orchestration: descriptor_path is required when game is \"descriptor\"")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("orchestration: workers must be > 0, got %d", c.Workers)
	}
	if c.TotalIterations == 0 {
		return fmt.Errorf("orchestration: total_iterations must be > 0")
	}
	if c.CheckpointEvery == 0 {
		return fmt.Errorf("orchestration: checkpoint_every must be > 0")
	}
	switch c.Sampling {
	case "outcome", "external":
	default:
		return fmt.Errorf("orchestration: unknown sampling mode %q", c.Sampling)
	}
	return nil
}
