package stages

import (
	"time"

	errs "github.com/mainajackson95/gau-tools/pkg/errors"
)

// Config bundles the tunables for a full pipeline run. Zero values are
// filled in by Normalize; Validate rejects combinations no run can use.
type Config struct {
	TargetsFile string
	OutputRoot  string

	HarvestTool    string
	HarvestArgs    []string
	HarvestWorkers int
	HarvestTimeout time.Duration

	FetchWorkers int
	FetchTimeout time.Duration

	DorkDelay time.Duration

	// PatternsFile optionally extends the sensitive-pattern taxonomy with
	// custom categories (YAML, category to regex list).
	PatternsFile string
}

// DefaultConfig returns the stock tuning: 10 harvest workers at 120s per
// target, 5 fetch workers at 10s per script, 2s between dork queries.
func DefaultConfig() Config {
	return Config{
		OutputRoot:     "recon_results",
		HarvestTool:    "gau",
		HarvestWorkers: 10,
		HarvestTimeout: 120 * time.Second,
		FetchWorkers:   5,
		FetchTimeout:   10 * time.Second,
		DorkDelay:      2 * time.Second,
	}
}

// Normalize fills unset fields from the defaults.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.OutputRoot == "" {
		c.OutputRoot = d.OutputRoot
	}
	if c.HarvestTool == "" {
		c.HarvestTool = d.HarvestTool
	}
	if c.HarvestWorkers <= 0 {
		c.HarvestWorkers = d.HarvestWorkers
	}
	if c.HarvestTimeout <= 0 {
		c.HarvestTimeout = d.HarvestTimeout
	}
	if c.FetchWorkers <= 0 {
		c.FetchWorkers = d.FetchWorkers
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = d.FetchTimeout
	}
	if c.DorkDelay < 0 {
		c.DorkDelay = d.DorkDelay
	}
}

// Validate checks the fields no default can repair. The targets file is not
// required here: only the harvest stage reads it, and single-stage runs
// against an existing output tree work without one. The orchestrator enforces
// it for full runs and the harvest step.
func (c *Config) Validate() error {
	if c.OutputRoot == "" {
		return errs.NewConfigError("output_root", "", "output root is required")
	}
	return nil
}

// ValidateTargets checks the harvest-only requirement.
func (c *Config) ValidateTargets() error {
	if c.TargetsFile == "" {
		return errs.NewConfigError("targets_file", "", "targets file is required to harvest")
	}
	return nil
}
