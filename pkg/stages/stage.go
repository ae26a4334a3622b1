// Package stages implements the four pipeline stages and the orchestrator
// that chains them. Stages communicate only through named artifacts in the
// output tree, so any stage can be re-run standalone against a prior run.
package stages

import (
	"context"
	"time"
)

// Stage names, also the values accepted by the --step selector.
const (
	StageHarvest = "harvest"
	StageAnalyze = "analyze"
	StageScripts = "scripts"
	StageDork    = "dork"
)

// StageState tracks a stage through one orchestrated run.
type StageState string

const (
	StatePending   StageState = "PENDING"
	StateRunning   StageState = "RUNNING"
	StateCompleted StageState = "COMPLETED"
	StateSkipped   StageState = "SKIPPED"
	StateFailed    StageState = "FAILED"
)

// Stage is one pipeline step. Run reads its inputs from the artifact store
// and commits its outputs there. A missing or empty input artifact is
// reported by wrapping errors.ErrArtifactMissing or errors.ErrArtifactEmpty
// so the orchestrator can mark the stage skipped instead of failed.
type Stage interface {
	Name() string
	Run(ctx context.Context) error
}

// StageOutcome is the recorded result of one stage in a run summary.
type StageOutcome struct {
	Name           string     `json:"name"`
	State          StageState `json:"state"`
	Error          string     `json:"error,omitempty"`
	ElapsedSeconds float64    `json:"elapsed_seconds"`
}

// RunSummary describes one orchestrated run across all stages.
type RunSummary struct {
	RunID          string         `json:"run_id"`
	TargetsFile    string         `json:"targets_file"`
	OutputRoot     string         `json:"output_root"`
	StartedAt      time.Time      `json:"started_at"`
	ElapsedSeconds float64        `json:"elapsed_seconds"`
	Stages         []StageOutcome `json:"stages"`
}

// Failed reports whether any stage ended in a failed state.
func (s *RunSummary) Failed() bool {
	for _, stage := range s.Stages {
		if stage.State == StateFailed {
			return true
		}
	}
	return false
}
