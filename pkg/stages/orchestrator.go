package stages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mainajackson95/gau-tools/pkg/artifacts"
	"github.com/mainajackson95/gau-tools/pkg/classify"
	errs "github.com/mainajackson95/gau-tools/pkg/errors"
	"github.com/mainajackson95/gau-tools/pkg/fetcher"
	"github.com/mainajackson95/gau-tools/pkg/harvester"
	"github.com/mainajackson95/gau-tools/pkg/logger"
	"github.com/mainajackson95/gau-tools/pkg/search"
)

// RunNotifier receives the end-of-run summary. A nil notifier disables it.
type RunNotifier interface {
	NotifyRunComplete(ctx context.Context, summary *RunSummary) error
}

// fatalStages abort the pipeline when they fail; the remaining stages are
// soft and only log their failures.
var fatalStages = map[string]bool{
	StageHarvest: true,
	StageAnalyze: true,
}

type OrchestratorOpt func(*Orchestrator)

// WithRunID pins the run ID instead of generating one.
func WithRunID(id string) OrchestratorOpt {
	return func(o *Orchestrator) { o.runID = id }
}

// WithStages replaces the default stage chain, used by tests.
func WithStages(stages ...Stage) OrchestratorOpt {
	return func(o *Orchestrator) { o.stages = stages }
}

// WithHarvestRunner swaps the process runner behind the harvest stage.
func WithHarvestRunner(r harvester.Runner) OrchestratorOpt {
	return func(o *Orchestrator) { o.harvestRunner = r }
}

// WithSearchClient swaps the dork-stage search client.
func WithSearchClient(c *search.Client) OrchestratorOpt {
	return func(o *Orchestrator) { o.searchClient = c }
}

// WithFetcher swaps the scripts-stage fetcher.
func WithFetcher(f *fetcher.Fetcher) OrchestratorOpt {
	return func(o *Orchestrator) { o.fetcher = f }
}

// WithScriptNotifier wires high-priority finding alerts.
func WithScriptNotifier(n Notifier) OrchestratorOpt {
	return func(o *Orchestrator) { o.scriptNotifier = n }
}

// WithRunNotifier wires the run-complete notification.
func WithRunNotifier(n RunNotifier) OrchestratorOpt {
	return func(o *Orchestrator) { o.runNotifier = n }
}

// WithFindingsExporter wires the findings workbook exporter.
func WithFindingsExporter(e FindingsExporter) OrchestratorOpt {
	return func(o *Orchestrator) { o.exporter = e }
}

// Orchestrator chains the four stages over one artifact tree.
type Orchestrator struct {
	cfg   Config
	store *artifacts.Store
	runID string

	stages         []Stage
	harvestRunner  harvester.Runner
	searchClient   *search.Client
	fetcher        *fetcher.Fetcher
	scriptNotifier Notifier
	runNotifier    RunNotifier
	exporter       FindingsExporter

	log *logrus.Entry
}

// NewOrchestrator validates the config, opens the artifact store and builds
// the stage chain.
func NewOrchestrator(cfg Config, opts ...OrchestratorOpt) (*Orchestrator, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := artifacts.NewStore(cfg.OutputRoot)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		cfg:   cfg,
		store: store,
		runID: uuid.NewString(),
		log:   logger.NewLogger(logrus.InfoLevel).WithField("component", "orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.WithField("run_id", o.runID)

	if o.stages == nil {
		if err := o.buildStages(); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *Orchestrator) buildStages() error {
	var customSets []classify.PatternSet
	if o.cfg.PatternsFile != "" {
		sets, err := classify.LoadCustomPatterns(o.cfg.PatternsFile)
		if err != nil {
			return err
		}
		customSets = sets
	}

	urlTaxonomy := classify.DefaultURLTaxonomy()
	urlTaxonomy.Sensitive = append(urlTaxonomy.Sensitive, customSets...)

	harvestOpts := []harvester.OptFunc{
		harvester.WithTool(o.cfg.HarvestTool),
		harvester.WithExtraArgs(o.cfg.HarvestArgs...),
	}
	if o.harvestRunner != nil {
		harvestOpts = append(harvestOpts, harvester.WithRunner(o.harvestRunner))
	}
	harv := harvester.New(o.store, harvestOpts...)

	f := o.fetcher
	if f == nil {
		f = fetcher.New(fetcher.WithTimeout(o.cfg.FetchTimeout))
	}
	client := o.searchClient
	if client == nil {
		client = search.NewClient(o.cfg.DorkDelay)
	}

	var scriptsOpts []ScriptsOpt
	if o.scriptNotifier != nil {
		scriptsOpts = append(scriptsOpts, WithNotifier(o.scriptNotifier))
	}
	if o.exporter != nil {
		scriptsOpts = append(scriptsOpts, WithExporter(o.exporter))
	}

	o.stages = []Stage{
		NewHarvestStage(o.store, harv, o.cfg.TargetsFile, o.cfg.HarvestWorkers, o.cfg.HarvestTimeout, o.runID),
		NewAnalyzeStage(o.store, classify.NewURLClassifier(urlTaxonomy)),
		NewScriptsStage(o.store, f, classify.NewContentClassifier(nil, customSets...), o.cfg.FetchWorkers, o.cfg.FetchTimeout, scriptsOpts...),
		NewDorkStage(o.store, client),
	}
	return nil
}

// RunID returns the run identifier.
func (o *Orchestrator) RunID() string { return o.runID }

// Store exposes the artifact store for post-run consumers.
func (o *Orchestrator) Store() *artifacts.Store { return o.store }

// Run executes the whole stage chain. Harvest and analyze failures abort the
// run with an error; scripts and dork failures are recorded in the summary
// and the run continues. The summary artifact is committed in every case.
func (o *Orchestrator) Run(ctx context.Context) (*RunSummary, error) {
	if err := o.cfg.ValidateTargets(); err != nil {
		return nil, err
	}

	summary := o.newSummary(o.stages)
	start := time.Now()

	for i, stage := range o.stages {
		outcome := &summary.Stages[i]
		if err := o.runStage(ctx, stage, outcome); err != nil {
			summary.ElapsedSeconds = time.Since(start).Seconds()
			o.commitSummary(summary)
			return summary, errs.NewStageError(stage.Name(), err)
		}
		if ctx.Err() != nil {
			summary.ElapsedSeconds = time.Since(start).Seconds()
			o.commitSummary(summary)
			return summary, ctx.Err()
		}
	}

	summary.ElapsedSeconds = time.Since(start).Seconds()
	o.commitSummary(summary)
	o.notifyRunComplete(ctx, summary)
	return summary, nil
}

// RunStep executes exactly one named stage against the existing artifact
// tree. Skip sentinels still mark the stage skipped rather than failed.
func (o *Orchestrator) RunStep(ctx context.Context, name string) (*RunSummary, error) {
	var selected Stage
	for _, stage := range o.stages {
		if stage.Name() == name {
			selected = stage
			break
		}
	}
	if selected == nil {
		return nil, errs.NewConfigError("step", name, "unknown stage")
	}
	if name == StageHarvest {
		if err := o.cfg.ValidateTargets(); err != nil {
			return nil, err
		}
	}

	summary := o.newSummary([]Stage{selected})
	start := time.Now()
	err := o.runStage(ctx, selected, &summary.Stages[0])
	summary.ElapsedSeconds = time.Since(start).Seconds()
	o.commitSummary(summary)
	if err != nil {
		return summary, errs.NewStageError(name, err)
	}
	return summary, nil
}

// runStage drives one stage through its state transitions. The returned
// error is non-nil only when the failure must abort the run.
func (o *Orchestrator) runStage(ctx context.Context, stage Stage, outcome *StageOutcome) error {
	outcome.State = StateRunning
	o.log.WithField("stage", stage.Name()).Info("Stage started")

	start := time.Now()
	err := stage.Run(ctx)
	outcome.ElapsedSeconds = time.Since(start).Seconds()

	switch {
	case err == nil:
		outcome.State = StateCompleted
		o.log.WithFields(logrus.Fields{
			"stage":   stage.Name(),
			"elapsed": fmt.Sprintf("%.1fs", outcome.ElapsedSeconds),
		}).Info("Stage completed")
		return nil

	case errors.Is(err, errs.ErrArtifactMissing) || errors.Is(err, errs.ErrArtifactEmpty):
		outcome.State = StateSkipped
		outcome.Error = err.Error()
		o.log.WithFields(logrus.Fields{
			"stage":  stage.Name(),
			"reason": err.Error(),
		}).Info("Stage skipped")
		return nil

	default:
		outcome.State = StateFailed
		outcome.Error = err.Error()
		if fatalStages[stage.Name()] || ctx.Err() != nil {
			o.log.WithError(err).WithField("stage", stage.Name()).Error("Stage failed, aborting run")
			return err
		}
		o.log.WithError(err).WithField("stage", stage.Name()).Warn("Stage failed, continuing")
		return nil
	}
}

func (o *Orchestrator) newSummary(stages []Stage) *RunSummary {
	summary := &RunSummary{
		RunID:       o.runID,
		TargetsFile: o.cfg.TargetsFile,
		OutputRoot:  o.cfg.OutputRoot,
		StartedAt:   time.Now(),
		Stages:      make([]StageOutcome, len(stages)),
	}
	for i, stage := range stages {
		summary.Stages[i] = StageOutcome{Name: stage.Name(), State: StatePending}
	}
	return summary
}

func (o *Orchestrator) commitSummary(summary *RunSummary) {
	if err := o.store.WriteJSON("", artifacts.RunSummaryFile, summary); err != nil {
		o.log.WithError(err).Warn("Failed to write run summary")
	}
}

func (o *Orchestrator) notifyRunComplete(ctx context.Context, summary *RunSummary) {
	if o.runNotifier == nil {
		return
	}
	if err := o.runNotifier.NotifyRunComplete(ctx, summary); err != nil {
		o.log.WithError(err).Warn("Run-complete notification failed")
	}
}
