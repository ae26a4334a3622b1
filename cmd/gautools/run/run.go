package run

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mainajackson95/gau-tools/internal/config"
	"github.com/mainajackson95/gau-tools/internal/dao"
	"github.com/mainajackson95/gau-tools/internal/database"
	"github.com/mainajackson95/gau-tools/internal/models"
	"github.com/mainajackson95/gau-tools/internal/notification"
	"github.com/mainajackson95/gau-tools/internal/report"
	"github.com/mainajackson95/gau-tools/internal/utils"
	"github.com/mainajackson95/gau-tools/pkg/artifacts"
	"github.com/mainajackson95/gau-tools/pkg/executor"
	output "github.com/mainajackson95/gau-tools/pkg/io_utils"
	"github.com/mainajackson95/gau-tools/pkg/logger"
	"github.com/mainajackson95/gau-tools/pkg/stages"
)

// Flags holds the run command flags. Anything left at its zero value defers
// to the config file and its defaults.
type Flags struct {
	TargetsFile    string
	OutputRoot     string
	Step           string
	Tool           string
	PatternsFile   string
	HarvestWorkers int
	HarvestTimeout time.Duration
	FetchWorkers   int
	FetchTimeout   time.Duration
	DorkDelay      time.Duration
	ConfigPath     string
	Verbose        bool
}

// App wires the orchestrator with its optional collaborators.
type App struct {
	cfg      stages.Config
	step     string
	logger   *logger.Logger
	notifier *notification.PipelineNotifier
}

func NewApp(flags *Flags, cmd *cobra.Command) (*App, error) {
	logLevel := logrus.InfoLevel
	if flags.Verbose {
		logLevel = logrus.DebugLevel
	}
	appLogger := logger.NewLogger(logLevel)

	v, err := utils.NewViperConfig(flags.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg := utils.StagesConfig(v)
	applyFlagOverrides(&cfg, flags, cmd)

	var notifier *notification.PipelineNotifier
	if notification.Configured() {
		notifier, err = notification.NewPipelineNotifier()
		if err != nil {
			appLogger.WithError(err).Warn("Failed to initialize Discord client")
		} else {
			appLogger.Info("Discord notifications enabled")
		}
	} else {
		appLogger.Info("DISCORD_TOKEN not set - Discord notifications disabled")
	}

	return &App{
		cfg:      cfg,
		step:     flags.Step,
		logger:   appLogger,
		notifier: notifier,
	}, nil
}

// applyFlagOverrides lets explicitly set flags win over the config file.
func applyFlagOverrides(cfg *stages.Config, flags *Flags, cmd *cobra.Command) {
	if flags.TargetsFile != "" {
		cfg.TargetsFile = flags.TargetsFile
	}
	if cmd.Flags().Changed("output") {
		cfg.OutputRoot = flags.OutputRoot
	}
	if cmd.Flags().Changed("tool") {
		cfg.HarvestTool = flags.Tool
	}
	if cmd.Flags().Changed("patterns") {
		cfg.PatternsFile = flags.PatternsFile
	}
	if cmd.Flags().Changed("harvest-workers") {
		cfg.HarvestWorkers = flags.HarvestWorkers
	}
	if cmd.Flags().Changed("harvest-timeout") {
		cfg.HarvestTimeout = flags.HarvestTimeout
	}
	if cmd.Flags().Changed("fetch-workers") {
		cfg.FetchWorkers = flags.FetchWorkers
	}
	if cmd.Flags().Changed("fetch-timeout") {
		cfg.FetchTimeout = flags.FetchTimeout
	}
	if cmd.Flags().Changed("dork-delay") {
		cfg.DorkDelay = flags.DorkDelay
	}
}

func (a *App) Close() error {
	if a.notifier != nil {
		return a.notifier.Close()
	}
	return nil
}

// Run executes the pipeline, or a single stage when --step is set.
func (a *App) Run(ctx context.Context) error {
	opts := []stages.OrchestratorOpt{
		stages.WithFindingsExporter(report.Workbook{}),
	}
	if a.notifier != nil {
		opts = append(opts,
			stages.WithScriptNotifier(a.notifier),
			stages.WithRunNotifier(a.notifier))
	}

	orch, err := stages.NewOrchestrator(a.cfg, opts...)
	if err != nil {
		return err
	}
	a.logger.WithFields(logger.Fields{
		"run_id": orch.RunID(),
		"output": a.cfg.OutputRoot,
	}).Info("Starting recon run")

	// Deduplicate corpus files as the harvest tools commit them.
	harvestDir, err := orch.Store().StageDir(artifacts.DirHarvest)
	if err != nil {
		return err
	}
	go output.WatchCorpora(ctx, harvestDir)

	var summary *stages.RunSummary
	var runErr error
	if a.step != "" {
		summary, runErr = orch.RunStep(ctx, a.step)
	} else {
		summary, runErr = orch.Run(ctx)
	}

	if summary != nil && config.Enabled() {
		a.recordRun(orch, summary)
	}
	if runErr != nil {
		a.logger.WithError(runErr).Error("Recon run failed")
		return runErr
	}

	a.logger.WithField("elapsed", fmt.Sprintf("%.1fs", summary.ElapsedSeconds)).
		Info("Recon run finished")
	return nil
}

// recordRun persists the run outcome so the server can list it later. The
// artifact tree stays authoritative; a persistence failure only warns.
func (a *App) recordRun(orch *stages.Orchestrator, summary *stages.RunSummary) {
	database.InitDB(config.LoadConfig())

	run := &models.ReconRun{
		UUID:           orch.RunID(),
		TargetsFile:    summary.TargetsFile,
		OutputRoot:     summary.OutputRoot,
		HarvestState:   stageState(summary, stages.StageHarvest),
		AnalyzeState:   stageState(summary, stages.StageAnalyze),
		ScriptsState:   stageState(summary, stages.StageScripts),
		DorkState:      stageState(summary, stages.StageDork),
		ElapsedSeconds: summary.ElapsedSeconds,
		CreatedAt:      time.Now().Unix(),
		UpdatedAt:      time.Now().Unix(),
	}

	var batch executor.BatchReport
	if err := orch.Store().ReadJSON(artifacts.DirHarvest, artifacts.BatchReportFile, &batch); err == nil {
		run.NumberOfTargets = batch.TotalTargets
		run.Successful = batch.Successful
		run.Empty = batch.Empty
		run.Errors = batch.Errors
	}

	if err := dao.NewRunDAO(database.DB).SaveRun(run); err != nil {
		a.logger.WithError(err).Warn("Failed to persist run record")
		return
	}
	a.logger.WithField("run_id", run.UUID).Info("Run record persisted")
}

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	flags := &Flags{}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the recon pipeline against a targets file",
		Long:  `Run harvests historical URLs for every target in the targets file, then analyzes the corpora, inspects discovered scripts and dorks the targets that yielded nothing`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			app, err := NewApp(flags, cmd)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer func() {
				if closeErr := app.Close(); closeErr != nil {
					app.logger.WithError(closeErr).Error("Error closing application")
				}
			}()

			ctx, stop := signal.NotifyContext(context.Background(),
				syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return app.Run(ctx)
		},
	}

	runCmd.Flags().StringVarP(&flags.TargetsFile, "targets", "t", "", "File with one target per line (required unless set in config)")
	runCmd.Flags().StringVarP(&flags.OutputRoot, "output", "o", "recon_results", "Output directory for all artifacts")
	runCmd.Flags().StringVar(&flags.Step, "step", "", "Run a single stage (harvest, analyze, scripts, dork)")
	runCmd.Flags().StringVar(&flags.Tool, "tool", "gau", "URL harvesting tool to invoke")
	runCmd.Flags().StringVar(&flags.PatternsFile, "patterns", "", "YAML file with custom sensitive patterns")
	runCmd.Flags().IntVar(&flags.HarvestWorkers, "harvest-workers", 10, "Concurrent harvest workers")
	runCmd.Flags().DurationVar(&flags.HarvestTimeout, "harvest-timeout", 120*time.Second, "Per-target harvest timeout")
	runCmd.Flags().IntVar(&flags.FetchWorkers, "fetch-workers", 5, "Concurrent script fetch workers")
	runCmd.Flags().DurationVar(&flags.FetchTimeout, "fetch-timeout", 10*time.Second, "Per-script fetch timeout")
	runCmd.Flags().DurationVar(&flags.DorkDelay, "dork-delay", 2*time.Second, "Delay between dork queries")
	runCmd.Flags().StringVar(&flags.ConfigPath, "config", ".", "Directory searched for gautools.yaml")
	runCmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable verbose logging")

	return runCmd
}

// stageState returns the recorded state of the named stage, or empty when
// the stage was not part of the summary (e.g. single-step runs).
func stageState(summary *stages.RunSummary, name string) string {
	for _, outcome := range summary.Stages {
		if outcome.Name == name {
			return string(outcome.State)
		}
	}
	return ""
}
