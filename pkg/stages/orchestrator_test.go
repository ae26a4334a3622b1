package stages

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mainajackson95/gau-tools/pkg/artifacts"
	errs "github.com/mainajackson95/gau-tools/pkg/errors"
	"github.com/mainajackson95/gau-tools/pkg/fetcher"
	"github.com/mainajackson95/gau-tools/pkg/search"
	"github.com/mainajackson95/gau-tools/pkg/testutil"
)

type stubStage struct {
	name string
	err  error
	runs int
}

func (s *stubStage) Name() string { return s.name }

func (s *stubStage) Run(ctx context.Context) error {
	s.runs++
	return s.err
}

func newStubOrchestrator(t *testing.T, stages ...Stage) *Orchestrator {
	t.Helper()
	cfg := Config{
		TargetsFile: "targets.txt",
		OutputRoot:  t.TempDir(),
	}
	o, err := NewOrchestrator(cfg, WithStages(stages...), WithRunID("run-test"))
	require.NoError(t, err)
	return o
}

func TestOrchestrator_AllStagesComplete(t *testing.T) {
	stages := []Stage{
		&stubStage{name: StageHarvest},
		&stubStage{name: StageAnalyze},
		&stubStage{name: StageScripts},
		&stubStage{name: StageDork},
	}
	o := newStubOrchestrator(t, stages...)

	summary, err := o.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Stages, 4)
	for _, outcome := range summary.Stages {
		assert.Equal(t, StateCompleted, outcome.State)
	}
	assert.False(t, summary.Failed())
	assert.Equal(t, "run-test", summary.RunID)

	// Summary artifact committed at the output root.
	var persisted RunSummary
	require.NoError(t, o.Store().ReadJSON("", artifacts.RunSummaryFile, &persisted))
	assert.Equal(t, "run-test", persisted.RunID)
}

func TestOrchestrator_FatalStageAborts(t *testing.T) {
	analyze := &stubStage{name: StageAnalyze, err: errors.New("corpus dir unreadable")}
	scripts := &stubStage{name: StageScripts}
	o := newStubOrchestrator(t,
		&stubStage{name: StageHarvest},
		analyze,
		scripts,
		&stubStage{name: StageDork},
	)

	summary, err := o.Run(context.Background())
	require.Error(t, err)

	var stageErr *errs.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageAnalyze, stageErr.Stage)

	assert.Equal(t, StateCompleted, summary.Stages[0].State)
	assert.Equal(t, StateFailed, summary.Stages[1].State)
	assert.Equal(t, StatePending, summary.Stages[2].State)
	assert.Zero(t, scripts.runs)
	assert.True(t, summary.Failed())
}

func TestOrchestrator_SoftStageFailureContinues(t *testing.T) {
	dork := &stubStage{name: StageDork}
	o := newStubOrchestrator(t,
		&stubStage{name: StageHarvest},
		&stubStage{name: StageAnalyze},
		&stubStage{name: StageScripts, err: errors.New("fetch pool exploded")},
		dork,
	)

	summary, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateFailed, summary.Stages[2].State)
	assert.Equal(t, StateCompleted, summary.Stages[3].State)
	assert.Equal(t, 1, dork.runs)
}

func TestOrchestrator_SkipSentinelsMarkSkipped(t *testing.T) {
	o := newStubOrchestrator(t,
		&stubStage{name: StageHarvest},
		&stubStage{name: StageAnalyze},
		&stubStage{name: StageScripts, err: fmt.Errorf("%w: %s", errs.ErrArtifactEmpty, artifacts.ScriptURLsFile)},
		&stubStage{name: StageDork, err: fmt.Errorf("%w: %s", errs.ErrArtifactMissing, artifacts.EmptyTargetsFile)},
	)

	summary, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateSkipped, summary.Stages[2].State)
	assert.Equal(t, StateSkipped, summary.Stages[3].State)
	assert.False(t, summary.Failed())
}

func TestOrchestrator_RunStep(t *testing.T) {
	analyze := &stubStage{name: StageAnalyze}
	o := newStubOrchestrator(t, &stubStage{name: StageHarvest}, analyze)

	summary, err := o.RunStep(context.Background(), StageAnalyze)
	require.NoError(t, err)
	require.Len(t, summary.Stages, 1)
	assert.Equal(t, StageAnalyze, summary.Stages[0].Name)
	assert.Equal(t, StateCompleted, summary.Stages[0].State)
	assert.Equal(t, 1, analyze.runs)
}

// Standalone stage runs against an existing output tree need no targets
// file; full runs and the harvest step still do.
func TestOrchestrator_TargetsFileOnlyRequiredForHarvest(t *testing.T) {
	analyze := &stubStage{name: StageAnalyze}
	o, err := NewOrchestrator(
		Config{OutputRoot: t.TempDir()},
		WithStages(&stubStage{name: StageHarvest}, analyze),
		WithRunID("run-test"),
	)
	require.NoError(t, err)

	summary, err := o.RunStep(context.Background(), StageAnalyze)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, summary.Stages[0].State)
	assert.Equal(t, 1, analyze.runs)

	_, err = o.RunStep(context.Background(), StageHarvest)
	assert.ErrorIs(t, err, errs.ErrInvalidConfig)

	_, err = o.Run(context.Background())
	assert.ErrorIs(t, err, errs.ErrInvalidConfig)
}

func TestOrchestrator_RunStepUnknownStage(t *testing.T) {
	o := newStubOrchestrator(t, &stubStage{name: StageHarvest})

	_, err := o.RunStep(context.Background(), "deploy")
	assert.ErrorIs(t, err, errs.ErrInvalidConfig)
}

// Full pipeline over stub collaborators: two targets harvest (one empty),
// analysis routes the empty one to dork and the script URL to fetch, dork
// runs the battery against a canned result page.
func TestOrchestrator_EndToEnd(t *testing.T) {
	scriptSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`const api_key = "abcdEFGH12345678901234";`))
	}))
	defer scriptSrv.Close()

	searchSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(dorkResultPage))
	}))
	defer searchSrv.Close()

	runner := testutil.NewMockRunner()
	runner.SetResponse("gau", []string{"live.example.com"}, testutil.CommandResponse{
		Output: []byte("https://live.example.com/admin/login?user=joe\n" + scriptSrv.URL + "/app.js\n"),
	})
	// gone.example.com: empty harvest.

	dir := t.TempDir()
	targetsFile := testutil.CreateTestFile(t, dir, "targets.txt", "live.example.com\ngone.example.com\n")

	cfg := Config{
		TargetsFile:    targetsFile,
		OutputRoot:     t.TempDir(),
		HarvestWorkers: 2,
		HarvestTimeout: 5 * time.Second,
		FetchWorkers:   2,
		FetchTimeout:   5 * time.Second,
	}
	o, err := NewOrchestrator(cfg,
		WithHarvestRunner(runner),
		WithFetcher(fetcher.New()),
		WithSearchClient(search.NewClient(0, search.WithBaseURL(searchSrv.URL+"/"))),
	)
	require.NoError(t, err)

	summary, err := o.Run(context.Background())
	require.NoError(t, err)

	for _, outcome := range summary.Stages {
		assert.Equal(t, StateCompleted, outcome.State, outcome.Name)
	}

	store := o.Store()

	empty, err := store.ReadLines(artifacts.DirAnalysis, artifacts.EmptyTargetsFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"gone.example.com"}, empty)

	assert.True(t, store.NonEmpty(artifacts.DirScripts, artifacts.HighPriorityFile))
	assert.True(t, store.NonEmpty(artifacts.DirDork, artifacts.FoundURLsFile))
}
