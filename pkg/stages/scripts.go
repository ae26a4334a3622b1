package stages

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mainajackson95/gau-tools/pkg/artifacts"
	"github.com/mainajackson95/gau-tools/pkg/classify"
	errs "github.com/mainajackson95/gau-tools/pkg/errors"
	"github.com/mainajackson95/gau-tools/pkg/executor"
	"github.com/mainajackson95/gau-tools/pkg/fetcher"
	"github.com/mainajackson95/gau-tools/pkg/logger"
)

// Notifier pushes high-priority findings to an external channel. A nil
// notifier disables alerting.
type Notifier interface {
	NotifyHighPriority(ctx context.Context, findings *classify.ScriptFindings) error
}

// FindingsExporter writes an out-of-tree rendering of the script findings,
// such as a spreadsheet for triage handoff.
type FindingsExporter interface {
	Export(path string, findings []*classify.ScriptFindings) error
}

// WorkbookFile is the exported findings workbook name under the scripts
// stage directory.
const WorkbookFile = "findings.xlsx"

type ScriptsOpt func(*ScriptsStage)

func WithNotifier(n Notifier) ScriptsOpt {
	return func(s *ScriptsStage) { s.notifier = n }
}

func WithExporter(e FindingsExporter) ScriptsOpt {
	return func(s *ScriptsStage) { s.exporter = e }
}

// ScriptsStage fetches every script URL surfaced by analysis and runs
// content-mode classification over the bodies. Fetch failures drop the URL
// from the results; they are logged, not recorded.
type ScriptsStage struct {
	store      *artifacts.Store
	fetcher    *fetcher.Fetcher
	classifier *classify.ContentClassifier
	workers    int
	timeout    time.Duration
	notifier   Notifier
	exporter   FindingsExporter
	log        *logrus.Entry
}

func NewScriptsStage(store *artifacts.Store, f *fetcher.Fetcher, classifier *classify.ContentClassifier, workers int, timeout time.Duration, opts ...ScriptsOpt) *ScriptsStage {
	if classifier == nil {
		classifier = classify.NewContentClassifier(nil)
	}
	s := &ScriptsStage{
		store:      store,
		fetcher:    f,
		classifier: classifier,
		workers:    workers,
		timeout:    timeout,
		log:        logger.NewLogger(logrus.InfoLevel).WithStage(StageScripts),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ScriptsStage) Name() string { return StageScripts }

func (s *ScriptsStage) Run(ctx context.Context) error {
	if !s.store.Exists(artifacts.DirAnalysis, artifacts.ScriptURLsFile) {
		return fmt.Errorf("%w: %s", errs.ErrArtifactMissing, artifacts.ScriptURLsFile)
	}
	urls, err := s.store.ReadLines(artifacts.DirAnalysis, artifacts.ScriptURLsFile)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("%w: %s", errs.ErrArtifactEmpty, artifacts.ScriptURLsFile)
	}

	s.log.WithFields(logrus.Fields{
		"scripts": len(urls),
		"workers": s.workers,
	}).Info("Fetching and classifying scripts")

	var mu sync.Mutex
	var findings []*classify.ScriptFindings

	pool := executor.NewPool(s.workers, s.timeout)
	if _, err := pool.Run(ctx, urls, func(taskCtx context.Context, url string) executor.TaskResult {
		body, err := s.fetcher.Fetch(taskCtx, url)
		if err != nil {
			return executor.TaskResult{
				Target:  url,
				Status:  executor.StatusError,
				Message: err.Error(),
			}
		}

		result := s.classifier.Classify(url, body)
		mu.Lock()
		findings = append(findings, result)
		mu.Unlock()

		status := executor.StatusSuccess
		if len(result.Matches) == 0 {
			status = executor.StatusEmpty
		}
		return executor.TaskResult{
			Target:    url,
			FileSize:  int64(result.Size),
			ItemCount: len(result.Matches),
			Status:    status,
		}
	}); err != nil {
		return err
	}

	// Deterministic artifact ordering regardless of fetch completion order.
	sort.Slice(findings, func(i, j int) bool { return findings[i].URL < findings[j].URL })

	if err := s.writeArtifacts(findings); err != nil {
		return err
	}
	s.notify(ctx, findings)
	s.export(findings)

	withFindings := 0
	for _, f := range findings {
		if len(f.Matches) > 0 {
			withFindings++
		}
	}
	s.log.WithFields(logrus.Fields{
		"fetched":       len(findings),
		"with_findings": withFindings,
	}).Info("Script analysis complete")
	return nil
}

func (s *ScriptsStage) writeArtifacts(findings []*classify.ScriptFindings) error {
	if err := s.store.WriteJSON(artifacts.DirScripts, artifacts.ScriptAnalysisFile, findings); err != nil {
		return err
	}
	if err := s.writeCategoryFiles(findings); err != nil {
		return err
	}
	if err := s.store.WriteText(artifacts.DirScripts, artifacts.HighPriorityFile, buildHighPriorityReport(findings)); err != nil {
		return err
	}

	endpointSet := make(map[string]struct{})
	for _, f := range findings {
		for _, endpoint := range f.Matches[classify.CategoryAPIEndpoints] {
			endpointSet[endpoint] = struct{}{}
		}
	}
	endpoints := make([]string, 0, len(endpointSet))
	for endpoint := range endpointSet {
		endpoints = append(endpoints, endpoint)
	}
	sort.Strings(endpoints)
	return s.store.WriteLines(artifacts.DirScripts, artifacts.ScriptEndpointsFile, endpoints)
}

// writeCategoryFiles renders one text file per matched category under
// 3_js_analysis/categories/.
func (s *ScriptsStage) writeCategoryFiles(findings []*classify.ScriptFindings) error {
	type sourceMatches struct {
		url     string
		matches []string
	}
	categorized := make(map[classify.Category][]sourceMatches)
	for _, f := range findings {
		for category, matches := range f.Matches {
			categorized[category] = append(categorized[category], sourceMatches{f.URL, matches})
		}
	}

	for category, items := range categorized {
		total := 0
		for _, item := range items {
			total += len(item.matches)
		}

		var b strings.Builder
		b.WriteString(reportRule + "\n")
		b.WriteString("CATEGORY: " + strings.ToUpper(string(category)) + "\n")
		b.WriteString(fmt.Sprintf("Total Occurrences: %d\n", total))
		b.WriteString(reportRule + "\n\n")

		for _, item := range items {
			b.WriteString("\nSource: " + item.url + "\n")
			b.WriteString(reportSubRule + "\n")
			for _, match := range item.matches {
				b.WriteString("  " + match + "\n")
			}
			b.WriteString("\n")
		}

		name := artifacts.CategoriesDir + "/" + string(category) + ".txt"
		if _, err := s.store.StageDir(artifacts.DirScripts + "/" + artifacts.CategoriesDir); err != nil {
			return err
		}
		if err := s.store.WriteText(artifacts.DirScripts, name, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func buildHighPriorityReport(findings []*classify.ScriptFindings) string {
	var b strings.Builder
	b.WriteString(reportRule + "\n")
	b.WriteString("HIGH PRIORITY FINDINGS - CHECK THESE FIRST!\n")
	b.WriteString(reportRule + "\n\n")

	for _, f := range findings {
		if !f.HasPriorityFindings() {
			continue
		}

		b.WriteString("\n" + reportRule + "\n")
		b.WriteString("FILE: " + f.URL + "\n")
		b.WriteString(reportRule + "\n")

		for _, category := range classify.PriorityCategories {
			matches := f.Matches[category]
			if len(matches) == 0 {
				continue
			}
			b.WriteString("\n" + strings.ToUpper(string(category)) + ":\n")
			for _, match := range matches {
				b.WriteString("  " + match + "\n")
			}
		}
	}
	return b.String()
}

func (s *ScriptsStage) notify(ctx context.Context, findings []*classify.ScriptFindings) {
	if s.notifier == nil {
		return
	}
	for _, f := range findings {
		if !f.HasPriorityFindings() {
			continue
		}
		if err := s.notifier.NotifyHighPriority(ctx, f); err != nil {
			s.log.WithError(err).WithField("url", f.URL).Warn("Notification failed")
		}
	}
}

func (s *ScriptsStage) export(findings []*classify.ScriptFindings) {
	if s.exporter == nil {
		return
	}
	path := s.store.Path(artifacts.DirScripts, WorkbookFile)
	if err := s.exporter.Export(path, findings); err != nil {
		s.log.WithError(err).Warn("Workbook export failed")
	}
}
