package stages

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mainajackson95/gau-tools/pkg/artifacts"
	"github.com/mainajackson95/gau-tools/pkg/classify"
	"github.com/mainajackson95/gau-tools/pkg/logger"
)

const reportRule = "================================================================================"
const reportSubRule = "--------------------------------------------------------------------------------"

// maxInterestingPerTarget caps the interesting-path lines listed per target
// in the text report; the full list stays in the analysis JSON.
const maxInterestingPerTarget = 20

// topParameterCount bounds the top-parameters table.
const topParameterCount = 50

// AnalysisEntry pairs one corpus with its classification summary in the
// complete-analysis artifact.
type AnalysisEntry struct {
	Target   string               `json:"subdomain"`
	FileSize int64                `json:"file_size"`
	Findings *classify.URLSummary `json:"findings"`
}

// AnalyzeStage classifies every harvested corpus, smallest first, and
// publishes the analysis artifacts consumed by the later stages.
type AnalyzeStage struct {
	store      *artifacts.Store
	classifier *classify.URLClassifier
	log        *logrus.Entry
}

func NewAnalyzeStage(store *artifacts.Store, classifier *classify.URLClassifier) *AnalyzeStage {
	if classifier == nil {
		classifier = classify.NewURLClassifier(nil)
	}
	return &AnalyzeStage{
		store:      store,
		classifier: classifier,
		log:        logger.NewLogger(logrus.InfoLevel).WithStage(StageAnalyze),
	}
}

func (s *AnalyzeStage) Name() string { return StageAnalyze }

func (s *AnalyzeStage) Run(ctx context.Context) error {
	corpora, err := s.store.ListCorpora()
	if err != nil {
		return fmt.Errorf("no harvest output to analyze: %w", err)
	}

	s.log.WithField("corpora", len(corpora)).Info("Analyzing corpora, smallest first")

	entries := make([]AnalysisEntry, 0, len(corpora))
	emptyTargets := make([]string, 0)

	for idx, corpus := range corpora {
		if err := ctx.Err(); err != nil {
			return err
		}

		if corpus.Size == 0 {
			emptyTargets = append(emptyTargets, corpus.Target)
			s.log.WithField("target", corpus.Target).Info("Empty corpus, routed to dork stage")
			continue
		}

		summary, err := s.classifier.ClassifyFile(corpus.Path, corpus.Target)
		if err != nil {
			s.log.WithError(err).WithField("target", corpus.Target).Warn("Corpus unreadable, skipping")
			continue
		}

		entries = append(entries, AnalysisEntry{
			Target:   corpus.Target,
			FileSize: corpus.Size,
			Findings: summary,
		})

		s.log.WithFields(logrus.Fields{
			"progress": fmt.Sprintf("%d/%d", idx+1, len(corpora)),
			"target":   corpus.Target,
			"urls":     summary.TotalURLs,
			"paths":    len(summary.UniquePaths),
			"scripts":  len(summary.ScriptFiles),
			"apis":     len(summary.APIEndpoints),
		}).Info("Corpus analyzed")
	}

	if err := s.store.WriteJSON(artifacts.DirAnalysis, artifacts.CompleteAnalysisFile, entries); err != nil {
		return err
	}
	if err := s.store.WriteLines(artifacts.DirAnalysis, artifacts.EmptyTargetsFile, emptyTargets); err != nil {
		return err
	}
	if err := s.store.WriteText(artifacts.DirAnalysis, artifacts.InterestingFindingsFile, buildInterestingReport(entries)); err != nil {
		return err
	}

	var scriptURLs, apiEndpoints []string
	for _, entry := range entries {
		scriptURLs = append(scriptURLs, entry.Findings.ScriptFiles...)
		apiEndpoints = append(apiEndpoints, entry.Findings.APIEndpoints...)
	}
	if err := s.store.WriteLines(artifacts.DirAnalysis, artifacts.ScriptURLsFile, scriptURLs); err != nil {
		return err
	}
	if err := s.store.WriteLines(artifacts.DirAnalysis, artifacts.APIEndpointsFile, apiEndpoints); err != nil {
		return err
	}
	if err := s.store.WriteText(artifacts.DirAnalysis, artifacts.TopParametersFile, buildTopParameters(entries)); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"analyzed": len(entries),
		"empty":    len(emptyTargets),
		"scripts":  len(scriptURLs),
		"apis":     len(apiEndpoints),
	}).Info("Analysis complete")
	return nil
}

func buildInterestingReport(entries []AnalysisEntry) string {
	var b strings.Builder
	b.WriteString(reportRule + "\n")
	b.WriteString("INTERESTING FINDINGS - PRIORITIZED TARGETS\n")
	b.WriteString(reportRule + "\n\n")

	for _, entry := range entries {
		findings := entry.Findings
		if !findings.HasFindings() {
			continue
		}

		b.WriteString("\n" + reportRule + "\n")
		b.WriteString("SUBDOMAIN: " + entry.Target + "\n")
		b.WriteString(reportRule + "\n\n")

		if len(findings.Sensitive) > 0 {
			b.WriteString("POTENTIAL SENSITIVE DATA:\n")
			b.WriteString(reportSubRule + "\n")
			for _, item := range findings.Sensitive {
				b.WriteString("  Category: " + string(item.Category) + "\n")
				b.WriteString("  URL: " + item.URL + "\n\n")
			}
		}

		if len(findings.InterestingPaths) > 0 {
			b.WriteString("\nINTERESTING PATHS:\n")
			b.WriteString(reportSubRule + "\n")
			paths := findings.InterestingPaths
			for i, path := range paths {
				if i == maxInterestingPerTarget {
					break
				}
				b.WriteString("  " + path + "\n")
			}
			if len(paths) > maxInterestingPerTarget {
				b.WriteString(fmt.Sprintf("\n  ... and %d more\n", len(paths)-maxInterestingPerTarget))
			}
		}
	}
	return b.String()
}

func buildTopParameters(entries []AnalysisEntry) string {
	totals := make(map[string]int)
	for _, entry := range entries {
		for param, count := range entry.Findings.Parameters {
			totals[param] += count
		}
	}

	type paramCount struct {
		name  string
		count int
	}
	ranked := make([]paramCount, 0, len(totals))
	for name, count := range totals {
		ranked = append(ranked, paramCount{name, count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].name < ranked[j].name
	})

	var b strings.Builder
	b.WriteString("TOP PARAMETERS (by frequency):\n")
	b.WriteString(reportRule + "\n\n")
	for i, p := range ranked {
		if i == topParameterCount {
			break
		}
		b.WriteString(fmt.Sprintf("%-30s : %5d occurrences\n", p.name, p.count))
	}
	return b.String()
}
