package stages

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mainajackson95/gau-tools/pkg/artifacts"
	errs "github.com/mainajackson95/gau-tools/pkg/errors"
	"github.com/mainajackson95/gau-tools/pkg/logger"
	"github.com/mainajackson95/gau-tools/pkg/search"
)

// interestingURLKeywords flag dork hits worth manual review.
var interestingURLKeywords = []string{
	"admin", "api", "login", "config", "backup", "index.of",
	"swagger", "graphql", "debug", "test",
}

// DorkResult aggregates all hits for one target across the query battery.
type DorkResult struct {
	Target  string       `json:"subdomain"`
	Results []search.Hit `json:"results"`
	Count   int          `json:"count"`
}

// DorkStage runs the search-engine query battery against every target whose
// corpus came back empty. Queries run sequentially; the client's limiter
// spaces them out.
type DorkStage struct {
	store  *artifacts.Store
	client *search.Client
	log    *logrus.Entry
}

func NewDorkStage(store *artifacts.Store, client *search.Client) *DorkStage {
	return &DorkStage{
		store:  store,
		client: client,
		log:    logger.NewLogger(logrus.InfoLevel).WithStage(StageDork),
	}
}

func (s *DorkStage) Name() string { return StageDork }

func (s *DorkStage) Run(ctx context.Context) error {
	if !s.store.Exists(artifacts.DirAnalysis, artifacts.EmptyTargetsFile) {
		return fmt.Errorf("%w: %s", errs.ErrArtifactMissing, artifacts.EmptyTargetsFile)
	}
	targets, err := s.store.ReadLines(artifacts.DirAnalysis, artifacts.EmptyTargetsFile)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("%w: %s", errs.ErrArtifactEmpty, artifacts.EmptyTargetsFile)
	}

	s.log.WithField("targets", len(targets)).Info("Dorking empty targets")

	results := make([]DorkResult, 0, len(targets))
	for idx, target := range targets {
		hits, err := s.dorkTarget(ctx, target)
		if err != nil {
			return err
		}

		s.log.WithFields(logrus.Fields{
			"progress": fmt.Sprintf("%d/%d", idx+1, len(targets)),
			"target":   target,
			"hits":     len(hits),
		}).Info("Target dorked")

		if len(hits) > 0 {
			results = append(results, DorkResult{
				Target:  target,
				Results: hits,
				Count:   len(hits),
			})
		}
	}

	return s.writeArtifacts(results)
}

// dorkTarget runs the full query battery for one target. Per-query failures
// are logged and skipped; only context cancellation aborts.
func (s *DorkStage) dorkTarget(ctx context.Context, target string) ([]search.Hit, error) {
	var hits []search.Hit
	for _, query := range search.DorkQueries(target) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		queryHits, err := s.client.Search(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.log.WithError(err).WithField("query", query).Warn("Query failed")
			continue
		}
		hits = append(hits, queryHits...)
	}
	return hits, nil
}

func (s *DorkStage) writeArtifacts(results []DorkResult) error {
	if err := s.store.WriteJSON(artifacts.DirDork, artifacts.DorkResultsFile, results); err != nil {
		return err
	}
	if err := s.store.WriteText(artifacts.DirDork, artifacts.DorkReportFile, buildDorkReport(results)); err != nil {
		return err
	}

	urlSet := make(map[string]struct{})
	for _, result := range results {
		for _, hit := range result.Results {
			if hit.URL != "" {
				urlSet[hit.URL] = struct{}{}
			}
		}
	}
	urls := make([]string, 0, len(urlSet))
	for url := range urlSet {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	if err := s.store.WriteLines(artifacts.DirDork, artifacts.FoundURLsFile, urls); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("INTERESTING URLS (admin, api, config, etc.)\n")
	b.WriteString(reportRule + "\n\n")
	for _, url := range urls {
		if isInterestingURL(url) {
			b.WriteString(url + "\n")
		}
	}
	return s.store.WriteText(artifacts.DirDork, artifacts.InterestingURLsFile, b.String())
}

func isInterestingURL(url string) bool {
	lower := strings.ToLower(url)
	for _, keyword := range interestingURLKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func buildDorkReport(results []DorkResult) string {
	var b strings.Builder
	b.WriteString(reportRule + "\n")
	b.WriteString("SEARCH ENGINE DORKING RESULTS\n")
	b.WriteString(reportRule + "\n\n")

	for _, result := range results {
		b.WriteString("\n" + reportRule + "\n")
		b.WriteString("SUBDOMAIN: " + result.Target + "\n")
		b.WriteString(fmt.Sprintf("Results Found: %d\n", result.Count))
		b.WriteString(reportRule + "\n\n")

		for _, hit := range result.Results {
			b.WriteString("Title: " + orNA(hit.Title) + "\n")
			b.WriteString("URL: " + orNA(hit.URL) + "\n")
			b.WriteString("Snippet: " + orNA(hit.Snippet) + "\n")
			b.WriteString(reportSubRule + "\n")
		}
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
