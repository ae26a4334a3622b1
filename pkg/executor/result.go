package executor

import (
	"sort"
	"time"
)

// Status is the outcome of one unit of work.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusEmpty   Status = "EMPTY"
	StatusTimeout Status = "TIMEOUT"
	StatusError   Status = "ERROR"
)

// TaskResult is the immutable outcome of one per-target operation.
type TaskResult struct {
	Target     string `json:"subdomain"`
	OutputFile string `json:"output_file,omitempty"`
	FileSize   int64  `json:"file_size"`
	ItemCount  int    `json:"url_count"`
	Status     Status `json:"status"`
	Message    string `json:"message,omitempty"`
}

// BatchReport aggregates all TaskResults for one pool run. Results are
// materialized sorted by file size ascending so the smallest corpora, the
// highest-value leads, come first.
type BatchReport struct {
	RunID          string       `json:"run_id,omitempty"`
	Timestamp      time.Time    `json:"timestamp"`
	TotalTargets   int          `json:"total_subdomains"`
	Completed      int          `json:"completed"`
	Successful     int          `json:"successful"`
	Empty          int          `json:"empty"`
	Timeouts       int          `json:"timeouts"`
	Errors         int          `json:"errors"`
	ElapsedSeconds float64      `json:"elapsed_seconds"`
	Results        []TaskResult `json:"results"`
}

func newBatchReport(results []TaskResult, total int, elapsed time.Duration) *BatchReport {
	report := &BatchReport{
		Timestamp:      time.Now(),
		TotalTargets:   total,
		Completed:      len(results),
		ElapsedSeconds: elapsed.Seconds(),
		Results:        results,
	}

	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
			report.Successful++
		case StatusEmpty:
			report.Empty++
		case StatusTimeout:
			report.Timeouts++
			report.Errors++
		case StatusError:
			report.Errors++
		}
	}

	sort.Slice(report.Results, func(i, j int) bool {
		if report.Results[i].FileSize != report.Results[j].FileSize {
			return report.Results[i].FileSize < report.Results[j].FileSize
		}
		return report.Results[i].Target < report.Results[j].Target
	})

	return report
}
