// Package executor runs per-target operations across a fixed-size worker
// pool with per-task timeouts. Failures are isolated per target: a task can
// time out or error without disturbing its siblings, and every outcome is
// recorded as a TaskResult rather than a propagated error.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mainajackson95/gau-tools/pkg/logger"
)

// Operation is one unit of per-target work. The context carries the task
// deadline; implementations should pass it to any process or request they
// start so abandonment on timeout is best-effort propagated.
type Operation func(ctx context.Context, target string) TaskResult

// Pool executes operations with bounded parallelism.
type Pool struct {
	workers int
	timeout time.Duration
	logger  *logger.Logger

	// Guards results and completed. Held only for O(1) appends and
	// increments; operation bodies never run under this lock.
	mu        sync.Mutex
	results   []TaskResult
	completed int
}

// NewPool creates a pool with the given worker bound and per-task timeout.
// Worker counts below 1 are clamped to 1.
func NewPool(workers int, timeout time.Duration) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers: workers,
		timeout: timeout,
		logger:  logger.NewLogger(logrus.InfoLevel),
	}
}

// Run submits every target to the worker pool and blocks until all complete.
// Results are appended in completion order; the returned report is sorted by
// size ascending. Only context cancellation before completion returns an
// error; individual task failures do not.
func (p *Pool) Run(ctx context.Context, targets []string, op Operation) (*BatchReport, error) {
	p.mu.Lock()
	p.results = make([]TaskResult, 0, len(targets))
	p.completed = 0
	p.mu.Unlock()

	start := time.Now()
	total := len(targets)

	jobs := make(chan string)
	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for target := range jobs {
				result := p.runOne(ctx, target, op)
				p.record(result, total)
			}
		}()
	}

	submitted := 0
feed:
	for _, target := range targets {
		select {
		case jobs <- target:
			submitted++
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil && submitted < total {
		return nil, fmt.Errorf("batch cancelled after %d/%d targets: %w", submitted, total, err)
	}

	p.mu.Lock()
	results := p.results
	p.results = nil
	p.mu.Unlock()

	return newBatchReport(results, total, time.Since(start)), nil
}

// runOne executes a single operation under the per-task timeout. A task that
// exceeds the deadline is abandoned: its eventual result is discarded and
// the worker slot is freed. The leaked in-flight work is bounded by the
// buffered done channel.
func (p *Pool) runOne(ctx context.Context, target string, op Operation) TaskResult {
	taskCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	done := make(chan TaskResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- TaskResult{
					Target:  target,
					Status:  StatusError,
					Message: fmt.Sprintf("panic: %v", r),
				}
			}
		}()
		done <- op(taskCtx, target)
	}()

	select {
	case result := <-done:
		return result
	case <-taskCtx.Done():
		if errors.Is(taskCtx.Err(), context.DeadlineExceeded) {
			return TaskResult{
				Target:  target,
				Status:  StatusTimeout,
				Message: fmt.Sprintf("operation exceeded %s", p.timeout),
			}
		}
		return TaskResult{
			Target:  target,
			Status:  StatusError,
			Message: taskCtx.Err().Error(),
		}
	}
}

func (p *Pool) record(result TaskResult, total int) {
	p.mu.Lock()
	p.completed++
	p.results = append(p.results, result)
	completed := p.completed
	p.mu.Unlock()

	entry := p.logger.WithFields(logger.Fields{
		"progress": fmt.Sprintf("%d/%d", completed, total),
		"target":   result.Target,
		"status":   result.Status,
	})
	switch result.Status {
	case StatusTimeout, StatusError:
		entry.WithField("message", result.Message).Warn("Task failed")
	default:
		entry.WithFields(logrus.Fields{
			"items": result.ItemCount,
			"bytes": result.FileSize,
		}).Info("Task completed")
	}
}
