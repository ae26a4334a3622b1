package executor

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_AllTargetsExactlyOnce(t *testing.T) {
	targets := make([]string, 25)
	for i := range targets {
		targets[i] = fmt.Sprintf("sub%d.example.com", i)
	}

	for _, workers := range []int{1, 3, 10, 25} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			var mu sync.Mutex
			seen := make(map[string]int)

			pool := NewPool(workers, 5*time.Second)
			report, err := pool.Run(context.Background(), targets, func(ctx context.Context, target string) TaskResult {
				mu.Lock()
				seen[target]++
				mu.Unlock()
				return TaskResult{Target: target, Status: StatusSuccess, ItemCount: 1}
			})

			require.NoError(t, err)
			assert.Equal(t, len(targets), report.Completed)
			assert.Len(t, report.Results, len(targets))
			for _, target := range targets {
				assert.Equal(t, 1, seen[target], "target %s should run exactly once", target)
			}
		})
	}
}

func TestPool_Timeout(t *testing.T) {
	pool := NewPool(2, 50*time.Millisecond)

	report, err := pool.Run(context.Background(), []string{"slow.example.com", "fast.example.com"}, func(ctx context.Context, target string) TaskResult {
		if target == "slow.example.com" {
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
				// abandoned; the pool never sees this result
				<-time.After(10 * time.Millisecond)
			}
			return TaskResult{Target: target, Status: StatusSuccess}
		}
		return TaskResult{Target: target, Status: StatusSuccess, FileSize: 10}
	})

	require.NoError(t, err)
	require.Len(t, report.Results, 2)

	byTarget := make(map[string]TaskResult)
	for _, r := range report.Results {
		byTarget[r.Target] = r
	}
	assert.Equal(t, StatusTimeout, byTarget["slow.example.com"].Status)
	assert.Equal(t, StatusSuccess, byTarget["fast.example.com"].Status)
	assert.Equal(t, 1, report.Timeouts)
	assert.Equal(t, 1, report.Errors)
}

func TestPool_ErrorIsolation(t *testing.T) {
	pool := NewPool(3, time.Second)

	report, err := pool.Run(context.Background(), []string{"a", "b", "c"}, func(ctx context.Context, target string) TaskResult {
		if target == "b" {
			panic("collaborator blew up")
		}
		return TaskResult{Target: target, Status: StatusSuccess}
	})

	require.NoError(t, err)
	assert.Equal(t, 3, report.Completed)
	assert.Equal(t, 2, report.Successful)
	assert.Equal(t, 1, report.Errors)
}

func TestPool_ReportSortedBySize(t *testing.T) {
	sizes := map[string]int64{"big": 5000, "tiny": 3, "mid": 120, "empty": 0}
	targets := []string{"big", "tiny", "mid", "empty"}

	pool := NewPool(4, time.Second)
	report, err := pool.Run(context.Background(), targets, func(ctx context.Context, target string) TaskResult {
		status := StatusSuccess
		if sizes[target] == 0 {
			status = StatusEmpty
		}
		return TaskResult{Target: target, Status: status, FileSize: sizes[target]}
	})

	require.NoError(t, err)
	var got []string
	for _, r := range report.Results {
		got = append(got, r.Target)
	}
	assert.Equal(t, []string{"empty", "tiny", "mid", "big"}, got)
	assert.Equal(t, 1, report.Empty)
	assert.Equal(t, 3, report.Successful)
}

func TestPool_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	targets := make([]string, 50)
	for i := range targets {
		targets[i] = fmt.Sprintf("t%d", i)
	}

	var started sync.Once
	pool := NewPool(1, time.Second)
	_, err := pool.Run(ctx, targets, func(ctx context.Context, target string) TaskResult {
		started.Do(cancel)
		return TaskResult{Target: target, Status: StatusSuccess}
	})

	assert.Error(t, err)
}
