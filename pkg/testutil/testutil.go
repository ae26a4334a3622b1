// Package testutil provides testing utilities shared across the pipeline
// packages.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mainajackson95/gau-tools/pkg/artifacts"
)

// MockRunner implements harvester.Runner for testing. Responses are keyed by
// the full command line; unkeyed commands succeed with no output.
type MockRunner struct {
	mu        sync.RWMutex
	commands  []ExecutedCommand
	responses map[string]CommandResponse
}

type ExecutedCommand struct {
	Name string
	Args []string
}

type CommandResponse struct {
	Output []byte
	Error  error
	Delay  time.Duration
}

func NewMockRunner() *MockRunner {
	return &MockRunner{
		responses: make(map[string]CommandResponse),
	}
}

func (m *MockRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	m.commands = append(m.commands, ExecutedCommand{Name: name, Args: args})
	m.mu.Unlock()

	key := name + " " + strings.Join(args, " ")

	m.mu.RLock()
	response, exists := m.responses[key]
	m.mu.RUnlock()

	if !exists {
		return nil, nil
	}
	if response.Delay > 0 {
		select {
		case <-time.After(response.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return response.Output, response.Error
}

func (m *MockRunner) SetResponse(name string, args []string, response CommandResponse) {
	key := name + " " + strings.Join(args, " ")
	m.mu.Lock()
	m.responses[key] = response
	m.mu.Unlock()
}

func (m *MockRunner) ExecutedCommands() []ExecutedCommand {
	m.mu.RLock()
	defer m.mu.RUnlock()

	commands := make([]ExecutedCommand, len(m.commands))
	copy(commands, m.commands)
	return commands
}

func (m *MockRunner) Reset() {
	m.mu.Lock()
	m.commands = nil
	m.responses = make(map[string]CommandResponse)
	m.mu.Unlock()
}

// NewStore creates an artifact store over a per-test temp directory.
func NewStore(t *testing.T) *artifacts.Store {
	t.Helper()

	store, err := artifacts.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	return store
}

// SeedCorpus writes a corpus file for a target directly into the harvest
// directory, bypassing the harvester.
func SeedCorpus(t *testing.T, store *artifacts.Store, target string, urls ...string) string {
	t.Helper()

	name := artifacts.SafeFilename(target) + ".txt"
	content := ""
	if len(urls) > 0 {
		content = strings.Join(urls, "\n") + "\n"
	}
	if err := store.WriteText(artifacts.DirHarvest, name, content); err != nil {
		t.Fatalf("Failed to seed corpus for %s: %v", target, err)
	}
	return store.Path(artifacts.DirHarvest, name)
}

// CreateTestFile creates a test file with the given content
func CreateTestFile(t *testing.T, dir, filename, content string) string {
	t.Helper()

	filePath := filepath.Join(dir, filename)
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", filePath, err)
	}

	return filePath
}

// WithTimeout creates a context with timeout for tests
func WithTimeout(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), timeout)
}
