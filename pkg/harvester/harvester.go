// Package harvester drives the external URL harvesting tool once per target
// and persists each target's raw output as a corpus file.
package harvester

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mainajackson95/gau-tools/pkg/artifacts"
	"github.com/mainajackson95/gau-tools/pkg/executor"
	"github.com/mainajackson95/gau-tools/pkg/logger"
)

const defaultTool = "gau"

// OptFunc mutates harvester construction defaults.
type OptFunc func(*Harvester)

// WithTool overrides the harvesting binary name.
func WithTool(tool string) OptFunc {
	return func(h *Harvester) { h.tool = tool }
}

// WithExtraArgs prepends additional tool flags before the target argument.
func WithExtraArgs(args ...string) OptFunc {
	return func(h *Harvester) { h.extraArgs = args }
}

// WithRunner swaps the process runner, used by tests.
func WithRunner(r Runner) OptFunc {
	return func(h *Harvester) { h.runner = r }
}

func WithLogger(l *logger.Logger) OptFunc {
	return func(h *Harvester) { h.logger = l }
}

// Harvester invokes the tool per target and commits corpora to the store.
type Harvester struct {
	store     *artifacts.Store
	runner    Runner
	logger    *logger.Logger
	tool      string
	extraArgs []string
}

func New(store *artifacts.Store, opts ...OptFunc) *Harvester {
	h := &Harvester{
		store:  store,
		runner: NewExecRunner(),
		logger: logger.NewLogger(logrus.InfoLevel),
		tool:   defaultTool,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// CheckTool verifies the harvesting binary is invocable before a batch
// starts, so a missing install fails fast instead of producing a full run of
// ERROR results.
func (h *Harvester) CheckTool(ctx context.Context) error {
	if _, err := h.runner.Run(ctx, h.tool, "--help"); err != nil {
		return fmt.Errorf("%s is not available: %w", h.tool, err)
	}
	return nil
}

// Harvest runs the tool for one target and records the outcome. Non-empty
// stdout becomes the target's corpus file; empty stdout still commits an
// empty file so downstream stages can tell "harvested nothing" from "never
// harvested". On timeout or error no corpus file is written.
func (h *Harvester) Harvest(ctx context.Context, target string) executor.TaskResult {
	result := executor.TaskResult{Target: target}

	args := append(append([]string(nil), h.extraArgs...), target)
	output, err := h.runner.Run(ctx, h.tool, args...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			result.Status = executor.StatusTimeout
			result.Message = "harvest timed out"
			return result
		}
		result.Status = executor.StatusError
		result.Message = err.Error()
		return result
	}

	name := artifacts.SafeFilename(target) + ".txt"
	count := countURLs(output)

	if count == 0 {
		if err := h.store.WriteText(artifacts.DirHarvest, name, ""); err != nil {
			result.Status = executor.StatusError
			result.Message = err.Error()
			return result
		}
		result.OutputFile = h.store.Path(artifacts.DirHarvest, name)
		result.Status = executor.StatusEmpty
		return result
	}

	if err := h.store.WriteText(artifacts.DirHarvest, name, string(output)); err != nil {
		result.Status = executor.StatusError
		result.Message = err.Error()
		return result
	}

	path := h.store.Path(artifacts.DirHarvest, name)
	if fi, err := os.Stat(path); err == nil {
		result.FileSize = fi.Size()
	}
	result.OutputFile = path
	result.ItemCount = count
	result.Status = executor.StatusSuccess
	return result
}

func countURLs(output []byte) int {
	count := 0
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			count++
		}
	}
	return count
}
