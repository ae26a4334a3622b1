package stages

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mainajackson95/gau-tools/pkg/artifacts"
	errs "github.com/mainajackson95/gau-tools/pkg/errors"
	"github.com/mainajackson95/gau-tools/pkg/executor"
	"github.com/mainajackson95/gau-tools/pkg/harvester"
	"github.com/mainajackson95/gau-tools/pkg/logger"
)

// HarvestStage runs the harvesting tool across all targets under a bounded
// pool and commits the batch report.
type HarvestStage struct {
	store       *artifacts.Store
	harvester   *harvester.Harvester
	targetsFile string
	workers     int
	timeout     time.Duration
	runID       string
	log         *logrus.Entry
}

func NewHarvestStage(store *artifacts.Store, h *harvester.Harvester, targetsFile string, workers int, timeout time.Duration, runID string) *HarvestStage {
	return &HarvestStage{
		store:       store,
		harvester:   h,
		targetsFile: targetsFile,
		workers:     workers,
		timeout:     timeout,
		runID:       runID,
		log:         logger.NewLogger(logrus.InfoLevel).WithStage(StageHarvest),
	}
}

func (s *HarvestStage) Name() string { return StageHarvest }

func (s *HarvestStage) Run(ctx context.Context) error {
	targets, err := LoadTargets(s.targetsFile)
	if err != nil {
		return err
	}

	if err := s.harvester.CheckTool(ctx); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"targets": len(targets),
		"workers": s.workers,
		"timeout": s.timeout.String(),
	}).Info("Starting harvest batch")

	pool := executor.NewPool(s.workers, s.timeout)
	report, err := pool.Run(ctx, targets, s.harvester.Harvest)
	if err != nil {
		return err
	}
	report.RunID = s.runID

	if err := s.store.WriteJSON(artifacts.DirHarvest, artifacts.BatchReportFile, report); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"successful": report.Successful,
		"empty":      report.Empty,
		"timeouts":   report.Timeouts,
		"errors":     report.Errors,
	}).Info("Harvest batch complete")
	return nil
}

// LoadTargets reads a target list, one per line, skipping blanks and
// comment lines.
func LoadTargets(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrTargetFileNotFound, path)
	}
	defer file.Close()

	var targets []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading target file %s: %w", path, err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: %s", errs.ErrNoTargets, path)
	}
	return targets, nil
}
