package handlers

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mainajackson95/gau-tools/internal/services"
	"github.com/mainajackson95/gau-tools/pkg/artifacts"
	"github.com/mainajackson95/gau-tools/pkg/logger"
)

// artifactLocations whitelists the artifact names the API serves and maps
// each to its stage directory. Anything else is a 404, which also blocks
// path traversal through the :name parameter.
var artifactLocations = map[string]string{
	artifacts.BatchReportFile:         artifacts.DirHarvest,
	artifacts.CompleteAnalysisFile:    artifacts.DirAnalysis,
	artifacts.EmptyTargetsFile:        artifacts.DirAnalysis,
	artifacts.InterestingFindingsFile: artifacts.DirAnalysis,
	artifacts.ScriptURLsFile:          artifacts.DirAnalysis,
	artifacts.APIEndpointsFile:        artifacts.DirAnalysis,
	artifacts.TopParametersFile:       artifacts.DirAnalysis,
	artifacts.ScriptAnalysisFile:      artifacts.DirScripts,
	artifacts.HighPriorityFile:        artifacts.DirScripts,
	artifacts.ScriptEndpointsFile:     artifacts.DirScripts,
	artifacts.DorkResultsFile:         artifacts.DirDork,
	artifacts.DorkReportFile:          artifacts.DirDork,
	artifacts.FoundURLsFile:           artifacts.DirDork,
	artifacts.InterestingURLsFile:     artifacts.DirDork,
	artifacts.RunSummaryFile:          "",
}

type RunHandler struct {
	runService services.RunServiceMethods
	logger     *logger.Logger
}

func NewRunHandler(runService services.RunServiceMethods) *RunHandler {
	return &RunHandler{runService: runService, logger: logger.NewLogger(logrus.InfoLevel)}
}

func (h *RunHandler) ListRuns(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	runs, total, err := h.runService.ListRuns(page, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		c.JSON(500, gin.H{"error": "Failed to list runs"})
		return
	}
	c.JSON(200, gin.H{
		"runs":  runs,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (h *RunHandler) GetRunByUUID(c *gin.Context) {
	runID := c.Param("id")
	run, err := h.runService.GetRunByUUID(runID)
	if err != nil {
		if errors.Is(err, services.ErrRunNotFound) {
			c.JSON(404, gin.H{"error": "Run not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to get run")
		c.JSON(500, gin.H{"error": "Failed to get run"})
		return
	}
	if run == nil {
		c.JSON(404, gin.H{"error": "Run not found"})
		return
	}
	c.JSON(200, run)
}

func (h *RunHandler) DeleteRun(c *gin.Context) {
	runID := c.Param("id")
	if err := h.runService.DeleteRun(runID); err != nil {
		if errors.Is(err, services.ErrRunNotFound) {
			c.JSON(404, gin.H{"error": "Run not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to delete run")
		c.JSON(500, gin.H{"error": "Failed to delete run"})
		return
	}
	c.Status(204)
}

// GetArtifact streams one whitelisted artifact file from a run's output
// tree.
func (h *RunHandler) GetArtifact(c *gin.Context) {
	runID := c.Param("id")
	name := c.Param("name")

	dir, ok := artifactLocations[name]
	if !ok {
		c.JSON(404, gin.H{"error": "Unknown artifact"})
		return
	}

	run, err := h.runService.GetRunByUUID(runID)
	if err != nil || run == nil {
		c.JSON(404, gin.H{"error": "Run not found"})
		return
	}

	path := filepath.Join(run.OutputRoot, dir, name)
	if _, err := os.Stat(path); err != nil {
		c.JSON(404, gin.H{"error": "Artifact not produced by this run"})
		return
	}
	c.File(path)
}
