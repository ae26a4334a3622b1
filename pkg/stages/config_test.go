package stages

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	errs "github.com/mainajackson95/gau-tools/pkg/errors"
)

func TestConfig_NormalizeFillsDefaults(t *testing.T) {
	cfg := Config{TargetsFile: "targets.txt"}
	cfg.Normalize()

	assert.Equal(t, "recon_results", cfg.OutputRoot)
	assert.Equal(t, "gau", cfg.HarvestTool)
	assert.Equal(t, 10, cfg.HarvestWorkers)
	assert.Equal(t, 120*time.Second, cfg.HarvestTimeout)
	assert.Equal(t, 5, cfg.FetchWorkers)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 2*time.Second, cfg.DorkDelay)
}

func TestConfig_NormalizeKeepsExplicitValues(t *testing.T) {
	cfg := Config{
		TargetsFile:    "targets.txt",
		HarvestWorkers: 20,
		DorkDelay:      0,
	}
	cfg.Normalize()

	assert.Equal(t, 20, cfg.HarvestWorkers)
	// Zero delay means unthrottled, not "use the default".
	assert.Equal(t, time.Duration(0), cfg.DorkDelay)
}

func TestConfig_ValidateRequiresOutputRoot(t *testing.T) {
	cfg := Config{}

	err := cfg.Validate()
	assert.ErrorIs(t, err, errs.ErrInvalidConfig)
}

// A missing targets file only blocks harvesting; the other stages run
// standalone against an existing output tree.
func TestConfig_ValidateTargetsOnlyGatesHarvest(t *testing.T) {
	cfg := Config{}
	cfg.Normalize()

	assert.NoError(t, cfg.Validate())
	assert.ErrorIs(t, cfg.ValidateTargets(), errs.ErrInvalidConfig)

	cfg.TargetsFile = "targets.txt"
	assert.NoError(t, cfg.ValidateTargets())
}
