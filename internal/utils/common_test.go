package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewViperConfigMissingFileUsesDefaults(t *testing.T) {
	v, err := NewViperConfig(t.TempDir())
	require.NoError(t, err)

	cfg := StagesConfig(v)
	assert.Equal(t, "recon_results", cfg.OutputRoot)
	assert.Equal(t, "gau", cfg.HarvestTool)
	assert.Equal(t, 10, cfg.HarvestWorkers)
	assert.Equal(t, 120*time.Second, cfg.HarvestTimeout)
	assert.Equal(t, 2*time.Second, cfg.DorkDelay)
	assert.Empty(t, cfg.TargetsFile)
}

func TestNewViperConfigReadsFile(t *testing.T) {
	dir := t.TempDir()
	content := `
targets_file: subs.txt
output_root: out
harvest:
  tool: waybackurls
  workers: 3
  timeout: 30s
dork:
  delay: 5s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gautools.yaml"), []byte(content), 0644))

	v, err := NewViperConfig(dir)
	require.NoError(t, err)

	cfg := StagesConfig(v)
	assert.Equal(t, "subs.txt", cfg.TargetsFile)
	assert.Equal(t, "out", cfg.OutputRoot)
	assert.Equal(t, "waybackurls", cfg.HarvestTool)
	assert.Equal(t, 3, cfg.HarvestWorkers)
	assert.Equal(t, 30*time.Second, cfg.HarvestTimeout)
	assert.Equal(t, 5*time.Second, cfg.DorkDelay)
	// Unset keys keep defaults.
	assert.Equal(t, 5, cfg.FetchWorkers)
}

func TestNewViperConfigMalformedFileFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gautools.yaml"), []byte(":\t nope ["), 0644))

	_, err := NewViperConfig(dir)
	assert.Error(t, err)
}
