package output

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mainajackson95/gau-tools/pkg/artifacts"
)

func TestDedupFile_RemovesDuplicatesPreservingOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.example.com.txt")
	content := "https://a.example.com/one\nhttps://a.example.com/two\nhttps://a.example.com/one\nhttps://a.example.com/three\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	DedupFile(path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://a.example.com/one\nhttps://a.example.com/two\nhttps://a.example.com/three\n", string(got))
}

func TestDedupFile_NoDuplicatesLeavesFileAlone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "b.example.com.txt")
	content := "https://b.example.com/one\nhttps://b.example.com/two\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	before, err := os.Stat(path)
	require.NoError(t, err)

	DedupFile(path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestDedupFile_NormalizesCRLF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.example.com.txt")
	require.NoError(t, os.WriteFile(path, []byte("x\r\ny\r\nx\r\n"), 0644))

	DedupFile(path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x\ny\n", string(got))
}

// The store commits corpora via a .tmp write plus rename, so the watcher
// must pick up the rename, not just plain writes.
func TestWatchCorpora_DeduplicatesCommittedCorpus(t *testing.T) {
	store, err := artifacts.NewStore(t.TempDir())
	require.NoError(t, err)
	harvestDir, err := store.StageDir(artifacts.DirHarvest)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go WatchCorpora(ctx, harvestDir)

	// Give the watcher time to register before committing.
	time.Sleep(200 * time.Millisecond)

	name := "a.example.com.txt"
	content := "https://a.example.com/one\nhttps://a.example.com/one\nhttps://a.example.com/two\n"
	require.NoError(t, store.WriteText(artifacts.DirHarvest, name, content))

	path := filepath.Join(harvestDir, name)
	assert.Eventually(t, func() bool {
		got, err := os.ReadFile(path)
		return err == nil && string(got) == "https://a.example.com/one\nhttps://a.example.com/two\n"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestIsCorpusFile(t *testing.T) {
	assert.True(t, isCorpusFile("/out/1_gau_outputs/a.example.com.txt"))
	assert.False(t, isCorpusFile("/out/1_gau_outputs/a.example.com.txt.tmp"))
	assert.False(t, isCorpusFile("/out/1_gau_outputs/scan_results.json"))
}
