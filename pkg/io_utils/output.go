// Package output watches the harvest directory and deduplicates corpus
// files as they land. Harvest tools replay the same URL from multiple
// providers; collapsing duplicates early keeps corpus sizes honest for the
// smallest-first analysis ordering.
package output

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

var (
	procMutex sync.Mutex
	procMap   = make(map[string]bool)
)

// WatchCorpora blocks watching dir for corpus writes until the context ends.
// Run it in its own goroutine.
func WatchCorpora(ctx context.Context, dir string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Error(err)
		return
	}
	defer watcher.Close()

	fileInfo, err := os.Stat(dir)
	if err != nil {
		log.Errorf("Directory does not exist: %s", dir)
		return
	}
	if !fileInfo.IsDir() {
		log.Errorf("%s is not a directory", dir)
		return
	}
	log.Infof("Watching corpus directory: %s", dir)

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				// In-place writes arrive as Write; the store commits a
				// corpus by renaming its .tmp file onto the final name,
				// which fsnotify reports as Create.
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					if !isCorpusFile(event.Name) {
						continue
					}
					fi, err := os.Stat(event.Name)
					if err != nil {
						log.Errorf("Error stating %s: %v", event.Name, err)
						continue
					}
					if fi.IsDir() {
						continue
					}

					// One dedup pass per file at a time.
					procMutex.Lock()
					if procMap[event.Name] {
						procMutex.Unlock()
						continue
					}
					procMap[event.Name] = true
					procMutex.Unlock()

					go func(file string) {
						defer func() {
							procMutex.Lock()
							delete(procMap, file)
							procMutex.Unlock()
						}()
						DedupFile(file)
					}(event.Name)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error(err)
			case <-ctx.Done():
				log.Info("Corpus watcher closed")
				return
			}
		}
	}()

	if err := watcher.Add(dir); err != nil {
		log.Error(err)
	}
	<-ctx.Done()
}

// isCorpusFile accepts committed corpus files only. In-flight .tmp files are
// skipped; they get deduplicated after the rename.
func isCorpusFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".txt"
}

// DedupFile removes duplicate lines from a corpus file in place, preserving
// first-seen order. Files without duplicates are left untouched.
func DedupFile(path string) {
	fi, err := os.Stat(path)
	if err != nil {
		log.Errorf("Error stating file %s: %v", path, err)
		return
	}
	if fi.IsDir() {
		return
	}

	content, err := os.ReadFile(path)
	if err != nil {
		log.Errorf("Error reading file %s: %v", path, err)
		return
	}

	normalized := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	normalized = bytes.ReplaceAll(normalized, []byte("\r"), []byte("\n"))
	lines := strings.Split(string(normalized), "\n")

	seen := make(map[string]bool)
	var newLines []string
	duplicatesFound := false

	for i, line := range lines {
		// Preserve trailing empty line (last line)
		if i == len(lines)-1 && line == "" {
			newLines = append(newLines, line)
			continue
		}

		if !seen[line] {
			seen[line] = true
			newLines = append(newLines, line)
		} else {
			duplicatesFound = true
		}
	}

	if !duplicatesFound {
		return
	}

	newContent := strings.Join(newLines, "\n")
	if err := os.WriteFile(path, []byte(newContent), fi.Mode().Perm()); err != nil {
		log.Errorf("Error writing file %s: %v", path, err)
	}
}
