// Package artifacts implements the directory-scoped contract between
// pipeline stages. Each stage writes named files into its own stage
// directory; downstream stages read them by name only.
package artifacts

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Stage directory names under the output root. The numeric prefixes keep
// directory listings in pipeline order.
const (
	DirHarvest  = "1_gau_outputs"
	DirAnalysis = "2_analysis"
	DirScripts  = "3_js_analysis"
	DirDork     = "4_dork_results"
)

// Artifact file names. These names are the contract: any stage can be
// invoked standalone against a prior run's output tree.
const (
	BatchReportFile         = "scan_results.json"
	CompleteAnalysisFile    = "complete_analysis.json"
	EmptyTargetsFile        = "empty_subdomains.txt"
	InterestingFindingsFile = "interesting_findings.txt"
	ScriptURLsFile          = "all_js_files.txt"
	APIEndpointsFile        = "all_api_endpoints.txt"
	TopParametersFile       = "top_parameters.txt"
	ScriptAnalysisFile      = "js_analysis.json"
	HighPriorityFile        = "HIGH_PRIORITY.txt"
	ScriptEndpointsFile     = "all_endpoints.txt"
	CategoriesDir           = "categories"
	DorkResultsFile         = "dork_results.json"
	DorkReportFile          = "dork_report.txt"
	FoundURLsFile           = "found_urls.txt"
	InterestingURLsFile     = "interesting_urls.txt"
	RunSummaryFile          = "run_summary.json"
)

// Store maps artifact names to paths under one output root.
type Store struct {
	root string
}

// NewStore creates the output root if needed and returns a store over it.
func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("output root is empty")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output root %s: %w", root, err)
	}
	return &Store{root: root}, nil
}

func (s *Store) Root() string {
	return s.root
}

// StageDir returns the absolute path of a stage directory, creating it
// idempotently.
func (s *Store) StageDir(dir string) (string, error) {
	path := filepath.Join(s.root, dir)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("failed to create stage directory %s: %w", path, err)
	}
	return path, nil
}

// Path returns the path of a named artifact without creating anything.
func (s *Store) Path(dir, name string) string {
	return filepath.Join(s.root, dir, name)
}

// Exists reports whether a named artifact exists.
func (s *Store) Exists(dir, name string) bool {
	_, err := os.Stat(s.Path(dir, name))
	return err == nil
}

// NonEmpty reports whether a named artifact exists and has content.
func (s *Store) NonEmpty(dir, name string) bool {
	fi, err := os.Stat(s.Path(dir, name))
	return err == nil && fi.Size() > 0
}

// WriteLines commits a line-oriented artifact. The write goes through a
// temporary file and rename so consumers never observe a partial artifact.
func (s *Store) WriteLines(dir, name string, lines []string) error {
	if _, err := s.StageDir(dir); err != nil {
		return err
	}
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	return s.commit(dir, name, []byte(content))
}

// ReadLines reads a line-oriented artifact, stripping blank lines.
func (s *Store) ReadLines(dir, name string) ([]string, error) {
	file, err := os.Open(s.Path(dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact %s: %w", name, err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading artifact %s: %w", name, err)
	}
	return lines, nil
}

// WriteJSON commits an indented JSON artifact.
func (s *Store) WriteJSON(dir, name string, v interface{}) error {
	if _, err := s.StageDir(dir); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal artifact %s: %w", name, err)
	}
	return s.commit(dir, name, data)
}

// ReadJSON reads a JSON artifact into v.
func (s *Store) ReadJSON(dir, name string, v interface{}) error {
	data, err := os.ReadFile(s.Path(dir, name))
	if err != nil {
		return fmt.Errorf("failed to read artifact %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse artifact %s: %w", name, err)
	}
	return nil
}

// WriteText commits a plain-text artifact.
func (s *Store) WriteText(dir, name, content string) error {
	if _, err := s.StageDir(dir); err != nil {
		return err
	}
	return s.commit(dir, name, []byte(content))
}

func (s *Store) commit(dir, name string, data []byte) error {
	final := s.Path(dir, name)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", name, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("failed to commit artifact %s: %w", name, err)
	}
	return nil
}

// SafeFilename encodes a target into a filesystem-safe corpus filename stem.
func SafeFilename(target string) string {
	replacer := strings.NewReplacer("/", "_", ":", "_")
	return replacer.Replace(target)
}

// CorpusPath returns the raw corpus path for a target.
func (s *Store) CorpusPath(target string) string {
	return s.Path(DirHarvest, SafeFilename(target)+".txt")
}

// CorpusInfo describes one harvested corpus file.
type CorpusInfo struct {
	Target string
	Path   string
	Size   int64
}

// ListCorpora returns all corpus files under the harvest directory sorted by
// size ascending, smallest first. The batch report JSON is excluded.
func (s *Store) ListCorpora() ([]CorpusInfo, error) {
	dir := filepath.Join(s.root, DirHarvest)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus directory %s: %w", dir, err)
	}

	var corpora []CorpusInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		corpora = append(corpora, CorpusInfo{
			Target: strings.TrimSuffix(entry.Name(), ".txt"),
			Path:   filepath.Join(dir, entry.Name()),
			Size:   info.Size(),
		})
	}

	sort.Slice(corpora, func(i, j int) bool {
		if corpora[i].Size != corpora[j].Size {
			return corpora[i].Size < corpora[j].Size
		}
		return corpora[i].Target < corpora[j].Target
	})
	return corpora, nil
}
