package classify

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"
)

// URLClassifier applies the URL-mode taxonomy to a corpus of URL lines,
// streaming one line at a time so corpus size never bounds memory.
type URLClassifier struct {
	taxonomy *URLTaxonomy
}

// NewURLClassifier builds a classifier over the given taxonomy; nil selects
// the default taxonomy.
func NewURLClassifier(taxonomy *URLTaxonomy) *URLClassifier {
	if taxonomy == nil {
		taxonomy = DefaultURLTaxonomy()
	}
	return &URLClassifier{taxonomy: taxonomy}
}

// ClassifyFile streams a corpus file and returns its summary. Unparseable
// lines are counted as skipped, never fatal for the corpus.
func (c *URLClassifier) ClassifyFile(path, target string) (*URLSummary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus %s: %w", path, err)
	}
	defer file.Close()

	fi, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat corpus %s: %w", path, err)
	}

	summary, err := c.Classify(file, target)
	if err != nil {
		return nil, err
	}
	summary.FileSize = fi.Size()
	return summary, nil
}

// Classify streams URL lines from r and returns the aggregate summary.
func (c *URLClassifier) Classify(r io.Reader, target string) (*URLSummary, error) {
	summary := &URLSummary{
		Target:     target,
		Parameters: make(map[string]int),
		Extensions: make(map[string]int),
	}
	uniquePaths := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		summary.TotalURLs++
		c.classifyLine(line, summary, uniquePaths)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading corpus for %s: %w", target, err)
	}

	summary.UniquePaths = make([]string, 0, len(uniquePaths))
	for path := range uniquePaths {
		summary.UniquePaths = append(summary.UniquePaths, path)
	}
	sort.Strings(summary.UniquePaths)

	return summary, nil
}

func (c *URLClassifier) classifyLine(line string, summary *URLSummary, uniquePaths map[string]struct{}) {
	parsed, err := url.Parse(line)
	if err != nil {
		summary.SkippedLines++
		return
	}

	path := parsed.Path
	lowerPath := strings.ToLower(path)
	uniquePaths[path] = struct{}{}

	for _, interesting := range c.taxonomy.Paths {
		if strings.Contains(lowerPath, interesting) {
			summary.InterestingPaths = append(summary.InterestingPaths, line)
			break
		}
	}

	// First extension match wins; one line never counts twice.
	for _, ext := range c.taxonomy.Extensions {
		if strings.HasSuffix(lowerPath, ext) {
			summary.InterestingFiles = append(summary.InterestingFiles, line)
			summary.Extensions[ext]++
			break
		}
	}

	for _, ext := range c.taxonomy.ScriptExtensions {
		if strings.HasSuffix(lowerPath, ext) {
			summary.ScriptFiles = append(summary.ScriptFiles, line)
			break
		}
	}

	if strings.Contains(lowerPath, "/api/") || strings.HasPrefix(lowerPath, "/api") {
		summary.APIEndpoints = append(summary.APIEndpoints, line)
	}

	if parsed.RawQuery != "" {
		if params, err := url.ParseQuery(parsed.RawQuery); err == nil {
			for name := range params {
				// Every parameter name counts toward the frequency
				// table, interesting or not.
				summary.Parameters[name]++
				if c.taxonomy.Parameters[strings.ToLower(name)] {
					summary.InterestingPaths = append(summary.InterestingPaths, line)
				}
			}
		}
	}

	// First matching pattern per category wins; remaining patterns of that
	// category are skipped for this line. A line carrying two distinct
	// secrets of the same category is therefore recorded once — a known
	// limitation kept for report stability.
	for _, set := range c.taxonomy.Sensitive {
		for _, pattern := range set.Patterns {
			if pattern.MatchString(line) {
				summary.Sensitive = append(summary.Sensitive, SensitiveMatch{
					URL:      line,
					Category: set.Category,
					Pattern:  pattern.String(),
				})
				break
			}
		}
	}
}
