package classify

import "sort"

// ContentClassifier applies the content-mode taxonomy to fetched script
// bodies. Unlike URL mode, matches are sub-string captures deduplicated per
// category, not whole lines.
type ContentClassifier struct {
	patterns []PatternSet
}

// NewContentClassifier builds a classifier over the given pattern sets; nil
// selects the default content taxonomy. Extra sets, such as custom patterns
// loaded from YAML, are applied after the defaults.
func NewContentClassifier(patterns []PatternSet, extra ...PatternSet) *ContentClassifier {
	if patterns == nil {
		patterns = DefaultContentPatterns()
	}
	return &ContentClassifier{patterns: append(patterns, extra...)}
}

// Classify scans a script body and returns the findings for its source URL.
// Categories with zero matches are omitted from the result.
func (c *ContentClassifier) Classify(sourceURL, content string) *ScriptFindings {
	findings := &ScriptFindings{
		URL:     sourceURL,
		Size:    len(content),
		Matches: make(map[Category][]string),
	}

	for _, set := range c.patterns {
		seen := make(map[string]struct{})
		for _, pattern := range set.Patterns {
			for _, m := range pattern.FindAllStringSubmatch(content, -1) {
				value := m[0]
				// Assignment-style patterns capture the assigned value.
				if len(m) > 1 && m[1] != "" {
					value = m[1]
				}
				seen[value] = struct{}{}
			}
		}
		if len(seen) == 0 {
			continue
		}
		matches := make([]string, 0, len(seen))
		for value := range seen {
			matches = append(matches, value)
		}
		sort.Strings(matches)
		findings.Matches[set.Category] = matches
	}

	return findings
}
