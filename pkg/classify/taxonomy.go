package classify

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// PatternSet binds one category to an ordered list of matchers. Order
// matters: URL mode short-circuits after the first pattern of a category
// matches a line.
type PatternSet struct {
	Category Category
	Patterns []*regexp.Regexp
}

// URLTaxonomy configures URL-mode classification.
type URLTaxonomy struct {
	// Paths are case-insensitive substrings matched against the URL path.
	Paths []string
	// Extensions are checked against the path suffix in order; the first
	// match wins and feeds the extension frequency table.
	Extensions []string
	// ScriptExtensions mark lines handed off to content mode.
	ScriptExtensions []string
	// Parameters is the set of interesting query parameter names.
	Parameters map[string]bool
	// Sensitive holds the regex categories applied per line.
	Sensitive []PatternSet
}

var defaultInterestingPaths = []string{
	"/admin", "/api", "/backup", "/config", "/console", "/debug",
	"/dev", "/internal", "/private", "/test", "/staging", "/swagger",
	"/graphql", "/v1", "/v2", "/v3", "/.git", "/.env", "/phpinfo",
	"/status", "/health", "/metrics", "/actuator", "/management",
}

var defaultInterestingExtensions = []string{
	".json", ".xml", ".yml", ".yaml", ".config", ".conf", ".ini",
	".env", ".log", ".sql", ".db", ".bak", ".backup", ".old",
	".zip", ".tar", ".gz", ".rar", ".7z",
}

var defaultInterestingParameters = []string{
	"id", "user", "account", "key", "token", "api", "callback",
	"redirect", "url", "next", "file", "path", "dir", "admin",
	"debug", "test", "lang", "locale", "template", "page",
}

// DefaultURLTaxonomy returns a fresh copy of the built-in URL-mode taxonomy.
func DefaultURLTaxonomy() *URLTaxonomy {
	params := make(map[string]bool, len(defaultInterestingParameters))
	for _, p := range defaultInterestingParameters {
		params[p] = true
	}

	return &URLTaxonomy{
		Paths:            append([]string(nil), defaultInterestingPaths...),
		Extensions:       append([]string(nil), defaultInterestingExtensions...),
		ScriptExtensions: []string{".js"},
		Parameters:       params,
		Sensitive: []PatternSet{
			{Category: CategoryAPIKeys, Patterns: compileAll(
				`(?i)api[_-]?key["\s:=]+([a-zA-Z0-9_\-]+)`,
				`(?i)apikey["\s:=]+([a-zA-Z0-9_\-]+)`,
				`(?i)access[_-]?token["\s:=]+([a-zA-Z0-9_\-]+)`,
				`(?i)secret[_-]?key["\s:=]+([a-zA-Z0-9_\-]+)`,
			)},
			{Category: CategoryAWSKeys, Patterns: compileAll(
				`(?i)AKIA[0-9A-Z]{16}`,
				`(?i)aws[_-]?access[_-]?key`,
				`(?i)aws[_-]?secret`,
			)},
			{Category: CategoryTokens, Patterns: compileAll(
				`(?i)bearer\s+[a-zA-Z0-9\-._~+/]+`,
				`(?i)token["\s:=]+([a-zA-Z0-9_\-.]+)`,
				`(?i)jwt["\s:=]+([a-zA-Z0-9_\-.]+)`,
			)},
			{Category: CategoryCredentials, Patterns: compileAll(
				`(?i)password["\s:=]+([^\s"]+)`,
				`(?i)passwd["\s:=]+([^\s"]+)`,
				`(?i)pwd["\s:=]+([^\s"]+)`,
				`(?i)username["\s:=]+([^\s"]+)`,
			)},
		},
	}
}

// DefaultContentPatterns returns the content-mode taxonomy. Matching is
// case-insensitive and multi-line; alternations use non-capturing groups so
// the full matched substring is collected, and assignment-style patterns
// capture the assigned value.
func DefaultContentPatterns() []PatternSet {
	return []PatternSet{
		{Category: CategoryAPIEndpoints, Patterns: compileAll(
			`(?im)["']/(?:api|v1|v2|v3|graphql|rest)[^"']*["']`,
			`(?im)["']https?://[^"']*/(?:api|v1|v2|v3)[^"']*["']`,
			`(?im)endpoint\s*[:=]\s*["']([^"']+)["']`,
			`(?im)url\s*[:=]\s*["']([^"']+)["']`,
			`(?im)baseURL\s*[:=]\s*["']([^"']+)["']`,
		)},
		{Category: CategoryAWSKeys, Patterns: compileAll(
			`(?i)(?:A3T[A-Z0-9]|AKIA|AGPA|AIDA|AROA|AIPA|ANPA|ANVA|ASIA)[A-Z0-9]{16}`,
		)},
		{Category: CategoryAPIKeys, Patterns: compileAll(
			`(?im)["']?api[_-]?key["']?\s*[:=]\s*["']([a-zA-Z0-9_\-]{20,})["']`,
			`(?im)["']?apikey["']?\s*[:=]\s*["']([a-zA-Z0-9_\-]{20,})["']`,
			`(?im)["']?key["']?\s*[:=]\s*["']([a-zA-Z0-9_\-]{20,})["']`,
		)},
		{Category: CategoryTokens, Patterns: compileAll(
			`(?im)["']?token["']?\s*[:=]\s*["']([a-zA-Z0-9_\-.]{20,})["']`,
			`(?im)["']?auth["']?\s*[:=]\s*["']([a-zA-Z0-9_\-.]{20,})["']`,
			`(?im)["']?bearer["']?\s*[:=]\s*["']([a-zA-Z0-9_\-.]{20,})["']`,
			`(?i)eyJ[a-zA-Z0-9_\-]+\.eyJ[a-zA-Z0-9_\-]+\.[a-zA-Z0-9_\-]+`,
		)},
		{Category: CategorySecrets, Patterns: compileAll(
			`(?im)["']?secret["']?\s*[:=]\s*["']([^"']{10,})["']`,
			`(?im)["']?password["']?\s*[:=]\s*["']([^"']{8,})["']`,
			`(?im)["']?passwd["']?\s*[:=]\s*["']([^"']{8,})["']`,
		)},
		{Category: CategoryGoogleAPI, Patterns: compileAll(
			`(?i)AIza[0-9A-Za-z_\-]{35}`,
		)},
		{Category: CategorySlackTokens, Patterns: compileAll(
			`(?i)xox[pboa]-[0-9]{12}-[0-9]{12}-[0-9]{12}-[a-z0-9]{32}`,
		)},
		{Category: CategoryPrivateKeys, Patterns: compileAll(
			`-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`,
		)},
		{Category: CategoryURLs, Patterns: compileAll(
			`(?im)https?://[^\s'"<>]+`,
		)},
		{Category: CategoryS3Buckets, Patterns: compileAll(
			`(?im)[a-z0-9.-]+\.s3\.amazonaws\.com`,
			`(?im)s3://[a-z0-9.-]+`,
			`(?im)s3-[a-z0-9-]+\.amazonaws\.com/[a-z0-9.-]+`,
		)},
		{Category: CategoryFirebase, Patterns: compileAll(
			`(?im)[a-z0-9.-]+\.firebaseio\.com`,
			`(?im)[a-z0-9.-]+\.firebaseapp\.com`,
		)},
	}
}

func compileAll(exprs ...string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		patterns = append(patterns, regexp.MustCompile(expr))
	}
	return patterns
}

// LoadCustomPatterns reads additional sensitive-pattern categories from a
// YAML file mapping category names to regex lists. Invalid expressions fail
// the whole load so a typo never silently drops a pattern.
func LoadCustomPatterns(path string) ([]PatternSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern file %s: %w", path, err)
	}

	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse pattern file %s: %w", path, err)
	}

	var sets []PatternSet
	for category, exprs := range raw {
		set := PatternSet{Category: Category(category)}
		for _, expr := range exprs {
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q in category %s: %w", expr, category, err)
			}
			set.Patterns = append(set.Patterns, re)
		}
		if len(set.Patterns) > 0 {
			sets = append(sets, set)
		}
	}
	return sets, nil
}
