package classify

// Category identifies one class of interesting or sensitive data in the
// taxonomy. The taxonomy is extended by adding constants and binding them to
// patterns in taxonomy.go, never by runtime map mutation.
type Category string

const (
	// Shared between URL mode and content mode.
	CategoryAPIKeys Category = "api_keys"
	CategoryAWSKeys Category = "aws_keys"
	CategoryTokens  Category = "tokens"

	// URL mode only.
	CategoryCredentials Category = "credentials"

	// Content mode only.
	CategoryAPIEndpoints Category = "api_endpoints"
	CategorySecrets      Category = "secrets"
	CategoryGoogleAPI    Category = "google_api"
	CategorySlackTokens  Category = "slack_tokens"
	CategoryPrivateKeys  Category = "private_keys"
	CategoryURLs         Category = "urls"
	CategoryS3Buckets    Category = "s3_buckets"
	CategoryFirebase     Category = "firebase"
)

// PriorityCategories are the content-mode categories surfaced in the
// high-priority report, in report order.
var PriorityCategories = []Category{
	CategoryAWSKeys,
	CategoryAPIKeys,
	CategoryTokens,
	CategorySecrets,
	CategoryGoogleAPI,
	CategorySlackTokens,
	CategoryPrivateKeys,
}

// SensitiveMatch records a URL-mode sensitive-pattern hit. The whole line is
// the matched value; the pattern that fired is kept for triage.
type SensitiveMatch struct {
	URL      string   `json:"url"`
	Category Category `json:"category"`
	Pattern  string   `json:"pattern"`
}

// URLSummary is the per-corpus aggregate produced by URL-mode
// classification. It is derived from the corpus and recomputable; the corpus
// file stays the source of truth.
type URLSummary struct {
	Target           string           `json:"subdomain"`
	FileSize         int64            `json:"file_size"`
	TotalURLs        int              `json:"total_urls"`
	SkippedLines     int              `json:"skipped_lines,omitempty"`
	UniquePaths      []string         `json:"unique_paths"`
	Parameters       map[string]int   `json:"parameters"`
	Extensions       map[string]int   `json:"extensions"`
	InterestingPaths []string         `json:"interesting_paths"`
	InterestingFiles []string         `json:"interesting_files"`
	ScriptFiles      []string         `json:"js_files"`
	APIEndpoints     []string         `json:"api_endpoints"`
	Sensitive        []SensitiveMatch `json:"potential_sensitive"`
}

// HasFindings reports whether the summary carries anything worth surfacing
// in the interesting-findings report.
func (s *URLSummary) HasFindings() bool {
	return len(s.InterestingPaths) > 0 || len(s.Sensitive) > 0
}

// ScriptFindings is the content-mode result for one fetched script.
// Categories with no matches are omitted from Matches entirely.
type ScriptFindings struct {
	URL     string                `json:"url"`
	Size    int                   `json:"size"`
	Matches map[Category][]string `json:"matches"`
}

// HasPriorityFindings reports whether any high-priority category matched.
func (f *ScriptFindings) HasPriorityFindings() bool {
	for _, cat := range PriorityCategories {
		if len(f.Matches[cat]) > 0 {
			return true
		}
	}
	return false
}
