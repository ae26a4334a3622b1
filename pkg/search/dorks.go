package search

import "fmt"

// dorkTemplates is the fixed query battery run against each target. The
// site: scoping keeps every query on the target host.
var dorkTemplates = []string{
	"site:%s",
	"site:%s inurl:admin",
	"site:%s inurl:api",
	"site:%s inurl:login",
	"site:%s inurl:config",
	"site:%s inurl:backup",
	"site:%s filetype:pdf",
	"site:%s filetype:xlsx",
	"site:%s filetype:docx",
	"site:%s intitle:index.of",
}

// DorkQueries renders the query battery for one target.
func DorkQueries(target string) []string {
	queries := make([]string, 0, len(dorkTemplates))
	for _, tmpl := range dorkTemplates {
		queries = append(queries, fmt.Sprintf(tmpl, target))
	}
	return queries
}
