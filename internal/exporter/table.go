package exporter

import (
	"regexp"
	"strings"
)

// Table is one named flat result set. Row cells hold string, integer or
// float values; a nil cell is written empty.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]any
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns the table name into a file-name friendly form,
// e.g. "Delay Analysis" becomes "delay_analysis".
func (t Table) Slug() string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(t.Name), "_"), "_")
}

// cellValue unwraps optional numbers; a nil pointer is an empty cell.
func cellValue(v any) any {
	if p, ok := v.(*float64); ok {
		if p == nil {
			return nil
		}
		return *p
	}
	return v
}
