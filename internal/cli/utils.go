// Package cli provides CLI output utilities for Shiori.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hyperjump/shiori/internal/models"
	"github.com/hyperjump/shiori/pkg/utils"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// WriteSearchResults writes search results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d results for %q in %dms\n\n",
		response.Total, response.Query, response.QueryTime)
	if len(response.PendingTopics) > 0 {
		fmt.Fprintf(w, "(still indexing: %s; results may be incomplete)\n\n",
			strings.Join(response.PendingTopics, ", "))
	}
	for _, result := range response.Results {
		writeOneResult(w, result)
	}
}

func writeOneResult(w io.Writer, result *models.SearchResult) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Score: %.1f | Matches: %d\n",
		result.Rank, result.Score, result.MatchCount)
	fmt.Fprintf(w, "%s  [%s]\n", result.DocumentID, result.Topic)
	if result.Title != "" {
		fmt.Fprintf(w, "Title: %s\n", result.Title)
	}
	for _, line := range result.Previews {
		marked := MarkHighlights(line.Text, line.Highlights)
		fmt.Fprintf(w, "  %4d: %s\n", line.LineNumber, utils.Truncate(marked, 200))
	}
	fmt.Fprintln(w)
}

// MarkHighlights wraps each highlighted span in s with ** markers. Ranges
// must be byte offsets into s, sorted and non-overlapping.
func MarkHighlights(s string, ranges []models.HighlightRange) string {
	if len(ranges) == 0 {
		return s
	}
	var b strings.Builder
	prev := 0
	for _, r := range ranges {
		if r.Start < prev || r.End > len(s) || r.Start >= r.End {
			continue
		}
		b.WriteString(s[prev:r.Start])
		b.WriteString("**")
		b.WriteString(s[r.Start:r.End])
		b.WriteString("**")
		prev = r.End
	}
	b.WriteString(s[prev:])
	return b.String()
}

// PrintSearchResults prints search results to stdout in text format.
func PrintSearchResults(response *models.SearchResponse) {
	_ = WriteSearchResults(os.Stdout, response, OutputText)
}
