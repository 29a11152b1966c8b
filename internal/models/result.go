package models

// HighlightRange is a half-open [Start, End) byte span within a preview line's
// original text that matched a query token. Casing and punctuation of the line
// are preserved so the rendered highlight shows the text verbatim.
type HighlightRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// PreviewLine is one matched line shown under a search result.
type PreviewLine struct {
	LineNumber int              `json:"line_number"`
	Text       string           `json:"text"`
	Highlights []HighlightRange `json:"highlights,omitempty"`
}

// SearchResult represents a single matched document. Ephemeral: recomputed per
// query, never persisted.
type SearchResult struct {
	DocumentID string        `json:"document_id"`
	Topic      string        `json:"topic"`
	Title      string        `json:"title"`
	MatchCount int           `json:"match_count"`
	Score      float64       `json:"score"`
	Previews   []PreviewLine `json:"previews,omitempty"`
	Rank       int           `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query"`
	// PendingTopics lists topics whose index build had not finished when the
	// query ran. Results from those topics may be incomplete; the caller is
	// expected to re-query once indexing settles.
	PendingTopics []string `json:"pending_topics,omitempty"`
}
