package models

// DefaultMaxResults caps the ranked result list when the caller does not set a
// limit, protecting the UI from unbounded payloads.
const DefaultMaxResults = 200

// SearchQuery represents a search request with optional filters.
type SearchQuery struct {
	Query string `json:"query"`
	// Topic restricts the search to one topic; empty means all topics.
	Topic      string `json:"topic,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

// Normalize clamps MaxResults into (0, max]. A non-positive max falls back to
// DefaultMaxResults. An empty query is valid and yields an empty result set,
// so no error is returned here.
func (q *SearchQuery) Normalize(max int) {
	if max <= 0 {
		max = DefaultMaxResults
	}
	if q.MaxResults <= 0 || q.MaxResults > max {
		q.MaxResults = max
	}
}
