package models

// TopicItem is one document row inside a topic group. MatchCount and Score are
// populated only when the group was built from search results.
type TopicItem struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	MatchCount int     `json:"match_count,omitempty"`
	Score      float64 `json:"score,omitempty"`
}

// TopicGroup is one topic with its documents, in display order.
type TopicGroup struct {
	Topic     string      `json:"topic"`
	FileCount int         `json:"file_count"`
	Expanded  bool        `json:"expanded"`
	Items     []TopicItem `json:"items"`
}
