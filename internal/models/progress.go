package models

import "time"

// ReadingProgress is the last read position in a document. One record per
// document, overwritten on each scroll-settle, never appended.
type ReadingProgress struct {
	DocumentID      string    `json:"document_id"`
	LastLineNumber  int       `json:"last_line_number"`
	PercentComplete int       `json:"percent_complete"`
	UpdatedAt       time.Time `json:"updated_at"`
}
