package models

import "time"

// Note is a free-form note attached to a document. AnchorID optionally ties
// the note to a bookmark anchor; a note with no anchor floats at the document
// level. Notes and bookmarks have independent lifecycles.
type Note struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	AnchorID   string    `json:"anchor_id,omitempty"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}
