package models

import "time"

// BookmarkAnchor is a durable reference to a text range within a document.
// Offsets are byte offsets into the RawText of the document version recorded
// in DocumentVersion. The surrounding context hashes and the anchored text
// itself allow the range to be relocated after the document changes.
type BookmarkAnchor struct {
	ID              string `json:"id"`
	DocumentID      string `json:"document_id"`
	DocumentVersion int64  `json:"document_version"`
	StartOffset     int    `json:"start_offset"`
	EndOffset       int    `json:"end_offset"`
	// AnchoredText is the exact selected text at creation time.
	AnchoredText string `json:"anchored_text"`
	// ContextHashBefore and ContextHashAfter are SHA-256 hex digests of the
	// bytes immediately preceding and following the selection.
	ContextHashBefore string    `json:"context_hash_before"`
	ContextHashAfter  string    `json:"context_hash_after"`
	Color             string    `json:"color"`
	Description       string    `json:"description,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ResolvedRange is the live location of an anchor against the current text.
type ResolvedRange struct {
	StartOffset int `json:"start_offset"`
	EndOffset   int `json:"end_offset"`
	LineNumber  int `json:"line_number"`
}

// ResolvedBookmark pairs a stored anchor with its resolution outcome.
// Unresolved anchors are still listed so the user can relocate or delete them;
// they are never silently dropped.
type ResolvedBookmark struct {
	Anchor   *BookmarkAnchor `json:"anchor"`
	Resolved bool            `json:"resolved"`
	Range    *ResolvedRange  `json:"range,omitempty"`
}
