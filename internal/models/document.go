// Package models defines core data structures for documents, queries, search
// results, bookmarks, notes, and reading progress.
package models

import "time"

// ContentDocument is one loaded content file. Immutable once created: a change
// to the underlying file produces a new document with a bumped Version, never
// a mutation of an existing one.
type ContentDocument struct {
	// ID is the stable identifier, derived from the file path relative to the
	// content root (slash-separated).
	ID string `json:"id"`
	// Topic is the grouping key, derived from the first directory segment
	// under the content root (e.g. "databases", "react").
	Topic string `json:"topic"`
	// Title is the display title: first markdown heading, else the filename.
	Title string `json:"title"`
	// Version increments each time the file content changes. Anchors record
	// the version they were created against to detect staleness.
	Version int64 `json:"version"`
	// RawText is the full document text, source of truth for indexing,
	// previews, and anchoring.
	RawText   string    `json:"raw_text"`
	SizeBytes int       `json:"size_bytes"`
	LineCount int       `json:"line_count"`
	LoadedAt  time.Time `json:"loaded_at"`
}

// DocumentInput is the input for registering a document from the loader.
type DocumentInput struct {
	ID      string `json:"id"`
	Topic   string `json:"topic"`
	Title   string `json:"title,omitempty"`
	RawText string `json:"raw_text"`
}

// DocumentMeta is ContentDocument without the body, for listings and for
// evicted documents whose text has been released.
type DocumentMeta struct {
	ID        string `json:"id"`
	Topic     string `json:"topic"`
	Title     string `json:"title"`
	Version   int64  `json:"version"`
	SizeBytes int    `json:"size_bytes"`
	LineCount int    `json:"line_count"`
}

// Meta returns the document's metadata view.
func (d *ContentDocument) Meta() DocumentMeta {
	return DocumentMeta{
		ID:        d.ID,
		Topic:     d.Topic,
		Title:     d.Title,
		Version:   d.Version,
		SizeBytes: d.SizeBytes,
		LineCount: d.LineCount,
	}
}
