// Package storage persists bookmarks, notes, and reading progress behind a
// minimal key-value contract.
package storage

import "errors"

// ErrMalformedRecord marks a persisted value that fails to parse. Loading
// skips the one bad record and continues; it is never fatal to the whole list.
var ErrMalformedRecord = errors.New("malformed persisted record")

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("key not found")

// KV is the persistence adapter contract. Values are serialized JSON records;
// no atomicity is assumed across keys.
type KV interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
	// Keys returns all keys with the given prefix, sorted. Needed to
	// enumerate a document's bookmarks and notes.
	Keys(prefix string) ([]string, error)
	Close() error
}

// Key layout. All annotation state for one document shares the document id
// inside the key so per-document enumeration is a prefix scan.
const (
	bookmarkKeyPrefix = "bookmark:"
	noteKeyPrefix     = "note:"
	progressKeyPrefix = "progress:"
)

// BookmarkKey is "bookmark:{documentId}:{anchorId}".
func BookmarkKey(documentID, anchorID string) string {
	return bookmarkKeyPrefix + documentID + ":" + anchorID
}

// NoteKey is "note:{documentId}:{noteId}".
func NoteKey(documentID, noteID string) string {
	return noteKeyPrefix + documentID + ":" + noteID
}

// ProgressKey is "progress:{documentId}".
func ProgressKey(documentID string) string {
	return progressKeyPrefix + documentID
}
