package storage

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/models"
)

// recordVersion is the persisted record schema version. Records with an
// unknown version fail to parse rather than being guessed at.
const recordVersion = 1

// envelope wraps every persisted record with a schema version tag.
type envelope struct {
	V    int             `json:"v"`
	Data json.RawMessage `json:"data"`
}

func marshalRecord(data any) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(envelope{V: recordVersion, Data: raw})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func unmarshalRecord(value string, out any) error {
	var env envelope
	if err := json.Unmarshal([]byte(value), &env); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if env.V != recordVersion {
		return fmt.Errorf("%w: unknown record version %d", ErrMalformedRecord, env.V)
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("%w: empty payload", ErrMalformedRecord)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return nil
}

// Annotations stores bookmarks, notes, and reading progress through a KV
// adapter. A record that fails to parse is skipped and logged; the remaining
// records still load (one corrupt bookmark never hides the rest).
type Annotations struct {
	kv     KV
	logger *zap.Logger
}

// AnnotationsOption configures an Annotations store.
type AnnotationsOption func(*Annotations)

// WithLogger sets a logger for skipped-record warnings.
func WithLogger(l *zap.Logger) AnnotationsOption {
	return func(a *Annotations) { a.logger = l }
}

// NewAnnotations creates an annotation store over kv.
func NewAnnotations(kv KV, opts ...AnnotationsOption) *Annotations {
	a := &Annotations{kv: kv}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SaveBookmark writes a bookmark anchor record.
func (a *Annotations) SaveBookmark(anchor *models.BookmarkAnchor) error {
	if anchor.StartOffset >= anchor.EndOffset {
		return fmt.Errorf("invalid anchor range [%d, %d)", anchor.StartOffset, anchor.EndOffset)
	}
	value, err := marshalRecord(anchor)
	if err != nil {
		return fmt.Errorf("marshal bookmark: %w", err)
	}
	return a.kv.Set(BookmarkKey(anchor.DocumentID, anchor.ID), value)
}

// GetBookmark loads one bookmark anchor.
func (a *Annotations) GetBookmark(documentID, anchorID string) (*models.BookmarkAnchor, error) {
	value, err := a.kv.Get(BookmarkKey(documentID, anchorID))
	if err != nil {
		return nil, err
	}
	var anchor models.BookmarkAnchor
	if err := unmarshalRecord(value, &anchor); err != nil {
		return nil, err
	}
	if anchor.ID == "" || anchor.DocumentID == "" {
		return nil, fmt.Errorf("%w: bookmark missing identity fields", ErrMalformedRecord)
	}
	return &anchor, nil
}

// ListBookmarks loads all bookmark anchors for a document, skipping (and
// logging) malformed records.
func (a *Annotations) ListBookmarks(documentID string) ([]*models.BookmarkAnchor, error) {
	keys, err := a.kv.Keys(bookmarkKeyPrefix + documentID + ":")
	if err != nil {
		return nil, err
	}
	anchors := make([]*models.BookmarkAnchor, 0, len(keys))
	for _, key := range keys {
		value, err := a.kv.Get(key)
		if err != nil {
			continue
		}
		var anchor models.BookmarkAnchor
		if err := unmarshalRecord(value, &anchor); err != nil || anchor.ID == "" {
			a.warnSkipped(key, err)
			continue
		}
		anchors = append(anchors, &anchor)
	}
	return anchors, nil
}

// DeleteBookmark removes a bookmark anchor record.
func (a *Annotations) DeleteBookmark(documentID, anchorID string) error {
	return a.kv.Remove(BookmarkKey(documentID, anchorID))
}

// FindBookmark locates a bookmark by anchor id alone, scanning across
// documents. Used by id-addressed API routes.
func (a *Annotations) FindBookmark(anchorID string) (*models.BookmarkAnchor, error) {
	keys, err := a.kv.Keys(bookmarkKeyPrefix)
	if err != nil {
		return nil, err
	}
	suffix := ":" + anchorID
	for _, key := range keys {
		if !strings.HasSuffix(key, suffix) {
			continue
		}
		value, err := a.kv.Get(key)
		if err != nil {
			continue
		}
		var anchor models.BookmarkAnchor
		if err := unmarshalRecord(value, &anchor); err != nil {
			a.warnSkipped(key, err)
			continue
		}
		if anchor.ID == anchorID {
			return &anchor, nil
		}
	}
	return nil, fmt.Errorf("%w: bookmark %s", ErrNotFound, anchorID)
}

// SaveNote writes a note record.
func (a *Annotations) SaveNote(note *models.Note) error {
	value, err := marshalRecord(note)
	if err != nil {
		return fmt.Errorf("marshal note: %w", err)
	}
	return a.kv.Set(NoteKey(note.DocumentID, note.ID), value)
}

// ListNotes loads all notes for a document, skipping malformed records.
func (a *Annotations) ListNotes(documentID string) ([]*models.Note, error) {
	keys, err := a.kv.Keys(noteKeyPrefix + documentID + ":")
	if err != nil {
		return nil, err
	}
	notes := make([]*models.Note, 0, len(keys))
	for _, key := range keys {
		value, err := a.kv.Get(key)
		if err != nil {
			continue
		}
		var note models.Note
		if err := unmarshalRecord(value, &note); err != nil || note.ID == "" {
			a.warnSkipped(key, err)
			continue
		}
		notes = append(notes, &note)
	}
	return notes, nil
}

// DeleteNote removes a note record.
func (a *Annotations) DeleteNote(documentID, noteID string) error {
	return a.kv.Remove(NoteKey(documentID, noteID))
}

// FindNote locates a note by id alone.
func (a *Annotations) FindNote(noteID string) (*models.Note, error) {
	keys, err := a.kv.Keys(noteKeyPrefix)
	if err != nil {
		return nil, err
	}
	suffix := ":" + noteID
	for _, key := range keys {
		if !strings.HasSuffix(key, suffix) {
			continue
		}
		value, err := a.kv.Get(key)
		if err != nil {
			continue
		}
		var note models.Note
		if err := unmarshalRecord(value, &note); err != nil {
			a.warnSkipped(key, err)
			continue
		}
		if note.ID == noteID {
			return &note, nil
		}
	}
	return nil, fmt.Errorf("%w: note %s", ErrNotFound, noteID)
}

// SaveProgress overwrites the reading progress record for a document.
func (a *Annotations) SaveProgress(p *models.ReadingProgress) error {
	value, err := marshalRecord(p)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	return a.kv.Set(ProgressKey(p.DocumentID), value)
}

// GetProgress loads the reading progress for a document, or ErrNotFound.
func (a *Annotations) GetProgress(documentID string) (*models.ReadingProgress, error) {
	value, err := a.kv.Get(ProgressKey(documentID))
	if err != nil {
		return nil, err
	}
	var p models.ReadingProgress
	if err := unmarshalRecord(value, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *Annotations) warnSkipped(key string, err error) {
	if a.logger != nil {
		a.logger.Warn("skipping malformed persisted record", zap.String("key", key), zap.Error(err))
	}
}
