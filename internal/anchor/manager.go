package anchor

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/docstore"
	"github.com/hyperjump/shiori/internal/models"
	"github.com/hyperjump/shiori/internal/storage"
)

// Manager is the single in-memory source of truth for bookmark and note
// edits. All mutations from any UI surface (sidebar list, inline highlight)
// serialize through it before reaching storage; last write wins at the
// anchor-id granularity.
type Manager struct {
	mu          sync.Mutex
	resolver    *Resolver
	store       *docstore.Store
	annotations *storage.Annotations
	logger      *zap.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets a logger for debug output.
func WithManagerLogger(l *zap.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a manager over the given resolver, document store, and
// annotation storage.
func NewManager(resolver *Resolver, store *docstore.Store, annotations *storage.Annotations, opts ...ManagerOption) *Manager {
	m := &Manager{resolver: resolver, store: store, annotations: annotations}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateBookmark anchors the selection [start, end) in the document's current
// text and persists it.
func (m *Manager) CreateBookmark(documentID string, start, end int, color, description string) (*models.BookmarkAnchor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, err := m.store.Get(documentID)
	if err != nil {
		return nil, err
	}
	anchor, err := m.resolver.Create(doc, start, end, color, description)
	if err != nil {
		return nil, err
	}
	if err := m.annotations.SaveBookmark(anchor); err != nil {
		return nil, fmt.Errorf("persist bookmark: %w", err)
	}
	if m.logger != nil {
		m.logger.Debug("bookmark created",
			zap.String("document", documentID), zap.String("anchor", anchor.ID))
	}
	return anchor, nil
}

// ListBookmarks returns a document's bookmarks, each resolved against the
// current text. Anchors that cannot be resolved are flagged, not dropped.
func (m *Manager) ListBookmarks(documentID string) ([]*models.ResolvedBookmark, error) {
	anchors, err := m.annotations.ListBookmarks(documentID)
	if err != nil {
		return nil, err
	}
	doc, docErr := m.store.Get(documentID)

	resolved := make([]*models.ResolvedBookmark, 0, len(anchors))
	for _, a := range anchors {
		rb := &models.ResolvedBookmark{Anchor: a}
		if docErr == nil {
			if rng, err := m.resolver.Resolve(a, doc.RawText, doc.Version); err == nil {
				rb.Resolved = true
				rb.Range = rng
			}
		}
		resolved = append(resolved, rb)
	}
	return resolved, nil
}

// UpdateBookmark edits a bookmark's color and/or description. Empty arguments
// leave the corresponding field unchanged.
func (m *Manager) UpdateBookmark(anchorID, color, description string) (*models.BookmarkAnchor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	anchor, err := m.annotations.FindBookmark(anchorID)
	if err != nil {
		return nil, err
	}
	if color != "" {
		anchor.Color = color
	}
	if description != "" {
		anchor.Description = description
	}
	anchor.UpdatedAt = time.Now()
	if err := m.annotations.SaveBookmark(anchor); err != nil {
		return nil, fmt.Errorf("persist bookmark: %w", err)
	}
	return anchor, nil
}

// DeleteBookmark removes a bookmark explicitly.
func (m *Manager) DeleteBookmark(anchorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	anchor, err := m.annotations.FindBookmark(anchorID)
	if err != nil {
		return err
	}
	return m.annotations.DeleteBookmark(anchor.DocumentID, anchor.ID)
}

// AddNote attaches a note to a document, optionally referencing an anchor.
func (m *Manager) AddNote(documentID, anchorID, text string) (*models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.store.Meta(documentID); err != nil {
		return nil, err
	}
	note := &models.Note{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		AnchorID:   anchorID,
		Text:       text,
		CreatedAt:  time.Now(),
	}
	if err := m.annotations.SaveNote(note); err != nil {
		return nil, fmt.Errorf("persist note: %w", err)
	}
	return note, nil
}

// ListNotes returns a document's notes.
func (m *Manager) ListNotes(documentID string) ([]*models.Note, error) {
	return m.annotations.ListNotes(documentID)
}

// DeleteNote removes a note.
func (m *Manager) DeleteNote(noteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	note, err := m.annotations.FindNote(noteID)
	if err != nil {
		return err
	}
	return m.annotations.DeleteNote(note.DocumentID, note.ID)
}

// Reanchor re-resolves a document's stored anchors after its content changed
// (new version). Successfully relocated anchors are rewritten with the new
// offsets and version; failures are left untouched so the user can relocate
// or delete them manually.
func (m *Manager) Reanchor(doc *models.ContentDocument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	anchors, err := m.annotations.ListBookmarks(doc.ID)
	if err != nil {
		if m.logger != nil {
			m.logger.Warn("reanchor: list bookmarks failed", zap.String("document", doc.ID), zap.Error(err))
		}
		return
	}
	for _, a := range anchors {
		if a.DocumentVersion == doc.Version {
			continue
		}
		rng, err := m.resolver.Resolve(a, doc.RawText, doc.Version)
		if err != nil {
			if m.logger != nil {
				m.logger.Debug("reanchor: unresolved",
					zap.String("document", doc.ID), zap.String("anchor", a.ID))
			}
			continue
		}
		updated, err := m.resolver.Create(doc, rng.StartOffset, rng.EndOffset, a.Color, a.Description)
		if err != nil {
			continue
		}
		// Identity and creation time survive re-anchoring.
		updated.ID = a.ID
		updated.CreatedAt = a.CreatedAt
		if err := m.annotations.SaveBookmark(updated); err != nil && m.logger != nil {
			m.logger.Warn("reanchor: persist failed", zap.String("anchor", a.ID), zap.Error(err))
		}
	}
}
