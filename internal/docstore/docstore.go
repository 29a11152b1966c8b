// Package docstore holds loaded content documents in memory, grouped by topic
// in first-seen order.
package docstore

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/models"
	"github.com/hyperjump/shiori/pkg/utils"
)

// ErrNotFound is returned when a document id is unknown or its body has been
// evicted from memory.
var ErrNotFound = errors.New("document not found")

// Store is the in-memory document store. Documents are immutable once
// created: re-registering changed content produces a new version. The store is
// mutated only by the loading pipeline; search and aggregation only read it.
type Store struct {
	mu sync.RWMutex
	// docs holds full documents by id. Evicted documents are removed from
	// docs but keep their row in meta so browsing still lists them.
	docs map[string]*models.ContentDocument
	meta map[string]models.DocumentMeta
	// topicOrder preserves first-seen topic order, which follows source tree
	// enumeration order and therefore the curated learning-path ordering.
	topicOrder []string
	docOrder   map[string][]string
	logger     *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		docs:     make(map[string]*models.ContentDocument),
		meta:     make(map[string]models.DocumentMeta),
		docOrder: make(map[string][]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put registers a document. If a document with the same id already holds
// identical text, the existing version is returned and changed is false.
// Otherwise a new document version is created (version 1 for a first load).
func (s *Store) Put(input *models.DocumentInput) (doc *models.ContentDocument, changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	version := int64(1)
	if prev, ok := s.meta[input.ID]; ok {
		if existing, live := s.docs[input.ID]; live && existing.RawText == input.RawText {
			return existing, false
		}
		version = prev.Version + 1
	} else {
		s.trackOrderLocked(input.Topic, input.ID)
	}

	doc = &models.ContentDocument{
		ID:        input.ID,
		Topic:     input.Topic,
		Title:     input.Title,
		Version:   version,
		RawText:   input.RawText,
		SizeBytes: len(input.RawText),
		LineCount: utils.CountLines(input.RawText),
		LoadedAt:  time.Now(),
	}
	s.docs[input.ID] = doc
	s.meta[input.ID] = doc.Meta()
	if s.logger != nil {
		s.logger.Debug("docstore document registered",
			zap.String("id", doc.ID),
			zap.String("topic", doc.Topic),
			zap.Int64("version", doc.Version),
			zap.Int("lines", doc.LineCount))
	}
	return doc, true
}

func (s *Store) trackOrderLocked(topic, id string) {
	if _, seen := s.docOrder[topic]; !seen {
		s.topicOrder = append(s.topicOrder, topic)
	}
	s.docOrder[topic] = append(s.docOrder[topic], id)
}

// Get returns the document with the given id. Returns ErrNotFound for unknown
// ids and for documents whose body has been evicted.
func (s *Store) Get(id string) (*models.ContentDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return doc, nil
}

// Meta returns the metadata for a document id, live or evicted.
func (s *Store) Meta(id string) (models.DocumentMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meta[id]
	if !ok {
		return models.DocumentMeta{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return m, nil
}

// Remove deletes a document entirely (file removed from the content tree).
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meta[id]
	if !ok {
		return
	}
	delete(s.docs, id)
	delete(s.meta, id)
	order := s.docOrder[m.Topic]
	for i, did := range order {
		if did == id {
			s.docOrder[m.Topic] = append(order[:i], order[i+1:]...)
			break
		}
	}
	if len(s.docOrder[m.Topic]) == 0 {
		delete(s.docOrder, m.Topic)
		for i, t := range s.topicOrder {
			if t == m.Topic {
				s.topicOrder = append(s.topicOrder[:i], s.topicOrder[i+1:]...)
				break
			}
		}
	}
}

// Topics returns topics in first-seen order.
func (s *Store) Topics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.topicOrder...)
}

// MetaByTopic returns document metadata for a topic in insertion order,
// including evicted documents.
func (s *Store) MetaByTopic(topic string) []models.DocumentMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.docOrder[topic]
	metas := make([]models.DocumentMeta, 0, len(ids))
	for _, id := range ids {
		if m, ok := s.meta[id]; ok {
			metas = append(metas, m)
		}
	}
	return metas
}

// ByTopic returns live documents for a topic in insertion order.
func (s *Store) ByTopic(topic string) []*models.ContentDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.docOrder[topic]
	docs := make([]*models.ContentDocument, 0, len(ids))
	for _, id := range ids {
		if d, ok := s.docs[id]; ok {
			docs = append(docs, d)
		}
	}
	return docs
}

// All returns every live document, topics in first-seen order and documents in
// insertion order within each topic.
func (s *Store) All() []*models.ContentDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var docs []*models.ContentDocument
	for _, topic := range s.topicOrder {
		for _, id := range s.docOrder[topic] {
			if d, ok := s.docs[id]; ok {
				docs = append(docs, d)
			}
		}
	}
	return docs
}

// Count returns the number of known documents, including evicted ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.meta)
}

// EvictTopic releases the bodies of a topic's documents under memory
// pressure. Metadata is retained so the topic remains browsable; a later Get
// misses and the caller reloads from disk. Returns the number of documents
// evicted.
func (s *Store) EvictTopic(topic string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, id := range s.docOrder[topic] {
		if _, ok := s.docs[id]; ok {
			delete(s.docs, id)
			n++
		}
	}
	if n > 0 && s.logger != nil {
		s.logger.Debug("docstore topic evicted", zap.String("topic", topic), zap.Int("documents", n))
	}
	return n
}
