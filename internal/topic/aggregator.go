package topic

import (
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/docstore"
	"github.com/hyperjump/shiori/internal/models"
)

// Aggregator groups documents by topic for display and tracks which topics
// are currently expanded. Expansion state is transient; it is not persisted
// across sessions.
type Aggregator struct {
	mu       sync.RWMutex
	store    *docstore.Store
	expanded map[string]bool
	logger   *zap.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

// New creates an aggregator over the given document store.
func New(store *docstore.Store, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:    store,
		expanded: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Browse returns every topic with all of its documents, in the store's
// first-seen topic order.
func (a *Aggregator) Browse() []models.TopicGroup {
	a.mu.RLock()
	defer a.mu.RUnlock()

	groups := make([]models.TopicGroup, 0)
	for _, topic := range a.store.Topics() {
		metas := a.store.MetaByTopic(topic)
		items := make([]models.TopicItem, 0, len(metas))
		for _, m := range metas {
			items = append(items, models.TopicItem{DocumentID: m.ID, Title: m.Title})
		}
		groups = append(groups, models.TopicGroup{
			Topic:     topic,
			FileCount: len(items),
			Expanded:  a.expanded[topic],
			Items:     items,
		})
	}
	return groups
}

// Group arranges search results by topic. Only documents that matched are
// included, and only topics with at least one match appear. Topic order
// follows the store's first-seen order; within a topic, documents keep their
// result ranking.
func (a *Aggregator) Group(results []*models.SearchResult) []models.TopicGroup {
	a.mu.RLock()
	defer a.mu.RUnlock()

	byTopic := make(map[string][]models.TopicItem)
	for _, r := range results {
		byTopic[r.Topic] = append(byTopic[r.Topic], models.TopicItem{
			DocumentID: r.DocumentID,
			Title:      r.Title,
			MatchCount: r.MatchCount,
			Score:      r.Score,
		})
	}

	groups := make([]models.TopicGroup, 0, len(byTopic))
	for _, topic := range a.store.Topics() {
		items, ok := byTopic[topic]
		if !ok {
			continue
		}
		groups = append(groups, models.TopicGroup{
			Topic:     topic,
			FileCount: len(items),
			Expanded:  a.expanded[topic],
			Items:     items,
		})
		delete(byTopic, topic)
	}
	return groups
}

// Toggle flips a topic's expansion state and returns the new state.
func (a *Aggregator) Toggle(topic string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.expanded[topic] = !a.expanded[topic]
	if a.logger != nil {
		a.logger.Debug("topic toggled",
			zap.String("topic", topic), zap.Bool("expanded", a.expanded[topic]))
	}
	return a.expanded[topic]
}

// Expanded reports whether a topic is currently expanded.
func (a *Aggregator) Expanded(topic string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.expanded[topic]
}

// SetExpanded sets a topic's expansion state directly.
func (a *Aggregator) SetExpanded(topic string, expanded bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.expanded[topic] = expanded
}
