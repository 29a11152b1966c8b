package index

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/docstore"
	"github.com/hyperjump/shiori/internal/models"
)

// Builder schedules index builds. Single-document builds run inline (they are
// cheap once the text is loaded); whole-topic builds run in the background and
// are cancellable, so navigating away from a topic abandons its in-flight
// build instead of awaiting it.
type Builder struct {
	index  *Index
	store  *docstore.Store
	logger *zap.Logger

	mu     sync.Mutex
	cancel map[string]context.CancelFunc
	wg     sync.WaitGroup
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder creates a builder writing into ix from store.
func NewBuilder(ix *Index, store *docstore.Store, opts ...BuilderOption) *Builder {
	b := &Builder{
		index:  ix,
		store:  store,
		cancel: make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// IndexDocument builds and applies a single document's fragment inline.
// A build failure marks the document un-indexed; it stays browsable.
func (b *Builder) IndexDocument(doc *models.ContentDocument) error {
	frag, err := BuildFragment(doc)
	if err != nil {
		b.index.MarkFailed(doc.ID)
		if b.logger != nil {
			b.logger.Warn("index build failed", zap.String("id", doc.ID), zap.Error(err))
		}
		return err
	}
	b.index.Apply(frag)
	return nil
}

// BuildTopic starts a background build of every live document in topic.
// A build already running for the same topic is cancelled first. The topic is
// marked pending until the build completes; a cancelled build leaves it
// pending so a later query still signals incompleteness.
func (b *Builder) BuildTopic(ctx context.Context, topic string) {
	b.mu.Lock()
	if cancel, running := b.cancel[topic]; running {
		cancel()
	}
	buildCtx, cancel := context.WithCancel(ctx)
	b.cancel[topic] = cancel
	b.mu.Unlock()

	b.index.SetTopicPending(topic, true)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer cancel()
		docs := b.store.ByTopic(topic)
		for _, doc := range docs {
			select {
			case <-buildCtx.Done():
				if b.logger != nil {
					b.logger.Debug("topic build cancelled", zap.String("topic", topic))
				}
				return
			default:
			}
			if b.index.Version(doc.ID) == doc.Version {
				continue
			}
			_ = b.IndexDocument(doc)
		}
		b.index.SetTopicPending(topic, false)
		if b.logger != nil {
			b.logger.Debug("topic build complete", zap.String("topic", topic), zap.Int("documents", len(docs)))
		}
	}()
}

// CancelTopic cancels an in-flight build for topic, if any.
func (b *Builder) CancelTopic(topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cancel, running := b.cancel[topic]; running {
		cancel()
		delete(b.cancel, topic)
	}
}

// Wait blocks until all in-flight builds finish or are cancelled.
func (b *Builder) Wait() {
	b.wg.Wait()
}
