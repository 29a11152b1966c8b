package progress

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/models"
	"github.com/hyperjump/shiori/internal/storage"
	"github.com/hyperjump/shiori/pkg/utils"
)

// Record computes reading progress for a scroll position. Pure computation;
// callers decide when to persist the result.
func Record(documentID string, visibleLine, totalLines int) *models.ReadingProgress {
	if totalLines < 1 {
		totalLines = 1
	}
	line := utils.Clamp(visibleLine, 1, totalLines)
	return &models.ReadingProgress{
		DocumentID:      documentID,
		LastLineNumber:  line,
		PercentComplete: utils.RoundPercent(line, totalLines),
		UpdatedAt:       time.Now(),
	}
}

// Writer persists reading progress, coalescing bursts of scroll events into
// at most one storage write per document per throttle interval. The latest
// position always wins; intermediate positions are dropped.
type Writer struct {
	mu          sync.Mutex
	annotations *storage.Annotations
	interval    time.Duration
	pending     map[string]*models.ReadingProgress
	timers      map[string]*time.Timer
	logger      *zap.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithLogger sets a logger for write failures.
func WithLogger(l *zap.Logger) WriterOption {
	return func(w *Writer) { w.logger = l }
}

// NewWriter creates a throttled progress writer.
func NewWriter(annotations *storage.Annotations, interval time.Duration, opts ...WriterOption) *Writer {
	w := &Writer{
		annotations: annotations,
		interval:    interval,
		pending:     make(map[string]*models.ReadingProgress),
		timers:      make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Update records a new position for a document. The first update for an idle
// document is written immediately; updates arriving while its throttle timer
// is running replace the pending position and are flushed when it fires.
func (w *Writer) Update(p *models.ReadingProgress) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, throttled := w.timers[p.DocumentID]; throttled {
		w.pending[p.DocumentID] = p
		return
	}
	w.writeLocked(p)
	id := p.DocumentID
	w.timers[id] = time.AfterFunc(w.interval, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.timers, id)
		if pending, ok := w.pending[id]; ok {
			delete(w.pending, id)
			w.writeLocked(pending)
		}
	})
}

// Flush writes all pending positions immediately and stops the timers.
func (w *Writer) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, timer := range w.timers {
		timer.Stop()
		delete(w.timers, id)
	}
	for id, p := range w.pending {
		delete(w.pending, id)
		w.writeLocked(p)
	}
}

func (w *Writer) writeLocked(p *models.ReadingProgress) {
	if err := w.annotations.SaveProgress(p); err != nil && w.logger != nil {
		w.logger.Warn("progress write failed",
			zap.String("document", p.DocumentID), zap.Error(err))
	}
}
