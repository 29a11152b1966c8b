package search

import (
	"context"
	"sync"
	"time"

	"github.com/hyperjump/shiori/internal/models"
)

// Debouncer coalesces keystroke-level queries: only the latest query of an
// input burst executes, and a result belonging to a superseded query is
// discarded on arrival (last-query-wins, not first-response-wins), so stale
// results for an earlier keystroke never reach the UI.
type Debouncer struct {
	engine   *Engine
	delay    time.Duration
	onResult func(*models.SearchResponse)

	mu      sync.Mutex
	timer   *time.Timer
	pending *models.SearchQuery
	seq     uint64
}

// NewDebouncer creates a debouncer delivering results to onResult.
func NewDebouncer(engine *Engine, delay time.Duration, onResult func(*models.SearchResponse)) *Debouncer {
	return &Debouncer{engine: engine, delay: delay, onResult: onResult}
}

// Query schedules q, superseding any not-yet-executed query.
func (d *Debouncer) Query(q *models.SearchQuery) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	seq := d.seq
	d.pending = q
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.run(q, seq) })
}

// Flush executes any pending query immediately instead of waiting out the
// delay. Callers use it when the input burst is known to be over, such as an
// explicit submit or end of input.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	q := d.pending
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	if q != nil {
		d.run(q, seq)
	}
}

// run executes q if it is still the pending query for seq. The pending slot
// doubles as a claim so a timer firing concurrently with Flush executes the
// query once.
func (d *Debouncer) run(q *models.SearchQuery, seq uint64) {
	d.mu.Lock()
	if d.seq != seq || d.pending != q {
		d.mu.Unlock()
		return
	}
	d.pending = nil
	d.mu.Unlock()

	resp, err := d.engine.Search(context.Background(), q)
	if err != nil {
		return
	}
	d.mu.Lock()
	current := d.seq == seq
	d.mu.Unlock()
	if current {
		d.onResult(resp)
	}
}

// Stop cancels any pending query.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
}
