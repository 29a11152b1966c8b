package index

import (
	"sort"
	"sync"
)

// Index is the global inverted index: normalized token to the (document, line)
// locations containing it. It is mutated only by the indexing pipeline;
// the search engine and topic aggregator only read it.
type Index struct {
	mu        sync.RWMutex
	fragments map[string]*Fragment
	// postings maps token -> document id -> ascending line numbers.
	postings map[string]map[string][]int
	// pending tracks topics whose background build has not completed.
	pending map[string]struct{}
	// failed tracks documents whose fragment build failed; they are excluded
	// from search but remain browsable through the document store.
	failed map[string]struct{}
}

// New creates an empty index.
func New() *Index {
	return &Index{
		fragments: make(map[string]*Fragment),
		postings:  make(map[string]map[string][]int),
		pending:   make(map[string]struct{}),
		failed:    make(map[string]struct{}),
	}
}

// Apply merges a fragment, replacing any previous fragment for the same
// document. Applying an identical fragment twice leaves the index unchanged.
func (ix *Index) Apply(frag *Fragment) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(frag.DocumentID)
	ix.fragments[frag.DocumentID] = frag
	delete(ix.failed, frag.DocumentID)
	for tok, lines := range frag.Postings {
		byDoc, ok := ix.postings[tok]
		if !ok {
			byDoc = make(map[string][]int)
			ix.postings[tok] = byDoc
		}
		byDoc[frag.DocumentID] = lines
	}
}

// Remove drops a document's fragment and postings.
func (ix *Index) Remove(documentID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(documentID)
	delete(ix.failed, documentID)
}

func (ix *Index) removeLocked(documentID string) {
	frag, ok := ix.fragments[documentID]
	if !ok {
		return
	}
	for tok := range frag.Postings {
		byDoc := ix.postings[tok]
		delete(byDoc, documentID)
		if len(byDoc) == 0 {
			delete(ix.postings, tok)
		}
	}
	delete(ix.fragments, documentID)
}

// MarkFailed records a document whose fragment could not be built.
func (ix *Index) MarkFailed(documentID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(documentID)
	ix.failed[documentID] = struct{}{}
}

// Lookup returns, for one token, the line numbers per document containing it.
// The returned map is a copy; the line slices are shared and must not be
// mutated by the caller.
func (ix *Index) Lookup(token string) map[string][]int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	byDoc, ok := ix.postings[token]
	if !ok {
		return nil
	}
	out := make(map[string][]int, len(byDoc))
	for id, lines := range byDoc {
		out[id] = lines
	}
	return out
}

// LineText returns the original text of a line (1-based) in an indexed
// document.
func (ix *Index) LineText(documentID string, lineNumber int) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	frag, ok := ix.fragments[documentID]
	if !ok || lineNumber < 1 || lineNumber > len(frag.Lines) {
		return "", false
	}
	return frag.Lines[lineNumber-1], true
}

// HasDocument reports whether a document is indexed.
func (ix *Index) HasDocument(documentID string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.fragments[documentID]
	return ok
}

// Version returns the indexed version of a document, or 0 when not indexed.
func (ix *Index) Version(documentID string) int64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if frag, ok := ix.fragments[documentID]; ok {
		return frag.Version
	}
	return 0
}

// DocumentCount returns the number of indexed documents.
func (ix *Index) DocumentCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.fragments)
}

// TokenCount returns the number of distinct tokens in the index.
func (ix *Index) TokenCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.postings)
}

// SetTopicPending marks or clears a topic as awaiting its background build.
func (ix *Index) SetTopicPending(topic string, pending bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if pending {
		ix.pending[topic] = struct{}{}
	} else {
		delete(ix.pending, topic)
	}
}

// PendingTopics returns topics with unfinished builds, sorted for
// deterministic responses.
func (ix *Index) PendingTopics() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	topics := make([]string, 0, len(ix.pending))
	for t := range ix.pending {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}
