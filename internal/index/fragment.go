package index

import (
	"fmt"
	"sort"

	"github.com/hyperjump/shiori/internal/models"
	"github.com/hyperjump/shiori/pkg/utils"
)

// Fragment is the per-document slice of the inverted index. Fragments are
// immutable once built and tied to one document version; any content change
// invalidates the whole fragment (documents are fetched whole, so there is no
// line-level patching).
type Fragment struct {
	DocumentID string
	Version    int64
	// Lines holds the exact original line text, index 0 being line 1.
	// Needed for verbatim preview rendering.
	Lines []string
	// Postings maps normalized token to the ascending line numbers (1-based)
	// containing it.
	Postings map[string][]int
}

// BuildFragment tokenizes a document into a fragment. Building has no side
// effects; the index owner merges the returned fragment. A panic while
// tokenizing pathological input is recovered and reported as an error so the
// document degrades to un-searchable instead of crashing the session.
func BuildFragment(doc *models.ContentDocument) (frag *Fragment, err error) {
	defer func() {
		if r := recover(); r != nil {
			frag = nil
			err = fmt.Errorf("index build panic for %s: %v", doc.ID, r)
		}
	}()

	lines := utils.SplitLines(doc.RawText)
	frag = &Fragment{
		DocumentID: doc.ID,
		Version:    doc.Version,
		Lines:      lines,
		Postings:   make(map[string][]int),
	}
	for i, line := range lines {
		lineNo := i + 1
		for _, tok := range TokenSet(line) {
			frag.Postings[tok] = append(frag.Postings[tok], lineNo)
		}
	}
	return frag, nil
}

// Tokens returns the fragment's distinct tokens in sorted order. Used for
// deterministic merging and removal.
func (f *Fragment) Tokens() []string {
	tokens := make([]string, 0, len(f.Postings))
	for tok := range f.Postings {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)
	return tokens
}
