// Package anchor creates and resolves durable bookmark anchors over document
// text. Anchors survive re-rendering and moderate content edits: beyond the
// raw offsets they carry the selected text and hashes of the surrounding
// context, so a shifted selection can be relocated instead of lost.
package anchor

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/config"
	"github.com/hyperjump/shiori/internal/models"
)

// ErrNotFound is returned when an anchor cannot be located in the current
// text. The stored anchor is retained; resolution failing is a soft state,
// never a reason to discard user data.
var ErrNotFound = errors.New("anchor not found in current text")

// ErrInvalidRange is returned for selections outside the document or with a
// non-positive length.
var ErrInvalidRange = errors.New("invalid selection range")

// Resolver creates and resolves anchors. Stateless; all inputs are explicit.
type Resolver struct {
	contextBytes int
	scanBudget   int
	logger       *zap.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a resolver with the given anchoring settings.
func NewResolver(cfg *config.AnchorConfig, opts ...ResolverOption) *Resolver {
	r := &Resolver{contextBytes: cfg.ContextBytes, scanBudget: cfg.ScanBudgetBytes}
	if r.contextBytes <= 0 {
		r.contextBytes = 32
	}
	if r.scanBudget <= 0 {
		r.scanBudget = 4 << 20
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create builds an anchor for the selection [start, end) in doc's text.
// Offsets are byte offsets into RawText as rendered at creation time.
func (r *Resolver) Create(doc *models.ContentDocument, start, end int, color, description string) (*models.BookmarkAnchor, error) {
	if start < 0 || end > len(doc.RawText) || start >= end {
		return nil, fmt.Errorf("%w: [%d, %d) in %d bytes", ErrInvalidRange, start, end, len(doc.RawText))
	}
	now := time.Now()
	return &models.BookmarkAnchor{
		ID:                uuid.New().String(),
		DocumentID:        doc.ID,
		DocumentVersion:   doc.Version,
		StartOffset:       start,
		EndOffset:         end,
		AnchoredText:      doc.RawText[start:end],
		ContextHashBefore: r.contextHash(doc.RawText, start-r.contextBytes, start),
		ContextHashAfter:  r.contextHash(doc.RawText, end, end+r.contextBytes),
		Color:             color,
		Description:       description,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// contextHash hashes text[lo:hi] clamped to the document bounds. Selections
// near an edge hash whatever context exists, possibly none.
func (r *Resolver) contextHash(text string, lo, hi int) string {
	if lo < 0 {
		lo = 0
	}
	if hi > len(text) {
		hi = len(text)
	}
	if lo >= hi {
		lo, hi = 0, 0
	}
	sum := sha256.Sum256([]byte(text[lo:hi]))
	return hex.EncodeToString(sum[:])
}

// Resolve locates an anchor in currentText (at currentVersion).
//
// Fast path: if the document version is unchanged, the stored offsets are
// returned as-is. Otherwise the anchored text is searched for in the current
// text; when it occurs more than once, the occurrence whose surrounding
// context hashes agree most closely wins, with proximity to the original
// offset breaking exact ties. The scan is bounded by the configured budget so
// a pathological document degrades to ErrNotFound rather than stalling.
func (r *Resolver) Resolve(a *models.BookmarkAnchor, currentText string, currentVersion int64) (*models.ResolvedRange, error) {
	if currentVersion == a.DocumentVersion {
		return r.resolved(currentText, a.StartOffset, a.EndOffset)
	}

	if a.AnchoredText == "" {
		return nil, ErrNotFound
	}
	best, bestScore, bestDistance := -1, -1, 0
	scanned := 0
	for from := 0; from <= len(currentText)-len(a.AnchoredText); {
		i := strings.Index(currentText[from:], a.AnchoredText)
		if i < 0 {
			break
		}
		at := from + i
		scanned += i + len(a.AnchoredText)
		if scanned > r.scanBudget {
			if r.logger != nil {
				r.logger.Debug("anchor scan budget exceeded",
					zap.String("anchor", a.ID), zap.Int("budget", r.scanBudget))
			}
			break
		}
		score := r.contextScore(a, currentText, at)
		distance := abs(at - a.StartOffset)
		if score > bestScore || (score == bestScore && distance < bestDistance) {
			best, bestScore, bestDistance = at, score, distance
		}
		from = at + 1
	}
	if best < 0 {
		return nil, ErrNotFound
	}
	return r.resolved(currentText, best, best+len(a.AnchoredText))
}

// contextScore compares the stored context hashes against the hashes of the
// candidate occurrence's surroundings: the count of equal bytes at equal
// positions across both digests. An unchanged context scores the maximum
// (2 full digests); an anchor at a shifted position with intact neighbours
// still scores full marks, which is exactly the pure-reflow case.
func (r *Resolver) contextScore(a *models.BookmarkAnchor, text string, at int) int {
	before := r.contextHash(text, at-r.contextBytes, at)
	after := r.contextHash(text, at+len(a.AnchoredText), at+len(a.AnchoredText)+r.contextBytes)
	return equalHexBytes(a.ContextHashBefore, before) + equalHexBytes(a.ContextHashAfter, after)
}

// equalHexBytes counts positions where the two hex digests hold the same byte.
func equalHexBytes(a, b string) int {
	ab, errA := hex.DecodeString(a)
	bb, errB := hex.DecodeString(b)
	if errA != nil || errB != nil || len(ab) != len(bb) {
		return 0
	}
	n := 0
	for i := range ab {
		if ab[i] == bb[i] {
			n++
		}
	}
	return n
}

func (r *Resolver) resolved(text string, start, end int) (*models.ResolvedRange, error) {
	if start < 0 || end > len(text) || start >= end {
		return nil, ErrNotFound
	}
	return &models.ResolvedRange{
		StartOffset: start,
		EndOffset:   end,
		LineNumber:  strings.Count(text[:start], "\n") + 1,
	}, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
