package anchor

import (
	"errors"
	"strings"
	"testing"

	"github.com/hyperjump/shiori/internal/config"
	"github.com/hyperjump/shiori/internal/models"
)

func newResolver() *Resolver {
	return NewResolver(&config.AnchorConfig{ContextBytes: 32, ScanBudgetBytes: 4 << 20})
}

func testDoc(text string) *models.ContentDocument {
	return &models.ContentDocument{ID: "doc", Topic: "t", Version: 1, RawText: text}
}

func TestCreateValidatesRange(t *testing.T) {
	r := newResolver()
	doc := testDoc("short text")
	for _, tc := range [][2]int{{-1, 3}, {3, 3}, {5, 2}, {0, 100}} {
		if _, err := r.Create(doc, tc[0], tc[1], "yellow", ""); !errors.Is(err, ErrInvalidRange) {
			t.Errorf("range [%d, %d) should be invalid, got %v", tc[0], tc[1], err)
		}
	}
}

func TestRoundTripFastPath(t *testing.T) {
	r := newResolver()
	text := strings.Repeat("padding ", 20) + "the anchored selection here" + strings.Repeat(" trailing", 20)
	doc := testDoc(text)

	start, end := 100, 140
	a, err := r.Create(doc, start, end, "yellow", "note")
	if err != nil {
		t.Fatal(err)
	}
	if a.AnchoredText != text[start:end] {
		t.Errorf("anchored text = %q", a.AnchoredText)
	}

	rng, err := r.Resolve(a, text, doc.Version)
	if err != nil {
		t.Fatal(err)
	}
	if rng.StartOffset != start || rng.EndOffset != end {
		t.Errorf("fast path must return the stored offsets exactly, got [%d, %d)", rng.StartOffset, rng.EndOffset)
	}
}

func TestResolveAfterInsertionBefore(t *testing.T) {
	r := newResolver()
	text := strings.Repeat("x", 100) + "anchored span of text and some tail " + strings.Repeat("y", 50)
	doc := testDoc(text)
	a, err := r.Create(doc, 100, 140, "", "")
	if err != nil {
		t.Fatal(err)
	}

	// 50 bytes inserted before the anchor; the anchored substring is intact.
	shifted := strings.Repeat("z", 50) + text
	rng, err := r.Resolve(a, shifted, doc.Version+1)
	if err != nil {
		t.Fatalf("resolution after upstream insertion should succeed: %v", err)
	}
	if rng.StartOffset != 150 || rng.EndOffset != 190 {
		t.Errorf("offsets = [%d, %d), want [150, 190)", rng.StartOffset, rng.EndOffset)
	}
}

func TestResolveMissingTextReturnsNotFound(t *testing.T) {
	r := newResolver()
	doc := testDoc("the quick brown fox jumps over the lazy dog")
	a, err := r.Create(doc, 4, 19, "", "")
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.Resolve(a, "entirely different content now", doc.Version+1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestResolvePrefersMatchingContext(t *testing.T) {
	r := newResolver()
	// The selected word occurs twice; context disambiguates.
	before := "alpha context one TARGET tail-one "
	text := before + "beta context two TARGET tail-two"
	doc := testDoc(text)
	second := strings.LastIndex(text, "TARGET")
	a, err := r.Create(doc, second, second+len("TARGET"), "", "")
	if err != nil {
		t.Fatal(err)
	}

	// Prepend text so offsets shift; both occurrences survive.
	shifted := "INSERTED PREAMBLE " + text
	rng, err := r.Resolve(a, shifted, doc.Version+1)
	if err != nil {
		t.Fatal(err)
	}
	wantStart := second + len("INSERTED PREAMBLE ")
	if rng.StartOffset != wantStart {
		t.Errorf("resolved to %d, want the second occurrence at %d", rng.StartOffset, wantStart)
	}
}

func TestResolveLineNumber(t *testing.T) {
	r := newResolver()
	text := "line one\nline two\nline three with anchor text\nline four"
	doc := testDoc(text)
	at := strings.Index(text, "anchor text")
	a, err := r.Create(doc, at, at+len("anchor text"), "", "")
	if err != nil {
		t.Fatal(err)
	}
	rng, err := r.Resolve(a, text, doc.Version)
	if err != nil {
		t.Fatal(err)
	}
	if rng.LineNumber != 3 {
		t.Errorf("line = %d, want 3", rng.LineNumber)
	}
}

func TestResolveScanBudget(t *testing.T) {
	r := NewResolver(&config.AnchorConfig{ContextBytes: 32, ScanBudgetBytes: 64})
	doc := testDoc("prefix needle suffix")
	at := strings.Index(doc.RawText, "needle")
	a, err := r.Create(doc, at, at+6, "", "")
	if err != nil {
		t.Fatal(err)
	}
	// The only occurrence sits beyond the 64-byte scan budget.
	far := strings.Repeat("x", 10_000) + " needle"
	if _, err := r.Resolve(a, far, doc.Version+1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound past scan budget, got %v", err)
	}
}

func TestResolveEdgeSelections(t *testing.T) {
	r := newResolver()
	text := "tiny document body"
	doc := testDoc(text)

	// Selection at the very start: no before-context to hash.
	a, err := r.Create(doc, 0, 4, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if rng, err := r.Resolve(a, text, doc.Version); err != nil || rng.StartOffset != 0 {
		t.Errorf("start-edge anchor: %v %+v", err, rng)
	}

	// Selection at the very end: no after-context.
	b, err := r.Create(doc, len(text)-4, len(text), "", "")
	if err != nil {
		t.Fatal(err)
	}
	if rng, err := r.Resolve(b, text, doc.Version); err != nil || rng.EndOffset != len(text) {
		t.Errorf("end-edge anchor: %v %+v", err, rng)
	}
}

func TestEqualHexBytes(t *testing.T) {
	if equalHexBytes("00ff", "00ff") != 2 {
		t.Error("identical digests should count every byte")
	}
	if equalHexBytes("00ff", "00aa") != 1 {
		t.Error("one equal byte expected")
	}
	if equalHexBytes("zz", "00") != 0 {
		t.Error("invalid hex should score zero")
	}
}
