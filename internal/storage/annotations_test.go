package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/hyperjump/shiori/internal/models"
)

func anchorFixture(docID, id string) *models.BookmarkAnchor {
	return &models.BookmarkAnchor{
		ID:              id,
		DocumentID:      docID,
		DocumentVersion: 1,
		StartOffset:     100,
		EndOffset:       140,
		AnchoredText:    "the selected text spans these forty by",
		Color:           "yellow",
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
	}
}

func TestBookmarkRoundTrip(t *testing.T) {
	a := NewAnnotations(NewMemoryKV())
	in := anchorFixture("doc1", "anchor1")
	if err := a.SaveBookmark(in); err != nil {
		t.Fatal(err)
	}
	out, err := a.GetBookmark("doc1", "anchor1")
	if err != nil {
		t.Fatal(err)
	}
	if out.StartOffset != 100 || out.EndOffset != 140 || out.Color != "yellow" {
		t.Errorf("round trip lost fields: %+v", out)
	}
}

func TestSaveBookmarkRejectsInvalidRange(t *testing.T) {
	a := NewAnnotations(NewMemoryKV())
	bad := anchorFixture("d", "x")
	bad.StartOffset, bad.EndOffset = 10, 10
	if err := a.SaveBookmark(bad); err == nil {
		t.Error("empty range should be rejected")
	}
}

func TestListBookmarksSkipsMalformed(t *testing.T) {
	kv := NewMemoryKV()
	a := NewAnnotations(kv)
	_ = a.SaveBookmark(anchorFixture("doc1", "good1"))
	_ = a.SaveBookmark(anchorFixture("doc1", "good2"))
	// Deliberately corrupted JSON between two valid records.
	_ = kv.Set(BookmarkKey("doc1", "bad"), `{"v":1,"data":{broken`)

	anchors, err := a.ListBookmarks("doc1")
	if err != nil {
		t.Fatal(err)
	}
	if len(anchors) != 2 {
		t.Fatalf("expected exactly the two valid bookmarks, got %d", len(anchors))
	}
	for _, anchor := range anchors {
		if anchor.ID != "good1" && anchor.ID != "good2" {
			t.Errorf("unexpected anchor %s", anchor.ID)
		}
	}
}

func TestUnknownRecordVersionIsMalformed(t *testing.T) {
	kv := NewMemoryKV()
	a := NewAnnotations(kv)
	_ = kv.Set(BookmarkKey("d", "future"), `{"v":99,"data":{"id":"future","document_id":"d"}}`)
	if _, err := a.GetBookmark("d", "future"); !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("expected ErrMalformedRecord, got %v", err)
	}
}

func TestFindBookmarkAcrossDocuments(t *testing.T) {
	a := NewAnnotations(NewMemoryKV())
	_ = a.SaveBookmark(anchorFixture("doc1", "a1"))
	_ = a.SaveBookmark(anchorFixture("doc2", "a2"))

	found, err := a.FindBookmark("a2")
	if err != nil {
		t.Fatal(err)
	}
	if found.DocumentID != "doc2" {
		t.Errorf("found wrong document: %s", found.DocumentID)
	}
	if _, err := a.FindBookmark("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNotesIndependentOfBookmarks(t *testing.T) {
	a := NewAnnotations(NewMemoryKV())
	free := &models.Note{ID: "n1", DocumentID: "doc1", Text: "remember this chapter"}
	anchored := &models.Note{ID: "n2", DocumentID: "doc1", AnchorID: "a1", Text: "see highlight"}
	if err := a.SaveNote(free); err != nil {
		t.Fatal(err)
	}
	if err := a.SaveNote(anchored); err != nil {
		t.Fatal(err)
	}

	notes, err := a.ListNotes("doc1")
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 2 {
		t.Fatalf("notes = %d", len(notes))
	}
	// A note without an anchor is valid (free-floating document note).
	if notes[0].AnchorID == "" && notes[1].AnchorID == "" {
		t.Error("expected one anchored note")
	}

	if err := a.DeleteNote("doc1", "n1"); err != nil {
		t.Fatal(err)
	}
	notes, _ = a.ListNotes("doc1")
	if len(notes) != 1 || notes[0].ID != "n2" {
		t.Errorf("after delete: %+v", notes)
	}
}

func TestProgressOverwrite(t *testing.T) {
	a := NewAnnotations(NewMemoryKV())
	_ = a.SaveProgress(&models.ReadingProgress{DocumentID: "doc1", LastLineNumber: 10, PercentComplete: 25})
	_ = a.SaveProgress(&models.ReadingProgress{DocumentID: "doc1", LastLineNumber: 40, PercentComplete: 100})

	p, err := a.GetProgress("doc1")
	if err != nil {
		t.Fatal(err)
	}
	if p.LastLineNumber != 40 || p.PercentComplete != 100 {
		t.Errorf("progress should be overwritten, got %+v", p)
	}
	if _, err := a.GetProgress("unknown"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
