package e2e

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/shiori/internal/anchor"
	"github.com/hyperjump/shiori/internal/config"
	"github.com/hyperjump/shiori/internal/docstore"
	"github.com/hyperjump/shiori/internal/extract"
	"github.com/hyperjump/shiori/internal/index"
	"github.com/hyperjump/shiori/internal/loader"
	"github.com/hyperjump/shiori/internal/models"
	"github.com/hyperjump/shiori/internal/progress"
	"github.com/hyperjump/shiori/internal/search"
	"github.com/hyperjump/shiori/internal/storage"
)

type stack struct {
	cfg         *config.Config
	store       *docstore.Store
	index       *index.Index
	builder     *index.Builder
	engine      *search.Engine
	loader      *loader.Loader
	annotations *storage.Annotations
	manager     *anchor.Manager
	kv          storage.KV
}

func newStack(t *testing.T, contentRoot, dbPath string) *stack {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Content.Roots = []string{contentRoot}
	cfg.Storage.DatabasePath = dbPath

	kv, err := storage.NewSQLiteKV(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = kv.Close() })

	store := docstore.New()
	ix := index.New()
	builder := index.NewBuilder(ix, store)
	annotations := storage.NewAnnotations(kv)
	resolver := anchor.NewResolver(&cfg.Anchor)
	return &stack{
		cfg:         cfg,
		store:       store,
		index:       ix,
		builder:     builder,
		engine:      search.NewEngine(ix, store, &cfg.Search),
		loader:      loader.New(store, ix, builder, extract.NewExtractor(), &cfg.Content),
		annotations: annotations,
		manager:     anchor.NewManager(resolver, store, annotations),
		kv:          kv,
	}
}

func TestE2E_SearchOverLoadedCorpus(t *testing.T) {
	root := t.TempDir()
	corpus := BuildCorpus()
	if err := corpus.WriteTree(root); err != nil {
		t.Fatal(err)
	}
	s := newStack(t, root, filepath.Join(t.TempDir(), "annotations.db"))

	n, err := s.loader.LoadAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != len(corpus.Files) {
		t.Fatalf("loaded %d documents, want %d", n, len(corpus.Files))
	}

	for _, tc := range corpus.TestCases {
		t.Run(tc.Description, func(t *testing.T) {
			resp, err := s.engine.Search(context.Background(), &models.SearchQuery{
				Query: tc.Query,
				Topic: tc.Topic,
			})
			if err != nil {
				t.Fatal(err)
			}
			got := make(map[string]bool, len(resp.Results))
			for _, r := range resp.Results {
				got[r.DocumentID] = true
			}
			for _, want := range tc.ExpectedDocIDs {
				if !got[want] {
					t.Errorf("query %q: expected %s in results, got %v",
						tc.Query, want, keys(got))
				}
			}
		})
	}
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestE2E_BookmarkSurvivesFileRewrite(t *testing.T) {
	root := t.TempDir()
	if err := BuildCorpus().WriteTree(root); err != nil {
		t.Fatal(err)
	}
	s := newStack(t, root, filepath.Join(t.TempDir(), "annotations.db"))
	if _, err := s.loader.LoadAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	doc, err := s.store.Get("go/03-context.md")
	if err != nil {
		t.Fatal(err)
	}
	needle := "cancellation signals"
	at := strings.Index(doc.RawText, needle)
	if at < 0 {
		t.Fatal("needle not in corpus document")
	}
	a, err := s.manager.CreateBookmark(doc.ID, at, at+len(needle), "yellow", "key idea")
	if err != nil {
		t.Fatal(err)
	}

	// Rewrite the file with a new preamble, shifting every offset.
	path := filepath.Join(root, "go", "03-context.md")
	rewritten := "# Context\n\nRevised edition.\n\n" +
		doc.RawText[strings.Index(doc.RawText, "Context carries"):]
	if err := os.WriteFile(path, []byte(rewritten), 0o644); err != nil {
		t.Fatal(err)
	}
	newDoc, changed, err := s.loader.ReloadPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("rewrite should change the document")
	}
	s.manager.Reanchor(newDoc)

	list, err := s.manager.ListBookmarks(doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || !list[0].Resolved {
		t.Fatalf("bookmark did not survive rewrite: %+v", list)
	}
	got := newDoc.RawText[list[0].Range.StartOffset:list[0].Range.EndOffset]
	if got != needle {
		t.Errorf("resolved range covers %q, want %q", got, needle)
	}
	if list[0].Anchor.ID != a.ID {
		t.Error("bookmark identity changed across rewrite")
	}
}

func TestE2E_AnnotationsPersistAcrossReopen(t *testing.T) {
	root := t.TempDir()
	if err := BuildCorpus().WriteTree(root); err != nil {
		t.Fatal(err)
	}
	dbPath := filepath.Join(t.TempDir(), "annotations.db")

	s1 := newStack(t, root, dbPath)
	if _, err := s1.loader.LoadAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	a, err := s1.manager.CreateBookmark("sql/01-joins.md", 0, 5, "green", "")
	if err != nil {
		t.Fatal(err)
	}
	writer := progress.NewWriter(s1.annotations, time.Minute)
	writer.Update(progress.Record("sql/01-joins.md", 3, 9))
	writer.Flush()
	if err := s1.kv.Close(); err != nil {
		t.Fatal(err)
	}

	s2 := newStack(t, root, dbPath)
	if _, err := s2.loader.LoadAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	list, err := s2.manager.ListBookmarks("sql/01-joins.md")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Anchor.ID != a.ID || !list[0].Resolved {
		t.Fatalf("bookmark lost across reopen: %+v", list)
	}
	p, err := s2.annotations.GetProgress("sql/01-joins.md")
	if err != nil {
		t.Fatal(err)
	}
	if p.LastLineNumber != 3 {
		t.Errorf("progress line = %d, want 3", p.LastLineNumber)
	}
}
