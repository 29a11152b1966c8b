package topic

import (
	"testing"

	"github.com/hyperjump/shiori/internal/docstore"
	"github.com/hyperjump/shiori/internal/models"
)

func seedStore(t *testing.T) *docstore.Store {
	t.Helper()
	store := docstore.New()
	docs := []*models.DocumentInput{
		{ID: "sql/01-intro.md", Topic: "sql", Title: "Intro", RawText: "x"},
		{ID: "sql/02-joins.md", Topic: "sql", Title: "Joins", RawText: "x"},
		{ID: "react/01-hooks.md", Topic: "react", Title: "Hooks", RawText: "x"},
		{ID: "go/01-slices.md", Topic: "go", Title: "Slices", RawText: "x"},
	}
	for _, d := range docs {
		store.Put(d)
	}
	return store
}

func TestBrowseListsAllInFirstSeenOrder(t *testing.T) {
	agg := New(seedStore(t))
	groups := agg.Browse()

	if len(groups) != 3 {
		t.Fatalf("groups = %d", len(groups))
	}
	want := []string{"sql", "react", "go"}
	for i, g := range groups {
		if g.Topic != want[i] {
			t.Errorf("group[%d] = %q, want %q", i, g.Topic, want[i])
		}
	}
	if groups[0].FileCount != 2 || len(groups[0].Items) != 2 {
		t.Errorf("sql group = %+v", groups[0])
	}
	if groups[0].Items[0].DocumentID != "sql/01-intro.md" {
		t.Errorf("items out of order: %+v", groups[0].Items)
	}
}

func TestGroupFiltersToMatches(t *testing.T) {
	agg := New(seedStore(t))
	results := []*models.SearchResult{
		{DocumentID: "go/01-slices.md", Topic: "go", Title: "Slices", MatchCount: 4, Score: 4.5, Rank: 1},
		{DocumentID: "sql/02-joins.md", Topic: "sql", Title: "Joins", MatchCount: 2, Score: 2.0, Rank: 2},
	}

	groups := agg.Group(results)
	if len(groups) != 2 {
		t.Fatalf("groups = %d", len(groups))
	}
	// First-seen store order wins over result ranking.
	if groups[0].Topic != "sql" || groups[1].Topic != "go" {
		t.Errorf("order = [%s %s]", groups[0].Topic, groups[1].Topic)
	}
	if groups[0].Items[0].MatchCount != 2 || groups[1].Items[0].Score != 4.5 {
		t.Errorf("match data missing: %+v", groups)
	}
	for _, g := range groups {
		if g.Topic == "react" {
			t.Error("topic without matches must be omitted")
		}
	}
}

func TestGroupEmptyResults(t *testing.T) {
	agg := New(seedStore(t))
	if groups := agg.Group(nil); len(groups) != 0 {
		t.Errorf("expected no groups, got %d", len(groups))
	}
}

func TestToggleState(t *testing.T) {
	agg := New(seedStore(t))
	if agg.Expanded("sql") {
		t.Error("topics start collapsed")
	}
	if !agg.Toggle("sql") {
		t.Error("first toggle should expand")
	}
	groups := agg.Browse()
	if !groups[0].Expanded || groups[1].Expanded {
		t.Errorf("expansion state not reflected: %+v", groups)
	}
	if agg.Toggle("sql") {
		t.Error("second toggle should collapse")
	}
}
