package search

import (
	"reflect"
	"testing"

	"github.com/hyperjump/shiori/internal/models"
)

func TestHighlightRangesCaseInsensitive(t *testing.T) {
	line := "SELECT * FROM Users;"
	got := HighlightRanges(line, []string{"select", "users"})
	want := []models.HighlightRange{{Start: 0, End: 6}, {Start: 14, End: 19}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ranges = %v, want %v", got, want)
	}
	for _, r := range got {
		_ = line[r.Start:r.End] // spans must be valid slices of the original
	}
}

func TestHighlightRangesMultipleOccurrences(t *testing.T) {
	got := HighlightRanges("key key key", []string{"key"})
	want := []models.HighlightRange{{Start: 0, End: 3}, {Start: 4, End: 7}, {Start: 8, End: 11}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ranges = %v", got)
	}
}

func TestHighlightRangesMergesOverlaps(t *testing.T) {
	// "foreign" and "foreignkey" overlap; merged into one span.
	got := HighlightRanges("foreignkey", []string{"foreign", "foreignkey"})
	want := []models.HighlightRange{{Start: 0, End: 10}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ranges = %v", got)
	}
}

func TestHighlightRangesNoMatch(t *testing.T) {
	if got := HighlightRanges("nothing here", []string{"absent"}); got != nil {
		t.Errorf("ranges = %v", got)
	}
}

func TestHighlightRangesNonASCII(t *testing.T) {
	line := "Données: SCHÉMA et schéma"
	got := HighlightRanges(line, []string{"schéma"})
	if len(got) != 2 {
		t.Fatalf("ranges = %v", got)
	}
	for _, r := range got {
		if line[r.Start:r.End] != "SCHÉMA" && line[r.Start:r.End] != "schéma" {
			t.Errorf("span %v = %q", r, line[r.Start:r.End])
		}
	}
}
