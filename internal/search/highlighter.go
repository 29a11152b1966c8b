package search

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperjump/shiori/internal/models"
)

// HighlightRanges returns the byte spans of line matching any of the given
// tokens, case-insensitively, against the original un-normalized text so
// punctuation and casing are preserved in the rendered highlight. Overlapping
// and adjacent spans from different tokens are merged; the result is sorted by
// start offset.
func HighlightRanges(line string, tokens []string) []models.HighlightRange {
	folded, starts := foldWithOffsets(line)
	var ranges []models.HighlightRange
	for _, tok := range tokens {
		needle := strings.ToLower(tok)
		for from := 0; from < len(folded); {
			i := strings.Index(folded[from:], needle)
			if i < 0 {
				break
			}
			s := from + i
			e := s + len(needle)
			ranges = append(ranges, models.HighlightRange{
				Start: starts[s],
				End:   starts[e],
			})
			from = e
		}
	}
	return mergeRanges(ranges)
}

// foldWithOffsets lowercases line rune by rune and records, for every byte of
// the folded text (plus one past the end), the corresponding byte offset in
// the original. Lowercasing can change a rune's encoded width, so byte
// offsets cannot simply be reused.
func foldWithOffsets(line string) (string, []int) {
	var b strings.Builder
	b.Grow(len(line))
	starts := make([]int, 0, len(line)+1)
	for i, r := range line {
		lower := unicode.ToLower(r)
		n := utf8.RuneLen(lower)
		if n < 0 {
			lower, n = r, utf8.RuneLen(r)
		}
		for j := 0; j < n; j++ {
			starts = append(starts, i)
		}
		b.WriteRune(lower)
	}
	// A span ending one past a rune's last folded byte resolves through the
	// next rune's start; the sentinel covers spans ending at the line end.
	starts = append(starts, len(line))
	return b.String(), starts
}

// mergeRanges sorts spans and merges overlapping or touching ones.
func mergeRanges(ranges []models.HighlightRange) []models.HighlightRange {
	if len(ranges) == 0 {
		return nil
	}
	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].Start != ranges[j].Start {
			return ranges[i].Start < ranges[j].Start
		}
		return ranges[i].End < ranges[j].End
	})
	merged := ranges[:1]
	for _, r := range ranges[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}
