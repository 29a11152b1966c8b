// Package search runs ranked line-level queries over the inverted index.
package search

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/config"
	"github.com/hyperjump/shiori/internal/docstore"
	"github.com/hyperjump/shiori/internal/index"
	"github.com/hyperjump/shiori/internal/models"
)

// coOccurrenceBonus is added once per line on which every query token
// appears, so a multi-token line match outranks single-token scatter.
const coOccurrenceBonus = 0.5

// Engine scores documents against the inverted index. It only reads the index
// and the document store; all queries run synchronously over already-built
// index state, so they complete within an interactive frame budget.
type Engine struct {
	index  *index.Index
	store  *docstore.Store
	cfg    *config.SearchConfig
	logger *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a search engine over ix and store.
func NewEngine(ix *index.Index, store *docstore.Store, cfg *config.SearchConfig, opts ...EngineOption) *Engine {
	e := &Engine{index: ix, store: store, cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// candidate accumulates per-document match state during scoring.
type candidate struct {
	meta models.DocumentMeta
	// tokensByLine maps line number to the distinct query tokens found there.
	tokensByLine map[int]map[string]struct{}
	matchCount   int
}

// Search runs a query, optionally restricted to one topic. An empty query
// after normalization yields an empty result set, not an error. Topics whose
// index build has not finished are reported in PendingTopics so the caller can
// re-query; missing index state is never an error (availability over
// completeness during incremental load).
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	start := time.Now()
	query.Normalize(e.cfg.MaxResults)

	resp := &models.SearchResponse{
		Results: []*models.SearchResult{},
		Query:   query.Query,
	}
	resp.PendingTopics = e.pendingFor(query.Topic)

	tokens := index.TokenSet(query.Query)
	if len(tokens) == 0 {
		resp.QueryTime = time.Since(start).Milliseconds()
		return resp, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := e.collect(tokens, query.Topic)
	results := e.rank(candidates, tokens, len(tokens))

	resp.Total = len(results)
	if len(results) > query.MaxResults {
		results = results[:query.MaxResults]
	}
	for i, r := range results {
		r.Rank = i + 1
	}
	resp.Results = results
	resp.QueryTime = time.Since(start).Milliseconds()
	if e.logger != nil {
		e.logger.Debug("search executed",
			zap.String("query", query.Query),
			zap.String("topic", query.Topic),
			zap.Int("total", resp.Total),
			zap.Int64("ms", resp.QueryTime))
	}
	return resp, nil
}

func (e *Engine) pendingFor(topic string) []string {
	pending := e.index.PendingTopics()
	if topic == "" {
		return pending
	}
	for _, t := range pending {
		if t == topic {
			return []string{t}
		}
	}
	return nil
}

// collect gathers per-document line matches for the query tokens.
func (e *Engine) collect(tokens []string, topic string) map[string]*candidate {
	candidates := make(map[string]*candidate)
	for _, tok := range tokens {
		for docID, lines := range e.index.Lookup(tok) {
			cand, ok := candidates[docID]
			if !ok {
				meta, err := e.store.Meta(docID)
				if err != nil {
					// Removed between index read and meta read; skip.
					continue
				}
				if topic != "" && meta.Topic != topic {
					continue
				}
				cand = &candidate{meta: meta, tokensByLine: make(map[int]map[string]struct{})}
				candidates[docID] = cand
			}
			for _, lineNo := range lines {
				set, ok := cand.tokensByLine[lineNo]
				if !ok {
					set = make(map[string]struct{})
					cand.tokensByLine[lineNo] = set
				}
				set[tok] = struct{}{}
				cand.matchCount++
			}
		}
	}
	return candidates
}

// rank scores candidates and orders them deterministically: score descending,
// then topic, title, and document id ascending, so repeated queries over the
// same document set return identical lists.
func (e *Engine) rank(candidates map[string]*candidate, tokens []string, queryTokenCount int) []*models.SearchResult {
	results := make([]*models.SearchResult, 0, len(candidates))
	for docID, cand := range candidates {
		score := float64(cand.matchCount)
		for _, lineTokens := range cand.tokensByLine {
			if len(lineTokens) == queryTokenCount {
				score += coOccurrenceBonus
			}
		}
		results = append(results, &models.SearchResult{
			DocumentID: docID,
			Topic:      cand.meta.Topic,
			Title:      cand.meta.Title,
			MatchCount: cand.matchCount,
			Score:      score,
			Previews:   e.previews(docID, cand, tokens),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Topic != b.Topic {
			return a.Topic < b.Topic
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.DocumentID < b.DocumentID
	})
	return results
}

// previews selects up to PreviewLines lines with the highest distinct-token
// overlap (earlier lines win ties) and computes highlight ranges over the
// verbatim line text.
func (e *Engine) previews(docID string, cand *candidate, tokens []string) []models.PreviewLine {
	limit := e.cfg.PreviewLines
	if limit <= 0 {
		limit = 3
	}
	lineNos := make([]int, 0, len(cand.tokensByLine))
	for lineNo := range cand.tokensByLine {
		lineNos = append(lineNos, lineNo)
	}
	sort.Slice(lineNos, func(i, j int) bool {
		a, b := lineNos[i], lineNos[j]
		na, nb := len(cand.tokensByLine[a]), len(cand.tokensByLine[b])
		if na != nb {
			return na > nb
		}
		return a < b
	})
	if len(lineNos) > limit {
		lineNos = lineNos[:limit]
	}
	sort.Ints(lineNos)

	previews := make([]models.PreviewLine, 0, len(lineNos))
	for _, lineNo := range lineNos {
		text, ok := e.index.LineText(docID, lineNo)
		if !ok {
			continue
		}
		previews = append(previews, models.PreviewLine{
			LineNumber: lineNo,
			Text:       text,
			Highlights: HighlightRanges(text, tokens),
		})
	}
	return previews
}
