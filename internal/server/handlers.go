package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/anchor"
	"github.com/hyperjump/shiori/internal/docstore"
	"github.com/hyperjump/shiori/internal/models"
	"github.com/hyperjump/shiori/internal/progress"
	"github.com/hyperjump/shiori/internal/storage"
)

// urlParam returns the named route parameter, path-unescaped. Document IDs
// are relative paths, so clients escape the slashes.
func urlParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := &models.SearchQuery{
		Query: q.Get("q"),
		Topic: q.Get("topic"),
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		query.MaxResults = n
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.String("topic", query.Topic))
	response, err := s.engine.Search(r.Context(), query)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"topics": s.topics.Browse(),
	})
}

func (s *Server) handleTopicToggle(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "topic")
	expanded := s.topics.Toggle(name)
	if expanded {
		// The build outlives the request; collapse cancels it.
		s.builder.BuildTopic(context.Background(), name)
	} else {
		s.builder.CancelTopic(name)
		// Collapsed topics release their bodies; metadata and index
		// fragments stay, so browse and search keep working.
		s.store.EvictTopic(name)
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"topic":    name,
		"expanded": expanded,
	})
}

// ensureResident restores an evicted document body before an operation that
// reads the text. Unknown IDs are left for the caller to report.
func (s *Server) ensureResident(id string) {
	if s.reload == nil {
		return
	}
	if _, err := s.store.Get(id); err == nil {
		return
	}
	if _, err := s.store.Meta(id); err != nil {
		return
	}
	if _, err := s.reload(id); err != nil {
		s.logger.Warn("reload of evicted document failed", zap.String("id", id), zap.Error(err))
	}
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	s.ensureResident(id)
	doc, err := s.store.Get(id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

type bookmarkCreateRequest struct {
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

func (s *Server) handleCreateBookmark(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	var req bookmarkCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.ensureResident(id)
	a, err := s.bookmarks.CreateBookmark(id, req.StartOffset, req.EndOffset, req.Color, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, docstore.ErrNotFound):
			s.respondError(w, http.StatusNotFound, "document not found")
		case errors.Is(err, anchor.ErrInvalidRange):
			s.respondError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("create bookmark failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.respondJSON(w, http.StatusCreated, a)
}

func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	s.ensureResident(id)
	list, err := s.bookmarks.ListBookmarks(id)
	if err != nil {
		s.logger.Error("list bookmarks failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"bookmarks": list})
}

type bookmarkUpdateRequest struct {
	Color       string `json:"color"`
	Description string `json:"description"`
}

func (s *Server) handleUpdateBookmark(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	var req bookmarkUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	a, err := s.bookmarks.UpdateBookmark(id, req.Color, req.Description)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "bookmark not found")
			return
		}
		s.logger.Error("update bookmark failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, a)
}

func (s *Server) handleDeleteBookmark(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	if err := s.bookmarks.DeleteBookmark(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "bookmark not found")
			return
		}
		s.logger.Error("delete bookmark failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type noteCreateRequest struct {
	AnchorID string `json:"anchor_id"`
	Text     string `json:"text"`
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	var req noteCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		s.respondError(w, http.StatusBadRequest, "text is required")
		return
	}
	s.ensureResident(id)
	note, err := s.bookmarks.AddNote(id, req.AnchorID, req.Text)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) || errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("add note failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, note)
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	notes, err := s.bookmarks.ListNotes(id)
	if err != nil {
		s.logger.Error("list notes failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"notes": notes})
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	if err := s.bookmarks.DeleteNote(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "note not found")
			return
		}
		s.logger.Error("delete note failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	p, err := s.annotations.GetProgress(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "no progress recorded")
			return
		}
		s.logger.Error("get progress failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

type progressPutRequest struct {
	Line int `json:"line"`
}

func (s *Server) handlePutProgress(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	var req progressPutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Line < 1 {
		s.respondError(w, http.StatusBadRequest, "line must be at least 1")
		return
	}
	meta, err := s.store.Meta(id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	p := progress.Record(id, req.Line, meta.LineCount)
	s.progress.Update(p)
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"documents":         s.store.Count(),
		"topics":            len(s.store.Topics()),
		"indexed_documents": s.index.DocumentCount(),
		"tokens":            s.index.TokenCount(),
		"pending_topics":    s.index.PendingTopics(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
