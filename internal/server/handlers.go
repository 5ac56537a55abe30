package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tmammadov17503/rag-ml-ops/internal/models"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	var req models.EmbedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Texts) == 0 {
		s.respondError(w, http.StatusBadRequest, "texts cannot be empty")
		return
	}
	vectors, err := s.embedder.EmbedBatch(r.Context(), req.Texts)
	if err != nil {
		s.logger.Error("embedding failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, models.EmbedResponse{
		Vectors:    vectors,
		Dimensions: s.embedder.Dimensions(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.respondError(w, http.StatusBadRequest, "query cannot be empty")
		return
	}
	if req.K <= 0 {
		req.K = s.config.Search.DefaultK
	}
	s.logger.Debug("search request", zap.String("query", req.Query), zap.Int("k", req.K), zap.Bool("hybrid", req.Hybrid))

	start := time.Now()
	var (
		hits []models.SearchHit
		err  error
	)
	if req.Hybrid {
		hits, err = s.searcher.SearchHybrid(r.Context(), req.Query, req.K)
	} else {
		hits, err = s.searcher.Search(r.Context(), req.Query, req.K)
	}
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if hits == nil {
		hits = []models.SearchHit{}
	}
	s.respondJSON(w, http.StatusOK, models.SearchResponse{
		Hits:      hits,
		Query:     req.Query,
		QueryTime: time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(s.config.Search.DefaultK, s.config.Search.MaxK); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeSSE(w, "session", req.SessionID)
	flusher.Flush()

	_, err := s.answerer.Answer(r.Context(), &req, func(token string) {
		writeSSE(w, "message", token)
		flusher.Flush()
	})
	if err != nil {
		// Headers are gone; all we can do is report the failure in-stream.
		s.logger.Error("chat stream failed", zap.String("session_id", req.SessionID), zap.Error(err))
		writeSSE(w, "error", err.Error())
		flusher.Flush()
		return
	}
	writeSSE(w, "done", "")
	flusher.Flush()
}

// writeSSE writes one server-sent event. Newlines inside data become
// consecutive data: lines so multi-line tokens survive the wire format.
func writeSSE(w http.ResponseWriter, event, data string) {
	fmt.Fprintf(w, "event: %s\n", event)
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.respondError(w, http.StatusNotImplemented, "history not enabled")
		return
	}
	session := chi.URLParam(r, "session")
	exchanges, err := s.history.BySession(r.Context(), session)
	if err != nil {
		s.logger.Error("history lookup failed", zap.String("session_id", session), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if exchanges == nil {
		exchanges = []*models.Exchange{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": session,
		"exchanges":  exchanges,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"passages":        s.searcher.Size(),
		"dimensions":      s.searcher.Dimensions(),
		"keyword_enabled": s.searcher.KeywordEnabled(),
		"config": map[string]interface{}{
			"embedding_model": s.config.Embedding.ModelID,
			"chat_model":      s.config.Chat.ModelID,
			"default_k":       s.config.Search.DefaultK,
			"max_k":           s.config.Search.MaxK,
			"index_path":      s.config.Storage.IndexPath,
			"metadata_path":   s.config.Storage.MetaPath,
		},
	}
	if s.history != nil {
		if n, err := s.history.CountExchanges(r.Context()); err == nil {
			resp["exchanges"] = n
		} else {
			s.logger.Warn("status: count exchanges failed", zap.Error(err))
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
