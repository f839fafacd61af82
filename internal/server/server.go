// Package server exposes a corpus over HTTP so machines without the
// database file can query it through the same Client interface.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/matsen/oalex/internal/api"
)

// Server routes HTTP requests to an embedded corpus client.
type Server struct {
	client api.Client
	log    zerolog.Logger
}

// New returns a Server over client.
func New(client api.Client, log zerolog.Logger) *Server {
	return &Server{client: client, log: log}
}

// Router builds the chi router. /works/* is a wildcard route because DOIs
// contain slashes and must resolve as a single identifier.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/works", s.handleSearch)
	r.Get("/works/count", s.handleCount)
	r.Post("/works/batch", s.handleBatch)
	r.Get("/works/*", s.handleGet)
	r.Get("/impact-factor", s.handleImpactFactor)
	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encoding response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.client.Status(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("status")
		s.writeError(w, http.StatusInternalServerError, "status unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		s.writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	limit := intParam(r, "limit", 10)
	offset := intParam(r, "offset", 0)

	result, err := s.client.Search(r.Context(), query, limit, offset)
	if err != nil {
		s.log.Error().Err(err).Str("query", query).Msg("search")
		s.writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		s.writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	n, err := s.client.Count(r.Context(), query)
	if err != nil {
		s.log.Error().Err(err).Str("query", query).Msg("count")
		s.writeError(w, http.StatusInternalServerError, "count failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"query": query, "count": n})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "*")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "missing work identifier")
		return
	}
	work, err := s.client.Get(r.Context(), id)
	if err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("get")
		s.writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if work == nil {
		s.writeError(w, http.StatusNotFound, "work not found")
		return
	}
	s.writeJSON(w, http.StatusOK, work)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(payload.IDs) == 0 {
		s.writeError(w, http.StatusBadRequest, "ids must be non-empty")
		return
	}

	works, err := s.client.GetMany(r.Context(), payload.IDs)
	if err != nil {
		s.log.Error().Err(err).Int("requested", len(payload.IDs)).Msg("batch")
		s.writeError(w, http.StatusInternalServerError, "batch lookup failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"requested": len(payload.IDs),
		"found":     len(works),
		"results":   works,
	})
}

func (s *Server) handleImpactFactor(w http.ResponseWriter, r *http.Request) {
	issn := r.URL.Query().Get("issn")
	if issn == "" {
		s.writeError(w, http.StatusBadRequest, "missing query parameter issn")
		return
	}
	year := intParam(r, "year", 0)
	if year == 0 {
		s.writeError(w, http.StatusBadRequest, "missing query parameter year")
		return
	}

	jif, err := s.client.ImpactFactor(r.Context(), issn, year)
	if err != nil {
		s.log.Error().Err(err).Str("issn", issn).Msg("impact factor")
		s.writeError(w, http.StatusInternalServerError, "impact factor failed")
		return
	}
	if jif == nil {
		s.writeError(w, http.StatusNotFound, "journal not found")
		return
	}
	s.writeJSON(w, http.StatusOK, jif)
}

func intParam(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
