package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"txscope/internal/application"
	"txscope/internal/domain"
	"txscope/internal/infrastructure/logx"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Server struct {
	svc   *application.TagService
	ready ReadinessCheck
}

func NewServer(svc *application.TagService, ready ReadinessCheck) *Server {
	return &Server{svc: svc, ready: ready}
}

type createTagRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

type tagResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	BaseTagID *int64 `json:"base_tag_id,omitempty"`
}

func toResponse(t domain.Tag) tagResponse {
	return tagResponse{ID: t.ID, Name: t.Name, Slug: t.Slug, BaseTagID: t.BaseTagID}
}

func (s *Server) CreateTag(w http.ResponseWriter, r *http.Request) {
	var body createTagRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	var idem *string
	if k := r.Header.Get("X-Idempotency-Key"); k != "" {
		idem = &k
	}
	tag, err := s.svc.CreateTag(r.Context(), body.Name, body.Slug, idem)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(tag))
}

func (s *Server) AddChild(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body createTagRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	tag, err := s.svc.AddChild(r.Context(), id, body.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(tag))
}

func (s *Server) GetTag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	tag, err := s.svc.GetTag(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(tag))
}

func (s *Server) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.svc.ListTags(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]tagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, toResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.svc.DeleteTag(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, "invalid tag id")
		return 0, false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, application.ErrBadRequest):
		badRequest(w, err.Error())
	case errors.Is(err, application.ErrNotFound):
		notFound(w)
	case errors.Is(err, application.ErrConflict):
		http.Error(w, "duplicate request", http.StatusConflict)
	case errors.Is(err, application.ErrResourceUnavailable), errors.Is(err, application.ErrCancelled):
		logx.WithFields(r.Context()).Warn("store unavailable", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
	default:
		logx.WithFields(r.Context()).Error("request failed", zap.Error(err))
		internalError(w)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	http.Error(w, msg, http.StatusBadRequest)
}

func notFound(w http.ResponseWriter) {
	http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
}

func internalError(w http.ResponseWriter) {
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
