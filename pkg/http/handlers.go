package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"url-shortener/pkg/logging"
	"url-shortener/pkg/shortener"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *shortener.Service
	logger  *logging.Logger
}

func NewHandler(service *shortener.Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewLogger(logging.LevelInfo)
	}
	return &Handler{service: service, logger: logger}
}

type shortenRequest struct {
	URL        string `json:"url"`
	CustomPath string `json:"custom_path,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) CreateMapping(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.service.Create(r.Context(), req.URL, req.CustomPath)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, m)
}

func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	originalURL, err := h.service.Redirect(r.Context(), code)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	http.Redirect(w, r, originalURL, http.StatusTemporaryRedirect)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 10)

	stats, err := h.service.Stats(r.Context(), skip, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) DeleteMapping(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	m, err := h.service.Deactivate(r.Context(), code)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// writeServiceError maps service errors onto HTTP statuses. Unexpected
// errors (store outages, exhausted code generation) are logged and reported
// as a plain 500 without leaking detail.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shortener.IsNotFound(err):
		writeError(w, http.StatusNotFound, "short url not found")
	case shortener.IsConflict(err):
		writeError(w, http.StatusConflict, "short url already in use")
	case shortener.IsInvalid(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func SetupRoutes(r *chi.Mux, handler *Handler) {
	r.Get("/health", handler.HealthCheck)
	r.Post("/shorten", handler.CreateMapping)
	r.Post("/shorten/", handler.CreateMapping)
	r.Get("/stats", handler.Stats)
	r.Get("/stats/", handler.Stats)
	r.Get("/{code}", handler.Redirect)
	r.Delete("/{code}", handler.DeleteMapping)
}
