// Package httpapi exposes the synthesis router over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/book-expert/logger"
	"github.com/book-expert/tts-router/internal/core"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 1 << 20

const corsMaxAgeSeconds = 300

// StatusMode selects how failures are reflected in the HTTP status line.
type StatusMode string

const (
	// StatusModeCompat always answers 200 and signals failure in the body.
	StatusModeCompat StatusMode = "compat"
	// StatusModeHTTP maps error codes onto conventional HTTP statuses.
	StatusModeHTTP StatusMode = "http"
)

// Router is the synthesis pipeline the handler serves.
type Router interface {
	Route(ctx context.Context, req core.SynthesisRequest) core.SynthesisResult
}

// Handler serves the synthesis endpoints.
type Handler struct {
	router         Router
	log            *logger.Logger
	statusMode     StatusMode
	maxBodyBytes   int64
	allowedOrigins []string
}

// Option configures a Handler.
type Option func(*Handler)

// WithStatusMode sets the status mapping mode.
func WithStatusMode(mode StatusMode) Option {
	return func(h *Handler) {
		if mode != "" {
			h.statusMode = mode
		}
	}
}

// WithMaxBodyBytes sets the request body limit.
func WithMaxBodyBytes(limit int64) Option {
	return func(h *Handler) {
		if limit > 0 {
			h.maxBodyBytes = limit
		}
	}
}

// WithAllowedOrigins enables CORS for browser clients on the given origins.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Handler) {
		h.allowedOrigins = origins
	}
}

// New creates a Handler.
func New(router Router, log *logger.Logger, options ...Option) *Handler {
	h := &Handler{
		router:         router,
		log:            log,
		statusMode:     StatusModeCompat,
		maxBodyBytes:   DefaultMaxBodyBytes,
		allowedOrigins: nil,
	}

	for _, option := range options {
		option(h)
	}

	return h
}

// Attach registers the routes on r.
func (h *Handler) Attach(r chi.Router) {
	r.Post("/", h.handleSynthesize)
	r.Post("/v1/synthesize", h.handleSynthesize)

	r.Get("/health", h.handleHealth)
}

// Routes returns a ready-to-serve mux with the handler attached.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if len(h.allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			MaxAge:         corsMaxAgeSeconds,
		}))
	}

	h.Attach(r)

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJson(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	_ = enc.Encode(v)
}
