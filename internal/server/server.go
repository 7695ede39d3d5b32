// Package server implements the admin pages API on top of the SQLite store
// and a template catalog.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/ozitag/tager-admin-pages/internal/store"
	"github.com/ozitag/tager-admin-pages/pkg/client"
	"github.com/ozitag/tager-admin-pages/pkg/fields"
	"github.com/ozitag/tager-admin-pages/pkg/page"
	"github.com/ozitag/tager-admin-pages/pkg/template"
)

// Option customises a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEngine sets the engine used to normalise template values.
func WithEngine(engine *fields.Engine) Option {
	return func(s *Server) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// WithSanitizer sets the sanitizer applied to HTML template values.
func WithSanitizer(sanitizer *fields.Sanitizer) Option {
	return func(s *Server) {
		if sanitizer != nil {
			s.sanitizer = sanitizer
		}
	}
}

// WithUploadDir stores uploads in dir and serves them below /uploads/.
// Uploads are rejected when no directory is configured.
func WithUploadDir(dir string) Option {
	return func(s *Server) {
		s.uploadDir = dir
	}
}

// WithInfo sets the module configuration served by /admin/pages/info.
func WithInfo(info page.Info) Option {
	return func(s *Server) {
		s.info = info
	}
}

// Server serves the admin pages endpoints.
type Server struct {
	store     *store.Store
	catalog   *template.Catalog
	engine    *fields.Engine
	sanitizer *fields.Sanitizer
	logger    *slog.Logger
	uploadDir string
	info      page.Info
	doc       *openapi3.T
	handler   http.Handler
}

// New builds a server over st and catalog.
func New(ctx context.Context, st *store.Store, catalog *template.Catalog, opts ...Option) (*Server, error) {
	if st == nil {
		return nil, errors.New("server: store is nil")
	}
	if catalog == nil {
		catalog = template.NewCatalog()
	}
	s := &Server{
		store:     st,
		catalog:   catalog,
		engine:    fields.DefaultEngine(),
		sanitizer: fields.NewSanitizer(nil),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	doc, err := OpenAPI(ctx)
	if err != nil {
		return nil, err
	}
	s.doc = doc

	validated, err := newRequestValidator(doc, s.routes())
	if err != nil {
		return nil, err
	}
	s.handler = s.logRequests(validated)
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/pages/templates", s.handleTemplates)
	mux.HandleFunc("GET /admin/pages/templates/{id}", s.handleTemplate)
	mux.HandleFunc("GET /admin/pages/count", s.handleCount)
	mux.HandleFunc("GET /admin/pages/info", s.handleInfo)
	mux.HandleFunc("GET /admin/pages/openapi.json", s.handleOpenAPI)
	mux.HandleFunc("GET /admin/pages", s.handleList)
	mux.HandleFunc("POST /admin/pages", s.handleCreate)
	mux.HandleFunc("GET /admin/pages/{id}", s.handleGet)
	mux.HandleFunc("PUT /admin/pages/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /admin/pages/{id}", s.handleDelete)
	mux.HandleFunc("POST /admin/pages/{id}/move/{direction}", s.handleMove)
	mux.HandleFunc("POST /admin/pages/{id}/clone", s.handleClone)
	mux.HandleFunc("POST /admin/upload", s.handleUpload)
	if s.uploadDir != "" {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploadDir))))
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// ListenAndServe runs srv until ctx is cancelled, then shuts it down within
// grace.
func ListenAndServe(ctx context.Context, srv *http.Server, grace time.Duration) error {
	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server: listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.LogAttrs(r.Context(), slog.LevelInfo, "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData[T any](w http.ResponseWriter, data T, meta *client.Meta) {
	writeJSON(w, http.StatusOK, client.Response[T]{Data: data, Meta: meta})
}

func writeError(w http.ResponseWriter, status int, message string, issues map[string]client.FieldError) {
	writeJSON(w, status, client.ResponseError{Message: message, Errors: issues})
}

// writeStoreError maps store failures to responses.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, store.ErrInvalidParent):
		writeError(w, http.StatusUnprocessableEntity, "Validation error", map[string]client.FieldError{
			"parent": {Code: "invalid", Message: err.Error()},
		})
	default:
		s.logger.ErrorContext(r.Context(), "store failure", slog.String("path", r.URL.Path), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}
