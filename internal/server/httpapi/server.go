// Package httpapi serves the note service as JSON over HTTP:
//
//	GET    /v1/ping
//	GET    /v1/owners/{owner}/notes
//	POST   /v1/owners/{owner}/notes
//	PATCH  /v1/owners/{owner}/notes/{id}
//	DELETE /v1/owners/{owner}/notes/{id}
//
// Failures are answered with {"code": ..., "message": ...}.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

const maxBodyBytes = 1 << 20

// NoteService is the business layer the handlers call.
type NoteService interface {
	SelectAll(ctx context.Context, owner string) ([]models.Note, error)
	Insert(ctx context.Context, n models.Note) error
	UpdateByID(ctx context.Context, id, owner string, f models.NoteFields) error
	DeleteByID(ctx context.Context, id, owner string) error
	Ping(ctx context.Context) error
}

type Server struct {
	address         string
	notes           NoteService
	logger          logging.Logger
	shutdownTimeout time.Duration
}

func NewServer(address string, notes NoteService, l logging.Logger, shutdownTimeout time.Duration) *Server {
	return &Server{
		address:         address,
		notes:           notes,
		logger:          l.With("module", "http_server"),
		shutdownTimeout: shutdownTimeout,
	}
}

// Handler returns the routed API wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/ping", s.ping)
	mux.HandleFunc("GET /v1/owners/{owner}/notes", s.selectAll)
	mux.HandleFunc("POST /v1/owners/{owner}/notes", s.insert)
	mux.HandleFunc("PATCH /v1/owners/{owner}/notes/{id}", s.update)
	mux.HandleFunc("DELETE /v1/owners/{owner}/notes/{id}", s.delete)
	return s.logRequests(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) ping(w http.ResponseWriter, r *http.Request) {
	if err := s.notes.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "storage is not reachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

type listResponse struct {
	Notes []models.Note `json:"notes"`
}

func (s *Server) selectAll(w http.ResponseWriter, r *http.Request) {
	res, err := s.notes.SelectAll(r.Context(), r.PathValue("owner"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if res == nil {
		res = []models.Note{}
	}
	writeJSON(w, http.StatusOK, listResponse{Notes: res})
}

func (s *Server) insert(w http.ResponseWriter, r *http.Request) {
	var n models.Note
	if err := decodeBody(r, &n); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", err.Error())
		return
	}
	owner := r.PathValue("owner")
	if n.Owner != "" && n.Owner != owner {
		writeError(w, http.StatusBadRequest, "invalid_argument", "owner in body does not match path")
		return
	}
	n.Owner = owner

	if err := s.notes.Insert(r.Context(), n); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	var f models.NoteFields
	if err := decodeBody(r, &f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", err.Error())
		return
	}
	if err := s.notes.UpdateByID(r.Context(), r.PathValue("id"), r.PathValue("owner"), f); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	if err := s.notes.DeleteByID(r.Context(), r.PathValue("id"), r.PathValue("owner")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorInvalidArgument):
		writeError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, common.ErrorAlreadyExists):
		writeError(w, http.StatusConflict, "already_exists", "note already exists")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "not_found", "note not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("malformed body: %w", err)
	}
	return nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
