// Package web serves the chat UI and its JSON API.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/chris/cetes/internal/agent"
	"github.com/chris/cetes/internal/db"
	"github.com/chris/cetes/internal/logging"
)

//go:embed static
var staticFiles embed.FS

// Refresher runs the data and forecast refresh on demand.
type Refresher interface {
	Refresh(ctx context.Context) (db.Refresh, error)
}

type Server struct {
	db        *db.DB
	responder *agent.Responder
	refresher Refresher
	audioDir  string
	md        goldmark.Markdown
	mux       *http.ServeMux
	now       func() time.Time
}

func NewServer(database *db.DB, responder *agent.Responder, refresher Refresher, audioDir string) *Server {
	s := &Server{
		db:        database,
		responder: responder,
		refresher: refresher,
		audioDir:  audioDir,
		md:        goldmark.New(goldmark.WithExtensions(extension.GFM)),
		mux:       http.NewServeMux(),
		now:       time.Now,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	static, _ := fs.Sub(staticFiles, "static")
	s.mux.Handle("GET /", http.FileServerFS(static))
	s.mux.HandleFunc("POST /api/chat", s.handleChat)
	s.mux.HandleFunc("POST /api/clear", s.handleClear)
	s.mux.HandleFunc("GET /api/data", s.handleData)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	s.mux.HandleFunc("GET /api/audio/{name}", s.handleAudio)
}

func (s *Server) Handler() http.Handler {
	return logRequests(s.mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logging.Logger().Info("web UI listening", "addr", addr)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.Logger().Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"took", time.Since(start).Round(time.Millisecond))
	})
}
