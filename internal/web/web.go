// Package web serves the organizer's status API on the local network.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"organizer/internal/battery"
	"organizer/internal/config"
	"organizer/internal/log"
	"organizer/internal/pipeline"
)

const batteryCacheTTL = 30 * time.Second

// Renderer is the part of *pipeline.Pipeline the server drives.
type Renderer interface {
	Run(ctx context.Context, force bool) (pipeline.Result, error)
	Last() (pipeline.Result, bool)
}

// Server provides the status endpoints:
//
//	GET  /health        liveness, never authenticated
//	GET  /api/battery   current charge, cached for 30s
//	GET  /api/snapshot  what the panel is showing
//	GET  /preview.png   the last rendered frame
//	POST /api/render    run a refresh now (?force=1 ignores the snapshot gate)
type Server struct {
	cfg      *config.Config
	battery  battery.Reader
	renderer Renderer
	mux      *http.ServeMux
	now      func() time.Time

	batteryMu    sync.RWMutex
	batteryCache *batteryCache
}

type batteryCache struct {
	status    battery.Status
	updatedAt time.Time
}

func NewServer(cfg *config.Config, br battery.Reader, r Renderer) *Server {
	s := &Server{
		cfg:      cfg,
		battery:  br,
		renderer: r,
		mux:      http.NewServeMux(),
		now:      time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the routes, behind basic auth when it is configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		return s.basicAuthMiddleware(h)
	}
	return h
}

// ListenAndServe serves on cfg.Listen until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen, "basic_auth", s.basicAuthEnabled())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password disables auth.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Organizer", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/battery", s.handleBattery)
	s.mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	s.mux.HandleFunc("POST /api/render", s.handleRender)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleBattery(w http.ResponseWriter, r *http.Request) {
	now := s.now()

	s.batteryMu.RLock()
	bc := s.batteryCache
	s.batteryMu.RUnlock()
	if bc != nil && now.Sub(bc.updatedAt) < batteryCacheTTL {
		writeJSON(w, http.StatusOK, bc.status)
		return
	}

	if s.battery == nil {
		writeError(w, http.StatusInternalServerError, "battery reader unavailable")
		return
	}
	status, err := s.battery.Read(r.Context())
	if err != nil {
		log.Error("battery read failed", err)
		writeError(w, http.StatusInternalServerError, "failed to read battery")
		return
	}

	s.batteryMu.Lock()
	s.batteryCache = &batteryCache{status: status, updatedAt: now}
	s.batteryMu.Unlock()

	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	res, ok := s.renderer.Last()
	if !ok {
		writeError(w, http.StatusNotFound, "nothing rendered yet")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "1"
	log.Info("render requested over HTTP", "force", force)

	res, err := s.renderer.Run(r.Context(), force)
	switch {
	case errors.Is(err, pipeline.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		log.Error("render request failed", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

// handlePreview serves the preview written by the last pass.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, filepath.Join(s.cfg.StateDir, "preview.png"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
