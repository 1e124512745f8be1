// Package server exposes the interview session, transcript, and archive over
// HTTP. All API responses are JSON; errors carry a single "error" field.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/vhallgren/lyssna/internal/archive"
	"github.com/vhallgren/lyssna/internal/assist"
	"github.com/vhallgren/lyssna/internal/health"
	"github.com/vhallgren/lyssna/internal/observe"
	"github.com/vhallgren/lyssna/internal/session"
)

// maxAudioChunkBytes caps the size of a single audio POST body. One second of
// 16 kHz 16-bit mono PCM is 32 KiB; this allows generous batching.
const maxAudioChunkBytes = 1 << 20

// shutdownTimeout bounds graceful drain of in-flight requests.
const shutdownTimeout = 10 * time.Second

// Config assembles the server's collaborators. Controller and Store are
// required.
type Config struct {
	Controller *session.Controller
	Store      archive.Store

	// Assistant powers interview summaries. Nil disables the summarize
	// endpoint with 503.
	Assistant *assist.Assistant

	// Health serves the liveness and readiness probes. Nil means a handler
	// with no readiness checks.
	Health *health.Handler

	Metrics *observe.Metrics
	Logger  *slog.Logger

	ListenAddr string

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string
	TLSKeyFile  string
}

// Server is the HTTP front end of the interview assistant.
type Server struct {
	controller *session.Controller
	store      archive.Store
	assistant  *assist.Assistant
	logger     *slog.Logger

	httpSrv *http.Server
	tlsCert string
	tlsKey  string
}

// New builds the server and its route table.
func New(cfg Config) (*Server, error) {
	if cfg.Controller == nil {
		return nil, fmt.Errorf("server: session controller is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("server: archive store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	if cfg.Health == nil {
		cfg.Health = health.New()
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}

	s := &Server{
		controller: cfg.Controller,
		store:      cfg.Store,
		assistant:  cfg.Assistant,
		logger:     cfg.Logger,
		tlsCert:    cfg.TLSCertFile,
		tlsKey:     cfg.TLSKeyFile,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux, cfg.Health)

	s.httpSrv = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           observe.Middleware(cfg.Metrics)(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Handler returns the full middleware-wrapped handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

func (s *Server) registerRoutes(mux *http.ServeMux, h *health.Handler) {
	mux.HandleFunc("POST /api/session/start", s.handleStart)
	mux.HandleFunc("POST /api/session/stop", s.handleStop)
	mux.HandleFunc("POST /api/session/pause", s.handlePause)
	mux.HandleFunc("POST /api/session/resume", s.handleResume)
	mux.HandleFunc("POST /api/session/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/session/audio", s.handleAudio)
	mux.HandleFunc("POST /api/session/banner/dismiss", s.handleDismissBanner)
	mux.HandleFunc("GET /api/session", s.handleSnapshot)
	mux.HandleFunc("PUT /api/session/language", s.handleSetLanguage)
	mux.HandleFunc("PUT /api/session/mode", s.handleSetMode)
	mux.HandleFunc("PUT /api/session/context", s.handleSetContext)

	mux.HandleFunc("GET /api/transcript", s.handleTranscript)

	mux.HandleFunc("GET /api/interviews", s.handleListInterviews)
	mux.HandleFunc("GET /api/interviews/{id}", s.handleGetInterview)
	mux.HandleFunc("DELETE /api/interviews/{id}", s.handleDeleteInterview)
	mux.HandleFunc("POST /api/interviews/{id}/summarize", s.handleSummarize)

	mux.Handle("GET /metrics", promhttp.Handler())
	h.Register(mux)
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("http server listening", "addr", s.httpSrv.Addr, "tls", s.tlsCert != "")
		var err error
		if s.tlsCert != "" && s.tlsKey != "" {
			err = s.httpSrv.ListenAndServeTLS(s.tlsCert, s.tlsKey)
		} else {
			err = s.httpSrv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// ─── Session handlers ───────────────────────────────────────────────────────

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.Start(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	iv, err := s.controller.Stop(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, iv)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.Pause(); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.Resume(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	text, err := s.controller.AnalyzeNow(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"analysis": text})
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	pcm, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAudioChunkBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("audio chunk too large"))
		return
	}
	if len(pcm) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("empty audio chunk"))
		return
	}
	if err := s.controller.IngestAudio(r.Context(), pcm); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleDismissBanner(w http.ResponseWriter, _ *http.Request) {
	s.controller.DismissBanner()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Language session.Language `json:"language"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if body.Language != session.LangEnglish && body.Language != session.LangSwedish {
		writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("unknown language %q", body.Language)))
		return
	}
	alert, err := s.controller.SetLanguage(r.Context(), body.Language)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"language":      body.Language,
		"languageAlert": alert,
	})
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode session.Mode `json:"mode"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if body.Mode != session.ModeHardcoded && body.Mode != session.ModeAI {
		writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("unknown mode %q", body.Mode)))
		return
	}
	if err := s.controller.SetMode(body.Mode); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

func (s *Server) handleSetContext(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Context string `json:"context"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	s.controller.SetContext(body.Context)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTranscript(w http.ResponseWriter, _ *http.Request) {
	entries := s.controller.Entries()
	writeJSON(w, http.StatusOK, map[string]any{
		"entries":     entries,
		"liveCaption": s.controller.LiveCaption(),
	})
}

// ─── Archive handlers ───────────────────────────────────────────────────────

func (s *Server) handleListInterviews(w http.ResponseWriter, r *http.Request) {
	interviews, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if interviews == nil {
		interviews = []archive.Interview{}
	}
	writeJSON(w, http.StatusOK, interviews)
}

func (s *Server) handleGetInterview(w http.ResponseWriter, r *http.Request) {
	iv, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, iv)
}

func (s *Server) handleDeleteInterview(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSummarize returns the stored summary when one exists, otherwise asks
// the LLM and persists the result so repeat requests are free.
func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("no LLM assistant configured"))
		return
	}

	id := r.PathValue("id")
	iv, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if iv.Summary != "" {
		writeJSON(w, http.StatusOK, map[string]any{"summary": iv.Summary, "cached": true})
		return
	}

	summary, err := s.assistant.Summarize(r.Context(), iv.Context, iv.Transcript)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.AttachSummary(r.Context(), id, summary); err != nil {
		// The summary was produced; losing the cache write should not fail
		// the request.
		s.logger.Warn("persist summary failed", "interviewID", id, "err", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"summary": summary, "cached": false})
}

// ─── Response helpers ───────────────────────────────────────────────────────

// writeError maps domain errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrInvalidTransition),
		errors.Is(err, session.ErrAnalysisInProgress):
		status = http.StatusConflict
	case errors.Is(err, archive.ErrNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorBody(err.Error()))
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
	}
}
