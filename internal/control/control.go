// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package control exposes the pipeline's HTTP control surface.
// Implements: prd021-control-plane (R1-R4);
//
//	docs/ARCHITECTURE.md § Control Plane.
//
// Handlers only enqueue units and read counters; pipeline logic lives in
// the stages.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/editorial-engine/internal/pipeline"
)

// Server routes control requests onto the pipeline queue.
type Server struct {
	queue   pipeline.Queue
	stats   *pipeline.Stats
	version string
	log     *zap.Logger
}

// New builds the control server over the shared queue and counters.
func New(queue pipeline.Queue, stats *pipeline.Stats, version string, log *zap.Logger) *Server {
	return &Server{queue: queue, stats: stats, version: version, log: log}
}

// Handler returns the control-plane routes (R1.1).
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /trigger/discovery", s.handleTriggerDiscovery)
	mux.HandleFunc("POST /trigger/search", s.handleTriggerSearch)
	mux.HandleFunc("POST /intake", s.handleIntake)
	return mux
}

// Run serves the control plane on addr until ctx is cancelled (R1.2).
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("control plane listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.version,
	})
}

// handleStatus reports the aggregate counters and per-stage queue depths
// (R2.1-R2.2).
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	queues := make(map[string]int, len(pipeline.Stages))
	for _, stage := range pipeline.Stages {
		queues[string(stage)] = s.queue.Depth(stage)
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Counters: s.stats.Snapshot(),
		Queues:   queues,
	})
}

// handleTriggerDiscovery enqueues one full discovery cycle (R3.1). An
// empty query means "run the configured plan".
func (s *Server) handleTriggerDiscovery(w http.ResponseWriter, r *http.Request) {
	u := pipeline.NewDiscoveryUnit("")
	if err := s.queue.Enqueue(r.Context(), u); err != nil {
		http.Error(w, "queue unavailable", http.StatusServiceUnavailable)
		return
	}
	s.log.Info("discovery cycle triggered", zap.String("unit_id", u.ID.String()))
	writeJSON(w, http.StatusAccepted, enqueueResponse{UnitID: u.ID.String(), Status: "queued"})
}

// handleTriggerSearch enqueues a single ad-hoc search (R3.2). The query
// comes from a JSON body or a form value.
func (s *Server) handleTriggerSearch(w http.ResponseWriter, r *http.Request) {
	query := searchQuery(r)
	if query == "" {
		http.Error(w, "query required", http.StatusBadRequest)
		return
	}

	u := pipeline.NewDiscoveryUnit(query)
	if err := s.queue.Enqueue(r.Context(), u); err != nil {
		http.Error(w, "queue unavailable", http.StatusServiceUnavailable)
		return
	}
	s.log.Info("search triggered", zap.String("query", query), zap.String("unit_id", u.ID.String()))
	writeJSON(w, http.StatusAccepted, enqueueResponse{UnitID: u.ID.String(), Status: "queued"})
}

// handleIntake enqueues one intake unit per submitted URL (R3.3). The
// body is {"urls": [...]}; blank entries are dropped.
func (s *Server) handleIntake(w http.ResponseWriter, r *http.Request) {
	var req intakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	var queued int
	for _, raw := range req.URLs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if err := s.queue.Enqueue(r.Context(), pipeline.NewIntakeUnit(raw)); err != nil {
			http.Error(w, "queue unavailable", http.StatusServiceUnavailable)
			return
		}
		queued++
	}
	if queued == 0 {
		http.Error(w, "urls required", http.StatusBadRequest)
		return
	}

	s.log.Info("intake batch queued", zap.Int("urls", queued))
	writeJSON(w, http.StatusAccepted, intakeResponse{Queued: queued, Status: "queued"})
}

func searchQuery(r *http.Request) string {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return ""
		}
		return strings.TrimSpace(req.Query)
	}
	r.ParseForm()
	return strings.TrimSpace(r.FormValue("query"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Control-plane wire structures.

type statusResponse struct {
	Counters pipeline.Snapshot `json:"counters"`
	Queues   map[string]int    `json:"queues"`
}

type enqueueResponse struct {
	UnitID string `json:"unit_id"`
	Status string `json:"status"`
}

type intakeRequest struct {
	URLs []string `json:"urls"`
}

type intakeResponse struct {
	Queued int    `json:"queued"`
	Status string `json:"status"`
}
