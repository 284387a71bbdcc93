package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// StateReporter exposes scheduler state to the readiness endpoint.
type StateReporter interface {
	State() State
	LastCycle() (CycleSummary, bool)
}

// HealthServer serves the worker's probes:
//   - /health: liveness, always 200
//   - /health/ready: 200 once SetReady(true) was called, 503 otherwise
//
// When a StateReporter is attached the readiness body also carries the
// scheduler state and a summary of the last finished cycle.
type HealthServer struct {
	addr     string
	logger   *slog.Logger
	isReady  *atomic.Bool
	reporter StateReporter
	server   *http.Server
}

type healthResponse struct {
	Status    string        `json:"status"`
	Scheduler string        `json:"scheduler,omitempty"`
	LastCycle *CycleSummary `json:"last_cycle,omitempty"`
}

// NewHealthServer creates a health server that starts out not ready.
// reporter may be nil.
func NewHealthServer(addr string, logger *slog.Logger, reporter StateReporter) *HealthServer {
	isReady := &atomic.Bool{}
	return &HealthServer{
		addr:     addr,
		logger:   logger,
		isReady:  isReady,
		reporter: reporter,
	}
}

// Handler returns the probe routes.
func (h *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.handleLiveness)
	mux.HandleFunc("GET /health/ready", h.handleReadiness)
	return mux
}

// Start serves until ctx is cancelled, then shuts down within 5 seconds.
// It returns http.ErrServerClosed after a graceful shutdown.
func (h *HealthServer) Start(ctx context.Context) error {
	h.server = &http.Server{
		Addr:              h.addr,
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		h.logger.Info("health server starting", slog.String("addr", h.addr))
		if err := h.server.ListenAndServe(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		h.logger.Info("health server shutting down")
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			h.logger.Error("health server shutdown failed", slog.Any("error", err))
			return err
		}
		h.logger.Info("health server stopped")
		return http.ErrServerClosed

	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("health server failed", slog.Any("error", err))
		}
		return err
	}
}

// SetReady changes the readiness state.
func (h *HealthServer) SetReady(ready bool) {
	h.isReady.Store(ready)
	h.logger.Info("health server readiness changed", slog.Bool("ready", ready))
}

// IsReady reports the readiness state.
func (h *HealthServer) IsReady() bool {
	return h.isReady.Load()
}

func (h *HealthServer) handleLiveness(w http.ResponseWriter, r *http.Request) {
	h.write(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (h *HealthServer) handleReadiness(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	code := http.StatusOK
	if !h.isReady.Load() {
		resp.Status = "not ready"
		code = http.StatusServiceUnavailable
	}

	if h.reporter != nil {
		resp.Scheduler = h.reporter.State().String()
		if last, ok := h.reporter.LastCycle(); ok {
			resp.LastCycle = &last
		}
	}

	h.write(w, code, resp)
}

func (h *HealthServer) write(w http.ResponseWriter, code int, resp healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}
