package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"meteo-stack/shared/logger"
	"meteo-stack/shared/storage"
)

// SnapshotSource exposes the last published snapshot
type SnapshotSource interface {
	Latest() (storage.StoredSnapshot, bool)
}

type HealthServer struct {
	monitor   *Monitor
	port      string
	gatherer  prometheus.Gatherer
	snapshots SnapshotSource
	logger    logger.Logger
	server    *http.Server
}

// NewHealthServer serves /health, /status, /metrics and /snapshot. gatherer
// and snapshots may be nil, the matching endpoints then answer 404.
func NewHealthServer(monitor *Monitor, port string, gatherer prometheus.Gatherer, snapshots SnapshotSource, log logger.Logger) *HealthServer {
	if port == "" {
		port = "8080"
	}
	return &HealthServer{
		monitor:   monitor,
		port:      port,
		gatherer:  gatherer,
		snapshots: snapshots,
		logger:    log,
	}
}

func (h *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.healthHandler)
	mux.HandleFunc("/status", h.statusHandler)
	if h.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
	if h.snapshots != nil {
		mux.HandleFunc("/snapshot", h.snapshotHandler)
	}
	return mux
}

func (h *HealthServer) Start() {
	h.server = &http.Server{
		Addr:              ":" + h.port,
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	h.logger.Infof("Health check server starting on port %s", h.port)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Errorf("Health server error: %v", err)
		}
	}()
}

func (h *HealthServer) Shutdown(ctx context.Context) error {
	if h.server == nil {
		return nil
	}
	return h.server.Shutdown(ctx)
}

func (h *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if h.monitor.IsHealthy() {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK - %s", h.monitor.GetStatusSummary())
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, "Service unhealthy - %s", h.monitor.GetStatusSummary())
	}
}

func (h *HealthServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "%s", h.monitor.GetStatusSummary())
}

func (h *HealthServer) snapshotHandler(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.snapshots.Latest()
	if !ok {
		http.Error(w, "no snapshot published yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		h.logger.Errorf("Failed to write snapshot response: %v", err)
	}
}
