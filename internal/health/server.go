package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vietddude/sentinel/internal/alerting"
	"github.com/vietddude/sentinel/internal/breaker"
	"github.com/vietddude/sentinel/internal/monitor"
	"github.com/vietddude/sentinel/internal/retryqueue"
)

// Server provides HTTP endpoints for operational monitoring.
type Server struct {
	monitor  *monitor.Monitor
	alerts   *alerting.Engine
	breakers *breaker.Registry
	queue    *retryqueue.Queue
	server   *http.Server
}

// NewServer creates the operational server.
func NewServer(
	mon *monitor.Monitor,
	alerts *alerting.Engine,
	breakers *breaker.Registry,
	queue *retryqueue.Queue,
	port int,
) *Server {
	mux := http.NewServeMux()
	s := &Server{
		monitor:  mon,
		alerts:   alerts,
		breakers: breakers,
		queue:    queue,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/errors/metrics", s.handleErrorMetrics)
	mux.HandleFunc("/errors/trends", s.handleTrends)
	mux.HandleFunc("/alerts", s.handleAlerts)
	mux.HandleFunc("/alerts/stats", s.handleAlertStats)
	mux.HandleFunc("/breakers", s.handleBreakers)
	mux.HandleFunc("/queue", s.handleQueue)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.monitor.Metrics()
	status := StatusFor(snap.HealthScore)

	response := map[string]any{
		"status":       string(status),
		"health_score": snap.HealthScore,
	}
	w.Header().Set("Content-Type", "application/json")

	if status == StatusCritical {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleErrorMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.monitor.Metrics())
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	hours := 24
	if raw := r.URL.Query().Get("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid hours parameter", http.StatusBadRequest)
			return
		}
		hours = parsed
	}
	writeJSON(w, s.monitor.Trends(hours))
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.alerts.History())
}

func (s *Server) handleAlertStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.alerts.Stats())
}

func (s *Server) handleBreakers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.breakers.Snapshot())
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.queue.Stats())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
