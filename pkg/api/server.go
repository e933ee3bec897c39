// Package api exposes the query interface (spec §6) over HTTP, using
// gorilla/mux the same way server_bootstrap.go wires its route table, and
// the same JSON-envelope response helpers v1_helpers.go defines.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/model"
)

// InsightsSource is the read surface the API serves from; engine.Engine
// satisfies it.
type InsightsSource interface {
	GetCurrentInsights() model.InsightsSnapshot
}

// Server is the HTTP query surface.
type Server struct {
	router *mux.Router
	source InsightsSource
}

// NewServer builds a Server and wires its route table.
func NewServer(source InsightsSource) *Server {
	s := &Server{
		router: mux.NewRouter(),
		source: source,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("/v1/insights", s.handleInsights).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/insights/windows/{name}", s.handleWindow).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/insights/extremes", s.handleExtremes).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

type envelope struct {
	Data  interface{} `json:"data,omitempty"`
	Error interface{} `json:"error,omitempty"`
}

func writeResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Error: map[string]string{"message": message}})
}

// handleInsights handles GET /v1/insights — the full InsightsSnapshot.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, http.StatusOK, s.source.GetCurrentInsights())
}

// handleWindow handles GET /v1/insights/windows/{name} — one window's
// AverageResult.
func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	snapshot := s.source.GetCurrentInsights()

	result, ok := snapshot.RollingAverages[name]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown window: "+name)
		return
	}
	writeResponse(w, http.StatusOK, result)
}

// handleExtremes handles GET /v1/insights/extremes — current + historical
// extremes.
func (s *Server) handleExtremes(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, http.StatusOK, s.source.GetCurrentInsights().Extremes)
}

// handleHealthz handles GET /healthz — reports stale data quality as a
// 503 so external load balancers can route around a stale instance; Good
// and Degraded both answer 200 with the current data_quality.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	snapshot := s.source.GetCurrentInsights()
	if snapshot.DataQuality == model.DataQualityStale {
		writeError(w, http.StatusServiceUnavailable, "data quality is stale")
		return
	}
	writeResponse(w, http.StatusOK, map[string]string{"data_quality": string(snapshot.DataQuality)})
}
