package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/cuemby/burrow/pkg/controller"
	"github.com/cuemby/burrow/pkg/events"
	"github.com/cuemby/burrow/pkg/log"
	"github.com/cuemby/burrow/pkg/metrics"
	"github.com/cuemby/burrow/pkg/policy"
	"github.com/gorilla/mux"
)

// Server is the admin HTTP server: health, metrics, and read-only
// visibility into the last convergence cycle per group.
type Server struct {
	controller *controller.Controller
	broker     *events.Broker
	version    string
	httpServer *http.Server
}

// NewServer creates a new admin server
func NewServer(addr string, ctrl *controller.Controller, broker *events.Broker, version string) *Server {
	s := &Server{
		controller: ctrl,
		broker:     broker,
		version:    version,
	}

	r := mux.NewRouter()
	r.Use(instrument)
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")
	r.HandleFunc("/v1/groups", s.handleGroups).Methods("GET")
	r.HandleFunc("/v1/groups/{id}", s.handleGroup).Methods("GET")
	r.HandleFunc("/v1/events", s.handleEvents).Methods("GET")
	r.HandleFunc("/v1/groups/{id}/policies/{policy_id}/execute", s.handleExecutePolicy).Methods("POST")

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start begins serving in a background goroutine
func (s *Server) Start() {
	logger := log.WithComponent("api")
	go func() {
		logger.Info().Str("addr", s.httpServer.Addr).Msg("admin API listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin API server failed")
		}
	}()
}

// Stop gracefully shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", Version: s.version})
}

func (s *Server) handleGroups(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.LastResults())
}

func (s *Server) handleGroup(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	result, ok := s.controller.LastResult(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "no cycle recorded for group " + id})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type executePolicyResponse struct {
	GroupID string `json:"group_id"`
	Desired int    `json:"desired"`
}

func (s *Server) handleExecutePolicy(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	desired, err := s.controller.ExecutePolicy(vars["id"], vars["policy_id"])
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, controller.ErrUnknownGroup), errors.Is(err, controller.ErrUnknownPolicy):
			status = http.StatusNotFound
		case errors.Is(err, policy.ErrCooldown):
			status = http.StatusTooManyRequests
		case errors.Is(err, policy.ErrNotImplemented):
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"message": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, executePolicyResponse{GroupID: vars["id"], Desired: desired})
}

type eventResponse struct {
	ID        string            `json:"id"`
	Type      events.EventType  `json:"type"`
	GroupID   string            `json:"group_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Message   string            `json:"message,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	recent := s.broker.Recent(limit)
	out := make([]eventResponse, 0, len(recent))
	for _, e := range recent {
		out = append(out, eventResponse{
			ID:        e.ID,
			Type:      e.Type,
			GroupID:   e.GroupID,
			Timestamp: e.Timestamp,
			Message:   e.Message,
			Metadata:  e.Metadata,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
