package pricing

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/medaid/platform/pkg/monitoring"
	"github.com/medaid/platform/pkg/types"
)

// setupRoutes configures HTTP routes for the pricing service
func (s *Service) setupRoutes(router *mux.Router) {
	router.HandleFunc("/price-details", s.priceDetailsHandler).Methods("GET")

	router.HandleFunc("/search/medicines", s.searchMedicinesHandler).Methods("GET")
	router.HandleFunc("/search/labs", s.searchLabsHandler).Methods("GET")

	router.HandleFunc(s.config.Monitoring.HealthPath, s.healthCheckHandler).Methods("GET")
	if s.config.Monitoring.Enabled {
		router.Handle(s.config.Monitoring.MetricsPath, monitoring.Handler()).Methods("GET")
	}

	s.logger.Info("Pricing service routes configured")
}

// responseSink adapts the HTTP response writer into the relay's sink
type responseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (rs *responseSink) Write(p []byte) (int, error) {
	return rs.w.Write(p)
}

func (rs *responseSink) Flush() {
	rs.flusher.Flush()
}

// priceDetailsHandler serves one streaming price-comparison session.
//
// Validation failures are rejected with 400 before any network call. Retry
// exhaustion before the first byte yields 500 with a JSON error. Once the
// 200 is committed, a mid-stream failure is signaled by aborting the
// response so the client's read loop errors rather than seeing a clean EOF.
func (s *Service) priceDetailsHandler(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	pack := r.URL.Query().Get("pack")
	pin := r.URL.Query().Get("pin")

	if name == "" || pack == "" || pin == "" {
		s.writeJSONResponse(w, http.StatusBadRequest, map[string]string{
			"error": "Missing name, pack, or pin",
		})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeJSONResponse(w, http.StatusInternalServerError, map[string]string{
			"error": "Streaming unsupported",
		})
		return
	}

	session := &types.StreamSession{
		ID:        uuid.New().String(),
		Query:     types.PriceQuery{Medicine: name, Pack: pack, Pin: pin},
		StartedAt: time.Now(),
	}
	s.logger.PriceQuery(session.ID, name, pack, pin)

	resp, cancelFetch, err := s.fetcher.Fetch(r.Context(), session.ID, session.Query)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		monitoring.RecordStreamSession("unavailable", time.Since(session.StartedAt))
		s.writeJSONResponse(w, http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
		return
	}
	defer cancelFetch()
	defer resp.Body.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	relay := NewRelay(
		s.config.Upstream.FlushIntervalDuration(),
		s.config.Upstream.IdleTimeoutDuration(),
		session,
		s.logger,
	)

	err = relay.Run(r.Context(), resp.Body, &responseSink{w: w, flusher: flusher})
	duration := time.Since(session.StartedAt)

	switch {
	case err == nil:
		monitoring.RecordStreamSession("completed", duration)
	case r.Context().Err() != nil:
		// Client went away; a deliberate early exit, not an error.
		monitoring.RecordStreamSession("cancelled", duration)
	default:
		monitoring.RecordStreamSession(streamOutcome(err), duration)
		s.logger.WithSession(session.ID).WithError(err).Error("Price stream terminated")
		// The 200 is already committed; abort the chunked response so the
		// client observes a read error instead of a clean close.
		panic(http.ErrAbortHandler)
	}
}

// streamOutcome maps a relay failure onto the session outcome label. Idle
// watchdog expiry is reported as timed_out, everything else as errored.
func streamOutcome(err error) string {
	var medErr *types.MedAidError
	if errors.As(err, &medErr) && medErr.Type == types.ErrorTypeTimeout {
		return "timed_out"
	}
	return "errored"
}

// searchMedicinesHandler proxies medicine-name autocomplete
func (s *Service) searchMedicinesHandler(w http.ResponseWriter, r *http.Request) {
	s.searchHandler(w, r, s.config.Search.MedicineIndex)
}

// searchLabsHandler proxies lab-test autocomplete
func (s *Service) searchLabsHandler(w http.ResponseWriter, r *http.Request) {
	s.searchHandler(w, r, s.config.Search.LabIndex)
}

func (s *Service) searchHandler(w http.ResponseWriter, r *http.Request, index string) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeJSONResponse(w, http.StatusBadRequest, map[string]string{
			"error": "Missing query",
		})
		return
	}

	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 50 {
			limit = parsed
		}
	}

	hits, err := s.searcher.Search(r.Context(), index, query, limit)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadGateway, "Search failed", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"query": query,
		"hits":  hits,
	})
}

// healthCheckHandler handles health check requests
func (s *Service) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "pricing",
		"timestamp": time.Now().UTC(),
	}

	s.writeJSONResponse(w, http.StatusOK, response)
}

// writeJSONResponse writes a JSON response
func (s *Service) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("Failed to encode JSON response: %v", err)
	}
}

// writeErrorResponse writes an error response
func (s *Service) writeErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	s.logger.Errorf("%s: %v", message, err)

	response := map[string]interface{}{
		"error":  message,
		"status": statusCode,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	s.writeJSONResponse(w, statusCode, response)
}
