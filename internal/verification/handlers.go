package verification

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/medaid/platform/pkg/monitoring"
	"github.com/medaid/platform/pkg/types"
)

// setupRoutes configures all verification service routes
func (s *Service) setupRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/verifications", s.submitHandler).Methods("POST")
	api.HandleFunc("/verifications/pending", s.listPendingHandler).Methods("GET")
	api.HandleFunc("/verifications/{doctorID}", s.getStatusHandler).Methods("GET")
	api.HandleFunc("/verifications/{doctorID}/approve", s.approveHandler).Methods("POST")
	api.HandleFunc("/verifications/{doctorID}/reject", s.rejectHandler).Methods("POST")

	router.HandleFunc("/health", s.healthCheckHandler).Methods("GET")
	if s.config.Monitoring.Enabled {
		router.Handle(s.config.Monitoring.MetricsPath, monitoring.Handler()).Methods("GET")
	}
}

func (s *Service) submitHandler(w http.ResponseWriter, r *http.Request) {
	doctorID := r.Header.Get("X-User-ID")
	if doctorID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	var v types.DoctorVerification
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	v.DoctorID = doctorID

	submitted, err := s.Submit(r.Context(), &v)
	if err != nil {
		s.writeDomainError(w, "Failed to submit credentials", err)
		return
	}

	s.writeJSONResponse(w, http.StatusCreated, submitted)
}

func (s *Service) getStatusHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	v, err := s.GetStatus(r.Context(), vars["doctorID"])
	if err != nil {
		s.writeDomainError(w, "Failed to get verification", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, v)
}

func (s *Service) listPendingHandler(w http.ResponseWriter, r *http.Request) {
	pending, err := s.ListPending(r.Context())
	if err != nil {
		s.writeDomainError(w, "Failed to list pending verifications", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"verifications": pending,
		"count":         len(pending),
	})
}

type reviewRequest struct {
	Note string `json:"note"`
}

func (s *Service) approveHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var body reviewRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	if err := s.Approve(r.Context(), vars["doctorID"], body.Note); err != nil {
		s.writeDomainError(w, "Failed to approve verification", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{"status": string(types.VerificationApproved)})
}

func (s *Service) rejectHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var body reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := s.Reject(r.Context(), vars["doctorID"], body.Note); err != nil {
		s.writeDomainError(w, "Failed to reject verification", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{"status": string(types.VerificationRejected)})
}

// healthCheckHandler handles health check requests
func (s *Service) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "verification",
		"timestamp": time.Now().UTC(),
	}

	s.writeJSONResponse(w, http.StatusOK, response)
}

// writeDomainError maps domain error types onto HTTP status codes
func (s *Service) writeDomainError(w http.ResponseWriter, message string, err error) {
	var medErr *types.MedAidError
	status := http.StatusInternalServerError
	if errors.As(err, &medErr) {
		switch medErr.Type {
		case types.ErrorTypeValidation:
			status = http.StatusBadRequest
		case types.ErrorTypeNotFound:
			status = http.StatusNotFound
		case types.ErrorTypeConflict:
			status = http.StatusConflict
		}
	}
	s.writeErrorResponse(w, status, message, err)
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
