package appointment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/medaid/platform/pkg/monitoring"
	"github.com/medaid/platform/pkg/types"
)

// setupRoutes configures all appointment service routes
func (s *Service) setupRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/appointments", s.bookAppointmentHandler).Methods("POST")
	api.HandleFunc("/appointments", s.listAppointmentsHandler).Methods("GET")
	api.HandleFunc("/appointments/{id}", s.getAppointmentHandler).Methods("GET")
	api.HandleFunc("/appointments/{id}/cancel", s.cancelAppointmentHandler).Methods("POST")
	api.HandleFunc("/appointments/{id}/status", s.updateStatusHandler).Methods("PATCH")

	router.HandleFunc("/health", s.healthCheckHandler).Methods("GET")
	if s.config.Monitoring.Enabled {
		router.Handle(s.config.Monitoring.MetricsPath, monitoring.Handler()).Methods("GET")
	}
}

func (s *Service) bookAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	var apt types.Appointment
	if err := json.NewDecoder(r.Body).Decode(&apt); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	apt.PatientID = userID

	booked, err := s.BookAppointment(r.Context(), &apt)
	if err != nil {
		s.writeDomainError(w, "Failed to book appointment", err)
		return
	}

	s.writeJSONResponse(w, http.StatusCreated, booked)
}

func (s *Service) listAppointmentsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := &types.AppointmentFilters{
		PatientID: q.Get("patient_id"),
		DoctorID:  q.Get("doctor_id"),
		Status:    types.AppointmentStatus(q.Get("status")),
	}

	if from := q.Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			s.writeErrorResponse(w, http.StatusBadRequest, "Invalid from date", err)
			return
		}
		filters.FromDate = t
	}

	if to := q.Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			s.writeErrorResponse(w, http.StatusBadRequest, "Invalid to date", err)
			return
		}
		filters.ToDate = t
	}

	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			s.writeErrorResponse(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		filters.Limit = n
	}

	if filters.PatientID == "" && filters.DoctorID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "patient_id or doctor_id is required", nil)
		return
	}

	appointments, err := s.ListAppointments(r.Context(), filters)
	if err != nil {
		s.writeDomainError(w, "Failed to list appointments", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"appointments": appointments,
		"count":        len(appointments),
	})
}

func (s *Service) getAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	apt, err := s.GetAppointment(r.Context(), vars["id"])
	if err != nil {
		s.writeDomainError(w, "Failed to get appointment", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, apt)
}

func (s *Service) cancelAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	if err := s.CancelAppointment(r.Context(), vars["id"], userID); err != nil {
		s.writeDomainError(w, "Failed to cancel appointment", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Service) updateStatusHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var body struct {
		Status types.AppointmentStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := s.CompleteAppointment(r.Context(), vars["id"], body.Status); err != nil {
		s.writeDomainError(w, "Failed to update appointment status", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{"status": string(body.Status)})
}

// healthCheckHandler handles health check requests
func (s *Service) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "appointment",
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
