package medication

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/medaid/platform/pkg/monitoring"
	"github.com/medaid/platform/pkg/types"
)

// maxPrescriptionUpload bounds the multipart form held in memory
const maxPrescriptionUpload = 8 << 20

// setupRoutes configures all medication service routes
func (s *Service) setupRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/profile", s.getProfileHandler).Methods("GET")
	api.HandleFunc("/profile", s.saveProfileHandler).Methods("PUT")

	api.HandleFunc("/medicines", s.listMedicinesHandler).Methods("GET")
	api.HandleFunc("/medicines", s.addMedicineHandler).Methods("POST")
	api.HandleFunc("/medicines/{id}", s.updateMedicineHandler).Methods("PATCH")
	api.HandleFunc("/medicines/{id}", s.removeMedicineHandler).Methods("DELETE")

	api.HandleFunc("/prescriptions/ingest", s.ingestPrescriptionHandler).Methods("POST")

	api.HandleFunc("/reminders", s.listRemindersHandler).Methods("GET")
	api.HandleFunc("/reminders", s.createReminderHandler).Methods("POST")
	api.HandleFunc("/reminders/{id}", s.toggleReminderHandler).Methods("PATCH")
	api.HandleFunc("/reminders/{id}", s.removeReminderHandler).Methods("DELETE")

	router.HandleFunc("/health", s.healthCheckHandler).Methods("GET")
	if s.config.Monitoring.Enabled {
		router.Handle(s.config.Monitoring.MetricsPath, monitoring.Handler()).Methods("GET")
	}
}

// userIDFrom extracts the caller identity set by the edge proxy
func userIDFrom(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

func (s *Service) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	if userID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	profile, err := s.GetProfile(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, "Failed to get profile", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, profile)
}

func (s *Service) saveProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	if userID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	var profile types.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	profile.UserID = userID

	if err := s.SaveProfile(r.Context(), &profile); err != nil {
		s.writeDomainError(w, "Failed to save profile", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, profile)
}

func (s *Service) listMedicinesHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	if userID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	medicines, err := s.ListMedicines(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, "Failed to list medicines", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"medicines": medicines,
		"count":     len(medicines),
	})
}

func (s *Service) addMedicineHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	if userID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	var med types.Medicine
	if err := json.NewDecoder(r.Body).Decode(&med); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	med.UserID = userID

	created, err := s.AddMedicine(r.Context(), &med)
	if err != nil {
		s.writeDomainError(w, "Failed to add medicine", err)
		return
	}

	s.writeJSONResponse(w, http.StatusCreated, created)
}

func (s *Service) updateMedicineHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var updates types.MedicineUpdates
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := s.UpdateMedicine(r.Context(), vars["id"], &updates); err != nil {
		s.writeDomainError(w, "Failed to update medicine", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Service) removeMedicineHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := s.RemoveMedicine(r.Context(), vars["id"]); err != nil {
		s.writeDomainError(w, "Failed to remove medicine", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Service) ingestPrescriptionHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	if userID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	if err := r.ParseMultipartForm(maxPrescriptionUpload); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}

	file, header, err := r.FormFile("prescription")
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Missing prescription file", err)
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	added, err := s.IngestPrescription(r.Context(), userID, file, mimeType)
	if err != nil {
		s.writeDomainError(w, "Failed to ingest prescription", err)
		return
	}

	s.writeJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"medicines": added,
		"count":     len(added),
	})
}

func (s *Service) listRemindersHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	if userID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	reminders, err := s.ListReminders(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, "Failed to list reminders", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"reminders": reminders,
		"count":     len(reminders),
	})
}

func (s *Service) createReminderHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	if userID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	var rem types.Reminder
	if err := json.NewDecoder(r.Body).Decode(&rem); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	rem.UserID = userID

	created, err := s.CreateReminder(r.Context(), &rem)
	if err != nil {
		s.writeDomainError(w, "Failed to create reminder", err)
		return
	}

	s.writeJSONResponse(w, http.StatusCreated, created)
}

func (s *Service) toggleReminderHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Enabled == nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Body must include enabled", err)
		return
	}

	if err := s.SetReminderEnabled(r.Context(), vars["id"], *body.Enabled); err != nil {
		s.writeDomainError(w, "Failed to toggle reminder", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Service) removeReminderHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := s.RemoveReminder(r.Context(), vars["id"]); err != nil {
		s.writeDomainError(w, "Failed to remove reminder", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// healthCheckHandler handles health check requests
func (s *Service) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "medication",
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
