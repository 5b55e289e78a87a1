package verification

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/medaid/platform/pkg/config"
	"github.com/medaid/platform/pkg/interfaces"
	"github.com/medaid/platform/pkg/logger"
	"github.com/medaid/platform/pkg/monitoring"
	"github.com/medaid/platform/pkg/types"
)

// Service implements the doctor-verification review workflow
type Service struct {
	config        *config.Config
	logger        *logger.Logger
	verifications interfaces.VerificationStore
	server        *http.Server
}

// New creates a new verification service
func New(cfg *config.Config, log *logger.Logger, verifications interfaces.VerificationStore) *Service {
	return &Service{
		config:        cfg,
		logger:        log,
		verifications: verifications,
	}
}

// Submit records a doctor's credential submission. Submitting again after a
// rejection resets the record to pending.
func (s *Service) Submit(ctx context.Context, v *types.DoctorVerification) (*types.DoctorVerification, error) {
	if v.DoctorID == "" {
		return nil, types.NewValidationError("MISSING_DOCTOR_ID", "doctor ID is required", nil)
	}
	if v.RegistrationNo == "" {
		return nil, types.NewValidationError("MISSING_REGISTRATION", "registration number is required", nil)
	}

	v.ID = uuid.New().String()
	v.Status = types.VerificationPending
	v.ReviewerNote = ""
	v.SubmittedAt = time.Now()
	v.ReviewedAt = nil

	if err := s.verifications.UpsertVerification(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to submit credentials: %w", err)
	}

	s.logger.WithField("doctor_id", v.DoctorID).Info("Credential submission recorded")
	return v, nil
}

// GetStatus retrieves one doctor's verification record
func (s *Service) GetStatus(ctx context.Context, doctorID string) (*types.DoctorVerification, error) {
	return s.verifications.GetVerificationByDoctorID(ctx, doctorID)
}

// ListPending retrieves the review queue, oldest submission first
func (s *Service) ListPending(ctx context.Context) ([]*types.DoctorVerification, error) {
	return s.verifications.GetVerificationsByStatus(ctx, types.VerificationPending)
}

// Approve records an approval decision for one doctor
func (s *Service) Approve(ctx context.Context, doctorID, note string) error {
	return s.review(ctx, doctorID, types.VerificationApproved, note)
}

// Reject records a rejection decision for one doctor
func (s *Service) Reject(ctx context.Context, doctorID, note string) error {
	if note == "" {
		return types.NewValidationError("MISSING_NOTE", "a rejection requires a reviewer note", nil)
	}
	return s.review(ctx, doctorID, types.VerificationRejected, note)
}

func (s *Service) review(ctx context.Context, doctorID string, status types.VerificationStatus, note string) error {
	v, err := s.verifications.GetVerificationByDoctorID(ctx, doctorID)
	if err != nil {
		return err
	}

	if v.Status != types.VerificationPending {
		return types.NewConflictError("ALREADY_REVIEWED",
			fmt.Sprintf("verification is already %s", v.Status))
	}

	if err := s.verifications.SetVerificationStatus(ctx, doctorID, status, note); err != nil {
		return err
	}

	s.logger.WithField("doctor_id", doctorID).Infof("Verification %s", status)
	return nil
}

// Start starts the verification service HTTP server
func (s *Service) Start(addr string) error {
	router := mux.NewRouter()
	s.setupRoutes(router)

	var handler http.Handler = router
	if s.config.Monitoring.Enabled {
		handler = monitoring.Middleware("verification", router)
	}

	s.server = &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	s.logger.Infof("Starting Verification Service on %s", addr)
	return s.server.ListenAndServe()
}

// Stop stops the verification service
func (s *Service) Stop() error {
	if s.server != nil {
		s.logger.Info("Stopping Verification Service")
		return s.server.Close()
	}
	return nil
}
