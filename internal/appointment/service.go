package appointment

import (
	"context"
	"errors"
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

// confirmationChannels is the order in which a patient's linked channels are
// tried for booking confirmations
var confirmationChannels = []types.ReminderChannel{
	types.ChannelTelegram,
	types.ChannelWhatsApp,
	types.ChannelPush,
}

// Service implements appointment booking against verified doctors
type Service struct {
	config        *config.Config
	logger        *logger.Logger
	appointments  interfaces.AppointmentStore
	verifications interfaces.VerificationStore
	profiles      interfaces.ProfileStore
	notifiers     map[types.ReminderChannel]interfaces.Notifier
	server        *http.Server
}

// New creates a new appointment service. verifications may be nil, in which
// case the verified-doctor gate is skipped.
func New(cfg *config.Config, log *logger.Logger, appointments interfaces.AppointmentStore,
	verifications interfaces.VerificationStore, profiles interfaces.ProfileStore,
	notifiers []interfaces.Notifier) *Service {

	byChannel := make(map[types.ReminderChannel]interfaces.Notifier, len(notifiers))
	for _, n := range notifiers {
		byChannel[n.Channel()] = n
	}

	return &Service{
		config:        cfg,
		logger:        log,
		appointments:  appointments,
		verifications: verifications,
		profiles:      profiles,
		notifiers:     byChannel,
	}
}

// BookAppointment validates the requested slot, checks the doctor is verified
// and free, and creates the booking
func (s *Service) BookAppointment(ctx context.Context, apt *types.Appointment) (*types.Appointment, error) {
	if apt.PatientID == "" {
		return nil, types.NewValidationError("MISSING_PATIENT_ID", "patient ID is required", nil)
	}
	if apt.DoctorID == "" {
		return nil, types.NewValidationError("MISSING_DOCTOR_ID", "doctor ID is required", nil)
	}
	if apt.StartTime.IsZero() || apt.EndTime.IsZero() {
		return nil, types.NewValidationError("MISSING_SLOT", "start and end time are required", nil)
	}
	if !apt.EndTime.After(apt.StartTime) {
		return nil, types.NewValidationError("BAD_SLOT", "end time must be after start time", nil)
	}
	if apt.StartTime.Before(time.Now()) {
		return nil, types.NewValidationError("PAST_SLOT", "appointment must be in the future", nil)
	}

	if err := s.checkDoctorVerified(ctx, apt.DoctorID); err != nil {
		return nil, err
	}

	slot := &types.TimeSlot{StartTime: apt.StartTime, EndTime: apt.EndTime}
	conflicts, err := s.appointments.GetConflictingAppointments(ctx, apt.DoctorID, slot)
	if err != nil {
		return nil, fmt.Errorf("conflict check failed: %w", err)
	}
	if len(conflicts) > 0 {
		return nil, types.NewConflictError("SLOT_TAKEN", "doctor already has an appointment in this slot")
	}

	apt.ID = uuid.New().String()
	apt.Status = types.StatusScheduled
	apt.CreatedAt = time.Now()
	apt.UpdatedAt = time.Now()

	if err := s.appointments.CreateAppointment(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to book appointment: %w", err)
	}

	s.sendConfirmation(ctx, apt)
	return apt, nil
}

// checkDoctorVerified gates booking on an approved credential review
func (s *Service) checkDoctorVerified(ctx context.Context, doctorID string) error {
	if s.verifications == nil {
		return nil
	}

	v, err := s.verifications.GetVerificationByDoctorID(ctx, doctorID)
	if err != nil {
		var medErr *types.MedAidError
		if errors.As(err, &medErr) && medErr.Type == types.ErrorTypeNotFound {
			return types.NewValidationError("DOCTOR_NOT_VERIFIED", "doctor has not submitted credentials", nil)
		}
		return fmt.Errorf("verification lookup failed: %w", err)
	}

	if v.Status != types.VerificationApproved {
		return types.NewValidationError("DOCTOR_NOT_VERIFIED",
			fmt.Sprintf("doctor verification status is %s", v.Status), nil)
	}

	return nil
}

// sendConfirmation delivers a booking confirmation on the first channel the
// patient has linked. Delivery failures never fail the booking.
func (s *Service) sendConfirmation(ctx context.Context, apt *types.Appointment) {
	if s.profiles == nil || len(s.notifiers) == 0 {
		return
	}

	profile, err := s.profiles.GetProfile(ctx, apt.PatientID)
	if err != nil {
		s.logger.WithError(err).Warnf("Skipping confirmation for appointment %s", apt.ID)
		return
	}

	message := fmt.Sprintf("Appointment confirmed for %s", apt.StartTime.Format("Mon, 02 Jan 2006 at 15:04"))

	for _, channel := range confirmationChannels {
		notifier, ok := s.notifiers[channel]
		if !ok {
			continue
		}
		recipient := recipientFor(profile, channel)
		if recipient == "" {
			continue
		}

		if err := notifier.Send(ctx, recipient, message); err != nil {
			s.logger.WithError(err).Warnf("Confirmation delivery failed for appointment %s", apt.ID)
		}
		return
	}
}

// recipientFor picks the delivery handle for a channel from the profile
func recipientFor(profile *types.Profile, channel types.ReminderChannel) string {
	switch channel {
	case types.ChannelTelegram:
		return profile.TelegramChatID
	case types.ChannelWhatsApp:
		return profile.WhatsAppNumber
	case types.ChannelPush:
		return profile.PushEndpoint
	default:
		return ""
	}
}

// GetAppointment retrieves one appointment
func (s *Service) GetAppointment(ctx context.Context, id string) (*types.Appointment, error) {
	return s.appointments.GetAppointmentByID(ctx, id)
}

// ListAppointments retrieves appointments matching the filters
func (s *Service) ListAppointments(ctx context.Context, filters *types.AppointmentFilters) ([]*types.Appointment, error) {
	return s.appointments.GetAppointments(ctx, filters)
}

// CancelAppointment cancels one scheduled appointment. Only the booking
// patient or the booked doctor may cancel.
func (s *Service) CancelAppointment(ctx context.Context, id, requestorID string) error {
	apt, err := s.appointments.GetAppointmentByID(ctx, id)
	if err != nil {
		return err
	}

	if requestorID != apt.PatientID && requestorID != apt.DoctorID {
		return types.NewValidationError("NOT_PARTICIPANT", "only the patient or doctor may cancel", nil)
	}
	if apt.Status != types.StatusScheduled {
		return types.NewConflictError("NOT_CANCELLABLE",
			fmt.Sprintf("appointment is already %s", apt.Status))
	}

	return s.appointments.UpdateAppointmentStatus(ctx, id, types.StatusCancelled)
}

// CompleteAppointment marks one scheduled appointment as completed or no-show
func (s *Service) CompleteAppointment(ctx context.Context, id string, status types.AppointmentStatus) error {
	if status != types.StatusCompleted && status != types.StatusNoShow {
		return types.NewValidationError("BAD_STATUS", "status must be completed or no_show", nil)
	}

	apt, err := s.appointments.GetAppointmentByID(ctx, id)
	if err != nil {
		return err
	}
	if apt.Status != types.StatusScheduled {
		return types.NewConflictError("BAD_TRANSITION",
			fmt.Sprintf("cannot move a %s appointment to %s", apt.Status, status))
	}

	return s.appointments.UpdateAppointmentStatus(ctx, id, status)
}

// Start starts the appointment service HTTP server
func (s *Service) Start(addr string) error {
	router := mux.NewRouter()
	s.setupRoutes(router)

	var handler http.Handler = router
	if s.config.Monitoring.Enabled {
		handler = monitoring.Middleware("appointment", router)
	}

	s.server = &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	s.logger.Infof("Starting Appointment Service on %s", addr)
	return s.server.ListenAndServe()
}

// Stop stops the appointment service
func (s *Service) Stop() error {
	if s.server != nil {
		s.logger.Info("Stopping Appointment Service")
		return s.server.Close()
	}
	return nil
}
