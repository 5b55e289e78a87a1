package medication

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/medaid/platform/pkg/config"
	"github.com/medaid/platform/pkg/interfaces"
	"github.com/medaid/platform/pkg/logger"
	"github.com/medaid/platform/pkg/monitoring"
	"github.com/medaid/platform/pkg/types"
)

var remindAtPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Service implements medication tracking: the medicine list, prescription
// OCR ingestion, and dose reminders
type Service struct {
	config    *config.Config
	logger    *logger.Logger
	profiles  interfaces.ProfileStore
	medicines interfaces.MedicineStore
	reminders interfaces.ReminderStore
	ocr       interfaces.OCRClient
	notifiers map[types.ReminderChannel]interfaces.Notifier
	server    *http.Server
	stop      chan struct{}
}

// New creates a new medication service
func New(cfg *config.Config, log *logger.Logger, profiles interfaces.ProfileStore,
	medicines interfaces.MedicineStore, reminders interfaces.ReminderStore,
	ocrClient interfaces.OCRClient, notifiers []interfaces.Notifier) *Service {

	byChannel := make(map[types.ReminderChannel]interfaces.Notifier, len(notifiers))
	for _, n := range notifiers {
		byChannel[n.Channel()] = n
	}

	return &Service{
		config:    cfg,
		logger:    log,
		profiles:  profiles,
		medicines: medicines,
		reminders: reminders,
		ocr:       ocrClient,
		notifiers: byChannel,
		stop:      make(chan struct{}),
	}
}

// GetProfile retrieves one patient profile
func (s *Service) GetProfile(ctx context.Context, userID string) (*types.Profile, error) {
	return s.profiles.GetProfile(ctx, userID)
}

// SaveProfile validates and stores a patient profile
func (s *Service) SaveProfile(ctx context.Context, profile *types.Profile) error {
	if profile.UserID == "" {
		return types.NewValidationError("MISSING_USER_ID", "user ID is required", nil)
	}
	if profile.DisplayName == "" {
		return types.NewValidationError("MISSING_NAME", "display name is required", nil)
	}

	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}

	return s.profiles.SaveProfile(ctx, profile)
}

// AddMedicine validates and inserts one medicine
func (s *Service) AddMedicine(ctx context.Context, med *types.Medicine) (*types.Medicine, error) {
	if med.UserID == "" {
		return nil, types.NewValidationError("MISSING_USER_ID", "user ID is required", nil)
	}
	if med.Name == "" {
		return nil, types.NewValidationError("MISSING_NAME", "medicine name is required", nil)
	}
	if med.TimesPerDay <= 0 {
		med.TimesPerDay = 1
	}
	if med.Source == "" {
		med.Source = types.SourceManual
	}

	med.ID = uuid.New().String()
	med.CreatedAt = time.Now()
	med.UpdatedAt = time.Now()

	if err := s.medicines.InsertMedicine(ctx, med); err != nil {
		return nil, fmt.Errorf("failed to add medicine: %w", err)
	}

	s.logger.WithPatientID(med.UserID).Infof("Added medicine %s (%s)", med.Name, med.ID)
	return med, nil
}

// ListMedicines retrieves a user's medicine list
func (s *Service) ListMedicines(ctx context.Context, userID string) ([]*types.Medicine, error) {
	return s.medicines.GetMedicines(ctx, userID)
}

// UpdateMedicine applies a partial update to one medicine
func (s *Service) UpdateMedicine(ctx context.Context, id string, updates *types.MedicineUpdates) error {
	return s.medicines.UpdateMedicine(ctx, id, updates)
}

// RemoveMedicine deletes one medicine and its reminders
func (s *Service) RemoveMedicine(ctx context.Context, id string) error {
	return s.medicines.DeleteMedicine(ctx, id)
}

// IngestPrescription runs OCR over an uploaded prescription image and adds
// every extracted medicine to the user's tracker
func (s *Service) IngestPrescription(ctx context.Context, userID string, image io.Reader, mimeType string) ([]*types.Medicine, error) {
	if userID == "" {
		return nil, types.NewValidationError("MISSING_USER_ID", "user ID is required", nil)
	}

	prescription, err := s.ocr.ParsePrescription(ctx, image, mimeType)
	if err != nil {
		return nil, fmt.Errorf("prescription parsing failed: %w", err)
	}

	var added []*types.Medicine
	for _, entry := range prescription.Medicines {
		med := &types.Medicine{
			UserID:      userID,
			Name:        entry.Name,
			Dosage:      entry.Dosage,
			TimesPerDay: entry.TimesPerDay,
			Source:      types.SourcePrescription,
		}

		created, err := s.AddMedicine(ctx, med)
		if err != nil {
			s.logger.WithError(err).Warnf("Skipping prescription entry %q", entry.Name)
			continue
		}
		added = append(added, created)
	}

	if len(added) == 0 {
		return nil, types.NewInternalError("INGEST_FAILED", "no prescription entries could be added", nil)
	}

	s.logger.WithPatientID(userID).Infof("Ingested prescription with %d medicines", len(added))
	return added, nil
}

// CreateReminder validates and schedules a dose reminder
func (s *Service) CreateReminder(ctx context.Context, rem *types.Reminder) (*types.Reminder, error) {
	if rem.UserID == "" {
		return nil, types.NewValidationError("MISSING_USER_ID", "user ID is required", nil)
	}
	if !remindAtPattern.MatchString(rem.RemindAt) {
		return nil, types.NewValidationError("BAD_TIME", "remind_at must be HH:MM", nil)
	}
	if _, ok := s.notifiers[rem.Channel]; !ok {
		return nil, types.NewValidationError("BAD_CHANNEL", fmt.Sprintf("unsupported channel: %s", rem.Channel), nil)
	}

	if _, err := s.medicines.GetMedicineByID(ctx, rem.MedicineID); err != nil {
		return nil, err
	}

	rem.ID = uuid.New().String()
	rem.Enabled = true
	rem.CreatedAt = time.Now()

	if err := s.reminders.InsertReminder(ctx, rem); err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	return rem, nil
}

// ListReminders retrieves a user's reminders
func (s *Service) ListReminders(ctx context.Context, userID string) ([]*types.Reminder, error) {
	return s.reminders.GetReminders(ctx, userID)
}

// SetReminderEnabled toggles one reminder
func (s *Service) SetReminderEnabled(ctx context.Context, id string, enabled bool) error {
	return s.reminders.SetReminderEnabled(ctx, id, enabled)
}

// RemoveReminder deletes one reminder
func (s *Service) RemoveReminder(ctx context.Context, id string) error {
	return s.reminders.DeleteReminder(ctx, id)
}

// DispatchDue sends every reminder scheduled for the given HH:MM and stamps
// it as sent. Delivery failures are logged per reminder and never stop the
// sweep.
func (s *Service) DispatchDue(ctx context.Context, hhmm string) error {
	due, err := s.reminders.GetDueReminders(ctx, hhmm)
	if err != nil {
		return fmt.Errorf("failed to load due reminders: %w", err)
	}

	for _, rem := range due {
		if err := s.dispatchOne(ctx, rem); err != nil {
			s.logger.WithError(err).Warnf("Failed to dispatch reminder %s", rem.ID)
			continue
		}

		if err := s.reminders.MarkReminderSent(ctx, rem.ID); err != nil {
			s.logger.WithError(err).Warnf("Failed to mark reminder %s as sent", rem.ID)
		}
	}

	return nil
}

// dispatchOne resolves the recipient handle for the reminder's channel and
// delivers one message
func (s *Service) dispatchOne(ctx context.Context, rem *types.Reminder) error {
	notifier, ok := s.notifiers[rem.Channel]
	if !ok {
		return fmt.Errorf("no notifier for channel %s", rem.Channel)
	}

	profile, err := s.profiles.GetProfile(ctx, rem.UserID)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	recipient := recipientFor(profile, rem.Channel)
	if recipient == "" {
		return fmt.Errorf("profile %s has no %s recipient", rem.UserID, rem.Channel)
	}

	med, err := s.medicines.GetMedicineByID(ctx, rem.MedicineID)
	if err != nil {
		return fmt.Errorf("failed to load medicine: %w", err)
	}

	message := fmt.Sprintf("Time to take %s", med.Name)
	if med.Dosage != "" {
		message = fmt.Sprintf("%s (%s)", message, med.Dosage)
	}

	return notifier.Send(ctx, recipient, message)
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

// runDispatcher sweeps due reminders once a minute until Stop
func (s *Service) runDispatcher() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := s.DispatchDue(ctx, now.Format("15:04")); err != nil {
				s.logger.WithError(err).Error("Reminder sweep failed")
			}
			cancel()
		}
	}
}

// Start starts the medication service HTTP server and the reminder dispatcher
func (s *Service) Start(addr string) error {
	router := mux.NewRouter()
	s.setupRoutes(router)

	var handler http.Handler = router
	if s.config.Monitoring.Enabled {
		handler = monitoring.Middleware("medication", router)
	}

	s.server = &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go s.runDispatcher()

	s.logger.Infof("Starting Medication Service on %s", addr)
	return s.server.ListenAndServe()
}

// Stop stops the medication service
func (s *Service) Stop() error {
	close(s.stop)
	if s.server != nil {
		s.logger.Info("Stopping Medication Service")
		return s.server.Close()
	}
	return nil
}
