package interfaces

import (
	"context"

	"github.com/medaid/platform/pkg/types"
)

// ProfileStore is the storage port for patient profiles
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*types.Profile, error)
	SaveProfile(ctx context.Context, profile *types.Profile) error
}

// MedicineStore is the storage port for the medication tracker
type MedicineStore interface {
	InsertMedicine(ctx context.Context, med *types.Medicine) error
	GetMedicines(ctx context.Context, userID string) ([]*types.Medicine, error)
	GetMedicineByID(ctx context.Context, id string) (*types.Medicine, error)
	UpdateMedicine(ctx context.Context, id string, updates *types.MedicineUpdates) error
	DeleteMedicine(ctx context.Context, id string) error
}

// ReminderStore is the storage port for dose reminders
type ReminderStore interface {
	InsertReminder(ctx context.Context, rem *types.Reminder) error
	GetReminders(ctx context.Context, userID string) ([]*types.Reminder, error)
	GetDueReminders(ctx context.Context, hhmm string) ([]*types.Reminder, error)
	SetReminderEnabled(ctx context.Context, id string, enabled bool) error
	MarkReminderSent(ctx context.Context, id string) error
	DeleteReminder(ctx context.Context, id string) error
}

// AppointmentStore is the storage port for appointment booking
type AppointmentStore interface {
	CreateAppointment(ctx context.Context, apt *types.Appointment) error
	GetAppointmentByID(ctx context.Context, id string) (*types.Appointment, error)
	GetAppointments(ctx context.Context, filters *types.AppointmentFilters) ([]*types.Appointment, error)
	GetConflictingAppointments(ctx context.Context, doctorID string, slot *types.TimeSlot) ([]*types.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id string, status types.AppointmentStatus) error
}

// VerificationStore is the storage port for the doctor-verification workflow
type VerificationStore interface {
	UpsertVerification(ctx context.Context, v *types.DoctorVerification) error
	GetVerificationByDoctorID(ctx context.Context, doctorID string) (*types.DoctorVerification, error)
	GetVerificationsByStatus(ctx context.Context, status types.VerificationStatus) ([]*types.DoctorVerification, error)
	SetVerificationStatus(ctx context.Context, doctorID string, status types.VerificationStatus, note string) error
}
