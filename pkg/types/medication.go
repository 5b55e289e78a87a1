package types

import "time"

// MedicineSource identifies how a medicine entered the tracker
type MedicineSource string

const (
	SourceManual       MedicineSource = "manual"
	SourcePrescription MedicineSource = "prescription"
)

// Medicine is one entry in a patient's medication list
type Medicine struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Name        string         `json:"name"`
	Dosage      string         `json:"dosage,omitempty"`
	PackSize    string         `json:"pack_size,omitempty"`
	TimesPerDay int            `json:"times_per_day"`
	StartDate   *time.Time     `json:"start_date,omitempty"`
	EndDate     *time.Time     `json:"end_date,omitempty"`
	Source      MedicineSource `json:"source"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// MedicineUpdates holds optional fields for a partial medicine update
type MedicineUpdates struct {
	Name        *string    `json:"name,omitempty"`
	Dosage      *string    `json:"dosage,omitempty"`
	PackSize    *string    `json:"pack_size,omitempty"`
	TimesPerDay *int       `json:"times_per_day,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

// ReminderChannel identifies the delivery channel for a dose reminder
type ReminderChannel string

const (
	ChannelPush     ReminderChannel = "push"
	ChannelTelegram ReminderChannel = "telegram"
	ChannelWhatsApp ReminderChannel = "whatsapp"
)

// Reminder schedules a recurring dose reminder for one medicine
type Reminder struct {
	ID         string          `json:"id"`
	MedicineID string          `json:"medicine_id"`
	UserID     string          `json:"user_id"`
	RemindAt   string          `json:"remind_at"` // "HH:MM", local to the patient
	Channel    ReminderChannel `json:"channel"`
	Enabled    bool            `json:"enabled"`
	LastSentAt *time.Time      `json:"last_sent_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Profile is a patient profile
type Profile struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	DisplayName    string    `json:"display_name"`
	Phone          string    `json:"phone,omitempty"`
	PinCode        string    `json:"pin_code,omitempty"`
	TelegramChatID string    `json:"telegram_chat_id,omitempty"`
	WhatsAppNumber string    `json:"whatsapp_number,omitempty"`
	PushEndpoint   string    `json:"push_endpoint,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Prescription is the parsed result of one OCR ingestion
type Prescription struct {
	DoctorName string              `json:"doctor_name,omitempty"`
	IssuedOn   string              `json:"issued_on,omitempty"`
	Medicines  []PrescriptionEntry `json:"medicines"`
}

// PrescriptionEntry is one medicine line extracted from a prescription image
type PrescriptionEntry struct {
	Name        string `json:"name"`
	Dosage      string `json:"dosage,omitempty"`
	TimesPerDay int    `json:"times_per_day,omitempty"`
	Duration    string `json:"duration,omitempty"`
}
