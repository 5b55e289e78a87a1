package types

import "time"

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
)

// Appointment represents a booking between a patient and a verified doctor
type Appointment struct {
	ID        string            `json:"id"`
	PatientID string            `json:"patient_id"`
	DoctorID  string            `json:"doctor_id"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time"`
	Reason    string            `json:"reason,omitempty"`
	Status    AppointmentStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// TimeSlot represents a time range used for conflict checks
type TimeSlot struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// AppointmentFilters holds filter criteria for appointment listing
type AppointmentFilters struct {
	PatientID string
	DoctorID  string
	Status    AppointmentStatus
	FromDate  time.Time
	ToDate    time.Time
	Limit     int
	Offset    int
}
