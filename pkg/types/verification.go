package types

import "time"

// VerificationStatus represents the review state of a doctor's credentials
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// DoctorVerification is one doctor's credential submission and its review state.
// Re-submission after a rejection resets the status to pending.
type DoctorVerification struct {
	ID             string             `json:"id"`
	DoctorID       string             `json:"doctor_id"`
	RegistrationNo string             `json:"registration_no"`
	Council        string             `json:"council,omitempty"`
	Specialty      string             `json:"specialty,omitempty"`
	DocumentURL    string             `json:"document_url,omitempty"`
	Status         VerificationStatus `json:"status"`
	ReviewerNote   string             `json:"reviewer_note,omitempty"`
	SubmittedAt    time.Time          `json:"submitted_at"`
	ReviewedAt     *time.Time         `json:"reviewed_at,omitempty"`
}
