package verification

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medaid/platform/pkg/database"
	"github.com/medaid/platform/pkg/logger"
	"github.com/medaid/platform/pkg/types"
)

// Repository implements the doctor-verification storage port on PostgreSQL
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new verification repository
func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

const verificationColumns = `id, doctor_id, registration_no, COALESCE(council, ''), COALESCE(specialty, ''),
	COALESCE(document_url, ''), status, COALESCE(reviewer_note, ''), submitted_at, reviewed_at`

// UpsertVerification inserts a credential submission, or replaces an existing
// one for the same doctor. Re-submission resets the review state.
func (r *Repository) UpsertVerification(ctx context.Context, v *types.DoctorVerification) error {
	query := `
		INSERT INTO doctor_verifications (id, doctor_id, registration_no, council, specialty, document_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (doctor_id) DO UPDATE SET
			registration_no = EXCLUDED.registration_no,
			council = EXCLUDED.council,
			specialty = EXCLUDED.specialty,
			document_url = EXCLUDED.document_url,
			status = EXCLUDED.status,
			reviewer_note = NULL,
			submitted_at = NOW(),
			reviewed_at = NULL`

	_, err := r.db.ExecContext(ctx, query,
		v.ID,
		v.DoctorID,
		v.RegistrationNo,
		v.Council,
		v.Specialty,
		v.DocumentURL,
		v.Status,
	)

	if err != nil {
		return fmt.Errorf("failed to save verification: %w", err)
	}

	r.logger.WithField("doctor_id", v.DoctorID).Info("Saved credential submission")
	return nil
}

// GetVerificationByDoctorID retrieves one doctor's verification record
func (r *Repository) GetVerificationByDoctorID(ctx context.Context, doctorID string) (*types.DoctorVerification, error) {
	query := fmt.Sprintf(`SELECT %s FROM doctor_verifications WHERE doctor_id = $1`, verificationColumns)

	v := &types.DoctorVerification{}
	err := r.db.QueryRowContext(ctx, query, doctorID).Scan(
		&v.ID,
		&v.DoctorID,
		&v.RegistrationNo,
		&v.Council,
		&v.Specialty,
		&v.DocumentURL,
		&v.Status,
		&v.ReviewerNote,
		&v.SubmittedAt,
		&v.ReviewedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError("VERIFICATION_NOT_FOUND", fmt.Sprintf("no verification for doctor: %s", doctorID))
		}
		return nil, fmt.Errorf("failed to get verification: %w", err)
	}

	return v, nil
}

// GetVerificationsByStatus retrieves all verifications in one review state,
// oldest submission first
func (r *Repository) GetVerificationsByStatus(ctx context.Context, status types.VerificationStatus) ([]*types.DoctorVerification, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM doctor_verifications
		WHERE status = $1
		ORDER BY submitted_at`, verificationColumns)

	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query verifications: %w", err)
	}
	defer rows.Close()

	var verifications []*types.DoctorVerification
	for rows.Next() {
		v := &types.DoctorVerification{}
		if err := rows.Scan(
			&v.ID,
			&v.DoctorID,
			&v.RegistrationNo,
			&v.Council,
			&v.Specialty,
			&v.DocumentURL,
			&v.Status,
			&v.ReviewerNote,
			&v.SubmittedAt,
			&v.ReviewedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan verification: %w", err)
		}
		verifications = append(verifications, v)
	}

	return verifications, rows.Err()
}

// SetVerificationStatus records a review decision for one doctor
func (r *Repository) SetVerificationStatus(ctx context.Context, doctorID string, status types.VerificationStatus, note string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE doctor_verifications
		SET status = $1, reviewer_note = $2, reviewed_at = NOW()
		WHERE doctor_id = $3`, status, note, doctorID)
	if err != nil {
		return fmt.Errorf("failed to set verification status: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return types.NewNotFoundError("VERIFICATION_NOT_FOUND", fmt.Sprintf("no verification for doctor: %s", doctorID))
	}

	return nil
}
