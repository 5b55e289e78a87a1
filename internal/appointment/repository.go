package appointment

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/medaid/platform/pkg/database"
	"github.com/medaid/platform/pkg/logger"
	"github.com/medaid/platform/pkg/types"
)

// Repository implements the appointment storage port on PostgreSQL
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new appointment repository
func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

const appointmentColumns = `id, patient_id, doctor_id, start_time, end_time, COALESCE(reason, ''), status, created_at, updated_at`

// CreateAppointment inserts a new appointment
func (r *Repository) CreateAppointment(ctx context.Context, apt *types.Appointment) error {
	query := `
		INSERT INTO appointments (id, patient_id, doctor_id, start_time, end_time, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		apt.ID,
		apt.PatientID,
		apt.DoctorID,
		apt.StartTime,
		apt.EndTime,
		apt.Reason,
		apt.Status,
	)

	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	r.logger.WithPatientID(apt.PatientID).Infof("Created appointment %s with doctor %s", apt.ID, apt.DoctorID)
	return nil
}

// GetAppointmentByID retrieves one appointment by ID
func (r *Repository) GetAppointmentByID(ctx context.Context, id string) (*types.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE id = $1`, appointmentColumns)

	apt := &types.Appointment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&apt.ID,
		&apt.PatientID,
		&apt.DoctorID,
		&apt.StartTime,
		&apt.EndTime,
		&apt.Reason,
		&apt.Status,
		&apt.CreatedAt,
		&apt.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError("APPOINTMENT_NOT_FOUND", fmt.Sprintf("appointment not found: %s", id))
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	return apt, nil
}

// GetAppointments retrieves appointments matching the given filters
func (r *Repository) GetAppointments(ctx context.Context, filters *types.AppointmentFilters) ([]*types.Appointment, error) {
	conditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if filters.PatientID != "" {
		conditions = append(conditions, fmt.Sprintf("patient_id = $%d", argIndex))
		args = append(args, filters.PatientID)
		argIndex++
	}

	if filters.DoctorID != "" {
		conditions = append(conditions, fmt.Sprintf("doctor_id = $%d", argIndex))
		args = append(args, filters.DoctorID)
		argIndex++
	}

	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filters.Status)
		argIndex++
	}

	if !filters.FromDate.IsZero() {
		conditions = append(conditions, fmt.Sprintf("start_time >= $%d", argIndex))
		args = append(args, filters.FromDate)
		argIndex++
	}

	if !filters.ToDate.IsZero() {
		conditions = append(conditions, fmt.Sprintf("start_time <= $%d", argIndex))
		args = append(args, filters.ToDate)
		argIndex++
	}

	query := fmt.Sprintf(`SELECT %s FROM appointments`, appointmentColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filters.Limit)
		argIndex++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filters.Offset)
	}

	return r.queryAppointments(ctx, query, args...)
}

// GetConflictingAppointments retrieves scheduled appointments for one doctor
// that overlap the given slot
func (r *Repository) GetConflictingAppointments(ctx context.Context, doctorID string, slot *types.TimeSlot) ([]*types.Appointment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM appointments
		WHERE doctor_id = $1
		  AND status = 'scheduled'
		  AND start_time < $3
		  AND end_time > $2`, appointmentColumns)

	return r.queryAppointments(ctx, query, doctorID, slot.StartTime, slot.EndTime)
}

func (r *Repository) queryAppointments(ctx context.Context, query string, args ...interface{}) ([]*types.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var appointments []*types.Appointment
	for rows.Next() {
		apt := &types.Appointment{}
		if err := rows.Scan(
			&apt.ID,
			&apt.PatientID,
			&apt.DoctorID,
			&apt.StartTime,
			&apt.EndTime,
			&apt.Reason,
			&apt.Status,
			&apt.CreatedAt,
			&apt.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, apt)
	}

	return appointments, rows.Err()
}

// UpdateAppointmentStatus moves one appointment to a new lifecycle state
func (r *Repository) UpdateAppointmentStatus(ctx context.Context, id string, status types.AppointmentStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE appointments SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return types.NewNotFoundError("APPOINTMENT_NOT_FOUND", fmt.Sprintf("appointment not found: %s", id))
	}

	return nil
}
