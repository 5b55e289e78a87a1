package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medaid/platform/pkg/database"
	"github.com/medaid/platform/pkg/logger"
	"github.com/medaid/platform/pkg/types"
)

func setupTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewRepository(&database.DB{DB: db}, logger.New("error"))

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func TestRepository_CreateAppointment(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	apt := &types.Appointment{
		ID:        uuid.New().String(),
		PatientID: "patient-1",
		DoctorID:  "doc-1",
		StartTime: time.Now().Add(24 * time.Hour),
		EndTime:   time.Now().Add(25 * time.Hour),
		Reason:    "checkup",
		Status:    types.StatusScheduled,
	}

	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(apt.ID, apt.PatientID, apt.DoctorID, apt.StartTime, apt.EndTime, apt.Reason, apt.Status).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreateAppointment(context.Background(), apt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetAppointmentByID_NotFound(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id = \\$1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetAppointmentByID(context.Background(), "missing")
	require.Error(t, err)

	var medErr *types.MedAidError
	require.ErrorAs(t, err, &medErr)
	assert.Equal(t, types.ErrorTypeNotFound, medErr.Type)
}

func TestRepository_GetConflictingAppointments(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	now := time.Now()
	slot := &types.TimeSlot{
		StartTime: now.Add(24 * time.Hour),
		EndTime:   now.Add(25 * time.Hour),
	}

	rows := sqlmock.NewRows([]string{
		"id", "patient_id", "doctor_id", "start_time", "end_time", "reason", "status", "created_at", "updated_at",
	}).AddRow("apt-1", "patient-2", "doc-1", slot.StartTime, slot.EndTime, "", "scheduled", now, now)

	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs("doc-1", slot.StartTime, slot.EndTime).
		WillReturnRows(rows)

	conflicts, err := repo.GetConflictingAppointments(context.Background(), "doc-1", slot)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "apt-1", conflicts[0].ID)
}

func TestRepository_GetAppointments_Filters(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "patient_id", "doctor_id", "start_time", "end_time", "reason", "status", "created_at", "updated_at",
	}).AddRow("apt-1", "patient-1", "doc-1", now, now.Add(time.Hour), "checkup", "scheduled", now, now)

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE patient_id = \\$1 AND status = \\$2").
		WithArgs("patient-1", types.StatusScheduled).
		WillReturnRows(rows)

	appointments, err := repo.GetAppointments(context.Background(), &types.AppointmentFilters{
		PatientID: "patient-1",
		Status:    types.StatusScheduled,
	})
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	assert.Equal(t, "checkup", appointments[0].Reason)
}

func TestRepository_UpdateAppointmentStatus_NotFound(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	mock.ExpectExec("UPDATE appointments SET status = \\$1").
		WithArgs(types.StatusCancelled, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateAppointmentStatus(context.Background(), "missing", types.StatusCancelled)
	require.Error(t, err)

	var medErr *types.MedAidError
	require.ErrorAs(t, err, &medErr)
	assert.Equal(t, types.ErrorTypeNotFound, medErr.Type)
}
