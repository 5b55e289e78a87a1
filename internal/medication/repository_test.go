package medication

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
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

func TestRepository_GetProfile(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "display_name", "phone", "pin_code",
		"telegram_chat_id", "whatsapp_number", "push_endpoint", "created_at", "updated_at",
	}).AddRow("prof-1", "user-1", "Asha", "9000000000", "110001", "12345", "", "", now, now)

	mock.ExpectQuery("SELECT (.+) FROM profiles WHERE user_id = \\$1").
		WithArgs("user-1").
		WillReturnRows(rows)

	profile, err := repo.GetProfile(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, "Asha", profile.DisplayName)
	assert.Equal(t, "12345", profile.TelegramChatID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetProfile_NotFound(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM profiles WHERE user_id = \\$1").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetProfile(context.Background(), "ghost")
	require.Error(t, err)

	var medErr *types.MedAidError
	require.ErrorAs(t, err, &medErr)
	assert.Equal(t, types.ErrorTypeNotFound, medErr.Type)
}

func TestRepository_SaveProfile_Upsert(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	profile := &types.Profile{
		ID:          "prof-1",
		UserID:      "user-1",
		DisplayName: "Asha",
		PinCode:     "110001",
	}

	mock.ExpectExec("INSERT INTO profiles (.+) ON CONFLICT \\(user_id\\) DO UPDATE").
		WithArgs(profile.ID, profile.UserID, profile.DisplayName, "", "110001", "", "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveProfile(context.Background(), profile)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_InsertMedicine(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	med := &types.Medicine{
		ID:          "med-1",
		UserID:      "user-1",
		Name:        "Metformin",
		Dosage:      "500mg",
		TimesPerDay: 2,
		Source:      types.SourceManual,
	}

	mock.ExpectExec("INSERT INTO medicines").
		WithArgs(med.ID, med.UserID, med.Name, med.Dosage, "", med.TimesPerDay, nil, nil, med.Source).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.InsertMedicine(context.Background(), med)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetMedicines(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "name", "dosage", "pack_size",
		"times_per_day", "start_date", "end_date", "source", "created_at", "updated_at",
	}).
		AddRow("med-1", "user-1", "Metformin", "500mg", "", 2, nil, nil, "manual", now, now).
		AddRow("med-2", "user-1", "Amoxicillin", "250mg", "strip of 10", 3, nil, nil, "prescription", now, now)

	mock.ExpectQuery("SELECT (.+) FROM medicines WHERE user_id = \\$1").
		WithArgs("user-1").
		WillReturnRows(rows)

	medicines, err := repo.GetMedicines(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, medicines, 2)

	assert.Equal(t, "Metformin", medicines[0].Name)
	assert.Equal(t, types.SourcePrescription, medicines[1].Source)
}

func TestRepository_UpdateMedicine_PartialSet(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	newDosage := "850mg"
	newTimes := 3
	updates := &types.MedicineUpdates{
		Dosage:      &newDosage,
		TimesPerDay: &newTimes,
	}

	mock.ExpectExec("UPDATE medicines SET dosage = \\$1, times_per_day = \\$2, updated_at = NOW\\(\\) WHERE id = \\$3").
		WithArgs(newDosage, newTimes, "med-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateMedicine(context.Background(), "med-1", updates)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateMedicine_EmptyUpdate(t *testing.T) {
	repo, _, cleanup := setupTestRepository(t)
	defer cleanup()

	err := repo.UpdateMedicine(context.Background(), "med-1", &types.MedicineUpdates{})
	require.Error(t, err)

	var medErr *types.MedAidError
	require.ErrorAs(t, err, &medErr)
	assert.Equal(t, types.ErrorTypeValidation, medErr.Type)
}

func TestRepository_DeleteMedicine_NotFound(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM medicines WHERE id = \\$1").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteMedicine(context.Background(), "missing")
	require.Error(t, err)

	var medErr *types.MedAidError
	require.ErrorAs(t, err, &medErr)
	assert.Equal(t, types.ErrorTypeNotFound, medErr.Type)
}

func TestRepository_GetDueReminders(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "medicine_id", "user_id", "remind_at", "channel", "enabled", "last_sent_at", "created_at",
	}).AddRow("rem-1", "med-1", "user-1", "08:30", "telegram", true, nil, now)

	mock.ExpectQuery("SELECT (.+) FROM reminders WHERE enabled").
		WithArgs("08:30").
		WillReturnRows(rows)

	due, err := repo.GetDueReminders(context.Background(), "08:30")
	require.NoError(t, err)
	require.Len(t, due, 1)

	assert.Equal(t, "rem-1", due[0].ID)
	assert.Equal(t, types.ChannelTelegram, due[0].Channel)
	assert.Nil(t, due[0].LastSentAt)
}

func TestRepository_MarkReminderSent(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	mock.ExpectExec("UPDATE reminders SET last_sent_at = NOW\\(\\) WHERE id = \\$1").
		WithArgs("rem-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkReminderSent(context.Background(), "rem-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
