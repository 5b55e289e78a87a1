package medication

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/medaid/platform/pkg/database"
	"github.com/medaid/platform/pkg/logger"
	"github.com/medaid/platform/pkg/types"
)

// Repository implements the profile, medicine and reminder storage ports on
// PostgreSQL
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new medication repository
func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

// GetProfile retrieves a patient profile by user ID
func (r *Repository) GetProfile(ctx context.Context, userID string) (*types.Profile, error) {
	query := `
		SELECT id, user_id, display_name, COALESCE(phone, ''), COALESCE(pin_code, ''),
		       COALESCE(telegram_chat_id, ''), COALESCE(whatsapp_number, ''),
		       COALESCE(push_endpoint, ''), created_at, updated_at
		FROM profiles
		WHERE user_id = $1`

	profile := &types.Profile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.DisplayName,
		&profile.Phone,
		&profile.PinCode,
		&profile.TelegramChatID,
		&profile.WhatsAppNumber,
		&profile.PushEndpoint,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError("PROFILE_NOT_FOUND", fmt.Sprintf("profile not found: %s", userID))
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return profile, nil
}

// SaveProfile inserts or updates a patient profile
func (r *Repository) SaveProfile(ctx context.Context, profile *types.Profile) error {
	query := `
		INSERT INTO profiles (id, user_id, display_name, phone, pin_code, telegram_chat_id, whatsapp_number, push_endpoint)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			phone = EXCLUDED.phone,
			pin_code = EXCLUDED.pin_code,
			telegram_chat_id = EXCLUDED.telegram_chat_id,
			whatsapp_number = EXCLUDED.whatsapp_number,
			push_endpoint = EXCLUDED.push_endpoint,
			updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query,
		profile.ID,
		profile.UserID,
		profile.DisplayName,
		profile.Phone,
		profile.PinCode,
		profile.TelegramChatID,
		profile.WhatsAppNumber,
		profile.PushEndpoint,
	)

	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return nil
}

// InsertMedicine inserts a new medicine into a patient's tracker
func (r *Repository) InsertMedicine(ctx context.Context, med *types.Medicine) error {
	query := `
		INSERT INTO medicines (id, user_id, name, dosage, pack_size, times_per_day, start_date, end_date, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		med.ID,
		med.UserID,
		med.Name,
		med.Dosage,
		med.PackSize,
		med.TimesPerDay,
		med.StartDate,
		med.EndDate,
		med.Source,
	)

	if err != nil {
		return fmt.Errorf("failed to insert medicine: %w", err)
	}

	r.logger.WithPatientID(med.UserID).Infof("Inserted medicine %s", med.ID)
	return nil
}

// GetMedicines retrieves all medicines for a user
func (r *Repository) GetMedicines(ctx context.Context, userID string) ([]*types.Medicine, error) {
	query := `
		SELECT id, user_id, name, COALESCE(dosage, ''), COALESCE(pack_size, ''),
		       times_per_day, start_date, end_date, source, created_at, updated_at
		FROM medicines
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get medicines: %w", err)
	}
	defer rows.Close()

	var medicines []*types.Medicine
	for rows.Next() {
		med := &types.Medicine{}
		if err := rows.Scan(
			&med.ID,
			&med.UserID,
			&med.Name,
			&med.Dosage,
			&med.PackSize,
			&med.TimesPerDay,
			&med.StartDate,
			&med.EndDate,
			&med.Source,
			&med.CreatedAt,
			&med.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan medicine: %w", err)
		}
		medicines = append(medicines, med)
	}

	return medicines, rows.Err()
}

// GetMedicineByID retrieves one medicine by ID
func (r *Repository) GetMedicineByID(ctx context.Context, id string) (*types.Medicine, error) {
	query := `
		SELECT id, user_id, name, COALESCE(dosage, ''), COALESCE(pack_size, ''),
		       times_per_day, start_date, end_date, source, created_at, updated_at
		FROM medicines
		WHERE id = $1`

	med := &types.Medicine{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&med.ID,
		&med.UserID,
		&med.Name,
		&med.Dosage,
		&med.PackSize,
		&med.TimesPerDay,
		&med.StartDate,
		&med.EndDate,
		&med.Source,
		&med.CreatedAt,
		&med.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError("MEDICINE_NOT_FOUND", fmt.Sprintf("medicine not found: %s", id))
		}
		return nil, fmt.Errorf("failed to get medicine: %w", err)
	}

	return med, nil
}

// UpdateMedicine applies a partial update to one medicine
func (r *Repository) UpdateMedicine(ctx context.Context, id string, updates *types.MedicineUpdates) error {
	setParts := []string{}
	args := []interface{}{}
	argIndex := 1

	if updates.Name != nil {
		setParts = append(setParts, fmt.Sprintf("name = $%d", argIndex))
		args = append(args, *updates.Name)
		argIndex++
	}

	if updates.Dosage != nil {
		setParts = append(setParts, fmt.Sprintf("dosage = $%d", argIndex))
		args = append(args, *updates.Dosage)
		argIndex++
	}

	if updates.PackSize != nil {
		setParts = append(setParts, fmt.Sprintf("pack_size = $%d", argIndex))
		args = append(args, *updates.PackSize)
		argIndex++
	}

	if updates.TimesPerDay != nil {
		setParts = append(setParts, fmt.Sprintf("times_per_day = $%d", argIndex))
		args = append(args, *updates.TimesPerDay)
		argIndex++
	}

	if updates.EndDate != nil {
		setParts = append(setParts, fmt.Sprintf("end_date = $%d", argIndex))
		args = append(args, *updates.EndDate)
		argIndex++
	}

	if len(setParts) == 0 {
		return types.NewValidationError("EMPTY_UPDATE", "no fields to update", nil)
	}

	setParts = append(setParts, "updated_at = NOW()")
	query := fmt.Sprintf("UPDATE medicines SET %s WHERE id = $%d", strings.Join(setParts, ", "), argIndex)
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update medicine: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return types.NewNotFoundError("MEDICINE_NOT_FOUND", fmt.Sprintf("medicine not found: %s", id))
	}

	return nil
}

// DeleteMedicine removes one medicine and cascades to its reminders
func (r *Repository) DeleteMedicine(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM medicines WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete medicine: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return types.NewNotFoundError("MEDICINE_NOT_FOUND", fmt.Sprintf("medicine not found: %s", id))
	}

	return nil
}

// InsertReminder inserts a new dose reminder
func (r *Repository) InsertReminder(ctx context.Context, rem *types.Reminder) error {
	query := `
		INSERT INTO reminders (id, medicine_id, user_id, remind_at, channel, enabled)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		rem.ID,
		rem.MedicineID,
		rem.UserID,
		rem.RemindAt,
		rem.Channel,
		rem.Enabled,
	)

	if err != nil {
		return fmt.Errorf("failed to insert reminder: %w", err)
	}

	return nil
}

// GetReminders retrieves all reminders for a user
func (r *Repository) GetReminders(ctx context.Context, userID string) ([]*types.Reminder, error) {
	query := `
		SELECT id, medicine_id, user_id, to_char(remind_at, 'HH24:MI'), channel, enabled, last_sent_at, created_at
		FROM reminders
		WHERE user_id = $1
		ORDER BY remind_at`

	return r.queryReminders(ctx, query, userID)
}

// GetDueReminders retrieves enabled reminders scheduled for the given HH:MM
// that have not already fired in the current cycle
func (r *Repository) GetDueReminders(ctx context.Context, hhmm string) ([]*types.Reminder, error) {
	query := `
		SELECT id, medicine_id, user_id, to_char(remind_at, 'HH24:MI'), channel, enabled, last_sent_at, created_at
		FROM reminders
		WHERE enabled
		  AND to_char(remind_at, 'HH24:MI') = $1
		  AND (last_sent_at IS NULL OR last_sent_at < NOW() - INTERVAL '23 hours')`

	return r.queryReminders(ctx, query, hhmm)
}

func (r *Repository) queryReminders(ctx context.Context, query string, arg interface{}) ([]*types.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*types.Reminder
	for rows.Next() {
		rem := &types.Reminder{}
		if err := rows.Scan(
			&rem.ID,
			&rem.MedicineID,
			&rem.UserID,
			&rem.RemindAt,
			&rem.Channel,
			&rem.Enabled,
			&rem.LastSentAt,
			&rem.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, rem)
	}

	return reminders, rows.Err()
}

// SetReminderEnabled toggles one reminder
func (r *Repository) SetReminderEnabled(ctx context.Context, id string, enabled bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE reminders SET enabled = $1 WHERE id = $2`, enabled, id)
	if err != nil {
		return fmt.Errorf("failed to toggle reminder: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return types.NewNotFoundError("REMINDER_NOT_FOUND", fmt.Sprintf("reminder not found: %s", id))
	}

	return nil
}

// MarkReminderSent stamps one reminder as delivered
func (r *Repository) MarkReminderSent(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE reminders SET last_sent_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}

// DeleteReminder removes one reminder
func (r *Repository) DeleteReminder(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return types.NewNotFoundError("REMINDER_NOT_FOUND", fmt.Sprintf("reminder not found: %s", id))
	}

	return nil
}
