package database

import (
	"context"
	"fmt"
)

// CreateSchema creates the database schema for the Med-Aid services
func (db *DB) CreateSchema(ctx context.Context) error {
	db.logger.Info("Creating database schema...")

	if _, err := db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`); err != nil {
		return fmt.Errorf("failed to create extensions: %w", err)
	}

	tables := []string{
		createProfilesTable,
		createMedicinesTable,
		createRemindersTable,
		createAppointmentsTable,
		createVerificationsTable,
	}

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		createMedicinesIndexes,
		createRemindersIndexes,
		createAppointmentsIndexes,
		createVerificationsIndexes,
	}

	for _, index := range indexes {
		if _, err := db.ExecContext(ctx, index); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}

	db.logger.Info("Database schema created successfully")
	return nil
}

const createProfilesTable = `
CREATE TABLE IF NOT EXISTS profiles (
	id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	user_id VARCHAR(64) UNIQUE NOT NULL,
	display_name VARCHAR(255) NOT NULL,
	phone VARCHAR(32),
	pin_code VARCHAR(16),
	telegram_chat_id VARCHAR(64),
	whatsapp_number VARCHAR(32),
	push_endpoint TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createMedicinesTable = `
CREATE TABLE IF NOT EXISTS medicines (
	id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	user_id VARCHAR(64) NOT NULL,
	name VARCHAR(255) NOT NULL,
	dosage VARCHAR(128),
	pack_size VARCHAR(64),
	times_per_day INT NOT NULL DEFAULT 1,
	start_date DATE,
	end_date DATE,
	source VARCHAR(32) NOT NULL DEFAULT 'manual',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createRemindersTable = `
CREATE TABLE IF NOT EXISTS reminders (
	id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	medicine_id UUID NOT NULL REFERENCES medicines(id) ON DELETE CASCADE,
	user_id VARCHAR(64) NOT NULL,
	remind_at TIME NOT NULL,
	channel VARCHAR(16) NOT NULL,
	enabled BOOLEAN NOT NULL DEFAULT TRUE,
	last_sent_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createAppointmentsTable = `
CREATE TABLE IF NOT EXISTS appointments (
	id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	patient_id VARCHAR(64) NOT NULL,
	doctor_id VARCHAR(64) NOT NULL,
	start_time TIMESTAMPTZ NOT NULL,
	end_time TIMESTAMPTZ NOT NULL,
	reason TEXT,
	status VARCHAR(32) NOT NULL DEFAULT 'scheduled',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createVerificationsTable = `
CREATE TABLE IF NOT EXISTS doctor_verifications (
	id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	doctor_id VARCHAR(64) UNIQUE NOT NULL,
	registration_no VARCHAR(128) NOT NULL,
	council VARCHAR(255),
	specialty VARCHAR(128),
	document_url TEXT,
	status VARCHAR(16) NOT NULL DEFAULT 'pending',
	reviewer_note TEXT,
	submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	reviewed_at TIMESTAMPTZ
);`

const createMedicinesIndexes = `
CREATE INDEX IF NOT EXISTS idx_medicines_user_id ON medicines(user_id);`

const createRemindersIndexes = `
CREATE INDEX IF NOT EXISTS idx_reminders_user_id ON reminders(user_id);
CREATE INDEX IF NOT EXISTS idx_reminders_medicine_id ON reminders(medicine_id);`

const createAppointmentsIndexes = `
CREATE INDEX IF NOT EXISTS idx_appointments_patient_id ON appointments(patient_id);
CREATE INDEX IF NOT EXISTS idx_appointments_doctor_id ON appointments(doctor_id);
CREATE INDEX IF NOT EXISTS idx_appointments_start_time ON appointments(start_time);`

const createVerificationsIndexes = `
CREATE INDEX IF NOT EXISTS idx_verifications_status ON doctor_verifications(status);`
