package db

import (
	"fmt"

	"gorm.io/gorm"
)

// recordColumns is the shared shape of every remote record table. Dates are
// TEXT in YYYY-MM-DD form and readings a JSONB object of string values, so
// rows survive heterogeneous storage targets without type coercion.
const recordColumns = `
		id                BIGSERIAL PRIMARY KEY,
		submission_id     TEXT NOT NULL,
		vehicle_number    TEXT NOT NULL,
		normalized_number TEXT NOT NULL,
		vehicle_category  TEXT NOT NULL,
		fuel_type         TEXT NOT NULL,
		emission_standard TEXT,
		owner_name        TEXT,
		contact_number    TEXT,
		test_date         TEXT NOT NULL,
		validity_date     TEXT NOT NULL,
		readings          JSONB,
		test_result       TEXT NOT NULL,
		issued_by         TEXT NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now()`

func recordTableStatements(table string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (%s);`, table, recordColumns),
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS ux_%s_submission ON %s(submission_id);`, table, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_vehicle ON %s(normalized_number);`, table, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_validity ON %s(validity_date);`, table, table),
	}
}

var extraStatements = []string{
	`CREATE TABLE IF NOT EXISTS notifications (
		id          BIGSERIAL PRIMARY KEY,
		title       TEXT NOT NULL,
		message     TEXT NOT NULL,
		type        TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
}

// RunMigrations ensures every record table of the cascade plus the
// notifications table. The unique submission index is what makes a retried
// commit idempotent per target.
func RunMigrations(db *gorm.DB, recordTables []string) error {
	var statements []string
	for _, table := range recordTables {
		statements = append(statements, recordTableStatements(table)...)
	}
	statements = append(statements, extraStatements...)

	for i, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
