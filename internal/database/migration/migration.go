package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_patients",
		SQL: `CREATE TABLE IF NOT EXISTS patients (
  id            UUID             PRIMARY KEY DEFAULT uuid_generate_v4(),
  record_number TEXT             NOT NULL UNIQUE,
  name          TEXT             NOT NULL,
  age           INT              NOT NULL CHECK (age >= 0 AND age <= 120),
  height_cm     DOUBLE PRECISION NOT NULL CHECK (height_cm >= 0 AND height_cm <= 300),
  weight_kg     DOUBLE PRECISION NOT NULL CHECK (weight_kg >= 0 AND weight_kg <= 500),
  lab_results   JSONB            NOT NULL DEFAULT '{}'::jsonb,
  doctors_notes TEXT             NOT NULL DEFAULT '',
  severity      TEXT             NOT NULL CHECK (severity IN ('low', 'medium', 'high')),
  created_at    TIMESTAMPTZ      NOT NULL DEFAULT now(),
  updated_at    TIMESTAMPTZ      NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_patients_name",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_patients_name ON patients (name);`,
	},
	{
		Name: "create_index_patients_severity",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_patients_severity ON patients (severity);`,
	},
	{
		Name: "create_index_patients_age",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_patients_age ON patients (age);`,
	},
	{
		Name: "create_table_assessments",
		SQL: `CREATE TABLE IF NOT EXISTS assessments (
  id                 UUID             PRIMARY KEY DEFAULT uuid_generate_v4(),
  patient_id         UUID             NOT NULL REFERENCES patients (id) ON DELETE CASCADE,
  type               TEXT             NOT NULL CHECK (type IN ('finger_tapping', 'palm_open', 'stand_sit')),
  status             TEXT             NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'processing', 'completed', 'failed')),
  recorded_at        TIMESTAMPTZ      NOT NULL,
  video_path         TEXT             NOT NULL DEFAULT '',
  video_filename     TEXT             NOT NULL DEFAULT '',
  video_content_type TEXT             NOT NULL DEFAULT '',
  video_size         BIGINT           NOT NULL DEFAULT 0 CHECK (video_size >= 0),
  score              DOUBLE PRECISION,
  duration_seconds   DOUBLE PRECISION,
  rep_count          INT,
  reps_per_second    DOUBLE PRECISION,
  mean_amplitude     DOUBLE PRECISION,
  amplitude_decay    DOUBLE PRECISION,
  peak_speed         DOUBLE PRECISION,
  suggested_severity TEXT             NOT NULL DEFAULT '',
  keypoints          JSONB,
  failure_reason     TEXT             NOT NULL DEFAULT '',
  created_at         TIMESTAMPTZ      NOT NULL DEFAULT now(),
  updated_at         TIMESTAMPTZ      NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_assessments_patient_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_assessments_patient_id ON assessments (patient_id);`,
	},
	{
		Name: "create_index_assessments_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_assessments_status ON assessments (status);`,
	},
	{
		Name: "create_index_assessments_recorded_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_assessments_recorded_at ON assessments (recorded_at);`,
	},
}

// EnsureMigrated checks if the 'patients' table exists and runs the schema
// steps if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, logger zerolog.Logger, dbHost string) error {
	start := time.Now()
	log := logger.With().Str("component", "database").Str("db_host", dbHost).Logger()

	log.Info().Str("event", "db_migration_check").Msg("checking schema")

	var exists bool
	query := "SELECT to_regclass('public.patients') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error().
			Str("event", "db_migration_failed").
			Err(err).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("failed to check sentinel table")
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info().
			Str("event", "db_migration_skip").
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("schema already exists, skipping migration")
		return nil
	}

	log.Info().Str("event", "db_migration_start").Msg("applying schema")

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error().
				Str("event", "db_migration_failed").
				Str("migration_step", step.Name).
				Err(err).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
				Msg("migration step failed")
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info().
			Str("event", "db_migration_step").
			Str("migration_step", step.Name).
			Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
			Msg("step applied")
	}

	log.Info().
		Str("event", "db_migration_success").
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("schema migrated")

	return nil
}
