package db

import (
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/opencare/care-scheduler/internal/config"
	"github.com/opencare/care-scheduler/internal/models"
)

func NewDB(cfg *config.Config) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		PrepareStmt: true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get sql.DB")
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Patient{},
		&models.Facility{},
		&models.Appointment{},
		&models.NotificationReceipt{},
		&models.AuditEntry{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate")
	}

	ensureOverlapConstraints(db)

	return db
}

// ensureOverlapConstraints installs exclusion constraints as the
// database-level backstop for the three calendar axes. The application
// serializes check-then-write with its own locks; these catch anything
// that slips past (e.g. rows written by another tool).
func ensureOverlapConstraints(db *gorm.DB) {
	db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`)

	constraints := map[string]string{
		"appointments_provider_no_overlap": "provider_id",
		"appointments_patient_no_overlap":  "patient_id",
		"appointments_facility_no_overlap": "facility_id",
	}

	for name, column := range constraints {
		db.Exec(`
            DO $$ BEGIN
                IF NOT EXISTS (
                    SELECT 1 FROM pg_constraint WHERE conname = '` + name + `'
                ) THEN
                    ALTER TABLE appointments
                        ADD CONSTRAINT ` + name + `
                        EXCLUDE USING gist (
                            ` + column + ` WITH =,
                            tstzrange(start_time, end_time) WITH &&
                        )
                        WHERE (status IN ('scheduled', 'no_show'));
                END IF;
            END $$;
        `)
	}
}
