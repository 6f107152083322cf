package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/psyscribe/psyscribe/internal/config"
	"github.com/psyscribe/psyscribe/internal/domain"
	"github.com/psyscribe/psyscribe/internal/domain/checklist"
	"github.com/psyscribe/psyscribe/internal/domain/note"
	"github.com/psyscribe/psyscribe/internal/domain/patient"
	"github.com/psyscribe/psyscribe/internal/domain/settings"
)

func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		PrepareStmt:                              true,
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: false,
		DisableAutomaticPing:                     false,
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: false,
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	schemas := []string{"clinical", "auth", "audit"} // logical namespaces
	for _, schema := range schemas {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error; err != nil {
			return fmt.Errorf("creating schema %s: %w", schema, err)
		}
	}

	models := []any{
		&domain.User{},
		&domain.AuditLog{},
		&patient.Patient{},
		&note.Note{},
		&note.Addendum{},
		&settings.AppSettings{},
		&checklist.Item{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	createIndexes(db, log)

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

// createIndexes is best-effort: a missing pg_trgm extension or insufficient
// privileges degrade search performance, not correctness.
func createIndexes(db *gorm.DB, log *zap.Logger) {
	indexes := []struct {
		name  string
		query string
	}{
		// Note timeline per patient, drafts surfaced first in the UI
		{
			name:  "idx_notes_patient_visit",
			query: `CREATE INDEX IF NOT EXISTS idx_notes_patient_visit ON clinical.notes (patient_id, visit_date DESC) WHERE deleted_at IS NULL`,
		},
		{
			name:  "idx_notes_clinician_status",
			query: `CREATE INDEX IF NOT EXISTS idx_notes_clinician_status ON clinical.notes (clinician_id, status) WHERE deleted_at IS NULL`,
		},
		// Patient search: GIN index for fuzzy search on name fields
		{
			name:  "idx_patients_name_search",
			query: `CREATE INDEX IF NOT EXISTS idx_patients_name_trgm ON clinical.patients USING gin ((first_name || ' ' || last_name) gin_trgm_ops) WHERE deleted_at IS NULL`,
		},
		{
			name:  "idx_checklist_pending",
			query: `CREATE INDEX IF NOT EXISTS idx_checklist_pending ON clinical.checklist_items (patient_id) WHERE points = 0`,
		},
	}

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS pg_trgm").Error; err != nil {
		log.Warn("pg_trgm extension unavailable, name search will fall back to sequential scans", zap.Error(err))
	}

	for _, idx := range indexes {
		if err := db.Exec(idx.query).Error; err != nil {
			log.Warn("failed to create index", zap.String("index", idx.name), zap.Error(err))
		}
	}
}
