package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/psyscribe/psyscribe/internal/domain/settings"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) GetByClinicianID(ctx context.Context, clinicianID uuid.UUID) (*settings.AppSettings, error) {
	var s settings.AppSettings
	err := r.db.WithContext(ctx).
		Where("clinician_id = ?", clinicianID).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, settings.ErrSettingsNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, s *settings.AppSettings) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "clinician_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"model", "temperature", "max_tokens",
				"auto_generate", "checklist_enabled", "confidence_threshold",
				"updated_at",
			}),
		}).
		Create(s).Error
}
