package settings

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// GetByClinicianID returns ErrSettingsNotFound when the clinician has no row;
	// callers fall back to Defaults().
	GetByClinicianID(ctx context.Context, clinicianID uuid.UUID) (*AppSettings, error)

	// Upsert creates or replaces the clinician's settings row.
	Upsert(ctx context.Context, s *AppSettings) error
}
