package settings

import (
	"time"

	"github.com/google/uuid"
)

// AppSettings is a per-clinician singleton row controlling note generation
// and checklist analysis. Absent rows resolve to Defaults().
type AppSettings struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	ClinicianID uuid.UUID `gorm:"column:clinician_id;type:uuid;not null;uniqueIndex"`

	Model       string  `gorm:"column:model;type:varchar(100);not null"`
	Temperature float64 `gorm:"column:temperature;not null"`
	MaxTokens   int     `gorm:"column:max_tokens;not null"`

	// AutoGenerate runs SOAP generation immediately after a transcript arrives.
	AutoGenerate bool `gorm:"column:auto_generate;default:true"`

	// ChecklistEnabled runs checklist analysis when a note is finalized.
	ChecklistEnabled bool `gorm:"column:checklist_enabled;default:true"`

	// ConfidenceThreshold overrides the global analysis threshold when set.
	ConfidenceThreshold *float64 `gorm:"column:confidence_threshold"`
}

func (AppSettings) TableName() string {
	return "clinical.app_settings"
}

// Defaults returns the settings applied when a clinician has no stored row.
func Defaults(clinicianID uuid.UUID, model string, temperature float64, maxTokens int) *AppSettings {
	return &AppSettings{
		ClinicianID:      clinicianID,
		Model:            model,
		Temperature:      temperature,
		MaxTokens:        maxTokens,
		AutoGenerate:     true,
		ChecklistEnabled: true,
	}
}

type UpdateSettingsCommand struct {
	Model               *string
	Temperature         *float64
	MaxTokens           *int
	AutoGenerate        *bool
	ChecklistEnabled    *bool
	ConfidenceThreshold *float64
	ClearThreshold      bool // reset ConfidenceThreshold to the global default
}
