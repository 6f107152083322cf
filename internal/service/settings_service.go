package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/psyscribe/psyscribe/internal/config"
	"github.com/psyscribe/psyscribe/internal/domain/settings"
)

type SettingsService struct {
	repo     settings.Repository
	aiCfg    config.AIConfig
	auditSvc *AuditService
	log      *zap.Logger
}

func NewSettingsService(repo settings.Repository, aiCfg config.AIConfig, auditSvc *AuditService, log *zap.Logger) *SettingsService {
	return &SettingsService{repo: repo, aiCfg: aiCfg, auditSvc: auditSvc, log: log}
}

// GetSettings returns the clinician's stored settings, or defaults built
// from the service configuration when none exist.
func (s *SettingsService) GetSettings(ctx context.Context, clinicianID uuid.UUID) (*settings.AppSettings, error) {
	stored, err := s.repo.GetByClinicianID(ctx, clinicianID)
	if errors.Is(err, settings.ErrSettingsNotFound) {
		return settings.Defaults(clinicianID, s.aiCfg.Model, s.aiCfg.Temperature, s.aiCfg.MaxTokens), nil
	}
	if err != nil {
		s.log.Error("failed to load settings, falling back to defaults",
			zap.String("clinician_id", clinicianID.String()),
			zap.Error(err),
		)
		return settings.Defaults(clinicianID, s.aiCfg.Model, s.aiCfg.Temperature, s.aiCfg.MaxTokens), nil
	}
	return stored, nil
}

func (s *SettingsService) UpdateSettings(ctx context.Context, clinicianID uuid.UUID, cmd *settings.UpdateSettingsCommand, ip string) (*settings.AppSettings, error) {
	if err := validateSettingsCommand(cmd); err != nil {
		return nil, err
	}

	current, err := s.GetSettings(ctx, clinicianID)
	if err != nil {
		return nil, err
	}

	if cmd.Model != nil {
		current.Model = *cmd.Model
	}
	if cmd.Temperature != nil {
		current.Temperature = *cmd.Temperature
	}
	if cmd.MaxTokens != nil {
		current.MaxTokens = *cmd.MaxTokens
	}
	if cmd.AutoGenerate != nil {
		current.AutoGenerate = *cmd.AutoGenerate
	}
	if cmd.ChecklistEnabled != nil {
		current.ChecklistEnabled = *cmd.ChecklistEnabled
	}
	if cmd.ClearThreshold {
		current.ConfidenceThreshold = nil
	} else if cmd.ConfidenceThreshold != nil {
		current.ConfidenceThreshold = cmd.ConfidenceThreshold
	}

	if err := s.repo.Upsert(ctx, current); err != nil {
		s.log.Error("failed to persist settings", zap.Error(err))
		return nil, fmt.Errorf("saving settings: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       clinicianID,
		UserRole:     "clinician",
		Action:       "update",
		ResourceType: "app_settings",
		ResourceID:   clinicianID.String(),
		IPAddress:    ip,
	})

	return current, nil
}

func validateSettingsCommand(cmd *settings.UpdateSettingsCommand) error {
	if cmd.Temperature != nil && (*cmd.Temperature < 0 || *cmd.Temperature > 2) {
		return settings.ErrInvalidTemperature
	}
	if cmd.MaxTokens != nil && (*cmd.MaxTokens < 1 || *cmd.MaxTokens > 32768) {
		return settings.ErrInvalidMaxTokens
	}
	if cmd.ConfidenceThreshold != nil && (*cmd.ConfidenceThreshold < 0 || *cmd.ConfidenceThreshold > 1) {
		return settings.ErrInvalidThreshold
	}
	return nil
}
