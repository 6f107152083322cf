package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/psyscribe/psyscribe/internal/domain/settings"
	"github.com/psyscribe/psyscribe/internal/service"
)

type SettingsHandler struct {
	settingsSvc *service.SettingsService
}

func NewSettingsHandler(settingsSvc *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsSvc: settingsSvc}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	callerID, _ := caller(c)
	s, err := h.settingsSvc.GetSettings(c.Request.Context(), callerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, s)
}

type updateSettingsRequest struct {
	Model               *string  `json:"model"`
	Temperature         *float64 `json:"temperature"`
	MaxTokens           *int     `json:"max_tokens"`
	AutoGenerate        *bool    `json:"auto_generate"`
	ChecklistEnabled    *bool    `json:"checklist_enabled"`
	ConfidenceThreshold *float64 `json:"confidence_threshold"`
	ClearThreshold      bool     `json:"clear_threshold"`
}

func (h *SettingsHandler) Update(c *gin.Context) {
	var req updateSettingsRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, _ := caller(c)
	s, err := h.settingsSvc.UpdateSettings(c.Request.Context(), callerID, &settings.UpdateSettingsCommand{
		Model:               req.Model,
		Temperature:         req.Temperature,
		MaxTokens:           req.MaxTokens,
		AutoGenerate:        req.AutoGenerate,
		ChecklistEnabled:    req.ChecklistEnabled,
		ConfidenceThreshold: req.ConfidenceThreshold,
		ClearThreshold:      req.ClearThreshold,
	}, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, s)
}
