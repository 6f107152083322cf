package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/psyscribe/psyscribe/internal/domain/checklist"
	"github.com/psyscribe/psyscribe/internal/domain/note"
	"github.com/psyscribe/psyscribe/internal/domain/patient"
	"github.com/psyscribe/psyscribe/internal/domain/settings"
	"github.com/psyscribe/psyscribe/internal/llm"
	"github.com/psyscribe/psyscribe/internal/service"
	"github.com/psyscribe/psyscribe/internal/transcription"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, patient.ErrPatientNotFound),
		errors.Is(err, note.ErrNoteNotFound),
		errors.Is(err, settings.ErrSettingsNotFound),
		errors.Is(err, checklist.ErrItemNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})

	case errors.Is(err, patient.ErrPatientAlreadyExists):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	case errors.Is(err, note.ErrNoteFinalized):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: err.Error(),
			Code:  "NOTE_FINALIZED",
		})

	case errors.Is(err, patient.ErrPatientDischarged),
		errors.Is(err, patient.ErrInvalidGender),
		errors.Is(err, patient.ErrInvalidDateOfBirth),
		errors.Is(err, patient.ErrMRNRequired),
		errors.Is(err, note.ErrEmptyTranscript),
		errors.Is(err, note.ErrEmptySOAP),
		errors.Is(err, note.ErrInvalidSource),
		errors.Is(err, note.ErrAddendumContentEmpty),
		errors.Is(err, settings.ErrInvalidTemperature),
		errors.Is(err, settings.ErrInvalidMaxTokens),
		errors.Is(err, settings.ErrInvalidThreshold),
		errors.Is(err, checklist.ErrUnknownItemID),
		errors.Is(err, transcription.ErrNoAudio),
		errors.Is(err, transcription.ErrUnsupportedFormat),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, llm.ErrBadResponse):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	case errors.Is(err, transcription.ErrUploadTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error()})

	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})

	case errors.Is(err, service.ErrChecklistDisabled):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: err.Error(),
			Code:  "CHECKLIST_DISABLED",
		})

	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrAccountInactive):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})

	case errors.Is(err, service.ErrAccountLocked):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error: "account temporarily locked",
			Code:  "ACCOUNT_LOCKED",
		})

	case errors.Is(err, llm.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "note generation is temporarily unavailable",
			Code:  "AI_UNAVAILABLE",
		})

	case errors.Is(err, transcription.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "transcription is temporarily unavailable",
			Code:  "TRANSCRIPTION_UNAVAILABLE",
		})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}

	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param + ": must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func parseUUIDString(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	return id, err == nil
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}
