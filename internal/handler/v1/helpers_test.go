package v1

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/psyscribe/psyscribe/internal/domain/checklist"
	"github.com/psyscribe/psyscribe/internal/domain/note"
	"github.com/psyscribe/psyscribe/internal/domain/patient"
	"github.com/psyscribe/psyscribe/internal/llm"
	"github.com/psyscribe/psyscribe/internal/service"
	"github.com/psyscribe/psyscribe/internal/transcription"
)

func TestRespondServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"patient not found", patient.ErrPatientNotFound, http.StatusNotFound},
		{"note not found", note.ErrNoteNotFound, http.StatusNotFound},
		{"duplicate mrn", patient.ErrPatientAlreadyExists, http.StatusConflict},
		{"note finalized", note.ErrNoteFinalized, http.StatusConflict},
		{"checklist disabled", service.ErrChecklistDisabled, http.StatusConflict},
		{"discharged patient", patient.ErrPatientDischarged, http.StatusBadRequest},
		{"missing mrn", patient.ErrMRNRequired, http.StatusBadRequest},
		{"future date of birth", patient.ErrInvalidDateOfBirth, http.StatusBadRequest},
		{"empty transcript", note.ErrEmptyTranscript, http.StatusBadRequest},
		{"unknown checklist item", checklist.ErrUnknownItemID, http.StatusBadRequest},
		{"unsupported audio", transcription.ErrUnsupportedFormat, http.StatusBadRequest},
		{"oversized upload", transcription.ErrUploadTooLarge, http.StatusRequestEntityTooLarge},
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"bad credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"locked account", service.ErrAccountLocked, http.StatusTooManyRequests},
		{"completion api down", llm.ErrUnavailable, http.StatusServiceUnavailable},
		{"transcription down", transcription.ErrUnavailable, http.StatusServiceUnavailable},
		{"wrapped sentinel", fmt.Errorf("loading note: %w", note.ErrNoteNotFound), http.StatusNotFound},
		{"same text, different error", errors.New(patient.ErrPatientNotFound.Error()), http.StatusInternalServerError},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)

			respondServiceError(c, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRespondServiceErrorValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	respondServiceError(c, &service.ValidationError{Fields: []string{"first_name is required"}})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "first_name is required") {
		t.Errorf("body missing field detail: %s", body)
	}
}
