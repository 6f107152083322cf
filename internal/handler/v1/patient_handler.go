package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/psyscribe/psyscribe/internal/domain/patient"
	"github.com/psyscribe/psyscribe/internal/service"
)

type PatientHandler struct {
	patientSvc   *service.PatientService
	checklistSvc *service.ChecklistService
}

func NewPatientHandler(patientSvc *service.PatientService, checklistSvc *service.ChecklistService) *PatientHandler {
	return &PatientHandler{patientSvc: patientSvc, checklistSvc: checklistSvc}
}

type createPatientRequest struct {
	FirstName           string                    `json:"first_name" binding:"required"`
	LastName            string                    `json:"last_name" binding:"required"`
	DateOfBirth         time.Time                 `json:"date_of_birth" binding:"required"`
	Gender              patient.Gender            `json:"gender" binding:"required"`
	Pronouns            string                    `json:"pronouns"`
	MRN                 string                    `json:"mrn" binding:"required"`
	Phone               string                    `json:"phone"`
	Email               string                    `json:"email"`
	Address             string                    `json:"address"`
	City                string                    `json:"city"`
	State               string                    `json:"state"`
	ZipCode             string                    `json:"zip_code"`
	EmergencyContact    *patient.EmergencyContact `json:"emergency_contact"`
	PrimaryDiagnosis    string                    `json:"primary_diagnosis"`
	Medications         []string                  `json:"medications"`
	Allergies           []string                  `json:"allergies"`
	SuicidalityWatch    bool                      `json:"suicidality_watch"`
	TherapyModality     string                    `json:"therapy_modality"`
	IntakeNotes         string                    `json:"intake_notes"`
	AssignedClinicianID uuid.UUID                 `json:"assigned_clinician_id"`
}

func (h *PatientHandler) Create(c *gin.Context) {
	var req createPatientRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, callerRole := caller(c)

	// Clinicians register patients onto their own panel unless they say otherwise.
	if req.AssignedClinicianID == uuid.Nil {
		req.AssignedClinicianID = callerID
	}

	p, err := h.patientSvc.CreatePatient(c.Request.Context(), &patient.CreatePatientCommand{
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		DateOfBirth:         req.DateOfBirth,
		Gender:              req.Gender,
		Pronouns:            req.Pronouns,
		MRN:                 req.MRN,
		Phone:               req.Phone,
		Email:               req.Email,
		Address:             req.Address,
		City:                req.City,
		State:               req.State,
		ZipCode:             req.ZipCode,
		EmergencyContact:    req.EmergencyContact,
		PrimaryDiagnosis:    req.PrimaryDiagnosis,
		Medications:         req.Medications,
		Allergies:           req.Allergies,
		SuicidalityWatch:    req.SuicidalityWatch,
		TherapyModality:     req.TherapyModality,
		IntakeNotes:         req.IntakeNotes,
		AssignedClinicianID: req.AssignedClinicianID,
		CreatedBy:           callerID,
	}, callerID, callerRole, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, p)
}

func (h *PatientHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	callerID, callerRole := caller(c)
	p, err := h.patientSvc.GetPatient(c.Request.Context(), id, callerID, callerRole, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, p)
}

type updatePatientRequest struct {
	FirstName           *string                   `json:"first_name"`
	LastName            *string                   `json:"last_name"`
	Gender              *patient.Gender           `json:"gender"`
	Pronouns            *string                   `json:"pronouns"`
	Phone               *string                   `json:"phone"`
	Email               *string                   `json:"email"`
	Address             *string                   `json:"address"`
	City                *string                   `json:"city"`
	State               *string                   `json:"state"`
	ZipCode             *string                   `json:"zip_code"`
	EmergencyContact    *patient.EmergencyContact `json:"emergency_contact"`
	PrimaryDiagnosis    *string                   `json:"primary_diagnosis"`
	Medications         *[]string                 `json:"medications"`
	Allergies           *[]string                 `json:"allergies"`
	SuicidalityWatch    *bool                     `json:"suicidality_watch"`
	TherapyModality     *string                   `json:"therapy_modality"`
	IntakeNotes         *string                   `json:"intake_notes"`
	AssignedClinicianID *uuid.UUID                `json:"assigned_clinician_id"`
}

func (h *PatientHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updatePatientRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, callerRole := caller(c)
	p, err := h.patientSvc.UpdatePatient(c.Request.Context(), id, &patient.UpdatePatientCommand{
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Gender:              req.Gender,
		Pronouns:            req.Pronouns,
		Phone:               req.Phone,
		Email:               req.Email,
		Address:             req.Address,
		City:                req.City,
		State:               req.State,
		ZipCode:             req.ZipCode,
		EmergencyContact:    req.EmergencyContact,
		PrimaryDiagnosis:    req.PrimaryDiagnosis,
		Medications:         req.Medications,
		Allergies:           req.Allergies,
		SuicidalityWatch:    req.SuicidalityWatch,
		TherapyModality:     req.TherapyModality,
		IntakeNotes:         req.IntakeNotes,
		AssignedClinicianID: req.AssignedClinicianID,
		UpdatedBy:           callerID,
	}, callerID, callerRole, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, p)
}

func (h *PatientHandler) Discharge(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	callerID, callerRole := caller(c)
	p, err := h.patientSvc.DischargePatient(c.Request.Context(), id, callerID, callerRole, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, p)
}

func (h *PatientHandler) Deactivate(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	callerID, callerRole := caller(c)
	p, err := h.patientSvc.DeactivatePatient(c.Request.Context(), id, callerID, callerRole, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, p)
}

func (h *PatientHandler) Delete(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	callerID, callerRole := caller(c)
	if err := h.patientSvc.DeletePatient(c.Request.Context(), id, callerID, callerRole, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"deleted": true})
}

func (h *PatientHandler) List(c *gin.Context) {
	q := &patient.ListPatientsQuery{
		Search:    c.Query("search"),
		Page:      parseQueryInt(c, "page", 1),
		PageSize:  parseQueryInt(c, "page_size", 20),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	if raw := c.Query("status"); raw != "" {
		status := patient.Status(raw)
		q.Status = &status
	}
	if raw := c.Query("suicidality_watch"); raw != "" {
		watch := raw == "true"
		q.SuicidalityWatch = &watch
	}

	callerID, callerRole := caller(c)
	paged, err := h.patientSvc.ListPatients(c.Request.Context(), q, callerID, callerRole)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, paged)
}

// Checklist returns the patient's follow-up checklist state.
func (h *PatientHandler) Checklist(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	callerID, callerRole := caller(c)
	// Access control rides on the patient read.
	if _, err := h.patientSvc.GetPatient(c.Request.Context(), id, callerID, callerRole, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	items, err := h.checklistSvc.ListForPatient(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, items)
}

// ResetChecklistItem zeroes one checklist item for the patient.
func (h *PatientHandler) ResetChecklistItem(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	itemID := c.Param("item")

	callerID, callerRole := caller(c)
	if _, err := h.patientSvc.GetPatient(c.Request.Context(), id, callerID, callerRole, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	if err := h.checklistSvc.ResetItem(c.Request.Context(), id, itemID, callerID, callerRole, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"reset": true})
}
