package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/psyscribe/psyscribe/internal/domain"
	"github.com/psyscribe/psyscribe/internal/domain/patient"
)

type PatientService struct {
	repo     patient.Repository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewPatientService(repo patient.Repository, auditSvc *AuditService, log *zap.Logger) *PatientService {
	return &PatientService{
		repo:     repo,
		auditSvc: auditSvc,
		log:      log,
	}
}

func (s *PatientService) CreatePatient(ctx context.Context, cmd *patient.CreatePatientCommand, callerID uuid.UUID, callerRole string, ip string) (*patient.Patient, error) {
	if err := validateCreateCommand(cmd); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByMRN(ctx, cmd.MRN, nil)
	if err != nil {
		s.log.Error("failed to check MRN uniqueness", zap.Error(err))
		return nil, fmt.Errorf("checking uniqueness: %w", err)
	}
	if exists {
		return nil, patient.ErrPatientAlreadyExists
	}

	p := &patient.Patient{
		FirstName:   strings.TrimSpace(cmd.FirstName),
		LastName:    strings.TrimSpace(cmd.LastName),
		DateOfBirth: cmd.DateOfBirth,
		Gender:      cmd.Gender,
		Pronouns:    strings.TrimSpace(cmd.Pronouns),
		MRN:         strings.TrimSpace(cmd.MRN),
		ContactInfo: patient.ContactInfo{
			Phone:   strings.TrimSpace(cmd.Phone),
			Email:   strings.ToLower(strings.TrimSpace(cmd.Email)),
			Address: cmd.Address,
			City:    cmd.City,
			State:   cmd.State,
			ZipCode: cmd.ZipCode,
		},
		EmergencyContact:    cmd.EmergencyContact,
		PrimaryDiagnosis:    cmd.PrimaryDiagnosis,
		Medications:         cmd.Medications,
		Allergies:           cmd.Allergies,
		SuicidalityWatch:    cmd.SuicidalityWatch,
		TherapyModality:     cmd.TherapyModality,
		IntakeNotes:         cmd.IntakeNotes,
		AssignedClinicianID: cmd.AssignedClinicianID,
		Status:              patient.StatusActive,
		CreatedBy:           cmd.CreatedBy,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.log.Error("failed to create patient", zap.Error(err))
		return nil, fmt.Errorf("creating patient: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "create",
		ResourceType: "patient",
		ResourceID:   p.ID.String(),
		IPAddress:    ip,
	})

	s.log.Info("patient created",
		zap.String("patient_id", p.ID.String()),
		zap.String("created_by", callerID.String()),
	)

	return p, nil
}

func (s *PatientService) GetPatient(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string, ip string) (*patient.Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(p, callerID, callerRole); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "read",
		ResourceType: "patient",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})

	return p, nil
}

func (s *PatientService) UpdatePatient(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand, callerID uuid.UUID, callerRole string, ip string) (*patient.Patient, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(existing, callerID, callerRole); err != nil {
		return nil, err
	}
	if existing.Status == patient.StatusDischarged {
		return nil, patient.ErrPatientDischarged
	}
	if cmd.Gender != nil && !cmd.Gender.IsValid() {
		return nil, patient.ErrInvalidGender
	}

	p, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "update",
		ResourceType: "patient",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})

	return p, nil
}

// DeactivatePatient pauses the episode of care (patient moved away, on a
// break from treatment). Unlike discharge it is not permitted on already
// discharged patients.
func (s *PatientService) DeactivatePatient(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string, ip string) (*patient.Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(p, callerID, callerRole); err != nil {
		return nil, err
	}

	if err := p.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, patient.StatusInactive); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "update",
		ResourceType: "patient",
		ResourceID:   id.String(),
		IPAddress:    ip,
		Changes:      `{"status":"inactive"}`,
	})

	return p, nil
}

// DischargePatient closes the episode of care. The record stays readable;
// new notes are rejected.
func (s *PatientService) DischargePatient(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string, ip string) (*patient.Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(p, callerID, callerRole); err != nil {
		return nil, err
	}

	p.Discharge()
	if err := s.repo.UpdateStatus(ctx, id, patient.StatusDischarged); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "update",
		ResourceType: "patient",
		ResourceID:   id.String(),
		IPAddress:    ip,
		Changes:      `{"status":"discharged"}`,
	})

	return p, nil
}

func (s *PatientService) DeletePatient(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string, ip string) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.authorize(p, callerID, callerRole); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "delete",
		ResourceType: "patient",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})

	return s.repo.SoftDelete(ctx, id)
}

func (s *PatientService) ListPatients(ctx context.Context, q *patient.ListPatientsQuery, callerID uuid.UUID, callerRole string) (*patient.PagedPatients, error) {
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}

	// Clinicians see only their own panel
	if callerRole != string(domain.RoleAdmin) {
		q.AssignedClinicianID = &callerID
	}

	return s.repo.List(ctx, q)
}

// authorize restricts patient access to the assigned clinician and admins.
func (s *PatientService) authorize(p *patient.Patient, callerID uuid.UUID, callerRole string) error {
	if callerRole == string(domain.RoleAdmin) {
		return nil
	}
	if p.AssignedClinicianID != callerID {
		return ErrForbidden
	}
	return nil
}

func validateCreateCommand(cmd *patient.CreatePatientCommand) error {
	if strings.TrimSpace(cmd.MRN) == "" {
		return patient.ErrMRNRequired
	}
	if cmd.DateOfBirth.After(time.Now()) {
		return patient.ErrInvalidDateOfBirth
	}

	var errs []string

	if strings.TrimSpace(cmd.FirstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if strings.TrimSpace(cmd.LastName) == "" {
		errs = append(errs, "last_name is required")
	}
	if cmd.DateOfBirth.IsZero() {
		errs = append(errs, "date_of_birth is required")
	}
	if !cmd.Gender.IsValid() {
		errs = append(errs, "gender is invalid")
	}
	if cmd.AssignedClinicianID == uuid.Nil {
		errs = append(errs, "assigned_clinician_id is required")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
