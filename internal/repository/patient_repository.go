// Package repository holds the gorm-backed implementations of the domain
// repository interfaces. All methods translate gorm errors to the domain's
// sentinel errors.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/psyscribe/psyscribe/internal/domain/patient"
)

type PatientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) Create(ctx context.Context, p *patient.Patient) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return patient.ErrPatientAlreadyExists
	}
	return err
}

func (r *PatientRepository) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, patient.ErrPatientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PatientRepository) GetByMRN(ctx context.Context, mrn string) (*patient.Patient, error) {
	var p patient.Patient
	err := r.db.WithContext(ctx).
		Where("mrn = ? AND deleted_at IS NULL", mrn).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, patient.ErrPatientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PatientRepository) Update(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand) (*patient.Patient, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applyPatientUpdates(p, cmd)

	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return nil, fmt.Errorf("saving patient: %w", err)
	}
	return p, nil
}

func applyPatientUpdates(p *patient.Patient, cmd *patient.UpdatePatientCommand) {
	if cmd.FirstName != nil {
		p.FirstName = *cmd.FirstName
	}
	if cmd.LastName != nil {
		p.LastName = *cmd.LastName
	}
	if cmd.Gender != nil {
		p.Gender = *cmd.Gender
	}
	if cmd.Pronouns != nil {
		p.Pronouns = *cmd.Pronouns
	}
	if cmd.Phone != nil {
		p.Phone = *cmd.Phone
	}
	if cmd.Email != nil {
		p.Email = *cmd.Email
	}
	if cmd.Address != nil {
		p.Address = *cmd.Address
	}
	if cmd.City != nil {
		p.City = *cmd.City
	}
	if cmd.State != nil {
		p.State = *cmd.State
	}
	if cmd.ZipCode != nil {
		p.ZipCode = *cmd.ZipCode
	}
	if cmd.EmergencyContact != nil {
		p.EmergencyContact = cmd.EmergencyContact
	}
	if cmd.PrimaryDiagnosis != nil {
		p.PrimaryDiagnosis = *cmd.PrimaryDiagnosis
	}
	if cmd.Medications != nil {
		p.Medications = *cmd.Medications
	}
	if cmd.Allergies != nil {
		p.Allergies = *cmd.Allergies
	}
	if cmd.SuicidalityWatch != nil {
		p.SuicidalityWatch = *cmd.SuicidalityWatch
	}
	if cmd.TherapyModality != nil {
		p.TherapyModality = *cmd.TherapyModality
	}
	if cmd.IntakeNotes != nil {
		p.IntakeNotes = *cmd.IntakeNotes
	}
	if cmd.AssignedClinicianID != nil {
		p.AssignedClinicianID = *cmd.AssignedClinicianID
	}
}

func (r *PatientRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status patient.Status) error {
	res := r.db.WithContext(ctx).
		Model(&patient.Patient{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&patient.Patient{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) List(ctx context.Context, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	tx := r.db.WithContext(ctx).Model(&patient.Patient{}).Where("deleted_at IS NULL")

	if q.Search != "" {
		tx = tx.Where("(first_name || ' ' || last_name) ILIKE ?", "%"+q.Search+"%")
	}
	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}
	if q.AssignedClinicianID != nil {
		tx = tx.Where("assigned_clinician_id = ?", *q.AssignedClinicianID)
	}
	if q.SuicidalityWatch != nil {
		tx = tx.Where("suicidality_watch = ?", *q.SuicidalityWatch)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting patients: %w", err)
	}

	order := "last_name asc"
	switch q.SortBy {
	case "created_at", "last_visit_at", "last_name":
		dir := "asc"
		if q.SortOrder == "desc" {
			dir = "desc"
		}
		order = q.SortBy + " " + dir
	}

	var patients []*patient.Patient
	err := tx.Order(order).
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&patients).Error
	if err != nil {
		return nil, fmt.Errorf("listing patients: %w", err)
	}

	return &patient.PagedPatients{
		Patients:   patients,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: int((total + int64(q.PageSize) - 1) / int64(q.PageSize)),
	}, nil
}

func (r *PatientRepository) ExistsByMRN(ctx context.Context, mrn string, excludeID *uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&patient.Patient{}).
		Where("mrn = ? AND deleted_at IS NULL", mrn)
	if excludeID != nil {
		tx = tx.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PatientRepository) TouchLastVisit(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&patient.Patient{}).
		Where("id = ?", id).
		Update("last_visit_at", time.Now()).Error
}
