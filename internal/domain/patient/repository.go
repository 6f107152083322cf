package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new patient. Returns ErrPatientAlreadyExists on duplicate MRN.
	Create(ctx context.Context, p *Patient) error

	// GetByID retrieves a patient by primary key. Returns ErrPatientNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// GetByMRN retrieves a patient by medical record number.
	GetByMRN(ctx context.Context, mrn string) (*Patient, error)

	// Update applies partial updates to an existing patient record.
	Update(ctx context.Context, id uuid.UUID, cmd *UpdatePatientCommand) (*Patient, error)

	// UpdateStatus transitions the patient lifecycle state.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error

	// SoftDelete marks the patient as deleted (records retained per HIPAA).
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// List returns a paginated, filtered list of patients.
	List(ctx context.Context, q *ListPatientsQuery) (*PagedPatients, error)

	// ExistsByMRN checks for uniqueness without fetching the full record.
	ExistsByMRN(ctx context.Context, mrn string, excludeID *uuid.UUID) (bool, error)

	// TouchLastVisit records the timestamp of the patient's most recent visit note.
	TouchLastVisit(ctx context.Context, id uuid.UUID) error
}
