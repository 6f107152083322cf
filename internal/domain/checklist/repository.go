package checklist

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// UpsertBatch writes the results of one analysis run. Rows are keyed by
	// (patient_id, item_id); existing rows are replaced.
	UpsertBatch(ctx context.Context, items []*Item) error

	// ListByPatient returns all checklist items for a patient, ordered by item id.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Item, error)

	// Reset zeroes one item so it surfaces again at the next visit.
	Reset(ctx context.Context, patientID uuid.UUID, itemID string) error
}
