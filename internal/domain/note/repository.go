package note

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new draft note.
	Create(ctx context.Context, n *Note) error

	// GetByID retrieves a note with its addenda. Returns ErrNoteNotFound if missing.
	GetByID(ctx context.Context, id uuid.UUID) (*Note, error)

	// Update persists the full note row. Callers enforce draft-only mutation.
	Update(ctx context.Context, n *Note) error

	// AddAddendum appends a correction to a finalized note.
	AddAddendum(ctx context.Context, a *Addendum) error

	// SoftDelete marks a note as deleted. Finalized notes are never hard-deleted.
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// List returns a paginated, filtered list of notes.
	List(ctx context.Context, q *ListNotesQuery) (*PagedNotes, error)
}
