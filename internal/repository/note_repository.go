package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/psyscribe/psyscribe/internal/domain/note"
)

type NoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, n *note.Note) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*note.Note, error) {
	var n note.Note
	err := r.db.WithContext(ctx).
		Preload("Addenda", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc")
		}).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, note.ErrNoteNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NoteRepository) Update(ctx context.Context, n *note.Note) error {
	res := r.db.WithContext(ctx).
		Omit("Addenda").
		Where("id = ? AND deleted_at IS NULL", n.ID).
		Save(n)
	if res.Error != nil {
		return fmt.Errorf("saving note: %w", res.Error)
	}
	return nil
}

func (r *NoteRepository) AddAddendum(ctx context.Context, a *note.Addendum) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *NoteRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&note.Note{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return note.ErrNoteNotFound
	}
	return nil
}

func (r *NoteRepository) List(ctx context.Context, q *note.ListNotesQuery) (*note.PagedNotes, error) {
	tx := r.db.WithContext(ctx).Model(&note.Note{}).Where("deleted_at IS NULL")

	if q.PatientID != nil {
		tx = tx.Where("patient_id = ?", *q.PatientID)
	}
	if q.ClinicianID != nil {
		tx = tx.Where("clinician_id = ?", *q.ClinicianID)
	}
	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}
	if q.DateFrom != nil {
		tx = tx.Where("visit_date >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		tx = tx.Where("visit_date <= ?", *q.DateTo)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting notes: %w", err)
	}

	var notes []*note.Note
	err := tx.Order("visit_date desc").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}

	return &note.PagedNotes{
		Notes:      notes,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: int((total + int64(q.PageSize) - 1) / int64(q.PageSize)),
	}, nil
}
