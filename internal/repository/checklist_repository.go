package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/psyscribe/psyscribe/internal/domain/checklist"
)

type ChecklistRepository struct {
	db *gorm.DB
}

func NewChecklistRepository(db *gorm.DB) *ChecklistRepository {
	return &ChecklistRepository{db: db}
}

func (r *ChecklistRepository) UpsertBatch(ctx context.Context, items []*checklist.Item) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "patient_id"}, {Name: "item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"label", "points", "method",
				"last_discussed_note_id", "last_discussed_at", "updated_at",
			}),
		}).
		Create(items).Error
}

func (r *ChecklistRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*checklist.Item, error) {
	var items []*checklist.Item
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("item_id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ChecklistRepository) Reset(ctx context.Context, patientID uuid.UUID, itemID string) error {
	res := r.db.WithContext(ctx).
		Model(&checklist.Item{}).
		Where("patient_id = ? AND item_id = ?", patientID, itemID).
		Updates(map[string]any{
			"points":                 0,
			"method":                 checklist.MethodNone,
			"last_discussed_note_id": nil,
			"last_discussed_at":      nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return checklist.ErrItemNotFound
	}
	return nil
}
