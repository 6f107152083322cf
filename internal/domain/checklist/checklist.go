package checklist

import (
	"time"

	"github.com/google/uuid"
)

// Method records which scoring path produced an item's current points.
type Method string

const (
	MethodNone     Method = "none"
	MethodSemantic Method = "semantic"
	MethodKeyword  Method = "keyword"
)

// Item is one follow-up topic tracked for a patient across visits
// (e.g. "sleep", "medication-adherence"). Points accumulate per visit
// analysis run and are capped by the analysis engine.
type Item struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;uniqueIndex:idx_checklist_patient_item"`
	ItemID    string    `gorm:"column:item_id;type:varchar(50);not null;uniqueIndex:idx_checklist_patient_item"`
	Label     string    `gorm:"column:label;type:varchar(100);not null"`

	Points int    `gorm:"column:points;not null;default:0"`
	Method Method `gorm:"column:method;type:varchar(20);not null;default:'none'"`

	LastDiscussedNoteID *uuid.UUID `gorm:"column:last_discussed_note_id;type:uuid"`
	LastDiscussedAt     *time.Time `gorm:"column:last_discussed_at"`
}

func (Item) TableName() string {
	return "clinical.checklist_items"
}

func (i *Item) Discussed() bool {
	return i.Points > 0
}
