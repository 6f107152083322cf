package note

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TranscriptSource records how the visit transcript entered the system.
type TranscriptSource string

const (
	SourceRecorded TranscriptSource = "recorded" // in-app audio recording
	SourceUploaded TranscriptSource = "uploaded" // audio file upload
	SourceTyped    TranscriptSource = "typed"    // clinician pasted or typed text
)

func (s TranscriptSource) IsValid() bool {
	switch s {
	case SourceRecorded, SourceUploaded, SourceTyped:
		return true
	}
	return false
}

// Status transitions:
//
//	draft → finalized
//
// Finalized notes are immutable; corrections go through addenda.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusFinalized Status = "finalized"
)

// SOAP is the structured clinical note format:
// Subjective / Objective / Assessment / Plan.
type SOAP struct {
	Subjective string `json:"subjective"`
	Objective  string `json:"objective"`
	Assessment string `json:"assessment"`
	Plan       string `json:"plan"`
}

func (s *SOAP) IsEmpty() bool {
	return s == nil ||
		(strings.TrimSpace(s.Subjective) == "" &&
			strings.TrimSpace(s.Objective) == "" &&
			strings.TrimSpace(s.Assessment) == "" &&
			strings.TrimSpace(s.Plan) == "")
}

// GenerationMeta records how a SOAP draft was produced.
type GenerationMeta struct {
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	GeneratedAt time.Time `json:"generated_at"`
	DurationMS  int64     `json:"duration_ms"`
}

type Note struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"` // Soft delete

	PatientID   uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	ClinicianID uuid.UUID `gorm:"column:clinician_id;type:uuid;not null;index"`

	VisitDate        time.Time        `gorm:"column:visit_date;not null;index"`
	Transcript       string           `gorm:"column:transcript;type:text"` // PHI
	TranscriptSource TranscriptSource `gorm:"column:transcript_source;type:varchar(20);not null"`
	AudioLanguage    string           `gorm:"column:audio_language;type:varchar(10)"`
	AudioDurationSec float64          `gorm:"column:audio_duration_sec"`

	SOAP           *SOAP           `gorm:"column:soap;serializer:json"`
	GenerationMeta *GenerationMeta `gorm:"column:generation_meta;serializer:json"`

	Status      Status     `gorm:"column:status;type:varchar(20);not null;default:'draft';index"`
	FinalizedAt *time.Time `gorm:"column:finalized_at"`
	FinalizedBy *uuid.UUID `gorm:"column:finalized_by;type:uuid"`

	// Addenda: corrections appended after finalization without modifying the original
	Addenda []Addendum `gorm:"foreignKey:NoteID"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Note) TableName() string {
	return "clinical.notes"
}

func (n *Note) IsDraft() bool {
	return n.Status == StatusDraft
}

// Finalize locks the note. Requires a non-empty SOAP body.
func (n *Note) Finalize(by uuid.UUID) error {
	if n.Status == StatusFinalized {
		return ErrNoteFinalized
	}
	if n.SOAP.IsEmpty() {
		return ErrEmptySOAP
	}
	now := time.Now()
	n.Status = StatusFinalized
	n.FinalizedAt = &now
	n.FinalizedBy = &by
	return nil
}

// Addendum is an append-only correction to a finalized note.
type Addendum struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	NoteID    uuid.UUID `gorm:"column:note_id;type:uuid;not null;index"`
	Content   string    `gorm:"column:content;type:text;not null"`
	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Addendum) TableName() string {
	return "clinical.note_addenda"
}

type CreateNoteCommand struct {
	PatientID        uuid.UUID
	ClinicianID      uuid.UUID
	VisitDate        time.Time
	Transcript       string
	TranscriptSource TranscriptSource
	AudioLanguage    string
	AudioDurationSec float64
	CreatedBy        uuid.UUID
}

// UpdateDraftCommand applies partial edits to a draft note. Finalized notes
// reject all fields.
type UpdateDraftCommand struct {
	Transcript *string
	VisitDate  *time.Time
	SOAP       *SOAP
	UpdatedBy  uuid.UUID
}

type AddAddendumCommand struct {
	NoteID    uuid.UUID
	Content   string
	CreatedBy uuid.UUID
}

type ListNotesQuery struct {
	PatientID   *uuid.UUID
	ClinicianID *uuid.UUID
	Status      *Status
	DateFrom    *time.Time
	DateTo      *time.Time
	Page        int
	PageSize    int
}

type PagedNotes struct {
	Notes      []*Note
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
