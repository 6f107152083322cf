package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderOther   Gender = "other"
	GenderUnknown Gender = "unknown"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderUnknown:
		return true
	}
	return false
}

// Status represents the lifecycle state of a patient record.
type Status string

const (
	StatusActive     Status = "active"
	StatusInactive   Status = "inactive"
	StatusDischarged Status = "discharged"
)

type ContactInfo struct {
	Phone   string `gorm:"column:phone;type:varchar(20)"`
	Email   string `gorm:"column:email;type:varchar(255)"`
	Address string `gorm:"column:address;type:text"`
	City    string `gorm:"column:city;type:varchar(100)"`
	State   string `gorm:"column:state;type:varchar(50)"`
	ZipCode string `gorm:"column:zip_code;type:varchar(20)"`
}

type EmergencyContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

type Patient struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"` // Soft Delete

	FirstName   string    `gorm:"column:first_name;type:varchar(100);not null"`
	LastName    string    `gorm:"column:last_name;type:varchar(100);not null"`
	DateOfBirth time.Time `gorm:"column:date_of_birth;not null"`
	Gender      Gender    `gorm:"column:gender;type:varchar(20);not null"`
	Pronouns    string    `gorm:"column:pronouns;type:varchar(30)"`
	MRN         string    `gorm:"column:mrn;type:varchar(50);uniqueIndex"` // Medical record number

	ContactInfo

	EmergencyContact *EmergencyContact `gorm:"column:emergency_contact;serializer:json"`

	// Psychiatric intake summary
	PrimaryDiagnosis string     `gorm:"column:primary_diagnosis;type:text"`
	Medications      []string   `gorm:"column:medications;serializer:json"`
	Allergies        []string   `gorm:"column:allergies;serializer:json"`
	SuicidalityWatch bool       `gorm:"column:suicidality_watch;default:false;index"`
	TherapyModality  string     `gorm:"column:therapy_modality;type:varchar(100)"` // e.g. CBT, DBT
	IntakeNotes      string     `gorm:"column:intake_notes;type:text"`             // PHI
	LastVisitAt      *time.Time `gorm:"column:last_visit_at"`

	Status              Status    `gorm:"column:status;type:varchar(20);default:'active';index"`
	AssignedClinicianID uuid.UUID `gorm:"column:assigned_clinician_id;type:uuid;not null;index"`

	// Audit: who registered this patient
	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Patient) TableName() string {
	return "clinical.patients"
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func (p *Patient) Age() int {
	now := time.Now()
	years := now.Year() - p.DateOfBirth.Year()
	if now.Month() < p.DateOfBirth.Month() ||
		(now.Month() == p.DateOfBirth.Month() && now.Day() < p.DateOfBirth.Day()) {
		years--
	}
	return years
}

func (p *Patient) IsActive() bool {
	return p.Status == StatusActive && p.DeletedAt == nil
}

func (p *Patient) Deactivate() error {
	if p.Status == StatusDischarged {
		return ErrPatientDischarged
	}
	p.Status = StatusInactive
	return nil
}

// Discharge closes the patient's episode of care. Discharged patients remain
// readable for record-keeping but accept no new notes.
func (p *Patient) Discharge() {
	p.Status = StatusDischarged
}

type CreatePatientCommand struct {
	FirstName           string
	LastName            string
	DateOfBirth         time.Time
	Gender              Gender
	Pronouns            string
	MRN                 string
	Phone               string
	Email               string
	Address             string
	City                string
	State               string
	ZipCode             string
	EmergencyContact    *EmergencyContact
	PrimaryDiagnosis    string
	Medications         []string
	Allergies           []string
	SuicidalityWatch    bool
	TherapyModality     string
	IntakeNotes         string
	AssignedClinicianID uuid.UUID
	CreatedBy           uuid.UUID
}

type UpdatePatientCommand struct {
	FirstName           *string
	LastName            *string
	Gender              *Gender
	Pronouns            *string
	Phone               *string
	Email               *string
	Address             *string
	City                *string
	State               *string
	ZipCode             *string
	EmergencyContact    *EmergencyContact
	PrimaryDiagnosis    *string
	Medications         *[]string
	Allergies           *[]string
	SuicidalityWatch    *bool
	TherapyModality     *string
	IntakeNotes         *string
	AssignedClinicianID *uuid.UUID
	UpdatedBy           uuid.UUID
}

// ListPatientsQuery defines filtering and pagination for patient list queries.
type ListPatientsQuery struct {
	Search              string // Full-text search on name
	Status              *Status
	AssignedClinicianID *uuid.UUID
	SuicidalityWatch    *bool
	Page                int
	PageSize            int
	SortBy              string
	SortOrder           string // "asc" | "desc"
}

type PagedPatients struct {
	Patients   []*Patient
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
