package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/psyscribe/psyscribe/internal/analysis"
	"github.com/psyscribe/psyscribe/internal/domain"
	"github.com/psyscribe/psyscribe/internal/domain/checklist"
	"github.com/psyscribe/psyscribe/internal/domain/note"
	"github.com/psyscribe/psyscribe/internal/domain/patient"
	"github.com/psyscribe/psyscribe/internal/domain/settings"
	"github.com/psyscribe/psyscribe/internal/llm"
	"github.com/psyscribe/psyscribe/internal/transcription"
)

func nowPtr() *time.Time {
	t := time.Now()
	return &t
}

type fakeUserRepo struct {
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
	for _, u := range users {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email && u.DeletedAt == nil {
			return u, nil
		}
	}
	return nil, errors.New("record not found")
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, errors.New("record not found")
	}
	return u, nil
}

// UpdateLoginAttempt mirrors the production lockout rules: five consecutive
// failures lock the account for fifteen minutes; success clears the counter.
func (r *fakeUserRepo) UpdateLoginAttempt(ctx context.Context, id uuid.UUID, success bool) error {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if success {
		u.FailedLoginCount = 0
		u.LockedUntil = nil
		u.LastLoginAt = nowPtr()
		return nil
	}

	u.FailedLoginCount++
	if u.FailedLoginCount >= 5 {
		until := time.Now().Add(15 * time.Minute)
		u.LockedUntil = &until
		u.FailedLoginCount = 0
	}
	return nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.PasswordChangedAt = time.Now()
	return nil
}

type fakePatientRepo struct {
	patients map[uuid.UUID]*patient.Patient
}

func newFakePatientRepo(patients ...*patient.Patient) *fakePatientRepo {
	r := &fakePatientRepo{patients: make(map[uuid.UUID]*patient.Patient)}
	for _, p := range patients {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		r.patients[p.ID] = p
	}
	return r
}

func (r *fakePatientRepo) Create(_ context.Context, p *patient.Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	for _, existing := range r.patients {
		if existing.MRN == p.MRN {
			return patient.ErrPatientAlreadyExists
		}
	}
	r.patients[p.ID] = p
	return nil
}

func (r *fakePatientRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := r.patients[id]
	if !ok || p.DeletedAt != nil {
		return nil, patient.ErrPatientNotFound
	}
	return p, nil
}

func (r *fakePatientRepo) GetByMRN(_ context.Context, mrn string) (*patient.Patient, error) {
	for _, p := range r.patients {
		if p.MRN == mrn && p.DeletedAt == nil {
			return p, nil
		}
	}
	return nil, patient.ErrPatientNotFound
}

func (r *fakePatientRepo) Update(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand) (*patient.Patient, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cmd.FirstName != nil {
		p.FirstName = *cmd.FirstName
	}
	if cmd.LastName != nil {
		p.LastName = *cmd.LastName
	}
	return p, nil
}

func (r *fakePatientRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status patient.Status) error {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	p.Status = status
	return nil
}

func (r *fakePatientRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	now := nowPtr()
	p.DeletedAt = now
	return nil
}

func (r *fakePatientRepo) List(_ context.Context, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	var out []*patient.Patient
	for _, p := range r.patients {
		if p.DeletedAt != nil {
			continue
		}
		if q.AssignedClinicianID != nil && p.AssignedClinicianID != *q.AssignedClinicianID {
			continue
		}
		out = append(out, p)
	}
	return &patient.PagedPatients{Patients: out, TotalCount: int64(len(out)), Page: q.Page, PageSize: q.PageSize, TotalPages: 1}, nil
}

func (r *fakePatientRepo) ExistsByMRN(_ context.Context, mrn string, excludeID *uuid.UUID) (bool, error) {
	for _, p := range r.patients {
		if excludeID != nil && p.ID == *excludeID {
			continue
		}
		if p.MRN == mrn && p.DeletedAt == nil {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePatientRepo) TouchLastVisit(ctx context.Context, id uuid.UUID) error {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	p.LastVisitAt = nowPtr()
	return nil
}

type fakeNoteRepo struct {
	notes   map[uuid.UUID]*note.Note
	addenda []*note.Addendum
}

func newFakeNoteRepo(notes ...*note.Note) *fakeNoteRepo {
	r := &fakeNoteRepo{notes: make(map[uuid.UUID]*note.Note)}
	for _, n := range notes {
		if n.ID == uuid.Nil {
			n.ID = uuid.New()
		}
		r.notes[n.ID] = n
	}
	return r
}

func (r *fakeNoteRepo) Create(_ context.Context, n *note.Note) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	r.notes[n.ID] = n
	return nil
}

func (r *fakeNoteRepo) GetByID(_ context.Context, id uuid.UUID) (*note.Note, error) {
	n, ok := r.notes[id]
	if !ok || n.DeletedAt != nil {
		return nil, note.ErrNoteNotFound
	}
	return n, nil
}

func (r *fakeNoteRepo) Update(_ context.Context, n *note.Note) error {
	if _, ok := r.notes[n.ID]; !ok {
		return note.ErrNoteNotFound
	}
	r.notes[n.ID] = n
	return nil
}

func (r *fakeNoteRepo) AddAddendum(_ context.Context, a *note.Addendum) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.addenda = append(r.addenda, a)
	return nil
}

func (r *fakeNoteRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	n, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	n.DeletedAt = nowPtr()
	return nil
}

func (r *fakeNoteRepo) List(_ context.Context, q *note.ListNotesQuery) (*note.PagedNotes, error) {
	var out []*note.Note
	for _, n := range r.notes {
		if n.DeletedAt != nil {
			continue
		}
		if q.ClinicianID != nil && n.ClinicianID != *q.ClinicianID {
			continue
		}
		if q.PatientID != nil && n.PatientID != *q.PatientID {
			continue
		}
		out = append(out, n)
	}
	return &note.PagedNotes{Notes: out, TotalCount: int64(len(out)), Page: q.Page, PageSize: q.PageSize, TotalPages: 1}, nil
}

type fakeSettingsRepo struct {
	rows map[uuid.UUID]*settings.AppSettings
}

func newFakeSettingsRepo(rows ...*settings.AppSettings) *fakeSettingsRepo {
	r := &fakeSettingsRepo{rows: make(map[uuid.UUID]*settings.AppSettings)}
	for _, s := range rows {
		r.rows[s.ClinicianID] = s
	}
	return r
}

func (r *fakeSettingsRepo) GetByClinicianID(_ context.Context, clinicianID uuid.UUID) (*settings.AppSettings, error) {
	s, ok := r.rows[clinicianID]
	if !ok {
		return nil, settings.ErrSettingsNotFound
	}
	return s, nil
}

func (r *fakeSettingsRepo) Upsert(_ context.Context, s *settings.AppSettings) error {
	r.rows[s.ClinicianID] = s
	return nil
}

type fakeChecklistRepo struct {
	items map[string]*checklist.Item // key: patientID/itemID
}

func newFakeChecklistRepo() *fakeChecklistRepo {
	return &fakeChecklistRepo{items: make(map[string]*checklist.Item)}
}

func checklistKey(patientID uuid.UUID, itemID string) string {
	return patientID.String() + "/" + itemID
}

func (r *fakeChecklistRepo) UpsertBatch(_ context.Context, items []*checklist.Item) error {
	for _, it := range items {
		r.items[checklistKey(it.PatientID, it.ItemID)] = it
	}
	return nil
}

func (r *fakeChecklistRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*checklist.Item, error) {
	var out []*checklist.Item
	for _, it := range r.items {
		if it.PatientID == patientID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *fakeChecklistRepo) Reset(_ context.Context, patientID uuid.UUID, itemID string) error {
	it, ok := r.items[checklistKey(patientID, itemID)]
	if !ok {
		return checklist.ErrItemNotFound
	}
	it.Points = 0
	it.Method = checklist.MethodNone
	return nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (r *fakeAuditRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

type fakeGenerator struct {
	draft    *llm.SOAPDraft
	err      error
	calls    int
	lastOpts llm.Options
}

func (g *fakeGenerator) GenerateSOAP(_ context.Context, _ string, _ llm.PatientContext, opts llm.Options) (*llm.SOAPDraft, error) {
	g.calls++
	g.lastOpts = opts
	if g.err != nil {
		return nil, g.err
	}
	return g.draft, nil
}

type fakeTranscriber struct {
	result *transcription.Result
	err    error
}

func (t *fakeTranscriber) Transcribe(_ context.Context, _ string, _ int64, _ io.Reader) (*transcription.Result, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.result, nil
}

type fakeClassifier struct {
	topics []analysis.TopicScore
	err    error
	calls  int
}

func (c *fakeClassifier) ClassifyTopics(_ context.Context, _ string, _ llm.Options) ([]analysis.TopicScore, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.topics, nil
}
