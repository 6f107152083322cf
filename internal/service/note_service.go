package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/psyscribe/psyscribe/internal/domain"
	"github.com/psyscribe/psyscribe/internal/domain/note"
	"github.com/psyscribe/psyscribe/internal/domain/patient"
	"github.com/psyscribe/psyscribe/internal/llm"
	"github.com/psyscribe/psyscribe/internal/transcription"
)

// SOAPGenerator is the slice of the completion client the note service needs.
type SOAPGenerator interface {
	GenerateSOAP(ctx context.Context, transcript string, pc llm.PatientContext, opts llm.Options) (*llm.SOAPDraft, error)
}

// Transcriber is the slice of the speech-to-text client the note service needs.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, size int64, audio io.Reader) (*transcription.Result, error)
}

type NoteService struct {
	repo        note.Repository
	patientRepo patient.Repository
	settingsSvc *SettingsService
	generator   SOAPGenerator
	transcriber Transcriber
	auditSvc    *AuditService
	log         *zap.Logger
}

func NewNoteService(
	repo note.Repository,
	patientRepo patient.Repository,
	settingsSvc *SettingsService,
	generator SOAPGenerator,
	transcriber Transcriber,
	auditSvc *AuditService,
	log *zap.Logger,
) *NoteService {
	return &NoteService{
		repo:        repo,
		patientRepo: patientRepo,
		settingsSvc: settingsSvc,
		generator:   generator,
		transcriber: transcriber,
		auditSvc:    auditSvc,
		log:         log,
	}
}

// CreateNote records a visit note from an existing transcript (typed or
// already transcribed). When the clinician's settings enable auto-generation
// and a transcript is present, a SOAP draft is generated inline; generation
// failure leaves a transcript-only draft rather than failing the create.
func (s *NoteService) CreateNote(ctx context.Context, cmd *note.CreateNoteCommand, callerID uuid.UUID, callerRole string, ip string) (*note.Note, error) {
	if !cmd.TranscriptSource.IsValid() {
		return nil, note.ErrInvalidSource
	}
	if strings.TrimSpace(cmd.Transcript) == "" {
		return nil, note.ErrEmptyTranscript
	}
	if cmd.VisitDate.IsZero() {
		cmd.VisitDate = time.Now()
	}

	p, err := s.patientRepo.GetByID(ctx, cmd.PatientID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizePatient(p, callerID, callerRole); err != nil {
		return nil, err
	}
	if p.Status == patient.StatusDischarged {
		return nil, patient.ErrPatientDischarged
	}

	n := &note.Note{
		PatientID:        cmd.PatientID,
		ClinicianID:      cmd.ClinicianID,
		VisitDate:        cmd.VisitDate,
		Transcript:       cmd.Transcript,
		TranscriptSource: cmd.TranscriptSource,
		AudioLanguage:    cmd.AudioLanguage,
		AudioDurationSec: cmd.AudioDurationSec,
		Status:           note.StatusDraft,
		CreatedBy:        cmd.CreatedBy,
	}

	if err := s.repo.Create(ctx, n); err != nil {
		s.log.Error("failed to create note", zap.Error(err))
		return nil, fmt.Errorf("creating note: %w", err)
	}

	if err := s.patientRepo.TouchLastVisit(ctx, cmd.PatientID); err != nil {
		s.log.Warn("failed to update patient last visit", zap.Error(err))
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "create",
		ResourceType: "note",
		ResourceID:   n.ID.String(),
		IPAddress:    ip,
	})

	cfg, err := s.settingsSvc.GetSettings(ctx, cmd.ClinicianID)
	if err == nil && cfg.AutoGenerate {
		if genErr := s.generateInto(ctx, n, p, callerID); genErr != nil {
			s.log.Warn("auto-generation failed, note saved as transcript-only draft",
				zap.String("note_id", n.ID.String()),
				zap.Error(genErr),
			)
		}
	}

	return n, nil
}

// CreateNoteFromAudio transcribes uploaded audio and records the resulting
// note in one call.
func (s *NoteService) CreateNoteFromAudio(
	ctx context.Context,
	patientID, clinicianID uuid.UUID,
	visitDate time.Time,
	source note.TranscriptSource,
	filename string,
	size int64,
	audio io.Reader,
	callerID uuid.UUID, callerRole string, ip string,
) (*note.Note, error) {
	result, err := s.transcriber.Transcribe(ctx, filename, size, audio)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "transcribe",
		ResourceType: "note",
		ResourceID:   patientID.String(),
		IPAddress:    ip,
	})

	if source == "" {
		source = note.SourceUploaded
	}

	return s.CreateNote(ctx, &note.CreateNoteCommand{
		PatientID:        patientID,
		ClinicianID:      clinicianID,
		VisitDate:        visitDate,
		Transcript:       result.Transcript,
		TranscriptSource: source,
		AudioLanguage:    result.Language,
		AudioDurationSec: result.Duration,
		CreatedBy:        callerID,
	}, callerID, callerRole, ip)
}

// GenerateSOAP runs (or re-runs) SOAP generation for a draft note.
func (s *NoteService) GenerateSOAP(ctx context.Context, noteID uuid.UUID, callerID uuid.UUID, callerRole string, ip string) (*note.Note, error) {
	n, err := s.getAuthorized(ctx, noteID, callerID, callerRole)
	if err != nil {
		return nil, err
	}
	if !n.IsDraft() {
		return nil, note.ErrNoteFinalized
	}
	if strings.TrimSpace(n.Transcript) == "" {
		return nil, note.ErrEmptyTranscript
	}

	p, err := s.patientRepo.GetByID(ctx, n.PatientID)
	if err != nil {
		return nil, err
	}

	if err := s.generateInto(ctx, n, p, callerID); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "generate",
		ResourceType: "note",
		ResourceID:   n.ID.String(),
		IPAddress:    ip,
	})

	return n, nil
}

// generateInto calls the completion API and persists the draft's SOAP body.
func (s *NoteService) generateInto(ctx context.Context, n *note.Note, p *patient.Patient, clinicianID uuid.UUID) error {
	cfg, err := s.settingsSvc.GetSettings(ctx, n.ClinicianID)
	if err != nil {
		return err
	}

	start := time.Now()
	draft, err := s.generator.GenerateSOAP(ctx, n.Transcript, llm.PatientContext{
		Name:             p.FullName(),
		Age:              p.Age(),
		Pronouns:         p.Pronouns,
		PrimaryDiagnosis: p.PrimaryDiagnosis,
		Medications:      p.Medications,
	}, llm.Options{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		return err
	}

	n.SOAP = &note.SOAP{
		Subjective: draft.Subjective,
		Objective:  draft.Objective,
		Assessment: draft.Assessment,
		Plan:       draft.Plan,
	}
	n.GenerationMeta = &note.GenerationMeta{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		GeneratedAt: time.Now(),
		DurationMS:  time.Since(start).Milliseconds(),
	}

	if err := s.repo.Update(ctx, n); err != nil {
		return fmt.Errorf("saving generated note: %w", err)
	}

	s.log.Info("SOAP draft generated",
		zap.String("note_id", n.ID.String()),
		zap.String("model", cfg.Model),
		zap.Int64("duration_ms", n.GenerationMeta.DurationMS),
	)

	return nil
}

// UpdateDraft applies clinician edits to a draft note.
func (s *NoteService) UpdateDraft(ctx context.Context, noteID uuid.UUID, cmd *note.UpdateDraftCommand, callerID uuid.UUID, callerRole string, ip string) (*note.Note, error) {
	n, err := s.getAuthorized(ctx, noteID, callerID, callerRole)
	if err != nil {
		return nil, err
	}
	if !n.IsDraft() {
		return nil, note.ErrNoteFinalized
	}

	if cmd.Transcript != nil {
		if strings.TrimSpace(*cmd.Transcript) == "" {
			return nil, note.ErrEmptyTranscript
		}
		n.Transcript = *cmd.Transcript
	}
	if cmd.VisitDate != nil {
		n.VisitDate = *cmd.VisitDate
	}
	if cmd.SOAP != nil {
		n.SOAP = cmd.SOAP
	}

	if err := s.repo.Update(ctx, n); err != nil {
		return nil, fmt.Errorf("updating note: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "update",
		ResourceType: "note",
		ResourceID:   n.ID.String(),
		IPAddress:    ip,
	})

	return n, nil
}

// FinalizeNote locks a draft. Requires non-empty SOAP content.
func (s *NoteService) FinalizeNote(ctx context.Context, noteID uuid.UUID, callerID uuid.UUID, callerRole string, ip string) (*note.Note, error) {
	n, err := s.getAuthorized(ctx, noteID, callerID, callerRole)
	if err != nil {
		return nil, err
	}

	if err := n.Finalize(callerID); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, n); err != nil {
		return nil, fmt.Errorf("finalizing note: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "update",
		ResourceType: "note",
		ResourceID:   n.ID.String(),
		IPAddress:    ip,
		Changes:      `{"status":"finalized"}`,
	})

	return n, nil
}

// AddAddendum appends a correction to a finalized note. Drafts are edited
// directly instead.
func (s *NoteService) AddAddendum(ctx context.Context, cmd *note.AddAddendumCommand, callerID uuid.UUID, callerRole string, ip string) (*note.Addendum, error) {
	if strings.TrimSpace(cmd.Content) == "" {
		return nil, note.ErrAddendumContentEmpty
	}

	n, err := s.getAuthorized(ctx, cmd.NoteID, callerID, callerRole)
	if err != nil {
		return nil, err
	}
	if n.IsDraft() {
		return nil, &ValidationError{Fields: []string{"addenda apply to finalized notes; edit the draft directly"}}
	}

	a := &note.Addendum{
		NoteID:    cmd.NoteID,
		Content:   cmd.Content,
		CreatedBy: cmd.CreatedBy,
	}

	if err := s.repo.AddAddendum(ctx, a); err != nil {
		return nil, fmt.Errorf("adding addendum: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "update",
		ResourceType: "note_addendum",
		ResourceID:   a.ID.String(),
		IPAddress:    ip,
	})

	return a, nil
}

func (s *NoteService) GetNote(ctx context.Context, noteID uuid.UUID, callerID uuid.UUID, callerRole string, ip string) (*note.Note, error) {
	n, err := s.getAuthorized(ctx, noteID, callerID, callerRole)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "read",
		ResourceType: "note",
		ResourceID:   noteID.String(),
		IPAddress:    ip,
	})

	return n, nil
}

func (s *NoteService) ListNotes(ctx context.Context, q *note.ListNotesQuery, callerID uuid.UUID, callerRole string) (*note.PagedNotes, error) {
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}

	// Clinicians list only their own notes
	if callerRole != string(domain.RoleAdmin) {
		q.ClinicianID = &callerID
	}

	return s.repo.List(ctx, q)
}

func (s *NoteService) DeleteNote(ctx context.Context, noteID uuid.UUID, callerID uuid.UUID, callerRole string, ip string) error {
	if _, err := s.getAuthorized(ctx, noteID, callerID, callerRole); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "delete",
		ResourceType: "note",
		ResourceID:   noteID.String(),
		IPAddress:    ip,
	})

	return s.repo.SoftDelete(ctx, noteID)
}

func (s *NoteService) getAuthorized(ctx context.Context, noteID uuid.UUID, callerID uuid.UUID, callerRole string) (*note.Note, error) {
	n, err := s.repo.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if callerRole != string(domain.RoleAdmin) && n.ClinicianID != callerID {
		return nil, ErrForbidden
	}
	return n, nil
}

func (s *NoteService) authorizePatient(p *patient.Patient, callerID uuid.UUID, callerRole string) error {
	if callerRole == string(domain.RoleAdmin) {
		return nil
	}
	if p.AssignedClinicianID != callerID {
		return ErrForbidden
	}
	return nil
}
