package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/psyscribe/psyscribe/internal/analysis"
	"github.com/psyscribe/psyscribe/internal/config"
	"github.com/psyscribe/psyscribe/internal/domain"
	"github.com/psyscribe/psyscribe/internal/domain/checklist"
	"github.com/psyscribe/psyscribe/internal/domain/note"
	"github.com/psyscribe/psyscribe/internal/llm"
)

// TopicClassifier is the slice of the completion client the checklist
// service needs.
type TopicClassifier interface {
	ClassifyTopics(ctx context.Context, transcript string, opts llm.Options) ([]analysis.TopicScore, error)
}

// Analysis modes, recorded per run.
const (
	ModeHybrid      = "hybrid"
	ModeKeywordOnly = "keyword_only"
)

// AnalysisOutcome is the result of one visit analysis run.
type AnalysisOutcome struct {
	NoteID    uuid.UUID
	PatientID uuid.UUID
	Mode      string // hybrid | keyword_only
	Items     []*checklist.Item
	Discussed []string
}

type ChecklistService struct {
	repo        checklist.Repository
	noteRepo    note.Repository
	settingsSvc *SettingsService
	classifier  TopicClassifier
	analysisCfg config.AnalysisConfig
	auditSvc    *AuditService
	log         *zap.Logger
}

func NewChecklistService(
	repo checklist.Repository,
	noteRepo note.Repository,
	settingsSvc *SettingsService,
	classifier TopicClassifier,
	analysisCfg config.AnalysisConfig,
	auditSvc *AuditService,
	log *zap.Logger,
) *ChecklistService {
	return &ChecklistService{
		repo:        repo,
		noteRepo:    noteRepo,
		settingsSvc: settingsSvc,
		classifier:  classifier,
		analysisCfg: analysisCfg,
		auditSvc:    auditSvc,
		log:         log,
	}
}

// AnalyzeVisit scores a note's transcript against the follow-up checklist.
// The semantic pass uses the completion API; when that is unavailable the run
// degrades to keyword-only scoring rather than failing. Zero-point items keep
// their previous last-discussed markers.
func (s *ChecklistService) AnalyzeVisit(ctx context.Context, noteID uuid.UUID, callerID uuid.UUID, callerRole string, ip string) (*AnalysisOutcome, error) {
	n, err := s.noteRepo.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if callerRole != string(domain.RoleAdmin) && n.ClinicianID != callerID {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(n.Transcript) == "" {
		return nil, note.ErrEmptyTranscript
	}

	cfg, err := s.settingsSvc.GetSettings(ctx, n.ClinicianID)
	if err != nil {
		return nil, err
	}
	if !cfg.ChecklistEnabled {
		return nil, ErrChecklistDisabled
	}

	engineCfg := analysis.Config{
		ConfidenceThreshold: s.analysisCfg.ConfidenceThreshold,
		PointsPerHit:        s.analysisCfg.PointsPerHit,
		MaxItemPoints:       s.analysisCfg.MaxItemPoints,
	}
	if cfg.ConfidenceThreshold != nil {
		engineCfg.ConfidenceThreshold = *cfg.ConfidenceThreshold
	}

	mode := ModeHybrid
	topics, err := s.classifier.ClassifyTopics(ctx, n.Transcript, llm.Options{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		s.log.Warn("topic classification failed, degrading to keyword-only scoring",
			zap.String("note_id", noteID.String()),
			zap.Error(err),
		)
		topics = nil
		mode = ModeKeywordOnly
	}

	result := analysis.Analyze(topics, n.Transcript, engineCfg)

	items, err := s.mergeWithExisting(ctx, n, result)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpsertBatch(ctx, items); err != nil {
		s.log.Error("failed to persist checklist items", zap.Error(err))
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "analyze",
		ResourceType: "note",
		ResourceID:   noteID.String(),
		IPAddress:    ip,
	})

	discussed := result.Discussed()
	s.log.Info("visit analysis completed",
		zap.String("note_id", noteID.String()),
		zap.String("mode", mode),
		zap.Int("discussed_items", len(discussed)),
	)

	return &AnalysisOutcome{
		NoteID:    noteID,
		PatientID: n.PatientID,
		Mode:      mode,
		Items:     items,
		Discussed: discussed,
	}, nil
}

// mergeWithExisting turns engine results into persistent rows. Items the run
// scored carry fresh points and the note's discussion markers; items it did
// not score are written with zero points but retain whatever last-discussed
// state an earlier run recorded.
func (s *ChecklistService) mergeWithExisting(ctx context.Context, n *note.Note, result analysis.Result) ([]*checklist.Item, error) {
	existing, err := s.repo.ListByPatient(ctx, n.PatientID)
	if err != nil {
		return nil, err
	}
	prior := make(map[string]*checklist.Item, len(existing))
	for _, it := range existing {
		prior[it.ItemID] = it
	}

	now := time.Now()
	items := make([]*checklist.Item, 0, len(result.Items))
	for _, def := range analysis.Items() {
		ir := result.Items[def.ID]

		item := &checklist.Item{
			PatientID: n.PatientID,
			ItemID:    def.ID,
			Label:     def.Label,
			Points:    ir.Points,
			Method:    checklist.Method(ir.Method),
		}

		if ir.Points > 0 {
			noteID := n.ID
			item.LastDiscussedNoteID = &noteID
			item.LastDiscussedAt = &now
		} else if p, ok := prior[def.ID]; ok {
			item.LastDiscussedNoteID = p.LastDiscussedNoteID
			item.LastDiscussedAt = p.LastDiscussedAt
		}

		items = append(items, item)
	}

	return items, nil
}

// ListForPatient returns the patient's current checklist state.
func (s *ChecklistService) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*checklist.Item, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

// ResetItem zeroes one checklist item so it surfaces again next visit.
func (s *ChecklistService) ResetItem(ctx context.Context, patientID uuid.UUID, itemID string, callerID uuid.UUID, callerRole string, ip string) error {
	if _, ok := analysis.ItemByID(itemID); !ok {
		return checklist.ErrUnknownItemID
	}

	if err := s.repo.Reset(ctx, patientID, itemID); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "update",
		ResourceType: "checklist_item",
		ResourceID:   patientID.String() + "/" + itemID,
		IPAddress:    ip,
	})

	return nil
}
