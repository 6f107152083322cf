package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/psyscribe/psyscribe/internal/analysis"
	"github.com/psyscribe/psyscribe/internal/config"
	"github.com/psyscribe/psyscribe/internal/domain/checklist"
	"github.com/psyscribe/psyscribe/internal/domain/note"
	"github.com/psyscribe/psyscribe/internal/domain/settings"
	"github.com/psyscribe/psyscribe/internal/llm"
)

var testAnalysisCfg = config.AnalysisConfig{
	ConfidenceThreshold: 0.85,
	PointsPerHit:        20,
	MaxItemPoints:       100,
}

type checklistFixture struct {
	svc         *ChecklistService
	repo        *fakeChecklistRepo
	noteRepo    *fakeNoteRepo
	classifier  *fakeClassifier
	clinicianID uuid.UUID
	patientID   uuid.UUID
	noteID      uuid.UUID
}

func newChecklistFixture(t *testing.T, transcript string, stored *settings.AppSettings) *checklistFixture {
	t.Helper()

	clinicianID := uuid.New()
	patientID := uuid.New()

	n := &note.Note{
		ID:               uuid.New(),
		PatientID:        patientID,
		ClinicianID:      clinicianID,
		VisitDate:        time.Now(),
		Transcript:       transcript,
		TranscriptSource: note.SourceTyped,
		Status:           note.StatusDraft,
	}

	settingsRepo := newFakeSettingsRepo()
	if stored != nil {
		stored.ClinicianID = clinicianID
		settingsRepo.Upsert(context.Background(), stored)
	}

	log := zap.NewNop()
	audit := NewAuditService(&fakeAuditRepo{}, nil, log)
	t.Cleanup(audit.Shutdown)

	settingsSvc := NewSettingsService(settingsRepo, testAICfg, audit, log)
	repo := newFakeChecklistRepo()
	classifier := &fakeClassifier{}
	noteRepo := newFakeNoteRepo(n)

	return &checklistFixture{
		svc:         NewChecklistService(repo, noteRepo, settingsSvc, classifier, testAnalysisCfg, audit, log),
		repo:        repo,
		noteRepo:    noteRepo,
		classifier:  classifier,
		clinicianID: clinicianID,
		patientID:   patientID,
		noteID:      n.ID,
	}
}

func itemByID(t *testing.T, items []*checklist.Item, id string) *checklist.Item {
	t.Helper()
	for _, it := range items {
		if it.ItemID == id {
			return it
		}
	}
	t.Fatalf("item %q missing from outcome", id)
	return nil
}

func TestAnalyzeVisit(t *testing.T) {
	ctx := context.Background()

	t.Run("hybrid run scores semantic hits", func(t *testing.T) {
		f := newChecklistFixture(t, "We reviewed the week in general terms.", nil)
		f.classifier.topics = []analysis.TopicScore{
			{Topic: "Depression", Confidence: 0.92},
			{Topic: "Anxiety", Confidence: 0.78}, // below threshold
		}

		out, err := f.svc.AnalyzeVisit(ctx, f.noteID, f.clinicianID, "clinician", "10.0.0.1")
		if err != nil {
			t.Fatalf("AnalyzeVisit: %v", err)
		}
		if out.Mode != ModeHybrid {
			t.Errorf("mode = %q, want hybrid", out.Mode)
		}

		dep := itemByID(t, out.Items, "depression-scale")
		if dep.Points != 20 || dep.Method != checklist.MethodSemantic {
			t.Errorf("depression-scale = %d/%s, want 20/semantic", dep.Points, dep.Method)
		}
		if dep.LastDiscussedNoteID == nil || *dep.LastDiscussedNoteID != f.noteID {
			t.Error("expected last-discussed marker on scored item")
		}

		anx := itemByID(t, out.Items, "anxiety")
		if anx.Points != 0 || anx.Method != checklist.MethodNone {
			t.Errorf("anxiety = %d/%s, want 0/none", anx.Points, anx.Method)
		}
	})

	t.Run("keyword fallback rescues missed items", func(t *testing.T) {
		f := newChecklistFixture(t, "Patient has been sleeping badly, frequent nightmares.", nil)
		f.classifier.topics = nil // classifier saw nothing

		out, err := f.svc.AnalyzeVisit(ctx, f.noteID, f.clinicianID, "clinician", "10.0.0.1")
		if err != nil {
			t.Fatalf("AnalyzeVisit: %v", err)
		}

		sleep := itemByID(t, out.Items, "sleep")
		if sleep.Points != 40 || sleep.Method != checklist.MethodKeyword {
			t.Errorf("sleep = %d/%s, want 40/keyword", sleep.Points, sleep.Method)
		}
	})

	t.Run("degrades to keyword-only when classifier fails", func(t *testing.T) {
		f := newChecklistFixture(t, "Patient skipped two doses of medication this week.", nil)
		f.classifier.err = llm.ErrUnavailable

		out, err := f.svc.AnalyzeVisit(ctx, f.noteID, f.clinicianID, "clinician", "10.0.0.1")
		if err != nil {
			t.Fatalf("AnalyzeVisit: %v", err)
		}
		if out.Mode != ModeKeywordOnly {
			t.Errorf("mode = %q, want keyword_only", out.Mode)
		}

		med := itemByID(t, out.Items, "medication-adherence")
		if med.Points == 0 || med.Method != checklist.MethodKeyword {
			t.Errorf("medication-adherence = %d/%s, want keyword points", med.Points, med.Method)
		}
	})

	t.Run("settings threshold override applies", func(t *testing.T) {
		stored := settings.Defaults(uuid.Nil, testAICfg.Model, testAICfg.Temperature, testAICfg.MaxTokens)
		lower := 0.7
		stored.ConfidenceThreshold = &lower
		f := newChecklistFixture(t, "General check-in.", stored)
		f.classifier.topics = []analysis.TopicScore{
			{Topic: "Anxiety", Confidence: 0.78}, // below global 0.85, above override 0.7
		}

		out, err := f.svc.AnalyzeVisit(ctx, f.noteID, f.clinicianID, "clinician", "10.0.0.1")
		if err != nil {
			t.Fatalf("AnalyzeVisit: %v", err)
		}

		anx := itemByID(t, out.Items, "anxiety")
		if anx.Points != 20 || anx.Method != checklist.MethodSemantic {
			t.Errorf("anxiety = %d/%s, want 20/semantic under lowered threshold", anx.Points, anx.Method)
		}
	})

	t.Run("zero-point items keep prior last-discussed markers", func(t *testing.T) {
		f := newChecklistFixture(t, "General check-in with no notable topics.", nil)

		priorNote := uuid.New()
		priorAt := time.Now().Add(-72 * time.Hour)
		f.repo.UpsertBatch(ctx, []*checklist.Item{{
			PatientID:           f.patientID,
			ItemID:              "sleep",
			Label:               "Sleep",
			Points:              20,
			Method:              checklist.MethodSemantic,
			LastDiscussedNoteID: &priorNote,
			LastDiscussedAt:     &priorAt,
		}})

		out, err := f.svc.AnalyzeVisit(ctx, f.noteID, f.clinicianID, "clinician", "10.0.0.1")
		if err != nil {
			t.Fatalf("AnalyzeVisit: %v", err)
		}

		sleep := itemByID(t, out.Items, "sleep")
		if sleep.Points != 0 {
			t.Errorf("sleep points = %d, want 0 this run", sleep.Points)
		}
		if sleep.LastDiscussedNoteID == nil || *sleep.LastDiscussedNoteID != priorNote {
			t.Error("prior last-discussed note was clobbered")
		}
	})

	t.Run("every defined item is persisted", func(t *testing.T) {
		f := newChecklistFixture(t, "Short visit.", nil)

		out, err := f.svc.AnalyzeVisit(ctx, f.noteID, f.clinicianID, "clinician", "10.0.0.1")
		if err != nil {
			t.Fatalf("AnalyzeVisit: %v", err)
		}
		if len(out.Items) != len(analysis.Items()) {
			t.Errorf("persisted %d items, want %d", len(out.Items), len(analysis.Items()))
		}

		stored, _ := f.repo.ListByPatient(ctx, f.patientID)
		if len(stored) != len(analysis.Items()) {
			t.Errorf("stored %d items, want %d", len(stored), len(analysis.Items()))
		}
	})

	t.Run("disabled checklist is rejected", func(t *testing.T) {
		stored := settings.Defaults(uuid.Nil, testAICfg.Model, testAICfg.Temperature, testAICfg.MaxTokens)
		stored.ChecklistEnabled = false
		f := newChecklistFixture(t, "Patient mentioned sleep.", stored)

		_, err := f.svc.AnalyzeVisit(ctx, f.noteID, f.clinicianID, "clinician", "10.0.0.1")
		if !errors.Is(err, ErrChecklistDisabled) {
			t.Errorf("err = %v, want ErrChecklistDisabled", err)
		}
		if f.classifier.calls != 0 {
			t.Errorf("classifier calls = %d, want 0", f.classifier.calls)
		}
	})

	t.Run("empty transcript is rejected", func(t *testing.T) {
		f := newChecklistFixture(t, "  ", nil)

		_, err := f.svc.AnalyzeVisit(ctx, f.noteID, f.clinicianID, "clinician", "10.0.0.1")
		if !errors.Is(err, note.ErrEmptyTranscript) {
			t.Errorf("err = %v, want ErrEmptyTranscript", err)
		}
	})

	t.Run("other clinician is forbidden", func(t *testing.T) {
		f := newChecklistFixture(t, "Patient mentioned sleep.", nil)

		_, err := f.svc.AnalyzeVisit(ctx, f.noteID, uuid.New(), "clinician", "10.0.0.1")
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("err = %v, want ErrForbidden", err)
		}
	})
}

func TestResetItem(t *testing.T) {
	ctx := context.Background()

	t.Run("zeroes an existing item", func(t *testing.T) {
		f := newChecklistFixture(t, "Patient has been sleeping badly.", nil)

		if _, err := f.svc.AnalyzeVisit(ctx, f.noteID, f.clinicianID, "clinician", "10.0.0.1"); err != nil {
			t.Fatal(err)
		}

		if err := f.svc.ResetItem(ctx, f.patientID, "sleep", f.clinicianID, "clinician", "10.0.0.1"); err != nil {
			t.Fatalf("ResetItem: %v", err)
		}

		stored, _ := f.repo.ListByPatient(ctx, f.patientID)
		sleep := itemByID(t, stored, "sleep")
		if sleep.Points != 0 || sleep.Method != checklist.MethodNone {
			t.Errorf("sleep = %d/%s after reset, want 0/none", sleep.Points, sleep.Method)
		}
	})

	t.Run("rejects unknown item id", func(t *testing.T) {
		f := newChecklistFixture(t, "x", nil)

		err := f.svc.ResetItem(ctx, f.patientID, "blood-pressure", f.clinicianID, "clinician", "10.0.0.1")
		if !errors.Is(err, checklist.ErrUnknownItemID) {
			t.Errorf("err = %v, want ErrUnknownItemID", err)
		}
	})
}
