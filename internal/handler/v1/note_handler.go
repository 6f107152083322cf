package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/psyscribe/psyscribe/internal/domain/note"
	"github.com/psyscribe/psyscribe/internal/service"
	"github.com/psyscribe/psyscribe/internal/transcription"
	"github.com/psyscribe/psyscribe/pkg/metrics"
)

type NoteHandler struct {
	noteSvc      *service.NoteService
	checklistSvc *service.ChecklistService
	collector    *metrics.Collector
	maxUpload    int64
	log          *zap.Logger
}

func NewNoteHandler(noteSvc *service.NoteService, checklistSvc *service.ChecklistService, collector *metrics.Collector, maxUpload int64, log *zap.Logger) *NoteHandler {
	return &NoteHandler{
		noteSvc:      noteSvc,
		checklistSvc: checklistSvc,
		collector:    collector,
		maxUpload:    maxUpload,
		log:          log,
	}
}

type createNoteRequest struct {
	PatientID        string                `json:"patient_id" binding:"required,uuid"`
	VisitDate        time.Time             `json:"visit_date"`
	Transcript       string                `json:"transcript" binding:"required"`
	TranscriptSource note.TranscriptSource `json:"transcript_source" binding:"required"`
}

// Create records a visit note from a transcript the clinician already has
// (typed in or produced elsewhere).
func (h *NoteHandler) Create(c *gin.Context) {
	var req createNoteRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, callerRole := caller(c)
	patientID, _ := parseUUIDString(req.PatientID)

	n, err := h.noteSvc.CreateNote(c.Request.Context(), &note.CreateNoteCommand{
		PatientID:        patientID,
		ClinicianID:      callerID,
		VisitDate:        req.VisitDate,
		Transcript:       req.Transcript,
		TranscriptSource: req.TranscriptSource,
		CreatedBy:        callerID,
	}, callerID, callerRole, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if h.collector != nil {
		h.collector.NotesCreatedTotal.WithLabelValues(string(n.TranscriptSource)).Inc()
	}

	respondCreated(c, n)
}

// Transcribe accepts a multipart audio upload, transcribes it, and records
// the resulting visit note in one request.
func (h *NoteHandler) Transcribe(c *gin.Context) {
	patientID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		respondServiceError(c, transcription.ErrNoAudio)
		return
	}
	if h.maxUpload > 0 && fileHeader.Size > h.maxUpload {
		respondServiceError(c, transcription.ErrUploadTooLarge)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to read upload")
		return
	}
	defer file.Close()

	visitDate := time.Now()
	if raw := c.PostForm("visit_date"); raw != "" {
		if t, perr := time.Parse(time.RFC3339, raw); perr == nil {
			visitDate = t
		}
	}
	source := note.TranscriptSource(c.DefaultPostForm("source", string(note.SourceUploaded)))

	callerID, callerRole := caller(c)
	start := time.Now()
	n, err := h.noteSvc.CreateNoteFromAudio(c.Request.Context(), patientID, callerID, visitDate, source,
		fileHeader.Filename, fileHeader.Size, file, callerID, callerRole, c.ClientIP())

	if h.collector != nil {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		h.collector.TranscriptionsTotal.WithLabelValues(outcome).Inc()
		h.collector.TranscriptionDuration.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		respondServiceError(c, err)
		return
	}

	if h.collector != nil {
		h.collector.NotesCreatedTotal.WithLabelValues(string(n.TranscriptSource)).Inc()
	}

	respondCreated(c, n)
}

// Generate runs (or re-runs) SOAP generation for a draft note.
func (h *NoteHandler) Generate(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	callerID, callerRole := caller(c)
	n, err := h.noteSvc.GenerateSOAP(c.Request.Context(), id, callerID, callerRole, c.ClientIP())

	if h.collector != nil {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		h.collector.NotesGeneratedTotal.WithLabelValues(outcome).Inc()
	}

	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, n)
}

type updateDraftRequest struct {
	Transcript *string    `json:"transcript"`
	VisitDate  *time.Time `json:"visit_date"`
	SOAP       *note.SOAP `json:"soap"`
}

func (h *NoteHandler) UpdateDraft(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateDraftRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, callerRole := caller(c)
	n, err := h.noteSvc.UpdateDraft(c.Request.Context(), id, &note.UpdateDraftCommand{
		Transcript: req.Transcript,
		VisitDate:  req.VisitDate,
		SOAP:       req.SOAP,
		UpdatedBy:  callerID,
	}, callerID, callerRole, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, n)
}

type finalizeResponse struct {
	Note     *note.Note               `json:"note"`
	Analysis *service.AnalysisOutcome `json:"analysis,omitempty"`
}

// Finalize locks a draft, then runs checklist analysis best-effort. A failed
// analysis never blocks finalization; the checklist can be re-analyzed later.
func (h *NoteHandler) Finalize(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	callerID, callerRole := caller(c)
	n, err := h.noteSvc.FinalizeNote(c.Request.Context(), id, callerID, callerRole, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if h.collector != nil {
		h.collector.NotesFinalizedTotal.Inc()
	}

	resp := finalizeResponse{Note: n}
	outcome, aerr := h.checklistSvc.AnalyzeVisit(c.Request.Context(), id, callerID, callerRole, c.ClientIP())
	switch {
	case aerr == nil:
		resp.Analysis = outcome
		h.recordAnalysis(outcome)
	case errors.Is(aerr, service.ErrChecklistDisabled):
		// Clinician opted out; nothing to record.
	default:
		h.log.Warn("post-finalization analysis failed",
			zap.String("note_id", id.String()),
			zap.Error(aerr),
		)
	}

	respondOK(c, resp)
}

// Analyze re-runs checklist analysis for a note on demand.
func (h *NoteHandler) Analyze(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	callerID, callerRole := caller(c)
	outcome, err := h.checklistSvc.AnalyzeVisit(c.Request.Context(), id, callerID, callerRole, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.recordAnalysis(outcome)
	respondOK(c, outcome)
}

func (h *NoteHandler) recordAnalysis(outcome *service.AnalysisOutcome) {
	if h.collector == nil || outcome == nil {
		return
	}
	h.collector.AnalysisRunsTotal.WithLabelValues(outcome.Mode).Inc()
	for _, it := range outcome.Items {
		if it.Points > 0 {
			h.collector.ChecklistHits.WithLabelValues(string(it.Method)).Inc()
		}
	}
}

type addAddendumRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *NoteHandler) AddAddendum(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req addAddendumRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, callerRole := caller(c)
	a, err := h.noteSvc.AddAddendum(c.Request.Context(), &note.AddAddendumCommand{
		NoteID:    id,
		Content:   req.Content,
		CreatedBy: callerID,
	}, callerID, callerRole, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, a)
}

func (h *NoteHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	callerID, callerRole := caller(c)
	n, err := h.noteSvc.GetNote(c.Request.Context(), id, callerID, callerRole, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, n)
}

func (h *NoteHandler) List(c *gin.Context) {
	q := &note.ListNotesQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}

	if raw := c.Query("patient_id"); raw != "" {
		if id, ok := parseUUIDString(raw); ok {
			q.PatientID = &id
		}
	}
	if raw := c.Query("status"); raw != "" {
		status := note.Status(raw)
		q.Status = &status
	}
	if raw := c.Query("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			q.DateFrom = &t
		}
	}
	if raw := c.Query("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			q.DateTo = &t
		}
	}

	callerID, callerRole := caller(c)
	paged, err := h.noteSvc.ListNotes(c.Request.Context(), q, callerID, callerRole)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, paged)
}

func (h *NoteHandler) Delete(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	callerID, callerRole := caller(c)
	if err := h.noteSvc.DeleteNote(c.Request.Context(), id, callerID, callerRole, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"deleted": true})
}
