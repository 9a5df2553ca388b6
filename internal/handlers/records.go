package handlers

import (
	"bytes"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"mistakevault/internal/contextutil"
	"mistakevault/internal/service"
	"mistakevault/internal/storage"
)

// RecordResponse is the API view of a record.
type RecordResponse struct {
	ID                 string            `json:"id"`
	Status             storage.Status    `json:"status"`
	Answer             string            `json:"answer"`
	HasAnswer          bool              `json:"has_answer"`
	QuestionText       string            `json:"question_text,omitempty"`
	QuestionHTML       string            `json:"question_html,omitempty"`
	Topic              string            `json:"topic,omitempty"`
	SourceBatch        string            `json:"source_batch,omitempty"`
	OriginalFilename   string            `json:"original_filename,omitempty"`
	AddedAt            string            `json:"added_at,omitempty"`
	TimesPracticed     int               `json:"times_practiced"`
	TimesCorrect       int               `json:"times_correct"`
	ImageURL           string            `json:"image_url"`
	AICalculatedAnswer *string           `json:"ai_calculated_answer,omitempty"`
	MatchConfidence    float64           `json:"match_confidence"`
	Analysis           *storage.Analysis `json:"analysis,omitempty"`
}

// UpdateRecordRequest represents the HTTP request payload for editing a record.
type UpdateRecordRequest struct {
	Answer       *string `json:"answer"`
	QuestionText *string `json:"question_text"`
	Topic        *string `json:"topic"`
	Status       *string `json:"status"`
}

// RecordHandler serves the record management endpoints.
type RecordHandler struct {
	svc      service.RecordService
	markdown goldmark.Markdown
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(svc service.RecordService) *RecordHandler {
	return &RecordHandler{
		svc: svc,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.Table, extension.Strikethrough),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

// List handles GET /api/records?topic=&mode=&status=.
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q := r.URL.Query()
	records, err := h.svc.List(ctx, service.ListFilter{
		Topic:  q.Get("topic"),
		Mode:   q.Get("mode"),
		Status: q.Get("status"),
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list records")
		return
	}

	resp := make([]RecordResponse, 0, len(records))
	for i := range records {
		resp = append(resp, toRecordResponse(&records[i], ""))
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// Get handles GET /api/records/{id}. The question text is rendered as markdown.
func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	rec, err := h.svc.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to load record")
		return
	}

	questionHTML := ""
	if rec.QuestionText != "" {
		var buf bytes.Buffer
		if err := h.markdown.Convert([]byte(rec.QuestionText), &buf); err != nil {
			logger.WarnContext(ctx, "failed to render question text", "id", rec.ID, "error", err)
		} else {
			questionHTML = buf.String()
		}
	}

	writeJSON(ctx, w, http.StatusOK, toRecordResponse(&rec, questionHTML))
}

// Update handles PATCH /api/records/{id}.
func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UpdateRecordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, err := h.svc.Update(ctx, service.UpdateRequest{
		ID:           chi.URLParam(r, "id"),
		Answer:       req.Answer,
		QuestionText: req.QuestionText,
		Topic:        req.Topic,
		Status:       req.Status,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to update record")
		return
	}

	writeJSON(ctx, w, http.StatusOK, toRecordResponse(&rec, ""))
}

// Delete handles DELETE /api/records/{id}?purge=true.
func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	purge := false
	if v := r.URL.Query().Get("purge"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid purge value")
			return
		}
		purge = parsed
	}

	if err := h.svc.Delete(ctx, chi.URLParam(r, "id"), purge); err != nil {
		handleServiceError(ctx, w, err, "Failed to delete record")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Attempts handles GET /api/records/{id}/attempts.
func (h *RecordHandler) Attempts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	attempts, err := h.svc.Attempts(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to load attempts")
		return
	}

	resp := make([]AttemptResponse, 0, len(attempts))
	for _, a := range attempts {
		resp = append(resp, AttemptResponse{
			Given:       a.Given,
			Expected:    a.Expected,
			Correct:     a.Correct,
			Mode:        a.Mode,
			AttemptedAt: a.AttemptedAt.UTC().Format(timeLayout),
		})
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// Image handles GET /api/records/{id}/image.
func (h *RecordHandler) Image(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	path, err := h.svc.ImagePath(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to load image")
		return
	}

	if _, err := os.Stat(path); err != nil {
		logger.WarnContext(ctx, "image missing from vault", "path", path, "error", err)
		writeError(w, http.StatusNotFound, "Image not found")
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeFile(w, r, path)
}

func toRecordResponse(rec *storage.Record, questionHTML string) RecordResponse {
	resp := RecordResponse{
		ID:               rec.ID,
		Status:           rec.CurrentStatus(),
		Answer:           rec.Answer(),
		HasAnswer:        rec.HasAnswer(),
		QuestionText:     rec.QuestionText,
		QuestionHTML:     questionHTML,
		Topic:            rec.Topic,
		SourceBatch:      rec.SourceBatch,
		OriginalFilename: rec.OriginalFilename,
		AddedAt:          rec.Created,
		TimesPracticed:   rec.TimesPracticed,
		TimesCorrect:     rec.TimesCorrect,
		ImageURL:         "/api/records/" + rec.ID + "/image",
		Analysis:         rec.Meta,
	}
	if resp.AddedAt == "" {
		resp.AddedAt = rec.IngestDate
	}
	if rec.Data != nil {
		resp.AICalculatedAnswer = rec.Data.AICalculatedAnswer
		resp.MatchConfidence = rec.Data.MatchConfidence
	}
	return resp
}
