package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"mistakevault/internal/service"
)

const timeLayout = time.RFC3339

// CheckRequest represents the HTTP request payload for a practice answer.
type CheckRequest struct {
	Answer string `json:"answer"`
}

// LearnRequest represents the HTTP request payload for a learning-mode answer.
type LearnRequest struct {
	Answer        string `json:"answer"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer"`
}

// CheckResponse represents the HTTP response payload for check and learn.
type CheckResponse struct {
	Correct        bool   `json:"correct"`
	Expected       string `json:"expected"`
	TimesPracticed int    `json:"times_practiced"`
	TimesCorrect   int    `json:"times_correct"`
}

// AttemptResponse is one entry of a record's practice history.
type AttemptResponse struct {
	Given       string `json:"given"`
	Expected    string `json:"expected"`
	Correct     bool   `json:"correct"`
	Mode        string `json:"mode"`
	AttemptedAt string `json:"attempted_at"`
}

// PracticeHandler serves the practice and learning endpoints.
type PracticeHandler struct {
	svc service.RecordService
}

// NewPracticeHandler creates a new PracticeHandler.
func NewPracticeHandler(svc service.RecordService) *PracticeHandler {
	return &PracticeHandler{svc: svc}
}

// Check handles POST /api/records/{id}/check.
func (h *PracticeHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CheckRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.Check(ctx, service.CheckRequest{
		ID:     chi.URLParam(r, "id"),
		Answer: req.Answer,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to check answer")
		return
	}

	writeJSON(ctx, w, http.StatusOK, toCheckResponse(result))
}

// Learn handles POST /api/records/{id}/learn.
func (h *PracticeHandler) Learn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LearnRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.Learn(ctx, service.LearnRequest{
		ID:            chi.URLParam(r, "id"),
		Answer:        req.Answer,
		Correct:       req.Correct,
		CorrectAnswer: req.CorrectAnswer,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to save answer")
		return
	}

	writeJSON(ctx, w, http.StatusOK, toCheckResponse(result))
}

func toCheckResponse(r service.CheckResult) CheckResponse {
	return CheckResponse{
		Correct:        r.Correct,
		Expected:       r.Expected,
		TimesPracticed: r.TimesPracticed,
		TimesCorrect:   r.TimesCorrect,
	}
}
