package handlers

import (
	"errors"
	"io"
	"net/http"

	"mistakevault/internal/contextutil"
	"mistakevault/internal/service"
)

// MaxUploadBytes caps the size of an uploaded screenshot.
const MaxUploadBytes = 20 << 20

// UploadHandler handles HTTP requests for adding a screenshot to the vault.
type UploadHandler struct {
	svc service.RecordService
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(svc service.RecordService) *UploadHandler {
	return &UploadHandler{svc: svc}
}

// ServeHTTP handles POST /api/uploads as multipart/form-data with fields
// file, answer, question_text and topic.
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		logger.WarnContext(ctx, "invalid multipart form", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.ErrorContext(ctx, "failed to read upload", "error", err)
		writeError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	rec, err := h.svc.Upload(ctx, service.UploadRequest{
		Filename:     header.Filename,
		Data:         data,
		Answer:       r.FormValue("answer"),
		QuestionText: r.FormValue("question_text"),
		Topic:        r.FormValue("topic"),
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to save upload")
		return
	}

	writeJSON(ctx, w, http.StatusCreated, toRecordResponse(&rec, ""))
}
