package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_uploader.go -package=mocks mistakevault/internal/service Uploader
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_record_service.go -package=mocks -mock_names=RecordService=MockRecordService mistakevault/internal/service RecordService

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"mistakevault/internal/answer"
	"mistakevault/internal/contextutil"
	"mistakevault/internal/ingest"
	"mistakevault/internal/storage"
)

// Practice modes.
const (
	ModePractice = "practice"
	ModeLearning = "learning"
)

// FileStore resolves and removes vault images.
// This interface is defined from the service layer's perspective (consumer-first).
type FileStore interface {
	AbsPath(filePath string) string
	Remove(filePath string) error
}

// Uploader vaults a single uploaded image.
type Uploader interface {
	Add(ctx context.Context, item ingest.UploadItem) (*storage.Record, error)
}

// ListFilter narrows List results.
type ListFilter struct {
	Topic  string `json:"topic"`
	Mode   string `json:"mode" validate:"omitempty,oneof=practice learning"`
	Status string `json:"status" validate:"omitempty,oneof=pending_ai_verification auto_verified flagged_for_review error_processing active mastered deleted"`
}

// CheckRequest is a practice-mode answer.
type CheckRequest struct {
	ID     string `json:"id" validate:"required"`
	Answer string `json:"answer" validate:"required,max=500"`
}

// LearnRequest records the outcome of a learning-mode question, one without a stored answer.
// When the child was right their answer becomes the stored answer; otherwise CorrectAnswer does.
type LearnRequest struct {
	ID            string `json:"id" validate:"required"`
	Answer        string `json:"answer" validate:"required_if=Correct true,max=500"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer" validate:"required_if=Correct false,max=500"`
}

// CheckResult is the outcome of a Check or Learn call.
type CheckResult struct {
	Correct        bool   `json:"correct"`
	Expected       string `json:"expected"`
	TimesPracticed int    `json:"times_practiced"`
	TimesCorrect   int    `json:"times_correct"`
}

// UpdateRequest edits a record. Nil fields are left unchanged.
type UpdateRequest struct {
	ID           string  `json:"id" validate:"required"`
	Answer       *string `json:"answer,omitempty" validate:"omitempty,max=500"`
	QuestionText *string `json:"question_text,omitempty" validate:"omitempty,max=10000"`
	Topic        *string `json:"topic,omitempty" validate:"omitempty,max=200"`
	Status       *string `json:"status,omitempty" validate:"omitempty,oneof=pending_ai_verification auto_verified flagged_for_review error_processing active mastered deleted"`
}

// UploadRequest is a single image submitted for the vault.
type UploadRequest struct {
	Filename     string `json:"filename" validate:"required,max=255"`
	Data         []byte `json:"-" validate:"required,min=1"`
	Answer       string `json:"answer" validate:"max=500"`
	QuestionText string `json:"question_text" validate:"max=10000"`
	Topic        string `json:"topic" validate:"max=200"`
}

// Stats summarizes the store.
type Stats struct {
	Total            int                    `json:"total"`
	WithQuestionText int                    `json:"with_question_text"`
	WithAnswer       int                    `json:"with_answer"`
	Attempts         int                    `json:"attempts"`
	Correct          int                    `json:"correct"`
	Accuracy         float64                `json:"accuracy"`
	ByStatus         map[storage.Status]int `json:"by_status"`
}

// RecordService provides the manage and practice operations over vaulted records.
type RecordService interface {
	// List returns records that are not deleted, narrowed by filter.
	List(ctx context.Context, filter ListFilter) ([]storage.Record, error)
	// Get returns one record, including deleted ones.
	Get(ctx context.Context, id string) (storage.Record, error)
	// Topics returns the sorted distinct topics of live records.
	Topics(ctx context.Context) ([]string, error)
	// Check compares a practice answer with the stored answer.
	Check(ctx context.Context, req CheckRequest) (CheckResult, error)
	// Learn stores the answer for a learning-mode record.
	Learn(ctx context.Context, req LearnRequest) (CheckResult, error)
	// Update edits a record.
	Update(ctx context.Context, req UpdateRequest) (storage.Record, error)
	// Delete marks a record deleted, or removes it and its image when purge is set.
	Delete(ctx context.Context, id string, purge bool) error
	// Stats summarizes the store.
	Stats(ctx context.Context) (Stats, error)
	// Attempts returns the practice history of a record.
	Attempts(ctx context.Context, id string) ([]storage.Attempt, error)
	// ImagePath returns the absolute path of a record's image.
	ImagePath(ctx context.Context, id string) (string, error)
	// Upload vaults a new image.
	Upload(ctx context.Context, req UploadRequest) (storage.Record, error)
}

// recordService implements RecordService.
type recordService struct {
	store    storage.RecordStore
	attempts storage.AttemptStore
	files    FileStore
	uploader Uploader
	validate *validator.Validate
	now      func() time.Time
}

// NewRecordService creates a new RecordService. attempts may be nil, in which case no
// practice history is kept.
func NewRecordService(store storage.RecordStore, attempts storage.AttemptStore, files FileStore, uploader Uploader) RecordService {
	return &recordService{
		store:    store,
		attempts: attempts,
		files:    files,
		uploader: uploader,
		validate: newValidator(),
		now:      time.Now,
	}
}

// List returns records that are not deleted, narrowed by filter.
func (s *recordService) List(ctx context.Context, filter ListFilter) ([]storage.Record, error) {
	filter.Topic = strings.TrimSpace(filter.Topic)
	if err := validateStruct(s.validate, filter); err != nil {
		return nil, err
	}

	records, err := s.store.Load(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to load records")
	}

	out := make([]storage.Record, 0, len(records))
	for _, rec := range records {
		status := rec.CurrentStatus()
		if filter.Status != "" {
			if status != storage.Status(filter.Status) {
				continue
			}
		} else if status == storage.StatusDeleted {
			continue
		}
		if filter.Topic != "" && rec.Topic != filter.Topic {
			continue
		}
		switch filter.Mode {
		case ModePractice:
			if !rec.HasAnswer() {
				continue
			}
		case ModeLearning:
			if rec.HasAnswer() {
				continue
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// Get returns one record, including deleted ones.
func (s *recordService) Get(ctx context.Context, id string) (storage.Record, error) {
	records, err := s.store.Load(ctx)
	if err != nil {
		return storage.Record{}, WrapError(err, "failed to load records")
	}
	i := storage.FindByID(records, strings.TrimSpace(id))
	if i < 0 {
		return storage.Record{}, ErrNotFound
	}
	return records[i], nil
}

// Topics returns the sorted distinct topics of live records.
func (s *recordService) Topics(ctx context.Context) ([]string, error) {
	records, err := s.store.Load(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to load records")
	}

	seen := make(map[string]bool)
	topics := []string{}
	for _, rec := range records {
		if rec.Topic == "" || rec.CurrentStatus() == storage.StatusDeleted || seen[rec.Topic] {
			continue
		}
		seen[rec.Topic] = true
		topics = append(topics, rec.Topic)
	}
	sort.Strings(topics)
	return topics, nil
}

// Check compares a practice answer with the stored answer using the strict rule and
// counts the attempt.
func (s *recordService) Check(ctx context.Context, req CheckRequest) (CheckResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	req.ID = strings.TrimSpace(req.ID)
	req.Answer = strings.TrimSpace(req.Answer)
	if err := validateStruct(s.validate, req); err != nil {
		logger.WarnContext(ctx, "invalid check request", "error", err)
		return CheckResult{}, err
	}

	var result CheckResult
	err := s.store.Update(ctx, func(records []storage.Record) ([]storage.Record, bool, error) {
		rec, err := liveRecord(records, req.ID)
		if err != nil {
			return nil, false, err
		}
		expected := rec.Answer()
		if expected == "" {
			return nil, false, ErrNoAnswer
		}

		correct := answer.MatchStrict(req.Answer, expected)
		rec.RecordPractice(correct)
		result = CheckResult{
			Correct:        correct,
			Expected:       expected,
			TimesPracticed: rec.TimesPracticed,
			TimesCorrect:   rec.TimesCorrect,
		}
		return records, true, nil
	})
	if err != nil {
		return CheckResult{}, storeError(err, "failed to record practice")
	}

	s.logAttempt(ctx, storage.Attempt{
		RecordID: req.ID,
		Given:    req.Answer,
		Expected: result.Expected,
		Correct:  result.Correct,
		Mode:     ModePractice,
	})

	logger.InfoContext(ctx, "answer checked", "id", req.ID, "correct", result.Correct)
	return result, nil
}

// Learn stores the answer for a learning-mode record and counts the attempt.
func (s *recordService) Learn(ctx context.Context, req LearnRequest) (CheckResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	req.ID = strings.TrimSpace(req.ID)
	req.Answer = strings.TrimSpace(req.Answer)
	req.CorrectAnswer = strings.TrimSpace(req.CorrectAnswer)
	if err := validateStruct(s.validate, req); err != nil {
		logger.WarnContext(ctx, "invalid learn request", "error", err)
		return CheckResult{}, err
	}

	expected := req.CorrectAnswer
	if req.Correct {
		expected = req.Answer
	}

	var result CheckResult
	err := s.store.Update(ctx, func(records []storage.Record) ([]storage.Record, bool, error) {
		rec, err := liveRecord(records, req.ID)
		if err != nil {
			return nil, false, err
		}
		if rec.HasAnswer() {
			return nil, false, ErrAlreadyAnswered
		}

		rec.SetAnswer(expected)
		rec.RecordPractice(req.Correct)
		result = CheckResult{
			Correct:        req.Correct,
			Expected:       expected,
			TimesPracticed: rec.TimesPracticed,
			TimesCorrect:   rec.TimesCorrect,
		}
		return records, true, nil
	})
	if err != nil {
		return CheckResult{}, storeError(err, "failed to record answer")
	}

	s.logAttempt(ctx, storage.Attempt{
		RecordID: req.ID,
		Given:    req.Answer,
		Expected: expected,
		Correct:  req.Correct,
		Mode:     ModeLearning,
	})

	logger.InfoContext(ctx, "answer learned", "id", req.ID, "correct", req.Correct)
	return result, nil
}

// Update edits a record.
func (s *recordService) Update(ctx context.Context, req UpdateRequest) (storage.Record, error) {
	logger := contextutil.LoggerFromContext(ctx)

	req.ID = strings.TrimSpace(req.ID)
	trimPtr(req.Answer)
	trimPtr(req.QuestionText)
	trimPtr(req.Topic)
	if err := validateStruct(s.validate, req); err != nil {
		logger.WarnContext(ctx, "invalid update request", "error", err)
		return storage.Record{}, err
	}

	var updated storage.Record
	err := s.store.Update(ctx, func(records []storage.Record) ([]storage.Record, bool, error) {
		i := storage.FindByID(records, req.ID)
		if i < 0 {
			return nil, false, ErrNotFound
		}
		rec := &records[i]
		if req.Answer != nil {
			rec.SetAnswer(*req.Answer)
		}
		if req.QuestionText != nil {
			rec.QuestionText = *req.QuestionText
		}
		if req.Topic != nil {
			rec.Topic = *req.Topic
		}
		if req.Status != nil {
			rec.Status = storage.Status(*req.Status)
		}
		updated = *rec
		return records, true, nil
	})
	if err != nil {
		return storage.Record{}, storeError(err, "failed to update record")
	}

	logger.InfoContext(ctx, "record updated", "id", req.ID)
	return updated, nil
}

// Delete marks a record deleted, or removes it and its image when purge is set.
func (s *recordService) Delete(ctx context.Context, id string, purge bool) error {
	logger := contextutil.LoggerFromContext(ctx)

	id = strings.TrimSpace(id)
	if id == "" {
		return &ValidationError{Field: "id", Message: "cannot be empty"}
	}

	var filePath string
	err := s.store.Update(ctx, func(records []storage.Record) ([]storage.Record, bool, error) {
		i := storage.FindByID(records, id)
		if i < 0 {
			return nil, false, ErrNotFound
		}
		if !purge {
			if records[i].Status == storage.StatusDeleted {
				return records, false, nil
			}
			records[i].Status = storage.StatusDeleted
			return records, true, nil
		}
		filePath = records[i].FilePath
		return append(records[:i], records[i+1:]...), true, nil
	})
	if err != nil {
		return storeError(err, "failed to delete record")
	}

	if purge && filePath != "" && s.files != nil {
		if err := s.files.Remove(filePath); err != nil {
			logger.WarnContext(ctx, "record purged but image removal failed", "id", id, "file_path", filePath, "error", err)
		}
	}

	logger.InfoContext(ctx, "record deleted", "id", id, "purge", purge)
	return nil
}

// Stats summarizes the store. Deleted records are counted only in ByStatus.
func (s *recordService) Stats(ctx context.Context) (Stats, error) {
	records, err := s.store.Load(ctx)
	if err != nil {
		return Stats{}, WrapError(err, "failed to load records")
	}

	stats := Stats{ByStatus: make(map[storage.Status]int)}
	for _, rec := range records {
		status := rec.CurrentStatus()
		stats.ByStatus[status]++
		if status == storage.StatusDeleted {
			continue
		}
		stats.Total++
		if rec.QuestionText != "" {
			stats.WithQuestionText++
		}
		if rec.HasAnswer() {
			stats.WithAnswer++
		}
		stats.Attempts += rec.TimesPracticed
		stats.Correct += rec.TimesCorrect
	}
	if stats.Attempts > 0 {
		stats.Accuracy = float64(stats.Correct) / float64(stats.Attempts) * 100
	}
	return stats, nil
}

// Attempts returns the practice history of a record.
func (s *recordService) Attempts(ctx context.Context, id string) ([]storage.Attempt, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if s.attempts == nil {
		return []storage.Attempt{}, nil
	}

	attempts, err := s.attempts.ListByRecord(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, WrapError(err, "failed to list attempts")
	}
	return attempts, nil
}

// ImagePath returns the absolute path of a record's image.
func (s *recordService) ImagePath(ctx context.Context, id string) (string, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	path := s.files.AbsPath(rec.FilePath)
	if path == "" {
		return "", ErrNotFound
	}
	return path, nil
}

// Upload vaults a new image.
func (s *recordService) Upload(ctx context.Context, req UploadRequest) (storage.Record, error) {
	logger := contextutil.LoggerFromContext(ctx)

	req.Filename = strings.TrimSpace(req.Filename)
	if err := validateStruct(s.validate, req); err != nil {
		logger.WarnContext(ctx, "invalid upload request", "error", err)
		return storage.Record{}, err
	}

	rec, err := s.uploader.Add(ctx, ingest.UploadItem{
		Filename:     req.Filename,
		Data:         req.Data,
		Answer:       req.Answer,
		QuestionText: req.QuestionText,
		Topic:        req.Topic,
	})
	switch {
	case err == nil:
		return *rec, nil
	case errors.Is(err, ingest.ErrDuplicate):
		return storage.Record{}, ErrDuplicate
	case errors.Is(err, ingest.ErrUnsupportedType):
		return storage.Record{}, &ValidationError{Field: "file", Message: "must be a PNG or JPEG image"}
	default:
		logger.ErrorContext(ctx, "upload failed", "error", err)
		return storage.Record{}, WrapError(err, "failed to upload")
	}
}

func (s *recordService) logAttempt(ctx context.Context, a storage.Attempt) {
	if s.attempts == nil {
		return
	}
	a.AttemptedAt = s.now()
	if err := s.attempts.Insert(ctx, &a); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to log attempt", "id", a.RecordID, "error", err)
	}
}

// liveRecord finds a record that has not been deleted.
func liveRecord(records []storage.Record, id string) (*storage.Record, error) {
	i := storage.FindByID(records, id)
	if i < 0 || records[i].CurrentStatus() == storage.StatusDeleted {
		return nil, ErrNotFound
	}
	return &records[i], nil
}

// storeError passes service sentinels through and wraps everything else.
func storeError(err error, msg string) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNoAnswer) || errors.Is(err, ErrAlreadyAnswered) {
		return err
	}
	return WrapError(err, msg)
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
