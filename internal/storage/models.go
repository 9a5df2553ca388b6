package storage

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle state of a Record.
type Status string

const (
	StatusPendingVerification Status = "pending_ai_verification"
	StatusAutoVerified        Status = "auto_verified"
	StatusFlagged             Status = "flagged_for_review"
	StatusError               Status = "error_processing"
	StatusActive              Status = "active"
	StatusMastered            Status = "mastered"
	StatusDeleted             Status = "deleted"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPendingVerification, StatusAutoVerified, StatusFlagged, StatusError,
		StatusActive, StatusMastered, StatusDeleted:
		return true
	}
	return false
}

// Record is one vaulted screenshot in the JSON store.
// Field names are shared with every earlier version of the store file and must not change.
type Record struct {
	ID               string `json:"id"`
	FilePath         string `json:"file_path"`
	OriginalFilename string `json:"original_filename,omitempty"`
	SourceBatch      string `json:"source_batch,omitempty"`
	FileHash         string `json:"file_hash,omitempty"`
	IngestDate       string `json:"ingest_date,omitempty"`
	Created          string `json:"created,omitempty"`
	Status           Status `json:"status,omitempty"`

	// AnswerText is the answer as written by the upload and practice flows.
	// Records created by batch ingestion carry their answer in Data.UserCorrectKey instead.
	AnswerText   string `json:"answer,omitempty"`
	QuestionText string `json:"question_text,omitempty"`
	Topic        string `json:"topic,omitempty"`

	TimesPracticed int `json:"times_practiced"`
	TimesCorrect   int `json:"times_correct"`

	Data *VerificationData `json:"data,omitempty"`
	Meta *Analysis         `json:"meta,omitempty"`
}

// VerificationData holds the answer key and the vision model's verdict.
type VerificationData struct {
	UserCorrectKey     string  `json:"user_correct_key"`
	AICalculatedAnswer *string `json:"ai_calculated_answer"`
	MatchConfidence    float64 `json:"match_confidence"`
}

// Analysis is the structured result returned by the vision model.
// Keys the model returned beyond the known ones are kept in Extra and written back unchanged.
type Analysis struct {
	QuestionText     string `json:"question_text"`
	TopicTag         string `json:"topic_tag"`
	CalculatedAnswer string `json:"calculated_answer"`
	LogicTemplate    string `json:"logic_template"`
	ReasoningSteps   string `json:"reasoning_steps"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Answer returns the authoritative expected answer, checking the top-level field first
// and the legacy data.user_correct_key location second.
func (r *Record) Answer() string {
	if r.AnswerText != "" {
		return r.AnswerText
	}
	if r.Data != nil {
		return r.Data.UserCorrectKey
	}
	return ""
}

// SetAnswer records a new expected answer.
func (r *Record) SetAnswer(answer string) {
	r.AnswerText = answer
}

// HasAnswer reports whether the record has an expected answer in either location.
func (r *Record) HasAnswer() bool {
	return r.Answer() != ""
}

// CurrentStatus returns the record status, treating a missing status as active.
func (r *Record) CurrentStatus() Status {
	if r.Status == "" {
		return StatusActive
	}
	return r.Status
}

// RecordPractice counts one practice attempt. The invariant
// TimesCorrect <= TimesPracticed holds after every call.
func (r *Record) RecordPractice(correct bool) {
	r.TimesPracticed++
	if correct {
		r.TimesCorrect++
	}
	if r.TimesCorrect > r.TimesPracticed {
		r.TimesCorrect = r.TimesPracticed
	}
}

// Attempt is one practice answer stored in the attempt log.
type Attempt struct {
	ID          int64
	RecordID    string
	Given       string
	Expected    string
	Correct     bool
	Mode        string
	AttemptedAt time.Time
}
