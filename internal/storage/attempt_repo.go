package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_attempt_store.go -package=mocks mistakevault/internal/storage AttemptStore

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AttemptStore defines the interface for the practice attempt log.
type AttemptStore interface {
	// Insert appends an attempt. attempt.ID is set on success.
	Insert(ctx context.Context, attempt *Attempt) error
	// ListByRecord returns attempts for a record, oldest first.
	// Returns an empty slice if there are none (not an error).
	ListByRecord(ctx context.Context, recordID string) ([]Attempt, error)
}

// AttemptRepo provides methods for attempt operations.
// It implements the AttemptStore interface.
type AttemptRepo struct {
	db *sql.DB
}

// NewAttemptRepo creates a new AttemptRepo.
func NewAttemptRepo(db *sql.DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// Insert appends an attempt. attempt.ID is set on success.
// A zero AttemptedAt is replaced with the current time.
func (r *AttemptRepo) Insert(ctx context.Context, attempt *Attempt) error {
	if attempt.AttemptedAt.IsZero() {
		attempt.AttemptedAt = time.Now().UTC()
	}

	correct := 0
	if attempt.Correct {
		correct = 1
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO attempts (record_id, given_answer, expected_answer, correct, mode, attempted_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		attempt.RecordID, attempt.Given, attempt.Expected, correct, attempt.Mode,
		attempt.AttemptedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert attempt: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get attempt id: %w", err)
	}
	attempt.ID = id
	return nil
}

// ListByRecord returns attempts for a record, oldest first.
func (r *AttemptRepo) ListByRecord(ctx context.Context, recordID string) ([]Attempt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, record_id, given_answer, expected_answer, correct, mode, attempted_at
		 FROM attempts WHERE record_id = ? ORDER BY id`,
		recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	attempts := []Attempt{}
	for rows.Next() {
		var a Attempt
		var correct int
		var attemptedAt string
		if err := rows.Scan(&a.ID, &a.RecordID, &a.Given, &a.Expected, &correct, &a.Mode, &attemptedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		a.Correct = correct == 1

		// Parse attempted_at (RFC3339 when written by Insert, SQLite default otherwise)
		a.AttemptedAt, err = time.Parse(time.RFC3339, attemptedAt)
		if err != nil {
			a.AttemptedAt, err = time.Parse("2006-01-02 15:04:05", attemptedAt)
			if err != nil {
				return nil, fmt.Errorf("failed to parse attempted_at timestamp: %w", err)
			}
		}

		attempts = append(attempts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return attempts, nil
}
