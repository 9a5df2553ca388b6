package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_record_store.go -package=mocks mistakevault/internal/storage RecordStore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// lockRetryDelay is how often Update retries a held store lock.
const lockRetryDelay = 50 * time.Millisecond

// UpdateFunc mutates records in place or returns a new slice.
// It reports whether anything changed; unchanged stores are not rewritten.
type UpdateFunc func(records []Record) ([]Record, bool, error)

// RecordStore defines the load/save boundary of the JSON record store.
type RecordStore interface {
	// Load reads every record. A missing store file yields an empty slice.
	Load(ctx context.Context) ([]Record, error)
	// Save replaces the store file with records.
	Save(ctx context.Context, records []Record) error
	// Update runs fn between a Load and a Save while holding the store lock.
	// Save is skipped when fn reports no change or returns an error.
	Update(ctx context.Context, fn UpdateFunc) error
}

// JSONStore keeps all records in a single JSON array file.
// It implements the RecordStore interface.
type JSONStore struct {
	path string
	lock *flock.Flock
}

// NewJSONStore creates a store backed by the file at path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the store file location.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads every record. A missing store file yields an empty slice.
func (s *JSONStore) Load(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store %s: %w", s.path, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode store %s: %w", s.path, err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// Save writes records to a temporary file next to the store and renames it over the
// original, so an interrupted write never leaves a truncated store behind.
func (s *JSONStore) Save(ctx context.Context, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = []Record{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace store: %w", err)
	}

	return nil
}

// Update runs fn between a Load and a Save while holding the store lock.
func (s *JSONStore) Update(ctx context.Context, fn UpdateFunc) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to lock store: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to lock store %s", s.path)
	}
	defer func() {
		_ = s.lock.Unlock()
	}()

	records, err := s.Load(ctx)
	if err != nil {
		return err
	}

	updated, changed, err := fn(records)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	return s.Save(ctx, updated)
}

// FindByID returns the index of the record with the given id, or -1.
func FindByID(records []Record, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}
