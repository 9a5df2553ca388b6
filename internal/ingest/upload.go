package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"mistakevault/internal/contextutil"
	"mistakevault/internal/storage"
	"mistakevault/internal/vault"
)

var (
	// ErrDuplicate is returned when uploaded content is already vaulted.
	ErrDuplicate = errors.New("duplicate content")
	// ErrUnsupportedType is returned for uploads that are not PNG or JPEG images.
	ErrUnsupportedType = errors.New("unsupported image type")
)

var allowedUploadTypes = []string{"image/png", "image/jpeg"}

// UploadItem is one image submitted through the upload flow.
type UploadItem struct {
	Filename     string
	Data         []byte
	Answer       string
	QuestionText string
	Topic        string
}

// Uploader adds single images straight into the vault, bypassing the inbox.
type Uploader struct {
	store storage.RecordStore
	vault *vault.Manager
	now   func() time.Time
}

// NewUploader creates a new uploader.
func NewUploader(store storage.RecordStore, vaultManager *vault.Manager) *Uploader {
	return &Uploader{
		store: store,
		vault: vaultManager,
		now:   time.Now,
	}
}

// SetClock replaces the time source used for ids and creation dates.
func (u *Uploader) SetClock(now func() time.Time) {
	u.now = now
}

// Add vaults item and returns the new record. An empty answer is allowed and puts the
// record into learning mode. Content already in the store yields ErrDuplicate and nothing
// is written.
func (u *Uploader) Add(ctx context.Context, item UploadItem) (*storage.Record, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(item.Data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrUnsupportedType)
	}
	mtype := mimetype.Detect(item.Data)
	if !mimetype.EqualsAny(mtype.String(), allowedUploadTypes...) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
	}

	ext := strings.ToLower(filepath.Ext(item.Filename))
	if !vault.IsImage(ext) {
		ext = mtype.Extension()
	}

	hash := HashBytes(item.Data)
	var created storage.Record

	err := u.store.Update(ctx, func(records []storage.Record) ([]storage.Record, bool, error) {
		for i := range records {
			if records[i].FileHash == hash {
				return nil, false, fmt.Errorf("%w: matches %s", ErrDuplicate, records[i].ID)
			}
		}

		now := u.now()
		id := newIDAllocator(records, now).Next()
		filePath, err := u.vault.Write(id+ext, item.Data)
		if err != nil {
			return nil, false, err
		}

		created = storage.Record{
			ID:               id,
			FilePath:         filePath,
			OriginalFilename: item.Filename,
			FileHash:         hash,
			Created:          now.Format(time.RFC3339),
			Status:           storage.StatusActive,
			AnswerText:       strings.TrimSpace(item.Answer),
			QuestionText:     strings.TrimSpace(item.QuestionText),
			Topic:            strings.TrimSpace(item.Topic),
		}
		return append(records, created), true, nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			logger.WarnContext(ctx, "duplicate upload skipped", "file", item.Filename)
			return nil, err
		}
		if created.FilePath != "" {
			// Store write failed after the image landed in the vault.
			_ = u.vault.Remove(created.FilePath)
		}
		return nil, err
	}

	logger.InfoContext(ctx, "upload saved", "id", created.ID, "file", item.Filename, "learning_mode", !created.HasAnswer())
	return &created, nil
}
