package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mistakevault/internal/contextutil"
	"mistakevault/internal/storage"
	"mistakevault/internal/vault"
)

// Pipeline moves answered screenshots from the inbox into the vault and records them.
type Pipeline struct {
	store            storage.RecordStore
	vault            *vault.Manager
	now              func() time.Time
	removeDuplicates bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock sets the time source used for ids and ingest dates.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// WithRemoveDuplicates deletes inbox files whose content is already vaulted.
func WithRemoveDuplicates(remove bool) Option {
	return func(p *Pipeline) {
		p.removeDuplicates = remove
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(store storage.RecordStore, vaultManager *vault.Manager, opts ...Option) *Pipeline {
	p := &Pipeline{
		store: store,
		vault: vaultManager,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Report summarizes one ingestion run.
type Report struct {
	Ingested   []IngestedFile `json:"ingested"`
	Duplicates []SkippedFile  `json:"duplicates"`
	MissingKey []SkippedFile  `json:"missing_key"`
	Removed    int            `json:"removed"`
}

// IngestedFile is an inbox image that became a record.
type IngestedFile struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Batch    string `json:"batch"`
	Answer   string `json:"answer"`
}

// SkippedFile is an inbox image left in place.
type SkippedFile struct {
	Path  string `json:"path"`
	Batch string `json:"batch"`
	Key   string `json:"key,omitempty"`
}

// Run ingests every answered, not yet vaulted image in the inbox.
// The store is rewritten only when at least one record was added. If moving a file fails,
// the records for files already moved are saved before the error is returned.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	logger := contextutil.LoggerFromContext(ctx)
	report := &Report{}

	var runErr error
	err := p.store.Update(ctx, func(records []storage.Record) ([]storage.Record, bool, error) {
		folders, err := p.vault.ScanInbox(ctx)
		if err != nil {
			return nil, false, err
		}

		now := p.now()
		ids := newIDAllocator(records, now)
		hashes := make(map[string]string, len(records))
		for i := range records {
			if records[i].FileHash != "" {
				hashes[records[i].FileHash] = records[i].ID
			}
		}

		added := 0
		for _, folder := range folders {
			keys, err := LoadAnswerKey(folder.Dir)
			if err != nil {
				logger.WarnContext(ctx, "failed to load answer key, treating folder as keyless",
					"batch", folder.Batch, "error", err)
				keys = map[string]string{}
			}

			for _, img := range folder.Images {
				if err := ctx.Err(); err != nil {
					runErr = err
					return records, added > 0, nil
				}

				hash, err := HashFile(img.AbsPath)
				if err != nil {
					runErr = err
					return records, added > 0, nil
				}

				if existingID, ok := hashes[hash]; ok {
					logger.WarnContext(ctx, "duplicate skipped", "file", img.Name, "batch", folder.Batch, "existing_id", existingID)
					report.Duplicates = append(report.Duplicates, SkippedFile{Path: img.AbsPath, Batch: folder.Batch, Key: existingID})
					if p.removeDuplicates {
						if err := os.Remove(img.AbsPath); err != nil {
							logger.WarnContext(ctx, "failed to remove duplicate", "file", img.AbsPath, "error", err)
						} else {
							report.Removed++
						}
					}
					continue
				}

				key := ExtractID(img.Name)
				answer, ok := keys[key]
				if !ok {
					logger.WarnContext(ctx, "no answer key found, skipping", "file", img.Name, "batch", folder.Batch, "key", key)
					report.MissingKey = append(report.MissingKey, SkippedFile{Path: img.AbsPath, Batch: folder.Batch, Key: key})
					continue
				}

				id := ids.Next()
				filePath, err := p.vault.Place(img.AbsPath, id+filepath.Ext(img.Name))
				if err != nil {
					runErr = fmt.Errorf("failed to vault %s: %w", img.Name, err)
					return records, added > 0, nil
				}

				records = append(records, storage.Record{
					ID:               id,
					FilePath:         filePath,
					OriginalFilename: img.Name,
					SourceBatch:      folder.Batch,
					FileHash:         hash,
					IngestDate:       now.Format(time.RFC3339),
					Status:           storage.StatusPendingVerification,
					Data: &storage.VerificationData{
						UserCorrectKey: answer,
					},
				})
				hashes[hash] = id
				added++

				report.Ingested = append(report.Ingested, IngestedFile{ID: id, Filename: img.Name, Batch: folder.Batch, Answer: answer})
				logger.InfoContext(ctx, "ingested", "file", img.Name, "id", id, "batch", folder.Batch)
			}
		}

		return records, added > 0, nil
	})
	if err != nil {
		return report, fmt.Errorf("failed to ingest inbox: %w", err)
	}
	if runErr != nil {
		return report, fmt.Errorf("ingestion stopped after %d records: %w", len(report.Ingested), runErr)
	}

	logger.InfoContext(ctx, "ingestion complete",
		"ingested", len(report.Ingested),
		"duplicates", len(report.Duplicates),
		"missing_key", len(report.MissingKey))

	return report, nil
}
