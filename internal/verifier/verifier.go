// Package verifier checks pending records against a vision model's own solution.
package verifier

import (
	"context"
	"fmt"

	"mistakevault/internal/answer"
	"mistakevault/internal/contextutil"
	"mistakevault/internal/llm"
	"mistakevault/internal/storage"
	"mistakevault/internal/vault"
)

// Summary reports one verification run.
type Summary struct {
	Pending  int      `json:"pending"`
	Verified int      `json:"verified"`
	Flagged  int      `json:"flagged"`
	Errors   int      `json:"errors"`
	Skipped  int      `json:"skipped"`
	Results  []Result `json:"results"`
}

// Result is the outcome for one record.
type Result struct {
	ID       string         `json:"id"`
	Status   storage.Status `json:"status"`
	Key      string         `json:"key"`
	Computed string         `json:"computed"`
	Error    string         `json:"error,omitempty"`
}

// Verifier runs pending records through an Analyzer.
type Verifier struct {
	store    storage.RecordStore
	vault    *vault.Manager
	analyzer llm.Analyzer
	limit    int
}

// New creates a verifier.
func New(store storage.RecordStore, vaultManager *vault.Manager, analyzer llm.Analyzer) *Verifier {
	return &Verifier{
		store:    store,
		vault:    vaultManager,
		analyzer: analyzer,
	}
}

// SetLimit caps how many pending records one run analyzes. Zero means no cap.
func (v *Verifier) SetLimit(n int) {
	v.limit = n
}

type outcome struct {
	status   storage.Status
	meta     storage.Analysis
	computed string
	analyzed bool
}

// Run analyzes every record in pending_ai_verification. Records whose image is missing stay
// pending. A failed analysis marks only that record as error_processing. The model is called
// without holding the store lock; results are merged into the store in a single update and
// applied only to records that are still pending.
func (v *Verifier) Run(ctx context.Context) (*Summary, error) {
	logger := contextutil.LoggerFromContext(ctx)

	records, err := v.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	summary := &Summary{}
	outcomes := make(map[string]outcome)
	var runErr error

	for i := range records {
		rec := &records[i]
		if rec.Status != storage.StatusPendingVerification {
			continue
		}
		if v.limit > 0 && summary.Pending >= v.limit {
			break
		}
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		summary.Pending++

		key := rec.Answer()
		imagePath := v.vault.AbsPath(rec.FilePath)
		if !v.vault.Exists(rec.FilePath) {
			logger.WarnContext(ctx, "image not found, leaving pending", "id", rec.ID, "file_path", rec.FilePath)
			summary.Skipped++
			summary.Results = append(summary.Results, Result{ID: rec.ID, Status: rec.Status, Key: key, Error: "image not found"})
			continue
		}

		analysis, err := v.analyzer.Analyze(ctx, imagePath)
		if err != nil {
			logger.ErrorContext(ctx, "analysis failed", "id", rec.ID, "error", err)
			outcomes[rec.ID] = outcome{status: storage.StatusError}
			summary.Errors++
			summary.Results = append(summary.Results, Result{ID: rec.ID, Status: storage.StatusError, Key: key, Error: err.Error()})
			continue
		}

		computed := analysis.CalculatedAnswer
		status := storage.StatusAutoVerified
		if answer.NormalizeUnits(computed) == "" || !answer.MatchLenient(key, computed) {
			status = storage.StatusFlagged
		}

		outcomes[rec.ID] = outcome{status: status, meta: analysis, computed: computed, analyzed: true}
		if status == storage.StatusAutoVerified {
			summary.Verified++
			logger.InfoContext(ctx, "verified", "id", rec.ID, "key", key, "computed", computed)
		} else {
			summary.Flagged++
			logger.WarnContext(ctx, "mismatch, flagged for review", "id", rec.ID, "key", key, "computed", computed)
		}
		summary.Results = append(summary.Results, Result{ID: rec.ID, Status: status, Key: key, Computed: computed})
	}

	if len(outcomes) > 0 {
		err := v.store.Update(ctx, func(current []storage.Record) ([]storage.Record, bool, error) {
			changed := false
			for id, o := range outcomes {
				i := storage.FindByID(current, id)
				if i < 0 || current[i].Status != storage.StatusPendingVerification {
					logger.WarnContext(ctx, "record changed during verification, result dropped", "id", id)
					continue
				}
				apply(&current[i], o)
				changed = true
			}
			return current, changed, nil
		})
		if err != nil {
			return summary, fmt.Errorf("failed to save verification results: %w", err)
		}
	}

	if runErr != nil {
		return summary, runErr
	}

	logger.InfoContext(ctx, "verification complete",
		"pending", summary.Pending,
		"verified", summary.Verified,
		"flagged", summary.Flagged,
		"errors", summary.Errors,
		"skipped", summary.Skipped)

	return summary, nil
}

func apply(rec *storage.Record, o outcome) {
	rec.Status = o.status
	if !o.analyzed {
		return
	}

	meta := o.meta
	rec.Meta = &meta
	if rec.Data == nil {
		rec.Data = &storage.VerificationData{UserCorrectKey: rec.Answer()}
	}
	computed := o.computed
	rec.Data.AICalculatedAnswer = &computed
	if o.status == storage.StatusAutoVerified {
		rec.Data.MatchConfidence = 1
	} else {
		rec.Data.MatchConfidence = 0
	}
}
