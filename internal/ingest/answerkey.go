package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mistakevault/internal/contextutil"
	"mistakevault/internal/vault"
)

// KeyFileName is the answer-key file expected in every inbox folder.
const KeyFileName = "key.csv"

var keyHeader = []string{"id", "answer"}

// LoadAnswerKey reads <folder>/key.csv into a map of join key to expected answer.
// A missing file yields an empty map. Rows with an empty id or answer are left out.
func LoadAnswerKey(folder string) (map[string]string, error) {
	keys := make(map[string]string)
	err := readKeyFile(filepath.Join(folder, KeyFileName), func(id, answer string) {
		if id != "" && answer != "" {
			keys[id] = answer
		}
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// readKeyFile calls fn with the trimmed id and answer of every data row.
func readKeyFile(path string, fn func(id, answer string)) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open answer key %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read answer key header %s: %w", path, err)
	}

	idCol, answerCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case "id":
			idCol = i
		case "answer":
			answerCol = i
		}
	}
	if idCol < 0 {
		return fmt.Errorf("answer key %s has no id column", path)
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read answer key %s: %w", path, err)
		}
		fn(column(row, idCol), column(row, answerCol))
	}
}

func column(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// KeysReport lists what GenerateKeys added.
type KeysReport struct {
	Folders []KeyFolder
}

// KeyFolder is one inbox folder visited by GenerateKeys.
type KeyFolder struct {
	Batch   string
	Path    string   // key.csv location
	Created bool     // file did not exist before
	Added   []string // join keys appended with a blank answer
}

// AddedCount returns the total number of rows appended across all folders.
func (r *KeysReport) AddedCount() int {
	n := 0
	for _, f := range r.Folders {
		n += len(f.Added)
	}
	return n
}

// GenerateKeys appends a blank-answer row to each inbox folder's key.csv for every image
// whose join key has no row yet. Existing rows are never rewritten.
func GenerateKeys(ctx context.Context, inboxDir string) (*KeysReport, error) {
	logger := contextutil.LoggerFromContext(ctx)

	folders, err := vault.ScanImages(ctx, inboxDir, "")
	if err != nil {
		return nil, err
	}

	report := &KeysReport{}
	for _, folder := range folders {
		path := filepath.Join(folder.Dir, KeyFileName)

		existing := make(map[string]bool)
		if err := readKeyFile(path, func(id, _ string) {
			if id != "" {
				existing[id] = true
			}
		}); err != nil {
			return report, err
		}

		names := make([]string, 0, len(folder.Images))
		for _, img := range folder.Images {
			names = append(names, img.Name)
		}
		sort.Strings(names)

		var added []string
		for _, name := range names {
			id := ExtractID(name)
			if existing[id] {
				continue
			}
			existing[id] = true
			added = append(added, id)
		}

		kf := KeyFolder{Batch: folder.Batch, Path: path, Added: added}
		if len(added) == 0 {
			logger.DebugContext(ctx, "answer key up to date", "batch", folder.Batch)
			report.Folders = append(report.Folders, kf)
			continue
		}

		created, err := appendKeyRows(path, added)
		if err != nil {
			return report, err
		}
		kf.Created = created
		report.Folders = append(report.Folders, kf)

		logger.InfoContext(ctx, "answer key updated", "batch", folder.Batch, "path", path, "added", len(added))
	}

	return report, nil
}

// appendKeyRows appends "<id>," rows to the key file, writing the header when the file is new.
func appendKeyRows(path string, ids []string) (bool, error) {
	created := false
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		created = true
	}

	needsNewline, err := missingTrailingNewline(path)
	if err != nil {
		return false, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return false, fmt.Errorf("failed to open answer key %s: %w", path, err)
	}

	if needsNewline {
		if _, err := f.WriteString("\n"); err != nil {
			_ = f.Close()
			return false, fmt.Errorf("failed to write answer key %s: %w", path, err)
		}
	}

	w := csv.NewWriter(f)
	if created {
		if err := w.Write(keyHeader); err != nil {
			_ = f.Close()
			return false, fmt.Errorf("failed to write answer key header %s: %w", path, err)
		}
	}
	for _, id := range ids {
		if err := w.Write([]string{id, ""}); err != nil {
			_ = f.Close()
			return false, fmt.Errorf("failed to write answer key %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("failed to flush answer key %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return false, fmt.Errorf("failed to close answer key %s: %w", path, err)
	}
	return created, nil
}

func missingTrailingNewline(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read answer key %s: %w", path, err)
	}
	return len(data) > 0 && data[len(data)-1] != '\n', nil
}
