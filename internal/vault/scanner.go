package vault

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// RootBatch is the source batch name for images dropped directly into the inbox.
const RootBatch = "General"

// imageExtensions lists the accepted screenshot extensions (compared lowercased).
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// ScannedFolder is an inbox folder that contains at least one image.
type ScannedFolder struct {
	Dir    string        // Absolute folder path (where key.csv lives)
	Batch  string        // Folder path relative to the inbox, or RootBatch
	Images []ScannedFile // Images in lexical order
}

// ScannedFile is an image found during inbox scanning.
type ScannedFile struct {
	Name    string // Base filename (e.g., "Screenshot 2026-01-06 at 3.16.03 pm.png")
	AbsPath string // Absolute file path
}

// IsImage reports whether name has an accepted image extension.
func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// ScanInbox walks the inbox and returns every folder holding images, in walk order.
func (m *Manager) ScanInbox(ctx context.Context) ([]ScannedFolder, error) {
	return ScanImages(ctx, m.inboxDir, m.vaultDir)
}

// ScanImages walks root and groups images by folder. The skip directory (the vault, when it
// sits inside the inbox) is not descended into.
func ScanImages(ctx context.Context, root, skip string) ([]ScannedFolder, error) {
	var folders []ScannedFolder
	index := make(map[string]int)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}

		// Check for context cancellation
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if skip != "" && path != root && filepath.Clean(path) == filepath.Clean(skip) {
				return filepath.SkipDir
			}
			return nil
		}

		if !IsImage(d.Name()) {
			return nil
		}

		dir := filepath.Dir(path)
		i, ok := index[dir]
		if !ok {
			batch, err := batchName(root, dir)
			if err != nil {
				return err
			}
			folders = append(folders, ScannedFolder{Dir: dir, Batch: batch})
			i = len(folders) - 1
			index[dir] = i
		}
		folders[i].Images = append(folders[i].Images, ScannedFile{
			Name:    d.Name(),
			AbsPath: path,
		})
		return nil
	})
	if err != nil {
		return folders, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	return folders, nil
}

func batchName(root, dir string) (string, error) {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return "", fmt.Errorf("failed to compute relative path for %s: %w", dir, err)
	}
	if rel == "." || rel == "" {
		return RootBatch, nil
	}
	return filepath.ToSlash(rel), nil
}
