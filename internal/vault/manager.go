package vault

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// ErrExists is returned when a vault file name is already taken.
var ErrExists = errors.New("vault file already exists")

// Manager owns the on-disk layout: the inbox that screenshots are dropped into and the flat
// vault directory that holds them once ingested. Record file paths are relative to rootDir.
type Manager struct {
	rootDir  string
	inboxDir string
	vaultDir string
}

// NewManager creates a manager and ensures the inbox and vault directories exist.
func NewManager(rootDir, inboxDir, vaultDir string) (*Manager, error) {
	for _, dir := range []string{rootDir, inboxDir, vaultDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return &Manager{
		rootDir:  rootDir,
		inboxDir: inboxDir,
		vaultDir: vaultDir,
	}, nil
}

// InboxDir returns the inbox directory.
func (m *Manager) InboxDir() string {
	return m.inboxDir
}

// VaultDir returns the vault directory.
func (m *Manager) VaultDir() string {
	return m.vaultDir
}

// AbsPath resolves a record file path. Absolute paths are returned unchanged; relative
// paths ("vault/20260106_01.png", "./vault/...") are resolved against the root directory.
func (m *Manager) AbsPath(filePath string) string {
	if filePath == "" {
		return ""
	}
	if filepath.IsAbs(filePath) {
		return filePath
	}
	return filepath.Join(m.rootDir, filepath.FromSlash(filePath))
}

// RecordPath returns the file path stored on a record for a vault file name.
func (m *Manager) RecordPath(name string) string {
	target := filepath.Join(m.vaultDir, name)
	rel, err := filepath.Rel(m.rootDir, target)
	if err != nil {
		return filepath.ToSlash(target)
	}
	return filepath.ToSlash(rel)
}

// Exists reports whether the file behind a record file path is present.
func (m *Manager) Exists(filePath string) bool {
	abs := m.AbsPath(filePath)
	if abs == "" {
		return false
	}
	_, err := os.Stat(abs)
	return err == nil
}

// Place moves src into the vault as name and returns the record file path.
// It never overwrites an existing vault file.
func (m *Manager) Place(src, name string) (string, error) {
	target := filepath.Join(m.vaultDir, name)
	if _, err := os.Lstat(target); err == nil {
		return "", fmt.Errorf("%w: %s", ErrExists, name)
	}

	if err := os.Rename(src, target); err != nil {
		if !errors.Is(err, syscall.EXDEV) {
			return "", fmt.Errorf("failed to move %s into vault: %w", src, err)
		}
		// Inbox and vault live on different filesystems.
		if err := copyFile(src, target); err != nil {
			_ = os.Remove(target)
			return "", fmt.Errorf("failed to copy %s into vault: %w", src, err)
		}
		if err := os.Remove(src); err != nil {
			return "", fmt.Errorf("failed to remove %s after copy: %w", src, err)
		}
	}

	return m.RecordPath(name), nil
}

// Write stores data in the vault as name and returns the record file path.
// It never overwrites an existing vault file.
func (m *Manager) Write(name string, data []byte) (string, error) {
	target := filepath.Join(m.vaultDir, name)
	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrExists, name)
		}
		return "", fmt.Errorf("failed to create vault file %s: %w", name, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("failed to write vault file %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("failed to close vault file %s: %w", name, err)
	}

	return m.RecordPath(name), nil
}

// Remove deletes the file behind a record file path. A missing file is not an error.
func (m *Manager) Remove(filePath string) error {
	abs := m.AbsPath(filePath)
	if abs == "" {
		return nil
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", abs, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
