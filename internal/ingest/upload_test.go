package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mistakevault/internal/storage"
	"mistakevault/internal/vault"
)

var (
	pngData  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR first")
	pngData2 = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR second")
	jpegData = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
)

func newTestUploader(t *testing.T) (*Uploader, *storage.JSONStore, string) {
	t.Helper()
	root := t.TempDir()
	vm, err := vault.NewManager(root, filepath.Join(root, "inbox"), filepath.Join(root, "vault"))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	store := storage.NewJSONStore(filepath.Join(root, "mistakes_db.json"))
	u := NewUploader(store, vm)
	u.SetClock(func() time.Time { return testNow })
	return u, store, root
}

func TestUploader_Add(t *testing.T) {
	u, store, root := newTestUploader(t)
	ctx := context.Background()

	rec, err := u.Add(ctx, UploadItem{
		Filename:     "Photo.PNG",
		Data:         pngData,
		Answer:       " 24 ",
		QuestionText: "What is 4 x 6?",
		Topic:        "multiplication",
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if rec.ID != "20260106_01" {
		t.Errorf("ID = %s, want 20260106_01", rec.ID)
	}
	if rec.FilePath != "vault/20260106_01.png" {
		t.Errorf("FilePath = %s, want lowercased extension", rec.FilePath)
	}
	if rec.Answer() != "24" || rec.Status != storage.StatusActive {
		t.Errorf("record = %+v", rec)
	}
	if _, err := os.Stat(filepath.Join(root, "vault", "20260106_01.png")); err != nil {
		t.Errorf("vault file missing: %v", err)
	}

	records, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 1 || records[0].Topic != "multiplication" {
		t.Errorf("store = %+v", records)
	}
}

func TestUploader_LearningMode(t *testing.T) {
	u, _, _ := newTestUploader(t)

	rec, err := u.Add(context.Background(), UploadItem{Filename: "q.jpeg", Data: jpegData})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if rec.HasAnswer() {
		t.Error("upload without answer should be in learning mode")
	}
	if rec.FilePath != "vault/20260106_01.jpeg" {
		t.Errorf("FilePath = %s", rec.FilePath)
	}
}

func TestUploader_Duplicate(t *testing.T) {
	u, store, root := newTestUploader(t)
	ctx := context.Background()

	if _, err := u.Add(ctx, UploadItem{Filename: "a.png", Data: pngData, Answer: "1"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	_, err := u.Add(ctx, UploadItem{Filename: "b.png", Data: pngData, Answer: "1"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Add() error = %v, want ErrDuplicate", err)
	}

	records, _ := store.Load(ctx)
	if len(records) != 1 {
		t.Errorf("store has %d records, want 1", len(records))
	}
	entries, _ := os.ReadDir(filepath.Join(root, "vault"))
	if len(entries) != 1 {
		t.Errorf("vault has %d files, want 1", len(entries))
	}

	rec, err := u.Add(ctx, UploadItem{Filename: "c.png", Data: pngData2})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if rec.ID != "20260106_02" {
		t.Errorf("ID = %s, want 20260106_02", rec.ID)
	}
}

func TestUploader_RejectsNonImages(t *testing.T) {
	u, _, _ := newTestUploader(t)

	tests := []struct {
		name string
		item UploadItem
	}{
		{name: "empty", item: UploadItem{Filename: "a.png"}},
		{name: "text", item: UploadItem{Filename: "a.png", Data: []byte("just some text")}},
		{name: "pdf", item: UploadItem{Filename: "a.png", Data: []byte("%PDF-1.4\n")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := u.Add(context.Background(), tt.item); !errors.Is(err, ErrUnsupportedType) {
				t.Errorf("Add() error = %v, want ErrUnsupportedType", err)
			}
		})
	}
}

func TestUploader_MissingExtension(t *testing.T) {
	u, _, _ := newTestUploader(t)

	rec, err := u.Add(context.Background(), UploadItem{Filename: "clipboard", Data: pngData})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if filepath.Ext(rec.FilePath) != ".png" {
		t.Errorf("FilePath = %s, want sniffed .png extension", rec.FilePath)
	}
}
