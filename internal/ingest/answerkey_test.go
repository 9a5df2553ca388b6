package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestLoadAnswerKey(t *testing.T) {
	tests := []struct {
		name    string
		content string // empty means no key file
		want    map[string]string
		wantErr bool
	}{
		{
			name: "missing file",
			want: map[string]string{},
		},
		{
			name:    "basic rows",
			content: "id,answer\n3.16.03 pm,150\n3.17.10 pm,24 units\n",
			want:    map[string]string{"3.16.03 pm": "150", "3.17.10 pm": "24 units"},
		},
		{
			name:    "trims and drops blanks",
			content: "id,answer\n  3.16.03 pm , 150 \n3.17.10 pm,\n,99\n",
			want:    map[string]string{"3.16.03 pm": "150"},
		},
		{
			name:    "columns located by header",
			content: "answer,id\n150,3.16.03 pm\n",
			want:    map[string]string{"3.16.03 pm": "150"},
		},
		{
			name:    "byte order mark",
			content: "\ufeffid,answer\n3.16.03 pm,150\n",
			want:    map[string]string{"3.16.03 pm": "150"},
		},
		{
			name:    "short rows",
			content: "id,answer\n3.16.03 pm\n3.17.10 pm,7\n",
			want:    map[string]string{"3.17.10 pm": "7"},
		},
		{
			name:    "header only",
			content: "id,answer\n",
			want:    map[string]string{},
		},
		{
			name:    "malformed quoting",
			content: "id,answer\n\"3.16.03 pm,150\n",
			wantErr: true,
		},
		{
			name:    "no id column",
			content: "name,answer\nx,1\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.content != "" {
				writeFile(t, filepath.Join(dir, KeyFileName), tt.content)
			}

			got, err := LoadAnswerKey(dir)
			if tt.wantErr {
				if err == nil {
					t.Error("LoadAnswerKey() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadAnswerKey() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("LoadAnswerKey() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("LoadAnswerKey()[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestGenerateKeys(t *testing.T) {
	inbox := t.TempDir()
	ctx := context.Background()

	writeFile(t, filepath.Join(inbox, "week1", "Screenshot 2026-01-06 at 3.17.10 pm.png"), "b")
	writeFile(t, filepath.Join(inbox, "week1", "Screenshot 2026-01-06 at 3.16.03 pm.png"), "a")
	writeFile(t, filepath.Join(inbox, "week2", "Screenshot 2026-01-07 at 9.00.00 am.png"), "c")
	writeFile(t, filepath.Join(inbox, "week2", KeyFileName), "id,answer\n9.00.00 am,42")
	writeFile(t, filepath.Join(inbox, "notes", "readme.txt"), "no images")

	report, err := GenerateKeys(ctx, inbox)
	if err != nil {
		t.Fatalf("GenerateKeys() error = %v", err)
	}
	if report.AddedCount() != 2 {
		t.Errorf("AddedCount() = %d, want 2", report.AddedCount())
	}

	week1, err := os.ReadFile(filepath.Join(inbox, "week1", KeyFileName))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	want := "id,answer\n3.16.03 pm,\n3.17.10 pm,\n"
	if string(week1) != want {
		t.Errorf("week1 key.csv = %q, want %q", week1, want)
	}

	week2, err := os.ReadFile(filepath.Join(inbox, "week2", KeyFileName))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(week2) != "id,answer\n9.00.00 am,42" {
		t.Errorf("week2 key.csv should be untouched, got %q", week2)
	}

	if _, err := os.Stat(filepath.Join(inbox, "notes", KeyFileName)); !os.IsNotExist(err) {
		t.Error("GenerateKeys() should not create key files for folders without images")
	}

	// A new image is appended; existing rows (now filled in) are kept.
	writeFile(t, filepath.Join(inbox, "week1", KeyFileName), "id,answer\n3.16.03 pm,150\n3.17.10 pm,24")
	writeFile(t, filepath.Join(inbox, "week1", "Screenshot 2026-01-06 at 3.20.00 pm.png"), "d")

	report, err = GenerateKeys(ctx, inbox)
	if err != nil {
		t.Fatalf("GenerateKeys() second run error = %v", err)
	}
	if report.AddedCount() != 1 {
		t.Errorf("second AddedCount() = %d, want 1", report.AddedCount())
	}
	week1, _ = os.ReadFile(filepath.Join(inbox, "week1", KeyFileName))
	if !strings.HasPrefix(string(week1), "id,answer\n3.16.03 pm,150\n3.17.10 pm,24\n") {
		t.Errorf("existing rows changed: %q", week1)
	}
	if !strings.HasSuffix(string(week1), "3.20.00 pm,\n") {
		t.Errorf("new row missing: %q", week1)
	}

	keys, err := LoadAnswerKey(filepath.Join(inbox, "week1"))
	if err != nil {
		t.Fatalf("LoadAnswerKey() error = %v", err)
	}
	if keys["3.16.03 pm"] != "150" || keys["3.17.10 pm"] != "24" {
		t.Errorf("LoadAnswerKey() after generate = %v", keys)
	}

	// Nothing new: nothing added.
	report, err = GenerateKeys(ctx, inbox)
	if err != nil {
		t.Fatalf("GenerateKeys() third run error = %v", err)
	}
	if report.AddedCount() != 0 {
		t.Errorf("third AddedCount() = %d, want 0", report.AddedCount())
	}
}
