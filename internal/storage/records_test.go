package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestJSONStore_LoadMissingFile(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "mistakes_db.json"))

	records, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("Load() = %v, want empty slice", records)
	}
}

func TestJSONStore_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mistakes_db.json")
	store := NewJSONStore(path)
	ctx := context.Background()

	records := []Record{
		{ID: "20260106_01", FilePath: "vault/20260106_01.png", FileHash: "abc", Status: StatusPendingVerification,
			Data: &VerificationData{UserCorrectKey: "150"}},
		{ID: "20260106_02", FilePath: "vault/20260106_02.png", AnswerText: "24", TimesPracticed: 3, TimesCorrect: 1},
	}
	if err := store.Save(ctx, records); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Load() returned %d records, want 2", len(got))
	}
	if got[0].Answer() != "150" || got[1].Answer() != "24" {
		t.Errorf("Load() answers = %q, %q", got[0].Answer(), got[1].Answer())
	}

	// No temp files left behind
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("Save() left temp file %s", e.Name())
		}
	}
}

func TestJSONStore_ReadsLegacyFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mistakes_db.json")
	legacy := `[
  {
    "id": "20260106_01",
    "file_path": "vault/20260106_01.png",
    "original_filename": "Screenshot 2026-01-06 at 3.16.03 pm.png",
    "source_batch": "week1",
    "file_hash": "d41d8cd98f00b204e9800998ecf8427e",
    "ingest_date": "2026-01-06T15:20:00",
    "status": "pending_ai_verification",
    "data": {"user_correct_key": "150", "ai_calculated_answer": null, "match_confidence": 0}
  },
  {
    "id": "20260107_01",
    "file_path": "./vault/20260107_01.jpg",
    "answer": "C",
    "times_practiced": 2,
    "times_correct": 1
  }
]`
	if err := os.WriteFile(path, []byte(legacy), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	records, err := NewJSONStore(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if records[0].Answer() != "150" {
		t.Errorf("legacy answer = %q, want 150", records[0].Answer())
	}
	if records[0].Data.AICalculatedAnswer != nil {
		t.Error("null ai_calculated_answer should decode to nil")
	}
	if records[1].CurrentStatus() != StatusActive {
		t.Errorf("missing status = %q, want active", records[1].CurrentStatus())
	}
}

func TestJSONStore_ReadsRawModelValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mistakes_db.json")
	legacy := `[
  {
    "id": "20260106_01",
    "file_path": "vault/20260106_01.png",
    "status": "auto_verified",
    "data": {"user_correct_key": "24", "ai_calculated_answer": 24, "match_confidence": 1.0},
    "meta": {
      "question_text": "What is 6 x 4?",
      "topic_tag": null,
      "calculated_answer": 24,
      "logic_template": "a x b",
      "reasoning_steps": ["6 x 4", "= 24"],
      "difficulty": "easy"
    }
  },
  {
    "id": "20260106_02",
    "file_path": "vault/20260106_02.png",
    "status": "flagged_for_review",
    "data": {"user_correct_key": 150, "ai_calculated_answer": [1, 5, 0], "match_confidence": false},
    "meta": {"calculated_answer": 12.5, "reasoning_steps": "one step"}
  }
]`
	if err := os.WriteFile(path, []byte(legacy), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	store := NewJSONStore(path)
	ctx := context.Background()

	check := func(t *testing.T, records []Record) {
		t.Helper()
		if len(records) != 2 {
			t.Fatalf("Load() returned %d records, want 2", len(records))
		}

		first := records[0]
		if first.Data.AICalculatedAnswer == nil || *first.Data.AICalculatedAnswer != "24" {
			t.Errorf("ai_calculated_answer = %v, want 24", first.Data.AICalculatedAnswer)
		}
		if first.Data.MatchConfidence != 1 {
			t.Errorf("match_confidence = %v, want 1", first.Data.MatchConfidence)
		}
		if first.Meta == nil {
			t.Fatal("meta should decode")
		}
		if first.Meta.CalculatedAnswer != "24" || first.Meta.TopicTag != "" {
			t.Errorf("meta answer/topic = %q/%q", first.Meta.CalculatedAnswer, first.Meta.TopicTag)
		}
		if first.Meta.ReasoningSteps != "6 x 4\n= 24" {
			t.Errorf("reasoning_steps = %q", first.Meta.ReasoningSteps)
		}
		if string(first.Meta.Extra["difficulty"]) != `"easy"` {
			t.Errorf("extra keys = %v, want difficulty kept", first.Meta.Extra)
		}

		second := records[1]
		if second.Answer() != "150" {
			t.Errorf("numeric user_correct_key = %q, want 150", second.Answer())
		}
		if second.Data.AICalculatedAnswer == nil || *second.Data.AICalculatedAnswer != "1\n5\n0" {
			t.Errorf("list ai_calculated_answer = %v", second.Data.AICalculatedAnswer)
		}
		if second.Data.MatchConfidence != 0 {
			t.Errorf("match_confidence = %v, want 0", second.Data.MatchConfidence)
		}
		if second.Meta.CalculatedAnswer != "12.5" {
			t.Errorf("meta calculated_answer = %q, want 12.5", second.Meta.CalculatedAnswer)
		}
	}

	records, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	check(t, records)

	if err := store.Save(ctx, records); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	reloaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() after Save() error = %v", err)
	}
	check(t, reloaded)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), `"difficulty": "easy"`) && !strings.Contains(string(data), `"difficulty":"easy"`) {
		t.Errorf("rewritten store dropped extra meta keys:\n%s", data)
	}
}

func TestJSONStore_RejectsBadConfidence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mistakes_db.json")
	bad := `[{"id": "x", "file_path": "vault/x.png", "data": {"user_correct_key": "1", "match_confidence": "high"}}]`
	if err := os.WriteFile(path, []byte(bad), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := NewJSONStore(path).Load(context.Background()); err == nil {
		t.Error("Load() expected error for non-numeric match_confidence")
	}
}

func TestFieldText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "string", raw: `"C"`, want: "C"},
		{name: "integer", raw: `24`, want: "24"},
		{name: "float", raw: `0.5`, want: "0.5"},
		{name: "list", raw: `["a", 2]`, want: "a\n2"},
		{name: "null", raw: `null`, want: ""},
		{name: "missing", raw: ``, want: ""},
		{name: "object", raw: `{"x":1}`, want: `{"x":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FieldText(json.RawMessage(tt.raw)); got != tt.want {
				t.Errorf("FieldText(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestJSONStore_LoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mistakes_db.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := NewJSONStore(path).Load(context.Background()); err == nil {
		t.Error("Load() expected error for invalid JSON")
	}
}

func TestJSONStore_Update(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mistakes_db.json")
	store := NewJSONStore(path)
	ctx := context.Background()

	t.Run("unchanged does not write", func(t *testing.T) {
		err := store.Update(ctx, func(records []Record) ([]Record, bool, error) {
			return records, false, nil
		})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Error("Update() without changes should not create the store file")
		}
	})

	t.Run("changed writes", func(t *testing.T) {
		err := store.Update(ctx, func(records []Record) ([]Record, bool, error) {
			return append(records, Record{ID: "x"}), true, nil
		})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		got, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != "x" {
			t.Errorf("Load() after Update() = %+v", got)
		}
	})

	t.Run("error skips save", func(t *testing.T) {
		wantErr := errors.New("boom")
		err := store.Update(ctx, func(records []Record) ([]Record, bool, error) {
			return nil, true, wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Fatalf("Update() error = %v, want %v", err, wantErr)
		}
		got, _ := store.Load(ctx)
		if len(got) != 1 {
			t.Errorf("Update() with error should leave store untouched, got %d records", len(got))
		}
	})
}

func TestJSONStore_SaveFieldNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mistakes_db.json")
	store := NewJSONStore(path)

	err := store.Save(context.Background(), []Record{{
		ID:       "20260106_01",
		FilePath: "vault/20260106_01.png",
		Data:     &VerificationData{UserCorrectKey: "150"},
	}})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var generic []map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	data, ok := generic[0]["data"].(map[string]any)
	if !ok {
		t.Fatal("saved record should have a data object")
	}
	if data["user_correct_key"] != "150" {
		t.Errorf("data.user_correct_key = %v, want 150", data["user_correct_key"])
	}
	if _, ok := data["ai_calculated_answer"]; !ok {
		t.Error("data.ai_calculated_answer should be written as null")
	}
	if _, ok := generic[0]["times_practiced"]; !ok {
		t.Error("times_practiced should always be written")
	}
}

func TestRecord_Answer(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   string
	}{
		{name: "top-level answer", record: Record{AnswerText: "24"}, want: "24"},
		{name: "legacy key", record: Record{Data: &VerificationData{UserCorrectKey: "150"}}, want: "150"},
		{name: "top-level wins", record: Record{AnswerText: "new", Data: &VerificationData{UserCorrectKey: "old"}}, want: "new"},
		{name: "no answer", record: Record{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.Answer(); got != tt.want {
				t.Errorf("Answer() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecord_RecordPractice(t *testing.T) {
	r := Record{}
	sequence := []bool{true, false, true, true, false}
	for _, correct := range sequence {
		r.RecordPractice(correct)
		if r.TimesCorrect > r.TimesPracticed {
			t.Fatalf("TimesCorrect %d > TimesPracticed %d", r.TimesCorrect, r.TimesPracticed)
		}
	}
	if r.TimesPracticed != 5 || r.TimesCorrect != 3 {
		t.Errorf("counters = %d/%d, want 3/5", r.TimesCorrect, r.TimesPracticed)
	}

	// Legacy records may carry inconsistent counters; the next practice repairs them.
	broken := Record{TimesPracticed: 1, TimesCorrect: 4}
	broken.RecordPractice(true)
	if broken.TimesCorrect > broken.TimesPracticed {
		t.Errorf("RecordPractice() left TimesCorrect %d > TimesPracticed %d", broken.TimesCorrect, broken.TimesPracticed)
	}
}

func TestFindByID(t *testing.T) {
	records := []Record{{ID: "a"}, {ID: "b"}}
	if FindByID(records, "b") != 1 {
		t.Error("FindByID() should find b at index 1")
	}
	if FindByID(records, "z") != -1 {
		t.Error("FindByID() should return -1 for missing id")
	}
}
