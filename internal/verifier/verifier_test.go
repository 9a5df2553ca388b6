package verifier

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/mock/gomock"

	llmmocks "mistakevault/internal/llm/mocks"
	"mistakevault/internal/storage"
	storagemocks "mistakevault/internal/storage/mocks"
	"mistakevault/internal/vault"
)

type fixture struct {
	root  string
	vault *vault.Manager
	store *storage.JSONStore
}

func newFixture(t *testing.T, records []storage.Record, images ...string) *fixture {
	t.Helper()
	root := t.TempDir()
	vm, err := vault.NewManager(root, filepath.Join(root, "inbox"), filepath.Join(root, "vault"))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	for _, name := range images {
		if err := os.WriteFile(filepath.Join(root, "vault", name), []byte(name), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
	store := storage.NewJSONStore(filepath.Join(root, "mistakes_db.json"))
	if err := store.Save(context.Background(), records); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	return &fixture{root: root, vault: vm, store: store}
}

func pending(id, key string) storage.Record {
	return storage.Record{
		ID:       id,
		FilePath: "vault/" + id + ".png",
		Status:   storage.StatusPendingVerification,
		Data:     &storage.VerificationData{UserCorrectKey: key},
	}
}

func TestVerifier_Run(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	records := []storage.Record{
		pending("20260106_01", "24 units"),
		pending("20260106_02", "C"),
		pending("20260106_03", "150"),
		pending("20260106_04", "7"),
		{ID: "20260105_01", FilePath: "vault/20260105_01.png", Status: storage.StatusAutoVerified},
	}
	fx := newFixture(t, records, "20260106_01.png", "20260106_02.png", "20260106_03.png", "20260105_01.png")

	analyzer := llmmocks.NewMockAnalyzer(ctrl)
	analyzer.EXPECT().
		Analyze(gomock.Any(), fx.vault.AbsPath("vault/20260106_01.png")).
		Return(storage.Analysis{QuestionText: "Area?", TopicTag: "Area", CalculatedAnswer: "the answer is 24"}, nil)
	analyzer.EXPECT().
		Analyze(gomock.Any(), fx.vault.AbsPath("vault/20260106_02.png")).
		Return(storage.Analysis{CalculatedAnswer: "B"}, nil)
	analyzer.EXPECT().
		Analyze(gomock.Any(), fx.vault.AbsPath("vault/20260106_03.png")).
		Return(storage.Analysis{}, errors.New("connection refused"))

	summary, err := New(fx.store, fx.vault, analyzer).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Pending != 4 || summary.Verified != 1 || summary.Flagged != 1 || summary.Errors != 1 || summary.Skipped != 1 {
		t.Errorf("Summary = %+v", summary)
	}

	got, err := fx.store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		id         string
		status     storage.Status
		confidence float64
		computed   *string
	}{
		{id: "20260106_01", status: storage.StatusAutoVerified, confidence: 1, computed: strPtr("the answer is 24")},
		{id: "20260106_02", status: storage.StatusFlagged, confidence: 0, computed: strPtr("B")},
		{id: "20260106_03", status: storage.StatusError},
		{id: "20260106_04", status: storage.StatusPendingVerification},
		{id: "20260105_01", status: storage.StatusAutoVerified},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			i := storage.FindByID(got, tt.id)
			if i < 0 {
				t.Fatalf("record %s missing", tt.id)
			}
			r := got[i]
			if r.Status != tt.status {
				t.Errorf("Status = %s, want %s", r.Status, tt.status)
			}
			if tt.computed == nil {
				if r.Data != nil && r.Data.AICalculatedAnswer != nil {
					t.Errorf("AICalculatedAnswer = %q, want nil", *r.Data.AICalculatedAnswer)
				}
				return
			}
			if r.Data.AICalculatedAnswer == nil || *r.Data.AICalculatedAnswer != *tt.computed {
				t.Errorf("AICalculatedAnswer = %v, want %q", r.Data.AICalculatedAnswer, *tt.computed)
			}
			if r.Data.MatchConfidence != tt.confidence {
				t.Errorf("MatchConfidence = %v, want %v", r.Data.MatchConfidence, tt.confidence)
			}
			if r.Meta == nil {
				t.Error("Meta should hold the analysis")
			}
		})
	}
}

func TestVerifier_EmptyComputedAnswerIsFlagged(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fx := newFixture(t, []storage.Record{pending("20260106_01", "150")}, "20260106_01.png")

	analyzer := llmmocks.NewMockAnalyzer(ctrl)
	analyzer.EXPECT().
		Analyze(gomock.Any(), gomock.Any()).
		Return(storage.Analysis{QuestionText: "raw text", TopicTag: "Unknown", CalculatedAnswer: ""}, nil)

	summary, err := New(fx.store, fx.vault, analyzer).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Flagged != 1 {
		t.Errorf("Flagged = %d, want 1", summary.Flagged)
	}
}

func TestVerifier_NothingPendingDoesNotWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := storagemocks.NewMockRecordStore(ctrl)
	store.EXPECT().
		Load(gomock.Any()).
		Return([]storage.Record{{ID: "a", Status: storage.StatusActive}}, nil)
	// No Update call expected.

	root := t.TempDir()
	vm, err := vault.NewManager(root, filepath.Join(root, "inbox"), filepath.Join(root, "vault"))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	summary, err := New(store, vm, llmmocks.NewMockAnalyzer(ctrl)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Pending != 0 {
		t.Errorf("Pending = %d, want 0", summary.Pending)
	}
}

func TestVerifier_Limit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fx := newFixture(t,
		[]storage.Record{pending("20260106_01", "1"), pending("20260106_02", "2")},
		"20260106_01.png", "20260106_02.png")

	analyzer := llmmocks.NewMockAnalyzer(ctrl)
	analyzer.EXPECT().
		Analyze(gomock.Any(), gomock.Any()).
		Return(storage.Analysis{CalculatedAnswer: "1"}, nil).
		Times(1)

	v := New(fx.store, fx.vault, analyzer)
	v.SetLimit(1)
	summary, err := v.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Pending != 1 || summary.Verified != 1 {
		t.Errorf("Summary = %+v", summary)
	}
}

func TestVerifier_LoadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := storagemocks.NewMockRecordStore(ctrl)
	store.EXPECT().Load(gomock.Any()).Return(nil, errors.New("permission denied"))

	if _, err := New(store, nil, llmmocks.NewMockAnalyzer(ctrl)).Run(context.Background()); err == nil {
		t.Error("Run() expected error when the store cannot be read")
	}
}

func strPtr(s string) *string {
	return &s
}
