package service

import (
	"context"
	"errors"
	"testing"

	"github.com/kbvault/kbvault/internal/blueprint"
	"github.com/kbvault/kbvault/internal/models"
)

func TestKnowledgeService_CreateEntry(t *testing.T) {
	tests := []struct {
		name     string
		req      models.CreateKnowledgeRequest
		storeErr error
		wantErr  error
		wantCall bool
	}{
		{
			name:     "success",
			req:      models.CreateKnowledgeRequest{Title: "t", Question: "q", Answer: "a"},
			wantCall: true,
		},
		{
			name:    "missing title",
			req:     models.CreateKnowledgeRequest{Question: "q"},
			wantErr: models.ErrInvalid,
		},
		{
			name:    "missing question",
			req:     models.CreateKnowledgeRequest{Title: "t"},
			wantErr: models.ErrInvalid,
		},
		{
			name:     "store error",
			req:      models.CreateKnowledgeRequest{Title: "t", Question: "q"},
			storeErr: errors.New("db down"),
			wantErr:  errors.New("db down"),
			wantCall: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &mockKnowledgeStore{
				createKnowledge: func(_ context.Context, req models.CreateKnowledgeRequest) (*models.KnowledgeEntry, error) {
					if tc.storeErr != nil {
						return nil, tc.storeErr
					}
					return &models.KnowledgeEntry{ID: 1, Title: req.Title, Question: req.Question}, nil
				},
			}
			svc := NewKnowledgeService(store, testLogger())

			entry, err := svc.CreateEntry(context.Background(), tc.req)

			if tc.wantErr != nil {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if errors.Is(tc.wantErr, models.ErrInvalid) && !errors.Is(err, models.ErrInvalid) {
					t.Errorf("error %v is not a validation error", err)
				}
				if !tc.wantCall && len(store.calls) != 0 {
					t.Errorf("store called on invalid input: %v", store.calls)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if entry.ID != 1 {
				t.Errorf("got entry ID %d, want 1", entry.ID)
			}
			if len(store.calls) != 1 || store.calls[0] != "CreateKnowledge" {
				t.Errorf("expected CreateKnowledge call, got %v", store.calls)
			}
		})
	}
}

func TestKnowledgeService_CreateEntryNormalizes(t *testing.T) {
	var got models.CreateKnowledgeRequest
	store := &mockKnowledgeStore{
		createKnowledge: func(_ context.Context, req models.CreateKnowledgeRequest) (*models.KnowledgeEntry, error) {
			got = req
			return &models.KnowledgeEntry{ID: 1}, nil
		},
	}
	svc := NewKnowledgeService(store, testLogger())

	_, err := svc.CreateEntry(context.Background(), models.CreateKnowledgeRequest{
		Title:    "  padded  ",
		Question: "q",
		Tags:     []string{" 退火 ", "退火", "温度"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "padded" {
		t.Errorf("title = %q, want trimmed %q", got.Title, "padded")
	}
	if len(got.Tags) != 2 {
		t.Errorf("tags = %v, want deduplicated pair", got.Tags)
	}
}

func TestKnowledgeService_UpdateEntry(t *testing.T) {
	store := &mockKnowledgeStore{
		updateKnowledge: func(_ context.Context, id int64, _ models.UpdateKnowledgeRequest) (*models.KnowledgeEntry, error) {
			return &models.KnowledgeEntry{ID: id, Title: "Updated"}, nil
		},
	}
	svc := NewKnowledgeService(store, testLogger())

	title := "Updated"
	entry, err := svc.UpdateEntry(context.Background(), 7, models.UpdateKnowledgeRequest{Title: &title})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Title != "Updated" {
		t.Errorf("title = %q, want %q", entry.Title, "Updated")
	}

	blank := "   "
	if _, err := svc.UpdateEntry(context.Background(), 7, models.UpdateKnowledgeRequest{Title: &blank}); !errors.Is(err, models.ErrInvalid) {
		t.Errorf("blank title error = %v, want validation error", err)
	}
	if len(store.calls) != 1 {
		t.Errorf("store calls = %v, want only the valid update", store.calls)
	}
}

func TestKnowledgeService_GetAndDelete(t *testing.T) {
	store := &mockKnowledgeStore{
		getKnowledge: func(_ context.Context, id int64) (*models.KnowledgeEntry, error) {
			if id != 3 {
				return nil, models.ErrKnowledgeNotFound
			}
			return &models.KnowledgeEntry{ID: 3}, nil
		},
		deleteKnowledge: func(_ context.Context, _ int64) error { return models.ErrKnowledgeNotFound },
	}
	svc := NewKnowledgeService(store, testLogger())

	entry, err := svc.GetEntry(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.ID != 3 {
		t.Errorf("got ID %d, want 3", entry.ID)
	}

	if _, err := svc.GetEntry(context.Background(), 99); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing entry error = %v, want not-found class", err)
	}
	if err := svc.DeleteEntry(context.Background(), 99); !errors.Is(err, models.ErrKnowledgeNotFound) {
		t.Errorf("delete error = %v, want ErrKnowledgeNotFound", err)
	}
}

func TestKnowledgeService_ImportBlueprint(t *testing.T) {
	var batched []models.CreateKnowledgeRequest
	store := &mockKnowledgeStore{
		createKnowledgeBatch: func(_ context.Context, reqs []models.CreateKnowledgeRequest) ([]models.KnowledgeEntry, error) {
			batched = reqs
			entries := make([]models.KnowledgeEntry, len(reqs))
			for i, req := range reqs {
				entries[i] = models.KnowledgeEntry{ID: int64(i + 1), Title: req.Title, Question: req.Question, Answer: req.Answer, Tags: req.Tags}
			}
			return entries, nil
		},
	}
	svc := NewKnowledgeService(store, testLogger())

	entries, err := svc.ImportBlueprint(context.Background(), blueprint.Template)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 8 {
		t.Fatalf("got %d entries, want 8", len(entries))
	}
	if len(batched) != 8 {
		t.Fatalf("store received %d requests, want 8 in one batch", len(batched))
	}
	if entries[0].Title != "示例工艺 - 工艺概览" {
		t.Errorf("first entry title = %q, want overview", entries[0].Title)
	}
	for i, entry := range entries {
		if entry.Question == "" {
			t.Errorf("entry %d has empty question", i)
		}
	}
}

func TestKnowledgeService_ImportBlueprintRejectsPlainText(t *testing.T) {
	store := &mockKnowledgeStore{}
	svc := NewKnowledgeService(store, testLogger())

	_, err := svc.ImportBlueprint(context.Background(), "# just a markdown file\n\nnothing here")
	if !errors.Is(err, models.ErrBlueprint) {
		t.Fatalf("error = %v, want ErrBlueprint", err)
	}
	if !errors.Is(err, models.ErrImport) {
		t.Errorf("error %v should classify as import failure", err)
	}
	if len(store.calls) != 0 {
		t.Errorf("store called for invalid blueprint: %v", store.calls)
	}
}
