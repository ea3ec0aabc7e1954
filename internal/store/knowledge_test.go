package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kbvault/kbvault/internal/models"
	"github.com/kbvault/kbvault/internal/store"
)

func TestCreateKnowledge(t *testing.T) {
	ks := store.NewKnowledgeStore(setupTestBase(t))
	ctx := context.Background()

	req := models.CreateKnowledgeRequest{
		Title:    "Restart the ingest worker",
		Question: "How do I restart the ingest worker safely?",
		Answer:   "Drain the queue first, then systemctl restart ingest.",
		Tags:     []string{"ops", "runbook"},
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	entry, err := ks.CreateKnowledge(ctx, req)
	if err != nil {
		t.Fatalf("CreateKnowledge: %v", err)
	}

	if entry.ID == 0 {
		t.Error("ID is zero")
	}
	if entry.Title != req.Title {
		t.Errorf("Title = %q, want %q", entry.Title, req.Title)
	}
	if len(entry.Tags) != 2 || entry.Tags[0] != "ops" {
		t.Errorf("Tags = %v, want [ops runbook]", entry.Tags)
	}
	if entry.CorpusID != nil {
		t.Errorf("CorpusID = %v, want nil", *entry.CorpusID)
	}
	if entry.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}
}

func TestGetKnowledge(t *testing.T) {
	ks := store.NewKnowledgeStore(setupTestBase(t))
	ctx := context.Background()

	created, err := ks.CreateKnowledge(ctx, models.CreateKnowledgeRequest{
		Title:    "Roundtrip",
		Question: "Does a stored entry read back unchanged?",
	})
	if err != nil {
		t.Fatalf("CreateKnowledge: %v", err)
	}

	got, err := ks.GetKnowledge(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetKnowledge: %v", err)
	}

	if got.ID != created.ID {
		t.Errorf("ID = %d, want %d", got.ID, created.ID)
	}
	if got.Question != created.Question {
		t.Errorf("Question = %q, want %q", got.Question, created.Question)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created.CreatedAt)
	}
}

func TestGetKnowledgeNotFound(t *testing.T) {
	ks := store.NewKnowledgeStore(setupTestBase(t))

	_, err := ks.GetKnowledge(context.Background(), 4242)
	if !errors.Is(err, models.ErrKnowledgeNotFound) {
		t.Errorf("GetKnowledge: got %v, want ErrKnowledgeNotFound", err)
	}
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("error does not classify as ErrNotFound: %v", err)
	}
}

func TestListKnowledgeNewestFirst(t *testing.T) {
	ks := store.NewKnowledgeStore(setupTestBase(t))
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		if _, err := ks.CreateKnowledge(ctx, models.CreateKnowledgeRequest{
			Title:    title,
			Question: "q",
		}); err != nil {
			t.Fatalf("CreateKnowledge(%s): %v", title, err)
		}
	}

	entries, err := ks.ListKnowledge(ctx)
	if err != nil {
		t.Fatalf("ListKnowledge: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("ListKnowledge returned %d entries, want 3", len(entries))
	}
	if entries[0].Title != "third" || entries[2].Title != "first" {
		t.Errorf("order = [%s %s %s], want newest first",
			entries[0].Title, entries[1].Title, entries[2].Title)
	}
}

func TestUpdateKnowledge(t *testing.T) {
	ks := store.NewKnowledgeStore(setupTestBase(t))
	ctx := context.Background()

	created, err := ks.CreateKnowledge(ctx, models.CreateKnowledgeRequest{
		Title:    "Before",
		Question: "original question",
		Tags:     []string{"keep"},
	})
	if err != nil {
		t.Fatalf("CreateKnowledge: %v", err)
	}

	newTitle := "After"
	newAnswer := "now with an answer"

	updated, err := ks.UpdateKnowledge(ctx, created.ID, models.UpdateKnowledgeRequest{
		Title:  &newTitle,
		Answer: &newAnswer,
	})
	if err != nil {
		t.Fatalf("UpdateKnowledge: %v", err)
	}

	if updated.Title != "After" {
		t.Errorf("Title = %q, want %q", updated.Title, "After")
	}
	if updated.Answer != "now with an answer" {
		t.Errorf("Answer = %q, want %q", updated.Answer, "now with an answer")
	}
	if updated.Question != "original question" {
		t.Errorf("Question changed to %q, want untouched", updated.Question)
	}
	if len(updated.Tags) != 1 || updated.Tags[0] != "keep" {
		t.Errorf("Tags = %v, want [keep]", updated.Tags)
	}
}

func TestUpdateKnowledgeClearTags(t *testing.T) {
	ks := store.NewKnowledgeStore(setupTestBase(t))
	ctx := context.Background()

	created, err := ks.CreateKnowledge(ctx, models.CreateKnowledgeRequest{
		Title:    "Tagged",
		Question: "q",
		Tags:     []string{"a", "b"},
	})
	if err != nil {
		t.Fatalf("CreateKnowledge: %v", err)
	}

	empty := []string{}

	updated, err := ks.UpdateKnowledge(ctx, created.ID, models.UpdateKnowledgeRequest{
		Tags: &empty,
	})
	if err != nil {
		t.Fatalf("UpdateKnowledge: %v", err)
	}

	if len(updated.Tags) != 0 {
		t.Errorf("Tags = %v, want empty", updated.Tags)
	}
}

func TestUpdateKnowledgeEmptyPatch(t *testing.T) {
	ks := store.NewKnowledgeStore(setupTestBase(t))
	ctx := context.Background()

	created, err := ks.CreateKnowledge(ctx, models.CreateKnowledgeRequest{
		Title:    "Unchanged",
		Question: "q",
	})
	if err != nil {
		t.Fatalf("CreateKnowledge: %v", err)
	}

	got, err := ks.UpdateKnowledge(ctx, created.ID, models.UpdateKnowledgeRequest{})
	if err != nil {
		t.Fatalf("UpdateKnowledge with empty patch: %v", err)
	}

	if got.Title != "Unchanged" {
		t.Errorf("Title = %q, want %q", got.Title, "Unchanged")
	}
}

func TestUpdateKnowledgeNotFound(t *testing.T) {
	ks := store.NewKnowledgeStore(setupTestBase(t))

	title := "nope"

	_, err := ks.UpdateKnowledge(context.Background(), 4242, models.UpdateKnowledgeRequest{
		Title: &title,
	})
	if !errors.Is(err, models.ErrKnowledgeNotFound) {
		t.Errorf("UpdateKnowledge: got %v, want ErrKnowledgeNotFound", err)
	}
}

func TestDeleteKnowledge(t *testing.T) {
	ks := store.NewKnowledgeStore(setupTestBase(t))
	ctx := context.Background()

	created, err := ks.CreateKnowledge(ctx, models.CreateKnowledgeRequest{
		Title:    "Doomed",
		Question: "q",
	})
	if err != nil {
		t.Fatalf("CreateKnowledge: %v", err)
	}

	if err := ks.DeleteKnowledge(ctx, created.ID); err != nil {
		t.Fatalf("DeleteKnowledge: %v", err)
	}

	if _, err := ks.GetKnowledge(ctx, created.ID); !errors.Is(err, models.ErrKnowledgeNotFound) {
		t.Errorf("GetKnowledge after delete: got %v, want ErrKnowledgeNotFound", err)
	}
}

func TestDeleteKnowledgeNotFound(t *testing.T) {
	ks := store.NewKnowledgeStore(setupTestBase(t))

	err := ks.DeleteKnowledge(context.Background(), 4242)
	if !errors.Is(err, models.ErrKnowledgeNotFound) {
		t.Errorf("DeleteKnowledge: got %v, want ErrKnowledgeNotFound", err)
	}
}

func TestCreateKnowledgeBatch(t *testing.T) {
	ks := store.NewKnowledgeStore(setupTestBase(t))
	ctx := context.Background()

	entries, err := ks.CreateKnowledgeBatch(ctx, []models.CreateKnowledgeRequest{
		{Title: "First", Question: "q1", Answer: "a1", Tags: []string{"batch"}},
		{Title: "Second", Question: "q2", Answer: "a2"},
		{Title: "Third", Question: "q3", Answer: "a3"},
	})
	if err != nil {
		t.Fatalf("CreateKnowledgeBatch: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	for i, entry := range entries {
		if entry.ID == 0 {
			t.Errorf("entry %d has no id", i)
		}
	}

	all, err := ks.ListKnowledge(ctx)
	if err != nil {
		t.Fatalf("ListKnowledge: %v", err)
	}

	if len(all) != 3 {
		t.Errorf("expected 3 stored entries, got %d", len(all))
	}
}
