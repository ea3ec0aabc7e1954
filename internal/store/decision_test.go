package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kbvault/kbvault/internal/models"
	"github.com/kbvault/kbvault/internal/store"
)

func seedDecision(t *testing.T, ds *store.DecisionStore, title string) *models.DecisionRecord {
	t.Helper()

	d, err := ds.CreateDecision(context.Background(), models.CreateDecisionRequest{
		Title:      title,
		Background: "the database keeps running out of disk",
		Steps:      "1. check volume 2. rotate WAL 3. archive old snapshots",
	})
	if err != nil {
		t.Fatalf("CreateDecision(%s): %v", title, err)
	}

	return d
}

func TestCreateDecision(t *testing.T) {
	ds := store.NewDecisionStore(setupTestBase(t))
	ctx := context.Background()

	req := models.CreateDecisionRequest{
		Title:      "Move backups off-host",
		Background: "local disk filled up twice this month",
		Steps:      "provision bucket, point cron at it",
		Result:     "no full-disk incidents since",
		Tags:       []string{"storage", "backup"},
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	d, err := ds.CreateDecision(ctx, req)
	if err != nil {
		t.Fatalf("CreateDecision: %v", err)
	}

	if d.ID == 0 {
		t.Error("ID is zero")
	}
	if d.Result != "no full-disk incidents since" {
		t.Errorf("Result = %q, want %q", d.Result, req.Result)
	}
	if len(d.Tags) != 2 {
		t.Errorf("Tags = %v, want 2 tags", d.Tags)
	}
}

func TestGetDecisionNotFound(t *testing.T) {
	ds := store.NewDecisionStore(setupTestBase(t))

	_, err := ds.GetDecision(context.Background(), 4242)
	if !errors.Is(err, models.ErrDecisionNotFound) {
		t.Errorf("GetDecision: got %v, want ErrDecisionNotFound", err)
	}
}

func TestGetDecisionWithStats(t *testing.T) {
	base := setupTestBase(t)
	ds := store.NewDecisionStore(base)
	cs := store.NewCommentStore(base)
	ctx := context.Background()

	d := seedDecision(t, ds, "Stats target")

	for _, rating := range []int{4, 5} {
		r := rating
		if _, err := cs.CreateComment(ctx, models.CreateCommentRequest{
			DecisionID: d.ID,
			Body:       "worked well",
			Rating:     &r,
		}); err != nil {
			t.Fatalf("CreateComment: %v", err)
		}
	}

	got, err := ds.GetDecisionWithStats(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetDecisionWithStats: %v", err)
	}

	if got.CommentCount != 2 {
		t.Errorf("CommentCount = %d, want 2", got.CommentCount)
	}
	if got.AverageRating == nil || *got.AverageRating != 4.5 {
		t.Errorf("AverageRating = %v, want 4.5", got.AverageRating)
	}
}

func TestGetDecisionWithStatsUnratedComments(t *testing.T) {
	base := setupTestBase(t)
	ds := store.NewDecisionStore(base)
	cs := store.NewCommentStore(base)
	ctx := context.Background()

	d := seedDecision(t, ds, "Unrated")

	if _, err := cs.CreateComment(ctx, models.CreateCommentRequest{
		DecisionID: d.ID,
		Body:       "no rating on this one",
	}); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}

	got, err := ds.GetDecisionWithStats(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetDecisionWithStats: %v", err)
	}

	if got.CommentCount != 1 {
		t.Errorf("CommentCount = %d, want 1", got.CommentCount)
	}
	if got.AverageRating != nil {
		t.Errorf("AverageRating = %v, want nil when all ratings absent", *got.AverageRating)
	}
}

func TestListDecisionsWithStatsNewestFirst(t *testing.T) {
	base := setupTestBase(t)
	ds := store.NewDecisionStore(base)
	ctx := context.Background()

	seedDecision(t, ds, "older")
	seedDecision(t, ds, "newer")

	records, err := ds.ListDecisionsWithStats(ctx)
	if err != nil {
		t.Fatalf("ListDecisionsWithStats: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("ListDecisionsWithStats returned %d records, want 2", len(records))
	}
	if records[0].Title != "newer" {
		t.Errorf("first record = %q, want %q", records[0].Title, "newer")
	}
	if records[0].CommentCount != 0 {
		t.Errorf("CommentCount = %d, want 0", records[0].CommentCount)
	}
}

func TestUpdateDecision(t *testing.T) {
	ds := store.NewDecisionStore(setupTestBase(t))
	ctx := context.Background()

	d := seedDecision(t, ds, "Patchable")

	result := "rolled out to all hosts"

	updated, err := ds.UpdateDecision(ctx, d.ID, models.UpdateDecisionRequest{
		Result: &result,
	})
	if err != nil {
		t.Fatalf("UpdateDecision: %v", err)
	}

	if updated.Result != result {
		t.Errorf("Result = %q, want %q", updated.Result, result)
	}
	if updated.Background != d.Background {
		t.Errorf("Background changed to %q, want untouched", updated.Background)
	}
}

func TestUpdateDecisionNotFound(t *testing.T) {
	ds := store.NewDecisionStore(setupTestBase(t))

	title := "nope"

	_, err := ds.UpdateDecision(context.Background(), 4242, models.UpdateDecisionRequest{
		Title: &title,
	})
	if !errors.Is(err, models.ErrDecisionNotFound) {
		t.Errorf("UpdateDecision: got %v, want ErrDecisionNotFound", err)
	}
}

func TestDeleteDecisionRemovesComments(t *testing.T) {
	base := setupTestBase(t)
	ds := store.NewDecisionStore(base)
	cs := store.NewCommentStore(base)
	ctx := context.Background()

	d := seedDecision(t, ds, "Doomed")

	if _, err := cs.CreateComment(ctx, models.CreateCommentRequest{
		DecisionID: d.ID,
		Body:       "going down with the ship",
	}); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}

	if err := ds.DeleteDecision(ctx, d.ID); err != nil {
		t.Fatalf("DeleteDecision: %v", err)
	}

	if _, err := ds.GetDecision(ctx, d.ID); !errors.Is(err, models.ErrDecisionNotFound) {
		t.Errorf("GetDecision after delete: got %v, want ErrDecisionNotFound", err)
	}

	var count int
	if err := base.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM decision_comments WHERE decision_id = ?", d.ID,
	).Scan(&count); err != nil {
		t.Fatalf("counting comments: %v", err)
	}

	if count != 0 {
		t.Errorf("comments remaining = %d, want 0", count)
	}
}

func TestDeleteDecisionNotFound(t *testing.T) {
	ds := store.NewDecisionStore(setupTestBase(t))

	err := ds.DeleteDecision(context.Background(), 4242)
	if !errors.Is(err, models.ErrDecisionNotFound) {
		t.Errorf("DeleteDecision: got %v, want ErrDecisionNotFound", err)
	}
}
