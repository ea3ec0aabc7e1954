package service

import (
	"context"
	"errors"
	"testing"

	"github.com/kbvault/kbvault/internal/models"
)

func askEntries() []models.KnowledgeEntry {
	return []models.KnowledgeEntry{
		{
			ID:       1,
			Title:    "退火工序",
			Question: "退火炉温度异常如何处理？",
			Answer:   "先确认测温仪表读数，再检查加热区。",
			Tags:     []string{"退火", "温度"},
		},
		{
			ID:       2,
			Title:    "淬火工序",
			Question: "淬火介质温度如何控制？",
			Answer:   "保持介质温度在工艺窗口内。",
			Tags:     []string{"淬火"},
		},
		{
			ID:       3,
			Title:    "CNC 主轴维护",
			Question: "CNC 主轴震动偏大怎么排查？",
			Answer:   "检查刀柄清洁度和动平衡。",
			Tags:     []string{"CNC"},
		},
	}
}

func TestMatchService_AskRanksByOverlap(t *testing.T) {
	store := &mockKnowledgeStore{
		listKnowledge: func(_ context.Context) ([]models.KnowledgeEntry, error) {
			return askEntries(), nil
		},
	}
	svc := NewMatchService(store, testLogger())

	matches, err := svc.Ask(context.Background(), "退火炉温度异常", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].ID != 1 {
		t.Errorf("top match ID = %d, want 1 (退火工序)", matches[0].ID)
	}
	// 退火/火炉/炉温/温度/度异/异常 all occur in entry 1's title, question or tags.
	if matches[0].Score != 6 {
		t.Errorf("top score = %d, want 6", matches[0].Score)
	}
	// Entry 2 shares only 温度.
	if matches[1].ID != 2 || matches[1].Score != 1 {
		t.Errorf("second match = id %d score %d, want id 2 score 1", matches[1].ID, matches[1].Score)
	}
}

func TestMatchService_AskMixedScripts(t *testing.T) {
	store := &mockKnowledgeStore{
		listKnowledge: func(_ context.Context) ([]models.KnowledgeEntry, error) {
			return askEntries(), nil
		},
	}
	svc := NewMatchService(store, testLogger())

	matches, err := svc.Ask(context.Background(), "cnc 主轴震动", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) == 0 || matches[0].ID != 3 {
		t.Fatalf("top match = %+v, want CNC entry", matches)
	}
	// cnc matches case-insensitively, plus 主轴, 轴震 and 震动 from the question.
	if matches[0].Score != 4 {
		t.Errorf("score = %d, want 4", matches[0].Score)
	}
}

func TestMatchService_AskIgnoresAnswerText(t *testing.T) {
	store := &mockKnowledgeStore{
		listKnowledge: func(_ context.Context) ([]models.KnowledgeEntry, error) {
			return []models.KnowledgeEntry{
				{ID: 1, Title: "别的标题", Question: "别的问题", Answer: "退火炉温度异常的完整处理方案"},
			}, nil
		},
	}
	svc := NewMatchService(store, testLogger())

	matches, err := svc.Ask(context.Background(), "退火炉温度异常", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("got %d matches, want 0: answers are not searched", len(matches))
	}
}

func TestMatchService_AskTieBreaksByID(t *testing.T) {
	store := &mockKnowledgeStore{
		listKnowledge: func(_ context.Context) ([]models.KnowledgeEntry, error) {
			return []models.KnowledgeEntry{
				{ID: 9, Title: "温度监控", Question: "如何监控？"},
				{ID: 2, Title: "温度校准", Question: "如何校准？"},
			}, nil
		},
	}
	svc := NewMatchService(store, testLogger())

	matches, err := svc.Ask(context.Background(), "温度", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].ID != 2 || matches[1].ID != 9 {
		t.Errorf("order = [%d, %d], want [2, 9] on equal scores", matches[0].ID, matches[1].ID)
	}
}

func TestMatchService_AskDefaultLimit(t *testing.T) {
	store := &mockKnowledgeStore{
		listKnowledge: func(_ context.Context) ([]models.KnowledgeEntry, error) {
			entries := make([]models.KnowledgeEntry, 5)
			for i := range entries {
				entries[i] = models.KnowledgeEntry{ID: int64(i + 1), Title: "温度", Question: "温度"}
			}
			return entries, nil
		},
	}
	svc := NewMatchService(store, testLogger())

	matches, err := svc.Ask(context.Background(), "温度", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != DefaultAskLimit {
		t.Errorf("got %d matches, want default limit %d", len(matches), DefaultAskLimit)
	}

	matches, err = svc.Ask(context.Background(), "温度", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 5 {
		t.Errorf("got %d matches, want 5 with explicit limit", len(matches))
	}
}

func TestMatchService_AskEmptyQuestion(t *testing.T) {
	store := &mockKnowledgeStore{}
	svc := NewMatchService(store, testLogger())

	for _, question := range []string{"", "   ", "！？。"} {
		matches, err := svc.Ask(context.Background(), question, 0)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", question, err)
		}
		if len(matches) != 0 {
			t.Errorf("question %q: got %d matches, want 0", question, len(matches))
		}
	}
	if len(store.calls) != 0 {
		t.Errorf("store queried for empty questions: %v", store.calls)
	}
}

func TestMatchService_AskStoreError(t *testing.T) {
	storeErr := errors.New("db down")
	store := &mockKnowledgeStore{
		listKnowledge: func(_ context.Context) ([]models.KnowledgeEntry, error) {
			return nil, storeErr
		},
	}
	svc := NewMatchService(store, testLogger())

	if _, err := svc.Ask(context.Background(), "温度", 0); !errors.Is(err, storeErr) {
		t.Errorf("got %v, want store error", err)
	}
}
