package service

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kbvault/kbvault/internal/domain"
	"github.com/kbvault/kbvault/internal/models"
)

// DecisionStore defines the data access methods DecisionService depends on.
type DecisionStore interface {
	ListDecisions(ctx context.Context) ([]models.DecisionRecord, error)
	ListDecisionsWithStats(ctx context.Context) ([]models.DecisionWithStats, error)
	GetDecisionWithStats(ctx context.Context, id int64) (*models.DecisionWithStats, error)
	CreateDecision(ctx context.Context, req models.CreateDecisionRequest) (*models.DecisionRecord, error)
	UpdateDecision(ctx context.Context, id int64, req models.UpdateDecisionRequest) (*models.DecisionRecord, error)
	DeleteDecision(ctx context.Context, id int64) error
}

// Compile-time check: *DecisionService must satisfy domain.DecisionService.
var _ domain.DecisionService = (*DecisionService)(nil)

// DefaultSearchLimit caps search results when the caller passes no limit.
const DefaultSearchLimit = 10

// decisionSearchFields is the number of searchable fields on a record:
// title, background, steps, result, and tags as one joined field.
const decisionSearchFields = 5

// DecisionService wraps DecisionStore with validation and keyword search.
type DecisionService struct {
	store    DecisionStore
	comments CommentStore
	log      *logrus.Logger
}

// NewDecisionService creates a DecisionService.
func NewDecisionService(store DecisionStore, comments CommentStore, log *logrus.Logger) *DecisionService {
	return &DecisionService{store: store, comments: comments, log: log}
}

// ListDecisions returns all records with their comment aggregates, newest
// first (pass-through).
func (s *DecisionService) ListDecisions(ctx context.Context) ([]models.DecisionWithStats, error) {
	return s.store.ListDecisionsWithStats(ctx)
}

// GetDecision returns one record with aggregates and its comments ordered
// oldest first.
func (s *DecisionService) GetDecision(ctx context.Context, id int64) (*models.DecisionDetail, error) {
	record, err := s.store.GetDecisionWithStats(ctx, id)
	if err != nil {
		return nil, err
	}

	comments, err := s.comments.ListComments(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.DecisionDetail{DecisionWithStats: *record, Comments: comments}, nil
}

// CreateDecision validates and stores a new decision record.
func (s *DecisionService) CreateDecision(
	ctx context.Context, req models.CreateDecisionRequest,
) (*models.DecisionRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return s.store.CreateDecision(ctx, req)
}

// UpdateDecision validates the patch and applies it.
func (s *DecisionService) UpdateDecision(
	ctx context.Context, id int64, req models.UpdateDecisionRequest,
) (*models.DecisionRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return s.store.UpdateDecision(ctx, id, req)
}

// DeleteDecision removes a record; the store deletes its comments in the
// same transaction.
func (s *DecisionService) DeleteDecision(ctx context.Context, id int64) error {
	return s.store.DeleteDecision(ctx, id)
}

// SearchDecisions scores records by how many of their fields contain the
// keyword, case-insensitively. Results are ordered by score descending, then
// by recency. An empty keyword returns every record at score zero, so it
// doubles as a plain listing; limit <= 0 means no cap.
func (s *DecisionService) SearchDecisions(
	ctx context.Context, keyword string, limit int,
) ([]models.ScoredDecision, error) {
	records, err := s.store.ListDecisions(ctx)
	if err != nil {
		return nil, err
	}

	keyword = strings.TrimSpace(keyword)
	scored := make([]models.ScoredDecision, 0, len(records))

	if keyword == "" {
		for _, rec := range records {
			scored = append(scored, models.ScoredDecision{DecisionRecord: rec})
		}
	} else {
		needle := strings.ToLower(keyword)

		for _, rec := range records {
			score := searchScore(rec, needle)
			if score == 0 {
				continue
			}

			scored = append(scored, models.ScoredDecision{DecisionRecord: rec, Score: score})
		}

		// Records arrive newest first; a stable sort keeps that order
		// within equal scores.
		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].Score > scored[j].Score
		})
	}

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}

	return scored, nil
}

// searchScore counts the record fields containing the lowercase needle.
func searchScore(rec models.DecisionRecord, needle string) int {
	fields := [decisionSearchFields]string{
		rec.Title,
		rec.Background,
		rec.Steps,
		rec.Result,
		strings.Join(rec.Tags, " "),
	}

	score := 0

	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			score++
		}
	}

	return score
}
