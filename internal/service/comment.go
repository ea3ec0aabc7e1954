package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/kbvault/kbvault/internal/domain"
	"github.com/kbvault/kbvault/internal/models"
)

// CommentStore defines the data access methods CommentService depends on.
type CommentStore interface {
	CreateComment(ctx context.Context, req models.CreateCommentRequest) (*models.Comment, error)
	ListComments(ctx context.Context, decisionID int64) ([]models.Comment, error)
}

// Compile-time check: *CommentService must satisfy domain.CommentService.
var _ domain.CommentService = (*CommentService)(nil)

// CommentService wraps CommentStore with request validation.
type CommentService struct {
	store CommentStore
	log   *logrus.Logger
}

// NewCommentService creates a CommentService.
func NewCommentService(store CommentStore, log *logrus.Logger) *CommentService {
	return &CommentService{store: store, log: log}
}

// CreateComment validates and stores a comment. The store rejects comments
// on decisions that do not exist.
func (s *CommentService) CreateComment(
	ctx context.Context, req models.CreateCommentRequest,
) (*models.Comment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return s.store.CreateComment(ctx, req)
}

// ListComments returns a decision's comments oldest first (pass-through).
func (s *CommentService) ListComments(ctx context.Context, decisionID int64) ([]models.Comment, error) {
	return s.store.ListComments(ctx, decisionID)
}
