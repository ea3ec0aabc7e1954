package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kbvault/kbvault/internal/models"
)

// CommentStore handles comments attached to decision records.
type CommentStore struct {
	Base
}

// NewCommentStore creates a new CommentStore.
func NewCommentStore(base Base) *CommentStore {
	return &CommentStore{Base: base}
}

// CreateComment attaches a comment to its decision record. The parent is
// checked inside the transaction so a missing record maps to a clean
// not-found error rather than a constraint violation.
func (s *CommentStore) CreateComment(
	ctx context.Context,
	req models.CreateCommentRequest,
) (*models.Comment, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	defer tx.Rollback() //nolint:errcheck // best-effort rollback after commit.

	if err := decisionExists(ctx, tx, req.DecisionID); err != nil {
		return nil, err
	}

	createdAt := time.Now().UTC()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO decision_comments (decision_id, author, body, rating, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		req.DecisionID, req.Author, req.Body, req.Rating, createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting comment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading comment id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing create comment: %w", err)
	}

	return &models.Comment{
		ID:         id,
		DecisionID: req.DecisionID,
		Author:     req.Author,
		Body:       req.Body,
		Rating:     req.Rating,
		CreatedAt:  createdAt,
	}, nil
}

// ListComments returns the comments of a decision record, oldest first.
// Fails with not-found when the record itself is missing.
func (s *CommentStore) ListComments(ctx context.Context, decisionID int64) ([]models.Comment, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}

	defer tx.Rollback() //nolint:errcheck // best-effort rollback after commit.

	if err := decisionExists(ctx, tx, decisionID); err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT `+commentColumns+` FROM decision_comments
		WHERE decision_id = ?
		ORDER BY created_at, id`, decisionID)
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}

	defer rows.Close()

	comments, err := collectComments(rows)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing list comments: %w", err)
	}

	return comments, nil
}

// decisionExists verifies the referenced decision record inside a transaction.
func decisionExists(ctx context.Context, tx *sql.Tx, decisionID int64) error {
	var one int

	err := tx.QueryRowContext(ctx,
		"SELECT 1 FROM decision_records WHERE id = ?", decisionID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrDecisionNotFound
		}

		return fmt.Errorf("checking decision record: %w", err)
	}

	return nil
}
