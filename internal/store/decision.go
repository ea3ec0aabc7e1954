package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kbvault/kbvault/internal/models"
)

// decisionStatsColumns selects decision columns plus comment aggregates.
// AVG ignores NULL ratings and yields NULL when no rating exists.
const decisionStatsColumns = `d.id, d.title, d.background, d.steps, d.result, d.tags, d.created_at,
	COUNT(c.id), AVG(c.rating)`

// DecisionStore handles decision record CRUD operations.
type DecisionStore struct {
	Base
}

// NewDecisionStore creates a new DecisionStore.
func NewDecisionStore(base Base) *DecisionStore {
	return &DecisionStore{Base: base}
}

// CreateDecision inserts a new record and returns it.
func (s *DecisionStore) CreateDecision(
	ctx context.Context,
	req models.CreateDecisionRequest,
) (*models.DecisionRecord, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating decision record: %w", err)
	}

	defer tx.Rollback() //nolint:errcheck // best-effort rollback after commit.

	record, err := insertDecision(ctx, tx, req, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing create decision: %w", err)
	}

	return record, nil
}

// insertDecision inserts one record within an existing transaction. Shared
// with snapshot import.
func insertDecision(
	ctx context.Context,
	tx *sql.Tx,
	req models.CreateDecisionRequest,
	createdAt time.Time,
) (*models.DecisionRecord, error) {
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	tagsJSON, err := encodeTags(tags)
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO decision_records (title, background, steps, result, tags, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		req.Title, req.Background, req.Steps, req.Result, tagsJSON, createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting decision record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading decision record id: %w", err)
	}

	return &models.DecisionRecord{
		ID:         id,
		Title:      req.Title,
		Background: req.Background,
		Steps:      req.Steps,
		Result:     req.Result,
		Tags:       tags,
		CreatedAt:  createdAt,
	}, nil
}

// GetDecision fetches a single record by id, without aggregates.
func (s *DecisionStore) GetDecision(ctx context.Context, id int64) (*models.DecisionRecord, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+decisionColumns+` FROM decision_records WHERE id = ?`, id)

	record, err := scanDecision(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrDecisionNotFound
		}

		return nil, fmt.Errorf("querying decision record: %w", err)
	}

	return record, nil
}

// GetDecisionWithStats fetches a single record with its comment aggregates.
func (s *DecisionStore) GetDecisionWithStats(ctx context.Context, id int64) (*models.DecisionWithStats, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT `+decisionStatsColumns+`
		FROM decision_records d
		LEFT JOIN decision_comments c ON c.decision_id = d.id
		WHERE d.id = ?
		GROUP BY d.id`, id)

	record, err := scanDecisionWithStats(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrDecisionNotFound
		}

		return nil, fmt.Errorf("querying decision record: %w", err)
	}

	return record, nil
}

// ListDecisions returns all records without aggregates, newest first.
func (s *DecisionStore) ListDecisions(ctx context.Context) ([]models.DecisionRecord, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+decisionColumns+` FROM decision_records ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying decision records: %w", err)
	}

	defer rows.Close()

	return collectDecisions(rows)
}

// ListDecisionsWithStats returns all records with comment aggregates,
// newest first.
func (s *DecisionStore) ListDecisionsWithStats(ctx context.Context) ([]models.DecisionWithStats, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT ` + decisionStatsColumns + `
		FROM decision_records d
		LEFT JOIN decision_comments c ON c.decision_id = d.id
		GROUP BY d.id
		ORDER BY d.created_at DESC, d.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying decision records: %w", err)
	}

	defer rows.Close()

	records := make([]models.DecisionWithStats, 0, 16)

	for rows.Next() {
		d, err := scanDecisionWithStats(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning decision row: %w", err)
		}

		records = append(records, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating decision rows: %w", err)
	}

	return records, nil
}

// UpdateDecision applies the non-nil fields of the patch and returns the
// updated record. An empty patch returns the current record unchanged.
func (s *DecisionStore) UpdateDecision(
	ctx context.Context,
	id int64,
	req models.UpdateDecisionRequest,
) (*models.DecisionRecord, error) {
	if req.Empty() {
		return s.GetDecision(ctx, id)
	}

	setClauses := make([]string, 0, 5)
	args := make([]any, 0, 6)

	if req.Title != nil {
		setClauses = append(setClauses, "title = ?")
		args = append(args, *req.Title)
	}

	if req.Background != nil {
		setClauses = append(setClauses, "background = ?")
		args = append(args, *req.Background)
	}

	if req.Steps != nil {
		setClauses = append(setClauses, "steps = ?")
		args = append(args, *req.Steps)
	}

	if req.Result != nil {
		setClauses = append(setClauses, "result = ?")
		args = append(args, *req.Result)
	}

	if req.Tags != nil {
		tagsJSON, err := encodeTags(*req.Tags)
		if err != nil {
			return nil, err
		}

		setClauses = append(setClauses, "tags = ?")
		args = append(args, tagsJSON)
	}

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("updating decision record: %w", err)
	}

	defer tx.Rollback() //nolint:errcheck // best-effort rollback after commit.

	query := fmt.Sprintf(
		"UPDATE decision_records SET %s WHERE id = ? RETURNING %s",
		strings.Join(setClauses, ", "), decisionColumns,
	)
	args = append(args, id)

	row := tx.QueryRowContext(ctx, query, args...)

	record, err := scanDecision(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrDecisionNotFound
		}

		return nil, fmt.Errorf("scanning updated decision record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing update decision: %w", err)
	}

	return record, nil
}

// DeleteDecision removes a record and its comments within the same
// transaction.
func (s *DecisionStore) DeleteDecision(ctx context.Context, id int64) error {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return fmt.Errorf("deleting decision record: %w", err)
	}

	defer tx.Rollback() //nolint:errcheck // best-effort rollback after commit.

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM decision_comments WHERE decision_id = ?", id); err != nil {
		return fmt.Errorf("deleting comments for decision: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM decision_records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("executing decision delete: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading decision delete result: %w", err)
	}

	if affected == 0 {
		return models.ErrDecisionNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete decision: %w", err)
	}

	return nil
}
