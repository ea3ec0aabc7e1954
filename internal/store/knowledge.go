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

// KnowledgeStore handles knowledge entry CRUD operations.
type KnowledgeStore struct {
	Base
}

// NewKnowledgeStore creates a new KnowledgeStore.
func NewKnowledgeStore(base Base) *KnowledgeStore {
	return &KnowledgeStore{Base: base}
}

// CreateKnowledge inserts a new entry and returns the created record.
func (s *KnowledgeStore) CreateKnowledge(
	ctx context.Context,
	req models.CreateKnowledgeRequest,
) (*models.KnowledgeEntry, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating knowledge entry: %w", err)
	}

	defer tx.Rollback() //nolint:errcheck // best-effort rollback after commit.

	entry, err := insertKnowledge(ctx, tx, req, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing create knowledge: %w", err)
	}

	return entry, nil
}

// CreateKnowledgeBatch inserts several entries in one transaction. Blueprint
// import uses it so a document either lands completely or not at all.
func (s *KnowledgeStore) CreateKnowledgeBatch(
	ctx context.Context,
	reqs []models.CreateKnowledgeRequest,
) ([]models.KnowledgeEntry, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating knowledge entries: %w", err)
	}

	defer tx.Rollback() //nolint:errcheck // best-effort rollback after commit.

	now := time.Now().UTC()
	entries := make([]models.KnowledgeEntry, 0, len(reqs))

	for _, req := range reqs {
		entry, err := insertKnowledge(ctx, tx, req, now)
		if err != nil {
			return nil, err
		}

		entries = append(entries, *entry)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing create knowledge batch: %w", err)
	}

	return entries, nil
}

// insertKnowledge inserts one entry within an existing transaction. Shared
// with corpus ingestion and snapshot import.
func insertKnowledge(
	ctx context.Context,
	tx *sql.Tx,
	req models.CreateKnowledgeRequest,
	createdAt time.Time,
) (*models.KnowledgeEntry, error) {
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	tagsJSON, err := encodeTags(tags)
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO knowledge_entries (title, question, answer, tags, corpus_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		req.Title, req.Question, req.Answer, tagsJSON, req.CorpusID, createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting knowledge entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading knowledge entry id: %w", err)
	}

	return &models.KnowledgeEntry{
		ID:        id,
		Title:     req.Title,
		Question:  req.Question,
		Answer:    req.Answer,
		Tags:      tags,
		CorpusID:  req.CorpusID,
		CreatedAt: createdAt,
	}, nil
}

// GetKnowledge fetches a single entry by id.
func (s *KnowledgeStore) GetKnowledge(ctx context.Context, id int64) (*models.KnowledgeEntry, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+knowledgeColumns+` FROM knowledge_entries WHERE id = ?`, id)

	entry, err := scanKnowledge(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrKnowledgeNotFound
		}

		return nil, fmt.Errorf("querying knowledge entry: %w", err)
	}

	return entry, nil
}

// ListKnowledge returns all entries, newest first.
func (s *KnowledgeStore) ListKnowledge(ctx context.Context) ([]models.KnowledgeEntry, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+knowledgeColumns+` FROM knowledge_entries ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying knowledge entries: %w", err)
	}

	defer rows.Close()

	return collectKnowledge(rows)
}

// UpdateKnowledge applies the non-nil fields of the patch and returns the
// updated record. An empty patch returns the current record unchanged.
func (s *KnowledgeStore) UpdateKnowledge(
	ctx context.Context,
	id int64,
	req models.UpdateKnowledgeRequest,
) (*models.KnowledgeEntry, error) {
	if req.Empty() {
		return s.GetKnowledge(ctx, id)
	}

	setClauses := make([]string, 0, 4)
	args := make([]any, 0, 5)

	if req.Title != nil {
		setClauses = append(setClauses, "title = ?")
		args = append(args, *req.Title)
	}

	if req.Question != nil {
		setClauses = append(setClauses, "question = ?")
		args = append(args, *req.Question)
	}

	if req.Answer != nil {
		setClauses = append(setClauses, "answer = ?")
		args = append(args, *req.Answer)
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
		return nil, fmt.Errorf("updating knowledge entry: %w", err)
	}

	defer tx.Rollback() //nolint:errcheck // best-effort rollback after commit.

	query := fmt.Sprintf(
		"UPDATE knowledge_entries SET %s WHERE id = ? RETURNING %s",
		strings.Join(setClauses, ", "), knowledgeColumns,
	)
	args = append(args, id)

	row := tx.QueryRowContext(ctx, query, args...)

	entry, err := scanKnowledge(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrKnowledgeNotFound
		}

		return nil, fmt.Errorf("scanning updated knowledge entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing update knowledge: %w", err)
	}

	return entry, nil
}

// DeleteKnowledge removes an entry by id. Chunk links referencing the entry
// are removed by the schema's cascade rules.
func (s *KnowledgeStore) DeleteKnowledge(ctx context.Context, id int64) error {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return fmt.Errorf("deleting knowledge entry: %w", err)
	}

	defer tx.Rollback() //nolint:errcheck // best-effort rollback after commit.

	res, err := tx.ExecContext(ctx, "DELETE FROM knowledge_entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("executing knowledge delete: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading knowledge delete result: %w", err)
	}

	if affected == 0 {
		return models.ErrKnowledgeNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete knowledge: %w", err)
	}

	return nil
}
