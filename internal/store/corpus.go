package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/kbvault/kbvault/internal/models"
)

// CorpusStore handles corpora, their source files and the chunk links that
// tie generated knowledge entries back to the file they came from.
type CorpusStore struct {
	Base
}

// NewCorpusStore creates a new CorpusStore.
func NewCorpusStore(base Base) *CorpusStore {
	return &CorpusStore{Base: base}
}

// CreateCorpus inserts a new corpus and returns the created record.
func (s *CorpusStore) CreateCorpus(
	ctx context.Context,
	req models.CreateCorpusRequest,
) (*models.Corpus, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating corpus: %w", err)
	}

	defer tx.Rollback() //nolint:errcheck // best-effort rollback after commit.

	createdAt := time.Now().UTC()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO knowledge_corpora (name, base_path, description, created_at)
		VALUES (?, ?, ?, ?)`,
		req.Name, req.BasePath, req.Description, createdAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, models.ErrDuplicateCorpus
		}

		return nil, fmt.Errorf("inserting corpus: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading corpus id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing create corpus: %w", err)
	}

	return &models.Corpus{
		ID:          id,
		Name:        req.Name,
		BasePath:    req.BasePath,
		Description: req.Description,
		CreatedAt:   createdAt,
	}, nil
}

// GetCorpus fetches a single corpus by id.
func (s *CorpusStore) GetCorpus(ctx context.Context, id int64) (*models.Corpus, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+corpusColumns+` FROM knowledge_corpora WHERE id = ?`, id)

	corpus, err := scanCorpus(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrCorpusNotFound
		}

		return nil, fmt.Errorf("querying corpus: %w", err)
	}

	return corpus, nil
}

// GetCorpusByName fetches a single corpus by its unique name.
func (s *CorpusStore) GetCorpusByName(ctx context.Context, name string) (*models.Corpus, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+corpusColumns+` FROM knowledge_corpora WHERE name = ?`, name)

	corpus, err := scanCorpus(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrCorpusNotFound
		}

		return nil, fmt.Errorf("querying corpus by name: %w", err)
	}

	return corpus, nil
}

// ListCorpora returns all corpora, newest first.
func (s *CorpusStore) ListCorpora(ctx context.Context) ([]models.Corpus, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+corpusColumns+` FROM knowledge_corpora ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying corpora: %w", err)
	}

	defer rows.Close()

	corpora := make([]models.Corpus, 0, 8)

	for rows.Next() {
		c, err := scanCorpus(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning corpus row: %w", err)
		}

		corpora = append(corpora, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating corpus rows: %w", err)
	}

	return corpora, nil
}

// UpdateCorpus applies the non-nil fields of the patch and returns the
// updated record. An empty patch returns the current record unchanged.
func (s *CorpusStore) UpdateCorpus(
	ctx context.Context,
	id int64,
	req models.UpdateCorpusRequest,
) (*models.Corpus, error) {
	if req.Empty() {
		return s.GetCorpus(ctx, id)
	}

	setClauses := make([]string, 0, 3)
	args := make([]any, 0, 4)

	if req.Name != nil {
		setClauses = append(setClauses, "name = ?")
		args = append(args, *req.Name)
	}

	if req.BasePath != nil {
		setClauses = append(setClauses, "base_path = ?")
		args = append(args, *req.BasePath)
	}

	if req.Description != nil {
		setClauses = append(setClauses, "description = ?")
		args = append(args, *req.Description)
	}

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("updating corpus: %w", err)
	}

	defer tx.Rollback() //nolint:errcheck // best-effort rollback after commit.

	query := fmt.Sprintf(
		"UPDATE knowledge_corpora SET %s WHERE id = ? RETURNING %s",
		strings.Join(setClauses, ", "), corpusColumns,
	)
	args = append(args, id)

	row := tx.QueryRowContext(ctx, query, args...)

	corpus, err := scanCorpus(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrCorpusNotFound
		}

		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, models.ErrDuplicateCorpus
		}

		return nil, fmt.Errorf("scanning updated corpus: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing update corpus: %w", err)
	}

	return corpus, nil
}

// DeleteCorpus removes a corpus together with every knowledge entry that
// belongs to it. File and chunk rows are removed by the schema's cascade
// rules.
func (s *CorpusStore) DeleteCorpus(ctx context.Context, id int64) error {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return fmt.Errorf("deleting corpus: %w", err)
	}

	defer tx.Rollback() //nolint:errcheck // best-effort rollback after commit.

	if err := corpusExists(ctx, tx, id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM knowledge_entries WHERE corpus_id = ?", id); err != nil {
		return fmt.Errorf("deleting corpus knowledge entries: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM knowledge_corpora WHERE id = ?", id); err != nil {
		return fmt.Errorf("executing corpus delete: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete corpus: %w", err)
	}

	return nil
}

// ListCorpusFiles returns the ingested files of a corpus ordered by name.
func (s *CorpusStore) ListCorpusFiles(ctx context.Context, corpusID int64) ([]models.CorpusFile, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing corpus files: %w", err)
	}

	defer tx.Rollback() //nolint:errcheck // read-only transaction.

	if err := corpusExists(ctx, tx, corpusID); err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT `+corpusFileColumns+` FROM corpus_files WHERE corpus_id = ? ORDER BY file_name, id`,
		corpusID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying corpus files: %w", err)
	}

	defer rows.Close()

	files := make([]models.CorpusFile, 0, 16)

	for rows.Next() {
		f, err := scanCorpusFile(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning corpus file row: %w", err)
		}

		files = append(files, *f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating corpus file rows: %w", err)
	}

	return files, nil
}

// GetFileByPath fetches one ingested file record by its path within a corpus.
func (s *CorpusStore) GetFileByPath(
	ctx context.Context,
	corpusID int64,
	filePath string,
) (*models.CorpusFile, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+corpusFileColumns+` FROM corpus_files WHERE corpus_id = ? AND file_path = ?`,
		corpusID, filePath,
	)

	file, err := scanCorpusFile(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrCorpusFileNotFound
		}

		return nil, fmt.Errorf("querying corpus file: %w", err)
	}

	return file, nil
}

// IngestFile records one source file and its chunk entries in a single
// transaction. An unchanged file (same content hash) is skipped; a changed
// file has its previous chunk entries replaced. The returned action is one
// of models.IngestCreated, models.IngestUpdated or models.IngestSkipped,
// alongside the number of knowledge entries written.
func (s *CorpusStore) IngestFile(
	ctx context.Context,
	corpusID int64,
	fileName, filePath, contentHash string,
	chunks []models.CreateKnowledgeRequest,
) (string, int, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("ingesting file: %w", err)
	}

	defer tx.Rollback() //nolint:errcheck // best-effort rollback after commit.

	if err := corpusExists(ctx, tx, corpusID); err != nil {
		return "", 0, err
	}

	action := models.IngestCreated

	var fileID int64
	var priorHash string

	err = tx.QueryRowContext(ctx,
		"SELECT id, content_hash FROM corpus_files WHERE corpus_id = ? AND file_path = ?",
		corpusID, filePath,
	).Scan(&fileID, &priorHash)

	switch {
	case err == nil && priorHash == contentHash:
		return models.IngestSkipped, 0, nil
	case err == nil:
		action = models.IngestUpdated
		if err := replaceFileRecord(ctx, tx, fileID, fileName, contentHash); err != nil {
			return "", 0, err
		}
	case errors.Is(err, sql.ErrNoRows):
		fileID, err = insertFileRecord(ctx, tx, corpusID, fileName, filePath, contentHash)
		if err != nil {
			return "", 0, err
		}
	default:
		return "", 0, fmt.Errorf("querying corpus file: %w", err)
	}

	now := time.Now().UTC()

	for i, chunk := range chunks {
		chunk.CorpusID = &corpusID

		entry, err := insertKnowledge(ctx, tx, chunk, now)
		if err != nil {
			return "", 0, err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO knowledge_chunks (corpus_file_id, knowledge_id, chunk_index)
			VALUES (?, ?, ?)`,
			fileID, entry.ID, i,
		); err != nil {
			return "", 0, fmt.Errorf("inserting chunk link: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", 0, fmt.Errorf("committing file ingest: %w", err)
	}

	return action, len(chunks), nil
}

// replaceFileRecord drops the chunk entries of a changed file and refreshes
// its hash so the new chunks can be written in their place.
func replaceFileRecord(ctx context.Context, tx *sql.Tx, fileID int64, fileName, contentHash string) error {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM knowledge_entries WHERE id IN (
			SELECT knowledge_id FROM knowledge_chunks WHERE corpus_file_id = ?
		)`,
		fileID,
	); err != nil {
		return fmt.Errorf("deleting stale chunk entries: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE corpus_files SET file_name = ?, content_hash = ? WHERE id = ?",
		fileName, contentHash, fileID,
	); err != nil {
		return fmt.Errorf("updating corpus file: %w", err)
	}

	return nil
}

// insertFileRecord inserts a new corpus file row and returns its id.
func insertFileRecord(
	ctx context.Context,
	tx *sql.Tx,
	corpusID int64,
	fileName, filePath, contentHash string,
) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO corpus_files (corpus_id, file_name, file_path, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		corpusID, fileName, filePath, contentHash, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting corpus file: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading corpus file id: %w", err)
	}

	return id, nil
}

// corpusExists verifies the corpus row inside an open transaction.
func corpusExists(ctx context.Context, tx *sql.Tx, id int64) error {
	var found int64

	err := tx.QueryRowContext(ctx,
		"SELECT id FROM knowledge_corpora WHERE id = ?", id).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrCorpusNotFound
		}

		return fmt.Errorf("checking corpus: %w", err)
	}

	return nil
}
