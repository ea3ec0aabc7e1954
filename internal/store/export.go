package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kbvault/kbvault/internal/models"
)

// ExportStore handles snapshot export and restore for the whole database.
type ExportStore struct {
	Base
}

// NewExportStore creates a new ExportStore.
func NewExportStore(base Base) *ExportStore {
	return &ExportStore{Base: base}
}

// Snapshot reads every exportable entity inside one transaction so the result
// is a consistent point-in-time image. Slices are ordered by (created_at, id)
// for deterministic output. Envelope fields (snapshot id, versions, export
// time) are left for the caller to stamp.
func (s *ExportStore) Snapshot(ctx context.Context) (*models.ExportFormat, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting snapshot: %w", err)
	}

	defer tx.Rollback() //nolint:errcheck // read-only transaction.

	knowledge, err := exportKnowledge(ctx, tx)
	if err != nil {
		return nil, err
	}

	decisions, commentCount, err := exportDecisions(ctx, tx)
	if err != nil {
		return nil, err
	}

	users, err := exportUsers(ctx, tx)
	if err != nil {
		return nil, err
	}

	corpora, err := exportCorpora(ctx, tx)
	if err != nil {
		return nil, err
	}

	return &models.ExportFormat{
		Stats: models.ExportStats{
			KnowledgeCount: len(knowledge),
			DecisionCount:  len(decisions),
			CommentCount:   commentCount,
			UserCount:      len(users),
			CorpusCount:    len(corpora),
		},
		Knowledge: knowledge,
		Decisions: decisions,
		Users:     users,
		Corpora:   corpora,
	}, nil
}

func exportKnowledge(ctx context.Context, tx *sql.Tx) ([]models.ExportKnowledgeEntry, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+knowledgeColumns+` FROM knowledge_entries ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying knowledge for export: %w", err)
	}

	defer rows.Close()

	entries := make([]models.ExportKnowledgeEntry, 0, 64)

	for rows.Next() {
		e, err := scanKnowledge(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning export knowledge entry: %w", err)
		}

		entries = append(entries, models.ExportKnowledgeEntry{
			ID:        e.ID,
			Title:     e.Title,
			Question:  e.Question,
			Answer:    e.Answer,
			Tags:      e.Tags,
			CorpusID:  e.CorpusID,
			CreatedAt: e.CreatedAt,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating export knowledge entries: %w", err)
	}

	return entries, nil
}

func exportDecisions(ctx context.Context, tx *sql.Tx) ([]models.ExportDecisionRecord, int, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+decisionColumns+` FROM decision_records ORDER BY created_at, id`)
	if err != nil {
		return nil, 0, fmt.Errorf("querying decisions for export: %w", err)
	}

	defer rows.Close()

	records := make([]models.ExportDecisionRecord, 0, 32)

	for rows.Next() {
		d, err := scanDecision(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning export decision: %w", err)
		}

		records = append(records, models.ExportDecisionRecord{
			ID:         d.ID,
			Title:      d.Title,
			Background: d.Background,
			Steps:      d.Steps,
			Result:     d.Result,
			Tags:       d.Tags,
			CreatedAt:  d.CreatedAt,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating export decisions: %w", err)
	}

	byDecision, commentCount, err := exportComments(ctx, tx)
	if err != nil {
		return nil, 0, err
	}

	for i := range records {
		records[i].Comments = byDecision[records[i].ID]
	}

	return records, commentCount, nil
}

func exportComments(ctx context.Context, tx *sql.Tx) (map[int64][]models.ExportComment, int, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+commentColumns+` FROM decision_comments ORDER BY created_at, id`)
	if err != nil {
		return nil, 0, fmt.Errorf("querying comments for export: %w", err)
	}

	defer rows.Close()

	byDecision := make(map[int64][]models.ExportComment)
	count := 0

	for rows.Next() {
		c, err := scanComment(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning export comment: %w", err)
		}

		byDecision[c.DecisionID] = append(byDecision[c.DecisionID], models.ExportComment{
			Author:    c.Author,
			Body:      c.Body,
			Rating:    c.Rating,
			CreatedAt: c.CreatedAt,
		})
		count++
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating export comments: %w", err)
	}

	return byDecision, count, nil
}

func exportUsers(ctx context.Context, tx *sql.Tx) ([]models.ExportUser, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying users for export: %w", err)
	}

	defer rows.Close()

	users := make([]models.ExportUser, 0, 8)

	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning export user: %w", err)
		}

		users = append(users, models.ExportUser{
			Username:     u.Username,
			PasswordHash: u.PasswordHash,
			Salt:         u.Salt,
			IsAdmin:      u.IsAdmin,
			IsActive:     u.IsActive,
			CreatedAt:    u.CreatedAt,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating export users: %w", err)
	}

	return users, nil
}

func exportCorpora(ctx context.Context, tx *sql.Tx) ([]models.ExportCorpus, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+corpusColumns+` FROM knowledge_corpora ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying corpora for export: %w", err)
	}

	defer rows.Close()

	var corpora []models.ExportCorpus

	for rows.Next() {
		c, err := scanCorpus(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning export corpus: %w", err)
		}

		corpora = append(corpora, models.ExportCorpus{
			ID:          c.ID,
			Name:        c.Name,
			BasePath:    c.BasePath,
			Description: c.Description,
			CreatedAt:   c.CreatedAt,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating export corpora: %w", err)
	}

	if len(corpora) == 0 {
		return nil, nil
	}

	byCorpus, err := exportCorpusFiles(ctx, tx)
	if err != nil {
		return nil, err
	}

	for i := range corpora {
		corpora[i].Files = byCorpus[corpora[i].ID]
	}

	return corpora, nil
}

func exportCorpusFiles(ctx context.Context, tx *sql.Tx) (map[int64][]models.ExportCorpusFile, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+corpusFileColumns+` FROM corpus_files ORDER BY file_name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying corpus files for export: %w", err)
	}

	defer rows.Close()

	files := make([]models.CorpusFile, 0, 16)

	for rows.Next() {
		f, err := scanCorpusFile(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning export corpus file: %w", err)
		}

		files = append(files, *f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating export corpus files: %w", err)
	}

	byCorpus := make(map[int64][]models.ExportCorpusFile)

	for _, f := range files {
		chunks, err := exportChunkLinks(ctx, tx, f.ID)
		if err != nil {
			return nil, err
		}

		byCorpus[f.CorpusID] = append(byCorpus[f.CorpusID], models.ExportCorpusFile{
			FileName:    f.FileName,
			FilePath:    f.FilePath,
			ContentHash: f.ContentHash,
			CreatedAt:   f.CreatedAt,
			Chunks:      chunks,
		})
	}

	return byCorpus, nil
}

func exportChunkLinks(ctx context.Context, tx *sql.Tx, fileID int64) ([]models.ExportChunkLink, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT knowledge_id, chunk_index FROM knowledge_chunks
		WHERE corpus_file_id = ? ORDER BY chunk_index`,
		fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying chunk links for export: %w", err)
	}

	defer rows.Close()

	var links []models.ExportChunkLink

	for rows.Next() {
		var l models.ExportChunkLink
		if err := rows.Scan(&l.KnowledgeID, &l.ChunkIndex); err != nil {
			return nil, fmt.Errorf("scanning export chunk link: %w", err)
		}

		links = append(links, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating export chunk links: %w", err)
	}

	return links, nil
}

// ImportSnapshot applies a snapshot in a single transaction. Entities are
// appended with fresh ids and references are remapped through the snapshot's
// source ids; users merge by username. With opts.Replace the entity tables
// are wiped first, inside the same transaction. A dry run executes the full
// import and then rolls back, so the counters are exact without any write
// surviving.
func (s *ExportStore) ImportSnapshot(
	ctx context.Context,
	data *models.ExportFormat,
	opts models.ImportOptions,
) (*models.ImportResult, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("importing snapshot: %w", err)
	}

	defer tx.Rollback() //nolint:errcheck // best-effort rollback after commit.

	result := &models.ImportResult{DryRun: opts.DryRun}

	if opts.Replace {
		if err := wipeEntities(ctx, tx); err != nil {
			return nil, err
		}
	}

	corpusIDs, err := importCorpora(ctx, tx, data.Corpora, result)
	if err != nil {
		return nil, err
	}

	knowledgeIDs, err := importKnowledge(ctx, tx, data.Knowledge, corpusIDs, result)
	if err != nil {
		return nil, err
	}

	if err := importDecisions(ctx, tx, data.Decisions, result); err != nil {
		return nil, err
	}

	if err := importUsers(ctx, tx, data.Users, opts.OverwriteUsers, result); err != nil {
		return nil, err
	}

	if err := importCorpusFiles(ctx, tx, data.Corpora, corpusIDs, knowledgeIDs, result); err != nil {
		return nil, err
	}

	if opts.DryRun {
		return result, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing snapshot import: %w", err)
	}

	return result, nil
}

// wipeEntities empties every entity table before a replace-mode import. The
// audit trail is instance-local and survives.
func wipeEntities(ctx context.Context, tx *sql.Tx) error {
	tables := []string{
		"knowledge_chunks",
		"corpus_files",
		"knowledge_entries",
		"knowledge_corpora",
		"decision_comments",
		"decision_records",
		"users",
	}

	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("wiping %s: %w", table, err)
		}
	}

	return nil
}

// importCorpora inserts snapshot corpora, reusing rows whose name already
// exists. Returns the source-id to target-id mapping.
func importCorpora(
	ctx context.Context,
	tx *sql.Tx,
	corpora []models.ExportCorpus,
	result *models.ImportResult,
) (map[int64]int64, error) {
	idMap := make(map[int64]int64, len(corpora))

	for _, c := range corpora {
		var existingID int64

		err := tx.QueryRowContext(ctx,
			"SELECT id FROM knowledge_corpora WHERE name = ?", c.Name).Scan(&existingID)

		switch {
		case err == nil:
			idMap[c.ID] = existingID
			continue
		case !errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("checking corpus %q: %w", c.Name, err)
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO knowledge_corpora (name, base_path, description, created_at)
			VALUES (?, ?, ?, ?)`,
			c.Name, c.BasePath, c.Description, c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("importing corpus %q: %w", c.Name, err)
		}

		newID, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("reading imported corpus id: %w", err)
		}

		idMap[c.ID] = newID
		result.CorporaCreated++
	}

	return idMap, nil
}

// importKnowledge appends snapshot entries with fresh ids and returns the
// source-id to target-id mapping for chunk links.
func importKnowledge(
	ctx context.Context,
	tx *sql.Tx,
	entries []models.ExportKnowledgeEntry,
	corpusIDs map[int64]int64,
	result *models.ImportResult,
) (map[int64]int64, error) {
	idMap := make(map[int64]int64, len(entries))

	for _, e := range entries {
		req := models.CreateKnowledgeRequest{
			Title:    e.Title,
			Question: e.Question,
			Answer:   e.Answer,
			Tags:     e.Tags,
		}

		if e.CorpusID != nil {
			mapped, ok := corpusIDs[*e.CorpusID]
			if !ok {
				return nil, fmt.Errorf(
					"%w: knowledge entry %d references corpus %d missing from the snapshot",
					models.ErrSnapshotMalformed, e.ID, *e.CorpusID)
			}

			req.CorpusID = &mapped
		}

		created, err := insertKnowledge(ctx, tx, req, e.CreatedAt)
		if err != nil {
			return nil, err
		}

		idMap[e.ID] = created.ID
		result.KnowledgeCreated++
	}

	return idMap, nil
}

// importDecisions appends snapshot decisions with their nested comments.
func importDecisions(
	ctx context.Context,
	tx *sql.Tx,
	records []models.ExportDecisionRecord,
	result *models.ImportResult,
) error {
	for _, d := range records {
		req := models.CreateDecisionRequest{
			Title:      d.Title,
			Background: d.Background,
			Steps:      d.Steps,
			Result:     d.Result,
			Tags:       d.Tags,
		}

		created, err := insertDecision(ctx, tx, req, d.CreatedAt)
		if err != nil {
			return err
		}

		result.DecisionsCreated++

		for _, c := range d.Comments {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO decision_comments (decision_id, author, body, rating, created_at)
				VALUES (?, ?, ?, ?, ?)`,
				created.ID, c.Author, c.Body, c.Rating, c.CreatedAt,
			); err != nil {
				return fmt.Errorf("importing comment on decision %d: %w", d.ID, err)
			}

			result.CommentsCreated++
		}
	}

	return nil
}

// importUsers merges snapshot accounts by username: new names are inserted
// with their stored hash material, existing names are skipped unless
// overwrite is set.
func importUsers(
	ctx context.Context,
	tx *sql.Tx,
	users []models.ExportUser,
	overwrite bool,
	result *models.ImportResult,
) error {
	for _, u := range users {
		var existingID int64

		err := tx.QueryRowContext(ctx,
			"SELECT id FROM users WHERE username = ?", u.Username).Scan(&existingID)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO users (username, password_hash, salt, is_admin, is_active, created_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				u.Username, u.PasswordHash, u.Salt, u.IsAdmin, u.IsActive, u.CreatedAt,
			); err != nil {
				return fmt.Errorf("importing user %q: %w", u.Username, err)
			}

			result.UsersCreated++
		case err != nil:
			return fmt.Errorf("checking user %q: %w", u.Username, err)
		case overwrite:
			if _, err := tx.ExecContext(ctx, `
				UPDATE users SET password_hash = ?, salt = ?, is_admin = ?, is_active = ?
				WHERE id = ?`,
				u.PasswordHash, u.Salt, u.IsAdmin, u.IsActive, existingID,
			); err != nil {
				return fmt.Errorf("overwriting user %q: %w", u.Username, err)
			}

			result.UsersOverwritten++
		default:
			result.UsersSkipped++
		}
	}

	return nil
}

// importCorpusFiles inserts snapshot file records and their chunk links.
// Files whose path already exists in the target corpus are skipped, along
// with their links; the chunk entries themselves were already appended by
// importKnowledge.
func importCorpusFiles(
	ctx context.Context,
	tx *sql.Tx,
	corpora []models.ExportCorpus,
	corpusIDs, knowledgeIDs map[int64]int64,
	result *models.ImportResult,
) error {
	for _, c := range corpora {
		targetCorpusID := corpusIDs[c.ID]

		for _, f := range c.Files {
			var existingID int64

			err := tx.QueryRowContext(ctx,
				"SELECT id FROM corpus_files WHERE corpus_id = ? AND file_path = ?",
				targetCorpusID, f.FilePath,
			).Scan(&existingID)

			switch {
			case err == nil:
				continue
			case !errors.Is(err, sql.ErrNoRows):
				return fmt.Errorf("checking corpus file %q: %w", f.FilePath, err)
			}

			res, err := tx.ExecContext(ctx, `
				INSERT INTO corpus_files (corpus_id, file_name, file_path, content_hash, created_at)
				VALUES (?, ?, ?, ?, ?)`,
				targetCorpusID, f.FileName, f.FilePath, f.ContentHash, f.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("importing corpus file %q: %w", f.FilePath, err)
			}

			fileID, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("reading imported corpus file id: %w", err)
			}

			result.FilesCreated++

			for _, link := range f.Chunks {
				targetKnowledgeID, ok := knowledgeIDs[link.KnowledgeID]
				if !ok {
					return fmt.Errorf(
						"%w: file %q links knowledge entry %d missing from the snapshot",
						models.ErrSnapshotMalformed, f.FilePath, link.KnowledgeID)
				}

				if _, err := tx.ExecContext(ctx, `
					INSERT INTO knowledge_chunks (corpus_file_id, knowledge_id, chunk_index)
					VALUES (?, ?, ?)`,
					fileID, targetKnowledgeID, link.ChunkIndex,
				); err != nil {
					return fmt.Errorf("importing chunk link for %q: %w", f.FilePath, err)
				}
			}
		}
	}

	return nil
}
