package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kbvault/kbvault/internal/models"
)

// Column lists for each table, shared between queries and scan helpers so
// the two cannot drift apart.
const (
	knowledgeColumns  = `id, title, question, answer, tags, corpus_id, created_at`
	decisionColumns   = `id, title, background, steps, result, tags, created_at`
	commentColumns    = `id, decision_id, author, body, rating, created_at`
	userColumns       = `id, username, password_hash, salt, is_admin, is_active, created_at`
	corpusColumns     = `id, name, base_path, description, created_at`
	corpusFileColumns = `id, corpus_id, file_name, file_path, content_hash, created_at`
)

// encodeTags serializes tags as a JSON array string for the tags column.
func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}

	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("marshalling tags: %w", err)
	}

	return string(data), nil
}

// decodeTags parses a stored JSON tag array.
func decodeTags(raw string) ([]string, error) {
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("unmarshalling tags: %w", err)
	}

	if tags == nil {
		tags = []string{}
	}

	return tags, nil
}

// scanKnowledge scans a single row into a models.KnowledgeEntry.
func scanKnowledge(scan func(dest ...any) error) (*models.KnowledgeEntry, error) {
	var e models.KnowledgeEntry
	var tags string

	err := scan(&e.ID, &e.Title, &e.Question, &e.Answer, &tags, &e.CorpusID, &e.CreatedAt)
	if err != nil {
		return nil, err
	}

	parsed, err := decodeTags(tags)
	if err != nil {
		return nil, fmt.Errorf("knowledge entry %d: %w", e.ID, err)
	}

	e.Tags = parsed

	return &e, nil
}

// scanDecision scans a single row into a models.DecisionRecord.
func scanDecision(scan func(dest ...any) error) (*models.DecisionRecord, error) {
	var d models.DecisionRecord
	var tags string

	err := scan(&d.ID, &d.Title, &d.Background, &d.Steps, &d.Result, &tags, &d.CreatedAt)
	if err != nil {
		return nil, err
	}

	parsed, err := decodeTags(tags)
	if err != nil {
		return nil, fmt.Errorf("decision record %d: %w", d.ID, err)
	}

	d.Tags = parsed

	return &d, nil
}

// scanDecisionWithStats scans a decision row carrying comment aggregates.
func scanDecisionWithStats(scan func(dest ...any) error) (*models.DecisionWithStats, error) {
	var d models.DecisionWithStats
	var tags string

	err := scan(
		&d.ID, &d.Title, &d.Background, &d.Steps, &d.Result, &tags, &d.CreatedAt,
		&d.CommentCount, &d.AverageRating,
	)
	if err != nil {
		return nil, err
	}

	parsed, err := decodeTags(tags)
	if err != nil {
		return nil, fmt.Errorf("decision record %d: %w", d.ID, err)
	}

	d.Tags = parsed

	return &d, nil
}

// scanComment scans a single row into a models.Comment.
func scanComment(scan func(dest ...any) error) (*models.Comment, error) {
	var c models.Comment

	err := scan(&c.ID, &c.DecisionID, &c.Author, &c.Body, &c.Rating, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// scanUser scans a single row into a models.UserCredentials. Callers that
// only need the account strip the hash material by returning &u.User.
func scanUser(scan func(dest ...any) error) (*models.UserCredentials, error) {
	var u models.UserCredentials

	err := scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Salt,
		&u.IsAdmin, &u.IsActive, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// scanCorpus scans a single row into a models.Corpus.
func scanCorpus(scan func(dest ...any) error) (*models.Corpus, error) {
	var c models.Corpus

	err := scan(&c.ID, &c.Name, &c.BasePath, &c.Description, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// scanCorpusFile scans a single row into a models.CorpusFile.
func scanCorpusFile(scan func(dest ...any) error) (*models.CorpusFile, error) {
	var f models.CorpusFile

	err := scan(&f.ID, &f.CorpusID, &f.FileName, &f.FilePath, &f.ContentHash, &f.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &f, nil
}

// collectKnowledge scans all rows into a knowledge entry slice.
func collectKnowledge(rows *sql.Rows) ([]models.KnowledgeEntry, error) {
	entries := make([]models.KnowledgeEntry, 0, 16)

	for rows.Next() {
		e, err := scanKnowledge(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning knowledge row: %w", err)
		}

		entries = append(entries, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating knowledge rows: %w", err)
	}

	return entries, nil
}

// collectDecisions scans all rows into a decision record slice.
func collectDecisions(rows *sql.Rows) ([]models.DecisionRecord, error) {
	records := make([]models.DecisionRecord, 0, 16)

	for rows.Next() {
		d, err := scanDecision(rows.Scan)
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

// collectComments scans all rows into a comment slice.
func collectComments(rows *sql.Rows) ([]models.Comment, error) {
	comments := make([]models.Comment, 0, 8)

	for rows.Next() {
		c, err := scanComment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning comment row: %w", err)
		}

		comments = append(comments, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comment rows: %w", err)
	}

	return comments, nil
}
