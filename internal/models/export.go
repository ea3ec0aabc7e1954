package models

import "time"

// ExportFormat is the top-level structure of a snapshot file. It is a
// full-fidelity export: user credentials are included so a restored instance
// keeps its accounts. The audit trail is instance-local and never exported.
type ExportFormat struct {
	SchemaVersion int                    `json:"schema_version"` // migration count at export time
	AppVersion    string                 `json:"app_version"`    // binary version
	SnapshotID    string                 `json:"snapshot_id"`
	ExportedAt    time.Time              `json:"exported_at"`
	Stats         ExportStats            `json:"stats"`
	Knowledge     []ExportKnowledgeEntry `json:"knowledge"`
	Decisions     []ExportDecisionRecord `json:"decisions"`
	Users         []ExportUser           `json:"users"`
	Corpora       []ExportCorpus         `json:"corpora,omitempty"`
}

// ExportStats summarises the contents of a snapshot.
type ExportStats struct {
	KnowledgeCount int `json:"knowledge_count"`
	DecisionCount  int `json:"decision_count"`
	CommentCount   int `json:"comment_count"`
	UserCount      int `json:"user_count"`
	CorpusCount    int `json:"corpus_count"`
}

// ExportKnowledgeEntry is the portable representation of a knowledge entry.
// ID and CorpusID are source-instance identifiers; import assigns fresh ones
// and remaps references through them.
type ExportKnowledgeEntry struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Tags      []string  `json:"tags"`
	CorpusID  *int64    `json:"corpus_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ExportDecisionRecord is the portable representation of a decision record.
// Comments are nested so the parent relationship survives id renumbering.
type ExportDecisionRecord struct {
	ID         int64           `json:"id"`
	Title      string          `json:"title"`
	Background string          `json:"background"`
	Steps      string          `json:"steps"`
	Result     string          `json:"result,omitempty"`
	Tags       []string        `json:"tags"`
	CreatedAt  time.Time       `json:"created_at"`
	Comments   []ExportComment `json:"comments,omitempty"`
}

// ExportComment is a comment inside its parent decision record.
type ExportComment struct {
	Author    string    `json:"author,omitempty"`
	Body      string    `json:"body"`
	Rating    *int      `json:"rating,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ExportUser carries the stored hash material so accounts survive a restore.
type ExportUser struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	Salt         string    `json:"salt"`
	IsAdmin      bool      `json:"is_admin"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// ExportCorpus is the portable representation of a corpus with its ingested
// files and their chunk links into the knowledge table.
type ExportCorpus struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	BasePath    string             `json:"base_path,omitempty"`
	Description string             `json:"description,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	Files       []ExportCorpusFile `json:"files,omitempty"`
}

// ExportCorpusFile is an ingested source file and its chunk links.
type ExportCorpusFile struct {
	FileName    string            `json:"file_name"`
	FilePath    string            `json:"file_path"`
	ContentHash string            `json:"content_hash"`
	CreatedAt   time.Time         `json:"created_at"`
	Chunks      []ExportChunkLink `json:"chunks,omitempty"`
}

// ExportChunkLink ties a chunk-derived knowledge entry (by source-instance id)
// to its position within the file.
type ExportChunkLink struct {
	KnowledgeID int64 `json:"knowledge_id"`
	ChunkIndex  int   `json:"chunk_index"`
}

// ImportResult summarises the outcome of an import operation.
type ImportResult struct {
	KnowledgeCreated int      `json:"knowledge_created"`
	DecisionsCreated int      `json:"decisions_created"`
	CommentsCreated  int      `json:"comments_created"`
	UsersCreated     int      `json:"users_created"`
	UsersOverwritten int      `json:"users_overwritten"`
	UsersSkipped     int      `json:"users_skipped"`
	CorporaCreated   int      `json:"corpora_created"`
	FilesCreated     int      `json:"files_created"`
	DryRun           bool     `json:"dry_run,omitempty"`
	Errors           []string `json:"errors,omitempty"`
}

// ImportOptions controls the behaviour of an import operation.
type ImportOptions struct {
	// Replace wipes all entity tables before importing, turning the import
	// into a destructive restore. Runs inside the import transaction.
	Replace bool `json:"replace"`
	// OverwriteUsers updates accounts whose username already exists;
	// otherwise matching usernames are skipped.
	OverwriteUsers bool `json:"overwrite_users"`
	// DryRun validates the snapshot without writing anything.
	DryRun bool `json:"dry_run"`
}
