package models

import (
	"strings"
	"time"
)

// Corpus groups knowledge entries ingested from a directory of source files.
type Corpus struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	BasePath    string    `json:"base_path,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CorpusFile records one ingested source file. ContentHash is the SHA-1 of
// the file body, used to skip unchanged files on re-ingest.
type CorpusFile struct {
	ID          int64     `json:"id"`
	CorpusID    int64     `json:"corpus_id"`
	FileName    string    `json:"file_name"`
	FilePath    string    `json:"file_path"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateCorpusRequest is the payload for creating a new corpus.
type CreateCorpusRequest struct {
	Name        string `json:"name"`
	BasePath    string `json:"base_path,omitempty"`
	Description string `json:"description,omitempty"`
}

// Validate checks CreateCorpusRequest fields.
func (r *CreateCorpusRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)

	if r.Name == "" {
		return ErrMissingName
	}

	if len(r.Name) > 100 {
		return ErrFieldTooLong("name", 100)
	}

	if len(r.BasePath) > 1024 {
		return ErrFieldTooLong("base_path", 1024)
	}

	if len(r.Description) > 4096 {
		return ErrFieldTooLong("description", 4096)
	}

	return nil
}

// UpdateCorpusRequest is the payload for partially updating a corpus.
type UpdateCorpusRequest struct {
	Name        *string `json:"name,omitempty"`
	BasePath    *string `json:"base_path,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Validate checks UpdateCorpusRequest fields.
func (r *UpdateCorpusRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return ErrMissingName
	}

	if r.Name != nil && len(*r.Name) > 100 {
		return ErrFieldTooLong("name", 100)
	}

	if r.BasePath != nil && len(*r.BasePath) > 1024 {
		return ErrFieldTooLong("base_path", 1024)
	}

	if r.Description != nil && len(*r.Description) > 4096 {
		return ErrFieldTooLong("description", 4096)
	}

	return nil
}

// Empty reports whether the patch carries no fields at all.
func (r *UpdateCorpusRequest) Empty() bool {
	return r.Name == nil && r.BasePath == nil && r.Description == nil
}

// IngestOptions controls corpus ingestion. Zero values fall back to the
// defaults below.
type IngestOptions struct {
	ChunkSize int  `json:"chunk_size"`
	Overlap   int  `json:"overlap"`
	Recursive bool `json:"recursive"`
}

// Ingestion defaults.
const (
	DefaultChunkSize = 800
	DefaultOverlap   = 80
)

// Per-file ingestion outcomes.
const (
	IngestCreated = "created"
	IngestUpdated = "updated"
	IngestSkipped = "skipped"
)

// IngestReport summarises one ingestion run. Skipped lists files that were
// not ingestable (unsupported suffix, undecodable, or empty); unchanged files
// are counted but not listed.
type IngestReport struct {
	FilesProcessed int      `json:"files_processed"`
	FilesUpdated   int      `json:"files_updated"`
	FilesUnchanged int      `json:"files_unchanged"`
	ChunksCreated  int      `json:"chunks_created"`
	Skipped        []string `json:"skipped,omitempty"`
}
