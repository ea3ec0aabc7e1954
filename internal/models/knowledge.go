// Package models defines data types for the knowledge base.
package models

import (
	"strings"
	"time"
)

// KnowledgeEntry represents a single question/answer item in the knowledge base.
type KnowledgeEntry struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Tags      []string  `json:"tags"`
	CorpusID  *int64    `json:"corpus_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ScoredEntry pairs a KnowledgeEntry with its token-overlap score from matching.
type ScoredEntry struct {
	KnowledgeEntry
	Score int `json:"score"`
}

// CreateKnowledgeRequest is the payload for creating a new knowledge entry.
type CreateKnowledgeRequest struct {
	Title    string   `json:"title"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Tags     []string `json:"tags,omitempty"`
	CorpusID *int64   `json:"corpus_id,omitempty"`
}

// Validate checks that required fields are present and within limits.
// Text fields are trimmed and tags normalized in place.
func (r *CreateKnowledgeRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Question = strings.TrimSpace(r.Question)
	r.Answer = strings.TrimSpace(r.Answer)

	if r.Title == "" {
		return ErrMissingTitle
	}

	if len(r.Title) > 255 {
		return ErrFieldTooLong("title", 255)
	}

	if r.Question == "" {
		return ErrMissingQuestion
	}

	if len(r.Question) > 65536 {
		return ErrFieldTooLong("question", 65536)
	}

	if len(r.Answer) > 65536 {
		return ErrFieldTooLong("answer", 65536)
	}

	r.Tags = NormalizeTags(r.Tags)
	for _, tag := range r.Tags {
		if len(tag) > 100 {
			return ErrFieldTooLong("tag", 100)
		}
	}

	return nil
}

// UpdateKnowledgeRequest is the payload for partially updating a knowledge
// entry. Nil fields are left untouched; a non-nil Tags pointing at an empty
// slice clears all tags.
type UpdateKnowledgeRequest struct {
	Title    *string   `json:"title,omitempty"`
	Question *string   `json:"question,omitempty"`
	Answer   *string   `json:"answer,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
}

// Validate checks UpdateKnowledgeRequest fields.
func (r *UpdateKnowledgeRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return ErrMissingTitle
	}

	if r.Title != nil && len(*r.Title) > 255 {
		return ErrFieldTooLong("title", 255)
	}

	if r.Question != nil && strings.TrimSpace(*r.Question) == "" {
		return ErrMissingQuestion
	}

	if r.Question != nil && len(*r.Question) > 65536 {
		return ErrFieldTooLong("question", 65536)
	}

	if r.Answer != nil && len(*r.Answer) > 65536 {
		return ErrFieldTooLong("answer", 65536)
	}

	if r.Tags != nil {
		*r.Tags = NormalizeTags(*r.Tags)
		for _, tag := range *r.Tags {
			if len(tag) > 100 {
				return ErrFieldTooLong("tag", 100)
			}
		}
	}

	return nil
}

// Empty reports whether the patch carries no fields at all.
func (r *UpdateKnowledgeRequest) Empty() bool {
	return r.Title == nil && r.Question == nil && r.Answer == nil && r.Tags == nil
}
