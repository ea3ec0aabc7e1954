package models

import (
	"strings"
	"time"
)

// DecisionRecord captures a past decision: the situation it arose from, the
// steps taken, and how it turned out.
type DecisionRecord struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Background string    `json:"background"`
	Steps      string    `json:"steps"`
	Result     string    `json:"result,omitempty"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"created_at"`
}

// DecisionWithStats is a DecisionRecord with comment aggregates computed at
// read time. Aggregates are never persisted.
type DecisionWithStats struct {
	DecisionRecord
	CommentCount  int      `json:"comment_count"`
	AverageRating *float64 `json:"average_rating,omitempty"`
}

// DecisionDetail is a full decision record together with its comments,
// ordered oldest first.
type DecisionDetail struct {
	DecisionWithStats
	Comments []Comment `json:"comments"`
}

// ScoredDecision pairs a decision record with the number of its fields
// matching a search keyword.
type ScoredDecision struct {
	DecisionRecord
	Score int `json:"score"`
}

// CreateDecisionRequest is the payload for creating a new decision record.
type CreateDecisionRequest struct {
	Title      string   `json:"title"`
	Background string   `json:"background"`
	Steps      string   `json:"steps"`
	Result     string   `json:"result,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// Validate checks that required fields are present and within limits.
// Text fields are trimmed and tags normalized in place.
func (r *CreateDecisionRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Background = strings.TrimSpace(r.Background)
	r.Steps = strings.TrimSpace(r.Steps)
	r.Result = strings.TrimSpace(r.Result)

	if r.Title == "" {
		return ErrMissingTitle
	}

	if len(r.Title) > 255 {
		return ErrFieldTooLong("title", 255)
	}

	if r.Background == "" {
		return ErrMissingBackground
	}

	if len(r.Background) > 65536 {
		return ErrFieldTooLong("background", 65536)
	}

	if r.Steps == "" {
		return ErrMissingSteps
	}

	if len(r.Steps) > 65536 {
		return ErrFieldTooLong("steps", 65536)
	}

	if len(r.Result) > 65536 {
		return ErrFieldTooLong("result", 65536)
	}

	r.Tags = NormalizeTags(r.Tags)
	for _, tag := range r.Tags {
		if len(tag) > 100 {
			return ErrFieldTooLong("tag", 100)
		}
	}

	return nil
}

// UpdateDecisionRequest is the payload for partially updating a decision
// record. Nil fields are left untouched; a non-nil Tags pointing at an empty
// slice clears all tags.
type UpdateDecisionRequest struct {
	Title      *string   `json:"title,omitempty"`
	Background *string   `json:"background,omitempty"`
	Steps      *string   `json:"steps,omitempty"`
	Result     *string   `json:"result,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
}

// Validate checks UpdateDecisionRequest fields.
func (r *UpdateDecisionRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return ErrMissingTitle
	}

	if r.Title != nil && len(*r.Title) > 255 {
		return ErrFieldTooLong("title", 255)
	}

	if r.Background != nil && strings.TrimSpace(*r.Background) == "" {
		return ErrMissingBackground
	}

	if r.Background != nil && len(*r.Background) > 65536 {
		return ErrFieldTooLong("background", 65536)
	}

	if r.Steps != nil && strings.TrimSpace(*r.Steps) == "" {
		return ErrMissingSteps
	}

	if r.Steps != nil && len(*r.Steps) > 65536 {
		return ErrFieldTooLong("steps", 65536)
	}

	if r.Result != nil && len(*r.Result) > 65536 {
		return ErrFieldTooLong("result", 65536)
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
func (r *UpdateDecisionRequest) Empty() bool {
	return r.Title == nil && r.Background == nil && r.Steps == nil &&
		r.Result == nil && r.Tags == nil
}
