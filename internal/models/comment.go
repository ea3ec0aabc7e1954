package models

import (
	"strings"
	"time"
)

// Comment is feedback attached to a decision record. Rating is optional;
// when present it must fall between 1 and 5.
type Comment struct {
	ID         int64     `json:"id"`
	DecisionID int64     `json:"decision_id"`
	Author     string    `json:"author,omitempty"`
	Body       string    `json:"body"`
	Rating     *int      `json:"rating,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateCommentRequest is the payload for attaching a comment to a decision
// record.
type CreateCommentRequest struct {
	DecisionID int64  `json:"decision_id"`
	Author     string `json:"author,omitempty"`
	Body       string `json:"body"`
	Rating     *int   `json:"rating,omitempty"`
}

// Validate checks that the body is present and the rating, if any, is in
// bounds.
func (r *CreateCommentRequest) Validate() error {
	r.Author = strings.TrimSpace(r.Author)
	r.Body = strings.TrimSpace(r.Body)

	if r.Body == "" {
		return ErrMissingBody
	}

	if len(r.Body) > 65536 {
		return ErrFieldTooLong("body", 65536)
	}

	if len(r.Author) > 255 {
		return ErrFieldTooLong("author", 255)
	}

	if r.Rating != nil && (*r.Rating < 1 || *r.Rating > 5) {
		return ErrRatingRange
	}

	return nil
}
