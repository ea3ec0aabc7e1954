package models

import (
	"errors"
	"fmt"
)

// Error classes. Every domain error wraps exactly one of these, so callers can
// classify with errors.Is without enumerating specific failures. Errors that
// wrap none of them (driver faults, file I/O) are treated as storage errors.
var (
	ErrInvalid    = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrPermission = errors.New("permission denied")
	ErrAuth       = errors.New("authentication failed")
	ErrImport     = errors.New("import rejected")
)

// Sentinel errors for validation.
var (
	ErrMissingTitle      = fmt.Errorf("%w: title is required", ErrInvalid)
	ErrMissingQuestion   = fmt.Errorf("%w: question is required", ErrInvalid)
	ErrMissingBackground = fmt.Errorf("%w: background is required", ErrInvalid)
	ErrMissingSteps      = fmt.Errorf("%w: steps are required", ErrInvalid)
	ErrMissingBody       = fmt.Errorf("%w: comment body is required", ErrInvalid)
	ErrMissingUsername   = fmt.Errorf("%w: username is required", ErrInvalid)
	ErrMissingPassword   = fmt.Errorf("%w: password is required", ErrInvalid)
	ErrMissingName       = fmt.Errorf("%w: name is required", ErrInvalid)
	ErrRatingRange       = fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalid)
)

// Sentinel errors for entity lookups.
var (
	ErrKnowledgeNotFound  = fmt.Errorf("knowledge entry %w", ErrNotFound)
	ErrDecisionNotFound   = fmt.Errorf("decision record %w", ErrNotFound)
	ErrCommentNotFound    = fmt.Errorf("comment %w", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrCorpusNotFound     = fmt.Errorf("corpus %w", ErrNotFound)
	ErrCorpusFileNotFound = fmt.Errorf("corpus file %w", ErrNotFound)
)

// Sentinel errors for state conflicts.
var (
	ErrDuplicateUsername = fmt.Errorf("%w: username already taken", ErrConflict)
	ErrDuplicateCorpus   = fmt.Errorf("%w: corpus name already taken", ErrConflict)
	ErrAlreadyAdmin      = fmt.Errorf("%w: user is already an admin", ErrConflict)
	ErrNotAnAdmin        = fmt.Errorf("%w: user is not an admin", ErrConflict)
	ErrAlreadyActive     = fmt.Errorf("%w: user is already active", ErrConflict)
	ErrAlreadyInactive   = fmt.Errorf("%w: user is already inactive", ErrConflict)
	ErrLastAdmin         = fmt.Errorf("%w: cannot remove the last active admin", ErrConflict)
)

// Sentinel errors for actor gating on privileged operations.
var (
	ErrActorRequired = fmt.Errorf("%w: an actor username is required", ErrPermission)
	ErrActorUnknown  = fmt.Errorf("%w: actor is not a known user", ErrPermission)
	ErrActorInactive = fmt.Errorf("%w: actor is deactivated", ErrPermission)
	ErrActorNotAdmin = fmt.Errorf("%w: actor is not an admin", ErrPermission)
)

// ErrBadCredentials covers unknown users, deactivated users, and password
// mismatches uniformly so authentication failures are indistinguishable.
var ErrBadCredentials = fmt.Errorf("%w: invalid username or password", ErrAuth)

// Sentinel errors for snapshot import.
var (
	ErrSnapshotVersion   = fmt.Errorf("%w: snapshot schema version is newer than this binary", ErrImport)
	ErrSnapshotMalformed = fmt.Errorf("%w: snapshot document is malformed", ErrImport)
	ErrBlueprint         = fmt.Errorf("%w: not a valid knowledge blueprint", ErrImport)
)

// ErrFieldTooLong returns a validation error indicating a field exceeds its
// maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%w: %s exceeds maximum length of %d", ErrInvalid, field, maxLen)
}
