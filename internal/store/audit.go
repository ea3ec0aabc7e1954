package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kbvault/kbvault/internal/models"
)

// AuditStore provides read access to the admin_events trail. Writes happen
// through insertAdminEvent inside the transaction of the mutation they
// describe; the trail is append-only and has no update or delete path.
type AuditStore struct {
	Base
}

// NewAuditStore creates an AuditStore.
func NewAuditStore(base Base) *AuditStore {
	return &AuditStore{Base: base}
}

// insertAdminEvent appends one audit event within an existing transaction,
// so the event commits or rolls back together with its mutation.
func insertAdminEvent(ctx context.Context, tx *sql.Tx, evt models.AdminEvent) error {
	var detailJSON []byte
	if evt.Detail != nil {
		var err error

		detailJSON, err = json.Marshal(evt.Detail)
		if err != nil {
			return fmt.Errorf("marshalling event detail: %w", err)
		}
	}

	createdAt := evt.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO admin_events (actor, action, target, detail, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		evt.Actor, evt.Action, evt.Target, detailJSON, createdAt,
	)
	if err != nil {
		return fmt.Errorf("inserting admin event: %w", err)
	}

	return nil
}

// buildAuditFilter builds the WHERE clause and args from AuditQueryOpts.
func buildAuditFilter(opts models.AuditQueryOpts) (where string, args []any) {
	var conditions []string

	if opts.Actor != "" {
		conditions = append(conditions, "actor = ?")
		args = append(args, opts.Actor)
	}
	if opts.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, opts.Action)
	}
	if opts.Target != "" {
		conditions = append(conditions, "target = ?")
		args = append(args, opts.Target)
	}
	if opts.Since != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *opts.Since)
	}

	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	return where, args
}

// QueryEvents returns audit events matching the given filters, newest first.
// Returns events, a hasMore flag, and any error.
func (s *AuditStore) QueryEvents(
	ctx context.Context,
	opts models.AuditQueryOpts,
) ([]models.AdminEvent, bool, error) {
	where, args := buildAuditFilter(opts)

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(
		"SELECT id, actor, action, target, detail, created_at FROM admin_events %s ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		where,
	)
	args = append(args, limit+1, opts.Offset)

	events, err := s.scanEventRows(ctx, query, args)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(events) > limit
	if hasMore {
		events = events[:limit]
	}

	return events, hasMore, nil
}

// CountEvents returns the total number of audit events.
func (s *AuditStore) CountEvents(ctx context.Context) (int, error) {
	var count int

	err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM admin_events").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting admin events: %w", err)
	}

	return count, nil
}

// scanEventRows executes a query and scans audit events from the result.
func (s *AuditStore) scanEventRows(ctx context.Context, query string, args []any) ([]models.AdminEvent, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying admin events: %w", err)
	}

	defer rows.Close()

	var events []models.AdminEvent

	for rows.Next() {
		var e models.AdminEvent
		var detailJSON []byte

		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.Target, &detailJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning admin event: %w", err)
		}

		if detailJSON != nil {
			if err := json.Unmarshal(detailJSON, &e.Detail); err != nil {
				s.Log.WithFields(logrus.Fields{"event_id": e.ID}).
					WithError(err).Warn("failed to unmarshal event detail")
			}
		}

		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating admin events: %w", err)
	}

	return events, nil
}
