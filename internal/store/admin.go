package store

import (
	"context"
	"fmt"

	"github.com/kbvault/kbvault/internal/models"
)

// AdminStore provides aggregate queries for the admin overview.
type AdminStore struct {
	Base
}

// NewAdminStore creates a new AdminStore.
func NewAdminStore(base Base) *AdminStore {
	return &AdminStore{Base: base}
}

// Summary counts every entity kind in one statement so the numbers are
// mutually consistent.
func (s *AdminStore) Summary(ctx context.Context) (*models.Summary, error) {
	var sum models.Summary

	err := s.DB.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM knowledge_entries),
			(SELECT COUNT(*) FROM decision_records),
			(SELECT COUNT(*) FROM decision_comments),
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_admin = 1),
			(SELECT COUNT(*) FROM users WHERE is_active = 1),
			(SELECT COUNT(*) FROM knowledge_corpora),
			(SELECT COUNT(*) FROM admin_events)`,
	).Scan(
		&sum.KnowledgeEntries,
		&sum.DecisionRecords,
		&sum.Comments,
		&sum.Users,
		&sum.Admins,
		&sum.ActiveUsers,
		&sum.Corpora,
		&sum.AdminEvents,
	)
	if err != nil {
		return nil, fmt.Errorf("querying summary counts: %w", err)
	}

	return &sum, nil
}
