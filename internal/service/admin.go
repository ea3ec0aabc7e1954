package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/kbvault/kbvault/internal/domain"
	"github.com/kbvault/kbvault/internal/models"
)

// AdminStore defines the data access methods AdminService depends on.
type AdminStore interface {
	Summary(ctx context.Context) (*models.Summary, error)
}

// Compile-time check: *AdminService must satisfy domain.AdminService.
var _ domain.AdminService = (*AdminService)(nil)

// AdminService reports database-wide statistics.
type AdminService struct {
	store AdminStore
	log   *logrus.Logger
}

// NewAdminService creates an AdminService.
func NewAdminService(store AdminStore, log *logrus.Logger) *AdminService {
	return &AdminService{store: store, log: log}
}

// Summary returns database-wide entity counts (pass-through).
func (s *AdminService) Summary(ctx context.Context) (*models.Summary, error) {
	return s.store.Summary(ctx)
}
