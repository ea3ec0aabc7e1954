package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/kbvault/kbvault/internal/domain"
	"github.com/kbvault/kbvault/internal/models"
)

// AuditStore defines the data access methods AuditService depends on.
type AuditStore interface {
	QueryEvents(ctx context.Context, opts models.AuditQueryOpts) ([]models.AdminEvent, bool, error)
}

// Compile-time check: *AuditService must satisfy domain.AuditService.
var _ domain.AuditService = (*AuditService)(nil)

// AuditService exposes the audit trail. Events are written by the stores as
// part of the mutations they describe; this service only reads them.
type AuditService struct {
	store AuditStore
	log   *logrus.Logger
}

// NewAuditService creates an AuditService.
func NewAuditService(store AuditStore, log *logrus.Logger) *AuditService {
	return &AuditService{store: store, log: log}
}

// Events returns matching audit events newest first, plus a flag telling
// whether more events exist beyond the page (pass-through).
func (s *AuditService) Events(ctx context.Context, opts models.AuditQueryOpts) ([]models.AdminEvent, bool, error) {
	return s.store.QueryEvents(ctx, opts)
}
