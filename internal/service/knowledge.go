// Package service provides business logic between CLI commands and data
// stores: request validation, permission gating, matching, and document
// ingestion. Stores stay dumb; policy lives here.
package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/kbvault/kbvault/internal/blueprint"
	"github.com/kbvault/kbvault/internal/domain"
	"github.com/kbvault/kbvault/internal/models"
)

// KnowledgeStore defines the data access methods KnowledgeService depends on.
type KnowledgeStore interface {
	ListKnowledge(ctx context.Context) ([]models.KnowledgeEntry, error)
	GetKnowledge(ctx context.Context, id int64) (*models.KnowledgeEntry, error)
	CreateKnowledge(ctx context.Context, req models.CreateKnowledgeRequest) (*models.KnowledgeEntry, error)
	CreateKnowledgeBatch(ctx context.Context, reqs []models.CreateKnowledgeRequest) ([]models.KnowledgeEntry, error)
	UpdateKnowledge(ctx context.Context, id int64, req models.UpdateKnowledgeRequest) (*models.KnowledgeEntry, error)
	DeleteKnowledge(ctx context.Context, id int64) error
}

// Compile-time check: *KnowledgeService must satisfy domain.KnowledgeService.
var _ domain.KnowledgeService = (*KnowledgeService)(nil)

// KnowledgeService wraps KnowledgeStore with validation and blueprint
// expansion.
type KnowledgeService struct {
	store KnowledgeStore
	log   *logrus.Logger
}

// NewKnowledgeService creates a KnowledgeService.
func NewKnowledgeService(store KnowledgeStore, log *logrus.Logger) *KnowledgeService {
	return &KnowledgeService{store: store, log: log}
}

// ListEntries returns all knowledge entries, newest first (pass-through).
func (s *KnowledgeService) ListEntries(ctx context.Context) ([]models.KnowledgeEntry, error) {
	return s.store.ListKnowledge(ctx)
}

// GetEntry returns a single entry by id (pass-through).
func (s *KnowledgeService) GetEntry(ctx context.Context, id int64) (*models.KnowledgeEntry, error) {
	return s.store.GetKnowledge(ctx, id)
}

// CreateEntry validates and stores a new knowledge entry.
func (s *KnowledgeService) CreateEntry(
	ctx context.Context, req models.CreateKnowledgeRequest,
) (*models.KnowledgeEntry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return s.store.CreateKnowledge(ctx, req)
}

// UpdateEntry validates the patch and applies it. An empty patch returns the
// current record unchanged.
func (s *KnowledgeService) UpdateEntry(
	ctx context.Context, id int64, req models.UpdateKnowledgeRequest,
) (*models.KnowledgeEntry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return s.store.UpdateKnowledge(ctx, id, req)
}

// DeleteEntry removes an entry by id (pass-through).
func (s *KnowledgeService) DeleteEntry(ctx context.Context, id int64) error {
	return s.store.DeleteKnowledge(ctx, id)
}

// ImportBlueprint parses a blueprint document and stores every entry it
// expands to. All entries land in one transaction, so a document either
// imports completely or not at all.
func (s *KnowledgeService) ImportBlueprint(ctx context.Context, text string) ([]models.KnowledgeEntry, error) {
	doc, err := blueprint.Parse(text)
	if err != nil {
		return nil, err
	}

	reqs := make([]models.CreateKnowledgeRequest, 0, len(doc.Entries))

	for _, e := range doc.Entries {
		req := models.CreateKnowledgeRequest{
			Title:    e.Title,
			Question: e.Question,
			Answer:   e.Answer,
			Tags:     e.Tags,
		}
		if err := req.Validate(); err != nil {
			return nil, err
		}

		reqs = append(reqs, req)
	}

	entries, err := s.store.CreateKnowledgeBatch(ctx, reqs)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"process": doc.Name,
		"entries": len(entries),
	}).Info("blueprint imported")

	return entries, nil
}
