// Package domain defines the canonical service interfaces shared across entry
// points (CLI commands, tests). Consumers should depend on these interfaces
// rather than re-declaring equivalent ones.
package domain

import (
	"context"

	"github.com/kbvault/kbvault/internal/models"
)

// KnowledgeService defines all knowledge entry operations.
type KnowledgeService interface {
	ListEntries(ctx context.Context) ([]models.KnowledgeEntry, error)
	GetEntry(ctx context.Context, id int64) (*models.KnowledgeEntry, error)
	CreateEntry(ctx context.Context, req models.CreateKnowledgeRequest) (*models.KnowledgeEntry, error)
	UpdateEntry(ctx context.Context, id int64, req models.UpdateKnowledgeRequest) (*models.KnowledgeEntry, error)
	DeleteEntry(ctx context.Context, id int64) error
	ImportBlueprint(ctx context.Context, text string) ([]models.KnowledgeEntry, error)
}

// MatchService answers free-text questions from the stored knowledge.
type MatchService interface {
	Ask(ctx context.Context, question string, limit int) ([]models.ScoredEntry, error)
}

// DecisionService defines all decision record operations.
type DecisionService interface {
	ListDecisions(ctx context.Context) ([]models.DecisionWithStats, error)
	GetDecision(ctx context.Context, id int64) (*models.DecisionDetail, error)
	CreateDecision(ctx context.Context, req models.CreateDecisionRequest) (*models.DecisionRecord, error)
	UpdateDecision(ctx context.Context, id int64, req models.UpdateDecisionRequest) (*models.DecisionRecord, error)
	DeleteDecision(ctx context.Context, id int64) error
	SearchDecisions(ctx context.Context, keyword string, limit int) ([]models.ScoredDecision, error)
}

// CommentService defines decision comment operations.
type CommentService interface {
	CreateComment(ctx context.Context, req models.CreateCommentRequest) (*models.Comment, error)
	ListComments(ctx context.Context, decisionID int64) ([]models.Comment, error)
}

// UserService defines local account operations. Privileged mutations take the
// acting username and append an admin event in the same transaction as the
// change itself.
type UserService interface {
	Register(ctx context.Context, req models.RegisterUserRequest) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	GetUser(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	Promote(ctx context.Context, username, actor string) (*models.User, error)
	Demote(ctx context.Context, username, actor string) (*models.User, error)
	Activate(ctx context.Context, username, actor string) (*models.User, error)
	Deactivate(ctx context.Context, username, actor string) (*models.User, error)
	ResetPassword(ctx context.Context, username, newPassword, actor string) error
	ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error
}

// AuditService defines audit trail queries.
type AuditService interface {
	Events(ctx context.Context, opts models.AuditQueryOpts) ([]models.AdminEvent, bool, error)
}

// AdminService defines administrative overview operations.
type AdminService interface {
	Summary(ctx context.Context) (*models.Summary, error)
}

// ExportService defines snapshot export and import operations.
type ExportService interface {
	Export(ctx context.Context) (*models.ExportFormat, error)
	Validate(data *models.ExportFormat) []string
	Import(ctx context.Context, data *models.ExportFormat, opts models.ImportOptions) (*models.ImportResult, error)
}

// CorpusService defines corpus management and bulk document ingestion.
type CorpusService interface {
	CreateCorpus(ctx context.Context, req models.CreateCorpusRequest) (*models.Corpus, error)
	EnsureCorpus(ctx context.Context, req models.CreateCorpusRequest) (*models.Corpus, error)
	GetCorpus(ctx context.Context, id int64) (*models.Corpus, error)
	GetCorpusByName(ctx context.Context, name string) (*models.Corpus, error)
	ListCorpora(ctx context.Context) ([]models.Corpus, error)
	UpdateCorpus(ctx context.Context, id int64, req models.UpdateCorpusRequest) (*models.Corpus, error)
	DeleteCorpus(ctx context.Context, id int64) error
	ListFiles(ctx context.Context, corpusID int64) ([]models.CorpusFile, error)
	IngestDirectory(ctx context.Context, corpusID int64, dir string, opts models.IngestOptions) (*models.IngestReport, error)
	IngestPaths(ctx context.Context, corpusID int64, paths []string, opts models.IngestOptions) (*models.IngestReport, error)
}
