package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kbvault/kbvault/internal/domain"
	"github.com/kbvault/kbvault/internal/models"
)

// ExportStore defines the data access methods ExportService depends on.
type ExportStore interface {
	Snapshot(ctx context.Context) (*models.ExportFormat, error)
	ImportSnapshot(ctx context.Context, data *models.ExportFormat, opts models.ImportOptions) (*models.ImportResult, error)
}

// Compile-time check: *ExportService must satisfy domain.ExportService.
var _ domain.ExportService = (*ExportService)(nil)

// ExportService produces and consumes full database snapshots. Every import
// is validated structurally before any row is written.
type ExportService struct {
	store         ExportStore
	schemaVersion int
	appVersion    string
	log           *logrus.Logger
}

// NewExportService creates an ExportService. schemaVersion is the migration
// count of the running binary; snapshots from newer schemas are rejected.
func NewExportService(store ExportStore, schemaVersion int, appVersion string, log *logrus.Logger) *ExportService {
	return &ExportService{
		store:         store,
		schemaVersion: schemaVersion,
		appVersion:    appVersion,
		log:           log,
	}
}

// Export captures the whole database as one snapshot document and stamps it
// with version, id, and timestamp metadata.
func (s *ExportService) Export(ctx context.Context) (*models.ExportFormat, error) {
	data, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	data.SchemaVersion = s.schemaVersion
	data.AppVersion = s.appVersion
	data.SnapshotID = uuid.NewString()
	data.ExportedAt = time.Now().UTC()

	s.log.WithFields(logrus.Fields{
		"snapshot_id": data.SnapshotID,
		"knowledge":   data.Stats.KnowledgeCount,
		"decisions":   data.Stats.DecisionCount,
		"users":       data.Stats.UserCount,
	}).Info("snapshot exported")

	return data, nil
}

// Validate checks a snapshot for structural problems and returns one message
// per problem found. An empty slice means the snapshot is importable.
func (s *ExportService) Validate(data *models.ExportFormat) []string {
	if data == nil {
		return []string{"snapshot is empty"}
	}

	var problems []string

	if data.SchemaVersion > s.schemaVersion {
		problems = append(problems, fmt.Sprintf(
			"snapshot schema version %d is newer than supported version %d",
			data.SchemaVersion, s.schemaVersion))
	}

	problems = append(problems, validateUsers(data.Users)...)
	problems = append(problems, validateCorpora(data.Corpora)...)
	problems = append(problems, validateKnowledge(data)...)
	problems = append(problems, validateDecisions(data.Decisions)...)

	return problems
}

// Import validates a snapshot and loads it into the database in a single
// transaction. Version mismatches and structural problems are rejected
// before any write happens; a failed validation returns the problem list
// inside the result alongside the error.
func (s *ExportService) Import(
	ctx context.Context, data *models.ExportFormat, opts models.ImportOptions,
) (*models.ImportResult, error) {
	if data != nil && data.SchemaVersion > s.schemaVersion {
		return nil, fmt.Errorf("%w: snapshot has version %d, this binary supports up to %d",
			models.ErrSnapshotVersion, data.SchemaVersion, s.schemaVersion)
	}

	if problems := s.Validate(data); len(problems) > 0 {
		return &models.ImportResult{Errors: problems},
			fmt.Errorf("%w: %d problems found", models.ErrSnapshotMalformed, len(problems))
	}

	result, err := s.store.ImportSnapshot(ctx, data, opts)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"snapshot_id": data.SnapshotID,
		"replace":     opts.Replace,
		"dry_run":     opts.DryRun,
		"knowledge":   result.KnowledgeCreated,
		"decisions":   result.DecisionsCreated,
		"users":       result.UsersCreated,
	}).Info("snapshot imported")

	return result, nil
}

func validateUsers(users []models.ExportUser) []string {
	var problems []string

	seen := make(map[string]struct{}, len(users))

	for i, u := range users {
		switch {
		case u.Username == "":
			problems = append(problems, fmt.Sprintf("users[%d]: username is empty", i))
		default:
			if _, dup := seen[u.Username]; dup {
				problems = append(problems, fmt.Sprintf("users[%d]: duplicate username %q", i, u.Username))
			}

			seen[u.Username] = struct{}{}
		}

		if u.PasswordHash == "" || u.Salt == "" {
			problems = append(problems, fmt.Sprintf("users[%d]: missing password hash or salt", i))
		}
	}

	return problems
}

func validateCorpora(corpora []models.ExportCorpus) []string {
	var problems []string

	seen := make(map[string]struct{}, len(corpora))

	for i, c := range corpora {
		switch {
		case c.Name == "":
			problems = append(problems, fmt.Sprintf("corpora[%d]: name is empty", i))
		default:
			if _, dup := seen[c.Name]; dup {
				problems = append(problems, fmt.Sprintf("corpora[%d]: duplicate name %q", i, c.Name))
			}

			seen[c.Name] = struct{}{}
		}
	}

	return problems
}

// validateKnowledge checks entries and the references into them: corpus ids
// on entries must name a corpus in the snapshot, and chunk links must name a
// knowledge entry in the snapshot.
func validateKnowledge(data *models.ExportFormat) []string {
	var problems []string

	corpusIDs := make(map[int64]struct{}, len(data.Corpora))
	for _, c := range data.Corpora {
		corpusIDs[c.ID] = struct{}{}
	}

	knowledgeIDs := make(map[int64]struct{}, len(data.Knowledge))

	for i, k := range data.Knowledge {
		knowledgeIDs[k.ID] = struct{}{}

		if k.Title == "" {
			problems = append(problems, fmt.Sprintf("knowledge[%d]: title is empty", i))
		}

		if k.Question == "" {
			problems = append(problems, fmt.Sprintf("knowledge[%d]: question is empty", i))
		}

		if k.CorpusID != nil {
			if _, ok := corpusIDs[*k.CorpusID]; !ok {
				problems = append(problems, fmt.Sprintf(
					"knowledge[%d]: references corpus %d which is not in the snapshot", i, *k.CorpusID))
			}
		}
	}

	for i, c := range data.Corpora {
		for j, f := range c.Files {
			for _, link := range f.Chunks {
				if _, ok := knowledgeIDs[link.KnowledgeID]; !ok {
					problems = append(problems, fmt.Sprintf(
						"corpora[%d].files[%d]: chunk references knowledge %d which is not in the snapshot",
						i, j, link.KnowledgeID))
				}
			}
		}
	}

	return problems
}

func validateDecisions(decisions []models.ExportDecisionRecord) []string {
	var problems []string

	for i, d := range decisions {
		if d.Title == "" {
			problems = append(problems, fmt.Sprintf("decisions[%d]: title is empty", i))
		}

		if d.Background == "" {
			problems = append(problems, fmt.Sprintf("decisions[%d]: background is empty", i))
		}

		if d.Steps == "" {
			problems = append(problems, fmt.Sprintf("decisions[%d]: steps are empty", i))
		}

		for j, c := range d.Comments {
			if c.Body == "" {
				problems = append(problems, fmt.Sprintf("decisions[%d].comments[%d]: body is empty", i, j))
			}

			if c.Rating != nil && (*c.Rating < 1 || *c.Rating > 5) {
				problems = append(problems, fmt.Sprintf(
					"decisions[%d].comments[%d]: rating %d is out of range", i, j, *c.Rating))
			}
		}
	}

	return problems
}
