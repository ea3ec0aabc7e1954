package service

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/kbvault/kbvault/internal/models"
)

// mockKnowledgeStore records calls and returns configured responses. It
// serves both KnowledgeService and MatchService tests.
type mockKnowledgeStore struct {
	mu    sync.Mutex
	calls []string

	listKnowledge        func(ctx context.Context) ([]models.KnowledgeEntry, error)
	getKnowledge         func(ctx context.Context, id int64) (*models.KnowledgeEntry, error)
	createKnowledge      func(ctx context.Context, req models.CreateKnowledgeRequest) (*models.KnowledgeEntry, error)
	createKnowledgeBatch func(ctx context.Context, reqs []models.CreateKnowledgeRequest) ([]models.KnowledgeEntry, error)
	updateKnowledge      func(ctx context.Context, id int64, req models.UpdateKnowledgeRequest) (*models.KnowledgeEntry, error)
	deleteKnowledge      func(ctx context.Context, id int64) error
}

func (m *mockKnowledgeStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockKnowledgeStore) ListKnowledge(ctx context.Context) ([]models.KnowledgeEntry, error) {
	m.record("ListKnowledge")
	return m.listKnowledge(ctx)
}

func (m *mockKnowledgeStore) GetKnowledge(ctx context.Context, id int64) (*models.KnowledgeEntry, error) {
	m.record("GetKnowledge")
	return m.getKnowledge(ctx, id)
}

func (m *mockKnowledgeStore) CreateKnowledge(ctx context.Context, req models.CreateKnowledgeRequest) (*models.KnowledgeEntry, error) {
	m.record("CreateKnowledge")
	return m.createKnowledge(ctx, req)
}

func (m *mockKnowledgeStore) CreateKnowledgeBatch(ctx context.Context, reqs []models.CreateKnowledgeRequest) ([]models.KnowledgeEntry, error) {
	m.record("CreateKnowledgeBatch")
	return m.createKnowledgeBatch(ctx, reqs)
}

func (m *mockKnowledgeStore) UpdateKnowledge(ctx context.Context, id int64, req models.UpdateKnowledgeRequest) (*models.KnowledgeEntry, error) {
	m.record("UpdateKnowledge")
	return m.updateKnowledge(ctx, id, req)
}

func (m *mockKnowledgeStore) DeleteKnowledge(ctx context.Context, id int64) error {
	m.record("DeleteKnowledge")
	return m.deleteKnowledge(ctx, id)
}

// mockDecisionStore records calls and returns configured responses.
type mockDecisionStore struct {
	mu    sync.Mutex
	calls []string

	listDecisions          func(ctx context.Context) ([]models.DecisionRecord, error)
	listDecisionsWithStats func(ctx context.Context) ([]models.DecisionWithStats, error)
	getDecisionWithStats   func(ctx context.Context, id int64) (*models.DecisionWithStats, error)
	createDecision         func(ctx context.Context, req models.CreateDecisionRequest) (*models.DecisionRecord, error)
	updateDecision         func(ctx context.Context, id int64, req models.UpdateDecisionRequest) (*models.DecisionRecord, error)
	deleteDecision         func(ctx context.Context, id int64) error
}

func (m *mockDecisionStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockDecisionStore) ListDecisions(ctx context.Context) ([]models.DecisionRecord, error) {
	m.record("ListDecisions")
	return m.listDecisions(ctx)
}

func (m *mockDecisionStore) ListDecisionsWithStats(ctx context.Context) ([]models.DecisionWithStats, error) {
	m.record("ListDecisionsWithStats")
	return m.listDecisionsWithStats(ctx)
}

func (m *mockDecisionStore) GetDecisionWithStats(ctx context.Context, id int64) (*models.DecisionWithStats, error) {
	m.record("GetDecisionWithStats")
	return m.getDecisionWithStats(ctx, id)
}

func (m *mockDecisionStore) CreateDecision(ctx context.Context, req models.CreateDecisionRequest) (*models.DecisionRecord, error) {
	m.record("CreateDecision")
	return m.createDecision(ctx, req)
}

func (m *mockDecisionStore) UpdateDecision(ctx context.Context, id int64, req models.UpdateDecisionRequest) (*models.DecisionRecord, error) {
	m.record("UpdateDecision")
	return m.updateDecision(ctx, id, req)
}

func (m *mockDecisionStore) DeleteDecision(ctx context.Context, id int64) error {
	m.record("DeleteDecision")
	return m.deleteDecision(ctx, id)
}

// mockCommentStore records calls and returns configured responses.
type mockCommentStore struct {
	mu    sync.Mutex
	calls []string

	createComment func(ctx context.Context, req models.CreateCommentRequest) (*models.Comment, error)
	listComments  func(ctx context.Context, decisionID int64) ([]models.Comment, error)
}

func (m *mockCommentStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockCommentStore) CreateComment(ctx context.Context, req models.CreateCommentRequest) (*models.Comment, error) {
	m.record("CreateComment")
	return m.createComment(ctx, req)
}

func (m *mockCommentStore) ListComments(ctx context.Context, decisionID int64) ([]models.Comment, error) {
	m.record("ListComments")
	return m.listComments(ctx, decisionID)
}

// mockUserStore records calls and returns configured responses.
type mockUserStore struct {
	mu    sync.Mutex
	calls []string

	createUser        func(ctx context.Context, username, passwordHash, salt string, isAdmin bool, evt models.AdminEvent) (*models.User, error)
	getUser           func(ctx context.Context, username string) (*models.User, error)
	getCredentials    func(ctx context.Context, username string) (*models.UserCredentials, error)
	listUsers         func(ctx context.Context) ([]models.User, error)
	countUsers        func(ctx context.Context) (int, error)
	countActiveAdmins func(ctx context.Context) (int, error)
	setAdmin          func(ctx context.Context, username string, isAdmin bool, evt models.AdminEvent) (*models.User, error)
	setActive         func(ctx context.Context, username string, isActive bool, evt models.AdminEvent) (*models.User, error)
	updatePassword    func(ctx context.Context, username, passwordHash, salt string, evt *models.AdminEvent) error
}

func (m *mockUserStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockUserStore) CreateUser(ctx context.Context, username, passwordHash, salt string, isAdmin bool, evt models.AdminEvent) (*models.User, error) {
	m.record("CreateUser")
	return m.createUser(ctx, username, passwordHash, salt, isAdmin, evt)
}

func (m *mockUserStore) GetUser(ctx context.Context, username string) (*models.User, error) {
	m.record("GetUser")
	return m.getUser(ctx, username)
}

func (m *mockUserStore) GetCredentials(ctx context.Context, username string) (*models.UserCredentials, error) {
	m.record("GetCredentials")
	return m.getCredentials(ctx, username)
}

func (m *mockUserStore) ListUsers(ctx context.Context) ([]models.User, error) {
	m.record("ListUsers")
	return m.listUsers(ctx)
}

func (m *mockUserStore) CountUsers(ctx context.Context) (int, error) {
	m.record("CountUsers")
	return m.countUsers(ctx)
}

func (m *mockUserStore) CountActiveAdmins(ctx context.Context) (int, error) {
	m.record("CountActiveAdmins")
	return m.countActiveAdmins(ctx)
}

func (m *mockUserStore) SetAdmin(ctx context.Context, username string, isAdmin bool, evt models.AdminEvent) (*models.User, error) {
	m.record("SetAdmin")
	return m.setAdmin(ctx, username, isAdmin, evt)
}

func (m *mockUserStore) SetActive(ctx context.Context, username string, isActive bool, evt models.AdminEvent) (*models.User, error) {
	m.record("SetActive")
	return m.setActive(ctx, username, isActive, evt)
}

func (m *mockUserStore) UpdatePassword(ctx context.Context, username, passwordHash, salt string, evt *models.AdminEvent) error {
	m.record("UpdatePassword")
	return m.updatePassword(ctx, username, passwordHash, salt, evt)
}

// mockHasher derives transparent fake hashes so tests can assert on them.
type mockHasher struct {
	hashErr error
}

func (m *mockHasher) Hash(password string) (string, string, error) {
	if m.hashErr != nil {
		return "", "", m.hashErr
	}
	return "hash:" + password, "salt:" + password, nil
}

func (m *mockHasher) Verify(password, hash, _ string) bool {
	return hash == "hash:"+password
}

// mockAuditStore returns configured audit pages.
type mockAuditStore struct {
	queryEvents func(ctx context.Context, opts models.AuditQueryOpts) ([]models.AdminEvent, bool, error)
}

func (m *mockAuditStore) QueryEvents(ctx context.Context, opts models.AuditQueryOpts) ([]models.AdminEvent, bool, error) {
	return m.queryEvents(ctx, opts)
}

// mockAdminStore returns a configured summary.
type mockAdminStore struct {
	summary func(ctx context.Context) (*models.Summary, error)
}

func (m *mockAdminStore) Summary(ctx context.Context) (*models.Summary, error) {
	return m.summary(ctx)
}

// mockExportStore records calls and returns configured responses.
type mockExportStore struct {
	mu    sync.Mutex
	calls []string

	snapshot       func(ctx context.Context) (*models.ExportFormat, error)
	importSnapshot func(ctx context.Context, data *models.ExportFormat, opts models.ImportOptions) (*models.ImportResult, error)
}

func (m *mockExportStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockExportStore) Snapshot(ctx context.Context) (*models.ExportFormat, error) {
	m.record("Snapshot")
	return m.snapshot(ctx)
}

func (m *mockExportStore) ImportSnapshot(ctx context.Context, data *models.ExportFormat, opts models.ImportOptions) (*models.ImportResult, error) {
	m.record("ImportSnapshot")
	return m.importSnapshot(ctx, data, opts)
}

// mockCorpusStore records calls and returns configured responses. Ingest
// calls additionally capture their arguments for inspection.
type mockCorpusStore struct {
	mu      sync.Mutex
	calls   []string
	ingests []ingestCall

	createCorpus    func(ctx context.Context, req models.CreateCorpusRequest) (*models.Corpus, error)
	getCorpus       func(ctx context.Context, id int64) (*models.Corpus, error)
	getCorpusByName func(ctx context.Context, name string) (*models.Corpus, error)
	listCorpora     func(ctx context.Context) ([]models.Corpus, error)
	updateCorpus    func(ctx context.Context, id int64, req models.UpdateCorpusRequest) (*models.Corpus, error)
	deleteCorpus    func(ctx context.Context, id int64) error
	listCorpusFiles func(ctx context.Context, corpusID int64) ([]models.CorpusFile, error)
	ingestFile      func(ctx context.Context, corpusID int64, fileName, filePath, contentHash string, chunks []models.CreateKnowledgeRequest) (string, int, error)
}

type ingestCall struct {
	fileName    string
	filePath    string
	contentHash string
	chunks      []models.CreateKnowledgeRequest
}

func (m *mockCorpusStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockCorpusStore) CreateCorpus(ctx context.Context, req models.CreateCorpusRequest) (*models.Corpus, error) {
	m.record("CreateCorpus")
	return m.createCorpus(ctx, req)
}

func (m *mockCorpusStore) GetCorpus(ctx context.Context, id int64) (*models.Corpus, error) {
	m.record("GetCorpus")
	return m.getCorpus(ctx, id)
}

func (m *mockCorpusStore) GetCorpusByName(ctx context.Context, name string) (*models.Corpus, error) {
	m.record("GetCorpusByName")
	return m.getCorpusByName(ctx, name)
}

func (m *mockCorpusStore) ListCorpora(ctx context.Context) ([]models.Corpus, error) {
	m.record("ListCorpora")
	return m.listCorpora(ctx)
}

func (m *mockCorpusStore) UpdateCorpus(ctx context.Context, id int64, req models.UpdateCorpusRequest) (*models.Corpus, error) {
	m.record("UpdateCorpus")
	return m.updateCorpus(ctx, id, req)
}

func (m *mockCorpusStore) DeleteCorpus(ctx context.Context, id int64) error {
	m.record("DeleteCorpus")
	return m.deleteCorpus(ctx, id)
}

func (m *mockCorpusStore) ListCorpusFiles(ctx context.Context, corpusID int64) ([]models.CorpusFile, error) {
	m.record("ListCorpusFiles")
	return m.listCorpusFiles(ctx, corpusID)
}

func (m *mockCorpusStore) IngestFile(ctx context.Context, corpusID int64, fileName, filePath, contentHash string, chunks []models.CreateKnowledgeRequest) (string, int, error) {
	m.record("IngestFile")
	m.mu.Lock()
	m.ingests = append(m.ingests, ingestCall{fileName: fileName, filePath: filePath, contentHash: contentHash, chunks: chunks})
	m.mu.Unlock()
	return m.ingestFile(ctx, corpusID, fileName, filePath, contentHash, chunks)
}

func (m *mockCorpusStore) getIngests() []ingestCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]ingestCall, len(m.ingests))
	copy(cp, m.ingests)
	return cp
}

// testLogger returns a quiet logger for service construction.
func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}
