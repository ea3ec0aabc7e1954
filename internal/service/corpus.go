package service

import (
	"bytes"
	"context"
	"crypto/sha1" //nolint:gosec // content fingerprint for change detection, not a security use.
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/kbvault/kbvault/internal/domain"
	"github.com/kbvault/kbvault/internal/models"
)

// CorpusStore defines the data access methods CorpusService depends on.
type CorpusStore interface {
	CreateCorpus(ctx context.Context, req models.CreateCorpusRequest) (*models.Corpus, error)
	GetCorpus(ctx context.Context, id int64) (*models.Corpus, error)
	GetCorpusByName(ctx context.Context, name string) (*models.Corpus, error)
	ListCorpora(ctx context.Context) ([]models.Corpus, error)
	UpdateCorpus(ctx context.Context, id int64, req models.UpdateCorpusRequest) (*models.Corpus, error)
	DeleteCorpus(ctx context.Context, id int64) error
	ListCorpusFiles(ctx context.Context, corpusID int64) ([]models.CorpusFile, error)
	IngestFile(ctx context.Context, corpusID int64, fileName, filePath, contentHash string, chunks []models.CreateKnowledgeRequest) (string, int, error)
}

// Compile-time check: *CorpusService must satisfy domain.CorpusService.
var _ domain.CorpusService = (*CorpusService)(nil)

// supportedSuffixes lists the plain-text file types corpus ingestion accepts.
var supportedSuffixes = map[string]struct{}{
	".txt":  {},
	".md":   {},
	".rst":  {},
	".json": {},
	".yaml": {},
	".yml":  {},
	".ini":  {},
	".cfg":  {},
	".csv":  {},
	".tsv":  {},
	".log":  {},
}

// CorpusService manages document corpora and turns their files into chunked
// knowledge entries. Each file lands in its own transaction, so a failure
// mid-run keeps the files already ingested.
type CorpusService struct {
	store CorpusStore
	log   *logrus.Logger
}

// NewCorpusService creates a CorpusService.
func NewCorpusService(store CorpusStore, log *logrus.Logger) *CorpusService {
	return &CorpusService{store: store, log: log}
}

// CreateCorpus validates and stores a new corpus.
func (s *CorpusService) CreateCorpus(ctx context.Context, req models.CreateCorpusRequest) (*models.Corpus, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return s.store.CreateCorpus(ctx, req)
}

// EnsureCorpus returns the corpus with the requested name, creating it when
// absent. An existing corpus has its base path refreshed if the request
// carries a different one; other fields are left alone.
func (s *CorpusService) EnsureCorpus(ctx context.Context, req models.CreateCorpusRequest) (*models.Corpus, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	corpus, err := s.store.GetCorpusByName(ctx, req.Name)

	switch {
	case err == nil:
		if req.BasePath != "" && corpus.BasePath != req.BasePath {
			return s.store.UpdateCorpus(ctx, corpus.ID, models.UpdateCorpusRequest{BasePath: &req.BasePath})
		}

		return corpus, nil
	case errors.Is(err, models.ErrCorpusNotFound):
		return s.store.CreateCorpus(ctx, req)
	default:
		return nil, err
	}
}

// GetCorpus returns one corpus by id (pass-through).
func (s *CorpusService) GetCorpus(ctx context.Context, id int64) (*models.Corpus, error) {
	return s.store.GetCorpus(ctx, id)
}

// GetCorpusByName returns one corpus by its unique name (pass-through).
func (s *CorpusService) GetCorpusByName(ctx context.Context, name string) (*models.Corpus, error) {
	return s.store.GetCorpusByName(ctx, strings.TrimSpace(name))
}

// ListCorpora returns all corpora newest first (pass-through).
func (s *CorpusService) ListCorpora(ctx context.Context) ([]models.Corpus, error) {
	return s.store.ListCorpora(ctx)
}

// UpdateCorpus validates the patch and applies it.
func (s *CorpusService) UpdateCorpus(
	ctx context.Context, id int64, req models.UpdateCorpusRequest,
) (*models.Corpus, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return s.store.UpdateCorpus(ctx, id, req)
}

// DeleteCorpus removes a corpus; its files and their chunk entries go with
// it in the same transaction.
func (s *CorpusService) DeleteCorpus(ctx context.Context, id int64) error {
	return s.store.DeleteCorpus(ctx, id)
}

// ListFiles returns the ingested files of a corpus (pass-through).
func (s *CorpusService) ListFiles(ctx context.Context, corpusID int64) ([]models.CorpusFile, error) {
	return s.store.ListCorpusFiles(ctx, corpusID)
}

// IngestDirectory ingests every supported file under dir into the corpus,
// descending into subdirectories when opts.Recursive is set.
func (s *CorpusService) IngestDirectory(
	ctx context.Context, corpusID int64, dir string, opts models.IngestOptions,
) (*models.IngestReport, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("ingest directory %s: %w", dir, models.ErrNotFound)
	}

	var paths []string

	if opts.Recursive {
		err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if !d.IsDir() {
				paths = append(paths, path)
			}

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking ingest directory: %w", err)
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("reading ingest directory: %w", err)
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				paths = append(paths, filepath.Join(dir, entry.Name()))
			}
		}
	}

	return s.IngestPaths(ctx, corpusID, paths, opts)
}

// IngestPaths ingests the given files into the corpus. Unsupported,
// unreadable, undecodable, and effectively empty files are reported in the
// Skipped list; files whose content hash is unchanged are counted without
// being re-chunked. A store failure aborts the run, keeping the files
// already committed.
func (s *CorpusService) IngestPaths(
	ctx context.Context, corpusID int64, paths []string, opts models.IngestOptions,
) (*models.IngestReport, error) {
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = models.DefaultChunkSize
	}

	overlap := opts.Overlap
	if overlap <= 0 {
		overlap = models.DefaultOverlap
	}

	report := &models.IngestReport{}

	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			report.Skipped = append(report.Skipped, filepath.Base(path))
			continue
		}

		info, err := os.Stat(abs)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		base := filepath.Base(abs)

		ext := strings.ToLower(filepath.Ext(base))
		if _, ok := supportedSuffixes[ext]; !ok {
			report.Skipped = append(report.Skipped, base)
			continue
		}

		raw, err := os.ReadFile(abs)
		if err != nil {
			report.Skipped = append(report.Skipped, base)
			continue
		}

		text, ok := decodeText(raw)
		if !ok {
			report.Skipped = append(report.Skipped, base)
			continue
		}

		if ext == ".json" {
			text = normalizeJSON(text)
		}

		if strings.TrimSpace(text) == "" {
			report.Skipped = append(report.Skipped, base)
			continue
		}

		hash := fmt.Sprintf("%x", sha1.Sum([]byte(text)))
		chunks := chunkText(text, chunkSize, overlap)
		stem := strings.TrimSuffix(base, filepath.Ext(base))

		reqs := make([]models.CreateKnowledgeRequest, 0, len(chunks))
		for i, chunk := range chunks {
			reqs = append(reqs, models.CreateKnowledgeRequest{
				Title:    fmt.Sprintf("%s - 段落 %d", stem, i+1),
				Question: chunk,
				Answer:   chunk,
				Tags:     []string{},
			})
		}

		action, written, err := s.store.IngestFile(ctx, corpusID, base, filepath.ToSlash(abs), hash, reqs)
		if err != nil {
			return nil, err
		}

		switch action {
		case models.IngestCreated:
			report.FilesProcessed++
			report.ChunksCreated += written
		case models.IngestUpdated:
			report.FilesUpdated++
			report.ChunksCreated += written
		case models.IngestSkipped:
			report.FilesUnchanged++
		}
	}

	s.log.WithFields(logrus.Fields{
		"corpus_id": corpusID,
		"created":   report.FilesProcessed,
		"updated":   report.FilesUpdated,
		"unchanged": report.FilesUnchanged,
		"chunks":    report.ChunksCreated,
		"skipped":   len(report.Skipped),
	}).Info("corpus ingested")

	return report, nil
}

// decodeText interprets raw bytes as UTF-8, falling back to GBK for legacy
// documents. Returns false when neither encoding fits.
func decodeText(raw []byte) (string, bool) {
	if utf8.Valid(raw) {
		return string(raw), true
	}

	decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(raw)
	if err != nil || bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", false
	}

	return string(decoded), true
}

// normalizeJSON pretty-prints documents whose top level is an object or
// array, so a reformatted file hashes the same as its original. Scalar or
// invalid JSON is kept verbatim.
func normalizeJSON(text string) string {
	var data any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return text
	}

	switch data.(type) {
	case map[string]any, []any:
	default:
		return text
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(data); err != nil {
		return text
	}

	return strings.TrimSuffix(buf.String(), "\n")
}

// chunkText splits text into windows of whole non-empty lines. A window
// closes once it reaches chunkSize characters, and the last overlap
// characters carry over into the next window so context survives the
// boundary. The remainder, overlap carry included, becomes the final chunk.
func chunkText(text string, chunkSize, overlap int) []string {
	var chunks []string

	var buf []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		buf = append(buf, line)

		joined := strings.Join(buf, "\n")
		if utf8.RuneCountInString(joined) < chunkSize {
			continue
		}

		chunks = append(chunks, joined)
		buf = buf[:0]

		if overlap > 0 {
			runes := []rune(joined)
			if overlap < len(runes) {
				runes = runes[len(runes)-overlap:]
			}

			buf = append(buf, string(runes))
		}
	}

	if len(buf) > 0 {
		chunks = append(chunks, strings.Join(buf, "\n"))
	}

	return chunks
}
