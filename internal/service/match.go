package service

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"

	"github.com/kbvault/kbvault/internal/domain"
	"github.com/kbvault/kbvault/internal/models"
)

// MatchStore defines the data access methods MatchService depends on.
type MatchStore interface {
	ListKnowledge(ctx context.Context) ([]models.KnowledgeEntry, error)
}

// Compile-time check: *MatchService must satisfy domain.MatchService.
var _ domain.MatchService = (*MatchService)(nil)

// DefaultAskLimit caps Ask results when the caller passes no limit.
const DefaultAskLimit = 3

// MatchService ranks stored knowledge against free-text questions by token
// overlap. It is a plain bag-of-words match over title, question and tags;
// there is no stemming, weighting or synonym expansion.
type MatchService struct {
	store MatchStore
	log   *logrus.Logger
}

// NewMatchService creates a MatchService.
func NewMatchService(store MatchStore, log *logrus.Logger) *MatchService {
	return &MatchService{store: store, log: log}
}

// Ask returns up to limit entries sharing at least one token with the
// question. Score is the number of distinct question tokens found in the
// entry's title, question or tags; ties are broken by id ascending so the
// ranking is deterministic. A question sharing nothing returns an empty
// slice.
func (s *MatchService) Ask(ctx context.Context, question string, limit int) ([]models.ScoredEntry, error) {
	if limit <= 0 {
		limit = DefaultAskLimit
	}

	queryTokens := tokenize(question)
	if len(queryTokens) == 0 {
		return []models.ScoredEntry{}, nil
	}

	entries, err := s.store.ListKnowledge(ctx)
	if err != nil {
		return nil, err
	}

	scored := make([]models.ScoredEntry, 0, len(entries))

	for _, entry := range entries {
		parts := append([]string{entry.Title, entry.Question}, entry.Tags...)
		entryTokens := tokenize(strings.Join(parts, " "))

		score := 0
		for token := range queryTokens {
			if _, ok := entryTokens[token]; ok {
				score++
			}
		}

		if score == 0 {
			continue
		}

		scored = append(scored, models.ScoredEntry{KnowledgeEntry: entry, Score: score})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}

		return scored[i].ID < scored[j].ID
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	return scored, nil
}

// tokenize splits text into a lowercase token set. Runs of letters, digits,
// hyphens and underscores form words; within a word, Han script runs are
// decomposed into overlapping character bigrams so unsegmented Chinese text
// matches term by term, while other scripts keep the whole word.
func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})

	var word []rune

	flush := func() {
		if len(word) > 0 {
			emitWord(tokens, word)
			word = word[:0]
		}
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			word = append(word, unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()

	return tokens
}

// emitWord splits one word into Han and non-Han segments and emits tokens for
// each: non-Han segments whole, Han segments as bigrams (or the lone
// character for single-rune segments).
func emitWord(tokens map[string]struct{}, word []rune) {
	start := 0
	for start < len(word) {
		han := unicode.Is(unicode.Han, word[start])
		end := start + 1
		for end < len(word) && unicode.Is(unicode.Han, word[end]) == han {
			end++
		}

		segment := word[start:end]
		if !han {
			tokens[string(segment)] = struct{}{}
		} else if len(segment) == 1 {
			tokens[string(segment)] = struct{}{}
		} else {
			for i := 0; i+2 <= len(segment); i++ {
				tokens[string(segment[i:i+2])] = struct{}{}
			}
		}

		start = end
	}
}
