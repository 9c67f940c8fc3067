package app

import (
	"context"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"vocab-progress-service/internal/domain"
)

// VocabularyService backs the word lists and the admin word manager.
type VocabularyService struct {
	words VocabularyStore
	users UserStore
}

func NewVocabularyService(words VocabularyStore, users UserStore) *VocabularyService {
	return &VocabularyService{words: words, users: users}
}

// WordsByRank lists the words of one rank (the review list).
func (s *VocabularyService) WordsByRank(ctx context.Context, rank int) ([]domain.Word, error) {
	if !domain.ValidRank(rank) {
		return nil, domain.New(domain.KindInvalidArgument, "rank out of range")
	}
	words, err := s.words.WordsByRank(ctx, rank)
	if err != nil {
		return nil, storeErr("get words by rank", err)
	}
	return words, nil
}

func (s *VocabularyService) AllWords(ctx context.Context) ([]domain.Word, error) {
	words, err := s.words.AllWords(ctx)
	if err != nil {
		return nil, storeErr("get all words", err)
	}
	return words, nil
}

func (s *VocabularyService) FiveLetterWords(ctx context.Context) ([]domain.Word, error) {
	words, err := s.words.FiveLetterWords(ctx)
	if err != nil {
		return nil, storeErr("get five letter words", err)
	}
	return words, nil
}

// CreateWord adds a word on behalf of an admin.
func (s *VocabularyService) CreateWord(ctx context.Context, actorID string, word domain.Word) (domain.Word, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return domain.Word{}, err
	}
	return s.createWord(ctx, word)
}

// DeleteWord removes a word on behalf of an admin.
func (s *VocabularyService) DeleteWord(ctx context.Context, actorID, wordID string, rank int) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	if err := s.words.DeleteWord(ctx, wordID, rank); err != nil {
		return storeErr("delete word", err)
	}
	return nil
}

// ImportResult reports a bulk import.
type ImportResult struct {
	Created int
	Errors  []string
}

// ImportWords creates words from a trusted source such as the CLI importer.
// Invalid words are reported and skipped.
func (s *VocabularyService) ImportWords(ctx context.Context, words []domain.Word) (ImportResult, error) {
	var result ImportResult
	for _, w := range words {
		if _, err := s.createWord(ctx, w); err != nil {
			if domain.KindOf(err) == domain.KindStoreUnavailable {
				return result, err
			}
			result.Errors = append(result.Errors, w.SourceText+": "+err.Error())
			continue
		}
		result.Created++
	}
	return result, nil
}

func (s *VocabularyService) createWord(ctx context.Context, word domain.Word) (domain.Word, error) {
	word.SourceText = strings.TrimSpace(word.SourceText)
	word.TargetText = strings.TrimSpace(word.TargetText)
	if !domain.ValidRank(word.Rank) {
		return domain.Word{}, domain.New(domain.KindInvalidArgument, "rank out of range")
	}
	if word.SourceText == "" || word.TargetText == "" {
		return domain.Word{}, domain.New(domain.KindInvalidArgument, "source and target text are required")
	}
	if word.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return domain.Word{}, domain.Wrap(domain.KindUnknown, "generate word id", err)
		}
		word.ID = id
	}
	if err := s.words.CreateWord(ctx, word); err != nil {
		return domain.Word{}, storeErr("create word", err)
	}
	return word, nil
}

func (s *VocabularyService) requireAdmin(ctx context.Context, actorID string) error {
	user, ok, err := s.users.GetUser(ctx, actorID)
	if err != nil {
		return storeErr("get user", err)
	}
	if !ok {
		return domain.NotFoundf("user %s", actorID)
	}
	if !user.IsAdmin {
		return domain.ErrForbidden
	}
	return nil
}
