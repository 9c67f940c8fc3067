package memory

import (
	"context"
	"sort"
	"sync"

	"vocab-progress-service/internal/domain"
)

// WordStore is an in-memory app.VocabularyStore keyed by rank bucket.
type WordStore struct {
	mu    sync.RWMutex
	ranks map[int]map[string]domain.Word
}

func NewWordStore(words ...domain.Word) *WordStore {
	s := &WordStore{ranks: make(map[int]map[string]domain.Word)}
	for _, w := range words {
		s.put(w)
	}
	return s
}

func (s *WordStore) put(w domain.Word) {
	bucket, ok := s.ranks[w.Rank]
	if !ok {
		bucket = make(map[string]domain.Word)
		s.ranks[w.Rank] = bucket
	}
	bucket[w.ID] = w
}

func (s *WordStore) WordsByRank(_ context.Context, rank int) ([]domain.Word, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedWords(s.ranks[rank]), nil
}

func (s *WordStore) AllWords(_ context.Context) ([]domain.Word, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []domain.Word
	for rank := domain.MinRank; rank <= domain.MaxRank; rank++ {
		all = append(all, sortedWords(s.ranks[rank])...)
	}
	return all, nil
}

func (s *WordStore) FiveLetterWords(ctx context.Context) ([]domain.Word, error) {
	all, err := s.AllWords(ctx)
	if err != nil {
		return nil, err
	}
	return domain.FiveLetterWords(all), nil
}

func (s *WordStore) CreateWord(_ context.Context, word domain.Word) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.ranks[word.Rank][word.ID]; exists {
		return domain.New(domain.KindConflict, "word id already used in rank")
	}
	s.put(word)
	return nil
}

func (s *WordStore) DeleteWord(_ context.Context, wordID string, rank int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.ranks[rank][wordID]; !exists {
		return domain.NotFoundf("word %s in rank %d", wordID, rank)
	}
	delete(s.ranks[rank], wordID)
	return nil
}

func sortedWords(bucket map[string]domain.Word) []domain.Word {
	words := make([]domain.Word, 0, len(bucket))
	for _, w := range bucket {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool { return words[i].ID < words[j].ID })
	return words
}
