package memory

import (
	"context"
	"sync"

	"vocab-progress-service/internal/domain"
)

type rankKeyed struct {
	userID string
	rank   int
}

// ProgressStore is an in-memory app.ProgressStore.
type ProgressStore struct {
	mu       sync.RWMutex
	stats    map[string]domain.Stats
	progress map[rankKeyed]domain.RankProgress
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		stats:    make(map[string]domain.Stats),
		progress: make(map[rankKeyed]domain.RankProgress),
	}
}

func (s *ProgressStore) GetStats(_ context.Context, userID string) (domain.Stats, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats, ok := s.stats[userID]
	return stats, ok, nil
}

func (s *ProgressStore) PutStats(_ context.Context, userID string, stats domain.Stats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[userID] = stats
	return nil
}

func (s *ProgressStore) GetRankProgress(_ context.Context, userID string, rank int) (domain.RankProgress, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rp, ok := s.progress[rankKeyed{userID: userID, rank: rank}]
	return rp, ok, nil
}

func (s *ProgressStore) PutRankProgress(_ context.Context, userID string, rank int, progress domain.RankProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[rankKeyed{userID: userID, rank: rank}] = progress
	return nil
}
