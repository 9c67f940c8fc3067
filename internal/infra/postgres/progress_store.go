package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"vocab-progress-service/internal/domain"
)

// ProgressStore persists user_stats and rank_progress rows. Writes are
// upserts with no version check; the last writer wins.
type ProgressStore struct {
	pool *pgxpool.Pool
}

func NewProgressStore(pool *pgxpool.Pool) *ProgressStore {
	return &ProgressStore{pool: pool}
}

func (s *ProgressStore) GetStats(ctx context.Context, userID string) (domain.Stats, bool, error) {
	var stats domain.Stats
	err := s.pool.QueryRow(ctx, `SELECT rank, total_score FROM user_stats WHERE user_id=$1`, userID).
		Scan(&stats.Rank, &stats.TotalScore)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Stats{}, false, nil
	}
	if err != nil {
		return domain.Stats{}, false, fmt.Errorf("get stats: %w", err)
	}
	return stats, true, nil
}

func (s *ProgressStore) PutStats(ctx context.Context, userID string, stats domain.Stats) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO user_stats (user_id, rank, total_score) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET rank=EXCLUDED.rank, total_score=EXCLUDED.total_score`,
		userID, stats.Rank, stats.TotalScore)
	if err != nil {
		return fmt.Errorf("put stats: %w", err)
	}
	return nil
}

func (s *ProgressStore) GetRankProgress(ctx context.Context, userID string, rank int) (domain.RankProgress, bool, error) {
	var rp domain.RankProgress
	err := s.pool.QueryRow(ctx, `SELECT practice_count, has_reviewed_words FROM rank_progress WHERE user_id=$1 AND rank=$2`, userID, rank).
		Scan(&rp.PracticeCount, &rp.HasReviewedWords)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RankProgress{}, false, nil
	}
	if err != nil {
		return domain.RankProgress{}, false, fmt.Errorf("get rank progress: %w", err)
	}
	return rp, true, nil
}

func (s *ProgressStore) PutRankProgress(ctx context.Context, userID string, rank int, progress domain.RankProgress) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO rank_progress (user_id, rank, practice_count, has_reviewed_words) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, rank) DO UPDATE SET practice_count=EXCLUDED.practice_count, has_reviewed_words=EXCLUDED.has_reviewed_words`,
		userID, rank, progress.PracticeCount, progress.HasReviewedWords)
	if err != nil {
		return fmt.Errorf("put rank progress: %w", err)
	}
	return nil
}
