package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"vocab-progress-service/internal/domain"
)

// ProgressStore keeps stats and rank progress in Redis hashes:
//
//	HSET progress:{userID}:stats        rank {n} total_score {n}
//	HSET progress:{userID}:rank:{rank}  practice_count {n} reviewed {0|1}
type ProgressStore struct {
	client *redis.Client
}

func NewProgressStore(client *redis.Client) *ProgressStore {
	return &ProgressStore{client: client}
}

func (s *ProgressStore) GetStats(ctx context.Context, userID string) (domain.Stats, bool, error) {
	fields, err := s.client.HGetAll(ctx, statsKey(userID)).Result()
	if err != nil {
		return domain.Stats{}, false, fmt.Errorf("get stats: %w", err)
	}
	if len(fields) == 0 {
		return domain.Stats{}, false, nil
	}
	rank, err := intField(fields, "rank")
	if err != nil {
		return domain.Stats{}, false, err
	}
	total, err := intField(fields, "total_score")
	if err != nil {
		return domain.Stats{}, false, err
	}
	return domain.Stats{Rank: rank, TotalScore: total}, true, nil
}

func (s *ProgressStore) PutStats(ctx context.Context, userID string, stats domain.Stats) error {
	err := s.client.HSet(ctx, statsKey(userID), "rank", stats.Rank, "total_score", stats.TotalScore).Err()
	if err != nil {
		return fmt.Errorf("put stats: %w", err)
	}
	return nil
}

func (s *ProgressStore) GetRankProgress(ctx context.Context, userID string, rank int) (domain.RankProgress, bool, error) {
	fields, err := s.client.HGetAll(ctx, rankProgressKey(userID, rank)).Result()
	if err != nil {
		return domain.RankProgress{}, false, fmt.Errorf("get rank progress: %w", err)
	}
	if len(fields) == 0 {
		return domain.RankProgress{}, false, nil
	}
	count, err := intField(fields, "practice_count")
	if err != nil {
		return domain.RankProgress{}, false, err
	}
	return domain.RankProgress{
		PracticeCount:    count,
		HasReviewedWords: fields["reviewed"] == "1",
	}, true, nil
}

func (s *ProgressStore) PutRankProgress(ctx context.Context, userID string, rank int, progress domain.RankProgress) error {
	reviewed := 0
	if progress.HasReviewedWords {
		reviewed = 1
	}
	err := s.client.HSet(ctx, rankProgressKey(userID, rank), "practice_count", progress.PracticeCount, "reviewed", reviewed).Err()
	if err != nil {
		return fmt.Errorf("put rank progress: %w", err)
	}
	return nil
}

func statsKey(userID string) string {
	return "progress:" + userID + ":stats"
}

func rankProgressKey(userID string, rank int) string {
	return "progress:" + userID + ":rank:" + strconv.Itoa(rank)
}

func intField(fields map[string]string, name string) (int, error) {
	raw, ok := fields[name]
	if !ok {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return v, nil
}
