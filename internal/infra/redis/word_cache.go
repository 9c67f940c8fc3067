package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"vocab-progress-service/internal/app"
	"vocab-progress-service/internal/domain"
)

// WordCache caches rank word lists in Redis and falls back to the backing
// store on a miss. Each rank is one hash of JSON-encoded words:
//
//	HSET words:rank:{rank} {wordID} {json}
//
// An empty rank is cached as a hash holding only the marker field so that
// it is not reloaded on every request.
type WordCache struct {
	client *redis.Client
	store  app.VocabularyStore
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

const emptyMarker = "_"

func NewWordCache(client *redis.Client, store app.VocabularyStore, ttl time.Duration) *WordCache {
	return &WordCache{
		client: client,
		store:  store,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *WordCache) WordsByRank(ctx context.Context, rank int) ([]domain.Word, error) {
	key := c.rankKey(rank)
	if words, ok := c.cached(ctx, key); ok {
		return words, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if words, ok := c.cached(ctx, key); ok {
			return words, nil
		}

		words, err := c.store.WordsByRank(ctx, rank)
		if err != nil {
			return nil, err
		}

		pipe := c.client.Pipeline()
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, emptyMarker, "")
		for _, w := range words {
			raw, err := json.Marshal(w)
			if err != nil {
				return nil, err
			}
			pipe.HSet(ctx, key, w.ID, raw)
		}
		if ttl := c.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		// best-effort fill; a failed write only costs a reload
		_, _ = pipe.Exec(ctx)

		return words, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Word), nil
}

func (c *WordCache) AllWords(ctx context.Context) ([]domain.Word, error) {
	var all []domain.Word
	for rank := domain.MinRank; rank <= domain.MaxRank; rank++ {
		words, err := c.WordsByRank(ctx, rank)
		if err != nil {
			return nil, err
		}
		all = append(all, words...)
	}
	return all, nil
}

func (c *WordCache) FiveLetterWords(ctx context.Context) ([]domain.Word, error) {
	all, err := c.AllWords(ctx)
	if err != nil {
		return nil, err
	}
	return domain.FiveLetterWords(all), nil
}

func (c *WordCache) CreateWord(ctx context.Context, word domain.Word) error {
	if err := c.store.CreateWord(ctx, word); err != nil {
		return err
	}
	_ = c.client.Del(ctx, c.rankKey(word.Rank)).Err()
	return nil
}

func (c *WordCache) DeleteWord(ctx context.Context, wordID string, rank int) error {
	if err := c.store.DeleteWord(ctx, wordID, rank); err != nil {
		return err
	}
	_ = c.client.Del(ctx, c.rankKey(rank)).Err()
	return nil
}

func (c *WordCache) cached(ctx context.Context, key string) ([]domain.Word, bool) {
	fields, err := c.client.HGetAll(ctx, key).Result()
	if err != nil || len(fields) == 0 {
		return nil, false
	}
	words := make([]domain.Word, 0, len(fields))
	for id, raw := range fields {
		if id == emptyMarker {
			continue
		}
		var w domain.Word
		if err := json.Unmarshal([]byte(raw), &w); err != nil {
			return nil, false
		}
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool { return words[i].ID < words[j].ID })
	return words, true
}

func (c *WordCache) rankKey(rank int) string {
	return "words:rank:" + strconv.Itoa(rank)
}

func (c *WordCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
