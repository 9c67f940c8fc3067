package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"vocab-progress-service/internal/app"
	"vocab-progress-service/internal/domain"
)

const allWordsKey = "all"

// WordCache caches word lists with a TTL in front of a slower VocabularyStore.
// Writes go straight to the backing store and invalidate the affected lists.
type WordCache struct {
	store app.VocabularyStore
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedWords
}

type cachedWords struct {
	words     []domain.Word
	expiresAt time.Time
}

func NewWordCache(store app.VocabularyStore, ttl time.Duration) *WordCache {
	return &WordCache{
		store: store,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedWords),
	}
}

func (c *WordCache) WordsByRank(ctx context.Context, rank int) ([]domain.Word, error) {
	return c.get(ctx, rankKey(rank), func(ctx context.Context) ([]domain.Word, error) {
		return c.store.WordsByRank(ctx, rank)
	})
}

func (c *WordCache) AllWords(ctx context.Context) ([]domain.Word, error) {
	return c.get(ctx, allWordsKey, c.store.AllWords)
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
	c.invalidate(word.Rank)
	return nil
}

func (c *WordCache) DeleteWord(ctx context.Context, wordID string, rank int) error {
	if err := c.store.DeleteWord(ctx, wordID, rank); err != nil {
		return err
	}
	c.invalidate(rank)
	return nil
}

func (c *WordCache) get(ctx context.Context, key string, load func(context.Context) ([]domain.Word, error)) ([]domain.Word, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.words, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.words, nil
		}
		c.mu.RUnlock()

		words, err := load(ctx)
		if err != nil {
			return nil, err
		}

		expiresAt := now.Add(c.ttlWithJitter())
		c.mu.Lock()
		c.cache[key] = cachedWords{words: words, expiresAt: expiresAt}
		c.mu.Unlock()
		return words, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Word), nil
}

func (c *WordCache) invalidate(rank int) {
	c.mu.Lock()
	delete(c.cache, rankKey(rank))
	delete(c.cache, allWordsKey)
	c.mu.Unlock()
}

func (c *WordCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func rankKey(rank int) string {
	return "rank:" + strconv.Itoa(rank)
}
