package app_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"vocab-progress-service/internal/app"
	"vocab-progress-service/internal/domain"
	"vocab-progress-service/internal/infra/memory"
)

const questionTimeout = 10 * time.Second

type fixture struct {
	service  *app.ProgressService
	words    *memory.WordStore
	users    *memory.UserStore
	progress *flakyProgressStore
	sessions *memory.SessionStore
	feed     *app.LeaderboardFeed
	clock    *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		words:    memory.NewWordStore(),
		users:    memory.NewUserStore(),
		progress: &flakyProgressStore{ProgressStore: memory.NewProgressStore()},
		sessions: memory.NewSessionStore(),
		feed:     app.NewLeaderboardFeed(),
		clock:    &fakeClock{now: time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)},
	}
	f.service = app.NewProgressService(f.words, f.progress, f.users, f.sessions, app.Options{
		QuestionTimeout: questionTimeout,
		Clock:           f.clock.Now,
		Rand:            rand.New(rand.NewSource(42)),
		Feed:            f.feed,
	})
	return f
}

// addUser registers a learner with stats at rank.
func (f *fixture) addUser(t *testing.T, id string, rank int, lang domain.LearningLanguage) {
	t.Helper()
	ctx := context.Background()
	user := domain.User{ID: id, Email: id + "@example.com", DisplayName: "User " + id, LearningLanguage: lang}
	if err := f.users.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := f.progress.PutStats(ctx, id, domain.Stats{Rank: rank}); err != nil {
		t.Fatalf("put stats: %v", err)
	}
}

func (f *fixture) addWords(t *testing.T, rank, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		w := domain.Word{
			ID:         fmt.Sprintf("r%d-w%02d", rank, i),
			Rank:       rank,
			SourceText: fmt.Sprintf("source-%d-%d", rank, i),
			TargetText: fmt.Sprintf("target-%d-%d", rank, i),
		}
		if err := f.words.CreateWord(context.Background(), w); err != nil {
			t.Fatalf("create word: %v", err)
		}
	}
}

func (f *fixture) review(t *testing.T, userID string, rank int) {
	t.Helper()
	if err := f.service.MarkReviewed(context.Background(), userID, rank); err != nil {
		t.Fatalf("mark reviewed: %v", err)
	}
}

// play answers the session, getting the first `correct` questions right and
// the rest wrong.
func (f *fixture) play(t *testing.T, sessionID string, correct int) domain.AnswerOutcome {
	t.Helper()
	ctx := context.Background()
	var last domain.AnswerOutcome
	for i := 0; ; i++ {
		q, err := f.service.CurrentQuestion(ctx, sessionID)
		if errors.Is(err, domain.ErrSessionOver) {
			return last
		}
		if err != nil {
			t.Fatalf("current question: %v", err)
		}
		choice := q.WordID
		if i >= correct {
			choice = wrongOption(q)
		}
		last, err = f.service.SubmitAnswer(ctx, sessionID, choice)
		if err != nil {
			t.Fatalf("submit answer: %v", err)
		}
	}
}

func wrongOption(q domain.Question) string {
	for _, o := range q.Options {
		if o.WordID != q.WordID {
			return o.WordID
		}
	}
	return "no-such-word"
}

func (f *fixture) stats(t *testing.T, userID string) domain.Stats {
	t.Helper()
	stats, ok, err := f.progress.GetStats(context.Background(), userID)
	if err != nil || !ok {
		t.Fatalf("get stats: ok=%v err=%v", ok, err)
	}
	return stats
}

func (f *fixture) rankProgress(t *testing.T, userID string, rank int) domain.RankProgress {
	t.Helper()
	rp, _, err := f.progress.GetRankProgress(context.Background(), userID, rank)
	if err != nil {
		t.Fatalf("get rank progress: %v", err)
	}
	return rp
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var errBackend = errors.New("backend offline")

// flakyProgressStore fails selected operations on demand.
type flakyProgressStore struct {
	*memory.ProgressStore
	failGetRankProgress bool
	failPutStats        bool
	failPutRankProgress bool
}

func (s *flakyProgressStore) GetRankProgress(ctx context.Context, userID string, rank int) (domain.RankProgress, bool, error) {
	if s.failGetRankProgress {
		return domain.RankProgress{}, false, errBackend
	}
	return s.ProgressStore.GetRankProgress(ctx, userID, rank)
}

func (s *flakyProgressStore) PutStats(ctx context.Context, userID string, stats domain.Stats) error {
	if s.failPutStats {
		return errBackend
	}
	return s.ProgressStore.PutStats(ctx, userID, stats)
}

func (s *flakyProgressStore) PutRankProgress(ctx context.Context, userID string, rank int, rp domain.RankProgress) error {
	if s.failPutRankProgress {
		return errBackend
	}
	return s.ProgressStore.PutRankProgress(ctx, userID, rank, rp)
}
