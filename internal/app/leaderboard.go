package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"vocab-progress-service/internal/domain"
)

// ComputeLeaderboard ranks users by total score, highest first. Ties keep
// input order. Users without a stats record are left out entirely.
func ComputeLeaderboard(users []domain.UserStats) domain.Leaderboard {
	entries := make([]domain.LeaderboardEntry, 0, len(users))
	for _, us := range users {
		if us.Stats == nil {
			continue
		}
		entries = append(entries, domain.LeaderboardEntry{
			UserID:      us.User.ID,
			DisplayName: us.User.DisplayName,
			TotalScore:  us.Stats.TotalScore,
			Rank:        us.Stats.Rank,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalScore > entries[j].TotalScore
	})
	for i := range entries {
		entries[i].Position = i + 1
	}

	top := entries
	if len(top) > domain.LeaderboardSize {
		top = top[:domain.LeaderboardSize]
	}
	return domain.Leaderboard{
		Top:        top,
		All:        entries,
		TotalCount: len(entries),
	}
}

const statsFetchConcurrency = 8

// Leaderboard loads every user's stats and ranks them. When userID is set
// the caller's own entry is attached even if it falls outside the top list.
func (s *ProgressService) Leaderboard(ctx context.Context, userID string) (domain.Leaderboard, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return domain.Leaderboard{}, storeErr("list users", err)
	}

	rows := make([]domain.UserStats, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statsFetchConcurrency)
	for i, user := range users {
		g.Go(func() error {
			stats, ok, err := s.progress.GetStats(gctx, user.ID)
			if err != nil {
				return storeErr("get stats", err)
			}
			rows[i] = domain.UserStats{User: user}
			if ok {
				rows[i].Stats = &stats
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Leaderboard{}, err
	}

	lb := ComputeLeaderboard(rows)
	lb.UpdatedAt = s.clock()
	if userID != "" {
		if entry, ok := lb.Find(userID); ok {
			lb.Self = &entry
		}
	}
	return lb, nil
}

func (s *ProgressService) publishLeaderboard(ctx context.Context) {
	if s.feed == nil || !s.feed.hasSubscribers() {
		return
	}
	lb, err := s.Leaderboard(ctx, "")
	if err != nil {
		return
	}
	s.feed.Publish(lb)
}

// LeaderboardFeed fans leaderboard snapshots out to subscribers.
type LeaderboardFeed struct {
	mu          sync.Mutex
	latest      domain.Leaderboard
	hasLatest   bool
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewLeaderboardFeed() *LeaderboardFeed {
	return &LeaderboardFeed{
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// Subscribe returns a channel of leaderboard updates, primed with the latest
// snapshot if one exists. The caller must invoke cancel to avoid leaks.
func (f *LeaderboardFeed) Subscribe() (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	if f.hasLatest {
		ch <- f.latest
	}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish stores lb as the latest snapshot and broadcasts it.
func (f *LeaderboardFeed) Publish(lb domain.Leaderboard) {
	if lb.UpdatedAt.IsZero() {
		lb.UpdatedAt = time.Now()
	}
	lb.Self = nil

	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest = lb
	f.hasLatest = true
	for ch := range f.subscribers {
		select {
		case ch <- lb:
		default:
			// slow subscriber: replace its oldest pending snapshot
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}

func (f *LeaderboardFeed) hasSubscribers() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers) > 0
}
