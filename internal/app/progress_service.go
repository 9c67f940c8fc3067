package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"vocab-progress-service/internal/domain"
)

// VocabularyStore abstracts where words live (Postgres, Redis cache, memory).
type VocabularyStore interface {
	WordsByRank(ctx context.Context, rank int) ([]domain.Word, error)
	AllWords(ctx context.Context) ([]domain.Word, error)
	FiveLetterWords(ctx context.Context) ([]domain.Word, error)
	CreateWord(ctx context.Context, word domain.Word) error
	DeleteWord(ctx context.Context, wordID string, rank int) error
}

// ProgressStore persists per-user stats and per-rank progress.
// A missing record is reported with ok=false, never as an error.
type ProgressStore interface {
	GetStats(ctx context.Context, userID string) (domain.Stats, bool, error)
	PutStats(ctx context.Context, userID string, stats domain.Stats) error
	GetRankProgress(ctx context.Context, userID string, rank int) (domain.RankProgress, bool, error)
	PutRankProgress(ctx context.Context, userID string, rank int, progress domain.RankProgress) error
}

// UserStore persists registered users.
type UserStore interface {
	CreateUser(ctx context.Context, user domain.User) error
	GetUser(ctx context.Context, userID string) (domain.User, bool, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, bool, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// SessionRepository holds in-flight practice sessions.
type SessionRepository interface {
	Save(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// Options tune a ProgressService. Zero values are valid.
type Options struct {
	// QuestionTimeout bounds each question; zero disables the countdown.
	QuestionTimeout time.Duration
	Clock           func() time.Time
	Rand            *rand.Rand
	Feed            *LeaderboardFeed
}

// ProgressService owns the rank, practice and scoring rules.
type ProgressService struct {
	words    VocabularyStore
	progress ProgressStore
	users    UserStore
	sessions SessionRepository
	feed     *LeaderboardFeed

	timeout time.Duration
	clock   func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewProgressService(words VocabularyStore, progress ProgressStore, users UserStore, sessions SessionRepository, opts Options) *ProgressService {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &ProgressService{
		words:    words,
		progress: progress,
		users:    users,
		sessions: sessions,
		feed:     opts.Feed,
		timeout:  opts.QuestionTimeout,
		clock:    opts.Clock,
		rnd:      opts.Rand,
	}
}

// RequiredPracticeCount exposes the rule table; ok is false for the top rank.
func (s *ProgressService) RequiredPracticeCount(rank int) (int, bool) {
	return domain.RequiredPracticeCount(rank)
}

// QuestionsPerSession exposes the rule table.
func (s *ProgressService) QuestionsPerSession(rank int) int {
	return domain.QuestionsPerSession(rank)
}

// MarkReviewed opens the practice gate for (user, rank). Repeated calls are no-ops.
func (s *ProgressService) MarkReviewed(ctx context.Context, userID string, rank int) error {
	if !domain.ValidRank(rank) {
		return domain.New(domain.KindInvalidArgument, "rank out of range")
	}
	if _, ok, err := s.users.GetUser(ctx, userID); err != nil {
		return storeErr("get user", err)
	} else if !ok {
		return domain.NotFoundf("user %s", userID)
	}
	rp, _, err := s.progress.GetRankProgress(ctx, userID, rank)
	if err != nil {
		return storeErr("get rank progress", err)
	}
	if rp.HasReviewedWords {
		return nil
	}
	rp.HasReviewedWords = true
	if err := s.progress.PutRankProgress(ctx, userID, rank, rp); err != nil {
		return storeErr("put rank progress", err)
	}
	return nil
}

// ProgressSnapshot is the read model for one user at one rank.
type ProgressSnapshot struct {
	UserID                string              `json:"userId"`
	Stats                 domain.Stats        `json:"stats"`
	Rank                  int                 `json:"rank"`
	Progress              domain.RankProgress `json:"progress"`
	RequiredPracticeCount int                 `json:"requiredPracticeCount"`
	CanRankUp             bool                `json:"canRankUp"`
}

// Progress returns the user's stats together with the progress for rank.
// A rank of zero means the user's current rank.
func (s *ProgressService) Progress(ctx context.Context, userID string, rank int) (ProgressSnapshot, error) {
	stats, ok, err := s.progress.GetStats(ctx, userID)
	if err != nil {
		return ProgressSnapshot{}, storeErr("get stats", err)
	}
	if !ok {
		return ProgressSnapshot{}, domain.NotFoundf("stats for user %s", userID)
	}
	if rank == 0 {
		rank = stats.Rank
	}
	rp, _, err := s.progress.GetRankProgress(ctx, userID, rank)
	if err != nil {
		return ProgressSnapshot{}, storeErr("get rank progress", err)
	}
	required, _ := domain.RequiredPracticeCount(rank)
	return ProgressSnapshot{
		UserID:                userID,
		Stats:                 stats,
		Rank:                  rank,
		Progress:              rp,
		RequiredPracticeCount: required,
		CanRankUp:             domain.CanRankUp(rank, rp.PracticeCount),
	}, nil
}

// StartSession draws a practice session for rank. It fails without side
// effects when the rank has not been reviewed or has no words.
func (s *ProgressService) StartSession(ctx context.Context, userID string, rank int) (SessionInfo, error) {
	user, ok, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return SessionInfo{}, storeErr("get user", err)
	}
	if !ok {
		return SessionInfo{}, domain.NotFoundf("user %s", userID)
	}

	rp, _, err := s.progress.GetRankProgress(ctx, userID, rank)
	if err != nil {
		return SessionInfo{}, storeErr("get rank progress", err)
	}
	if !rp.HasReviewedWords {
		return SessionInfo{}, domain.ErrReviewRequired
	}

	pool, err := s.words.WordsByRank(ctx, rank)
	if err != nil {
		return SessionInfo{}, storeErr("get words by rank", err)
	}
	if len(pool) == 0 {
		return SessionInfo{}, domain.ErrInsufficientWords
	}

	count := domain.QuestionsPerSession(rank)
	if len(pool) < count {
		count = len(pool)
	}

	s.rndMu.Lock()
	questions := drawQuestions(s.rnd, pool, count)
	s.rndMu.Unlock()

	session := newSession(uuid.NewString(), userID, rank, user.LearningLanguage, questions, s.timeout, s.clock)
	s.sessions.Save(session)
	return session.Info(), nil
}

// CurrentQuestion returns the unresolved question of a session.
func (s *ProgressService) CurrentQuestion(_ context.Context, sessionID string) (domain.Question, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.Question{}, err
	}
	return session.current()
}

// SubmitAnswer scores the chosen word against the current question.
func (s *ProgressService) SubmitAnswer(_ context.Context, sessionID, wordID string) (domain.AnswerOutcome, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.AnswerOutcome{}, err
	}
	return session.answer(wordID)
}

// ExpireQuestion is called when the countdown for question index runs out.
func (s *ProgressService) ExpireQuestion(_ context.Context, sessionID string, index int) (domain.AnswerOutcome, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.AnswerOutcome{}, err
	}
	return session.expire(index)
}

// AbandonSession drops a session without recording anything.
func (s *ProgressService) AbandonSession(_ context.Context, sessionID string) {
	s.sessions.Delete(sessionID)
}

// EndSession closes a session and applies its result to the user's stats
// and rank progress. Unresolved questions are forfeited with zero points.
func (s *ProgressService) EndSession(ctx context.Context, sessionID string) (domain.SessionResult, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.SessionResult{}, err
	}
	if _, answered := session.totals(); answered == 0 {
		return domain.SessionResult{}, domain.ErrEmptySession
	}

	userID, rank := session.userID, session.rank
	stats, ok, err := s.progress.GetStats(ctx, userID)
	if err != nil {
		return domain.SessionResult{}, storeErr("get stats", err)
	}
	if !ok {
		return domain.SessionResult{}, domain.NotFoundf("stats for user %s", userID)
	}
	rp, _, err := s.progress.GetRankProgress(ctx, userID, rank)
	if err != nil {
		return domain.SessionResult{}, storeErr("get rank progress", err)
	}

	// the session stays playable until both reads have succeeded
	session.forfeit()
	score, answered := session.totals()
	result := domain.SessionResult{
		SessionID: sessionID,
		UserID:    userID,
		Rank:      rank,
		Score:     score,
		Passed:    domain.Passed(score),
		Answered:  answered,
	}

	stats.TotalScore += score
	if result.Passed {
		rp.PracticeCount++
		if domain.CanRankUp(rank, rp.PracticeCount) && stats.Rank < rank+1 {
			stats.Rank = rank + 1
			result.RankedUp = true
		}
	}
	result.PracticeCount = rp.PracticeCount
	result.NewRank = stats.Rank
	result.TotalScore = stats.TotalScore

	if err := s.writeProgress(ctx, userID, rank, stats, rp, result.Passed); err != nil {
		if domain.KindOf(err) == domain.KindPartialProgressUpdate {
			s.sessions.Delete(sessionID)
			s.publishLeaderboard(ctx)
		}
		return result, err
	}

	s.sessions.Delete(sessionID)
	s.publishLeaderboard(ctx)
	return result, nil
}

// writeProgress issues the stats and rank-progress writes independently and
// reports which of them landed.
func (s *ProgressService) writeProgress(ctx context.Context, userID string, rank int, stats domain.Stats, rp domain.RankProgress, progressChanged bool) error {
	var statsErr, progressErr error
	var g errgroup.Group
	g.Go(func() error {
		statsErr = s.progress.PutStats(ctx, userID, stats)
		return nil
	})
	if progressChanged {
		g.Go(func() error {
			progressErr = s.progress.PutRankProgress(ctx, userID, rank, rp)
			return nil
		})
	}
	_ = g.Wait()

	switch {
	case statsErr == nil && progressErr == nil:
		return nil
	case statsErr != nil && !progressChanged:
		return storeErr("put stats", statsErr)
	case statsErr != nil && progressErr != nil:
		return domain.Unavailable("put stats and rank progress", statsErr)
	case statsErr != nil:
		return &domain.PartialProgressUpdateError{
			StatsWritten:    false,
			ProgressWritten: true,
			Cause:           storeErr("put stats", statsErr),
		}
	default:
		return &domain.PartialProgressUpdateError{
			StatsWritten:    true,
			ProgressWritten: false,
			Cause:           storeErr("put rank progress", progressErr),
		}
	}
}

func (s *ProgressService) session(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.NotFoundf("session %s", sessionID)
	}
	return session, nil
}

// drawQuestions picks count distinct words by uniform permutation and pairs
// each with up to three distractors from the rest of the pool.
func drawQuestions(rnd *rand.Rand, pool []domain.Word, count int) []sessionQuestion {
	order := rnd.Perm(len(pool))
	questions := make([]sessionQuestion, 0, count)
	for _, idx := range order[:count] {
		others := make([]int, 0, len(pool)-1)
		for i := range pool {
			if i != idx {
				others = append(others, i)
			}
		}
		distractors := domain.OptionsPerQuestion - 1
		if len(others) < distractors {
			distractors = len(others)
		}
		// partial Fisher-Yates: first `distractors` slots are a uniform sample
		for i := 0; i < distractors; i++ {
			j := i + rnd.Intn(len(others)-i)
			others[i], others[j] = others[j], others[i]
		}

		options := make([]domain.Word, 0, distractors+1)
		options = append(options, pool[idx])
		for _, o := range others[:distractors] {
			options = append(options, pool[o])
		}
		rnd.Shuffle(len(options), func(i, j int) {
			options[i], options[j] = options[j], options[i]
		})
		questions = append(questions, sessionQuestion{word: pool[idx], options: options})
	}
	return questions
}

// storeErr keeps domain errors as they are and wraps anything else as
// StoreUnavailable.
func storeErr(op string, err error) error {
	if domain.KindOf(err) != domain.KindUnknown {
		return err
	}
	return domain.Unavailable(op, err)
}
