package app

import (
	"sync"
	"time"

	"vocab-progress-service/internal/domain"
)

// Session is one in-flight practice attempt for a (user, rank) pair.
// It is never persisted; only its result is.
type Session struct {
	id        string
	userID    string
	rank      int
	language  domain.LearningLanguage
	points    int
	timeout   time.Duration
	now       func() time.Time
	createdAt time.Time

	mu        sync.Mutex
	questions []sessionQuestion
	index     int
	score     int
	answered  int
	deadline  time.Time
}

type sessionQuestion struct {
	word    domain.Word
	options []domain.Word
}

// SessionInfo is a read-only snapshot of a session.
type SessionInfo struct {
	ID                string    `json:"sessionId"`
	UserID            string    `json:"userId"`
	Rank              int       `json:"rank"`
	QuestionCount     int       `json:"questionCount"`
	PointsPerQuestion int       `json:"pointsPerQuestion"`
	CurrentIndex      int       `json:"currentIndex"`
	Score             int       `json:"score"`
	Answered          int       `json:"answered"`
	CreatedAt         time.Time `json:"createdAt"`
}

// NewSession builds an untimed session over words in the given order, each
// question offering its own word as the only option. SessionRepository
// implementations use it in their tests; live sessions come from StartSession.
func NewSession(id, userID string, rank int, words []domain.Word) *Session {
	questions := make([]sessionQuestion, 0, len(words))
	for _, w := range words {
		questions = append(questions, sessionQuestion{word: w, options: []domain.Word{w}})
	}
	return newSession(id, userID, rank, domain.LearnTarget, questions, 0, time.Now)
}

func newSession(id, userID string, rank int, lang domain.LearningLanguage, questions []sessionQuestion, timeout time.Duration, now func() time.Time) *Session {
	s := &Session{
		id:        id,
		userID:    userID,
		rank:      rank,
		language:  lang,
		points:    domain.PointsPerQuestion(rank),
		timeout:   timeout,
		now:       now,
		createdAt: now(),
		questions: questions,
	}
	s.armLocked()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Info returns a snapshot of the session's counters.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		ID:                s.id,
		UserID:            s.userID,
		Rank:              s.rank,
		QuestionCount:     len(s.questions),
		PointsPerQuestion: s.points,
		CurrentIndex:      s.index,
		Score:             s.score,
		Answered:          s.answered,
		CreatedAt:         s.createdAt,
	}
}

// Over reports whether every question has been resolved.
func (s *Session) Over() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overLocked()
}

func (s *Session) overLocked() bool {
	return s.index >= len(s.questions)
}

func (s *Session) current() (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.overLocked() {
		return domain.Question{}, domain.ErrSessionOver
	}
	q := s.questions[s.index]
	options := make([]domain.Option, 0, len(q.options))
	for _, w := range q.options {
		options = append(options, domain.Option{WordID: w.ID, Text: w.Answer(s.language)})
	}
	return domain.Question{
		Index:    s.index,
		WordID:   q.word.ID,
		Prompt:   q.word.Prompt(s.language),
		Options:  options,
		Deadline: s.deadline,
	}, nil
}

// answer resolves the current question with the chosen word. An answer
// arriving after the deadline is scored as a timeout.
func (s *Session) answer(wordID string) (domain.AnswerOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.overLocked() {
		return domain.AnswerOutcome{}, domain.ErrSessionOver
	}
	if s.expiredLocked() {
		return s.resolveLocked(false, true), nil
	}
	correct := s.questions[s.index].word.ID == wordID
	return s.resolveLocked(correct, false), nil
}

// expire resolves question index as unanswered. Stale expiries for an
// already resolved question are rejected.
func (s *Session) expire(index int) (domain.AnswerOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.overLocked() {
		return domain.AnswerOutcome{}, domain.ErrSessionOver
	}
	if index != s.index {
		return domain.AnswerOutcome{}, domain.New(domain.KindInvalidArgument, "question already resolved")
	}
	return s.resolveLocked(false, true), nil
}

// forfeit resolves all remaining questions with zero points.
func (s *Session) forfeit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = len(s.questions)
	s.deadline = time.Time{}
}

func (s *Session) expiredLocked() bool {
	return !s.deadline.IsZero() && s.now().After(s.deadline)
}

func (s *Session) resolveLocked(correct, timedOut bool) domain.AnswerOutcome {
	q := s.questions[s.index]
	awarded := 0
	if correct {
		awarded = s.points
	}
	s.score += awarded
	s.answered++
	outcome := domain.AnswerOutcome{
		QuestionIndex: s.index,
		Correct:       correct,
		TimedOut:      timedOut,
		CorrectWordID: q.word.ID,
		Awarded:       awarded,
	}
	s.index++
	s.armLocked()
	outcome.Score = s.score
	outcome.SessionOver = s.overLocked()
	return outcome
}

func (s *Session) armLocked() {
	if s.timeout <= 0 || s.overLocked() {
		s.deadline = time.Time{}
		return
	}
	s.deadline = s.now().Add(s.timeout)
}

func (s *Session) totals() (score, answered int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score, s.answered
}
