package domain

import "time"

// LearningLanguage tells which side of a word pair the learner is studying.
type LearningLanguage string

const (
	// LearnSource means the learner studies the source-text language.
	LearnSource LearningLanguage = "source"
	// LearnTarget means the learner studies the target-text language.
	LearnTarget LearningLanguage = "target"
)

// Valid reports whether the value is one of the known languages.
func (l LearningLanguage) Valid() bool {
	return l == LearnSource || l == LearnTarget
}

// Word is a vocabulary pair scoped to a rank bucket.
type Word struct {
	ID         string `json:"id"`
	Rank       int    `json:"rank"`
	SourceText string `json:"sourceText"`
	TargetText string `json:"targetText"`
}

// Prompt returns the text shown to a learner of lang.
// The prompt is always in the language the learner is not studying.
func (w Word) Prompt(lang LearningLanguage) string {
	if lang == LearnSource {
		return w.TargetText
	}
	return w.SourceText
}

// Answer returns the text of the word in the language being learned.
func (w Word) Answer(lang LearningLanguage) string {
	if lang == LearnSource {
		return w.SourceText
	}
	return w.TargetText
}

// User is a registered learner or admin.
type User struct {
	ID               string           `json:"id"`
	Email            string           `json:"email"`
	PasswordHash     string           `json:"-"`
	DisplayName      string           `json:"displayName"`
	Gender           string           `json:"gender,omitempty"`
	IsAdmin          bool             `json:"isAdmin"`
	LearningLanguage LearningLanguage `json:"learningLanguage"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// Stats is the per-user aggregate. Rank and TotalScore never decrease.
type Stats struct {
	Rank       int `json:"rank"`
	TotalScore int `json:"totalScore"`
}

// InitialStats is the record written at sign-up.
func InitialStats() Stats {
	return Stats{Rank: MinRank, TotalScore: 0}
}

// RankProgress tracks one user's practice within one rank.
type RankProgress struct {
	PracticeCount    int  `json:"practiceCount"`
	HasReviewedWords bool `json:"hasReviewedWords"`
}

// UserStats pairs a user with their stats record. Stats is nil when the
// user never finished sign-up initialization.
type UserStats struct {
	User  User
	Stats *Stats
}

// LeaderboardEntry is one ranked line of the leaderboard.
type LeaderboardEntry struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	TotalScore  int    `json:"totalScore"`
	Rank        int    `json:"rank"`
	Position    int    `json:"position"`
}

// Leaderboard is the ordered scoreboard across all users with stats.
type Leaderboard struct {
	Top        []LeaderboardEntry `json:"top"`
	All        []LeaderboardEntry `json:"-"`
	TotalCount int                `json:"totalCount"`
	Self       *LeaderboardEntry  `json:"self,omitempty"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

// LeaderboardSize is how many entries the top list carries.
const LeaderboardSize = 10

// Find returns the entry for userID, if ranked.
func (l Leaderboard) Find(userID string) (LeaderboardEntry, bool) {
	for _, entry := range l.All {
		if entry.UserID == userID {
			return entry, true
		}
	}
	return LeaderboardEntry{}, false
}

// Option is one answer choice of a question.
type Option struct {
	WordID string `json:"wordId"`
	Text   string `json:"text"`
}

// Question is a single multiple-choice prompt inside a practice session.
type Question struct {
	Index    int       `json:"index"`
	WordID   string    `json:"-"`
	Prompt   string    `json:"prompt"`
	Options  []Option  `json:"options"`
	Deadline time.Time `json:"deadline"`
}

// AnswerOutcome summarizes how one question was resolved.
type AnswerOutcome struct {
	QuestionIndex int    `json:"questionIndex"`
	Correct       bool   `json:"correct"`
	TimedOut      bool   `json:"timedOut"`
	CorrectWordID string `json:"correctWordId"`
	Awarded       int    `json:"awarded"`
	Score         int    `json:"score"`
	SessionOver   bool   `json:"sessionOver"`
}

// SessionResult is produced when a practice session ends.
type SessionResult struct {
	SessionID     string `json:"sessionId"`
	UserID        string `json:"userId"`
	Rank          int    `json:"rank"`
	Score         int    `json:"score"`
	Passed        bool   `json:"passed"`
	Answered      int    `json:"answered"`
	PracticeCount int    `json:"practiceCount"`
	NewRank       int    `json:"newRank"`
	RankedUp      bool   `json:"rankedUp"`
	TotalScore    int    `json:"totalScore"`
}
