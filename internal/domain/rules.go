package domain

import (
	"strings"
	"unicode/utf8"
)

const (
	MinRank = 1
	MaxRank = 5

	// PassingScore is the score a session must reach to count as practice.
	PassingScore = 80

	// MaxScore is the nominal score of a perfect session before flooring.
	MaxScore = 100

	// OptionsPerQuestion is the correct word plus up to three distractors.
	OptionsPerQuestion = 4
)

type rankRule struct {
	requiredPractice int // 0 means no further rank-up
	questions        int
}

var rankRules = map[int]rankRule{
	1: {requiredPractice: 15, questions: 10},
	2: {requiredPractice: 25, questions: 13},
	3: {requiredPractice: 40, questions: 16},
	4: {requiredPractice: 60, questions: 20},
	5: {requiredPractice: 0, questions: 25},
}

func ruleFor(rank int) rankRule {
	if rule, ok := rankRules[rank]; ok {
		return rule
	}
	return rankRules[MinRank]
}

// ValidRank reports whether rank is within MinRank..MaxRank.
func ValidRank(rank int) bool {
	return rank >= MinRank && rank <= MaxRank
}

// RequiredPracticeCount returns the passed sessions needed to leave rank.
// The boolean is false for the top rank, which has no further rank-up.
func RequiredPracticeCount(rank int) (int, bool) {
	rule := ruleFor(rank)
	if rule.requiredPractice == 0 {
		return 0, false
	}
	return rule.requiredPractice, true
}

// QuestionsPerSession returns how many questions one practice session asks.
func QuestionsPerSession(rank int) int {
	return ruleFor(rank).questions
}

// PointsPerQuestion is floor(100 / questions) for the rank.
func PointsPerQuestion(rank int) int {
	return MaxScore / QuestionsPerSession(rank)
}

// CanRankUp reports rank < MaxRank && practiceCount >= required.
func CanRankUp(rank, practiceCount int) bool {
	if rank >= MaxRank {
		return false
	}
	required, ok := RequiredPracticeCount(rank)
	return ok && practiceCount >= required
}

// Passed reports whether a session score meets the fixed threshold.
func Passed(score int) bool {
	return score >= PassingScore
}

// RankRule is the exported view of one row of the rule table.
type RankRule struct {
	Rank                  int  `json:"rank"`
	RequiredPracticeCount int  `json:"requiredPracticeCount"`
	Unlimited             bool `json:"unlimited"`
	QuestionsPerSession   int  `json:"questionsPerSession"`
	PointsPerQuestion     int  `json:"pointsPerQuestion"`
}

// RankRules lists the rule table in rank order.
func RankRules() []RankRule {
	rules := make([]RankRule, 0, MaxRank)
	for rank := MinRank; rank <= MaxRank; rank++ {
		required, ok := RequiredPracticeCount(rank)
		rules = append(rules, RankRule{
			Rank:                  rank,
			RequiredPracticeCount: required,
			Unlimited:             !ok,
			QuestionsPerSession:   QuestionsPerSession(rank),
			PointsPerQuestion:     PointsPerQuestion(rank),
		})
	}
	return rules
}

// FiveLetterWords keeps words whose trimmed source text is exactly five letters.
func FiveLetterWords(words []Word) []Word {
	out := make([]Word, 0, len(words))
	for _, w := range words {
		text := strings.ToLower(strings.TrimSpace(w.SourceText))
		if utf8.RuneCountInString(text) == 5 {
			out = append(out, w)
		}
	}
	return out
}
