package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"course-commerce/internal/domain"
)

type QuestionType string

const (
	QuestionTypeSingleChoice QuestionType = "single_choice"
	QuestionTypeMultiChoice  QuestionType = "multi_choice"
	QuestionTypeFreeText     QuestionType = "free_text"
)

// Question is one graded item in a quiz. CorrectAnswer holds the canonical
// answer in the shape matching Type: a string for single choice and free text,
// a string slice for multi choice.
type Question struct {
	ID            string // UUID
	QuizID        string // UUID
	Prompt        string
	Type          QuestionType
	Options       []string // for choice questions
	CorrectSingle string   // single_choice / free_text canonical answer
	CorrectMulti  []string // multi_choice canonical answer set
	Points        int
	Position      int
}

// Quiz is a graded question set attached to a course.
type Quiz struct {
	ID           string // UUID
	CourseID     string // UUID
	LessonID     string // UUID, optional origin lesson
	Title        string
	PassingScore int // minimum score to pass
	Questions    []Question
	CreatedAt    time.Time
}

// TotalPoints sums the point values of all questions.
func (q *Quiz) TotalPoints() int {
	total := 0
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}

// QuizAttempt is one graded submission. Immutable once created; every attempt
// is retained.
type QuizAttempt struct {
	ID         string          // UUID
	UserID     string          // UUID
	QuizID     string          // UUID
	CourseID   string          // denormalized from the quiz for progress reads
	RawAnswers json.RawMessage // submitted payload as received
	Score      int
	Passed     bool
	CreatedAt  time.Time
}

// DecodeAnswers parses a submitted payload into a question-id -> raw answer
// mapping. A payload that is not such a mapping is an input error, not a
// zero-score submission.
func DecodeAnswers(raw json.RawMessage) (map[string]json.RawMessage, error) {
	if len(raw) == 0 {
		return map[string]json.RawMessage{}, nil
	}
	var answers map[string]json.RawMessage
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("%w: answers payload is not an object: %v", domain.ErrInvalidArgument, err)
	}
	return answers, nil
}

// Grade scores a decoded answer set against the quiz. Unanswered questions
// count as incorrect. The result depends only on the quiz definition and the
// submitted answers.
func (q *Quiz) Grade(answers map[string]json.RawMessage) (score int, passed bool) {
	for _, question := range q.Questions {
		raw, ok := answers[question.ID]
		if !ok {
			continue
		}
		if question.matches(raw) {
			score += question.Points
		}
	}
	return score, score >= q.PassingScore
}

// matches compares a submitted raw answer against the canonical one using the
// comparison appropriate to the question type. A submitted value of the wrong
// shape counts as incorrect.
func (qn *Question) matches(raw json.RawMessage) bool {
	switch qn.Type {
	case QuestionTypeSingleChoice:
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return false
		}
		return s == qn.CorrectSingle
	case QuestionTypeMultiChoice:
		var got []string
		if json.Unmarshal(raw, &got) != nil {
			return false
		}
		return equalSets(got, qn.CorrectMulti)
	case QuestionTypeFreeText:
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return false
		}
		return strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(qn.CorrectSingle))
	default:
		return false
	}
}

func equalSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
