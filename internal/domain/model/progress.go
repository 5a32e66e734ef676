package model

import (
	"math"
	"time"
)

// Weights of the published progress formula:
//
//	percent = 100 * (lessonWeight*lessonRatio + quizWeight*quizRatio)
//
// lessonRatio is completed/total lessons (0 when the course has no lessons).
// quizRatio is the mean, over course quizzes with at least one attempt, of the
// best score ratio per quiz; 0 when nothing has been attempted.
const (
	ProgressLessonWeight = 0.7
	ProgressQuizWeight   = 0.3
)

// Progress is the derived completion/performance state for a (user, course)
// pair. It is a cache over enrollment, lesson-completion and quiz-attempt
// facts and is recomputable from scratch at any time; it is never the source
// of truth.
type Progress struct {
	UserID           string
	CourseID         string
	CompletedLessons int
	TotalLessons     int
	BestQuizRatio    float64 // best score ratio across attempted quizzes, 0..1
	Percent          float64 // 0..100, output of the published formula
	UpdatedAt        time.Time
}

// ComputePercent applies the published formula. Total and deterministic:
// identical inputs always produce an identical percentage.
func ComputePercent(completedLessons, totalLessons int, quizRatio float64) float64 {
	lessonRatio := 0.0
	if totalLessons > 0 {
		lessonRatio = float64(completedLessons) / float64(totalLessons)
	}
	if quizRatio < 0 {
		quizRatio = 0
	}
	if quizRatio > 1 {
		quizRatio = 1
	}
	pct := 100 * (ProgressLessonWeight*lessonRatio + ProgressQuizWeight*quizRatio)
	// Round to two decimals so repeated recomputes are byte-identical after encoding.
	return math.Round(pct*100) / 100
}
