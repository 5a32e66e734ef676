package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"course-commerce/internal/domain/model"
	"course-commerce/internal/domain/ports/repository"
	"course-commerce/internal/infra/metrics"
)

// ProgressUseCase recomputes the derived progress record for a (user, course)
// pair from the underlying facts. The computation is total and deterministic;
// running it twice with no intervening data change produces identical output.
type ProgressUseCase struct {
	users       repository.UserRepository
	courses     repository.CourseRepository
	lessons     repository.LessonRepository
	completions repository.CompletionRepository
	quizzes     repository.QuizRepository
	attempts    repository.QuizAttemptRepository
	progress    repository.ProgressRepository
	log         zerolog.Logger
}

func NewProgressUseCase(
	users repository.UserRepository,
	courses repository.CourseRepository,
	lessons repository.LessonRepository,
	completions repository.CompletionRepository,
	quizzes repository.QuizRepository,
	attempts repository.QuizAttemptRepository,
	progress repository.ProgressRepository,
	logger *zerolog.Logger,
) *ProgressUseCase {
	return &ProgressUseCase{
		users:       users,
		courses:     courses,
		lessons:     lessons,
		completions: completions,
		quizzes:     quizzes,
		attempts:    attempts,
		progress:    progress,
		log:         logger.With().Str("component", "ProgressUC").Logger(),
	}
}

// Recompute rebuilds and stores the progress record. The single upsert write
// is the only mutation, so a failure never leaves a half-written record.
func (u *ProgressUseCase) Recompute(ctx context.Context, userID, courseID string) (*model.Progress, error) {
	if _, err := u.users.FindByID(ctx, nil, userID); err != nil {
		return nil, err
	}
	if _, err := u.courses.FindByID(ctx, nil, courseID); err != nil {
		return nil, err
	}

	total, err := u.lessons.CountByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, err
	}
	completed, err := u.completions.CountByUserAndCourse(ctx, nil, userID, courseID)
	if err != nil {
		return nil, err
	}

	quizRatio, bestRatio, err := u.quizPerformance(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	p := &model.Progress{
		UserID:           userID,
		CourseID:         courseID,
		CompletedLessons: completed,
		TotalLessons:     total,
		BestQuizRatio:    bestRatio,
		Percent:          model.ComputePercent(completed, total, quizRatio),
		UpdatedAt:        time.Now(),
	}
	if err := u.progress.Upsert(ctx, nil, p); err != nil {
		return nil, err
	}
	metrics.ObserveProgressPercent(p.Percent)
	return p, nil
}

// Get returns the stored record, or a fresh recompute when none exists yet.
func (u *ProgressUseCase) Get(ctx context.Context, userID, courseID string) (*model.Progress, error) {
	p, err := u.progress.FindByUserAndCourse(ctx, nil, userID, courseID)
	if err == nil {
		return p, nil
	}
	return u.Recompute(ctx, userID, courseID)
}

// quizPerformance derives the quiz component of the formula: the mean of the
// best score ratio across quizzes the user has attempted, plus the single
// best ratio for the summary field.
func (u *ProgressUseCase) quizPerformance(ctx context.Context, userID, courseID string) (mean, best float64, err error) {
	quizzes, err := u.quizzes.ListByCourse(ctx, nil, courseID)
	if err != nil {
		return 0, 0, err
	}
	attempts, err := u.attempts.ListByUserAndCourse(ctx, nil, userID, courseID)
	if err != nil {
		return 0, 0, err
	}
	if len(quizzes) == 0 || len(attempts) == 0 {
		return 0, 0, nil
	}

	bestScore := make(map[string]int, len(attempts))
	for _, a := range attempts {
		if s, ok := bestScore[a.QuizID]; !ok || a.Score > s {
			bestScore[a.QuizID] = a.Score
		}
	}

	var sum float64
	var attempted int
	for _, q := range quizzes {
		s, ok := bestScore[q.ID]
		if !ok {
			continue
		}
		total := q.TotalPoints()
		if total == 0 {
			continue
		}
		ratio := float64(s) / float64(total)
		if ratio > 1 {
			ratio = 1
		}
		sum += ratio
		attempted++
		if ratio > best {
			best = ratio
		}
	}
	if attempted == 0 {
		return 0, 0, nil
	}
	return sum / float64(attempted), best, nil
}
