package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"course-commerce/internal/domain/model"
	"course-commerce/internal/domain/ports/repository"
	"course-commerce/internal/infra/metrics"
)

// SubmitResult bundles the graded attempt with the refreshed progress record;
// grading and the progress update are one logical operation for the caller.
type SubmitResult struct {
	Attempt  *model.QuizAttempt
	Progress *model.Progress
}

// QuizUseCase grades submissions and records immutable attempts.
type QuizUseCase struct {
	quizzes  repository.QuizRepository
	attempts repository.QuizAttemptRepository
	progress *ProgressUseCase
	log      zerolog.Logger
}

func NewQuizUseCase(quizzes repository.QuizRepository, attempts repository.QuizAttemptRepository, progress *ProgressUseCase, logger *zerolog.Logger) *QuizUseCase {
	return &QuizUseCase{
		quizzes:  quizzes,
		attempts: attempts,
		progress: progress,
		log:      logger.With().Str("component", "QuizUC").Logger(),
	}
}

// Submit grades the answers against the quiz definition, persists the attempt
// and synchronously recomputes the payer's course progress. A payload that is
// not a question-id to answer mapping is rejected before anything is written.
func (u *QuizUseCase) Submit(ctx context.Context, userID, quizID string, raw json.RawMessage) (*SubmitResult, error) {
	quiz, err := u.quizzes.FindByID(ctx, nil, quizID)
	if err != nil {
		return nil, err
	}
	answers, err := model.DecodeAnswers(raw)
	if err != nil {
		return nil, err
	}

	score, passed := quiz.Grade(answers)
	attempt := &model.QuizAttempt{
		ID:         uuid.NewString(),
		UserID:     userID,
		QuizID:     quiz.ID,
		CourseID:   quiz.CourseID,
		RawAnswers: raw,
		Score:      score,
		Passed:     passed,
		CreatedAt:  time.Now(),
	}
	if err := u.attempts.Save(ctx, nil, attempt); err != nil {
		return nil, err
	}
	metrics.IncQuizAttempt(passed)

	// The attempt is durable at this point; progress is derived and the next
	// recompute heals a failure here, but the caller still sees the error.
	progress, err := u.progress.Recompute(ctx, userID, quiz.CourseID)
	if err != nil {
		u.log.Error().Err(err).Str("user_id", userID).Str("quiz_id", quizID).Msg("progress recompute after grading failed")
		return nil, err
	}

	u.log.Info().Str("user_id", userID).Str("quiz_id", quizID).Int("score", score).Bool("passed", passed).Msg("quiz graded")
	return &SubmitResult{Attempt: attempt, Progress: progress}, nil
}
