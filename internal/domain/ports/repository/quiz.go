package repository

import (
	"context"

	"course-commerce/internal/domain/model"
)

type QuizRepository interface {
	// Save persists the quiz together with its questions.
	Save(ctx context.Context, tx Tx, q *model.Quiz) error
	// FindByID loads the quiz with its question set ordered by position.
	FindByID(ctx context.Context, tx Tx, id string) (*model.Quiz, error)
	ListByCourse(ctx context.Context, tx Tx, courseID string) ([]*model.Quiz, error)
}

type QuizAttemptRepository interface {
	Save(ctx context.Context, tx Tx, a *model.QuizAttempt) error
	ListByUserAndCourse(ctx context.Context, tx Tx, userID, courseID string) ([]*model.QuizAttempt, error)
}

type ProgressRepository interface {
	// Upsert replaces the progress record for the (user, course) pair.
	Upsert(ctx context.Context, tx Tx, p *model.Progress) error
	FindByUserAndCourse(ctx context.Context, tx Tx, userID, courseID string) (*model.Progress, error)
}
