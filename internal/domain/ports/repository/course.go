package repository

import (
	"context"

	"course-commerce/internal/domain/model"
)

type CourseRepository interface {
	Save(ctx context.Context, tx Tx, c *model.Course) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Course, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Course, error)
}

type LessonRepository interface {
	Save(ctx context.Context, tx Tx, l *model.Lesson) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Lesson, error)
	ListByCourse(ctx context.Context, tx Tx, courseID string) ([]*model.Lesson, error)
	CountByCourse(ctx context.Context, tx Tx, courseID string) (int, error)
}

type CompletionRepository interface {
	// MarkComplete is idempotent: completing an already-completed lesson
	// changes nothing and returns created=false.
	MarkComplete(ctx context.Context, tx Tx, c *model.LessonCompletion) (created bool, err error)
	CountByUserAndCourse(ctx context.Context, tx Tx, userID, courseID string) (int, error)
}
