package repository

import (
	"context"

	"course-commerce/internal/domain/model"
)

type EnrollmentRepository interface {
	Save(ctx context.Context, tx Tx, e *model.Enrollment) error
	// SaveBatch inserts all enrollments or none; callers run it inside a
	// transaction to get the all-or-nothing guarantee end to end.
	SaveBatch(ctx context.Context, tx Tx, es []*model.Enrollment) error
	FindByUserAndCourse(ctx context.Context, tx Tx, userID, courseID string) (*model.Enrollment, error)
	// ListByUsersAndCourse returns the existing enrollments among the given
	// users for one course (used to split a group into enrolled / remaining).
	ListByUsersAndCourse(ctx context.Context, tx Tx, userIDs []string, courseID string) ([]*model.Enrollment, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.EnrollmentStatus) error
}
