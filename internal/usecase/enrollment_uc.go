package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"course-commerce/internal/domain"
	"course-commerce/internal/domain/model"
	"course-commerce/internal/domain/ports/repository"
	"course-commerce/internal/infra/metrics"
)

// GroupEnrollmentResult reports both halves of a bulk enrollment so callers
// can tell members that were newly enrolled from those that already were.
type GroupEnrollmentResult struct {
	EnrolledCount        int
	AlreadyEnrolledCount int
	Enrollments          []*model.Enrollment
}

// EnrollmentUseCase owns the creation of enrollment records, single and bulk.
type EnrollmentUseCase struct {
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	groups      repository.GroupRepository
	tm          repository.TransactionManager
	log         zerolog.Logger
}

func NewEnrollmentUseCase(
	enrollments repository.EnrollmentRepository,
	courses repository.CourseRepository,
	groups repository.GroupRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *EnrollmentUseCase {
	return &EnrollmentUseCase{
		enrollments: enrollments,
		courses:     courses,
		groups:      groups,
		tm:          tm,
		log:         logger.With().Str("component", "EnrollmentUC").Logger(),
	}
}

// Enroll grants a user access to a course. The default path is idempotent: an
// existing enrollment is returned unchanged with created=false. With strict
// set, a pre-existing enrollment is an ErrAlreadyExists instead.
func (u *EnrollmentUseCase) Enroll(ctx context.Context, userID, courseID string, strict bool) (*model.Enrollment, bool, error) {
	e, created, err := u.enrollTx(ctx, nil, userID, courseID)
	if err != nil {
		return nil, false, err
	}
	if !created && strict {
		return nil, false, fmt.Errorf("%w: user %s already enrolled in course %s", domain.ErrAlreadyExists, userID, courseID)
	}
	return e, created, nil
}

// enrollTx is the shared single-enrollment path, usable inside a settlement
// transaction.
func (u *EnrollmentUseCase) enrollTx(ctx context.Context, tx repository.Tx, userID, courseID string) (*model.Enrollment, bool, error) {
	existing, err := u.enrollments.FindByUserAndCourse(ctx, tx, userID, courseID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	if _, err := u.courses.FindByID(ctx, tx, courseID); err != nil {
		return nil, false, err
	}

	e := &model.Enrollment{
		ID:        uuid.NewString(),
		UserID:    userID,
		CourseID:  courseID,
		Status:    model.EnrollmentStatusActive,
		CreatedAt: time.Now(),
	}
	if err := u.enrollments.Save(ctx, tx, e); err != nil {
		return nil, false, err
	}
	metrics.IncEnrollment("single")
	return e, true, nil
}

// EnrollGroup enrolls every not-yet-enrolled member of a group into a course
// as one atomic batch. An empty group and a fully enrolled group are reported
// as distinct errors, not silently swallowed.
func (u *EnrollmentUseCase) EnrollGroup(ctx context.Context, groupID, courseID string) (*GroupEnrollmentResult, error) {
	if _, err := u.groups.FindByID(ctx, nil, groupID); err != nil {
		return nil, err
	}
	if _, err := u.courses.FindByID(ctx, nil, courseID); err != nil {
		return nil, err
	}
	members, err := u.groups.ListMemberIDs(ctx, nil, groupID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: group has no members", domain.ErrInvalidState)
	}

	var result *GroupEnrollmentResult
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		existing, err := u.enrollments.ListByUsersAndCourse(ctx, tx, members, courseID)
		if err != nil {
			return err
		}
		enrolled := make(map[string]bool, len(existing))
		for _, e := range existing {
			enrolled[e.UserID] = true
		}

		var remaining []string
		for _, id := range members {
			if !enrolled[id] {
				remaining = append(remaining, id)
			}
		}
		if len(remaining) == 0 {
			// Report the counts even for the no-op outcome so callers can
			// show "all N already enrolled".
			result = &GroupEnrollmentResult{AlreadyEnrolledCount: len(existing)}
			return fmt.Errorf("%w: all members already enrolled", domain.ErrNothingToDo)
		}

		now := time.Now()
		batch := make([]*model.Enrollment, 0, len(remaining))
		for _, id := range remaining {
			batch = append(batch, &model.Enrollment{
				ID:        uuid.NewString(),
				UserID:    id,
				CourseID:  courseID,
				Status:    model.EnrollmentStatusActive,
				CreatedAt: now,
			})
		}
		if err := u.enrollments.SaveBatch(ctx, tx, batch); err != nil {
			return err // whole batch rolls back
		}
		result = &GroupEnrollmentResult{
			EnrolledCount:        len(batch),
			AlreadyEnrolledCount: len(existing),
			Enrollments:          batch,
		}
		return nil
	})
	if err != nil {
		// The no-op outcome still carries counts for the caller.
		return result, err
	}
	metrics.AddEnrollments("group", result.EnrolledCount)
	u.log.Info().Str("group_id", groupID).Str("course_id", courseID).
		Int("enrolled", result.EnrolledCount).Int("already_enrolled", result.AlreadyEnrolledCount).
		Msg("group enrolled")
	return result, nil
}
