//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"course-commerce/internal/domain"
	"course-commerce/internal/domain/model"
	"course-commerce/internal/domain/ports/repository"
)

func TestEnrollmentRepo_Integration(t *testing.T) {
	ctx := context.Background()
	repo := NewEnrollmentRepo(testPool)
	userRepo := NewUserRepo(testPool)
	courseRepo := NewCourseRepo(testPool)
	tm := NewTxManager(testPool)

	seedUsers := func(t *testing.T, n int) (userIDs []string, courseID string) {
		t.Helper()
		cleanup(t)
		courseID = uuid.NewString()
		if err := courseRepo.Save(ctx, nil, &model.Course{
			ID: courseID, Title: "Geometry", Topic: "math", Level: "intermediate",
			PriceMinor: 0, Currency: "NGN", CreatedAt: time.Now().UTC(),
		}); err != nil {
			t.Fatalf("seed course: %v", err)
		}
		for i := 0; i < n; i++ {
			id := uuid.NewString()
			if err := userRepo.Save(ctx, nil, &model.User{
				ID: id, Email: id + "@test.local", Name: "student",
				PasswordDigest: "x", CreatedAt: time.Now().UTC(),
			}); err != nil {
				t.Fatalf("seed user: %v", err)
			}
			userIDs = append(userIDs, id)
		}
		return userIDs, courseID
	}

	newEnrollment := func(userID, courseID string) *model.Enrollment {
		return &model.Enrollment{
			ID:        uuid.NewString(),
			UserID:    userID,
			CourseID:  courseID,
			Status:    model.EnrollmentStatusActive,
			CreatedAt: time.Now().UTC(),
		}
	}

	t.Run("should save and find an enrollment", func(t *testing.T) {
		users, courseID := seedUsers(t, 1)
		e := newEnrollment(users[0], courseID)
		if err := repo.Save(ctx, nil, e); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := repo.FindByUserAndCourse(ctx, nil, users[0], courseID)
		if err != nil {
			t.Fatalf("FindByUserAndCourse() error = %v", err)
		}
		if got.ID != e.ID || got.Status != model.EnrollmentStatusActive {
			t.Errorf("FindByUserAndCourse() = %+v, want id %s active", got, e.ID)
		}
	})

	t.Run("should reject a second enrollment for the same user and course", func(t *testing.T) {
		users, courseID := seedUsers(t, 1)
		if err := repo.Save(ctx, nil, newEnrollment(users[0], courseID)); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := repo.Save(ctx, nil, newEnrollment(users[0], courseID)); !errors.Is(err, domain.ErrAlreadyExists) {
			t.Errorf("Save() duplicate pair error = %v, want ErrAlreadyExists", err)
		}
	})

	t.Run("should commit a whole batch inside one transaction", func(t *testing.T) {
		users, courseID := seedUsers(t, 3)
		batch := make([]*model.Enrollment, 0, len(users))
		for _, u := range users {
			batch = append(batch, newEnrollment(u, courseID))
		}

		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			return repo.SaveBatch(ctx, tx, batch)
		})
		if err != nil {
			t.Fatalf("WithTx(SaveBatch) error = %v", err)
		}

		got, err := repo.ListByUsersAndCourse(ctx, nil, users, courseID)
		if err != nil {
			t.Fatalf("ListByUsersAndCourse() error = %v", err)
		}
		if len(got) != 3 {
			t.Errorf("ListByUsersAndCourse() = %d rows, want 3", len(got))
		}
	})

	t.Run("should roll back the whole batch when one row conflicts", func(t *testing.T) {
		users, courseID := seedUsers(t, 3)
		// users[1] already holds the course, so the batch must die mid-way.
		if err := repo.Save(ctx, nil, newEnrollment(users[1], courseID)); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		batch := []*model.Enrollment{
			newEnrollment(users[0], courseID),
			newEnrollment(users[1], courseID),
			newEnrollment(users[2], courseID),
		}
		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			return repo.SaveBatch(ctx, tx, batch)
		})
		if !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("WithTx(SaveBatch) error = %v, want ErrAlreadyExists", err)
		}

		got, err := repo.ListByUsersAndCourse(ctx, nil, users, courseID)
		if err != nil {
			t.Fatalf("ListByUsersAndCourse() error = %v", err)
		}
		if len(got) != 1 || got[0].UserID != users[1] {
			t.Errorf("after rollback got %d enrollments, want only the pre-existing one", len(got))
		}
	})

	t.Run("should update status and report missing rows", func(t *testing.T) {
		users, courseID := seedUsers(t, 1)
		e := newEnrollment(users[0], courseID)
		if err := repo.Save(ctx, nil, e); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		if err := repo.UpdateStatus(ctx, nil, e.ID, model.EnrollmentStatusInactive); err != nil {
			t.Fatalf("UpdateStatus() error = %v", err)
		}
		got, err := repo.FindByUserAndCourse(ctx, nil, users[0], courseID)
		if err != nil {
			t.Fatalf("FindByUserAndCourse() error = %v", err)
		}
		if got.Status != model.EnrollmentStatusInactive {
			t.Errorf("status = %s, want inactive", got.Status)
		}

		if err := repo.UpdateStatus(ctx, nil, uuid.NewString(), model.EnrollmentStatusActive); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("UpdateStatus() missing row error = %v, want ErrNotFound", err)
		}
	})
}
