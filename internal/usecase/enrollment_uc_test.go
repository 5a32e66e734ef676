//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"course-commerce/internal/domain"
	"course-commerce/internal/domain/model"
	"course-commerce/internal/usecase"
)

type enrollmentFixture struct {
	enrolls *memEnrollmentRepo
	courses *memCourseRepo
	groups  *memGroupRepo
	uc      *usecase.EnrollmentUseCase
}

func newEnrollmentFixture(t *testing.T) *enrollmentFixture {
	t.Helper()
	f := &enrollmentFixture{
		enrolls: newMemEnrollmentRepo(),
		courses: newMemCourseRepo(),
		groups:  newMemGroupRepo(),
	}
	f.uc = usecase.NewEnrollmentUseCase(f.enrolls, f.courses, f.groups, &mockTxManager{}, newLogger())
	if err := f.courses.Save(context.Background(), nil, &model.Course{ID: "course-1", Title: "Algebra", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("seed course: %v", err)
	}
	return f
}

func (f *enrollmentFixture) seedGroup(t *testing.T, memberIDs ...string) {
	t.Helper()
	ctx := context.Background()
	if err := f.groups.Save(ctx, nil, &model.StudyGroup{ID: "group-1", OrganizationID: "org-1", Name: "Cohort A"}); err != nil {
		t.Fatalf("seed group: %v", err)
	}
	for _, id := range memberIDs {
		if err := f.groups.AddMember(ctx, nil, "group-1", id); err != nil {
			t.Fatalf("seed member: %v", err)
		}
	}
}

func TestEnroll(t *testing.T) {
	ctx := context.Background()

	t.Run("first enrollment is created active", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		e, created, err := f.uc.Enroll(ctx, "user-1", "course-1", false)
		if err != nil {
			t.Fatalf("Enroll() error = %v", err)
		}
		if !created {
			t.Error("created = false, want true")
		}
		if e.Status != model.EnrollmentStatusActive {
			t.Errorf("status = %q, want active", e.Status)
		}
	})

	t.Run("re-enrollment returns the existing record", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		first, _, err := f.uc.Enroll(ctx, "user-1", "course-1", false)
		if err != nil {
			t.Fatalf("first Enroll() error = %v", err)
		}
		second, created, err := f.uc.Enroll(ctx, "user-1", "course-1", false)
		if err != nil {
			t.Fatalf("second Enroll() error = %v", err)
		}
		if created {
			t.Error("created = true on re-enrollment")
		}
		if second.ID != first.ID {
			t.Errorf("returned id = %q, want existing %q", second.ID, first.ID)
		}
		if len(f.enrolls.byID) != 1 {
			t.Errorf("stored enrollments = %d, want 1", len(f.enrolls.byID))
		}
	})

	t.Run("strict mode rejects duplicates", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		if _, _, err := f.uc.Enroll(ctx, "user-1", "course-1", false); err != nil {
			t.Fatalf("first Enroll() error = %v", err)
		}
		_, _, err := f.uc.Enroll(ctx, "user-1", "course-1", true)
		if !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("strict Enroll() error = %v, want ErrAlreadyExists", err)
		}
	})

	t.Run("unknown course", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		_, _, err := f.uc.Enroll(ctx, "user-1", "nope", false)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("Enroll() error = %v, want ErrNotFound", err)
		}
	})
}

func TestEnrollGroup(t *testing.T) {
	ctx := context.Background()

	t.Run("enrolls only the not-yet-enrolled members", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		f.seedGroup(t, "user-1", "user-2", "user-3")
		if _, _, err := f.uc.Enroll(ctx, "user-2", "course-1", false); err != nil {
			t.Fatalf("pre-enroll: %v", err)
		}

		res, err := f.uc.EnrollGroup(ctx, "group-1", "course-1")
		if err != nil {
			t.Fatalf("EnrollGroup() error = %v", err)
		}
		if res.EnrolledCount != 2 {
			t.Errorf("EnrolledCount = %d, want 2", res.EnrolledCount)
		}
		if res.AlreadyEnrolledCount != 1 {
			t.Errorf("AlreadyEnrolledCount = %d, want 1", res.AlreadyEnrolledCount)
		}
		for _, id := range []string{"user-1", "user-2", "user-3"} {
			if _, err := f.enrolls.FindByUserAndCourse(ctx, nil, id, "course-1"); err != nil {
				t.Errorf("member %s not enrolled: %v", id, err)
			}
		}
	})

	t.Run("empty group is invalid state", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		f.seedGroup(t)
		_, err := f.uc.EnrollGroup(ctx, "group-1", "course-1")
		if !errors.Is(err, domain.ErrInvalidState) {
			t.Fatalf("EnrollGroup() error = %v, want ErrInvalidState", err)
		}
	})

	t.Run("fully enrolled group is nothing to do", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		f.seedGroup(t, "user-1", "user-2")
		for _, id := range []string{"user-1", "user-2"} {
			if _, _, err := f.uc.Enroll(ctx, id, "course-1", false); err != nil {
				t.Fatalf("pre-enroll %s: %v", id, err)
			}
		}
		res, err := f.uc.EnrollGroup(ctx, "group-1", "course-1")
		if !errors.Is(err, domain.ErrNothingToDo) {
			t.Fatalf("EnrollGroup() error = %v, want ErrNothingToDo", err)
		}
		if res == nil || res.AlreadyEnrolledCount != 2 || res.EnrolledCount != 0 {
			t.Fatalf("EnrollGroup() result = %+v, want already_enrolled 2 enrolled 0", res)
		}
	})

	t.Run("batch failure enrolls nobody", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		f.seedGroup(t, "user-1", "user-2", "user-3")
		f.enrolls.saveErr = errors.New("deadlock detected")

		_, err := f.uc.EnrollGroup(ctx, "group-1", "course-1")
		if err == nil {
			t.Fatal("EnrollGroup() error = nil, want batch failure")
		}
		if len(f.enrolls.byID) != 0 {
			t.Errorf("partial batch persisted %d enrollments, want 0", len(f.enrolls.byID))
		}
	})

	t.Run("unknown group", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		_, err := f.uc.EnrollGroup(ctx, "nope", "course-1")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("EnrollGroup() error = %v, want ErrNotFound", err)
		}
	})
}
