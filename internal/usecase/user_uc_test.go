//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"course-commerce/internal/domain"
	"course-commerce/internal/infra/security"
	"course-commerce/internal/usecase"
)

func newUserFixture() (*memUserRepo, *usecase.UserUseCase) {
	users := newMemUserRepo()
	log := newLogger()
	tokenUC := usecase.NewTokenUseCase(newMemTokenRepo(), security.NewTokenSource(32), log)
	return users, usecase.NewUserUseCase(users, fakeHasher{}, tokenUC, log)
}

func TestUserRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("stores a digest and normalizes the email", func(t *testing.T) {
		users, uc := newUserFixture()
		u, err := uc.Register(ctx, "  Learner@Example.COM ", "Learner", "s3cret")
		if err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		if u.Email != "learner@example.com" {
			t.Errorf("email = %q, want normalized lowercase", u.Email)
		}
		if u.PasswordDigest == "s3cret" || u.PasswordDigest == "" {
			t.Errorf("password digest = %q, raw secret must not be stored", u.PasswordDigest)
		}
		if _, err := users.FindByEmail(ctx, nil, "learner@example.com"); err != nil {
			t.Errorf("registered user not stored: %v", err)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, uc := newUserFixture()
		if _, err := uc.Register(ctx, "learner@example.com", "A", "pw"); err != nil {
			t.Fatalf("first Register() error = %v", err)
		}
		_, err := uc.Register(ctx, "LEARNER@example.com", "B", "pw")
		if !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("Register() error = %v, want ErrAlreadyExists", err)
		}
	})

	t.Run("email and password are required", func(t *testing.T) {
		_, uc := newUserFixture()
		if _, err := uc.Register(ctx, "", "A", "pw"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("empty email error = %v, want ErrInvalidArgument", err)
		}
		if _, err := uc.Register(ctx, "a@b.c", "A", ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("empty password error = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestUserAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		_, uc := newUserFixture()
		if _, err := uc.Register(ctx, "learner@example.com", "A", "s3cret"); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		u, err := uc.Authenticate(ctx, "Learner@Example.com", "s3cret")
		if err != nil {
			t.Fatalf("Authenticate() error = %v", err)
		}
		if u.Email != "learner@example.com" {
			t.Errorf("email = %q", u.Email)
		}
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		_, uc := newUserFixture()
		if _, err := uc.Register(ctx, "learner@example.com", "A", "s3cret"); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		_, errWrongPw := uc.Authenticate(ctx, "learner@example.com", "nope")
		_, errNoUser := uc.Authenticate(ctx, "ghost@example.com", "nope")
		if !errors.Is(errWrongPw, domain.ErrInvalidArgument) || !errors.Is(errNoUser, domain.ErrInvalidArgument) {
			t.Fatalf("errors = %v / %v, want both ErrInvalidArgument", errWrongPw, errNoUser)
		}
		if errWrongPw.Error() != errNoUser.Error() {
			t.Errorf("error texts differ: %q vs %q", errWrongPw, errNoUser)
		}
	})
}

func TestUserPasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("full reset flow replaces the credential", func(t *testing.T) {
		_, uc := newUserFixture()
		u, err := uc.Register(ctx, "learner@example.com", "A", "old-pw")
		if err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		raw, err := uc.RequestPasswordReset(ctx, "learner@example.com")
		if err != nil {
			t.Fatalf("RequestPasswordReset() error = %v", err)
		}
		if raw == "" {
			t.Fatal("reset token is empty for an existing account")
		}
		if err := uc.ResetPassword(ctx, u.ID, raw, "new-pw"); err != nil {
			t.Fatalf("ResetPassword() error = %v", err)
		}
		if _, err := uc.Authenticate(ctx, "learner@example.com", "new-pw"); err != nil {
			t.Errorf("new password rejected: %v", err)
		}
		if _, err := uc.Authenticate(ctx, "learner@example.com", "old-pw"); err == nil {
			t.Error("old password still accepted")
		}
	})

	t.Run("request for unknown email does not leak existence", func(t *testing.T) {
		_, uc := newUserFixture()
		raw, err := uc.RequestPasswordReset(ctx, "ghost@example.com")
		if err != nil {
			t.Fatalf("RequestPasswordReset() error = %v, must not fail for unknown email", err)
		}
		if raw != "" {
			t.Errorf("token issued for unknown email")
		}
	})

	t.Run("token is single use", func(t *testing.T) {
		_, uc := newUserFixture()
		u, err := uc.Register(ctx, "learner@example.com", "A", "old-pw")
		if err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		raw, err := uc.RequestPasswordReset(ctx, "learner@example.com")
		if err != nil {
			t.Fatalf("RequestPasswordReset() error = %v", err)
		}
		if err := uc.ResetPassword(ctx, u.ID, raw, "new-pw"); err != nil {
			t.Fatalf("ResetPassword() error = %v", err)
		}
		err = uc.ResetPassword(ctx, u.ID, raw, "third-pw")
		if !errors.Is(err, domain.ErrTokenInvalid) {
			t.Fatalf("replayed ResetPassword() error = %v, want ErrTokenInvalid", err)
		}
	})

	t.Run("empty new password", func(t *testing.T) {
		_, uc := newUserFixture()
		err := uc.ResetPassword(ctx, "user-1", "token", "")
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("ResetPassword() error = %v, want ErrInvalidArgument", err)
		}
	})
}
