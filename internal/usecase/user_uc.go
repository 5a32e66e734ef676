package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"course-commerce/internal/domain"
	"course-commerce/internal/domain/model"
	"course-commerce/internal/domain/ports/adapter"
	"course-commerce/internal/domain/ports/repository"
)

// UserUseCase covers account registration and credential checks. Password
// handling goes through the hasher port; raw secrets are never stored.
type UserUseCase struct {
	users  repository.UserRepository
	hasher adapter.PasswordHasher
	tokens *TokenUseCase
	log    zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, hasher adapter.PasswordHasher, tokens *TokenUseCase, logger *zerolog.Logger) *UserUseCase {
	return &UserUseCase{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		log:    logger.With().Str("component", "UserUC").Logger(),
	}
}

func (u *UserUseCase) Register(ctx context.Context, email, name, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidArgument)
	}
	if _, err := u.users.FindByEmail(ctx, nil, email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", domain.ErrAlreadyExists)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	digest, err := u.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		ID:             uuid.NewString(),
		Email:          email,
		Name:           name,
		PasswordDigest: digest,
		CreatedAt:      time.Now(),
	}
	if err := u.users.Save(ctx, nil, user); err != nil {
		return nil, err
	}
	u.log.Info().Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

// Authenticate returns the user when the credentials match. Wrong email and
// wrong password are indistinguishable to the caller.
func (u *UserUseCase) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := u.users.FindByEmail(ctx, nil, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: bad credentials", domain.ErrInvalidArgument)
		}
		return nil, err
	}
	if !u.hasher.Verify(password, user.PasswordDigest) {
		return nil, fmt.Errorf("%w: bad credentials", domain.ErrInvalidArgument)
	}
	return user, nil
}

// RequestPasswordReset issues a single-use reset token for the account. For a
// missing account it reports success without issuing anything, so the endpoint
// does not leak which emails exist.
func (u *UserUseCase) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := u.users.FindByEmail(ctx, nil, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return u.tokens.Issue(ctx, user.ID, model.TokenPurposePasswordReset)
}

// ResetPassword consumes a reset token and replaces the password digest.
func (u *UserUseCase) ResetPassword(ctx context.Context, userID, token, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: password is required", domain.ErrInvalidArgument)
	}
	if err := u.tokens.Consume(ctx, userID, model.TokenPurposePasswordReset, token); err != nil {
		return err
	}
	user, err := u.users.FindByID(ctx, nil, userID)
	if err != nil {
		return err
	}
	digest, err := u.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordDigest = digest
	return u.users.Save(ctx, nil, user)
}
