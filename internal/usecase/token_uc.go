package usecase

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"course-commerce/internal/domain"
	"course-commerce/internal/domain/model"
	"course-commerce/internal/domain/ports/repository"
	"course-commerce/internal/infra/security"
)

// Token lifetimes per purpose.
var tokenTTL = map[model.TokenPurpose]time.Duration{
	model.TokenPurposePasswordReset: 30 * time.Minute,
	model.TokenPurposeEmailVerify:   24 * time.Hour,
}

// TokenUseCase is the generic single-use, time-bound token flow: issue hands
// the subject an opaque value whose digest we store; consume is one-shot.
type TokenUseCase struct {
	tokens repository.TokenRepository
	source *security.TokenSource
	log    zerolog.Logger
}

func NewTokenUseCase(tokens repository.TokenRepository, source *security.TokenSource, logger *zerolog.Logger) *TokenUseCase {
	return &TokenUseCase{
		tokens: tokens,
		source: source,
		log:    logger.With().Str("component", "TokenUC").Logger(),
	}
}

// Issue creates a token for the subject and purpose and returns the raw value
// exactly once. The store keeps only the digest.
func (u *TokenUseCase) Issue(ctx context.Context, subjectID string, purpose model.TokenPurpose) (string, error) {
	ttl, ok := tokenTTL[purpose]
	if !ok {
		return "", domain.ErrInvalidArgument
	}
	raw, err := u.source.Generate()
	if err != nil {
		return "", err
	}
	now := time.Now()
	t := &model.ActionToken{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		Purpose:   purpose,
		Digest:    digest(raw),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := u.tokens.Save(ctx, nil, t); err != nil {
		return "", err
	}
	return raw, nil
}

// Consume validates and burns a token. Expired and invalid are distinct
// outcomes; success marks the token used so a replay fails.
func (u *TokenUseCase) Consume(ctx context.Context, subjectID string, purpose model.TokenPurpose, raw string) error {
	t, err := u.tokens.FindUsable(ctx, nil, subjectID, purpose)
	if err != nil {
		if err == domain.ErrNotFound {
			return domain.ErrTokenInvalid
		}
		return err
	}
	if !t.Usable(time.Now()) {
		if t.UsedAt != nil {
			return domain.ErrTokenInvalid
		}
		return domain.ErrTokenExpired
	}
	if subtle.ConstantTimeCompare([]byte(t.Digest), []byte(digest(raw))) != 1 {
		return domain.ErrTokenInvalid
	}
	return u.tokens.MarkUsed(ctx, nil, t.ID)
}

// PurgeExpired removes dead tokens; callable from a maintenance job.
func (u *TokenUseCase) PurgeExpired(ctx context.Context) (int, error) {
	return u.tokens.DeleteExpired(ctx, nil)
}

func digest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
