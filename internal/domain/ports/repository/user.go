package repository

import (
	"context"

	"course-commerce/internal/domain/model"
)

type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.User, error)
}

type GroupRepository interface {
	Save(ctx context.Context, tx Tx, g *model.StudyGroup) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.StudyGroup, error)
	// ListMemberIDs resolves group membership to user ids.
	ListMemberIDs(ctx context.Context, tx Tx, groupID string) ([]string, error)
	AddMember(ctx context.Context, tx Tx, groupID, userID string) error
}

type TokenRepository interface {
	Save(ctx context.Context, tx Tx, t *model.ActionToken) error
	// FindUsable returns the newest unconsumed, unexpired token for the
	// subject and purpose, or ErrNotFound.
	FindUsable(ctx context.Context, tx Tx, subjectID string, purpose model.TokenPurpose) (*model.ActionToken, error)
	MarkUsed(ctx context.Context, tx Tx, id string) error
	DeleteExpired(ctx context.Context, tx Tx) (int, error)
}
