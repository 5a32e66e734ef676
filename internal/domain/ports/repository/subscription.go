package repository

import (
	"context"
	"time"

	"course-commerce/internal/domain/model"
)

type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Subscription) error
	// FindCurrentByOrganization returns the most recently created subscription
	// that is active with a period end after now, or ErrNotFound.
	FindCurrentByOrganization(ctx context.Context, tx Tx, organizationID string, now time.Time) (*model.Subscription, error)
	// ExpireDue marks active subscriptions whose period end has passed as
	// expired and returns how many rows changed.
	ExpireDue(ctx context.Context, tx Tx, now time.Time) (int, error)
}

type PlanRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Plan) error
	FindByName(ctx context.Context, tx Tx, name string) (*model.Plan, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Plan, error)
}
