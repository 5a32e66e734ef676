package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"course-commerce/internal/domain"
	"course-commerce/internal/domain/model"
	"course-commerce/internal/domain/ports/repository"
	"course-commerce/internal/infra/metrics"
)

// SubscriptionStatusView is the read model returned to callers asking whether
// an organization currently has an entitlement.
type SubscriptionStatusView struct {
	Active    bool
	Plan      string
	PeriodEnd time.Time
}

// SubscriptionUseCase owns organization entitlements derived from settled
// subscription payments.
type SubscriptionUseCase struct {
	subs  repository.SubscriptionRepository
	plans repository.PlanRepository
	log   zerolog.Logger
}

func NewSubscriptionUseCase(subs repository.SubscriptionRepository, plans repository.PlanRepository, logger *zerolog.Logger) *SubscriptionUseCase {
	return &SubscriptionUseCase{
		subs:  subs,
		plans: plans,
		log:   logger.With().Str("component", "SubscriptionUC").Logger(),
	}
}

// Status reports the organization's current entitlement. An organization with
// no usable subscription gets Active=false, not an error.
func (u *SubscriptionUseCase) Status(ctx context.Context, organizationID string) (SubscriptionStatusView, error) {
	s, err := u.subs.FindCurrentByOrganization(ctx, nil, organizationID, time.Now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return SubscriptionStatusView{}, nil
		}
		return SubscriptionStatusView{}, err
	}
	return SubscriptionStatusView{Active: true, Plan: s.Plan, PeriodEnd: s.PeriodEnd}, nil
}

// settleTx activates a plan for the organization as part of a payment
// settlement. An existing current subscription extends the new period from
// its end instead of from now, so a renewal never loses paid time.
func (u *SubscriptionUseCase) settleTx(ctx context.Context, tx repository.Tx, organizationID, planName string) error {
	plan, err := u.plans.FindByName(ctx, tx, planName)
	if err != nil {
		return err
	}

	now := time.Now()
	base := now
	if cur, err := u.subs.FindCurrentByOrganization(ctx, tx, organizationID, now); err == nil {
		if cur.Current(now) {
			base = cur.PeriodEnd
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	s, err := model.NewSubscription(uuid.NewString(), organizationID, plan, now, base)
	if err != nil {
		return err
	}
	if err := u.subs.Save(ctx, tx, s); err != nil {
		return err
	}
	metrics.IncSubscriptionActivated(plan.Name)
	u.log.Info().Str("organization_id", organizationID).Str("plan", plan.Name).Time("period_end", s.PeriodEnd).Msg("subscription activated")
	return nil
}

// FinishExpired marks overdue subscriptions expired; driven by the expiry
// worker.
func (u *SubscriptionUseCase) FinishExpired(ctx context.Context) (int, error) {
	return u.subs.ExpireDue(ctx, nil, time.Now())
}
