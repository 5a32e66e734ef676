package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"course-commerce/internal/domain"
	"course-commerce/internal/domain/model"
	"course-commerce/internal/domain/ports/adapter"
	"course-commerce/internal/domain/ports/repository"
	"course-commerce/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// VerifyOutcome is the result of a verification call. Settled is true only for
// the invocation that actually transitioned the payment to successful and ran
// the settlement side effect; replays return the stored record with Settled
// false.
type VerifyOutcome struct {
	Payment *model.Payment
	Settled bool
}

type PaymentUseCase interface {
	// Initialize validates the payer and the intent's target, creates a charge
	// on the provider, and persists a pending payment. All-or-nothing: a
	// failed provider call leaves no local record behind.
	Initialize(ctx context.Context, payerID string, intent model.PaymentIntent) (*model.Payment, error)
	// Verify drives the payment to its terminal status based on the provider's
	// answer and applies the settlement side effect exactly once.
	Verify(ctx context.Context, reference string) (VerifyOutcome, error)
}

type paymentUC struct {
	payments    repository.PaymentRepository
	users       repository.UserRepository
	courses     repository.CourseRepository
	plans       repository.PlanRepository
	enrollments *EnrollmentUseCase
	subs        *SubscriptionUseCase
	gateway     adapter.PaymentGateway
	tm          repository.TransactionManager
	callbackURL string
	log         zerolog.Logger
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	users repository.UserRepository,
	courses repository.CourseRepository,
	plans repository.PlanRepository,
	enrollments *EnrollmentUseCase,
	subs *SubscriptionUseCase,
	gateway adapter.PaymentGateway,
	tm repository.TransactionManager,
	callbackURL string,
	logger *zerolog.Logger,
) *paymentUC {
	return &paymentUC{
		payments:    payments,
		users:       users,
		courses:     courses,
		plans:       plans,
		enrollments: enrollments,
		subs:        subs,
		gateway:     gateway,
		tm:          tm,
		callbackURL: callbackURL,
		log:         logger.With().Str("component", "PaymentUC").Logger(),
	}
}

// price resolves the amount and currency a given intent must charge.
func (u *paymentUC) price(ctx context.Context, intent model.PaymentIntent) (int64, string, error) {
	switch v := intent.(type) {
	case model.CoursePurchase:
		course, err := u.courses.FindByID(ctx, nil, v.CourseID)
		if err != nil {
			return 0, "", err
		}
		return course.PriceMinor, course.Currency, nil
	case model.SubscriptionPurchase:
		plan, err := u.plans.FindByName(ctx, nil, v.Plan)
		if err != nil {
			return 0, "", err
		}
		return plan.PriceMinor, plan.Currency, nil
	default:
		return 0, "", domain.ErrInvalidArgument
	}
}

func (u *paymentUC) Initialize(ctx context.Context, payerID string, intent model.PaymentIntent) (*model.Payment, error) {
	payer, err := u.users.FindByID(ctx, nil, payerID)
	if err != nil {
		return nil, err
	}
	amount, currency, err := u.price(ctx, intent)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: intent target is not purchasable", domain.ErrInvalidState)
	}

	reference := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()

	meta, err := model.EncodeIntent(intent)
	if err != nil {
		return nil, err
	}
	res, err := u.gateway.InitializeCharge(ctx, payer.Email, amount, currency, reference, u.callbackURL, map[string]string{
		"intent": string(meta),
	})
	if err != nil {
		// No local record: initialization is all-or-nothing.
		u.log.Warn().Err(err).Str("reference", reference).Msg("gateway initialize failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	now := time.Now()
	p := &model.Payment{
		ID:               uuid.NewString(),
		UserID:           payer.ID,
		Amount:           amount,
		Currency:         currency,
		Reference:        reference,
		AccessCode:       res.AccessCode,
		AuthorizationURL: res.AuthorizationURL,
		Status:           model.PaymentStatusPending,
		Intent:           intent,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := u.payments.Save(ctx, nil, p); err != nil {
		return nil, err
	}
	metrics.IncPayment(string(model.PaymentStatusPending))
	u.log.Info().Str("payment_id", p.ID).Str("reference", reference).Int64("amount", amount).Msg("payment initialized")
	return p, nil
}

func (u *paymentUC) Verify(ctx context.Context, reference string) (VerifyOutcome, error) {
	p, err := u.payments.FindByReference(ctx, nil, reference)
	if err != nil {
		return VerifyOutcome{}, err
	}
	// Replay of a settled payment: identical answer, no side effects, and no
	// pointless provider round trip.
	if p.Status.Terminal() {
		return VerifyOutcome{Payment: p}, nil
	}

	// Provider call stays outside the transaction; no lock is held across it.
	start := time.Now()
	res, err := u.gateway.VerifyCharge(ctx, reference)
	metrics.ObserveVerifyLatency(u.gateway.Name(), err == nil, float64(time.Since(start).Milliseconds()))
	if err != nil {
		return VerifyOutcome{}, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	outcome := VerifyOutcome{}
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		cur, err := u.payments.FindByReference(ctx, tx, reference)
		if err != nil {
			return err
		}
		if cur.Status.Terminal() {
			// A concurrent verification won the race; this call is a replay.
			outcome.Payment = cur
			return nil
		}

		if !res.Succeeded {
			swapped, err := u.payments.UpdateStatusIfPending(ctx, tx, cur.ID, model.PaymentStatusFailed, nil)
			if err != nil {
				return err
			}
			if swapped {
				metrics.IncPayment(string(model.PaymentStatusFailed))
			}
			cur.Status = model.PaymentStatusFailed
			outcome.Payment = cur
			return nil
		}

		paidAt := time.Now()
		if res.PaidAt != nil {
			paidAt = *res.PaidAt
		}
		swapped, err := u.payments.UpdateStatusIfPending(ctx, tx, cur.ID, model.PaymentStatusSuccessful, &paidAt)
		if err != nil {
			return err
		}
		if !swapped {
			// Settled between our read and the update; treat as replay.
			settled, err := u.payments.FindByReference(ctx, tx, reference)
			if err != nil {
				return err
			}
			outcome.Payment = settled
			return nil
		}

		if err := u.settle(ctx, tx, cur); err != nil {
			return err // rolls back the transition together with the side effect
		}
		cur.Status = model.PaymentStatusSuccessful
		cur.PaidAt = &paidAt
		outcome.Payment = cur
		outcome.Settled = true
		return nil
	})
	if err != nil {
		return VerifyOutcome{}, err
	}
	if outcome.Settled {
		metrics.IncPayment(string(model.PaymentStatusSuccessful))
		metrics.AddPaymentRevenue(outcome.Payment.Currency, outcome.Payment.Amount)
		u.log.Info().Str("reference", reference).Msg("payment settled")
	}
	return outcome, nil
}

// settle applies the side effect a successful payment unlocks. Runs inside
// the same transaction as the status transition, so a failed side effect
// rolls the transition back.
func (u *paymentUC) settle(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	switch v := p.Intent.(type) {
	case model.CoursePurchase:
		_, _, err := u.enrollments.enrollTx(ctx, tx, p.UserID, v.CourseID)
		return err
	case model.SubscriptionPurchase:
		return u.subs.settleTx(ctx, tx, v.OrganizationID, v.Plan)
	default:
		return fmt.Errorf("%w: payment %s has no usable intent", domain.ErrInvalidState, p.ID)
	}
}
