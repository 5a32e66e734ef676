package model

import (
	"time"

	"course-commerce/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// Subscription represents an organization's paid-plan entitlement. The current
// subscription for an organization is the most recently created record that is
// active with a period end in the future.
type Subscription struct {
	ID             string // UUID
	OrganizationID string // UUID
	Plan           string // plan name, references plans.name
	Status         SubscriptionStatus
	PeriodEnd      time.Time
	CreatedAt      time.Time
}

// Current reports whether the subscription grants access at the given instant.
func (s *Subscription) Current(at time.Time) bool {
	return s.Status == SubscriptionStatusActive && s.PeriodEnd.After(at)
}

// Plan is a purchasable subscription tier for organizations.
type Plan struct {
	Name       string // unique, e.g. "team", "campus"
	PriceMinor int64  // minor currency units
	Currency   string
	PeriodDays int
	Seats      int // informational seat allowance
	CreatedAt  time.Time
}

// NewSubscription builds an active subscription whose paid period runs from
// `from` until one plan period later. Renewals pass the previous period end as
// `from` so no paid time is lost.
func NewSubscription(id, organizationID string, plan *Plan, now, from time.Time) (*Subscription, error) {
	if id == "" || organizationID == "" || plan == nil {
		return nil, domain.ErrInvalidArgument
	}
	return &Subscription{
		ID:             id,
		OrganizationID: organizationID,
		Plan:           plan.Name,
		Status:         SubscriptionStatusActive,
		PeriodEnd:      from.Add(time.Duration(plan.PeriodDays) * 24 * time.Hour),
		CreatedAt:      now,
	}, nil
}
