package model

import (
	"encoding/json"
	"fmt"
	"time"

	"course-commerce/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"    // charge initialized on provider side; awaiting verification
	PaymentStatusSuccessful PaymentStatus = "successful" // verified OK at provider; settlement applied
	PaymentStatusFailed     PaymentStatus = "failed"     // provider declined or verification reported failure
)

// Terminal reports whether the status can never change again.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusSuccessful || s == PaymentStatusFailed
}

// PaymentIntent is the sealed payload describing what a payment unlocks once
// settled. Exactly one concrete type exists per settlement side effect so the
// dispatch in the payment use case stays exhaustive.
type PaymentIntent interface {
	intentKind() string
}

// CoursePurchase settles into a single enrollment.
type CoursePurchase struct {
	CourseID string
}

// SubscriptionPurchase settles into an organization subscription.
type SubscriptionPurchase struct {
	OrganizationID string
	Plan           string
}

func (CoursePurchase) intentKind() string       { return "course" }
func (SubscriptionPurchase) intentKind() string { return "subscription" }

// intentEnvelope is the JSONB wire form of a PaymentIntent.
type intentEnvelope struct {
	Kind           string `json:"kind"`
	CourseID       string `json:"course_id,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
	Plan           string `json:"plan,omitempty"`
}

// EncodeIntent serializes an intent for storage.
func EncodeIntent(in PaymentIntent) ([]byte, error) {
	switch v := in.(type) {
	case CoursePurchase:
		return json.Marshal(intentEnvelope{Kind: v.intentKind(), CourseID: v.CourseID})
	case SubscriptionPurchase:
		return json.Marshal(intentEnvelope{Kind: v.intentKind(), OrganizationID: v.OrganizationID, Plan: v.Plan})
	case nil:
		return nil, domain.ErrInvalidArgument
	default:
		return nil, fmt.Errorf("%w: unknown intent type %T", domain.ErrInvalidArgument, in)
	}
}

// DecodeIntent restores an intent from its stored form.
func DecodeIntent(b []byte) (PaymentIntent, error) {
	var env intentEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	switch env.Kind {
	case "course":
		if env.CourseID == "" {
			return nil, domain.ErrInvalidArgument
		}
		return CoursePurchase{CourseID: env.CourseID}, nil
	case "subscription":
		if env.OrganizationID == "" || env.Plan == "" {
			return nil, domain.ErrInvalidArgument
		}
		return SubscriptionPurchase{OrganizationID: env.OrganizationID, Plan: env.Plan}, nil
	default:
		return nil, fmt.Errorf("%w: unknown intent kind %q", domain.ErrInvalidArgument, env.Kind)
	}
}

// Payment records one attempt to collect money through the external gateway.
// Reference is generated by us before the provider call and is the idempotency
// key for verification; it never changes once set.
type Payment struct {
	ID               string // UUID
	UserID           string // UUID of the payer
	Amount           int64  // minor currency units (kobo for NGN)
	Currency         string // ISO code, e.g. "NGN"
	Reference        string // our idempotency key (ULID)
	AccessCode       string // provider handle returned at initialization
	AuthorizationURL string // provider checkout URL
	Status           PaymentStatus
	Intent           PaymentIntent
	CreatedAt        time.Time
	UpdatedAt        time.Time
	PaidAt           *time.Time // set when successful
}
