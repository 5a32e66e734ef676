package adapter

import (
	"context"
	"time"
)

// InitializeResult is the provider's answer to a charge initialization.
type InitializeResult struct {
	AccessCode       string // provider handle for the charge
	AuthorizationURL string // checkout URL to send the payer to
	Reference        string // echo of our reference
}

// VerifyResult is the provider's answer to a charge verification. Succeeded
// false is a normal business outcome (declined/abandoned), not a transport
// failure; transport failures surface as errors.
type VerifyResult struct {
	Succeeded bool
	RawStatus string // provider status string, kept for diagnostics
	PaidAt    *time.Time
}

// PaymentGateway is the hex port for the external payment provider.
type PaymentGateway interface {
	Name() string

	// InitializeCharge creates a charge on the provider for our reference.
	InitializeCharge(ctx context.Context, payerEmail string, amountMinor int64, currency, reference, callbackURL string, metadata map[string]string) (InitializeResult, error)
	// VerifyCharge reports the outcome of the charge identified by reference.
	VerifyCharge(ctx context.Context, reference string) (VerifyResult, error)
}
