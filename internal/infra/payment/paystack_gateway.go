package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"course-commerce/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.PaymentGateway = (*PaystackGateway)(nil)

// PaystackGateway implements the gateway port against Paystack's transaction
// API using direct HTTP calls. All calls are bounded by the client timeout;
// a timeout surfaces as a transport error, never as a silent pending state.
type PaystackGateway struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

func NewPaystackGateway(secretKey string, timeout time.Duration) *PaystackGateway {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &PaystackGateway{
		secretKey: secretKey,
		baseURL:   "https://api.paystack.co",
		client:    &http.Client{Timeout: timeout},
	}
}

func (g *PaystackGateway) Name() string { return "paystack" }

// SetBaseURL overrides the provider endpoint. Intended for sandbox and test
// environments.
func (g *PaystackGateway) SetBaseURL(u string) { g.baseURL = u }

// paystackInitResponse is the provider answer to transaction/initialize.
type paystackInitResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// paystackVerifyResponse is the provider answer to transaction/verify.
type paystackVerifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status string     `json:"status"` // "success" | "failed" | "abandoned" | ...
		Amount int64      `json:"amount"`
		PaidAt *time.Time `json:"paid_at"`
	} `json:"data"`
}

func (g *PaystackGateway) InitializeCharge(ctx context.Context, payerEmail string, amountMinor int64, currency, reference, callbackURL string, metadata map[string]string) (adapter.InitializeResult, error) {
	body := map[string]interface{}{
		"email":     payerEmail,
		"amount":    amountMinor,
		"currency":  currency,
		"reference": reference,
	}
	if callbackURL != "" {
		body["callback_url"] = callbackURL
	}
	if len(metadata) > 0 {
		body["metadata"] = metadata
	}

	var out paystackInitResponse
	if err := g.post(ctx, "/transaction/initialize", body, &out); err != nil {
		return adapter.InitializeResult{}, err
	}
	if !out.Status {
		return adapter.InitializeResult{}, fmt.Errorf("paystack initialize rejected: %s", out.Message)
	}
	return adapter.InitializeResult{
		AccessCode:       out.Data.AccessCode,
		AuthorizationURL: out.Data.AuthorizationURL,
		Reference:        out.Data.Reference,
	}, nil
}

func (g *PaystackGateway) VerifyCharge(ctx context.Context, reference string) (adapter.VerifyResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return adapter.VerifyResult{}, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return adapter.VerifyResult{}, fmt.Errorf("verify request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return adapter.VerifyResult{}, fmt.Errorf("read verify response: %w", err)
	}
	var out paystackVerifyResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return adapter.VerifyResult{}, fmt.Errorf("unmarshal verify response: %w, body: %s", err, string(raw))
	}
	if !out.Status {
		// The provider could not locate or process the charge; this is a
		// transport-level failure, not a declined payment.
		return adapter.VerifyResult{}, fmt.Errorf("paystack verify rejected: %s", out.Message)
	}
	return adapter.VerifyResult{
		Succeeded: out.Data.Status == "success",
		RawStatus: out.Data.Status,
		PaidAt:    out.Data.PaidAt,
	}, nil
}

func (g *PaystackGateway) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal response: %w, body: %s", err, string(raw))
	}
	return nil
}
