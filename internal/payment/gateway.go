// Package payment defines the payment-gateway collaborator interface and
// its Stripe-backed implementation.
package payment

import (
	"context"
	"errors"
)

// ErrNotConfigured indicates no gateway credentials were provided.
var ErrNotConfigured = errors.New("payment gateway not configured")

// Request describes one payment to create. Amounts are in minor units
// (cents) to keep money arithmetic exact.
type Request struct {
	AmountMinor  int64
	Currency     string
	Description  string
	MerchantNote string
	Private      bool
	Split        bool
	Metadata     map[string]string
}

// Payment is the gateway's response, returned verbatim to the caller
// inside the dispatch result.
type Payment struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	AmountMinor  int64  `json:"amountMinor"`
	Currency     string `json:"currency"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

// Gateway creates payments with an external provider. Calls are
// at-most-once: the engine performs no retries on top of this.
type Gateway interface {
	CreatePayment(ctx context.Context, req Request) (*Payment, error)
}

// GatewayError wraps a provider failure. Gateway failures are
// user-visible (the requested action could not complete), so they
// propagate out of the dispatch rather than degrading silently.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string {
	return "payment gateway: " + e.Err.Error()
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Disabled is a Gateway that rejects every payment. Used when no
// provider credentials are configured.
type Disabled struct{}

// CreatePayment always fails with ErrNotConfigured.
func (Disabled) CreatePayment(ctx context.Context, req Request) (*Payment, error) {
	return nil, &GatewayError{Err: ErrNotConfigured}
}
