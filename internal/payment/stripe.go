package payment

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeGateway creates payments as Stripe PaymentIntents.
type StripeGateway struct {
	api    *client.API
	logger *slog.Logger
}

// NewStripeGateway creates a gateway using the given secret key.
func NewStripeGateway(apiKey string, logger *slog.Logger) *StripeGateway {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeGateway{
		api:    api,
		logger: logger.With("component", "payment.stripe"),
	}
}

// CreatePayment creates a PaymentIntent for the request. The split and
// private flags travel as metadata so downstream settlement can honor
// them.
func (g *StripeGateway) CreatePayment(ctx context.Context, req Request) (*Payment, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(req.AmountMinor),
		Currency:    stripe.String(strings.ToLower(req.Currency)),
		Description: stripe.String(req.Description),
	}
	params.Context = ctx

	for k, v := range req.Metadata {
		if v != "" {
			params.AddMetadata(k, v)
		}
	}
	params.AddMetadata("private", strconv.FormatBool(req.Private))
	if req.Split {
		params.AddMetadata("splitPayment", "true")
	}
	if req.MerchantNote != "" {
		params.AddMetadata("merchantNote", req.MerchantNote)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		g.logger.Warn("payment intent creation failed",
			"amount_minor", req.AmountMinor,
			"currency", req.Currency,
			"error", err,
		)
		return nil, &GatewayError{Err: err}
	}

	g.logger.Info("payment intent created",
		"payment_id", pi.ID,
		"amount_minor", pi.Amount,
		"status", string(pi.Status),
	)

	return &Payment{
		ID:           pi.ID,
		Status:       string(pi.Status),
		AmountMinor:  pi.Amount,
		Currency:     string(pi.Currency),
		ClientSecret: pi.ClientSecret,
	}, nil
}
