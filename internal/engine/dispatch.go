// Package engine composes the deep-link pipeline: parse, validate,
// rate-limit, track, document, dispatch, record.
package engine

import (
	"context"
	"log/slog"
	"math"

	"github.com/cliplink/cliplink/internal/deeplink"
	"github.com/cliplink/cliplink/internal/model"
	"github.com/cliplink/cliplink/internal/payment"
)

// paymentCurrency is the only currency the app charges in.
const paymentCurrency = "USD"

// Dispatcher routes a validated deep link to its action handler.
// Payment and tip handlers call the payment gateway; everything else
// resolves locally.
type Dispatcher struct {
	gateway             payment.Gateway
	defaultServiceMinor int64
	defaultTipPercent   float64
	logger              *slog.Logger
}

// NewDispatcher creates a dispatcher. defaultServiceMinor is the
// fallback service price in minor units used when a tip percentage has
// no contextual amount to apply to.
func NewDispatcher(gateway payment.Gateway, defaultServiceMinor int64, defaultTipPercent float64, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		gateway:             gateway,
		defaultServiceMinor: defaultServiceMinor,
		defaultTipPercent:   defaultTipPercent,
		logger:              logger.With("component", "engine.dispatcher"),
	}
}

// Dispatch selects exactly one handler for the link's action. params is
// the typed parameter set produced by validation; it is nil for
// navigation-only actions.
func (d *Dispatcher) Dispatch(ctx context.Context, dl *model.DeepLink, params model.ActionParams) (*model.Result, error) {
	switch dl.Action {
	case model.ActionPayment:
		return d.handlePayment(ctx, params.(*model.PaymentParams))
	case model.ActionBooking:
		return d.handleBooking(params.(*model.BookingParams))
	case model.ActionTip:
		return d.handleTip(ctx, params.(*model.TipParams))
	case model.ActionShop:
		return d.handleNavigation(dl, model.ActionShop, "shop")
	case model.ActionBarber:
		return d.handleNavigation(dl, model.ActionBarber, "barber")
	case model.ActionReview:
		return d.handleReview(dl)
	case model.ActionPromotions:
		return d.handlePromotions(dl)
	case model.ActionProfile:
		return d.handleProfile(dl)
	default:
		// Unreachable given the parser's closed action enum.
		return nil, &deeplink.HandlerError{Action: dl.Action, Reason: "unsupported action"}
	}
}

// handlePayment creates a payment when an amount is present, otherwise
// resolves to a prompt so the app can ask for one.
func (d *Dispatcher) handlePayment(ctx context.Context, p *model.PaymentParams) (*model.Result, error) {
	if p.AmountMinor == nil {
		return &model.Result{
			Type:   model.ActionPayment,
			Action: model.ResultPrompt,
			Data: map[string]any{
				"shop":            p.Shop,
				"barber":          p.Barber,
				"service":         p.Service,
				"suggestedAmount": model.FormatMinor(d.defaultServiceMinor),
			},
			Params: p,
		}, nil
	}

	pay, err := d.createPayment(ctx, *p.AmountMinor, p.Service, p.Barber, p.Shop, p.Appointment, p.Private, p.Split)
	if err != nil {
		return nil, err
	}
	return &model.Result{Type: model.ActionPayment, Action: model.ResultCreated, Data: pay, Params: p}, nil
}

// handleBooking echoes the validated fields. Booking persistence is an
// external collaborator's job, not this engine's.
func (d *Dispatcher) handleBooking(p *model.BookingParams) (*model.Result, error) {
	return &model.Result{Type: model.ActionBooking, Action: model.ResultInitiated, Data: p, Params: p}, nil
}

// handleTip resolves the effective tip amount: an explicit amount takes
// precedence; a percentage applies to the default service price; with
// neither (or a zero amount) the result is a prompt.
func (d *Dispatcher) handleTip(ctx context.Context, p *model.TipParams) (*model.Result, error) {
	var minor int64
	switch {
	case p.AmountMinor != nil:
		minor = *p.AmountMinor
	case p.Percentage != nil:
		minor = percentOf(d.defaultServiceMinor, *p.Percentage)
	}

	if minor <= 0 {
		return &model.Result{
			Type:   model.ActionTip,
			Action: model.ResultPrompt,
			Data: map[string]any{
				"barber":          p.Barber,
				"suggestedAmount": model.FormatMinor(percentOf(d.defaultServiceMinor, d.defaultTipPercent)),
				"percentage":      d.defaultTipPercent,
			},
			Params: p,
		}, nil
	}

	pay, err := d.createPayment(ctx, minor, "", p.Barber, p.Shop, p.Appointment, true, false)
	if err != nil {
		return nil, err
	}
	return &model.Result{Type: model.ActionTip, Action: model.ResultCreated, Data: pay, Params: p}, nil
}

// handleNavigation serves the shop and barber actions, which require
// their id parameter.
func (d *Dispatcher) handleNavigation(dl *model.DeepLink, action model.Action, field string) (*model.Result, error) {
	if !dl.Params.Has(field) {
		return nil, &deeplink.HandlerError{Action: action, Reason: "missing required parameter " + field}
	}
	id, err := deeplink.ValidateID(field, dl.Params.Get(field))
	if err != nil {
		return nil, err
	}
	return &model.Result{
		Type:   action,
		Action: model.ResultNavigate,
		Data:   map[string]any{"id": id, "url": "/" + field + "/" + id},
	}, nil
}

func (d *Dispatcher) handleReview(dl *model.DeepLink) (*model.Result, error) {
	data := map[string]any{"url": "/review"}
	if dl.Params.Has("appointment") {
		appointment, err := deeplink.ValidateID("appointment", dl.Params.Get("appointment"))
		if err != nil {
			return nil, err
		}
		data["appointment"] = appointment
	}
	return &model.Result{Type: model.ActionReview, Action: model.ResultPrompt, Data: data}, nil
}

func (d *Dispatcher) handlePromotions(dl *model.DeepLink) (*model.Result, error) {
	data := map[string]any{}
	if dl.Params.Has("code") {
		code, err := deeplink.ValidateID("code", dl.Params.Get("code"))
		if err != nil {
			return nil, err
		}
		data["code"] = code
	}
	return &model.Result{Type: model.ActionPromotions, Action: model.ResultApply, Data: data}, nil
}

func (d *Dispatcher) handleProfile(dl *model.DeepLink) (*model.Result, error) {
	url := "/profile"
	data := map[string]any{}
	if dl.Params.Has("user") {
		user, err := deeplink.ValidateID("user", dl.Params.Get("user"))
		if err != nil {
			return nil, err
		}
		url += "/" + user
		data["user"] = user
	}
	data["url"] = url
	return &model.Result{Type: model.ActionProfile, Action: model.ResultNavigate, Data: data}, nil
}

// createPayment builds the gateway request shared by the payment and
// tip handlers.
func (d *Dispatcher) createPayment(ctx context.Context, amountMinor int64, service model.ServiceType, barber, shop, appointment string, private, split bool) (*payment.Payment, error) {
	metadata := make(map[string]string)
	if barber != "" {
		metadata["barber"] = barber
	}
	if shop != "" {
		metadata["shop"] = shop
	}
	if appointment != "" {
		metadata["appointment"] = appointment
	}

	req := payment.Request{
		AmountMinor: amountMinor,
		Currency:    paymentCurrency,
		Description: payment.Description(string(service), barber, shop),
		Private:     private,
		Split:       split,
		Metadata:    metadata,
	}

	d.logger.Debug("creating payment",
		"amount_minor", amountMinor,
		"description", req.Description,
	)
	return d.gateway.CreatePayment(ctx, req)
}

// percentOf applies a percentage to a minor-unit amount, rounding to
// the nearest cent.
func percentOf(amountMinor int64, percentage float64) int64 {
	return int64(math.Round(float64(amountMinor) * percentage / 100))
}
