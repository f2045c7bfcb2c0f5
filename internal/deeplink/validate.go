package deeplink

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cliplink/cliplink/internal/model"
)

var (
	// idPattern is the shape every id-typed field must satisfy.
	idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	// amountPattern accepts a decimal with at most two fractional digits.
	amountPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	// percentPattern accepts a non-negative integer or decimal.
	percentPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// datetimeLayouts are the accepted ISO-8601 shapes for booking times.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

const (
	minDurationMinutes = 1
	maxDurationMinutes = 480
	minParticipants    = 1
	maxParticipants    = 20
)

// ValidateForAction coerces a link's raw parameters into the typed
// parameter set of its action family. Navigation-only actions return a
// nil ActionParams; their single id field is checked by the handler.
func ValidateForAction(dl *model.DeepLink) (model.ActionParams, error) {
	switch dl.Action {
	case model.ActionPayment:
		return ValidatePaymentParams(dl.Params)
	case model.ActionBooking:
		return ValidateBookingParams(dl.Params)
	case model.ActionTip:
		return ValidateTipParams(dl.Params)
	default:
		return nil, nil
	}
}

// ValidatePaymentParams validates and type-casts payment parameters.
// Every field is optional: a payment link without an amount resolves to
// a prompt rather than an error.
func ValidatePaymentParams(p model.Params) (*model.PaymentParams, error) {
	out := &model.PaymentParams{Private: true}

	if p.Has("amount") {
		minor, err := parseAmountMinor("amount", p.Get("amount"))
		if err != nil {
			return nil, err
		}
		if minor <= 0 {
			return nil, &ValidationError{Field: "amount", Reason: "must be greater than zero"}
		}
		out.AmountMinor = &minor
	}

	var err error
	if out.Shop, err = optionalID("shop", p); err != nil {
		return nil, err
	}
	if out.Barber, err = optionalID("barber", p); err != nil {
		return nil, err
	}
	if out.Appointment, err = optionalID("appointment", p); err != nil {
		return nil, err
	}
	if out.Service, err = optionalService(p); err != nil {
		return nil, err
	}
	if out.Split, err = boolParam("split", p, false); err != nil {
		return nil, err
	}
	if out.Private, err = boolParam("private", p, true); err != nil {
		return nil, err
	}

	return out, nil
}

// ValidateBookingParams validates and type-casts booking parameters.
func ValidateBookingParams(p model.Params) (*model.BookingParams, error) {
	out := &model.BookingParams{}

	var err error
	if out.Barber, err = optionalID("barber", p); err != nil {
		return nil, err
	}
	if out.Shop, err = optionalID("shop", p); err != nil {
		return nil, err
	}
	if out.Service, err = optionalService(p); err != nil {
		return nil, err
	}

	if p.Has("datetime") {
		ts, err := parseDateTime(p.Get("datetime"))
		if err != nil {
			return nil, err
		}
		out.DateTime = &ts
	}

	if p.Has("duration") {
		d, err := intInRange("duration", p.Get("duration"), minDurationMinutes, maxDurationMinutes)
		if err != nil {
			return nil, err
		}
		out.Duration = &d
	}

	if out.Group, err = boolParam("group", p, false); err != nil {
		return nil, err
	}

	if p.Has("participants") {
		n, err := intInRange("participants", p.Get("participants"), minParticipants, maxParticipants)
		if err != nil {
			return nil, err
		}
		out.Participants = &n
	}

	return out, nil
}

// ValidateTipParams validates and type-casts tip parameters. A tip
// amount of zero is accepted; it resolves to a prompt downstream.
func ValidateTipParams(p model.Params) (*model.TipParams, error) {
	out := &model.TipParams{}

	var err error
	if out.Barber, err = optionalID("barber", p); err != nil {
		return nil, err
	}
	if out.Shop, err = optionalID("shop", p); err != nil {
		return nil, err
	}
	if out.Appointment, err = optionalID("appointment", p); err != nil {
		return nil, err
	}

	if p.Has("amount") {
		minor, err := parseAmountMinor("amount", p.Get("amount"))
		if err != nil {
			return nil, err
		}
		out.AmountMinor = &minor
	}

	if p.Has("percentage") {
		raw := strings.TrimSpace(p.Get("percentage"))
		if !percentPattern.MatchString(raw) {
			return nil, &ValidationError{Field: "percentage", Reason: "must be a number between 0 and 100"}
		}
		pct, err := strconv.ParseFloat(raw, 64)
		if err != nil || pct < 0 || pct > 100 {
			return nil, &ValidationError{Field: "percentage", Reason: "must be a number between 0 and 100"}
		}
		out.Percentage = &pct
	}

	return out, nil
}

// ValidateID checks an id-typed value against the sanitizer's pattern.
func ValidateID(field, value string) (string, error) {
	if !idPattern.MatchString(value) {
		return "", &ValidationError{Field: field, Reason: "must contain only letters, digits, underscores and hyphens"}
	}
	return value, nil
}

func optionalID(field string, p model.Params) (string, error) {
	if !p.Has(field) {
		return "", nil
	}
	return ValidateID(field, p.Get(field))
}

func optionalService(p model.Params) (model.ServiceType, error) {
	if !p.Has("service") {
		return "", nil
	}
	s := model.ServiceType(strings.ToLower(p.Get("service")))
	if !s.IsValid() {
		return "", &ValidationError{Field: "service", Reason: "must be one of haircut, beard, trim, style, color, treatment"}
	}
	return s, nil
}

func boolParam(field string, p model.Params, def bool) (bool, error) {
	if !p.Has(field) {
		return def, nil
	}
	v, err := strconv.ParseBool(p.Get(field))
	if err != nil {
		return false, &ValidationError{Field: field, Reason: "must be true or false"}
	}
	return v, nil
}

func intInRange(field, raw string, min, max int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < min || n > max {
		return 0, &ValidationError{
			Field:  field,
			Reason: "must be an integer between " + strconv.Itoa(min) + " and " + strconv.Itoa(max),
		}
	}
	return n, nil
}

// parseAmountMinor converts a decimal amount string into minor units
// without going through floating point. The raw value is matched, not a
// sanitized copy: stripping a stray minus sign must not turn a rejected
// amount into an accepted one.
func parseAmountMinor(field, raw string) (int64, error) {
	cleaned := strings.TrimSpace(raw)
	if !amountPattern.MatchString(cleaned) {
		return 0, &ValidationError{
			Field:  field,
			Reason: "must be a decimal with at most two fractional digits (e.g. 45.50)",
		}
	}

	intPart := cleaned
	fracPart := ""
	if i := strings.Index(cleaned, "."); i >= 0 {
		intPart = cleaned[:i]
		fracPart = cleaned[i+1:]
	}

	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || whole > (math.MaxInt64-99)/100 {
		return 0, &ValidationError{Field: field, Reason: "amount is too large"}
	}

	minor := whole * 100
	switch len(fracPart) {
	case 1:
		d, _ := strconv.ParseInt(fracPart, 10, 64)
		minor += d * 10
	case 2:
		d, _ := strconv.ParseInt(fracPart, 10, 64)
		minor += d
	}

	return minor, nil
}

func parseDateTime(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	for _, layout := range datetimeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, &ValidationError{
		Field:  "datetime",
		Reason: "must be an ISO-8601 timestamp (e.g. 2026-09-01T14:30:00Z)",
	}
}
