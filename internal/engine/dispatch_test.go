package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/cliplink/cliplink/internal/deeplink"
	"github.com/cliplink/cliplink/internal/model"
)

func mustParse(t *testing.T, raw string) *model.DeepLink {
	t.Helper()
	dl, err := deeplink.Parse(raw, "app")
	if err != nil {
		t.Fatalf("Parse(%q): %v", raw, err)
	}
	return dl
}

func dispatch(t *testing.T, gateway *fakeGateway, raw string) (*model.Result, error) {
	t.Helper()
	d := NewDispatcher(gateway, 4500, 20, testLogger())
	dl := mustParse(t, raw)
	params, err := deeplink.ValidateForAction(dl)
	if err != nil {
		t.Fatalf("ValidateForAction: %v", err)
	}
	return d.Dispatch(context.Background(), dl, params)
}

func TestDispatch_PaymentWithoutAmountPrompts(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{}
	res, err := dispatch(t, gateway, "app://payment?shop=nyc_01&service=haircut")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Action != model.ResultPrompt {
		t.Errorf("action = %s, want prompt", res.Action)
	}
	data := res.Data.(map[string]any)
	if data["suggestedAmount"] != "45.00" || data["shop"] != "nyc_01" {
		t.Errorf("data = %v", data)
	}
	if len(gateway.calls) != 0 {
		t.Error("gateway must not be called without an amount")
	}
}

func TestDispatch_PaymentMetadataAndFlags(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{}
	res, err := dispatch(t, gateway, "app://payment?amount=45.50&barber=jb&split=true&private=false&appointment=apt_9")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Action != model.ResultCreated {
		t.Errorf("action = %s", res.Action)
	}

	req := gateway.calls[0]
	if req.AmountMinor != 4550 || !req.Split || req.Private {
		t.Errorf("request = %+v", req)
	}
	if req.Metadata["barber"] != "jb" || req.Metadata["appointment"] != "apt_9" {
		t.Errorf("metadata = %v", req.Metadata)
	}
}

func TestDispatch_BookingEchoesValidatedFields(t *testing.T) {
	t.Parallel()

	res, err := dispatch(t, &fakeGateway{}, "app://booking?barber=jb&service=haircut&duration=30&group=true&participants=3")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Action != model.ResultInitiated {
		t.Errorf("action = %s, want initiated", res.Action)
	}
	p, ok := res.Data.(*model.BookingParams)
	if !ok {
		t.Fatalf("data = %T", res.Data)
	}
	if p.Barber != "jb" || p.Service != model.ServiceHaircut || !p.Group {
		t.Errorf("params = %+v", p)
	}
	if p.Duration == nil || *p.Duration != 30 || p.Participants == nil || *p.Participants != 3 {
		t.Errorf("params = %+v", p)
	}
}

func TestDispatch_ShopNavigation(t *testing.T) {
	t.Parallel()

	res, err := dispatch(t, &fakeGateway{}, "app://shop?shop=nyc_01")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Action != model.ResultNavigate {
		t.Errorf("action = %s", res.Action)
	}
	data := res.Data.(map[string]any)
	if data["url"] != "/shop/nyc_01" || data["id"] != "nyc_01" {
		t.Errorf("data = %v", data)
	}
}

func TestDispatch_ShopMissingIDIsHandlerError(t *testing.T) {
	t.Parallel()

	_, err := dispatch(t, &fakeGateway{}, "app://shop")
	var herr *deeplink.HandlerError
	if !errors.As(err, &herr) {
		t.Fatalf("err = %v, want HandlerError", err)
	}
	if herr.Action != model.ActionShop {
		t.Errorf("action = %s", herr.Action)
	}
}

func TestDispatch_BarberNavigation(t *testing.T) {
	t.Parallel()

	res, err := dispatch(t, &fakeGateway{}, "app://barber?barber=jb")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	data := res.Data.(map[string]any)
	if data["url"] != "/barber/jb" {
		t.Errorf("data = %v", data)
	}
}

func TestDispatch_ReviewWithAppointment(t *testing.T) {
	t.Parallel()

	res, err := dispatch(t, &fakeGateway{}, "app://review?appointment=apt_9")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Action != model.ResultPrompt {
		t.Errorf("action = %s", res.Action)
	}
	data := res.Data.(map[string]any)
	if data["appointment"] != "apt_9" {
		t.Errorf("data = %v", data)
	}
}

func TestDispatch_ReviewBadAppointmentID(t *testing.T) {
	t.Parallel()

	_, err := dispatch(t, &fakeGateway{}, "app://review?appointment=no%20spaces")
	var verr *deeplink.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if verr.Field != "appointment" {
		t.Errorf("field = %s", verr.Field)
	}
}

func TestDispatch_PromotionsApply(t *testing.T) {
	t.Parallel()

	res, err := dispatch(t, &fakeGateway{}, "app://promotions?code=SUMMER20")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Action != model.ResultApply {
		t.Errorf("action = %s, want apply", res.Action)
	}
	if data := res.Data.(map[string]any); data["code"] != "SUMMER20" {
		t.Errorf("data = %v", data)
	}
}

func TestDispatch_ProfileDefaultsToProfilePath(t *testing.T) {
	t.Parallel()

	res, err := dispatch(t, &fakeGateway{}, "app://profile")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if data := res.Data.(map[string]any); data["url"] != "/profile" {
		t.Errorf("data = %v", data)
	}

	res, err = dispatch(t, &fakeGateway{}, "app://profile?user=u_42")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if data := res.Data.(map[string]any); data["url"] != "/profile/u_42" {
		t.Errorf("data = %v", data)
	}
}

func TestDispatch_TipZeroAmountPrompts(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{}
	res, err := dispatch(t, gateway, "app://tip?barber=jb&amount=0")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Action != model.ResultPrompt {
		t.Errorf("action = %s, want prompt for a zero tip", res.Action)
	}
	if len(gateway.calls) != 0 {
		t.Error("gateway must not be called for a zero tip")
	}
}

func TestDispatch_TipAmountBeatsPercentage(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{}
	if _, err := dispatch(t, gateway, "app://tip?barber=jb&amount=10&percentage=50"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(gateway.calls) != 1 || gateway.calls[0].AmountMinor != 1000 {
		t.Errorf("gateway calls = %+v, amount must take precedence over percentage", gateway.calls)
	}
}

func TestPercentOf_Rounds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		amount  int64
		percent float64
		want    int64
	}{
		{4500, 20, 900},
		{4500, 15, 675},
		{333, 10, 33},
		{335, 10, 34},
	}
	for _, tc := range cases {
		if got := percentOf(tc.amount, tc.percent); got != tc.want {
			t.Errorf("percentOf(%d, %v) = %d, want %d", tc.amount, tc.percent, got, tc.want)
		}
	}
}
