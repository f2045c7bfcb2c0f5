package payment

import (
	"context"
	"errors"
	"testing"
)

func TestDescription(t *testing.T) {
	t.Parallel()

	cases := []struct {
		service, barber, shop string
		want                  string
	}{
		{"haircut", "jb", "nyc_01", "Haircut with jb at nyc_01"},
		{"haircut", "", "", "Haircut"},
		{"", "jb", "", "with jb"},
		{"", "", "nyc_01", "at nyc_01"},
		{"beard", "", "nyc_01", "Beard at nyc_01"},
		{"", "", "", FallbackDescription},
	}
	for _, tc := range cases {
		if got := Description(tc.service, tc.barber, tc.shop); got != tc.want {
			t.Errorf("Description(%q, %q, %q) = %q, want %q",
				tc.service, tc.barber, tc.shop, got, tc.want)
		}
	}
}

func TestDisabledGateway(t *testing.T) {
	t.Parallel()

	_, err := Disabled{}.CreatePayment(context.Background(), Request{AmountMinor: 4500})
	var ge *GatewayError
	if !errors.As(err, &ge) {
		t.Fatalf("error = %v, want GatewayError", err)
	}
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("error should unwrap to ErrNotConfigured, got %v", err)
	}
}
