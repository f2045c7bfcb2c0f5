package deeplink

import (
	"errors"
	"strings"
	"testing"

	"github.com/cliplink/cliplink/internal/model"
)

func TestParse_PaymentLink(t *testing.T) {
	t.Parallel()

	dl, err := Parse("app://payment?amount=45&shop=nyc_01&service=haircut&barber=jb", "app")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if dl.Action != model.ActionPayment {
		t.Errorf("Action = %s, want payment", dl.Action)
	}
	want := map[string]string{
		"amount":  "45",
		"shop":    "nyc_01",
		"service": "haircut",
		"barber":  "jb",
	}
	for k, v := range want {
		if got := dl.Params.Get(k); got != v {
			t.Errorf("Params[%s] = %s, want %s", k, got, v)
		}
	}
	if dl.Params.Len() != 4 {
		t.Errorf("Params.Len() = %d, want 4", dl.Params.Len())
	}
}

func TestParse_SchemeRejection(t *testing.T) {
	t.Parallel()

	cases := []string{
		"https://payment?amount=45",
		"payment?amount=45",
		"app:/payment",
		"APP://payment",
		"",
		"myapp://payment",
	}
	for _, raw := range cases {
		_, err := Parse(raw, "app")
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("Parse(%q) error = %v, want ParseError", raw, err)
		}
	}
}

func TestParse_UnknownAction(t *testing.T) {
	t.Parallel()

	_, err := Parse("app://settings?tab=privacy", "app")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want ParseError", err)
	}
}

func TestParse_ActionCaseInsensitive(t *testing.T) {
	t.Parallel()

	dl, err := Parse("app://PayMent?amount=45", "app")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if dl.Action != model.ActionPayment {
		t.Errorf("Action = %s, want payment", dl.Action)
	}
}

func TestParse_EmptyQuery(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"app://profile", "app://profile?"} {
		dl, err := Parse(raw, "app")
		if err != nil {
			t.Fatalf("Parse(%q): %v", raw, err)
		}
		if dl.Params.Len() != 0 {
			t.Errorf("Parse(%q) params = %d, want 0", raw, dl.Params.Len())
		}
	}
}

func TestParse_TrailingAmpersandSkipped(t *testing.T) {
	t.Parallel()

	dl, err := Parse("app://shop?shop=nyc_01&&", "app")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if dl.Params.Len() != 1 || dl.Params.Get("shop") != "nyc_01" {
		t.Errorf("Params = %v", dl.Params.Keys())
	}
}

func TestParse_MalformedSegments(t *testing.T) {
	t.Parallel()

	cases := []string{
		"app://payment?amount",            // no "="
		"app://payment?a=1=2",             // two "="
		"app://payment?amount=%zz",        // bad percent-encoding in value
		"app://payment?%zz=1",             // bad percent-encoding in key
		"app://payment?=45",               // empty key
	}
	for _, raw := range cases {
		_, err := Parse(raw, "app")
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("Parse(%q) error = %v, want ParseError", raw, err)
		}
	}
}

func TestParse_PercentDecoding(t *testing.T) {
	t.Parallel()

	dl, err := Parse("app://booking?datetime=2026-09-01T14%3A30%3A00Z&service=haircut", "app")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := dl.Params.Get("datetime"); got != "2026-09-01T14:30:00Z" {
		t.Errorf("datetime = %s", got)
	}
}

func TestParse_DuplicateKeyLastWins(t *testing.T) {
	t.Parallel()

	dl, err := Parse("app://tip?barber=jb&barber=mk", "app")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := dl.Params.Get("barber"); got != "mk" {
		t.Errorf("barber = %s, want mk", got)
	}
	if dl.Params.Len() != 1 {
		t.Errorf("Params.Len() = %d, want 1", dl.Params.Len())
	}
}

func TestParse_SanitizesURLFirst(t *testing.T) {
	t.Parallel()

	dl, err := Parse(`  app://shop?shop=nyc_01  `, "app")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if dl.OriginalURL != "app://shop?shop=nyc_01" {
		t.Errorf("OriginalURL = %q", dl.OriginalURL)
	}
}

// FuzzParse throws arbitrary prefixes and query shapes at the parser:
// any input must either fail with a ParseError or produce a link whose
// scheme and action are valid.
func FuzzParse(f *testing.F) {
	seeds := []string{
		"app://payment?amount=45&shop=nyc_01",
		"app://profile",
		"https://payment?amount=45",
		"payment?amount=45",
		"app:/payment",
		"app//payment",
		"APP://payment",
		"myapp://payment",
		"xapp://payment",
		"app:payment",
		" app://tip?barber=jb ",
		"app://payment?a=1=2",
		"app://payment?%zz=1",
		"app://payment?amount",
		"app://\x00payment",
		"",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		dl, err := Parse(raw, "app")
		if err != nil {
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse(%q) error = %v, want ParseError", raw, err)
			}
			return
		}

		if !strings.HasPrefix(dl.OriginalURL, "app://") {
			t.Fatalf("Parse(%q) accepted a link without the app:// scheme: %q", raw, dl.OriginalURL)
		}
		known := false
		for _, a := range model.Actions {
			if dl.Action == a {
				known = true
				break
			}
		}
		if !known {
			t.Fatalf("Parse(%q) produced unknown action %q", raw, dl.Action)
		}
	})
}

// Round-trip: re-encoding the parsed params reproduces the generated query.
func TestParse_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, a := range model.Actions {
		params := model.ParamsFrom("shop", "nyc_01", "barber", "jb")
		raw := "app://" + string(a) + "?" + params.Encode()

		dl, err := Parse(raw, "app")
		if err != nil {
			t.Fatalf("Parse(%q): %v", raw, err)
		}
		if dl.Action != a {
			t.Errorf("Action = %s, want %s", dl.Action, a)
		}
		if got := dl.Params.Encode(); got != params.Encode() {
			t.Errorf("round trip for %s: %s != %s", a, got, params.Encode())
		}
	}
}
