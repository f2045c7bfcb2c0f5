package deeplink

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/cliplink/cliplink/internal/model"
	"github.com/cliplink/cliplink/internal/sanitize"
)

// DefaultScheme is the private URI scheme the app registers.
const DefaultScheme = "app"

// Parse turns a raw deep-link URL into a structured DeepLink.
//
// Grammar: <scheme>://<action>?<key1>=<value1>&<key2>=<value2>...
// The action must be one of the eight supported actions (matched
// case-insensitively); keys and values are percent-decoded; duplicate
// keys keep the last value; a missing query segment yields an empty
// parameter set. Empty query tokens (e.g. a trailing "&") are skipped.
func Parse(raw, scheme string) (*model.DeepLink, error) {
	if scheme == "" {
		scheme = DefaultScheme
	}

	cleaned := sanitize.URL(raw)

	prefix := scheme + "://"
	if !strings.HasPrefix(cleaned, prefix) {
		return nil, &ParseError{Reason: fmt.Sprintf("invalid scheme: URL must start with %q", prefix)}
	}

	rest := cleaned[len(prefix):]
	actionPart := rest
	queryPart := ""
	if i := strings.Index(rest, "?"); i >= 0 {
		actionPart = rest[:i]
		queryPart = rest[i+1:]
	}

	action, ok := model.ParseAction(strings.ToLower(actionPart))
	if !ok {
		return nil, &ParseError{Reason: fmt.Sprintf("unknown action %q", strings.ToLower(actionPart))}
	}

	params, err := parseQuery(queryPart)
	if err != nil {
		return nil, err
	}

	return &model.DeepLink{
		Scheme:      scheme,
		Action:      action,
		Params:      params,
		OriginalURL: cleaned,
	}, nil
}

// parseQuery splits the query string on "&" and percent-decodes each
// key=value segment. Decode failures become ParseErrors here rather
// than escaping from deeper in the call.
func parseQuery(query string) (model.Params, error) {
	params := model.NewParams()
	if query == "" {
		return params, nil
	}

	for _, segment := range strings.Split(query, "&") {
		if segment == "" {
			continue
		}
		if strings.Count(segment, "=") != 1 {
			return model.Params{}, &ParseError{Reason: fmt.Sprintf("malformed query segment %q: expected key=value", segment)}
		}

		i := strings.Index(segment, "=")
		key, err := url.QueryUnescape(segment[:i])
		if err != nil {
			return model.Params{}, &ParseError{Reason: fmt.Sprintf("bad percent-encoding in key of %q", segment)}
		}
		value, err := url.QueryUnescape(segment[i+1:])
		if err != nil {
			return model.Params{}, &ParseError{Reason: fmt.Sprintf("bad percent-encoding in value of %q", segment)}
		}
		if key == "" {
			return model.Params{}, &ParseError{Reason: fmt.Sprintf("malformed query segment %q: empty key", segment)}
		}

		params.Set(key, value)
	}

	return params, nil
}
