// Package deeplink implements the deep-link grammar: parsing raw URLs
// into structured links and validating per-action parameters.
package deeplink

import (
	"fmt"

	"github.com/cliplink/cliplink/internal/model"
)

// ParseError indicates a structurally invalid deep link: bad scheme,
// unknown action, or malformed query encoding.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse deep link: " + e.Reason
}

// ValidationError indicates a well-formed but semantically invalid
// parameter value. Field names the offending parameter and Reason
// describes the accepted format or range.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Field, e.Reason)
}

// HandlerError indicates a required parameter for a reachable action is
// missing, or dispatch reached an action it cannot serve.
type HandlerError struct {
	Action model.Action
	Reason string
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("cannot handle %s link: %s", e.Action, e.Reason)
}
