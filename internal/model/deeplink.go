// Package model defines domain entities for the deep-link engine.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Action identifies the operation a deep link requests.
type Action string

const (
	ActionPayment    Action = "payment"
	ActionBooking    Action = "booking"
	ActionTip        Action = "tip"
	ActionShop       Action = "shop"
	ActionBarber     Action = "barber"
	ActionReview     Action = "review"
	ActionPromotions Action = "promotions"
	ActionProfile    Action = "profile"
)

// Actions lists every supported action.
var Actions = []Action{
	ActionPayment,
	ActionBooking,
	ActionTip,
	ActionShop,
	ActionBarber,
	ActionReview,
	ActionPromotions,
	ActionProfile,
}

// ParseAction resolves a lowercase action name to its Action value.
func ParseAction(s string) (Action, bool) {
	a := Action(s)
	switch a {
	case ActionPayment, ActionBooking, ActionTip, ActionShop,
		ActionBarber, ActionReview, ActionPromotions, ActionProfile:
		return a, true
	}
	return "", false
}

// IsValid checks if the action is one of the supported actions.
func (a Action) IsValid() bool {
	_, ok := ParseAction(string(a))
	return ok
}

// Params is an ordered set of query parameters. Insertion order is
// preserved; setting an existing key overwrites its value in place
// (last occurrence wins).
type Params struct {
	keys   []string
	values map[string]string
}

// NewParams creates an empty parameter set.
func NewParams() Params {
	return Params{values: make(map[string]string)}
}

// ParamsFrom builds a parameter set from alternating key/value pairs.
// Intended for tests and fixtures.
func ParamsFrom(pairs ...string) Params {
	p := NewParams()
	for i := 0; i+1 < len(pairs); i += 2 {
		p.Set(pairs[i], pairs[i+1])
	}
	return p
}

// Set stores a value for the key, keeping the key's original position
// when it was already present.
func (p *Params) Set(key, value string) {
	if p.values == nil {
		p.values = make(map[string]string)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Get returns the value for the key, or "" when absent.
func (p Params) Get(key string) string {
	return p.values[key]
}

// Has reports whether the key is present.
func (p Params) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Keys returns the keys in insertion order.
func (p Params) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len returns the number of parameters.
func (p Params) Len() int {
	return len(p.keys)
}

// Encode renders the parameters as a percent-encoded query string in
// insertion order.
func (p Params) Encode() string {
	var b strings.Builder
	for i, k := range p.keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.values[k]))
	}
	return b.String()
}

// MarshalJSON renders the parameters as a JSON object in insertion order.
func (p Params) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(p.values[k])
		if err != nil {
			return nil, err
		}
		b.Write(kb)
		b.WriteByte(':')
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// UnmarshalJSON restores the parameters from a JSON object, preserving
// the object's key order.
func (p *Params) UnmarshalJSON(data []byte) error {
	*p = NewParams()
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("params: expected JSON object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("params: expected string key")
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("params: value for %q: %w", key, err)
		}
		p.Set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// DeepLink is the parsed, immutable form of a deep-link URL.
type DeepLink struct {
	Scheme      string `json:"scheme"`
	Action      Action `json:"action"`
	Params      Params `json:"params"`
	OriginalURL string `json:"originalUrl"`
}

// Result action verbs produced by the dispatcher.
const (
	ResultCreated   = "created"
	ResultInitiated = "initiated"
	ResultNavigate  = "navigate"
	ResultPrompt    = "prompt"
	ResultApply     = "apply"
)

// Result is the outcome of dispatching a deep link.
type Result struct {
	Type   Action `json:"type"`
	Action string `json:"action"`
	Data   any    `json:"data,omitempty"`
	Params any    `json:"params,omitempty"`
}
