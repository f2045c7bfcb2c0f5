package payment

import (
	"strings"
	"unicode"
)

// FallbackDescription is used when a payment carries no service, barber
// or shop context.
const FallbackDescription = "Barbershop service"

// Description builds the human-readable payment description from the
// link's context: capitalized service, then "with <barber>", then
// "at <shop>", in that order.
func Description(service, barber, shop string) string {
	var parts []string
	if service != "" {
		parts = append(parts, capitalize(service))
	}
	if barber != "" {
		parts = append(parts, "with "+barber)
	}
	if shop != "" {
		parts = append(parts, "at "+shop)
	}
	if len(parts) == 0 {
		return FallbackDescription
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
