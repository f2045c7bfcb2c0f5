package model

import (
	"fmt"
	"time"
)

// ServiceType enumerates the bookable barbershop services.
type ServiceType string

const (
	ServiceHaircut   ServiceType = "haircut"
	ServiceBeard     ServiceType = "beard"
	ServiceTrim      ServiceType = "trim"
	ServiceStyle     ServiceType = "style"
	ServiceColor     ServiceType = "color"
	ServiceTreatment ServiceType = "treatment"
)

// IsValid checks if the service type is one of the known services.
func (s ServiceType) IsValid() bool {
	switch s {
	case ServiceHaircut, ServiceBeard, ServiceTrim, ServiceStyle, ServiceColor, ServiceTreatment:
		return true
	}
	return false
}

// ActionParams is the typed, validated parameter set of an action family.
// Navigation-only actions (shop, barber, review, promotions, profile) have
// no typed variant; their single id field is checked by the handler.
type ActionParams interface {
	isActionParams()
}

// PaymentParams are the validated parameters of a payment link.
type PaymentParams struct {
	AmountMinor *int64      `json:"amountMinor,omitempty"`
	Shop        string      `json:"shop,omitempty"`
	Service     ServiceType `json:"service,omitempty"`
	Barber      string      `json:"barber,omitempty"`
	Appointment string      `json:"appointment,omitempty"`
	Split       bool        `json:"split"`
	Private     bool        `json:"private"`
}

func (*PaymentParams) isActionParams() {}

// BookingParams are the validated parameters of a booking link.
type BookingParams struct {
	Barber       string      `json:"barber,omitempty"`
	Shop         string      `json:"shop,omitempty"`
	Service      ServiceType `json:"service,omitempty"`
	DateTime     *time.Time  `json:"datetime,omitempty"`
	Duration     *int        `json:"duration,omitempty"`
	Group        bool        `json:"group"`
	Participants *int        `json:"participants,omitempty"`
}

func (*BookingParams) isActionParams() {}

// TipParams are the validated parameters of a tip link.
type TipParams struct {
	Barber      string   `json:"barber,omitempty"`
	AmountMinor *int64   `json:"amountMinor,omitempty"`
	Percentage  *float64 `json:"percentage,omitempty"`
	Appointment string   `json:"appointment,omitempty"`
	Shop        string   `json:"shop,omitempty"`
}

func (*TipParams) isActionParams() {}

// FormatMinor renders an amount in minor units as a decimal string,
// e.g. 900 -> "9.00".
func FormatMinor(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}
