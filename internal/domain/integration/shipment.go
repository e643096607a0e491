package integration

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// NormalizedAddress
// ---------------------------------------------------------------------------

// NormalizedAddress is the flat shipping address every carrier-specific
// address format is translated into and from.
type NormalizedAddress struct {
	// Name is the contact or company name
	Name string
	// Line1 is the first street line
	Line1 string
	// Line2 is the optional second street line
	Line2 string
	// City is the city or locality
	City string
	// Region is the state/province code
	Region string
	// PostalCode is the postal or ZIP code
	PostalCode string
	// CountryCode is the ISO 3166-1 alpha-2 country code
	CountryCode string
	// Phone is the contact phone number
	Phone string
	// Residential marks non-commercial destinations
	Residential bool
}

// ---------------------------------------------------------------------------
// Rates
// ---------------------------------------------------------------------------

// Parcel describes one physical package in a rate or label request.
type Parcel struct {
	// WeightKg is the package weight in kilograms
	WeightKg decimal.Decimal
	// LengthCm, WidthCm, HeightCm are the package dimensions in centimeters
	LengthCm decimal.Decimal
	WidthCm  decimal.Decimal
	HeightCm decimal.Decimal
}

// RateRequest asks a courier for available service levels and prices.
type RateRequest struct {
	// From is the origin address
	From NormalizedAddress
	// To is the destination address
	To NormalizedAddress
	// Parcels are the packages to quote
	Parcels []Parcel
	// ShipDate is the intended pickup date (zero means today)
	ShipDate time.Time
}

// RateQuote is one normalized service-level quote. Connectors return quotes
// in provider order with NetCharge equal to BaseCharge; the pricing engine
// applies markup as a separate step.
type RateQuote struct {
	// ServiceCode is the provider's service level code
	ServiceCode string
	// ServiceName is the human-readable service level name
	ServiceName string
	// BaseCharge is the raw carrier charge
	BaseCharge decimal.Decimal
	// NetCharge is the post-markup charge shown to the customer
	NetCharge decimal.Decimal
	// CommissionPercent is attached for the billing collaborator
	CommissionPercent decimal.Decimal
	// Currency is the ISO 4217 currency code
	Currency string
	// EstimatedDelivery is the provider's delivery estimate, if given
	EstimatedDelivery *time.Time
}

// ---------------------------------------------------------------------------
// Labels
// ---------------------------------------------------------------------------

// LabelRequest purchases a shipping label for one shipment. Purchase is a
// single-shot external side effect with real monetary cost; connectors never
// retry it on ambiguous failure.
type LabelRequest struct {
	// From is the origin address
	From NormalizedAddress
	// To is the destination address
	To NormalizedAddress
	// Parcels are the packages to ship
	Parcels []Parcel
	// ServiceCode selects the service level from a prior quote
	ServiceCode string
	// Reference is the caller's shipment reference printed on the label
	Reference string
	// IdempotencyKey is a caller-supplied token forwarded to providers that
	// support purchase deduplication. Optional.
	IdempotencyKey string
}

// LabelArtifact is the purchased label document: either a provider-hosted URL
// or inline encoded content.
type LabelArtifact struct {
	// URL is the provider-hosted label location, if any
	URL string
	// Content is the inline label document (already base64-decoded)
	Content []byte
	// ContentType is the MIME type of Content (e.g. application/pdf)
	ContentType string
}

// LabelPurchaseResult is the structured outcome of a label purchase.
type LabelPurchaseResult struct {
	// Success indicates the provider confirmed the purchase
	Success bool
	// TrackingNumber is assigned by the provider on success
	TrackingNumber string
	// Label is the purchased label artifact, if any
	Label *LabelArtifact
	// Cost is the charged amount
	Cost decimal.Decimal
	// Currency is the ISO 4217 code of Cost
	Currency string
	// ErrorMessage describes the provider rejection when Success is false
	ErrorMessage string
}

// ---------------------------------------------------------------------------
// Tracking
// ---------------------------------------------------------------------------

// TrackingStatus is the closed enumeration every connector must map its
// provider-specific status vocabulary onto. An unmapped provider status is a
// MappingError, never silently dropped.
type TrackingStatus string

const (
	// TrackingStatusPreTransit indicates the label exists but the carrier has not scanned the parcel
	TrackingStatusPreTransit TrackingStatus = "pre_transit"
	// TrackingStatusInTransit indicates the parcel is moving through the network
	TrackingStatusInTransit TrackingStatus = "in_transit"
	// TrackingStatusOutForDelivery indicates the parcel is on the delivery vehicle
	TrackingStatusOutForDelivery TrackingStatus = "out_for_delivery"
	// TrackingStatusDelivered indicates the parcel reached the recipient
	TrackingStatusDelivered TrackingStatus = "delivered"
	// TrackingStatusException indicates a delivery problem needing attention
	TrackingStatusException TrackingStatus = "exception"
	// TrackingStatusReturned indicates the parcel is going back to sender
	TrackingStatusReturned TrackingStatus = "returned"
	// TrackingStatusCancelled indicates the shipment was voided
	TrackingStatusCancelled TrackingStatus = "cancelled"
)

// IsValid returns true if the status is one of the closed set
func (s TrackingStatus) IsValid() bool {
	switch s {
	case TrackingStatusPreTransit, TrackingStatusInTransit, TrackingStatusOutForDelivery,
		TrackingStatusDelivered, TrackingStatusException, TrackingStatusReturned,
		TrackingStatusCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of TrackingStatus
func (s TrackingStatus) String() string {
	return string(s)
}

// TrackingEvent is one scan in a shipment's history.
type TrackingEvent struct {
	// Timestamp is when the event occurred
	Timestamp time.Time
	// EventType is the provider's event code
	EventType string
	// Description is the human-readable event text
	Description string
	// Location is where the event occurred
	Location string
}

// TrackingSnapshot is the normalized state of one shipment. Safe to poll.
type TrackingSnapshot struct {
	// TrackingNumber identifies the shipment at the provider
	TrackingNumber string
	// Status is the normalized current status
	Status TrackingStatus
	// LastLocation is the most recent known location
	LastLocation string
	// Events is the ordered scan history, oldest first
	Events []TrackingEvent
}
