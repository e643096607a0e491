package integration

import (
	"context"
	"net/http"
	"time"
)

// ---------------------------------------------------------------------------
// Connector contracts
// ---------------------------------------------------------------------------

// TestResult is the structured outcome of a credential check. TestConnection
// never returns an error; failures are reported in the result so the admin
// surface can show them verbatim (without leaking credential values).
type TestResult struct {
	// Success indicates the credentials were accepted
	Success bool
	// Message is a human-readable outcome description
	Message string
}

// Connector is the contract shared by every provider adapter, courier or
// marketplace. Connectors are stateless and safe for concurrent use; every
// call honors the caller-supplied context deadline.
type Connector interface {
	// Code returns the provider code this connector handles
	Code() ProviderCode

	// TestConnection performs a lightweight credential-validation call. It
	// must not mutate remote state.
	TestConnection(ctx context.Context) TestResult
}

// CourierConnector is the uniform operation set of shipping carriers.
type CourierConnector interface {
	Connector

	// GetRates returns raw quotes in provider order. Markup is NOT applied
	// here; the pricing engine applies it as a separate step.
	GetRates(ctx context.Context, req *RateRequest) ([]RateQuote, error)

	// PurchaseLabel buys a label. Side-effecting and non-idempotent: the
	// connector issues exactly one attempt, with no automatic retry on
	// ambiguous failure, since a duplicate purchase has real monetary cost.
	PurchaseLabel(ctx context.Context, req *LabelRequest) (*LabelPurchaseResult, error)

	// TrackShipment returns the normalized tracking state. Idempotent, safe
	// to poll. An unmapped provider status yields a MappingError.
	TrackShipment(ctx context.Context, trackingNumber string) (*TrackingSnapshot, error)

	// CancelShipment attempts a cancellation. Returning false means the
	// provider rejected it because the shipment already moved past a
	// cancellable state; that is an expected outcome, not an error.
	CancelShipment(ctx context.Context, trackingNumber string) (bool, error)
}

// MarketplaceConnector is the uniform operation set of e-commerce platforms.
type MarketplaceConnector interface {
	Connector

	// SyncOrders pulls normalized orders created or updated after since.
	// A nil since means full backfill. This is the pull-based backstop to
	// webhook-driven sync.
	SyncOrders(ctx context.Context, since *time.Time) ([]NormalizedOrder, error)

	// PushFulfillment records a shipment (carrier + tracking number) against
	// an order on the platform.
	PushFulfillment(ctx context.Context, externalOrderID, carrier, trackingNumber string) error

	// WebhookRequestInfo extracts the topic, signature and provider event ID
	// from an inbound webhook's headers, using the platform's own header
	// conventions. EventID may be empty when the platform sends none.
	WebhookRequestInfo(header http.Header) (topic, signature, eventID string)

	// VerifyWebhookSignature checks the payload's authenticity against the
	// connection's shared secret. A payload failing verification is rejected
	// before any of it is trusted.
	VerifyWebhookSignature(body []byte, signature string) bool

	// TranslateWebhook maps a provider event into a normalized SyncAction.
	// Topics the hub does not act on produce SyncActionIgnore, never an
	// error: marketplaces add topics over time and silent-ignore is the
	// forward-compatible default.
	TranslateWebhook(topic string, body []byte) (*SyncAction, error)
}

// ---------------------------------------------------------------------------
// SyncAction
// ---------------------------------------------------------------------------

// SyncActionKind tags the normalized action derived from a webhook event.
type SyncActionKind string

const (
	// SyncActionUpsertOrder creates or merges an order record
	SyncActionUpsertOrder SyncActionKind = "upsert_order"
	// SyncActionCancelOrder moves an order to cancelled
	SyncActionCancelOrder SyncActionKind = "cancel_order"
	// SyncActionMarkFulfilled moves an order to fulfilled
	SyncActionMarkFulfilled SyncActionKind = "mark_fulfilled"
	// SyncActionIgnore is the explicit no-op for unrecognized topics
	SyncActionIgnore SyncActionKind = "ignore"
)

// SyncAction is the tagged union produced by webhook translation.
type SyncAction struct {
	// Kind selects the variant
	Kind SyncActionKind
	// Order carries the payload for SyncActionUpsertOrder
	Order *NormalizedOrder
	// ExternalOrderID identifies the target for cancel/fulfil actions
	ExternalOrderID string
	// Topic is the provider topic the action was derived from
	Topic string
}

// IgnoreAction builds the explicit no-op result for an unrecognized topic.
func IgnoreAction(topic string) *SyncAction {
	return &SyncAction{Kind: SyncActionIgnore, Topic: topic}
}
