package integration

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// OrderStatus
// ---------------------------------------------------------------------------

// OrderStatus is the closed enumeration of normalized marketplace order
// states. Status only moves forward along the natural ordering; cancelled and
// refunded are absorbing.
type OrderStatus string

const (
	// OrderStatusNew indicates an order placed but not yet paid
	OrderStatusNew OrderStatus = "new"
	// OrderStatusPaid indicates payment received
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusPartiallyFulfilled indicates some line items shipped
	OrderStatusPartiallyFulfilled OrderStatus = "partially_fulfilled"
	// OrderStatusFulfilled indicates all line items shipped
	OrderStatusFulfilled OrderStatus = "fulfilled"
	// OrderStatusCancelled indicates the order was cancelled (absorbing)
	OrderStatusCancelled OrderStatus = "cancelled"
	// OrderStatusRefunded indicates the order was refunded (absorbing)
	OrderStatusRefunded OrderStatus = "refunded"
)

// IsValid returns true if the status is one of the closed set
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusNew, OrderStatusPaid, OrderStatusPartiallyFulfilled,
		OrderStatusFulfilled, OrderStatusCancelled, OrderStatusRefunded:
		return true
	default:
		return false
	}
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsAbsorbing reports whether the status is terminal: once entered, no
// further transition is accepted.
func (s OrderStatus) IsAbsorbing() bool {
	return s == OrderStatusCancelled || s == OrderStatusRefunded
}

// rank gives the natural forward ordering of non-absorbing states.
func (s OrderStatus) rank() int {
	switch s {
	case OrderStatusNew:
		return 1
	case OrderStatusPaid:
		return 2
	case OrderStatusPartiallyFulfilled:
		return 3
	case OrderStatusFulfilled:
		return 4
	default:
		return 0
	}
}

// CanTransitionTo reports whether moving from s to next is a forward
// transition. Same-state merges are allowed (line items may still change);
// any state may enter an absorbing state; absorbing states accept nothing.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	if s.IsAbsorbing() {
		return false
	}
	if next.IsAbsorbing() {
		return true
	}
	return next.rank() > s.rank()
}

// ---------------------------------------------------------------------------
// NormalizedOrder
// ---------------------------------------------------------------------------

// OrderItem is one normalized line item.
type OrderItem struct {
	// ExternalItemID is the line item ID on the marketplace
	ExternalItemID string
	// Title is the product title
	Title string
	// Quantity is the ordered quantity
	Quantity int
	// UnitPrice is the per-unit price
	UnitPrice decimal.Decimal
	// SKU is the merchant SKU
	SKU string
	// VariantLabel describes the chosen variant (size, color, ...)
	VariantLabel string
}

// NormalizedOrder is the common shape every marketplace order is translated
// into. ExternalOrderID is the idempotency key of the sync engine: the same
// external order, synced any number of times, converges to one internal
// record.
type NormalizedOrder struct {
	// ExternalOrderID is unique per provider and store
	ExternalOrderID string
	// OrderNumber is the customer-facing order number
	OrderNumber string
	// CustomerEmail is the buyer's email
	CustomerEmail string
	// TotalAmount is the order total
	TotalAmount decimal.Decimal
	// Currency is the ISO 4217 currency code
	Currency string
	// Status is the normalized order status
	Status OrderStatus
	// ShippingAddress is the normalized delivery address
	ShippingAddress NormalizedAddress
	// Items are the normalized line items
	Items []OrderItem
	// CreatedAt is when the order was placed on the marketplace
	CreatedAt time.Time
}

// Validate checks the fields the sync engine depends on.
func (o *NormalizedOrder) Validate() error {
	if o.ExternalOrderID == "" {
		return fmt.Errorf("%w: missing external order ID", ErrProviderRequest)
	}
	if !o.Status.IsValid() {
		return fmt.Errorf("%w: invalid order status %q", ErrProviderRequest, o.Status)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Merge
// ---------------------------------------------------------------------------

// MergeOrder is the pure merge function of the sync engine: given the stored
// record and an incoming sync of the same external order, it returns the next
// record or ErrSyncConflict when the incoming status would move backward.
//
// Line items are replaced wholesale, never diffed item by item, so duplicate
// or out-of-order deliveries can never duplicate lines. The merge is what
// makes at-least-once webhook delivery harmless.
func MergeOrder(existing, incoming *NormalizedOrder) (*NormalizedOrder, error) {
	if existing == nil {
		next := *incoming
		return &next, nil
	}
	if !existing.Status.CanTransitionTo(incoming.Status) {
		return nil, fmt.Errorf("%w: %s -> %s for order %s",
			ErrSyncConflict, existing.Status, incoming.Status, existing.ExternalOrderID)
	}

	next := *incoming
	next.ExternalOrderID = existing.ExternalOrderID
	if next.OrderNumber == "" {
		next.OrderNumber = existing.OrderNumber
	}
	if next.CustomerEmail == "" {
		next.CustomerEmail = existing.CustomerEmail
	}
	if next.CreatedAt.IsZero() {
		next.CreatedAt = existing.CreatedAt
	}
	// A status-only event (cancel, fulfil) may arrive without line items;
	// keep the lines we already know rather than wiping them.
	if len(next.Items) == 0 {
		next.Items = existing.Items
	}
	if next.TotalAmount.IsZero() {
		next.TotalAmount = existing.TotalAmount
		next.Currency = existing.Currency
	}
	return &next, nil
}
