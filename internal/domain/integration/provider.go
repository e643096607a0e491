package integration

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// ProviderCode
// ---------------------------------------------------------------------------

// ProviderCode identifies one external provider type (courier or marketplace).
type ProviderCode string

const (
	// ProviderCodeFedEx represents the FedEx courier API
	ProviderCodeFedEx ProviderCode = "FEDEX"
	// ProviderCodeDHL represents the DHL Express courier API
	ProviderCodeDHL ProviderCode = "DHL"
	// ProviderCodeShopify represents the Shopify marketplace API
	ProviderCodeShopify ProviderCode = "SHOPIFY"
	// ProviderCodeWooCommerce represents the WooCommerce marketplace API
	ProviderCodeWooCommerce ProviderCode = "WOOCOMMERCE"
)

// IsValid returns true if the provider code has a registered connector. Codes
// outside this set are rejected at connection create, so a connection can
// never exist without an adapter to serve it.
func (c ProviderCode) IsValid() bool {
	switch c {
	case ProviderCodeFedEx, ProviderCodeDHL,
		ProviderCodeShopify, ProviderCodeWooCommerce:
		return true
	default:
		return false
	}
}

// String returns the string representation of ProviderCode
func (c ProviderCode) String() string {
	return string(c)
}

// ---------------------------------------------------------------------------
// ProviderKind
// ---------------------------------------------------------------------------

// ProviderKind distinguishes courier from marketplace providers.
type ProviderKind string

const (
	// ProviderKindCourier identifies shipping carrier providers
	ProviderKindCourier ProviderKind = "COURIER"
	// ProviderKindMarketplace identifies e-commerce marketplace providers
	ProviderKindMarketplace ProviderKind = "MARKETPLACE"
)

// IsValid returns true if the kind is known
func (k ProviderKind) IsValid() bool {
	return k == ProviderKindCourier || k == ProviderKindMarketplace
}

// Kind returns the provider kind for a code.
func (c ProviderCode) Kind() ProviderKind {
	switch c {
	case ProviderCodeShopify, ProviderCodeWooCommerce:
		return ProviderKindMarketplace
	default:
		return ProviderKindCourier
	}
}

// ---------------------------------------------------------------------------
// ConnectionStatus
// ---------------------------------------------------------------------------

// ConnectionStatus is the operational state of a provider connection.
type ConnectionStatus string

const (
	// ConnectionStatusActive indicates the connection is usable
	ConnectionStatusActive ConnectionStatus = "active"
	// ConnectionStatusInactive indicates the connection is disabled by an operator
	ConnectionStatusInactive ConnectionStatus = "inactive"
	// ConnectionStatusError indicates the last credential check failed
	ConnectionStatusError ConnectionStatus = "error"
)

// IsValid returns true if the status is known
func (s ConnectionStatus) IsValid() bool {
	switch s {
	case ConnectionStatusActive, ConnectionStatusInactive, ConnectionStatusError:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// ProviderConfig
// ---------------------------------------------------------------------------

// ProviderConfig is the tenant-scoped record for one courier or marketplace
// account. The credentials blob is opaque to the hub core and interpreted by
// the connector for the provider code. The hub reads configs from the
// credential store per call and never persists secrets itself.
type ProviderConfig struct {
	// ID is the connection identity, also the token-cache key
	ID uuid.UUID
	// TenantID scopes the connection to one tenant
	TenantID uuid.UUID
	// Code selects the connector implementation
	Code ProviderCode
	// DisplayName is the operator-facing label
	DisplayName string
	// Status is the operational state
	Status ConnectionStatus
	// Credentials is the provider-specific credential blob
	Credentials json.RawMessage
	// IsReseller marks connections whose rates carry reseller markup
	IsReseller bool
	// MarkupPercent is the reseller markup applied to rate quotes
	MarkupPercent decimal.Decimal
	// CommissionPercent is attached to quotes for the billing collaborator;
	// the hub never executes payouts
	CommissionPercent decimal.Decimal
	// Sandbox routes calls to the provider's test environment
	Sandbox bool
	// CreatedAt is when the connection was registered
	CreatedAt time.Time
}

// IsUsable reports whether calls may be made through this connection.
func (c *ProviderConfig) IsUsable() bool {
	return c.Status == ConnectionStatusActive
}

// DecodeCredentials unmarshals the opaque credentials blob into a
// connector-owned struct.
func (c *ProviderConfig) DecodeCredentials(dst any) error {
	if len(c.Credentials) == 0 {
		return ErrProviderAuth
	}
	return json.Unmarshal(c.Credentials, dst)
}

// ---------------------------------------------------------------------------
// Repositories (implemented by the persistence collaborator)
// ---------------------------------------------------------------------------

// ProviderConfigRepository reads and writes provider connections. The hub
// treats it as the credential store: configs are loaded per call.
type ProviderConfigRepository interface {
	// Save creates or updates a connection
	Save(ctx context.Context, cfg *ProviderConfig) error

	// FindByID loads one connection
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ProviderConfig, error)

	// FindAllForTenant lists a tenant's connections
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]ProviderConfig, error)

	// UpdateStatus records the outcome of the last credential check
	UpdateStatus(ctx context.Context, id uuid.UUID, status ConnectionStatus) error

	// Delete removes a connection
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// SyncedOrderRepository persists normalized orders keyed by connection and
// external order ID. FindByExternalID returns (nil, nil) for an order the
// engine has never seen; the sync engine treats that as a create.
type SyncedOrderRepository interface {
	// Save creates or replaces the record for order.ExternalOrderID. Line
	// items are replaced wholesale, matching the merge semantics.
	Save(ctx context.Context, connectionID uuid.UUID, order *NormalizedOrder) error

	// FindByExternalID loads one synced order, or (nil, nil) when unseen
	FindByExternalID(ctx context.Context, connectionID uuid.UUID, externalOrderID string) (*NormalizedOrder, error)

	// FindAllForConnection lists a connection's synced orders
	FindAllForConnection(ctx context.Context, connectionID uuid.UUID) ([]NormalizedOrder, error)
}

// SyncWatermarkRepository tracks the last fully synced point per connection.
type SyncWatermarkRepository interface {
	// Get returns the watermark, or nil when the connection never synced
	Get(ctx context.Context, connectionID uuid.UUID) (*time.Time, error)

	// Advance moves the watermark forward. Called only after a batch has
	// been fully processed.
	Advance(ctx context.Context, connectionID uuid.UUID, watermark time.Time) error
}
