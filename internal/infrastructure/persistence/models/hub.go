package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
)

// ProviderConnectionModel is the persistence model for a provider connection.
type ProviderConnectionModel struct {
	ID                uuid.UUID                    `gorm:"type:uuid;primary_key"`
	TenantID          uuid.UUID                    `gorm:"type:uuid;not null;index:idx_provider_connection_tenant"`
	Code              integration.ProviderCode     `gorm:"type:varchar(20);not null"`
	DisplayName       string                       `gorm:"type:varchar(255)"`
	Status            integration.ConnectionStatus `gorm:"type:varchar(20);not null;default:'inactive'"`
	Credentials       string                       `gorm:"type:jsonb"`
	IsReseller        bool                         `gorm:"not null;default:false"`
	MarkupPercent     decimal.Decimal              `gorm:"type:decimal(10,4);not null;default:0"`
	CommissionPercent decimal.Decimal              `gorm:"type:decimal(10,4);not null;default:0"`
	Sandbox           bool                         `gorm:"not null;default:false"`
	CreatedAt         time.Time                    `gorm:"not null"`
	UpdatedAt         time.Time                    `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProviderConnectionModel) TableName() string {
	return "provider_connections"
}

// ToDomain converts the persistence model to a domain ProviderConfig.
func (m *ProviderConnectionModel) ToDomain() *integration.ProviderConfig {
	return &integration.ProviderConfig{
		ID:                m.ID,
		TenantID:          m.TenantID,
		Code:              m.Code,
		DisplayName:       m.DisplayName,
		Status:            m.Status,
		Credentials:       json.RawMessage(m.Credentials),
		IsReseller:        m.IsReseller,
		MarkupPercent:     m.MarkupPercent,
		CommissionPercent: m.CommissionPercent,
		Sandbox:           m.Sandbox,
		CreatedAt:         m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain ProviderConfig.
func (m *ProviderConnectionModel) FromDomain(cfg *integration.ProviderConfig) {
	m.ID = cfg.ID
	m.TenantID = cfg.TenantID
	m.Code = cfg.Code
	m.DisplayName = cfg.DisplayName
	m.Status = cfg.Status
	m.Credentials = string(cfg.Credentials)
	m.IsReseller = cfg.IsReseller
	m.MarkupPercent = cfg.MarkupPercent
	m.CommissionPercent = cfg.CommissionPercent
	m.Sandbox = cfg.Sandbox
	m.CreatedAt = cfg.CreatedAt
}

// SyncedOrderModel is the persistence model for a normalized marketplace
// order. Line items are stored as a JSON document and replaced wholesale on
// every save, matching the merge semantics.
type SyncedOrderModel struct {
	ID              uuid.UUID               `gorm:"type:uuid;primary_key"`
	ConnectionID    uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:idx_synced_order_external,priority:1"`
	ExternalOrderID string                  `gorm:"type:varchar(100);not null;uniqueIndex:idx_synced_order_external,priority:2"`
	OrderNumber     string                  `gorm:"type:varchar(100)"`
	CustomerEmail   string                  `gorm:"type:varchar(255)"`
	TotalAmount     decimal.Decimal         `gorm:"type:decimal(12,2);not null;default:0"`
	Currency        string                  `gorm:"type:varchar(3)"`
	Status          integration.OrderStatus `gorm:"type:varchar(25);not null"`
	ShippingJSON    string                  `gorm:"type:jsonb;column:shipping_address"`
	ItemsJSON       string                  `gorm:"type:jsonb;column:line_items"`
	PlacedAt        time.Time               `gorm:"index"`
	CreatedAt       time.Time               `gorm:"not null"`
	UpdatedAt       time.Time               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncedOrderModel) TableName() string {
	return "synced_orders"
}

type syncedOrderItem struct {
	ExternalItemID string          `json:"external_item_id"`
	Title          string          `json:"title"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	SKU            string          `json:"sku"`
	VariantLabel   string          `json:"variant_label,omitempty"`
}

// ToDomain converts the persistence model to a domain NormalizedOrder.
func (m *SyncedOrderModel) ToDomain() *integration.NormalizedOrder {
	order := &integration.NormalizedOrder{
		ExternalOrderID: m.ExternalOrderID,
		OrderNumber:     m.OrderNumber,
		CustomerEmail:   m.CustomerEmail,
		TotalAmount:     m.TotalAmount,
		Currency:        m.Currency,
		Status:          m.Status,
		Items:           make([]integration.OrderItem, 0),
		CreatedAt:       m.PlacedAt,
	}

	if m.ShippingJSON != "" {
		_ = json.Unmarshal([]byte(m.ShippingJSON), &order.ShippingAddress)
	}
	if m.ItemsJSON != "" {
		var items []syncedOrderItem
		if err := json.Unmarshal([]byte(m.ItemsJSON), &items); err == nil {
			for _, item := range items {
				order.Items = append(order.Items, integration.OrderItem{
					ExternalItemID: item.ExternalItemID,
					Title:          item.Title,
					Quantity:       item.Quantity,
					UnitPrice:      item.UnitPrice,
					SKU:            item.SKU,
					VariantLabel:   item.VariantLabel,
				})
			}
		}
	}
	return order
}

// FromDomain populates the persistence model from a domain NormalizedOrder.
func (m *SyncedOrderModel) FromDomain(connectionID uuid.UUID, order *integration.NormalizedOrder) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.ConnectionID = connectionID
	m.ExternalOrderID = order.ExternalOrderID
	m.OrderNumber = order.OrderNumber
	m.CustomerEmail = order.CustomerEmail
	m.TotalAmount = order.TotalAmount
	m.Currency = order.Currency
	m.Status = order.Status
	m.PlacedAt = order.CreatedAt

	if addrBytes, err := json.Marshal(order.ShippingAddress); err == nil {
		m.ShippingJSON = string(addrBytes)
	}
	items := make([]syncedOrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, syncedOrderItem{
			ExternalItemID: item.ExternalItemID,
			Title:          item.Title,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			SKU:            item.SKU,
			VariantLabel:   item.VariantLabel,
		})
	}
	if itemBytes, err := json.Marshal(items); err == nil {
		m.ItemsJSON = string(itemBytes)
	}
}

// SyncWatermarkModel is the persistence model for a connection's sync
// watermark.
type SyncWatermarkModel struct {
	ConnectionID uuid.UUID `gorm:"type:uuid;primary_key"`
	Watermark    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncWatermarkModel) TableName() string {
	return "sync_watermarks"
}
