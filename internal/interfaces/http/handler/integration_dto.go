package handler

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Connections
// ---------------------------------------------------------------------------

// CreateConnectionRequest represents a request to connect a provider account
// @Description Request body for creating a provider connection
type CreateConnectionRequest struct {
	Code              string          `json:"code" binding:"required" example:"SHOPIFY"`
	DisplayName       string          `json:"display_name" binding:"max=200" example:"EU store"`
	Credentials       json.RawMessage `json:"credentials" binding:"required"`
	IsReseller        bool            `json:"is_reseller"`
	MarkupPercent     decimal.Decimal `json:"markup_percent"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
	Sandbox           bool            `json:"sandbox"`
}

// UpdateConnectionRequest represents a request to update a provider connection.
// An absent credentials field keeps the stored secrets.
type UpdateConnectionRequest struct {
	DisplayName       string          `json:"display_name" binding:"max=200"`
	Credentials       json.RawMessage `json:"credentials"`
	IsReseller        bool            `json:"is_reseller"`
	MarkupPercent     decimal.Decimal `json:"markup_percent"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
	Sandbox           bool            `json:"sandbox"`
}

// ConnectionResponse represents a provider connection. Credentials are write
// only and never included.
type ConnectionResponse struct {
	ID                uuid.UUID       `json:"id"`
	Code              string          `json:"code"`
	DisplayName       string          `json:"display_name"`
	Status            string          `json:"status"`
	IsReseller        bool            `json:"is_reseller"`
	MarkupPercent     decimal.Decimal `json:"markup_percent"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
	Sandbox           bool            `json:"sandbox"`
	CreatedAt         time.Time       `json:"created_at"`
}

// TestConnectionResponse reports a credential check outcome
type TestConnectionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func toConnectionResponse(cfg *integration.ProviderConfig) ConnectionResponse {
	return ConnectionResponse{
		ID:                cfg.ID,
		Code:              string(cfg.Code),
		DisplayName:       cfg.DisplayName,
		Status:            string(cfg.Status),
		IsReseller:        cfg.IsReseller,
		MarkupPercent:     cfg.MarkupPercent,
		CommissionPercent: cfg.CommissionPercent,
		Sandbox:           cfg.Sandbox,
		CreatedAt:         cfg.CreatedAt,
	}
}

// ---------------------------------------------------------------------------
// Shipments
// ---------------------------------------------------------------------------

// AddressRequest represents a shipping address
// @Description Normalized postal address
type AddressRequest struct {
	Name        string `json:"name" binding:"max=200"`
	Line1       string `json:"line1" binding:"required,max=200"`
	Line2       string `json:"line2" binding:"max=200"`
	City        string `json:"city" binding:"required,max=100"`
	Region      string `json:"region" binding:"max=100"`
	PostalCode  string `json:"postal_code" binding:"max=20"`
	CountryCode string `json:"country_code" binding:"required,len=2"`
	Phone       string `json:"phone" binding:"max=50"`
	Residential bool   `json:"residential"`
}

// ParcelRequest represents one package
type ParcelRequest struct {
	WeightKg decimal.Decimal `json:"weight_kg" binding:"required"`
	LengthCm decimal.Decimal `json:"length_cm"`
	WidthCm  decimal.Decimal `json:"width_cm"`
	HeightCm decimal.Decimal `json:"height_cm"`
}

// RateRequest asks for service levels and prices
type RateRequest struct {
	From     AddressRequest  `json:"from" binding:"required"`
	To       AddressRequest  `json:"to" binding:"required"`
	Parcels  []ParcelRequest `json:"parcels" binding:"required,min=1"`
	ShipDate *time.Time      `json:"ship_date"`
}

// RateQuoteResponse is one priced service level
type RateQuoteResponse struct {
	ServiceCode       string          `json:"service_code"`
	ServiceName       string          `json:"service_name"`
	NetCharge         decimal.Decimal `json:"net_charge"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
	Currency          string          `json:"currency"`
	EstimatedDelivery *time.Time      `json:"estimated_delivery,omitempty"`
}

// PurchaseLabelRequest buys a label for a chosen service level
type PurchaseLabelRequest struct {
	From           AddressRequest  `json:"from" binding:"required"`
	To             AddressRequest  `json:"to" binding:"required"`
	Parcels        []ParcelRequest `json:"parcels" binding:"required,min=1"`
	ServiceCode    string          `json:"service_code" binding:"required"`
	Reference      string          `json:"reference" binding:"max=100"`
	IdempotencyKey string          `json:"idempotency_key" binding:"max=100"`
}

// LabelResponse is the purchase outcome
type LabelResponse struct {
	Success        bool            `json:"success"`
	TrackingNumber string          `json:"tracking_number"`
	LabelURL       string          `json:"label_url,omitempty"`
	Cost           decimal.Decimal `json:"cost"`
	Currency       string          `json:"currency"`
}

// TrackingEventResponse is one scan event
type TrackingEventResponse struct {
	Timestamp   time.Time `json:"timestamp"`
	EventType   string    `json:"event_type"`
	Description string    `json:"description"`
	Location    string    `json:"location,omitempty"`
}

// TrackingResponse is the shipment's normalized state
type TrackingResponse struct {
	TrackingNumber string                  `json:"tracking_number"`
	Status         string                  `json:"status"`
	LastLocation   string                  `json:"last_location,omitempty"`
	Events         []TrackingEventResponse `json:"events"`
}

func (r AddressRequest) toDomain() integration.NormalizedAddress {
	return integration.NormalizedAddress{
		Name:        r.Name,
		Line1:       r.Line1,
		Line2:       r.Line2,
		City:        r.City,
		Region:      r.Region,
		PostalCode:  r.PostalCode,
		CountryCode: r.CountryCode,
		Phone:       r.Phone,
		Residential: r.Residential,
	}
}

func toParcels(reqs []ParcelRequest) []integration.Parcel {
	parcels := make([]integration.Parcel, len(reqs))
	for i, p := range reqs {
		parcels[i] = integration.Parcel{
			WeightKg: p.WeightKg,
			LengthCm: p.LengthCm,
			WidthCm:  p.WidthCm,
			HeightCm: p.HeightCm,
		}
	}
	return parcels
}

func toRateQuoteResponses(quotes []integration.RateQuote) []RateQuoteResponse {
	out := make([]RateQuoteResponse, len(quotes))
	for i, q := range quotes {
		out[i] = RateQuoteResponse{
			ServiceCode:       q.ServiceCode,
			ServiceName:       q.ServiceName,
			NetCharge:         q.NetCharge,
			CommissionPercent: q.CommissionPercent,
			Currency:          q.Currency,
			EstimatedDelivery: q.EstimatedDelivery,
		}
	}
	return out
}

func toTrackingResponse(snap *integration.TrackingSnapshot) TrackingResponse {
	events := make([]TrackingEventResponse, len(snap.Events))
	for i, e := range snap.Events {
		events[i] = TrackingEventResponse{
			Timestamp:   e.Timestamp,
			EventType:   e.EventType,
			Description: e.Description,
			Location:    e.Location,
		}
	}
	return TrackingResponse{
		TrackingNumber: snap.TrackingNumber,
		Status:         string(snap.Status),
		LastLocation:   snap.LastLocation,
		Events:         events,
	}
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// OrderItemResponse is one synced line item
type OrderItemResponse struct {
	ExternalItemID string          `json:"external_item_id"`
	Title          string          `json:"title"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	SKU            string          `json:"sku,omitempty"`
	VariantLabel   string          `json:"variant_label,omitempty"`
}

// OrderResponse is one synced marketplace order
type OrderResponse struct {
	ExternalOrderID string              `json:"external_order_id"`
	OrderNumber     string              `json:"order_number"`
	CustomerEmail   string              `json:"customer_email"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	Currency        string              `json:"currency"`
	Status          string              `json:"status"`
	ShippingAddress AddressRequest      `json:"shipping_address"`
	Items           []OrderItemResponse `json:"items"`
	PlacedAt        time.Time           `json:"placed_at"`
}

// SyncBatchResponse reports one pull cycle
type SyncBatchResponse struct {
	Pulled    int       `json:"pulled"`
	Dropped   int       `json:"dropped"`
	Watermark time.Time `json:"watermark"`
}

// PushFulfillmentRequest notifies a marketplace that an order shipped
type PushFulfillmentRequest struct {
	Carrier        string `json:"carrier" binding:"required,max=100"`
	TrackingNumber string `json:"tracking_number" binding:"required,max=100"`
}

func toOrderResponse(order *integration.NormalizedOrder) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemResponse{
			ExternalItemID: item.ExternalItemID,
			Title:          item.Title,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			SKU:            item.SKU,
			VariantLabel:   item.VariantLabel,
		}
	}
	addr := order.ShippingAddress
	return OrderResponse{
		ExternalOrderID: order.ExternalOrderID,
		OrderNumber:     order.OrderNumber,
		CustomerEmail:   order.CustomerEmail,
		TotalAmount:     order.TotalAmount,
		Currency:        order.Currency,
		Status:          string(order.Status),
		ShippingAddress: AddressRequest{
			Name:        addr.Name,
			Line1:       addr.Line1,
			Line2:       addr.Line2,
			City:        addr.City,
			Region:      addr.Region,
			PostalCode:  addr.PostalCode,
			CountryCode: addr.CountryCode,
			Phone:       addr.Phone,
			Residential: addr.Residential,
		},
		Items:    items,
		PlacedAt: order.CreatedAt,
	}
}
