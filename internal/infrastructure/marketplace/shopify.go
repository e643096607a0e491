// Package marketplace contains the platform-side connector implementations
// of the integration hub. Each adapter translates one e-commerce platform's
// order and webhook conventions into the uniform MarketplaceConnector
// contract; webhook payloads are authenticated before any field is trusted.
package marketplace

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
	"github.com/Carloscisneroides/logistica-sub001/internal/infrastructure/httpclient"
)

const shopifyAPIVersion = "2024-01"

// ShopifyAdapter implements MarketplaceConnector for the Shopify Admin REST
// API. Authentication is a static access token; webhooks are authenticated
// with a base64 HMAC-SHA256 over the raw payload.
type ShopifyAdapter struct {
	cfg     *integration.ProviderConfig
	creds   ShopifyCredentials
	client  *httpclient.Client
	baseURL string
	logger  *zap.Logger
}

// NewShopifyAdapter creates a Shopify adapter bound to one provider connection.
func NewShopifyAdapter(cfg *integration.ProviderConfig, client *httpclient.Client, logger *zap.Logger) (*ShopifyAdapter, error) {
	var creds ShopifyCredentials
	if err := cfg.DecodeCredentials(&creds); err != nil {
		return nil, fmt.Errorf("%w: shopify credentials: %v", integration.ErrProviderAuth, err)
	}
	if creds.ShopDomain == "" || creds.AccessToken == "" {
		return nil, fmt.Errorf("%w: shopify requires shopDomain and accessToken", integration.ErrProviderAuth)
	}
	return &ShopifyAdapter{
		cfg:     cfg,
		creds:   creds,
		client:  client,
		baseURL: fmt.Sprintf("https://%s.myshopify.com/admin/api/%s", creds.ShopDomain, shopifyAPIVersion),
		logger:  logger,
	}, nil
}

// Code returns the provider code this adapter handles
func (a *ShopifyAdapter) Code() integration.ProviderCode {
	return integration.ProviderCodeShopify
}

// call performs a token-authenticated JSON call against the Admin API.
func (a *ShopifyAdapter) call(ctx context.Context, method, path string, payload any) (*httpclient.Response, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: encoding request: %v", integration.ErrProviderRequest, err)
		}
	}

	return a.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("X-Shopify-Access-Token", a.creds.AccessToken)
		return req, nil
	})
}

// TestConnection validates the credentials with a read-only shop lookup.
func (a *ShopifyAdapter) TestConnection(ctx context.Context) integration.TestResult {
	resp, err := a.call(ctx, http.MethodGet, "/shop.json", nil)
	if err != nil {
		return integration.TestResult{Success: false, Message: "Shopify rejected the credentials"}
	}
	var shop shopifyShopResponse
	if err := json.Unmarshal(resp.Body, &shop); err != nil || shop.Shop.Name == "" {
		return integration.TestResult{Success: false, Message: "Shopify returned an unexpected response"}
	}
	return integration.TestResult{Success: true, Message: "Connected to shop " + shop.Shop.Name}
}

// SyncOrders pulls orders updated after since, normalized. A nil since is a
// full backfill.
func (a *ShopifyAdapter) SyncOrders(ctx context.Context, since *time.Time) ([]integration.NormalizedOrder, error) {
	query := url.Values{}
	query.Set("status", "any")
	query.Set("limit", "250")
	if since != nil {
		query.Set("updated_at_min", since.UTC().Format(time.RFC3339))
	}

	resp, err := a.call(ctx, http.MethodGet, "/orders.json?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var ordersResp shopifyOrdersResponse
	if err := json.Unmarshal(resp.Body, &ordersResp); err != nil {
		return nil, fmt.Errorf("%w: parsing orders response: %v", integration.ErrProviderUnavailable, err)
	}

	orders := make([]integration.NormalizedOrder, 0, len(ordersResp.Orders))
	for _, raw := range ordersResp.Orders {
		order, err := translateShopifyOrder(&raw)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

// PushFulfillment records a shipment against an order. Shopify fulfils
// through fulfillment orders, so this is a lookup followed by a create.
func (a *ShopifyAdapter) PushFulfillment(ctx context.Context, externalOrderID, carrier, trackingNumber string) error {
	resp, err := a.call(ctx, http.MethodGet, "/orders/"+externalOrderID+"/fulfillment_orders.json", nil)
	if err != nil {
		return err
	}
	var fulfillmentOrders shopifyFulfillmentOrdersResponse
	if err := json.Unmarshal(resp.Body, &fulfillmentOrders); err != nil {
		return fmt.Errorf("%w: parsing fulfillment orders: %v", integration.ErrProviderUnavailable, err)
	}

	var payload shopifyFulfillmentRequest
	payload.Fulfillment.TrackingInfo.Number = trackingNumber
	payload.Fulfillment.TrackingInfo.Company = carrier
	payload.Fulfillment.NotifyCustomer = true
	for _, fo := range fulfillmentOrders.FulfillmentOrders {
		if fo.Status != "open" && fo.Status != "in_progress" {
			continue
		}
		payload.Fulfillment.LineItemsByFulfillmentOrder = append(
			payload.Fulfillment.LineItemsByFulfillmentOrder,
			struct {
				FulfillmentOrderID int64 `json:"fulfillment_order_id"`
			}{FulfillmentOrderID: fo.ID},
		)
	}
	if len(payload.Fulfillment.LineItemsByFulfillmentOrder) == 0 {
		return fmt.Errorf("%w: order %s has no open fulfillment orders",
			integration.ErrProviderRequest, externalOrderID)
	}

	_, err = a.call(ctx, http.MethodPost, "/fulfillments.json", payload)
	return err
}

// WebhookRequestInfo extracts Shopify's webhook headers.
func (a *ShopifyAdapter) WebhookRequestInfo(header http.Header) (topic, signature, eventID string) {
	return header.Get("X-Shopify-Topic"),
		header.Get("X-Shopify-Hmac-Sha256"),
		header.Get("X-Shopify-Webhook-Id")
}

// VerifyWebhookSignature checks the base64 HMAC-SHA256 Shopify computes over
// the raw payload with the shared webhook secret.
func (a *ShopifyAdapter) VerifyWebhookSignature(body []byte, signature string) bool {
	if a.creds.WebhookSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(a.creds.WebhookSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// TranslateWebhook maps a Shopify topic and payload to a SyncAction.
// Unrecognized topics are explicitly ignored.
func (a *ShopifyAdapter) TranslateWebhook(topic string, body []byte) (*integration.SyncAction, error) {
	switch topic {
	case "orders/create", "orders/updated", "orders/paid":
		var raw shopifyOrder
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("%w: parsing order payload: %v", integration.ErrProviderRequest, err)
		}
		order, err := translateShopifyOrder(&raw)
		if err != nil {
			return nil, err
		}
		return &integration.SyncAction{
			Kind:            integration.SyncActionUpsertOrder,
			Order:           order,
			ExternalOrderID: order.ExternalOrderID,
			Topic:           topic,
		}, nil

	case "orders/cancelled":
		id, err := shopifyOrderID(body)
		if err != nil {
			return nil, err
		}
		return &integration.SyncAction{
			Kind:            integration.SyncActionCancelOrder,
			ExternalOrderID: id,
			Topic:           topic,
		}, nil

	case "orders/fulfilled":
		id, err := shopifyOrderID(body)
		if err != nil {
			return nil, err
		}
		return &integration.SyncAction{
			Kind:            integration.SyncActionMarkFulfilled,
			ExternalOrderID: id,
			Topic:           topic,
		}, nil

	default:
		return integration.IgnoreAction(topic), nil
	}
}

func shopifyOrderID(body []byte) (string, error) {
	var envelope struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.ID == 0 {
		return "", fmt.Errorf("%w: order payload has no id", integration.ErrProviderRequest)
	}
	return strconv.FormatInt(envelope.ID, 10), nil
}

// translateShopifyOrder normalizes one Shopify order.
func translateShopifyOrder(raw *shopifyOrder) (*integration.NormalizedOrder, error) {
	if raw.ID == 0 {
		return nil, fmt.Errorf("%w: order payload has no id", integration.ErrProviderRequest)
	}
	total, err := decimal.NewFromString(raw.TotalPrice)
	if err != nil {
		return nil, fmt.Errorf("%w: bad total_price %q: %v",
			integration.ErrProviderRequest, raw.TotalPrice, err)
	}

	order := &integration.NormalizedOrder{
		ExternalOrderID: strconv.FormatInt(raw.ID, 10),
		OrderNumber:     raw.Name,
		CustomerEmail:   raw.Email,
		TotalAmount:     total,
		Currency:        raw.Currency,
		Status:          mapShopifyOrderStatus(raw),
		Items:           make([]integration.OrderItem, 0, len(raw.LineItems)),
	}
	if ts, err := time.Parse(time.RFC3339, raw.CreatedAt); err == nil {
		order.CreatedAt = ts
	}
	if addr := raw.ShippingAddress; addr != nil {
		order.ShippingAddress = integration.NormalizedAddress{
			Name:        addr.Name,
			Line1:       addr.Address1,
			Line2:       addr.Address2,
			City:        addr.City,
			Region:      addr.Province,
			PostalCode:  addr.Zip,
			CountryCode: addr.Country,
			Phone:       addr.Phone,
		}
	}
	for _, line := range raw.LineItems {
		price, err := decimal.NewFromString(line.Price)
		if err != nil {
			return nil, fmt.Errorf("%w: bad line item price %q: %v",
				integration.ErrProviderRequest, line.Price, err)
		}
		order.Items = append(order.Items, integration.OrderItem{
			ExternalItemID: strconv.FormatInt(line.ID, 10),
			Title:          line.Title,
			Quantity:       line.Quantity,
			UnitPrice:      price,
			SKU:            line.SKU,
			VariantLabel:   line.VariantTitle,
		})
	}
	return order, nil
}

// mapShopifyOrderStatus collapses Shopify's two-axis status (financial +
// fulfillment) into the normalized enumeration. Absorbing states win.
func mapShopifyOrderStatus(raw *shopifyOrder) integration.OrderStatus {
	if raw.CancelledAt != nil && *raw.CancelledAt != "" {
		return integration.OrderStatusCancelled
	}
	if raw.FinancialStatus == "refunded" {
		return integration.OrderStatusRefunded
	}
	switch raw.FulfillmentStatus {
	case "fulfilled":
		return integration.OrderStatusFulfilled
	case "partial":
		return integration.OrderStatusPartiallyFulfilled
	}
	if raw.FinancialStatus == "paid" || raw.FinancialStatus == "partially_refunded" {
		return integration.OrderStatusPaid
	}
	return integration.OrderStatusNew
}

// Ensure ShopifyAdapter implements MarketplaceConnector
var _ integration.MarketplaceConnector = (*ShopifyAdapter)(nil)
