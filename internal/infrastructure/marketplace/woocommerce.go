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
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
	"github.com/Carloscisneroides/logistica-sub001/internal/infrastructure/httpclient"
)

// WooCommerceAdapter implements MarketplaceConnector for the WooCommerce
// REST API (wc/v3). Authentication is basic auth with the consumer key pair;
// webhooks are authenticated with a base64 HMAC-SHA256 over the raw payload.
type WooCommerceAdapter struct {
	cfg     *integration.ProviderConfig
	creds   WooCommerceCredentials
	client  *httpclient.Client
	baseURL string
	logger  *zap.Logger
}

// NewWooCommerceAdapter creates a WooCommerce adapter bound to one provider
// connection.
func NewWooCommerceAdapter(cfg *integration.ProviderConfig, client *httpclient.Client, logger *zap.Logger) (*WooCommerceAdapter, error) {
	var creds WooCommerceCredentials
	if err := cfg.DecodeCredentials(&creds); err != nil {
		return nil, fmt.Errorf("%w: woocommerce credentials: %v", integration.ErrProviderAuth, err)
	}
	if creds.StoreURL == "" || creds.ConsumerKey == "" || creds.ConsumerSecret == "" {
		return nil, fmt.Errorf("%w: woocommerce requires storeUrl, consumerKey and consumerSecret", integration.ErrProviderAuth)
	}
	return &WooCommerceAdapter{
		cfg:     cfg,
		creds:   creds,
		client:  client,
		baseURL: strings.TrimRight(creds.StoreURL, "/") + "/wp-json/wc/v3",
		logger:  logger,
	}, nil
}

// Code returns the provider code this adapter handles
func (a *WooCommerceAdapter) Code() integration.ProviderCode {
	return integration.ProviderCodeWooCommerce
}

// call performs a basic-authenticated JSON call against the store API.
func (a *WooCommerceAdapter) call(ctx context.Context, method, path string, payload any) (*httpclient.Response, error) {
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
		req.SetBasicAuth(a.creds.ConsumerKey, a.creds.ConsumerSecret)
		return req, nil
	})
}

// TestConnection validates the credentials with a minimal read-only order
// listing.
func (a *WooCommerceAdapter) TestConnection(ctx context.Context) integration.TestResult {
	if _, err := a.call(ctx, http.MethodGet, "/orders?per_page=1", nil); err != nil {
		return integration.TestResult{Success: false, Message: "WooCommerce rejected the credentials"}
	}
	return integration.TestResult{Success: true, Message: "WooCommerce credentials accepted"}
}

// SyncOrders pulls orders modified after since, normalized. A nil since is a
// full backfill.
func (a *WooCommerceAdapter) SyncOrders(ctx context.Context, since *time.Time) ([]integration.NormalizedOrder, error) {
	query := url.Values{}
	query.Set("per_page", "100")
	query.Set("orderby", "modified")
	query.Set("order", "asc")
	if since != nil {
		query.Set("modified_after", since.UTC().Format("2006-01-02T15:04:05"))
	}

	resp, err := a.call(ctx, http.MethodGet, "/orders?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var rawOrders []wooOrder
	if err := json.Unmarshal(resp.Body, &rawOrders); err != nil {
		return nil, fmt.Errorf("%w: parsing orders response: %v", integration.ErrProviderUnavailable, err)
	}

	orders := make([]integration.NormalizedOrder, 0, len(rawOrders))
	for _, raw := range rawOrders {
		order, err := translateWooOrder(&raw)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

// PushFulfillment records a shipment against an order. WooCommerce core has
// no fulfillment object, so the shipment is written as order metadata and
// the order is completed.
func (a *WooCommerceAdapter) PushFulfillment(ctx context.Context, externalOrderID, carrier, trackingNumber string) error {
	update := wooOrderUpdate{
		Status: "completed",
		MetaData: []wooMetaData{
			{Key: "_shipping_carrier", Value: carrier},
			{Key: "_tracking_number", Value: trackingNumber},
		},
	}
	_, err := a.call(ctx, http.MethodPut, "/orders/"+externalOrderID, update)
	return err
}

// WebhookRequestInfo extracts WooCommerce's webhook headers.
func (a *WooCommerceAdapter) WebhookRequestInfo(header http.Header) (topic, signature, eventID string) {
	return header.Get("X-WC-Webhook-Topic"),
		header.Get("X-WC-Webhook-Signature"),
		header.Get("X-WC-Webhook-Delivery-ID")
}

// VerifyWebhookSignature checks the base64 HMAC-SHA256 WooCommerce computes
// over the raw payload with the webhook's shared secret.
func (a *WooCommerceAdapter) VerifyWebhookSignature(body []byte, signature string) bool {
	if a.creds.WebhookSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(a.creds.WebhookSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// TranslateWebhook maps a WooCommerce topic and payload to a SyncAction.
// Unrecognized topics are explicitly ignored. WooCommerce sends full order
// payloads on every order topic, so cancellation and refund arrive as
// updates whose status translation lands in an absorbing state.
func (a *WooCommerceAdapter) TranslateWebhook(topic string, body []byte) (*integration.SyncAction, error) {
	switch topic {
	case "order.created", "order.updated", "order.restored":
		var raw wooOrder
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("%w: parsing order payload: %v", integration.ErrProviderRequest, err)
		}
		order, err := translateWooOrder(&raw)
		if err != nil {
			return nil, err
		}
		return &integration.SyncAction{
			Kind:            integration.SyncActionUpsertOrder,
			Order:           order,
			ExternalOrderID: order.ExternalOrderID,
			Topic:           topic,
		}, nil

	case "order.deleted":
		var envelope struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil || envelope.ID == 0 {
			return nil, fmt.Errorf("%w: order payload has no id", integration.ErrProviderRequest)
		}
		return &integration.SyncAction{
			Kind:            integration.SyncActionCancelOrder,
			ExternalOrderID: strconv.FormatInt(envelope.ID, 10),
			Topic:           topic,
		}, nil

	default:
		return integration.IgnoreAction(topic), nil
	}
}

// translateWooOrder normalizes one WooCommerce order.
func translateWooOrder(raw *wooOrder) (*integration.NormalizedOrder, error) {
	if raw.ID == 0 {
		return nil, fmt.Errorf("%w: order payload has no id", integration.ErrProviderRequest)
	}
	total, err := decimal.NewFromString(raw.Total)
	if err != nil {
		return nil, fmt.Errorf("%w: bad order total %q: %v",
			integration.ErrProviderRequest, raw.Total, err)
	}
	status, err := mapWooOrderStatus(raw.Status)
	if err != nil {
		return nil, err
	}

	order := &integration.NormalizedOrder{
		ExternalOrderID: strconv.FormatInt(raw.ID, 10),
		OrderNumber:     raw.Number,
		CustomerEmail:   raw.Billing.Email,
		TotalAmount:     total,
		Currency:        raw.Currency,
		Status:          status,
		ShippingAddress: toNormalizedWooAddress(raw.Shipping, raw.Billing),
		Items:           make([]integration.OrderItem, 0, len(raw.LineItems)),
	}
	if ts, err := time.Parse("2006-01-02T15:04:05", raw.DateCreated); err == nil {
		order.CreatedAt = ts.UTC()
	}
	for _, line := range raw.LineItems {
		order.Items = append(order.Items, integration.OrderItem{
			ExternalItemID: strconv.FormatInt(line.ID, 10),
			Title:          line.Name,
			Quantity:       line.Quantity,
			UnitPrice:      decimal.NewFromFloat(line.Price),
			SKU:            line.SKU,
		})
	}
	return order, nil
}

// wooOrderStatuses is the exhaustive mapping from WooCommerce order statuses
// to the normalized closed enumeration. An unmapped status is a
// MappingError, never silently dropped.
var wooOrderStatuses = map[string]integration.OrderStatus{
	"pending":    integration.OrderStatusNew,
	"on-hold":    integration.OrderStatusNew,
	"processing": integration.OrderStatusPaid,
	"completed":  integration.OrderStatusFulfilled,
	"cancelled":  integration.OrderStatusCancelled,
	"failed":     integration.OrderStatusCancelled,
	"refunded":   integration.OrderStatusRefunded,
	"trash":      integration.OrderStatusCancelled,
}

func mapWooOrderStatus(status string) (integration.OrderStatus, error) {
	if mapped, ok := wooOrderStatuses[status]; ok {
		return mapped, nil
	}
	return "", integration.NewMappingError(integration.ProviderCodeWooCommerce, "order status", status)
}

// toNormalizedWooAddress prefers the shipping block and falls back to
// billing per field group; stores frequently leave shipping empty for
// digital or pickup orders.
func toNormalizedWooAddress(shipping, billing wooAddress) integration.NormalizedAddress {
	src := shipping
	if src.Address1 == "" && src.City == "" {
		src = billing
	}
	return integration.NormalizedAddress{
		Name:        strings.TrimSpace(src.FirstName + " " + src.LastName),
		Line1:       src.Address1,
		Line2:       src.Address2,
		City:        src.City,
		Region:      src.State,
		PostalCode:  src.Postcode,
		CountryCode: src.Country,
		Phone:       billing.Phone,
	}
}

// Ensure WooCommerceAdapter implements MarketplaceConnector
var _ integration.MarketplaceConnector = (*WooCommerceAdapter)(nil)
