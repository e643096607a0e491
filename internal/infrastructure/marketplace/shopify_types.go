package marketplace

// Wire types for the Shopify Admin REST API. Only the fields the hub reads
// or writes are modeled. Monetary amounts arrive as strings and are parsed
// into decimals during translation.

// ShopifyCredentials is the connection credential blob for Shopify.
type ShopifyCredentials struct {
	// ShopDomain is the myshopify.com subdomain, e.g. "acme" for
	// acme.myshopify.com.
	ShopDomain string `json:"shopDomain"`
	// AccessToken is the Admin API access token.
	AccessToken string `json:"accessToken"`
	// WebhookSecret signs inbound webhook payloads.
	WebhookSecret string `json:"webhookSecret"`
}

type shopifyAddress struct {
	Name     string `json:"name"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	Province string `json:"province_code"`
	Zip      string `json:"zip"`
	Country  string `json:"country_code"`
	Phone    string `json:"phone"`
}

type shopifyLineItem struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Quantity     int    `json:"quantity"`
	Price        string `json:"price"`
	SKU          string `json:"sku"`
	VariantTitle string `json:"variant_title"`
}

type shopifyOrder struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	TotalPrice        string            `json:"total_price"`
	Currency          string            `json:"currency"`
	FinancialStatus   string            `json:"financial_status"`
	FulfillmentStatus string            `json:"fulfillment_status"`
	CancelledAt       *string           `json:"cancelled_at"`
	CreatedAt         string            `json:"created_at"`
	ShippingAddress   *shopifyAddress   `json:"shipping_address"`
	LineItems         []shopifyLineItem `json:"line_items"`
}

type shopifyOrdersResponse struct {
	Orders []shopifyOrder `json:"orders"`
}

type shopifyShopResponse struct {
	Shop struct {
		Name string `json:"name"`
	} `json:"shop"`
}

// --- fulfillment ---

type shopifyFulfillmentOrdersResponse struct {
	FulfillmentOrders []struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	} `json:"fulfillment_orders"`
}

type shopifyFulfillmentRequest struct {
	Fulfillment struct {
		TrackingInfo struct {
			Number  string `json:"number"`
			Company string `json:"company"`
		} `json:"tracking_info"`
		NotifyCustomer              bool `json:"notify_customer"`
		LineItemsByFulfillmentOrder []struct {
			FulfillmentOrderID int64 `json:"fulfillment_order_id"`
		} `json:"line_items_by_fulfillment_order"`
	} `json:"fulfillment"`
}
