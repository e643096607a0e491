package marketplace

// Wire types for the WooCommerce REST API (wc/v3). Only the fields the hub
// reads or writes are modeled.

// WooCommerceCredentials is the connection credential blob for WooCommerce.
type WooCommerceCredentials struct {
	// StoreURL is the base URL of the WordPress site, without trailing slash.
	StoreURL string `json:"storeUrl"`
	// ConsumerKey and ConsumerSecret are the REST API key pair.
	ConsumerKey    string `json:"consumerKey"`
	ConsumerSecret string `json:"consumerSecret"`
	// WebhookSecret signs inbound webhook payloads.
	WebhookSecret string `json:"webhookSecret"`
}

type wooAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

type wooLineItem struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    float64 `json:"price"`
	SKU      string `json:"sku"`
}

type wooOrder struct {
	ID          int64         `json:"id"`
	Number      string        `json:"number"`
	Status      string        `json:"status"`
	Currency    string        `json:"currency"`
	Total       string        `json:"total"`
	DateCreated string        `json:"date_created_gmt"`
	Billing     wooAddress    `json:"billing"`
	Shipping    wooAddress    `json:"shipping"`
	LineItems   []wooLineItem `json:"line_items"`
}

type wooOrderUpdate struct {
	Status   string        `json:"status,omitempty"`
	MetaData []wooMetaData `json:"meta_data,omitempty"`
}

type wooMetaData struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
