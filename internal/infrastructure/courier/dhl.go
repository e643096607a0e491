package courier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
	"github.com/Carloscisneroides/logistica-sub001/internal/infrastructure/httpclient"
)

const (
	dhlProductionURL = "https://express.api.dhl.com/mydhlapi"
	dhlSandboxURL    = "https://express.api.dhl.com/mydhlapi/test"
)

// DHLAdapter implements CourierConnector for the DHL Express (MyDHL) REST
// API. DHL uses static basic-auth credentials, so no token manager is
// involved; every request carries the credentials directly.
type DHLAdapter struct {
	cfg     *integration.ProviderConfig
	creds   DHLCredentials
	client  *httpclient.Client
	baseURL string
	logger  *zap.Logger
}

// NewDHLAdapter creates a DHL Express adapter bound to one provider connection.
func NewDHLAdapter(cfg *integration.ProviderConfig, client *httpclient.Client, logger *zap.Logger) (*DHLAdapter, error) {
	var creds DHLCredentials
	if err := cfg.DecodeCredentials(&creds); err != nil {
		return nil, fmt.Errorf("%w: dhl credentials: %v", integration.ErrProviderAuth, err)
	}
	if creds.Username == "" || creds.Password == "" || creds.AccountNumber == "" {
		return nil, fmt.Errorf("%w: dhl requires username, password and accountNumber", integration.ErrProviderAuth)
	}
	baseURL := dhlProductionURL
	if cfg.Sandbox {
		baseURL = dhlSandboxURL
	}
	return &DHLAdapter{
		cfg:     cfg,
		creds:   creds,
		client:  client,
		baseURL: baseURL,
		logger:  logger,
	}, nil
}

// Code returns the provider code this adapter handles
func (a *DHLAdapter) Code() integration.ProviderCode {
	return integration.ProviderCodeDHL
}

// call performs a basic-authenticated JSON call against the DHL API.
func (a *DHLAdapter) call(ctx context.Context, method, path string, payload any, once bool) (*httpclient.Response, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: encoding request: %v", integration.ErrProviderRequest, err)
		}
	}

	build := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.SetBasicAuth(a.creds.Username, a.creds.Password)
		return req, nil
	}

	if once {
		return a.client.DoOnce(ctx, build)
	}
	return a.client.Do(ctx, build)
}

// TestConnection validates the credentials with a read-only rate probe
// between two fixed addresses. No remote state is mutated.
func (a *DHLAdapter) TestConnection(ctx context.Context) integration.TestResult {
	probe := a.rateRequest(&integration.RateRequest{
		From: integration.NormalizedAddress{PostalCode: "10115", City: "Berlin", CountryCode: "DE"},
		To:   integration.NormalizedAddress{PostalCode: "28013", City: "Madrid", CountryCode: "ES"},
		Parcels: []integration.Parcel{
			{WeightKg: decimal.NewFromInt(1)},
		},
	})

	if _, err := a.call(ctx, http.MethodPost, "/rates", probe, false); err != nil {
		if isProviderRejection(err) {
			// The account reached the API; a product-availability rejection
			// still proves the credentials work.
			return integration.TestResult{Success: true, Message: "DHL credentials accepted"}
		}
		return integration.TestResult{Success: false, Message: "DHL rejected the credentials"}
	}
	return integration.TestResult{Success: true, Message: "DHL credentials accepted"}
}

// GetRates returns raw DHL product quotes in provider order; markup is
// applied by the pricing engine, not here.
func (a *DHLAdapter) GetRates(ctx context.Context, req *integration.RateRequest) ([]integration.RateQuote, error) {
	resp, err := a.call(ctx, http.MethodPost, "/rates", a.rateRequest(req), false)
	if err != nil {
		return nil, err
	}

	var rateResp dhlRateResponse
	if err := json.Unmarshal(resp.Body, &rateResp); err != nil {
		return nil, fmt.Errorf("%w: parsing rate response: %v", integration.ErrProviderUnavailable, err)
	}

	quotes := make([]integration.RateQuote, 0, len(rateResp.Products))
	for _, product := range rateResp.Products {
		if len(product.TotalPrice) == 0 {
			continue
		}
		price := product.TotalPrice[0]
		quote := integration.RateQuote{
			ServiceCode: product.ProductCode,
			ServiceName: product.ProductName,
			BaseCharge:  decimal.NewFromFloat(price.Price),
			NetCharge:   decimal.NewFromFloat(price.Price),
			Currency:    price.PriceCurrency,
		}
		if eta := product.DeliveryCapabilities.EstimatedDeliveryDateAndTime; eta != "" {
			if ts, err := time.Parse("2006-01-02T15:04:05", eta); err == nil {
				quote.EstimatedDelivery = &ts
			}
		}
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

// PurchaseLabel buys a label in a single attempt. The caller's idempotency
// key is forwarded as the DHL request id so the provider can deduplicate a
// resubmission, but the hub itself never retries an ambiguous failure.
func (a *DHLAdapter) PurchaseLabel(ctx context.Context, req *integration.LabelRequest) (*integration.LabelPurchaseResult, error) {
	payload := dhlShipmentRequest{
		PlannedShippingDateAndTime: time.Now().Format("2006-01-02T15:04:05 GMT-00:00"),
		ProductCode:                req.ServiceCode,
		Accounts: []dhlAccount{
			{TypeCode: "shipper", Number: a.creds.AccountNumber},
		},
		RequestID: req.IdempotencyKey,
	}
	payload.CustomerDetails.ShipperDetails = toDHLParty(req.From)
	payload.CustomerDetails.ReceiverDetails = toDHLParty(req.To)
	payload.Content.Packages = toDHLPackages(req.Parcels)
	payload.Content.UnitOfMeasurement = "metric"
	payload.Content.Description = req.Reference
	if req.Reference != "" {
		payload.CustomerReferences = []struct {
			Value string `json:"value"`
		}{{Value: req.Reference}}
	}

	resp, err := a.call(ctx, http.MethodPost, "/shipments", payload, true)
	if err != nil {
		return nil, err
	}

	var shipResp dhlShipmentResponse
	if err := json.Unmarshal(resp.Body, &shipResp); err != nil {
		return nil, fmt.Errorf("%w: parsing shipment response: %v", integration.ErrProviderUnavailable, err)
	}
	if shipResp.ShipmentTrackingNumber == "" {
		return &integration.LabelPurchaseResult{Success: false, ErrorMessage: "DHL returned no tracking number"}, nil
	}

	result := &integration.LabelPurchaseResult{
		Success:        true,
		TrackingNumber: shipResp.ShipmentTrackingNumber,
	}
	for _, charge := range shipResp.ShipmentCharges {
		if charge.CurrencyType == "BILLC" || result.Currency == "" {
			result.Cost = decimal.NewFromFloat(charge.Price)
			result.Currency = charge.Currency
		}
	}
	for _, doc := range shipResp.Documents {
		if doc.TypeCode != "label" {
			continue
		}
		content, err := base64.StdEncoding.DecodeString(doc.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: decoding label: %v", integration.ErrProviderUnavailable, err)
		}
		contentType := "application/pdf"
		if doc.ImageFormat != "" && doc.ImageFormat != "PDF" {
			contentType = "image/" + doc.ImageFormat
		}
		result.Label = &integration.LabelArtifact{Content: content, ContentType: contentType}
		break
	}
	return result, nil
}

// TrackShipment returns the normalized tracking state. Idempotent.
func (a *DHLAdapter) TrackShipment(ctx context.Context, trackingNumber string) (*integration.TrackingSnapshot, error) {
	resp, err := a.call(ctx, http.MethodGet, "/shipments/"+trackingNumber+"/tracking", nil, false)
	if err != nil {
		return nil, err
	}

	var trackResp dhlTrackingResponse
	if err := json.Unmarshal(resp.Body, &trackResp); err != nil {
		return nil, fmt.Errorf("%w: parsing tracking response: %v", integration.ErrProviderUnavailable, err)
	}
	if len(trackResp.Shipments) == 0 {
		return nil, fmt.Errorf("%w: no tracking results for %s", integration.ErrProviderRequest, trackingNumber)
	}

	shipment := trackResp.Shipments[0]
	snapshot := &integration.TrackingSnapshot{
		TrackingNumber: trackingNumber,
		Events:         make([]integration.TrackingEvent, 0, len(shipment.Events)),
	}

	// DHL returns checkpoints newest first; the snapshot keeps them oldest
	// first and derives the current status from the newest checkpoint.
	for i := len(shipment.Events) - 1; i >= 0; i-- {
		checkpoint := shipment.Events[i]
		event := integration.TrackingEvent{
			EventType:   checkpoint.TypeCode,
			Description: checkpoint.Description,
		}
		if len(checkpoint.ServiceArea) > 0 {
			event.Location = checkpoint.ServiceArea[0].Description
		}
		if ts, err := time.Parse("2006-01-02 15:04:05", checkpoint.Date+" "+checkpoint.Time); err == nil {
			event.Timestamp = ts
		}
		snapshot.Events = append(snapshot.Events, event)
	}

	latest := shipment.Events[0]
	status, err := MapDHLTrackingStatus(latest.TypeCode)
	if err != nil {
		return nil, err
	}
	snapshot.Status = status
	if len(latest.ServiceArea) > 0 {
		snapshot.LastLocation = latest.ServiceArea[0].Description
	}
	return snapshot, nil
}

// CancelShipment voids a not-yet-tendered shipment. A provider rejection
// because the shipment already moved is an expected false, not an error.
func (a *DHLAdapter) CancelShipment(ctx context.Context, trackingNumber string) (bool, error) {
	_, err := a.call(ctx, http.MethodDelete, "/shipments/"+trackingNumber, nil, false)
	if err != nil {
		if isProviderRejection(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// dhlTrackingStatuses is the exhaustive mapping from DHL Express checkpoint
// type codes to the normalized closed enumeration. An unmapped code is a
// MappingError, never silently dropped.
var dhlTrackingStatuses = map[string]integration.TrackingStatus{
	"SD": integration.TrackingStatusPreTransit,     // shipment data received
	"PU": integration.TrackingStatusInTransit,      // picked up
	"PL": integration.TrackingStatusInTransit,      // processed at location
	"DF": integration.TrackingStatusInTransit,      // departed facility
	"AF": integration.TrackingStatusInTransit,      // arrived at facility
	"AR": integration.TrackingStatusInTransit,      // arrived at delivery facility
	"CC": integration.TrackingStatusInTransit,      // customs cleared
	"WC": integration.TrackingStatusOutForDelivery, // with delivery courier
	"OK": integration.TrackingStatusDelivered,      // delivered
	"DD": integration.TrackingStatusDelivered,      // delivered, signature on file
	"NH": integration.TrackingStatusException,      // not home / delivery attempt failed
	"OH": integration.TrackingStatusException,      // on hold
	"CD": integration.TrackingStatusException,      // customs delay
	"RT": integration.TrackingStatusReturned,       // returned to shipper
	"CA": integration.TrackingStatusCancelled,      // shipment cancelled
}

// MapDHLTrackingStatus collapses a DHL checkpoint type code into the
// normalized enumeration.
func MapDHLTrackingStatus(code string) (integration.TrackingStatus, error) {
	if status, ok := dhlTrackingStatuses[code]; ok {
		return status, nil
	}
	return "", integration.NewMappingError(integration.ProviderCodeDHL, "tracking status", code)
}

func (a *DHLAdapter) rateRequest(req *integration.RateRequest) dhlRateRequest {
	payload := dhlRateRequest{
		Accounts: []dhlAccount{
			{TypeCode: "shipper", Number: a.creds.AccountNumber},
		},
		UnitOfMeasurement: "metric",
		Packages:          toDHLPackages(req.Parcels),
	}
	payload.CustomerDetails.ShipperDetails = toDHLAddress(req.From)
	payload.CustomerDetails.ReceiverDetails = toDHLAddress(req.To)
	if !req.ShipDate.IsZero() {
		payload.PlannedShippingDateAndTime = req.ShipDate.Format("2006-01-02T15:04:05 GMT-00:00")
	}
	return payload
}

func toDHLAddress(addr integration.NormalizedAddress) dhlAddress {
	return dhlAddress{
		PostalCode:   addr.PostalCode,
		CityName:     addr.City,
		CountryCode:  addr.CountryCode,
		AddressLine1: addr.Line1,
		AddressLine2: addr.Line2,
	}
}

func toDHLParty(addr integration.NormalizedAddress) dhlParty {
	return dhlParty{
		PostalAddress: toDHLAddress(addr),
		ContactInformation: dhlContact{
			FullName: addr.Name,
			Phone:    addr.Phone,
		},
	}
}

func toDHLPackages(parcels []integration.Parcel) []dhlPackage {
	packages := make([]dhlPackage, 0, len(parcels))
	for _, p := range parcels {
		pkg := dhlPackage{Weight: p.WeightKg.InexactFloat64()}
		pkg.Dimensions.Length = p.LengthCm.InexactFloat64()
		pkg.Dimensions.Width = p.WidthCm.InexactFloat64()
		pkg.Dimensions.Height = p.HeightCm.InexactFloat64()
		packages = append(packages, pkg)
	}
	return packages
}

// Ensure DHLAdapter implements CourierConnector
var _ integration.CourierConnector = (*DHLAdapter)(nil)
