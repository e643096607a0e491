// Package courier contains the carrier-side connector implementations of the
// integration hub. Each adapter translates one carrier's wire protocol into
// the uniform CourierConnector contract and owns an exhaustive mapping from
// the carrier's status vocabulary to the normalized tracking statuses.
package courier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
	"github.com/Carloscisneroides/logistica-sub001/internal/infrastructure/authtoken"
	"github.com/Carloscisneroides/logistica-sub001/internal/infrastructure/httpclient"
)

const (
	fedexProductionURL = "https://apis.fedex.com"
	fedexSandboxURL    = "https://apis-sandbox.fedex.com"
)

// FedExAdapter implements CourierConnector for the FedEx REST APIs.
// Authentication is OAuth client-credentials through the token manager.
type FedExAdapter struct {
	cfg     *integration.ProviderConfig
	creds   FedExCredentials
	client  *httpclient.Client
	tokens  *authtoken.Manager
	baseURL string
	logger  *zap.Logger
}

// NewFedExAdapter creates a FedEx adapter bound to one provider connection.
func NewFedExAdapter(cfg *integration.ProviderConfig, client *httpclient.Client, tokens *authtoken.Manager, logger *zap.Logger) (*FedExAdapter, error) {
	var creds FedExCredentials
	if err := cfg.DecodeCredentials(&creds); err != nil {
		return nil, fmt.Errorf("%w: fedex credentials: %v", integration.ErrProviderAuth, err)
	}
	if creds.ClientID == "" || creds.ClientSecret == "" || creds.AccountNumber == "" {
		return nil, fmt.Errorf("%w: fedex requires clientId, clientSecret and accountNumber", integration.ErrProviderAuth)
	}
	baseURL := fedexProductionURL
	if cfg.Sandbox {
		baseURL = fedexSandboxURL
	}
	return &FedExAdapter{
		cfg:     cfg,
		creds:   creds,
		client:  client,
		tokens:  tokens,
		baseURL: baseURL,
		logger:  logger,
	}, nil
}

// Code returns the provider code this adapter handles
func (a *FedExAdapter) Code() integration.ProviderCode {
	return integration.ProviderCodeFedEx
}

// tokenSource fetches a bearer token from the FedEx OAuth endpoint.
func (a *FedExAdapter) tokenSource() authtoken.Source {
	return authtoken.SourceFunc(func(ctx context.Context) (*authtoken.Token, error) {
		form := url.Values{}
		form.Set("grant_type", "client_credentials")
		form.Set("client_id", a.creds.ClientID)
		form.Set("client_secret", a.creds.ClientSecret)

		resp, err := a.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost,
				a.baseURL+"/oauth/token", strings.NewReader(form.Encode()))
			if err != nil {
				return nil, err
			}
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			return req, nil
		})
		if err != nil {
			return nil, err
		}

		var tok fedexTokenResponse
		if err := json.Unmarshal(resp.Body, &tok); err != nil {
			return nil, fmt.Errorf("parsing token response: %w", err)
		}
		return &authtoken.Token{
			AccessToken: tok.AccessToken,
			ExpiresAt:   time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second),
		}, nil
	})
}

// postJSON performs an authenticated JSON call against the FedEx API.
func (a *FedExAdapter) postJSON(ctx context.Context, method, path string, payload any, once bool) (*httpclient.Response, error) {
	token, err := a.tokens.AccessToken(ctx, a.cfg.ID.String(), a.tokenSource())
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", integration.ErrProviderRequest, err)
	}

	build := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		return req, nil
	}

	if once {
		return a.client.DoOnce(ctx, build)
	}
	return a.client.Do(ctx, build)
}

// TestConnection validates the credentials by acquiring a token. No remote
// state is mutated.
func (a *FedExAdapter) TestConnection(ctx context.Context) integration.TestResult {
	if err := a.tokens.Invalidate(ctx, a.cfg.ID.String()); err != nil {
		a.logger.Warn("fedex token invalidation failed", zap.Error(err))
	}
	if _, err := a.tokens.AccessToken(ctx, a.cfg.ID.String(), a.tokenSource()); err != nil {
		return integration.TestResult{Success: false, Message: "FedEx rejected the credentials"}
	}
	return integration.TestResult{Success: true, Message: "FedEx credentials accepted"}
}

// GetRates returns raw FedEx quotes in provider order; markup is applied by
// the pricing engine, not here.
func (a *FedExAdapter) GetRates(ctx context.Context, req *integration.RateRequest) ([]integration.RateQuote, error) {
	payload := fedexRateRequest{
		AccountNumber: fedexAccountNumber{Value: a.creds.AccountNumber},
		RequestedShipment: fedexRequestedShipment{
			Shipper:                   toFedExParty(req.From),
			Recipient:                 toFedExParty(req.To),
			PickupType:                "DROPOFF_AT_FEDEX_LOCATION",
			RateRequestType:           []string{"ACCOUNT"},
			RequestedPackageLineItems: toFedExPackages(req.Parcels),
		},
	}
	if !req.ShipDate.IsZero() {
		payload.RequestedShipment.ShipDateStamp = req.ShipDate.Format("2006-01-02")
	}

	resp, err := a.postJSON(ctx, http.MethodPost, "/rate/v1/rates/quotes", payload, false)
	if err != nil {
		return nil, err
	}

	var rateResp fedexRateResponse
	if err := json.Unmarshal(resp.Body, &rateResp); err != nil {
		return nil, fmt.Errorf("%w: parsing rate response: %v", integration.ErrProviderUnavailable, err)
	}

	quotes := make([]integration.RateQuote, 0, len(rateResp.Output.RateReplyDetails))
	for _, detail := range rateResp.Output.RateReplyDetails {
		if len(detail.RatedShipmentDetails) == 0 {
			continue
		}
		rated := detail.RatedShipmentDetails[0]
		quote := integration.RateQuote{
			ServiceCode: detail.ServiceType,
			ServiceName: detail.ServiceName,
			BaseCharge:  decimal.NewFromFloat(rated.TotalNetCharge),
			NetCharge:   decimal.NewFromFloat(rated.TotalNetCharge),
			Currency:    rated.Currency,
		}
		if day := detail.Commit.DateDetail.DayFormat; day != "" {
			if eta, err := time.Parse("2006-01-02", day); err == nil {
				quote.EstimatedDelivery = &eta
			}
		}
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

// PurchaseLabel buys a label in a single attempt. Ambiguous failures are
// surfaced to the caller, who must re-query shipment state before deciding to
// retry; a blind retry could buy a second label.
func (a *FedExAdapter) PurchaseLabel(ctx context.Context, req *integration.LabelRequest) (*integration.LabelPurchaseResult, error) {
	shipment := fedexRequestedShipment{
		Shipper:                   toFedExParty(req.From),
		Recipient:                 toFedExParty(req.To),
		PickupType:                "DROPOFF_AT_FEDEX_LOCATION",
		ServiceType:               req.ServiceCode,
		PackagingType:             "YOUR_PACKAGING",
		RequestedPackageLineItems: toFedExPackages(req.Parcels),
		LabelSpecification: &fedexLabelSpec{
			ImageType:      "PDF",
			LabelStockType: "PAPER_85X11_TOP_HALF_LABEL",
		},
		ShippingChargesPayment: &fedexPayment{PaymentType: "SENDER"},
	}
	if req.Reference != "" {
		shipment.CustomerReferences = []fedexReference{
			{CustomerReferenceType: "CUSTOMER_REFERENCE", Value: req.Reference},
		}
	}
	payload := fedexShipRequest{
		AccountNumber:        fedexAccountNumber{Value: a.creds.AccountNumber},
		LabelResponseOptions: "LABEL",
		RequestedShipment:    shipment,
	}

	resp, err := a.postJSON(ctx, http.MethodPost, "/ship/v1/shipments", payload, true)
	if err != nil {
		return nil, err
	}

	var shipResp fedexShipResponse
	if err := json.Unmarshal(resp.Body, &shipResp); err != nil {
		return nil, fmt.Errorf("%w: parsing ship response: %v", integration.ErrProviderUnavailable, err)
	}
	if len(shipResp.Output.TransactionShipments) == 0 {
		msg := "FedEx returned no shipment"
		if len(shipResp.Output.Alerts) > 0 {
			msg = shipResp.Output.Alerts[0].Message
		}
		return &integration.LabelPurchaseResult{Success: false, ErrorMessage: msg}, nil
	}

	shipment0 := shipResp.Output.TransactionShipments[0]
	result := &integration.LabelPurchaseResult{
		Success:        true,
		TrackingNumber: shipment0.MasterTrackingNumber,
	}
	if len(shipment0.PieceResponses) > 0 {
		piece := shipment0.PieceResponses[0]
		result.Cost = decimal.NewFromFloat(piece.NetChargeAmount)
		result.Currency = piece.CurrencyCode
		if len(piece.PackageDocuments) > 0 {
			doc := piece.PackageDocuments[0]
			artifact := &integration.LabelArtifact{URL: doc.URL, ContentType: doc.ContentType}
			if doc.EncodedLabel != "" {
				content, err := base64.StdEncoding.DecodeString(doc.EncodedLabel)
				if err != nil {
					return nil, fmt.Errorf("%w: decoding label: %v", integration.ErrProviderUnavailable, err)
				}
				artifact.Content = content
				if artifact.ContentType == "" {
					artifact.ContentType = "application/pdf"
				}
			}
			result.Label = artifact
		}
	}
	return result, nil
}

// TrackShipment returns the normalized tracking state. Idempotent.
func (a *FedExAdapter) TrackShipment(ctx context.Context, trackingNumber string) (*integration.TrackingSnapshot, error) {
	payload := fedexTrackRequest{IncludeDetailedScans: true}
	payload.TrackingInfo = make([]struct {
		TrackingNumberInfo struct {
			TrackingNumber string `json:"trackingNumber"`
		} `json:"trackingNumberInfo"`
	}, 1)
	payload.TrackingInfo[0].TrackingNumberInfo.TrackingNumber = trackingNumber

	resp, err := a.postJSON(ctx, http.MethodPost, "/track/v1/trackingnumbers", payload, false)
	if err != nil {
		return nil, err
	}

	var trackResp fedexTrackResponse
	if err := json.Unmarshal(resp.Body, &trackResp); err != nil {
		return nil, fmt.Errorf("%w: parsing track response: %v", integration.ErrProviderUnavailable, err)
	}
	if len(trackResp.Output.CompleteTrackResults) == 0 ||
		len(trackResp.Output.CompleteTrackResults[0].TrackResults) == 0 {
		return nil, fmt.Errorf("%w: no track results for %s", integration.ErrProviderRequest, trackingNumber)
	}

	track := trackResp.Output.CompleteTrackResults[0].TrackResults[0]
	status, err := MapFedExTrackingStatus(track.LatestStatusDetail.DerivedCode)
	if err != nil {
		return nil, err
	}

	snapshot := &integration.TrackingSnapshot{
		TrackingNumber: trackingNumber,
		Status:         status,
		LastLocation:   fedexLocation(track.LatestStatusDetail.ScanLocation.City, track.LatestStatusDetail.ScanLocation.CountryCode),
		Events:         make([]integration.TrackingEvent, 0, len(track.ScanEvents)),
	}
	// FedEx returns scans newest first; the snapshot keeps them oldest first.
	for i := len(track.ScanEvents) - 1; i >= 0; i-- {
		scan := track.ScanEvents[i]
		event := integration.TrackingEvent{
			EventType:   scan.EventType,
			Description: scan.EventDescription,
			Location:    fedexLocation(scan.ScanLocation.City, scan.ScanLocation.CountryCode),
		}
		if ts, err := time.Parse(time.RFC3339, scan.Date); err == nil {
			event.Timestamp = ts
		}
		snapshot.Events = append(snapshot.Events, event)
	}
	return snapshot, nil
}

// CancelShipment voids a not-yet-tendered shipment. A provider rejection
// because the shipment already moved is an expected false, not an error.
func (a *FedExAdapter) CancelShipment(ctx context.Context, trackingNumber string) (bool, error) {
	payload := fedexCancelRequest{
		AccountNumber:  fedexAccountNumber{Value: a.creds.AccountNumber},
		TrackingNumber: trackingNumber,
	}

	resp, err := a.postJSON(ctx, http.MethodPut, "/ship/v1/shipments/cancel", payload, false)
	if err != nil {
		if isProviderRejection(err) {
			return false, nil
		}
		return false, err
	}

	var cancelResp fedexCancelResponse
	if err := json.Unmarshal(resp.Body, &cancelResp); err != nil {
		return false, fmt.Errorf("%w: parsing cancel response: %v", integration.ErrProviderUnavailable, err)
	}
	return cancelResp.Output.CancelledShipment, nil
}

// fedexTrackingStatuses is the exhaustive mapping from FedEx derived status
// codes to the normalized closed enumeration. An unmapped code is a
// MappingError, never silently dropped.
var fedexTrackingStatuses = map[string]integration.TrackingStatus{
	"OC": integration.TrackingStatusPreTransit,     // order created
	"PU": integration.TrackingStatusInTransit,      // picked up
	"AR": integration.TrackingStatusInTransit,      // arrived at facility
	"DP": integration.TrackingStatusInTransit,      // departed facility
	"IT": integration.TrackingStatusInTransit,      // in transit
	"OD": integration.TrackingStatusOutForDelivery, // out for delivery
	"DL": integration.TrackingStatusDelivered,      // delivered
	"DE": integration.TrackingStatusException,      // delivery exception
	"SE": integration.TrackingStatusException,      // shipment exception
	"HL": integration.TrackingStatusException,      // held at location
	"RS": integration.TrackingStatusReturned,       // returning to shipper
	"CA": integration.TrackingStatusCancelled,      // cancelled
}

// MapFedExTrackingStatus collapses a FedEx derived status code into the
// normalized enumeration.
func MapFedExTrackingStatus(code string) (integration.TrackingStatus, error) {
	if status, ok := fedexTrackingStatuses[code]; ok {
		return status, nil
	}
	return "", integration.NewMappingError(integration.ProviderCodeFedEx, "tracking status", code)
}

func toFedExParty(addr integration.NormalizedAddress) fedexParty {
	lines := []string{addr.Line1}
	if addr.Line2 != "" {
		lines = append(lines, addr.Line2)
	}
	return fedexParty{
		Contact: fedexContact{PersonName: addr.Name, PhoneNumber: addr.Phone},
		Address: fedexAddress{
			StreetLines:         lines,
			City:                addr.City,
			StateOrProvinceCode: addr.Region,
			PostalCode:          addr.PostalCode,
			CountryCode:         addr.CountryCode,
			Residential:         addr.Residential,
		},
	}
}

func toFedExPackages(parcels []integration.Parcel) []fedexPackageLineItem {
	items := make([]fedexPackageLineItem, 0, len(parcels))
	for _, p := range parcels {
		item := fedexPackageLineItem{
			Weight: fedexWeight{Units: "KG", Value: p.WeightKg.InexactFloat64()},
		}
		if !p.LengthCm.IsZero() {
			item.Dimensions = &fedexDimensions{
				Length: p.LengthCm.InexactFloat64(),
				Width:  p.WidthCm.InexactFloat64(),
				Height: p.HeightCm.InexactFloat64(),
				Units:  "CM",
			}
		}
		items = append(items, item)
	}
	return items
}

func fedexLocation(city, country string) string {
	switch {
	case city == "":
		return country
	case country == "":
		return city
	default:
		return city + ", " + country
	}
}

// Ensure FedExAdapter implements CourierConnector
var _ integration.CourierConnector = (*FedExAdapter)(nil)
