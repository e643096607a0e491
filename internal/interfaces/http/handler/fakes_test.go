package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
)

// In-memory collaborators for exercising handlers through real services.

type stubConfigRepo struct {
	mu      sync.Mutex
	configs map[uuid.UUID]*integration.ProviderConfig
}

func newStubConfigRepo() *stubConfigRepo {
	return &stubConfigRepo{configs: make(map[uuid.UUID]*integration.ProviderConfig)}
}

func (r *stubConfigRepo) Save(_ context.Context, cfg *integration.ProviderConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *cfg
	r.configs[cfg.ID] = &copied
	return nil
}

func (r *stubConfigRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*integration.ProviderConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.configs[id]
	if !ok || cfg.TenantID != tenantID {
		return nil, integration.ErrConnectionNotFound
	}
	copied := *cfg
	return &copied, nil
}

func (r *stubConfigRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID) ([]integration.ProviderConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []integration.ProviderConfig
	for _, cfg := range r.configs {
		if cfg.TenantID == tenantID {
			out = append(out, *cfg)
		}
	}
	return out, nil
}

func (r *stubConfigRepo) UpdateStatus(_ context.Context, id uuid.UUID, status integration.ConnectionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.configs[id]
	if !ok {
		return integration.ErrConnectionNotFound
	}
	cfg.Status = status
	return nil
}

func (r *stubConfigRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.configs[id]
	if !ok || cfg.TenantID != tenantID {
		return integration.ErrConnectionNotFound
	}
	delete(r.configs, id)
	return nil
}

type stubOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*integration.NormalizedOrder
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[string]*integration.NormalizedOrder)}
}

func stubOrderKey(connectionID uuid.UUID, externalOrderID string) string {
	return connectionID.String() + "/" + externalOrderID
}

func (r *stubOrderRepo) Save(_ context.Context, connectionID uuid.UUID, order *integration.NormalizedOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *order
	r.orders[stubOrderKey(connectionID, order.ExternalOrderID)] = &copied
	return nil
}

func (r *stubOrderRepo) FindByExternalID(_ context.Context, connectionID uuid.UUID, externalOrderID string) (*integration.NormalizedOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[stubOrderKey(connectionID, externalOrderID)]
	if !ok {
		return nil, nil
	}
	copied := *order
	return &copied, nil
}

func (r *stubOrderRepo) FindAllForConnection(_ context.Context, connectionID uuid.UUID) ([]integration.NormalizedOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []integration.NormalizedOrder
	prefix := connectionID.String() + "/"
	for key, order := range r.orders {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, *order)
		}
	}
	return out, nil
}

type stubWatermarkRepo struct {
	mu         sync.Mutex
	watermarks map[uuid.UUID]time.Time
}

func newStubWatermarkRepo() *stubWatermarkRepo {
	return &stubWatermarkRepo{watermarks: make(map[uuid.UUID]time.Time)}
}

func (r *stubWatermarkRepo) Get(_ context.Context, connectionID uuid.UUID) (*time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wm, ok := r.watermarks[connectionID]
	if !ok {
		return nil, nil
	}
	return &wm, nil
}

func (r *stubWatermarkRepo) Advance(_ context.Context, connectionID uuid.UUID, watermark time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watermarks[connectionID] = watermark
	return nil
}

// stubCourier is a scripted CourierConnector.
type stubCourier struct {
	code integration.ProviderCode

	quotes   []integration.RateQuote
	rateErr  error
	purchase *integration.LabelPurchaseResult
	buyErr   error
	snapshot *integration.TrackingSnapshot
	trackErr error
	cancelOK bool
}

func (s *stubCourier) Code() integration.ProviderCode { return s.code }

func (s *stubCourier) TestConnection(context.Context) integration.TestResult {
	return integration.TestResult{Success: true, Message: "authenticated"}
}

func (s *stubCourier) GetRates(_ context.Context, _ *integration.RateRequest) ([]integration.RateQuote, error) {
	if s.rateErr != nil {
		return nil, s.rateErr
	}
	return s.quotes, nil
}

func (s *stubCourier) PurchaseLabel(_ context.Context, _ *integration.LabelRequest) (*integration.LabelPurchaseResult, error) {
	if s.buyErr != nil {
		return nil, s.buyErr
	}
	return s.purchase, nil
}

func (s *stubCourier) TrackShipment(_ context.Context, trackingNumber string) (*integration.TrackingSnapshot, error) {
	if s.trackErr != nil {
		return nil, s.trackErr
	}
	if s.snapshot != nil {
		return s.snapshot, nil
	}
	return &integration.TrackingSnapshot{
		TrackingNumber: trackingNumber,
		Status:         integration.TrackingStatusInTransit,
	}, nil
}

func (s *stubCourier) CancelShipment(context.Context, string) (bool, error) {
	return s.cancelOK, nil
}

var _ integration.CourierConnector = (*stubCourier)(nil)

// stubMarketplace is a scripted MarketplaceConnector. Signatures verify when
// they equal "valid".
type stubMarketplace struct {
	code integration.ProviderCode

	pulled  []integration.NormalizedOrder
	pullErr error

	action       *integration.SyncAction
	translateErr error

	fulfillments []string
	fulfillErr   error
}

func (s *stubMarketplace) Code() integration.ProviderCode { return s.code }

func (s *stubMarketplace) TestConnection(context.Context) integration.TestResult {
	return integration.TestResult{Success: true, Message: "authenticated"}
}

func (s *stubMarketplace) SyncOrders(_ context.Context, _ *time.Time) ([]integration.NormalizedOrder, error) {
	if s.pullErr != nil {
		return nil, s.pullErr
	}
	return s.pulled, nil
}

func (s *stubMarketplace) PushFulfillment(_ context.Context, externalOrderID, carrier, trackingNumber string) error {
	if s.fulfillErr != nil {
		return s.fulfillErr
	}
	s.fulfillments = append(s.fulfillments, externalOrderID+"/"+carrier+"/"+trackingNumber)
	return nil
}

func (s *stubMarketplace) WebhookRequestInfo(header http.Header) (topic, signature, eventID string) {
	return header.Get("X-Test-Topic"), header.Get("X-Test-Signature"), header.Get("X-Test-Event-Id")
}

func (s *stubMarketplace) VerifyWebhookSignature(_ []byte, signature string) bool {
	return signature == "valid"
}

func (s *stubMarketplace) TranslateWebhook(topic string, _ []byte) (*integration.SyncAction, error) {
	if s.translateErr != nil {
		return nil, s.translateErr
	}
	if s.action != nil {
		return s.action, nil
	}
	return integration.IgnoreAction(topic), nil
}

var _ integration.MarketplaceConnector = (*stubMarketplace)(nil)

func stubRegistry(code integration.ProviderCode, conn integration.Connector) *integration.Registry {
	registry := integration.NewRegistry()
	registry.Register(code, func(*integration.ProviderConfig) (integration.Connector, error) {
		return conn, nil
	})
	return registry
}
