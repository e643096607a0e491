package integration

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// In-memory repositories
// ---------------------------------------------------------------------------

type fakeConfigRepo struct {
	mu      sync.Mutex
	configs map[uuid.UUID]*integration.ProviderConfig
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{configs: make(map[uuid.UUID]*integration.ProviderConfig)}
}

func (r *fakeConfigRepo) Save(_ context.Context, cfg *integration.ProviderConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *cfg
	r.configs[cfg.ID] = &copied
	return nil
}

func (r *fakeConfigRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*integration.ProviderConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.configs[id]
	if !ok || cfg.TenantID != tenantID {
		return nil, integration.ErrConnectionNotFound
	}
	copied := *cfg
	return &copied, nil
}

func (r *fakeConfigRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID) ([]integration.ProviderConfig, error) {
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

func (r *fakeConfigRepo) UpdateStatus(_ context.Context, id uuid.UUID, status integration.ConnectionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.configs[id]
	if !ok {
		return integration.ErrConnectionNotFound
	}
	cfg.Status = status
	return nil
}

func (r *fakeConfigRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.configs[id]
	if !ok || cfg.TenantID != tenantID {
		return integration.ErrConnectionNotFound
	}
	delete(r.configs, id)
	return nil
}

type fakeOrderRepo struct {
	mu      sync.Mutex
	orders  map[string]*integration.NormalizedOrder
	saveErr error
	saves   int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*integration.NormalizedOrder)}
}

func orderKey(connectionID uuid.UUID, externalOrderID string) string {
	return connectionID.String() + "/" + externalOrderID
}

func (r *fakeOrderRepo) Save(_ context.Context, connectionID uuid.UUID, order *integration.NormalizedOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	copied := *order
	r.orders[orderKey(connectionID, order.ExternalOrderID)] = &copied
	return nil
}

func (r *fakeOrderRepo) FindByExternalID(_ context.Context, connectionID uuid.UUID, externalOrderID string) (*integration.NormalizedOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderKey(connectionID, externalOrderID)]
	if !ok {
		return nil, nil
	}
	copied := *order
	return &copied, nil
}

func (r *fakeOrderRepo) FindAllForConnection(_ context.Context, connectionID uuid.UUID) ([]integration.NormalizedOrder, error) {
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

type fakeWatermarkRepo struct {
	mu         sync.Mutex
	watermarks map[uuid.UUID]time.Time
	advanceErr error
}

func newFakeWatermarkRepo() *fakeWatermarkRepo {
	return &fakeWatermarkRepo{watermarks: make(map[uuid.UUID]time.Time)}
}

func (r *fakeWatermarkRepo) Get(_ context.Context, connectionID uuid.UUID) (*time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wm, ok := r.watermarks[connectionID]
	if !ok {
		return nil, nil
	}
	return &wm, nil
}

func (r *fakeWatermarkRepo) Advance(_ context.Context, connectionID uuid.UUID, watermark time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.advanceErr != nil {
		return r.advanceErr
	}
	r.watermarks[connectionID] = watermark
	return nil
}

// ---------------------------------------------------------------------------
// In-memory idempotency store
// ---------------------------------------------------------------------------

type fakeIdempotencyStore struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{seen: make(map[string]bool)}
}

func (s *fakeIdempotencyStore) MarkProcessed(_ context.Context, eventID string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	if s.seen[eventID] {
		return false, nil
	}
	s.seen[eventID] = true
	return true, nil
}

func (s *fakeIdempotencyStore) IsProcessed(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[eventID], nil
}

func (s *fakeIdempotencyStore) Close() error { return nil }

// ---------------------------------------------------------------------------
// Scripted connector
// ---------------------------------------------------------------------------

// fakeMarketplace is a scripted MarketplaceConnector. Signatures verify when
// they equal "valid"; translation and order pulls are configured per test.
type fakeMarketplace struct {
	code       integration.ProviderCode
	testResult integration.TestResult

	pulled  []integration.NormalizedOrder
	pullErr error

	actions      map[string]*integration.SyncAction
	translateErr error
	translations int

	fulfillments []string
	fulfillErr   error
}

func (f *fakeMarketplace) Code() integration.ProviderCode { return f.code }

func (f *fakeMarketplace) TestConnection(context.Context) integration.TestResult {
	return f.testResult
}

func (f *fakeMarketplace) SyncOrders(_ context.Context, _ *time.Time) ([]integration.NormalizedOrder, error) {
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	return f.pulled, nil
}

func (f *fakeMarketplace) PushFulfillment(_ context.Context, externalOrderID, carrier, trackingNumber string) error {
	if f.fulfillErr != nil {
		return f.fulfillErr
	}
	f.fulfillments = append(f.fulfillments, fmt.Sprintf("%s/%s/%s", externalOrderID, carrier, trackingNumber))
	return nil
}

func (f *fakeMarketplace) WebhookRequestInfo(header http.Header) (topic, signature, eventID string) {
	return header.Get("X-Test-Topic"), header.Get("X-Test-Signature"), header.Get("X-Test-Event-Id")
}

func (f *fakeMarketplace) VerifyWebhookSignature(_ []byte, signature string) bool {
	return signature == "valid"
}

func (f *fakeMarketplace) TranslateWebhook(topic string, _ []byte) (*integration.SyncAction, error) {
	f.translations++
	if f.translateErr != nil {
		return nil, f.translateErr
	}
	if action, ok := f.actions[topic]; ok {
		return action, nil
	}
	return integration.IgnoreAction(topic), nil
}

var _ integration.MarketplaceConnector = (*fakeMarketplace)(nil)

// fakeCourier is a scripted CourierConnector.
type fakeCourier struct {
	code integration.ProviderCode

	quotes   []integration.RateQuote
	rateErr  error
	purchase *integration.LabelPurchaseResult
	buyErr   error
	snapshot *integration.TrackingSnapshot
	cancelOK bool
}

func (f *fakeCourier) Code() integration.ProviderCode { return f.code }

func (f *fakeCourier) TestConnection(context.Context) integration.TestResult {
	return integration.TestResult{Success: true}
}

func (f *fakeCourier) GetRates(_ context.Context, _ *integration.RateRequest) ([]integration.RateQuote, error) {
	if f.rateErr != nil {
		return nil, f.rateErr
	}
	return f.quotes, nil
}

func (f *fakeCourier) PurchaseLabel(_ context.Context, _ *integration.LabelRequest) (*integration.LabelPurchaseResult, error) {
	if f.buyErr != nil {
		return nil, f.buyErr
	}
	return f.purchase, nil
}

func (f *fakeCourier) TrackShipment(_ context.Context, trackingNumber string) (*integration.TrackingSnapshot, error) {
	if f.snapshot != nil {
		return f.snapshot, nil
	}
	return &integration.TrackingSnapshot{TrackingNumber: trackingNumber, Status: integration.TrackingStatusInTransit}, nil
}

func (f *fakeCourier) CancelShipment(context.Context, string) (bool, error) {
	return f.cancelOK, nil
}

var _ integration.CourierConnector = (*fakeCourier)(nil)

// fakeLabelStore records offloaded labels.
type fakeLabelStore struct {
	stored int
	err    error
}

func (s *fakeLabelStore) StoreLabel(_ context.Context, connectionID uuid.UUID, trackingNumber string, _ *integration.LabelArtifact) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.stored++
	return fmt.Sprintf("https://labels.example.com/%s/%s.pdf", connectionID, trackingNumber), nil
}

func registryWith(code integration.ProviderCode, conn integration.Connector) *integration.Registry {
	registry := integration.NewRegistry()
	registry.Register(code, func(*integration.ProviderConfig) (integration.Connector, error) {
		return conn, nil
	})
	return registry
}
