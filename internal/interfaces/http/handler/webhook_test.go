package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	integrationapp "github.com/Carloscisneroides/logistica-sub001/internal/application/integration"
	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
)

type stubDedupeStore struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newStubDedupeStore() *stubDedupeStore {
	return &stubDedupeStore{seen: make(map[string]bool)}
}

func (s *stubDedupeStore) MarkProcessed(_ context.Context, eventID string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[eventID] {
		return false, nil
	}
	s.seen[eventID] = true
	return true, nil
}

func (s *stubDedupeStore) IsProcessed(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[eventID], nil
}

func (s *stubDedupeStore) Close() error { return nil }

type webhookFixture struct {
	router      *gin.Engine
	orders      *stubOrderRepo
	marketplace *stubMarketplace
	tenantID    uuid.UUID
	connID      uuid.UUID
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()

	repo := newStubConfigRepo()
	tenantID := uuid.New()
	cfg := &integration.ProviderConfig{
		ID:       uuid.New(),
		TenantID: tenantID,
		Code:     integration.ProviderCodeWooCommerce,
		Status:   integration.ConnectionStatusActive,
	}
	require.NoError(t, repo.Save(context.Background(), cfg))

	orders := newStubOrderRepo()
	marketplace := &stubMarketplace{code: integration.ProviderCodeWooCommerce}
	registry := stubRegistry(integration.ProviderCodeWooCommerce, marketplace)
	syncSvc := integrationapp.NewOrderSyncService(orders, newStubWatermarkRepo(), repo, registry, zap.NewNop())
	webhookSvc := integrationapp.NewWebhookService(repo, registry, syncSvc, newStubDedupeStore(), time.Hour, zap.NewNop())
	h := NewWebhookHandler(webhookSvc)

	router := gin.New()
	api := router.Group("/api/v1")
	h.RegisterRoutes(api)

	return &webhookFixture{
		router:      router,
		orders:      orders,
		marketplace: marketplace,
		tenantID:    tenantID,
		connID:      cfg.ID,
	}
}

func (f *webhookFixture) deliver(topic, signature, eventID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/webhooks/"+f.tenantID.String()+"/"+f.connID.String(),
		bytes.NewBufferString(`{"id": 55}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Topic", topic)
	req.Header.Set("X-Test-Signature", signature)
	if eventID != "" {
		req.Header.Set("X-Test-Event-Id", eventID)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestWebhookHandler_Receive(t *testing.T) {
	f := newWebhookFixture(t)
	order := testOrder("wc-55", integration.OrderStatusNew)
	f.marketplace.action = &integration.SyncAction{
		Kind:  integration.SyncActionUpsertOrder,
		Order: &order,
		Topic: "order.created",
	}

	w := f.deliver("order.created", "valid", "evt-1")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored, err := f.orders.FindByExternalID(context.Background(), f.connID, "wc-55")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, integration.OrderStatusNew, stored.Status)
}

func TestWebhookHandler_InvalidSignature(t *testing.T) {
	f := newWebhookFixture(t)

	w := f.deliver("order.created", "forged", "evt-2")

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Nothing from the rejected payload was applied
	stored, err := f.orders.FindAllForConnection(context.Background(), f.connID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestWebhookHandler_ReplaySuppressed(t *testing.T) {
	f := newWebhookFixture(t)
	order := testOrder("wc-77", integration.OrderStatusPaid)
	f.marketplace.action = &integration.SyncAction{
		Kind:  integration.SyncActionUpsertOrder,
		Order: &order,
		Topic: "order.updated",
	}

	first := f.deliver("order.updated", "valid", "evt-3")
	replay := f.deliver("order.updated", "valid", "evt-3")

	// Replays are acknowledged, not errored, so the provider stops retrying
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, replay.Code)

	stored, err := f.orders.FindAllForConnection(context.Background(), f.connID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestWebhookHandler_UnknownConnection(t *testing.T) {
	f := newWebhookFixture(t)

	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/webhooks/"+f.tenantID.String()+"/"+uuid.New().String(),
		bytes.NewBufferString(`{}`))
	req.Header.Set("X-Test-Signature", "valid")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWebhookHandler_MalformedIDs(t *testing.T) {
	f := newWebhookFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/not-a-uuid/also-bad",
		bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookHandler_UnrecognizedTopicAcknowledged(t *testing.T) {
	f := newWebhookFixture(t)

	w := f.deliver("customer.updated", "valid", "evt-4")

	assert.Equal(t, http.StatusOK, w.Code)
}
