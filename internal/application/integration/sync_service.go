package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
)

// OrderSyncService is the idempotent order sync engine. Every path into it,
// webhook or batch pull, converges the same external order onto one internal
// record through the pure merge; duplicate and out-of-order deliveries are
// harmless. Backward status transitions are logged and dropped, never
// propagated.
type OrderSyncService struct {
	orders     integration.SyncedOrderRepository
	watermarks integration.SyncWatermarkRepository
	configs    integration.ProviderConfigRepository
	registry   *integration.Registry
	logger     *zap.Logger
}

// NewOrderSyncService creates an OrderSyncService.
func NewOrderSyncService(
	orders integration.SyncedOrderRepository,
	watermarks integration.SyncWatermarkRepository,
	configs integration.ProviderConfigRepository,
	registry *integration.Registry,
	logger *zap.Logger,
) *OrderSyncService {
	return &OrderSyncService{
		orders:     orders,
		watermarks: watermarks,
		configs:    configs,
		registry:   registry,
		logger:     logger,
	}
}

// UpsertOrder merges an incoming order into the connection's record for the
// same external order ID. A conflicting (backward) status transition is
// dropped with a warning; the stored record stays as it was.
func (s *OrderSyncService) UpsertOrder(ctx context.Context, connectionID uuid.UUID, incoming *integration.NormalizedOrder) error {
	if err := incoming.Validate(); err != nil {
		return err
	}

	existing, err := s.orders.FindByExternalID(ctx, connectionID, incoming.ExternalOrderID)
	if err != nil {
		return err
	}

	merged, err := integration.MergeOrder(existing, incoming)
	if err != nil {
		if errors.Is(err, integration.ErrSyncConflict) {
			s.logger.Warn("conflicting order sync dropped",
				zap.String("connection_id", connectionID.String()),
				zap.String("external_order_id", incoming.ExternalOrderID),
				zap.String("stored_status", existing.Status.String()),
				zap.String("incoming_status", incoming.Status.String()))
			return nil
		}
		return err
	}

	return s.orders.Save(ctx, connectionID, merged)
}

// setStatus applies a status-only transition to a stored order.
func (s *OrderSyncService) setStatus(ctx context.Context, connectionID uuid.UUID, externalOrderID string, status integration.OrderStatus) error {
	existing, err := s.orders.FindByExternalID(ctx, connectionID, externalOrderID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: %s", integration.ErrOrderNotFound, externalOrderID)
	}

	incoming := *existing
	incoming.Status = status
	return s.UpsertOrder(ctx, connectionID, &incoming)
}

// CancelOrder moves a synced order to cancelled.
func (s *OrderSyncService) CancelOrder(ctx context.Context, connectionID uuid.UUID, externalOrderID string) error {
	return s.setStatus(ctx, connectionID, externalOrderID, integration.OrderStatusCancelled)
}

// MarkFulfilled moves a synced order to fulfilled.
func (s *OrderSyncService) MarkFulfilled(ctx context.Context, connectionID uuid.UUID, externalOrderID string) error {
	return s.setStatus(ctx, connectionID, externalOrderID, integration.OrderStatusFulfilled)
}

// Apply dispatches one translated webhook action into the engine.
func (s *OrderSyncService) Apply(ctx context.Context, connectionID uuid.UUID, action *integration.SyncAction) error {
	switch action.Kind {
	case integration.SyncActionUpsertOrder:
		return s.UpsertOrder(ctx, connectionID, action.Order)
	case integration.SyncActionCancelOrder:
		return s.CancelOrder(ctx, connectionID, action.ExternalOrderID)
	case integration.SyncActionMarkFulfilled:
		return s.MarkFulfilled(ctx, connectionID, action.ExternalOrderID)
	case integration.SyncActionIgnore:
		s.logger.Debug("webhook topic ignored",
			zap.String("connection_id", connectionID.String()),
			zap.String("topic", action.Topic))
		return nil
	default:
		return fmt.Errorf("%w: unknown sync action %q", integration.ErrProviderRequest, action.Kind)
	}
}

// BatchResult summarizes one pull-based sync run.
type BatchResult struct {
	// Pulled is how many orders the marketplace returned
	Pulled int
	// Dropped is how many were dropped as conflicting
	Dropped int
	// Watermark is the new watermark after a fully successful run
	Watermark time.Time
}

// SyncBatch is the pull-based backstop to webhook sync: it pulls every order
// changed since the connection's watermark and merges each one. The
// watermark only advances after the whole batch has been processed, so a
// mid-batch failure re-syncs the batch on the next run; the merge makes the
// overlap harmless.
func (s *OrderSyncService) SyncBatch(ctx context.Context, tenantID, connectionID uuid.UUID) (*BatchResult, error) {
	cfg, err := s.configs.FindByID(ctx, tenantID, connectionID)
	if err != nil {
		return nil, err
	}
	if !cfg.IsUsable() {
		return nil, fmt.Errorf("%w: connection %s is %s",
			integration.ErrProviderRequest, cfg.ID, cfg.Status)
	}
	marketplace, err := s.registry.MarketplaceConnector(cfg)
	if err != nil {
		return nil, err
	}

	since, err := s.watermarks.Get(ctx, connectionID)
	if err != nil {
		return nil, err
	}

	// The next watermark is captured before the pull: anything changing
	// while the batch runs falls after it and is caught by the next run.
	batchStart := time.Now().UTC()

	pulled, err := marketplace.SyncOrders(ctx, since)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Pulled: len(pulled)}
	for i := range pulled {
		existing, err := s.orders.FindByExternalID(ctx, connectionID, pulled[i].ExternalOrderID)
		if err != nil {
			return nil, err
		}
		merged, err := integration.MergeOrder(existing, &pulled[i])
		if err != nil {
			if errors.Is(err, integration.ErrSyncConflict) {
				result.Dropped++
				s.logger.Warn("conflicting order sync dropped",
					zap.String("connection_id", connectionID.String()),
					zap.String("external_order_id", pulled[i].ExternalOrderID))
				continue
			}
			return nil, err
		}
		if err := s.orders.Save(ctx, connectionID, merged); err != nil {
			return nil, err
		}
	}

	if err := s.watermarks.Advance(ctx, connectionID, batchStart); err != nil {
		return nil, err
	}
	result.Watermark = batchStart

	s.logger.Info("order batch synced",
		zap.String("connection_id", connectionID.String()),
		zap.String("provider", cfg.Code.String()),
		zap.Int("pulled", result.Pulled),
		zap.Int("dropped", result.Dropped))
	return result, nil
}

// PushFulfillment records a shipment against a synced order on its
// marketplace and mirrors the fulfilled status locally.
func (s *OrderSyncService) PushFulfillment(ctx context.Context, tenantID, connectionID uuid.UUID, externalOrderID, carrier, trackingNumber string) error {
	cfg, err := s.configs.FindByID(ctx, tenantID, connectionID)
	if err != nil {
		return err
	}
	marketplace, err := s.registry.MarketplaceConnector(cfg)
	if err != nil {
		return err
	}
	if err := marketplace.PushFulfillment(ctx, externalOrderID, carrier, trackingNumber); err != nil {
		return err
	}
	if err := s.MarkFulfilled(ctx, connectionID, externalOrderID); err != nil && !errors.Is(err, integration.ErrOrderNotFound) {
		return err
	}
	return nil
}

// GetOrder loads one synced order.
func (s *OrderSyncService) GetOrder(ctx context.Context, connectionID uuid.UUID, externalOrderID string) (*integration.NormalizedOrder, error) {
	order, err := s.orders.FindByExternalID(ctx, connectionID, externalOrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: %s", integration.ErrOrderNotFound, externalOrderID)
	}
	return order, nil
}

// ListOrders lists a connection's synced orders.
func (s *OrderSyncService) ListOrders(ctx context.Context, connectionID uuid.UUID) ([]integration.NormalizedOrder, error) {
	return s.orders.FindAllForConnection(ctx, connectionID)
}
