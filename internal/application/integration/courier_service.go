package integration

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
)

// LabelStore offloads purchased label documents to durable storage and
// returns a serving URL. Implemented by the storage collaborator.
type LabelStore interface {
	StoreLabel(ctx context.Context, connectionID uuid.UUID, trackingNumber string, artifact *integration.LabelArtifact) (string, error)
}

// CourierService exposes the courier operations: quoting with reseller
// markup, label purchase with artifact offload, tracking and cancellation.
type CourierService struct {
	configs  integration.ProviderConfigRepository
	registry *integration.Registry
	labels   LabelStore
	logger   *zap.Logger
}

// NewCourierService creates a CourierService. labels may be nil when label
// offload is not configured; inline artifacts are then returned as-is.
func NewCourierService(configs integration.ProviderConfigRepository, registry *integration.Registry, labels LabelStore, logger *zap.Logger) *CourierService {
	return &CourierService{configs: configs, registry: registry, labels: labels, logger: logger}
}

// courierFor loads a usable connection and builds its courier connector.
func (s *CourierService) courierFor(ctx context.Context, tenantID, connectionID uuid.UUID) (*integration.ProviderConfig, integration.CourierConnector, error) {
	cfg, err := s.configs.FindByID(ctx, tenantID, connectionID)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.IsUsable() {
		return nil, nil, fmt.Errorf("%w: connection %s is %s",
			integration.ErrProviderRequest, cfg.ID, cfg.Status)
	}
	courier, err := s.registry.CourierConnector(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, courier, nil
}

// GetRates quotes a shipment through one connection. Raw provider quotes are
// passed through the pricing engine: reseller connections get their markup
// applied, every quote carries the commission percentage for billing.
func (s *CourierService) GetRates(ctx context.Context, tenantID, connectionID uuid.UUID, req *integration.RateRequest) ([]integration.RateQuote, error) {
	cfg, courier, err := s.courierFor(ctx, tenantID, connectionID)
	if err != nil {
		return nil, err
	}

	quotes, err := courier.GetRates(ctx, req)
	if err != nil {
		return nil, err
	}

	markup := decimal.Zero
	if cfg.IsReseller {
		markup = cfg.MarkupPercent
	}
	return integration.ApplyMarkup(quotes, markup, cfg.CommissionPercent), nil
}

// PurchaseLabel buys a label through one connection. The purchase itself is
// single-shot; when an inline label document comes back and a label store is
// configured, the document is offloaded and the result carries its URL.
func (s *CourierService) PurchaseLabel(ctx context.Context, tenantID, connectionID uuid.UUID, req *integration.LabelRequest) (*integration.LabelPurchaseResult, error) {
	cfg, courier, err := s.courierFor(ctx, tenantID, connectionID)
	if err != nil {
		return nil, err
	}

	result, err := courier.PurchaseLabel(ctx, req)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		s.logger.Warn("label purchase rejected",
			zap.String("connection_id", cfg.ID.String()),
			zap.String("provider", cfg.Code.String()),
			zap.String("reason", result.ErrorMessage))
		return result, nil
	}

	if s.labels != nil && result.Label != nil && len(result.Label.Content) > 0 {
		url, err := s.labels.StoreLabel(ctx, cfg.ID, result.TrackingNumber, result.Label)
		if err != nil {
			// The purchase already happened; a storage failure must not turn
			// it into an error. The inline content is still in the result.
			s.logger.Warn("label offload failed",
				zap.String("tracking_number", result.TrackingNumber), zap.Error(err))
		} else {
			result.Label.URL = url
		}
	}

	s.logger.Info("label purchased",
		zap.String("connection_id", cfg.ID.String()),
		zap.String("provider", cfg.Code.String()),
		zap.String("tracking_number", result.TrackingNumber))
	return result, nil
}

// TrackShipment returns the normalized tracking snapshot for a shipment.
func (s *CourierService) TrackShipment(ctx context.Context, tenantID, connectionID uuid.UUID, trackingNumber string) (*integration.TrackingSnapshot, error) {
	_, courier, err := s.courierFor(ctx, tenantID, connectionID)
	if err != nil {
		return nil, err
	}
	return courier.TrackShipment(ctx, trackingNumber)
}

// CancelShipment attempts a cancellation. false means the provider refused
// because the shipment already moved; that is an outcome, not an error.
func (s *CourierService) CancelShipment(ctx context.Context, tenantID, connectionID uuid.UUID, trackingNumber string) (bool, error) {
	cfg, courier, err := s.courierFor(ctx, tenantID, connectionID)
	if err != nil {
		return false, err
	}
	cancelled, err := courier.CancelShipment(ctx, trackingNumber)
	if err != nil {
		return false, err
	}
	s.logger.Info("shipment cancellation",
		zap.String("connection_id", cfg.ID.String()),
		zap.String("tracking_number", trackingNumber),
		zap.Bool("cancelled", cancelled))
	return cancelled, nil
}
