package integration

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
	"github.com/Carloscisneroides/logistica-sub001/internal/domain/shared"
)

// WebhookService ingests marketplace webhooks: it authenticates the payload
// against the connection's secret, suppresses replays by provider event ID
// and dispatches the translated action into the sync engine.
type WebhookService struct {
	configs  integration.ProviderConfigRepository
	registry *integration.Registry
	sync     *OrderSyncService
	dedupe   shared.IdempotencyStore
	ttl      time.Duration
	logger   *zap.Logger
}

// NewWebhookService creates a WebhookService. dedupe may be nil when replay
// suppression is not configured; the merge still makes replays convergent,
// suppression just avoids the redundant work.
func NewWebhookService(
	configs integration.ProviderConfigRepository,
	registry *integration.Registry,
	sync *OrderSyncService,
	dedupe shared.IdempotencyStore,
	ttl time.Duration,
	logger *zap.Logger,
) *WebhookService {
	if ttl <= 0 {
		ttl = shared.DefaultIdempotencyConfig().TTL
	}
	return &WebhookService{
		configs:  configs,
		registry: registry,
		sync:     sync,
		dedupe:   dedupe,
		ttl:      ttl,
		logger:   logger,
	}
}

// HandleWebhook processes one inbound webhook request.
//
// Signature verification happens before anything in the payload is trusted;
// a failing payload is rejected with ErrWebhookSignature and never parsed.
// Once a payload is authenticated and deduplicated it is acknowledged:
// translation and sync failures are logged, not returned, because the
// marketplace redelivering the same bytes cannot fix them.
func (s *WebhookService) HandleWebhook(ctx context.Context, tenantID, connectionID uuid.UUID, header http.Header, body []byte) error {
	cfg, err := s.configs.FindByID(ctx, tenantID, connectionID)
	if err != nil {
		return err
	}
	marketplace, err := s.registry.MarketplaceConnector(cfg)
	if err != nil {
		return err
	}

	topic, signature, eventID := marketplace.WebhookRequestInfo(header)
	if !marketplace.VerifyWebhookSignature(body, signature) {
		s.logger.Warn("webhook signature rejected",
			zap.String("connection_id", connectionID.String()),
			zap.String("provider", cfg.Code.String()),
			zap.String("topic", topic))
		return integration.ErrWebhookSignature
	}

	if s.dedupe != nil && eventID != "" {
		fresh, err := s.dedupe.MarkProcessed(ctx, dedupeKey(connectionID, eventID), s.ttl)
		if err != nil {
			// A broken dedupe store must not drop events; the merge keeps a
			// reprocessed event harmless.
			s.logger.Warn("webhook dedupe unavailable",
				zap.String("event_id", eventID), zap.Error(err))
		} else if !fresh {
			s.logger.Debug("webhook replay suppressed",
				zap.String("connection_id", connectionID.String()),
				zap.String("event_id", eventID),
				zap.String("topic", topic))
			return nil
		}
	}

	action, err := marketplace.TranslateWebhook(topic, body)
	if err != nil {
		s.logger.Error("webhook translation failed",
			zap.String("connection_id", connectionID.String()),
			zap.String("provider", cfg.Code.String()),
			zap.String("topic", topic),
			zap.Error(err))
		return nil
	}

	if err := s.sync.Apply(ctx, connectionID, action); err != nil {
		s.logger.Error("webhook sync failed",
			zap.String("connection_id", connectionID.String()),
			zap.String("topic", topic),
			zap.String("action", string(action.Kind)),
			zap.Error(err))
		return nil
	}
	return nil
}

func dedupeKey(connectionID uuid.UUID, eventID string) string {
	return fmt.Sprintf("webhook:%s:%s", connectionID, eventID)
}
