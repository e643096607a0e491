// Package integration holds the application services of the integration hub:
// connection administration, courier operations, webhook ingestion and the
// order sync engine. Services orchestrate the domain contracts; all provider
// I/O lives behind the connector registry.
package integration

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
)

// ConnectionService administers provider connections: registration,
// credential checks and lifecycle.
type ConnectionService struct {
	configs  integration.ProviderConfigRepository
	registry *integration.Registry
	logger   *zap.Logger
}

// NewConnectionService creates a ConnectionService.
func NewConnectionService(configs integration.ProviderConfigRepository, registry *integration.Registry, logger *zap.Logger) *ConnectionService {
	return &ConnectionService{configs: configs, registry: registry, logger: logger}
}

// CreateConnection registers a provider connection for a tenant. The
// credential blob is stored opaquely; it is only interpreted by the connector
// when a call is made.
func (s *ConnectionService) CreateConnection(ctx context.Context, cfg *integration.ProviderConfig) (*integration.ProviderConfig, error) {
	if !cfg.Code.IsValid() {
		return nil, fmt.Errorf("%w: unknown provider code %q", integration.ErrProviderRequest, cfg.Code)
	}
	if cfg.TenantID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing tenant", integration.ErrProviderRequest)
	}
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	if cfg.Status == "" {
		cfg.Status = integration.ConnectionStatusInactive
	}

	if err := s.configs.Save(ctx, cfg); err != nil {
		return nil, err
	}
	s.logger.Info("provider connection created",
		zap.String("connection_id", cfg.ID.String()),
		zap.String("tenant_id", cfg.TenantID.String()),
		zap.String("provider", cfg.Code.String()))
	return cfg, nil
}

// UpdateConnection replaces a connection's mutable fields. The connection
// must already exist for the tenant.
func (s *ConnectionService) UpdateConnection(ctx context.Context, cfg *integration.ProviderConfig) error {
	existing, err := s.configs.FindByID(ctx, cfg.TenantID, cfg.ID)
	if err != nil {
		return err
	}
	cfg.Code = existing.Code
	cfg.CreatedAt = existing.CreatedAt
	// An empty credential blob on update keeps the stored secrets
	if len(cfg.Credentials) == 0 {
		cfg.Credentials = existing.Credentials
	}
	return s.configs.Save(ctx, cfg)
}

// GetConnection loads one connection for a tenant.
func (s *ConnectionService) GetConnection(ctx context.Context, tenantID, id uuid.UUID) (*integration.ProviderConfig, error) {
	return s.configs.FindByID(ctx, tenantID, id)
}

// ListConnections lists a tenant's connections.
func (s *ConnectionService) ListConnections(ctx context.Context, tenantID uuid.UUID) ([]integration.ProviderConfig, error) {
	return s.configs.FindAllForTenant(ctx, tenantID)
}

// DeleteConnection removes a connection and its stored credentials.
func (s *ConnectionService) DeleteConnection(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.configs.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.logger.Info("provider connection deleted",
		zap.String("connection_id", id.String()),
		zap.String("tenant_id", tenantID.String()))
	return nil
}

// TestConnection runs the connector's credential check and records the
// outcome on the connection: a passing check activates it, a failing one
// marks it errored so operators see broken credentials immediately.
func (s *ConnectionService) TestConnection(ctx context.Context, tenantID, id uuid.UUID) (*integration.TestResult, error) {
	cfg, err := s.configs.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	result := s.runCheck(ctx, cfg)

	status := integration.ConnectionStatusActive
	if !result.Success {
		status = integration.ConnectionStatusError
	}
	if err := s.configs.UpdateStatus(ctx, cfg.ID, status); err != nil {
		s.logger.Warn("connection status update failed",
			zap.String("connection_id", cfg.ID.String()), zap.Error(err))
	}

	s.logger.Info("connection test",
		zap.String("connection_id", cfg.ID.String()),
		zap.String("provider", cfg.Code.String()),
		zap.Bool("success", result.Success))
	return &result, nil
}

func (s *ConnectionService) runCheck(ctx context.Context, cfg *integration.ProviderConfig) integration.TestResult {
	conn, err := s.registry.Connector(cfg)
	if err != nil {
		// Construction failures are credential-shape problems; surface them
		// like a failed check, without echoing credential values.
		return integration.TestResult{Success: false, Message: "connector rejected the stored credentials"}
	}
	return conn.TestConnection(ctx)
}
