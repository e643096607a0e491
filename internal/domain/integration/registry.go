package integration

import (
	"fmt"
	"sync"
)

// ConnectorFactory builds a connector bound to one provider connection.
type ConnectorFactory func(cfg *ProviderConfig) (Connector, error)

// Registry maps provider codes to connector factories. Adding a provider is
// purely additive: register one more entry, no caller changes.
type Registry struct {
	mu        sync.RWMutex
	factories map[ProviderCode]ConnectorFactory
}

// NewRegistry creates an empty connector registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[ProviderCode]ConnectorFactory)}
}

// Register adds a factory for a provider code, replacing any previous one.
func (r *Registry) Register(code ProviderCode, factory ConnectorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[code] = factory
}

// Codes returns the registered provider codes.
func (r *Registry) Codes() []ProviderCode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]ProviderCode, 0, len(r.factories))
	for code := range r.factories {
		codes = append(codes, code)
	}
	return codes
}

// Connector builds a connector for the given connection.
func (r *Registry) Connector(cfg *ProviderConfig) (Connector, error) {
	r.mu.RLock()
	factory, ok := r.factories[cfg.Code]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotRegistered, cfg.Code)
	}
	return factory(cfg)
}

// CourierConnector builds a connector and asserts it serves courier
// operations.
func (r *Registry) CourierConnector(cfg *ProviderConfig) (CourierConnector, error) {
	conn, err := r.Connector(cfg)
	if err != nil {
		return nil, err
	}
	courier, ok := conn.(CourierConnector)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a courier provider", ErrProviderRequest, cfg.Code)
	}
	return courier, nil
}

// MarketplaceConnector builds a connector and asserts it serves marketplace
// operations.
func (r *Registry) MarketplaceConnector(cfg *ProviderConfig) (MarketplaceConnector, error) {
	conn, err := r.Connector(cfg)
	if err != nil {
		return nil, err
	}
	marketplace, ok := conn.(MarketplaceConnector)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a marketplace provider", ErrProviderRequest, cfg.Code)
	}
	return marketplace, nil
}
