package integration

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
)

func TestCreateConnection(t *testing.T) {
	configs := newFakeConfigRepo()
	svc := NewConnectionService(configs, integration.NewRegistry(), zap.NewNop())
	tenantID := uuid.New()

	cfg, err := svc.CreateConnection(context.Background(), &integration.ProviderConfig{
		TenantID:    tenantID,
		Code:        integration.ProviderCodeShopify,
		DisplayName: "Main store",
		Credentials: json.RawMessage(`{"shopDomain":"acme"}`),
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, cfg.ID)
	// New connections start inactive until a credential check activates them
	assert.Equal(t, integration.ConnectionStatusInactive, cfg.Status)

	loaded, err := svc.GetConnection(context.Background(), tenantID, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, "Main store", loaded.DisplayName)
}

func TestCreateConnection_UnknownProviderCode(t *testing.T) {
	svc := NewConnectionService(newFakeConfigRepo(), integration.NewRegistry(), zap.NewNop())

	// Carriers without a connector are rejected up front; "UPS" stays here
	// until an adapter ships for it
	for _, code := range []integration.ProviderCode{"ALIBABA", "UPS", ""} {
		t.Run(string(code), func(t *testing.T) {
			_, err := svc.CreateConnection(context.Background(), &integration.ProviderConfig{
				TenantID: uuid.New(),
				Code:     code,
			})

			require.ErrorIs(t, err, integration.ErrProviderRequest)
		})
	}
}

func TestCreateConnection_MissingTenant(t *testing.T) {
	svc := NewConnectionService(newFakeConfigRepo(), integration.NewRegistry(), zap.NewNop())

	_, err := svc.CreateConnection(context.Background(), &integration.ProviderConfig{
		Code: integration.ProviderCodeDHL,
	})

	require.ErrorIs(t, err, integration.ErrProviderRequest)
}

func TestUpdateConnection_KeepsStoredCredentialsWhenBlank(t *testing.T) {
	configs := newFakeConfigRepo()
	svc := NewConnectionService(configs, integration.NewRegistry(), zap.NewNop())
	ctx := context.Background()

	created, err := svc.CreateConnection(ctx, &integration.ProviderConfig{
		TenantID:    uuid.New(),
		Code:        integration.ProviderCodeDHL,
		Credentials: json.RawMessage(`{"username":"u","password":"p"}`),
	})
	require.NoError(t, err)

	update := *created
	update.DisplayName = "renamed"
	update.Credentials = nil
	require.NoError(t, svc.UpdateConnection(ctx, &update))

	loaded, err := svc.GetConnection(ctx, created.TenantID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", loaded.DisplayName)
	assert.JSONEq(t, `{"username":"u","password":"p"}`, string(loaded.Credentials))
}

func TestTestConnection_PassingCheckActivates(t *testing.T) {
	configs := newFakeConfigRepo()
	marketplace := &fakeMarketplace{
		code:       integration.ProviderCodeShopify,
		testResult: integration.TestResult{Success: true, Message: "ok"},
	}
	svc := NewConnectionService(configs, registryWith(integration.ProviderCodeShopify, marketplace), zap.NewNop())
	ctx := context.Background()

	created, err := svc.CreateConnection(ctx, &integration.ProviderConfig{
		TenantID: uuid.New(),
		Code:     integration.ProviderCodeShopify,
	})
	require.NoError(t, err)

	result, err := svc.TestConnection(ctx, created.TenantID, created.ID)

	require.NoError(t, err)
	assert.True(t, result.Success)
	loaded, err := svc.GetConnection(ctx, created.TenantID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, integration.ConnectionStatusActive, loaded.Status)
}

func TestTestConnection_FailingCheckMarksError(t *testing.T) {
	configs := newFakeConfigRepo()
	marketplace := &fakeMarketplace{
		code:       integration.ProviderCodeShopify,
		testResult: integration.TestResult{Success: false, Message: "rejected"},
	}
	svc := NewConnectionService(configs, registryWith(integration.ProviderCodeShopify, marketplace), zap.NewNop())
	ctx := context.Background()

	created, err := svc.CreateConnection(ctx, &integration.ProviderConfig{
		TenantID: uuid.New(),
		Code:     integration.ProviderCodeShopify,
		Status:   integration.ConnectionStatusActive,
	})
	require.NoError(t, err)

	result, err := svc.TestConnection(ctx, created.TenantID, created.ID)

	require.NoError(t, err)
	assert.False(t, result.Success)
	loaded, err := svc.GetConnection(ctx, created.TenantID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, integration.ConnectionStatusError, loaded.Status)
}

func TestTestConnection_UnregisteredProviderFailsCheck(t *testing.T) {
	configs := newFakeConfigRepo()
	svc := NewConnectionService(configs, integration.NewRegistry(), zap.NewNop())
	ctx := context.Background()

	created, err := svc.CreateConnection(ctx, &integration.ProviderConfig{
		TenantID: uuid.New(),
		Code:     integration.ProviderCodeDHL,
	})
	require.NoError(t, err)

	result, err := svc.TestConnection(ctx, created.TenantID, created.ID)

	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestDeleteConnection(t *testing.T) {
	configs := newFakeConfigRepo()
	svc := NewConnectionService(configs, integration.NewRegistry(), zap.NewNop())
	ctx := context.Background()

	created, err := svc.CreateConnection(ctx, &integration.ProviderConfig{
		TenantID: uuid.New(),
		Code:     integration.ProviderCodeFedEx,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteConnection(ctx, created.TenantID, created.ID))

	_, err = svc.GetConnection(ctx, created.TenantID, created.ID)
	require.ErrorIs(t, err, integration.ErrConnectionNotFound)
}

func TestConnections_AreTenantScoped(t *testing.T) {
	configs := newFakeConfigRepo()
	svc := NewConnectionService(configs, integration.NewRegistry(), zap.NewNop())
	ctx := context.Background()

	created, err := svc.CreateConnection(ctx, &integration.ProviderConfig{
		TenantID: uuid.New(),
		Code:     integration.ProviderCodeFedEx,
	})
	require.NoError(t, err)

	otherTenant := uuid.New()
	_, err = svc.GetConnection(ctx, otherTenant, created.ID)
	require.ErrorIs(t, err, integration.ErrConnectionNotFound)
	err = svc.DeleteConnection(ctx, otherTenant, created.ID)
	require.ErrorIs(t, err, integration.ErrConnectionNotFound)
}
