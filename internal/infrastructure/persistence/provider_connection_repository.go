package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
	"github.com/Carloscisneroides/logistica-sub001/internal/infrastructure/persistence/models"
)

// GormProviderConnectionRepository implements ProviderConfigRepository using GORM
type GormProviderConnectionRepository struct {
	db *gorm.DB
}

// NewGormProviderConnectionRepository creates a new GormProviderConnectionRepository
func NewGormProviderConnectionRepository(db *gorm.DB) *GormProviderConnectionRepository {
	return &GormProviderConnectionRepository{db: db}
}

// Save creates or updates a connection
func (r *GormProviderConnectionRepository) Save(ctx context.Context, cfg *integration.ProviderConfig) error {
	model := &models.ProviderConnectionModel{}
	model.FromDomain(cfg)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID loads one connection within its tenant
func (r *GormProviderConnectionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*integration.ProviderConfig, error) {
	var model models.ProviderConnectionModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrConnectionNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists a tenant's connections
func (r *GormProviderConnectionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]integration.ProviderConfig, error) {
	var connectionModels []models.ProviderConnectionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&connectionModels).Error; err != nil {
		return nil, err
	}

	configs := make([]integration.ProviderConfig, len(connectionModels))
	for i, model := range connectionModels {
		configs[i] = *model.ToDomain()
	}
	return configs, nil
}

// FindAllActive lists active connections across all tenants. Used by the
// background pull loop, which runs outside any tenant scope.
func (r *GormProviderConnectionRepository) FindAllActive(ctx context.Context) ([]integration.ProviderConfig, error) {
	var connectionModels []models.ProviderConnectionModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(integration.ConnectionStatusActive)).
		Order("created_at ASC").
		Find(&connectionModels).Error; err != nil {
		return nil, err
	}

	configs := make([]integration.ProviderConfig, len(connectionModels))
	for i, model := range connectionModels {
		configs[i] = *model.ToDomain()
	}
	return configs, nil
}

// UpdateStatus records the outcome of the last credential check
func (r *GormProviderConnectionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status integration.ConnectionStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProviderConnectionModel{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrConnectionNotFound
	}
	return nil
}

// Delete removes a connection and its stored credentials
func (r *GormProviderConnectionRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&models.ProviderConnectionModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrConnectionNotFound
	}
	return nil
}

// Ensure GormProviderConnectionRepository implements ProviderConfigRepository
var _ integration.ProviderConfigRepository = (*GormProviderConnectionRepository)(nil)
