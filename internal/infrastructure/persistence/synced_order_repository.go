package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
	"github.com/Carloscisneroides/logistica-sub001/internal/infrastructure/persistence/models"
)

// GormSyncedOrderRepository implements SyncedOrderRepository using GORM
type GormSyncedOrderRepository struct {
	db *gorm.DB
}

// NewGormSyncedOrderRepository creates a new GormSyncedOrderRepository
func NewGormSyncedOrderRepository(db *gorm.DB) *GormSyncedOrderRepository {
	return &GormSyncedOrderRepository{db: db}
}

// Save upserts the record for (connection, external order ID). The line item
// document is replaced wholesale, never merged row by row.
func (r *GormSyncedOrderRepository) Save(ctx context.Context, connectionID uuid.UUID, order *integration.NormalizedOrder) error {
	model := &models.SyncedOrderModel{}
	model.FromDomain(connectionID, order)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "connection_id"}, {Name: "external_order_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"order_number", "customer_email", "total_amount", "currency",
				"status", "shipping_address", "line_items", "placed_at", "updated_at",
			}),
		}).
		Create(model).Error
}

// FindByExternalID loads one synced order, or (nil, nil) when unseen
func (r *GormSyncedOrderRepository) FindByExternalID(ctx context.Context, connectionID uuid.UUID, externalOrderID string) (*integration.NormalizedOrder, error) {
	var model models.SyncedOrderModel
	if err := r.db.WithContext(ctx).
		First(&model, "connection_id = ? AND external_order_id = ?", connectionID, externalOrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForConnection lists a connection's synced orders, newest placed first
func (r *GormSyncedOrderRepository) FindAllForConnection(ctx context.Context, connectionID uuid.UUID) ([]integration.NormalizedOrder, error) {
	var orderModels []models.SyncedOrderModel
	if err := r.db.WithContext(ctx).
		Where("connection_id = ?", connectionID).
		Order("placed_at DESC").
		Find(&orderModels).Error; err != nil {
		return nil, err
	}

	orders := make([]integration.NormalizedOrder, len(orderModels))
	for i, model := range orderModels {
		orders[i] = *model.ToDomain()
	}
	return orders, nil
}

// Ensure GormSyncedOrderRepository implements SyncedOrderRepository
var _ integration.SyncedOrderRepository = (*GormSyncedOrderRepository)(nil)
