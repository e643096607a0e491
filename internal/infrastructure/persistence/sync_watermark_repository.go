package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
	"github.com/Carloscisneroides/logistica-sub001/internal/infrastructure/persistence/models"
)

// GormSyncWatermarkRepository implements SyncWatermarkRepository using GORM
type GormSyncWatermarkRepository struct {
	db *gorm.DB
}

// NewGormSyncWatermarkRepository creates a new GormSyncWatermarkRepository
func NewGormSyncWatermarkRepository(db *gorm.DB) *GormSyncWatermarkRepository {
	return &GormSyncWatermarkRepository{db: db}
}

// Get returns the watermark, or nil when the connection never synced
func (r *GormSyncWatermarkRepository) Get(ctx context.Context, connectionID uuid.UUID) (*time.Time, error) {
	var model models.SyncWatermarkModel
	if err := r.db.WithContext(ctx).
		First(&model, "connection_id = ?", connectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &model.Watermark, nil
}

// Advance moves the watermark forward. Called only after a batch has been
// fully processed.
func (r *GormSyncWatermarkRepository) Advance(ctx context.Context, connectionID uuid.UUID, watermark time.Time) error {
	model := &models.SyncWatermarkModel{
		ConnectionID: connectionID,
		Watermark:    watermark,
		UpdatedAt:    time.Now().UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "connection_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"watermark", "updated_at"}),
		}).
		Create(model).Error
}

// Ensure GormSyncWatermarkRepository implements SyncWatermarkRepository
var _ integration.SyncWatermarkRepository = (*GormSyncWatermarkRepository)(nil)
