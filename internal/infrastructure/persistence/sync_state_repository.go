package persistence

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/symmy/integrator/internal/domain/integration"
	"github.com/symmy/integrator/internal/infrastructure/persistence/models"
)

// GormSyncStateRepository implements integration.StateStore using GORM.
// Reads and writes are batched so a sync run costs one SELECT and at most
// two writes regardless of record count.
type GormSyncStateRepository struct {
	db *gorm.DB
}

// NewGormSyncStateRepository creates a new GormSyncStateRepository.
func NewGormSyncStateRepository(db *gorm.DB) *GormSyncStateRepository {
	return &GormSyncStateRepository{db: db}
}

// FetchBySKUs loads the existing sync states for the given SKUs in a single
// query, keyed by SKU.
func (r *GormSyncStateRepository) FetchBySKUs(ctx context.Context, skus []string) (map[string]*integration.SyncState, error) {
	states := make(map[string]*integration.SyncState, len(skus))
	if len(skus) == 0 {
		return states, nil
	}

	var stateModels []models.SyncStateModel
	if err := r.db.WithContext(ctx).
		Where("sku IN ?", skus).
		Find(&stateModels).Error; err != nil {
		return nil, err
	}

	for i := range stateModels {
		states[stateModels[i].SKU] = stateModels[i].ToDomain()
	}
	return states, nil
}

// BulkCreate inserts new sync states in a single statement.
func (r *GormSyncStateRepository) BulkCreate(ctx context.Context, states []*integration.SyncState) error {
	if len(states) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(toModels(states)).Error
}

// BulkUpdate writes fingerprint and timestamp changes for existing SKUs in a
// single statement, via an upsert restricted to those two columns.
func (r *GormSyncStateRepository) BulkUpdate(ctx context.Context, states []*integration.SyncState) error {
	if len(states) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sku"}},
			DoUpdates: clause.AssignmentColumns([]string{"data_hash", "last_synced_at"}),
		}).
		Create(toModels(states)).Error
}

func toModels(states []*integration.SyncState) []models.SyncStateModel {
	stateModels := make([]models.SyncStateModel, len(states))
	for i, s := range states {
		stateModels[i].FromDomain(s)
	}
	return stateModels
}

var _ integration.StateStore = (*GormSyncStateRepository)(nil)
