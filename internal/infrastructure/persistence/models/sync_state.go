// Package models contains the GORM persistence models and their mapping to
// domain types.
package models

import (
	"time"

	"github.com/symmy/integrator/internal/domain/integration"
)

// SyncStateModel is the persistence model for the per-SKU sync state.
type SyncStateModel struct {
	SKU          string    `gorm:"type:varchar(100);primaryKey;column:sku"`
	DataHash     string    `gorm:"type:varchar(64);not null;column:data_hash"`
	LastSyncedAt time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM.
func (SyncStateModel) TableName() string {
	return "product_sync_states"
}

// ToDomain converts the persistence model to a domain SyncState.
func (m *SyncStateModel) ToDomain() *integration.SyncState {
	return &integration.SyncState{
		SKU:          m.SKU,
		Fingerprint:  integration.Fingerprint(m.DataHash),
		LastSyncedAt: m.LastSyncedAt,
	}
}

// FromDomain populates the persistence model from a domain SyncState.
func (m *SyncStateModel) FromDomain(s *integration.SyncState) {
	m.SKU = s.SKU
	m.DataHash = string(s.Fingerprint)
	m.LastSyncedAt = s.LastSyncedAt
}
