package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SnapshotItem is the denormalized copy of an inventory line stored in a snapshot.
type SnapshotItem struct {
	Name         string       `json:"name"`
	Vendor       string       `json:"vendor"`
	Unit         string       `json:"unit"`
	Quantity     float64      `json:"quantity"`
	Price        float64      `json:"price"`
	TaxRate      float64      `json:"tax_rate"`
	ItemCategory ItemCategory `json:"item_category"`
	Value        float64      `json:"value"`
}

// InventorySnapshot is an immutable point-in-time copy of inventory state.
type InventorySnapshot struct {
	BaseModel
	UserID       uuid.UUID                          `gorm:"type:uuid;not null;index" json:"user_id"`
	Title        string                             `gorm:"type:varchar(255);not null" json:"title" validate:"notblank"`
	SnapshotDate time.Time                          `gorm:"type:date;not null;index" json:"snapshot_date"`
	Items        datatypes.JSONType[[]SnapshotItem] `json:"items"`
	TotalValue   float64                            `gorm:"default:0" json:"total_value"`
	ItemCount    int                                `gorm:"default:0" json:"item_count"`
}

func (InventorySnapshot) TableName() string {
	return "inventory_snapshots"
}

// TrashInventorySnapshot holds snapshots removed by the user until they are
// restored or purged.
type TrashInventorySnapshot struct {
	ID                uuid.UUID                          `gorm:"type:uuid;primary_key;" json:"id"`
	UserID            uuid.UUID                          `gorm:"type:uuid;not null;index" json:"user_id"`
	Title             string                             `gorm:"type:varchar(255);not null" json:"title"`
	SnapshotDate      time.Time                          `gorm:"type:date;not null" json:"snapshot_date"`
	Items             datatypes.JSONType[[]SnapshotItem] `json:"items"`
	TotalValue        float64                            `json:"total_value"`
	ItemCount         int                                `json:"item_count"`
	OriginalCreatedAt time.Time                          `json:"original_created_at"`
	CreatedBy         string                             `json:"created_by"`
	DeletedAt         time.Time                          `gorm:"index" json:"deleted_at"`
	DeletedBy         string                             `json:"deleted_by"`
}

func (TrashInventorySnapshot) TableName() string {
	return "trash_inventory_snapshots"
}

func (s *InventorySnapshot) ToTrash(deletedBy string, at time.Time) TrashInventorySnapshot {
	return TrashInventorySnapshot{
		ID:                s.ID,
		UserID:            s.UserID,
		Title:             s.Title,
		SnapshotDate:      s.SnapshotDate,
		Items:             s.Items,
		TotalValue:        s.TotalValue,
		ItemCount:         s.ItemCount,
		OriginalCreatedAt: s.CreatedAt,
		CreatedBy:         s.CreatedBy,
		DeletedAt:         at,
		DeletedBy:         deletedBy,
	}
}

func (t *TrashInventorySnapshot) Restore() InventorySnapshot {
	s := InventorySnapshot{
		UserID:       t.UserID,
		Title:        t.Title,
		SnapshotDate: t.SnapshotDate,
		Items:        t.Items,
		TotalValue:   t.TotalValue,
		ItemCount:    t.ItemCount,
	}
	s.ID = t.ID
	s.CreatedAt = t.OriginalCreatedAt
	s.CreatedBy = t.CreatedBy
	return s
}
