package model

import (
	"kitchen-backoffice/internal/units"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryItem is one counted line of a user's stock.
type InventoryItem struct {
	BaseModel
	UserID        uuid.UUID    `gorm:"type:uuid;not null;index" json:"user_id"`
	Name          string       `gorm:"type:varchar(255);not null" json:"name" validate:"notblank"`
	NameKey       string       `gorm:"type:varchar(255);index" json:"-"`
	Quantity      float64      `gorm:"default:0" json:"quantity" validate:"gte=0"`
	Unit          string       `gorm:"type:varchar(20)" json:"unit"`
	Price         float64      `gorm:"default:0" json:"price" validate:"gte=0"`
	Vendor        string       `gorm:"type:varchar(255);index" json:"vendor"`
	Threshold     float64      `gorm:"default:0" json:"threshold" validate:"gte=0"`
	TaxRate       float64      `gorm:"not null" json:"tax_rate" validate:"gte=0,lte=1"`
	TaxRateManual bool         `gorm:"default:false" json:"tax_rate_manual"`
	ItemCategory  ItemCategory `gorm:"type:varchar(20);default:'food'" json:"item_category" validate:"omitempty,oneof=food alcohol soft_drink supplies"`

	// IsPhantom marks rows synthesized from CSV prices that have no persisted record yet.
	IsPhantom bool `gorm:"-" json:"is_phantom"`
}

func (InventoryItem) TableName() string {
	return "inventory_items"
}

func (i *InventoryItem) BeforeSave(tx *gorm.DB) error {
	i.NameKey = units.NormalizeName(i.Name)
	if i.ItemCategory == "" {
		i.ItemCategory = CategoryFood
	}
	return nil
}

// Value is quantity times unit price, tax excluded.
func (i *InventoryItem) Value() float64 {
	return i.Quantity * i.Price
}

func (i *InventoryItem) IsLowStock() bool {
	return i.Threshold > 0 && i.Quantity < i.Threshold
}
