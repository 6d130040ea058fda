package model

import (
	"kitchen-backoffice/internal/units"

	"gorm.io/gorm"
)

type ItemCategory string

const (
	CategoryFood      ItemCategory = "food"
	CategoryAlcohol   ItemCategory = "alcohol"
	CategorySoftDrink ItemCategory = "soft_drink"
	CategorySupplies  ItemCategory = "supplies"
)

const (
	ReducedTaxRate  = 0.08
	StandardTaxRate = 0.10
)

// TaxRate returns the consumption tax applied to items of this category.
// Food and non-alcoholic drinks use the reduced rate.
func (c ItemCategory) TaxRate() float64 {
	switch c {
	case CategoryFood, CategorySoftDrink:
		return ReducedTaxRate
	default:
		return StandardTaxRate
	}
}

func (c ItemCategory) Valid() bool {
	switch c {
	case CategoryFood, CategoryAlcohol, CategorySoftDrink, CategorySupplies:
		return true
	}
	return false
}

// UnitConversion is the ingredient master record: the canonical packet size
// and last known packet price for one ingredient name.
type UnitConversion struct {
	BaseModel
	IngredientName string       `gorm:"type:varchar(255);uniqueIndex;not null" json:"ingredient_name" validate:"notblank"`
	NameKey        string       `gorm:"type:varchar(255);index" json:"name_key"`
	PacketSize     float64      `gorm:"default:0" json:"packet_size" validate:"gte=0"`
	PacketUnit     string       `gorm:"type:varchar(20)" json:"packet_unit"`
	LastPrice      float64      `gorm:"default:0" json:"last_price" validate:"gte=0"`
	ItemCategory   ItemCategory `gorm:"type:varchar(20);default:'food'" json:"item_category" validate:"omitempty,oneof=food alcohol soft_drink supplies"`
	Vendor         string       `gorm:"type:varchar(255)" json:"vendor"`
}

func (UnitConversion) TableName() string {
	return "unit_conversions"
}

func (u *UnitConversion) BeforeSave(tx *gorm.DB) error {
	u.NameKey = units.NormalizeName(u.IngredientName)
	if u.ItemCategory == "" {
		u.ItemCategory = CategoryFood
	}
	return nil
}

// UnitPrice returns the price of one targetUnit of this ingredient.
func (u *UnitConversion) UnitPrice(targetUnit string) (float64, bool) {
	return units.UnitPriceFor(u.LastPrice, u.PacketSize, u.PacketUnit, targetUnit)
}
