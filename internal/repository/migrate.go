package repository

import (
	"kitchen-backoffice/internal/model"

	"gorm.io/gorm"
)

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Profile{},
		&model.UnitConversion{},
		&model.InventoryItem{},
		&model.InventorySnapshot{},
		&model.TrashInventorySnapshot{},
		&model.TrashPriceCSV{},
		&model.Recipe{},
	)
}
