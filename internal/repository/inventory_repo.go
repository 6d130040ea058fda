package repository

import (
	"kitchen-backoffice/internal/model"
	"kitchen-backoffice/internal/units"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InventoryRepository interface {
	FindByUser(userID uuid.UUID) ([]model.InventoryItem, error)
	FindByID(userID, id uuid.UUID) (*model.InventoryItem, error)
	FindByKey(userID uuid.UUID, vendor, name string) (*model.InventoryItem, error)
	Save(item *model.InventoryItem) error
	// SaveAll runs every save in one transaction.
	SaveAll(items []*model.InventoryItem) error
	Delete(userID, id uuid.UUID, deletedBy string) error
}

type inventoryRepo struct {
	db *gorm.DB
}

func NewInventoryRepo(db *gorm.DB) InventoryRepository {
	return &inventoryRepo{db}
}

func (r *inventoryRepo) FindByUser(userID uuid.UUID) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := r.db.Where("user_id = ?", userID).Order("vendor ASC, name ASC").Find(&items).Error
	return items, err
}

func (r *inventoryRepo) FindByID(userID, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := r.db.First(&item, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByKey returns the user's row with the same normalized vendor and name.
// When duplicates exist the most recently updated one is returned.
func (r *inventoryRepo) FindByKey(userID uuid.UUID, vendor, name string) (*model.InventoryItem, error) {
	return findByKey(r.db, userID, vendor, name)
}

func findByKey(db *gorm.DB, userID uuid.UUID, vendor, name string) (*model.InventoryItem, error) {
	var rows []model.InventoryItem
	err := db.Where("user_id = ? AND name_key = ?", userID, units.NormalizeName(name)).
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	want := units.NormalizeVendor(vendor)
	for i := range rows {
		if units.NormalizeVendor(rows[i].Vendor) == want {
			return &rows[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *inventoryRepo) Save(item *model.InventoryItem) error {
	return save(r.db, item)
}

func save(db *gorm.DB, item *model.InventoryItem) error {
	if item.ID == uuid.Nil {
		return db.Create(item).Error
	}
	return db.Save(item).Error
}

func (r *inventoryRepo) SaveAll(items []*model.InventoryItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			if err := save(tx, item); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *inventoryRepo) Delete(userID, id uuid.UUID, deletedBy string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.InventoryItem{}).
			Where("id = ? AND user_id = ?", id, userID).
			Update("deleted_by", deletedBy)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Delete(&model.InventoryItem{}, "id = ? AND user_id = ?", id, userID).Error
	})
}
