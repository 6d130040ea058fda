package repository

import (
	"time"

	"kitchen-backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SnapshotRepository interface {
	Create(s *model.InventorySnapshot) error
	FindByUser(userID uuid.UUID) ([]model.InventorySnapshot, error)
	FindByID(userID, id uuid.UUID) (*model.InventorySnapshot, error)
	FindByTitle(userID uuid.UUID, title string) (*model.InventorySnapshot, error)
	Count(userID uuid.UUID) (int64, error)
	Latest(userID uuid.UUID) (*model.InventorySnapshot, error)
	MoveToTrash(userID, id uuid.UUID, deletedBy string, at time.Time) (*model.TrashInventorySnapshot, error)
	FindTrash(userID uuid.UUID) ([]model.TrashInventorySnapshot, error)
	Restore(userID, trashID uuid.UUID) (*model.InventorySnapshot, error)
	PurgeTrash(userID, trashID uuid.UUID) error
}

type snapshotRepo struct {
	db *gorm.DB
}

func NewSnapshotRepo(db *gorm.DB) SnapshotRepository {
	return &snapshotRepo{db}
}

func (r *snapshotRepo) Create(s *model.InventorySnapshot) error {
	return r.db.Create(s).Error
}

func (r *snapshotRepo) FindByUser(userID uuid.UUID) ([]model.InventorySnapshot, error) {
	var rows []model.InventorySnapshot
	err := r.db.Where("user_id = ?", userID).
		Order("snapshot_date DESC, created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *snapshotRepo) FindByID(userID, id uuid.UUID) (*model.InventorySnapshot, error) {
	var s model.InventorySnapshot
	if err := r.db.First(&s, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *snapshotRepo) FindByTitle(userID uuid.UUID, title string) (*model.InventorySnapshot, error) {
	var s model.InventorySnapshot
	if err := r.db.First(&s, "user_id = ? AND title = ?", userID, title).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *snapshotRepo) Count(userID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.Model(&model.InventorySnapshot{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *snapshotRepo) Latest(userID uuid.UUID) (*model.InventorySnapshot, error) {
	var s model.InventorySnapshot
	err := r.db.Where("user_id = ?", userID).
		Order("snapshot_date DESC, created_at DESC").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// MoveToTrash copies the snapshot into the trash table and removes the
// original in one transaction.
func (r *snapshotRepo) MoveToTrash(userID, id uuid.UUID, deletedBy string, at time.Time) (*model.TrashInventorySnapshot, error) {
	var trash model.TrashInventorySnapshot
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var s model.InventorySnapshot
		if err := tx.First(&s, "id = ? AND user_id = ?", id, userID).Error; err != nil {
			return err
		}
		trash = s.ToTrash(deletedBy, at)
		if err := tx.Create(&trash).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.InventorySnapshot{}, "id = ?", s.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &trash, nil
}

func (r *snapshotRepo) FindTrash(userID uuid.UUID) ([]model.TrashInventorySnapshot, error) {
	var rows []model.TrashInventorySnapshot
	err := r.db.Where("user_id = ?", userID).Order("deleted_at DESC").Find(&rows).Error
	return rows, err
}

func (r *snapshotRepo) Restore(userID, trashID uuid.UUID) (*model.InventorySnapshot, error) {
	var restored model.InventorySnapshot
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var trash model.TrashInventorySnapshot
		if err := tx.First(&trash, "id = ? AND user_id = ?", trashID, userID).Error; err != nil {
			return err
		}
		restored = trash.Restore()
		if err := tx.Create(&restored).Error; err != nil {
			return err
		}
		return tx.Delete(&model.TrashInventorySnapshot{}, "id = ?", trash.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &restored, nil
}

func (r *snapshotRepo) PurgeTrash(userID, trashID uuid.UUID) error {
	res := r.db.Delete(&model.TrashInventorySnapshot{}, "id = ? AND user_id = ?", trashID, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
