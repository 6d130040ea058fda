package repository

import (
	"kitchen-backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TrashPriceCSVRepository interface {
	Create(t *model.TrashPriceCSV) error
	FindByUser(userID uuid.UUID) ([]model.TrashPriceCSV, error)
	FindByID(userID, id uuid.UUID) (*model.TrashPriceCSV, error)
	Delete(userID, id uuid.UUID) error
}

type trashPriceCSVRepo struct {
	db *gorm.DB
}

func NewTrashPriceCSVRepo(db *gorm.DB) TrashPriceCSVRepository {
	return &trashPriceCSVRepo{db}
}

func (r *trashPriceCSVRepo) Create(t *model.TrashPriceCSV) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return r.db.Create(t).Error
}

func (r *trashPriceCSVRepo) FindByUser(userID uuid.UUID) ([]model.TrashPriceCSV, error) {
	var rows []model.TrashPriceCSV
	err := r.db.Where("user_id = ?", userID).Order("deleted_at DESC").Find(&rows).Error
	return rows, err
}

func (r *trashPriceCSVRepo) FindByID(userID, id uuid.UUID) (*model.TrashPriceCSV, error) {
	var t model.TrashPriceCSV
	if err := r.db.First(&t, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *trashPriceCSVRepo) Delete(userID, id uuid.UUID) error {
	res := r.db.Delete(&model.TrashPriceCSV{}, "id = ? AND user_id = ?", id, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
