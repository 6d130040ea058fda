package repository

import (
	"kitchen-backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RecipeRepository interface {
	Create(recipe *model.Recipe) error
	FindByUser(userID uuid.UUID) ([]model.Recipe, error)
	FindByID(userID, id uuid.UUID) (*model.Recipe, error)
	Update(recipe *model.Recipe) error
	Delete(userID, id uuid.UUID) error
}

type recipeRepo struct {
	db *gorm.DB
}

func NewRecipeRepo(db *gorm.DB) RecipeRepository {
	return &recipeRepo{db}
}

func (r *recipeRepo) Create(recipe *model.Recipe) error {
	return r.db.Create(recipe).Error
}

func (r *recipeRepo) FindByUser(userID uuid.UUID) ([]model.Recipe, error) {
	var recipes []model.Recipe
	err := r.db.Where("user_id = ?", userID).Order("updated_at DESC").Find(&recipes).Error
	return recipes, err
}

func (r *recipeRepo) FindByID(userID, id uuid.UUID) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := r.db.First(&recipe, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepo) Update(recipe *model.Recipe) error {
	return r.db.Save(recipe).Error
}

func (r *recipeRepo) Delete(userID, id uuid.UUID) error {
	res := r.db.Delete(&model.Recipe{}, "id = ? AND user_id = ?", id, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
