package service

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"kitchen-backoffice/internal/costing"
	"kitchen-backoffice/internal/model"
	"kitchen-backoffice/internal/repository"
	"kitchen-backoffice/internal/stock"
	"kitchen-backoffice/internal/units"
)

var (
	ErrRecipeNotFound = errors.New("recipe not found")
	ErrNotBread       = errors.New("baker's percentages need a bread recipe")
)

type RecipeService interface {
	List(userID uuid.UUID) ([]model.Recipe, error)
	Get(userID, id uuid.UUID) (*model.Recipe, error)
	Create(userID uuid.UUID, r *model.Recipe, by string) error
	Update(userID, id uuid.UUID, r *model.Recipe, by string) error
	Delete(userID, id uuid.UUID) error
	CostBreakdown(userID, id uuid.UUID) (*costing.Breakdown, error)
	BakersPercentages(userID, id uuid.UUID) (*costing.BakersFormula, error)
}

type recipeService struct {
	repo    repository.RecipeRepository
	masters repository.UnitConversionRepository
}

func NewRecipeService(repo repository.RecipeRepository, masters repository.UnitConversionRepository) RecipeService {
	return &recipeService{repo: repo, masters: masters}
}

func (s *recipeService) List(userID uuid.UUID) ([]model.Recipe, error) {
	return s.repo.FindByUser(userID)
}

func (s *recipeService) Get(userID, id uuid.UUID) (*model.Recipe, error) {
	r, err := s.repo.FindByID(userID, id)
	if err != nil {
		return nil, notFound(err, ErrRecipeNotFound)
	}
	return r, nil
}

func normalizeRecipe(r *model.Recipe) error {
	r.Title = strings.TrimSpace(r.Title)
	if r.RecipeType == "" {
		r.RecipeType = model.RecipeStandard
	}
	if r.Servings == 0 {
		r.Servings = 1
	}
	if err := validateStruct(r); err != nil {
		return err
	}
	groups := r.IngredientGroups.Data()
	for gi := range groups {
		for ii := range groups[gi].Items {
			ing := &groups[gi].Items[ii]
			ing.Name = strings.TrimSpace(ing.Name)
			ing.Unit = units.NormalizeUnit(ing.Unit)
			if ing.Quantity < 0 {
				return invalidf("ingredient %q has a negative quantity", ing.Name)
			}
		}
	}
	r.IngredientGroups = datatypes.NewJSONType(groups)
	return nil
}

func (s *recipeService) Create(userID uuid.UUID, r *model.Recipe, by string) error {
	r.ID = uuid.Nil
	r.UserID = userID
	if err := normalizeRecipe(r); err != nil {
		return err
	}
	r.CreatedBy = by
	r.UpdatedBy = by
	return s.repo.Create(r)
}

func (s *recipeService) Update(userID, id uuid.UUID, r *model.Recipe, by string) error {
	existing, err := s.Get(userID, id)
	if err != nil {
		return err
	}
	r.ID = existing.ID
	r.UserID = userID
	r.CreatedAt = existing.CreatedAt
	r.CreatedBy = existing.CreatedBy
	if err := normalizeRecipe(r); err != nil {
		return err
	}
	r.UpdatedBy = by
	return s.repo.Update(r)
}

func (s *recipeService) Delete(userID, id uuid.UUID) error {
	return notFound(s.repo.Delete(userID, id), ErrRecipeNotFound)
}

func (s *recipeService) CostBreakdown(userID, id uuid.UUID) (*costing.Breakdown, error) {
	r, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	masters, err := s.masters.FindAll()
	if err != nil {
		return nil, err
	}
	b := costing.Cost(r, stock.MasterIndex(masters))
	return &b, nil
}

func (s *recipeService) BakersPercentages(userID, id uuid.UUID) (*costing.BakersFormula, error) {
	r, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	if r.RecipeType != model.RecipeBread {
		return nil, ErrNotBread
	}
	f, err := costing.Bakers(r)
	if err != nil {
		return nil, invalid(err)
	}
	return &f, nil
}
