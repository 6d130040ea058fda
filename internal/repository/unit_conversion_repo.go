package repository

import (
	"context"
	"strings"

	"kitchen-backoffice/internal/model"
	"kitchen-backoffice/internal/units"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UnitConversionRepository stores the shared ingredient master.
type UnitConversionRepository interface {
	FindAll() ([]model.UnitConversion, error)
	FindByID(id uuid.UUID) (*model.UnitConversion, error)
	// Upsert inserts or updates the record keyed by ingredient_name.
	Upsert(ctx context.Context, uc *model.UnitConversion) error
	// Update writes every field of an existing row, including a new name.
	Update(ctx context.Context, uc *model.UnitConversion) error
	FindByName(name string) (*model.UnitConversion, error)
	Delete(id uuid.UUID) error
	SearchIngredients(ctx context.Context, query string, limit int) ([]model.UnitConversion, error)
}

type unitConversionRepo struct {
	db *gorm.DB
}

func NewUnitConversionRepo(db *gorm.DB) UnitConversionRepository {
	return &unitConversionRepo{db}
}

func (r *unitConversionRepo) FindAll() ([]model.UnitConversion, error) {
	var rows []model.UnitConversion
	err := r.db.Order("ingredient_name ASC").Find(&rows).Error
	return rows, err
}

func (r *unitConversionRepo) FindByID(id uuid.UUID) (*model.UnitConversion, error) {
	var uc model.UnitConversion
	if err := r.db.First(&uc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &uc, nil
}

// Upsert reloads the row afterwards so uc carries the stored ID.
func (r *unitConversionRepo) Upsert(ctx context.Context, uc *model.UnitConversion) error {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ingredient_name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name_key", "packet_size", "packet_unit", "last_price",
			"item_category", "vendor", "updated_at", "updated_by",
		}),
	}).Create(uc).Error
	if err != nil {
		return err
	}
	var stored model.UnitConversion
	if err := db.Where("ingredient_name = ?", uc.IngredientName).First(&stored).Error; err != nil {
		return err
	}
	*uc = stored
	return nil
}

func (r *unitConversionRepo) FindByName(name string) (*model.UnitConversion, error) {
	var uc model.UnitConversion
	if err := r.db.First(&uc, "ingredient_name = ?", name).Error; err != nil {
		return nil, err
	}
	return &uc, nil
}

func (r *unitConversionRepo) Update(ctx context.Context, uc *model.UnitConversion) error {
	uc.NameKey = units.NormalizeName(uc.IngredientName)
	if uc.ItemCategory == "" {
		uc.ItemCategory = model.CategoryFood
	}
	res := r.db.WithContext(ctx).Model(uc).Select(
		"ingredient_name", "name_key", "packet_size", "packet_unit", "last_price",
		"item_category", "vendor", "updated_at", "updated_by",
	).Updates(uc)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the row for good so the name can be registered again.
func (r *unitConversionRepo) Delete(id uuid.UUID) error {
	res := r.db.Unscoped().Delete(&model.UnitConversion{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SearchIngredients ranks master rows by normalized name: exact match,
// then prefix, then substring, then alphabetical.
func (r *unitConversionRepo) SearchIngredients(ctx context.Context, query string, limit int) ([]model.UnitConversion, error) {
	q := units.NormalizeName(query)
	if q == "" {
		return []model.UnitConversion{}, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	escaped := escapeLike(q)

	sql, args, err := squirrel.Select("*").
		From(model.UnitConversion{}.TableName()).
		Where(squirrel.Eq{"deleted_at": nil}).
		Where(squirrel.Expr(`name_key LIKE ? ESCAPE '\'`, "%"+escaped+"%")).
		OrderByClause("CASE WHEN name_key = ? THEN 0 WHEN name_key LIKE ? ESCAPE '\\' THEN 1 ELSE 2 END", q, escaped+"%").
		OrderBy("ingredient_name ASC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Question).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []model.UnitConversion
	if err := r.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

const defaultSearchLimit = 15

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
