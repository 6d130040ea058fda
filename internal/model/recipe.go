package model

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type RecipeType string

const (
	RecipeStandard RecipeType = "standard"
	RecipeBread    RecipeType = "bread"
)

type RecipeIngredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	// IsFlour marks lines that count toward the 100% base of a bread formula.
	IsFlour bool   `json:"is_flour,omitempty"`
	Note    string `json:"note,omitempty"`
}

type IngredientGroup struct {
	Title string             `json:"title"`
	Items []RecipeIngredient `json:"items"`
}

type StepGroup struct {
	Title string   `json:"title"`
	Steps []string `json:"steps"`
}

type RecipeMeta struct {
	Notes        string   `json:"notes,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Source       string   `json:"source,omitempty"`
	SellingPrice float64  `json:"selling_price,omitempty"`
}

type Recipe struct {
	BaseModel
	UserID           uuid.UUID                             `gorm:"type:uuid;not null;index" json:"user_id"`
	Title            string                                `gorm:"type:varchar(255);not null" json:"title" validate:"notblank"`
	RecipeType       RecipeType                            `gorm:"type:varchar(20);default:'standard'" json:"recipe_type" validate:"omitempty,oneof=standard bread"`
	Servings         int                                   `gorm:"default:1" json:"servings" validate:"gte=0"`
	IngredientGroups datatypes.JSONType[[]IngredientGroup] `json:"ingredient_groups"`
	StepGroups       datatypes.JSONType[[]StepGroup]       `json:"step_groups"`
	Metadata         datatypes.JSONType[RecipeMeta]        `json:"metadata"`
}

func (Recipe) TableName() string {
	return "recipes"
}
