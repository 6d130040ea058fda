package model

import (
	"time"

	"github.com/google/uuid"
)

// PriceCSVFile describes an uploaded purchase-price CSV in blob storage.
type PriceCSVFile struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TrashPriceCSV records a CSV file moved out of the user's folder.
type TrashPriceCSV struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	FileName     string    `gorm:"type:varchar(255);not null" json:"file_name"`
	OriginalPath string    `gorm:"type:varchar(512);not null" json:"original_path"`
	TrashPath    string    `gorm:"type:varchar(512);not null" json:"trash_path"`
	Size         int64     `json:"size"`
	DeletedAt    time.Time `gorm:"index" json:"deleted_at"`
	DeletedBy    string    `json:"deleted_by"`
}

func (TrashPriceCSV) TableName() string {
	return "trash_price_csvs"
}
