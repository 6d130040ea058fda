package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kitchen-backoffice/internal/repository"
)

type DashboardStats struct {
	ItemCount        int        `json:"item_count"`
	LowStockCount    int        `json:"low_stock_count"`
	TotalValue       float64    `json:"total_value"`
	TotalWithTax     float64    `json:"total_with_tax"`
	SnapshotCount    int64      `json:"snapshot_count"`
	LastSnapshotDate *time.Time `json:"last_snapshot_date,omitempty"`
	LastSnapshotID   *uuid.UUID `json:"last_snapshot_id,omitempty"`
	CSVFileCount     int        `json:"csv_file_count"`
}

type DashboardService interface {
	GetDashboardStats(ctx context.Context, userID uuid.UUID) (*DashboardStats, error)
}

type dashboardService struct {
	inventory InventoryService
	snapshots repository.SnapshotRepository
	prices    PurchasePriceService
}

func NewDashboardService(inventory InventoryService, snapshots repository.SnapshotRepository, prices PurchasePriceService) DashboardService {
	return &dashboardService{inventory: inventory, snapshots: snapshots, prices: prices}
}

func (s *dashboardService) GetDashboardStats(ctx context.Context, userID uuid.UUID) (*DashboardStats, error) {
	view, err := s.inventory.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := &DashboardStats{
		ItemCount:     view.Summary.ItemCount,
		LowStockCount: view.Summary.LowStockCount,
		TotalValue:    view.Summary.TotalValue,
		TotalWithTax:  view.Summary.TotalWithTax,
	}

	if stats.SnapshotCount, err = s.snapshots.Count(userID); err != nil {
		return nil, err
	}
	latest, err := s.snapshots.Latest(userID)
	switch {
	case err == nil:
		stats.LastSnapshotDate = &latest.SnapshotDate
		stats.LastSnapshotID = &latest.ID
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	files, err := s.prices.ListFiles(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats.CSVFileCount = len(files)
	return stats, nil
}
