package service

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"kitchen-backoffice/internal/model"
	"kitchen-backoffice/internal/pricecsv"
	"kitchen-backoffice/internal/repository"
	"kitchen-backoffice/internal/stock"
	"kitchen-backoffice/internal/units"
	"kitchen-backoffice/internal/ws"
)

var (
	ErrItemNotFound  = errors.New("inventory item not found")
	ErrNothingToSave = errors.New("no counted items to snapshot")
)

type InventoryView struct {
	Items   []model.InventoryItem `json:"items"`
	Summary stock.Summary         `json:"summary"`
}

type InventoryService interface {
	// List returns the merged view: persisted rows, phantom rows for CSV
	// prices, master overrides and automatic tax rates.
	List(ctx context.Context, userID uuid.UUID) (*InventoryView, error)
	Save(userID uuid.UUID, item *model.InventoryItem, by string) error
	BulkUpsert(userID uuid.UUID, items []model.InventoryItem, by string) ([]model.InventoryItem, error)
	Delete(userID, id uuid.UUID, by string) error
	// Complete finishes a count by storing a snapshot of the counted rows.
	Complete(ctx context.Context, userID uuid.UUID, title, by string) (*model.InventorySnapshot, error)
	ExportCSV(ctx context.Context, userID uuid.UUID, w io.Writer) error
}

type inventoryService struct {
	repo      repository.InventoryRepository
	masters   repository.UnitConversionRepository
	snapshots repository.SnapshotRepository
	prices    PurchasePriceService
	hub       *ws.Hub
	log       *zap.Logger
	now       func() time.Time
}

func NewInventoryService(repo repository.InventoryRepository, masters repository.UnitConversionRepository, snapshots repository.SnapshotRepository, prices PurchasePriceService, hub *ws.Hub, log *zap.Logger) InventoryService {
	if log == nil {
		log = zap.NewNop()
	}
	return &inventoryService{
		repo:      repo,
		masters:   masters,
		snapshots: snapshots,
		prices:    prices,
		hub:       hub,
		log:       log,
		now:       time.Now,
	}
}

func (s *inventoryService) List(ctx context.Context, userID uuid.UUID) (*InventoryView, error) {
	persisted, err := s.repo.FindByUser(userID)
	if err != nil {
		return nil, err
	}
	prices, err := s.prices.LoadPrices(ctx, userID)
	if err != nil {
		return nil, err
	}
	masters, err := s.masters.FindAll()
	if err != nil {
		return nil, err
	}
	items := stock.Merge(persisted, prices, stock.MasterIndex(masters))
	return &InventoryView{Items: items, Summary: stock.Summarize(items)}, nil
}

// prepareItem validates the row and merges it into the stored row with the
// same vendor and name, if any.
func (s *inventoryService) prepareItem(userID uuid.UUID, item *model.InventoryItem, by string) error {
	item.Name = strings.TrimSpace(item.Name)
	item.Unit = units.NormalizeUnit(item.Unit)
	item.UserID = userID
	item.IsPhantom = false
	if err := validateStruct(item); err != nil {
		return err
	}

	if item.ID == uuid.Nil {
		existing, err := s.repo.FindByKey(userID, item.Vendor, item.Name)
		switch {
		case err == nil:
			item.ID = existing.ID
			item.CreatedAt = existing.CreatedAt
			item.CreatedBy = existing.CreatedBy
		case errors.Is(err, gorm.ErrRecordNotFound):
			item.CreatedBy = by
		default:
			return err
		}
	} else {
		existing, err := s.repo.FindByID(userID, item.ID)
		if err != nil {
			return notFound(err, ErrItemNotFound)
		}
		item.CreatedAt = existing.CreatedAt
		item.CreatedBy = existing.CreatedBy
	}
	item.UpdatedBy = by
	stock.ApplyTax(item)
	return nil
}

func (s *inventoryService) Save(userID uuid.UUID, item *model.InventoryItem, by string) error {
	if err := s.prepareItem(userID, item, by); err != nil {
		return err
	}
	if err := s.repo.Save(item); err != nil {
		return err
	}
	s.changed(userID)
	return nil
}

func (s *inventoryService) BulkUpsert(userID uuid.UUID, items []model.InventoryItem, by string) ([]model.InventoryItem, error) {
	batch := make([]*model.InventoryItem, 0, len(items))
	seen := make(map[string]int, len(items))
	for i := range items {
		item := &items[i]
		if err := s.prepareItem(userID, item, by); err != nil {
			return nil, invalidf("item %d (%s): %v", i, item.Name, err)
		}
		// Later duplicates in one request replace earlier ones.
		k := stock.Key(item.Vendor, item.Name)
		if j, ok := seen[k]; ok {
			if batch[j].ID != uuid.Nil && item.ID == uuid.Nil {
				item.ID = batch[j].ID
			}
			batch[j] = item
			continue
		}
		seen[k] = len(batch)
		batch = append(batch, item)
	}
	if err := s.repo.SaveAll(batch); err != nil {
		return nil, err
	}
	s.changed(userID)

	out := make([]model.InventoryItem, len(batch))
	for i, it := range batch {
		out[i] = *it
	}
	return out, nil
}

func (s *inventoryService) Delete(userID, id uuid.UUID, by string) error {
	if err := s.repo.Delete(userID, id, by); err != nil {
		return notFound(err, ErrItemNotFound)
	}
	s.changed(userID)
	return nil
}

func (s *inventoryService) Complete(ctx context.Context, userID uuid.UUID, title, by string) (*model.InventorySnapshot, error) {
	view, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if strings.TrimSpace(title) == "" {
		title = "Inventory " + now.Format("2006-01-02")
	}
	snap, err := buildSnapshot(userID, title, now, view.Items, by)
	if err != nil {
		return nil, err
	}
	if err := s.snapshots.Create(snap); err != nil {
		return nil, err
	}
	s.log.Info("inventory completed",
		zap.String("user_id", userID.String()),
		zap.String("snapshot_id", snap.ID.String()),
		zap.Int("items", snap.ItemCount),
	)
	s.hub.Publish(ws.Event{Type: ws.EventSnapshotChanged, UserID: userID.String(), Payload: map[string]string{"action": "created", "id": snap.ID.String()}})
	return snap, nil
}

func (s *inventoryService) ExportCSV(ctx context.Context, userID uuid.UUID, w io.Writer) error {
	view, err := s.List(ctx, userID)
	if err != nil {
		return err
	}
	header := []string{"vendor", "name", "quantity", "unit", "price", "value", "tax_rate", "category", "threshold"}
	rows := make([][]string, 0, len(view.Items))
	for _, it := range view.Items {
		rows = append(rows, []string{
			it.Vendor,
			it.Name,
			formatNumber(it.Quantity),
			it.Unit,
			formatNumber(it.Price),
			stock.LineValue(it).StringFixed(2),
			formatNumber(it.TaxRate),
			string(it.ItemCategory),
			formatNumber(it.Threshold),
		})
	}
	return pricecsv.WriteCSV(w, header, rows)
}

func (s *inventoryService) changed(userID uuid.UUID) {
	s.hub.Publish(ws.Event{Type: ws.EventInventoryChanged, UserID: userID.String()})
}

// buildSnapshot copies the counted rows into a new snapshot.
func buildSnapshot(userID uuid.UUID, title string, date time.Time, items []model.InventoryItem, by string) (*model.InventorySnapshot, error) {
	counted := stock.Counted(items)
	if len(counted) == 0 {
		return nil, ErrNothingToSave
	}
	lines := make([]model.SnapshotItem, len(counted))
	for i, it := range counted {
		lines[i] = model.SnapshotItem{
			Name:         it.Name,
			Vendor:       it.Vendor,
			Unit:         it.Unit,
			Quantity:     it.Quantity,
			Price:        it.Price,
			TaxRate:      it.TaxRate,
			ItemCategory: it.ItemCategory,
			Value:        stock.LineValue(it).InexactFloat64(),
		}
	}
	sum := stock.Summarize(counted)
	snap := &model.InventorySnapshot{
		UserID:       userID,
		Title:        title,
		SnapshotDate: time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		Items:        datatypes.NewJSONType(lines),
		TotalValue:   sum.TotalValue,
		ItemCount:    len(lines),
	}
	snap.CreatedBy = by
	snap.UpdatedBy = by
	return snap, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
