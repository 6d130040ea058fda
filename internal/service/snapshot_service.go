package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"kitchen-backoffice/internal/model"
	"kitchen-backoffice/internal/pricecsv"
	"kitchen-backoffice/internal/repository"
	"kitchen-backoffice/internal/ws"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// MonthlyTitle names the automatic snapshot for the month containing t.
func MonthlyTitle(t time.Time) string {
	return "Monthly inventory " + t.Format("2006-01")
}

type MonthlyReport struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type SnapshotService interface {
	List(userID uuid.UUID) ([]model.InventorySnapshot, error)
	Get(userID, id uuid.UUID) (*model.InventorySnapshot, error)
	// Delete moves the snapshot to the trash table.
	Delete(userID, id uuid.UUID, by string) (*model.TrashInventorySnapshot, error)
	ListTrash(userID uuid.UUID) ([]model.TrashInventorySnapshot, error)
	Restore(userID, trashID uuid.UUID) (*model.InventorySnapshot, error)
	Purge(userID, trashID uuid.UUID) error
	ExportCSV(userID, id uuid.UUID, w io.Writer) (*model.InventorySnapshot, error)
	// CreateMonthly stores one snapshot per active profile for the month
	// before now. Profiles that already have it are skipped.
	CreateMonthly(ctx context.Context, now time.Time) (MonthlyReport, error)
}

type snapshotService struct {
	repo      repository.SnapshotRepository
	profiles  repository.ProfileRepository
	inventory InventoryService
	hub       *ws.Hub
	log       *zap.Logger
	now       func() time.Time
}

func NewSnapshotService(repo repository.SnapshotRepository, profiles repository.ProfileRepository, inventory InventoryService, hub *ws.Hub, log *zap.Logger) SnapshotService {
	if log == nil {
		log = zap.NewNop()
	}
	return &snapshotService{repo: repo, profiles: profiles, inventory: inventory, hub: hub, log: log, now: time.Now}
}

func (s *snapshotService) List(userID uuid.UUID) ([]model.InventorySnapshot, error) {
	return s.repo.FindByUser(userID)
}

func (s *snapshotService) Get(userID, id uuid.UUID) (*model.InventorySnapshot, error) {
	snap, err := s.repo.FindByID(userID, id)
	if err != nil {
		return nil, notFound(err, ErrSnapshotNotFound)
	}
	return snap, nil
}

func (s *snapshotService) Delete(userID, id uuid.UUID, by string) (*model.TrashInventorySnapshot, error) {
	trash, err := s.repo.MoveToTrash(userID, id, by, s.now())
	if err != nil {
		return nil, notFound(err, ErrSnapshotNotFound)
	}
	s.changed(userID, "deleted", id)
	return trash, nil
}

func (s *snapshotService) ListTrash(userID uuid.UUID) ([]model.TrashInventorySnapshot, error) {
	return s.repo.FindTrash(userID)
}

func (s *snapshotService) Restore(userID, trashID uuid.UUID) (*model.InventorySnapshot, error) {
	snap, err := s.repo.Restore(userID, trashID)
	if err != nil {
		return nil, notFound(err, ErrSnapshotNotFound)
	}
	s.changed(userID, "restored", snap.ID)
	return snap, nil
}

func (s *snapshotService) Purge(userID, trashID uuid.UUID) error {
	return notFound(s.repo.PurgeTrash(userID, trashID), ErrSnapshotNotFound)
}

func (s *snapshotService) ExportCSV(userID, id uuid.UUID, w io.Writer) (*model.InventorySnapshot, error) {
	snap, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	header := []string{"vendor", "name", "quantity", "unit", "price", "value", "tax_rate", "category"}
	items := snap.Items.Data()
	rows := make([][]string, 0, len(items)+1)
	for _, it := range items {
		rows = append(rows, []string{
			it.Vendor,
			it.Name,
			formatNumber(it.Quantity),
			it.Unit,
			formatNumber(it.Price),
			fmt.Sprintf("%.2f", it.Value),
			formatNumber(it.TaxRate),
			string(it.ItemCategory),
		})
	}
	rows = append(rows, []string{"", "total", "", "", "", fmt.Sprintf("%.2f", snap.TotalValue), "", ""})
	if err := pricecsv.WriteCSV(w, header, rows); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *snapshotService) CreateMonthly(ctx context.Context, now time.Time) (MonthlyReport, error) {
	var report MonthlyReport
	// The last day of the previous month.
	date := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -1)
	title := MonthlyTitle(date)

	profiles, err := s.profiles.FindActive()
	if err != nil {
		return report, err
	}
	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		_, err := s.repo.FindByTitle(p.ID, title)
		if err == nil {
			report.Skipped++
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			report.Failed++
			s.log.Error("monthly snapshot lookup failed", zap.String("user_id", p.ID.String()), zap.Error(err))
			continue
		}

		view, err := s.inventory.List(ctx, p.ID)
		if err != nil {
			report.Failed++
			s.log.Error("monthly snapshot inventory failed", zap.String("user_id", p.ID.String()), zap.Error(err))
			continue
		}
		snap, err := buildSnapshot(p.ID, title, date, view.Items, "system")
		if errors.Is(err, ErrNothingToSave) {
			report.Skipped++
			continue
		}
		if err == nil {
			err = s.repo.Create(snap)
		}
		if err != nil {
			report.Failed++
			s.log.Error("monthly snapshot failed", zap.String("user_id", p.ID.String()), zap.Error(err))
			continue
		}
		report.Created++
		s.changed(p.ID, "created", snap.ID)
	}
	s.log.Info("monthly snapshots done",
		zap.String("title", title),
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func (s *snapshotService) changed(userID uuid.UUID, action string, id uuid.UUID) {
	s.hub.Publish(ws.Event{
		Type:    ws.EventSnapshotChanged,
		UserID:  userID.String(),
		Payload: map[string]string{"action": action, "id": id.String()},
	})
}
