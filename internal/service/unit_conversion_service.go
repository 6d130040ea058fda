package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"kitchen-backoffice/internal/importer"
	"kitchen-backoffice/internal/model"
	"kitchen-backoffice/internal/repository"
	"kitchen-backoffice/internal/search"
	"kitchen-backoffice/internal/units"
	"kitchen-backoffice/internal/ws"
)

var (
	ErrMasterNotFound  = errors.New("master record not found")
	ErrMasterNameTaken = errors.New("another master record already uses this ingredient name")
)

type PreviewStatus string

const (
	PreviewNew       PreviewStatus = "new"
	PreviewChanged   PreviewStatus = "changed"
	PreviewUnchanged PreviewStatus = "unchanged"
)

// ImportPreviewRow is a candidate master record built from CSV prices.
type ImportPreviewRow struct {
	Candidate model.UnitConversion  `json:"candidate"`
	Existing  *model.UnitConversion `json:"existing,omitempty"`
	Status    PreviewStatus         `json:"status"`
}

type UnitConversionService interface {
	List() ([]model.UnitConversion, error)
	Get(id uuid.UUID) (*model.UnitConversion, error)
	// Save creates or replaces the record with the same ingredient name. Any
	// id in uc is ignored; renaming goes through Update.
	Save(ctx context.Context, uc *model.UnitConversion, by string) error
	Update(ctx context.Context, id uuid.UUID, uc *model.UnitConversion, by string) error
	Delete(id uuid.UUID, by string) error
	// BulkSave upserts rows with the bounded worker pool and reports progress
	// to the user over the websocket.
	BulkSave(ctx context.Context, userID uuid.UUID, rows []model.UnitConversion, by string) (importer.Result, error)
	PreviewImport(ctx context.Context, userID uuid.UUID) ([]ImportPreviewRow, error)
}

type unitConversionService struct {
	repo        repository.UnitConversionRepository
	prices      PurchasePriceService
	cache       *search.Cache
	hub         *ws.Hub
	concurrency int
	log         *zap.Logger
}

func NewUnitConversionService(repo repository.UnitConversionRepository, prices PurchasePriceService, cache *search.Cache, hub *ws.Hub, concurrency int, log *zap.Logger) UnitConversionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &unitConversionService{
		repo:        repo,
		prices:      prices,
		cache:       cache,
		hub:         hub,
		concurrency: concurrency,
		log:         log,
	}
}

func (s *unitConversionService) List() ([]model.UnitConversion, error) {
	return s.repo.FindAll()
}

func (s *unitConversionService) Get(id uuid.UUID) (*model.UnitConversion, error) {
	uc, err := s.repo.FindByID(id)
	if err != nil {
		return nil, notFound(err, ErrMasterNotFound)
	}
	return uc, nil
}

func prepareMaster(uc *model.UnitConversion, by string) error {
	uc.IngredientName = strings.TrimSpace(uc.IngredientName)
	uc.PacketUnit = units.NormalizeUnit(uc.PacketUnit)
	if err := validateStruct(uc); err != nil {
		return err
	}
	if uc.ID == uuid.Nil {
		uc.CreatedBy = by
	}
	uc.UpdatedBy = by
	return nil
}

func (s *unitConversionService) Save(ctx context.Context, uc *model.UnitConversion, by string) error {
	uc.ID = uuid.Nil
	if err := prepareMaster(uc, by); err != nil {
		return err
	}
	if err := s.repo.Upsert(ctx, uc); err != nil {
		return err
	}
	s.changed()
	return nil
}

func (s *unitConversionService) Update(ctx context.Context, id uuid.UUID, uc *model.UnitConversion, by string) error {
	current, err := s.repo.FindByID(id)
	if err != nil {
		return notFound(err, ErrMasterNotFound)
	}
	uc.ID = id
	if err := prepareMaster(uc, by); err != nil {
		return err
	}
	other, err := s.repo.FindByName(uc.IngredientName)
	switch {
	case err == nil && other.ID != id:
		return ErrMasterNameTaken
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}
	if err := s.repo.Update(ctx, uc); err != nil {
		return notFound(err, ErrMasterNotFound)
	}
	uc.CreatedAt = current.CreatedAt
	uc.CreatedBy = current.CreatedBy
	if current.IngredientName != uc.IngredientName {
		s.log.Info("master record renamed",
			zap.String("id", id.String()),
			zap.String("from", current.IngredientName),
			zap.String("to", uc.IngredientName),
			zap.String("by", by),
		)
	}
	s.changed()
	return nil
}

func (s *unitConversionService) Delete(id uuid.UUID, by string) error {
	if err := s.repo.Delete(id); err != nil {
		return notFound(err, ErrMasterNotFound)
	}
	s.log.Info("master record deleted", zap.String("id", id.String()), zap.String("by", by))
	s.changed()
	return nil
}

func (s *unitConversionService) BulkSave(ctx context.Context, userID uuid.UUID, rows []model.UnitConversion, by string) (importer.Result, error) {
	opts := importer.Options{
		Concurrency: s.concurrency,
		Name:        func(i int) string { return rows[i].IngredientName },
		OnProgress: func(p importer.Progress) {
			s.hub.Publish(ws.Event{Type: ws.EventMasterImportProgress, UserID: userID.String(), Payload: p})
		},
	}
	res, err := importer.Run(ctx, rows, opts, func(ctx context.Context, uc model.UnitConversion) error {
		if err := prepareMaster(&uc, by); err != nil {
			return err
		}
		return s.repo.Upsert(ctx, &uc)
	})

	s.log.Info("master bulk save finished",
		zap.String("user_id", userID.String()),
		zap.Int("total", res.Total),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("failed", res.Failed),
	)
	if res.Succeeded > 0 {
		s.changed()
	}
	return res, err
}

func (s *unitConversionService) PreviewImport(ctx context.Context, userID uuid.UUID) ([]ImportPreviewRow, error) {
	prices, err := s.prices.LoadPrices(ctx, userID)
	if err != nil {
		return nil, err
	}
	masters, err := s.repo.FindAll()
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]*model.UnitConversion, len(masters))
	for i := range masters {
		byKey[units.NormalizeName(masters[i].IngredientName)] = &masters[i]
	}

	rows := make([]ImportPreviewRow, 0, len(prices))
	for key, entry := range prices {
		unit := units.NormalizeUnit(entry.Unit)
		cand := model.UnitConversion{
			IngredientName: entry.Name,
			NameKey:        key,
			PacketSize:     1,
			PacketUnit:     unit,
			LastPrice:      entry.Price,
			ItemCategory:   model.CategoryFood,
			Vendor:         entry.Vendor,
		}
		row := ImportPreviewRow{Candidate: cand, Status: PreviewNew}
		if m, ok := byKey[key]; ok {
			row.Existing = m
			row.Candidate = candidateFromExisting(m, entry.Price, unit, entry.Vendor)
			row.Status = PreviewUnchanged
			if masterDiffers(m, &row.Candidate) {
				row.Status = PreviewChanged
			}
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Candidate.NameKey < rows[j].Candidate.NameKey })
	return rows, nil
}

// candidateFromExisting keeps the master's packet and rescales the CSV
// price (per unit) to a packet price when the units convert.
func candidateFromExisting(m *model.UnitConversion, price float64, unit, vendor string) model.UnitConversion {
	cand := *m
	if vendor != "" {
		cand.Vendor = vendor
	}
	if m.PacketSize > 0 {
		if f, ok := units.ConversionFactor(m.PacketUnit, unit); ok {
			cand.LastPrice = math.Round(price*f*m.PacketSize*100) / 100
			return cand
		}
	}
	cand.PacketSize = 1
	cand.PacketUnit = unit
	cand.LastPrice = price
	return cand
}

func masterDiffers(m, cand *model.UnitConversion) bool {
	return math.Abs(m.LastPrice-cand.LastPrice) > 0.005 ||
		units.NormalizeVendor(m.Vendor) != units.NormalizeVendor(cand.Vendor) ||
		units.NormalizeUnit(m.PacketUnit) != units.NormalizeUnit(cand.PacketUnit) ||
		m.PacketSize != cand.PacketSize
}

// changed drops every cached candidate list; the master is shared.
func (s *unitConversionService) changed() {
	s.cache.InvalidateAll()
	s.hub.Publish(ws.Event{Type: ws.EventMasterChanged})
}
