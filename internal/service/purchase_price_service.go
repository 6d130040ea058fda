package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kitchen-backoffice/internal/model"
	"kitchen-backoffice/internal/pricecsv"
	"kitchen-backoffice/internal/repository"
	"kitchen-backoffice/internal/search"
	"kitchen-backoffice/internal/storage"
	"kitchen-backoffice/internal/ws"
)

var (
	ErrInvalidFileName = errors.New("file name must be a plain .csv name")
	ErrFileNotFound    = errors.New("csv file not found")
	ErrFileTooLarge    = errors.New("csv file is too large")
	ErrFileExists      = errors.New("a csv file with this name already exists")
)

const (
	trashFolder     = ".trash"
	maxCSVSize      = 10 << 20
	downloadWorkers = 4
)

type PurchasePriceService interface {
	ListFiles(ctx context.Context, userID uuid.UUID) ([]model.PriceCSVFile, error)
	Upload(ctx context.Context, userID uuid.UUID, name string, body io.Reader, by string) (*model.PriceCSVFile, error)
	Download(ctx context.Context, userID uuid.UUID, name string) (io.ReadCloser, error)
	// Delete moves the file into the user's trash folder.
	Delete(ctx context.Context, userID uuid.UUID, name, by string) (*model.TrashPriceCSV, error)
	ListTrash(userID uuid.UUID) ([]model.TrashPriceCSV, error)
	RestoreFromTrash(ctx context.Context, userID, trashID uuid.UUID) (*model.PriceCSVFile, error)
	PurgeTrash(ctx context.Context, userID, trashID uuid.UUID) error
	// LoadPrices parses every CSV of the user and merges them, newest
	// observation per ingredient winning.
	LoadPrices(ctx context.Context, userID uuid.UUID) (pricecsv.PriceMap, error)
}

type purchasePriceService struct {
	store     storage.Store
	trashRepo repository.TrashPriceCSVRepository
	cache     *search.Cache
	hub       *ws.Hub
	log       *zap.Logger
	now       func() time.Time
}

func NewPurchasePriceService(store storage.Store, trashRepo repository.TrashPriceCSVRepository, cache *search.Cache, hub *ws.Hub, log *zap.Logger) PurchasePriceService {
	if log == nil {
		log = zap.NewNop()
	}
	return &purchasePriceService{
		store:     store,
		trashRepo: trashRepo,
		cache:     cache,
		hub:       hub,
		log:       log,
		now:       time.Now,
	}
}

func userFolder(userID uuid.UUID) string {
	return userID.String() + "/"
}

func cleanFileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != path.Base(name) || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidFileName
	}
	if !strings.EqualFold(path.Ext(name), ".csv") {
		return "", ErrInvalidFileName
	}
	return name, nil
}

func toFile(o storage.Object) model.PriceCSVFile {
	return model.PriceCSVFile{Name: path.Base(o.Key), Path: o.Key, Size: o.Size, UpdatedAt: o.Updated}
}

func (s *purchasePriceService) ListFiles(ctx context.Context, userID uuid.UUID) ([]model.PriceCSVFile, error) {
	objs, err := s.store.List(ctx, userFolder(userID))
	if err != nil {
		return nil, fmt.Errorf("list csv files: %w", err)
	}
	files := make([]model.PriceCSVFile, 0, len(objs))
	for _, o := range objs {
		if !strings.EqualFold(path.Ext(o.Key), ".csv") {
			continue
		}
		files = append(files, toFile(o))
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (s *purchasePriceService) Upload(ctx context.Context, userID uuid.UUID, name string, body io.Reader, by string) (*model.PriceCSVFile, error) {
	name, err := cleanFileName(name)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(io.LimitReader(body, maxCSVSize+1))
	if err != nil {
		return nil, err
	}
	if len(raw) > maxCSVSize {
		return nil, ErrFileTooLarge
	}

	key := storage.Join(userID.String(), name)
	if err := s.store.Upload(ctx, key, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}
	s.log.Info("price csv uploaded",
		zap.String("user_id", userID.String()),
		zap.String("file", name),
		zap.Int("bytes", len(raw)),
		zap.String("by", by),
	)
	s.changed(userID, "uploaded", name)
	return &model.PriceCSVFile{Name: name, Path: key, Size: int64(len(raw)), UpdatedAt: s.now()}, nil
}

func (s *purchasePriceService) Download(ctx context.Context, userID uuid.UUID, name string) (io.ReadCloser, error) {
	name, err := cleanFileName(name)
	if err != nil {
		return nil, err
	}
	rc, err := s.store.Download(ctx, storage.Join(userID.String(), name))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrFileNotFound
	}
	return rc, err
}

func (s *purchasePriceService) Delete(ctx context.Context, userID uuid.UUID, name, by string) (*model.TrashPriceCSV, error) {
	name, err := cleanFileName(name)
	if err != nil {
		return nil, err
	}
	now := s.now()
	src := storage.Join(userID.String(), name)
	// The timestamp prefix keeps repeated deletes of the same name apart.
	dst := storage.Join(userID.String(), trashFolder, fmt.Sprintf("%d_%s", now.UnixNano(), name))

	objs, err := s.store.List(ctx, userFolder(userID))
	if err != nil {
		return nil, err
	}
	var size int64 = -1
	for _, o := range objs {
		if o.Key == src {
			size = o.Size
		}
	}
	if size < 0 {
		return nil, ErrFileNotFound
	}

	if err := s.store.Move(ctx, src, dst); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("move %s to trash: %w", name, err)
	}
	rec := &model.TrashPriceCSV{
		UserID:       userID,
		FileName:     name,
		OriginalPath: src,
		TrashPath:    dst,
		Size:         size,
		DeletedAt:    now,
		DeletedBy:    by,
	}
	if err := s.trashRepo.Create(rec); err != nil {
		// Put the file back so it is not orphaned in the trash folder.
		if mvErr := s.store.Move(ctx, dst, src); mvErr != nil {
			s.log.Error("csv trash rollback failed", zap.String("path", dst), zap.Error(mvErr))
		}
		return nil, err
	}
	s.changed(userID, "deleted", name)
	return rec, nil
}

func (s *purchasePriceService) ListTrash(userID uuid.UUID) ([]model.TrashPriceCSV, error) {
	return s.trashRepo.FindByUser(userID)
}

func (s *purchasePriceService) RestoreFromTrash(ctx context.Context, userID, trashID uuid.UUID) (*model.PriceCSVFile, error) {
	rec, err := s.trashRepo.FindByID(userID, trashID)
	if err != nil {
		return nil, notFound(err, ErrFileNotFound)
	}
	// A file uploaded under the same name after the delete must survive.
	exists, err := s.exists(ctx, userID, rec.OriginalPath)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrFileExists
	}
	if err := s.store.Move(ctx, rec.TrashPath, rec.OriginalPath); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("restore %s: %w", rec.FileName, err)
	}
	if err := s.trashRepo.Delete(userID, trashID); err != nil {
		return nil, err
	}
	s.changed(userID, "restored", rec.FileName)
	return &model.PriceCSVFile{Name: rec.FileName, Path: rec.OriginalPath, Size: rec.Size, UpdatedAt: s.now()}, nil
}

func (s *purchasePriceService) exists(ctx context.Context, userID uuid.UUID, key string) (bool, error) {
	objs, err := s.store.List(ctx, userFolder(userID))
	if err != nil {
		return false, fmt.Errorf("list csv files: %w", err)
	}
	for _, o := range objs {
		if o.Key == key {
			return true, nil
		}
	}
	return false, nil
}

func (s *purchasePriceService) PurgeTrash(ctx context.Context, userID, trashID uuid.UUID) error {
	rec, err := s.trashRepo.FindByID(userID, trashID)
	if err != nil {
		return notFound(err, ErrFileNotFound)
	}
	if err := s.store.Delete(ctx, rec.TrashPath); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("purge %s: %w", rec.FileName, err)
	}
	return s.trashRepo.Delete(userID, trashID)
}

func (s *purchasePriceService) LoadPrices(ctx context.Context, userID uuid.UUID) (pricecsv.PriceMap, error) {
	files, err := s.ListFiles(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Older files first so that a newer file wins ties on equal dates.
	sort.SliceStable(files, func(i, j int) bool { return files[i].UpdatedAt.Before(files[j].UpdatedAt) })

	maps := make([]pricecsv.PriceMap, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(downloadWorkers)
	for i, f := range files {
		g.Go(func() error {
			rc, err := s.store.Download(gctx, f.Path)
			if err != nil {
				return fmt.Errorf("download %s: %w", f.Name, err)
			}
			defer rc.Close()
			raw, err := io.ReadAll(rc)
			if err != nil {
				return fmt.Errorf("read %s: %w", f.Name, err)
			}
			text, err := pricecsv.Decode(raw)
			if err != nil {
				return fmt.Errorf("decode %s: %w", f.Name, err)
			}
			maps[i] = pricecsv.Parse(text)
			s.log.Debug("price csv parsed", zap.String("file", f.Name), zap.Int("entries", len(maps[i])))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pricecsv.Merge(maps...), nil
}

func (s *purchasePriceService) changed(userID uuid.UUID, action, name string) {
	s.cache.Invalidate(userID)
	s.hub.Publish(ws.Event{
		Type:    ws.EventPriceCSVChanged,
		UserID:  userID.String(),
		Payload: map[string]string{"action": action, "file": name},
	})
}
