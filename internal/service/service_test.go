package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"kitchen-backoffice/internal/costing"
	"kitchen-backoffice/internal/model"
	"kitchen-backoffice/internal/repository"
	"kitchen-backoffice/internal/search"
	"kitchen-backoffice/internal/storage"
)

type testEnv struct {
	db        *gorm.DB
	store     storage.Store
	cache     *search.Cache
	profiles  repository.ProfileRepository
	masters   repository.UnitConversionRepository
	prices    PurchasePriceService
	inventory InventoryService
	snapshots SnapshotService
	user      uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := repository.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	e := &testEnv{
		db:       db,
		store:    store,
		cache:    search.NewCache(),
		profiles: repository.NewProfileRepo(db),
		masters:  repository.NewUnitConversionRepo(db),
	}
	e.prices = NewPurchasePriceService(store, repository.NewTrashPriceCSVRepo(db), e.cache, nil, nil)
	snapRepo := repository.NewSnapshotRepo(db)
	e.inventory = NewInventoryService(repository.NewInventoryRepo(db), e.masters, snapRepo, e.prices, nil, nil)
	e.snapshots = NewSnapshotService(snapRepo, e.profiles, e.inventory, nil, nil)

	p := &model.Profile{Email: "chef@example.com", DisplayName: "Chef", Role: model.RoleUser, IsActive: true}
	if err := p.SetPassword("secret1"); err != nil {
		t.Fatalf("password: %v", err)
	}
	if err := e.profiles.Create(p); err != nil {
		t.Fatalf("profile: %v", err)
	}
	e.user = p.ID
	return e
}

const vegCSV = "日付,取引先,商品名,単位,単価\n" +
	"2024/03/01,Greengrocer,Onion,kg,300\n" +
	"2024/03/01,Greengrocer,Coconut Milk,l,800\n" +
	"2024/03/02,Greengrocer,Milk,l,250\n"

func (e *testEnv) upload(t *testing.T, name, body string) {
	t.Helper()
	if _, err := e.prices.Upload(context.Background(), e.user, name, strings.NewReader(body), "chef"); err != nil {
		t.Fatalf("Upload %s: %v", name, err)
	}
}

func TestPriceCSVTrashAndRestore(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.upload(t, "march.csv", vegCSV)

	if _, err := e.prices.Upload(ctx, e.user, "../evil.csv", strings.NewReader("x"), "chef"); !errors.Is(err, ErrInvalidFileName) {
		t.Fatalf("path traversal: want ErrInvalidFileName got %v", err)
	}

	prices, err := e.prices.LoadPrices(ctx, e.user)
	if err != nil {
		t.Fatalf("LoadPrices: %v", err)
	}
	if len(prices) != 3 {
		t.Fatalf("want 3 prices, got %v", prices)
	}

	rec, err := e.prices.Delete(ctx, e.user, "march.csv", "chef")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	files, _ := e.prices.ListFiles(ctx, e.user)
	if len(files) != 0 {
		t.Fatalf("deleted file still listed: %+v", files)
	}
	trash, _ := e.prices.ListTrash(e.user)
	if len(trash) != 1 || trash[0].FileName != "march.csv" {
		t.Fatalf("trash: %+v", trash)
	}

	if _, err := e.prices.RestoreFromTrash(ctx, e.user, rec.ID); err != nil {
		t.Fatalf("RestoreFromTrash: %v", err)
	}
	files, _ = e.prices.ListFiles(ctx, e.user)
	if len(files) != 1 || files[0].Name != "march.csv" {
		t.Fatalf("restored file missing: %+v", files)
	}
	if _, err := e.prices.Delete(ctx, e.user, "missing.csv", "chef"); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("missing file: want ErrFileNotFound got %v", err)
	}
}

func TestRestoreKeepsNewerUpload(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.upload(t, "march.csv", "old")
	rec, err := e.prices.Delete(ctx, e.user, "march.csv", "chef")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	e.upload(t, "march.csv", "new")

	if _, err := e.prices.RestoreFromTrash(ctx, e.user, rec.ID); !errors.Is(err, ErrFileExists) {
		t.Fatalf("want ErrFileExists got %v", err)
	}
	rc, err := e.prices.Download(ctx, e.user, "march.csv")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "new" {
		t.Fatalf("want=%q got=%q", "new", body)
	}
	trash, _ := e.prices.ListTrash(e.user)
	if len(trash) != 1 {
		t.Fatalf("trash record should stay for a later restore, got %+v", trash)
	}

	// Once the newer file is gone the old one restores.
	if _, err := e.prices.Delete(ctx, e.user, "march.csv", "chef"); err != nil {
		t.Fatalf("Delete newer: %v", err)
	}
	if _, err := e.prices.RestoreFromTrash(ctx, e.user, rec.ID); err != nil {
		t.Fatalf("RestoreFromTrash: %v", err)
	}
}

type failingSearch struct {
	repository.UnitConversionRepository
}

func (failingSearch) SearchIngredients(ctx context.Context, query string, limit int) ([]model.UnitConversion, error) {
	return nil, errors.New("rpc unavailable")
}

func TestSearchFallsBackToLocalRanking(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.upload(t, "march.csv", vegCSV)

	svc := NewIngredientSearchService(failingSearch{e.masters}, e.prices, e.cache, 15, nil)
	res, err := svc.Search(ctx, e.user, "milk")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Source != "local" || len(res.Results) != 2 {
		t.Fatalf("want 2 local results, got %+v", res)
	}
	if res.Results[0].Name != "Milk" || res.Results[1].Name != "Coconut Milk" {
		t.Fatalf("ranking: %+v", res.Results)
	}
	if _, ok := e.cache.Get(e.user); !ok {
		t.Fatalf("candidates should be cached after a fallback search")
	}

	// A CSV upload invalidates the user's cached candidates.
	e.upload(t, "april.csv", "日付,商品名,単価\n2024/04/01,Milk Powder,1200\n")
	if _, ok := e.cache.Get(e.user); ok {
		t.Fatalf("upload should invalidate the cache")
	}
}

func TestSearchUsesServerResultsFirst(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	if err := e.masters.Upsert(ctx, &model.UnitConversion{IngredientName: "Milk", PacketSize: 1, PacketUnit: "l", LastPrice: 240}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	svc := NewIngredientSearchService(e.masters, e.prices, e.cache, 15, nil)
	res, err := svc.Search(ctx, e.user, "mil")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Source != search.SourceServer || len(res.Results) != 1 || res.Results[0].Price != 240 {
		t.Fatalf("server result expected, got %+v", res)
	}
}

func TestInventoryListCompleteAndExport(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.upload(t, "march.csv", vegCSV)

	onion := &model.InventoryItem{Name: "onion", Vendor: "greengrocer", Quantity: 3, Unit: "kg", Price: 300}
	if err := e.inventory.Save(e.user, onion, "chef"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// Saving the same vendor and name again updates the stored row.
	again := &model.InventoryItem{Name: "Onion", Vendor: "Greengrocer", Quantity: 4, Unit: "kg", Price: 300}
	if err := e.inventory.Save(e.user, again, "chef"); err != nil {
		t.Fatalf("Save again: %v", err)
	}
	if again.ID != onion.ID {
		t.Fatalf("duplicate row created: %s vs %s", again.ID, onion.ID)
	}

	view, err := e.inventory.List(ctx, e.user)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(view.Items) != 3 {
		t.Fatalf("want onion plus 2 phantom rows, got %+v", view.Items)
	}
	phantoms := 0
	for _, it := range view.Items {
		if it.IsPhantom {
			phantoms++
		}
	}
	if phantoms != 2 || view.Summary.ItemCount != 1 || view.Summary.TotalValue != 1200 {
		t.Fatalf("view: phantoms=%d summary=%+v", phantoms, view.Summary)
	}

	snap, err := e.inventory.Complete(ctx, e.user, "", "chef")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if snap.ItemCount != 1 || snap.TotalValue != 1200 {
		t.Fatalf("snapshot: %+v", snap)
	}

	var buf bytes.Buffer
	if _, err := e.snapshots.ExportCSV(e.user, snap.ID, &buf); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatalf("export must start with a UTF-8 BOM")
	}
	if !strings.Contains(buf.String(), "Onion") || !strings.Contains(buf.String(), "1200.00") {
		t.Fatalf("export content: %q", buf.String())
	}
}

func TestCompleteWithoutCountedItems(t *testing.T) {
	e := newTestEnv(t)
	if _, err := e.inventory.Complete(context.Background(), e.user, "empty", "chef"); !errors.Is(err, ErrNothingToSave) {
		t.Fatalf("want ErrNothingToSave, got %v", err)
	}
}

func TestSnapshotDeleteRestore(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	if err := e.inventory.Save(e.user, &model.InventoryItem{Name: "Rice", Quantity: 10, Unit: "kg", Price: 400}, "chef"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	snap, err := e.inventory.Complete(ctx, e.user, "count", "chef")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	trash, err := e.snapshots.Delete(e.user, snap.ID, "chef")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := e.snapshots.Get(e.user, snap.ID); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("deleted snapshot: want ErrSnapshotNotFound got %v", err)
	}
	if _, err := e.snapshots.Restore(e.user, trash.ID); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if _, err := e.snapshots.Get(e.user, snap.ID); err != nil {
		t.Fatalf("restored snapshot: %v", err)
	}
	if _, err := e.snapshots.Restore(e.user, trash.ID); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("second restore: want ErrSnapshotNotFound got %v", err)
	}
}

func TestCreateMonthlyIsIdempotent(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	if err := e.inventory.Save(e.user, &model.InventoryItem{Name: "Rice", Quantity: 10, Unit: "kg", Price: 400}, "chef"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	now := time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)

	r, err := e.snapshots.CreateMonthly(ctx, now)
	if err != nil {
		t.Fatalf("CreateMonthly: %v", err)
	}
	if r.Created != 1 {
		t.Fatalf("first run: %+v", r)
	}
	r, _ = e.snapshots.CreateMonthly(ctx, now)
	if r.Created != 0 || r.Skipped != 1 {
		t.Fatalf("second run should skip: %+v", r)
	}

	list, _ := e.snapshots.List(e.user)
	if len(list) != 1 || list[0].Title != "Monthly inventory 2024-04" {
		t.Fatalf("snapshots: %+v", list)
	}
	if got := list[0].SnapshotDate.Format("2006-01-02"); got != "2024-04-30" {
		t.Fatalf("snapshot date: want=2024-04-30 got=%s", got)
	}
}

func TestMasterRenameAndSaveWithStaleID(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	svc := NewUnitConversionService(e.masters, e.prices, e.cache, nil, 5, nil)

	flour := &model.UnitConversion{IngredientName: "Flour", PacketSize: 25, PacketUnit: "kg", LastPrice: 3000}
	if err := svc.Save(ctx, flour, "chef"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	sugar := &model.UnitConversion{IngredientName: "Sugar", PacketSize: 1, PacketUnit: "kg", LastPrice: 200}
	if err := svc.Save(ctx, sugar, "chef"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// An id carried into Save is dropped: the name decides the row.
	stale := &model.UnitConversion{IngredientName: "Salt", PacketSize: 1, PacketUnit: "kg", LastPrice: 100}
	stale.ID = flour.ID
	if err := svc.Save(ctx, stale, "chef"); err != nil {
		t.Fatalf("Save with stale id: %v", err)
	}
	if stale.ID == flour.ID {
		t.Fatalf("stale id reused")
	}

	rename := &model.UnitConversion{IngredientName: "Bread Flour", PacketSize: 25, PacketUnit: "kg", LastPrice: 3200}
	if err := svc.Update(ctx, flour.ID, rename, "chef"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := svc.Get(flour.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.IngredientName != "Bread Flour" || got.LastPrice != 3200 || got.NameKey != "breadflour" {
		t.Fatalf("renamed row: %+v", got)
	}

	clash := &model.UnitConversion{IngredientName: "Sugar", PacketSize: 1, PacketUnit: "kg"}
	if err := svc.Update(ctx, flour.ID, clash, "chef"); !errors.Is(err, ErrMasterNameTaken) {
		t.Fatalf("want ErrMasterNameTaken got %v", err)
	}
	if err := svc.Update(ctx, uuid.New(), rename, "chef"); !errors.Is(err, ErrMasterNotFound) {
		t.Fatalf("want ErrMasterNotFound got %v", err)
	}
	all, _ := svc.List()
	if len(all) != 3 {
		t.Fatalf("want 3 rows got %d", len(all))
	}
}

func TestBulkSaveAndPreview(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.upload(t, "march.csv", vegCSV)
	svc := NewUnitConversionService(e.masters, e.prices, e.cache, nil, 5, nil)

	rows := []model.UnitConversion{
		{IngredientName: "Onion", PacketSize: 10, PacketUnit: "kg", LastPrice: 3000, Vendor: "Greengrocer"},
		{IngredientName: "Milk", PacketSize: 1, PacketUnit: "l", LastPrice: 200, Vendor: "Greengrocer"},
		{IngredientName: "   ", PacketSize: 1, PacketUnit: "g"},
	}
	res, err := svc.BulkSave(ctx, e.user, rows, "chef")
	if err != nil {
		t.Fatalf("BulkSave: %v", err)
	}
	if res.Total != 3 || res.Succeeded != 2 || res.Failed != 1 || res.Failures[0].Index != 2 {
		t.Fatalf("result: %+v", res)
	}

	preview, err := svc.PreviewImport(ctx, e.user)
	if err != nil {
		t.Fatalf("PreviewImport: %v", err)
	}
	status := map[string]PreviewStatus{}
	for _, r := range preview {
		status[r.Candidate.IngredientName] = r.Status
	}
	want := map[string]PreviewStatus{"Onion": PreviewUnchanged, "Milk": PreviewChanged, "Coconut Milk": PreviewNew}
	for name, st := range want {
		if status[name] != st {
			t.Fatalf("%s: want=%s got=%s (all=%v)", name, st, status[name], status)
		}
	}
}

func TestRecipeCostThroughService(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	if err := e.masters.Upsert(ctx, &model.UnitConversion{IngredientName: "Flour", PacketSize: 25, PacketUnit: "kg", LastPrice: 5000}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	svc := NewRecipeService(repository.NewRecipeRepo(e.db), e.masters)

	r := &model.Recipe{
		Title:      "Country loaf",
		RecipeType: model.RecipeBread,
		Servings:   2,
		IngredientGroups: datatypes.NewJSONType([]model.IngredientGroup{{Title: "Dough", Items: []model.RecipeIngredient{
			{Name: "Flour", Quantity: 500, Unit: "ｇ", IsFlour: true},
			{Name: "Water", Quantity: 375, Unit: "ml"},
		}}}),
	}
	if err := svc.Create(e.user, r, "chef"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	b, err := svc.CostBreakdown(e.user, r.ID)
	if err != nil {
		t.Fatalf("CostBreakdown: %v", err)
	}
	if b.Total != 100 || b.PerServing != 50 || b.Complete {
		t.Fatalf("breakdown: %+v", b)
	}
	if b.Groups[0].Lines[1].Status != costing.StatusMissingPrice {
		t.Fatalf("water should be missing a price: %+v", b.Groups[0].Lines[1])
	}

	f, err := svc.BakersPercentages(e.user, r.ID)
	if err != nil {
		t.Fatalf("BakersPercentages: %v", err)
	}
	if f.Lines[1].Percent != 75 {
		t.Fatalf("hydration: want=75 got=%v", f.Lines[1].Percent)
	}

	blank := &model.Recipe{Title: "  "}
	if err := svc.Create(e.user, blank, "chef"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank title: want ErrInvalidInput got %v", err)
	}
	if _, err := svc.Get(uuid.New(), r.ID); !errors.Is(err, ErrRecipeNotFound) {
		t.Fatalf("other user: want ErrRecipeNotFound got %v", err)
	}
}

func TestProfileLoad(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	svc := NewProfileService(e.profiles, nil, nil)

	state, err := svc.Load(ctx, e.user)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state.Phase != PhaseConfirmed || state.Profile.Email != "chef@example.com" {
		t.Fatalf("state: %+v", state)
	}
	if _, ok := svc.Cached(ctx, e.user); ok {
		t.Fatalf("no cache configured, nothing should be cached")
	}
	if _, err := svc.Load(ctx, uuid.New()); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("unknown profile: want ErrProfileNotFound got %v", err)
	}
}
