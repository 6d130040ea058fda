package stock

import (
	"math"
	"testing"
	"time"

	"kitchen-backoffice/internal/model"
	"kitchen-backoffice/internal/pricecsv"

	"github.com/google/uuid"
)

func item(name, vendor string, qty, price float64, updated time.Time) model.InventoryItem {
	it := model.InventoryItem{Name: name, Vendor: vendor, Quantity: qty, Price: price, Unit: "kg"}
	it.ID = uuid.New()
	it.UpdatedAt = updated
	return it
}

func TestMergeKeepsLatestUpdatedRow(t *testing.T) {
	older := item("Flour", "VendorA", 3, 100, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := item("ＦＬＯＵＲ ", "vendora", 5, 110, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	got := Merge([]model.InventoryItem{older, newer}, nil, nil)
	if len(got) != 1 {
		t.Fatalf("want one row after dedup, got %d", len(got))
	}
	if got[0].ID != newer.ID {
		t.Fatalf("want the later updated row %s, got %s", newer.ID, got[0].ID)
	}

	got = Merge([]model.InventoryItem{newer, older}, nil, nil)
	if got[0].ID != newer.ID {
		t.Fatalf("order of input should not matter: got %s", got[0].ID)
	}
}

func TestMergeSynthesizesPhantomRows(t *testing.T) {
	persisted := []model.InventoryItem{item("Flour", "VendorA", 3, 100, time.Now())}
	prices := pricecsv.PriceMap{}
	prices.Put(pricecsv.PriceEntry{Name: "Flour", Vendor: "VendorA", Price: 120, Unit: "kg", DateStr: "2024/01/01"})
	prices.Put(pricecsv.PriceEntry{Name: "Sugar", Vendor: "VendorA", Price: 90, Unit: "kg", DateStr: "2024/01/01"})

	got := Merge(persisted, prices, nil)
	if len(got) != 2 {
		t.Fatalf("want 2 rows, got %d: %+v", len(got), got)
	}
	if got[0].Name != "Flour" || got[0].IsPhantom || got[0].Price != 100 {
		t.Fatalf("persisted flour row should win: %+v", got[0])
	}
	if got[1].Name != "Sugar" || !got[1].IsPhantom || got[1].Quantity != 0 {
		t.Fatalf("sugar should be a phantom row: %+v", got[1])
	}
}

func TestMergePrefersPersistedOverNewerPhantom(t *testing.T) {
	persisted := item("Milk", "Dairy", 2, 200, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	prices := pricecsv.PriceMap{}
	// Same name from another vendor is a different key, so it stays.
	prices.Put(pricecsv.PriceEntry{Name: "Milk", Vendor: "Other", Price: 180, Unit: "l", DateStr: "2024/05/01"})

	got := Merge([]model.InventoryItem{persisted}, prices, nil)
	if len(got) != 2 {
		t.Fatalf("want 2 rows, got %d", len(got))
	}
	if !prefer(&model.InventoryItem{BaseModel: model.BaseModel{UpdatedAt: time.Unix(0, 0)}}, &model.InventoryItem{BaseModel: model.BaseModel{UpdatedAt: time.Now()}, IsPhantom: true}) {
		t.Fatalf("a persisted row must be preferred over a phantom regardless of time")
	}
}

func TestMergeAppliesMasterAndTax(t *testing.T) {
	flour := item("Flour", "VendorA", 2000, 0, time.Now())
	flour.Unit = "g"
	wine := item("House Wine", "Liquor", 3, 0, time.Now())
	wine.Unit = ""
	manual := item("Napkins", "Shop", 10, 5, time.Now())
	manual.TaxRate = 0
	manual.TaxRateManual = true

	masters := MasterIndex([]model.UnitConversion{
		{IngredientName: "flour", PacketSize: 1, PacketUnit: "kg", LastPrice: 500, ItemCategory: model.CategoryFood},
		{IngredientName: "House Wine", PacketSize: 750, PacketUnit: "ml", LastPrice: 1500, ItemCategory: model.CategoryAlcohol},
		{IngredientName: "Napkins", PacketSize: 1, PacketUnit: "pack", LastPrice: 300, ItemCategory: model.CategorySupplies},
	})

	got := Merge([]model.InventoryItem{flour, wine, manual}, nil, masters)
	byName := map[string]model.InventoryItem{}
	for _, it := range got {
		byName[it.Name] = it
	}

	f := byName["Flour"]
	if math.Abs(f.Price-0.5) > 1e-9 || f.TaxRate != model.ReducedTaxRate {
		t.Fatalf("flour: want price 0.5 tax 0.08, got %+v", f)
	}
	w := byName["House Wine"]
	if w.Unit != "ml" || math.Abs(w.Price-2) > 1e-9 || w.TaxRate != model.StandardTaxRate {
		t.Fatalf("wine: want ml at 2 with 10%% tax, got %+v", w)
	}
	n := byName["Napkins"]
	if n.TaxRate != 0 || n.ItemCategory != model.CategorySupplies {
		t.Fatalf("napkins: manual tax rate must survive, got %+v", n)
	}
	if n.Price != 5 {
		t.Fatalf("napkins: incompatible unit keeps own price, got %v", n.Price)
	}
}

func TestSummarize(t *testing.T) {
	a := item("A", "V", 2, 100.005, time.Now())
	a.TaxRate = 0.08
	a.Threshold = 5
	b := item("B", "V", 1, 50, time.Now())
	b.TaxRate = 0.10
	phantom := model.InventoryItem{Name: "C", Price: 999, IsPhantom: true}

	s := Summarize([]model.InventoryItem{a, b, phantom})
	if s.ItemCount != 2 || s.LowStockCount != 1 {
		t.Fatalf("counts: %+v", s)
	}
	if s.TotalValue != 250.01 {
		t.Fatalf("total: want=250.01 got=%v", s.TotalValue)
	}
	if s.TotalWithTax != 271.01 {
		t.Fatalf("total with tax: want=271.01 got=%v", s.TotalWithTax)
	}
	if len(Counted([]model.InventoryItem{a, b, phantom})) != 2 {
		t.Fatalf("phantom rows are not counted")
	}
}
