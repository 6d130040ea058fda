package stock

import (
	"sort"
	"strings"

	"kitchen-backoffice/internal/model"
	"kitchen-backoffice/internal/pricecsv"
	"kitchen-backoffice/internal/units"
)

// Key identifies an inventory line across persisted and CSV-derived rows.
func Key(vendor, name string) string {
	return units.NormalizeVendor(vendor) + "\x00" + units.NormalizeName(name)
}

// MasterIndex indexes master records by normalized ingredient name.
func MasterIndex(masters []model.UnitConversion) map[string]*model.UnitConversion {
	idx := make(map[string]*model.UnitConversion, len(masters))
	for i := range masters {
		m := &masters[i]
		idx[units.NormalizeName(m.IngredientName)] = m
	}
	return idx
}

// Merge builds the inventory view shown to the user: persisted rows plus
// phantom rows for CSV prices that have no persisted line yet, deduplicated
// by (vendor, normalized name). On conflict a persisted row beats a phantom
// and otherwise the most recently updated row wins. Master data then
// overrides unit and price, and the tax rate follows the item category
// unless it was set by hand.
func Merge(persisted []model.InventoryItem, prices pricecsv.PriceMap, masters map[string]*model.UnitConversion) []model.InventoryItem {
	candidates := make([]model.InventoryItem, 0, len(persisted)+len(prices))
	known := make(map[string]bool, len(persisted))
	for _, item := range persisted {
		item.IsPhantom = false
		candidates = append(candidates, item)
		known[Key(item.Vendor, item.Name)] = true
	}
	for _, entry := range prices {
		if known[Key(entry.Vendor, entry.Name)] {
			continue
		}
		candidates = append(candidates, phantomFrom(entry))
	}

	best := make(map[string]int, len(candidates))
	var order []string
	for i := range candidates {
		k := Key(candidates[i].Vendor, candidates[i].Name)
		j, seen := best[k]
		if !seen {
			best[k] = i
			order = append(order, k)
			continue
		}
		if prefer(&candidates[i], &candidates[j]) {
			best[k] = i
		}
	}

	out := make([]model.InventoryItem, 0, len(order))
	for _, k := range order {
		item := candidates[best[k]]
		ApplyMaster(&item, masters[units.NormalizeName(item.Name)])
		ApplyTax(&item)
		out = append(out, item)
	}

	sort.SliceStable(out, func(a, b int) bool {
		va, vb := strings.ToLower(out[a].Vendor), strings.ToLower(out[b].Vendor)
		if va != vb {
			return va < vb
		}
		return units.NormalizeName(out[a].Name) < units.NormalizeName(out[b].Name)
	})
	return out
}

// prefer reports whether a should replace b as the row kept for a key.
func prefer(a, b *model.InventoryItem) bool {
	if a.IsPhantom != b.IsPhantom {
		return !a.IsPhantom
	}
	return a.UpdatedAt.After(b.UpdatedAt)
}

func phantomFrom(entry pricecsv.PriceEntry) model.InventoryItem {
	item := model.InventoryItem{
		Name:      entry.Name,
		Vendor:    entry.Vendor,
		Unit:      entry.Unit,
		Price:     entry.Price,
		IsPhantom: true,
	}
	if t, ok := pricecsv.ParseDate(entry.DateStr); ok {
		item.UpdatedAt = t
	}
	return item
}

// ApplyMaster copies the master's category and derives the row's unit price
// from the master packet. A row without a unit takes the packet unit; a row
// whose unit cannot be converted keeps its own price.
func ApplyMaster(item *model.InventoryItem, m *model.UnitConversion) {
	if m == nil {
		return
	}
	if m.ItemCategory != "" {
		item.ItemCategory = m.ItemCategory
	}
	if m.LastPrice <= 0 || m.PacketSize <= 0 {
		return
	}
	if strings.TrimSpace(item.Unit) == "" {
		item.Unit = m.PacketUnit
	}
	if price, ok := m.UnitPrice(item.Unit); ok {
		item.Price = price
	}
}

// ApplyTax assigns the category's tax rate unless the rate is manual.
func ApplyTax(item *model.InventoryItem) {
	if item.ItemCategory == "" {
		item.ItemCategory = model.CategoryFood
	}
	if item.TaxRateManual {
		return
	}
	item.TaxRate = item.ItemCategory.TaxRate()
}
