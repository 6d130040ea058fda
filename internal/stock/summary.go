package stock

import (
	"kitchen-backoffice/internal/model"

	"github.com/shopspring/decimal"
)

type Summary struct {
	ItemCount     int     `json:"item_count"`
	LowStockCount int     `json:"low_stock_count"`
	TotalValue    float64 `json:"total_value"`
	TotalWithTax  float64 `json:"total_with_tax"`
}

// LineValue is quantity times price rounded to two decimal places.
func LineValue(item model.InventoryItem) decimal.Decimal {
	return decimal.NewFromFloat(item.Quantity).Mul(decimal.NewFromFloat(item.Price)).Round(2)
}

// Summarize totals the counted rows. Phantom rows have no quantity and
// contribute nothing to the value.
func Summarize(items []model.InventoryItem) Summary {
	var s Summary
	total := decimal.Zero
	withTax := decimal.Zero
	for _, item := range items {
		if item.IsPhantom {
			continue
		}
		s.ItemCount++
		if item.IsLowStock() {
			s.LowStockCount++
		}
		v := LineValue(item)
		total = total.Add(v)
		withTax = withTax.Add(v.Mul(decimal.NewFromFloat(1 + item.TaxRate)).Round(2))
	}
	s.TotalValue = total.InexactFloat64()
	s.TotalWithTax = withTax.InexactFloat64()
	return s
}

// Counted returns the rows that belong in a snapshot: persisted and with a
// positive quantity.
func Counted(items []model.InventoryItem) []model.InventoryItem {
	out := make([]model.InventoryItem, 0, len(items))
	for _, item := range items {
		if item.IsPhantom || item.Quantity <= 0 {
			continue
		}
		out = append(out, item)
	}
	return out
}
