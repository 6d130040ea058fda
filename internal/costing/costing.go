// Package costing prices recipes against the ingredient master.
package costing

import (
	"kitchen-backoffice/internal/model"
	"kitchen-backoffice/internal/units"

	"github.com/shopspring/decimal"
)

type LineStatus string

const (
	StatusOK               LineStatus = "ok"
	StatusMissingPrice     LineStatus = "missing_price"
	StatusIncompatibleUnit LineStatus = "incompatible_unit"
)

type LineCost struct {
	Name      string     `json:"name"`
	Quantity  float64    `json:"quantity"`
	Unit      string     `json:"unit"`
	UnitPrice float64    `json:"unit_price"`
	Cost      float64    `json:"cost"`
	Status    LineStatus `json:"status"`
}

type GroupCost struct {
	Title    string     `json:"title"`
	Lines    []LineCost `json:"lines"`
	Subtotal float64    `json:"subtotal"`
}

type Breakdown struct {
	Groups     []GroupCost `json:"groups"`
	Total      float64     `json:"total"`
	PerServing float64     `json:"per_serving"`
	// CostRatio is Total divided by the selling price, 0 when no price is set.
	CostRatio float64 `json:"cost_ratio"`
	// Complete is false when any line could not be priced.
	Complete bool `json:"complete"`
}

// Cost prices every ingredient line. masters is keyed by normalized name.
// Lines that cannot be priced count as zero and are flagged.
func Cost(recipe *model.Recipe, masters map[string]*model.UnitConversion) Breakdown {
	out := Breakdown{Complete: true}
	total := decimal.Zero

	for _, g := range recipe.IngredientGroups.Data() {
		gc := GroupCost{Title: g.Title, Lines: make([]LineCost, 0, len(g.Items))}
		subtotal := decimal.Zero
		for _, ing := range g.Items {
			line := LineCost{Name: ing.Name, Quantity: ing.Quantity, Unit: ing.Unit}
			m := masters[units.NormalizeName(ing.Name)]
			switch {
			case m == nil || m.LastPrice <= 0 || m.PacketSize <= 0:
				line.Status = StatusMissingPrice
			default:
				unit := ing.Unit
				if unit == "" {
					unit = m.PacketUnit
				}
				price, ok := m.UnitPrice(unit)
				if !ok {
					line.Status = StatusIncompatibleUnit
					break
				}
				cost := decimal.NewFromFloat(ing.Quantity).Mul(decimal.NewFromFloat(price)).Round(2)
				line.UnitPrice = price
				line.Cost = cost.InexactFloat64()
				line.Status = StatusOK
				subtotal = subtotal.Add(cost)
			}
			if line.Status != StatusOK {
				out.Complete = false
			}
			gc.Lines = append(gc.Lines, line)
		}
		gc.Subtotal = subtotal.InexactFloat64()
		total = total.Add(subtotal)
		out.Groups = append(out.Groups, gc)
	}

	out.Total = total.InexactFloat64()
	servings := recipe.Servings
	if servings <= 0 {
		servings = 1
	}
	out.PerServing = total.Div(decimal.NewFromInt(int64(servings))).Round(2).InexactFloat64()
	if sp := recipe.Metadata.Data().SellingPrice; sp > 0 {
		out.CostRatio = total.Div(decimal.NewFromFloat(sp)).Round(4).InexactFloat64()
	}
	return out
}
