package costing

import (
	"errors"

	"kitchen-backoffice/internal/model"
	"kitchen-backoffice/internal/units"
)

var ErrNoFlour = errors.New("no flour lines in mass units")

type Percentage struct {
	Name    string  `json:"name"`
	Grams   float64 `json:"grams"`
	Percent float64 `json:"percent"`
	IsFlour bool    `json:"is_flour"`
	// Skipped is set for lines not expressed in mass or volume.
	Skipped bool `json:"skipped,omitempty"`
}

type BakersFormula struct {
	FlourGrams   float64      `json:"flour_grams"`
	Lines        []Percentage `json:"lines"`
	TotalPercent float64      `json:"total_percent"`
}

// Bakers expresses every line as a percentage of the total flour weight.
// Volumes count one millilitre as one gram. Lines in any other unit are
// reported but skipped.
func Bakers(recipe *model.Recipe) (BakersFormula, error) {
	var lines []Percentage
	flour := 0.0
	for _, g := range recipe.IngredientGroups.Data() {
		for _, ing := range g.Items {
			p := Percentage{Name: ing.Name, IsFlour: ing.IsFlour}
			grams, ok := toGrams(ing.Quantity, ing.Unit)
			if !ok {
				p.Skipped = true
				lines = append(lines, p)
				continue
			}
			p.Grams = grams
			if ing.IsFlour {
				flour += grams
			}
			lines = append(lines, p)
		}
	}
	if flour <= 0 {
		return BakersFormula{}, ErrNoFlour
	}

	out := BakersFormula{FlourGrams: flour, Lines: lines}
	for i := range out.Lines {
		if out.Lines[i].Skipped {
			continue
		}
		pct := out.Lines[i].Grams / flour * 100
		out.Lines[i].Percent = round1(pct)
		out.TotalPercent += pct
	}
	out.TotalPercent = round1(out.TotalPercent)
	return out, nil
}

func toGrams(qty float64, unit string) (float64, bool) {
	if g, ok := units.ConvertQuantity(qty, unit, "g"); ok {
		return g, true
	}
	return units.ConvertQuantity(qty, unit, "ml")
}

func round1(v float64) float64 {
	if v < 0 {
		return -round1(-v)
	}
	return float64(int64(v*10+0.5)) / 10
}
