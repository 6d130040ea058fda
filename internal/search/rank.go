package search

import (
	"sort"
	"strings"

	"kitchen-backoffice/internal/model"
	"kitchen-backoffice/internal/pricecsv"
	"kitchen-backoffice/internal/units"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const DefaultLimit = 15

// Candidate is one suggestion for the ingredient autocomplete.
type Candidate struct {
	Name         string             `json:"name"`
	Key          string             `json:"-"`
	Unit         string             `json:"unit"`
	Price        float64            `json:"price"`
	Vendor       string             `json:"vendor"`
	PacketSize   float64            `json:"packet_size,omitempty"`
	PacketUnit   string             `json:"packet_unit,omitempty"`
	ItemCategory model.ItemCategory `json:"item_category,omitempty"`
	Source       string             `json:"source"`
}

const (
	SourceCSV    = "csv"
	SourceMaster = "master"
	SourceBoth   = "csv+master"
	SourceServer = "server"
)

// BuildCandidates merges CSV prices and master records into one list keyed
// by normalized name. Master data supplies packet information; the CSV
// supplies the price when the master has none.
func BuildCandidates(prices pricecsv.PriceMap, masters []model.UnitConversion) []Candidate {
	byKey := make(map[string]*Candidate, len(prices)+len(masters))
	for key, e := range prices {
		byKey[key] = &Candidate{
			Name:   e.Name,
			Key:    key,
			Unit:   e.Unit,
			Price:  e.Price,
			Vendor: e.Vendor,
			Source: SourceCSV,
		}
	}
	for _, m := range masters {
		key := units.NormalizeName(m.IngredientName)
		if key == "" {
			continue
		}
		c, ok := byKey[key]
		if !ok {
			c = &Candidate{Name: m.IngredientName, Key: key, Source: SourceMaster}
			byKey[key] = c
		} else {
			c.Source = SourceBoth
		}
		c.PacketSize = m.PacketSize
		c.PacketUnit = m.PacketUnit
		c.ItemCategory = m.ItemCategory
		if m.LastPrice > 0 {
			c.Price = m.LastPrice
			c.Unit = m.PacketUnit
		}
		if m.Vendor != "" {
			c.Vendor = m.Vendor
		}
	}

	out := make([]Candidate, 0, len(byKey))
	for _, c := range byKey {
		out = append(out, *c)
	}
	return out
}

// Rank filters candidates matching query and orders them exact match first,
// then prefix, then substring. Ties are ordered by Japanese collation of the
// names. At most limit results are returned.
func Rank(query string, candidates []Candidate, limit int) []Candidate {
	q := units.NormalizeName(query)
	if q == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	type scored struct {
		c     Candidate
		score int
	}
	var matches []scored
	for _, c := range candidates {
		key := c.Key
		if key == "" {
			key = units.NormalizeName(c.Name)
		}
		switch {
		case key == q:
			matches = append(matches, scored{c, 0})
		case strings.HasPrefix(key, q):
			matches = append(matches, scored{c, 1})
		case strings.Contains(key, q):
			matches = append(matches, scored{c, 2})
		}
	}

	col := collate.New(language.Japanese)
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score < matches[j].score
		}
		return col.CompareString(matches[i].c.Name, matches[j].c.Name) < 0
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]Candidate, len(matches))
	for i, m := range matches {
		out[i] = m.c
	}
	return out
}
