package search

import (
	"testing"

	"kitchen-backoffice/internal/model"
	"kitchen-backoffice/internal/pricecsv"

	"github.com/google/uuid"
)

func names(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

func TestRankExactThenPrefixThenSubstring(t *testing.T) {
	cands := []Candidate{
		{Name: "Whole Milk"},
		{Name: "Milk Chocolate"},
		{Name: "milk"},
		{Name: "Butter"},
		{Name: "Milk Bread"},
		{Name: "Coconut Milk"},
	}
	got := names(Rank("Milk", cands, 10))
	want := []string{"milk", "Milk Bread", "Milk Chocolate", "Coconut Milk", "Whole Milk"}
	if len(got) != len(want) {
		t.Fatalf("Rank: want=%v got=%v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Rank[%d]: want=%q got=%q (all=%v)", i, want[i], got[i], got)
		}
	}
}

func TestRankLimitAndEmptyQuery(t *testing.T) {
	var cands []Candidate
	for i := 0; i < 30; i++ {
		cands = append(cands, Candidate{Name: "salt"})
	}
	if got := Rank("sa", cands, 0); len(got) != DefaultLimit {
		t.Fatalf("want default limit %d, got %d", DefaultLimit, len(got))
	}
	if got := Rank("  ", cands, 5); got != nil {
		t.Fatalf("blank query should return nothing, got %v", got)
	}
}

func TestRankMatchesWidthVariants(t *testing.T) {
	cands := []Candidate{{Name: "ＢＵＴＴＥＲ"}}
	if got := Rank("butter", cands, 5); len(got) != 1 {
		t.Fatalf("full-width name should match, got %v", got)
	}
}

func TestBuildCandidatesMergesSources(t *testing.T) {
	prices := pricecsv.PriceMap{}
	prices.Put(pricecsv.PriceEntry{Name: "Flour", Price: 120, Unit: "kg", Vendor: "A"})
	prices.Put(pricecsv.PriceEntry{Name: "Sugar", Price: 90, Unit: "kg", Vendor: "A"})
	masters := []model.UnitConversion{
		{IngredientName: "flour", PacketSize: 25, PacketUnit: "kg", LastPrice: 3000, ItemCategory: model.CategoryFood},
		{IngredientName: "Yeast", PacketSize: 500, PacketUnit: "g", LastPrice: 800},
	}

	got := BuildCandidates(prices, masters)
	byKey := map[string]Candidate{}
	for _, c := range got {
		byKey[c.Key] = c
	}
	if len(byKey) != 3 {
		t.Fatalf("want 3 candidates, got %v", got)
	}
	if f := byKey["flour"]; f.Source != SourceBoth || f.Price != 3000 || f.PacketSize != 25 || f.Vendor != "A" {
		t.Fatalf("flour: %+v", f)
	}
	if s := byKey["sugar"]; s.Source != SourceCSV || s.Price != 90 {
		t.Fatalf("sugar: %+v", s)
	}
	if y := byKey["yeast"]; y.Source != SourceMaster || y.Unit != "g" {
		t.Fatalf("yeast: %+v", y)
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache()
	a, b := uuid.New(), uuid.New()
	c.Set(a, []Candidate{{Name: "x"}})
	c.Set(b, []Candidate{{Name: "y"}})

	c.Invalidate(a)
	if _, ok := c.Get(a); ok {
		t.Fatalf("a should be invalidated")
	}
	if _, ok := c.Get(b); !ok {
		t.Fatalf("b should still be cached")
	}
	c.InvalidateAll()
	if _, ok := c.Get(b); ok {
		t.Fatalf("b should be invalidated")
	}
}
