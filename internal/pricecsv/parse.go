package pricecsv

import (
	"encoding/csv"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"kitchen-backoffice/internal/units"

	"golang.org/x/text/width"
)

// PriceEntry is the latest purchase price observed for one ingredient.
type PriceEntry struct {
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	Vendor  string  `json:"vendor"`
	Unit    string  `json:"unit"`
	DateStr string  `json:"date"`
}

// Column offsets of the vendor's legacy export. The format is undocumented;
// these positions are what the files in circulation use.
const (
	legacyMarker    = "D"
	legacyColDate   = 1
	legacyColVendor = 8
	legacyColName   = 14
	legacyColPrice  = 18
	legacyColUnit   = 20
)

// Header keywords, matched against width-folded lower-case header cells.
// Earlier keywords win when several columns match.
var (
	dateKeywords   = []string{"伝票日付", "納品日", "日付", "date"}
	vendorKeywords = []string{"取引先", "仕入先", "業者", "vendor", "supplier"}
	priceKeywords  = []string{"単価", "仕入価格", "価格", "金額", "unitprice", "price", "cost"}
	unitKeywords   = []string{"単位", "unit", "uom"}
	nameKeywords   = []string{"商品名", "品名", "品目", "名称", "食材", "材料", "ingredient", "product", "item", "name"}
)

// Parse reads either CSV layout. Files with at least one "D" marker row are
// read positionally, everything else goes through header sniffing.
func Parse(text string) PriceMap {
	records := readRecords(text)
	for _, rec := range records {
		if isLegacyRow(rec) {
			return parseLegacyRecords(records)
		}
	}
	return parseGenericRecords(records)
}

// ParseLegacy reads the fixed positional vendor export. Rows without the "D"
// marker, with an empty name or a non-numeric price are skipped.
func ParseLegacy(text string) PriceMap {
	return parseLegacyRecords(readRecords(text))
}

// ParseGeneric reads delimited text whose columns are found by header keywords.
func ParseGeneric(text string) PriceMap {
	return parseGenericRecords(readRecords(text))
}

func parseLegacyRecords(records [][]string) PriceMap {
	out := PriceMap{}
	for _, rec := range records {
		if !isLegacyRow(rec) || len(rec) <= legacyColPrice {
			continue
		}
		name := cell(rec, legacyColName)
		if name == "" {
			continue
		}
		price, ok := parsePrice(rec[legacyColPrice])
		if !ok {
			continue
		}
		out.Put(PriceEntry{
			Name:    name,
			Price:   price,
			Vendor:  cell(rec, legacyColVendor),
			Unit:    cell(rec, legacyColUnit),
			DateStr: cell(rec, legacyColDate),
		})
	}
	return out
}

type genericColumns struct {
	name, price, unit, vendor, date int
}

func parseGenericRecords(records [][]string) PriceMap {
	out := PriceMap{}
	headerAt := -1
	var cols genericColumns
	for i, rec := range records {
		if c, ok := sniffHeader(rec); ok {
			headerAt, cols = i, c
			break
		}
	}
	if headerAt < 0 {
		return out
	}

	for _, rec := range records[headerAt+1:] {
		name := cell(rec, cols.name)
		if name == "" {
			continue
		}
		if cols.price >= len(rec) {
			continue
		}
		price, ok := parsePrice(rec[cols.price])
		if !ok {
			continue
		}
		out.Put(PriceEntry{
			Name:    name,
			Price:   price,
			Vendor:  cell(rec, cols.vendor),
			Unit:    cell(rec, cols.unit),
			DateStr: cell(rec, cols.date),
		})
	}
	return out
}

func sniffHeader(rec []string) (genericColumns, bool) {
	normalized := make([]string, len(rec))
	for i, h := range rec {
		normalized[i] = units.NormalizeName(h)
	}
	claimed := map[int]bool{}
	find := func(keywords []string) int {
		for _, kw := range keywords {
			for i, h := range normalized {
				if h != "" && !claimed[i] && strings.Contains(h, kw) {
					claimed[i] = true
					return i
				}
			}
		}
		return -1
	}

	cols := genericColumns{}
	cols.date = find(dateKeywords)
	cols.vendor = find(vendorKeywords)
	cols.price = find(priceKeywords)
	cols.unit = find(unitKeywords)
	cols.name = find(nameKeywords)
	if cols.name < 0 || cols.price < 0 {
		return genericColumns{}, false
	}
	return cols, true
}

func readRecords(text string) [][]string {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			break
		}
		records = append(records, rec)
	}
	return records
}

func isLegacyRow(rec []string) bool {
	return len(rec) > 0 && strings.TrimSpace(rec[0]) == legacyMarker
}

func cell(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

// parsePrice accepts amounts like "1,200", "¥980" or full-width digits.
func parsePrice(raw string) (float64, bool) {
	s := width.Fold.String(strings.TrimSpace(raw))
	s = strings.NewReplacer(",", "", "¥", "", "￥", "", "円", "", " ", "").Replace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
