package pricecsv

import (
	"strings"
	"time"

	"kitchen-backoffice/internal/units"
)

// PriceMap holds one entry per normalized ingredient name.
type PriceMap map[string]PriceEntry

var dateLayouts = []string{
	"2006/1/2",
	"2006-1-2",
	"2006.1.2",
	"20060102",
	"2006年1月2日",
	"2006/1/2 15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

// ParseDate understands the date spellings found in vendor exports.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Put stores e under its normalized name unless the map already holds a
// newer observation for that key.
func (m PriceMap) Put(e PriceEntry) {
	key := units.NormalizeName(e.Name)
	if key == "" {
		return
	}
	if cur, ok := m[key]; ok && !supersedes(e, cur) {
		return
	}
	m[key] = e
}

// Lookup finds the entry for an ingredient name in any spelling.
func (m PriceMap) Lookup(name string) (PriceEntry, bool) {
	e, ok := m[units.NormalizeName(name)]
	return e, ok
}

// supersedes reports whether candidate should replace current. Later dates
// win, equal dates go to the candidate, and an undated candidate never
// replaces a dated entry.
func supersedes(candidate, current PriceEntry) bool {
	ct, cok := ParseDate(candidate.DateStr)
	ut, uok := ParseDate(current.DateStr)
	switch {
	case cok && uok:
		return !ct.Before(ut)
	case uok:
		return false
	default:
		return true
	}
}

// Merge combines the maps of several files, keeping the latest observation
// per ingredient. Maps later in the argument list win ties.
func Merge(maps ...PriceMap) PriceMap {
	out := PriceMap{}
	for _, m := range maps {
		for _, e := range m {
			out.Put(e)
		}
	}
	return out
}
