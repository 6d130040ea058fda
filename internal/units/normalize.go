package units

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// NormalizeName builds the cross-entity matching key for an ingredient name.
// Full-width and half-width variants fold to one form, case is dropped and
// every whitespace rune (including the ideographic space) is removed.
func NormalizeName(name string) string {
	folded := strings.ToLower(width.Fold.String(name))

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeVendor is used for the vendor half of the inventory dedup key.
func NormalizeVendor(vendor string) string {
	return NormalizeName(vendor)
}

var unitAliases = map[string]string{
	"gram":       "g",
	"grams":      "g",
	"グラム":        "g",
	"kilogram":   "kg",
	"kilograms":  "kg",
	"キロ":         "kg",
	"キログラム":      "kg",
	"millilitre": "ml",
	"milliliter": "ml",
	"ミリリットル":     "ml",
	"cc":         "ml",
	"centilitre": "cl",
	"centiliter": "cl",
	"litre":      "l",
	"liter":      "l",
	"ℓ":          "l",
	"リットル":       "l",
}

// NormalizeUnit folds width and case and resolves common aliases, so "ＫＧ",
// "Kg" and "kilogram" all become "kg". Unknown units are returned folded.
func NormalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(width.Fold.String(unit)))
	if alias, ok := unitAliases[u]; ok {
		return alias
	}
	return u
}
