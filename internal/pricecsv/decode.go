package pricecsv

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode turns an uploaded file into text. Vendor exports arrive either as
// UTF-8 (with or without BOM) or as Shift-JIS; anything that is not valid
// UTF-8 is treated as Shift-JIS.
func Decode(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	out, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), raw)
	if err != nil {
		return "", fmt.Errorf("decode shift-jis: %w", err)
	}
	return string(out), nil
}
