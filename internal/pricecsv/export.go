package pricecsv

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes a spreadsheet-friendly export: UTF-8 with BOM, comma
// separated, fields quoted only when they contain a delimiter, a quote, a
// line break or a leading space.
func WriteCSV(w io.Writer, header []string, rows [][]string) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if len(header) > 0 {
		if err := cw.Write(header); err != nil {
			return err
		}
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
