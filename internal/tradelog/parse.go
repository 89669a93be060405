package tradelog

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"
)

// Parse reads a header-first CSV trade log. Blank lines are skipped, rows
// may be ragged, and column order does not matter. An empty log is an
// empty trade set, not an error.
func Parse(data []byte) ([]RawRow, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows []RawRow
	if err := gocsv.UnmarshalCSV(r, &rows); err != nil {
		return nil, fmt.Errorf("parsing trade log: %w", err)
	}

	out := rows[:0]
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// isBlank matches rows made only of separators, e.g. a trailing ",,,,".
func isBlank(r RawRow) bool {
	return strings.TrimSpace(r.Stock+r.EntryTime+r.ExitTime+r.BuyPrice+r.SellPrice) == ""
}
