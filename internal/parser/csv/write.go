package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"salesetl/internal/table"
)

// DateOnlyLayout is used for time columns whose values all fall on midnight.
const DateOnlyLayout = "2006-01-02"

// WriteOptions configures WriteTable.
type WriteOptions struct {
	// Comma is the field delimiter. When zero, ',' is used.
	Comma rune

	// TimeLayout formats time values. When empty, "2006-01-02 15:04:05".
	TimeLayout string
}

// WriteTable serializes t as a header row followed by one record per row.
// There is no index column. Values are formatted by FormatValue; a time
// column in which every value is at midnight is written date-only.
func WriteTable(w io.Writer, t *table.Table, opt WriteOptions) error {
	cw := csv.NewWriter(w)
	if opt.Comma != 0 {
		cw.Comma = opt.Comma
	}
	layout := opt.TimeLayout
	if layout == "" {
		layout = "2006-01-02 15:04:05"
	}

	layouts := make([]string, len(t.Columns))
	for c := range t.Columns {
		layouts[c] = layout
		if t.Kinds[c] == table.KindTime && allMidnight(t, c) {
			layouts[c] = DateOnlyLayout
		}
	}

	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for c := range rec {
			rec[c] = FormatValue(row.V[c], layouts[c])
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", row.Line, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// FormatValue renders a single cell. Missing values (nil, NaN) are empty.
// Floats use the shortest decimal that round-trips.
func FormatValue(v any, timeLayout string) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(timeLayout)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func allMidnight(t *table.Table, c int) bool {
	for _, row := range t.Rows {
		tm, ok := row.V[c].(time.Time)
		if !ok {
			continue
		}
		h, m, s := tm.Clock()
		if h != 0 || m != 0 || s != 0 || tm.Nanosecond() != 0 {
			return false
		}
	}
	return true
}
