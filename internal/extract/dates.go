package extract

import (
	"strings"
	"time"

	"salesetl/internal/config"
	"salesetl/internal/table"
)

// DateParser converts date text to time.Time by trying a list of layouts in
// order. Nothing it is given is an error: text that no layout accepts is
// reported as not ok and becomes missing.
type DateParser struct {
	layouts []string
}

// NewDateParser returns a parser over layouts, or over
// config.DefaultDateLayouts when layouts is empty.
func NewDateParser(layouts []string) *DateParser {
	if len(layouts) == 0 {
		layouts = config.DefaultDateLayouts
	}
	return &DateParser{layouts: layouts}
}

// Parse returns the time for s.
//
// Plain ISO dates ("2024-03-15") take a zero-allocation fast path; every
// other input falls back to time.Parse over the configured layouts.
func (p *DateParser) Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, ok := parseISODate(s); ok {
		return t, true
	}
	for _, l := range p.layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CoerceColumn replaces every value in column col with a time.Time or nil
// and marks the column as KindTime. It returns how many non-missing values
// could not be parsed. Values that already are time.Time are kept.
func (p *DateParser) CoerceColumn(t *table.Table, col string) int {
	c, ok := t.ColumnIndex(col)
	if !ok {
		return 0
	}
	failures := 0
	for r := range t.Rows {
		switch v := t.Rows[r].V[c].(type) {
		case nil, time.Time:
		case string:
			if tm, ok := p.Parse(v); ok {
				t.Rows[r].V[c] = tm
			} else {
				t.Rows[r].V[c] = nil
				failures++
			}
		default:
			// Numbers are not dates.
			t.Rows[r].V[c] = nil
			failures++
		}
	}
	t.Kinds[c] = table.KindTime
	return failures
}

// parseISODate parses exactly "YYYY-MM-DD" without allocating. Calendar
// validity (e.g. Feb 30) is checked.
func parseISODate(s string) (time.Time, bool) {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return time.Time{}, false
	}
	y3, y2, y1, y0 := s[0]-'0', s[1]-'0', s[2]-'0', s[3]-'0'
	m1, m0 := s[5]-'0', s[6]-'0'
	d1, d0 := s[8]-'0', s[9]-'0'
	if y3 > 9 || y2 > 9 || y1 > 9 || y0 > 9 || m1 > 9 || m0 > 9 || d1 > 9 || d0 > 9 {
		return time.Time{}, false
	}
	year := int(y3)*1000 + int(y2)*100 + int(y1)*10 + int(y0)
	mon := int(m1)*10 + int(m0)
	day := int(d1)*10 + int(d0)
	if mon < 1 || mon > 12 || day < 1 || day > daysIn(time.Month(mon), year) {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(mon), day, 0, 0, 0, 0, time.UTC), true
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
