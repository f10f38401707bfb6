package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Float returns v as float64. Missing values and text report ok=false.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) {
			return 0, false
		}
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// Time returns v as time.Time. Anything other than a time.Time reports ok=false.
func Time(v any) (time.Time, bool) {
	t, ok := v.(time.Time)
	return t, ok
}

// Key normalizes a join-key value to a canonical string so that keys of
// different numeric kinds compare equal (int64(5) == float64(5.0) == "5").
// Missing keys report ok=false and never match.
func Key(v any) (string, bool) {
	switch k := v.(type) {
	case nil:
		return "", false
	case string:
		k = strings.TrimSpace(k)
		if k == "" {
			return "", false
		}
		if i, err := strconv.ParseInt(k, 10, 64); err == nil {
			return strconv.FormatInt(i, 10), true
		}
		return k, true
	case int64:
		return strconv.FormatInt(k, 10), true
	case int:
		return strconv.Itoa(k), true
	case float64:
		if math.IsNaN(k) {
			return "", false
		}
		if k == math.Trunc(k) && math.Abs(k) < 1<<53 {
			return strconv.FormatInt(int64(k), 10), true
		}
		return strconv.FormatFloat(k, 'g', -1, 64), true
	case time.Time:
		return k.UTC().Format(time.RFC3339Nano), true
	default:
		return "", false
	}
}

// InferKinds inspects every text column and converts it in place to int64
// or float64 when all non-missing values parse as such. Missing cells do not
// influence the decision. Columns listed in keep are left as text.
//
// The order of preference is int, then float, then text: a column holding
// "1", "2.5" becomes float; a column holding "1", "x" stays text.
func InferKinds(t *Table, keep ...string) {
	skip := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		skip[k] = struct{}{}
	}

	for c, name := range t.Columns {
		if t.Kinds[c] != KindText {
			continue
		}
		if _, ok := skip[name]; ok {
			continue
		}

		allInt, allFloat, seen := true, true, false
		for _, row := range t.Rows {
			s, ok := row.V[c].(string)
			if !ok {
				continue
			}
			seen = true
			if allInt && !isInt(s) {
				allInt = false
			}
			if !isFloat(s) {
				allFloat = false
				break
			}
		}
		if !seen {
			continue
		}

		switch {
		case allInt:
			for r := range t.Rows {
				if s, ok := t.Rows[r].V[c].(string); ok {
					i, _ := strconv.ParseInt(s, 10, 64)
					t.Rows[r].V[c] = i
				}
			}
			t.Kinds[c] = KindInt
		case allFloat:
			for r := range t.Rows {
				if s, ok := t.Rows[r].V[c].(string); ok {
					f, _ := strconv.ParseFloat(s, 64)
					t.Rows[r].V[c] = f
				}
			}
			t.Kinds[c] = KindFloat
		}
	}
}

func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isFloat(s string) bool {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false
	}
	// "NaN"/"Inf" literals are text, not measurements.
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
