// Package transformer builds the sales fact table from the loaded sources:
// three left joins followed by derived business metrics. Nothing in this
// package performs I/O.
package transformer

import (
	"github.com/zeebo/xxh3"

	"salesetl/internal/table"
)

// Suffixes applied to overlapping non-key column names, left and right.
const (
	LeftSuffix  = "_x"
	RightSuffix = "_y"
)

// JoinStats describes how the left rows found their partners.
type JoinStats struct {
	// Unmatched counts left rows whose key found no right row (including
	// rows with a missing key).
	Unmatched int

	// Fanout counts extra output rows produced by duplicate right keys.
	// Output rows == left rows + Fanout.
	Fanout int
}

// keyIndex maps xxh3 hashes of normalized key text to right row positions.
// Bucket entries are compared against the key text on lookup, so hash
// collisions never produce a false match.
type keyIndex struct {
	keys    []string
	buckets map[uint64][]int
}

func buildIndex(t *table.Table, col int) *keyIndex {
	ix := &keyIndex{
		keys:    make([]string, len(t.Rows)),
		buckets: make(map[uint64][]int, len(t.Rows)),
	}
	for r, row := range t.Rows {
		k, ok := table.Key(row.V[col])
		if !ok {
			continue
		}
		ix.keys[r] = k
		h := xxh3.HashString(k)
		ix.buckets[h] = append(ix.buckets[h], r)
	}
	return ix
}

// lookup appends the right row positions matching k to dst.
func (ix *keyIndex) lookup(dst []int, k string) []int {
	for _, r := range ix.buckets[xxh3.HashString(k)] {
		if ix.keys[r] == k {
			dst = append(dst, r)
		}
	}
	return dst
}

// LeftJoin returns every row of left, in order, extended with the columns of
// right matched on key. Left rows without a match get missing values for
// every right column; a left row matching several right rows is repeated
// once per match, in right-table order.
//
// The output holds the left columns followed by the right columns except
// key. A non-key column present on both sides is renamed with LeftSuffix and
// RightSuffix. A key column absent from either table is a
// *table.MissingColumnError.
func LeftJoin(left, right *table.Table, key string) (*table.Table, JoinStats, error) {
	var st JoinStats

	lk, err := left.Require(key)
	if err != nil {
		return nil, st, err
	}
	rk, err := right.Require(key)
	if err != nil {
		return nil, st, err
	}

	// Output schema.
	rightCols := make([]int, 0, len(right.Columns))
	for i, c := range right.Columns {
		if i != rk && c != key {
			rightCols = append(rightCols, i)
		}
	}
	overlap := make(map[string]bool)
	for _, i := range rightCols {
		if left.Has(right.Columns[i]) && right.Columns[i] != key {
			overlap[right.Columns[i]] = true
		}
	}
	cols := make([]string, 0, len(left.Columns)+len(rightCols))
	kinds := make([]table.Kind, 0, cap(cols))
	for i, c := range left.Columns {
		if overlap[c] {
			c += LeftSuffix
		}
		cols = append(cols, c)
		kinds = append(kinds, left.Kinds[i])
	}
	for _, i := range rightCols {
		c := right.Columns[i]
		if overlap[c] {
			c += RightSuffix
		}
		cols = append(cols, c)
		kinds = append(kinds, right.Kinds[i])
	}

	out := table.New(left.Name, cols)
	copy(out.Kinds, kinds)
	out.Rows = make([]table.Row, 0, len(left.Rows))

	ix := buildIndex(right, rk)
	width := len(cols)
	nl := len(left.Columns)
	var matches []int

	for _, lrow := range left.Rows {
		matches = matches[:0]
		if k, ok := table.Key(lrow.V[lk]); ok {
			matches = ix.lookup(matches, k)
		}
		if len(matches) == 0 {
			st.Unmatched++
			v := make([]any, width)
			copy(v, lrow.V)
			out.Append(lrow.Line, v)
			continue
		}
		st.Fanout += len(matches) - 1
		for _, r := range matches {
			v := make([]any, width)
			copy(v, lrow.V)
			rv := right.Rows[r].V
			for j, i := range rightCols {
				v[nl+j] = rv[i]
			}
			out.Append(lrow.Line, v)
		}
	}
	return out, st, nil
}
