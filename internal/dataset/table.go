package dataset

import (
	"fmt"
	"strconv"
)

// Row is one record of a Table, keyed by column name.
type Row map[string]interface{}

// Table is an ordered, in-memory columnar table. Rows preserve file order;
// Columns preserves the schema's column order.
type Table struct {
	Columns []string
	Rows    []Row
}

// NumRows returns the number of rows in the table.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// JoinResult holds the merged table plus the rows each side lost to the join.
type JoinResult struct {
	Table        *Table
	DroppedLeft  int
	DroppedRight int
}

// InnerJoin merges two tables on the given key column, keeping only rows
// whose key appears on both sides. Left row order is preserved; duplicate
// keys produce the standard cross product. Rows with a null key never match.
func InnerJoin(left, right *Table, key string) (*JoinResult, error) {
	if !left.HasColumn(key) {
		return nil, fmt.Errorf("join column %q not in left table (columns: %v)", key, left.Columns)
	}
	if !right.HasColumn(key) {
		return nil, fmt.Errorf("join column %q not in right table (columns: %v)", key, right.Columns)
	}

	columns := make([]string, 0, len(left.Columns)+len(right.Columns)-1)
	columns = append(columns, left.Columns...)
	for _, c := range right.Columns {
		if c != key && !left.HasColumn(c) {
			columns = append(columns, c)
		}
	}

	index := make(map[string][]int, len(right.Rows))
	for i, row := range right.Rows {
		k, ok := KeyString(row[key])
		if !ok {
			continue
		}
		index[k] = append(index[k], i)
	}

	merged := &Table{Columns: columns}
	matchedRight := make(map[int]struct{}, len(right.Rows))
	droppedLeft := 0

	for _, lrow := range left.Rows {
		k, ok := KeyString(lrow[key])
		if !ok {
			droppedLeft++
			continue
		}
		matches := index[k]
		if len(matches) == 0 {
			droppedLeft++
			continue
		}
		for _, ri := range matches {
			matchedRight[ri] = struct{}{}
			row := make(Row, len(columns))
			for c, v := range lrow {
				row[c] = v
			}
			for c, v := range right.Rows[ri] {
				if c == key {
					continue
				}
				row[c] = v
			}
			merged.Rows = append(merged.Rows, row)
		}
	}

	return &JoinResult{
		Table:        merged,
		DroppedLeft:  droppedLeft,
		DroppedRight: len(right.Rows) - len(matchedRight),
	}, nil
}

// KeyString renders a join key cell as a stable string. The second return is
// false for null keys and representations that cannot key a join.
func KeyString(v interface{}) (string, bool) {
	switch k := v.(type) {
	case string:
		return k, true
	case []byte:
		return string(k), true
	case int32:
		return strconv.FormatInt(int64(k), 10), true
	case int64:
		return strconv.FormatInt(k, 10), true
	case int:
		return strconv.Itoa(k), true
	case float32:
		return strconv.FormatFloat(float64(k), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(k, 'g', -1, 64), true
	default:
		return "", false
	}
}
