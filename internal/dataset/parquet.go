package dataset

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/common"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/schema"
)

// readBatch is the number of leaf values requested per column read call.
const readBatch = 64 * 1024

// LoadParquet reads a parquet file into a Table without a compile-time
// schema. Scalar columns keep their native Go values (string, int32, int64,
// float32, float64); LIST columns are reassembled from repetition levels
// into []interface{} cells; null scalars are nil.
func LoadParquet(path string) (*Table, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening parquet file: %w", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetColumnReader(fr, 1)
	if err != nil {
		return nil, fmt.Errorf("creating parquet reader: %w", err)
	}
	defer pr.ReadStop()

	numRows := int(pr.GetNumRows())
	numCols := len(pr.SchemaHandler.ValueColumns)
	table := &Table{}

	for i, colPath := range pr.SchemaHandler.ValueColumns {
		name := columnName(pr.SchemaHandler, colPath)
		maxRL, err := pr.SchemaHandler.MaxRepetitionLevel(common.StrToPath(colPath))
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}

		cells, err := readColumn(pr, int64(i), maxRL > 0)
		if err != nil {
			return nil, fmt.Errorf("reading column %s: %w", name, err)
		}
		if len(cells) != numRows {
			return nil, fmt.Errorf("column %s: got %d cells, want %d rows", name, len(cells), numRows)
		}

		table.Columns = append(table.Columns, name)
		if table.Rows == nil {
			table.Rows = make([]Row, numRows)
			for r := range table.Rows {
				table.Rows[r] = make(Row, numCols)
			}
		}
		for r, cell := range cells {
			table.Rows[r][name] = cell
		}
	}

	if table.Rows == nil {
		table.Rows = []Row{}
	}
	return table, nil
}

// readColumn drains one leaf column, grouping values into per-row cells.
// A repetition level of 0 marks the first value of a new row.
func readColumn(pr *reader.ParquetReader, idx int64, repeated bool) ([]interface{}, error) {
	var cells []interface{}
	var cur []interface{}
	started := false

	for {
		vals, rls, _, err := pr.ReadColumnByIndex(idx, readBatch)
		if err != nil {
			return nil, err
		}
		if len(vals) == 0 {
			break
		}
		for j := range vals {
			if rls[j] == 0 {
				if started {
					cells = append(cells, finishCell(cur, repeated))
				}
				started = true
				cur = nil
			}
			if vals[j] != nil {
				cur = append(cur, vals[j])
			} else if !repeated {
				// null scalar; a null list row stays an empty list
				cur = append(cur, nil)
			}
		}
		if len(vals) < readBatch {
			break
		}
	}

	if started {
		cells = append(cells, finishCell(cur, repeated))
	}
	return cells, nil
}

func finishCell(cur []interface{}, repeated bool) interface{} {
	if repeated {
		if cur == nil {
			return []interface{}{}
		}
		return cur
	}
	if len(cur) == 0 {
		return nil
	}
	return cur[0]
}

// columnName maps a leaf value path back to the file's original column name.
// Leaf paths look like "Root.Product_id" or "Root.Features.List.Element";
// the second path segment is the top-level field.
func columnName(sh *schema.SchemaHandler, colPath string) string {
	path := common.StrToPath(colPath)
	if len(path) < 2 {
		return colPath
	}
	fieldPath := common.PathToStr(path[:2])
	if idx, ok := sh.MapIndex[fieldPath]; ok {
		return sh.Infos[idx].ExName
	}
	return path[1]
}
