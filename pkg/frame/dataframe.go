package frame

// DataFrame 列式数据块
// All columns have the same height and unique names.
type DataFrame struct {
	columns []*Series
	height  int
}

// NewDataFrame 创建DataFrame并校验列长度与列名
func NewDataFrame(columns ...*Series) (*DataFrame, error) {
	height := 0
	if len(columns) > 0 {
		height = columns[0].Len()
	}
	seen := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		if col.Len() != height {
			return nil, &ErrLengthMismatch{ColumnName: col.Name(), Expected: height, Actual: col.Len()}
		}
		if _, dup := seen[col.Name()]; dup {
			return nil, &ErrDuplicateColumn{ColumnName: col.Name()}
		}
		seen[col.Name()] = struct{}{}
	}
	return &DataFrame{columns: columns, height: height}, nil
}

// MustDataFrame is NewDataFrame that panics on error. Intended for literals
// in tests and examples.
func MustDataFrame(columns ...*Series) *DataFrame {
	df, err := NewDataFrame(columns...)
	if err != nil {
		panic(err)
	}
	return df
}

// NewDataFrameNoChecks skips validation; the caller guarantees the columns
// are of the given height and uniquely named.
func NewDataFrameNoChecks(height int, columns []*Series) *DataFrame {
	return &DataFrame{columns: columns, height: height}
}

// EmptyFrame 根据Schema创建空DataFrame
func EmptyFrame(schema Schema) *DataFrame {
	cols := make([]*Series, len(schema))
	for i, f := range schema {
		cols[i] = newSeriesBuilder(f.Name, f.DType, 0).finish()
	}
	return &DataFrame{columns: cols}
}

// Height 返回行数
func (df *DataFrame) Height() int { return df.height }

// Width 返回列数
func (df *DataFrame) Width() int { return len(df.columns) }

// Columns returns the columns in order. The slice is a copy; the series are shared.
func (df *DataFrame) Columns() []*Series {
	out := make([]*Series, len(df.columns))
	copy(out, df.columns)
	return out
}

// Column 返回第i列
func (df *DataFrame) Column(i int) *Series { return df.columns[i] }

// ColumnByName 按名称查找列，不存在时返回nil
func (df *DataFrame) ColumnByName(name string) *Series {
	for _, col := range df.columns {
		if col.Name() == name {
			return col
		}
	}
	return nil
}

// ColumnIndex returns the position of name, or -1.
func (df *DataFrame) ColumnIndex(name string) int {
	for i, col := range df.columns {
		if col.Name() == name {
			return i
		}
	}
	return -1
}

// ColumnNames 返回列名列表
func (df *DataFrame) ColumnNames() []string {
	names := make([]string, len(df.columns))
	for i, col := range df.columns {
		names[i] = col.Name()
	}
	return names
}

// Schema 返回Schema
func (df *DataFrame) Schema() Schema {
	schema := make(Schema, len(df.columns))
	for i, col := range df.columns {
		schema[i] = Field{Name: col.Name(), DType: col.DType()}
	}
	return schema
}

// Clear returns an empty clone: same columns, zero rows.
func (df *DataFrame) Clear() *DataFrame {
	cols := make([]*Series, len(df.columns))
	for i, col := range df.columns {
		cols[i] = col.Clear()
	}
	return &DataFrame{columns: cols}
}

// Take gathers rows at idx from every column.
func (df *DataFrame) Take(idx []IdxSize) *DataFrame {
	cols := make([]*Series, len(df.columns))
	for i, col := range df.columns {
		cols[i] = col.Take(idx)
	}
	return &DataFrame{columns: cols, height: len(idx)}
}

// Slice 返回 [offset, offset+length) 行的零拷贝视图
func (df *DataFrame) Slice(offset, length int) *DataFrame {
	cols := make([]*Series, len(df.columns))
	for i, col := range df.columns {
		cols[i] = col.Slice(offset, length)
	}
	return &DataFrame{columns: cols, height: length}
}

// Row returns row i boxed in column order.
func (df *DataFrame) Row(i int) []interface{} {
	row := make([]interface{}, len(df.columns))
	for j, col := range df.columns {
		row[j] = col.Value(i)
	}
	return row
}

// Rows 返回所有行
func (df *DataFrame) Rows() [][]interface{} {
	rows := make([][]interface{}, df.height)
	for i := range rows {
		rows[i] = df.Row(i)
	}
	return rows
}

// Concat 纵向拼接多个Schema相同的DataFrame
func Concat(frames ...*DataFrame) (*DataFrame, error) {
	if len(frames) == 0 {
		return &DataFrame{}, nil
	}
	schema := frames[0].Schema()
	total := 0
	for _, f := range frames {
		if !f.Schema().Equal(schema) {
			return nil, &ErrSchemaMismatch{Expected: schema.String(), Actual: f.Schema().String()}
		}
		total += f.Height()
	}
	cols := make([]*Series, len(schema))
	parts := make([]*Series, len(frames))
	for c, field := range schema {
		for i, f := range frames {
			parts[i] = f.columns[c]
		}
		col, err := concatSeries(field.Name, field.DType, parts)
		if err != nil {
			return nil, err
		}
		cols[c] = col
	}
	return &DataFrame{columns: cols, height: total}, nil
}
