package frame

import (
	"fmt"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/array"
	"github.com/apache/arrow/go/v11/arrow/memory"
)

// Series 列数据
// Values live in an immutable arrow array; renaming returns a shallow copy that
// shares it.
type Series struct {
	name  string
	dtype DataType
	arr   arrow.Array
}

func arrowType(dtype DataType) arrow.DataType {
	switch dtype {
	case Int64:
		return arrow.PrimitiveTypes.Int64
	case Float64:
		return arrow.PrimitiveTypes.Float64
	case String:
		return arrow.BinaryTypes.String
	case Bool:
		return arrow.FixedWidthTypes.Boolean
	case Binary:
		return arrow.BinaryTypes.Binary
	}
	return arrow.Null
}

// NewSeriesInt64 creates a non-null int64 series.
func NewSeriesInt64(name string, values []int64) *Series {
	b := array.NewInt64Builder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(values, nil)
	return &Series{name: name, dtype: Int64, arr: b.NewArray()}
}

// NewSeriesFloat64 creates a non-null float64 series.
func NewSeriesFloat64(name string, values []float64) *Series {
	b := array.NewFloat64Builder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(values, nil)
	return &Series{name: name, dtype: Float64, arr: b.NewArray()}
}

// NewSeriesString creates a non-null string series.
func NewSeriesString(name string, values []string) *Series {
	b := array.NewStringBuilder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(values, nil)
	return &Series{name: name, dtype: String, arr: b.NewArray()}
}

// NewSeriesBool creates a non-null bool series.
func NewSeriesBool(name string, values []bool) *Series {
	b := array.NewBooleanBuilder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(values, nil)
	return &Series{name: name, dtype: Bool, arr: b.NewArray()}
}

// NewSeriesBinary creates a non-null binary series.
func NewSeriesBinary(name string, values [][]byte) *Series {
	b := array.NewBinaryBuilder(memory.DefaultAllocator, arrow.BinaryTypes.Binary)
	defer b.Release()
	b.AppendValues(values, nil)
	return &Series{name: name, dtype: Binary, arr: b.NewArray()}
}

// NewSeriesFromValues 从值列表创建列，nil 表示空值
func NewSeriesFromValues(name string, dtype DataType, values []interface{}) (*Series, error) {
	b := newSeriesBuilder(name, dtype, len(values))
	for _, v := range values {
		if v == nil {
			b.appendNull()
			continue
		}
		if err := b.appendValue(v); err != nil {
			b.release()
			return nil, err
		}
	}
	return b.finish(), nil
}

// FullNull 创建全空列
func FullNull(name string, length int, dtype DataType) *Series {
	b := newSeriesBuilder(name, dtype, length)
	for i := 0; i < length; i++ {
		b.appendNull()
	}
	return b.finish()
}

// Name 返回列名
func (s *Series) Name() string { return s.name }

// DType 返回数据类型
func (s *Series) DType() DataType { return s.dtype }

// Len 返回行数
func (s *Series) Len() int { return s.arr.Len() }

// Array returns the backing arrow array.
func (s *Series) Array() arrow.Array { return s.arr }

// IsNull 判断第i行是否为空
func (s *Series) IsNull(i int) bool {
	if s.dtype == Null {
		return true
	}
	return s.arr.IsNull(i)
}

// NullCount 返回空值数量
func (s *Series) NullCount() int {
	if s.dtype == Null {
		return s.arr.Len()
	}
	return s.arr.NullN()
}

// HasNulls reports whether at least one row is null.
func (s *Series) HasNulls() bool {
	return s.NullCount() > 0
}

// Value returns row i boxed, or nil when it is null.
func (s *Series) Value(i int) interface{} {
	if s.IsNull(i) {
		return nil
	}
	switch a := s.arr.(type) {
	case *array.Int64:
		return a.Value(i)
	case *array.Float64:
		return a.Value(i)
	case *array.String:
		return a.Value(i)
	case *array.Boolean:
		return a.Value(i)
	case *array.Binary:
		return a.Value(i)
	}
	return nil
}

// Values returns every row boxed, nulls as nil.
func (s *Series) Values() []interface{} {
	out := make([]interface{}, s.Len())
	for i := range out {
		out[i] = s.Value(i)
	}
	return out
}

// Int64 returns the int64 at row i and whether it is valid.
func (s *Series) Int64(i int) (int64, bool) {
	a, ok := s.arr.(*array.Int64)
	if !ok || a.IsNull(i) {
		return 0, false
	}
	return a.Value(i), true
}

// Float64 returns the float64 at row i and whether it is valid.
func (s *Series) Float64(i int) (float64, bool) {
	a, ok := s.arr.(*array.Float64)
	if !ok || a.IsNull(i) {
		return 0, false
	}
	return a.Value(i), true
}

// Str returns the string at row i and whether it is valid.
func (s *Series) Str(i int) (string, bool) {
	a, ok := s.arr.(*array.String)
	if !ok || a.IsNull(i) {
		return "", false
	}
	return a.Value(i), true
}

// Bool returns the bool at row i and whether it is valid.
func (s *Series) Bool(i int) (bool, bool) {
	a, ok := s.arr.(*array.Boolean)
	if !ok || a.IsNull(i) {
		return false, false
	}
	return a.Value(i), true
}

// Binary returns the bytes at row i and whether they are valid.
func (s *Series) Binary(i int) ([]byte, bool) {
	a, ok := s.arr.(*array.Binary)
	if !ok || a.IsNull(i) {
		return nil, false
	}
	return a.Value(i), true
}

// WithName 返回改名后的浅拷贝
func (s *Series) WithName(name string) *Series {
	out := *s
	out.name = name
	return &out
}

// Clear returns an empty series with the same name and dtype.
func (s *Series) Clear() *Series {
	return newSeriesBuilder(s.name, s.dtype, 0).finish()
}

// Slice returns rows [offset, offset+length) without copying.
func (s *Series) Slice(offset, length int) *Series {
	out := *s
	out.arr = array.NewSlice(s.arr, int64(offset), int64(offset+length))
	return &out
}

// Take gathers rows at idx. An out-of-range index is an invariant violation
// and panics.
func (s *Series) Take(idx []IdxSize) *Series {
	n := s.Len()
	b := newSeriesBuilder(s.name, s.dtype, len(idx))
	for _, i := range idx {
		if int(i) >= n {
			b.release()
			panic(fmt.Sprintf("take index %d out of bounds for series %s of length %d", i, s.name, n))
		}
		b.appendFrom(s, int(i))
	}
	return b.finish()
}

// Coalesce 合并两列：左值非空取左值，否则取右值
func Coalesce(name string, left, right *Series) (*Series, error) {
	if left.Len() != right.Len() {
		return nil, &ErrLengthMismatch{ColumnName: right.Name(), Expected: left.Len(), Actual: right.Len()}
	}
	dtype := left.dtype
	if dtype == Null {
		dtype = right.dtype
	} else if right.dtype != Null && right.dtype != dtype {
		return nil, &ErrSchemaMismatch{Expected: dtype.String(), Actual: right.dtype.String()}
	}
	b := newSeriesBuilder(name, dtype, left.Len())
	for i := 0; i < left.Len(); i++ {
		switch {
		case !left.IsNull(i):
			b.appendFrom(left, i)
		case !right.IsNull(i):
			b.appendFrom(right, i)
		default:
			b.appendNull()
		}
	}
	return b.finish(), nil
}

// concatSeries stacks same-typed series into one.
func concatSeries(name string, dtype DataType, parts []*Series) (*Series, error) {
	if dtype == Null {
		n := 0
		for _, p := range parts {
			n += p.Len()
		}
		return &Series{name: name, dtype: Null, arr: array.NewNull(n)}, nil
	}
	arrs := make([]arrow.Array, len(parts))
	for i, p := range parts {
		arrs[i] = p.arr
	}
	arr, err := array.Concatenate(arrs, memory.DefaultAllocator)
	if err != nil {
		return nil, err
	}
	return &Series{name: name, dtype: dtype, arr: arr}, nil
}

// seriesBuilder wraps the arrow builder of one dtype. Null columns carry no
// buffers, only a length.
type seriesBuilder struct {
	name   string
	dtype  DataType
	b      array.Builder
	length int
}

func newSeriesBuilder(name string, dtype DataType, capacity int) *seriesBuilder {
	sb := &seriesBuilder{name: name, dtype: dtype}
	if dtype != Null {
		sb.b = array.NewBuilder(memory.DefaultAllocator, arrowType(dtype))
		sb.b.Reserve(capacity)
	}
	return sb
}

func (b *seriesBuilder) appendNull() {
	b.length++
	if b.b != nil {
		b.b.AppendNull()
	}
}

// appendFrom copies row i of src, which must share the builder's dtype.
func (b *seriesBuilder) appendFrom(src *Series, i int) {
	if src.IsNull(i) {
		b.appendNull()
		return
	}
	b.length++
	switch bb := b.b.(type) {
	case *array.Int64Builder:
		bb.Append(src.arr.(*array.Int64).Value(i))
	case *array.Float64Builder:
		bb.Append(src.arr.(*array.Float64).Value(i))
	case *array.StringBuilder:
		bb.Append(src.arr.(*array.String).Value(i))
	case *array.BooleanBuilder:
		bb.Append(src.arr.(*array.Boolean).Value(i))
	case *array.BinaryBuilder:
		bb.Append(src.arr.(*array.Binary).Value(i))
	}
}

func (b *seriesBuilder) appendValue(v interface{}) error {
	bad := &ErrInvalidValue{ColumnName: b.name, DType: b.dtype, Value: v}
	switch bb := b.b.(type) {
	case *array.Int64Builder:
		switch x := v.(type) {
		case int64:
			bb.Append(x)
		case int:
			bb.Append(int64(x))
		case int32:
			bb.Append(int64(x))
		default:
			return bad
		}
	case *array.Float64Builder:
		switch x := v.(type) {
		case float64:
			bb.Append(x)
		case float32:
			bb.Append(float64(x))
		default:
			return bad
		}
	case *array.StringBuilder:
		x, ok := v.(string)
		if !ok {
			return bad
		}
		bb.Append(x)
	case *array.BooleanBuilder:
		x, ok := v.(bool)
		if !ok {
			return bad
		}
		bb.Append(x)
	case *array.BinaryBuilder:
		x, ok := v.([]byte)
		if !ok {
			return bad
		}
		bb.Append(x)
	default:
		return bad
	}
	b.length++
	return nil
}

func (b *seriesBuilder) finish() *Series {
	if b.b == nil {
		return &Series{name: b.name, dtype: Null, arr: array.NewNull(b.length)}
	}
	defer b.b.Release()
	return &Series{name: b.name, dtype: b.dtype, arr: b.b.NewArray()}
}

func (b *seriesBuilder) release() {
	if b.b != nil {
		b.b.Release()
	}
}
