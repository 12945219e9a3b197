// Package frame provides the columnar Series / DataFrame model used by the
// pipelined join operators, including the non-rechunked ChunkedFrame that is
// addressed with packed ChunkIDs.
package frame

import (
	"fmt"
	"math"
	"strings"
)

// IdxSize 行下标类型
type IdxSize = uint32

// DataType 列数据类型
type DataType int

const (
	Null DataType = iota
	Int64
	Float64
	String
	Bool
	Binary
)

// String 返回数据类型名称
func (t DataType) String() string {
	switch t {
	case Null:
		return "null"
	case Int64:
		return "i64"
	case Float64:
		return "f64"
	case String:
		return "str"
	case Bool:
		return "bool"
	case Binary:
		return "binary"
	default:
		return "unknown"
	}
}

// Field 字段（列名 + 类型）
type Field struct {
	Name  string
	DType DataType
}

// Schema 有序字段列表
type Schema []Field

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Equal reports whether both schemas have the same names and dtypes in the same order.
func (s Schema) Equal(other Schema) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders the schema as name:dtype pairs.
func (s Schema) String() string {
	parts := make([]string, len(s))
	for i, f := range s {
		parts[i] = fmt.Sprintf("%s:%s", f.Name, f.DType)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ChunkID addresses a row of a ChunkedFrame without rechunking it.
// The chunk index is stored in the high 32 bits and the row inside the chunk
// in the low 32 bits. All bits set is the null sentinel.
type ChunkID uint64

const nullChunkID ChunkID = math.MaxUint64

// NewChunkID 创建ChunkID
func NewChunkID(chunk, row IdxSize) ChunkID {
	return ChunkID(uint64(chunk)<<32 | uint64(row))
}

// NullChunkID returns the sentinel that marks "no left row".
func NullChunkID() ChunkID {
	return nullChunkID
}

// IsNull 是否为空标记
func (id ChunkID) IsNull() bool {
	return id == nullChunkID
}

// Chunk 返回chunk下标
func (id ChunkID) Chunk() IdxSize {
	return IdxSize(uint64(id) >> 32)
}

// Row 返回chunk内行号
func (id ChunkID) Row() IdxSize {
	return IdxSize(uint64(id) & math.MaxUint32)
}
