// Package rowenc encodes the join-key columns of a batch into opaque,
// comparable byte rows and hashes them. The build side and the probe side
// must use the same encoder and seed.
package rowenc

import (
	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/array"
	"github.com/apache/arrow/go/v11/arrow/memory"
)

// BinaryArray 变长字节行数组
// An arrow binary array; a null row has an empty slot and validity false.
type BinaryArray struct {
	*array.Binary
}

// Get returns row i and false when it is null. The slice aliases the array's
// buffer.
func (a *BinaryArray) Get(i int) ([]byte, bool) {
	if a.IsNull(i) {
		return nil, false
	}
	return a.Value(i), true
}

// NullCount 返回空行数量
func (a *BinaryArray) NullCount() int { return a.NullN() }

// BinaryArrayBuilder 逐行构建BinaryArray
type BinaryArrayBuilder struct {
	b *array.BinaryBuilder
}

// NewBinaryArrayBuilder 创建预分配容量的构建器
func NewBinaryArrayBuilder(rows, bytesHint int) *BinaryArrayBuilder {
	b := array.NewBinaryBuilder(memory.DefaultAllocator, arrow.BinaryTypes.Binary)
	b.Reserve(rows)
	b.ReserveData(bytesHint)
	return &BinaryArrayBuilder{b: b}
}

// Push appends a valid row. row is copied.
func (b *BinaryArrayBuilder) Push(row []byte) { b.b.Append(row) }

// PushNull appends a null row.
func (b *BinaryArrayBuilder) PushNull() { b.b.AppendNull() }

// Finish returns the built array and releases the builder.
func (b *BinaryArrayBuilder) Finish() *BinaryArray {
	defer b.b.Release()
	return &BinaryArray{Binary: b.b.NewBinaryArray()}
}
