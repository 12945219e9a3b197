package hashindex

import (
	"context"

	"github.com/kasuganosora/pipejoin/pkg/expression"
	"github.com/kasuganosora/pipejoin/pkg/frame"
	"github.com/kasuganosora/pipejoin/pkg/rowenc"
	"github.com/pingcap/errors"
)

// BuildResult 构建阶段产出，probe侧共享只读
type BuildResult struct {
	Left     *frame.ChunkedFrame
	Keys     MaterializedKeys
	Map      *PartitionedMap
	KeyTypes []frame.DataType
	Hasher   rowenc.RandomState
	// Hashes is the build side's scratch buffer, handed to the probe side
	// for reuse.
	Hashes []uint64
}

// Builder 哈希表构建器
// Chunks are sunk one after the other; chunk i of the resulting ChunkedFrame
// is the i-th sunk chunk.
type Builder struct {
	schema     frame.Schema
	keyExprs   []expression.Expr
	rowValues  *rowenc.RowValues
	hasher     rowenc.RandomState
	nullsEqual bool

	chunks   []*frame.DataFrame
	keys     MaterializedKeys
	m        *PartitionedMap
	keyTypes []frame.DataType
	hashes   []uint64
}

// NewBuilder 创建构建器
func NewBuilder(schema frame.Schema, keyExprs []expression.Expr, hasher rowenc.RandomState, numShards int, nullsEqual bool) *Builder {
	return &Builder{
		schema:     schema,
		keyExprs:   keyExprs,
		rowValues:  rowenc.NewRowValues(keyExprs, nil),
		hasher:     hasher,
		nullsEqual: nullsEqual,
		m:          NewPartitionedMap(numShards),
	}
}

// Sink adds one chunk of build rows to the index.
func (b *Builder) Sink(ctx context.Context, chunk *frame.DataFrame) error {
	if !chunk.Schema().Equal(b.schema) {
		return errors.Trace(&frame.ErrSchemaMismatch{Expected: b.schema.String(), Actual: chunk.Schema().String()})
	}
	cols, err := b.rowValues.Evaluate(ctx, chunk)
	if err != nil {
		return err
	}
	if b.keyTypes == nil {
		b.keyTypes = make([]frame.DataType, len(cols))
		for i, c := range cols {
			b.keyTypes[i] = c.DType()
		}
		b.rowValues = rowenc.NewRowValues(b.keyExprs, b.keyTypes)
	}

	rows := rowenc.EncodeRows(cols, chunk.Height(), b.nullsEqual)
	b.hashes = b.hasher.HashRows(rows, b.hashes)

	chunkIdx := frame.IdxSize(len(b.chunks))
	b.chunks = append(b.chunks, chunk)
	b.keys = append(b.keys, rows)

	for i, h := range b.hashes {
		id := frame.NewChunkID(chunkIdx, frame.IdxSize(i))
		row, ok := rows.Get(i)
		if !ok {
			b.m.insertUnmatchable(h, id)
			continue
		}
		b.m.insert(h, id, func(k Key) bool {
			return CompareFn(k, h, b.keys, row)
		})
	}
	return nil
}

// Finalize 完成构建
func (b *Builder) Finalize() (*BuildResult, error) {
	left, err := frame.NewChunkedFrame(b.schema, b.chunks...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &BuildResult{
		Left:     left,
		Keys:     b.keys,
		Map:      b.m,
		KeyTypes: b.keyTypes,
		Hasher:   b.hasher,
		Hashes:   b.hashes[:0],
	}, nil
}
