package frame

import "fmt"

// ChunkedFrame 多chunk的只读表
// All chunks are stacked logically but never rechunked; rows are addressed
// with ChunkID.
type ChunkedFrame struct {
	chunks []*DataFrame
	schema Schema
	height int
}

// NewChunkedFrame 使用给定Schema创建ChunkedFrame
// Every chunk must match schema exactly.
func NewChunkedFrame(schema Schema, chunks ...*DataFrame) (*ChunkedFrame, error) {
	height := 0
	for _, c := range chunks {
		if !c.Schema().Equal(schema) {
			return nil, &ErrSchemaMismatch{Expected: schema.String(), Actual: c.Schema().String()}
		}
		height += c.Height()
	}
	return &ChunkedFrame{chunks: chunks, schema: schema, height: height}, nil
}

// NumChunks 返回chunk数量
func (cf *ChunkedFrame) NumChunks() int { return len(cf.chunks) }

// Chunk 返回第i个chunk
func (cf *ChunkedFrame) Chunk(i int) *DataFrame { return cf.chunks[i] }

// Height 返回总行数
func (cf *ChunkedFrame) Height() int { return cf.height }

// Schema 返回Schema
func (cf *ChunkedFrame) Schema() Schema { return cf.schema }

// TakeChunked gathers the rows addressed by ids. ids must not contain the
// null sentinel.
func (cf *ChunkedFrame) TakeChunked(ids []ChunkID) *DataFrame {
	return cf.take(ids, false)
}

// TakeOptChunked gathers the rows addressed by ids; NullChunkID yields a row
// of nulls with the frame's dtypes.
func (cf *ChunkedFrame) TakeOptChunked(ids []ChunkID) *DataFrame {
	return cf.take(ids, true)
}

func (cf *ChunkedFrame) take(ids []ChunkID, allowNull bool) *DataFrame {
	cols := make([]*Series, len(cf.schema))
	for c, field := range cf.schema {
		b := newSeriesBuilder(field.Name, field.DType, len(ids))
		for _, id := range ids {
			if id.IsNull() {
				if !allowNull {
					panic("chunked take: unexpected null chunk id")
				}
				b.appendNull()
				continue
			}
			ci, row := int(id.Chunk()), int(id.Row())
			if ci >= len(cf.chunks) || row >= cf.chunks[ci].Height() {
				panic(fmt.Sprintf("chunked take: chunk id (%d, %d) out of bounds", ci, row))
			}
			b.appendFrom(cf.chunks[ci].columns[c], row)
		}
		cols[c] = b.finish()
	}
	return &DataFrame{columns: cols, height: len(ids)}
}
