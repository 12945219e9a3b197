package parallel

import (
	"fmt"

	"github.com/kasuganosora/pipejoin/pkg/executor/operators"
	"github.com/kasuganosora/pipejoin/pkg/frame"
)

// DefaultBatchSize 默认每个数据块的行数
const DefaultBatchSize = 1024

// ScanRange 扫描范围
type ScanRange struct {
	Offset int
	Limit  int
}

// ChunkScanner 将DataFrame划分为数据块
// The chunks feed the build sink (left side, kept unrechunked) and the probe
// workers (right side).
type ChunkScanner struct {
	batchSize int
}

// NewChunkScanner 创建扫描器
func NewChunkScanner(batchSize int) *ChunkScanner {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ChunkScanner{batchSize: batchSize}
}

// BatchSize 返回每块行数
func (cs *ChunkScanner) BatchSize() int { return cs.batchSize }

// Scan cuts df into chunks of at most BatchSize rows, numbered from 0. An
// empty frame yields a single empty chunk so that its schema still reaches
// the operators.
func (cs *ChunkScanner) Scan(df *frame.DataFrame) []*operators.DataChunk {
	ranges := cs.divideScanRange(df.Height())
	chunks := make([]*operators.DataChunk, len(ranges))
	for i, r := range ranges {
		chunks[i] = operators.NewDataChunk(frame.IdxSize(i), df.Slice(r.Offset, r.Limit))
	}
	return chunks
}

// divideScanRange 划分扫描范围
func (cs *ChunkScanner) divideScanRange(height int) []ScanRange {
	if height == 0 {
		return []ScanRange{{Offset: 0, Limit: 0}}
	}
	ranges := make([]ScanRange, 0, (height+cs.batchSize-1)/cs.batchSize)
	for offset := 0; offset < height; offset += cs.batchSize {
		limit := cs.batchSize
		if offset+limit > height {
			limit = height - offset
		}
		ranges = append(ranges, ScanRange{Offset: offset, Limit: limit})
	}
	return ranges
}

// Explain 解释扫描器
func (cs *ChunkScanner) Explain() string {
	return fmt.Sprintf("ChunkScanner(batchSize=%d)", cs.batchSize)
}
