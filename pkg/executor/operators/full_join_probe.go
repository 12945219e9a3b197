package operators

import (
	"github.com/kasuganosora/pipejoin/pkg/expression"
	"github.com/kasuganosora/pipejoin/pkg/frame"
	"github.com/kasuganosora/pipejoin/pkg/hashindex"
	"github.com/kasuganosora/pipejoin/pkg/join"
	"github.com/kasuganosora/pipejoin/pkg/logger"
	"github.com/kasuganosora/pipejoin/pkg/rowenc"
	"github.com/pingcap/errors"
)

// FullJoinProbeName 算子名称
const FullJoinProbeName = "generic_full_join_probe"

// Options 全外连接probe配置
type Options struct {
	// Suffix is appended to right columns whose name exists on the left.
	Suffix string
	// NullsEqual makes null keys probeable and equal to each other.
	NullsEqual bool
	// Coalesce merges every key pair into one output column.
	Coalesce bool
	// Swapped means the build side is the user's right input.
	Swapped bool
	// KeyNamesLeft and KeyNamesRight are the user-visible key columns, used
	// for coalescing.
	KeyNamesLeft  []string
	KeyNamesRight []string
	// HashSeed must equal the seed used to build the hash index.
	HashSeed uint64
	// Logger receives the flush summaries; nil discards them.
	Logger logger.Logger
}

type probeState int

const (
	stateFresh probeState = iota
	stateStreaming
	stateFlushed
)

// GenericFullOuterJoinProbe 全外连接probe算子
// It matches right chunks against the shared hash index while streaming and
// emits the never matched build rows of its shard partition on flush.
type GenericFullOuterJoinProbe struct {
	// all chunks are stacked into a single frame, which is never rechunked.
	dfA *frame.ChunkedFrame
	// encoded build keys, one array per chunk of dfA.
	materializedJoinCols hashindex.MaterializedKeys
	hashTables           *hashindex.PartitionedMap
	hb                   rowenc.RandomState
	joinColumnsRight     []expression.Expr
	keyTypes             []frame.DataType
	opts                 Options
	log                  logger.Logger

	// per worker state below.

	// empty clone of the first right chunk, needed to build null frames on flush.
	dfBFlushDummy *frame.DataFrame
	// left side of each output row; NullChunkID for right-only rows.
	joinTuplesA []frame.ChunkID
	// right side of each output row.
	joinTuplesB []frame.IdxSize
	hashes      []uint64
	outputNames []string
	rowValues   *rowenc.RowValues
	threadNo    int
	// flushWorkers is the number of workers that flush; 0 means one per shard.
	flushWorkers int
	state        probeState
}

// NewGenericFullOuterJoinProbe 创建全外连接probe算子
func NewGenericFullOuterJoinProbe(build *hashindex.BuildResult, joinColumnsRight []expression.Expr, opts Options) (*GenericFullOuterJoinProbe, error) {
	if build.Hasher.Seed() != opts.HashSeed {
		return nil, errors.Errorf("hash seed %d differs from build seed %d", opts.HashSeed, build.Hasher.Seed())
	}
	if build.KeyTypes != nil && len(build.KeyTypes) != len(joinColumnsRight) {
		return nil, errors.Errorf("build side has %d join keys, probe side has %d", len(build.KeyTypes), len(joinColumnsRight))
	}
	if opts.Coalesce && len(opts.KeyNamesLeft) != len(opts.KeyNamesRight) {
		return nil, errors.Errorf("coalesce needs key pairs, got %d left and %d right key names", len(opts.KeyNamesLeft), len(opts.KeyNamesRight))
	}
	if opts.Suffix == "" {
		opts.Suffix = join.DefaultSuffix
	}
	lg := opts.Logger
	if lg == nil {
		lg = logger.NewNoOpLogger()
	}
	return &GenericFullOuterJoinProbe{
		dfA:                  build.Left,
		materializedJoinCols: build.Keys,
		hashTables:           build.Map,
		hb:                   build.Hasher,
		joinColumnsRight:     joinColumnsRight,
		keyTypes:             build.KeyTypes,
		opts:                 opts,
		log:                  lg,
		// re-use the hashes allocation of the build side.
		hashes:    build.Hashes,
		rowValues: rowenc.NewRowValues(joinColumnsRight, build.KeyTypes),
	}, nil
}

// SetFlushWorkers sets how many workers take part in the flush. Every thread
// number in [0, n) must be flushed for each unmatched row to be emitted once.
func (p *GenericFullOuterJoinProbe) SetFlushWorkers(n int) error {
	if n <= 0 {
		return errors.Errorf("invalid flush worker count %d", n)
	}
	p.flushWorkers = n
	return nil
}

// ThreadNo 返回worker编号
func (p *GenericFullOuterJoinProbe) ThreadNo() int { return p.threadNo }

// Execute 处理一个右侧数据块
func (p *GenericFullOuterJoinProbe) Execute(ctx *ExecutionContext, chunk *DataChunk) (OperatorResult, error) {
	if p.state == stateFlushed {
		return OperatorResult{}, ErrOperatorFlushed
	}
	return p.executeOuter(ctx, chunk)
}

// Flush 输出本worker分片中未匹配的左侧行
func (p *GenericFullOuterJoinProbe) Flush() (OperatorResult, error) {
	switch p.state {
	case stateFlushed:
		return OperatorResult{}, ErrOperatorFlushed
	case stateFresh:
		return OperatorResult{}, ErrNothingToFlush
	}
	return p.executeFlush()
}

// MustFlush reports whether at least one chunk has been executed.
func (p *GenericFullOuterJoinProbe) MustFlush() bool {
	return p.dfBFlushDummy != nil
}

// Split 克隆出一个新worker的算子，共享只读的构建结果
func (p *GenericFullOuterJoinProbe) Split(threadNo int) Operator {
	return p.split(threadNo)
}

func (p *GenericFullOuterJoinProbe) split(threadNo int) *GenericFullOuterJoinProbe {
	n := &GenericFullOuterJoinProbe{
		dfA:                  p.dfA,
		materializedJoinCols: p.materializedJoinCols,
		hashTables:           p.hashTables,
		hb:                   p.hb,
		joinColumnsRight:     p.joinColumnsRight,
		keyTypes:             p.keyTypes,
		opts:                 p.opts,
		log:                  p.log,
		rowValues:            rowenc.NewRowValues(p.joinColumnsRight, p.keyTypes),
		threadNo:             threadNo,
		flushWorkers:         p.flushWorkers,
	}
	return n
}

// Name 算子名称
func (p *GenericFullOuterJoinProbe) Name() string {
	return FullJoinProbeName
}

func (p *GenericFullOuterJoinProbe) executeOuter(ctx *ExecutionContext, chunk *DataChunk) (OperatorResult, error) {
	p.joinTuplesA = p.joinTuplesA[:0]
	p.joinTuplesB = p.joinTuplesB[:0]

	if p.dfBFlushDummy == nil {
		p.dfBFlushDummy = chunk.Data.Clear()
		p.state = stateStreaming
	} else if schema := chunk.Data.Schema(); !schema.Equal(p.dfBFlushDummy.Schema()) {
		return OperatorResult{}, errors.Trace(&frame.ErrSchemaMismatch{
			Expected: p.dfBFlushDummy.Schema().String(),
			Actual:   schema.String(),
		})
	}

	hashes := p.hashes
	p.hashes = nil
	rows, err := p.rowValues.GetValues(ctx.Context(), chunk.Data, p.opts.NullsEqual)
	if err != nil {
		p.hashes = hashes
		return OperatorResult{}, err
	}
	hashes = p.hb.HashRows(rows, hashes)
	p.matchOuter(rows, hashes)
	p.hashes = hashes

	leftDF := p.dfA.TakeOptChunked(p.joinTuplesA)
	rightDF := chunk.Data.Take(p.joinTuplesB)
	out, err := p.finishJoin(leftDF, rightDF)
	if err != nil {
		return OperatorResult{}, err
	}
	return FinishedWith(chunk.WithData(out)), nil
}

// matchOuter appends one output row per (left, right) match and one row
// paired with NullChunkID per unmatched right row, in right row order.
func (p *GenericFullOuterJoinProbe) matchOuter(rows *rowenc.BinaryArray, hashes []uint64) {
	for i, h := range hashes {
		dfIdxRight := frame.IdxSize(i)

		row, ok := rows.Get(i)
		if !ok {
			// a null key never matches when nulls are not equal.
			p.joinTuplesA = append(p.joinTuplesA, frame.NullChunkID())
			p.joinTuplesB = append(p.joinTuplesB, dfIdxRight)
			continue
		}

		entry := p.hashTables.Lookup(h, func(key hashindex.Key) bool {
			return hashindex.CompareFn(key, h, p.materializedJoinCols, row)
		})
		if entry == nil {
			p.joinTuplesA = append(p.joinTuplesA, frame.NullChunkID())
			p.joinTuplesB = append(p.joinTuplesB, dfIdxRight)
			continue
		}

		entry.Tracker().Store()
		indexesLeft := entry.LeftIDs()
		p.joinTuplesA = append(p.joinTuplesA, indexesLeft...)
		for range indexesLeft {
			p.joinTuplesB = append(p.joinTuplesB, dfIdxRight)
		}
	}
}

func (p *GenericFullOuterJoinProbe) executeFlush() (OperatorResult, error) {
	ht := p.hashTables
	n := ht.NumShards()
	workers := p.flushWorkers
	if workers == 0 {
		workers = n
	}
	p.joinTuplesA = p.joinTuplesA[:0]

	for i := 0; i < n; i++ {
		if i%workers != p.threadNo {
			continue
		}
		ht.ForEachInShard(i, func(e *hashindex.Entry) {
			if !e.Tracker().Load() {
				p.joinTuplesA = append(p.joinTuplesA, e.LeftIDs()...)
			}
		})
	}

	leftDF := p.dfA.TakeChunked(p.joinTuplesA)
	size := leftDF.Height()
	dummy := p.dfBFlushDummy.Columns()
	cols := make([]*frame.Series, len(dummy))
	for i, s := range dummy {
		cols[i] = frame.FullNull(s.Name(), size, s.DType())
	}
	rightDF := frame.NewDataFrameNoChecks(size, cols)

	out, err := p.finishJoin(leftDF, rightDF)
	if err != nil {
		return OperatorResult{}, err
	}
	p.state = stateFlushed
	p.log.Debug("%s: thread %d flushed %d unmatched build rows", FullJoinProbeName, p.threadNo, size)
	return FinishedWith(NewDataChunk(0, out)), nil
}

// finishJoin swaps the gathered frames back to the user's order, resolves
// column names once and renames positionally afterwards, then coalesces keys
// when configured.
func (p *GenericFullOuterJoinProbe) finishJoin(leftDF, rightDF *frame.DataFrame) (*frame.DataFrame, error) {
	if p.opts.Swapped {
		leftDF, rightDF = rightDF, leftDF
	}

	var out *frame.DataFrame
	var err error
	if p.outputNames == nil {
		out, err = join.FinishJoin(leftDF, rightDF, p.opts.Suffix)
		if err != nil {
			return nil, err
		}
		p.outputNames = out.ColumnNames()
	} else {
		cols := append(leftDF.Columns(), rightDF.Columns()...)
		out, err = join.RenameColumns(frame.NewDataFrameNoChecks(leftDF.Height(), cols), p.outputNames)
		if err != nil {
			return nil, err
		}
	}

	if !p.opts.Coalesce {
		return out, nil
	}
	return join.CoalesceFullJoin(out, p.opts.KeyNamesLeft, p.opts.KeyNamesRight, p.opts.Suffix, leftDF.ColumnNames())
}
