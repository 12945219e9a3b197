package parallel

import (
	"context"
	"fmt"
	"time"

	"github.com/kasuganosora/pipejoin/pkg/config"
	"github.com/kasuganosora/pipejoin/pkg/executor/operators"
	"github.com/kasuganosora/pipejoin/pkg/expression"
	"github.com/kasuganosora/pipejoin/pkg/frame"
	"github.com/kasuganosora/pipejoin/pkg/hashindex"
	"github.com/kasuganosora/pipejoin/pkg/logger"
	"github.com/kasuganosora/pipejoin/pkg/monitor"
	"github.com/kasuganosora/pipejoin/pkg/rowenc"
	"github.com/pingcap/errors"
	"github.com/pingcap/failpoint"
)

// JoinInput 连接输入
type JoinInput struct {
	Frame *frame.DataFrame
	On    []string
}

// JoinResult 连接结果
type JoinResult struct {
	// Frame holds the streaming output of all workers followed by their flush output.
	Frame     *frame.DataFrame
	Streaming []*operators.DataChunk
	Flushed   []*operators.DataChunk
	Swapped   bool
}

// ParallelFullJoinExecutor 并行全外连接执行器
// It builds the sharded hash index from one input, probes it with the other
// input on a worker pool and flushes the unmatched build rows.
type ParallelFullJoinExecutor struct {
	left        JoinInput
	right       JoinInput
	cfg         config.JoinConfig
	parallelism int
	shards      int
	scanner     *ChunkScanner
	logger      logger.Logger
	metrics     *monitor.MetricsCollector
}

// NewParallelFullJoinExecutor 创建并行全外连接执行器
func NewParallelFullJoinExecutor(left, right JoinInput, cfg config.JoinConfig, pool config.PoolConfig, batchSize int, lg logger.Logger) (*ParallelFullJoinExecutor, error) {
	if len(left.On) == 0 || len(left.On) != len(right.On) {
		return nil, errors.Errorf("full join needs the same non-zero number of keys on both sides, got %d and %d", len(left.On), len(right.On))
	}
	if lg == nil {
		lg = logger.NewNoOpLogger()
	}
	return &ParallelFullJoinExecutor{
		left:        left,
		right:       right,
		cfg:         cfg,
		parallelism: pool.Workers,
		shards:      pool.Shards,
		scanner:     NewChunkScanner(batchSize),
		logger:      lg,
	}, nil
}

// SetMetrics 设置指标收集器，nil 表示不收集
func (e *ParallelFullJoinExecutor) SetMetrics(m *monitor.MetricsCollector) {
	e.metrics = m
}

// Execute 执行并行全外连接
func (e *ParallelFullJoinExecutor) Execute(ctx context.Context) (res *JoinResult, err error) {
	if e.metrics != nil {
		start := time.Now()
		e.metrics.StartJoin()
		defer func() {
			e.metrics.EndJoin(time.Since(start), err)
		}()
	}

	build, probe, swapped := e.left, e.right, false
	if e.cfg.SwapSmaller && e.left.Frame.Height() > e.right.Frame.Height() {
		build, probe, swapped = e.right, e.left, true
	}

	workers := resolveWorkerCount(e.parallelism)
	shards := e.shards
	if shards <= 0 {
		shards = workers
	}

	built, err := e.buildHashTable(ctx, build, shards)
	if err != nil {
		return nil, err
	}

	probeOp, err := operators.NewGenericFullOuterJoinProbe(built, expression.Columns(probe.On...), operators.Options{
		Suffix:        e.cfg.Suffix,
		NullsEqual:    e.cfg.NullsEqual,
		Coalesce:      e.cfg.Coalesce,
		Swapped:       swapped,
		KeyNamesLeft:  e.left.On,
		KeyNamesRight: e.right.On,
		HashSeed:      e.cfg.HashSeed,
		Logger:        e.logger,
	})
	if err != nil {
		return nil, err
	}
	pool := NewWorkerPool(probeOp, workers)

	ectx := operators.NewExecutionContext(ctx, e.logger)
	e.logger.Info("query %s: full join, build rows=%d, probe rows=%d, swapped=%v, %s",
		ectx.QueryID(), built.Left.Height(), probe.Frame.Height(), swapped, pool.Explain())

	results, err := pool.Run(ectx, e.scanner.Scan(probe.Frame))
	if err != nil {
		return nil, err
	}
	res, err = e.mergeJoinResults(results, swapped)
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		flushed := 0
		for _, c := range res.Flushed {
			flushed += c.Data.Height()
		}
		e.metrics.RecordOutput(res.Frame.Height()-flushed, flushed, len(res.Streaming)+len(res.Flushed))
	}
	return res, nil
}

// buildHashTable sinks the build input chunk by chunk; the chunks are kept as
// the unrechunked build frame.
func (e *ParallelFullJoinExecutor) buildHashTable(ctx context.Context, build JoinInput, shards int) (*hashindex.BuildResult, error) {
	if _, _err_ := failpoint.Eval(_curpkg_("buildHashTableError")); _err_ == nil {
		return nil, errors.New("injected build error")
	}
	b := hashindex.NewBuilder(build.Frame.Schema(), expression.Columns(build.On...),
		rowenc.NewRandomState(e.cfg.HashSeed), shards, e.cfg.NullsEqual)
	for _, chunk := range e.scanner.Scan(build.Frame) {
		if err := b.Sink(ctx, chunk.Data); err != nil {
			return nil, err
		}
	}
	return b.Finalize()
}

// mergeJoinResults 合并各worker输出：先流式输出，后flush输出
func (e *ParallelFullJoinExecutor) mergeJoinResults(results []WorkerResult, swapped bool) (*JoinResult, error) {
	out := &JoinResult{Swapped: swapped}
	frames := make([]*frame.DataFrame, 0, len(results)*2)
	for _, r := range results {
		for _, c := range r.Streaming {
			out.Streaming = append(out.Streaming, c)
			frames = append(frames, c.Data)
		}
	}
	for _, r := range results {
		if r.Flushed != nil {
			out.Flushed = append(out.Flushed, r.Flushed)
			frames = append(frames, r.Flushed.Data)
		}
	}
	merged, err := frame.Concat(frames...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	out.Frame = merged
	return out, nil
}

// Explain 解释并行JOIN执行器
func (e *ParallelFullJoinExecutor) Explain() string {
	return fmt.Sprintf(
		"ParallelFullJoin(left=%v, right=%v, parallelism=%d, shards=%d, %s)",
		e.left.On, e.right.On, e.parallelism, e.shards, e.scanner.Explain(),
	)
}
