package parallel

import (
	"fmt"
	"runtime"

	"github.com/kasuganosora/pipejoin/pkg/executor/operators"
	"github.com/pingcap/errors"
	"github.com/pingcap/failpoint"
	"golang.org/x/sync/errgroup"
)

// flushPartitioner is implemented by operators whose flush output is
// partitioned over the workers that flush.
type flushPartitioner interface {
	SetFlushWorkers(n int) error
}

// WorkerPool 工作池
// Each worker owns one split of the template operator. Chunk k is executed by
// worker k % n, so every worker sees its chunks in order. All workers finish
// streaming before any worker flushes.
type WorkerPool struct {
	template    operators.Operator
	workerCount int
}

// WorkerResult 单个worker的输出
type WorkerResult struct {
	ThreadNo  int
	Streaming []*operators.DataChunk
	Flushed   *operators.DataChunk
}

// NewWorkerPool creates a pool of workerCount workers; 0 or less means
// runtime.NumCPU().
func NewWorkerPool(template operators.Operator, workerCount int) *WorkerPool {
	return &WorkerPool{
		template:    template,
		workerCount: resolveWorkerCount(workerCount),
	}
}

func resolveWorkerCount(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// WorkerCount 返回worker数量
func (wp *WorkerPool) WorkerCount() int { return wp.workerCount }

// Run executes chunks on the workers, waits for every worker, then flushes.
// Only workers that receive at least one chunk are started, and the flush
// partition is sized to them, so that every unmatched build row is flushed by
// exactly one worker.
func (wp *WorkerPool) Run(ectx *operators.ExecutionContext, chunks []*operators.DataChunk) ([]WorkerResult, error) {
	active := wp.workerCount
	if len(chunks) < active {
		active = len(chunks)
	}
	if active == 0 {
		return nil, errors.New("worker pool needs at least one chunk")
	}

	ops := make([]operators.Operator, active)
	for t := range ops {
		ops[t] = wp.template.Split(t)
		if fp, ok := ops[t].(flushPartitioner); ok {
			if err := fp.SetFlushWorkers(active); err != nil {
				return nil, err
			}
		}
	}
	results := make([]WorkerResult, active)

	g, gctx := errgroup.WithContext(ectx.Context())
	wctx := operators.NewExecutionContextWithID(gctx, ectx.QueryID(), ectx.Logger())
	for t := 0; t < active; t++ {
		t := t
		g.Go(func() error {
			results[t].ThreadNo = t
			for k := t; k < len(chunks); k += active {
				if err := gctx.Err(); err != nil {
					return err
				}
				res, err := executeChunk(wctx, ops[t], chunks[k])
				if err != nil {
					return errors.Annotatef(err, "%s worker %d chunk %d", ops[t].Name(), t, chunks[k].ChunkIndex)
				}
				if res.Kind == operators.Finished {
					results[t].Streaming = append(results[t].Streaming, res.Chunk)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	ectx.Logger().Debug("query %s: %d workers finished streaming %d chunks", ectx.QueryID(), active, len(chunks))

	g, gctx = errgroup.WithContext(ectx.Context())
	for t := 0; t < active; t++ {
		t := t
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if !ops[t].MustFlush() {
				return nil
			}
			res, err := ops[t].Flush()
			if err != nil {
				return errors.Annotatef(err, "%s worker %d flush", ops[t].Name(), t)
			}
			results[t].Flushed = res.Chunk
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func executeChunk(ctx *operators.ExecutionContext, op operators.Operator, chunk *operators.DataChunk) (operators.OperatorResult, error) {
	if _, _err_ := failpoint.Eval(_curpkg_("probeWorkerError")); _err_ == nil {
		return operators.OperatorResult{}, errors.New("injected worker error")
	}
	return op.Execute(ctx, chunk)
}

// Explain 返回工作池的说明
func (wp *WorkerPool) Explain() string {
	return fmt.Sprintf("WorkerPool(workers=%d, operator=%s)", wp.workerCount, wp.template.Name())
}
