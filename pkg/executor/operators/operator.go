package operators

import (
	"context"

	"github.com/google/uuid"
	"github.com/kasuganosora/pipejoin/pkg/frame"
	"github.com/kasuganosora/pipejoin/pkg/logger"
)

// DataChunk 流水线中流动的数据块
type DataChunk struct {
	// ChunkIndex orders the chunks of one source.
	ChunkIndex frame.IdxSize
	Data       *frame.DataFrame
}

// NewDataChunk 创建数据块
func NewDataChunk(chunkIndex frame.IdxSize, data *frame.DataFrame) *DataChunk {
	return &DataChunk{ChunkIndex: chunkIndex, Data: data}
}

// WithData keeps the chunk index and replaces the data.
func (c *DataChunk) WithData(data *frame.DataFrame) *DataChunk {
	return &DataChunk{ChunkIndex: c.ChunkIndex, Data: data}
}

// ResultKind 算子返回状态
type ResultKind int

const (
	// Finished means the operator produced its output for the input chunk.
	Finished ResultKind = iota
	// NeedsNewData means the operator consumed the chunk without output.
	NeedsNewData
)

// OperatorResult 算子输出
type OperatorResult struct {
	Kind  ResultKind
	Chunk *DataChunk
}

// FinishedWith 返回带输出的结果
func FinishedWith(chunk *DataChunk) OperatorResult {
	return OperatorResult{Kind: Finished, Chunk: chunk}
}

// ExecutionContext 执行上下文
type ExecutionContext struct {
	ctx     context.Context
	queryID string
	logger  logger.Logger
}

// NewExecutionContext 创建执行上下文，生成新的查询ID
func NewExecutionContext(ctx context.Context, lg logger.Logger) *ExecutionContext {
	return NewExecutionContextWithID(ctx, uuid.NewString(), lg)
}

// NewExecutionContextWithID 使用已有查询ID创建执行上下文
func NewExecutionContextWithID(ctx context.Context, queryID string, lg logger.Logger) *ExecutionContext {
	if lg == nil {
		lg = logger.NewNoOpLogger()
	}
	return &ExecutionContext{ctx: ctx, queryID: queryID, logger: lg}
}

// Context 返回context
func (c *ExecutionContext) Context() context.Context { return c.ctx }

// QueryID 返回查询ID
func (c *ExecutionContext) QueryID() string { return c.queryID }

// Logger 返回日志
func (c *ExecutionContext) Logger() logger.Logger { return c.logger }

// Operator 流式算子接口
// One instance serves one worker; Split clones it for another worker.
type Operator interface {
	// Execute 处理一个输入数据块
	Execute(ctx *ExecutionContext, chunk *DataChunk) (OperatorResult, error)
	// Flush 输入结束后输出剩余数据
	Flush() (OperatorResult, error)
	// MustFlush reports whether Flush has output to emit.
	MustFlush() bool
	// Split 为新worker克隆算子
	Split(threadNo int) Operator
	// Name 算子名称
	Name() string
}
