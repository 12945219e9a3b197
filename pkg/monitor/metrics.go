// Package monitor collects execution metrics of full joins.
package monitor

import (
	"fmt"
	"sync"
	"time"

	"github.com/pingcap/errors"
)

// MetricsCollector 连接执行指标收集器
type MetricsCollector struct {
	mu            sync.RWMutex
	joinCount     int64
	joinSuccess   int64
	joinError     int64
	totalDuration time.Duration
	slowThreshold time.Duration
	slowJoinCount int64
	activeJoins   int64
	streamingRows int64
	flushedRows   int64
	chunkCount    int64
	errorCount    map[string]int64
	startTime     time.Time
}

// NewMetricsCollector 创建指标收集器
// A join that takes at least slowThreshold is counted as slow; 0 disables it.
func NewMetricsCollector(slowThreshold time.Duration) *MetricsCollector {
	return &MetricsCollector{
		slowThreshold: slowThreshold,
		errorCount:    make(map[string]int64),
		startTime:     time.Now(),
	}
}

// StartJoin 开始连接
func (m *MetricsCollector) StartJoin() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.activeJoins++
}

// EndJoin records a finished join. A failed join is counted under the type
// of its root cause.
func (m *MetricsCollector) EndJoin(duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeJoins > 0 {
		m.activeJoins--
	}
	m.joinCount++
	m.totalDuration += duration
	if m.slowThreshold > 0 && duration >= m.slowThreshold {
		m.slowJoinCount++
	}

	if err == nil {
		m.joinSuccess++
		return
	}
	m.joinError++
	m.errorCount[fmt.Sprintf("%T", errors.Cause(err))]++
}

// RecordOutput 记录输出行数与数据块数
func (m *MetricsCollector) RecordOutput(streamingRows, flushedRows, chunks int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.streamingRows += int64(streamingRows)
	m.flushedRows += int64(flushedRows)
	m.chunkCount += int64(chunks)
}

// GetErrorCount 获取错误统计
func (m *MetricsCollector) GetErrorCount(errType string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errorCount[errType]
}

// Reset 重置所有指标
func (m *MetricsCollector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.joinCount = 0
	m.joinSuccess = 0
	m.joinError = 0
	m.totalDuration = 0
	m.slowJoinCount = 0
	m.activeJoins = 0
	m.streamingRows = 0
	m.flushedRows = 0
	m.chunkCount = 0
	m.errorCount = make(map[string]int64)
	m.startTime = time.Now()
}

// JoinMetrics 连接指标快照
type JoinMetrics struct {
	JoinCount     int64
	JoinSuccess   int64
	JoinError     int64
	SuccessRate   float64
	AvgDuration   time.Duration
	SlowJoinCount int64
	ActiveJoins   int64
	StreamingRows int64
	FlushedRows   int64
	ChunkCount    int64
	ErrorCount    map[string]int64
	Uptime        time.Duration
}

// GetSnapshot 获取指标快照
func (m *MetricsCollector) GetSnapshot() *JoinMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var successRate float64
	var avgDuration time.Duration
	if m.joinCount > 0 {
		successRate = float64(m.joinSuccess) / float64(m.joinCount) * 100
		avgDuration = m.totalDuration / time.Duration(m.joinCount)
	}

	errorsCopy := make(map[string]int64, len(m.errorCount))
	for k, v := range m.errorCount {
		errorsCopy[k] = v
	}

	return &JoinMetrics{
		JoinCount:     m.joinCount,
		JoinSuccess:   m.joinSuccess,
		JoinError:     m.joinError,
		SuccessRate:   successRate,
		AvgDuration:   avgDuration,
		SlowJoinCount: m.slowJoinCount,
		ActiveJoins:   m.activeJoins,
		StreamingRows: m.streamingRows,
		FlushedRows:   m.flushedRows,
		ChunkCount:    m.chunkCount,
		ErrorCount:    errorsCopy,
		Uptime:        time.Since(m.startTime),
	}
}
