package parallel

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/kasuganosora/pipejoin/pkg/config"
	"github.com/kasuganosora/pipejoin/pkg/frame"
	"github.com/kasuganosora/pipejoin/pkg/logger"
	"github.com/kasuganosora/pipejoin/pkg/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testJoinConfig() config.JoinConfig {
	cfg := config.DefaultConfig().Join
	cfg.SwapSmaller = false
	return cfg
}

// randomFrame builds a frame with an int64 key drawn from [0, keys), about a
// tenth of it null, and a unique string payload.
func randomFrame(r *rand.Rand, n, keys int, keyName, payload string) *frame.DataFrame {
	keyValues := make([]interface{}, n)
	payloads := make([]string, n)
	for i := 0; i < n; i++ {
		if r.Intn(10) == 0 {
			keyValues[i] = nil
		} else {
			keyValues[i] = int64(r.Intn(keys))
		}
		payloads[i] = fmt.Sprintf("%s%d", payload, i)
	}
	key, err := frame.NewSeriesFromValues(keyName, frame.Int64, keyValues)
	if err != nil {
		panic(err)
	}
	return frame.MustDataFrame(key, frame.NewSeriesString(payload, payloads))
}

// nestedLoopFullJoin is the reference result: left columns, then right
// columns, one row per matching pair plus unmatched rows of either side.
func nestedLoopFullJoin(left, right *frame.DataFrame, nullsEqual, coalesce bool) []string {
	keysEqual := func(a, b interface{}) bool {
		if a == nil || b == nil {
			return nullsEqual && a == nil && b == nil
		}
		return a == b
	}
	emit := func(l, r []interface{}) string {
		if coalesce {
			key := l[0]
			if key == nil {
				key = r[0]
			}
			row := append([]interface{}{key}, l[1:]...)
			return fmt.Sprint(append(row, r[1:]...))
		}
		return fmt.Sprint(append(append([]interface{}{}, l...), r...))
	}
	nullLeft := make([]interface{}, left.Width())
	nullRight := make([]interface{}, right.Width())

	out := []string{}
	rightMatched := make([]bool, right.Height())
	for i := 0; i < left.Height(); i++ {
		l := left.Row(i)
		matched := false
		for j := 0; j < right.Height(); j++ {
			r := right.Row(j)
			if keysEqual(l[0], r[0]) {
				matched = true
				rightMatched[j] = true
				out = append(out, emit(l, r))
			}
		}
		if !matched {
			out = append(out, emit(l, nullRight))
		}
	}
	for j := 0; j < right.Height(); j++ {
		if !rightMatched[j] {
			out = append(out, emit(nullLeft, right.Row(j)))
		}
	}
	sort.Strings(out)
	return out
}

func sortedRows(df *frame.DataFrame) []string {
	out := make([]string, 0, df.Height())
	for _, row := range df.Rows() {
		out = append(out, fmt.Sprint(row))
	}
	sort.Strings(out)
	return out
}

func TestParallelFullJoinExecutor_MatchesNestedLoop(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	left := randomFrame(r, 60, 20, "key", "l")
	right := randomFrame(r, 45, 25, "key", "r")

	tests := []struct {
		name       string
		workers    int
		shards     int
		batchSize  int
		nullsEqual bool
		coalesce   bool
		swap       bool
	}{
		{name: "single worker", workers: 1, shards: 1, batchSize: 8},
		{name: "workers equal shards", workers: 4, shards: 4, batchSize: 5},
		{name: "more shards than workers", workers: 3, shards: 7, batchSize: 4},
		{name: "more workers than chunks", workers: 16, shards: 5, batchSize: 20},
		{name: "default shards", workers: 3, batchSize: 6},
		{name: "nulls equal", workers: 4, shards: 4, batchSize: 7, nullsEqual: true},
		{name: "coalesce", workers: 2, shards: 3, batchSize: 9, coalesce: true},
		{name: "swap smaller", workers: 3, shards: 2, batchSize: 6, swap: true},
		{name: "swap with coalesce and nulls equal", workers: 5, shards: 4, batchSize: 3, swap: true, coalesce: true, nullsEqual: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testJoinConfig()
			cfg.NullsEqual = tt.nullsEqual
			cfg.Coalesce = tt.coalesce
			cfg.SwapSmaller = tt.swap

			exec, err := NewParallelFullJoinExecutor(
				JoinInput{Frame: left, On: []string{"key"}},
				JoinInput{Frame: right, On: []string{"key"}},
				cfg, config.PoolConfig{Workers: tt.workers, Shards: tt.shards}, tt.batchSize, nil,
			)
			require.NoError(t, err)

			res, err := exec.Execute(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.swap, res.Swapped)

			want := []string{"key", "l", "key_right", "r"}
			if tt.coalesce {
				want = []string{"key", "l", "r"}
			}
			assert.Equal(t, want, res.Frame.ColumnNames())
			assert.Equal(t, nestedLoopFullJoin(left, right, tt.nullsEqual, tt.coalesce), sortedRows(res.Frame))

			// every batch carries the same schema.
			schema := res.Frame.Schema()
			for _, c := range append(res.Streaming, res.Flushed...) {
				assert.True(t, schema.Equal(c.Data.Schema()), c.Data.Schema().String())
			}
		})
	}
}

func TestParallelFullJoinExecutor_RightRowCoverage(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	left := randomFrame(r, 30, 10, "key", "l")
	right := randomFrame(r, 50, 12, "key", "r")

	exec, err := NewParallelFullJoinExecutor(
		JoinInput{Frame: left, On: []string{"key"}},
		JoinInput{Frame: right, On: []string{"key"}},
		testJoinConfig(), config.PoolConfig{Workers: 4, Shards: 4}, 6, nil,
	)
	require.NoError(t, err)
	res, err := exec.Execute(context.Background())
	require.NoError(t, err)

	// count left matches per key
	matches := map[int64]int{}
	for i := 0; i < left.Height(); i++ {
		if k, ok := left.Column(0).Int64(i); ok {
			matches[k]++
		}
	}

	seen := map[string]int{}
	for _, c := range res.Streaming {
		col := c.Data.ColumnByName("r")
		for i := 0; i < col.Len(); i++ {
			v, ok := col.Str(i)
			require.True(t, ok)
			seen[v]++
		}
	}
	for _, c := range res.Flushed {
		assert.Equal(t, c.Data.Height(), c.Data.ColumnByName("r").NullCount())
	}

	for i := 0; i < right.Height(); i++ {
		payload, _ := right.Column(1).Str(i)
		want := 1
		if k, ok := right.Column(0).Int64(i); ok && matches[k] > 0 {
			want = matches[k]
		}
		assert.Equal(t, want, seen[payload], "right row %s", payload)
	}
}

func TestParallelFullJoinExecutor_EmptyInputs(t *testing.T) {
	schemaL := frame.Schema{{Name: "key", DType: frame.Int64}, {Name: "l", DType: frame.String}}
	schemaR := frame.Schema{{Name: "key", DType: frame.Int64}, {Name: "r", DType: frame.String}}
	r := rand.New(rand.NewSource(3))

	tests := []struct {
		name  string
		left  *frame.DataFrame
		right *frame.DataFrame
	}{
		{name: "empty right", left: randomFrame(r, 10, 5, "key", "l"), right: frame.EmptyFrame(schemaR)},
		{name: "empty left", left: frame.EmptyFrame(schemaL), right: randomFrame(r, 10, 5, "key", "r")},
		{name: "both empty", left: frame.EmptyFrame(schemaL), right: frame.EmptyFrame(schemaR)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec, err := NewParallelFullJoinExecutor(
				JoinInput{Frame: tt.left, On: []string{"key"}},
				JoinInput{Frame: tt.right, On: []string{"key"}},
				testJoinConfig(), config.PoolConfig{Workers: 4, Shards: 3}, 4, nil,
			)
			require.NoError(t, err)
			res, err := exec.Execute(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []string{"key", "l", "key_right", "r"}, res.Frame.ColumnNames())
			assert.Equal(t, nestedLoopFullJoin(tt.left, tt.right, false, false), sortedRows(res.Frame))
		})
	}
}

func TestParallelFullJoinExecutor_MultiKey(t *testing.T) {
	left := frame.MustDataFrame(
		frame.NewSeriesInt64("a", []int64{1, 1, 2}),
		frame.NewSeriesString("b", []string{"x", "y", "x"}),
		frame.NewSeriesFloat64("score", []float64{0.5, 1.5, 2.5}),
	)
	right := frame.MustDataFrame(
		frame.NewSeriesInt64("a", []int64{1, 2, 2}),
		frame.NewSeriesString("b", []string{"y", "x", "z"}),
	)

	exec, err := NewParallelFullJoinExecutor(
		JoinInput{Frame: left, On: []string{"a", "b"}},
		JoinInput{Frame: right, On: []string{"a", "b"}},
		testJoinConfig(), config.PoolConfig{Workers: 2, Shards: 2}, 1, nil,
	)
	require.NoError(t, err)
	res, err := exec.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "score", "a_right", "b_right"}, res.Frame.ColumnNames())
	assert.Equal(t, []string{
		fmt.Sprint([]interface{}{int64(1), "x", 0.5, nil, nil}),
		fmt.Sprint([]interface{}{int64(1), "y", 1.5, int64(1), "y"}),
		fmt.Sprint([]interface{}{int64(2), "x", 2.5, int64(2), "x"}),
		fmt.Sprint([]interface{}{nil, nil, nil, int64(2), "z"}),
	}, sortedRows(res.Frame))
}

func TestParallelFullJoinExecutor_Errors(t *testing.T) {
	left := frame.MustDataFrame(frame.NewSeriesInt64("key", []int64{1}))
	right := frame.MustDataFrame(frame.NewSeriesInt64("key", []int64{1}))

	t.Run("key count mismatch", func(t *testing.T) {
		_, err := NewParallelFullJoinExecutor(
			JoinInput{Frame: left, On: []string{"key"}},
			JoinInput{Frame: right, On: []string{"key", "other"}},
			testJoinConfig(), config.PoolConfig{}, 0, nil,
		)
		assert.Error(t, err)
	})

	t.Run("no keys", func(t *testing.T) {
		_, err := NewParallelFullJoinExecutor(JoinInput{Frame: left}, JoinInput{Frame: right}, testJoinConfig(), config.PoolConfig{}, 0, nil)
		assert.Error(t, err)
	})

	t.Run("missing probe key", func(t *testing.T) {
		exec, err := NewParallelFullJoinExecutor(
			JoinInput{Frame: left, On: []string{"key"}},
			JoinInput{Frame: right, On: []string{"missing"}},
			testJoinConfig(), config.PoolConfig{Workers: 1}, 0, nil,
		)
		require.NoError(t, err)
		_, err = exec.Execute(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "missing")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		exec, err := NewParallelFullJoinExecutor(
			JoinInput{Frame: left, On: []string{"key"}},
			JoinInput{Frame: right, On: []string{"key"}},
			testJoinConfig(), config.PoolConfig{Workers: 1}, 0, nil,
		)
		require.NoError(t, err)
		_, err = exec.Execute(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestParallelFullJoinExecutor_Logging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	lg := logger.NewZapLoggerFrom(zap.New(core), logger.LogDebug)

	left := frame.MustDataFrame(frame.NewSeriesInt64("key", []int64{1, 2}))
	right := frame.MustDataFrame(frame.NewSeriesInt64("key", []int64{2}))
	exec, err := NewParallelFullJoinExecutor(
		JoinInput{Frame: left, On: []string{"key"}},
		JoinInput{Frame: right, On: []string{"key"}},
		testJoinConfig(), config.PoolConfig{Workers: 1, Shards: 1}, 0, lg,
	)
	require.NoError(t, err)
	_, err = exec.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessageSnippet("full join").Len())
	assert.Equal(t, 1, logs.FilterMessageSnippet("flushed 1 unmatched build rows").Len())
}

func TestParallelFullJoinExecutor_Explain(t *testing.T) {
	left := frame.MustDataFrame(frame.NewSeriesInt64("key", []int64{1}))
	exec, err := NewParallelFullJoinExecutor(
		JoinInput{Frame: left, On: []string{"key"}},
		JoinInput{Frame: left, On: []string{"key"}},
		testJoinConfig(), config.PoolConfig{Workers: 2, Shards: 4}, 16, nil,
	)
	require.NoError(t, err)
	assert.Equal(t, "ParallelFullJoin(left=[key], right=[key], parallelism=2, shards=4, ChunkScanner(batchSize=16))", exec.Explain())
}

func TestParallelFullJoinExecutor_Metrics(t *testing.T) {
	left := frame.MustDataFrame(frame.NewSeriesInt64("key", []int64{1, 2, 3}))
	right := frame.MustDataFrame(frame.NewSeriesInt64("key", []int64{2, 4}))
	metrics := monitor.NewMetricsCollector(0)

	exec, err := NewParallelFullJoinExecutor(
		JoinInput{Frame: left, On: []string{"key"}},
		JoinInput{Frame: right, On: []string{"key"}},
		testJoinConfig(), config.PoolConfig{Workers: 2, Shards: 2}, 1, nil,
	)
	require.NoError(t, err)
	exec.SetMetrics(metrics)
	_, err = exec.Execute(context.Background())
	require.NoError(t, err)

	failing, err := NewParallelFullJoinExecutor(
		JoinInput{Frame: left, On: []string{"key"}},
		JoinInput{Frame: right, On: []string{"missing"}},
		testJoinConfig(), config.PoolConfig{Workers: 1}, 1, nil,
	)
	require.NoError(t, err)
	failing.SetMetrics(metrics)
	_, err = failing.Execute(context.Background())
	require.Error(t, err)

	s := metrics.GetSnapshot()
	assert.Equal(t, int64(2), s.JoinCount)
	assert.Equal(t, int64(1), s.JoinError)
	// (2,2) and (null,4) while streaming, 1 and 3 on flush
	assert.Equal(t, int64(2), s.StreamingRows)
	assert.Equal(t, int64(2), s.FlushedRows)
	assert.Equal(t, int64(1), metrics.GetErrorCount("*frame.ErrColumnNotFound"))
}
