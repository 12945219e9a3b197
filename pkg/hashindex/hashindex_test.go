package hashindex

import (
	"context"
	"sync"
	"testing"

	"github.com/kasuganosora/pipejoin/pkg/expression"
	"github.com/kasuganosora/pipejoin/pkg/frame"
	"github.com/kasuganosora/pipejoin/pkg/rowenc"
	"github.com/pingcap/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyFrame(t *testing.T, values ...interface{}) *frame.DataFrame {
	t.Helper()
	k, err := frame.NewSeriesFromValues("k", frame.Int64, values)
	require.NoError(t, err)
	return frame.MustDataFrame(k)
}

func build(t *testing.T, shards int, nullsEqual bool, chunks ...*frame.DataFrame) *BuildResult {
	t.Helper()
	b := NewBuilder(chunks[0].Schema(), expression.Columns("k"), rowenc.NewRandomState(1), shards, nullsEqual)
	for _, c := range chunks {
		require.NoError(t, b.Sink(context.Background(), c))
	}
	res, err := b.Finalize()
	require.NoError(t, err)
	return res
}

func lookup(t *testing.T, res *BuildResult, v interface{}) *Entry {
	t.Helper()
	rows, err := rowenc.NewRowValues(expression.Columns("k"), res.KeyTypes).GetValues(context.Background(), keyFrame(t, v), true)
	require.NoError(t, err)
	h := res.Hasher.HashRows(rows, nil)[0]
	row := rows.Value(0)
	return res.Map.Lookup(h, func(k Key) bool { return CompareFn(k, h, res.Keys, row) })
}

func TestBuilder_GroupsByKey(t *testing.T) {
	res := build(t, 4, false, keyFrame(t, 1, 2, 1), keyFrame(t, 3, 1))

	assert.Equal(t, 2, res.Left.NumChunks())
	assert.Equal(t, 5, res.Left.Height())
	assert.Equal(t, []frame.DataType{frame.Int64}, res.KeyTypes)
	assert.Equal(t, 3, res.Map.Len())
	assert.Equal(t, 4, res.Map.NumShards())

	e := lookup(t, res, 1)
	require.NotNil(t, e)
	assert.Equal(t, []frame.ChunkID{
		frame.NewChunkID(0, 0),
		frame.NewChunkID(0, 2),
		frame.NewChunkID(1, 1),
	}, e.LeftIDs())
	assert.Equal(t, frame.NewChunkID(0, 0), e.Key().ID)
	assert.Equal(t, res.Map.ShardIndex(e.Key().Hash), int(e.Key().Hash%4))

	assert.Nil(t, lookup(t, res, 9))
}

func TestBuilder_NullKeys(t *testing.T) {
	t.Run("nulls not equal", func(t *testing.T) {
		res := build(t, 2, false, keyFrame(t, nil, 1, nil))
		// each null row is its own entry and none can be found.
		assert.Equal(t, 3, res.Map.Len())
		assert.Nil(t, lookup(t, res, nil))
	})

	t.Run("nulls equal", func(t *testing.T) {
		res := build(t, 2, true, keyFrame(t, nil, 1, nil))
		assert.Equal(t, 2, res.Map.Len())
		e := lookup(t, res, nil)
		require.NotNil(t, e)
		assert.Equal(t, []frame.ChunkID{frame.NewChunkID(0, 0), frame.NewChunkID(0, 2)}, e.LeftIDs())
	})
}

func TestBuilder_SchemaMismatch(t *testing.T) {
	b := NewBuilder(keyFrame(t, 1).Schema(), expression.Columns("k"), rowenc.NewRandomState(1), 1, false)
	other := frame.MustDataFrame(frame.NewSeriesString("k", []string{"x"}))
	err := b.Sink(context.Background(), other)
	assert.IsType(t, &frame.ErrSchemaMismatch{}, errors.Cause(err))
}

func TestPartitionedMap_ForEachInShard(t *testing.T) {
	res := build(t, 3, false, keyFrame(t, 5, 6, 7, 8, 9, 5, nil))

	total := 0
	for i := 0; i < res.Map.NumShards(); i++ {
		var prev frame.ChunkID
		first := true
		res.Map.ForEachInShard(i, func(e *Entry) {
			assert.Equal(t, i, res.Map.ShardIndex(e.Key().Hash))
			if !first {
				assert.Less(t, uint64(prev), uint64(e.Key().ID), "insertion order")
			}
			prev, first = e.Key().ID, false
			total += len(e.LeftIDs())
		})
	}
	assert.Equal(t, 7, total)
}

func TestNewPartitionedMap_MinimumOneShard(t *testing.T) {
	assert.Equal(t, 1, NewPartitionedMap(0).NumShards())
	assert.Equal(t, 0, NewPartitionedMap(0).Len())
}

func TestTracker_Concurrent(t *testing.T) {
	var tr Tracker
	assert.False(t, tr.Load())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Store()
		}()
	}
	wg.Wait()
	assert.True(t, tr.Load())
}
