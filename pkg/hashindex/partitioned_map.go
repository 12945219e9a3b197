// Package hashindex holds the sharded hash index that maps encoded join keys
// of the build side to the ChunkIDs of its rows, along with the per-entry
// match trackers used by outer joins.
package hashindex

import (
	"bytes"

	"github.com/kasuganosora/pipejoin/pkg/frame"
	"github.com/kasuganosora/pipejoin/pkg/rowenc"
)

// Key identifies an entry: its hash and the first build row inserted with it.
// The materialized key bytes of that row are the key identity.
type Key struct {
	Hash uint64
	ID   frame.ChunkID
}

// Entry 哈希表条目
type Entry struct {
	key     Key
	leftIDs []frame.ChunkID
	tracker Tracker
}

// Key returns the entry key.
func (e *Entry) Key() Key { return e.key }

// LeftIDs returns the build rows of this key in insertion order.
func (e *Entry) LeftIDs() []frame.ChunkID { return e.leftIDs }

// Tracker returns the entry's match tracker.
func (e *Entry) Tracker() *Tracker { return &e.tracker }

type shard struct {
	buckets map[uint64][]*Entry
	// entries keeps insertion order, including entries that can never match.
	entries []*Entry
}

// PartitionedMap 分片哈希表
// The shard of hash h is h % NumShards. After the build it is read-only except
// for the trackers.
type PartitionedMap struct {
	shards []*shard
}

// NewPartitionedMap 创建n个分片的哈希表
func NewPartitionedMap(n int) *PartitionedMap {
	if n <= 0 {
		n = 1
	}
	m := &PartitionedMap{shards: make([]*shard, n)}
	for i := range m.shards {
		m.shards[i] = &shard{buckets: make(map[uint64][]*Entry)}
	}
	return m
}

// NumShards 返回分片数量
func (m *PartitionedMap) NumShards() int { return len(m.shards) }

// ShardIndex returns the shard holding hash h.
func (m *PartitionedMap) ShardIndex(h uint64) int {
	return int(h % uint64(len(m.shards)))
}

// Len returns the number of entries over all shards.
func (m *PartitionedMap) Len() int {
	n := 0
	for _, s := range m.shards {
		n += len(s.entries)
	}
	return n
}

// Lookup returns the entry with hash h for which eq holds, or nil.
func (m *PartitionedMap) Lookup(h uint64, eq func(Key) bool) *Entry {
	for _, e := range m.shards[m.ShardIndex(h)].buckets[h] {
		if eq(e.key) {
			return e
		}
	}
	return nil
}

// ForEachInShard calls fn for every entry of shard i in insertion order.
func (m *PartitionedMap) ForEachInShard(i int, fn func(e *Entry)) {
	for _, e := range m.shards[i].entries {
		fn(e)
	}
}

// insert appends id to the entry whose key satisfies eq, creating it when absent.
func (m *PartitionedMap) insert(h uint64, id frame.ChunkID, eq func(Key) bool) {
	s := m.shards[m.ShardIndex(h)]
	for _, e := range s.buckets[h] {
		if eq(e.key) {
			e.leftIDs = append(e.leftIDs, id)
			return
		}
	}
	e := &Entry{key: Key{Hash: h, ID: id}, leftIDs: []frame.ChunkID{id}}
	s.buckets[h] = append(s.buckets[h], e)
	s.entries = append(s.entries, e)
}

// insertUnmatchable stores a build row whose key can never match, so that
// only the flush phase reaches it.
func (m *PartitionedMap) insertUnmatchable(h uint64, id frame.ChunkID) {
	s := m.shards[m.ShardIndex(h)]
	s.entries = append(s.entries, &Entry{key: Key{Hash: h, ID: id}, leftIDs: []frame.ChunkID{id}})
}

// MaterializedKeys 物化的build侧键，每个chunk一个BinaryArray
type MaterializedKeys []*rowenc.BinaryArray

// Value returns the encoded key of build row id.
func (k MaterializedKeys) Value(id frame.ChunkID) []byte {
	return k[id.Chunk()].Value(int(id.Row()))
}

// CompareFn reports whether key matches the probe row with hash h and bytes row.
func CompareFn(key Key, h uint64, keys MaterializedKeys, row []byte) bool {
	return key.Hash == h && bytes.Equal(keys.Value(key.ID), row)
}
