package rowenc

import (
	"github.com/cespare/xxhash/v2"
)

// RandomState 带种子的64位哈希器
// Build and probe must share the same seed.
type RandomState struct {
	seed uint64
}

// NewRandomState 创建RandomState
func NewRandomState(seed uint64) RandomState {
	return RandomState{seed: seed}
}

// Seed 返回种子
func (rs RandomState) Seed() uint64 { return rs.seed }

// HashBytes hashes a single encoded row.
func (rs RandomState) HashBytes(b []byte) uint64 {
	d := xxhash.NewWithSeed(rs.seed)
	_, _ = d.Write(b)
	return d.Sum64()
}

// HashRows fills hashes with one hash per row of rows, reusing its backing
// array when large enough. Null rows hash like the empty input.
func (rs RandomState) HashRows(rows *BinaryArray, hashes []uint64) []uint64 {
	n := rows.Len()
	if cap(hashes) < n {
		hashes = make([]uint64, n)
	}
	hashes = hashes[:n]
	d := xxhash.NewWithSeed(rs.seed)
	for i := 0; i < n; i++ {
		d.ResetWithSeed(rs.seed)
		if !rows.IsNull(i) {
			_, _ = d.Write(rows.Value(i))
		}
		hashes[i] = d.Sum64()
	}
	return hashes
}
