package rowenc

import (
	"encoding/binary"
	"math"

	"github.com/kasuganosora/pipejoin/pkg/frame"
)

// Row encoding, per key column in order:
//
//	null      -> 0x00
//	non-null  -> 0x01 followed by the value
//
// int64 is big endian with the sign bit flipped, float64 is its IEEE bits
// (with -0 folded into 0 and every NaN folded into one NaN), bool is one byte,
// string and binary escape 0x00 as 0x00 0xFF and end with 0x00 0x01.
const (
	markerNull  byte = 0x00
	markerValid byte = 0x01

	escapeByte byte = 0x00
	escapedNul byte = 0xFF
	terminator byte = 0x01
)

var canonicalNaN = math.Float64bits(math.NaN())

// EncodeRows encodes the given key columns row by row. With nullsEqual false
// any row holding a null key becomes a null row; otherwise nulls are encoded
// with the null marker and every row is valid.
func EncodeRows(cols []*frame.Series, height int, nullsEqual bool) *BinaryArray {
	out := NewBinaryArrayBuilder(height, height*9*len(cols))
	buf := make([]byte, 0, 64)
	for i := 0; i < height; i++ {
		var ok bool
		buf, ok = AppendRow(buf[:0], cols, i, nullsEqual)
		if !ok {
			out.PushNull()
			continue
		}
		out.Push(buf)
	}
	return out.Finish()
}

// AppendRow appends the encoding of row i to dst. The boolean is false when
// the row has a null key and nullsEqual is false.
func AppendRow(dst []byte, cols []*frame.Series, i int, nullsEqual bool) ([]byte, bool) {
	for _, col := range cols {
		if col.IsNull(i) {
			if !nullsEqual {
				return dst, false
			}
			dst = append(dst, markerNull)
			continue
		}
		dst = append(dst, markerValid)
		dst = appendValue(dst, col, i)
	}
	return dst, true
}

func appendValue(dst []byte, col *frame.Series, i int) []byte {
	switch col.DType() {
	case frame.Int64:
		v, _ := col.Int64(i)
		return binary.BigEndian.AppendUint64(dst, uint64(v)^(1<<63))
	case frame.Float64:
		v, _ := col.Float64(i)
		var bits uint64
		switch {
		case math.IsNaN(v):
			bits = canonicalNaN
		case v == 0:
			bits = 0
		default:
			bits = math.Float64bits(v)
		}
		return binary.BigEndian.AppendUint64(dst, bits)
	case frame.Bool:
		v, _ := col.Bool(i)
		if v {
			return append(dst, 1)
		}
		return append(dst, 0)
	case frame.String:
		v, _ := col.Str(i)
		return appendEscaped(dst, []byte(v))
	case frame.Binary:
		v, _ := col.Binary(i)
		return appendEscaped(dst, v)
	}
	return dst
}

func appendEscaped(dst, v []byte) []byte {
	for _, b := range v {
		if b == escapeByte {
			dst = append(dst, escapeByte, escapedNul)
			continue
		}
		dst = append(dst, b)
	}
	return append(dst, escapeByte, terminator)
}
