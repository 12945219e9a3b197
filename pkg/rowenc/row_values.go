package rowenc

import (
	"context"

	"github.com/kasuganosora/pipejoin/pkg/expression"
	"github.com/kasuganosora/pipejoin/pkg/frame"
	"github.com/pingcap/errors"
)

// RowValues evaluates key expressions on a batch and encodes the result.
type RowValues struct {
	exprs    []expression.Expr
	keyTypes []frame.DataType
	cols     []*frame.Series
}

// NewRowValues 创建RowValues
// keyTypes are the build-time key dtypes; nil disables the check.
func NewRowValues(exprs []expression.Expr, keyTypes []frame.DataType) *RowValues {
	return &RowValues{
		exprs:    exprs,
		keyTypes: keyTypes,
		cols:     make([]*frame.Series, 0, len(exprs)),
	}
}

// NumKeys 返回键列数量
func (rv *RowValues) NumKeys() int { return len(rv.exprs) }

// Evaluate returns the key columns of df. Expression errors are returned
// unchanged.
func (rv *RowValues) Evaluate(ctx context.Context, df *frame.DataFrame) ([]*frame.Series, error) {
	cols := rv.cols[:0]
	for i, expr := range rv.exprs {
		s, err := expr.Evaluate(ctx, df)
		if err != nil {
			return nil, err
		}
		if rv.keyTypes != nil && s.DType() != rv.keyTypes[i] && s.DType() != frame.Null {
			return nil, errors.Trace(&frame.ErrSchemaMismatch{
				Expected: rv.keyTypes[i].String(),
				Actual:   s.DType().String(),
			})
		}
		cols = append(cols, s)
	}
	rv.cols = cols
	return cols, nil
}

// GetValues evaluates and encodes the key rows of df.
func (rv *RowValues) GetValues(ctx context.Context, df *frame.DataFrame, nullsEqual bool) (*BinaryArray, error) {
	cols, err := rv.Evaluate(ctx, df)
	if err != nil {
		return nil, err
	}
	return EncodeRows(cols, df.Height(), nullsEqual), nil
}
