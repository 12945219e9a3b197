package expression

import (
	"context"
	"testing"

	"github.com/kasuganosora/pipejoin/pkg/frame"
	"github.com/pingcap/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumn_Evaluate(t *testing.T) {
	df := frame.MustDataFrame(frame.NewSeriesInt64("a", []int64{1, 2}))

	s, err := Col("a").Evaluate(context.Background(), df)
	require.NoError(t, err)
	assert.Same(t, df.Column(0), s)
	assert.Equal(t, "col(a)", Col("a").String())

	_, err = Col("b").Evaluate(context.Background(), df)
	assert.IsType(t, &frame.ErrColumnNotFound{}, errors.Cause(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Col("a").Evaluate(ctx, df)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFunc_Evaluate(t *testing.T) {
	df := frame.MustDataFrame(frame.NewSeriesInt64("a", []int64{1, 2}))
	boom := errors.New("boom")

	tests := []struct {
		name    string
		fn      func(ctx context.Context, df *frame.DataFrame) (*frame.Series, error)
		wantErr func(t *testing.T, err error)
	}{
		{
			name: "ok",
			fn: func(ctx context.Context, df *frame.DataFrame) (*frame.Series, error) {
				return frame.NewSeriesInt64("x", []int64{3, 4}), nil
			},
			wantErr: func(t *testing.T, err error) { assert.NoError(t, err) },
		},
		{
			name: "error passes through",
			fn: func(ctx context.Context, df *frame.DataFrame) (*frame.Series, error) {
				return nil, boom
			},
			wantErr: func(t *testing.T, err error) { assert.Equal(t, boom, err) },
		},
		{
			name: "wrong height",
			fn: func(ctx context.Context, df *frame.DataFrame) (*frame.Series, error) {
				return frame.NewSeriesInt64("x", []int64{3}), nil
			},
			wantErr: func(t *testing.T, err error) {
				assert.IsType(t, &frame.ErrLengthMismatch{}, errors.Cause(err))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Func{Label: tt.name, Fn: tt.fn}
			_, err := f.Evaluate(context.Background(), df)
			tt.wantErr(t, err)
			assert.Equal(t, tt.name, f.String())
		})
	}
}

func TestColumns(t *testing.T) {
	exprs := Columns("a", "b")
	require.Len(t, exprs, 2)
	assert.Equal(t, "col(b)", exprs[1].String())
}
