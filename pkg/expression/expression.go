// Package expression evaluates physical expressions against a DataFrame batch.
package expression

import (
	"context"
	"fmt"

	"github.com/kasuganosora/pipejoin/pkg/frame"
	"github.com/pingcap/errors"
)

// Expr 物理表达式接口
type Expr interface {
	// Evaluate 在一个数据块上求值，返回与数据块等高的列
	Evaluate(ctx context.Context, df *frame.DataFrame) (*frame.Series, error)
	String() string
}

// Column 列引用表达式
type Column struct {
	Name string
}

// Col 创建列引用
func Col(name string) *Column {
	return &Column{Name: name}
}

// Evaluate returns the referenced column unchanged.
func (c *Column) Evaluate(ctx context.Context, df *frame.DataFrame) (*frame.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := df.ColumnByName(c.Name)
	if s == nil {
		return nil, errors.Trace(&frame.ErrColumnNotFound{ColumnName: c.Name})
	}
	return s, nil
}

func (c *Column) String() string {
	return fmt.Sprintf("col(%s)", c.Name)
}

// Func wraps an arbitrary evaluation function, e.g. a compiled projection.
type Func struct {
	Label string
	Fn    func(ctx context.Context, df *frame.DataFrame) (*frame.Series, error)
}

// Evaluate 调用包装的函数并校验输出高度
func (f *Func) Evaluate(ctx context.Context, df *frame.DataFrame) (*frame.Series, error) {
	s, err := f.Fn(ctx, df)
	if err != nil {
		return nil, err
	}
	if s.Len() != df.Height() {
		return nil, errors.Trace(&frame.ErrLengthMismatch{ColumnName: f.Label, Expected: df.Height(), Actual: s.Len()})
	}
	return s, nil
}

func (f *Func) String() string {
	return f.Label
}

// Columns 批量创建列引用
func Columns(names ...string) []Expr {
	exprs := make([]Expr, len(names))
	for i, name := range names {
		exprs[i] = Col(name)
	}
	return exprs
}
