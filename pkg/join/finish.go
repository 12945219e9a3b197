// Package join contains the pure helpers that turn the gathered left and right
// frames of a join into its output frame.
package join

import (
	"github.com/kasuganosora/pipejoin/pkg/frame"
	"github.com/pingcap/errors"
)

// DefaultSuffix 右侧重名列的默认后缀
const DefaultSuffix = "_right"

// FinishJoin 横向拼接左右两侧的列
// Right columns whose name already exists on the left get suffix appended.
// When the suffixed name still collides the join fails, so unique input names
// always give unique output names.
func FinishJoin(left, right *frame.DataFrame, suffix string) (*frame.DataFrame, error) {
	if left.Height() != right.Height() {
		return nil, errors.Trace(&frame.ErrLengthMismatch{ColumnName: "right", Expected: left.Height(), Actual: right.Height()})
	}
	names := make(map[string]struct{}, left.Width()+right.Width())
	cols := make([]*frame.Series, 0, left.Width()+right.Width())
	for _, col := range left.Columns() {
		names[col.Name()] = struct{}{}
		cols = append(cols, col)
	}
	for _, col := range right.Columns() {
		name := col.Name()
		if _, dup := names[name]; dup {
			name += suffix
			if _, dup := names[name]; dup {
				return nil, errors.Trace(&frame.ErrDuplicateColumn{ColumnName: name})
			}
			col = col.WithName(name)
		}
		names[name] = struct{}{}
		cols = append(cols, col)
	}
	return frame.NewDataFrameNoChecks(left.Height(), cols), nil
}

// RenameColumns renames the columns of df positionally. names must have one
// entry per column.
func RenameColumns(df *frame.DataFrame, names []string) (*frame.DataFrame, error) {
	if len(names) != df.Width() {
		return nil, errors.Errorf("cannot rename %d columns with %d names", df.Width(), len(names))
	}
	cols := df.Columns()
	for i, col := range cols {
		if col.Name() != names[i] {
			cols[i] = col.WithName(names[i])
		}
	}
	return frame.NewDataFrameNoChecks(df.Height(), cols), nil
}
