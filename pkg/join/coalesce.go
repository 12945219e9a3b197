package join

import (
	"github.com/kasuganosora/pipejoin/pkg/frame"
	"github.com/pingcap/errors"
)

// CoalesceFullJoin merges every (keysLeft[i], keysRight[i]) pair of a full
// join output into one column named keysLeft[i], placed where the left key
// was. The value is the left key where it is not null and the right key
// otherwise. The right key columns are dropped.
//
// leftNames are the column names of the user-visible left input; a right key
// whose name collides with one of them is looked up with suffix appended, the
// way FinishJoin named it.
func CoalesceFullJoin(df *frame.DataFrame, keysLeft, keysRight []string, suffix string, leftNames []string) (*frame.DataFrame, error) {
	if len(keysLeft) != len(keysRight) {
		return nil, errors.Errorf("coalesce needs key pairs, got %d left and %d right keys", len(keysLeft), len(keysRight))
	}
	onLeft := make(map[string]struct{}, len(leftNames))
	for _, name := range leftNames {
		onLeft[name] = struct{}{}
	}

	cols := df.Columns()
	drop := make(map[int]struct{}, len(keysRight))
	for i := range keysLeft {
		li := df.ColumnIndex(keysLeft[i])
		if li < 0 {
			return nil, errors.Trace(&frame.ErrColumnNotFound{ColumnName: keysLeft[i]})
		}
		rname := keysRight[i]
		if _, dup := onLeft[rname]; dup {
			rname += suffix
		}
		ri := df.ColumnIndex(rname)
		if ri < 0 {
			return nil, errors.Trace(&frame.ErrColumnNotFound{ColumnName: rname})
		}
		if ri == li {
			continue
		}
		merged, err := frame.Coalesce(keysLeft[i], cols[li], df.Column(ri))
		if err != nil {
			return nil, errors.Trace(err)
		}
		cols[li] = merged
		drop[ri] = struct{}{}
	}

	out := make([]*frame.Series, 0, len(cols)-len(drop))
	for i, col := range cols {
		if _, ok := drop[i]; ok {
			continue
		}
		out = append(out, col)
	}
	return frame.NewDataFrameNoChecks(df.Height(), out), nil
}
