package operators

import "github.com/pingcap/errors"

var (
	// ErrOperatorFlushed is returned when a flushed operator is used again.
	ErrOperatorFlushed = errors.New("operator already flushed")
	// ErrNothingToFlush is returned by Flush before any chunk was executed.
	ErrNothingToFlush = errors.New("operator has not seen any chunk, nothing to flush")
)
