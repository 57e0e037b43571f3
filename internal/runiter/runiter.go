// Package runiter adapts a tape.ReadBuffer into a finite sequence that
// terminates at the end of the current natural run.
package runiter

import (
	"github.com/originalmk/tapesort/internal/record"
	"github.com/originalmk/tapesort/internal/tape"
)

// RunIterator is single-use: once exhausted, construct a new one over the
// same ReadBuffer to read the next run.
type RunIterator struct {
	rb       *tape.ReadBuffer
	endOfRun bool
}

// New wraps rb. The returned iterator reads records of exactly one run —
// possibly longer than the strict definition of "run" when a genuine
// boundary coincides with a buffer boundary, since Peek does not trigger
// disk I/O (see tape.ReadBuffer.Peek). This is a known, required
// deviation: the algorithm's correctness relies on the WriteBuffer's
// runs_written counter, computed from the actual record stream, being
// authoritative for termination — not on RunIterator detecting every
// genuine descent.
func New(rb *tape.ReadBuffer) *RunIterator {
	return &RunIterator{rb: rb}
}

// Next returns the next record of the current run, or ok=false once the
// run (or the underlying tape) is exhausted.
func (ri *RunIterator) Next() (record.Record, bool, error) {
	if ri.endOfRun {
		return record.Record{}, false, nil
	}
	r, ok, err := ri.rb.ReadNext()
	if err != nil {
		return record.Record{}, false, err
	}
	if !ok {
		return record.Record{}, false, nil
	}

	if s, sok := ri.rb.Peek(); sok && s.Less(r, true) {
		ri.endOfRun = true
	}
	return r, true, nil
}
