package sortengine

import (
	"github.com/originalmk/tapesort/internal/record"
	"github.com/originalmk/tapesort/internal/record/approx"
	"github.com/originalmk/tapesort/internal/tape"
)

// distributeResult aggregates one Distribute call's I/O cost.
type distributeResult struct {
	reads  int
	writes int
	runs   int // sum of runs_written across both destinations
}

// distribute splits sourcePath into two tapes by run, toggling
// destination at every run boundary. Both destinations are opened in
// truncate mode. If filter is non-nil, every record read is also added
// to it (verbose-mode approximate-distinct-record tracking; see
// internal/record/approx).
func distribute(sourcePath, destAPath, destBPath string, filter *approx.Filter) (distributeResult, error) {
	src, err := tape.OpenReadBuffer(sourcePath)
	if err != nil {
		return distributeResult{}, err
	}
	defer src.Close()

	a, err := tape.OpenWriteBuffer(destAPath, tape.Truncate)
	if err != nil {
		return distributeResult{}, err
	}
	defer a.Close()
	b, err := tape.OpenWriteBuffer(destBPath, tape.Truncate)
	if err != nil {
		return distributeResult{}, err
	}
	defer b.Close()

	first, ok, err := src.ReadNext()
	if err != nil {
		return distributeResult{}, err
	}
	if !ok {
		// Empty source: nothing to distribute.
		return finishDistribute(src, a, b)
	}
	addToFilter(filter, first)
	if err := a.WriteNext(first); err != nil {
		return distributeResult{}, err
	}
	last := first
	dest := a
	other := b

	for {
		r, ok, err := src.ReadNext()
		if err != nil {
			return distributeResult{}, err
		}
		if !ok {
			break
		}
		addToFilter(filter, r)
		if r.Less(last, true) {
			dest, other = other, dest
		}
		if err := dest.WriteNext(r); err != nil {
			return distributeResult{}, err
		}
		last = r
	}

	return finishDistribute(src, a, b)
}

func finishDistribute(src *tape.ReadBuffer, a, b *tape.WriteBuffer) (distributeResult, error) {
	if err := a.Flush(); err != nil {
		return distributeResult{}, err
	}
	if err := b.Flush(); err != nil {
		return distributeResult{}, err
	}
	return distributeResult{
		reads:  src.DiskReads(),
		writes: a.DiskWrites() + b.DiskWrites(),
		runs:   a.RunsWritten() + b.RunsWritten(),
	}, nil
}

func addToFilter(filter *approx.Filter, r record.Record) {
	if filter == nil {
		return
	}
	frame := r.Encode()
	filter.Add(frame[:])
}
