// Package sortengine implements the two-phase distribute/merge driver
// that sorts a tape via natural merge sort, converging to a single run.
package sortengine

import (
	"fmt"
	"os"

	"github.com/originalmk/tapesort/internal/record"
	"github.com/originalmk/tapesort/internal/record/approx"
	"github.com/originalmk/tapesort/internal/runiter"
	"github.com/originalmk/tapesort/internal/tape"
)

// SortInfo reports the I/O cost of a completed sort: buffer-sized disk
// reads, buffer-sized disk writes, and the number of distribute+merge
// phases run. ApproxDistinctRecords is populated only when Sort was
// called with verbose=true; it is a reporting aid and has no bearing on
// correctness.
type SortInfo struct {
	Reads                 int
	Writes                int
	Phases                int
	ApproxDistinctRecords int
}

// Sort sorts the tape at primary in place, using scratchA and scratchB
// as the two working tapes. It alternates distribute and merge phases
// until a single run remains.
//
// Sorting a zero-record tape is a no-op: it returns SortInfo{} and
// leaves the file untouched.
func Sort(primary, scratchA, scratchB string, verbose bool) (SortInfo, error) {
	info, err := os.Stat(primary)
	if err != nil {
		return SortInfo{}, fmt.Errorf("sortengine: stat %s: %w", primary, err)
	}
	if info.Size() == 0 {
		return SortInfo{}, nil
	}
	if info.Size()%record.FrameSize != 0 {
		return SortInfo{}, fmt.Errorf("%w: %s size %d not a multiple of %d", record.ErrMalformedTape, primary, info.Size(), record.FrameSize)
	}

	var filter *approx.Filter
	if verbose {
		n := int(info.Size() / record.FrameSize)
		filter = approx.New(n, 0.01)
	}

	var result SortInfo
	for {
		d, err := distribute(primary, scratchA, scratchB, filter)
		if err != nil {
			return SortInfo{}, fmt.Errorf("sortengine: distribute: %w", err)
		}
		m, err := merge(scratchA, scratchB, primary)
		if err != nil {
			return SortInfo{}, fmt.Errorf("sortengine: merge: %w", err)
		}

		result.Reads += d.reads + m.reads
		result.Writes += d.writes + m.writes
		result.Phases++

		if m.runs == 1 {
			break
		}
	}

	if verbose {
		result.ApproxDistinctRecords = filter.EstimateDistinct()
	}
	return result, nil
}

// CountRuns counts the number of runs on the tape at path, as seen by
// runiter.RunIterator, without modifying it. A descent that falls exactly
// on a buffer boundary is not seen (see runiter.New), so the count can be
// lower than the number of natural runs.
func CountRuns(path string) (int, error) {
	rb, err := tape.OpenReadBuffer(path)
	if err != nil {
		return 0, err
	}
	defer rb.Close()

	count := 0
	for rb.HasMore() {
		ri := runiter.New(rb)
		for {
			_, ok, err := ri.Next()
			if err != nil {
				return 0, err
			}
			if !ok {
				break
			}
		}
		count++
	}
	return count, nil
}

// RunRecord pairs a record with the index of the run it belongs to, as
// yielded by IterateTape.
type RunRecord struct {
	RunIndex int
	Record   record.Record
}

// TapeIterator lazily walks a tape's records grouped by run, without
// modifying it.
type TapeIterator struct {
	rb     *tape.ReadBuffer
	runIdx int
	cur    *runiter.RunIterator
}

// IterateTape opens path for a single forward pass over its runs.
func IterateTape(path string) (*TapeIterator, error) {
	rb, err := tape.OpenReadBuffer(path)
	if err != nil {
		return nil, err
	}
	return &TapeIterator{rb: rb, runIdx: -1}, nil
}

// Next returns the next (run_index, record) pair, or ok=false once the
// tape is exhausted.
func (it *TapeIterator) Next() (RunRecord, bool, error) {
	for {
		if it.cur != nil {
			r, ok, err := it.cur.Next()
			if err != nil {
				return RunRecord{}, false, err
			}
			if ok {
				return RunRecord{RunIndex: it.runIdx, Record: r}, true, nil
			}
			it.cur = nil
		}
		if !it.rb.HasMore() {
			return RunRecord{}, false, nil
		}
		it.runIdx++
		it.cur = runiter.New(it.rb)
	}
}

// Close releases the underlying tape handle.
func (it *TapeIterator) Close() error {
	return it.rb.Close()
}
