package sortengine

import (
	"github.com/originalmk/tapesort/internal/runiter"
	"github.com/originalmk/tapesort/internal/tape"
)

// mergeResult aggregates one merge call's I/O cost. runs is the
// authoritative post-merge run count the sort driver tests for
// termination.
type mergeResult struct {
	reads  int
	writes int
	runs   int
}

// merge pairwise-merges runs from sourceA and sourceB into destPath
// (truncated), reducing run count.
func merge(sourceAPath, sourceBPath, destPath string) (mergeResult, error) {
	srcA, err := tape.OpenReadBuffer(sourceAPath)
	if err != nil {
		return mergeResult{}, err
	}
	defer srcA.Close()
	srcB, err := tape.OpenReadBuffer(sourceBPath)
	if err != nil {
		return mergeResult{}, err
	}
	defer srcB.Close()

	dest, err := tape.OpenWriteBuffer(destPath, tape.Truncate)
	if err != nil {
		return mergeResult{}, err
	}
	defer dest.Close()

	for srcA.HasMore() && srcB.HasMore() {
		if err := mergeRuns(runiter.New(srcA), runiter.New(srcB), dest); err != nil {
			return mergeResult{}, err
		}
	}

	// One source may still have whole extra runs; drain it directly
	// (not per-run) into the destination.
	remaining := srcA
	if srcB.HasMore() {
		remaining = srcB
	}
	for remaining.HasMore() {
		r, ok, err := remaining.ReadNext()
		if err != nil {
			return mergeResult{}, err
		}
		if !ok {
			break
		}
		if err := dest.WriteNext(r); err != nil {
			return mergeResult{}, err
		}
	}

	if err := dest.Flush(); err != nil {
		return mergeResult{}, err
	}
	return mergeResult{
		reads:  srcA.DiskReads() + srcB.DiskReads(),
		writes: dest.DiskWrites(),
		runs:   dest.RunsWritten(),
	}, nil
}

// mergeRuns merges one run from each iterator into dest. Ties (neither
// side strictly less) go to B: when a < b is false, b is emitted,
// including when a and b are merge-equivalent.
func mergeRuns(iterA, iterB *runiter.RunIterator, dest *tape.WriteBuffer) error {
	a, aok, err := iterA.Next()
	if err != nil {
		return err
	}
	b, bok, err := iterB.Next()
	if err != nil {
		return err
	}

	for aok && bok {
		if a.Less(b, true) {
			if err := dest.WriteNext(a); err != nil {
				return err
			}
			a, aok, err = iterA.Next()
		} else {
			if err := dest.WriteNext(b); err != nil {
				return err
			}
			b, bok, err = iterB.Next()
		}
		if err != nil {
			return err
		}
	}

	for aok {
		if err := dest.WriteNext(a); err != nil {
			return err
		}
		a, aok, err = iterA.Next()
		if err != nil {
			return err
		}
	}
	for bok {
		if err := dest.WriteNext(b); err != nil {
			return err
		}
		b, bok, err = iterB.Next()
		if err != nil {
			return err
		}
	}
	return nil
}
