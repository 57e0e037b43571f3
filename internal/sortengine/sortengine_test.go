package sortengine

import (
	"path/filepath"
	"testing"

	"github.com/originalmk/tapesort/internal/record"
	"github.com/originalmk/tapesort/internal/tape"
)

func rec(t *testing.T, items ...byte) record.Record {
	t.Helper()
	r, err := record.New(items)
	if err != nil {
		t.Fatalf("record.New(%v): %v", items, err)
	}
	return r
}

func writeTape(t *testing.T, path string, recs []record.Record) {
	t.Helper()
	wb, err := tape.OpenWriteBuffer(path, tape.Truncate)
	if err != nil {
		t.Fatalf("OpenWriteBuffer: %v", err)
	}
	for _, r := range recs {
		if err := wb.WriteNext(r); err != nil {
			t.Fatalf("WriteNext: %v", err)
		}
	}
	if err := wb.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func readAll(t *testing.T, path string) []record.Record {
	t.Helper()
	rb, err := tape.OpenReadBuffer(path)
	if err != nil {
		t.Fatalf("OpenReadBuffer: %v", err)
	}
	defer rb.Close()

	var out []record.Record
	for {
		r, ok, err := rb.ReadNext()
		if err != nil {
			t.Fatalf("ReadNext: %v", err)
		}
		if !ok {
			break
		}
		out = append(out, r)
	}
	return out
}

func paths(t *testing.T) (primary, a, b string) {
	dir := t.TempDir()
	return filepath.Join(dir, "primary"), filepath.Join(dir, "a"), filepath.Join(dir, "b")
}

func assertSorted(t *testing.T, recs []record.Record) {
	t.Helper()
	for i := 1; i < len(recs); i++ {
		if recs[i].Less(recs[i-1], true) {
			t.Fatalf("adjacent pair (%d,%d) violates monotonicity: recs[%d] < recs[%d]", i-1, i, i, i-1)
		}
	}
}

// S1: {1},{2},{1},{3},{2,3} sorts in two phases.
func TestScenarioS1(t *testing.T) {
	primary, a, b := paths(t)
	writeTape(t, primary, []record.Record{
		rec(t, 1), rec(t, 2), rec(t, 1), rec(t, 3), rec(t, 2, 3),
	})

	info, err := Sort(primary, a, b, false)
	if err != nil {
		t.Fatalf("Sort: %v", err)
	}
	if info.Phases != 2 {
		t.Fatalf("expected 2 phases, got %d", info.Phases)
	}
	assertSorted(t, readAll(t, primary))
}

// S2: 100 already-ascending distinct singletons sort in one phase and
// are left byte-for-byte unchanged.
func TestScenarioS2AlreadySortedOnePhase(t *testing.T) {
	primary, a, b := paths(t)
	var recs []record.Record
	for i := 0; i < 100; i++ {
		recs = append(recs, rec(t, byte(i)))
	}
	writeTape(t, primary, recs)
	before := readAll(t, primary)

	info, err := Sort(primary, a, b, false)
	if err != nil {
		t.Fatalf("Sort: %v", err)
	}
	if info.Phases != 1 {
		t.Fatalf("expected 1 phase for an already-sorted tape, got %d", info.Phases)
	}

	after := readAll(t, primary)
	if len(after) != len(before) {
		t.Fatalf("record count changed: before %d after %d", len(before), len(after))
	}
	for i := range before {
		if before[i].Len() != after[i].Len() || string(before[i].Items()) != string(after[i].Items()) {
			t.Fatalf("record %d changed across an already-sorted sort", i)
		}
	}
}

// S3: 100 strictly descending singletons take ceil(log2(100)) == 7
// phases and end ascending.
func TestScenarioS3DescendingTakesLogPhases(t *testing.T) {
	primary, a, b := paths(t)
	var recs []record.Record
	for i := 99; i >= 0; i-- {
		recs = append(recs, rec(t, byte(i)))
	}
	writeTape(t, primary, recs)

	info, err := Sort(primary, a, b, false)
	if err != nil {
		t.Fatalf("Sort: %v", err)
	}
	if info.Phases != 7 {
		t.Fatalf("expected 7 phases, got %d", info.Phases)
	}
	assertSorted(t, readAll(t, primary))
}

// S4: {1,2,3} vs {2,3} — residual-empty case.
func TestScenarioS4(t *testing.T) {
	x := rec(t, 1, 2, 3)
	y := rec(t, 2, 3)
	if x.Less(y, true) {
		t.Fatalf("{1,2,3} < {2,3} should be false")
	}
	if !y.Less(x, true) {
		t.Fatalf("{2,3} < {1,2,3} should be true")
	}
}

// S5: {5} vs {3,4} — both residuals nonempty, compared by max.
func TestScenarioS5(t *testing.T) {
	x := rec(t, 5)
	y := rec(t, 3, 4)
	if !y.Less(x, true) {
		t.Fatalf("{3,4} < {5} should be true")
	}
	if x.Less(y, true) {
		t.Fatalf("{5} < {3,4} should be false")
	}
}

// S6: sorting an empty tape is a no-op returning SortInfo{}.
func TestScenarioS6EmptyTape(t *testing.T) {
	primary, a, b := paths(t)
	writeTape(t, primary, nil)

	info, err := Sort(primary, a, b, false)
	if err != nil {
		t.Fatalf("Sort: %v", err)
	}
	if info != (SortInfo{}) {
		t.Fatalf("expected zero SortInfo for an empty tape, got %+v", info)
	}
	if len(readAll(t, primary)) != 0 {
		t.Fatalf("expected empty tape to remain empty")
	}
}

// Idempotence (invariant 1): sorting an already-sorted tape performs
// exactly one phase whose merge emits one run, and record order is
// unchanged.
func TestIdempotence(t *testing.T) {
	primary, a, b := paths(t)
	var recs []record.Record
	for i := 0; i < 40; i++ {
		recs = append(recs, rec(t, byte(i)))
	}
	writeTape(t, primary, recs)

	if _, err := Sort(primary, a, b, false); err != nil {
		t.Fatalf("first Sort: %v", err)
	}
	info, err := Sort(primary, a, b, false)
	if err != nil {
		t.Fatalf("second Sort: %v", err)
	}
	if info.Phases != 1 {
		t.Fatalf("re-sorting a sorted tape should take 1 phase, got %d", info.Phases)
	}
}

// Record preservation (invariant 2): the multiset of records is
// unchanged by Sort.
func TestRecordPreservation(t *testing.T) {
	primary, a, b := paths(t)
	var recs []record.Record
	for i := 0; i < 50; i++ {
		recs = append(recs, rec(t, byte((i*37+5)%250)))
	}
	writeTape(t, primary, recs)

	before := map[string]int{}
	for _, r := range recs {
		before[string(r.Items())]++
	}

	if _, err := Sort(primary, a, b, false); err != nil {
		t.Fatalf("Sort: %v", err)
	}

	after := map[string]int{}
	for _, r := range readAll(t, primary) {
		after[string(r.Items())]++
	}

	if len(after) != len(before) {
		t.Fatalf("distinct key count changed: before %d after %d", len(before), len(after))
	}
	for k, v := range before {
		if after[k] != v {
			t.Fatalf("count for key %q changed: before %d after %d", k, v, after[k])
		}
	}
}

func TestCountRuns(t *testing.T) {
	primary, _, _ := paths(t)
	writeTape(t, primary, []record.Record{
		rec(t, 1), rec(t, 2), rec(t, 1), rec(t, 3), rec(t, 2, 3),
	})
	n, err := CountRuns(primary)
	if err != nil {
		t.Fatalf("CountRuns: %v", err)
	}
	// {1},{2} | {1},{3},{2,3}: the only descent is {1} after {2}.
	if n != 2 {
		t.Fatalf("expected 2 runs for S1's input, got %d", n)
	}
}

func TestIterateTape(t *testing.T) {
	primary, _, _ := paths(t)
	writeTape(t, primary, []record.Record{rec(t, 1), rec(t, 2), rec(t, 1)})

	it, err := IterateTape(primary)
	if err != nil {
		t.Fatalf("IterateTape: %v", err)
	}
	defer it.Close()

	var runIdx []int
	for {
		rr, ok, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		runIdx = append(runIdx, rr.RunIndex)
	}
	if len(runIdx) != 3 {
		t.Fatalf("expected 3 records, got %d", len(runIdx))
	}
	if runIdx[0] != 0 || runIdx[1] != 0 || runIdx[2] != 1 {
		t.Fatalf("expected run indices [0 0 1], got %v", runIdx)
	}
}

func TestVerboseApproxDistinctRecords(t *testing.T) {
	primary, a, b := paths(t)
	var recs []record.Record
	for i := 0; i < 64; i++ {
		recs = append(recs, rec(t, byte(i%20)))
	}
	writeTape(t, primary, recs)

	info, err := Sort(primary, a, b, true)
	if err != nil {
		t.Fatalf("Sort: %v", err)
	}
	if info.ApproxDistinctRecords == 0 {
		t.Fatalf("expected a nonzero approximate distinct count in verbose mode")
	}
}
