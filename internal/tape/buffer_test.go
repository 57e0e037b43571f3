package tape

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/originalmk/tapesort/internal/record"
)

func writeTape(t *testing.T, path string, recs []record.Record) {
	t.Helper()
	wb, err := OpenWriteBuffer(path, Truncate)
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

func singleton(t *testing.T, v byte) record.Record {
	t.Helper()
	r, err := record.New([]byte{v})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestReadBufferPeekDoesNotTriggerIO(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t")

	// Exactly BufferRecords+1 records: the boundary record's successor
	// lives in the next, not-yet-loaded buffer.
	recs := make([]record.Record, BufferRecords+1)
	for i := range recs {
		recs[i] = singleton(t, byte(i%250))
	}
	writeTape(t, path, recs)

	rb, err := OpenReadBuffer(path)
	if err != nil {
		t.Fatalf("OpenReadBuffer: %v", err)
	}
	defer rb.Close()

	for i := 0; i < BufferRecords-1; i++ {
		if _, _, err := rb.ReadNext(); err != nil {
			t.Fatalf("ReadNext: %v", err)
		}
	}
	// One record left in the buffer; peek should see it.
	if _, ok := rb.Peek(); !ok {
		t.Fatalf("expected peek to see the last record of the loaded buffer")
	}
	if _, _, err := rb.ReadNext(); err != nil {
		t.Fatalf("ReadNext: %v", err)
	}
	// Buffer now drained; more data remains on disk, but peek must not
	// trigger a refill to serve the successor.
	if _, ok := rb.Peek(); ok {
		t.Fatalf("expected peek to return false at a buffer boundary, even though disk bytes remain")
	}
	if !rb.HasMore() {
		t.Fatalf("HasMore should still be true: one record remains on disk")
	}
}

func TestReadBufferDiskReadCounting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t")

	// Exactly one full buffer: BufferRecords*FrameSize bytes.
	recs := make([]record.Record, BufferRecords)
	for i := range recs {
		recs[i] = singleton(t, byte(i))
	}
	writeTape(t, path, recs)

	rb, err := OpenReadBuffer(path)
	if err != nil {
		t.Fatalf("OpenReadBuffer: %v", err)
	}
	defer rb.Close()

	if rb.DiskReads() != 1 {
		t.Fatalf("expected 1 disk read after eager refill, got %d", rb.DiskReads())
	}
	for i := 0; i < BufferRecords; i++ {
		if _, _, err := rb.ReadNext(); err != nil {
			t.Fatalf("ReadNext: %v", err)
		}
	}
	if rb.HasMore() {
		t.Fatalf("HasMore should be false without an extra refill at an exact buffer boundary")
	}
	if rb.DiskReads() != 1 {
		t.Fatalf("expected still 1 disk read, got %d", rb.DiskReads())
	}
}

func TestWriteBufferRunsWrittenCountsFirstRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t")

	wb, err := OpenWriteBuffer(path, Truncate)
	if err != nil {
		t.Fatalf("OpenWriteBuffer: %v", err)
	}
	defer wb.Close()

	if err := wb.WriteNext(singleton(t, 1)); err != nil {
		t.Fatal(err)
	}
	if wb.RunsWritten() != 1 {
		t.Fatalf("first write should increment runs_written to 1, got %d", wb.RunsWritten())
	}
}

func TestReadBufferRejectsMalformedTape(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t")
	writeTape(t, path, nil)

	// Corrupt the tape to an unaligned size.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if _, err := OpenReadBuffer(path); err == nil {
		t.Fatalf("expected error opening a tape whose size is not a multiple of FrameSize")
	}
}
