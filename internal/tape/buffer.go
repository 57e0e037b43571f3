// Package tape implements the buffered record I/O layer that hides a tape
// file from the sort algorithm and meters disk accesses in whole-buffer
// units.
package tape

import (
	"fmt"
	"io"
	"os"

	"github.com/originalmk/tapesort/internal/record"
)

// BufferRecords is the number of records held in a ReadBuffer's or
// WriteBuffer's in-memory array: 32 records of record.FrameSize bytes
// each, 512 bytes total — the unit in which disk accesses are counted.
const BufferRecords = 32

// ReadBuffer is a forward-only, buffered reader over a tape file. It
// serves records one at a time with one-record peek and counts
// buffer-sized disk reads.
type ReadBuffer struct {
	f        *os.File
	fileSize int64
	pos      int64 // absolute file position of the next disk read

	buf     [BufferRecords]record.Record
	readIdx int
	loaded  int

	diskReads int
}

// OpenReadBuffer opens path, fixes its size at this moment, and performs
// one eager refill.
func OpenReadBuffer(path string) (*ReadBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tape: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("tape: stat %s: %w", path, err)
	}
	if info.Size()%record.FrameSize != 0 {
		f.Close()
		return nil, fmt.Errorf("%w: %s size %d not a multiple of %d", record.ErrMalformedTape, path, info.Size(), record.FrameSize)
	}
	if err := flockGuard(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("tape: lock %s: %w", path, err)
	}

	rb := &ReadBuffer{f: f, fileSize: info.Size()}
	if err := rb.refill(); err != nil {
		f.Close()
		return nil, err
	}
	return rb, nil
}

// refill reads min(BufferRecords*FrameSize, remaining) bytes in one disk
// operation and decodes them into the in-memory array.
func (rb *ReadBuffer) refill() error {
	want := int64(BufferRecords) * record.FrameSize
	remaining := rb.fileSize - rb.pos
	if remaining < want {
		want = remaining
	}
	if want == 0 {
		rb.loaded = 0
		rb.readIdx = 0
		return nil
	}
	if want%record.FrameSize != 0 {
		return fmt.Errorf("%w: refill size %d not a multiple of %d", record.ErrMalformedTape, want, record.FrameSize)
	}

	raw := make([]byte, want)
	if _, err := io.ReadFull(rb.f, raw); err != nil {
		return fmt.Errorf("tape: read: %w", err)
	}
	rb.pos += want
	rb.diskReads++

	count := int(want / record.FrameSize)
	for i := 0; i < count; i++ {
		var frame [record.FrameSize]byte
		copy(frame[:], raw[i*record.FrameSize:(i+1)*record.FrameSize])
		rec, err := record.Decode(frame)
		if err != nil {
			return err
		}
		rb.buf[i] = rec
	}
	rb.loaded = count
	rb.readIdx = 0
	return nil
}

// ReadNext returns the next record, or ok=false iff the stream is
// exhausted. When the in-memory array is drained and disk bytes remain,
// it refills before returning.
func (rb *ReadBuffer) ReadNext() (record.Record, bool, error) {
	if rb.readIdx == rb.loaded {
		if rb.pos >= rb.fileSize {
			return record.Record{}, false, nil
		}
		if err := rb.refill(); err != nil {
			return record.Record{}, false, err
		}
		if rb.loaded == 0 {
			return record.Record{}, false, nil
		}
	}
	rec := rb.buf[rb.readIdx]
	rb.readIdx++
	return rec, true, nil
}

// Peek returns the record the next ReadNext will yield, without
// advancing, or ok=false if the in-memory array is currently drained —
// even when disk bytes remain. Peek never triggers disk I/O; this is
// essential for RunIterator (see internal/runiter).
func (rb *ReadBuffer) Peek() (record.Record, bool) {
	if rb.readIdx == rb.loaded {
		return record.Record{}, false
	}
	return rb.buf[rb.readIdx], true
}

// HasMore reports whether unread bytes remain on disk or unread records
// remain in the memory buffer.
func (rb *ReadBuffer) HasMore() bool {
	return rb.pos < rb.fileSize || rb.readIdx < rb.loaded
}

// DiskReads returns the number of buffer-sized disk reads performed so far.
func (rb *ReadBuffer) DiskReads() int { return rb.diskReads }

// Close releases the file handle and its advisory lock.
func (rb *ReadBuffer) Close() error {
	_ = flockRelease(rb.f)
	return rb.f.Close()
}

// WriteMode selects whether a WriteBuffer truncates or appends to its
// target file.
type WriteMode int

const (
	// Truncate deletes any existing file at the path before first write.
	Truncate WriteMode = iota
	// Append preserves existing content.
	Append
)

// WriteBuffer is a forward-only, buffered writer. It flushes in
// buffer-sized chunks and counts disk writes and the number of runs
// appended.
type WriteBuffer struct {
	f    *os.File
	path string

	buf      [BufferRecords]record.Record
	writeIdx int

	lastWritten   record.Record
	haveLast      bool
	runsWritten   int
	diskWrites    int
}

// OpenWriteBuffer creates a WriteBuffer in the given mode.
func OpenWriteBuffer(path string, mode WriteMode) (*WriteBuffer, error) {
	if mode == Truncate {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("tape: remove %s: %w", path, err)
		}
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("tape: open %s: %w", path, err)
	}
	if err := flockGuard(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("tape: lock %s: %w", path, err)
	}
	return &WriteBuffer{f: f, path: path}, nil
}

// WriteNext appends rec to the buffer, flushing first if the buffer is
// full. A descent relative to the last written record (or, for the very
// first record, the implicit "rec < nil = true" comparison) increments
// runs_written.
func (wb *WriteBuffer) WriteNext(rec record.Record) error {
	if rec.Less(wb.lastWritten, wb.haveLast) {
		wb.runsWritten++
	}
	if wb.writeIdx == BufferRecords {
		if err := wb.Flush(); err != nil {
			return err
		}
	}
	wb.buf[wb.writeIdx] = rec
	wb.writeIdx++
	wb.lastWritten = rec
	wb.haveLast = true
	return nil
}

// Flush appends any pending records' encoded frames in one disk
// operation.
func (wb *WriteBuffer) Flush() error {
	if wb.writeIdx == 0 {
		return nil
	}
	raw := make([]byte, wb.writeIdx*record.FrameSize)
	for i := 0; i < wb.writeIdx; i++ {
		frame := wb.buf[i].Encode()
		copy(raw[i*record.FrameSize:(i+1)*record.FrameSize], frame[:])
	}
	if _, err := wb.f.Write(raw); err != nil {
		return fmt.Errorf("tape: write %s: %w", wb.path, err)
	}
	wb.diskWrites++
	wb.writeIdx = 0
	return nil
}

// RunsWritten returns the number of descents observed in the ingested
// stream, counting the first record as one, since the first write
// compares against nil (see WriteNext). After a full stream and Flush
// this equals the total number of runs on the output tape.
func (wb *WriteBuffer) RunsWritten() int { return wb.runsWritten }

// DiskWrites returns the number of buffer-sized disk writes performed so far.
func (wb *WriteBuffer) DiskWrites() int { return wb.diskWrites }

// Close flushes any pending records and releases the file handle and its
// advisory lock. Callers must Close (or Flush then Close) before the file
// may be reopened for reading.
func (wb *WriteBuffer) Close() error {
	if err := wb.Flush(); err != nil {
		_ = flockRelease(wb.f)
		wb.f.Close()
		return err
	}
	_ = flockRelease(wb.f)
	return wb.f.Close()
}
