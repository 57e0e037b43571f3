// Package archive wraps a tape in a single LZ4-framed file for moving a
// sorted tape out of the scratch directory. It is an external
// collaborator of the sort engine — never used by the sort algorithm
// itself — adapted from the teacher codebase's LZ4-compressed index chunk
// writer/reader (its internal/indexer Sorter, not part of this
// repository; see DESIGN.md), here applied to whole-tape
// archival rather than block-indexed random access, since a tape has no
// sparse-index use case.
package archive

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pierrec/lz4/v4"

	"github.com/originalmk/tapesort/internal/record"
)

// header is a small JSON preamble written before the LZ4 stream,
// identifying the archive's origin.
type header struct {
	SourcePath  string    `json:"sourcePath"`
	RecordCount int64     `json:"recordCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

const headerLenFieldSize = 4

// Export compresses the tape at tapePath into archivePath.
func Export(tapePath, archivePath string, createdAt time.Time) error {
	in, err := os.Open(tapePath)
	if err != nil {
		return fmt.Errorf("archive: open %s: %w", tapePath, err)
	}
	defer in.Close()

	stat, err := in.Stat()
	if err != nil {
		return fmt.Errorf("archive: stat %s: %w", tapePath, err)
	}
	if stat.Size()%record.FrameSize != 0 {
		return fmt.Errorf("%w: %s size %d not a multiple of %d", record.ErrMalformedTape, tapePath, stat.Size(), record.FrameSize)
	}

	out, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("archive: create %s: %w", archivePath, err)
	}
	defer out.Close()

	hdr := header{
		SourcePath:  tapePath,
		RecordCount: stat.Size() / record.FrameSize,
		CreatedAt:   createdAt,
	}
	hdrBytes, err := json.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("archive: marshal header: %w", err)
	}
	if err := writeHeader(out, hdrBytes); err != nil {
		return err
	}

	lzw := lz4.NewWriter(out)
	bw := bufio.NewWriterSize(lzw, 64*1024)
	if _, err := io.Copy(bw, in); err != nil {
		return fmt.Errorf("archive: compress %s: %w", tapePath, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("archive: flush: %w", err)
	}
	if err := lzw.Close(); err != nil {
		return fmt.Errorf("archive: close lz4 stream: %w", err)
	}
	return nil
}

// Import decompresses archivePath into a fresh tape at tapePath,
// returning the header's metadata.
func Import(archivePath, tapePath string) (SourcePath string, RecordCount int64, err error) {
	in, err := os.Open(archivePath)
	if err != nil {
		return "", 0, fmt.Errorf("archive: open %s: %w", archivePath, err)
	}
	defer in.Close()

	hdrBytes, err := readHeader(in)
	if err != nil {
		return "", 0, err
	}
	var hdr header
	if err := json.Unmarshal(hdrBytes, &hdr); err != nil {
		return "", 0, fmt.Errorf("archive: parse header: %w", err)
	}

	out, err := os.Create(tapePath)
	if err != nil {
		return "", 0, fmt.Errorf("archive: create %s: %w", tapePath, err)
	}
	defer out.Close()

	lzr := lz4.NewReader(in)
	if _, err := io.Copy(out, lzr); err != nil {
		return "", 0, fmt.Errorf("archive: decompress %s: %w", archivePath, err)
	}
	return hdr.SourcePath, hdr.RecordCount, nil
}

func writeHeader(w io.Writer, hdrBytes []byte) error {
	var lenBuf [headerLenFieldSize]byte
	putUint32(lenBuf[:], uint32(len(hdrBytes)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("archive: write header length: %w", err)
	}
	if _, err := w.Write(hdrBytes); err != nil {
		return fmt.Errorf("archive: write header: %w", err)
	}
	return nil
}

func readHeader(r io.Reader) ([]byte, error) {
	var lenBuf [headerLenFieldSize]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("archive: read header length: %w", err)
	}
	n := getUint32(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("archive: read header: %w", err)
	}
	return buf, nil
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func getUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
