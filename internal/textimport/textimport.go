// Package textimport is the out-of-core importer from a human-readable
// text file into tape records: an external collaborator of the sort
// engine, not part of its core contract. Each line holds one record as a
// comma-separated list of decimal byte values (e.g. "3,10,255").
package textimport

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/originalmk/tapesort/internal/record"
)

// Import reads path and constructs one record.Record per non-blank line,
// applying the same InvalidRecordInput validation the core applies at
// its boundary. A malformed line aborts the import, reported with its
// 1-based line number.
func Import(path string) ([]record.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("textimport: open %s: %w", path, err)
	}
	defer f.Close()

	var records []record.Record
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		items := make([]byte, 0, len(fields))
		for _, field := range fields {
			v, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %q is not an integer", record.ErrInvalidRecord, lineNo, field)
			}
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("%w: line %d: item value %d outside 0..255", record.ErrInvalidRecord, lineNo, v)
			}
			items = append(items, byte(v))
		}
		r, err := record.New(items)
		if err != nil {
			return nil, fmt.Errorf("textimport: line %d: %w", lineNo, err)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("textimport: scan %s: %w", path, err)
	}
	return records, nil
}

// Export writes recs to path, one comma-separated line per record, the
// inverse of Import.
func Export(path string, recs []record.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("textimport: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, r := range recs {
		items := r.Items()
		parts := make([]string, len(items))
		for i, v := range items {
			parts[i] = strconv.Itoa(int(v))
		}
		if _, err := fmt.Fprintln(w, strings.Join(parts, ",")); err != nil {
			return fmt.Errorf("textimport: write %s: %w", path, err)
		}
	}
	return w.Flush()
}
