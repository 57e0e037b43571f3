// Package histogram counts item-byte occurrences across a tape, a
// diagnostic adapted from this codebase's SIMD delimiter scanner: the
// teacher counted one separator byte across a CSV buffer, here the same
// count-occurrences-of-byte-values shape is applied across all 256
// possible item values instead of three fixed CSV delimiters.
//
// The teacher's AMD64 path dispatched to hand-written SIMD routines
// declared via //go:noescape against a .s file that was not part of the
// retrieved sources, so only its portable scalar counting loop could be
// carried forward here; see DESIGN.md.
package histogram

import (
	"fmt"

	"github.com/originalmk/tapesort/internal/tape"
)

// Count opens the tape at path and returns, for each byte value 0..255,
// how many times it appears across every record's items.
func Count(path string) ([256]int, error) {
	var counts [256]int

	rb, err := tape.OpenReadBuffer(path)
	if err != nil {
		return counts, fmt.Errorf("histogram: %w", err)
	}
	defer rb.Close()

	for {
		rec, ok, err := rb.ReadNext()
		if err != nil {
			return counts, fmt.Errorf("histogram: %w", err)
		}
		if !ok {
			return counts, nil
		}
		countItems(rec.Items(), &counts)
	}
}

// countItems is the scalar counting loop, grounded on the teacher's
// scanSeparatorsGeneric fallback.
func countItems(items []byte, counts *[256]int) {
	for _, b := range items {
		counts[b]++
	}
}
