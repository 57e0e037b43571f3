// Package generator is the out-of-core random-record generator: an
// external collaborator of the sort engine, not part of its core
// contract. Adapted from the teacher codebase's synthetic CSV generator
// (its cmd/benchmark, not part of this repository; see DESIGN.md), which
// wrote random rows through a bufio.Writer; this
// version writes random records through a tape.WriteBuffer instead.
package generator

import (
	"math/rand"

	"github.com/originalmk/tapesort/internal/record"
	"github.com/originalmk/tapesort/internal/tape"
)

// Write emits n random records through wb. Each record has 1..15 items,
// each item a value 0..255, drawn from rng.
func Write(wb *tape.WriteBuffer, n int, rng *rand.Rand) error {
	for i := 0; i < n; i++ {
		count := rng.Intn(record.MaxItems) + 1
		items := make([]byte, count)
		for j := range items {
			items[j] = byte(rng.Intn(256))
		}
		r, err := record.New(items)
		if err != nil {
			return err
		}
		if err := wb.WriteNext(r); err != nil {
			return err
		}
	}
	return nil
}
