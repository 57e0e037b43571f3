// Package runlog persists the metrics of the last sort performed on a
// tape as a JSON sidecar, purely for observational use by callers (the
// CLI's stats subcommand). It is never read back into the sort algorithm.
package runlog

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Entry records one completed sort's metrics.
type Entry struct {
	Reads                 int       `json:"reads"`
	Writes                int       `json:"writes"`
	Phases                int       `json:"phases"`
	ApproxDistinctRecords int       `json:"approxDistinctRecords,omitempty"`
	FinishedAt            time.Time `json:"finishedAt"`
}

func sidecarPath(tapePath string) string {
	return tapePath + ".runlog.json"
}

// Save writes entry to the sidecar for tapePath, overwriting any prior
// entry.
func Save(tapePath string, entry Entry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("runlog: marshal: %w", err)
	}
	if err := os.WriteFile(sidecarPath(tapePath), data, 0644); err != nil {
		return fmt.Errorf("runlog: write %s: %w", sidecarPath(tapePath), err)
	}
	return nil
}

// Load reads the sidecar for tapePath. It reports ok=false, with no
// error, if no sidecar exists yet.
func Load(tapePath string) (Entry, bool, error) {
	data, err := os.ReadFile(sidecarPath(tapePath))
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("runlog: read %s: %w", sidecarPath(tapePath), err)
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, false, fmt.Errorf("runlog: parse %s: %w", sidecarPath(tapePath), err)
	}
	return entry, true, nil
}
