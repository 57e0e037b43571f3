//go:build unix

package tape

import (
	"os"

	"golang.org/x/sys/unix"
)

// flockGuard acquires a non-blocking advisory exclusive lock on the file.
// It guards a tape against a second process opening it mid-phase; it is
// not a concurrency primitive within this program (§5: single-threaded).
func flockGuard(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
}

func flockRelease(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
