//go:build !unix

package tape

import "os"

// flockGuard is a no-op on platforms without unix.Flock, matching this
// codebase's existing pattern of a generic fallback behind a build tag
// for platform-specific syscalls.
func flockGuard(f *os.File) error { return nil }

func flockRelease(f *os.File) error { return nil }
