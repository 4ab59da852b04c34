//go:build !windows

package fileops

import "os"

// openExclusive probes whether the producer has released the file. POSIX
// has no mandatory share modes, so a plain read-write open is the closest
// available signal.
func openExclusive(path string) error {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	return file.Close()
}
