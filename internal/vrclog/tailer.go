package vrclog

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// maxTailBytes bounds how much of a log file is parsed per cycle. The
// client's log grows without rotation during long sessions; everything
// relevant to the current instance lives near the end.
const maxTailBytes = 1024 * 1024

// ReadTail returns the last maxTailBytes of the file as lines. The file is
// opened read-only since the client keeps it open for writing. When the
// ceiling truncates the read, the first (possibly partial) line is
// discarded so no garbled record enters the detectors.
func ReadTail(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	truncated := false
	if info.Size() > maxTailBytes {
		if _, err := file.Seek(-maxTailBytes, io.SeekEnd); err != nil {
			return nil, err
		}
		truncated = true
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lines := []string{}
	first := true
	for scanner.Scan() {
		if first {
			first = false
			if truncated {
				continue
			}
		}
		line := strings.TrimRight(strings.TrimPrefix(scanner.Text(), "\ufeff"), "\r")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return lines, err
	}
	return lines, nil
}
