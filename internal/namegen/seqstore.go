package namegen

import (
	"os"
	"strconv"
	"sync"
)

// SeqStore hands out collision-free sequence numbers scoped by grouping
// key. State is per-process: the first request for a key scans the
// destination folder and continues above the highest number already on
// disk, so restarts never reissue a taken number. All access is serialized
// through one mutex.
type SeqStore struct {
	mu       sync.Mutex
	counters map[string]int
}

func NewSeqStore() *SeqStore {
	return &SeqStore{counters: map[string]int{}}
}

// Next returns the next sequence number for the grouping key. destDir,
// template and extension describe where already-numbered files would live,
// for the first-call disk scan; an unreadable or missing folder starts the
// counter at 1.
func (s *SeqStore) Next(groupKey string, destDir string, template string, extension string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.counters[groupKey]; ok {
		s.counters[groupKey] = current + 1
		return current + 1
	}

	next := highestOnDisk(destDir, template, extension) + 1
	s.counters[groupKey] = next
	return next
}

// Reset drops all cached counters. The next request per key re-scans disk.
func (s *SeqStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters = map[string]int{}
}

func highestOnDisk(destDir string, template string, extension string) int {
	pattern, ok := templatePattern(template, extension)
	if !ok {
		return 0
	}
	entries, err := os.ReadDir(destDir)
	if err != nil {
		return 0
	}

	highest := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := pattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		value, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if value > highest {
			highest = value
		}
	}
	return highest
}
