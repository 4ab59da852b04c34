package vrclog

import (
	"os"
	"path/filepath"
)

// Log filename patterns the client has used across versions.
var logFilePatterns = []string{"output_log_*.txt", "VRChat-*.log"}

// ResolveLogDir probes the candidate directories and returns the first
// that exists. The override, when non-empty, wins if it exists.
func ResolveLogDir(override string) (string, bool) {
	candidates := CandidateLogDirs()
	if override != "" {
		candidates = append([]string{override}, candidates...)
	}
	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, true
		}
	}
	return "", false
}

// FindLatestLog returns the most recently modified log file in dir across
// all accepted filename patterns.
func FindLatestLog(dir string) (string, bool) {
	var (
		latest    string
		latestMod int64
	)
	for _, pattern := range logFilePatterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || info.IsDir() {
				continue
			}
			if mod := info.ModTime().UnixNano(); latest == "" || mod > latestMod {
				latest = match
				latestMod = mod
			}
		}
	}
	return latest, latest != ""
}
