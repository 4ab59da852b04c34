//go:build linux

package vrclog

import (
	"os"
	"path/filepath"
)

// CandidateLogDirs lists the directories the VRChat client may write its
// output logs to, in probe order. On Linux the client runs under Proton,
// so the log directory lives inside Steam's compatdata prefix.
func CandidateLogDirs() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	suffix := filepath.Join("steamapps", "compatdata", "438100", "pfx",
		"drive_c", "users", "steamuser", "AppData", "LocalLow", "VRChat", "VRChat")
	return []string{
		filepath.Join(home, ".steam", "steam", suffix),
		filepath.Join(home, ".local", "share", "Steam", suffix),
	}
}
