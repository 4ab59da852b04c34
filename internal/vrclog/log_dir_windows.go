//go:build windows

package vrclog

import (
	"os"
	"path/filepath"
)

// CandidateLogDirs lists the directories the VRChat client may write its
// output logs to, in probe order.
func CandidateLogDirs() []string {
	dirs := []string{}
	if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
		dirs = append(dirs, filepath.Join(localAppData+"Low", "VRChat", "VRChat"))
	}
	if appData := os.Getenv("APPDATA"); appData != "" {
		dirs = append(dirs, filepath.Join(appData, "..", "LocalLow", "VRChat", "VRChat"))
	}
	return dirs
}
