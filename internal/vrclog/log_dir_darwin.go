//go:build darwin

package vrclog

// CandidateLogDirs returns nothing on macOS: the VRChat client does not
// ship for the platform, so the parser runs in its degraded Unknown World
// mode unless a directory is configured explicitly.
func CandidateLogDirs() []string {
	return nil
}
