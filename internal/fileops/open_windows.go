//go:build windows

package fileops

import "golang.org/x/sys/windows"

// openExclusive opens the file with no sharing allowed, so the probe
// fails while the game client still holds any handle on it. Go's own
// OpenFile always grants FILE_SHARE_READ|FILE_SHARE_WRITE, which would
// let a still-writing producer pass.
func openExclusive(path string) error {
	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	handle, err := windows.CreateFile(name,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		0,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0)
	if err != nil {
		return err
	}
	return windows.CloseHandle(handle)
}
