//go:build windows

package system

import "golang.org/x/sys/windows"

// Elevated reports whether the process token is elevated (run as administrator).
func Elevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}

const stillActive = 259

func processAlive(pid int) bool {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	defer windows.CloseHandle(h)

	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return false
	}
	return code == stillActive
}
