package system

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LockFileName is the singleton lock inside the system temp directory.
const LockFileName = "roboclone.lock"

// DefaultLockPath is where the instance lock lives unless told otherwise.
func DefaultLockPath() string {
	return filepath.Join(os.TempDir(), LockFileName)
}

// InstanceLock keeps a second RoboClone from mirroring on the same host.
type InstanceLock struct {
	path string
}

// AlreadyRunningError names the process holding the lock.
type AlreadyRunningError struct {
	PID  int
	Path string
}

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("another roboclone process is already running (PID: %d)", e.PID)
}

// AcquireLock checks for a live holder and writes the current PID to path.
// A lock left behind by a process that no longer exists is removed.
func AcquireLock(path string) (*InstanceLock, error) {
	if content, err := os.ReadFile(path); err == nil {
		pid, convErr := strconv.Atoi(strings.TrimSpace(string(content)))
		if convErr == nil && pid > 0 && pid != os.Getpid() && processAlive(pid) {
			return nil, &AlreadyRunningError{PID: pid, Path: path}
		}
		// Stale lock file, remove it
		os.Remove(path)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("instance lock %s was created concurrently", path)
		}
		return nil, fmt.Errorf("failed to create instance lock: %v", err)
	}
	defer f.Close()

	if _, err := f.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write instance lock: %v", err)
	}
	return &InstanceLock{path: path}, nil
}

// Path is the lock file location.
func (l *InstanceLock) Path() string {
	return l.path
}

// Release removes the lock file. It is safe to call more than once.
func (l *InstanceLock) Release() {
	if l != nil {
		os.Remove(l.path)
	}
}
