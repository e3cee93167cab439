// Package drives provides volume and directory-tree measurements for backup pre-flight checks.
// This module defines the core types used throughout the drives package.
package drives

// VolumeInfo describes the mounted volume that holds a given path.
// Filled from gopsutil so the same code works on Windows drive letters and Unix mount points.
type VolumeInfo struct {
	MountPoint  string  // Mount point or drive root (e.g., "/mnt/backup", "D:")
	Device      string  // Backing device (e.g., "/dev/sdb1", "D:")
	Filesystem  string  // Filesystem type (e.g., "ext4", "NTFS")
	Total       int64   // Total capacity in bytes
	Free        int64   // Bytes available to the current user
	Used        int64   // Bytes in use
	UsedPercent float64 // Used space as a percentage of Total
}

// TreeSize is the result of measuring a directory tree.
type TreeSize struct {
	Bytes      int64 // Sum of file sizes that were not excluded
	Files      int   // Number of files counted
	Dirs       int   // Number of directories visited (root excluded)
	Excluded   int   // Files and directories skipped by the exclusion predicate
	Unreadable int   // Entries that could not be stat'ed (permission denied, etc.)
}
