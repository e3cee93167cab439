// Package drives provides volume and directory-tree measurements for backup pre-flight checks.
// This module resolves which mounted partition holds a path.
package drives

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

// findPartition returns the mounted partition with the longest mount point that
// prefixes path. Windows mount points are drive letters, compared case-insensitively.
func findPartition(path string) (disk.PartitionStat, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return disk.PartitionStat{}, false
	}

	parts, err := disk.Partitions(false)
	if err != nil {
		return disk.PartitionStat{}, false
	}

	return longestMountMatch(abs, parts)
}

// longestMountMatch is split out from findPartition so the selection can be tested
// without a real partition table.
func longestMountMatch(path string, parts []disk.PartitionStat) (disk.PartitionStat, bool) {
	var best disk.PartitionStat
	found := false

	for _, part := range parts {
		if !underMount(path, part.Mountpoint) {
			continue
		}
		if !found || len(part.Mountpoint) > len(best.Mountpoint) {
			best = part
			found = true
		}
	}
	return best, found
}

func underMount(path, mount string) bool {
	if mount == "" {
		return false
	}
	if runtime.GOOS == "windows" {
		path, mount = strings.ToLower(path), strings.ToLower(mount)
	}
	if path == mount {
		return true
	}
	prefix := strings.TrimSuffix(mount, string(filepath.Separator)) + string(filepath.Separator)
	return strings.HasPrefix(path, prefix)
}
