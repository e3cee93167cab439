// Package drives provides volume and directory-tree measurements for backup pre-flight checks.
// This module handles free-space queries and size string parsing.
package drives

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

// ParseDriveSize converts human-readable size strings to bytes.
// Supports standard units: B, K, M, G, T, P (case-insensitive).
// Examples: "1.5T" -> 1,649,267,441,664 bytes, "500G" -> 536,870,912,000 bytes
func ParseDriveSize(sizeStr string) (int64, error) {
	sizeStr = strings.TrimSpace(sizeStr)
	if len(sizeStr) < 2 {
		return 0, fmt.Errorf("invalid size string: %s", sizeStr)
	}

	// Get the unit (last character)
	unit := strings.ToUpper(sizeStr[len(sizeStr)-1:])
	numberStr := strings.TrimSpace(sizeStr[:len(sizeStr)-1])

	var number float64
	if _, err := fmt.Sscanf(numberStr, "%f", &number); err != nil {
		return 0, fmt.Errorf("invalid number in size: %s", numberStr)
	}

	var multiplier int64
	switch unit {
	case "B":
		multiplier = 1
	case "K":
		multiplier = 1024
	case "M":
		multiplier = 1024 * 1024
	case "G":
		multiplier = 1024 * 1024 * 1024
	case "T":
		multiplier = 1024 * 1024 * 1024 * 1024
	case "P":
		multiplier = 1024 * 1024 * 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unknown size unit: %s", unit)
	}

	return int64(number * float64(multiplier)), nil
}

// Probe answers free-space questions about the volume holding a path.
// The zero value is ready to use.
type Probe struct{}

// AvailableBytes returns the bytes available to the current user on the volume
// that contains path. Reserved blocks are not counted, matching what a copy can use.
func (Probe) AvailableBytes(path string) (int64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, fmt.Errorf("failed to get filesystem stats for %s: %v", path, err)
	}
	return int64(usage.Free), nil
}

// Volume returns capacity and identity details for the volume that contains path.
func (p Probe) Volume(path string) (VolumeInfo, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return VolumeInfo{}, fmt.Errorf("failed to get filesystem stats for %s: %v", path, err)
	}

	info := VolumeInfo{
		MountPoint:  usage.Path,
		Filesystem:  usage.Fstype,
		Total:       int64(usage.Total),
		Free:        int64(usage.Free),
		Used:        int64(usage.Used),
		UsedPercent: usage.UsedPercent,
	}

	// Device and canonical mount point come from the partition table.
	// A lookup failure leaves them as reported by the usage call.
	if part, ok := findPartition(path); ok {
		info.MountPoint = part.Mountpoint
		info.Device = part.Device
		if info.Filesystem == "" {
			info.Filesystem = part.Fstype
		}
	}

	return info, nil
}

// Shortfall returns how many bytes are missing to fit required into available.
// Zero means the data fits.
func Shortfall(required, available int64) int64 {
	if required <= available {
		return 0
	}
	return required - available
}

// FormatDeficit renders a shortfall the way the backup form reports it.
// Example: FormatDeficit(3*1024*1024*1024) -> "roughly 3.0 GB"
func FormatDeficit(missing int64) string {
	return fmt.Sprintf("roughly %.1f GB", float64(missing)/(1024*1024*1024))
}
