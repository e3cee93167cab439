// Package drives provides volume and directory-tree measurements for backup pre-flight checks.
// This module contains utility functions used across the drives package.
package drives

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
)

// FormatBytes formats byte counts into human-readable size with proper units and formatting.
// Provides clean output with appropriate decimal places for different size ranges.
//
// Examples:
//
//	FormatBytes(1024) -> "1.0 KB"
//	FormatBytes(1536) -> "1.5 KB"
//	FormatBytes(1048576) -> "1.0 MB"
//	FormatBytes(1073741824) -> "1.0 GB"
//	FormatBytes(999) -> "999 B"
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
		PB = TB * 1024
	)

	if bytes < 0 {
		return "-" + FormatBytes(-bytes)
	}

	if bytes < KB {
		return fmt.Sprintf("%d B", bytes)
	} else if bytes < MB {
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	} else if bytes < GB {
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	} else if bytes < TB {
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	} else if bytes < PB {
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	} else {
		return fmt.Sprintf("%.1f PB", float64(bytes)/PB)
	}
}

// MeasureTree walks root and sums the sizes of every file the exclude predicate keeps.
// An excluded directory is pruned together with everything below it. The root itself is
// never tested against the predicate.
//
// Unreadable entries are counted and skipped rather than aborting the walk, the same way
// the copy tool carries on past files it cannot open. Only a missing root or a cancelled
// context stops the walk with an error.
func MeasureTree(ctx context.Context, root string, exclude func(path string) bool) (TreeSize, error) {
	var size TreeSize

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if path == root && d == nil {
				return err
			}
			// Skip errors (permission denied, etc.) but continue
			size.Unreadable++
			return nil
		}

		if path == root {
			return nil
		}

		if exclude != nil && exclude(path) {
			size.Excluded++
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			size.Dirs++
			return nil
		}

		info, err := d.Info()
		if err != nil {
			size.Unreadable++
			return nil
		}

		size.Files++
		size.Bytes += info.Size()
		return nil
	})

	return size, err
}
