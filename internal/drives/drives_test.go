package drives

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/shirou/gopsutil/v3/disk"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{999, "999 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
		{-2048, "-2.0 KB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseDriveSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"500G", 500 * 1024 * 1024 * 1024, false},
		{"1.5m", 1572864, false},
		{"256 k", 262144, false},
		{"12B", 12, false},
		{"7", 0, true},
		{"10X", 0, true},
		{"abcM", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDriveSize(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDriveSize(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseDriveSize(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestShortfall(t *testing.T) {
	if got := Shortfall(500, 400); got != 100 {
		t.Errorf("Shortfall(500, 400) = %d, want 100", got)
	}
	if got := Shortfall(400, 500); got != 0 {
		t.Errorf("Shortfall(400, 500) = %d, want 0", got)
	}
	if got := FormatDeficit(3 * 1024 * 1024 * 1024); got != "roughly 3.0 GB" {
		t.Errorf("FormatDeficit = %q", got)
	}
}

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestMeasureTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), 100)
	writeFile(t, filepath.Join(root, "b.tmp"), 50)
	writeFile(t, filepath.Join(root, "docs", "c.txt"), 200)
	writeFile(t, filepath.Join(root, "cache", "d.bin"), 1000)
	writeFile(t, filepath.Join(root, "cache", "deep", "e.bin"), 1000)

	exclude := func(path string) bool {
		base := filepath.Base(path)
		return base == "cache" || strings.HasSuffix(base, ".tmp")
	}

	size, err := MeasureTree(context.Background(), root, exclude)
	if err != nil {
		t.Fatalf("MeasureTree: %v", err)
	}
	if size.Bytes != 300 {
		t.Errorf("Bytes = %d, want 300", size.Bytes)
	}
	if size.Files != 2 {
		t.Errorf("Files = %d, want 2", size.Files)
	}
	if size.Dirs != 1 {
		t.Errorf("Dirs = %d, want 1", size.Dirs)
	}
	if size.Excluded != 2 {
		t.Errorf("Excluded = %d, want 2", size.Excluded)
	}

	all, err := MeasureTree(context.Background(), root, nil)
	if err != nil {
		t.Fatalf("MeasureTree without predicate: %v", err)
	}
	if all.Bytes != 2350 || all.Files != 5 {
		t.Errorf("unfiltered = %+v, want 2350 bytes in 5 files", all)
	}
}

func TestMeasureTreeMissingRoot(t *testing.T) {
	_, err := MeasureTree(context.Background(), filepath.Join(t.TempDir(), "nope"), nil)
	if err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestMeasureTreeCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := MeasureTree(ctx, root, nil); err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestLongestMountMatch(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix mount layout")
	}
	parts := []disk.PartitionStat{
		{Mountpoint: "/", Device: "/dev/sda1"},
		{Mountpoint: "/mnt", Device: "/dev/sdb1"},
		{Mountpoint: "/mnt/backup", Device: "/dev/sdc1"},
	}

	tests := []struct {
		path   string
		device string
	}{
		{"/home/user", "/dev/sda1"},
		{"/mnt/other", "/dev/sdb1"},
		{"/mnt/backup", "/dev/sdc1"},
		{"/mnt/backup/2024", "/dev/sdc1"},
		{"/mnt/backupextra", "/dev/sdb1"},
	}
	for _, tt := range tests {
		got, ok := longestMountMatch(tt.path, parts)
		if !ok || got.Device != tt.device {
			t.Errorf("longestMountMatch(%q) = %q, %v; want %q", tt.path, got.Device, ok, tt.device)
		}
	}
}

func TestProbeAvailableBytes(t *testing.T) {
	if _, err := (Probe{}).AvailableBytes(t.TempDir()); err != nil {
		t.Fatalf("AvailableBytes: %v", err)
	}
	if _, err := (Probe{}).AvailableBytes(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing path")
	}
}
