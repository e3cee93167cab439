package robocopy

import "testing"

func TestMatcherExcluded(t *testing.T) {
	m := NewMatcher([]string{"*.TMP", "node_modules", `C:\src\cache`, "  ", "/srv/data/skip*"})

	tests := []struct {
		path string
		want bool
	}{
		{`C:\src\report.tmp`, true},
		{`C:\src\report.txt`, false},
		{`C:\src\web\Node_Modules`, true},
		{`C:\src\web\node_modules_backup`, false},
		{`C:\src\cache`, true},
		{`c:\SRC\Cache\`, true},
		{`C:\src\cache2`, false},
		{"/srv/data/skipped", true},
		{"/srv/data/keep", false},
	}

	for _, tt := range tests {
		if got := m.Excluded(tt.path); got != tt.want {
			t.Errorf("Excluded(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestMatcherEmpty(t *testing.T) {
	m := NewMatcher(nil)
	if !m.Empty() {
		t.Fatal("expected empty matcher")
	}
	if m.Excluded("/anything") {
		t.Error("empty matcher must not exclude")
	}
}

func TestMatcherBracketsAreLiteral(t *testing.T) {
	m := NewMatcher([]string{"[old]", "backup[1].zip", "[abc", "log]*"})

	tests := []struct {
		path string
		want bool
	}{
		{`C:\src\[old]`, true},
		{`C:\src\[OLD]\`, true},
		{`C:\src\o`, false},
		{`C:\src\d`, false},
		{"/src/backup[1].zip", true},
		{"/src/backup1.zip", false},
		{"/x/[abc", true},
		{"/x/a", false},
		{"/x/log]2024", true},
		{"/x/log2024", false},
	}
	for _, tt := range tests {
		if got := m.Excluded(tt.path); got != tt.want {
			t.Errorf("Excluded(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
