package robocopy

import (
	"reflect"
	"testing"
)

func TestCommandArgs(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want []string
	}{
		{
			name: "mirror without exclusions",
			cmd:  Command{Source: `C:\src`, Target: `D:\dst`, Mirror: true},
			want: []string{`C:\src`, `D:\dst`, "/MIR", "/R:0", "/W:0", "/BYTES", "/FP", "/NDL", "/NJH"},
		},
		{
			name: "exclusions and dry run",
			cmd: Command{
				Source:   "/data",
				Target:   "/backup",
				Mirror:   true,
				ListOnly: true,
				Excludes: []string{"*.tmp", "node_modules"},
			},
			want: []string{
				"/data", "/backup", "/MIR",
				"/XF", "*.tmp", "/XD", "*.tmp",
				"/XF", "node_modules", "/XD", "node_modules",
				"/R:0", "/W:0", "/BYTES", "/FP", "/NDL", "/NJH", "/L",
			},
		},
		{
			name: "retries and threads",
			cmd:  Command{Source: "a", Target: "b", Retries: 3, RetryWait: 10, Threads: 8},
			want: []string{"a", "b", "/R:3", "/W:10", "/MT:8", "/BYTES", "/FP", "/NDL", "/NJH"},
		},
		{
			name: "negative retries clamp to zero",
			cmd:  Command{Source: "a", Target: "b", Retries: -2, RetryWait: -1, Threads: 1},
			want: []string{"a", "b", "/R:0", "/W:0", "/BYTES", "/FP", "/NDL", "/NJH"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cmd.Args(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Args() =\n  %q\nwant\n  %q", got, tt.want)
			}
		})
	}
}
