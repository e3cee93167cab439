package robocopy

import (
	"strconv"
)

// DefaultTool is the executable name looked up on PATH.
const DefaultTool = "robocopy"

// Switches understood by the tool.
const (
	SwitchMirror   = "/MIR"
	SwitchListOnly = "/L"
	SwitchExcFile  = "/XF"
	SwitchExcDir   = "/XD"
	SwitchBytes    = "/BYTES"
	SwitchFullPath = "/FP"
	SwitchNoDirs   = "/NDL"
	SwitchNoHeader = "/NJH"
)

// Command describes one invocation of the tool.
type Command struct {
	Source    string
	Target    string
	Mirror    bool     // /MIR: copy the tree and delete extras in the target
	ListOnly  bool     // /L: report what would happen without touching anything
	Excludes  []string // each pattern is passed to both /XF and /XD
	Retries   int      // /R:n
	RetryWait int      // /W:n, seconds
	Threads   int      // /MT:n when greater than 1
}

// Args renders the command line, source and target first.
// The logging switches are always present: raw byte sizes and full paths keep every
// per-file line parseable, directory lines and the job header are noise for progress.
// The job summary is kept because it carries the final counts.
func (c Command) Args() []string {
	args := []string{c.Source, c.Target}

	if c.Mirror {
		args = append(args, SwitchMirror)
	}

	for _, pattern := range c.Excludes {
		args = append(args, SwitchExcFile, pattern, SwitchExcDir, pattern)
	}

	args = append(args,
		"/R:"+strconv.Itoa(max(c.Retries, 0)),
		"/W:"+strconv.Itoa(max(c.RetryWait, 0)),
	)

	if c.Threads > 1 {
		args = append(args, "/MT:"+strconv.Itoa(c.Threads))
	}

	args = append(args, SwitchBytes, SwitchFullPath, SwitchNoDirs, SwitchNoHeader)

	if c.ListOnly {
		args = append(args, SwitchListOnly)
	}

	return args
}
