package engine

import (
	"fmt"
	"strings"
	"time"

	"roboclone/internal/robocopy"
)

// CopyRequest is one user-initiated backup: what to copy, where, and how.
type CopyRequest struct {
	Source     string
	Target     string
	Exclusions []string // file or directory patterns, see NormalizeExclusions
	DryRun     bool     // list what would change without copying anything
}

func (r CopyRequest) clone() CopyRequest {
	r.Exclusions = append([]string(nil), r.Exclusions...)
	return r
}

// FreeSpaceReport is the outcome of the pre-flight space check.
type FreeSpaceReport struct {
	RequiredBytes   int64 // bytes of source files that survive the exclusions
	AvailableBytes  int64 // free bytes on the target volume
	Sufficient      bool
	FilesDiscovered int  // files that survive the exclusions
	Verified        bool // false when the target volume could not be queried
}

// LogLine is one line of tool output.
type LogLine struct {
	Text string
	At   time.Time
	Seq  int // 1-based position in the stream
}

// ProgressState is the parser's running view of a job.
// Percent never decreases and only reaches 100 once Terminal is set.
type ProgressState struct {
	Percent        float64
	FilesProcessed int
	BytesProcessed int64
	Terminal       bool

	FilesExpected int    // best known total, 0 when unknown
	CurrentFile   string // path of the file being copied
	Lines         int    // lines consumed so far
	Degraded      int    // lines no known shape matched
	Errors        int    // per-file errors reported by the tool
	Extras        int    // files found only in the target
}

// Status is the final classification of a job.
type Status int

const (
	StatusSuccess Status = iota
	StatusCompletedWithErrors
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusCompletedWithErrors:
		return "completed_with_errors"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// worse returns whichever of two statuses is more severe.
func worse(a, b Status) Status {
	if b > a {
		return b
	}
	return a
}

func statusFromSeverity(s robocopy.Severity) Status {
	switch s {
	case robocopy.SeverityOK:
		return StatusSuccess
	case robocopy.SeverityWarning:
		return StatusCompletedWithErrors
	default:
		return StatusFailed
	}
}

// Summary holds the rows of the tool's closing summary table.
type Summary struct {
	Dirs  robocopy.SummaryRow
	Files robocopy.SummaryRow
	Bytes robocopy.SummaryRow
}

// JobResult is produced exactly once per job and never modified afterwards.
type JobResult struct {
	Status      Status
	ExitCode    int
	LogFilePath string

	ExitDetail  string // human-readable exit code bits
	Summary     Summary
	SummarySeen bool
	Progress    ProgressState
	DryRun      bool
	Started     time.Time
	Finished    time.Time
}

// Duration is how long the tool ran.
func (r JobResult) Duration() time.Duration {
	if r.Finished.IsZero() || r.Started.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// PostAction is what happens after a job completes.
type PostAction int

const (
	ActionNone PostAction = iota
	ActionCloseApp
	ActionReboot
	ActionShutdown
)

func (a PostAction) String() string {
	switch a {
	case ActionCloseApp:
		return "close"
	case ActionReboot:
		return "reboot"
	case ActionShutdown:
		return "shutdown"
	default:
		return "none"
	}
}

// PostActions lists every action in display order.
var PostActions = []PostAction{ActionNone, ActionCloseApp, ActionReboot, ActionShutdown}

// ParsePostAction accepts the names printed by PostAction.String.
func ParsePostAction(s string) (PostAction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ActionNone, nil
	case "close":
		return ActionCloseApp, nil
	case "reboot":
		return ActionReboot, nil
	case "shutdown":
		return ActionShutdown, nil
	default:
		return ActionNone, fmt.Errorf("unknown post-action %q (want none, close, reboot or shutdown)", s)
	}
}

// CountdownState is reported once per tick while a post-action is pending.
type CountdownState struct {
	Action    PostAction
	Remaining int // seconds left, 0 when the action fires
	Cancelled bool
}

// SchedulerState is the post-action state machine.
type SchedulerState int

const (
	StateIdle SchedulerState = iota
	StateCountingDown
	StateExecuted
	StateCancelled
)

func (s SchedulerState) String() string {
	switch s {
	case StateCountingDown:
		return "counting_down"
	case StateExecuted:
		return "executed"
	case StateCancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// Outcome is how a post-action countdown ended.
type Outcome struct {
	Action PostAction
	State  SchedulerState
	Err    error // set when the action was executed and failed
}
