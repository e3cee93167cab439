// Package robocopy pins down everything RoboClone knows about the external copy tool:
// its command-line switches, the shape of the lines it prints, and its exit codes.
//
// The tool reports its outcome as a bit field rather than a single status. Each bit
// says something different about the run:
//   - 1: one or more files were copied
//   - 2: extra files or directories were found in the destination
//   - 4: mismatched files or directories were detected
//   - 8: some files or directories could not be copied
//   - 16: fatal error, nothing was copied
//
// Keeping the table here means it can be tested without ever starting a process.
package robocopy

import "strings"

// Exit code bits reported by the copy tool.
const (
	ExitCopied   = 1
	ExitExtra    = 2
	ExitMismatch = 4
	ExitFailed   = 8
	ExitFatal    = 16

	// exitMax is the largest value the tool can produce (all bits set).
	exitMax = ExitCopied | ExitExtra | ExitMismatch | ExitFailed | ExitFatal
)

// Severity is the coarse classification of an exit code.
type Severity int

const (
	SeverityOK      Severity = iota // nothing needed attention
	SeverityWarning                 // run finished but extras or mismatches were found
	SeverityFailure                 // some or all files could not be copied
)

func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "ok"
	case SeverityWarning:
		return "warning"
	case SeverityFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// exitBits maps every bit to its human-readable meaning, in bit order.
var exitBits = []struct {
	bit  int
	text string
}{
	{ExitCopied, "files copied"},
	{ExitExtra, "extra files in destination"},
	{ExitMismatch, "mismatched files detected"},
	{ExitFailed, "some files could not be copied"},
	{ExitFatal, "fatal error"},
}

// ClassifyExitCode maps a raw exit code to a Severity.
// Negative codes (killed processes) and values outside the bit field are failures.
func ClassifyExitCode(code int) Severity {
	switch {
	case code < 0 || code > exitMax:
		return SeverityFailure
	case code&(ExitFailed|ExitFatal) != 0:
		return SeverityFailure
	case code&(ExitExtra|ExitMismatch) != 0:
		return SeverityWarning
	default:
		return SeverityOK
	}
}

// DescribeExitCode renders an exit code for logs and the result screen.
// Example: DescribeExitCode(5) -> "files copied, mismatched files detected"
func DescribeExitCode(code int) string {
	if code == 0 {
		return "no changes"
	}
	if code < 0 || code > exitMax {
		return "unexpected exit code"
	}

	var parts []string
	for _, b := range exitBits {
		if code&b.bit != 0 {
			parts = append(parts, b.text)
		}
	}
	return strings.Join(parts, ", ")
}
