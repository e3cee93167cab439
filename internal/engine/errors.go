package engine

import (
	"errors"
	"fmt"

	"roboclone/internal/drives"
)

// Kind classifies engine failures so callers can react without parsing messages.
type Kind int

const (
	KindUnknown Kind = iota
	KindPathNotFound
	KindInsufficientSpace
	KindJobAlreadyRunning
	KindLaunchFailed
	KindParseDegraded
	KindPostActionFailed
)

func (k Kind) String() string {
	switch k {
	case KindPathNotFound:
		return "path_not_found"
	case KindInsufficientSpace:
		return "insufficient_space"
	case KindJobAlreadyRunning:
		return "job_already_running"
	case KindLaunchFailed:
		return "launch_failed"
	case KindParseDegraded:
		return "parse_degraded"
	case KindPostActionFailed:
		return "post_action_failed"
	default:
		return "unknown"
	}
}

// Error is the error type returned and reported by the engine.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "validate target"
	Path string // path involved, if any

	// Required and Available are set for KindInsufficientSpace.
	Required  int64
	Available int64

	Err error // underlying cause, may be nil
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindInsufficientSpace:
		msg = fmt.Sprintf("insufficient space on %s: need %s, have %s (missing %s)",
			e.Path,
			drives.FormatBytes(e.Required),
			drives.FormatBytes(e.Available),
			drives.FormatDeficit(drives.Shortfall(e.Required, e.Available)))
	case KindPathNotFound:
		msg = fmt.Sprintf("%s: path not found: %s", e.Op, e.Path)
	case KindJobAlreadyRunning:
		msg = "a copy job is already running"
	default:
		msg = e.Op
		if e.Path != "" {
			msg += " " + e.Path
		}
	}

	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrPathNotFound      = &Error{Kind: KindPathNotFound}
	ErrInsufficientSpace = &Error{Kind: KindInsufficientSpace}
	ErrJobAlreadyRunning = &Error{Kind: KindJobAlreadyRunning}
	ErrLaunchFailed      = &Error{Kind: KindLaunchFailed}
	ErrParseDegraded     = &Error{Kind: KindParseDegraded}
	ErrPostActionFailed  = &Error{Kind: KindPostActionFailed}
)

var errNotDir = errors.New("not a directory")

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
