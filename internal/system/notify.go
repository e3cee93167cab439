package system

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"roboclone/internal/engine"
)

const notifyTimeout = 5 * time.Second

// Notifier announces finished jobs with a terminal bell and, where a desktop
// notifier is installed, a desktop notification. Failures are logged only.
type Notifier struct {
	bell    io.Writer
	run     CommandRunner
	lookup  func(string) (string, error)
	goos    string
	enabled bool
	log     *zap.Logger

	pending sync.WaitGroup

	engine.NopReporter
}

// NewNotifier returns a Notifier that rings on bell. A disabled Notifier does nothing.
func NewNotifier(enabled bool, bell io.Writer, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{
		bell:    bell,
		run:     RunCommand,
		lookup:  exec.LookPath,
		goos:    runtime.GOOS,
		enabled: enabled,
		log:     log,
	}
}

// ReportResult sends a notification for the finished job in the background, so a
// slow desktop notifier never holds up the post-action countdown.
func (n *Notifier) ReportResult(res engine.JobResult) {
	if !n.enabled {
		return
	}
	title, body := Message(res)
	n.pending.Add(1)
	go func() {
		defer n.pending.Done()
		n.Notify(title, body)
	}()
}

// Wait blocks until every notification sent so far has been delivered or has failed.
func (n *Notifier) Wait() {
	n.pending.Wait()
}

// Notify delivers one notification.
func (n *Notifier) Notify(title, body string) {
	if n.bell != nil {
		io.WriteString(n.bell, "\a")
	}

	name, args, ok := n.desktopCommand(title, body)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := n.run(ctx, name, args...); err != nil {
		n.log.Warn("desktop notification failed", zap.Error(err))
	}
}

func (n *Notifier) desktopCommand(title, body string) (string, []string, bool) {
	switch n.goos {
	case "linux", "freebsd", "openbsd":
		if _, err := n.lookup("notify-send"); err == nil {
			return "notify-send", []string{"--app-name=RoboClone", title, body}, true
		}
	case "darwin":
		if _, err := n.lookup("osascript"); err == nil {
			script := fmt.Sprintf("display notification %q with title %q", body, title)
			return "osascript", []string{"-e", script}, true
		}
	}
	return "", nil, false
}

// Message is the notification text for a finished job.
func Message(res engine.JobResult) (title, body string) {
	switch res.Status {
	case engine.StatusSuccess:
		title = "Backup complete"
	case engine.StatusCompletedWithErrors:
		title = "Backup completed with warnings"
	case engine.StatusCancelled:
		title = "Backup cancelled"
	default:
		title = "Backup failed"
	}
	if res.DryRun {
		title += " (dry run)"
	}

	body = fmt.Sprintf("%d files, exit code %d (%s)", res.Progress.FilesProcessed, res.ExitCode, res.ExitDetail)
	return title, body
}
