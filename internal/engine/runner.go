package engine

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	// lineBuffer is how many lines may queue up before the reader blocks.
	// A full buffer applies back-pressure to the tool through the pipe; lines are never dropped.
	lineBuffer = 256

	// maxLineSize bounds a single output line. Paths are far shorter in practice.
	maxLineSize = 1 << 20

	defaultKillGrace = 5 * time.Second
)

// LogFileName is the name of the per-run log file for a job started at t.
func LogFileName(t time.Time) string {
	return "robocopy_log_" + t.Format("20060102_150405") + ".txt"
}

// Runner starts the copy tool and streams its combined output.
// Only one Run may be active per Runner.
type Runner struct {
	logDir    string
	log       *zap.Logger
	now       func() time.Time
	killGrace time.Duration

	mu     sync.Mutex
	active *Run
}

// NewRunner writes per-run logs below logDir, creating it on first use.
func NewRunner(logDir string, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		logDir:    logDir,
		log:       log,
		now:       time.Now,
		killGrace: defaultKillGrace,
	}
}

// Run is one execution of the tool.
type Run struct {
	cmd       *exec.Cmd
	logPath   string
	log       *zap.Logger
	killGrace time.Duration

	lines chan LogLine
	done  chan struct{}

	cancelRequested atomic.Bool

	// Set before done is closed.
	exitCode  int
	err       error
	cancelled bool
}

// Start launches the tool described by spec. Failing to locate or start the tool
// returns a LaunchFailed error before any log file is created.
//
// The caller must drain Lines until it is closed. Cancelling ctx cancels the run.
func (r *Runner) Start(ctx context.Context, spec JobSpec) (*Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return nil, &Error{Kind: KindJobAlreadyRunning, Op: "start"}
	}

	path, err := exec.LookPath(spec.Tool)
	if err != nil {
		return nil, &Error{Kind: KindLaunchFailed, Op: "locate tool", Path: spec.Tool, Err: err}
	}

	// One pipe for both streams keeps stdout and stderr lines in the order they were written.
	out, in, err := os.Pipe()
	if err != nil {
		return nil, &Error{Kind: KindLaunchFailed, Op: "create output pipe", Err: err}
	}

	cmd := exec.Command(path, spec.Args...)
	cmd.Stdout = in
	cmd.Stderr = in
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		out.Close()
		in.Close()
		return nil, &Error{Kind: KindLaunchFailed, Op: "start tool", Path: path, Err: err}
	}
	in.Close()

	started := r.now()
	logPath := filepath.Join(r.logDir, LogFileName(started))
	logFile, err := openLog(r.logDir, logPath)
	if err != nil {
		killProcess(cmd)
		out.Close()
		cmd.Wait()
		return nil, &Error{Kind: KindLaunchFailed, Op: "open log", Path: logPath, Err: err}
	}

	run := &Run{
		cmd:       cmd,
		logPath:   logPath,
		log:       r.log.With(zap.Int("pid", cmd.Process.Pid)),
		killGrace: r.killGrace,
		lines:     make(chan LogLine, lineBuffer),
		done:      make(chan struct{}),
	}
	r.active = run

	run.log.Info("tool started",
		zap.String("tool", path),
		zap.Strings("args", spec.Args),
		zap.String("log", logPath))

	go run.pump(out, logFile, func() { r.release(run) })
	go run.watch(ctx)

	return run, nil
}

func (r *Runner) release(run *Run) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == run {
		r.active = nil
	}
}

func openLog(dir, path string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

// Lines yields every non-empty output line in order. It is closed once the tool exits.
func (run *Run) Lines() <-chan LogLine {
	return run.lines
}

// Done is closed after the tool has exited and the log file is closed.
func (run *Run) Done() <-chan struct{} {
	return run.done
}

// LogPath is the per-run log file.
func (run *Run) LogPath() string {
	return run.logPath
}

// Wait blocks until the tool exits. The error reports I/O problems while reading
// output, not a non-zero exit code.
func (run *Run) Wait() (int, error) {
	<-run.done
	return run.exitCode, run.err
}

// Cancelled reports whether the run was cancelled before the tool finished on its own.
func (run *Run) Cancelled() bool {
	select {
	case <-run.done:
		return run.cancelled
	default:
		return run.cancelRequested.Load()
	}
}

// Cancel asks the tool to stop and kills it if it is still running after a grace period.
// Cancelling a finished run has no effect.
func (run *Run) Cancel() {
	select {
	case <-run.done:
		return
	default:
	}
	if !run.cancelRequested.CompareAndSwap(false, true) {
		return
	}

	run.log.Info("cancelling tool")
	if err := interruptProcess(run.cmd); err != nil {
		run.log.Warn("interrupt failed, killing", zap.Error(err))
		killProcess(run.cmd)
		return
	}

	go func() {
		select {
		case <-run.done:
		case <-time.After(run.killGrace):
			run.log.Warn("tool ignored interrupt, killing")
			killProcess(run.cmd)
		}
	}()
}

func (run *Run) watch(ctx context.Context) {
	select {
	case <-ctx.Done():
		run.Cancel()
	case <-run.done:
	}
}

func (run *Run) pump(out *os.File, logFile *os.File, release func()) {
	scanner := bufio.NewScanner(out)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	scanner.Split(scanOutputLines)

	seq := 0
	writeFailed := false
	for scanner.Scan() {
		text := scanner.Text()
		if text == "" {
			continue
		}

		if _, err := logFile.WriteString(text + "\n"); err != nil && !writeFailed {
			writeFailed = true
			run.log.Warn("failed to write log file", zap.String("log", run.logPath), zap.Error(err))
		}

		seq++
		run.lines <- LogLine{Text: text, At: time.Now(), Seq: seq}
	}

	readErr := scanner.Err()
	if readErr != nil {
		// Keep the pipe drained so the tool can finish.
		io.Copy(logFile, out)
	}
	out.Close()

	waitErr := run.cmd.Wait()
	if err := logFile.Close(); err != nil {
		run.log.Warn("failed to close log file", zap.Error(err))
	}

	run.exitCode = exitCodeOf(waitErr)
	run.cancelled = run.cancelRequested.Load()
	run.err = readErr
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) && run.err == nil {
		run.err = waitErr
	}

	run.log.Info("tool exited",
		zap.Int("exit_code", run.exitCode),
		zap.Int("lines", seq),
		zap.Bool("cancelled", run.cancelled))

	release()
	close(run.lines)
	close(run.done)
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// scanOutputLines splits on '\n' and '\r'. The tool redraws its per-file
// percentage with bare carriage returns, so each redraw becomes its own line.
// "\r\n" yields an empty token that the reader skips.
func scanOutputLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
