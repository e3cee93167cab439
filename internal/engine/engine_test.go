package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func newTestEngine(t *testing.T, mode string, probe SpaceProbe, exec Executor, rep Reporter) (*Engine, string) {
	t.Helper()
	logDir := filepath.Join(t.TempDir(), "logs")
	opts := Options{
		Job:               DefaultJobOptions(),
		LogDir:            logDir,
		CountdownInterval: 5 * time.Millisecond,
	}
	opts.Job.Tool = fakeToolPath(t, mode)
	return New(probe, exec, rep, opts, nil), logDir
}

func populate(t *testing.T, dir string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		writeFile(t, filepath.Join(dir, fmt.Sprintf("file%02d.dat", i)), 1024)
	}
}

func TestEngineCopyWithExclusions(t *testing.T) {
	t.Setenv(fakeExitEnv, "5")

	src, dst := t.TempDir(), t.TempDir()
	populate(t, src, 9)
	writeFile(t, filepath.Join(src, "scratch.tmp"), 4096)

	rep := &recordingReporter{}
	eng, logDir := newTestEngine(t, "copy", &fakeProbe{free: 1 << 30}, &fakeExecutor{}, rep)

	job, err := eng.Start(context.Background(), CopyRequest{
		Source:     src,
		Target:     dst,
		Exclusions: []string{"*.tmp"},
	}, ActionNone)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if job.Report.FilesDiscovered != 9 || job.Report.RequiredBytes != 9*1024 {
		t.Errorf("pre-flight report = %+v", job.Report)
	}

	res := job.Wait()
	waitDone(t, job.Done())

	if res.Status != StatusCompletedWithErrors {
		t.Errorf("Status = %v, want completed with errors", res.Status)
	}
	if res.ExitCode != 5 {
		t.Errorf("ExitCode = %d", res.ExitCode)
	}
	if res.Progress.FilesProcessed != 9 {
		t.Errorf("FilesProcessed = %d, want 9", res.Progress.FilesProcessed)
	}
	if res.Progress.Percent != 100 || !res.Progress.Terminal {
		t.Errorf("final progress = %+v", res.Progress)
	}
	if !res.SummarySeen || res.Summary.Files.Copied != 9 {
		t.Errorf("summary = %+v", res.Summary)
	}
	if filepath.Dir(res.LogFilePath) != logDir {
		t.Errorf("log %q not under %q", res.LogFilePath, logDir)
	}
	if _, err := os.Stat(res.LogFilePath); err != nil {
		t.Errorf("log file: %v", err)
	}

	rep.mu.Lock()
	defer rep.mu.Unlock()
	if len(rep.results) != 1 {
		t.Fatalf("results reported %d times", len(rep.results))
	}
	prev := 0.0
	for _, p := range rep.progress {
		if p.Percent < prev {
			t.Fatalf("progress went backwards: %.2f after %.2f", p.Percent, prev)
		}
		prev = p.Percent
	}
	if len(rep.warnings) != 0 {
		t.Errorf("unexpected warnings: %v", rep.warnings)
	}
	if eng.Active() != nil {
		t.Error("engine still holds the job")
	}
}

func TestEngineInsufficientSpaceLaunchesNothing(t *testing.T) {
	src := t.TempDir()
	sparseFile(t, filepath.Join(src, "big.bin"), 500<<20)
	marker := filepath.Join(t.TempDir(), "launched")
	t.Setenv(fakeMarkerEnv, marker)

	rep := &recordingReporter{}
	eng, logDir := newTestEngine(t, "copy", &fakeProbe{free: 400 << 20}, &fakeExecutor{}, rep)

	_, err := eng.Start(context.Background(), CopyRequest{Source: src, Target: t.TempDir()}, ActionShutdown)
	if !errors.Is(err, ErrInsufficientSpace) {
		t.Fatalf("err = %v, want InsufficientSpace", err)
	}
	if _, err := os.Stat(logDir); !os.IsNotExist(err) {
		t.Error("log directory created")
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Error("tool was launched")
	}
	if rep.progressCount() != 0 {
		t.Error("progress reported for a rejected job")
	}
	if eng.Active() != nil {
		t.Error("rejected job still active")
	}
}

func TestEngineRejectsSecondJob(t *testing.T) {
	src := t.TempDir()
	populate(t, src, 1)

	exec := &fakeExecutor{}
	rep := &recordingReporter{}
	eng, _ := newTestEngine(t, "sleep", &fakeProbe{free: 1 << 30}, exec, rep)

	req := CopyRequest{Source: src, Target: t.TempDir()}
	job, err := eng.Start(context.Background(), req, ActionReboot)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, func() bool {
		rep.mu.Lock()
		defer rep.mu.Unlock()
		return len(rep.progress) > 0
	})

	other := t.TempDir()
	populate(t, other, 5)
	second := CopyRequest{Source: other, Target: t.TempDir()}
	if _, err := eng.Start(context.Background(), second, ActionNone); !isKind(err, KindJobAlreadyRunning) {
		t.Fatalf("second Start err = %v, want JobAlreadyRunning", err)
	}
	if eng.Active() != job {
		t.Fatal("active job replaced")
	}

	if !eng.Cancel() {
		t.Fatal("Cancel found no active job")
	}
	res := job.Wait()
	waitDone(t, job.Done())

	if res.Status != StatusCancelled {
		t.Errorf("Status = %v, want cancelled", res.Status)
	}
	if len(exec.executed()) != 0 {
		t.Errorf("post-action ran after cancel: %v", exec.executed())
	}
	if o := job.PostActionOutcome(); o.State == StateExecuted {
		t.Errorf("outcome = %+v", o)
	}

	// The first job's progress stream carries on untouched by the rejected request.
	rep.mu.Lock()
	defer rep.mu.Unlock()
	prevPct, prevLines := 0.0, 0
	for i, p := range rep.progress {
		if p.FilesExpected != 1 {
			t.Errorf("progress %d from another request: %+v", i, p)
		}
		if p.Percent < prevPct || p.Lines < prevLines {
			t.Errorf("progress %d went backwards: %+v", i, p)
		}
		prevPct, prevLines = p.Percent, p.Lines
	}
	if len(rep.results) != 1 {
		t.Errorf("results reported %d times", len(rep.results))
	}
}

func TestEnginePostActionExecutes(t *testing.T) {
	src := t.TempDir()
	populate(t, src, 2)

	exec := &fakeExecutor{}
	rep := &recordingReporter{}
	eng, _ := newTestEngine(t, "copy", &fakeProbe{free: 1 << 30}, exec, rep)

	job, err := eng.Start(context.Background(), CopyRequest{Source: src, Target: t.TempDir()}, ActionShutdown)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitDone(t, job.Done())

	if got := exec.executed(); !slices.Equal(got, []PostAction{ActionShutdown}) {
		t.Errorf("executed = %v", got)
	}
	if o := job.PostActionOutcome(); o.State != StateExecuted || o.Err != nil {
		t.Errorf("outcome = %+v", o)
	}

	rep.mu.Lock()
	defer rep.mu.Unlock()
	var remaining []int
	for _, c := range rep.countdowns {
		remaining = append(remaining, c.Remaining)
	}
	if !slices.Equal(remaining, []int{5, 4, 3, 2, 1, 0}) {
		t.Errorf("countdown = %v", remaining)
	}
	if len(rep.outcomes) != 1 {
		t.Errorf("outcomes reported %d times", len(rep.outcomes))
	}
}

func TestEnginePostActionFailureIsReported(t *testing.T) {
	src := t.TempDir()
	populate(t, src, 1)

	exec := &fakeExecutor{err: errors.New("privilege not held")}
	rep := &recordingReporter{}
	eng, _ := newTestEngine(t, "copy", &fakeProbe{free: 1 << 30}, exec, rep)

	job, err := eng.Start(context.Background(), CopyRequest{Source: src, Target: t.TempDir()}, ActionReboot)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitDone(t, job.Done())

	if res := job.Wait(); res.Status != StatusSuccess {
		t.Errorf("Status = %v; a failed post-action must not change the copy result", res.Status)
	}
	if o := job.PostActionOutcome(); !errors.Is(o.Err, ErrPostActionFailed) {
		t.Errorf("outcome err = %v", o.Err)
	}
	if !slices.Contains(rep.warningKinds(), KindPostActionFailed) {
		t.Error("post-action failure not reported")
	}
}

func TestEngineCancelPostActionBeforeCountdown(t *testing.T) {
	src := t.TempDir()
	populate(t, src, 1)

	exec := &fakeExecutor{}
	rep := &recordingReporter{}
	eng, _ := newTestEngine(t, "slow", &fakeProbe{free: 1 << 30}, exec, rep)

	job, err := eng.Start(context.Background(), CopyRequest{Source: src, Target: t.TempDir()}, ActionReboot)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !eng.CancelCountdown() {
		t.Fatal("CancelCountdown rejected while the copy runs")
	}
	if job.CancelPostAction() {
		t.Error("second CancelPostAction accepted")
	}

	res := job.Wait()
	waitDone(t, job.Done())

	if res.Status == StatusCancelled {
		t.Fatalf("copy itself was cancelled")
	}
	if len(exec.executed()) != 0 {
		t.Errorf("post-action executed: %v", exec.executed())
	}
	if o := job.PostActionOutcome(); o.State != StateCancelled {
		t.Errorf("outcome = %+v", o)
	}
}

func TestEngineCancelCountdownMidway(t *testing.T) {
	src := t.TempDir()
	populate(t, src, 1)

	exec := &fakeExecutor{}
	eng, _ := newTestEngine(t, "copy", &fakeProbe{free: 1 << 30}, exec, nil)
	eng.opts.CountdownInterval = time.Hour

	job, err := eng.Start(context.Background(), CopyRequest{Source: src, Target: t.TempDir()}, ActionShutdown)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	job.Wait()

	// The slot stays taken until the countdown resolves.
	deadline := time.Now().Add(10 * time.Second)
	for !eng.CancelCountdown() {
		if time.Now().After(deadline) {
			t.Fatal("countdown never became cancellable")
		}
		time.Sleep(5 * time.Millisecond)
	}
	waitDone(t, job.Done())

	if o := job.PostActionOutcome(); o.State != StateCancelled {
		t.Errorf("outcome = %+v", o)
	}
	if len(exec.executed()) != 0 {
		t.Error("post-action executed after cancel")
	}
	if eng.Active() != nil {
		t.Error("engine still busy after countdown cancel")
	}
}

func TestEngineParseDegradedReportedOnce(t *testing.T) {
	src := t.TempDir()
	populate(t, src, 1)

	rep := &recordingReporter{}
	eng, _ := newTestEngine(t, "garbage", &fakeProbe{free: 1 << 30}, &fakeExecutor{}, rep)

	job, err := eng.Start(context.Background(), CopyRequest{Source: src, Target: t.TempDir()}, ActionNone)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	res := job.Wait()
	waitDone(t, job.Done())

	n := 0
	for _, k := range rep.warningKinds() {
		if k == KindParseDegraded {
			n++
		}
	}
	if n != 1 {
		t.Errorf("ParseDegraded reported %d times, want 1", n)
	}
	// The exit code still decides the status.
	if res.Status != StatusSuccess || res.SummarySeen {
		t.Errorf("result = %+v", res)
	}
}

func TestEngineDryRunPassesListOnly(t *testing.T) {
	src := t.TempDir()
	populate(t, src, 1)

	rep := &recordingReporter{}
	eng, _ := newTestEngine(t, "echo", &fakeProbe{free: 1 << 30}, &fakeExecutor{}, rep)

	job, err := eng.Start(context.Background(), CopyRequest{Source: src, Target: t.TempDir(), DryRun: true}, ActionNone)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	res := job.Wait()
	waitDone(t, job.Done())

	if !res.DryRun {
		t.Error("result not marked dry-run")
	}
	data, err := os.ReadFile(res.LogFilePath)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(splitLines(string(data)), "/L") {
		t.Errorf("tool did not receive /L:\n%s", data)
	}
}

func TestEngineMissingToolIsLaunchFailure(t *testing.T) {
	src := t.TempDir()
	populate(t, src, 1)

	eng := New(&fakeProbe{free: 1 << 30}, &fakeExecutor{}, nil, Options{
		Job:    JobOptions{Tool: filepath.Join(t.TempDir(), "robocopy-missing")},
		LogDir: filepath.Join(t.TempDir(), "logs"),
	}, nil)

	_, err := eng.Start(context.Background(), CopyRequest{Source: src, Target: t.TempDir()}, ActionNone)
	if !errors.Is(err, ErrLaunchFailed) {
		t.Fatalf("err = %v, want LaunchFailed", err)
	}
	if eng.Active() != nil {
		t.Error("engine busy after launch failure")
	}
}

// blockingProbe holds the free-space query until release is closed.
type blockingProbe struct {
	entered chan struct{}
	release chan struct{}
}

func (p *blockingProbe) AvailableBytes(string) (int64, error) {
	close(p.entered)
	<-p.release
	return 1 << 30, nil
}

func TestEngineCancelDuringPreflight(t *testing.T) {
	src := t.TempDir()
	populate(t, src, 2)
	marker := filepath.Join(t.TempDir(), "launched")
	t.Setenv(fakeMarkerEnv, marker)

	probe := &blockingProbe{entered: make(chan struct{}), release: make(chan struct{})}
	eng, logDir := newTestEngine(t, "copy", probe, &fakeExecutor{}, nil)

	errc := make(chan error, 1)
	go func() {
		_, err := eng.Start(context.Background(), CopyRequest{Source: src, Target: t.TempDir()}, ActionShutdown)
		errc <- err
	}()

	<-probe.entered
	if !eng.Cancel() {
		t.Fatal("Cancel found no job during pre-flight")
	}
	close(probe.release)

	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if _, err := os.Stat(marker); err == nil {
		t.Error("tool launched after cancel")
	}
	if _, err := os.Stat(logDir); err == nil {
		t.Error("log directory created after cancel")
	}
	if eng.Active() != nil {
		t.Error("engine still busy")
	}
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
