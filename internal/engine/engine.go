// Package engine orchestrates a RoboClone backup from request to post-action.
//
// A job moves through four stages:
//   - Pre-flight: both folders must exist and the target volume must hold every
//     source file the exclusions keep (Validator)
//   - Command line: the request becomes a robocopy invocation (BuildJobSpec)
//   - Copy: the tool runs while its output is logged and parsed into progress
//     (Runner, Parser)
//   - Post-action: close, reboot or shutdown after a cancellable countdown (Scheduler)
//
// Pre-flight and launch failures are returned from Engine.Start. Everything after
// launch is delivered to a Reporter from the job's own goroutine.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Options configures an Engine.
type Options struct {
	Job    JobOptions
	LogDir string // where per-run tool logs are written

	// Countdown overrides, mainly for tests. Zero means five one-second ticks.
	CountdownTicks    int
	CountdownInterval time.Duration
}

// Engine runs at most one job at a time.
type Engine struct {
	validator *Validator
	runner    *Runner
	executor  Executor
	reporter  Reporter
	opts      Options
	log       *zap.Logger

	mu     sync.Mutex
	active *Job
}

// New wires an Engine. probe answers free-space queries, executor carries out
// post-actions and reporter receives progress; a nil reporter discards reports.
func New(probe SpaceProbe, executor Executor, reporter Reporter, opts Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if reporter == nil {
		reporter = NopReporter{}
	}
	if opts.Job.Tool == "" {
		opts.Job.Tool = DefaultJobOptions().Tool
	}
	if opts.LogDir == "" {
		opts.LogDir = "logs"
	}

	return &Engine{
		validator: NewValidator(probe, log.Named("preflight")),
		runner:    NewRunner(opts.LogDir, log.Named("runner")),
		executor:  executor,
		reporter:  reporter,
		opts:      opts,
		log:       log,
	}
}

// Job is a handle on a started backup.
type Job struct {
	Request CopyRequest
	Spec    JobSpec
	Report  FreeSpaceReport
	Action  PostAction

	cancel   context.CancelFunc // stops pre-flight, the copy and the countdown
	run      *Run
	started  time.Time
	resultCh chan struct{} // closed once result is set
	done     chan struct{} // closed once the post-action has ended
	result   JobResult
	outcome  Outcome

	mu              sync.Mutex
	scheduler       *Scheduler
	skipPostAction  bool
	postActionEnded bool
}

// Start validates req, launches the copy and returns immediately.
// Progress, the result and the post-action countdown go to the engine's Reporter.
// A second Start while a job (including its countdown) is active fails with
// JobAlreadyRunning and leaves the active job untouched.
func (e *Engine) Start(ctx context.Context, req CopyRequest, action PostAction) (*Job, error) {
	e.mu.Lock()
	if e.active != nil {
		e.mu.Unlock()
		return nil, &Error{Kind: KindJobAlreadyRunning, Op: "start"}
	}
	job := &Job{
		Request:  req.clone(),
		Action:   action,
		resultCh: make(chan struct{}),
		done:     make(chan struct{}),
	}
	job.Request.Exclusions = NormalizeExclusions(job.Request.Exclusions)
	ctx, job.cancel = context.WithCancel(ctx)
	e.active = job
	e.mu.Unlock()

	log := e.log.With(
		zap.String("source", job.Request.Source),
		zap.String("target", job.Request.Target),
		zap.Bool("dry_run", job.Request.DryRun))

	report, err := e.validator.Validate(ctx, job.Request.Source, job.Request.Target, job.Request.Exclusions)
	job.Report = report
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		job.cancel()
		e.release(job)
		log.Warn("pre-flight failed", zap.Error(err))
		return nil, err
	}
	if !report.Verified {
		e.reporter.ReportWarning(fmt.Errorf("could not verify free space on %s, continuing", job.Request.Target))
	}

	job.Spec = BuildJobSpec(job.Request, e.opts.Job)

	run, err := e.runner.Start(ctx, job.Spec)
	if err != nil {
		job.cancel()
		e.release(job)
		log.Error("launch failed", zap.Error(err))
		return nil, err
	}
	job.mu.Lock()
	job.run = run
	job.mu.Unlock()
	job.started = time.Now()

	log.Info("job started",
		zap.Int64("required_bytes", report.RequiredBytes),
		zap.Int64("available_bytes", report.AvailableBytes),
		zap.Int("files", report.FilesDiscovered),
		zap.Stringer("post_action", action))

	go e.drive(ctx, job, log)
	return job, nil
}

// Active returns the running job, or nil.
func (e *Engine) Active() *Job {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Cancel cancels the active job's copy and any pending post-action.
func (e *Engine) Cancel() bool {
	job := e.Active()
	if job == nil {
		return false
	}
	job.Cancel()
	return true
}

// CancelCountdown cancels the active job's post-action countdown.
func (e *Engine) CancelCountdown() bool {
	job := e.Active()
	if job == nil {
		return false
	}
	return job.CancelPostAction()
}

func (e *Engine) release(job *Job) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == job {
		e.active = nil
	}
}

func (e *Engine) drive(ctx context.Context, job *Job, log *zap.Logger) {
	defer close(job.done)
	defer e.release(job)
	defer job.cancel()

	parser := NewParser(job.Report.FilesDiscovered)
	degraded := false

	for line := range job.run.Lines() {
		state := parser.Feed(line)
		if state.Degraded > 0 && !degraded {
			degraded = true
			e.reporter.ReportWarning(&Error{
				Kind: KindParseDegraded,
				Op:   "parse output",
				Err:  fmt.Errorf("unrecognized line %d: %q", line.Seq, line.Text),
			})
		}
		e.reporter.ReportProgress(state)
	}

	exitCode, err := job.run.Wait()
	if err != nil {
		log.Warn("reading tool output failed", zap.Error(err))
	}

	result := parser.Finish(exitCode, job.run.Cancelled())
	result.LogFilePath = job.run.LogPath()
	result.DryRun = job.Request.DryRun
	result.Started = job.started
	result.Finished = time.Now()

	if !result.SummarySeen && result.Status != StatusCancelled && !degraded {
		e.reporter.ReportWarning(&Error{
			Kind: KindParseDegraded,
			Op:   "parse output",
			Err:  fmt.Errorf("output ended without a job summary"),
		})
	}

	job.result = result
	close(job.resultCh)

	log.Info("job finished",
		zap.Stringer("status", result.Status),
		zap.Int("exit_code", result.ExitCode),
		zap.String("exit_detail", result.ExitDetail),
		zap.Int("files", result.Progress.FilesProcessed),
		zap.Int64("bytes", result.Progress.BytesProcessed),
		zap.Duration("duration", result.Duration()),
		zap.String("log", result.LogFilePath))

	e.reporter.ReportProgress(result.Progress)
	e.reporter.ReportResult(result)

	// A cancelled copy never triggers its post-action.
	if job.Action == ActionNone || result.Status == StatusCancelled {
		return
	}
	e.runPostAction(ctx, job, log)
}

func (e *Engine) runPostAction(ctx context.Context, job *Job, log *zap.Logger) {
	sched := newScheduler(e.executor, e.opts.CountdownTicks, e.opts.CountdownInterval, log.Named("postaction"))

	job.mu.Lock()
	if job.skipPostAction {
		job.postActionEnded = true
		job.mu.Unlock()
		job.outcome = Outcome{Action: job.Action, State: StateCancelled}
		e.reporter.ReportCountdown(CountdownState{Action: job.Action, Remaining: sched.ticks, Cancelled: true})
		e.reporter.ReportPostAction(job.outcome)
		return
	}
	// Started under the lock so CancelPostAction never sees an idle scheduler.
	job.scheduler = sched
	err := sched.Start(ctx, job.Action, e.reporter.ReportCountdown)
	if err != nil {
		job.postActionEnded = true
	}
	job.mu.Unlock()
	if err != nil {
		log.Error("post-action countdown failed to start", zap.Error(err))
		return
	}

	job.outcome = sched.Wait()

	job.mu.Lock()
	job.postActionEnded = true
	job.mu.Unlock()

	e.reporter.ReportPostAction(job.outcome)
	if job.outcome.Err != nil {
		e.reporter.ReportWarning(job.outcome.Err)
	}
}

// Cancel stops the copy if it is still running and the post-action if it has not fired.
// Called during pre-flight it makes Start return context.Canceled.
func (j *Job) Cancel() {
	j.cancel()

	j.mu.Lock()
	run := j.run
	j.mu.Unlock()
	if run != nil {
		run.Cancel()
	}
	j.CancelPostAction()
}

// CancelPostAction stops a pending post-action. Called before the copy finishes it
// prevents the countdown from starting. Returns false once the action has fired or
// the countdown is already over.
func (j *Job) CancelPostAction() bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.postActionEnded {
		return false
	}
	if j.scheduler == nil {
		if j.Action == ActionNone || j.skipPostAction {
			return false
		}
		j.skipPostAction = true
		return true
	}
	return j.scheduler.Cancel()
}

// Wait blocks until the copy has finished and returns its result.
func (j *Job) Wait() JobResult {
	<-j.resultCh
	return j.result
}

// Done is closed once the job, including any post-action, has ended.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// PostActionOutcome blocks until the job has ended and returns how the post-action ended.
// Jobs without a post-action, or whose copy was cancelled, report an Idle outcome.
func (j *Job) PostActionOutcome() Outcome {
	<-j.done
	return j.outcome
}

// LogPath is the per-run tool log.
func (j *Job) LogPath() string {
	return j.run.LogPath()
}
