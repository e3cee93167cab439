// Package main implements the entry point and system initialization for RoboClone.
//
// This package handles:
//   - Flag and environment parsing, plus the setup form when no folders were given
//   - Single instance checking so two backups never interleave on one host
//   - System dependency validation (robocopy, power and notification helpers)
//   - Signal handling for clean shutdown
//   - Running the job under the full-screen interface or plain progress lines
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"roboclone/internal/config"
	"roboclone/internal/drives"
	"roboclone/internal/engine"
	"roboclone/internal/form"
	"roboclone/internal/logging"
	"roboclone/internal/metrics"
	"roboclone/internal/state"
	"roboclone/internal/system"
	"roboclone/internal/tui"
	"roboclone/internal/version"
)

// Process exit codes.
const (
	exitOK         = 0
	exitFailed     = 1
	exitWithErrors = 2
	exitUsage      = 64
	exitCancelled  = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Args[1:], os.Stderr)
	if errors.Is(err, config.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, tui.ErrorText(err.Error()))
		return exitUsage
	}
	if cfg.ShowVersion {
		fmt.Println(version.GetAppTitle())
		return exitOK
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, tui.ErrorText(err.Error()))
		return exitUsage
	}

	lock, err := system.AcquireLock(system.DefaultLockPath())
	if err != nil {
		var running *system.AlreadyRunningError
		if errors.As(err, &running) {
			printAlreadyRunning(running)
		} else {
			fmt.Println(tui.ErrorText(err.Error()))
		}
		return exitFailed
	}
	defer lock.Release()

	warnings, err := system.CheckDependencies(cfg.Tool)
	if len(warnings) > 0 {
		fmt.Println("⚠️  Optional programs missing (functionality may be limited):")
		for _, w := range warnings {
			fmt.Printf("   • %s\n", w)
		}
		fmt.Println()
	}
	if err != nil {
		fmt.Printf("❌ Dependency check failed: %v\n", err)
		fmt.Println()
		fmt.Println("💡 Install robocopy or point --tool at it and try again.")
		return exitFailed
	}

	if err := logging.Init(cfg.Logging()); err != nil {
		fmt.Println(tui.ErrorText(err.Error()))
		return exitFailed
	}
	defer logging.Sync()
	log := logging.L()

	if cfg.NeedsForm() {
		if err := form.Run(cfg); err != nil {
			if errors.Is(err, form.ErrCancelled) {
				return exitOK
			}
			fmt.Println(tui.ErrorText(err.Error()))
			return exitFailed
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, log.Named("metrics")); err != nil {
				log.Warn("metrics endpoint stopped", zap.Error(err))
			}
		}()
	}

	log.Info("starting",
		zap.String("version", version.GetFullVersionString()),
		zap.String("source", cfg.Source),
		zap.String("target", cfg.Target),
		zap.Strings("exclusions", cfg.Exclusions),
		zap.Stringer("post_action", cfg.PostAction),
		zap.Bool("dry_run", cfg.DryRun))
	if vol, err := (drives.Probe{}).Volume(cfg.Target); err == nil {
		log.Info("target volume",
			zap.String("mount", vol.MountPoint),
			zap.String("device", vol.Device),
			zap.String("filesystem", vol.Filesystem),
			zap.String("free", drives.FormatBytes(vol.Free)),
			zap.Float64("used_percent", vol.UsedPercent))
	}

	notifier := system.NewNotifier(cfg.Notify, os.Stdout, log.Named("notify"))
	defer notifier.Wait()

	a := &app{
		cfg:      cfg,
		log:      log,
		lock:     lock,
		reporter: engine.NewMultiReporter(metrics.NewReporter(), notifier),
	}
	executor := system.NewExecutor(a.closeApp, log.Named("system"))
	a.eng = engine.New(drives.Probe{}, executor, a.reporter, engine.Options{
		Job:    cfg.JobOptions(),
		LogDir: cfg.LogDir,
	}, log.Named("engine"))

	a.handleSignals()

	if cfg.Plain {
		return a.runPlain(ctx)
	}
	return a.runInteractive(ctx)
}

// app ties one run of the program together.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	lock     *system.InstanceLock
	eng      *engine.Engine
	reporter *engine.MultiReporter
	program  *tea.Program
}

// closeApp is the CloseApp post-action. The program exits once the job is done.
func (a *app) closeApp() {
	if a.program != nil {
		a.program.Quit()
	}
}

// handleSignals cancels the job on the first interrupt and exits on the second.
// In the full-screen interface Ctrl+C arrives as a key instead.
func (a *app) handleSignals() {
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		a.log.Info("interrupt received, cancelling")
		a.eng.Cancel()
		<-c
		a.lock.Release() // Clean up on signal
		os.Exit(exitCancelled)
	}()
}

func (a *app) runPlain(ctx context.Context) int {
	a.reporter.Add(tui.NewPlainReporter(os.Stdout))

	fmt.Printf("🔍 Checking free space for %s\n", a.cfg.Source)
	job, err := a.eng.Start(ctx, a.cfg.Request(), a.cfg.PostAction)
	if err != nil {
		return a.startFailed(err)
	}
	fmt.Printf("🔄 Mirroring %s to %s\n   log: %s\n", a.cfg.Source, a.cfg.Target, job.LogPath())

	<-job.Done()
	return exitCodeFor(job.Wait().Status)
}

func (a *app) runInteractive(ctx context.Context) int {
	m := tui.NewModel(a.eng, a.cfg.Request(), a.cfg.PostAction, "")
	a.program = tea.NewProgram(m, tea.WithAltScreen())
	a.reporter.Add(tui.NewReporter(a.program.Send))

	// Pre-flight can walk a large tree, so it runs behind the screen.
	type started struct {
		job *engine.Job
		err error
	}
	startc := make(chan started, 1)
	go func() {
		job, err := a.eng.Start(ctx, a.cfg.Request(), a.cfg.PostAction)
		if err != nil {
			a.program.Send(state.StartFailedMsg{Err: err})
		} else {
			a.program.Send(state.JobStartedMsg{LogPath: job.LogPath()})
		}
		startc <- started{job, err}
	}()

	if _, err := a.program.Run(); err != nil {
		a.log.Error("interface failed", zap.Error(err))
		a.eng.Cancel()
	}

	// Leaving the screen never leaves a reboot or shutdown pending.
	a.eng.CancelCountdown()
	s := <-startc
	if s.err != nil {
		return a.startFailed(s.err)
	}

	select {
	case <-s.job.Done():
	default:
		a.eng.Cancel()
		<-s.job.Done()
	}
	res := s.job.Wait()
	fmt.Printf("%s\n   log: %s\n", tui.ResultLine(res), res.LogFilePath)
	return exitCodeFor(res.Status)
}

func (a *app) startFailed(err error) int {
	metrics.RecordPreflightFailure(err)
	a.log.Warn("backup not started", zap.Error(err))
	fmt.Println(tui.ErrorText(err.Error()))
	if errors.Is(err, context.Canceled) {
		return exitCancelled
	}
	return exitFailed
}

func exitCodeFor(s engine.Status) int {
	switch s {
	case engine.StatusSuccess:
		return exitOK
	case engine.StatusCompletedWithErrors:
		return exitWithErrors
	case engine.StatusCancelled:
		return exitCancelled
	default:
		return exitFailed
	}
}

func printAlreadyRunning(err *system.AlreadyRunningError) {
	fmt.Println("⚠️  " + err.Error())
	fmt.Println()

	// Pretty error display
	fmt.Println("┌─────────────────────────────────────────┐")
	fmt.Println("│          🚫 Backup In Progress          │")
	fmt.Println("├─────────────────────────────────────────┤")
	fmt.Println("│                                         │")
	fmt.Println("│  Another roboclone process is already   │")
	fmt.Println("│  running. Please wait for it to         │")
	fmt.Println("│  complete before starting a new one.    │")
	fmt.Println("│                                         │")
	fmt.Println("│  💡 If you're sure no other roboclone   │")
	fmt.Println("│     is running, remove the lock file:   │")
	fmt.Println("└─────────────────────────────────────────┘")
	fmt.Printf("   %s\n", err.Path)
	fmt.Println()
}
