// Package system carries out the host-level side of RoboClone.
//
// This package handles:
//   - Post-actions: closing the application, rebooting or shutting down the host
//   - Completion notifications
//   - Single instance checking so two processes never mirror at once
//   - Dependency checks for the copy tool and helper programs
package system

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"roboclone/internal/engine"
)

// CommandRunner runs an external program to completion.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// RunCommand is the default CommandRunner. Output is folded into the error.
func RunCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s: %v: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %v", name, err)
	}
	return nil
}

// PowerCommand returns the program and arguments that reboot or shut down a host
// running goos. ok is false for actions that are not power actions.
func PowerCommand(goos string, action engine.PostAction) (name string, args []string, ok bool) {
	switch action {
	case engine.ActionReboot:
		switch goos {
		case "windows":
			return "shutdown", []string{"/r", "/t", "0"}, true
		case "darwin":
			return "shutdown", []string{"-r", "now"}, true
		default:
			return "systemctl", []string{"reboot"}, true
		}
	case engine.ActionShutdown:
		switch goos {
		case "windows":
			return "shutdown", []string{"/s", "/t", "0"}, true
		case "darwin":
			return "shutdown", []string{"-h", "now"}, true
		default:
			return "systemctl", []string{"poweroff"}, true
		}
	}
	return "", nil, false
}

// Executor implements engine.Executor for the local host.
type Executor struct {
	run      CommandRunner
	closeApp func()
	goos     string
	elevated func() bool
	log      *zap.Logger
}

// NewExecutor returns an Executor. closeApp is called for ActionCloseApp and should
// make the application exit; it may be nil when there is nothing to close.
func NewExecutor(closeApp func(), log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{
		run:      RunCommand,
		closeApp: closeApp,
		goos:     runtime.GOOS,
		elevated: Elevated,
		log:      log,
	}
}

// Execute performs action once. Power commands are not retried.
func (e *Executor) Execute(ctx context.Context, action engine.PostAction) error {
	switch action {
	case engine.ActionNone:
		return nil
	case engine.ActionCloseApp:
		e.log.Info("closing application")
		if e.closeApp != nil {
			e.closeApp()
		}
		return nil
	}

	name, args, ok := PowerCommand(e.goos, action)
	if !ok {
		return fmt.Errorf("unsupported post-action %v", action)
	}

	if !e.elevated() {
		// Desktop sessions can usually power off without elevation, so only note it.
		e.log.Warn("not running elevated, power command may be refused", zap.Stringer("action", action))
	}

	e.log.Info("running power command",
		zap.Stringer("action", action),
		zap.String("command", name),
		zap.Strings("args", args))
	return e.run(ctx, name, args...)
}
