package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// CountdownSeconds is how long the user has to cancel a post-action.
	CountdownSeconds = 5

	defaultTickInterval = time.Second
)

// Executor performs a post-action. internal/system provides the OS implementation.
type Executor interface {
	Execute(ctx context.Context, action PostAction) error
}

// Scheduler runs the post-action countdown: Idle, then CountingDown, then either
// Executed or Cancelled. Executing and cancelling are mutually exclusive; whichever
// takes the lock first wins.
type Scheduler struct {
	exec     Executor
	ticks    int
	interval time.Duration
	log      *zap.Logger

	mu       sync.Mutex
	state    SchedulerState
	cancelCh chan struct{}
	done     chan struct{}
	outcome  Outcome
}

// NewScheduler returns a Scheduler with the standard five one-second ticks.
func NewScheduler(exec Executor, log *zap.Logger) *Scheduler {
	return newScheduler(exec, CountdownSeconds, defaultTickInterval, log)
}

func newScheduler(exec Executor, ticks int, interval time.Duration, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	if ticks <= 0 {
		ticks = CountdownSeconds
	}
	if interval <= 0 {
		interval = defaultTickInterval
	}
	return &Scheduler{exec: exec, ticks: ticks, interval: interval, log: log}
}

var errCountdownActive = errors.New("post-action countdown already running")

// Start begins the countdown for action. onTick receives Remaining from the full
// count down to 1, then a final state with Remaining 0 (executed) or Cancelled set.
// ActionNone is a no-op. Cancelling ctx cancels the countdown.
func (s *Scheduler) Start(ctx context.Context, action PostAction, onTick func(CountdownState)) error {
	if onTick == nil {
		onTick = func(CountdownState) {}
	}

	s.mu.Lock()
	if s.state == StateCountingDown {
		s.mu.Unlock()
		return errCountdownActive
	}
	if action == ActionNone {
		s.mu.Unlock()
		return nil
	}
	s.state = StateCountingDown
	s.cancelCh = make(chan struct{})
	s.done = make(chan struct{})
	s.outcome = Outcome{Action: action, State: StateCountingDown}
	cancelCh, done := s.cancelCh, s.done
	s.mu.Unlock()

	s.log.Info("post-action countdown started",
		zap.Stringer("action", action), zap.Int("seconds", s.ticks))

	go s.run(ctx, action, onTick, cancelCh, done)
	return nil
}

// Cancel stops a running countdown. It returns false when no countdown is running,
// including when the action has already fired.
func (s *Scheduler) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCountingDown {
		return false
	}
	s.state = StateCancelled
	s.outcome.State = StateCancelled
	close(s.cancelCh)
	return true
}

// State returns the current state.
func (s *Scheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Wait blocks until the countdown has ended and returns how it ended.
// Without a started countdown it returns an Idle outcome immediately.
func (s *Scheduler) Wait() Outcome {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

func (s *Scheduler) run(ctx context.Context, action PostAction, onTick func(CountdownState), cancelCh, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for remaining := s.ticks; remaining > 0; remaining-- {
		// A cancel that raced the ticker must not produce another tick.
		select {
		case <-cancelCh:
			s.cancelled(action, remaining, onTick)
			return
		default:
		}

		onTick(CountdownState{Action: action, Remaining: remaining})

		select {
		case <-ticker.C:
		case <-cancelCh:
			s.cancelled(action, remaining, onTick)
			return
		case <-ctx.Done():
			s.Cancel()
			s.cancelled(action, remaining, onTick)
			return
		}
	}

	// Claim the transition; a Cancel that got the lock first wins.
	s.mu.Lock()
	if s.state != StateCountingDown {
		s.mu.Unlock()
		s.cancelled(action, 0, onTick)
		return
	}
	s.state = StateExecuted
	s.outcome.State = StateExecuted
	s.mu.Unlock()

	onTick(CountdownState{Action: action, Remaining: 0})
	s.log.Info("executing post-action", zap.Stringer("action", action))

	if err := s.exec.Execute(ctx, action); err != nil {
		wrapped := &Error{Kind: KindPostActionFailed, Op: "post-action " + action.String(), Err: err}
		s.log.Error("post-action failed", zap.Stringer("action", action), zap.Error(err))

		s.mu.Lock()
		s.outcome.Err = wrapped
		s.mu.Unlock()
	}
}

func (s *Scheduler) cancelled(action PostAction, remaining int, onTick func(CountdownState)) {
	s.log.Info("post-action cancelled",
		zap.Stringer("action", action), zap.Int("remaining", remaining))
	onTick(CountdownState{Action: action, Remaining: remaining, Cancelled: true})
}
