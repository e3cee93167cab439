// Package tui implements the full-screen progress display using Bubble Tea.
//
// The model never drives the copy itself. The engine reports progress, the result
// and the post-action countdown through Reporter, which turns each report into a
// message for the running program. Keys flow back to the engine through Controller.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"roboclone/internal/engine"
	"roboclone/internal/state"
)

// maxWarnings is how many recent warnings stay on screen.
const maxWarnings = 3

// Controller is the part of the engine the screen can act on.
type Controller interface {
	Cancel() bool
	CancelCountdown() bool
}

// Model represents the progress screen state.
type Model struct {
	keys KeyMap
	ctrl Controller

	req     engine.CopyRequest
	action  engine.PostAction
	logPath string

	width  int
	height int

	// Progress tracking
	progress   engine.ProgressState
	cylonFrame int // Current frame number for progress bar animation (0-19)

	started   bool  // tool launched, pre-flight is over
	startErr  error // pre-flight or launch failure
	result    *engine.JobResult
	countdown *engine.CountdownState
	outcome   *engine.Outcome
	warnings  []string

	canceling         bool // copy cancel requested, waiting for the tool to exit
	actionCancelled   bool // post-action cancel requested
	postActionSettled bool
}

// NewModel returns the screen for a job. An empty logPath means the job is still in
// pre-flight and JobStartedMsg or StartFailedMsg will follow.
func NewModel(ctrl Controller, req engine.CopyRequest, action engine.PostAction, logPath string) Model {
	return Model{
		started:           logPath != "",
		keys:              DefaultKeyMap(),
		ctrl:              ctrl,
		req:               req,
		action:            action,
		logPath:           logPath,
		width:             80,
		height:            24,
		postActionSettled: action == engine.ActionNone,
	}
}

func cylonTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return state.CylonAnimateMsg{}
	})
}

// Init starts the progress bar animation.
func (m Model) Init() tea.Cmd {
	return cylonTick()
}

// Update handles engine reports and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case state.CylonAnimateMsg:
		m.cylonFrame = (m.cylonFrame + 1) % 20 // 20-frame cycle
		if !m.finished() {
			return m, cylonTick()
		}
		return m, nil

	case state.JobStartedMsg:
		m.started = true
		m.logPath = msg.LogPath
		return m, nil

	case state.StartFailedMsg:
		m.startErr = msg.Err
		m.canceling = false
		m.postActionSettled = true
		return m, nil

	case state.ProgressMsg:
		m.progress = msg.State
		return m, nil

	case state.ResultMsg:
		res := msg.Result
		m.result = &res
		m.progress = res.Progress
		m.canceling = false
		// A cancelled copy never counts down.
		if res.Status == engine.StatusCancelled {
			m.postActionSettled = true
		}
		return m, nil

	case state.CountdownMsg:
		cd := msg.State
		m.countdown = &cd
		return m, nil

	case state.PostActionMsg:
		o := msg.Outcome
		m.outcome = &o
		m.postActionSettled = true
		return m, nil

	case state.WarningMsg:
		if msg.Err != nil {
			m.warnings = append(m.warnings, msg.Err.Error())
			if len(m.warnings) > maxWarnings {
				m.warnings = m.warnings[len(m.warnings)-maxWarnings:]
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.CancelJob):
		if !m.finished() {
			if !m.canceling && m.ctrl != nil {
				m.ctrl.Cancel()
			}
			m.canceling = true
			m.actionCancelled = m.action != engine.ActionNone
			return m, nil
		}
		m.cancelPostAction()
		return m, tea.Quit

	case key.Matches(msg, m.keys.CancelCountdown):
		m.cancelPostAction()
		return m, nil

	case key.Matches(msg, m.keys.Quit):
		if !m.finished() {
			return m, nil
		}
		// Leaving while the countdown runs cancels it.
		m.cancelPostAction()
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) cancelPostAction() {
	if m.postActionSettled || m.actionCancelled {
		return
	}
	if m.ctrl != nil && m.ctrl.CancelCountdown() {
		m.actionCancelled = true
	}
}

// finished reports whether the copy has ended or will never run.
func (m Model) finished() bool {
	return m.result != nil || m.startErr != nil
}

// countdownActive reports whether a post-action is still pending and cancellable.
func (m Model) countdownActive() bool {
	return !m.postActionSettled && !m.actionCancelled
}
