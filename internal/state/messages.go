// Package state defines the messages the engine's reports become inside the
// Bubble Tea program.
package state

import "roboclone/internal/engine"

// CylonAnimateMsg is sent to trigger cylon animation updates during progress display.
// This message is sent periodically while a copy runs to create the sweeping animation.
type CylonAnimateMsg struct{}

// ProgressMsg carries the parser's latest view of the running copy.
type ProgressMsg struct {
	State engine.ProgressState
}

// ResultMsg is sent once when the copy has finished.
type ResultMsg struct {
	Result engine.JobResult
}

// CountdownMsg is sent on every post-action countdown tick.
type CountdownMsg struct {
	State engine.CountdownState
}

// PostActionMsg reports how the post-action countdown ended.
type PostActionMsg struct {
	Outcome engine.Outcome
}

// WarningMsg represents a non-fatal problem worth showing to the user
type WarningMsg struct {
	Err error
}

// JobStartedMsg is sent once the tool has been launched.
type JobStartedMsg struct {
	LogPath string
}

// StartFailedMsg is sent when pre-flight or launch failed and no copy will run.
type StartFailedMsg struct {
	Err error
}
