package tui

import (
	"fmt"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"roboclone/internal/engine"
	"roboclone/internal/state"
)

// Reporter forwards engine reports into a running Bubble Tea program.
type Reporter struct {
	send func(tea.Msg)
}

// NewReporter sends every report through send, normally (*tea.Program).Send.
func NewReporter(send func(tea.Msg)) *Reporter {
	return &Reporter{send: send}
}

func (r *Reporter) ReportProgress(s engine.ProgressState) {
	r.send(state.ProgressMsg{State: s})
}

func (r *Reporter) ReportResult(res engine.JobResult) {
	r.send(state.ResultMsg{Result: res})
}

func (r *Reporter) ReportCountdown(s engine.CountdownState) {
	r.send(state.CountdownMsg{State: s})
}

func (r *Reporter) ReportPostAction(o engine.Outcome) {
	r.send(state.PostActionMsg{Outcome: o})
}

func (r *Reporter) ReportWarning(err error) {
	r.send(state.WarningMsg{Err: err})
}

// PlainReporter prints one line per whole percent of progress and one per event.
// It serves --plain runs and terminals that cannot host the full screen.
type PlainReporter struct {
	out io.Writer

	mu          sync.Mutex
	lastPercent int
}

// NewPlainReporter writes to out.
func NewPlainReporter(out io.Writer) *PlainReporter {
	return &PlainReporter{out: out, lastPercent: -1}
}

func (p *PlainReporter) ReportProgress(s engine.ProgressState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pct := int(s.Percent)
	if pct <= p.lastPercent {
		return
	}
	p.lastPercent = pct

	m := Model{progress: s}
	fmt.Fprintf(p.out, "%s %3d%%  %s\n", plainDim.Render("progress"), pct, m.renderCounts())
}

func (p *PlainReporter) ReportResult(res engine.JobResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastPercent = -1

	fmt.Fprintln(p.out, ResultLine(res))
	fmt.Fprintf(p.out, "   exit code %d: %s\n", res.ExitCode, res.ExitDetail)
	fmt.Fprintf(p.out, "   log: %s\n", res.LogFilePath)
}

func (p *PlainReporter) ReportCountdown(s engine.CountdownState) {
	switch {
	case s.Cancelled:
		fmt.Fprintln(p.out, plainWarn.Render(actionLabel(s.Action)+" cancelled"))
	case s.Remaining > 0:
		fmt.Fprintf(p.out, "%s in %ds (Ctrl+C to cancel)\n", actionLabel(s.Action), s.Remaining)
	}
}

func (p *PlainReporter) ReportPostAction(o engine.Outcome) {
	if o.State == engine.StateExecuted && o.Err == nil {
		fmt.Fprintln(p.out, plainOK.Render(actionLabel(o.Action)+" now"))
	}
}

func (p *PlainReporter) ReportWarning(err error) {
	fmt.Fprintln(p.out, plainWarn.Render("⚠️  "+err.Error()))
}

// ResultLine is the one-line verdict printed once a job has finished.
func ResultLine(res engine.JobResult) string {
	var line string
	switch res.Status {
	case engine.StatusSuccess:
		line = plainOK.Render("✅ Backup complete")
	case engine.StatusCompletedWithErrors:
		line = plainWarn.Render("⚠️  Backup completed with warnings")
	case engine.StatusCancelled:
		line = plainWarn.Render("🛑 Backup cancelled")
	default:
		line = plainErr.Render("❌ Backup failed")
	}
	if res.DryRun {
		line += plainDim.Render(" (dry run)")
	}
	return line
}
