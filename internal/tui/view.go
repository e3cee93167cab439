package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"roboclone/internal/drives"
	"roboclone/internal/engine"
	"roboclone/internal/version"
)

// View renders the progress or result screen.
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(m.renderHeader() + "\n\n")
	s.WriteString(m.renderJobInfo() + "\n")

	switch {
	case m.startErr != nil:
		s.WriteString(m.renderStartFailed())
	case m.result == nil:
		s.WriteString(m.renderRunning())
	default:
		s.WriteString(m.renderResult())
	}

	for _, w := range m.warnings {
		s.WriteString("\n" + warningStyle.Render("⚠️  "+w))
	}

	s.WriteString("\n" + helpStyle.Render(m.renderHelp()))

	// Center the content with a border
	content := borderStyle.Width(max(m.width-4, 40)).Render(s.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

// Render header with the application name
func (m Model) renderHeader() string {
	title := titleStyle.Render("🤖 " + version.AppName)
	subtitle := subtitleStyle.Render(version.GetSubtitle())
	return title + "\n" + subtitle
}

func (m Model) renderJobInfo() string {
	var s strings.Builder
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}

	row("📂 Source", m.req.Source)
	row("💾 Target", m.req.Target)
	if len(m.req.Exclusions) > 0 {
		row("🚫 Skip", strings.Join(m.req.Exclusions, "; "))
	}
	if m.action != engine.ActionNone {
		row("⏻ After", actionLabel(m.action))
	}
	if m.logPath != "" {
		row("📋 Log", m.logPath)
	}
	return s.String()
}

func (m Model) renderRunning() string {
	var s strings.Builder

	switch {
	case m.canceling:
		s.WriteString(titleStyle.Render("🛑 Canceling Copy") + "\n\n")
	case !m.started:
		s.WriteString(titleStyle.Render("🔍 Checking Free Space") + "\n\n")
		s.WriteString(m.renderProgressBar() + "\n")
		return s.String()
	case m.req.DryRun:
		s.WriteString(titleStyle.Render("🧪 Dry Run in Progress") + "\n\n")
	default:
		s.WriteString(titleStyle.Render("🔄 Mirroring in Progress") + "\n\n")
	}

	if !m.canceling {
		s.WriteString(m.renderProgressBar() + "\n\n")
	}
	s.WriteString(progressStyle.Render(m.renderCounts()) + "\n")

	if f := m.progress.CurrentFile; f != "" {
		s.WriteString(lipgloss.NewStyle().Foreground(dimColor).Render(truncatePath(f, max(m.width-16, 30))) + "\n")
	}
	return s.String()
}

func (m Model) renderCounts() string {
	files := fmt.Sprintf("%d files", m.progress.FilesProcessed)
	if m.progress.FilesExpected > 0 {
		files = fmt.Sprintf("%d / %d files", m.progress.FilesProcessed, m.progress.FilesExpected)
	}
	parts := []string{files, drives.FormatBytes(m.progress.BytesProcessed)}
	if m.progress.Errors > 0 {
		parts = append(parts, fmt.Sprintf("%d errors", m.progress.Errors))
	}
	if m.progress.Extras > 0 {
		parts = append(parts, fmt.Sprintf("%d extras", m.progress.Extras))
	}
	return strings.Join(parts, " • ")
}

func (m Model) renderResult() string {
	var s strings.Builder
	res := m.result

	s.WriteString(m.renderProgressBar() + "\n\n")

	var style lipgloss.Style
	var headline string
	switch res.Status {
	case engine.StatusSuccess:
		style, headline = successStyle, "✅ Backup complete"
	case engine.StatusCompletedWithErrors:
		style, headline = warningStyle, "⚠️  Backup completed with warnings"
	case engine.StatusCancelled:
		style, headline = warningStyle, "🛑 Backup cancelled"
	default:
		style, headline = errorStyle, "❌ Backup failed"
	}
	if res.DryRun {
		headline += " (dry run)"
	}
	s.WriteString(style.Render(headline) + "\n\n")

	detail := fmt.Sprintf("Exit code %d: %s\n%s in %s",
		res.ExitCode, res.ExitDetail, m.renderCounts(), res.Duration().Round(time.Second))
	if res.SummarySeen {
		f := res.Summary.Files
		detail += fmt.Sprintf("\nCopied %d • Skipped %d • Mismatch %d • Failed %d • Extras %d",
			f.Copied, f.Skipped, f.Mismatch, f.Failed, f.Extras)
	}
	s.WriteString(infoBoxStyle.Render(detail) + "\n")

	if line := m.renderPostAction(); line != "" {
		s.WriteString("\n" + line + "\n")
	}
	return s.String()
}

func (m Model) renderStartFailed() string {
	headline := "❌ Backup not started"
	if errors.Is(m.startErr, context.Canceled) {
		headline = "🛑 Backup cancelled"
	}
	return errorStyle.Render(headline) + "\n\n" + infoBoxStyle.Render(m.startErr.Error()) + "\n"
}

func (m Model) renderPostAction() string {
	switch {
	case m.outcome != nil && m.outcome.Err != nil:
		return errorStyle.Render(fmt.Sprintf("%s failed: %v", actionLabel(m.outcome.Action), m.outcome.Err))
	case m.outcome != nil && m.outcome.State == engine.StateExecuted:
		return successStyle.Render(actionLabel(m.outcome.Action) + " now")
	case m.actionCancelled || (m.countdown != nil && m.countdown.Cancelled):
		return warningStyle.Render(actionLabel(m.action) + " cancelled")
	case m.countdown != nil && m.countdown.Remaining > 0:
		return warningStyle.Render(fmt.Sprintf("⏻ %s in %ds", actionLabel(m.countdown.Action), m.countdown.Remaining))
	}
	return ""
}

// Render progress bar with cylon animation
func (m Model) renderProgressBar() string {
	width := 50

	fraction := m.progress.Percent / 100
	percentage := fmt.Sprintf("%.2f%%", m.progress.Percent)
	filled := int(fraction * float64(width))

	// Calculate cylon position (sweeps back and forth)
	cylonPos := m.cylonFrame
	if cylonPos >= 10 {
		cylonPos = 20 - cylonPos // Reverse direction for second half
	}
	cylonPos = cylonPos * width / 10 // Scale to progress bar width
	animate := !m.finished()

	var bar strings.Builder
	for i := 0; i < width; i++ {
		highlight := animate && (i == cylonPos || i == cylonPos+1)
		if i < filled {
			if highlight {
				bar.WriteString("▓") // Cylon highlight on filled area
			} else {
				bar.WriteString("█")
			}
		} else {
			if highlight {
				bar.WriteString("▒") // Cylon highlight on empty area
			} else {
				bar.WriteString("░")
			}
		}
	}

	return progressStyle.Render(fmt.Sprintf("Progress: [%s] %s", bar.String(), percentage))
}

func (m Model) renderHelp() string {
	keys := m.keys
	running := !m.finished()
	countdown := m.countdownActive()

	keys.CancelJob.SetEnabled(running && !m.canceling)
	keys.CancelCountdown.SetEnabled(countdown)
	keys.Quit.SetEnabled(!running)

	if running && m.canceling {
		return "Please wait for the copy to stop..."
	}
	return helpLine(keys.CancelJob, keys.CancelCountdown, keys.Quit)
}

func actionLabel(a engine.PostAction) string {
	switch a {
	case engine.ActionCloseApp:
		return "Close"
	case engine.ActionReboot:
		return "Reboot"
	case engine.ActionShutdown:
		return "Shutdown"
	default:
		return "Nothing"
	}
}

// truncatePath keeps the end of long paths, which is the part that changes.
func truncatePath(p string, width int) string {
	r := []rune(p)
	if len(r) <= width || width < 4 {
		return p
	}
	return "…" + string(r[len(r)-width+1:])
}
