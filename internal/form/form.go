// Package form asks for the backup job with a tview form when the folders were
// not given on the command line.
package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"roboclone/internal/config"
	"roboclone/internal/engine"
	"roboclone/internal/version"
)

// ErrCancelled is returned by Run when the user left the form without starting.
var ErrCancelled = errors.New("setup cancelled")

// Values are the fields of the form as typed.
type Values struct {
	Source     string
	Target     string
	Exclusions string // ';'-separated, as in the --exclude flag
	DryRun     bool
	PostAction engine.PostAction
	Notify     bool
}

// FromConfig pre-fills the form from flags and environment.
func FromConfig(cfg *config.Config) Values {
	return Values{
		Source:     cfg.Source,
		Target:     cfg.Target,
		Exclusions: strings.Join(cfg.Exclusions, "; "),
		DryRun:     cfg.DryRun,
		PostAction: cfg.PostAction,
		Notify:     cfg.Notify,
	}
}

// Apply checks the values and copies them into cfg. cfg is left alone on error.
func (v Values) Apply(cfg *config.Config) error {
	source := strings.TrimSpace(v.Source)
	target := strings.TrimSpace(v.Target)
	switch {
	case source == "" && target == "":
		return errors.New("enter a source and a target folder")
	case source == "":
		return errors.New("enter a source folder")
	case target == "":
		return errors.New("enter a target folder")
	}

	cfg.Source = source
	cfg.Target = target
	cfg.Exclusions = engine.ParseExclusions(v.Exclusions)
	cfg.DryRun = v.DryRun
	cfg.PostAction = v.PostAction
	cfg.Notify = v.Notify
	return nil
}

// actionOptions are the drop-down entries, in engine.PostActions order.
func actionOptions() []string {
	opts := make([]string, len(engine.PostActions))
	for i, a := range engine.PostActions {
		opts[i] = a.String()
	}
	return opts
}

func actionIndex(a engine.PostAction) int {
	for i, candidate := range engine.PostActions {
		if candidate == a {
			return i
		}
	}
	return 0
}

// build lays out the form. Every edit lands in v; start and quit are the buttons.
func build(v *Values, start, quit func()) *tview.Form {
	f := tview.NewForm().
		AddInputField("Source", v.Source, 60, nil, func(text string) { v.Source = text }).
		AddInputField("Target", v.Target, 60, nil, func(text string) { v.Target = text }).
		AddInputField("Exclusions", v.Exclusions, 60, nil, func(text string) { v.Exclusions = text }).
		AddCheckbox("Dry run", v.DryRun, func(checked bool) { v.DryRun = checked }).
		AddDropDown("After copy", actionOptions(), actionIndex(v.PostAction), func(_ string, i int) {
			if i >= 0 && i < len(engine.PostActions) {
				v.PostAction = engine.PostActions[i]
			}
		}).
		AddCheckbox("Notify when done", v.Notify, func(checked bool) { v.Notify = checked }).
		AddButton("Start", start).
		AddButton("Quit", quit)

	f.SetBorder(true).
		SetTitle(fmt.Sprintf(" %s %s ", version.AppName, version.AppVersion)).
		SetTitleAlign(tview.AlignLeft)
	f.SetCancelFunc(quit)
	return f
}

// Run shows the form and fills cfg when the user presses Start.
// It returns ErrCancelled when the user quits instead.
func Run(cfg *config.Config) error {
	app := tview.NewApplication()
	values := FromConfig(cfg)
	started := false

	status := tview.NewTextView().SetDynamicColors(true)
	status.SetText("[gray]Separate exclusions with ';'. Tab moves between fields.")

	start := func() {
		if err := values.Apply(cfg); err != nil {
			status.SetText("[red]" + tview.Escape(err.Error()))
			return
		}
		started = true
		app.Stop()
	}
	f := build(&values, start, app.Stop)

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(f, 0, 1, true).
		AddItem(status, 1, 0, false)

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC {
			app.Stop()
			return nil
		}
		return event
	})

	if err := app.SetRoot(flex, true).EnableMouse(true).Run(); err != nil {
		return fmt.Errorf("setup form: %v", err)
	}
	if !started {
		return ErrCancelled
	}
	return nil
}
