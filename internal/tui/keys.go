package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists the keys the progress screen reacts to.
type KeyMap struct {
	CancelCountdown key.Binding
	CancelJob       key.Binding
	Quit            key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		CancelCountdown: key.NewBinding(
			key.WithKeys("c", "esc"),
			key.WithHelp("c/esc", "cancel post-action"),
		),
		CancelJob: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "cancel copy"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "enter"),
			key.WithHelp("q", "quit"),
		),
	}
}

// helpLine joins the help text of the enabled bindings.
func helpLine(bindings ...key.Binding) string {
	var s string
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		if s != "" {
			s += " • "
		}
		s += h.Key + ": " + h.Desc
	}
	return s
}
