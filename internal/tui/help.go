package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type helpModel struct {
	keys  keyMap
	theme Theme
	width int
}

func newHelpModel(theme Theme) helpModel {
	return helpModel{
		keys:  defaultKeyMap(),
		theme: theme,
		width: 80,
	}
}

func (m *helpModel) SetWidth(width int) {
	m.width = width
}

func (m helpModel) View() string {
	var b strings.Builder

	b.WriteString(m.theme.TopBarTitle.Render("hunt help"))
	b.WriteString("\n\n")

	b.WriteString(m.theme.PaneTitle.Render("process"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s  cancel the running hunt\n", m.theme.ConfirmKey.Render("c")))
	b.WriteString(fmt.Sprintf("  %s  restart with the active profile\n", m.theme.ConfirmKey.Render("r")))
	b.WriteString(fmt.Sprintf("  %s  rewrite drafts from the last search\n", m.theme.ConfirmKey.Render("w")))
	b.WriteString(fmt.Sprintf("  %s  confirm the pending action\n", m.theme.ConfirmKey.Render("y/enter")))
	b.WriteString(fmt.Sprintf("  %s  dismiss the pending action\n", m.theme.ConfirmKey.Render("n/esc")))

	b.WriteString("\n")

	b.WriteString(m.theme.PaneTitle.Render("browse"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s  draft letters\n", m.theme.ConfirmKey.Render("d")))
	b.WriteString(fmt.Sprintf("  %s  profile wizard\n", m.theme.ConfirmKey.Render("p")))
	b.WriteString(fmt.Sprintf("  %s  scroll the activity log\n", m.theme.ConfirmKey.Render("up/down")))

	b.WriteString("\n")
	b.WriteString(m.theme.Footer.Render("q quit | ? close help"))

	return b.String()
}

type keyMap struct {
	Quit     key.Binding
	Cancel   key.Binding
	Restart  key.Binding
	Rewrite  key.Binding
	Confirm  key.Binding
	Dismiss  key.Binding
	Drafts   key.Binding
	Profiles key.Binding
	Help     key.Binding
	Back     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "cancel hunt"),
		),
		Restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restart hunt"),
		),
		Rewrite: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "rewrite drafts"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "enter"),
			key.WithHelp("y/enter", "confirm"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n/esc", "dismiss"),
		),
		Drafts: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "drafts"),
		),
		Profiles: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "profiles"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Cancel, k.Restart, k.Rewrite, k.Drafts, k.Profiles, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Cancel, k.Restart, k.Rewrite, k.Confirm, k.Dismiss},
		{k.Drafts, k.Profiles, k.Help, k.Quit},
	}
}
