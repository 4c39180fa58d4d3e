package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"hunt-cli/internal/app"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

type screen int

const (
	screenStatus screen = iota
	screenDrafts
	screenWizard
	screenHelp
)

// logEntry is one line in the activity pane.
type logEntry struct {
	ID    string
	Time  time.Time
	Level string
	Text  string
}

type statusMsg struct{ st app.ProcessStatus }
type spinMsg struct{}
type healthMsg struct {
	info app.HealthInfo
	err  error
}
type activeProfileMsg struct {
	profile app.SearchProfile
	err     error
}
type draftsMsg struct {
	drafts []app.Draft
	err    error
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// MainModel is the hunt control screen: the current process status, the
// confirm-before-acting flow for cancel/restart/rewrite, and an activity log.
// The supervisor owns all process state; the model only renders it and
// forwards key presses.
type MainModel struct {
	sup      *app.Supervisor
	client   *app.BackendClient
	draftAPI *app.BackendClient
	history  *app.HistoryStore

	theme Theme
	help  helpModel
	keys  keyMap

	width  int
	height int
	ready  bool

	screen screen

	statusCh chan app.ProcessStatus
	status   app.ProcessStatus

	health     string
	profile    app.SearchProfile
	hasProfile bool

	entries []logEntry
	logVP   viewport.Model

	drafts    []app.Draft
	draftsErr error

	wizard *ProfileWizard

	spinnerPos int
	lastPhase  app.Phase
}

// NewMainModel wires the supervisor's observer into the bubbletea loop: the
// observer pushes snapshots onto a channel and a wait command turns them into
// messages, so status updates arrive on the UI goroutine like any other event.
func NewMainModel(client, draftAPI *app.BackendClient, logger *app.Logger, pollInterval time.Duration) *MainModel {
	if draftAPI == nil {
		draftAPI = client
	}
	t := NewTheme()
	m := &MainModel{
		client:   client,
		draftAPI: draftAPI,
		theme:    t,
		help:     newHelpModel(t),
		keys:     defaultKeyMap(),
		width:    100,
		height:   30,
		screen:   screenStatus,
		statusCh: make(chan app.ProcessStatus, 16),
	}
	m.sup = app.NewSupervisor(client, func(st app.ProcessStatus) {
		select {
		case m.statusCh <- st:
		default:
			// Drop if the UI can't keep up; the next snapshot supersedes it.
		}
	}, logger, pollInterval)
	m.status = m.sup.Status()
	m.lastPhase = m.status.Phase

	m.entries = append(m.entries, logEntry{
		ID:    uuid.NewString(),
		Time:  time.Now(),
		Level: "info",
		Text:  "hunt ready. c cancels, r restarts, w rewrites. ? shows help.",
	})
	return m
}

// WithHistory attaches a local run-history store. Status transitions and
// confirmed commands are recorded as they happen; a nil store disables it.
func (m *MainModel) WithHistory(h *app.HistoryStore) *MainModel {
	m.history = h
	return m
}

func (m *MainModel) Init() tea.Cmd {
	return tea.Batch(m.waitStatus(), m.probeHealth(), m.loadActiveProfile())
}

func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetWidth(m.width)

		logH := maxInt(4, m.height-14)
		logW := maxInt(20, m.width-4)
		if !m.ready {
			m.logVP = viewport.New(logW, logH)
			m.logVP.Style = lipgloss.NewStyle()
			m.ready = true
		} else {
			m.logVP.Width = logW
			m.logVP.Height = logH
		}
		m.updateLogViewport()
		if m.wizard != nil {
			var cmd tea.Cmd
			var updated tea.Model
			updated, cmd = m.wizard.Update(msg)
			m.wizard = updated.(*ProfileWizard)
			return m, cmd
		}
		return m, nil

	case statusMsg:
		m.status = msg.st
		if msg.st.Phase != m.lastPhase {
			m.lastPhase = msg.st.Phase
			m.logf(phaseLevel(msg.st.Phase), "process %s", msg.st.Phase)
			if m.history != nil {
				st := msg.st
				go func() { _ = m.history.RecordStatus(context.Background(), st) }()
			}
		}
		return m, m.waitStatus()

	case spinMsg:
		m.spinnerPos = (m.spinnerPos + 1) % len(spinnerFrames)
		if m.sup.Busy() || m.sup.PollingActive() {
			return m, m.spinTick()
		}
		return m, nil

	case healthMsg:
		if msg.err != nil {
			m.health = "unreachable"
			m.logf("warn", "backend health check failed: %v", msg.err)
		} else {
			m.health = msg.info.Status
			if msg.info.Version != "" {
				m.health += " " + msg.info.Version
			}
		}
		return m, nil

	case activeProfileMsg:
		if msg.err == nil {
			m.profile = msg.profile
			m.hasProfile = true
			m.logf("info", "active profile: %s", msg.profile.Name)
		}
		return m, nil

	case draftsMsg:
		m.drafts = msg.drafts
		m.draftsErr = msg.err
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.wizard != nil {
		var cmd tea.Cmd
		var updated tea.Model
		updated, cmd = m.wizard.Update(msg)
		m.wizard = updated.(*ProfileWizard)
		return m, cmd
	}

	var cmd tea.Cmd
	m.logVP, cmd = m.logVP.Update(msg)
	return m, cmd
}

func (m *MainModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The wizard owns the keyboard while it is up.
	if m.screen == screenWizard && m.wizard != nil {
		updated, cmd := m.wizard.Update(msg)
		m.wizard = updated.(*ProfileWizard)
		if m.wizard.Done() {
			if m.wizard.Saved() {
				m.profile = m.wizard.Profile()
				m.hasProfile = true
				m.logf("info", "profile %q saved and activated", m.profile.Name)
			}
			m.wizard = nil
			m.screen = screenStatus
		}
		return m, cmd
	}

	switch m.screen {
	case screenHelp:
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Quit) {
			m.screen = screenStatus
		}
		return m, nil

	case screenDrafts:
		switch {
		case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Drafts):
			m.screen = screenStatus
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Help):
		m.screen = screenHelp
		return m, nil

	case key.Matches(msg, m.keys.Drafts):
		m.screen = screenDrafts
		m.drafts = nil
		m.draftsErr = nil
		return m, m.loadDrafts()

	case key.Matches(msg, m.keys.Profiles):
		m.wizard = NewProfileWizard(m.client, m.theme)
		m.screen = screenWizard
		return m, m.wizard.Init()

	case key.Matches(msg, m.keys.Cancel):
		if m.sup.Busy() || !m.status.CanCancel {
			return m, nil
		}
		m.sup.RequestAction(app.ActionCancel)
		return m, nil

	case key.Matches(msg, m.keys.Restart):
		if m.sup.Busy() || !m.status.CanRestart {
			return m, nil
		}
		if m.hasProfile {
			m.sup.RequestRestart(m.profile.RestartParams())
		} else {
			m.sup.RequestRestart(nil)
		}
		return m, nil

	case key.Matches(msg, m.keys.Rewrite):
		if m.sup.Busy() {
			return m, nil
		}
		m.sup.RequestAction(app.ActionRewrite)
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		if m.sup.Pending() == app.ActionNone {
			return m, nil
		}
		kind := m.sup.Pending()
		m.sup.ConfirmPending(context.Background())
		m.logf("info", "%s confirmed", kind)
		if m.history != nil {
			detail := ""
			if kind == app.ActionRestart && m.hasProfile {
				detail = m.profile.Name
			}
			go func() { _ = m.history.RecordCommand(context.Background(), kind, detail) }()
		}
		return m, m.spinTick()

	case key.Matches(msg, m.keys.Dismiss):
		if m.sup.Pending() != app.ActionNone {
			m.sup.CancelPending()
			m.logf("info", "action dismissed")
		}
		return m, nil

	case msg.Type == tea.KeyUp:
		m.logVP.LineUp(1)
		return m, nil
	case msg.Type == tea.KeyDown:
		m.logVP.LineDown(1)
		return m, nil
	case msg.Type == tea.KeyPgUp:
		m.logVP.ViewUp()
		return m, nil
	case msg.Type == tea.KeyPgDown:
		m.logVP.ViewDown()
		return m, nil
	}

	return m, nil
}

func (m *MainModel) quit() (tea.Model, tea.Cmd) {
	m.sup.Close()
	if m.history != nil {
		_ = m.history.Close()
	}
	return m, tea.Quit
}

func (m *MainModel) View() string {
	if !m.ready {
		return "…"
	}

	switch m.screen {
	case screenHelp:
		return m.help.View()
	case screenWizard:
		if m.wizard != nil {
			return m.wizard.View()
		}
	case screenDrafts:
		return m.renderDrafts()
	}

	top := m.renderTopBar()
	status := m.renderStatusPane()
	log := m.theme.Pane.Width(maxInt(24, m.width-2)).Render(
		m.theme.PaneTitle.Render("activity") + "\n" + m.logVP.View())
	footer := m.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, top, status, log, footer)
}

func (m *MainModel) renderTopBar() string {
	badge := m.theme.TopBarBadge.Render(" hunt ")
	health := m.health
	if health == "" {
		health = "checking…"
	}
	meta := m.theme.TopBarMeta.Render("backend: " + health)
	profile := ""
	if m.hasProfile {
		profile = m.theme.TopBarMeta.Render("  profile: " + m.profile.Name)
	}
	return m.theme.TopBar.Render(badge + " " + meta + profile)
}

func (m *MainModel) renderStatusPane() string {
	var b strings.Builder

	b.WriteString(m.theme.PaneTitle.Render("process"))
	b.WriteString("\n")

	phase := string(m.status.Phase)
	if m.sup.Busy() {
		phase = spinnerFrames[m.spinnerPos] + " working…"
		b.WriteString(m.theme.Spinner.Render(phase))
	} else {
		b.WriteString(m.phaseStyle(m.status.Phase).Render(phase))
	}
	b.WriteString("\n")

	b.WriteString(m.theme.TopBarMeta.Render(fmt.Sprintf(
		"as of %s  |  polling %s",
		m.status.Timestamp.Format("15:04:05"),
		m.pollingLabel(),
	)))
	b.WriteString("\n")

	if pending := m.sup.Pending(); pending != app.ActionNone {
		prompt := fmt.Sprintf("%s the hunt? %s confirm / %s dismiss",
			capitalize(string(pending)),
			m.theme.ConfirmKey.Render("y"),
			m.theme.ConfirmKey.Render("n"))
		b.WriteString(m.theme.Confirm.Render(prompt))
		b.WriteString("\n")
	}

	return m.theme.Pane.Width(maxInt(24, m.width-2)).Render(b.String())
}

func (m *MainModel) renderDrafts() string {
	var b strings.Builder
	b.WriteString(m.theme.TopBarTitle.Render("draft letters"))
	b.WriteString("\n\n")

	switch {
	case m.draftsErr != nil:
		b.WriteString(m.theme.LogErr.Render(fmt.Sprintf("could not load drafts: %v", m.draftsErr)))
	case m.drafts == nil:
		b.WriteString(m.theme.TopBarMeta.Render("loading…"))
	case len(m.drafts) == 0:
		b.WriteString(m.theme.TopBarMeta.Render("no drafts yet. Run a hunt first."))
	default:
		for _, d := range m.drafts {
			b.WriteString(fmt.Sprintf("  %s  %s — %s\n",
				m.theme.TopBarMeta.Render(fmt.Sprintf("#%d", d.ID)),
				m.theme.TopBarTitle.Render(d.Company),
				d.Title))
		}
	}

	b.WriteString("\n")
	b.WriteString(m.theme.Footer.Render("esc back | q quit"))
	return b.String()
}

func (m *MainModel) renderFooter() string {
	parts := make([]string, 0, 8)
	for _, kb := range m.keys.ShortHelp() {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return m.theme.Footer.Render(strings.Join(parts, " | "))
}

func (m *MainModel) pollingLabel() string {
	switch {
	case m.sup.PollingActive():
		return "on"
	case m.sup.PollingEnabled():
		return "armed"
	default:
		return "off"
	}
}

func (m *MainModel) phaseStyle(p app.Phase) lipgloss.Style {
	switch p {
	case app.PhaseRunning, app.PhasePaused:
		return m.theme.PhaseLive
	case app.PhaseCompleted:
		return m.theme.PhaseDone
	case app.PhaseError:
		return m.theme.PhaseErr
	default:
		return m.theme.PhaseIdle
	}
}

func (m *MainModel) logf(level, format string, args ...any) {
	m.entries = append(m.entries, logEntry{
		ID:    uuid.NewString(),
		Time:  time.Now(),
		Level: level,
		Text:  fmt.Sprintf(format, args...),
	})
	if len(m.entries) > 200 {
		m.entries = m.entries[len(m.entries)-200:]
	}
	m.updateLogViewport()
	m.logVP.GotoBottom()
}

func (m *MainModel) updateLogViewport() {
	if !m.ready {
		return
	}
	var b strings.Builder
	for _, e := range m.entries {
		style := m.theme.LogInfo
		switch e.Level {
		case "warn":
			style = m.theme.LogWarn
		case "error":
			style = m.theme.LogErr
		}
		b.WriteString(style.Render(fmt.Sprintf("%s  %s", e.Time.Format("15:04:05"), e.Text)))
		b.WriteString("\n")
	}
	m.logVP.SetContent(strings.TrimRight(b.String(), "\n"))
}

func (m *MainModel) waitStatus() tea.Cmd {
	ch := m.statusCh
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return statusMsg{st: st}
	}
}

func (m *MainModel) spinTick() tea.Cmd {
	d := 90 * time.Millisecond
	if os.Getenv("HUNT_REDUCE_MOTION") == "1" {
		d = 250 * time.Millisecond
	}
	return tea.Tick(d, func(_ time.Time) tea.Msg { return spinMsg{} })
}

func (m *MainModel) probeHealth() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		info, err := client.Health(ctx)
		return healthMsg{info: info, err: err}
	}
}

func (m *MainModel) loadActiveProfile() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		p, err := client.ActiveProfile(ctx)
		return activeProfileMsg{profile: p, err: err}
	}
}

func (m *MainModel) loadDrafts() tea.Cmd {
	client := m.draftAPI
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		drafts, err := client.ListDrafts(ctx, 50)
		return draftsMsg{drafts: drafts, err: err}
	}
}

func phaseLevel(p app.Phase) string {
	switch p {
	case app.PhaseError:
		return "error"
	case app.PhaseCancelled:
		return "warn"
	default:
		return "info"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
