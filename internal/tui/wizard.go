package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hunt-cli/internal/app"
)

// profileSaver is the slice of the backend the wizard needs.
type profileSaver interface {
	SaveProfile(ctx context.Context, profile app.SearchProfile) (app.SearchProfile, error)
	SetActiveProfile(ctx context.Context, id string) error
}

const wizardSteps = 5

// ProfileWizard walks the user through a search profile: name, keywords,
// location, remote preference, job limit, then saves it as the active one.
type ProfileWizard struct {
	step      int
	profile   app.SearchProfile
	statusMsg string
	input     textinput.Model
	done      bool
	saved     bool
	client    profileSaver
	theme     Theme
	width     int
	height    int
	remoteSel int
}

func NewProfileWizard(client profileSaver, theme Theme) *ProfileWizard {
	w := &ProfileWizard{
		client: client,
		theme:  theme,
		input:  textinput.New(),
	}
	w.profile.MaxJobs = 15
	w.input.Placeholder = "Backend roles"
	w.input.Focus()
	return w
}

func (w *ProfileWizard) Init() tea.Cmd {
	return textinput.Blink
}

func (w *ProfileWizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			w.done = true
			return w, nil

		case "enter":
			switch w.step {
			case 0:
				name := strings.TrimSpace(w.input.Value())
				if name == "" {
					w.statusMsg = "Please name the profile"
					break
				}
				w.profile.Name = name
				w.advance()
			case 1:
				w.profile.Keywords = splitKeywords(w.input.Value())
				if len(w.profile.Keywords) == 0 {
					w.statusMsg = "At least one keyword is required"
					break
				}
				w.advance()
			case 2:
				w.profile.Location = strings.TrimSpace(w.input.Value())
				w.advance()
			case 3:
				w.profile.IncludeRemote = w.remoteSel == 0
				w.advance()
			case 4:
				if v := strings.TrimSpace(w.input.Value()); v != "" {
					n, err := strconv.Atoi(v)
					if err != nil || n < 1 || n > 100 {
						w.statusMsg = "Job limit must be a number between 1 and 100"
						break
					}
					w.profile.MaxJobs = n
				}
				w.advance()
			case wizardSteps:
				ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				saved, err := w.client.SaveProfile(ctx, w.profile)
				if err == nil {
					err = w.client.SetActiveProfile(ctx, saved.ID)
				}
				cancel()
				if err != nil {
					w.statusMsg = fmt.Sprintf("Error saving profile: %v", err)
					break
				}
				w.profile = saved
				w.saved = true
				w.done = true
				return w, nil
			}

		case "up":
			if w.step == 3 {
				if w.remoteSel > 0 {
					w.remoteSel--
				}
			} else if w.step > 0 {
				w.retreat()
			}
		case "down":
			if w.step == 3 && w.remoteSel < 1 {
				w.remoteSel++
			}

		default:
			// k/j only navigate on the select step; everywhere else they are
			// ordinary input characters.
			if w.step == 3 {
				switch msg.String() {
				case "k":
					if w.remoteSel > 0 {
						w.remoteSel--
					}
				case "j":
					if w.remoteSel < 1 {
						w.remoteSel++
					}
				}
				break
			}
			w.input, cmd = w.input.Update(msg)
			return w, cmd
		}

	case tea.WindowSizeMsg:
		w.width = msg.Width
		w.height = msg.Height
	}

	return w, cmd
}

func (w *ProfileWizard) advance() {
	w.step++
	w.statusMsg = ""
	w.input.Reset()
	switch w.step {
	case 1:
		w.input.Placeholder = "golang, backend, devops"
	case 2:
		w.input.Placeholder = "Berlin (empty for anywhere)"
	case 4:
		w.input.Placeholder = strconv.Itoa(w.profile.MaxJobs)
	}
	if w.step == 3 {
		w.input.Blur()
	} else {
		w.input.Focus()
	}
}

func (w *ProfileWizard) retreat() {
	w.step--
	w.statusMsg = ""
	w.input.Reset()
	if w.step == 3 {
		w.input.Blur()
	} else {
		w.input.Focus()
	}
}

func (w *ProfileWizard) View() string {
	if w.done {
		return ""
	}

	header := w.theme.TopBarTitle.Render("New search profile")
	progress := w.theme.Spinner.Render(progressBar(w.step, wizardSteps+1))

	var body string
	switch w.step {
	case 0:
		body = fmt.Sprintf("Step 1 of 6: Name\n\n%s\n\nName: %s\n", w.statusLine(), w.input.View())
	case 1:
		body = fmt.Sprintf("Step 2 of 6: Keywords (comma separated)\n\n%s\n\nKeywords: %s\n", w.statusLine(), w.input.View())
	case 2:
		body = fmt.Sprintf("Step 3 of 6: Location\n\n%s\n\nLocation: %s\n", w.statusLine(), w.input.View())
	case 3:
		options := ""
		for i, label := range []string{"include remote jobs", "on-site only"} {
			marker := "○"
			if i == w.remoteSel {
				marker = "●"
			}
			options += fmt.Sprintf("  %s %s\n", marker, label)
		}
		body = fmt.Sprintf("Step 4 of 6: Remote work\n\n%s\nUse ↑/↓ to select, Enter to confirm.\n", options)
	case 4:
		body = fmt.Sprintf("Step 5 of 6: Job limit per run\n\n%s\n\nLimit: %s\n", w.statusLine(), w.input.View())
	case wizardSteps:
		location := w.profile.Location
		if location == "" {
			location = "anywhere"
		}
		remote := "on-site only"
		if w.profile.IncludeRemote {
			remote = "remote included"
		}
		body = fmt.Sprintf(`Step 6 of 6: Confirm

  ✓ Name:      %s
  ✓ Keywords:  %s
  ✓ Location:  %s
  ✓ Remote:    %s
  ✓ Job limit: %d

%s
Enter saves and activates the profile.
`, w.profile.Name, strings.Join(w.profile.Keywords, ", "), location, remote, w.profile.MaxJobs, w.statusLine())
	}

	help := w.theme.Footer.Render("↑ back  |  Enter confirm  |  Esc cancel")
	return lipgloss.JoinVertical(lipgloss.Left, header, "", progress, "", body, help)
}

func (w *ProfileWizard) statusLine() string {
	if w.statusMsg == "" {
		return ""
	}
	return w.theme.LogWarn.Render(w.statusMsg)
}

// Done reports whether the wizard is finished, saved or abandoned.
func (w *ProfileWizard) Done() bool {
	return w.done
}

// Saved reports whether the profile was stored on the backend.
func (w *ProfileWizard) Saved() bool {
	return w.saved
}

// Profile returns the profile as the backend stored it. Only meaningful
// after Saved() reports true.
func (w *ProfileWizard) Profile() app.SearchProfile {
	return w.profile
}

func splitKeywords(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if kw := strings.TrimSpace(part); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

func progressBar(step, total int) string {
	const width = 48
	filled := width * (step + 1) / total
	return strings.Repeat("▓", filled) + strings.Repeat("░", width-filled)
}
