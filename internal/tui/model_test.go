package tui

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"hunt-cli/internal/app"
)

func testBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/process-status", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"status":  map[string]any{"status": "running"},
		})
	})
	mux.HandleFunc("/api/process/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	})
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "version": "1.4.0"})
	})
	mux.HandleFunc("/api/profiles/active", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "no active profile"})
	})
	mux.HandleFunc("/drafts", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"drafts": []map[string]any{
				{"id": 1, "company": "ACME GmbH", "title": "Marketing Manager", "letter_text": "..."},
			},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestModel(t *testing.T) *MainModel {
	t.Helper()
	srv := testBackend(t)
	client := app.NewBackendClient(srv.URL)
	logger := app.NewLogger(io.Discard)
	m := NewMainModel(client, nil, logger, time.Hour)
	t.Cleanup(m.sup.Close)

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func press(m *MainModel, k string) tea.Cmd {
	var msg tea.KeyMsg
	switch k {
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	_, cmd := m.Update(msg)
	return cmd
}

func runningStatus() app.ProcessStatus {
	return app.ProcessStatus{Phase: app.PhaseRunning, Timestamp: time.Now()}.Normalized()
}

// seedRunning puts both the supervisor and the rendered model into the
// running state, the way an accepted poll would.
func seedRunning(m *MainModel) {
	st := runningStatus()
	m.sup.ReportStatus(st)
	m.Update(statusMsg{st: st})
}

func TestCancelNeedsConfirmation(t *testing.T) {
	m := newTestModel(t)
	seedRunning(m)

	press(m, "c")
	if m.sup.Pending() != app.ActionCancel {
		t.Fatalf("pending = %q, want cancel", m.sup.Pending())
	}
	if view := m.View(); !strings.Contains(view, "Cancel the hunt?") {
		t.Fatal("confirm prompt not rendered")
	}

	press(m, "n")
	if m.sup.Pending() != app.ActionNone {
		t.Fatalf("dismiss did not clear pending: %q", m.sup.Pending())
	}
	if view := m.View(); strings.Contains(view, "Cancel the hunt?") {
		t.Fatal("confirm prompt still rendered after dismiss")
	}
}

func TestCancelKeyIgnoredWhenNothingRuns(t *testing.T) {
	m := newTestModel(t)

	press(m, "c")
	if m.sup.Pending() != app.ActionNone {
		t.Fatalf("cancel accepted on idle status: %q", m.sup.Pending())
	}
}

func TestConfirmDispatchesAndSpins(t *testing.T) {
	m := newTestModel(t)
	seedRunning(m)

	press(m, "c")
	cmd := press(m, "y")
	if cmd == nil {
		t.Fatal("confirm did not start the spinner tick")
	}

	deadline := time.Now().Add(2 * time.Second)
	for m.sup.Busy() {
		if time.Now().After(deadline) {
			t.Fatal("dispatch never resolved")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if m.sup.Pending() != app.ActionNone {
		t.Fatalf("pending not cleared after dispatch: %q", m.sup.Pending())
	}
}

func TestStatusMessageKeepsListening(t *testing.T) {
	m := newTestModel(t)

	st := runningStatus()
	_, cmd := m.Update(statusMsg{st: st})
	if cmd == nil {
		t.Fatal("status message did not re-arm the wait command")
	}
	if m.status.Phase != app.PhaseRunning {
		t.Fatalf("status not applied: %s", m.status.Phase)
	}
	if view := m.View(); !strings.Contains(view, "running") {
		t.Fatal("running phase not rendered")
	}
}

func TestObserverSnapshotsReachTheChannel(t *testing.T) {
	m := newTestModel(t)

	m.sup.ReportStatus(runningStatus())
	select {
	case st := <-m.statusCh:
		if st.Phase != app.PhaseRunning {
			t.Fatalf("observed phase = %s", st.Phase)
		}
	case <-time.After(time.Second):
		t.Fatal("observer snapshot never arrived")
	}
}

func TestHelpScreenToggles(t *testing.T) {
	m := newTestModel(t)

	press(m, "?")
	if view := m.View(); !strings.Contains(view, "hunt help") {
		t.Fatal("help screen not shown")
	}
	press(m, "?")
	if view := m.View(); strings.Contains(view, "hunt help") {
		t.Fatal("help screen did not close")
	}
}

func TestDraftsScreenLoadsAndRenders(t *testing.T) {
	m := newTestModel(t)

	cmd := press(m, "d")
	if cmd == nil {
		t.Fatal("drafts key produced no load command")
	}
	msg := cmd()
	dm, ok := msg.(draftsMsg)
	if !ok {
		t.Fatalf("load command returned %T", msg)
	}
	if dm.err != nil {
		t.Fatal(dm.err)
	}
	m.Update(dm)

	if view := m.View(); !strings.Contains(view, "ACME GmbH") {
		t.Fatal("draft list not rendered")
	}

	press(m, "esc")
	if m.screen != screenStatus {
		t.Fatalf("esc did not leave drafts screen: %d", m.screen)
	}
}

func TestHealthProbeLandsInTopBar(t *testing.T) {
	m := newTestModel(t)

	cmd := m.probeHealth()
	m.Update(cmd())

	if view := m.View(); !strings.Contains(view, "ok 1.4.0") {
		t.Fatal("health report not rendered")
	}
}

func TestQuitClosesSupervisor(t *testing.T) {
	m := newTestModel(t)
	seedRunning(m)

	cmd := press(m, "q")
	if cmd == nil {
		t.Fatal("quit produced no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("quit key did not return tea.Quit")
	}
	if m.sup.PollingActive() {
		t.Fatal("supervisor still polling after quit")
	}
}
