package app

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hfrankel/cursor-usage-tui/internal/models"
	"github.com/hfrankel/cursor-usage-tui/internal/services"
	usagesvc "github.com/hfrankel/cursor-usage-tui/internal/services/usage"
)

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModelDefaults(t *testing.T) {
	m := NewModel(nil)

	if m.GetActiveTab() != TabUsage {
		t.Errorf("active tab = %v, want TabUsage", m.GetActiveTab())
	}
	if m.IsReady() {
		t.Error("model should not be ready before a window size message")
	}
	if len(m.tabNames) != 2 {
		t.Errorf("tab names = %v, want two tabs", m.tabNames)
	}
}

func TestTabIDString(t *testing.T) {
	tests := []struct {
		id   TabID
		want string
	}{
		{TabUsage, "Usage"},
		{TabInfo, "Info"},
		{TabID(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.id.String(); got != tt.want {
			t.Errorf("TabID(%d).String() = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestWindowSizeMakesReady(t *testing.T) {
	m := NewModel(nil)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(*Model)

	if !m.IsReady() {
		t.Error("model should be ready after window size")
	}
	if m.GetWidth() != 120 || m.GetHeight() != 40 {
		t.Errorf("size = %dx%d, want 120x40", m.GetWidth(), m.GetHeight())
	}
}

func TestTabSwitchingKeys(t *testing.T) {
	m := NewModel(nil)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	m.Update(keyMsg("2"))
	if m.GetActiveTab() != TabInfo {
		t.Errorf("after '2': tab = %v, want TabInfo", m.GetActiveTab())
	}

	m.Update(keyMsg("1"))
	if m.GetActiveTab() != TabUsage {
		t.Errorf("after '1': tab = %v, want TabUsage", m.GetActiveTab())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.GetActiveTab() != TabInfo {
		t.Errorf("after tab: tab = %v, want TabInfo", m.GetActiveTab())
	}

	// Wraps around.
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.GetActiveTab() != TabUsage {
		t.Errorf("after second tab: tab = %v, want TabUsage", m.GetActiveTab())
	}
}

func TestHelpToggle(t *testing.T) {
	m := NewModel(nil)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	m.Update(keyMsg("?"))
	if !m.showHelp {
		t.Error("help should be shown after '?'")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.showHelp {
		t.Error("help should be hidden after esc")
	}
}

func TestQuitKeyReturnsQuit(t *testing.T) {
	m := NewModel(nil)

	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("quit key produced no command")
	}
	if msg := cmd(); msg == nil {
		t.Error("quit command produced nil message")
	}
}

func TestRefreshKeyEmitsRefreshMsg(t *testing.T) {
	m := NewModel(nil)

	cmd := m.handleKeyMsg(keyMsg("r"))
	if cmd == nil {
		t.Fatal("refresh key produced no command")
	}
	if _, ok := cmd().(RefreshMsg); !ok {
		t.Error("refresh key should emit RefreshMsg")
	}
}

func TestNavbarShowsTabs(t *testing.T) {
	m := NewModel(nil)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	navbar := m.renderNavbar()
	if !strings.Contains(navbar, "Usage") || !strings.Contains(navbar, "Info") {
		t.Errorf("navbar missing tab names: %q", navbar)
	}
}

func TestNavbarShowsTodaySummary(t *testing.T) {
	m := NewModel(nil)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	m.state.SetSnapshot(usagesvc.Snapshot{Data: &models.UsageDisplayData{
		Today: models.PeriodSummary{Label: "Today", Requests: 12, SpendDollars: 3.5},
	}})

	navbar := m.renderNavbar()
	if !strings.Contains(navbar, "Today: $3.50 (12 req)") {
		t.Errorf("navbar missing today summary: %q", navbar)
	}
}

func TestNavbarShowsSpendSparkline(t *testing.T) {
	m := NewModel(nil)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	m.state.SetSnapshot(usagesvc.Snapshot{Data: &models.UsageDisplayData{
		Today: models.PeriodSummary{Label: "Today", Requests: 3, SpendDollars: 1.25},
	}})
	m.state.SetSpendHistory([]float64{0.5, 0.9, 1.25})

	navbar := m.renderNavbar()
	if !strings.ContainsAny(navbar, "▁▂▃▄▅▆▇█") {
		t.Errorf("navbar missing spend sparkline: %q", navbar)
	}
}

func TestViewBeforeReady(t *testing.T) {
	m := NewModel(nil)
	view := m.View()
	if !strings.Contains(view, "Loading") {
		t.Errorf("pre-ready view should show loading, got %q", view)
	}
}

func TestAddNotificationFlow(t *testing.T) {
	m := NewModel(nil)

	cmds := m.handleAddNotification(AddNotificationMsg{
		Type:     NotificationSuccess,
		Message:  "refreshed",
		Duration: time.Minute,
	})
	if len(cmds) != 1 {
		t.Fatalf("expected a clear command, got %d", len(cmds))
	}

	notifs := m.state.GetNotifications()
	if len(notifs) != 1 || notifs[0].Message != "refreshed" {
		t.Errorf("notifications = %+v", notifs)
	}
}

func TestLoginChangedEventMarksRestart(t *testing.T) {
	m := NewModel(nil)

	cmd := m.handleServiceEvent(services.LoginChangedEvent{})
	if cmd == nil {
		t.Fatal("login change should produce a warning notification command")
	}
	if !m.state.RestartNeeded() {
		t.Error("login change should mark restart needed")
	}

	n, ok := cmd().(AddNotificationMsg)
	if !ok || n.Type != NotificationWarning {
		t.Errorf("expected warning notification, got %+v", n)
	}
}

func TestErrorMsgProducesNotification(t *testing.T) {
	m := NewModel(nil)

	cmds := m.handleAppMsg(ErrorMsg{Error: errTest})
	if len(cmds) != 1 {
		t.Fatalf("expected one command, got %d", len(cmds))
	}
	n, ok := cmds[0]().(AddNotificationMsg)
	if !ok || n.Type != NotificationError {
		t.Errorf("expected error notification, got %+v", n)
	}
}

var errTest = &testError{}

type testError struct{}

func (*testError) Error() string { return "test error" }
