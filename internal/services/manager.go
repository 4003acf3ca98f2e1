// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"
	"github.com/skratchdot/open-golang/open"

	"github.com/hfrankel/cursor-usage-tui/internal/aggregate"
	"github.com/hfrankel/cursor-usage-tui/internal/config"
	"github.com/hfrankel/cursor-usage-tui/internal/credstore"
	"github.com/hfrankel/cursor-usage-tui/internal/cursorapi"
	"github.com/hfrankel/cursor-usage-tui/internal/logger"
	"github.com/hfrankel/cursor-usage-tui/internal/models"
	usagesvc "github.com/hfrankel/cursor-usage-tui/internal/services/usage"
)

type (
	// DataUpdatedEvent is emitted when a refresh replaced the snapshot.
	DataUpdatedEvent struct {
		Data *models.UsageDisplayData
	}

	// RefreshStartedEvent is emitted when a refresh begins.
	RefreshStartedEvent struct{}

	// RefreshErrorEvent is emitted when a refresh fails; previous data is
	// retained.
	RefreshErrorEvent struct {
		Error error
	}

	// LoginChangedEvent is emitted when the on-disk login state changed.
	// The credential is fixed for the process lifetime, so a restart is
	// needed to pick up the new login.
	LoginChangedEvent struct{}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (DataUpdatedEvent) isServiceEvent()    {}
func (RefreshStartedEvent) isServiceEvent() {}
func (RefreshErrorEvent) isServiceEvent()   {}
func (LoginChangedEvent) isServiceEvent()   {}

// Manager wires credential extraction, the API client, the aggregation
// engine, and the refresh service, and routes their events to subscribers.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	credErr     error
	userID      string
	usage       *usagesvc.Service
	watcher     *credstore.Watcher
	eventChan   chan ServiceEvent
	stopChan    chan struct{}
	subscribers []chan<- ServiceEvent
	alertFired  bool
}

// NewManager extracts the credential and starts the refresh service. A
// credential failure is not fatal to construction: the manager comes up in a
// persistent error state the UI surfaces, with no automatic retry.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		cfg:       cfg,
		eventChan: make(chan ServiceEvent, 100),
		stopChan:  make(chan struct{}),
	}

	store := credstore.New(cfg.StorePath)

	// Watch the store so the user learns about login changes even while
	// this process keeps its startup credential.
	watcher, err := credstore.NewWatcher(store.Path())
	if err != nil {
		logger.Warn("store watcher unavailable", "error", err)
	} else {
		m.watcher = watcher
	}

	cred, err := store.ExtractCredential(context.Background())
	if err != nil {
		m.credErr = err
		logger.Error("credential extraction failed", "error", err)
		go m.routeEvents()
		return m, nil
	}
	m.userID = cred.UserID

	client := cursorapi.New(cred, cfg.APIBaseURL)
	engine := aggregate.NewEngine(client)
	m.usage = usagesvc.New(engine, usagesvc.Config{PollInterval: cfg.RefreshInterval})

	go m.routeEvents()

	return m, nil
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	var usageEvents <-chan usagesvc.Event
	if m.usage != nil {
		usageEvents = m.usage.Events()
	}
	var storeChanges <-chan struct{}
	if m.watcher != nil {
		storeChanges = m.watcher.Changes()
	}

	for {
		select {
		case event := <-usageEvents:
			m.handleUsageEvent(event)

		case <-storeChanges:
			m.handleLoginChange()

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleUsageEvent(event usagesvc.Event) {
	switch event.Type {
	case usagesvc.EventRefreshStarted:
		m.broadcast(RefreshStartedEvent{})

	case usagesvc.EventDataUpdated:
		m.broadcast(DataUpdatedEvent{Data: event.Data})
		if event.Data != nil {
			m.checkSpendAlert(event.Data)
		}

	case usagesvc.EventRefreshError:
		m.broadcast(RefreshErrorEvent{Error: event.Err})
	}
}

func (m *Manager) handleLoginChange() {
	logger.Info("cursor login state changed on disk")
	m.broadcast(LoginChangedEvent{})

	if err := beeep.Notify("Cursor Usage",
		"Cursor login state changed. Restart cursor-usage-tui to pick it up.", ""); err != nil {
		logger.Debug("notification failed", "error", err)
	}
}

// checkSpendAlert fires a desktop notification the first time today's spend
// crosses the configured threshold in this session.
func (m *Manager) checkSpendAlert(data *models.UsageDisplayData) {
	threshold := m.cfg.SpendAlertDollars
	if threshold <= 0 {
		return
	}

	m.mu.Lock()
	fired := m.alertFired
	if !fired && data.Today.SpendDollars >= threshold {
		m.alertFired = true
	}
	shouldNotify := !fired && m.alertFired
	m.mu.Unlock()

	if !shouldNotify {
		return
	}

	title := "Cursor Usage"
	body := fmt.Sprintf("Today's spend reached $%.2f (alert threshold $%.2f)",
		data.Today.SpendDollars, threshold)
	if err := beeep.Notify(title, body, ""); err != nil {
		logger.Debug("notification failed", "error", err)
	}
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	// Send to main event channel
	select {
	case m.eventChan <- event:
	default:
	}

	// Send to subscribers
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd that waits for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// CredentialError returns the fatal startup credential error, nil when the
// credential was extracted successfully.
func (m *Manager) CredentialError() error {
	return m.credErr
}

// UserID returns the authenticated user identifier, empty in the credential
// error state.
func (m *Manager) UserID() string {
	return m.userID
}

// Snapshot returns the current refresh snapshot. In the credential error
// state it carries the persistent error message and no data.
func (m *Manager) Snapshot() usagesvc.Snapshot {
	if m.usage == nil {
		return usagesvc.Snapshot{Err: m.credErr.Error()}
	}
	return m.usage.Snapshot()
}

// SpendHistory returns the session's per-refresh spend series.
func (m *Manager) SpendHistory() []float64 {
	if m.usage == nil {
		return nil
	}
	return m.usage.SpendHistory()
}

// RefreshNow requests an immediate refresh.
func (m *Manager) RefreshNow() {
	if m.usage != nil {
		m.usage.RequestRefresh()
	}
}

// OpenDashboard opens the Cursor dashboard in the default browser.
func (m *Manager) OpenDashboard() error {
	return open.Run(m.cfg.DashboardURL)
}

// DashboardURL returns the configured dashboard URL.
func (m *Manager) DashboardURL() string {
	return m.cfg.DashboardURL
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	close(m.stopChan)

	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	var errs []error

	if m.usage != nil {
		if err := m.usage.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if m.watcher != nil {
		if err := m.watcher.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
