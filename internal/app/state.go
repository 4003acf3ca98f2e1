// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	usagesvc "github.com/hfrankel/cursor-usage-tui/internal/services/usage"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// AppState holds the shared state rendered by the tabs. It mirrors the
// manager's latest snapshot plus UI-only state such as notifications.
type AppState struct {
	mu sync.RWMutex

	snapshot      usagesvc.Snapshot
	spendHistory  []float64
	restartNeeded bool

	notifications   []Notification
	notificationSeq int
}

// NewAppState creates an empty application state.
func NewAppState() *AppState {
	return &AppState{
		snapshot:      usagesvc.Snapshot{Loading: true},
		notifications: make([]Notification, 0),
	}
}

// SetSnapshot replaces the usage snapshot.
func (s *AppState) SetSnapshot(snap usagesvc.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
}

// GetSnapshot returns the current usage snapshot.
func (s *AppState) GetSnapshot() usagesvc.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// SetSpendHistory replaces the per-refresh spend series.
func (s *AppState) SetSpendHistory(history []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spendHistory = history
}

// GetSpendHistory returns the per-refresh spend series.
func (s *AppState) GetSpendHistory() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := make([]float64, len(s.spendHistory))
	copy(history, s.spendHistory)
	return history
}

// SetRestartNeeded marks that the on-disk login changed after startup.
func (s *AppState) SetRestartNeeded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restartNeeded = true
}

// RestartNeeded reports whether the on-disk login changed after startup.
func (s *AppState) RestartNeeded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.restartNeeded
}

// IsLoading returns true while the first successful refresh is pending.
func (s *AppState) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Loading
}

// GetLastUpdated returns the time of the last successful refresh.
func (s *AppState) GetLastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.LastUpdated
}

// TimeSinceUpdate returns the duration since the last successful refresh.
func (s *AppState) TimeSinceUpdate() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot.LastUpdated.IsZero() {
		return 0
	}
	return time.Since(s.snapshot.LastUpdated)
}

// AddNotification adds a new notification and returns its ID.
func (s *AppState) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	notification := Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	}

	s.notifications = append(s.notifications, notification)

	// Keep only the last 10 notifications
	if len(s.notifications) > 10 {
		s.notifications = s.notifications[len(s.notifications)-10:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *AppState) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *AppState) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *AppState) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}

	return active
}

// ClearAllNotifications removes all notifications.
func (s *AppState) ClearAllNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = make([]Notification, 0)
}

// SetLoadingNotification sets a loading notification message.
func (s *AppState) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  0,
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *AppState) ClearLoadingNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}
