// Package usage runs the periodic refresh loop and owns the last-good
// display snapshot.
package usage

import (
	"context"
	"sync"
	"time"

	"github.com/hfrankel/cursor-usage-tui/internal/logger"
	"github.com/hfrankel/cursor-usage-tui/internal/models"
)

// Aggregator is the slice of the aggregation engine the service depends on.
type Aggregator interface {
	BuildDisplayData(ctx context.Context) (*models.UsageDisplayData, error)
}

// Event represents a usage service event.
type Event struct {
	Type EventType
	Data *models.UsageDisplayData
	Err  error
}

// EventType defines the type of usage event.
type EventType int

const (
	// EventRefreshStarted indicates a refresh is in flight.
	EventRefreshStarted EventType = iota
	// EventDataUpdated indicates a refresh completed and replaced the snapshot.
	EventDataUpdated
	// EventRefreshError indicates a refresh failed; the previous snapshot
	// data is retained.
	EventRefreshError
)

// Snapshot is the synchronized view of the last refresh outcome. Data is the
// last successfully computed display data, nil before the first success.
// Replaced as a whole, never field by field.
type Snapshot struct {
	Data        *models.UsageDisplayData
	Err         string
	LastUpdated time.Time
	Loading     bool
	Refreshing  bool
}

// Config holds configuration for the usage service.
type Config struct {
	PollInterval time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval: 60 * time.Second,
	}
}

// spendHistoryCap bounds the in-session sparkline series.
const spendHistoryCap = 720

// Service serializes refreshes through a single worker goroutine: a manual
// request arriving while a refresh is in flight coalesces into at most one
// pending follow-up, never a concurrent fetch.
type Service struct {
	mu           sync.RWMutex
	engine       Aggregator
	snapshot     Snapshot
	spendHistory []float64
	eventChan    chan Event
	refreshCh    chan struct{}
	stopChan     chan struct{}
	config       Config
}

// New creates a usage service and starts its worker.
func New(engine Aggregator, config Config) *Service {
	if config.PollInterval <= 0 {
		config = DefaultConfig()
	}

	s := &Service{
		engine:    engine,
		snapshot:  Snapshot{Loading: true},
		eventChan: make(chan Event, 100),
		refreshCh: make(chan struct{}, 1),
		stopChan:  make(chan struct{}),
		config:    config,
	}

	go s.run()

	return s
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Snapshot returns the current refresh snapshot.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// SpendHistory returns the session's per-refresh series of today's spend.
func (s *Service) SpendHistory() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]float64, len(s.spendHistory))
	copy(history, s.spendHistory)
	return history
}

// RequestRefresh asks the worker for an immediate refresh. Requests during
// an in-flight refresh coalesce into one pending follow-up.
func (s *Service) RequestRefresh() {
	select {
	case s.refreshCh <- struct{}{}:
	default:
		// A follow-up is already pending.
	}
}

// run is the single worker loop; all refreshes happen here, sequentially.
func (s *Service) run() {
	// Initial refresh
	s.doRefresh()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.doRefresh()
		case <-s.refreshCh:
			s.doRefresh()
		case <-s.stopChan:
			return
		}
	}
}

func (s *Service) doRefresh() {
	s.setRefreshing(true)
	s.sendEvent(Event{Type: EventRefreshStarted})

	data, err := s.engine.BuildDisplayData(context.Background())
	if err != nil {
		logger.Error("usage refresh failed", "error", err)

		s.mu.Lock()
		// Keep the stale data; only the error message is replaced.
		s.snapshot = Snapshot{
			Data:        s.snapshot.Data,
			Err:         err.Error(),
			LastUpdated: s.snapshot.LastUpdated,
			Loading:     s.snapshot.Data == nil,
		}
		s.mu.Unlock()

		s.sendEvent(Event{Type: EventRefreshError, Err: err})
		return
	}

	s.mu.Lock()
	s.snapshot = Snapshot{
		Data:        data,
		LastUpdated: time.Now(),
	}
	s.spendHistory = append(s.spendHistory, data.Today.SpendDollars)
	if len(s.spendHistory) > spendHistoryCap {
		s.spendHistory = s.spendHistory[len(s.spendHistory)-spendHistoryCap:]
	}
	s.mu.Unlock()

	s.sendEvent(Event{Type: EventDataUpdated, Data: data})
}

func (s *Service) setRefreshing(v bool) {
	s.mu.Lock()
	s.snapshot.Refreshing = v
	s.mu.Unlock()
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the worker.
func (s *Service) Close() error {
	close(s.stopChan)
	return nil
}
